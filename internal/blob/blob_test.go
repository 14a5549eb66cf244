package blob

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewKey(t *testing.T) {
	key := NewKey(MealPlanImages, "nutri-1", "Salmon.JPG")

	assert.True(t, strings.HasPrefix(key, "meal_plan_images/nutri-1_"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))
	assert.NotEqual(t, key, NewKey(MealPlanImages, "nutri-1", "Salmon.JPG"))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/jpeg", ContentType("a.jpeg"))
	assert.Equal(t, "image/webp", ContentType("a.WEBP"))
	assert.Equal(t, "application/pdf", ContentType("cert.pdf"))
	assert.Equal(t, "application/octet-stream", ContentType("notes"))

	assert.True(t, IsImage("x.png"))
	assert.False(t, IsImage("cert.pdf"))
}

func TestCloudinaryPublicID(t *testing.T) {
	c := &Cloudinary{folder: "diabeater"}
	assert.Equal(t, "diabeater/meal_plan_images/a_1_b", c.publicID("meal_plan_images/a_1_b.png"))

	c.folder = ""
	assert.Equal(t, "meal_plan_images/a_1_b", c.publicID("meal_plan_images/a_1_b.png"))
}
