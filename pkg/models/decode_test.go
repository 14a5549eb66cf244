package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diabeater-console/pkg/apperror"
)

func TestDecodeMealPlan(t *testing.T) {
	created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	p, err := DecodeMealPlan("p1", Record{
		"name":            " Herb Salmon ",
		"authorId":        "nutri-1",
		"status":          "pending",
		"rejectionReason": "stale",
		"categories":      []interface{}{"Dinner", "Dinner", "Keto"},
		"ingredients":     "salmon\n\nherbs",
		"saves":           int64(12),
		"createdAt":       created.Format(time.RFC3339),
		"nutrients":       map[string]interface{}{"protein": 32, "carbohydrates": 4.5},
	})
	require.NoError(t, err)

	assert.Equal(t, "Herb Salmon", p.Name)
	assert.Equal(t, StatusPendingApproval, p.Status)
	assert.Empty(t, p.RejectionReason, "only rejected plans carry a reason")
	assert.Equal(t, []string{"Dinner", "Keto"}, p.Categories)
	assert.Equal(t, []string{"salmon", "herbs"}, p.Ingredients)
	assert.Equal(t, int64(12), p.Saves)
	assert.True(t, created.Equal(p.CreatedAt))
	require.NotNil(t, p.Nutrients.Protein)
	assert.Equal(t, 32.0, *p.Nutrients.Protein)
	assert.Nil(t, p.Nutrients.Fats)
}

func TestDecodeMealPlanRejectsMalformedRecords(t *testing.T) {
	base := func() Record {
		return Record{"name": "Soup", "authorId": "nutri-1", "status": "APPROVED"}
	}

	cases := map[string]func(Record){
		"unknown status":    func(r Record) { r["status"] = "ARCHIVED" },
		"missing author":    func(r Record) { delete(r, "authorId") },
		"negative nutrient": func(r Record) { r["nutrients"] = map[string]interface{}{"sugar": -1} },
		"wrong type":        func(r Record) { r["saves"] = "many" },
		"negative counter":  func(r Record) { r["likes"] = -3 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			rec := base()
			mutate(rec)
			_, err := DecodeMealPlan("p1", rec)
			assert.ErrorIs(t, err, apperror.ErrValidation)
		})
	}
}

func TestDecodeUserAccountDefaults(t *testing.T) {
	u, err := DecodeUserAccount("u1", Record{"firstName": "Ada", "email": "ada@example.com"})
	require.NoError(t, err)
	assert.Equal(t, RoleUser, u.Role)
	assert.Equal(t, AccountActive, u.Status)

	u, err = DecodeUserAccount("u2", Record{"role": "pending-nutritionist", "status": "suspended"})
	require.NoError(t, err)
	assert.Equal(t, RolePendingNutritionist, u.Role)
	assert.Equal(t, AccountInactive, u.Status)

	_, err = DecodeUserAccount("u3", Record{"role": "superuser"})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestDecodeFeedbackRating(t *testing.T) {
	f, err := DecodeFeedback("f1", Record{"message": "Great", "rating": 5.0, "createdAt": time.Now()})
	require.NoError(t, err)
	assert.Equal(t, 5, f.Rating)

	for _, bad := range []interface{}{0, 6, 4.5, "five"} {
		_, err := DecodeFeedback("f2", Record{"message": "Hm", "rating": bad})
		assert.ErrorIs(t, err, apperror.ErrValidation, "rating %v", bad)
	}
}

func TestTimeAcceptsUnixMillis(t *testing.T) {
	r := newReader("test", "x", Record{"at": float64(1700000000000)})
	assert.Equal(t, int64(1700000000), r.Time("at").Unix())
	assert.NoError(t, r.Err())
}
