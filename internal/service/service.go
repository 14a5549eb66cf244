// Package service holds the console workflows that sit beside meal plan
// moderation: notifications, categories, feedback, accounts, nutritionist
// applications and reports.
package service

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// plainText strips markup from user input and decodes the entities the
// policy leaves behind.
func plainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}
