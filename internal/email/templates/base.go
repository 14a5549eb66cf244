// Package templates renders the console's transactional emails. Every page
// shares layout.html and fills its "content" block.
package templates

import (
	_ "embed"
	"html/template"
	"strings"
	"time"
)

//go:embed layout.html
var layoutHTML string

const defaultLogoURL = "https://diabeater.app/icon.png"

// Page carries the fields the layout itself reads.
type Page struct {
	Year    int
	LogoURL string
}

func (p *Page) defaults() {
	if p.Year == 0 {
		p.Year = time.Now().Year()
	}
	if p.LogoURL == "" {
		p.LogoURL = defaultLogoURL
	}
}

func mustPage(name, content string) *template.Template {
	return template.Must(template.Must(template.New(name).Parse(layoutHTML)).Parse(content))
}

func render(t *template.Template, data interface{}) (string, error) {
	var buf strings.Builder
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
