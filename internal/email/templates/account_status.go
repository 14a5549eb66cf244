package templates

import (
	_ "embed"
	"fmt"
)

//go:embed account_status.html
var accountStatusHTML string

var accountStatusTmpl = mustPage("account_status", accountStatusHTML)

type AccountStatusData struct {
	Page
	Name      string
	Suspended bool
}

func RenderAccountStatus(data AccountStatusData) (string, error) {
	data.defaults()
	body, err := render(accountStatusTmpl, data)
	if err != nil {
		return "", fmt.Errorf("render account_status: %w", err)
	}
	return body, nil
}

func AccountStatusSubject(suspended bool) string {
	if suspended {
		return "Your DiaBeater account has been suspended"
	}
	return "Your DiaBeater account has been reactivated"
}
