package templates

import (
	_ "embed"
	"fmt"
)

//go:embed application_approved.html
var applicationApprovedHTML string

//go:embed application_rejected.html
var applicationRejectedHTML string

var (
	applicationApprovedTmpl = mustPage("application_approved", applicationApprovedHTML)
	applicationRejectedTmpl = mustPage("application_rejected", applicationRejectedHTML)
)

type ApplicationApprovedData struct {
	Page
	Name      string
	SetupLink string
}

type ApplicationRejectedData struct {
	Page
	Name   string
	Reason string
}

func RenderApplicationApproved(data ApplicationApprovedData) (string, error) {
	data.defaults()
	body, err := render(applicationApprovedTmpl, data)
	if err != nil {
		return "", fmt.Errorf("render application_approved: %w", err)
	}
	return body, nil
}

func RenderApplicationRejected(data ApplicationRejectedData) (string, error) {
	data.defaults()
	body, err := render(applicationRejectedTmpl, data)
	if err != nil {
		return "", fmt.Errorf("render application_rejected: %w", err)
	}
	return body, nil
}
