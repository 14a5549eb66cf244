package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"diabeater-console/pkg/apperror"
)

type decisionRequest struct {
	Verdict string `validate:"required,oneof=APPROVED REJECTED"`
	Reason  string `validate:"required_if=Verdict REJECTED"`
}

func TestStruct(t *testing.T) {
	assert.NoError(t, Struct(decisionRequest{Verdict: "APPROVED"}))

	err := Struct(decisionRequest{Verdict: "REJECTED"})
	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.Contains(t, err.Error(), "Reason is required")

	err = Struct(decisionRequest{Verdict: "MAYBE"})
	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.Contains(t, err.Error(), "Verdict must be one of [APPROVED REJECTED]")
}
