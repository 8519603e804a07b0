package cmd

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/ngodash/internal/api"
	"github.com/theirongolddev/ngodash/internal/budget"
	"github.com/theirongolddev/ngodash/internal/model"
	"github.com/theirongolddev/ngodash/internal/session"
)

func TestParseAmount(t *testing.T) {
	v, err := parseAmount(" 0.30 ")
	require.NoError(t, err)
	assert.True(t, v.Equal(decimal.RequireFromString("0.3")))

	for _, s := range []string{"", "abc", "0", "-1", "0x1p4", "NaN", "1,000"} {
		_, err := parseAmount(s)
		assert.Error(t, err, s)
	}
}

func TestParsePositive(t *testing.T) {
	v, err := parsePositive(" 12.5 ")
	require.NoError(t, err)
	assert.InDelta(t, 12.5, v, 1e-9)

	for _, s := range []string{"", "abc", "0", "-3", "NaN", "Inf"} {
		_, err := parsePositive(s)
		assert.Error(t, err, s)
	}
}

func TestValidDate(t *testing.T) {
	assert.NoError(t, validDate(""))
	assert.NoError(t, validDate("2026-03-01"))
	assert.Error(t, validDate("03/01/2026"))
}

func TestValidBaseURL(t *testing.T) {
	assert.NoError(t, validBaseURL("http://localhost:5000/api"))
	assert.NoError(t, validBaseURL("https://ngo.example.org"))
	assert.Error(t, validBaseURL("localhost:5000"))
	assert.Error(t, validBaseURL("ftp://example.org"))
}

func TestValidators(t *testing.T) {
	assert.NoError(t, validateEmail(" ada@example.org "))
	assert.Error(t, validateEmail("ada"))
	assert.NoError(t, validateStrongPassword("Secret#1"))
	assert.Error(t, validateStrongPassword("secret"))
	assert.Error(t, notEmpty("name")("  "))
}

func TestLoginFailureUsesServerMessage(t *testing.T) {
	err := loginFailure(&session.AuthError{Op: "login", Message: "Invalid email or password"})
	assert.EqualError(t, err, "Invalid email or password")

	plain := errors.New("dial tcp: refused")
	assert.Equal(t, plain, loginFailure(plain))
}

func TestBudgetFailureMessages(t *testing.T) {
	err := budgetFailure(&budget.BudgetExceededError{
		Remaining: decimal.NewFromInt(250),
		Candidate: decimal.NewFromInt(300),
		Total:     decimal.NewFromInt(1000),
		Existing:  decimal.NewFromInt(750),
	}, "USD")
	assert.Contains(t, err.Error(), "cannot exceed project budget")
	assert.Contains(t, err.Error(), "250")

	err = budgetFailure(&budget.InvalidAmountError{Amount: decimal.Zero}, "USD")
	assert.EqualError(t, err, "amount must be a positive number")

	err = budgetFailure(&api.Error{Status: 400, Message: "duplicate code"}, "USD")
	assert.Contains(t, err.Error(), "duplicate code")
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "Ada <ada@example.org>", userLabel(model.User{Name: "Ada", Email: "ada@example.org"}))
	assert.Equal(t, "u1", userLabel(model.User{ID: "u1"}))
	assert.Equal(t, "-", refLabel(nil))
	assert.Equal(t, "Fund A", refLabel(&model.Ref{ID: "d1", Name: "Fund A"}))
	assert.Equal(t, "-", humanAmount(0))
}
