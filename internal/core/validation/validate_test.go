package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/txledger/internal/apperrors"
	"github.com/SscSPs/txledger/internal/dto"
)

func validRequest() *dto.PostJournalRequest {
	avail := "available"
	pending := "pending"
	escrow := "escrow"
	return &dto.PostJournalRequest{
		JournalID:      "J-0001",
		IdempotencyKey: "idem-1",
		Lines: []dto.LineRequest{
			{
				AccountID: "USER_1", Side: "debit", Transition: "reserve",
				FromBucket: &avail, ToBucket: &pending,
				Amount: dto.AmountRequest{Currency: "USD", Amount: "150.00"},
			},
			{
				AccountID: "ESCROW_POOL", Side: "credit", Transition: "lock",
				FromBucket: &avail, ToBucket: &escrow,
				Amount: dto.AmountRequest{Currency: "USD", Amount: "150.00"},
			},
		},
	}
}

func TestValidateShape_Valid(t *testing.T) {
	err := ValidateShape(validRequest())
	assert.NoError(t, err)
}

func TestValidateShape_MissingJournalID(t *testing.T) {
	req := validRequest()
	req.JournalID = ""
	err := ValidateShape(req)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	var issues *ValidationIssues
	require.ErrorAs(t, err, &issues)
	assert.NotEmpty(t, issues.Issues)
}

func TestValidateShape_TooFewLines(t *testing.T) {
	req := validRequest()
	req.Lines = req.Lines[:1]
	err := ValidateShape(req)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestValidateShape_BadCurrencyAndAmount(t *testing.T) {
	req := validRequest()
	req.Lines[0].Amount.Currency = "usd"
	req.Lines[1].Amount.Amount = "12.345"
	err := ValidateShape(req)
	require.Error(t, err)
	var issues *ValidationIssues
	require.ErrorAs(t, err, &issues)
	assert.Len(t, issues.Issues, 2)
}

func TestParseLinesAndPreflight_Balanced(t *testing.T) {
	req := validRequest()
	parsed, err := ParseLines(req.Lines)
	require.NoError(t, err)
	require.NoError(t, Preflight(parsed))
}

func TestPreflight_CurrencyMismatch(t *testing.T) {
	req := validRequest()
	req.Lines[1].Amount.Currency = "EUR"
	parsed, err := ParseLines(req.Lines)
	require.NoError(t, err)
	err = Preflight(parsed)
	assert.ErrorIs(t, err, apperrors.ErrCurrencyMismatch)
}

func TestPreflight_Unbalanced(t *testing.T) {
	req := validRequest()
	req.Lines[1].Amount.Amount = "100.00"
	parsed, err := ParseLines(req.Lines)
	require.NoError(t, err)
	err = Preflight(parsed)
	assert.ErrorIs(t, err, apperrors.ErrUnbalanced)
}

func TestPreflight_InvalidBucketPair(t *testing.T) {
	req := validRequest()
	escrow := "escrow"
	outflow := "outflow"
	req.Lines[0].FromBucket = &escrow
	req.Lines[0].ToBucket = &outflow
	req.Lines[0].Transition = "reserve"
	parsed, err := ParseLines(req.Lines)
	require.NoError(t, err)
	err = Preflight(parsed)
	assert.ErrorIs(t, err, apperrors.ErrInvalidBucket)
}

func TestParseLines_UnknownTransition(t *testing.T) {
	req := validRequest()
	req.Lines[0].Transition = "teleport"
	_, err := ParseLines(req.Lines)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
