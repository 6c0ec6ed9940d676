// Package validation implements C3: shape validation of the incoming
// journal request (struct tags via go-playground/validator, following
// the teacher's custom-validator registration style) and the semantic
// preflight that runs before a transaction is ever opened.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/SscSPs/txledger/internal/apperrors"
	"github.com/SscSPs/txledger/internal/core/domain"
	"github.com/SscSPs/txledger/internal/dto"
	"github.com/SscSPs/txledger/internal/money"
)

var (
	currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)
	amountPattern   = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)
)

// validate is a process-wide validator instance with the two custom
// tags this package needs registered at init, the same way the
// teacher registers "decimal_gtz" on the Gin binding engine.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("currency_code", func(fl validator.FieldLevel) bool {
		return currencyPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("decimal_amount", func(fl validator.FieldLevel) bool {
		return amountPattern.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	return v
}

// ValidationIssues collects shape-validation failures as
// apperrors.ErrValidation-wrapped ValidationIssue values.
type ValidationIssues struct {
	Issues []dto.ValidationIssue
}

func (e *ValidationIssues) Error() string {
	if len(e.Issues) == 0 {
		return apperrors.ErrValidation.Error()
	}
	return fmt.Sprintf("%s: %s", apperrors.ErrValidation.Error(), e.Issues[0].Message)
}

func (e *ValidationIssues) Unwrap() error { return apperrors.ErrValidation }

// ValidateShape runs struct-tag validation over the incoming request
// and returns a ValidationIssues error collecting every field problem,
// or nil if the shape is sound.
func ValidateShape(req *dto.PostJournalRequest) error {
	if err := validate.Struct(req); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return &ValidationIssues{Issues: []dto.ValidationIssue{{Path: "", Message: err.Error(), Code: "invalid"}}}
		}
		issues := make([]dto.ValidationIssue, 0, len(verrs))
		for _, fe := range verrs {
			issues = append(issues, dto.ValidationIssue{
				Path:    fieldPath(fe),
				Message: fieldMessage(fe),
				Code:    strings.ToLower(fe.Tag()),
			})
		}
		return &ValidationIssues{Issues: issues}
	}
	if len(req.Lines) < 2 {
		return &ValidationIssues{Issues: []dto.ValidationIssue{{
			Path: "lines", Message: "a journal needs at least 2 lines", Code: "min",
		}}}
	}
	return nil
}

func fieldPath(fe validator.FieldError) string {
	return strings.ToLower(strings.TrimPrefix(fe.Namespace(), "PostJournalRequest."))
}

func fieldMessage(fe validator.FieldError) string {
	return fmt.Sprintf("%s failed %q validation", fieldPath(fe), fe.Tag())
}

// ParsedLine is a schema-valid line with its transition and buckets
// parsed into the domain enums, ready for the C2/C1 semantic preflight.
type ParsedLine struct {
	domain.Line
	LineNo int
}

// ParseLines converts validated wire lines into domain lines,
// rejecting unknown transitions, sides, or bucket names at schema
// time, before any semantic preflight runs.
func ParseLines(lines []dto.LineRequest) ([]ParsedLine, error) {
	out := make([]ParsedLine, 0, len(lines))
	for i, l := range lines {
		transition := domain.Transition(l.Transition)
		if !isKnownTransition(transition) {
			return nil, fmt.Errorf("%w: lines[%d].transition %q is not a known transition", apperrors.ErrValidation, i, l.Transition)
		}
		side := domain.Side(l.Side)
		if side != domain.SideDebit && side != domain.SideCredit {
			return nil, fmt.Errorf("%w: lines[%d].side must be debit or credit", apperrors.ErrValidation, i)
		}
		from, err := parseBucket(l.FromBucket, i, "fromBucket")
		if err != nil {
			return nil, err
		}
		to, err := parseBucket(l.ToBucket, i, "toBucket")
		if err != nil {
			return nil, err
		}
		out = append(out, ParsedLine{
			LineNo: i + 1,
			Line: domain.Line{
				AccountID:  l.AccountID,
				Side:       side,
				Transition: transition,
				FromBucket: from,
				ToBucket:   to,
				Amount: domain.Amount{
					Currency: l.Amount.Currency,
					Amount:   money.Canonicalize(l.Amount.Amount),
				},
			},
		})
	}
	return out, nil
}

func parseBucket(raw *string, idx int, field string) (*domain.Bucket, error) {
	if raw == nil {
		return nil, nil
	}
	b := domain.Bucket(*raw)
	for _, known := range domain.Buckets {
		if known == b {
			return &b, nil
		}
	}
	return nil, fmt.Errorf("%w: lines[%d].%s %q is not a known bucket", apperrors.ErrValidation, idx, field, *raw)
}

func isKnownTransition(t domain.Transition) bool {
	switch t {
	case domain.TransitionReserve, domain.TransitionLock, domain.TransitionFinalize,
		domain.TransitionRelease, domain.TransitionRevert:
		return true
	default:
		return false
	}
}
