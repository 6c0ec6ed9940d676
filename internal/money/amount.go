// Package money implements canonical decimal-string <-> integer
// minor-unit conversion and the exact-integer balance proof (C1).
// shopspring/decimal bridges the wire string to an exact value; the
// balance sum itself runs on int64 minor units, never on floats.
package money

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/SscSPs/txledger/internal/apperrors"
	"github.com/SscSPs/txledger/internal/core/domain"
)

var amountPattern = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)

// Canonicalize strips leading zeros and a trailing all-zero fractional
// part. Malformed input is returned unchanged; the schema layer rejects
// it later.
func Canonicalize(s string) string {
	trimmed := strings.TrimSpace(s)
	if !amountPattern.MatchString(trimmed) {
		return s
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return s
	}
	canon := d.StringFixed(2)
	canon = strings.TrimRight(canon, "0")
	canon = strings.TrimRight(canon, ".")
	if canon == "" || canon == "-" {
		canon = "0"
	}
	return canon
}

// ToMinor converts a canonical decimal string to integer minor units
// (cents). Fails with apperrors.ErrInvalidAmount if the value doesn't
// match ^\d+(\.\d{1,2})?$ after canonicalization, or is negative.
func ToMinor(s string) (int64, error) {
	canon := Canonicalize(s)
	if !amountPattern.MatchString(canon) {
		return 0, fmt.Errorf("%w: amount %q must match ^\\d+(\\.\\d{1,2})?$", apperrors.ErrInvalidAmount, s)
	}
	d, err := decimal.NewFromString(canon)
	if err != nil {
		return 0, fmt.Errorf("%w: amount %q is not a number", apperrors.ErrInvalidAmount, s)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: amount %q is negative", apperrors.ErrInvalidAmount, s)
	}
	minor := d.Shift(2).Round(0)
	return minor.IntPart(), nil
}

// SignedLine is the minimal shape IsBalanced needs from a journal line.
type SignedLine struct {
	Side   domain.Side
	Amount string
}

// IsBalanced sums +toMinor(amount) for debit lines and -toMinor(amount)
// for credit lines; true iff the sum is exactly zero. Runs entirely in
// int64 minor units.
func IsBalanced(lines []SignedLine) (bool, error) {
	var sum int64
	for _, l := range lines {
		minor, err := ToMinor(l.Amount)
		if err != nil {
			return false, err
		}
		switch l.Side {
		case domain.SideDebit:
			sum += minor
		case domain.SideCredit:
			sum -= minor
		default:
			return false, fmt.Errorf("%w: unknown side %q", apperrors.ErrValidation, l.Side)
		}
	}
	return sum == 0, nil
}
