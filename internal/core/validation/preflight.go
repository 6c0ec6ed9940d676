package validation

import (
	"fmt"

	"github.com/SscSPs/txledger/internal/apperrors"
	"github.com/SscSPs/txledger/internal/ledger/bucketrules"
	"github.com/SscSPs/txledger/internal/money"
)

// Preflight runs the three semantic checks of spec.md §4.3 against
// already schema-parsed lines, in order, before any transaction opens:
// currency uniformity, bucket-rule legality per line, then balance.
func Preflight(lines []ParsedLine) error {
	if err := checkCurrencyUniform(lines); err != nil {
		return err
	}
	if err := checkBucketRules(lines); err != nil {
		return err
	}
	return checkBalanced(lines)
}

func checkCurrencyUniform(lines []ParsedLine) error {
	if len(lines) == 0 {
		return nil
	}
	want := lines[0].Amount.Currency
	for _, l := range lines {
		if l.Amount.Currency != want {
			return fmt.Errorf("%w: line %d currency %q does not match journal currency %q", apperrors.ErrCurrencyMismatch, l.LineNo, l.Amount.Currency, want)
		}
	}
	return nil
}

func checkBucketRules(lines []ParsedLine) error {
	for _, l := range lines {
		if err := bucketrules.Validate(l.Transition, l.FromBucket, l.ToBucket); err != nil {
			return fmt.Errorf("line %d (account %s): %w", l.LineNo, l.AccountID, err)
		}
	}
	return nil
}

func checkBalanced(lines []ParsedLine) error {
	signed := make([]money.SignedLine, 0, len(lines))
	for _, l := range lines {
		signed = append(signed, money.SignedLine{Side: l.Side, Amount: l.Amount.Amount})
	}
	balanced, err := money.IsBalanced(signed)
	if err != nil {
		return err
	}
	if !balanced {
		return fmt.Errorf("%w: debit and credit totals are not equal", apperrors.ErrUnbalanced)
	}
	return nil
}
