package core

import (
	"errors"
	"strings"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

type (
	// Kind distinguishes the two operation types. The sign of an amount is
	// implied by the kind; amounts themselves are always positive.
	Kind string

	// Operation is a single recorded income or expense event.
	Operation struct {
		ID       int64
		Kind     Kind
		Amount   Money
		Currency string
		Category string // empty for incomes
		Date     Date
	}

	// CategoryTotal is one row of a monthly category breakdown.
	// Category is empty when the summed operations carried no category.
	CategoryTotal struct {
		Category string
		Currency string
		Total    Money
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidKind        = errors.New("invalid operation kind")
	ErrInvalidCurrency    = errors.New("invalid currency")
	ErrMissingCategory    = errors.New("expense requires a category")
	ErrUnexpectedCategory = errors.New("income cannot carry a category")
)

func (k Kind) Validate() error {
	switch k {
	case Income, Expense:
		return nil
	}
	return ErrInvalidKind
}

// NormalizeCurrency trims and upper-cases a currency code.
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (o Operation) Validate() error {
	if err := o.Kind.Validate(); err != nil {
		return err
	}
	if err := o.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(o.Currency) == "" {
		return ErrInvalidCurrency
	}
	if err := o.Date.Validate(); err != nil {
		return err
	}
	switch o.Kind {
	case Expense:
		if strings.TrimSpace(o.Category) == "" {
			return ErrMissingCategory
		}
	case Income:
		if o.Category != "" {
			return ErrUnexpectedCategory
		}
	}
	return nil
}
