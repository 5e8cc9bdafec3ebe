package domain

import (
	"bytes"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

func (t TransactionType) IsValid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// ExchangeRateSourceManual tags a rate supplied by the user or defaulted.
const ExchangeRateSourceManual = "manual"

type Transaction struct {
	ID                     uuid.UUID
	WalletID               uuid.UUID
	Type                   TransactionType
	Amount                 decimal.Decimal
	Currency               Currency
	ExchangeRate           decimal.Decimal
	ExchangeRateSource     string
	AmountInWalletCurrency decimal.Decimal
	Category               *string
	Description            *string
	Date                   time.Time
	Version                int64
	CreatedAt              time.Time
	UpdatedAt              time.Time

	// BalanceAfter is derived from the wallet's ordered history on read and
	// is never persisted.
	BalanceAfter decimal.Decimal
}

// SignedAmount is +Amount for income and -Amount for expense.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TransactionTypeExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// Before reports whether t sorts strictly before o in ledger order (date, id).
func (t *Transaction) Before(o *Transaction) bool {
	if !t.Date.Equal(o.Date) {
		return t.Date.Before(o.Date)
	}
	return bytes.Compare(t.ID[:], o.ID[:]) < 0
}

// AmountInWalletCurrency converts amount with rate, rounded once to MoneyPlaces.
func AmountInWalletCurrency(amount, rate decimal.Decimal) decimal.Decimal {
	return RoundMoney(amount.Mul(rate))
}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

type CategoryTotal struct {
	Category    string
	TotalAmount decimal.Decimal
	Count       int
}

// DateRange bounds are inclusive; a nil bound is open.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

func (r DateRange) Contains(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && t.After(*r.To) {
		return false
	}
	return true
}
