package domain

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currency is an ISO-like currency code. Codes are free-form: any non-empty
// code is accepted, known ISO codes only affect display formatting.
type Currency string

// FallbackCurrency is used when neither a transaction nor its wallet names a currency.
const FallbackCurrency Currency = "TWD"

// NormalizeCurrency trims and upper-cases a user supplied code.
func NormalizeCurrency(s string) Currency {
	return Currency(strings.ToUpper(strings.TrimSpace(s)))
}

func (c Currency) IsValid() bool {
	return c != "" && !strings.ContainsAny(string(c), " \t\n/")
}

func (c Currency) String() string { return string(c) }

// CurrencySource records which tier of the resolution chain produced a currency.
type CurrencySource int

const (
	CurrencyFromTransaction CurrencySource = iota + 1
	CurrencyFromWallet
	CurrencyFromFallback
)

func (s CurrencySource) String() string {
	switch s {
	case CurrencyFromTransaction:
		return "transaction"
	case CurrencyFromWallet:
		return "wallet"
	case CurrencyFromFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// ResolveCurrency picks a transaction's currency in priority order: the
// transaction's own currency, then the wallet's, then fallback.
func ResolveCurrency(txCurrency, walletCurrency, fallback Currency) (Currency, CurrencySource) {
	switch {
	case txCurrency != "":
		return txCurrency, CurrencyFromTransaction
	case walletCurrency != "":
		return walletCurrency, CurrencyFromWallet
	case fallback != "":
		return fallback, CurrencyFromFallback
	default:
		return FallbackCurrency, CurrencyFromFallback
	}
}

// MoneyPlaces is the number of fractional digits kept for stored amounts and balances.
const MoneyPlaces int32 = 2

// RoundMoney rounds half away from zero to MoneyPlaces.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// FormatAmount renders d for display in currency c. Unknown codes fall back to
// two fractional digits followed by the code.
func FormatAmount(d decimal.Decimal, c Currency) string {
	cur := money.GetCurrency(string(c))
	if cur == nil {
		return RoundMoney(d).StringFixed(MoneyPlaces) + " " + string(c)
	}
	minor := d.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, cur.Code).Display()
}
