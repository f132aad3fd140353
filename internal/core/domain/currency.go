package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Currency represents a supported currency in the domain.
type Currency struct {
	CurrencyCode string `json:"currencyCode"` // Primary Key (e.g., "USD")
	Symbol       string `json:"symbol"`       // e.g., "$"
	Name         string `json:"name"`         // e.g., "US Dollar"
	Precision    int    `json:"precision"`    // minor units, 2 for most currencies
	AuditFields
}

// ExchangeRate is the value of one unit of FromCurrencyCode expressed in ToCurrencyCode.
type ExchangeRate struct {
	ExchangeRateID   string          `json:"exchangeRateID"`
	FromCurrencyCode string          `json:"fromCurrencyCode"`
	ToCurrencyCode   string          `json:"toCurrencyCode"`
	Rate             decimal.Decimal `json:"rate"`
	DateEffective    time.Time       `json:"dateEffective"`
	AuditFields
}

// RateTable maps currency codes to the value of one unit of that currency in Base.
// The base currency is always present with a rate of 1.
type RateTable struct {
	Base  string
	Rates map[string]decimal.Decimal
}

// NewRateTable returns a table containing only the base currency.
func NewRateTable(base string) RateTable {
	return RateTable{
		Base:  base,
		Rates: map[string]decimal.Decimal{base: decimal.NewFromInt(1)},
	}
}

// Set records the base value of one unit of code.
func (t RateTable) Set(code string, rate decimal.Decimal) {
	t.Rates[code] = rate
}

// Lookup returns the base value of one unit of code.
func (t RateTable) Lookup(code string) (decimal.Decimal, bool) {
	rate, ok := t.Rates[code]
	return rate, ok
}
