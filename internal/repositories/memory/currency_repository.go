package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/SscSPs/splitledger/internal/apperrors"
	"github.com/SscSPs/splitledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

func (s *Store) FindCurrencyByCode(_ context.Context, currencyCode string) (*domain.Currency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.currencies[strings.ToUpper(currencyCode)]
	if !ok {
		return nil, apperrors.NewNotFoundError("currency " + currencyCode)
	}
	return &c, nil
}

func (s *Store) ListCurrencies(_ context.Context) ([]domain.Currency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Currency, 0, len(s.currencies))
	for _, c := range s.currencies {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CurrencyCode < out[j].CurrencyCode })
	return out, nil
}

// SaveCurrency inserts or updates a currency.
func (s *Store) SaveCurrency(_ context.Context, currency domain.Currency) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	currency.CurrencyCode = strings.ToUpper(currency.CurrencyCode)
	if existing, ok := s.currencies[currency.CurrencyCode]; ok {
		currency.CreatedAt = existing.CreatedAt
		currency.CreatedBy = existing.CreatedBy
	}
	s.currencies[currency.CurrencyCode] = currency
	return nil
}

// FindExchangeRate returns the newest direct rate effective at asOf, falling
// back to the inverse of the reverse pair.
func (s *Store) FindExchangeRate(_ context.Context, fromCurrencyCode, toCurrencyCode string, asOf *time.Time) (*domain.ExchangeRate, error) {
	from := strings.ToUpper(fromCurrencyCode)
	to := strings.ToUpper(toCurrencyCode)

	if from == to {
		return &domain.ExchangeRate{FromCurrencyCode: from, ToCurrencyCode: to, Rate: decimal.NewFromInt(1)}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, ok := s.latestRate(from, to, asOf); ok {
		return &r, nil
	}
	if r, ok := s.latestRate(to, from, asOf); ok {
		inverse := r
		inverse.FromCurrencyCode = from
		inverse.ToCurrencyCode = to
		inverse.Rate = decimal.NewFromInt(1).Div(r.Rate)
		return &inverse, nil
	}
	return nil, apperrors.NewNotFoundError("exchange rate " + from + "/" + to)
}

func (s *Store) latestRate(from, to string, asOf *time.Time) (domain.ExchangeRate, bool) {
	var best domain.ExchangeRate
	found := false
	for _, r := range s.rates {
		if r.FromCurrencyCode != from || r.ToCurrencyCode != to {
			continue
		}
		if asOf != nil && r.DateEffective.After(*asOf) {
			continue
		}
		if !found || r.DateEffective.After(best.DateEffective) ||
			(r.DateEffective.Equal(best.DateEffective) && r.CreatedAt.After(best.CreatedAt)) {
			best = r
			found = true
		}
	}
	return best, found
}

func (s *Store) SaveExchangeRate(_ context.Context, rate domain.ExchangeRate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rate.FromCurrencyCode = strings.ToUpper(rate.FromCurrencyCode)
	rate.ToCurrencyCode = strings.ToUpper(rate.ToCurrencyCode)
	s.rates = append(s.rates, rate)
	return nil
}
