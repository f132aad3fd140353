package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/splitledger/internal/apperrors"
	"github.com/SscSPs/splitledger/internal/core/domain"
	portsrepo "github.com/SscSPs/splitledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/splitledger/internal/core/ports/services"
	"github.com/SscSPs/splitledger/internal/dto"
	"github.com/SscSPs/splitledger/internal/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type exchangeRateService struct {
	rateRepo    portsrepo.ExchangeRateRepositoryFacade
	currencySvc portssvc.CurrencyReaderSvc
	cache       portssvc.BalanceCache
}

// NewExchangeRateService creates the exchange rate service. cache may be nil.
func NewExchangeRateService(rateRepo portsrepo.ExchangeRateRepositoryFacade, currencySvc portssvc.CurrencyReaderSvc, cache portssvc.BalanceCache) portssvc.ExchangeRateSvcFacade {
	return &exchangeRateService{
		rateRepo:    rateRepo,
		currencySvc: currencySvc,
		cache:       cache,
	}
}

// CreateExchangeRate handles the creation of a new exchange rate.
func (s *exchangeRateService) CreateExchangeRate(ctx context.Context, req dto.CreateExchangeRateRequest, creatorUserID string) (*domain.ExchangeRate, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if req.Rate.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: exchange rate must be positive", apperrors.ErrValidation)
	}
	if req.FromCurrencyCode == req.ToCurrencyCode {
		return nil, fmt.Errorf("%w: from and to currency codes cannot be the same", apperrors.ErrValidation)
	}

	for _, code := range []string{req.FromCurrencyCode, req.ToCurrencyCode} {
		if _, err := s.currencySvc.GetCurrencyByCode(ctx, code); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("%w: currency code '%s' not found", apperrors.ErrValidation, code)
			}
			return nil, fmt.Errorf("failed to validate currency '%s': %w", code, err)
		}
	}

	now := time.Now().UTC()
	rate := domain.ExchangeRate{
		ExchangeRateID:   uuid.NewString(),
		FromCurrencyCode: req.FromCurrencyCode,
		ToCurrencyCode:   req.ToCurrencyCode,
		Rate:             req.Rate,
		DateEffective:    req.DateEffective,
		AuditFields:      domain.NewAuditFields(creatorUserID, now),
	}

	if err := s.rateRepo.SaveExchangeRate(ctx, rate); err != nil {
		logger.Error("Failed to save exchange rate", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to create exchange rate in service: %w", err)
	}

	// Any group may hold this currency, so every snapshot is stale.
	if s.cache != nil {
		s.cache.Purge()
	}

	logger.Info("Exchange rate created successfully",
		slog.String("exchange_rate_id", rate.ExchangeRateID),
		slog.String("from", rate.FromCurrencyCode),
		slog.String("to", rate.ToCurrencyCode))
	return &rate, nil
}

// GetExchangeRate retrieves the exchange rate for a currency pair effective at asOf.
func (s *exchangeRateService) GetExchangeRate(ctx context.Context, fromCode, toCode string, asOf *time.Time) (*domain.ExchangeRate, error) {
	fromCode, toCode, err := normalizePair(fromCode, toCode)
	if err != nil {
		return nil, err
	}

	rate, err := s.rateRepo.FindExchangeRate(ctx, fromCode, toCode, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to get exchange rate in service: %w", err)
	}
	return rate, nil
}

// GetRate returns the value of one unit of fromCode in toCode, effective at asOf.
// A missing rate is reported as ErrUnknownCurrency.
func (s *exchangeRateService) GetRate(ctx context.Context, fromCode, toCode string, asOf *time.Time) (decimal.Decimal, error) {
	fromCode, toCode, err := normalizePair(fromCode, toCode)
	if err != nil {
		return decimal.Zero, err
	}
	if fromCode == toCode {
		return decimal.NewFromInt(1), nil
	}

	rate, err := s.rateRepo.FindExchangeRate(ctx, fromCode, toCode, asOf)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return decimal.Zero, fmt.Errorf("%w: no rate from %s to %s", apperrors.ErrUnknownCurrency, fromCode, toCode)
		}
		return decimal.Zero, fmt.Errorf("failed to get rate: %w", err)
	}
	return rate.Rate, nil
}

func normalizePair(fromCode, toCode string) (string, string, error) {
	fromCode = strings.ToUpper(strings.TrimSpace(fromCode))
	toCode = strings.ToUpper(strings.TrimSpace(toCode))
	if len(fromCode) != 3 || len(toCode) != 3 {
		return "", "", fmt.Errorf("%w: currency codes must be 3 letters", apperrors.ErrValidation)
	}
	return fromCode, toCode, nil
}

// BuildRateTable asks source for the base value of every code. Codes without a
// rate are left out of the table so normalization fails with ErrUnknownCurrency.
func BuildRateTable(ctx context.Context, source portssvc.RateSource, base string, codes []string) (domain.RateTable, error) {
	table := domain.NewRateTable(base)
	for _, code := range codes {
		if _, ok := table.Lookup(code); ok {
			continue
		}
		rate, err := source.GetRate(ctx, code, base, nil)
		if err != nil {
			if errors.Is(err, apperrors.ErrUnknownCurrency) || errors.Is(err, apperrors.ErrNotFound) {
				middleware.GetLoggerFromCtx(ctx).Warn("No exchange rate available",
					slog.String("from", code), slog.String("to", base))
				continue
			}
			return domain.RateTable{}, err
		}
		table.Set(code, rate)
	}
	return table, nil
}
