// Package rates provides rate sources that do not live in the database.
package rates

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/SscSPs/splitledger/internal/apperrors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// fileFormat is the YAML layout of a rates file:
//
//	base: USD
//	rates:
//	  EUR: "1.10"
//	  GBP: "1.27"
//
// Each rate is the value of one unit of the currency in base.
type fileFormat struct {
	Base  string            `yaml:"base"`
	Rates map[string]string `yaml:"rates"`
}

// FileSource serves fixed rates loaded from YAML. asOf is ignored.
type FileSource struct {
	base  string
	rates map[string]decimal.Decimal
}

// LoadFileSource reads a rates file from path.
func LoadFileSource(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rates file: %w", err)
	}
	defer f.Close()
	return ParseFileSource(f)
}

// ParseFileSource reads rates in the YAML layout documented on fileFormat.
func ParseFileSource(r io.Reader) (*FileSource, error) {
	var raw fileFormat
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode rates file: %w", err)
	}
	base := strings.ToUpper(strings.TrimSpace(raw.Base))
	if len(base) != 3 {
		return nil, fmt.Errorf("rates file: base currency %q must be a 3 letter code", raw.Base)
	}

	src := &FileSource{base: base, rates: map[string]decimal.Decimal{base: decimal.NewFromInt(1)}}
	for code, value := range raw.Rates {
		rate, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("rates file: rate for %s: %w", code, err)
		}
		if !rate.IsPositive() {
			return nil, fmt.Errorf("rates file: rate for %s must be positive", code)
		}
		src.rates[strings.ToUpper(code)] = rate
	}
	return src, nil
}

// GetRate returns the value of one unit of from in to, derived through the file's base.
func (s *FileSource) GetRate(_ context.Context, from, to string, _ *time.Time) (decimal.Decimal, error) {
	from = strings.ToUpper(from)
	to = strings.ToUpper(to)
	fromRate, ok := s.rates[from]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: no rate for %s", apperrors.ErrUnknownCurrency, from)
	}
	toRate, ok := s.rates[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: no rate for %s", apperrors.ErrUnknownCurrency, to)
	}
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	return fromRate.Div(toRate), nil
}
