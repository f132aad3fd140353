package rates

import (
	"context"
	"strings"
	"testing"

	"github.com/SscSPs/splitledger/internal/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
base: usd
rates:
  EUR: "1.10"
  GBP: "1.25"
`

func TestFileSource_GetRate(t *testing.T) {
	src, err := ParseFileSource(strings.NewReader(sample))
	require.NoError(t, err)
	ctx := context.Background()

	rate, err := src.GetRate(ctx, "EUR", "USD", nil)
	require.NoError(t, err)
	assert.Equal(t, "1.1", rate.String())

	rate, err = src.GetRate(ctx, "usd", "usd", nil)
	require.NoError(t, err)
	assert.Equal(t, "1", rate.String())

	rate, err = src.GetRate(ctx, "USD", "GBP", nil)
	require.NoError(t, err)
	assert.Equal(t, "0.8", rate.String())

	_, err = src.GetRate(ctx, "JPY", "USD", nil)
	assert.ErrorIs(t, err, apperrors.ErrUnknownCurrency)
}

func TestParseFileSource_Rejects(t *testing.T) {
	cases := map[string]string{
		"missing base":  "rates:\n  EUR: \"1.1\"\n",
		"bad number":    "base: USD\nrates:\n  EUR: abc\n",
		"negative rate": "base: USD\nrates:\n  EUR: \"-1\"\n",
		"not yaml":      "base: [",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseFileSource(strings.NewReader(body))
			assert.Error(t, err)
		})
	}
}
