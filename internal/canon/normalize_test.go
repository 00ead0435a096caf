package canon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePayee(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"strips_and_lowers", "  TRADER JOE'S #123  ", "trader joes 123"},
		{"card_processor_noise", "AMZN Mktp US*AB1CD2EF3", "amzn mktp usab1cd2ef3"},
		{"collapses_whitespace", "WHOLE   FOODS\tMARKET", "whole foods market"},
		{"already_clean", "starbucks 0457", "starbucks 0457"},
		{"symbols_only", "***", ""},
		{"empty", "", ""},
		{"accented_letters", "Café Río", "cafe rio"},
		{"trailing_symbol", "PAYPAL *", "paypal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePayee(tt.raw))
		})
	}
}

func TestNormalizePayeeIdempotent(t *testing.T) {
	raws := []string{
		"  TRADER JOE'S #123  ",
		"AMZN Mktp US*AB1CD2EF3",
		"PAYPAL *DIGITALOCEAN",
		"SQ *COFFEE SHOP   ",
		"plain payee",
		"",
	}

	for _, raw := range raws {
		once := NormalizePayee(raw)
		twice := NormalizePayee(once)
		assert.Equal(t, once, twice, "normalization must be idempotent for %q", raw)
	}
}

func TestNormalizePayeeNeverProducesEdgeWhitespace(t *testing.T) {
	// Stripping symbols can expose interior spaces at the edges; the
	// final trim must remove them so fingerprints stay stable.
	got := NormalizePayee("X * TRAILING *")
	assert.Equal(t, "x trailing", got)
}
