package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromDecimal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		cents int64
	}{
		{"whole reais", "45", 4500},
		{"with centavos", "45.90", 4590},
		{"rounds half up", "0.005", 1},
		{"negative", "-12.34", -1234},
		{"zero", "0", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewFromDecimal(decimal.RequireFromString(tt.input))
			assert.Equal(t, tt.cents, m.Cents())
		})
	}
}

func TestDecimalRoundTrip(t *testing.T) {
	m := NewFromDecimal(decimal.RequireFromString("1234.56"))
	assert.Equal(t, "1234.56", m.Decimal().String())
}

func TestAdd(t *testing.T) {
	sum, err := New(1050).Add(New(2550))
	require.NoError(t, err)
	assert.Equal(t, int64(3600), sum.Cents())
}

func TestDisplay(t *testing.T) {
	tests := []struct {
		name  string
		cents int64
		want  string
	}{
		{"small amount", 4590, "R$ 45,90"},
		{"thousands grouped", 123456, "R$ 1.234,56"},
		{"millions grouped", 123456789, "R$ 1.234.567,89"},
		{"exact reais", 500, "R$ 5,00"},
		{"negative", -4590, "-R$ 45,90"},
		{"zero", 0, "R$ 0,00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.cents).Display())
		})
	}
}

func TestDisplayDecimal(t *testing.T) {
	assert.Equal(t, "R$ 3.200,50", DisplayDecimal(decimal.RequireFromString("3200.50")))
}
