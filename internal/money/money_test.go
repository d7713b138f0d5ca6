package money_test

import (
	"testing"

	"ledger-api/internal/money"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustMoney(t *testing.T, amount, currency string) money.Money {
	t.Helper()
	m, err := money.NewFromString(amount, currency)
	require.NoError(t, err)
	return m
}

func TestAddNoFloatDrift(t *testing.T) {
	a := mustMoney(t, "0.10", "USD")
	b := mustMoney(t, "0.20", "USD")

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "0.30", sum.String())
	assert.True(t, sum.Equal(mustMoney(t, "0.30", "USD")))
}

func TestMulNoFloatDrift(t *testing.T) {
	a := mustMoney(t, "0.10", "USD")
	assert.Equal(t, "0.30", a.Mul(3).String())
}

func TestAddCurrencyMismatch(t *testing.T) {
	a := mustMoney(t, "10.00", "USD")
	b := mustMoney(t, "10.00", "EUR")

	_, err := a.Add(b)
	assert.ErrorIs(t, err, money.ErrCurrencyMismatch)
}

func TestSubNegativeResult(t *testing.T) {
	a := mustMoney(t, "10.00", "USD")
	b := mustMoney(t, "30.00", "USD")

	_, err := a.Sub(b)
	assert.ErrorIs(t, err, money.ErrNegativeResult)
}

func TestSubCurrencyMismatch(t *testing.T) {
	a := mustMoney(t, "10.00", "USD")
	b := mustMoney(t, "5.00", "EUR")

	_, err := a.Sub(b)
	assert.ErrorIs(t, err, money.ErrCurrencyMismatch)
}

func TestEqualAcrossCurrenciesIsFalseNotError(t *testing.T) {
	a := mustMoney(t, "10.00", "USD")
	b := mustMoney(t, "10.00", "EUR")
	assert.False(t, a.Equal(b))
}

func TestOrderedComparisonRequiresSameCurrency(t *testing.T) {
	a := mustMoney(t, "10.00", "USD")
	b := mustMoney(t, "10.00", "EUR")

	_, err := a.LessThan(b)
	assert.ErrorIs(t, err, money.ErrCurrencyMismatch)
}

func TestLessThan(t *testing.T) {
	tests := []struct {
		name  string
		a, b  string
		want  bool
	}{
		{"less", "5.00", "10.00", true},
		{"equal", "10.00", "10.00", false},
		{"greater", "15.00", "10.00", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := mustMoney(t, tt.a, "USD")
			b := mustMoney(t, tt.b, "USD")
			got, err := a.LessThan(b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuantizeHalfAwayFromZero(t *testing.T) {
	a, err := money.NewFromString("10.005", "USD")
	require.NoError(t, err)
	// storage scale already rounds on construction
	assert.Equal(t, "10.01", a.String())

	b, err := money.New(a.Amount(), "USD")
	require.NoError(t, err)
	assert.Equal(t, "10.01", b.Quantize(2).String())
}

func TestNewRejectsNegativeAmount(t *testing.T) {
	_, err := money.NewFromString("-1.00", "USD")
	assert.Error(t, err)
}

func TestInvalidCurrency(t *testing.T) {
	_, err := money.NewFromString("1.00", "US")
	assert.ErrorIs(t, err, money.ErrInvalidCurrency)
}

func TestIsZeroIsPositive(t *testing.T) {
	zero := money.Zero("USD")
	assert.True(t, zero.IsZero())
	assert.False(t, zero.IsPositive())

	ten := mustMoney(t, "10.00", "USD")
	assert.False(t, ten.IsZero())
	assert.True(t, ten.IsPositive())
}

func TestNewFromMinorUnits(t *testing.T) {
	m, err := money.NewFromMinorUnits(3000, "USD")
	require.NoError(t, err)
	assert.Equal(t, "30.00", m.String())
}
