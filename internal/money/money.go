// Package money implements the exact-decimal amount type shared by every
// ledger entity. Amounts are never represented as float64 anywhere in this
// codebase: a binary float cannot exactly represent "0.10", and summing
// enough of them drifts. All parsing goes through decimal.Decimal, which is
// backed by math/big and carries its own scale.
package money

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// Spec requires 28 digits of arithmetic precision for Div; Add/Sub/Mul
	// on decimal.Decimal are already exact regardless of this setting.
	decimal.DivisionPrecision = 28
}

// StorageScale is the number of fractional digits persisted for any Money
// value (NUMERIC(28,2) columns in the ledger store).
const StorageScale = 2

// Money is an exact decimal amount tagged with an ISO-4217 currency code.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// Zero returns the zero amount in the given currency.
func Zero(currency string) Money {
	return Money{amount: decimal.Zero, currency: normalizeCurrency(currency)}
}

// New builds a Money value from an exact decimal and a currency tag.
func New(amount decimal.Decimal, currency string) (Money, error) {
	cur, err := validateCurrency(currency)
	if err != nil {
		return Money{}, err
	}
	if amount.IsNegative() {
		return Money{}, ErrNegativeResult
	}
	return Money{amount: amount, currency: cur}.quantizeToStorage(), nil
}

// NewFromString parses a decimal string (e.g. "30.00") and a currency tag.
// This is the required entry point for any value that originated as
// user/JSON input: never stringify a float and pass it here — construct
// the decimal.Decimal from the original string token instead.
func NewFromString(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return Money{}, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	return New(d, currency)
}

// NewFromInt builds a Money value representing a whole-unit integer amount
// (e.g. NewFromInt(30, "USD") == "30.00" USD).
func NewFromInt(whole int64, currency string) (Money, error) {
	return New(decimal.NewFromInt(whole), currency)
}

// NewFromMinorUnits builds a Money value from an integer count of the
// smallest currency unit (cents), e.g. NewFromMinorUnits(3000, "USD") == "30.00".
func NewFromMinorUnits(minor int64, currency string) (Money, error) {
	return New(decimal.New(minor, -int32(StorageScale)), currency)
}

func (m Money) quantizeToStorage() Money {
	m.amount = m.amount.Round(StorageScale)
	return m
}

// Amount returns the underlying exact decimal.
func (m Money) Amount() decimal.Decimal { return m.amount }

// Currency returns the three-letter ISO-4217 tag.
func (m Money) Currency() string { return m.currency }

// String renders the amount with its storage scale, e.g. "30.00".
func (m Money) String() string {
	return m.amount.StringFixed(StorageScale)
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool { return m.amount.IsZero() }

// IsPositive reports whether the amount is strictly greater than zero.
func (m Money) IsPositive() bool { return m.amount.IsPositive() }

// Add returns m+other. Both operands must share a currency.
func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}.quantizeToStorage(), nil
}

// Sub returns m-other. Fails with ErrNegativeResult if the result would be
// negative, and with ErrCurrencyMismatch if currencies differ.
func (m Money) Sub(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	result := m.amount.Sub(other.amount)
	if result.IsNegative() {
		return Money{}, ErrNegativeResult
	}
	return Money{amount: result, currency: m.currency}.quantizeToStorage(), nil
}

// Mul scales the amount by an integer factor, currency preserved.
func (m Money) Mul(k int64) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromInt(k)), currency: m.currency}.quantizeToStorage()
}

// Div scales the amount by 1/k, currency preserved. Panics on k == 0 the
// same way integer division would; callers are expected to validate k first.
func (m Money) Div(k int64) Money {
	return Money{amount: m.amount.Div(decimal.NewFromInt(k)), currency: m.currency}.quantizeToStorage()
}

// Quantize rounds to n fractional digits, half-away-from-zero.
func (m Money) Quantize(n int32) Money {
	return Money{amount: m.amount.Round(n), currency: m.currency}
}

// Equal reports value equality. Unlike the ordered comparisons, Equal
// across different currencies returns false rather than erroring, per spec.
func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// LessThan, LessThanOrEqual, GreaterThan, GreaterThanOrEqual require equal
// currencies and report an error otherwise.
func (m Money) LessThan(other Money) (bool, error) {
	if err := m.sameCurrency(other); err != nil {
		return false, err
	}
	return m.amount.LessThan(other.amount), nil
}

func (m Money) LessThanOrEqual(other Money) (bool, error) {
	if err := m.sameCurrency(other); err != nil {
		return false, err
	}
	return m.amount.LessThanOrEqual(other.amount), nil
}

func (m Money) GreaterThan(other Money) (bool, error) {
	if err := m.sameCurrency(other); err != nil {
		return false, err
	}
	return m.amount.GreaterThan(other.amount), nil
}

func (m Money) GreaterThanOrEqual(other Money) (bool, error) {
	if err := m.sameCurrency(other); err != nil {
		return false, err
	}
	return m.amount.GreaterThanOrEqual(other.amount), nil
}

func (m Money) sameCurrency(other Money) error {
	if m.currency != other.currency {
		return ErrCurrencyMismatch
	}
	return nil
}

// MarshalJSON renders Money as a JSON string, e.g. "30.00" — amounts are
// never emitted as JSON numbers, which would round-trip through float64 in
// most JSON decoders.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON expects the currency to already be set on the receiver
// (Money values are normally constructed via NewFromString with an explicit
// currency); this exists to support round-tripping Money embedded in
// larger structs serialized by this package.
func (m *Money) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return err
	}
	m.amount = d
	return nil
}

// WithCurrency returns a copy of m tagged with the given currency, used by
// JSON decoding where amount and currency arrive as sibling fields.
func (m Money) WithCurrency(currency string) (Money, error) {
	cur, err := validateCurrency(currency)
	if err != nil {
		return Money{}, err
	}
	m.currency = cur
	return m, nil
}

func normalizeCurrency(c string) string {
	return strings.ToUpper(strings.TrimSpace(c))
}

func validateCurrency(c string) (string, error) {
	cur := normalizeCurrency(c)
	if len(cur) != 3 {
		return "", ErrInvalidCurrency
	}
	for _, r := range cur {
		if r < 'A' || r > 'Z' {
			return "", ErrInvalidCurrency
		}
	}
	return cur, nil
}
