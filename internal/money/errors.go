package money

import "errors"

var (
	// ErrCurrencyMismatch is returned by any binary operation or ordered
	// comparison between Money values tagged with different currencies.
	ErrCurrencyMismatch = errors.New("money: currency mismatch")
	// ErrNegativeResult is returned when a subtraction would drive the
	// result below zero, or when a constructor is handed a negative amount.
	ErrNegativeResult = errors.New("money: negative result")
	// ErrInvalidAmount is returned when a decimal string fails to parse.
	ErrInvalidAmount = errors.New("money: invalid amount")
	// ErrInvalidCurrency is returned when a currency tag is not a 3-letter
	// uppercase ISO-4217-shaped code.
	ErrInvalidCurrency = errors.New("money: invalid currency code")
)
