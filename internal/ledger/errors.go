package ledger

import "fmt"

// Kind is the ledger error taxonomy. The HTTP layer maps each
// Kind to a transport status code; the core never imports net/http.
type Kind string

const (
	KindInvalidAmount          Kind = "INVALID_AMOUNT"
	KindInvalidAccount         Kind = "INVALID_ACCOUNT"
	KindAccountSuspended       Kind = "ACCOUNT_SUSPENDED"
	KindCurrencyMismatch       Kind = "CURRENCY_MISMATCH"
	KindInsufficientFunds      Kind = "INSUFFICIENT_FUNDS"
	KindDuplicateTransaction   Kind = "DUPLICATE_TRANSACTION"
	KindConcurrentModification Kind = "CONCURRENT_MODIFICATION"
	KindInternal               Kind = "INTERNAL_ERROR"
)

// Error is the tagged error every ledger operation returns on failure.
type Error struct {
	Kind Kind
	// TransactionID is set on KindDuplicateTransaction, naming the
	// transaction the caller should read instead of retrying.
	TransactionID string
	msg           string
	wrapped       error
}

func (e *Error) Error() string {
	if e.msg != "" {
		return e.msg
	}
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.wrapped)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.wrapped }

// Is reports whether target shares this error's Kind, so callers can use
// errors.Is(err, ledger.KindX) style checks via IsKind below, or compare
// two *Error values directly.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

func newErr(kind Kind, msg string) *Error {
	return &Error{Kind: kind, msg: msg}
}

func wrapErr(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, msg: msg, wrapped: cause}
}

func ErrInvalidAmount(msg string) *Error { return newErr(KindInvalidAmount, msg) }

func ErrInvalidAccount(accountID string) *Error {
	return newErr(KindInvalidAccount, fmt.Sprintf("account %s not found", accountID))
}

func ErrAccountSuspended(accountID string) *Error {
	return newErr(KindAccountSuspended, fmt.Sprintf("account %s is not active", accountID))
}

func ErrCurrencyMismatch(msg string) *Error { return newErr(KindCurrencyMismatch, msg) }

func ErrInsufficientFunds(accountID string) *Error {
	return newErr(KindInsufficientFunds, fmt.Sprintf("account %s has insufficient funds", accountID))
}

func ErrDuplicateTransaction(transactionID string) *Error {
	return &Error{
		Kind:          KindDuplicateTransaction,
		TransactionID: transactionID,
		msg:           fmt.Sprintf("idempotency key already resolved to transaction %s", transactionID),
	}
}

func ErrConcurrentModification(cause error) *Error {
	return wrapErr(KindConcurrentModification, "concurrent modification, retry budget exhausted", cause)
}

func ErrInternal(cause error) *Error {
	return wrapErr(KindInternal, "internal ledger error", cause)
}

// IsKind reports whether err is a *ledger.Error of the given Kind.
func IsKind(err error, kind Kind) bool {
	le, ok := err.(*Error)
	if !ok {
		return false
	}
	return le.Kind == kind
}
