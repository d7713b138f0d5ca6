package handlers

import (
	"context"

	"ledger-api/internal/ledger"
)

// AccountEventPublisher is the narrow outbound contract account handlers
// use to report account lifecycle events.
type AccountEventPublisher interface {
	PublishAccountCreated(ctx context.Context, acc ledger.Account)
}

// HandlerDependencies breaks the circular dependency between handlers and
// components, narrowed to the collaborators handlers actually call.
type HandlerDependencies interface {
	Store() ledger.Store
	Accounts() *ledger.AccountService
	Payments() *ledger.PaymentEngine
	Events() AccountEventPublisher
}
