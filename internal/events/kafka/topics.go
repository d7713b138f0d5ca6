package kafka

// Topic names for ledger domain events.
const (
	TopicAccountCreated   = "ledger.account.created"
	TopicTransferCompleted = "ledger.transfer.completed"
	TopicTransferReversed  = "ledger.transfer.reversed"
)
