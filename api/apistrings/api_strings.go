package apistrings

const (
	/// Basic User Related Strings
	UserNotFound = "user or account does not exist"

	/// Core Functionality Error
	ServerError = "a server error occurred, please try again later"

	/// Wallet Related Strings
	UserNoWallet         = "user does not have a wallet created"
	WalletSuspended      = "wallet is suspended, contact support"
	InvalidWalletInput   = "check 'amount' or 'destination' keys, invalid request"
	InvalidAmount        = "amount must be a positive number of minor units"
	InsufficientFunds    = "insufficient funds for this operation"
	WalletLimitExceeded  = "operation would exceed the wallet balance limit"
	PaymentDeclined      = "payment provider declined the operation"
	InvalidTransferInput = "check 'to_owner' or 'amount' keys, invalid request"

	/// Escrow Related Strings
	EscrowNotFound     = "no escrow exists for this booking"
	InvalidEscrowInput = "check 'booking_id', 'amount' or party keys, invalid request"
	IllegalTransition  = "escrow is not in a state that allows this operation"
)
