package escrow

// Escrow lifecycle. PENDING only exists before the provider charge is
// confirmed; the happy path runs IN_ESCROW, PAYMENT_REQUESTED,
// PAYMENT_RELEASED. CANCELLED and REFUNDED are reachable from any
// non-terminal state.
const (
	StatusPending          = "PENDING"
	StatusInEscrow         = "IN_ESCROW"
	StatusPaymentRequested = "PAYMENT_REQUESTED"
	StatusPaymentReleased  = "PAYMENT_RELEASED"
	StatusCancelled        = "CANCELLED"
	StatusRefunded         = "REFUNDED"
)

func IsTerminal(status string) bool {
	switch status {
	case StatusPaymentReleased, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}
