package escrow

import "fmt"

var (
	ErrEscrowNotFound = fmt.Errorf("escrow record not found")
	ErrInvalidState   = fmt.Errorf("illegal escrow state transition")
	ErrInvalidAmount  = fmt.Errorf("escrow amount must be greater than zero")
)
