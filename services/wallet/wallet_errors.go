package wallet

import "fmt"

var (
	ErrWalletNotFound     = fmt.Errorf("wallet not found")
	ErrWalletNotPossible  = fmt.Errorf("could not create wallet")
	ErrWalletSuspended    = fmt.Errorf("wallet is suspended")
	ErrInsufficientFunds  = fmt.Errorf("insufficient funds")
	ErrInvalidAmount      = fmt.Errorf("amount must be greater than zero")
	ErrWalletLimit        = fmt.Errorf("wallet balance limit exceeded")
	ErrEscrowNotFound     = fmt.Errorf("no escrow hold exists for booking")
	ErrPaymentFailed      = fmt.Errorf("payment provider declined the operation")
	ErrDuplicateOperation = fmt.Errorf("operation already applied")
)

type WalletError struct {
	ErrorObj error
	WalletID string
	Other    []error
}

func (w *WalletError) Error() string {
	return w.ErrorObj.Error()
}

func (w *WalletError) Unwrap() error {
	return w.ErrorObj
}

func (w *WalletError) ErrorOut() string {
	return fmt.Sprintf("%v: %v", w.ErrorObj.Error(), w.WalletID)
}

func NewWalletError(err error, wallID string, e ...error) *WalletError {
	return &WalletError{
		ErrorObj: err,
		WalletID: wallID,
		Other:    e,
	}
}
