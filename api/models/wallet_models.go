package models

import (
	"github.com/StayBridge/StayBridge-Backend/services/wallet"
)

type DepositRequest struct {
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	Description string `json:"description"`
	CustomerRef string `json:"customer_ref"`
}

type WithdrawRequest struct {
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	Destination string `json:"destination" binding:"required"`
}

type TransferRequest struct {
	ToOwner int64 `json:"to_owner" binding:"required"`
	Amount  int64 `json:"amount" binding:"required,gt=0"`
}

type WalletResponse struct {
	Balance  int64  `json:"balance"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

func ToWalletResponse(w *wallet.WalletModel) *WalletResponse {
	return &WalletResponse{
		Balance:  w.Balance,
		Currency: w.Currency,
		Status:   w.Status,
	}
}
