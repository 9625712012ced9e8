package models

import "encoding/json"

type CreateEscrowRequest struct {
	BookingID   string          `json:"booking_id" binding:"required,uuid"`
	Amount      int64           `json:"amount" binding:"required,gt=0"`
	Currency    string          `json:"currency" binding:"required,currency_code"`
	BuyerRef    int64           `json:"buyer_ref" binding:"required"`
	SellerRef   int64           `json:"seller_ref" binding:"required"`
	ProviderRef string          `json:"provider_ref"`
	Conditions  json.RawMessage `json:"conditions"`
}

type CancelEscrowRequest struct {
	Reason string `json:"reason" binding:"required"`
}
