package escrow

import (
	"encoding/json"
	"time"

	db "github.com/StayBridge/StayBridge-Backend/db/store"
	"github.com/google/uuid"
)

type EscrowModel struct {
	ID                 uuid.UUID       `json:"id"`
	BookingID          uuid.UUID       `json:"booking_id"`
	BuyerID            int64           `json:"buyer_id"`
	SellerID           int64           `json:"seller_id"`
	Amount             int64           `json:"amount"`
	Currency           string          `json:"currency"`
	Status             string          `json:"status"`
	FundingSource      string          `json:"funding_source"`
	ProviderReference  string          `json:"provider_reference,omitempty"`
	Conditions         json.RawMessage `json:"conditions,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	PaymentRequestedAt *time.Time      `json:"payment_requested_at,omitempty"`
	ReleasedAt         *time.Time      `json:"released_at,omitempty"`
}

func ToEscrowModel(e db.Escrow) *EscrowModel {
	m := &EscrowModel{
		ID:            e.ID,
		BookingID:     e.BookingID,
		BuyerID:       e.BuyerID,
		SellerID:      e.SellerID,
		Amount:        e.Amount,
		Currency:      e.Currency,
		Status:        e.Status,
		FundingSource: e.FundingSource,
		CreatedAt:     e.CreatedAt,
	}
	if e.ProviderReference.Valid {
		m.ProviderReference = e.ProviderReference.String
	}
	if e.Conditions.Valid {
		m.Conditions = json.RawMessage(e.Conditions.RawMessage)
	}
	if e.PaymentRequestedAt.Valid {
		t := e.PaymentRequestedAt.Time
		m.PaymentRequestedAt = &t
	}
	if e.ReleasedAt.Valid {
		t := e.ReleasedAt.Time
		m.ReleasedAt = &t
	}
	return m
}
