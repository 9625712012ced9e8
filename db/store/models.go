package db

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

type StayWallet struct {
	ID        uuid.UUID      `json:"id"`
	OwnerID   int64          `json:"owner_id"`
	Balance   int64          `json:"balance"`
	Currency  string         `json:"currency"`
	Status    string         `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type WalletTransaction struct {
	ID                uuid.UUID      `json:"id"`
	WalletID          uuid.NullUUID  `json:"wallet_id"`
	OwnerID           int64          `json:"owner_id"`
	BookingID         uuid.NullUUID  `json:"booking_id"`
	Type              string         `json:"type"`
	Status            string         `json:"status"`
	Amount            int64          `json:"amount"`
	Currency          string         `json:"currency"`
	FundingSource     sql.NullString `json:"funding_source"`
	ProviderReference sql.NullString `json:"provider_reference"`
	Reference         string         `json:"reference"`
	CreatedAt         time.Time      `json:"created_at"`
	ProcessedAt       sql.NullTime   `json:"processed_at"`
}

type Escrow struct {
	ID                 uuid.UUID           `json:"id"`
	BookingID          uuid.UUID           `json:"booking_id"`
	BuyerID            int64               `json:"buyer_id"`
	SellerID           int64               `json:"seller_id"`
	Amount             int64               `json:"amount"`
	Currency           string              `json:"currency"`
	Status             string              `json:"status"`
	FundingSource      string              `json:"funding_source"`
	ProviderReference  sql.NullString      `json:"provider_reference"`
	Conditions         pqtype.NullRawMessage `json:"conditions"`
	CreatedAt          time.Time           `json:"created_at"`
	PaymentRequestedAt sql.NullTime        `json:"payment_requested_at"`
	ReleasedAt         sql.NullTime        `json:"released_at"`
}
