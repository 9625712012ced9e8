package wallet

import (
	"time"

	db "github.com/StayBridge/StayBridge-Backend/db/store"
	"github.com/google/uuid"
)

const (
	StatusActive    = "ACTIVE"
	StatusSuspended = "SUSPENDED"
)

const (
	TypeDeposit       = "DEPOSIT"
	TypeWithdrawal    = "WITHDRAWAL"
	TypeEscrowHold    = "ESCROW_HOLD"
	TypeEscrowRelease = "ESCROW_RELEASE"
	TypePlatformFee   = "PLATFORM_FEE"
	TypeBookingRefund = "BOOKING_REFUND"
	TypeTransferIn    = "TRANSFER_IN"
	TypeTransferOut   = "TRANSFER_OUT"
)

const (
	TxPending    = "PENDING"
	TxProcessing = "PROCESSING"
	TxCompleted  = "COMPLETED"
	TxFailed     = "FAILED"
)

// Funding discriminator for escrow holds. An explicit field instead of
// a nullable wallet check, so the release and refund paths never have to
// guess where the money came from.
const (
	FundingWallet  = "WALLET"
	FundingGateway = "GATEWAY"
)

type WalletModel struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   int64     `json:"owner_id"`
	Balance   int64     `json:"balance"`
	Currency  string    `json:"currency"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ToWalletModel(wallet db.StayWallet) *WalletModel {
	return &WalletModel{
		ID:        wallet.ID,
		OwnerID:   wallet.OwnerID,
		Balance:   wallet.Balance,
		Currency:  wallet.Currency,
		Status:    wallet.Status,
		CreatedAt: wallet.CreatedAt,
		UpdatedAt: wallet.UpdatedAt,
	}
}

type TransactionModel struct {
	ID                uuid.UUID  `json:"id"`
	WalletID          *uuid.UUID `json:"wallet_id,omitempty"`
	OwnerID           int64      `json:"owner_id"`
	BookingID         *uuid.UUID `json:"booking_id,omitempty"`
	Type              string     `json:"type"`
	Status            string     `json:"status"`
	Amount            int64      `json:"amount"`
	Currency          string     `json:"currency"`
	FundingSource     string     `json:"funding_source,omitempty"`
	ProviderReference string     `json:"provider_reference,omitempty"`
	Reference         string     `json:"reference"`
	CreatedAt         time.Time  `json:"created_at"`
	ProcessedAt       *time.Time `json:"processed_at,omitempty"`
}

func ToTransactionModel(tx db.WalletTransaction) *TransactionModel {
	m := &TransactionModel{
		ID:        tx.ID,
		OwnerID:   tx.OwnerID,
		Type:      tx.Type,
		Status:    tx.Status,
		Amount:    tx.Amount,
		Currency:  tx.Currency,
		Reference: tx.Reference,
		CreatedAt: tx.CreatedAt,
	}
	if tx.WalletID.Valid {
		m.WalletID = &tx.WalletID.UUID
	}
	if tx.BookingID.Valid {
		m.BookingID = &tx.BookingID.UUID
	}
	if tx.FundingSource.Valid {
		m.FundingSource = tx.FundingSource.String
	}
	if tx.ProviderReference.Valid {
		m.ProviderReference = tx.ProviderReference.String
	}
	if tx.ProcessedAt.Valid {
		t := tx.ProcessedAt.Time
		m.ProcessedAt = &t
	}
	return m
}
