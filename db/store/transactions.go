package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

const txColumns = `id, wallet_id, owner_id, booking_id, type, status, amount, currency,
funding_source, provider_reference, reference, created_at, processed_at`

func scanTransaction(row interface{ Scan(dest ...interface{}) error }) (WalletTransaction, error) {
	var t WalletTransaction
	err := row.Scan(
		&t.ID, &t.WalletID, &t.OwnerID, &t.BookingID, &t.Type, &t.Status,
		&t.Amount, &t.Currency, &t.FundingSource, &t.ProviderReference,
		&t.Reference, &t.CreatedAt, &t.ProcessedAt,
	)
	return t, err
}

const createWalletTransaction = `
INSERT INTO wallet_transactions
(id, wallet_id, owner_id, booking_id, type, status, amount, currency, funding_source, provider_reference, reference, created_at, processed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now(), $12)
RETURNING ` + txColumns

type CreateWalletTransactionParams struct {
	WalletID          uuid.NullUUID
	OwnerID           int64
	BookingID         uuid.NullUUID
	Type              string
	Status            string
	Amount            int64
	Currency          string
	FundingSource     sql.NullString
	ProviderReference sql.NullString
	Reference         string
	ProcessedAt       sql.NullTime
}

func (q *Queries) CreateWalletTransaction(ctx context.Context, arg CreateWalletTransactionParams) (WalletTransaction, error) {
	row := q.db.QueryRowContext(ctx, createWalletTransaction,
		uuid.New(), arg.WalletID, arg.OwnerID, arg.BookingID, arg.Type, arg.Status,
		arg.Amount, arg.Currency, arg.FundingSource, arg.ProviderReference,
		arg.Reference, arg.ProcessedAt,
	)
	return scanTransaction(row)
}

const getTransactionByReference = `
SELECT ` + txColumns + `
FROM wallet_transactions
WHERE reference = $1
`

func (q *Queries) GetTransactionByReference(ctx context.Context, reference string) (WalletTransaction, error) {
	return scanTransaction(q.db.QueryRowContext(ctx, getTransactionByReference, reference))
}

const listWalletTransactionsByOwnerID = `
SELECT ` + txColumns + `
FROM wallet_transactions
WHERE owner_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`

type ListWalletTransactionsByOwnerIDParams struct {
	OwnerID int64
	Limit   int32
	Offset  int32
}

func (q *Queries) ListWalletTransactionsByOwnerID(ctx context.Context, arg ListWalletTransactionsByOwnerIDParams) ([]WalletTransaction, error) {
	rows, err := q.db.QueryContext(ctx, listWalletTransactionsByOwnerID, arg.OwnerID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []WalletTransaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

const getBookingTransactionByType = `
SELECT ` + txColumns + `
FROM wallet_transactions
WHERE booking_id = $1 AND type = $2
ORDER BY created_at ASC
LIMIT 1
`

type GetBookingTransactionByTypeParams struct {
	BookingID uuid.UUID
	Type      string
}

// GetBookingTransactionByType finds the first transaction of a given type
// recorded against a booking, e.g. the ESCROW_HOLD backing a release.
func (q *Queries) GetBookingTransactionByType(ctx context.Context, arg GetBookingTransactionByTypeParams) (WalletTransaction, error) {
	return scanTransaction(q.db.QueryRowContext(ctx, getBookingTransactionByType,
		uuid.NullUUID{UUID: arg.BookingID, Valid: true}, arg.Type))
}

const markTransactionProcessed = `
UPDATE wallet_transactions
SET status = $2, processed_at = $3
WHERE id = $1
RETURNING ` + txColumns

type MarkTransactionProcessedParams struct {
	ID     uuid.UUID
	Status string
}

// MarkTransactionProcessed only ever advances status; amount and type are
// write-once and corrections are recorded as new transactions.
func (q *Queries) MarkTransactionProcessed(ctx context.Context, arg MarkTransactionProcessedParams) (WalletTransaction, error) {
	return scanTransaction(q.db.QueryRowContext(ctx, markTransactionProcessed,
		arg.ID, arg.Status, sql.NullTime{Time: time.Now(), Valid: true}))
}
