package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

const escrowColumns = `id, booking_id, buyer_id, seller_id, amount, currency, status,
funding_source, provider_reference, conditions, created_at, payment_requested_at, released_at`

func scanEscrow(row interface{ Scan(dest ...interface{}) error }) (Escrow, error) {
	var e Escrow
	err := row.Scan(
		&e.ID, &e.BookingID, &e.BuyerID, &e.SellerID, &e.Amount, &e.Currency,
		&e.Status, &e.FundingSource, &e.ProviderReference, &e.Conditions,
		&e.CreatedAt, &e.PaymentRequestedAt, &e.ReleasedAt,
	)
	return e, err
}

const createEscrow = `
INSERT INTO escrows
(id, booking_id, buyer_id, seller_id, amount, currency, status, funding_source, provider_reference, conditions, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
RETURNING ` + escrowColumns

type CreateEscrowParams struct {
	BookingID         uuid.UUID
	BuyerID           int64
	SellerID          int64
	Amount            int64
	Currency          string
	Status            string
	FundingSource     string
	ProviderReference sql.NullString
	Conditions        []byte
}

func (q *Queries) CreateEscrow(ctx context.Context, arg CreateEscrowParams) (Escrow, error) {
	var conditions interface{}
	if len(arg.Conditions) > 0 {
		conditions = arg.Conditions
	}
	row := q.db.QueryRowContext(ctx, createEscrow,
		uuid.New(), arg.BookingID, arg.BuyerID, arg.SellerID, arg.Amount,
		arg.Currency, arg.Status, arg.FundingSource, arg.ProviderReference, conditions,
	)
	return scanEscrow(row)
}

const getEscrow = `
SELECT ` + escrowColumns + `
FROM escrows
WHERE id = $1
`

func (q *Queries) GetEscrow(ctx context.Context, id uuid.UUID) (Escrow, error) {
	return scanEscrow(q.db.QueryRowContext(ctx, getEscrow, id))
}

const getEscrowForUpdate = `
SELECT ` + escrowColumns + `
FROM escrows
WHERE id = $1
FOR UPDATE
`

// GetEscrowForUpdate takes the per-booking escrow row lock, serialising
// concurrent transitions for the same booking.
func (q *Queries) GetEscrowForUpdate(ctx context.Context, id uuid.UUID) (Escrow, error) {
	return scanEscrow(q.db.QueryRowContext(ctx, getEscrowForUpdate, id))
}

const getEscrowByBookingID = `
SELECT ` + escrowColumns + `
FROM escrows
WHERE booking_id = $1
ORDER BY created_at DESC
LIMIT 1
`

func (q *Queries) GetEscrowByBookingID(ctx context.Context, bookingID uuid.UUID) (Escrow, error) {
	return scanEscrow(q.db.QueryRowContext(ctx, getEscrowByBookingID, bookingID))
}

const updateEscrowStatus = `
UPDATE escrows
SET status = $2,
    payment_requested_at = COALESCE($3, payment_requested_at),
    released_at = COALESCE($4, released_at)
WHERE id = $1
RETURNING ` + escrowColumns

type UpdateEscrowStatusParams struct {
	ID                 uuid.UUID
	Status             string
	PaymentRequestedAt sql.NullTime
	ReleasedAt         sql.NullTime
}

func (q *Queries) UpdateEscrowStatus(ctx context.Context, arg UpdateEscrowStatusParams) (Escrow, error) {
	return scanEscrow(q.db.QueryRowContext(ctx, updateEscrowStatus,
		arg.ID, arg.Status, arg.PaymentRequestedAt, arg.ReleasedAt))
}

// Touch helper for terminal transitions stamped at the time of the call.
func TerminalStamp() sql.NullTime {
	return sql.NullTime{Time: time.Now(), Valid: true}
}
