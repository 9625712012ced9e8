package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const createWallet = `
INSERT INTO stay_wallets (id, owner_id, balance, currency, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, now(), now())
RETURNING id, owner_id, balance, currency, status, created_at, updated_at
`

type CreateWalletParams struct {
	OwnerID  int64
	Balance  int64
	Currency string
	Status   string
}

func (q *Queries) CreateWallet(ctx context.Context, arg CreateWalletParams) (StayWallet, error) {
	row := q.db.QueryRowContext(ctx, createWallet,
		uuid.New(), arg.OwnerID, arg.Balance, arg.Currency, arg.Status)
	var w StayWallet
	err := row.Scan(&w.ID, &w.OwnerID, &w.Balance, &w.Currency, &w.Status, &w.CreatedAt, &w.UpdatedAt)
	return w, err
}

const getWalletByOwnerID = `
SELECT id, owner_id, balance, currency, status, created_at, updated_at
FROM stay_wallets
WHERE owner_id = $1
`

func (q *Queries) GetWalletByOwnerID(ctx context.Context, ownerID int64) (StayWallet, error) {
	row := q.db.QueryRowContext(ctx, getWalletByOwnerID, ownerID)
	var w StayWallet
	err := row.Scan(&w.ID, &w.OwnerID, &w.Balance, &w.Currency, &w.Status, &w.CreatedAt, &w.UpdatedAt)
	return w, err
}

const getWalletByOwnerIDForUpdate = `
SELECT id, owner_id, balance, currency, status, created_at, updated_at
FROM stay_wallets
WHERE owner_id = $1
FOR UPDATE
`

// GetWalletByOwnerIDForUpdate takes the wallet row lock. Every balance
// mutation for one owner serialises on this lock for the duration of
// the enclosing transaction.
func (q *Queries) GetWalletByOwnerIDForUpdate(ctx context.Context, ownerID int64) (StayWallet, error) {
	row := q.db.QueryRowContext(ctx, getWalletByOwnerIDForUpdate, ownerID)
	var w StayWallet
	err := row.Scan(&w.ID, &w.OwnerID, &w.Balance, &w.Currency, &w.Status, &w.CreatedAt, &w.UpdatedAt)
	return w, err
}

const updateWalletBalance = `
UPDATE stay_wallets
SET balance = $2, updated_at = $3
WHERE id = $1
RETURNING id, owner_id, balance, currency, status, created_at, updated_at
`

type UpdateWalletBalanceParams struct {
	ID      uuid.UUID
	Balance int64
}

func (q *Queries) UpdateWalletBalance(ctx context.Context, arg UpdateWalletBalanceParams) (StayWallet, error) {
	row := q.db.QueryRowContext(ctx, updateWalletBalance, arg.ID, arg.Balance, time.Now())
	var w StayWallet
	err := row.Scan(&w.ID, &w.OwnerID, &w.Balance, &w.Currency, &w.Status, &w.CreatedAt, &w.UpdatedAt)
	return w, err
}

const updateWalletStatus = `
UPDATE stay_wallets
SET status = $2, updated_at = $3
WHERE owner_id = $1
RETURNING id, owner_id, balance, currency, status, created_at, updated_at
`

type UpdateWalletStatusParams struct {
	OwnerID int64
	Status  string
}

func (q *Queries) UpdateWalletStatus(ctx context.Context, arg UpdateWalletStatusParams) (StayWallet, error) {
	row := q.db.QueryRowContext(ctx, updateWalletStatus, arg.OwnerID, arg.Status, time.Now())
	var w StayWallet
	err := row.Scan(&w.ID, &w.OwnerID, &w.Balance, &w.Currency, &w.Status, &w.CreatedAt, &w.UpdatedAt)
	return w, err
}
