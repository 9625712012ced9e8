package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openPostgresIntegrationStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("STAY_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("set STAY_TEST_DATABASE_URL to run postgres integration tests")
	}

	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		t.Fatalf("ping postgres: %v", err)
	}
	return NewStore(conn)
}

func resetLedgerState(t *testing.T, store *Store) {
	t.Helper()
	const q = `TRUNCATE TABLE wallet_transactions, escrows, stay_wallets CASCADE`
	if _, err := store.DB.Exec(q); err != nil {
		t.Fatalf("truncate ledger tables: %v", err)
	}
}

func createTestWallet(t *testing.T, store *Store, ownerID int64, balance int64) StayWallet {
	t.Helper()
	w, err := store.CreateWallet(context.Background(), CreateWalletParams{
		OwnerID:  ownerID,
		Balance:  balance,
		Currency: "EUR",
		Status:   "ACTIVE",
	})
	require.NoError(t, err)
	return w
}

func TestPostgresWalletOwnerUniqueness(t *testing.T) {
	store := openPostgresIntegrationStore(t)
	resetLedgerState(t, store)

	createTestWallet(t, store, 1, 0)

	_, err := store.CreateWallet(context.Background(), CreateWalletParams{
		OwnerID: 1, Currency: "EUR", Status: "ACTIVE",
	})
	require.Error(t, err)
	assert.True(t, IsDuplicate(err))
}

func TestPostgresTransactionReferenceUniqueness(t *testing.T) {
	store := openPostgresIntegrationStore(t)
	resetLedgerState(t, store)
	ctx := context.Background()

	wallet := createTestWallet(t, store, 1, 10_000)
	bookingID := uuid.New()

	params := CreateWalletTransactionParams{
		WalletID:  uuid.NullUUID{UUID: wallet.ID, Valid: true},
		OwnerID:   1,
		BookingID: uuid.NullUUID{UUID: bookingID, Valid: true},
		Type:      "ESCROW_HOLD",
		Status:    "COMPLETED",
		Amount:    -10_000,
		Currency:  "EUR",
		Reference: "ESC-" + bookingID.String(),
	}

	first, err := store.CreateWalletTransaction(ctx, params)
	require.NoError(t, err)

	// A replay of the same booking-derived reference collides instead of
	// double-applying.
	_, err = store.CreateWalletTransaction(ctx, params)
	require.Error(t, err)
	assert.True(t, IsDuplicate(err))

	// The surviving row is the original.
	got, err := store.GetTransactionByReference(ctx, params.Reference)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
}

func TestPostgresExecTxRollsBackOnError(t *testing.T) {
	store := openPostgresIntegrationStore(t)
	resetLedgerState(t, store)
	ctx := context.Background()

	wallet := createTestWallet(t, store, 1, 5_000)

	failure := fmt.Errorf("abort after debit")
	err := store.ExecTx(ctx, func(q *Queries) error {
		if _, err := q.UpdateWalletBalance(ctx, UpdateWalletBalanceParams{
			ID: wallet.ID, Balance: 0,
		}); err != nil {
			return err
		}
		return failure
	})
	require.ErrorIs(t, err, failure)

	// The debit did not survive the rollback.
	got, err := store.GetWalletByOwnerID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(5_000), got.Balance)
}

func TestPostgresExecTxAppliesLedgerEntryAtomically(t *testing.T) {
	store := openPostgresIntegrationStore(t)
	resetLedgerState(t, store)
	ctx := context.Background()

	createTestWallet(t, store, 1, 10_000)
	bookingID := uuid.New()

	err := store.ExecTx(ctx, func(q *Queries) error {
		locked, err := q.GetWalletByOwnerIDForUpdate(ctx, 1)
		if err != nil {
			return err
		}
		if _, err := q.UpdateWalletBalance(ctx, UpdateWalletBalanceParams{
			ID: locked.ID, Balance: locked.Balance - 4_000,
		}); err != nil {
			return err
		}
		_, err = q.CreateWalletTransaction(ctx, CreateWalletTransactionParams{
			WalletID:  uuid.NullUUID{UUID: locked.ID, Valid: true},
			OwnerID:   1,
			BookingID: uuid.NullUUID{UUID: bookingID, Valid: true},
			Type:      "ESCROW_HOLD",
			Status:    "COMPLETED",
			Amount:    -4_000,
			Currency:  "EUR",
			Reference: "ESC-" + bookingID.String(),
		})
		return err
	})
	require.NoError(t, err)

	got, err := store.GetWalletByOwnerID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(6_000), got.Balance)

	hold, err := store.GetBookingTransactionByType(ctx, GetBookingTransactionByTypeParams{
		BookingID: bookingID, Type: "ESCROW_HOLD",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(-4_000), hold.Amount)
}

func TestPostgresOneLiveEscrowPerBooking(t *testing.T) {
	store := openPostgresIntegrationStore(t)
	resetLedgerState(t, store)
	ctx := context.Background()

	bookingID := uuid.New()
	params := CreateEscrowParams{
		BookingID:     bookingID,
		BuyerID:       1,
		SellerID:      2,
		Amount:        10_000,
		Currency:      "EUR",
		Status:        "IN_ESCROW",
		FundingSource: "WALLET",
	}

	first, err := store.CreateEscrow(ctx, params)
	require.NoError(t, err)

	// A second live escrow for the same booking hits the partial unique
	// index.
	_, err = store.CreateEscrow(ctx, params)
	require.Error(t, err)
	assert.True(t, IsDuplicate(err))

	// Terminal escrows do not block a new booking attempt.
	_, err = store.UpdateEscrowStatus(ctx, UpdateEscrowStatusParams{
		ID: first.ID, Status: "CANCELLED",
	})
	require.NoError(t, err)

	_, err = store.CreateEscrow(ctx, params)
	require.NoError(t, err)
}

func TestPostgresNegativeBalanceRejected(t *testing.T) {
	store := openPostgresIntegrationStore(t)
	resetLedgerState(t, store)
	ctx := context.Background()

	wallet := createTestWallet(t, store, 1, 100)

	_, err := store.UpdateWalletBalance(ctx, UpdateWalletBalanceParams{
		ID: wallet.ID, Balance: -1,
	})
	require.Error(t, err, "the balance check constraint is the last line of defence")
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		assert.Equal(t, CheckViolation, pqErr.Code)
	}
}
