package wallet

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	db "github.com/StayBridge/StayBridge-Backend/db/store"
	"github.com/StayBridge/StayBridge-Backend/providers/payment"
	"github.com/StayBridge/StayBridge-Backend/services/monitoring/logging"
	"github.com/StayBridge/StayBridge-Backend/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGateway answers every call successfully; ledger tests here are not
// about provider behavior.
type stubGateway struct {
	charges int
	payouts int
}

func (g *stubGateway) CreateCharge(ctx context.Context, amount int64, currency string, customerRef string, description string) (*payment.Charge, error) {
	g.charges++
	return &payment.Charge{ChargeID: fmt.Sprintf("ch_%d", g.charges), Status: payment.ChargeSucceeded, Amount: amount, Currency: currency}, nil
}

func (g *stubGateway) ConfirmCharge(ctx context.Context, chargeID string) (*payment.ChargeConfirmation, error) {
	return &payment.ChargeConfirmation{ChargeID: chargeID, Status: payment.ChargeSucceeded}, nil
}

func (g *stubGateway) CreatePayout(ctx context.Context, amount int64, currency string, destinationRef string) (*payment.Payout, error) {
	g.payouts++
	return &payment.Payout{PayoutID: fmt.Sprintf("po_%d", g.payouts), Status: payment.PayoutCompleted}, nil
}

func openWalletIntegrationEnv(t *testing.T) (*db.Store, *WalletService) {
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

	store := db.NewStore(conn)
	if _, err := store.DB.Exec(`TRUNCATE TABLE wallet_transactions, escrows, stay_wallets CASCADE`); err != nil {
		t.Fatalf("truncate ledger tables: %v", err)
	}

	refs, err := utils.NewReferenceGenerator("wallet-integration")
	require.NoError(t, err)

	svc, err := NewWalletService(store, &stubGateway{}, refs, logging.NewLogger("", ""), &utils.Config{
		PlatformFeeRate: "0.10",
		MaxWalletMinor:  10_000_000,
		BaseCurrency:    "EUR",
	})
	require.NoError(t, err)

	return store, svc
}

func seedWallet(t *testing.T, store *db.Store, ownerID int64, balance int64) {
	t.Helper()
	_, err := store.CreateWallet(context.Background(), db.CreateWalletParams{
		OwnerID:  ownerID,
		Balance:  balance,
		Currency: "EUR",
		Status:   StatusActive,
	})
	require.NoError(t, err)
}

func TestWithdrawExceedingBalanceLeavesWalletUntouched(t *testing.T) {
	store, svc := openWalletIntegrationEnv(t)
	ctx := context.Background()

	seedWallet(t, store, 1, 5_000)

	_, err := svc.Withdraw(ctx, 1, 5_001, "DE89 3704 0044 0532 0130 00")
	require.ErrorIs(t, err, ErrInsufficientFunds)

	got, err := store.GetWalletByOwnerID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(5_000), got.Balance)
}

func TestEscrowReleaseRejectsCreditPastBalanceCap(t *testing.T) {
	store, svc := openWalletIntegrationEnv(t)
	ctx := context.Background()
	bookingID := uuid.New()

	seedWallet(t, store, 1, 200_000)
	// Payee already sits just under the cap; the release credit would
	// push past it.
	seedWallet(t, store, 2, 9_950_000)

	require.NoError(t, svc.EscrowHold(ctx, bookingID, 100_000, 1, ""))

	err := svc.EscrowRelease(ctx, bookingID, 2)
	require.ErrorIs(t, err, ErrWalletLimit)

	// The failed release rolled back entirely: no credit, no ledger rows.
	payee, err := store.GetWalletByOwnerID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(9_950_000), payee.Balance)

	_, err = store.GetTransactionByReference(ctx, releaseReference(bookingID))
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestRefundRejectsCreditPastBalanceCap(t *testing.T) {
	store, svc := openWalletIntegrationEnv(t)
	ctx := context.Background()
	bookingID := uuid.New()

	seedWallet(t, store, 1, 10_000_000)

	require.NoError(t, svc.EscrowHold(ctx, bookingID, 100_000, 1, ""))

	// Someone else credited the payer back to the ceiling while the hold
	// was live; returning the hold would now overflow.
	payer, err := store.GetWalletByOwnerID(ctx, 1)
	require.NoError(t, err)
	_, err = store.UpdateWalletBalance(ctx, db.UpdateWalletBalanceParams{
		ID: payer.ID, Balance: 10_000_000,
	})
	require.NoError(t, err)

	err = svc.Refund(ctx, bookingID, "cancelled")
	require.ErrorIs(t, err, ErrWalletLimit)

	got, err := store.GetWalletByOwnerID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(10_000_000), got.Balance)

	_, err = store.GetTransactionByReference(ctx, refundReference(bookingID))
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestEscrowHoldDebitsWalletWhenCovered(t *testing.T) {
	store, svc := openWalletIntegrationEnv(t)
	ctx := context.Background()
	bookingID := uuid.New()

	seedWallet(t, store, 1, 150_000)

	require.NoError(t, svc.EscrowHold(ctx, bookingID, 100_000, 1, ""))

	got, err := store.GetWalletByOwnerID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(50_000), got.Balance)

	hold, err := store.GetTransactionByReference(ctx, holdReference(bookingID))
	require.NoError(t, err)
	assert.Equal(t, FundingWallet, hold.FundingSource.String)
}

func TestEscrowHoldWithoutCoverRequiresGatewayCapture(t *testing.T) {
	store, svc := openWalletIntegrationEnv(t)
	ctx := context.Background()
	bookingID := uuid.New()

	// No wallet and no provider reference: the hold has no funding source
	// and must be rejected.
	err := svc.EscrowHold(ctx, bookingID, 100_000, 1, "")
	require.ErrorIs(t, err, ErrInsufficientFunds)

	_, err = store.GetTransactionByReference(ctx, holdReference(bookingID))
	assert.ErrorIs(t, err, sql.ErrNoRows)

	// With a captured charge the same hold records against the gateway.
	require.NoError(t, svc.EscrowHold(ctx, bookingID, 100_000, 1, "ch_capture_1"))

	hold, err := store.GetTransactionByReference(ctx, holdReference(bookingID))
	require.NoError(t, err)
	assert.Equal(t, FundingGateway, hold.FundingSource.String)
	assert.Equal(t, "ch_capture_1", hold.ProviderReference.String)
}
