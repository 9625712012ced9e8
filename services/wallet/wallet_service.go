package wallet

import (
	"context"
	"database/sql"
	"fmt"

	db "github.com/StayBridge/StayBridge-Backend/db/store"
	"github.com/StayBridge/StayBridge-Backend/providers/payment"
	"github.com/StayBridge/StayBridge-Backend/services/monitoring/logging"
	"github.com/StayBridge/StayBridge-Backend/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type WalletService struct {
	store      *db.Store
	provider   payment.PaymentProvider
	refs       *utils.ReferenceGenerator
	logger     *logging.Logger
	feeRate    decimal.Decimal
	maxBalance int64
	currency   string
}

func NewWalletService(store *db.Store, provider payment.PaymentProvider, refs *utils.ReferenceGenerator, logger *logging.Logger, config *utils.Config) (*WalletService, error) {
	feeRate, err := decimal.NewFromString(config.PlatformFeeRate)
	if err != nil {
		return nil, fmt.Errorf("invalid platform fee rate %q: %w", config.PlatformFeeRate, err)
	}

	return &WalletService{
		store:      store,
		provider:   provider,
		refs:       refs,
		logger:     logger,
		feeRate:    feeRate,
		maxBalance: config.MaxWalletMinor,
		currency:   config.BaseCurrency,
	}, nil
}

// Booking-derived references give the ledger database-level idempotency:
// a second release or refund for the same booking collides on the unique
// reference index instead of re-applying.
func holdReference(bookingID uuid.UUID) string    { return "ESC-" + bookingID.String() }
func releaseReference(bookingID uuid.UUID) string { return "REL-" + bookingID.String() }
func feeReference(bookingID uuid.UUID) string     { return "FEE-" + bookingID.String() }
func refundReference(bookingID uuid.UUID) string  { return "RFD-" + bookingID.String() }

// splitRelease divides a gross hold amount into the payee credit and
// the platform fee. The fee floors, so rounding never favors the payee.
func (w *WalletService) splitRelease(gross int64) (payeeAmount int64, fee int64) {
	fee = decimal.NewFromInt(gross).Mul(w.feeRate).Floor().IntPart()
	return gross - fee, fee
}

// sanitizeBalance applies the corruption guard: any value observed
// outside [0, max] is treated as corrupted and reset to 0, never
// clamped upward.
func (w *WalletService) sanitizeBalance(ownerID int64, balance int64) int64 {
	if balance < 0 || balance > w.maxBalance {
		w.logger.Error(fmt.Sprintf("corrupted balance %d for owner %d, resetting to 0", balance, ownerID))
		return 0
	}
	return balance
}

func (w *WalletService) getOrCreateWalletForUpdate(ctx context.Context, q *db.Queries, ownerID int64) (db.StayWallet, error) {
	dbWallet, err := q.GetWalletByOwnerIDForUpdate(ctx, ownerID)
	if err == sql.ErrNoRows {
		// Wallets are created lazily on first funding need. The insert
		// holds the row lock for the rest of the transaction.
		dbWallet, err = q.CreateWallet(ctx, db.CreateWalletParams{
			OwnerID:  ownerID,
			Balance:  0,
			Currency: w.currency,
			Status:   StatusActive,
		})
		if err != nil {
			return db.StayWallet{}, NewWalletError(ErrWalletNotPossible, "", err)
		}
	} else if err != nil {
		return db.StayWallet{}, err
	}
	return dbWallet, nil
}

// GetWallet returns the owner's wallet, or ErrWalletNotFound when the
// owner never funded one.
func (w *WalletService) GetWallet(ctx context.Context, ownerID int64) (*WalletModel, error) {
	dbWallet, err := w.store.GetWalletByOwnerID(ctx, ownerID)
	if err == sql.ErrNoRows {
		return nil, ErrWalletNotFound
	} else if err != nil {
		return nil, err
	}
	dbWallet.Balance = w.sanitizeBalance(ownerID, dbWallet.Balance)
	return ToWalletModel(dbWallet), nil
}

func (w *WalletService) ListTransactions(ctx context.Context, ownerID int64, page int32, size int32) ([]*TransactionModel, error) {
	if size <= 0 {
		size = 20
	}
	if page <= 0 {
		page = 1
	}

	rows, err := w.store.ListWalletTransactionsByOwnerID(ctx, db.ListWalletTransactionsByOwnerIDParams{
		OwnerID: ownerID,
		Limit:   size,
		Offset:  (page - 1) * size,
	})
	if err != nil {
		return nil, err
	}

	models := make([]*TransactionModel, 0, len(rows))
	for _, row := range rows {
		models = append(models, ToTransactionModel(row))
	}
	return models, nil
}

// Deposit captures funds from the payment provider and credits the
// owner's wallet within a single ledger transaction. The reference is
// derived from the provider charge so a re-delivered capture collapses
// into the original deposit.
func (w *WalletService) Deposit(ctx context.Context, ownerID int64, amount int64, customerRef string) (*TransactionModel, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	charge, err := w.provider.CreateCharge(ctx, amount, w.currency, customerRef, "StayBridge wallet deposit")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}

	confirmation, err := w.provider.ConfirmCharge(ctx, charge.ChargeID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}
	if confirmation.Status != payment.ChargeSucceeded {
		w.logger.Error(fmt.Sprintf("deposit charge %v declined: %v", charge.ChargeID, confirmation.FailureReason))
		return nil, NewWalletError(ErrPaymentFailed, "", fmt.Errorf("%s", confirmation.FailureReason))
	}

	var created db.WalletTransaction
	err = w.store.ExecTx(ctx, func(q *db.Queries) error {
		dbWallet, err := w.getOrCreateWalletForUpdate(ctx, q, ownerID)
		if err != nil {
			return err
		}
		if dbWallet.Status == StatusSuspended {
			return NewWalletError(ErrWalletSuspended, dbWallet.ID.String())
		}

		newBalance := w.sanitizeBalance(ownerID, dbWallet.Balance) + amount
		if newBalance > w.maxBalance {
			return NewWalletError(ErrWalletLimit, dbWallet.ID.String())
		}

		if _, err := q.UpdateWalletBalance(ctx, db.UpdateWalletBalanceParams{ID: dbWallet.ID, Balance: newBalance}); err != nil {
			return err
		}

		created, err = q.CreateWalletTransaction(ctx, db.CreateWalletTransactionParams{
			WalletID:          uuid.NullUUID{UUID: dbWallet.ID, Valid: true},
			OwnerID:           ownerID,
			Type:              TypeDeposit,
			Status:            TxCompleted,
			Amount:            amount,
			Currency:          w.currency,
			ProviderReference: sql.NullString{String: charge.ChargeID, Valid: true},
			Reference:         "DEP-" + charge.ChargeID,
			ProcessedAt:       db.TerminalStamp(),
		})
		return err
	})

	if db.IsDuplicate(err) {
		// Same provider charge applied before; surface the original
		// deposit rather than an error.
		existing, lookupErr := w.store.GetTransactionByReference(ctx, "DEP-"+charge.ChargeID)
		if lookupErr != nil {
			return nil, lookupErr
		}
		return ToTransactionModel(existing), nil
	}
	if err != nil {
		return nil, err
	}

	return ToTransactionModel(created), nil
}

// Withdraw debits the wallet and initiates a provider payout. The
// transaction is COMPLETED when the payout settles synchronously and
// PROCESSING while the provider still owes confirmation.
func (w *WalletService) Withdraw(ctx context.Context, ownerID int64, amount int64, destination string) (*TransactionModel, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	reference, err := w.refs.NewReference()
	if err != nil {
		return nil, err
	}

	var created db.WalletTransaction
	err = w.store.ExecTx(ctx, func(q *db.Queries) error {
		dbWallet, err := q.GetWalletByOwnerIDForUpdate(ctx, ownerID)
		if err == sql.ErrNoRows {
			return ErrWalletNotFound
		} else if err != nil {
			return err
		}
		if dbWallet.Status == StatusSuspended {
			return NewWalletError(ErrWalletSuspended, dbWallet.ID.String())
		}

		balance := w.sanitizeBalance(ownerID, dbWallet.Balance)
		if amount > balance {
			return NewWalletError(ErrInsufficientFunds, dbWallet.ID.String())
		}

		payout, err := w.provider.CreatePayout(ctx, amount, w.currency, destination)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrPaymentFailed, err)
		}

		status := TxProcessing
		processedAt := sql.NullTime{}
		if payout.Status == payment.PayoutCompleted {
			status = TxCompleted
			processedAt = db.TerminalStamp()
		}

		if _, err := q.UpdateWalletBalance(ctx, db.UpdateWalletBalanceParams{ID: dbWallet.ID, Balance: balance - amount}); err != nil {
			return err
		}

		created, err = q.CreateWalletTransaction(ctx, db.CreateWalletTransactionParams{
			WalletID:          uuid.NullUUID{UUID: dbWallet.ID, Valid: true},
			OwnerID:           ownerID,
			Type:              TypeWithdrawal,
			Status:            status,
			Amount:            -amount,
			Currency:          w.currency,
			ProviderReference: sql.NullString{String: payout.PayoutID, Valid: true},
			Reference:         reference,
			ProcessedAt:       processedAt,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return ToTransactionModel(created), nil
}

// EscrowHold earmarks funds for a booking. A wallet with sufficient
// balance is debited; otherwise the hold is recorded against the
// external gateway capture with no wallet mutation.
func (w *WalletService) EscrowHold(ctx context.Context, bookingID uuid.UUID, amount int64, payerID int64, providerRef string) error {
	err := w.store.ExecTx(ctx, func(q *db.Queries) error {
		return w.EscrowHoldTx(ctx, q, bookingID, amount, payerID, providerRef)
	})
	if db.IsDuplicate(err) {
		return nil
	}
	return err
}

func (w *WalletService) EscrowHoldTx(ctx context.Context, q *db.Queries, bookingID uuid.UUID, amount int64, payerID int64, providerRef string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	fundingSource := ""
	walletID := uuid.NullUUID{}

	dbWallet, err := q.GetWalletByOwnerIDForUpdate(ctx, payerID)
	if err != nil && err != sql.ErrNoRows {
		return err
	}
	if err == nil && dbWallet.Status == StatusActive {
		balance := w.sanitizeBalance(payerID, dbWallet.Balance)
		if balance >= amount {
			if _, err := q.UpdateWalletBalance(ctx, db.UpdateWalletBalanceParams{ID: dbWallet.ID, Balance: balance - amount}); err != nil {
				return err
			}
			fundingSource = FundingWallet
			walletID = uuid.NullUUID{UUID: dbWallet.ID, Valid: true}
		}
	}

	if fundingSource == "" {
		// Without wallet cover, only an already-captured gateway charge
		// can back the hold. A hold with no funding source would let a
		// later release credit the payee value that never entered the
		// ledger.
		if providerRef == "" {
			return NewWalletError(ErrInsufficientFunds, "")
		}
		fundingSource = FundingGateway
	}

	_, err = q.CreateWalletTransaction(ctx, db.CreateWalletTransactionParams{
		WalletID:          walletID,
		OwnerID:           payerID,
		BookingID:         uuid.NullUUID{UUID: bookingID, Valid: true},
		Type:              TypeEscrowHold,
		Status:            TxCompleted,
		Amount:            -amount,
		Currency:          w.currency,
		FundingSource:     sql.NullString{String: fundingSource, Valid: true},
		ProviderReference: sql.NullString{String: providerRef, Valid: providerRef != ""},
		Reference:         holdReference(bookingID),
		ProcessedAt:       db.TerminalStamp(),
	})
	return err
}

// EscrowRelease credits the payee with the hold amount less the platform
// fee and records the fee for audit. Idempotent: a prior release for the
// booking short-circuits to success without re-crediting.
func (w *WalletService) EscrowRelease(ctx context.Context, bookingID uuid.UUID, payeeID int64) error {
	err := w.store.ExecTx(ctx, func(q *db.Queries) error {
		return w.EscrowReleaseTx(ctx, q, bookingID, payeeID)
	})
	if db.IsDuplicate(err) {
		// Lost a release race; the winner produced the terminal outcome
		// both callers wanted.
		return nil
	}
	return err
}

func (w *WalletService) EscrowReleaseTx(ctx context.Context, q *db.Queries, bookingID uuid.UUID, payeeID int64) error {
	hold, err := q.GetBookingTransactionByType(ctx, db.GetBookingTransactionByTypeParams{
		BookingID: bookingID,
		Type:      TypeEscrowHold,
	})
	if err == sql.ErrNoRows {
		return ErrEscrowNotFound
	} else if err != nil {
		return err
	}

	if _, err := q.GetTransactionByReference(ctx, releaseReference(bookingID)); err == nil {
		return nil
	} else if err != sql.ErrNoRows {
		return err
	}

	gross := -hold.Amount
	payeeAmount, fee := w.splitRelease(gross)

	dbWallet, err := w.getOrCreateWalletForUpdate(ctx, q, payeeID)
	if err != nil {
		return err
	}

	newBalance := w.sanitizeBalance(payeeID, dbWallet.Balance) + payeeAmount
	if newBalance > w.maxBalance {
		return NewWalletError(ErrWalletLimit, dbWallet.ID.String())
	}
	if _, err := q.UpdateWalletBalance(ctx, db.UpdateWalletBalanceParams{ID: dbWallet.ID, Balance: newBalance}); err != nil {
		return err
	}

	if _, err := q.CreateWalletTransaction(ctx, db.CreateWalletTransactionParams{
		WalletID:    uuid.NullUUID{UUID: dbWallet.ID, Valid: true},
		OwnerID:     payeeID,
		BookingID:   uuid.NullUUID{UUID: bookingID, Valid: true},
		Type:        TypeEscrowRelease,
		Status:      TxCompleted,
		Amount:      payeeAmount,
		Currency:    w.currency,
		Reference:   releaseReference(bookingID),
		ProcessedAt: db.TerminalStamp(),
	}); err != nil {
		return err
	}

	_, err = q.CreateWalletTransaction(ctx, db.CreateWalletTransactionParams{
		OwnerID:     payeeID,
		BookingID:   uuid.NullUUID{UUID: bookingID, Valid: true},
		Type:        TypePlatformFee,
		Status:      TxCompleted,
		Amount:      -fee,
		Currency:    w.currency,
		Reference:   feeReference(bookingID),
		ProcessedAt: db.TerminalStamp(),
	})
	return err
}

// Refund returns the full hold amount to the payer. Safe to call when no
// hold exists, since cancellation flows race completion flows.
func (w *WalletService) Refund(ctx context.Context, bookingID uuid.UUID, reason string) error {
	var gatewayRefund *db.WalletTransaction

	err := w.store.ExecTx(ctx, func(q *db.Queries) error {
		tx, err := w.RefundTx(ctx, q, bookingID, reason)
		if err != nil {
			return err
		}
		gatewayRefund = tx
		return nil
	})
	if db.IsDuplicate(err) {
		return nil
	}
	if err != nil {
		return err
	}

	// Gateway-funded refunds settle through the provider after the
	// ledger record is committed; the record stays PROCESSING until the
	// payout confirms.
	if gatewayRefund != nil {
		w.SettleGatewayRefund(ctx, gatewayRefund)
	}
	return nil
}

// RefundTx runs the ledger side of a refund inside a caller-owned
// transaction. A non-nil return is a gateway-funded refund the caller
// must pass to SettleGatewayRefund once its transaction commits.
func (w *WalletService) RefundTx(ctx context.Context, q *db.Queries, bookingID uuid.UUID, reason string) (*db.WalletTransaction, error) {
	hold, err := q.GetBookingTransactionByType(ctx, db.GetBookingTransactionByTypeParams{
		BookingID: bookingID,
		Type:      TypeEscrowHold,
	})
	if err == sql.ErrNoRows {
		// No hold, nothing to return. Not an error: the cancel flow may
		// have raced a booking that never captured.
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	// A prior refund or release already produced a terminal outcome.
	if _, err := q.GetTransactionByReference(ctx, refundReference(bookingID)); err == nil {
		return nil, nil
	} else if err != sql.ErrNoRows {
		return nil, err
	}
	if _, err := q.GetTransactionByReference(ctx, releaseReference(bookingID)); err == nil {
		return nil, nil
	} else if err != sql.ErrNoRows {
		return nil, err
	}

	gross := -hold.Amount

	if hold.FundingSource.Valid && hold.FundingSource.String == FundingWallet {
		dbWallet, err := w.getOrCreateWalletForUpdate(ctx, q, hold.OwnerID)
		if err != nil {
			return nil, err
		}
		newBalance := w.sanitizeBalance(hold.OwnerID, dbWallet.Balance) + gross
		if newBalance > w.maxBalance {
			return nil, NewWalletError(ErrWalletLimit, dbWallet.ID.String())
		}
		if _, err := q.UpdateWalletBalance(ctx, db.UpdateWalletBalanceParams{ID: dbWallet.ID, Balance: newBalance}); err != nil {
			return nil, err
		}
		_, err = q.CreateWalletTransaction(ctx, db.CreateWalletTransactionParams{
			WalletID:    uuid.NullUUID{UUID: dbWallet.ID, Valid: true},
			OwnerID:     hold.OwnerID,
			BookingID:   uuid.NullUUID{UUID: bookingID, Valid: true},
			Type:        TypeBookingRefund,
			Status:      TxCompleted,
			Amount:      gross,
			Currency:    w.currency,
			Reference:   refundReference(bookingID),
			ProcessedAt: db.TerminalStamp(),
		})
		return nil, err
	}

	// Gateway-funded: recorded PROCESSING now, settled with the provider
	// after commit.
	created, err := q.CreateWalletTransaction(ctx, db.CreateWalletTransactionParams{
		OwnerID:           hold.OwnerID,
		BookingID:         uuid.NullUUID{UUID: bookingID, Valid: true},
		Type:              TypeBookingRefund,
		Status:            TxProcessing,
		Amount:            gross,
		Currency:          w.currency,
		ProviderReference: hold.ProviderReference,
		Reference:         refundReference(bookingID),
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// SettleGatewayRefund pushes a committed gateway-funded refund back
// through the provider. Failures leave the record PROCESSING for a
// later replay rather than unwinding the ledger.
func (w *WalletService) SettleGatewayRefund(ctx context.Context, tx *db.WalletTransaction) {
	payout, err := w.provider.CreatePayout(ctx, tx.Amount, tx.Currency, tx.ProviderReference.String)
	if err != nil {
		// Left PROCESSING; the sync retry driver replays provider
		// settlement failures up to the configured ceiling.
		w.logger.Error(fmt.Sprintf("gateway refund %v not yet settled: %v", tx.Reference, err))
		return
	}
	if payout.Status == payment.PayoutCompleted {
		if _, err := w.store.MarkTransactionProcessed(ctx, db.MarkTransactionProcessedParams{
			ID:     tx.ID,
			Status: TxCompleted,
		}); err != nil {
			w.logger.Error(fmt.Sprintf("could not complete gateway refund %v: %v", tx.Reference, err))
		}
	}
}

// Transfer moves funds between two wallets, recording a TRANSFER_OUT
// against the sender and a TRANSFER_IN against the recipient. Wallets
// are locked in owner-id order so concurrent opposite transfers cannot
// deadlock.
func (w *WalletService) Transfer(ctx context.Context, fromOwner int64, toOwner int64, amount int64) (*TransactionModel, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if fromOwner == toOwner {
		return nil, fmt.Errorf("cannot transfer to the same wallet")
	}

	outRef, err := w.refs.NewReference()
	if err != nil {
		return nil, err
	}
	inRef, err := w.refs.NewReference()
	if err != nil {
		return nil, err
	}

	var created db.WalletTransaction
	err = w.store.ExecTx(ctx, func(q *db.Queries) error {
		first, second := fromOwner, toOwner
		if second < first {
			first, second = second, first
		}

		wallets := map[int64]db.StayWallet{}
		for _, owner := range []int64{first, second} {
			dbWallet, err := w.getOrCreateWalletForUpdate(ctx, q, owner)
			if err != nil {
				return err
			}
			wallets[owner] = dbWallet
		}

		source := wallets[fromOwner]
		dest := wallets[toOwner]
		if source.Status == StatusSuspended {
			return NewWalletError(ErrWalletSuspended, source.ID.String())
		}

		balance := w.sanitizeBalance(fromOwner, source.Balance)
		if amount > balance {
			return NewWalletError(ErrInsufficientFunds, source.ID.String())
		}

		destBalance := w.sanitizeBalance(toOwner, dest.Balance) + amount
		if destBalance > w.maxBalance {
			return NewWalletError(ErrWalletLimit, dest.ID.String())
		}

		if _, err := q.UpdateWalletBalance(ctx, db.UpdateWalletBalanceParams{ID: source.ID, Balance: balance - amount}); err != nil {
			return err
		}
		if _, err := q.UpdateWalletBalance(ctx, db.UpdateWalletBalanceParams{ID: dest.ID, Balance: destBalance}); err != nil {
			return err
		}

		created, err = q.CreateWalletTransaction(ctx, db.CreateWalletTransactionParams{
			WalletID:    uuid.NullUUID{UUID: source.ID, Valid: true},
			OwnerID:     fromOwner,
			Type:        TypeTransferOut,
			Status:      TxCompleted,
			Amount:      -amount,
			Currency:    w.currency,
			Reference:   outRef,
			ProcessedAt: db.TerminalStamp(),
		})
		if err != nil {
			return err
		}

		_, err = q.CreateWalletTransaction(ctx, db.CreateWalletTransactionParams{
			WalletID:    uuid.NullUUID{UUID: dest.ID, Valid: true},
			OwnerID:     toOwner,
			Type:        TypeTransferIn,
			Status:      TxCompleted,
			Amount:      amount,
			Currency:    w.currency,
			Reference:   inRef,
			ProcessedAt: db.TerminalStamp(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return ToTransactionModel(created), nil
}
