package escrow

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	db "github.com/StayBridge/StayBridge-Backend/db/store"
	"github.com/StayBridge/StayBridge-Backend/providers/payment"
	"github.com/StayBridge/StayBridge-Backend/services/monitoring/logging"
	"github.com/StayBridge/StayBridge-Backend/services/wallet"
	"github.com/google/uuid"
)

type EscrowService struct {
	store    *db.Store
	wallets  *wallet.WalletService
	provider payment.PaymentProvider
	logger   *logging.Logger
}

func NewEscrowService(store *db.Store, wallets *wallet.WalletService, provider payment.PaymentProvider, logger *logging.Logger) *EscrowService {
	return &EscrowService{
		store:    store,
		wallets:  wallets,
		provider: provider,
		logger:   logger,
	}
}

type CreateEscrowRequest struct {
	BookingID   uuid.UUID
	Amount      int64
	Currency    string
	BuyerID     int64
	SellerID    int64
	ProviderRef string
	Conditions  json.RawMessage
}

// Create confirms the provider charge and opens the escrow as IN_ESCROW,
// recording the backing hold in the same ledger transaction. A second
// create for a booking with a live escrow returns the existing record.
func (s *EscrowService) Create(ctx context.Context, req CreateEscrowRequest) (*EscrowModel, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	fundingSource := wallet.FundingWallet
	if req.ProviderRef != "" {
		confirmation, err := s.provider.ConfirmCharge(ctx, req.ProviderRef)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", wallet.ErrPaymentFailed, err)
		}
		if confirmation.Status != payment.ChargeSucceeded {
			s.logger.Error(fmt.Sprintf("escrow charge %v declined: %v", req.ProviderRef, confirmation.FailureReason))
			return nil, wallet.NewWalletError(wallet.ErrPaymentFailed, "", fmt.Errorf("%s", confirmation.FailureReason))
		}
		fundingSource = wallet.FundingGateway
	}

	var created db.Escrow
	err := s.store.ExecTx(ctx, func(q *db.Queries) error {
		var err error
		created, err = q.CreateEscrow(ctx, db.CreateEscrowParams{
			BookingID:         req.BookingID,
			BuyerID:           req.BuyerID,
			SellerID:          req.SellerID,
			Amount:            req.Amount,
			Currency:          req.Currency,
			Status:            StatusInEscrow,
			FundingSource:     fundingSource,
			ProviderReference: sql.NullString{String: req.ProviderRef, Valid: req.ProviderRef != ""},
			Conditions:        req.Conditions,
		})
		if err != nil {
			return err
		}

		return s.wallets.EscrowHoldTx(ctx, q, req.BookingID, req.Amount, req.BuyerID, req.ProviderRef)
	})

	if db.IsDuplicate(err) {
		// A live escrow already exists for this booking; treat the
		// duplicate create as a lookup.
		existing, lookupErr := s.store.GetEscrowByBookingID(ctx, req.BookingID)
		if lookupErr != nil {
			return nil, lookupErr
		}
		return ToEscrowModel(existing), nil
	}
	if err != nil {
		return nil, err
	}

	return ToEscrowModel(created), nil
}

// RequestPayment moves IN_ESCROW to PAYMENT_REQUESTED. Any other source
// state is an illegal transition.
func (s *EscrowService) RequestPayment(ctx context.Context, escrowID uuid.UUID) (*EscrowModel, error) {
	var updated db.Escrow
	err := s.store.ExecTx(ctx, func(q *db.Queries) error {
		record, err := q.GetEscrowForUpdate(ctx, escrowID)
		if err == sql.ErrNoRows {
			return ErrEscrowNotFound
		} else if err != nil {
			return err
		}

		if record.Status != StatusInEscrow {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidState, record.Status, StatusPaymentRequested)
		}

		updated, err = q.UpdateEscrowStatus(ctx, db.UpdateEscrowStatusParams{
			ID:                 record.ID,
			Status:             StatusPaymentRequested,
			PaymentRequestedAt: db.TerminalStamp(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return ToEscrowModel(updated), nil
}

// Release settles PAYMENT_REQUESTED into PAYMENT_RELEASED via the wallet
// ledger. Already-terminal records return success without touching the
// ledger: both a repeat release and the loser of a release/refund race
// intended a valid terminal outcome.
func (s *EscrowService) Release(ctx context.Context, escrowID uuid.UUID) (*EscrowModel, error) {
	var settled db.Escrow
	err := s.store.ExecTx(ctx, func(q *db.Queries) error {
		record, err := q.GetEscrowForUpdate(ctx, escrowID)
		if err == sql.ErrNoRows {
			return ErrEscrowNotFound
		} else if err != nil {
			return err
		}

		if IsTerminal(record.Status) {
			settled = record
			return nil
		}

		if record.Status != StatusPaymentRequested {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidState, record.Status, StatusPaymentReleased)
		}

		if err := s.wallets.EscrowReleaseTx(ctx, q, record.BookingID, record.SellerID); err != nil {
			return err
		}

		settled, err = q.UpdateEscrowStatus(ctx, db.UpdateEscrowStatusParams{
			ID:         record.ID,
			Status:     StatusPaymentReleased,
			ReleasedAt: db.TerminalStamp(),
		})
		return err
	})
	if db.IsDuplicate(err) {
		// The wallet ledger saw this release before; report the record
		// as it stands.
		record, lookupErr := s.store.GetEscrow(ctx, escrowID)
		if lookupErr != nil {
			return nil, lookupErr
		}
		return ToEscrowModel(record), nil
	}
	if err != nil {
		return nil, err
	}
	return ToEscrowModel(settled), nil
}

// Cancel voids a non-terminal escrow and returns the hold to the buyer.
func (s *EscrowService) Cancel(ctx context.Context, escrowID uuid.UUID, reason string) (*EscrowModel, error) {
	return s.terminate(ctx, escrowID, StatusCancelled, reason)
}

// Refund is Cancel with a REFUNDED terminal status, used when funds
// already moved and must flow back.
func (s *EscrowService) Refund(ctx context.Context, escrowID uuid.UUID, reason string) (*EscrowModel, error) {
	return s.terminate(ctx, escrowID, StatusRefunded, reason)
}

func (s *EscrowService) terminate(ctx context.Context, escrowID uuid.UUID, terminal string, reason string) (*EscrowModel, error) {
	var settled db.Escrow
	var gatewayRefund *db.WalletTransaction
	err := s.store.ExecTx(ctx, func(q *db.Queries) error {
		record, err := q.GetEscrowForUpdate(ctx, escrowID)
		if err == sql.ErrNoRows {
			return ErrEscrowNotFound
		} else if err != nil {
			return err
		}

		if IsTerminal(record.Status) {
			// The other side of the race already settled the booking.
			settled = record
			return nil
		}

		tx, err := s.wallets.RefundTx(ctx, q, record.BookingID, reason)
		if err != nil {
			return err
		}
		gatewayRefund = tx

		settled, err = q.UpdateEscrowStatus(ctx, db.UpdateEscrowStatusParams{
			ID:     record.ID,
			Status: terminal,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	// A gateway-funded hold flows back through the provider once the
	// ledger record is committed; until the payout confirms the refund
	// stays PROCESSING.
	if gatewayRefund != nil {
		s.wallets.SettleGatewayRefund(ctx, gatewayRefund)
	}

	s.logger.Info(fmt.Sprintf("escrow %v settled as %v: %v", escrowID, settled.Status, reason))
	return ToEscrowModel(settled), nil
}

func (s *EscrowService) GetByBooking(ctx context.Context, bookingID uuid.UUID) (*EscrowModel, error) {
	record, err := s.store.GetEscrowByBookingID(ctx, bookingID)
	if err == sql.ErrNoRows {
		return nil, ErrEscrowNotFound
	} else if err != nil {
		return nil, err
	}
	return ToEscrowModel(record), nil
}
