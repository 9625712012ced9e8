package payment

import "context"

type ChargeStatus string

const (
	ChargeSucceeded ChargeStatus = "succeeded"
	ChargeFailed    ChargeStatus = "failed"
	ChargePending   ChargeStatus = "pending"
)

type PayoutStatus string

const (
	PayoutPending   PayoutStatus = "pending"
	PayoutCompleted PayoutStatus = "completed"
)

// Charge is the fixed shape every gateway response is normalized into at
// the adapter boundary. Raw gateway payloads never travel past this package.
type Charge struct {
	ChargeID string
	Status   ChargeStatus
	Amount   int64 // minor units
	Currency string
}

type ChargeConfirmation struct {
	ChargeID      string
	Status        ChargeStatus
	FailureReason string
}

type Payout struct {
	PayoutID string
	Status   PayoutStatus
}

// PaymentProvider is the abstract gateway contract. Any card or
// bank-transfer processor that satisfies it can back the ledger.
type PaymentProvider interface {
	CreateCharge(ctx context.Context, amount int64, currency string, customerRef string, description string) (*Charge, error)
	ConfirmCharge(ctx context.Context, chargeID string) (*ChargeConfirmation, error)
	CreatePayout(ctx context.Context, amount int64, currency string, destinationRef string) (*Payout, error)
}
