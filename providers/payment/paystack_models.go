package payment

import (
	"encoding/json"
	"fmt"
	"strconv"
)

type Response[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type CreateChargeRequest struct {
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Customer    string `json:"customer"`
	Description string `json:"description"`
}

type CreatePayoutRequest struct {
	Source    string `json:"source"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Recipient string `json:"recipient"`
	Reason    string `json:"reason"`
}

// rawCharge mirrors the gateway's loose response shape: amount arrives
// sometimes top-level, sometimes nested under "charge", sometimes as a
// string. It is normalized into Charge immediately on ingress.
type rawCharge struct {
	Reference string          `json:"reference"`
	ID        string          `json:"id"`
	Status    string          `json:"status"`
	Currency  string          `json:"currency"`
	Amount    json.RawMessage `json:"amount"`
	Charge    *struct {
		Amount json.RawMessage `json:"amount"`
	} `json:"charge"`
	GatewayResponse string `json:"gateway_response"`
}

type rawPayout struct {
	TransferCode string `json:"transfer_code"`
	ID           int64  `json:"id"`
	Status       string `json:"status"`
}

// looseAmount decodes an amount the gateway may serialize as a JSON
// number or a quoted string.
func looseAmount(raw json.RawMessage) (int64, error) {
	if len(raw) == 0 {
		return 0, nil
	}

	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("unrecognised amount shape: %s", string(raw))
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable amount %q: %w", s, err)
	}
	return n, nil
}

func (r *rawCharge) normalize() (*Charge, error) {
	amountRaw := r.Amount
	if len(amountRaw) == 0 && r.Charge != nil {
		amountRaw = r.Charge.Amount
	}

	amount, err := looseAmount(amountRaw)
	if err != nil {
		return nil, err
	}

	id := r.Reference
	if id == "" {
		id = r.ID
	}

	return &Charge{
		ChargeID: id,
		Status:   chargeStatusOf(r.Status),
		Amount:   amount,
		Currency: r.Currency,
	}, nil
}

func chargeStatusOf(s string) ChargeStatus {
	switch s {
	case "success", "succeeded":
		return ChargeSucceeded
	case "failed", "abandoned", "reversed":
		return ChargeFailed
	default:
		return ChargePending
	}
}

func payoutStatusOf(s string) PayoutStatus {
	switch s {
	case "success", "completed":
		return PayoutCompleted
	default:
		return PayoutPending
	}
}
