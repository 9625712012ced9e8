package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/StayBridge/StayBridge-Backend/providers"
	"github.com/StayBridge/StayBridge-Backend/utils"
)

type PaystackProvider struct {
	providers.BaseProvider
	config *GatewayConfig
}

type GatewayConfig struct {
	GatewayProviderName    string `mapstructure:"GATEWAY_PROVIDER_NAME"`
	GatewayProviderKey     string `mapstructure:"PAYSTACK_KEY"`
	GatewayProviderBaseUrl string `mapstructure:"PAYSTACK_BASE_URL"`
}

func NewPaystackProvider() *PaystackProvider {

	var c GatewayConfig

	err := utils.LoadCustomConfig(utils.EnvPath, &c)
	if err != nil {
		panic(fmt.Sprintf("Could not load config: %v", err))
	}

	return &PaystackProvider{
		BaseProvider: providers.BaseProvider{
			Name:    c.GatewayProviderName,
			BaseURL: c.GatewayProviderBaseUrl,
			APIKey:  c.GatewayProviderKey,
			Client: &http.Client{
				Timeout: time.Second * 30,
			},
		},
		config: &c,
	}
}

func (p *PaystackProvider) CreateCharge(ctx context.Context, amount int64, currency string, customerRef string, description string) (*Charge, error) {
	base, err := url.Parse(p.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid provider base url: %v", err.Error())
	}

	// Path params
	base.Path += "charge"

	request := CreateChargeRequest{
		Amount:      amount,
		Currency:    currency,
		Customer:    customerRef,
		Description: description,
	}

	resp, err := p.MakeRequest("POST", base.String(), request, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// Check the status code
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d \nURL: %s", resp.StatusCode, resp.Request.URL)
	}

	// Decode the response body
	var response Response[rawCharge]
	decoder := json.NewDecoder(resp.Body)
	err = decoder.Decode(&response)
	if err != nil {
		return nil, fmt.Errorf("error decoding response body: %w", err)
	}

	return response.Data.normalize()
}

func (p *PaystackProvider) ConfirmCharge(ctx context.Context, chargeID string) (*ChargeConfirmation, error) {
	base, err := url.Parse(p.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid provider base url: %v", err.Error())
	}

	// Path params
	base.Path += "transaction/verify/" + chargeID

	resp, err := p.MakeRequest("GET", base.String(), nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// Check the status code
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d \nURL: %s", resp.StatusCode, resp.Request.URL)
	}

	// Decode the response body
	var response Response[rawCharge]
	decoder := json.NewDecoder(resp.Body)
	err = decoder.Decode(&response)
	if err != nil {
		return nil, fmt.Errorf("error decoding response body: %w", err)
	}

	charge, err := response.Data.normalize()
	if err != nil {
		return nil, err
	}

	confirmation := &ChargeConfirmation{
		ChargeID: charge.ChargeID,
		Status:   charge.Status,
	}
	if charge.Status == ChargeFailed {
		confirmation.FailureReason = response.Data.GatewayResponse
	}

	return confirmation, nil
}

func (p *PaystackProvider) CreatePayout(ctx context.Context, amount int64, currency string, destinationRef string) (*Payout, error) {
	base, err := url.Parse(p.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid provider base url: %v", err.Error())
	}

	// Path params
	base.Path += "transfer"

	/// Constant is Source
	request := CreatePayoutRequest{
		Source:    "balance",
		Amount:    amount,
		Currency:  currency,
		Recipient: destinationRef,
		Reason:    "StayBridge wallet payout",
	}

	resp, err := p.MakeRequest("POST", base.String(), request, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// Check the status code
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d \nURL: %s", resp.StatusCode, resp.Request.URL)
	}

	// Decode the response body
	var response Response[rawPayout]
	decoder := json.NewDecoder(resp.Body)
	err = decoder.Decode(&response)
	if err != nil {
		return nil, fmt.Errorf("error decoding response body: %w", err)
	}

	payoutID := response.Data.TransferCode
	if payoutID == "" {
		payoutID = fmt.Sprintf("%d", response.Data.ID)
	}

	return &Payout{
		PayoutID: payoutID,
		Status:   payoutStatusOf(response.Data.Status),
	}, nil
}
