package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/StayBridge/StayBridge-Backend/client/cache"
	"github.com/StayBridge/StayBridge-Backend/providers"
)

// ErrNetworkUnavailable marks failures the sync driver may retry;
// everything else coming back from the server is terminal for the call.
var ErrNetworkUnavailable = fmt.Errorf("server unreachable")

// IsNetworkError reports whether err represents unreachable-server
// conditions rather than a rejected request.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNetworkUnavailable) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// WalletGateway is the client's HTTP view of the authoritative wallet
// API. All responses arrive in the server's standard envelope.
type WalletGateway struct {
	providers.BaseProvider
}

func NewWalletGateway(baseURL string, token string, timeout time.Duration) *WalletGateway {
	return &WalletGateway{
		BaseProvider: providers.BaseProvider{
			Name:    providers.StayBridge,
			BaseURL: baseURL,
			APIKey:  token,
			Client: &http.Client{
				Timeout: timeout,
			},
		},
	}
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type walletPayload struct {
	Balance  int64  `json:"balance"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

func (g *WalletGateway) doRequest(ctx context.Context, method string, path string, query url.Values, body interface{}) (*envelope, error) {
	base, err := url.Parse(g.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid gateway base url: %v", err.Error())
	}
	base.Path += path
	if query != nil {
		base.RawQuery = query.Encode()
	}

	var reader *bytes.Buffer
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewBuffer(jsonBody)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, base.String(), reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.APIKey)

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkUnavailable, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("error decoding response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d: %s", resp.StatusCode, env.Message)
	}

	return &env, nil
}

// FetchTransactions pulls the authoritative transaction log, newest
// first, already shaped as cache entries marked SYNCED.
func (g *WalletGateway) FetchTransactions(ctx context.Context, owner string) ([]cache.CachedTransaction, error) {
	query := url.Values{}
	query.Add("page", "1")
	query.Add("size", "100")

	env, err := g.doRequest(ctx, "GET", "api/v1/wallets/transactions", query, nil)
	if err != nil {
		return nil, err
	}

	var entries []cache.CachedTransaction
	if err := json.Unmarshal(env.Data, &entries); err != nil {
		return nil, fmt.Errorf("error decoding transactions: %w", err)
	}

	for i := range entries {
		entries[i].SyncState = cache.SyncSynced
	}
	return entries, nil
}

// FetchBalance returns the authoritative balance for the active session.
func (g *WalletGateway) FetchBalance(ctx context.Context, owner string) (int64, error) {
	env, err := g.doRequest(ctx, "GET", "api/v1/wallets", nil, nil)
	if err != nil {
		return 0, err
	}

	var payload walletPayload
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return 0, fmt.Errorf("error decoding wallet: %w", err)
	}
	return payload.Balance, nil
}

// ReplayDeposit re-submits a locally queued deposit.
func (g *WalletGateway) ReplayDeposit(ctx context.Context, amount int64, description string) error {
	body := struct {
		Amount      int64  `json:"amount"`
		Description string `json:"description"`
	}{Amount: amount, Description: description}

	_, err := g.doRequest(ctx, "POST", "api/v1/wallets/deposit", nil, body)
	return err
}
