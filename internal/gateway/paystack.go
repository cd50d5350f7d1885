package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Semzy1/Log-In-page-main/internal/config"
	"github.com/Semzy1/Log-In-page-main/internal/entities"
)

const NamePaystack = "paystack"

// PaystackAdapter drives the Paystack checkout flow: initialize a transaction
// to get an authorization URL, verify by reference, and authenticate webhooks
// via the x-paystack-signature HMAC-SHA512 of the raw body.
type PaystackAdapter struct {
	client      *http.Client
	baseURL     string
	secret      string
	callbackURL string
}

func NewPaystackAdapter(cfg config.Gateway, timeout time.Duration) *PaystackAdapter {
	return &PaystackAdapter{
		client:      newHTTPClient(timeout),
		baseURL:     cfg.BaseURL,
		secret:      cfg.Secret,
		callbackURL: cfg.CallbackURL,
	}
}

func (a *PaystackAdapter) Name() string { return NamePaystack }

type paystackInitRequest struct {
	Email       string `json:"email"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Reference   string `json:"reference"`
	CallbackURL string `json:"callback_url,omitempty"`
}

type paystackInitResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

func (a *PaystackAdapter) Initiate(ctx context.Context, req InitiateRequest) (InitiateResult, error) {
	body, err := json.Marshal(paystackInitRequest{
		Email:       req.CustomerEmail,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Reference:   req.Reference,
		CallbackURL: a.callbackURL,
	})
	if err != nil {
		return InitiateResult{}, fmt.Errorf("failed to encode paystack request: %w", err)
	}

	var resp paystackInitResponse
	if err := a.post(ctx, "/transaction/initialize", body, &resp); err != nil {
		return InitiateResult{}, err
	}
	if !resp.Status {
		return InitiateResult{}, fmt.Errorf("%w: %s", entities.ErrGatewayRejected, resp.Message)
	}

	return InitiateResult{
		Reference: resp.Data.Reference,
		Payload: map[string]string{
			"authorization_url": resp.Data.AuthorizationURL,
			"access_code":       resp.Data.AccessCode,
			"reference":         resp.Data.Reference,
		},
	}, nil
}

type paystackVerifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		ID             int64  `json:"id"`
		Status         string `json:"status"`
		Reference      string `json:"reference"`
		Amount         int64  `json:"amount"`
		GatewayMessage string `json:"gateway_response"`
		Channel        string `json:"channel"`
		PaidAt         string `json:"paid_at"`
	} `json:"data"`
}

func (a *PaystackAdapter) Verify(ctx context.Context, reference string) (VerifyResult, error) {
	var resp paystackVerifyResponse
	if err := a.get(ctx, "/transaction/verify/"+reference, &resp); err != nil {
		return VerifyResult{}, err
	}
	if !resp.Status {
		return VerifyResult{Message: resp.Message}, nil
	}

	result := VerifyResult{
		ConfirmedAmount: resp.Data.Amount,
		GatewayTxnID:    strconv.FormatInt(resp.Data.ID, 10),
		Message:         resp.Data.GatewayMessage,
		Metadata: map[string]string{
			"channel": resp.Data.Channel,
			"paid_at": resp.Data.PaidAt,
		},
	}

	switch resp.Data.Status {
	case "success":
		result.Verified = true
	case "pending", "ongoing":
		result.Pending = true
	}
	return result, nil
}

func (a *PaystackAdapter) VerifyWebhook(payload []byte, signature string) error {
	mac := hmac.New(sha512.New, []byte(a.secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return entities.ErrInvalidSignature
	}
	return nil
}

type paystackWebhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		ID        int64  `json:"id"`
		Reference string `json:"reference"`
		Status    string `json:"status"`
		Amount    int64  `json:"amount"`
		Channel   string `json:"channel"`
	} `json:"data"`
}

func (a *PaystackAdapter) ParseWebhook(payload []byte) (WebhookEvent, error) {
	var event paystackWebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return WebhookEvent{}, fmt.Errorf("failed to decode paystack webhook: %w", err)
	}

	return WebhookEvent{
		Type:         event.Event,
		Reference:    event.Data.Reference,
		Success:      event.Event == "charge.success" && event.Data.Status == "success",
		Amount:       event.Data.Amount,
		GatewayTxnID: strconv.FormatInt(event.Data.ID, 10),
		Metadata:     map[string]string{"channel": event.Data.Channel},
	}, nil
}

func (a *PaystackAdapter) post(ctx context.Context, path string, body []byte, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build paystack request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.secret)
	req.Header.Set("Content-Type", "application/json")
	return a.do(req, dest)
}

func (a *PaystackAdapter) get(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build paystack request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.secret)
	return a.do(req, dest)
}

func (a *PaystackAdapter) do(req *http.Request, dest any) error {
	resp, err := a.client.Do(req)
	if err != nil {
		return unavailable(NamePaystack, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return unavailableStatus(NamePaystack, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return unavailable(NamePaystack, err)
	}
	return nil
}
