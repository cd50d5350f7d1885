package gateway

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Semzy1/Log-In-page-main/internal/config"
	"github.com/Semzy1/Log-In-page-main/internal/entities"
)

const NameFlutterwave = "flutterwave"

// FlutterwaveAdapter drives the Flutterwave standard checkout. Webhooks carry
// a static verif-hash header that must equal the configured secret hash.
type FlutterwaveAdapter struct {
	client      *http.Client
	baseURL     string
	secret      string
	callbackURL string
}

func NewFlutterwaveAdapter(cfg config.Gateway, timeout time.Duration) *FlutterwaveAdapter {
	return &FlutterwaveAdapter{
		client:      newHTTPClient(timeout),
		baseURL:     cfg.BaseURL,
		secret:      cfg.Secret,
		callbackURL: cfg.CallbackURL,
	}
}

func (a *FlutterwaveAdapter) Name() string { return NameFlutterwave }

type flutterwaveCustomer struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type flutterwaveInitRequest struct {
	TxRef       string              `json:"tx_ref"`
	Amount      int64               `json:"amount"`
	Currency    string              `json:"currency"`
	RedirectURL string              `json:"redirect_url,omitempty"`
	Customer    flutterwaveCustomer `json:"customer"`
}

type flutterwaveInitResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Link string `json:"link"`
	} `json:"data"`
}

func (a *FlutterwaveAdapter) Initiate(ctx context.Context, req InitiateRequest) (InitiateResult, error) {
	body, err := json.Marshal(flutterwaveInitRequest{
		TxRef:       req.Reference,
		Amount:      req.Amount,
		Currency:    req.Currency,
		RedirectURL: a.callbackURL,
		Customer: flutterwaveCustomer{
			Email: req.CustomerEmail,
			Name:  req.CustomerName,
		},
	})
	if err != nil {
		return InitiateResult{}, fmt.Errorf("failed to encode flutterwave request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/payments", bytes.NewReader(body))
	if err != nil {
		return InitiateResult{}, fmt.Errorf("failed to build flutterwave request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+a.secret)
	httpReq.Header.Set("Content-Type", "application/json")

	var resp flutterwaveInitResponse
	if err := a.do(httpReq, &resp); err != nil {
		return InitiateResult{}, err
	}
	if resp.Status != "success" {
		return InitiateResult{}, fmt.Errorf("%w: %s", entities.ErrGatewayRejected, resp.Message)
	}

	return InitiateResult{
		Reference: req.Reference,
		Payload: map[string]string{
			"link":   resp.Data.Link,
			"tx_ref": req.Reference,
		},
	}, nil
}

type flutterwaveVerifyResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		ID                int64  `json:"id"`
		TxRef             string `json:"tx_ref"`
		Status            string `json:"status"`
		Amount            int64  `json:"amount"`
		Currency          string `json:"currency"`
		PaymentType       string `json:"payment_type"`
		ProcessorResponse string `json:"processor_response"`
	} `json:"data"`
}

func (a *FlutterwaveAdapter) Verify(ctx context.Context, reference string) (VerifyResult, error) {
	endpoint := a.baseURL + "/transactions/verify_by_reference?tx_ref=" + url.QueryEscape(reference)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("failed to build flutterwave request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+a.secret)

	var resp flutterwaveVerifyResponse
	if err := a.do(httpReq, &resp); err != nil {
		return VerifyResult{}, err
	}
	if resp.Status != "success" {
		return VerifyResult{Message: resp.Message}, nil
	}

	result := VerifyResult{
		ConfirmedAmount: resp.Data.Amount,
		GatewayTxnID:    strconv.FormatInt(resp.Data.ID, 10),
		Message:         resp.Data.ProcessorResponse,
		Metadata: map[string]string{
			"payment_type": resp.Data.PaymentType,
			"currency":     resp.Data.Currency,
		},
	}

	switch resp.Data.Status {
	case "successful":
		result.Verified = true
	case "pending":
		result.Pending = true
	}
	return result, nil
}

func (a *FlutterwaveAdapter) VerifyWebhook(payload []byte, signature string) error {
	if signature == "" || subtle.ConstantTimeCompare([]byte(a.secret), []byte(signature)) != 1 {
		return entities.ErrInvalidSignature
	}
	return nil
}

type flutterwaveWebhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		ID          int64  `json:"id"`
		TxRef       string `json:"tx_ref"`
		Status      string `json:"status"`
		Amount      int64  `json:"amount"`
		PaymentType string `json:"payment_type"`
	} `json:"data"`
}

func (a *FlutterwaveAdapter) ParseWebhook(payload []byte) (WebhookEvent, error) {
	var event flutterwaveWebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return WebhookEvent{}, fmt.Errorf("failed to decode flutterwave webhook: %w", err)
	}

	return WebhookEvent{
		Type:         event.Event,
		Reference:    event.Data.TxRef,
		Success:      event.Event == "charge.completed" && event.Data.Status == "successful",
		Amount:       event.Data.Amount,
		GatewayTxnID: strconv.FormatInt(event.Data.ID, 10),
		Metadata:     map[string]string{"payment_type": event.Data.PaymentType},
	}, nil
}

func (a *FlutterwaveAdapter) do(req *http.Request, dest any) error {
	resp, err := a.client.Do(req)
	if err != nil {
		return unavailable(NameFlutterwave, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return unavailableStatus(NameFlutterwave, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return unavailable(NameFlutterwave, err)
	}
	return nil
}
