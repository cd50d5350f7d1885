package gateway

import (
	"context"
	"strconv"

	"github.com/Semzy1/Log-In-page-main/internal/config"
	"github.com/Semzy1/Log-In-page-main/internal/entities"
)

const NameBankTransfer = "banktransfer"

// BankTransferAdapter has no remote provider. Initiation hands the customer
// transfer instructions; confirmation happens out of band, so verification
// reports a pending result until an operator reconciles the transfer.
type BankTransferAdapter struct {
	bankName      string
	accountName   string
	accountNumber string
}

func NewBankTransferAdapter(cfg config.Gateways) *BankTransferAdapter {
	return &BankTransferAdapter{
		bankName:      cfg.BankName,
		accountName:   cfg.AccountName,
		accountNumber: cfg.AccountNumber,
	}
}

func (a *BankTransferAdapter) Name() string { return NameBankTransfer }

func (a *BankTransferAdapter) Initiate(_ context.Context, req InitiateRequest) (InitiateResult, error) {
	return InitiateResult{
		Reference: req.Reference,
		Payload: map[string]string{
			"bank_name":      a.bankName,
			"account_name":   a.accountName,
			"account_number": a.accountNumber,
			"amount":         strconv.FormatInt(req.Amount, 10),
			"currency":       req.Currency,
			// customers must quote the reference in the transfer narration
			"reference": req.Reference,
		},
	}, nil
}

func (a *BankTransferAdapter) Verify(_ context.Context, _ string) (VerifyResult, error) {
	return VerifyResult{
		Pending: true,
		Message: "awaiting manual transfer confirmation",
	}, nil
}

func (a *BankTransferAdapter) VerifyWebhook(_ []byte, _ string) error {
	return entities.ErrInvalidSignature
}

func (a *BankTransferAdapter) ParseWebhook(_ []byte) (WebhookEvent, error) {
	return WebhookEvent{}, entities.ErrInvalidSignature
}
