package webhook_handler

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fatflowers/listing-payment/internal/app/service/payment"
	"github.com/fatflowers/listing-payment/pkg/types"
)

// WebhookParser exposes the fields of a gateway callback the handler needs.
// Claimed statuses are informational only; the gateway is re-asked.
type WebhookParser interface {
	GetProvider(ctx context.Context) types.GatewayProvider
	GetReceivedAt(ctx context.Context) time.Time
	GetTxRef(ctx context.Context) string
	GetClaimedStatus(ctx context.Context) string
	GetEvent(ctx context.Context) string
	GetData(ctx context.Context) any
}

type chapaWebhook struct {
	Event  string `json:"event"`
	TxRef  string `json:"tx_ref"`
	Status string `json:"status"`
	Data   *struct {
		TxRef  string `json:"tx_ref"`
		Status string `json:"status"`
	} `json:"data,omitempty"`
}

// ChapaWebhookParser reads the POST body of a Chapa webhook.
type ChapaWebhookParser struct {
	receivedAt time.Time
	raw        json.RawMessage
	body       chapaWebhook
}

// NewChapaWebhookParser decodes payload. tx_ref and status are read from the
// root, falling back to the nested data object.
func NewChapaWebhookParser(payload []byte, receivedAt time.Time) (*ChapaWebhookParser, error) {
	p := &ChapaWebhookParser{receivedAt: receivedAt, raw: json.RawMessage(payload)}
	if err := json.Unmarshal(payload, &p.body); err != nil {
		return nil, fmt.Errorf("%w: webhook body is not json: %w", payment.ErrValidation, err)
	}
	if p.body.Data != nil {
		if p.body.TxRef == "" {
			p.body.TxRef = p.body.Data.TxRef
		}
		if p.body.Status == "" {
			p.body.Status = p.body.Data.Status
		}
	}
	if strings.TrimSpace(p.body.TxRef) == "" || strings.TrimSpace(p.body.Status) == "" {
		return nil, fmt.Errorf("%w: webhook without tx_ref or status", payment.ErrValidation)
	}
	return p, nil
}

func (p *ChapaWebhookParser) GetProvider(context.Context) types.GatewayProvider {
	return types.GatewayProviderChapa
}

func (p *ChapaWebhookParser) GetReceivedAt(context.Context) time.Time { return p.receivedAt }

func (p *ChapaWebhookParser) GetTxRef(context.Context) string { return strings.TrimSpace(p.body.TxRef) }

func (p *ChapaWebhookParser) GetClaimedStatus(context.Context) string {
	return strings.ToLower(p.body.Status)
}

func (p *ChapaWebhookParser) GetEvent(context.Context) string { return p.body.Event }

func (p *ChapaWebhookParser) GetData(context.Context) any { return p.raw }

// ReturnParser carries the query of the checkout return leg.
type ReturnParser struct {
	receivedAt time.Time
	txRef      string
	status     string
}

func NewReturnParser(txRef, status string, receivedAt time.Time) (*ReturnParser, error) {
	if strings.TrimSpace(txRef) == "" {
		return nil, fmt.Errorf("%w: return without trx_ref", payment.ErrValidation)
	}
	return &ReturnParser{receivedAt: receivedAt, txRef: strings.TrimSpace(txRef), status: strings.ToLower(status)}, nil
}

func (p *ReturnParser) GetProvider(context.Context) types.GatewayProvider {
	return types.GatewayProviderChapa
}

func (p *ReturnParser) GetReceivedAt(context.Context) time.Time { return p.receivedAt }

func (p *ReturnParser) GetTxRef(context.Context) string { return p.txRef }

func (p *ReturnParser) GetClaimedStatus(context.Context) string { return p.status }

func (p *ReturnParser) GetEvent(context.Context) string { return "checkout.return" }

func (p *ReturnParser) GetData(context.Context) any {
	return map[string]string{"trx_ref": p.txRef, "status": p.status}
}
