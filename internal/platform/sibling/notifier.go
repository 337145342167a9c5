package sibling

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/fatflowers/listing-payment/pkg/config"
	"github.com/fatflowers/listing-payment/pkg/retry"
	"github.com/fatflowers/listing-payment/pkg/tool"
)

type Notification struct {
	UserID     string `json:"user_id"`
	PaymentID  string `json:"payment_id"`
	PropertyID string `json:"property_id"`
	Status     string `json:"status"`
	Subject    string `json:"subject"`
	Message    string `json:"message"`
	Reason     string `json:"reason,omitempty"`
}

// NotificationClient hands user-facing messages to the notification service.
// Delivery is attempted once.
type NotificationClient struct {
	poster
	baseURL string
}

func NewNotificationClient(cfg *config.Config, tracer trace.Tracer) *NotificationClient {
	return &NotificationClient{
		poster: poster{
			http:   &http.Client{Timeout: cfg.Notification.Timeout},
			tracer: tracer,
			policy: retry.Policy{MaxAttempts: 1, BaseDelay: time.Second},
		},
		baseURL: cfg.Notification.BaseURL,
	}
}

func (c *NotificationClient) Enabled() bool { return c != nil && c.baseURL != "" }

func (c *NotificationClient) Send(ctx context.Context, n *Notification) error {
	return c.postJSON(ctx, "notification.send", tool.JoinURL(c.baseURL, "/notifications/send"), nil, n)
}
