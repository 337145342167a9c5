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

// ListingClient confirms paid listings with the property listing service.
type ListingClient struct {
	poster
	baseURL string
	apiKey  string
}

type confirmRequest struct {
	PropertyID string `json:"property_id"`
	PaymentID  string `json:"payment_id"`
	Status     string `json:"status"`
}

func NewListingClient(cfg *config.Config, tracer trace.Tracer) *ListingClient {
	return &ListingClient{
		poster: poster{
			http:   &http.Client{Timeout: cfg.Listing.Timeout},
			tracer: tracer,
			policy: retry.Policy{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond, MaxDelay: 5 * time.Second, Jitter: 0.5},
		},
		baseURL: cfg.Listing.BaseURL,
		apiKey:  cfg.Listing.APIKey,
	}
}

func (c *ListingClient) Enabled() bool { return c != nil && c.baseURL != "" }

// ConfirmPayment tells the listing service the fee for propertyID is paid.
// 409 means the listing was already confirmed and counts as success.
func (c *ListingClient) ConfirmPayment(ctx context.Context, propertyID, paymentID string) error {
	return c.postJSON(ctx, "listing.confirm", tool.JoinURL(c.baseURL, "/payments/confirm"),
		map[string]string{"X-API-Key": c.apiKey},
		&confirmRequest{PropertyID: propertyID, PaymentID: paymentID, Status: "SUCCESS"},
		http.StatusConflict,
	)
}
