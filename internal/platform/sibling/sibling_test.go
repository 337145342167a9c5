package sibling

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/fatflowers/listing-payment/pkg/config"
)

func testConfig(url string) *config.Config {
	return &config.Config{
		Listing:      config.ListingConfig{BaseURL: url, APIKey: "listing-key", Timeout: time.Second},
		Notification: config.NotificationConfig{BaseURL: url, Timeout: time.Second},
	}
}

func fastListing(cfg *config.Config) *ListingClient {
	c := NewListingClient(cfg, noop.NewTracerProvider().Tracer("test"))
	c.policy.BaseDelay = time.Millisecond
	c.policy.MaxDelay = time.Millisecond
	return c
}

func TestListingClient_ConfirmPayment(t *testing.T) {
	tests := []struct {
		name      string
		codes     []int
		wantCalls int32
		wantErr   error
	}{
		{name: "accepted", codes: []int{http.StatusOK}, wantCalls: 1},
		{name: "already confirmed", codes: []int{http.StatusConflict}, wantCalls: 1},
		{name: "retries server errors", codes: []int{http.StatusServiceUnavailable, http.StatusOK}, wantCalls: 2},
		{name: "gives up after budget", codes: []int{500, 500, 500}, wantCalls: 3, wantErr: ErrTransient},
		{name: "client error is final", codes: []int{http.StatusBadRequest}, wantCalls: 1, wantErr: ErrRejected},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := atomic.AddInt32(&calls, 1)
				require.Equal(t, "/payments/confirm", r.URL.Path)
				require.Equal(t, "listing-key", r.Header.Get("X-API-Key"))
				var body confirmRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				require.Equal(t, confirmRequest{PropertyID: "prop-1", PaymentID: "pay-1", Status: "SUCCESS"}, body)
				w.WriteHeader(tt.codes[n-1])
			}))
			defer srv.Close()

			c := fastListing(testConfig(srv.URL))
			require.True(t, c.Enabled())
			err := c.ConfirmPayment(context.Background(), "prop-1", "pay-1")
			require.Equal(t, tt.wantCalls, atomic.LoadInt32(&calls))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestNotificationClient_SendsOnce(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		require.Equal(t, "/notifications/send", r.URL.Path)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewNotificationClient(testConfig(srv.URL), noop.NewTracerProvider().Tracer("test"))
	err := c.Send(context.Background(), &Notification{UserID: "u1", PaymentID: "p1", Status: "FAILED"})
	require.ErrorIs(t, err, ErrTransient)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClients_DisabledWithoutBaseURL(t *testing.T) {
	cfg := testConfig("")
	require.False(t, NewListingClient(cfg, noop.NewTracerProvider().Tracer("t")).Enabled())
	require.False(t, NewNotificationClient(cfg, noop.NewTracerProvider().Tracer("t")).Enabled())
}
