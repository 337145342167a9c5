package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv("APP_CONFIG_NAME", "does-not-exist")

	cfg, err := New()
	require.NoError(t, err)
	require.Equal(t, 8888, cfg.Server.Port)
	require.True(t, decimal.RequireFromString("500").Equal(cfg.Payment.Fee()))
	require.Equal(t, "ETB", cfg.Payment.Currency)
	require.Equal(t, 7*24*time.Hour, cfg.Payment.StaleAfter)
	require.Equal(t, 24*time.Hour, cfg.Payment.ReconcileInterval)
	require.Equal(t, 3, cfg.Gateway.Retry.MaxAttempts)
	require.Equal(t, "payment.state.changed", cfg.Kafka.Topic)
	require.False(t, cfg.Auth.Enabled())
}

func TestNew_EnvOverrides(t *testing.T) {
	t.Setenv("APP_CONFIG_NAME", "does-not-exist")
	t.Setenv("APP_PAYMENT_FEE_AMOUNT", "750.50")
	t.Setenv("APP_PAYMENT_STALE_AFTER", "48h")
	t.Setenv("APP_AUTH_API_KEY", "k")

	cfg, err := New()
	require.NoError(t, err)
	require.Equal(t, "750.5", cfg.Payment.Fee().String())
	require.Equal(t, 48*time.Hour, cfg.Payment.StaleAfter)
	require.True(t, cfg.Auth.Enabled())
}

func TestValidate_RejectsBadFee(t *testing.T) {
	tests := []struct {
		name string
		fee  string
	}{
		{name: "not a number", fee: "abc"},
		{name: "zero", fee: "0"},
		{name: "negative", fee: "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{Payment: PaymentConfig{
				FeeAmount:         tt.fee,
				Currency:          "ETB",
				StaleAfter:        time.Hour,
				ReconcileInterval: time.Hour,
			}}
			require.Error(t, c.Validate())
		})
	}
}
