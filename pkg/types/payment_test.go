package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPaymentStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to PaymentStatus
		want     bool
	}{
		{PaymentStatusPending, PaymentStatusSuccess, true},
		{PaymentStatusPending, PaymentStatusFailed, true},
		{PaymentStatusPending, PaymentStatusPending, false},
		{PaymentStatusSuccess, PaymentStatusFailed, false},
		{PaymentStatusFailed, PaymentStatusSuccess, false},
		{PaymentStatusSuccess, PaymentStatusSuccess, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			require.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestPaymentStatus_IsTerminal(t *testing.T) {
	require.False(t, PaymentStatusPending.IsTerminal())
	require.True(t, PaymentStatusSuccess.IsTerminal())
	require.True(t, PaymentStatusFailed.IsTerminal())
	require.False(t, PaymentStatus("UNKNOWN").Valid())
}

func TestCaller_CanAccess(t *testing.T) {
	var anonymous *Caller
	require.True(t, anonymous.CanAccess("u1"))
	require.True(t, (&Caller{Subject: "admin", Role: CallerRoleAdmin}).CanAccess("u1"))
	require.True(t, (&Caller{Subject: "listing", Role: CallerRoleService}).CanAccess("u1"))
	require.True(t, (&Caller{Subject: "u1", Role: CallerRoleOwner}).CanAccess("u1"))
	require.False(t, (&Caller{Subject: "u2", Role: CallerRoleOwner}).CanAccess("u1"))
	require.False(t, (&Caller{Role: CallerRoleOwner}).CanAccess(""))
}
