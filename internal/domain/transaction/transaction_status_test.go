package transaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransactionStatus(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    TransactionStatus
		wantErr bool
	}{
		{
			name:  "正常系: pending",
			input: "pending",
			want:  TransactionStatusPending,
		},
		{
			name:  "正常系: completed",
			input: "completed",
			want:  TransactionStatusCompleted,
		},
		{
			name:  "正常系: failed",
			input: "failed",
			want:  TransactionStatusFailed,
		},
		{
			name:  "正常系: refunded",
			input: "refunded",
			want:  TransactionStatusRefunded,
		},
		{
			name:    "異常系: 無効な値",
			input:   "cancelled",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewTransactionStatus(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTransactionStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from TransactionStatus
		to   TransactionStatus
		want bool
	}{
		{name: "正常系: pending → completed", from: TransactionStatusPending, to: TransactionStatusCompleted, want: true},
		{name: "正常系: pending → failed", from: TransactionStatusPending, to: TransactionStatusFailed, want: true},
		{name: "正常系: completed → refunded", from: TransactionStatusCompleted, to: TransactionStatusRefunded, want: true},
		{name: "異常系: completed → failed", from: TransactionStatusCompleted, to: TransactionStatusFailed},
		{name: "異常系: failed → completed", from: TransactionStatusFailed, to: TransactionStatusCompleted},
		{name: "異常系: failed → refunded", from: TransactionStatusFailed, to: TransactionStatusRefunded},
		{name: "異常系: refunded → completed", from: TransactionStatusRefunded, to: TransactionStatusCompleted},
		{name: "異常系: pending → refunded", from: TransactionStatusPending, to: TransactionStatusRefunded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestTransactionStatus_IsTerminal(t *testing.T) {
	assert.False(t, TransactionStatusPending.IsTerminal())
	assert.True(t, TransactionStatusCompleted.IsTerminal())
	assert.True(t, TransactionStatusFailed.IsTerminal())
	assert.True(t, TransactionStatusRefunded.IsTerminal())
}
