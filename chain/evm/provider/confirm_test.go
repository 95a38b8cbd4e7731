package provider

import (
	"context"
	"errors"
	"math/big"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDeployBackend returns its errors in order before returning the receipt.
type fakeDeployBackend struct {
	errs    []error
	receipt *types.Receipt
	calls   atomic.Int32
}

func (b *fakeDeployBackend) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	n := int(b.calls.Add(1)) - 1
	if n < len(b.errs) {
		return nil, b.errs[n]
	}

	return b.receipt, nil
}

func (b *fakeDeployBackend) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return nil, nil
}

func Test_WaitMinedWithInterval(t *testing.T) {
	t.Parallel()

	receipt := &types.Receipt{TxHash: common.HexToHash("0xabc"), BlockNumber: big.NewInt(3)}

	tests := []struct {
		name        string
		giveBackend *fakeDeployBackend
		want        *types.Receipt
		wantCalls   int32
		wantErr     string
	}{
		{
			name:        "immediately mined",
			giveBackend: &fakeDeployBackend{receipt: receipt},
			want:        receipt,
			wantCalls:   1,
		},
		{
			name: "mined after polling",
			giveBackend: &fakeDeployBackend{
				errs:    []error{ethereum.NotFound, ethereum.NotFound},
				receipt: receipt,
			},
			want:      receipt,
			wantCalls: 3,
		},
		{
			name: "transport error propagates",
			giveBackend: &fakeDeployBackend{
				errs: []error{ethereum.NotFound, errors.New("connection refused")},
			},
			wantCalls: 2,
			wantErr:   "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := WaitMinedWithInterval(t.Context(), time.Millisecond, tt.giveBackend, receipt.TxHash)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			assert.Equal(t, tt.wantCalls, tt.giveBackend.calls.Load())
		})
	}
}

func Test_WaitMinedWithInterval_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()

	backend := &fakeDeployBackend{errs: make([]error, 1_000_000)}
	for i := range backend.errs {
		backend.errs[i] = ethereum.NotFound
	}

	_, err := WaitMinedWithInterval(ctx, 5*time.Millisecond, backend, common.Hash{})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
