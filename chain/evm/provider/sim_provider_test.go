package provider

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_NewSimChain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		giveConfig     SimConfig
		wantUsers      int
		wantMinedBlock bool // Indicates whether a block should be mined automatically after initialization.
	}{
		{
			name:       "with additional accounts",
			giveConfig: SimConfig{NumAdditionalAccounts: 2},
			wantUsers:  2,
		},
		{
			name:           "with automated block mining",
			giveConfig:     SimConfig{BlockTime: 10 * time.Millisecond},
			wantMinedBlock: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sc := NewSimChain(t, tt.giveConfig)
			require.NotNil(t, sc.Provider)
			assert.Len(t, sc.Users, tt.wantUsers)
			assert.NotEmpty(t, sc.Deployer.PrivateKey)

			chainID, err := sc.Client.ChainID(t.Context())
			require.NoError(t, err)
			assert.Equal(t, simChainID, chainID)

			for _, acc := range append([]SimAccount{sc.Deployer}, sc.Users...) {
				bal, err := sc.GetBalance(t.Context(), acc.Address.Hex())
				require.NoError(t, err)
				assert.Equal(t, prefundAmountWei.String(), bal.Balance)
			}

			if tt.wantMinedBlock {
				require.Eventually(t, func() bool {
					n, err := sc.Client.BlockNumber(t.Context())
					return err == nil && n > 1
				}, 5*time.Second, 10*time.Millisecond)
			}
		})
	}
}

func Test_NewSimChain_BlockTime(t *testing.T) {
	t.Parallel()

	// Transactions are included by the miner instead of on submission
	sc := NewSimChain(t, SimConfig{BlockTime: 20 * time.Millisecond},
		WithCompiler(ageCompiler(t)),
	)

	got := deployAge(t, sc.Provider, sc.Deployer.PrivateKey, 7)
	assert.NotEmpty(t, got.Address)
}
