package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MiroslavRet/CF-RewardToken/internal/campaign"
	"github.com/MiroslavRet/CF-RewardToken/internal/cardano"
)

const sampleConfig = `
server:
  port: "9090"
  operator_routes: true
ledger:
  network: preview
platform:
  address: addr_test1vz2fxv2umyhttkxyxp8x0dlpdt3k6cwng5pxj3jhsydzerspjrlsz
  payment_key_hash: 9493315CD92EB5D8C4304E67B7E16AE36D61D34502694657811A2C8E
tokens:
  reward: THANKS
task:
  interval: 15
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.Server.OperatorRoutes)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, int64(2_000_000), cfg.Tx.Fee)
	assert.Equal(t, 15*time.Second, cfg.SyncInterval())

	network, err := cfg.Network()
	require.NoError(t, err)
	assert.Equal(t, cardano.Preview, network)

	platform, err := cfg.PlatformIdentity()
	require.NoError(t, err)
	assert.Equal(t, cardano.KeyHash("9493315cd92eb5d8c4304e67b7e16ae36d61d34502694657811a2c8e"), platform.PaymentKeyHash)

	tokens := cfg.TokenNames()
	assert.Equal(t, "STATE_TOKEN", tokens.State.Text())
	assert.Equal(t, "THANKS", tokens.Reward.Text())
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("CFS_LEDGER_API_KEY", "secret")
	t.Setenv("CFS_TX_FEE", "3000000")

	cfg, err := LoadFile(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.Ledger.APIKey)
	assert.Equal(t, int64(3_000_000), cfg.Tx.Fee)
}

func TestMissingPlatformIsPrecondition(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, "server:\n  port: \"1\"\n"))
	require.NoError(t, err)

	_, err = cfg.PlatformIdentity()
	assert.True(t, errors.Is(err, campaign.ErrPrecondition))
	assert.True(t, errors.Is(err, campaign.ErrPlatformUnset))
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
