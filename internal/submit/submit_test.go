package submit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MiroslavRet/CF-RewardToken/internal/cardano"
	"github.com/MiroslavRet/CF-RewardToken/internal/ledger/ledgertest"
	"github.com/MiroslavRet/CF-RewardToken/internal/tx"
	"github.com/MiroslavRet/CF-RewardToken/internal/wallet"
)

const seed = "9d61b19deffd5a60ba844af492ec2cc44449c5697b326919703bac031cae7f60"

func unsignedFor(t *testing.T, h wallet.Handle, l *ledgertest.Ledger) *tx.Unsigned {
	t.Helper()
	utxo := cardano.UTxO{
		OutRef:  cardano.OutRef{TxHash: "0000000000000000000000000000000000000000000000000000000000000001"},
		Address: h.Connection().Address,
		Value:   cardano.NewValue(cardano.ADA(10)),
	}
	l.Put(utxo.Address, utxo)
	plan := &tx.Plan{}
	plan.Pay(h.ChangeAddress(), cardano.NewValue(cardano.ADA(3)), nil)
	u, err := tx.Complete(plan, tx.Funding{ChangeAddress: h.ChangeAddress(), UTxOs: []cardano.UTxO{utxo}},
		tx.Params{Network: cardano.Preprod, Fee: 200_000, MinOutput: cardano.ADA(1)})
	require.NoError(t, err)
	return u
}

func TestSubmitSignsAndReturnsComputedHash(t *testing.T) {
	l := ledgertest.New(time.Now())
	w, err := wallet.NewKeyWallet(cardano.Preprod, seed, "", l)
	require.NoError(t, err)
	u := unsignedFor(t, w, l)

	h, err := NewLedgerSubmitter(l).Submit(context.Background(), w, u)
	require.NoError(t, err)
	assert.Equal(t, u.Hash, h)
	assert.Equal(t, 1, l.SubmitCount())

	l.NextHash = "ff"
	h, err = NewLedgerSubmitter(l).Submit(context.Background(), w, u)
	require.NoError(t, err)
	assert.Equal(t, u.Hash, h)
}

func TestSubmitPassesBackendError(t *testing.T) {
	l := ledgertest.New(time.Now())
	w, err := wallet.NewKeyWallet(cardano.Preprod, seed, "", l)
	require.NoError(t, err)
	u := unsignedFor(t, w, l)

	boom := errors.New("mempool full")
	l.SubmitErr = boom
	_, err = NewLedgerSubmitter(l).Submit(context.Background(), w, u)
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, 0, l.SubmitCount())
}
