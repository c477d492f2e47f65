package logic_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MiroslavRet/CF-RewardToken/internal/campaign"
	ct "github.com/MiroslavRet/CF-RewardToken/internal/campaign/campaigntest"
	"github.com/MiroslavRet/CF-RewardToken/internal/cardano"
	"github.com/MiroslavRet/CF-RewardToken/internal/logic"
)

func TestOperatorForceRefundReturnsEveryBacker(t *testing.T) {
	f := newFixture(t, beforeDeadline())
	policy := f.publish(t, ct.New(t).
		Back(ct.Creds(ct.AliceKeyHash), cardano.ADA(10)).
		Back(ct.Creds(ct.BobKeyHash), cardano.ADA(5)))

	op := logic.NewOperatorLogic(f.logic(t, walletOf(ct.Creds(ct.PlatformKeyHash), cardano.ADA(50))))
	out, err := op.ForceRefund(context.Background(), policy)
	require.NoError(t, err)
	assert.Equal(t, campaign.ActionForceRefund, out.Action)
	assert.Empty(t, out.Snapshot.Backers())
	assert.Len(t, out.Settlements, 2)

	total, err := f.records.GetSettledTotal(string(policy))
	require.NoError(t, err)
	assert.Equal(t, cardano.ADA(15), total)
}

func TestOperatorRerunRestoresRunning(t *testing.T) {
	f := newFixture(t, afterDeadline())
	policy := f.publish(t, ct.New(t).WithState(campaign.Cancelled))

	op := logic.NewOperatorLogic(f.logic(t, walletOf(ct.Creds(ct.PlatformKeyHash), cardano.ADA(50))))
	out, err := op.Rerun(context.Background(), policy, nil)
	require.NoError(t, err)
	assert.Equal(t, campaign.Running, out.Snapshot.State())
}

func TestOperatorClaimUnknownOutput(t *testing.T) {
	f := newFixture(t, beforeDeadline())
	policy := f.publish(t, ct.New(t).Orphan(cardano.ADA(3)))

	op := logic.NewOperatorLogic(f.logic(t, walletOf(ct.Creds(ct.PlatformKeyHash), cardano.ADA(50))))
	_, err := op.Claim(context.Background(), policy, cardano.OutRef{TxHash: ct.TxHash(0x999), Index: 4})
	assert.ErrorIs(t, err, campaign.ErrOutputMissing)
	assert.ErrorIs(t, err, campaign.ErrLookup)
	assert.Equal(t, 0, f.ledger.SubmitCount())
}
