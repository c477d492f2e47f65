package lifecycle_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MiroslavRet/CF-RewardToken/internal/campaign"
	ct "github.com/MiroslavRet/CF-RewardToken/internal/campaign/campaigntest"
	"github.com/MiroslavRet/CF-RewardToken/internal/cardano"
	"github.com/MiroslavRet/CF-RewardToken/internal/lifecycle"
	"github.com/MiroslavRet/CF-RewardToken/internal/plutus"
	"github.com/MiroslavRet/CF-RewardToken/internal/tx"
)

var submitted = ct.TxHash(0xabc)

func testEnv(now time.Time) lifecycle.Env {
	return lifecycle.Env{
		Network:   ct.Network,
		Tokens:    campaign.DefaultTokens(),
		Platform:  ct.Platform(),
		Now:       now,
		MinOutput: cardano.ADA(2),
	}
}

func callerOf(pkh cardano.KeyHash) lifecycle.Caller {
	c := ct.Creds(pkh)
	return lifecycle.Caller{Address: ct.AddressOf(c), Credentials: c}
}

func creatorCaller(b *ct.Builder) lifecycle.Caller {
	return lifecycle.Caller{Address: ct.AddressOf(b.Datum.Creator), Credentials: b.Datum.Creator}
}

func afterDeadline() time.Time  { return ct.Deadline.Add(time.Hour) }
func beforeDeadline() time.Time { return ct.Deadline.Add(-2 * time.Hour) }

func hexOf(t *testing.T, d plutus.Data) string {
	t.Helper()
	s, err := plutus.EncodeHex(d)
	require.NoError(t, err)
	return s
}

func completeWith(t *testing.T, plan *tx.Plan, payer cardano.KeyHash) *tx.Unsigned {
	t.Helper()
	c := ct.Creds(payer)
	funding := tx.Funding{
		ChangeAddress: c.Address(ct.Network),
		UTxOs: []cardano.UTxO{
			ct.WalletUTxO(1, c, cardano.ADA(50)),
			ct.WalletUTxO(2, c, cardano.ADA(10)),
		},
	}
	params := tx.Params{
		Network:     ct.Network,
		Fee:         cardano.ADA(2),
		MinOutput:   cardano.ADA(2),
		Collateral:  cardano.ADA(5),
		SpendBudget: tx.ExUnits{Memory: 7_000_000, Steps: 3_000_000_000},
		MintBudget:  tx.ExUnits{Memory: 7_000_000, Steps: 3_000_000_000},
		CostModels:  map[plutus.Language][]int64{plutus.PlutusV3: {1, 2, 3}},
	}
	u, err := tx.Complete(plan, funding, params)
	require.NoError(t, err)
	return u
}

func TestCreateMintsStateTokenAtDerivedAddress(t *testing.T) {
	env := testEnv(ct.Deadline.Add(-48 * time.Hour))
	caller := creatorCaller(ct.New(t))
	wallet := []cardano.UTxO{
		ct.WalletUTxO(1, caller.Credentials, cardano.ADA(300)),
		ct.WalletUTxO(2, caller.Credentials, cardano.ADA(20)),
	}
	p := lifecycle.CreateParams{Name: "Solar Roof", Goal: cardano.ADA(100), Deadline: ct.Deadline}

	tr, err := lifecycle.Create(env, ct.BaseScript(t), caller, wallet, p)
	require.NoError(t, err)

	plan := tr.Plan
	require.Len(t, plan.WalletInputs, 1)
	require.Len(t, plan.Outputs, 1)
	require.Len(t, plan.Mints, 1)
	assert.Equal(t, []cardano.KeyHash{caller.KeyHash()}, plan.RequiredSigners)
	assert.Contains(t, plan.Metadata, campaign.MetadataLabel)

	id, err := campaign.DeriveIdentity(ct.BaseScript(t), ct.Network, ct.PlatformKeyHash, caller.KeyHash(), plan.WalletInputs[0].OutRef)
	require.NoError(t, err)
	units := id.Units(env.Tokens)
	assert.Equal(t, id.Address, plan.Outputs[0].Address)
	assert.Equal(t, int64(1), plan.Outputs[0].Value.Quantity(units.State))
	assert.Equal(t, int64(1), plan.MintQuantity(units.State))

	out := tr.Commit(submitted)
	assert.Equal(t, campaign.ActionCreate, out.Action)
	assert.Equal(t, submitted, out.TxHash)
	require.NotNil(t, out.Snapshot)
	assert.Equal(t, campaign.Optimistic, out.Snapshot.Freshness)
	assert.Equal(t, id.PolicyID, out.Snapshot.PolicyID())
	assert.Equal(t, cardano.OutRef{TxHash: submitted, Index: 0}, out.Snapshot.StateOutput.OutRef)
	assert.Equal(t, campaign.Running, out.Snapshot.State())
	assert.Empty(t, out.Snapshot.Backers())

	decoded, err := campaign.DecodeCampaignDatum(out.Snapshot.StateOutput.Datum)
	require.NoError(t, err)
	assert.Equal(t, out.Snapshot.Info.Datum, decoded)
}

func TestCreateRejectsBadParams(t *testing.T) {
	env := testEnv(ct.Deadline.Add(-48 * time.Hour))
	caller := creatorCaller(ct.New(t))
	wallet := []cardano.UTxO{ct.WalletUTxO(1, caller.Credentials, cardano.ADA(30))}

	cases := map[string]struct {
		params lifecycle.CreateParams
		reason error
	}{
		"blank name":    {lifecycle.CreateParams{Name: "  ", Goal: 1, Deadline: ct.Deadline}, campaign.ErrInvalidName},
		"zero goal":     {lifecycle.CreateParams{Name: "x", Goal: 0, Deadline: ct.Deadline}, campaign.ErrInvalidGoal},
		"past deadline": {lifecycle.CreateParams{Name: "x", Goal: 1, Deadline: env.Now.Add(-time.Minute)}, campaign.ErrInvalidDeadline},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := lifecycle.Create(env, ct.BaseScript(t), caller, wallet, tc.params)
			assert.True(t, errors.Is(err, campaign.ErrPrecondition))
			assert.True(t, errors.Is(err, tc.reason))
		})
	}

	_, err := lifecycle.Create(env, ct.BaseScript(t), caller, nil, lifecycle.CreateParams{Name: "x", Goal: 1, Deadline: ct.Deadline})
	assert.True(t, errors.Is(err, campaign.ErrEmptyWallet))

	noPlatform := env
	noPlatform.Platform = campaign.Platform{}
	_, err = lifecycle.Create(noPlatform, ct.BaseScript(t), caller, wallet, lifecycle.CreateParams{Name: "x", Goal: 1, Deadline: ct.Deadline})
	assert.True(t, errors.Is(err, campaign.ErrPlatformUnset))
}

func TestSupportConservesAmount(t *testing.T) {
	b := ct.New(t).Back(ct.Creds(ct.BobKeyHash), cardano.ADA(5))
	snap := b.Snapshot()
	alice := callerOf(ct.AliceKeyHash)

	tr, err := lifecycle.Support(testEnv(beforeDeadline()), snap, alice, cardano.ADA(10))
	require.NoError(t, err)

	require.Len(t, tr.Plan.Outputs, 1)
	out := tr.Plan.Outputs[0]
	assert.Equal(t, b.ID.Address, out.Address)
	assert.Equal(t, cardano.ADA(10), out.Value.Lovelace)
	assert.Equal(t, int64(1), out.Value.Quantity(b.Units().Support))
	assert.Equal(t, int64(1), tr.Plan.MintQuantity(b.Units().Support))
	assert.Equal(t, []cardano.UTxO{snap.StateOutput}, tr.Plan.ReferenceInputs)

	u := completeWith(t, tr.Plan, ct.AliceKeyHash)
	assert.Equal(t, cardano.ADA(10), u.Outputs[0].Value.Lovelace, "contribution is not topped up")

	next := tr.Commit(submitted).Snapshot
	assert.Equal(t, cardano.ADA(15), next.Support())
	require.Len(t, next.Backers(), 2)
	added := next.Backers()[1]
	assert.Equal(t, alice.Address, added.Address)
	assert.Equal(t, cardano.OutRef{TxHash: submitted, Index: 0}, added.Source())

	assert.Equal(t, cardano.ADA(5), snap.Support(), "input snapshot is untouched")
}

func TestSupportPreconditions(t *testing.T) {
	env := testEnv(beforeDeadline())
	alice := callerOf(ct.AliceKeyHash)

	_, err := lifecycle.Support(env, nil, alice, cardano.ADA(10))
	assert.True(t, errors.Is(err, campaign.ErrNoCampaign))

	_, err = lifecycle.Support(env, ct.New(t).Snapshot(), alice, cardano.ADA(1))
	assert.True(t, errors.Is(err, campaign.ErrInvalidAmount))

	_, err = lifecycle.Support(env, ct.New(t).WithState(campaign.Cancelled).Snapshot(), alice, cardano.ADA(10))
	assert.True(t, errors.Is(err, campaign.ErrInvalidState))

	_, err = lifecycle.Support(env, ct.New(t).Snapshot(), lifecycle.Caller{}, cardano.ADA(10))
	assert.True(t, errors.Is(err, campaign.ErrNoAddress))
}

func TestPlatformCancelBeforeDeadlineFails(t *testing.T) {
	snap := ct.New(t).Back(ct.Creds(ct.AliceKeyHash), cardano.ADA(10)).Snapshot()

	tr, err := lifecycle.Cancel(testEnv(beforeDeadline()), snap, callerOf(ct.PlatformKeyHash), campaign.ByPlatform)
	assert.Nil(t, tr)
	assert.True(t, errors.Is(err, campaign.ErrPrecondition))
	assert.True(t, errors.Is(err, campaign.ErrBeforeDeadline))
}

func TestCancelByCreatorAndPlatform(t *testing.T) {
	b := ct.New(t)
	snap := b.Snapshot()

	tr, err := lifecycle.Cancel(testEnv(beforeDeadline()), snap, creatorCaller(b), campaign.ByCreator)
	require.NoError(t, err)
	assert.True(t, tr.Plan.ValidFrom.IsZero())
	assert.Equal(t, []cardano.KeyHash{ct.CreatorKeyHash}, tr.Plan.RequiredSigners)
	require.Len(t, tr.Plan.ScriptInputs, 1)
	assert.Equal(t, snap.StateOutput.OutRef, tr.Plan.ScriptInputs[0].UTxO.OutRef)
	require.Len(t, tr.Plan.Outputs, 1)
	assert.Equal(t, int64(1), tr.Plan.Outputs[0].Value.Quantity(b.Units().State))

	next := tr.Commit(submitted).Snapshot
	assert.Equal(t, campaign.Cancelled, next.State())
	assert.Equal(t, cardano.OutRef{TxHash: submitted, Index: 0}, next.StateOutput.OutRef)
	datum, err := campaign.DecodeCampaignDatum(next.StateOutput.Datum)
	require.NoError(t, err)
	assert.Equal(t, campaign.Cancelled, datum.State)

	env := testEnv(afterDeadline())
	tr, err = lifecycle.Cancel(env, snap, callerOf(ct.PlatformKeyHash), campaign.ByPlatform)
	require.NoError(t, err)
	assert.Equal(t, env.Now, tr.Plan.ValidFrom)
	assert.Equal(t, []cardano.KeyHash{ct.PlatformKeyHash}, tr.Plan.RequiredSigners)

	_, err = lifecycle.Cancel(env, snap, callerOf(ct.AliceKeyHash), campaign.ByCreator)
	assert.True(t, errors.Is(err, campaign.ErrNotCreator))
	_, err = lifecycle.Cancel(env, snap, callerOf(ct.AliceKeyHash), campaign.ByPlatform)
	assert.True(t, errors.Is(err, campaign.ErrNotPlatform))

	_, err = lifecycle.Cancel(env, ct.New(t).WithState(campaign.Finished).Snapshot(), creatorCaller(b), campaign.ByCreator)
	assert.True(t, errors.Is(err, campaign.ErrInvalidState))
}

func TestFinishReferencesBackerOutputs(t *testing.T) {
	b := ct.New(t).
		Back(ct.Creds(ct.AliceKeyHash), cardano.ADA(10)).
		Back(ct.Creds(ct.BobKeyHash), cardano.ADA(20))
	snap := b.Snapshot()

	tr, err := lifecycle.Finish(testEnv(afterDeadline()), snap, creatorCaller(b), campaign.ByCreator)
	require.NoError(t, err)
	assert.Len(t, tr.Plan.ReferenceInputs, 2)

	next := tr.Commit(submitted).Snapshot
	assert.Equal(t, campaign.Finished, next.State())
	assert.Equal(t, cardano.ADA(30), next.Support(), "backers stay until collected")
}

func TestRefundNothingToRefund(t *testing.T) {
	snap := ct.New(t).WithState(campaign.Cancelled).Snapshot()

	tr, err := lifecycle.Refund(testEnv(afterDeadline()), snap, callerOf(ct.AliceKeyHash), campaign.ScopeSelf)
	assert.Nil(t, tr)
	require.Error(t, err)
	assert.True(t, errors.Is(err, campaign.ErrNothingToRefund))
	assert.Contains(t, err.Error(), "nothing to refund")
}

func TestRefundSelfReturnsOnlyCallerOutputs(t *testing.T) {
	b := ct.New(t).
		WithState(campaign.Cancelled).
		Back(ct.Creds(ct.AliceKeyHash), cardano.ADA(10)).
		Back(ct.Creds(ct.BobKeyHash), cardano.ADA(20)).
		Back(ct.Creds(ct.AliceKeyHash), cardano.ADA(3))
	snap := b.Snapshot()
	alice := callerOf(ct.AliceKeyHash)

	tr, err := lifecycle.Refund(testEnv(afterDeadline()), snap, alice, campaign.ScopeSelf)
	require.NoError(t, err)
	assert.Len(t, tr.Plan.ScriptInputs, 2)
	require.Len(t, tr.Plan.Outputs, 2)
	for _, o := range tr.Plan.Outputs {
		assert.Equal(t, alice.Address, o.Address.String())
	}
	assert.Equal(t, []cardano.KeyHash{ct.AliceKeyHash}, tr.Plan.RequiredSigners)
	assert.Equal(t, []cardano.UTxO{snap.StateOutput}, tr.Plan.ReferenceInputs)

	out := tr.Commit(submitted)
	assert.Equal(t, cardano.ADA(20), out.Snapshot.Support())
	require.Len(t, out.Settlements, 2)
	assert.Equal(t, cardano.ADA(10), out.Settlements[0].Lovelace)
	assert.Equal(t, "3.000000", out.Settlements[1].ADA)

	_, err = lifecycle.Refund(testEnv(afterDeadline()), snap, callerOf(ct.CarolKeyHash), campaign.ScopeSelf)
	assert.True(t, errors.Is(err, campaign.ErrNothingToRefund))

	_, err = lifecycle.Refund(testEnv(afterDeadline()), ct.New(t).WithState(campaign.Finished).Back(ct.Creds(ct.AliceKeyHash), cardano.ADA(10)).Snapshot(), alice, campaign.ScopeSelf)
	assert.True(t, errors.Is(err, campaign.ErrInvalidState))
}

func TestCollectPaysCreator(t *testing.T) {
	b := ct.New(t).
		WithState(campaign.Finished).
		Back(ct.Creds(ct.AliceKeyHash), cardano.ADA(10)).
		Back(ct.Creds(ct.BobKeyHash), cardano.ADA(20))
	snap := b.Snapshot()

	tr, err := lifecycle.Collect(testEnv(afterDeadline()), snap, callerOf(ct.PlatformKeyHash), campaign.ScopePlatform)
	require.NoError(t, err)
	require.Len(t, tr.Plan.Outputs, 1)
	assert.Equal(t, b.Datum.Creator.Address(ct.Network), tr.Plan.Outputs[0].Address)
	assert.Equal(t, cardano.ADA(30), tr.Plan.Outputs[0].Value.Lovelace)
	assert.Equal(t, int64(2), tr.Plan.Outputs[0].Value.Quantity(b.Units().Support))

	out := tr.Commit(submitted)
	assert.Empty(t, out.Snapshot.Backers())
	require.Len(t, out.Settlements, 1)
	assert.Equal(t, cardano.ADA(30), out.Settlements[0].Lovelace)

	_, err = lifecycle.Collect(testEnv(afterDeadline()), snap, callerOf(ct.AliceKeyHash), campaign.ScopePlatform)
	assert.True(t, errors.Is(err, campaign.ErrNotPlatform))

	_, err = lifecycle.Collect(testEnv(afterDeadline()), ct.New(t).WithState(campaign.Finished).Snapshot(), callerOf(ct.PlatformKeyHash), campaign.ScopePlatform)
	assert.True(t, errors.Is(err, campaign.ErrNothingToCollect))
}

func TestCollectAndRewardPlatformScope(t *testing.T) {
	b := ct.New(t).
		WithState(campaign.Finished).
		Back(ct.Creds(ct.AliceKeyHash), cardano.ADA(10)).
		Back(ct.Creds(ct.BobKeyHash), cardano.ADA(10)).
		Back(ct.Creds(ct.CarolKeyHash), cardano.ADA(10))
	snap := b.Snapshot()
	units := b.Units()

	tr, err := lifecycle.CollectAndReward(testEnv(afterDeadline()), snap, callerOf(ct.PlatformKeyHash), campaign.ScopePlatform)
	require.NoError(t, err)

	plan := tr.Plan
	assert.Equal(t, int64(-3), plan.MintQuantity(units.Support))
	assert.Equal(t, int64(3), plan.MintQuantity(units.Reward))
	require.Len(t, plan.Outputs, 4)
	creator := plan.Outputs[0]
	assert.Equal(t, b.Datum.Creator.Address(ct.Network), creator.Address)
	assert.Equal(t, cardano.ADA(30), creator.Value.Lovelace)
	assert.False(t, creator.Value.HasAssets())
	for i, o := range plan.Outputs[1:] {
		assert.Equal(t, int64(1), o.Value.Quantity(units.Reward), "reward output %d", i)
	}
	assert.Contains(t, plan.Metadata, campaign.MetadataLabel)

	assert.Equal(t, "d87b80", hexOf(t, plan.Mints[0].Redeemer), "platform scope finishes every backer")

	u := completeWith(t, plan, ct.PlatformKeyHash)
	assert.NotEmpty(t, u.Hash)

	out := tr.Commit(submitted)
	assert.Empty(t, out.Snapshot.Backers())
	assert.Equal(t, cardano.Lovelace(0), out.Snapshot.Support())
	require.NotNil(t, out.Burned)
	require.NotNil(t, out.Minted)
	assert.Equal(t, out.Burned.Quantity, out.Minted.Quantity)
	assert.Equal(t, int64(3), out.Minted.Quantity)
	assert.Len(t, out.Minted.Recipients, 3)
	require.Len(t, out.Settlements, 1)
	assert.Equal(t, cardano.ADA(30), out.Settlements[0].Lovelace)
}

func TestCollectAndRewardSelfScope(t *testing.T) {
	b := ct.New(t).
		WithState(campaign.Finished).
		Back(ct.Creds(ct.AliceKeyHash), cardano.ADA(10)).
		Back(ct.Creds(ct.BobKeyHash), cardano.ADA(10)).
		Back(ct.Creds(ct.AliceKeyHash), cardano.ADA(4))
	snap := b.Snapshot()
	alice := callerOf(ct.AliceKeyHash)

	tr, err := lifecycle.CollectAndReward(testEnv(afterDeadline()), snap, alice, campaign.ScopeSelf)
	require.NoError(t, err)
	assert.Equal(t, int64(-2), tr.Plan.MintQuantity(b.Units().Support))
	assert.Equal(t, int64(2), tr.Plan.MintQuantity(b.Units().Reward))
	assert.Equal(t, []cardano.KeyHash{ct.AliceKeyHash}, tr.Plan.RequiredSigners)

	expected, err := campaign.MintFinish{Backer: &alice.Credentials}.ToData()
	require.NoError(t, err)
	assert.True(t, plutus.Equal(expected, tr.Plan.Mints[0].Redeemer))

	out := tr.Commit(submitted)
	require.Len(t, out.Snapshot.Backers(), 1)
	assert.Equal(t, ct.AddressOf(ct.Creds(ct.BobKeyHash)), out.Snapshot.Backers()[0].Address)
}

func TestCollectAndRewardWithoutSupportTokens(t *testing.T) {
	snap := ct.New(t).WithState(campaign.Finished).BackWithoutToken(ct.Creds(ct.AliceKeyHash), cardano.ADA(10)).Snapshot()

	_, err := lifecycle.CollectAndReward(testEnv(afterDeadline()), snap, callerOf(ct.PlatformKeyHash), campaign.ScopePlatform)
	assert.True(t, errors.Is(err, campaign.ErrNothingToBurn))
}

func TestFinishMintBurnSelfLocatesFreshOutputs(t *testing.T) {
	b := ct.New(t).
		WithState(campaign.Finished).
		Back(ct.Creds(ct.AliceKeyHash), cardano.ADA(10)).
		Back(ct.Creds(ct.BobKeyHash), cardano.ADA(10))
	snap := b.Snapshot()
	fresh := b.Outputs()
	alice := callerOf(ct.AliceKeyHash)
	env := testEnv(afterDeadline())

	tr, err := lifecycle.FinishMintBurn(env, snap, alice, campaign.ScopeSelf, fresh)
	require.NoError(t, err)
	require.Len(t, tr.Plan.ScriptInputs, 1)
	assert.Equal(t, fresh[1].OutRef, tr.Plan.ScriptInputs[0].UTxO.OutRef)
	assert.Equal(t, int64(-1), tr.Plan.MintQuantity(b.Units().Support))
	assert.Equal(t, int64(1), tr.Plan.MintQuantity(b.Units().Reward))
	assert.Equal(t, campaign.ActionFinishMintBurn, tr.Commit(submitted).Action)

	_, err = lifecycle.FinishMintBurn(env, snap, callerOf(ct.CarolKeyHash), campaign.ScopeSelf, fresh)
	assert.True(t, errors.Is(err, campaign.ErrLookup))
	assert.True(t, errors.Is(err, campaign.ErrBackerOutputMissing))

	tr, err = lifecycle.FinishMintBurn(env, snap, callerOf(ct.PlatformKeyHash), campaign.ScopePlatform, nil)
	require.NoError(t, err)
	assert.Len(t, tr.Plan.ScriptInputs, 2)
}

func TestClaimOrphanOutputs(t *testing.T) {
	b := ct.New(t).Back(ct.Creds(ct.AliceKeyHash), cardano.ADA(10)).Orphan(cardano.ADA(2)).Garbage(cardano.ADA(3))
	snap := b.Snapshot()
	creator := creatorCaller(b)
	env := testEnv(beforeDeadline())

	tr, err := lifecycle.ClaimOrphanOutputs(env, snap, creator, nil)
	require.NoError(t, err)
	assert.Len(t, tr.Plan.ScriptInputs, 2)
	assert.Empty(t, tr.Plan.Outputs, "claimed value returns as change")
	out := tr.Commit(submitted)
	assert.Empty(t, out.Snapshot.Orphans())
	assert.Equal(t, cardano.ADA(5), out.Settlements[0].Lovelace)

	target := snap.Orphans()[1].OutRef
	tr, err = lifecycle.ClaimOrphanOutputs(env, snap, creator, &target)
	require.NoError(t, err)
	require.Len(t, tr.Plan.ScriptInputs, 1)
	assert.Equal(t, target, tr.Plan.ScriptInputs[0].UTxO.OutRef)

	missing := cardano.OutRef{TxHash: ct.TxHash(0x999), Index: 4}
	_, err = lifecycle.ClaimOrphanOutputs(env, snap, creator, &missing)
	assert.True(t, errors.Is(err, campaign.ErrOutputMissing))

	_, err = lifecycle.ClaimOrphanOutputs(env, snap, callerOf(ct.AliceKeyHash), nil)
	assert.True(t, errors.Is(err, campaign.ErrNotCreator))

	_, err = lifecycle.ClaimOrphanOutputs(env, ct.New(t).Snapshot(), creator, nil)
	assert.True(t, errors.Is(err, campaign.ErrNoOrphans))
}

func TestOperatorActions(t *testing.T) {
	b := ct.New(t).
		WithState(campaign.Cancelled).
		Back(ct.Creds(ct.AliceKeyHash), cardano.ADA(10)).
		Back(ct.Creds(ct.BobKeyHash), cardano.ADA(5))
	snap := b.Snapshot()
	op := lifecycle.NewOperator(testEnv(beforeDeadline()))

	tr, err := op.Rerun(snap, ct.PlatformKeyHash, nil)
	require.NoError(t, err)
	assert.Equal(t, "d87c80", hexOf(t, tr.Plan.ScriptInputs[0].Redeemer))
	assert.Equal(t, campaign.Running, tr.Commit(submitted).Snapshot.State())

	tag := uint64(5)
	tr, err = op.Rerun(snap, ct.PlatformKeyHash, &tag)
	require.NoError(t, err)
	assert.Equal(t, "d87e80", hexOf(t, tr.Plan.ScriptInputs[0].Redeemer))

	tr, err = op.ForceFinish(snap, ct.PlatformKeyHash)
	require.NoError(t, err)
	assert.Len(t, tr.Plan.ScriptInputs, 3)
	require.Len(t, tr.Plan.Outputs, 2)
	assert.Equal(t, cardano.ADA(15), tr.Plan.Outputs[1].Value.Lovelace)
	out := tr.Commit(submitted)
	assert.Equal(t, campaign.Finished, out.Snapshot.State())
	assert.Empty(t, out.Snapshot.Backers())
	assert.Equal(t, cardano.ADA(15), out.Settlements[0].Lovelace)

	tr, err = op.ForceRefund(snap, ct.PlatformKeyHash)
	require.NoError(t, err)
	assert.Len(t, tr.Plan.Outputs, 2)
	assert.Len(t, tr.Commit(submitted).Settlements, 2)

	tr, err = op.ForceCancel(ct.New(t).Snapshot(), ct.PlatformKeyHash)
	require.NoError(t, err)
	assert.Equal(t, campaign.Cancelled, tr.Commit(submitted).Snapshot.State())

	_, err = op.Claim(snap, callerOf(ct.PlatformKeyHash), snap.StateOutput)
	assert.True(t, errors.Is(err, campaign.ErrInvalidState))

	tr, err = op.Claim(snap, callerOf(ct.PlatformKeyHash), snap.Backers()[0].Output)
	require.NoError(t, err)
	out = tr.Commit(submitted)
	assert.Len(t, out.Snapshot.Backers(), 1)
	assert.Equal(t, campaign.ActionClaimOutput, out.Action)
}
