package lifecycle

import (
	"time"

	"github.com/MiroslavRet/CF-RewardToken/internal/campaign"
	"github.com/MiroslavRet/CF-RewardToken/internal/cardano"
	"github.com/MiroslavRet/CF-RewardToken/internal/plutus"
	"github.com/MiroslavRet/CF-RewardToken/internal/tx"
)

// Cancel 把活动状态改为 Cancelled
func Cancel(env Env, snap *campaign.Snapshot, caller Caller, by campaign.Authority) (*Transition, error) {
	return changeState(env, snap, caller, by, campaign.Cancelled, campaign.SpendCancel, campaign.ActionCancel)
}

// Finish 把活动状态改为 Finished，支持输出作为引用输入
func Finish(env Env, snap *campaign.Snapshot, caller Caller, by campaign.Authority) (*Transition, error) {
	return changeState(env, snap, caller, by, campaign.Finished, campaign.SpendFinish, campaign.ActionFinish)
}

// changeState 创建者随时可以操作；平台只能在截止时间之后操作。
// 这里的授权检查只是提前失败，最终以验证器为准。
func changeState(env Env, snap *campaign.Snapshot, caller Caller, by campaign.Authority,
	to campaign.State, action campaign.SpendAction, name campaign.Action) (*Transition, error) {
	if err := requireCampaign(snap); err != nil {
		return nil, err
	}
	if !campaign.CanTransition(snap.State(), to) {
		return nil, campaign.Preconditionf(campaign.ErrInvalidState, "cannot move from %s to %s", snap.State(), to)
	}

	var (
		signer    cardano.KeyHash
		validFrom = env.Now
	)
	switch by {
	case campaign.ByPlatform:
		if caller.KeyHash() != snap.Info.Platform {
			return nil, campaign.Precondition(campaign.ErrNotPlatform)
		}
		if env.Now.IsZero() || env.Now.Before(snap.Info.View.Deadline) {
			return nil, campaign.Preconditionf(campaign.ErrBeforeDeadline, "deadline is %s", snap.Info.View.Deadline)
		}
		signer = snap.Info.Platform
	default:
		if !snap.IsCreator(caller.KeyHash()) {
			return nil, campaign.Precondition(campaign.ErrNotCreator)
		}
		signer = snap.Info.Datum.Creator.PaymentKeyHash
		validFrom = time.Time{}
	}

	t, err := restate(env, snap, to, action, signer, name)
	if err != nil {
		return nil, err
	}
	t.Plan.ValidFrom = validFrom
	if to == campaign.Finished {
		for _, b := range snap.Backers() {
			t.Plan.ReferenceInputs = append(t.Plan.ReferenceInputs, b.Output)
		}
	}
	return t, nil
}

// restate 花费状态输出并以新状态重新锁定同一个状态代币
func restate(env Env, snap *campaign.Snapshot, to campaign.State, redeemer campaign.SpendRedeemer,
	signer cardano.KeyHash, name campaign.Action) (*Transition, error) {
	datum := snap.Info.Datum.WithState(to)
	datumData, err := datum.ToData()
	if err != nil {
		return nil, err
	}
	datumRaw, err := plutus.Encode(datumData)
	if err != nil {
		return nil, err
	}
	r, err := redeemer.ToData()
	if err != nil {
		return nil, err
	}

	value := snap.StateOutput.Value.Clone()
	plan := &tx.Plan{
		ScriptInputs: []tx.ScriptInput{{UTxO: snap.StateOutput, Redeemer: r}},
	}
	idx := plan.Pay(snap.Info.Address, value, datumData)
	plan.AttachScript(snap.Info.Validator)
	plan.AddSigner(signer)

	return &Transition{
		Action: name,
		Plan:   plan,
		commit: func(h cardano.TxHash) Outcome {
			return Outcome{Snapshot: snap.WithState(to, scriptOutput(snap, h, idx, value, datumRaw), env.Now)}
		},
	}, nil
}
