package lifecycle

import (
	"github.com/MiroslavRet/CF-RewardToken/internal/campaign"
	"github.com/MiroslavRet/CF-RewardToken/internal/cardano"
)

// DefaultRerunTag 重启活动时默认使用的 redeemer 构造子
const DefaultRerunTag uint64 = 3

// Operator 运维特权动作：不做状态机与截止时间检查，交给验证器判定。
// 与普通动作分开，只有单独开启的运维入口可以调用。
type Operator struct {
	env Env
}

// NewOperator 创建运维动作构建器
func NewOperator(env Env) *Operator {
	return &Operator{env: env}
}

// Rerun 把活动状态改回 Running；tag 为空时使用 DefaultRerunTag
func (o *Operator) Rerun(snap *campaign.Snapshot, signer cardano.KeyHash, tag *uint64) (*Transition, error) {
	if err := requireCampaign(snap); err != nil {
		return nil, err
	}
	r := campaign.SpendRerun{Tag: DefaultRerunTag}
	if tag != nil {
		r.Tag = *tag
	}
	return restate(o.env, snap, campaign.Running, r, signer, campaign.ActionRerun)
}

// ForceCancel 跳过截止时间与授权检查直接取消
func (o *Operator) ForceCancel(snap *campaign.Snapshot, signer cardano.KeyHash) (*Transition, error) {
	if err := requireCampaign(snap); err != nil {
		return nil, err
	}
	t, err := restate(o.env, snap, campaign.Cancelled, campaign.SpendCancel, signer, campaign.ActionForceCancel)
	if err != nil {
		return nil, err
	}
	t.Plan.ValidFrom = o.env.Now
	return t, nil
}

// ForceFinish 结束活动并在同一笔交易里把全部支持输出收给创建者
func (o *Operator) ForceFinish(snap *campaign.Snapshot, signer cardano.KeyHash) (*Transition, error) {
	if err := requireCampaign(snap); err != nil {
		return nil, err
	}
	t, err := restate(o.env, snap, campaign.Finished, campaign.SpendFinish, signer, campaign.ActionForceFinish)
	if err != nil {
		return nil, err
	}
	backers := snap.Backers()
	if len(backers) == 0 {
		return t, nil
	}

	r, err := campaign.SpendFinish.ToData()
	if err != nil {
		return nil, err
	}
	var total cardano.Value
	for _, b := range backers {
		t.Plan.ScriptInputs = append(t.Plan.ScriptInputs, scriptInput(b.Output, r))
		total = total.Add(b.Output.Value)
	}
	creator := snap.Info.Datum.Creator.Address(o.env.Network)
	t.Plan.Pay(creator, total, nil)

	finish := t.commit
	t.commit = func(h cardano.TxHash) Outcome {
		out := finish(h)
		out.Snapshot = out.Snapshot.WithoutBackers(backers, o.env.Now)
		out.Settlements = []campaign.SettlementReceipt{campaign.NewSettlementReceipt(h, creator.String(), campaign.Settle(backers))}
		return out
	}
	return t, nil
}

// ForceRefund 不论状态把全部支持输出退回给各自的支持者
func (o *Operator) ForceRefund(snap *campaign.Snapshot, signer cardano.KeyHash) (*Transition, error) {
	if err := requireCampaign(snap); err != nil {
		return nil, err
	}
	backers := snap.Backers()
	if campaign.Settle(backers) <= 0 {
		return nil, campaign.Precondition(campaign.ErrNothingToRefund)
	}
	plan, err := consume(snap, backers, campaign.SpendRefund)
	if err != nil {
		return nil, err
	}
	for _, b := range backers {
		plan.Pay(b.Credentials.Address(o.env.Network), b.Output.Value.Clone(), nil)
	}
	plan.AddSigner(signer)

	return &Transition{
		Action: campaign.ActionForceRefund,
		Plan:   plan,
		commit: func(h cardano.TxHash) Outcome {
			receipts := make([]campaign.SettlementReceipt, 0, len(backers))
			for _, b := range backers {
				receipts = append(receipts, campaign.NewSettlementReceipt(h, b.Address, b.Contributed.Lovelace))
			}
			return Outcome{Snapshot: snap.WithoutBackers(backers, o.env.Now), Settlements: receipts}
		},
	}, nil
}

// Claim 用空 redeemer 花费活动地址上的任意输出
func (o *Operator) Claim(snap *campaign.Snapshot, caller Caller, u cardano.UTxO) (*Transition, error) {
	if err := requireCampaign(snap); err != nil {
		return nil, err
	}
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if u.OutRef == snap.StateOutput.OutRef {
		return nil, campaign.Preconditionf(campaign.ErrInvalidState, "%s holds the state token", u.OutRef)
	}
	t, err := claim(o.env, snap, caller, []cardano.UTxO{u}, campaign.ActionClaimOutput)
	if err != nil {
		return nil, err
	}
	claimed := u
	t.commit = func(h cardano.TxHash) Outcome {
		next := snap.WithoutOrphans([]cardano.UTxO{claimed}, o.env.Now)
		for _, b := range snap.Backers() {
			if b.Source() == claimed.OutRef {
				next = next.WithoutBackers([]campaign.Backer{b}, o.env.Now)
			}
		}
		return Outcome{
			Snapshot:    next,
			Settlements: []campaign.SettlementReceipt{campaign.NewSettlementReceipt(h, caller.Address, claimed.Value.Lovelace)},
		}
	}
	return t, nil
}
