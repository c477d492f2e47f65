package lifecycle

import (
	"github.com/MiroslavRet/CF-RewardToken/internal/campaign"
	"github.com/MiroslavRet/CF-RewardToken/internal/cardano"
	"github.com/MiroslavRet/CF-RewardToken/internal/tx"
)

// Refund 把所选支持输出原样退回给各自的支持者；活动需为 Running 或 Cancelled
func Refund(env Env, snap *campaign.Snapshot, caller Caller, scope campaign.Scope) (*Transition, error) {
	if err := requireCampaign(snap); err != nil {
		return nil, err
	}
	if !snap.State().AllowsRefund() {
		return nil, campaign.Preconditionf(campaign.ErrInvalidState, "campaign is %s", snap.State())
	}
	if snap.Support() <= 0 {
		return nil, campaign.Precondition(campaign.ErrNothingToRefund)
	}
	selected := campaign.SelectBackers(snap.Backers(), scope, caller.Address)
	if campaign.Settle(selected) <= 0 {
		return nil, campaign.Precondition(campaign.ErrNothingToRefund)
	}
	signer, err := signerFor(snap, caller, scope)
	if err != nil {
		return nil, err
	}

	plan, err := consume(snap, selected, campaign.SpendRefund)
	if err != nil {
		return nil, err
	}
	for _, b := range selected {
		plan.Pay(b.Credentials.Address(env.Network), b.Output.Value.Clone(), nil)
	}
	plan.AddSigner(signer)

	return &Transition{
		Action: campaign.ActionRefund,
		Plan:   plan,
		commit: func(h cardano.TxHash) Outcome {
			receipts := make([]campaign.SettlementReceipt, 0, len(selected))
			for _, b := range selected {
				receipts = append(receipts, campaign.NewSettlementReceipt(h, b.Address, b.Contributed.Lovelace))
			}
			return Outcome{Snapshot: snap.WithoutBackers(selected, env.Now), Settlements: receipts}
		},
	}, nil
}

// Collect 把所选支持输出的全部价值转给创建者；活动需为 Finished
func Collect(env Env, snap *campaign.Snapshot, caller Caller, scope campaign.Scope) (*Transition, error) {
	selected, signer, err := collectable(snap, caller, scope)
	if err != nil {
		return nil, err
	}

	plan, err := consume(snap, selected, campaign.SpendCollect)
	if err != nil {
		return nil, err
	}
	var total cardano.Value
	for _, b := range selected {
		total = total.Add(b.Output.Value)
	}
	creator := snap.Info.Datum.Creator.Address(env.Network)
	plan.Pay(creator, total, nil)
	plan.AddSigner(signer)

	return &Transition{
		Action: campaign.ActionCollect,
		Plan:   plan,
		commit: func(h cardano.TxHash) Outcome {
			return Outcome{
				Snapshot:    snap.WithoutBackers(selected, env.Now),
				Settlements: []campaign.SettlementReceipt{campaign.NewSettlementReceipt(h, creator.String(), campaign.Settle(selected))},
			}
		},
	}, nil
}

// CollectAndReward 收取所选支持输出给创建者，同时按 1:1 销毁支持代币、铸造奖励代币发给支持者
func CollectAndReward(env Env, snap *campaign.Snapshot, caller Caller, scope campaign.Scope) (*Transition, error) {
	selected, signer, err := collectable(snap, caller, scope)
	if err != nil {
		return nil, err
	}
	reward := campaign.PlanReward(selected, snap.Units.Support)
	if reward.Burn <= 0 {
		return nil, campaign.Precondition(campaign.ErrNothingToBurn)
	}
	return burnAndMint(env, snap, caller, scope, selected, reward, campaign.SpendCollect, signer, campaign.ActionCollectAndReward)
}

// FinishMintBurn 只消耗持有支持代币的输出，销毁支持代币并铸造等量奖励代币。
// self 范围按 BackerDatum 在最新的链上输出中定位调用方的支持输出。
func FinishMintBurn(env Env, snap *campaign.Snapshot, caller Caller, scope campaign.Scope, fresh []cardano.UTxO) (*Transition, error) {
	if err := requireCampaign(snap); err != nil {
		return nil, err
	}
	if snap.State() != campaign.Finished {
		return nil, campaign.Preconditionf(campaign.ErrInvalidState, "campaign is %s", snap.State())
	}
	signer, err := signerFor(snap, caller, scope)
	if err != nil {
		return nil, err
	}

	selected := snap.Backers()
	if scope == campaign.ScopeSelf {
		if err := requireCaller(caller); err != nil {
			return nil, err
		}
		selected = locateBackerOutputs(env, fresh, caller.Credentials)
		if len(selected) == 0 {
			return nil, campaign.Lookupf(campaign.ErrBackerOutputMissing, "no output for %s", caller.KeyHash())
		}
	}
	reward := campaign.PlanReward(selected, snap.Units.Support)
	if reward.Burn <= 0 {
		return nil, campaign.Precondition(campaign.ErrNothingToBurn)
	}
	return burnAndMint(env, snap, caller, scope, reward.Eligible, reward, campaign.SpendFinish, signer, campaign.ActionFinishMintBurn)
}

// locateBackerOutputs 在最新输出中找出 datum 与调用方凭证相同的支持输出
func locateBackerOutputs(env Env, fresh []cardano.UTxO, creds campaign.Credentials) []campaign.Backer {
	out := make([]campaign.Backer, 0)
	for _, u := range fresh {
		if !u.HasInlineDatum() {
			continue
		}
		d, err := campaign.DecodeBackerDatum(u.Datum)
		if err != nil || d.PaymentKeyHash != creds.PaymentKeyHash || d.StakeKeyHash != creds.StakeKeyHash {
			continue
		}
		out = append(out, campaign.Backer{
			Address:     d.Address(env.Network).String(),
			Credentials: d,
			Contributed: campaign.NewAmount(u.Value.Lovelace),
			Output:      u,
		})
	}
	return out
}

func collectable(snap *campaign.Snapshot, caller Caller, scope campaign.Scope) ([]campaign.Backer, cardano.KeyHash, error) {
	if err := requireCampaign(snap); err != nil {
		return nil, "", err
	}
	if snap.State() != campaign.Finished {
		return nil, "", campaign.Preconditionf(campaign.ErrInvalidState, "campaign is %s", snap.State())
	}
	if snap.Support() <= 0 {
		return nil, "", campaign.Precondition(campaign.ErrNothingToCollect)
	}
	selected := campaign.SelectBackers(snap.Backers(), scope, caller.Address)
	if campaign.Settle(selected) <= 0 {
		return nil, "", campaign.Precondition(campaign.ErrNothingToCollect)
	}
	signer, err := signerFor(snap, caller, scope)
	if err != nil {
		return nil, "", err
	}
	return selected, signer, nil
}

// consume 以状态输出为引用输入，用同一个 redeemer 花费所选支持输出
func consume(snap *campaign.Snapshot, selected []campaign.Backer, action campaign.SpendAction) (*tx.Plan, error) {
	r, err := action.ToData()
	if err != nil {
		return nil, err
	}
	plan := &tx.Plan{ReferenceInputs: []cardano.UTxO{snap.StateOutput}}
	for _, b := range selected {
		plan.ScriptInputs = append(plan.ScriptInputs, scriptInput(b.Output, r))
	}
	plan.AttachScript(snap.Info.Validator)
	return plan, nil
}

// burnAndMint 花费 selected，销毁其支持代币并铸造等量奖励代币；lovelace 与其他资产归创建者
func burnAndMint(env Env, snap *campaign.Snapshot, caller Caller, scope campaign.Scope, selected []campaign.Backer,
	reward campaign.RewardPlan, action campaign.SpendAction, signer cardano.KeyHash, name campaign.Action) (*Transition, error) {
	plan, err := consume(snap, selected, action)
	if err != nil {
		return nil, err
	}

	finish := campaign.MintFinish{}
	if scope == campaign.ScopeSelf {
		backer := caller.Credentials
		finish.Backer = &backer
	}
	mintRedeemer, err := finish.ToData()
	if err != nil {
		return nil, err
	}
	plan.MintAssets(snap.PolicyID(), env.Tokens.Support, -reward.Burn, mintRedeemer)
	plan.MintAssets(snap.PolicyID(), env.Tokens.Reward, reward.Mint, mintRedeemer)

	var total cardano.Value
	for _, b := range selected {
		total = total.Add(b.Output.Value)
	}
	total = total.WithAsset(snap.Units.Support, -reward.Burn)
	creator := snap.Info.Datum.Creator.Address(env.Network)
	plan.Pay(creator, total, nil)

	recipients := make([]string, 0, len(reward.Allocations))
	for _, a := range reward.Allocations {
		plan.Pay(a.Backer.Credentials.Address(env.Network), cardano.NewValue(env.MinOutput).WithAsset(snap.Units.Reward, a.Quantity), nil)
		recipients = append(recipients, a.Backer.Address)
	}
	plan.AddSigner(signer)
	plan.Metadata = snap.Info.TxMetadata(env.Tokens.Reward)

	return &Transition{
		Action: name,
		Plan:   plan,
		commit: func(h cardano.TxHash) Outcome {
			return Outcome{
				Snapshot:    snap.WithoutBackers(selected, env.Now),
				Settlements: []campaign.SettlementReceipt{campaign.NewSettlementReceipt(h, creator.String(), total.Lovelace)},
				Burned:      &campaign.TokenReceipt{TxHash: h, Unit: snap.Units.Support, Quantity: reward.Burn},
				Minted:      &campaign.TokenReceipt{TxHash: h, Unit: snap.Units.Reward, Quantity: reward.Mint, Recipients: recipients},
			}
		},
	}, nil
}

// ClaimOrphanOutputs 领取活动地址上无法解码的输出；target 非空时只领取该输出
func ClaimOrphanOutputs(env Env, snap *campaign.Snapshot, caller Caller, target *cardano.OutRef) (*Transition, error) {
	if err := requireCampaign(snap); err != nil {
		return nil, err
	}
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if !snap.IsCreator(caller.KeyHash()) && caller.KeyHash() != snap.Info.Platform {
		return nil, campaign.Precondition(campaign.ErrNotCreator)
	}

	claimed := snap.Orphans()
	if target != nil {
		claimed = nil
		for _, u := range snap.Orphans() {
			if u.OutRef == *target {
				claimed = []cardano.UTxO{u}
				break
			}
		}
		if claimed == nil {
			return nil, campaign.Lookupf(campaign.ErrOutputMissing, "%s is not an orphan output", target)
		}
	}
	if len(claimed) == 0 {
		return nil, campaign.Precondition(campaign.ErrNoOrphans)
	}
	return claim(env, snap, caller, claimed, campaign.ActionClaimOrphans)
}

// claim 用空 redeemer 花费输出，价值随找零回到调用方钱包
func claim(env Env, snap *campaign.Snapshot, caller Caller, claimed []cardano.UTxO, name campaign.Action) (*Transition, error) {
	r, err := campaign.SpendVoid{}.ToData()
	if err != nil {
		return nil, err
	}
	plan := &tx.Plan{ReferenceInputs: []cardano.UTxO{snap.StateOutput}}
	var total cardano.Lovelace
	for _, u := range claimed {
		plan.ScriptInputs = append(plan.ScriptInputs, scriptInput(u, r))
		total += u.Value.Lovelace
	}
	plan.AttachScript(snap.Info.Validator)
	plan.AddSigner(caller.KeyHash())

	return &Transition{
		Action: name,
		Plan:   plan,
		commit: func(h cardano.TxHash) Outcome {
			return Outcome{
				Snapshot:    snap.WithoutOrphans(claimed, env.Now),
				Settlements: []campaign.SettlementReceipt{campaign.NewSettlementReceipt(h, caller.Address, total)},
			}
		},
	}, nil
}
