package logic

import (
	"context"

	"github.com/MiroslavRet/CF-RewardToken/internal/campaign"
	"github.com/MiroslavRet/CF-RewardToken/internal/cardano"
	"github.com/MiroslavRet/CF-RewardToken/internal/lifecycle"
)

// OperatorLogic 运维特权动作，签名者为当前钱包
type OperatorLogic struct {
	campaigns *CampaignLogic
}

// NewOperatorLogic 共享活动逻辑的提交流程
func NewOperatorLogic(campaigns *CampaignLogic) *OperatorLogic {
	return &OperatorLogic{campaigns: campaigns}
}

type operatorBuildFunc func(op *lifecycle.Operator, s *session, snap *campaign.Snapshot, outputs []cardano.UTxO) (*lifecycle.Transition, error)

func (o *OperatorLogic) run(ctx context.Context, action campaign.Action, policy cardano.PolicyID, build operatorBuildFunc) (*lifecycle.Outcome, error) {
	return o.campaigns.withSnapshot(ctx, action, policy, func(s *session, snap *campaign.Snapshot, outputs []cardano.UTxO) (*lifecycle.Transition, error) {
		return build(lifecycle.NewOperator(s.env), s, snap, outputs)
	})
}

// Rerun 把活动改回 Running；tag 为空时使用默认构造子
func (o *OperatorLogic) Rerun(ctx context.Context, policy cardano.PolicyID, tag *uint64) (*lifecycle.Outcome, error) {
	return o.run(ctx, campaign.ActionRerun, policy, func(op *lifecycle.Operator, s *session, snap *campaign.Snapshot, _ []cardano.UTxO) (*lifecycle.Transition, error) {
		return op.Rerun(snap, s.caller.KeyHash(), tag)
	})
}

// ForceCancel 强制取消
func (o *OperatorLogic) ForceCancel(ctx context.Context, policy cardano.PolicyID) (*lifecycle.Outcome, error) {
	return o.run(ctx, campaign.ActionForceCancel, policy, func(op *lifecycle.Operator, s *session, snap *campaign.Snapshot, _ []cardano.UTxO) (*lifecycle.Transition, error) {
		return op.ForceCancel(snap, s.caller.KeyHash())
	})
}

// ForceFinish 强制结束并收款
func (o *OperatorLogic) ForceFinish(ctx context.Context, policy cardano.PolicyID) (*lifecycle.Outcome, error) {
	return o.run(ctx, campaign.ActionForceFinish, policy, func(op *lifecycle.Operator, s *session, snap *campaign.Snapshot, _ []cardano.UTxO) (*lifecycle.Transition, error) {
		return op.ForceFinish(snap, s.caller.KeyHash())
	})
}

// ForceRefund 强制退回全部支持
func (o *OperatorLogic) ForceRefund(ctx context.Context, policy cardano.PolicyID) (*lifecycle.Outcome, error) {
	return o.run(ctx, campaign.ActionForceRefund, policy, func(op *lifecycle.Operator, s *session, snap *campaign.Snapshot, _ []cardano.UTxO) (*lifecycle.Transition, error) {
		return op.ForceRefund(snap, s.caller.KeyHash())
	})
}

// Claim 领取活动地址上的指定输出
func (o *OperatorLogic) Claim(ctx context.Context, policy cardano.PolicyID, ref cardano.OutRef) (*lifecycle.Outcome, error) {
	return o.run(ctx, campaign.ActionClaimOutput, policy, func(op *lifecycle.Operator, s *session, snap *campaign.Snapshot, outputs []cardano.UTxO) (*lifecycle.Transition, error) {
		for _, u := range outputs {
			if u.OutRef == ref {
				return op.Claim(snap, s.caller, u)
			}
		}
		return nil, campaign.Lookupf(campaign.ErrOutputMissing, "%s", ref)
	})
}
