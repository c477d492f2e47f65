package logic

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/MiroslavRet/CF-RewardToken/internal/cache"
	"github.com/MiroslavRet/CF-RewardToken/internal/campaign"
	"github.com/MiroslavRet/CF-RewardToken/internal/cardano"
	"github.com/MiroslavRet/CF-RewardToken/internal/ledger"
	"github.com/MiroslavRet/CF-RewardToken/internal/lifecycle"
	"github.com/MiroslavRet/CF-RewardToken/internal/logger"
	"github.com/MiroslavRet/CF-RewardToken/internal/metrics"
	"github.com/MiroslavRet/CF-RewardToken/internal/plutus"
	"github.com/MiroslavRet/CF-RewardToken/internal/submit"
	"github.com/MiroslavRet/CF-RewardToken/internal/tx"
	"github.com/MiroslavRet/CF-RewardToken/internal/wallet"
)

// Deps 活动业务逻辑依赖的外部服务；Records、Index、Cache、Metrics 可以为空
type Deps struct {
	Provider  ledger.Provider
	Wallet    wallet.Wallet
	Submitter submit.Submitter
	Script    plutus.Script
	Records   *RecordLogic
	Index     *CampaignIndexLogic
	Cache     *cache.SnapshotCache
	Metrics   *metrics.CampaignMetrics
}

// CampaignLogic 活动工作流：读取链上输出 → 构建 → 完成 → 签名 → 提交 → 推算新快照
type CampaignLogic struct {
	settings  Settings
	provider  ledger.Provider
	params    *ledger.ParamsCache
	wallet    wallet.Wallet
	submitter submit.Submitter
	script    plutus.Script
	records   *RecordLogic
	index     *CampaignIndexLogic
	cache     *cache.SnapshotCache
	metrics   *metrics.CampaignMetrics
}

// NewCampaignLogic 创建活动业务逻辑
func NewCampaignLogic(settings Settings, deps Deps) *CampaignLogic {
	return &CampaignLogic{
		settings:  settings,
		provider:  deps.Provider,
		params:    ledger.NewParamsCache(deps.Provider, settings.CostModelTTL),
		wallet:    deps.Wallet,
		submitter: deps.Submitter,
		script:    deps.Script,
		records:   deps.Records,
		index:     deps.Index,
		cache:     deps.Cache,
		metrics:   deps.Metrics,
	}
}

// Identify 由状态代币的铸造元数据恢复活动身份
func (l *CampaignLogic) Identify(ctx context.Context, policy cardano.PolicyID) (campaign.Identity, error) {
	if l.script.IsZero() {
		return campaign.Identity{}, plutus.ErrNoScript
	}
	assets, err := l.provider.AssetsByPolicy(ctx, policy)
	if err != nil {
		return campaign.Identity{}, err
	}
	state, err := ledger.FindAsset(assets, l.settings.Tokens.State)
	if err != nil {
		return campaign.Identity{}, campaign.Lookupf(campaign.ErrNoCampaign, "policy %s: %v", policy, err)
	}
	raw, ok := state.CIP25()
	if !ok {
		return campaign.Identity{}, campaign.Lookupf(campaign.ErrMetadataMissing, "policy %s", policy)
	}
	md, err := campaign.ParseMetadata(raw)
	if err != nil {
		return campaign.Identity{}, err
	}
	id, err := campaign.DeriveIdentity(l.script, l.settings.Network, md.Platform, md.Creator, md.Nonce())
	if err != nil {
		return campaign.Identity{}, err
	}
	if id.PolicyID != policy {
		return campaign.Identity{}, campaign.Lookupf(campaign.ErrMetadataMissing, "metadata %s derives %s, not %s", md, id.PolicyID, policy)
	}
	return id, nil
}

// Query 重新投影活动的当前状态
func (l *CampaignLogic) Query(ctx context.Context, policy cardano.PolicyID) (*campaign.Snapshot, error) {
	snap, _, err := l.project(ctx, policy)
	return snap, err
}

// Get 优先重新投影；账本不可用时退回缓存的快照
func (l *CampaignLogic) Get(ctx context.Context, policy cardano.PolicyID) (*campaign.Snapshot, error) {
	snap, err := l.Query(ctx, policy)
	if err == nil || errors.Is(err, campaign.ErrLookup) {
		return snap, err
	}
	cached, ok, cacheErr := l.cache.Get(policy)
	if cacheErr != nil || !ok {
		return nil, err
	}
	logger.Warn("Serving cached snapshot of %s: %v", policy, err)
	return cached, nil
}

func (l *CampaignLogic) project(ctx context.Context, policy cardano.PolicyID) (*campaign.Snapshot, []cardano.UTxO, error) {
	id, err := l.Identify(ctx, policy)
	if err != nil {
		return nil, nil, err
	}
	outputs, err := l.provider.OutputsAtAddress(ctx, id.ScriptAddress)
	if err != nil {
		return nil, nil, err
	}
	now, err := l.provider.CurrentTime(ctx)
	if err != nil {
		return nil, nil, err
	}
	snap, err := campaign.Project(id, l.settings.Tokens, outputs, now)
	if err != nil {
		return nil, nil, err
	}
	l.remember(snap, "")
	return snap, outputs, nil
}

// remember 更新缓存与索引，失败只记录日志
func (l *CampaignLogic) remember(snap *campaign.Snapshot, lastTx cardano.TxHash) {
	if snap == nil {
		return
	}
	if err := l.cache.Put(snap); err != nil {
		logger.Warn("Failed to cache snapshot %s: %v", snap.PolicyID(), err)
	}
	if l.index != nil {
		if err := l.index.Upsert(snap, lastTx); err != nil {
			logger.Warn("Failed to index campaign %s: %v", snap.PolicyID(), err)
		}
	}
}

// Create 创建活动，调用方钱包为创建者
func (l *CampaignLogic) Create(ctx context.Context, p lifecycle.CreateParams) (*lifecycle.Outcome, error) {
	return l.run(ctx, campaign.ActionCreate, "", func(s *session) (*lifecycle.Transition, error) {
		funds, err := s.funds()
		if err != nil {
			return nil, err
		}
		return lifecycle.Create(s.env, l.script, s.caller, funds, p)
	})
}

// Support 支持活动 amount lovelace
func (l *CampaignLogic) Support(ctx context.Context, policy cardano.PolicyID, amount cardano.Lovelace) (*lifecycle.Outcome, error) {
	return l.withSnapshot(ctx, campaign.ActionSupport, policy, func(s *session, snap *campaign.Snapshot, _ []cardano.UTxO) (*lifecycle.Transition, error) {
		return lifecycle.Support(s.env, snap, s.caller, amount)
	})
}

// Cancel 取消活动
func (l *CampaignLogic) Cancel(ctx context.Context, policy cardano.PolicyID, by campaign.Authority) (*lifecycle.Outcome, error) {
	return l.withSnapshot(ctx, campaign.ActionCancel, policy, func(s *session, snap *campaign.Snapshot, _ []cardano.UTxO) (*lifecycle.Transition, error) {
		return lifecycle.Cancel(s.env, snap, s.caller, by)
	})
}

// Finish 结束活动
func (l *CampaignLogic) Finish(ctx context.Context, policy cardano.PolicyID, by campaign.Authority) (*lifecycle.Outcome, error) {
	return l.withSnapshot(ctx, campaign.ActionFinish, policy, func(s *session, snap *campaign.Snapshot, _ []cardano.UTxO) (*lifecycle.Transition, error) {
		return lifecycle.Finish(s.env, snap, s.caller, by)
	})
}

// Refund 退款
func (l *CampaignLogic) Refund(ctx context.Context, policy cardano.PolicyID, scope campaign.Scope) (*lifecycle.Outcome, error) {
	return l.withSnapshot(ctx, campaign.ActionRefund, policy, func(s *session, snap *campaign.Snapshot, _ []cardano.UTxO) (*lifecycle.Transition, error) {
		return lifecycle.Refund(s.env, snap, s.caller, scope)
	})
}

// Collect 把支持金额收给创建者
func (l *CampaignLogic) Collect(ctx context.Context, policy cardano.PolicyID, scope campaign.Scope) (*lifecycle.Outcome, error) {
	return l.withSnapshot(ctx, campaign.ActionCollect, policy, func(s *session, snap *campaign.Snapshot, _ []cardano.UTxO) (*lifecycle.Transition, error) {
		return lifecycle.Collect(s.env, snap, s.caller, scope)
	})
}

// CollectAndReward 收款并以奖励代币替换支持代币
func (l *CampaignLogic) CollectAndReward(ctx context.Context, policy cardano.PolicyID, scope campaign.Scope) (*lifecycle.Outcome, error) {
	return l.withSnapshot(ctx, campaign.ActionCollectAndReward, policy, func(s *session, snap *campaign.Snapshot, _ []cardano.UTxO) (*lifecycle.Transition, error) {
		return lifecycle.CollectAndReward(s.env, snap, s.caller, scope)
	})
}

// FinishMintBurn 销毁支持代币并铸造奖励代币
func (l *CampaignLogic) FinishMintBurn(ctx context.Context, policy cardano.PolicyID, scope campaign.Scope) (*lifecycle.Outcome, error) {
	return l.withSnapshot(ctx, campaign.ActionFinishMintBurn, policy, func(s *session, snap *campaign.Snapshot, _ []cardano.UTxO) (*lifecycle.Transition, error) {
		var fresh []cardano.UTxO
		if scope == campaign.ScopeSelf {
			var err error
			fresh, err = ledger.OutputsHoldingAsset(ctx, l.provider, snap.Info.ScriptAddress, snap.Units.Support)
			if err != nil {
				return nil, err
			}
		}
		return lifecycle.FinishMintBurn(s.env, snap, s.caller, scope, fresh)
	})
}

// ClaimOrphans 领取活动地址上的孤立输出；target 为空时全部领取
func (l *CampaignLogic) ClaimOrphans(ctx context.Context, policy cardano.PolicyID, target *cardano.OutRef) (*lifecycle.Outcome, error) {
	return l.withSnapshot(ctx, campaign.ActionClaimOrphans, policy, func(s *session, snap *campaign.Snapshot, _ []cardano.UTxO) (*lifecycle.Transition, error) {
		return lifecycle.ClaimOrphanOutputs(s.env, snap, s.caller, target)
	})
}

// session 一次动作内共享的钱包与时间
type session struct {
	env    lifecycle.Env
	caller lifecycle.Caller
	handle wallet.Handle

	once      sync.Once
	utxos     []cardano.UTxO
	utxosErr  error
	fetchFrom func() ([]cardano.UTxO, error)
}

// funds 钱包输出，只查询一次
func (s *session) funds() ([]cardano.UTxO, error) {
	s.once.Do(func() {
		s.utxos, s.utxosErr = s.fetchFrom()
	})
	return s.utxos, s.utxosErr
}

type buildFunc func(s *session) (*lifecycle.Transition, error)

type snapshotBuildFunc func(s *session, snap *campaign.Snapshot, outputs []cardano.UTxO) (*lifecycle.Transition, error)

func (l *CampaignLogic) withSnapshot(ctx context.Context, action campaign.Action, policy cardano.PolicyID, build snapshotBuildFunc) (*lifecycle.Outcome, error) {
	return l.run(ctx, action, policy, func(s *session) (*lifecycle.Transition, error) {
		snap, outputs, err := l.project(ctx, policy)
		if err != nil {
			return nil, err
		}
		return build(s, snap, outputs)
	})
}

func (l *CampaignLogic) env(now time.Time) lifecycle.Env {
	return lifecycle.Env{
		Network:   l.settings.Network,
		Tokens:    l.settings.Tokens,
		Platform:  l.settings.Platform,
		Now:       now,
		MinOutput: l.settings.Tx.MinOutput,
	}
}

// run 执行一个动作；提交成功后记录失败不影响返回结果
func (l *CampaignLogic) run(ctx context.Context, action campaign.Action, policy cardano.PolicyID, build buildFunc) (out *lifecycle.Outcome, err error) {
	start := time.Now()
	log := logger.With(zap.String("action", string(action)), zap.String("policy", string(policy)))
	defer func() {
		l.metrics.ObserveAction(string(action), outcomeOf(err), time.Since(start))
		if err != nil {
			log.Error("Campaign action failed: %v", err)
		}
	}()

	h, err := l.wallet.Enable(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: enable wallet: %w", action, err)
	}
	conn := h.Connection()
	if err := conn.Validate(); err != nil {
		return nil, err
	}
	now, err := l.provider.CurrentTime(ctx)
	if err != nil {
		return nil, err
	}

	s := &session{
		env:       l.env(now),
		caller:    lifecycle.Caller{Address: conn.Address, Credentials: conn.Credentials()},
		handle:    h,
		fetchFrom: func() ([]cardano.UTxO, error) { return h.SpendableOutputs(ctx) },
	}
	log.Info("Campaign action requested by %s", conn.Address)

	t, err := build(s)
	if err != nil {
		return nil, err
	}
	return l.submit(ctx, s, policy, t)
}

func (l *CampaignLogic) submit(ctx context.Context, s *session, policy cardano.PolicyID, t *lifecycle.Transition) (*lifecycle.Outcome, error) {
	funds, err := s.funds()
	if err != nil {
		return nil, err
	}
	pp, err := l.params.Get(ctx)
	if err != nil {
		return nil, err
	}
	params := l.settings.Tx
	params.CostModels = pp.CostModels

	u, err := tx.Complete(t.Plan, tx.Funding{ChangeAddress: s.handle.ChangeAddress(), UTxOs: funds}, params)
	if err != nil {
		if errors.Is(err, tx.ErrInsufficientFunds) || errors.Is(err, tx.ErrNoCollateral) {
			return nil, campaign.Precondition(err)
		}
		return nil, fmt.Errorf("%s: complete: %w", t.Action, err)
	}

	hash, err := l.submitter.Submit(ctx, s.handle, u)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", t.Action, err)
	}

	out := t.Commit(hash)
	if policy == "" && out.Snapshot != nil {
		policy = out.Snapshot.PolicyID()
	}
	logger.Info("Campaign %s %s submitted: %s (fee %s ADA)", policy, t.Action, hash, cardano.FormatADA(u.Fee))

	l.remember(out.Snapshot, hash)
	if l.records != nil {
		if err := l.records.SaveOutcome(policy, s.caller.Address, u.Fee, out); err != nil {
			logger.Warn("Failed to persist %s receipts for %s: %v", t.Action, hash, err)
		}
	}
	l.observe(out)
	return &out, nil
}

func (l *CampaignLogic) observe(out lifecycle.Outcome) {
	var settled cardano.Lovelace
	for _, s := range out.Settlements {
		settled += s.Lovelace
	}
	l.metrics.ObserveSettled(string(out.Action), int64(settled))
	if out.Minted != nil {
		l.metrics.ObserveTokens("minted", out.Minted.Quantity)
	}
	if out.Burned != nil {
		l.metrics.ObserveTokens("burned", out.Burned.Quantity)
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, campaign.ErrPrecondition):
		return metrics.OutcomePrecondition
	case errors.Is(err, campaign.ErrLookup):
		return metrics.OutcomeLookup
	default:
		return metrics.OutcomeFailure
	}
}
