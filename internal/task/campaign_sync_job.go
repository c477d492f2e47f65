package task

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/panjf2000/ants/v2"

	"github.com/MiroslavRet/CF-RewardToken/internal/campaign"
	"github.com/MiroslavRet/CF-RewardToken/internal/cardano"
	"github.com/MiroslavRet/CF-RewardToken/internal/logger"
	"github.com/MiroslavRet/CF-RewardToken/internal/metrics"
)

// Projector 重新投影活动并更新缓存与索引，由 logic.CampaignLogic 实现
type Projector interface {
	Query(ctx context.Context, policy cardano.PolicyID) (*campaign.Snapshot, error)
}

// ActiveIndex 需要同步的活动
type ActiveIndex interface {
	ActivePolicies() ([]cardano.PolicyID, error)
}

// Observer 标记链上已出现的交易
type Observer interface {
	MarkObserved(policy string, hashes []string) (int64, error)
}

// CampaignSyncJob 定期重新投影活跃活动
type CampaignSyncJob struct {
	projector Projector
	index     ActiveIndex
	observer  Observer
	metrics   *metrics.CampaignMetrics
	interval  time.Duration
	poolSize  int
}

// NewCampaignSyncJob 创建活动同步任务
func NewCampaignSyncJob(projector Projector, index ActiveIndex, observer Observer, m *metrics.CampaignMetrics,
	interval time.Duration, poolSize int) *CampaignSyncJob {
	if interval <= 0 {
		interval = time.Minute
	}
	if poolSize <= 0 {
		poolSize = 4
	}
	return &CampaignSyncJob{
		projector: projector,
		index:     index,
		observer:  observer,
		metrics:   m,
		interval:  interval,
		poolSize:  poolSize,
	}
}

// GetName 获取任务名称
func (j *CampaignSyncJob) GetName() string {
	return "campaign_sync"
}

// GetSchedule 获取调度配置
func (j *CampaignSyncJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

// Execute 执行任务
func (j *CampaignSyncJob) Execute() {
	ctx, cancel := context.WithTimeout(context.Background(), j.interval)
	defer cancel()
	j.Sync(ctx)
}

// Sync 同步一轮，返回成功投影的活动数
func (j *CampaignSyncJob) Sync(ctx context.Context) int {
	policies, err := j.index.ActivePolicies()
	if err != nil {
		logger.Error("Failed to load active campaigns: %v", err)
		return 0
	}
	if len(policies) == 0 {
		j.metrics.SetSynced(0)
		return 0
	}
	logger.Debug("Syncing %d campaigns", len(policies))

	pool, err := ants.NewPool(j.poolSize)
	if err != nil {
		logger.Error("Failed to create sync pool: %v", err)
		return 0
	}
	defer pool.Release()

	var (
		wg     sync.WaitGroup
		synced atomic.Int64
	)
	for _, policy := range policies {
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			if j.syncOne(ctx, policy) {
				synced.Add(1)
			}
		})
		if err != nil {
			wg.Done()
			logger.Error("Failed to submit sync of %s: %v", policy, err)
		}
	}
	wg.Wait()

	n := int(synced.Load())
	j.metrics.SetSynced(n)
	logger.Info("Campaign sync finished: %d/%d", n, len(policies))
	return n
}

func (j *CampaignSyncJob) syncOne(ctx context.Context, policy cardano.PolicyID) bool {
	snap, err := j.projector.Query(ctx, policy)
	if err != nil {
		logger.Warn("Failed to sync campaign %s: %v", policy, err)
		return false
	}
	if j.observer != nil {
		marked, err := j.observer.MarkObserved(string(policy), observedHashes(snap))
		if err != nil {
			logger.Warn("Failed to mark transactions of %s: %v", policy, err)
		} else if marked > 0 {
			logger.Info("Campaign %s: %d transactions observed on chain", policy, marked)
		}
	}
	return true
}

// observedHashes 活动地址上现存输出所属的交易
func observedHashes(snap *campaign.Snapshot) []string {
	seen := map[cardano.TxHash]bool{snap.StateOutput.TxHash: true}
	for _, b := range snap.Backers() {
		seen[b.Output.TxHash] = true
	}
	for _, o := range snap.Orphans() {
		seen[o.TxHash] = true
	}
	out := make([]string, 0, len(seen))
	for h := range seen {
		if h != "" {
			out = append(out, string(h))
		}
	}
	return out
}
