package task

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MiroslavRet/CF-RewardToken/internal/campaign"
	ct "github.com/MiroslavRet/CF-RewardToken/internal/campaign/campaigntest"
	"github.com/MiroslavRet/CF-RewardToken/internal/cardano"
	"github.com/MiroslavRet/CF-RewardToken/internal/metrics"
)

type stubProjector struct {
	snaps map[cardano.PolicyID]*campaign.Snapshot
}

func (s *stubProjector) Query(_ context.Context, policy cardano.PolicyID) (*campaign.Snapshot, error) {
	snap, ok := s.snaps[policy]
	if !ok {
		return nil, campaign.Lookup(campaign.ErrNoCampaign)
	}
	return snap, nil
}

type stubIndex struct {
	policies []cardano.PolicyID
	err      error
}

func (s stubIndex) ActivePolicies() ([]cardano.PolicyID, error) { return s.policies, s.err }

type stubObserver struct {
	mu     sync.Mutex
	hashes map[string][]string
}

func (s *stubObserver) MarkObserved(policy string, hashes []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hashes == nil {
		s.hashes = make(map[string][]string)
	}
	s.hashes[policy] = hashes
	return int64(len(hashes)), nil
}

func TestCampaignSyncJob(t *testing.T) {
	b := ct.New(t).Back(ct.Creds(ct.AliceKeyHash), cardano.ADA(10)).Orphan(cardano.ADA(1))
	snap := b.Snapshot()
	projector := &stubProjector{snaps: map[cardano.PolicyID]*campaign.Snapshot{snap.PolicyID(): snap}}
	observer := &stubObserver{}
	m := metrics.NewCampaignMetrics(prometheus.NewRegistry())

	job := NewCampaignSyncJob(projector, stubIndex{policies: []cardano.PolicyID{snap.PolicyID(), "gone"}}, observer, m, time.Second, 2)
	assert.Equal(t, "campaign_sync", job.GetName())

	n := job.Sync(context.Background())
	assert.Equal(t, 1, n)

	got := observer.hashes[string(snap.PolicyID())]
	sort.Strings(got)
	want := []string{string(snap.StateOutput.TxHash), string(snap.Backers()[0].Output.TxHash), string(snap.Orphans()[0].TxHash)}
	sort.Strings(want)
	assert.Equal(t, want, got)
}

func TestCampaignSyncJobIndexError(t *testing.T) {
	job := NewCampaignSyncJob(&stubProjector{}, stubIndex{err: errors.New("db down")}, nil, nil, 0, 0)
	assert.Zero(t, job.Sync(context.Background()))
}

func TestManagerRegistersJobs(t *testing.T) {
	job := NewCampaignSyncJob(&stubProjector{}, stubIndex{}, nil, nil, time.Hour, 1)
	m, err := NewManager(job)
	require.NoError(t, err)
	m.RegisterJobs()
	assert.Equal(t, 1, m.Jobs())
	m.scheduler.Start()
	m.Stop()
}
