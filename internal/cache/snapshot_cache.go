// Package cache 活动快照的本地读模型
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/MiroslavRet/CF-RewardToken/internal/campaign"
	"github.com/MiroslavRet/CF-RewardToken/internal/cardano"
)

const snapshotKeyPrefix = "snapshot:"

// SnapshotCache 以 policy id 为键保存最近的快照
type SnapshotCache struct {
	db *leveldb.DB
}

// Open 打开（或创建）LevelDB 数据库
func Open(path string) (*SnapshotCache, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("snapshot cache path required")
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return nil, fmt.Errorf("resolve snapshot cache path: %w", err)
	}
	db, err := leveldb.OpenFile(abs, nil)
	if err != nil {
		return nil, fmt.Errorf("open snapshot cache: %w", err)
	}
	return &SnapshotCache{db: db}, nil
}

// Close 释放数据库
func (c *SnapshotCache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

func key(policy cardano.PolicyID) []byte {
	return []byte(snapshotKeyPrefix + string(policy))
}

// Put 保存快照，覆盖旧值
func (c *SnapshotCache) Put(snap *campaign.Snapshot) error {
	if c == nil || c.db == nil {
		return nil
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return c.db.Put(key(snap.PolicyID()), raw, nil)
}

// Get 读取快照并标记为 Cached；不存在时返回 nil, false
func (c *SnapshotCache) Get(policy cardano.PolicyID) (*campaign.Snapshot, bool, error) {
	if c == nil || c.db == nil {
		return nil, false, nil
	}
	raw, err := c.db.Get(key(policy), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load snapshot %s: %w", policy, err)
	}
	var snap campaign.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, false, fmt.Errorf("decode snapshot %s: %w", policy, err)
	}
	snap.Freshness = campaign.Cached
	return &snap, true, nil
}

// Delete 删除快照
func (c *SnapshotCache) Delete(policy cardano.PolicyID) error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Delete(key(policy), nil)
}

// Policies 已缓存的全部 policy id
func (c *SnapshotCache) Policies() ([]cardano.PolicyID, error) {
	if c == nil || c.db == nil {
		return nil, nil
	}
	iter := c.db.NewIterator(util.BytesPrefix([]byte(snapshotKeyPrefix)), nil)
	defer iter.Release()
	var out []cardano.PolicyID
	for iter.Next() {
		out = append(out, cardano.PolicyID(strings.TrimPrefix(string(iter.Key()), snapshotKeyPrefix)))
	}
	return out, iter.Error()
}
