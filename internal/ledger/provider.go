// Package ledger 链上数据查询与交易提交
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MiroslavRet/CF-RewardToken/internal/cardano"
	"github.com/MiroslavRet/CF-RewardToken/internal/plutus"
)

// ErrNoCostModels 协议参数里没有可用的成本模型
var ErrNoCostModels = errors.New("protocol parameters carry no cost models")

// ProtocolParameters 组装交易用到的协议参数
type ProtocolParameters struct {
	CostModels map[plutus.Language][]int64
}

// AssetInfo 某个资产及其铸造交易的元数据（按标签索引）
type AssetInfo struct {
	Policy   cardano.PolicyID
	Name     cardano.AssetName
	Metadata map[string]json.RawMessage
}

// CIP25 取出 721 标签下本资产的字段；资产名先按文本再按十六进制查找
func (a AssetInfo) CIP25() (json.RawMessage, bool) {
	raw, ok := a.Metadata["721"]
	if !ok {
		return nil, false
	}
	var byPolicy map[string]map[string]json.RawMessage
	if err := json.Unmarshal(raw, &byPolicy); err != nil {
		return nil, false
	}
	assets, ok := byPolicy[string(a.Policy)]
	if !ok {
		return nil, false
	}
	if v, ok := assets[a.Name.Text()]; ok {
		return v, true
	}
	v, ok := assets[string(a.Name)]
	return v, ok
}

// Provider 链上数据来源
type Provider interface {
	// CurrentTime 最新区块时间
	CurrentTime(ctx context.Context) (time.Time, error)
	// OutputsAtAddress 地址上全部未花费输出
	OutputsAtAddress(ctx context.Context, address string) ([]cardano.UTxO, error)
	// AssetsByPolicy 策略下的全部资产与铸造元数据
	AssetsByPolicy(ctx context.Context, policy cardano.PolicyID) ([]AssetInfo, error)
	// ProtocolParameters 当前协议参数
	ProtocolParameters(ctx context.Context) (ProtocolParameters, error)
	// SubmitTx 提交已签名交易
	SubmitTx(ctx context.Context, cbor []byte) (cardano.TxHash, error)
}

// OutputsHoldingUnit 筛选出持有某单位的输出
func OutputsHoldingUnit(outputs []cardano.UTxO, u cardano.Unit) []cardano.UTxO {
	out := make([]cardano.UTxO, 0, 1)
	for _, o := range outputs {
		if o.Value.Quantity(u) > 0 {
			out = append(out, o)
		}
	}
	return out
}

// OutputsHoldingAsset 查询地址上持有某单位的输出
func OutputsHoldingAsset(ctx context.Context, p Provider, address string, u cardano.Unit) ([]cardano.UTxO, error) {
	outputs, err := p.OutputsAtAddress(ctx, address)
	if err != nil {
		return nil, err
	}
	return OutputsHoldingUnit(outputs, u), nil
}

// FindAsset 在策略资产中找到指定资产名
func FindAsset(assets []AssetInfo, name cardano.AssetName) (AssetInfo, error) {
	for _, a := range assets {
		if a.Name == name {
			return a, nil
		}
	}
	return AssetInfo{}, fmt.Errorf("asset %s not found", name.Text())
}

// ParamsCache 缓存协议参数，过期后重新查询
type ParamsCache struct {
	provider Provider
	ttl      time.Duration
	now      func() time.Time

	mu        sync.Mutex
	params    ProtocolParameters
	fetchedAt time.Time
}

// NewParamsCache 创建协议参数缓存；ttl 为 0 时每次都查询
func NewParamsCache(p Provider, ttl time.Duration) *ParamsCache {
	return &ParamsCache{provider: p, ttl: ttl, now: time.Now}
}

// Get 返回缓存的协议参数
func (c *ParamsCache) Get(ctx context.Context) (ProtocolParameters, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.fetchedAt.IsZero() && c.ttl > 0 && c.now().Sub(c.fetchedAt) < c.ttl {
		return c.params, nil
	}
	p, err := c.provider.ProtocolParameters(ctx)
	if err != nil {
		return ProtocolParameters{}, err
	}
	if len(p.CostModels) == 0 {
		return ProtocolParameters{}, ErrNoCostModels
	}
	c.params = p
	c.fetchedAt = c.now()
	return p, nil
}
