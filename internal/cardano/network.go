package cardano

import (
	"fmt"
	"strings"
	"time"
)

// Network 目标网络
type Network int

const (
	Mainnet Network = iota
	Preprod
	Preview
)

// ParseNetwork 解析网络名
func ParseNetwork(s string) (Network, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mainnet":
		return Mainnet, nil
	case "preprod", "testnet", "":
		return Preprod, nil
	case "preview":
		return Preview, nil
	default:
		return 0, fmt.Errorf("unknown network %q", s)
	}
}

func (n Network) String() string {
	switch n {
	case Mainnet:
		return "mainnet"
	case Preview:
		return "preview"
	default:
		return "preprod"
	}
}

// ID 地址头部使用的网络 id
func (n Network) ID() byte {
	if n == Mainnet {
		return 1
	}
	return 0
}

func (n Network) hrp() string {
	if n == Mainnet {
		return "addr"
	}
	return "addr_test"
}

// SlotConfig 时间与 slot 的换算参数
type SlotConfig struct {
	ZeroTime   int64 // 毫秒
	ZeroSlot   uint64
	SlotLength int64 // 毫秒
}

// SlotConfig 返回网络的 slot 参数
func (n Network) SlotConfig() SlotConfig {
	switch n {
	case Mainnet:
		return SlotConfig{ZeroTime: 1596059091000, ZeroSlot: 4492800, SlotLength: 1000}
	case Preview:
		return SlotConfig{ZeroTime: 1666656000000, ZeroSlot: 0, SlotLength: 1000}
	default:
		return SlotConfig{ZeroTime: 1655769600000, ZeroSlot: 86400, SlotLength: 1000}
	}
}

// TimeToSlot 把时间换算为 slot，早于起点时返回起始 slot
func (n Network) TimeToSlot(t time.Time) uint64 {
	cfg := n.SlotConfig()
	ms := t.UnixMilli() - cfg.ZeroTime
	if ms < 0 {
		return cfg.ZeroSlot
	}
	return cfg.ZeroSlot + uint64(ms/cfg.SlotLength)
}
