package campaign

import (
	"time"

	"github.com/MiroslavRet/CF-RewardToken/internal/cardano"
)

// Freshness 快照的新鲜程度；除 Projected 外都可能已过期
type Freshness int

const (
	// Projected 刚从账本投影得到
	Projected Freshness = iota
	// Optimistic 提交交易后按构建数据乐观推算
	Optimistic
	// Cached 从本地缓存读取
	Cached
)

func (f Freshness) String() string {
	switch f {
	case Projected:
		return "projected"
	case Optimistic:
		return "optimistic"
	default:
		return "cached"
	}
}

// MarshalText 以名称序列化
func (f Freshness) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText 从名称反序列化
func (f *Freshness) UnmarshalText(b []byte) error {
	switch string(b) {
	case "projected":
		*f = Projected
	case "optimistic":
		*f = Optimistic
	default:
		*f = Cached
	}
	return nil
}

// Amount 同时给出 lovelace 与 ADA 表示
type Amount struct {
	Lovelace cardano.Lovelace `json:"lovelace"`
	ADA      string           `json:"ada"`
}

// NewAmount 创建金额
func NewAmount(l cardano.Lovelace) Amount {
	return Amount{Lovelace: l, ADA: cardano.FormatADA(l)}
}

// Creator 创建者身份
type Creator struct {
	Address string `json:"address"`
	Credentials
}

// Backer 一条支持记录，对应脚本地址上的一个输出
type Backer struct {
	Address     string       `json:"address"`
	Credentials Credentials  `json:"credentials"`
	Contributed Amount       `json:"contributed"`
	Output      cardano.UTxO `json:"output"`
}

// Source 记录对应的输出引用
func (b Backer) Source() cardano.OutRef {
	return b.Output.OutRef
}

// View 活动的派生视图
type View struct {
	Name     string         `json:"name"`
	Goal     Amount         `json:"goal"`
	Deadline time.Time      `json:"deadline"`
	Creator  Creator        `json:"creator"`
	Backers  []Backer       `json:"backers"`
	Orphans  []cardano.UTxO `json:"orphans"`
	Support  Amount         `json:"support"`
	State    State          `json:"state"`
}

// Info 活动信息
type Info struct {
	Identity
	Datum CampaignDatum `json:"datum"`
	View  View          `json:"view"`
}

// Snapshot 活动在某一时刻的不可变快照，整体替换而不是原地修改
type Snapshot struct {
	Info        Info         `json:"info"`
	Units       Units        `json:"units"`
	StateOutput cardano.UTxO `json:"stateOutput"`
	Freshness   Freshness    `json:"freshness"`
	ObservedAt  time.Time    `json:"observedAt"`
}

// PolicyID 活动 id
func (s *Snapshot) PolicyID() cardano.PolicyID {
	return s.Info.PolicyID
}

// State 当前生命周期状态
func (s *Snapshot) State() State {
	return s.Info.View.State
}

// Support 当前支持总额
func (s *Snapshot) Support() cardano.Lovelace {
	return s.Info.View.Support.Lovelace
}

// Backers 支持记录
func (s *Snapshot) Backers() []Backer {
	return s.Info.View.Backers
}

// Orphans 无法解码的输出
func (s *Snapshot) Orphans() []cardano.UTxO {
	return s.Info.View.Orphans
}

// IsCreator 调用方是否为创建者
func (s *Snapshot) IsCreator(pkh cardano.KeyHash) bool {
	return pkh != "" && pkh == s.Info.Datum.Creator.PaymentKeyHash
}

// Clone 深拷贝
func (s *Snapshot) Clone() *Snapshot {
	c := *s
	c.Info.View.Backers = append([]Backer(nil), s.Info.View.Backers...)
	for i := range c.Info.View.Backers {
		c.Info.View.Backers[i].Output = cloneUTxO(c.Info.View.Backers[i].Output)
	}
	c.Info.View.Orphans = append([]cardano.UTxO(nil), s.Info.View.Orphans...)
	for i := range c.Info.View.Orphans {
		c.Info.View.Orphans[i] = cloneUTxO(c.Info.View.Orphans[i])
	}
	c.StateOutput = cloneUTxO(s.StateOutput)
	return &c
}

func cloneUTxO(u cardano.UTxO) cardano.UTxO {
	u.Value = u.Value.Clone()
	u.Datum = append([]byte(nil), u.Datum...)
	return u
}

// next 供提交后推算新快照：复制并标记为乐观
func (s *Snapshot) next(now time.Time) *Snapshot {
	c := s.Clone()
	c.Freshness = Optimistic
	c.ObservedAt = now
	return c
}

// WithState 返回状态更新后的快照，新的状态输出为 (txHash, 0)
func (s *Snapshot) WithState(state State, stateOutput cardano.UTxO, now time.Time) *Snapshot {
	c := s.next(now)
	c.Info.Datum = c.Info.Datum.WithState(state)
	c.Info.View.State = state
	c.StateOutput = stateOutput
	return c
}

// WithBackers 替换支持记录并重新计算支持总额
func (s *Snapshot) WithBackers(backers []Backer, now time.Time) *Snapshot {
	c := s.next(now)
	c.Info.View.Backers = append([]Backer{}, backers...)
	c.Info.View.Support = NewAmount(Settle(backers))
	return c
}

// WithoutBackers 去掉指定输出对应的支持记录
func (s *Snapshot) WithoutBackers(removed []Backer, now time.Time) *Snapshot {
	gone := make(map[cardano.OutRef]struct{}, len(removed))
	for _, b := range removed {
		gone[b.Source()] = struct{}{}
	}
	kept := make([]Backer, 0, len(s.Info.View.Backers))
	for _, b := range s.Info.View.Backers {
		if _, ok := gone[b.Source()]; !ok {
			kept = append(kept, b)
		}
	}
	return s.WithBackers(kept, now)
}

// WithoutOrphans 去掉已领取的无 datum 输出
func (s *Snapshot) WithoutOrphans(claimed []cardano.UTxO, now time.Time) *Snapshot {
	gone := make(map[cardano.OutRef]struct{}, len(claimed))
	for _, u := range claimed {
		gone[u.OutRef] = struct{}{}
	}
	c := s.next(now)
	kept := make([]cardano.UTxO, 0, len(c.Info.View.Orphans))
	for _, u := range c.Info.View.Orphans {
		if _, ok := gone[u.OutRef]; !ok {
			kept = append(kept, u)
		}
	}
	c.Info.View.Orphans = kept
	return c
}
