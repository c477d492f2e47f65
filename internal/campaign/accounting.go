package campaign

import (
	"fmt"
	"strings"

	"github.com/MiroslavRet/CF-RewardToken/internal/cardano"
)

// SupportMintQuantity 每次支持铸造的支持代币数量
const SupportMintQuantity int64 = 1

// Scope 结算范围：仅调用方自己的记录，或平台代表全部支持者
type Scope int

const (
	ScopeSelf Scope = iota
	ScopePlatform
)

func (s Scope) String() string {
	if s == ScopePlatform {
		return "platform"
	}
	return "self"
}

// ParseScope 解析范围，空串视为 self
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "self":
		return ScopeSelf, nil
	case "platform", "all":
		return ScopePlatform, nil
	}
	return 0, Preconditionf(ErrInvalidState, "unknown scope %q", s)
}

// Authority 取消/结束活动的授权方
type Authority int

const (
	ByCreator Authority = iota
	ByPlatform
)

func (a Authority) String() string {
	if a == ByPlatform {
		return "platform"
	}
	return "creator"
}

// ParseAuthority 解析授权方，空串视为 creator
func ParseAuthority(s string) (Authority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "creator", "self":
		return ByCreator, nil
	case "platform":
		return ByPlatform, nil
	}
	return 0, fmt.Errorf("unknown authority %q", s)
}

// SelectBackers 按范围选出要结算的支持记录；self 只保留地址与调用方相同的记录
func SelectBackers(backers []Backer, scope Scope, callerAddress string) []Backer {
	if scope == ScopePlatform {
		return append([]Backer{}, backers...)
	}
	selected := make([]Backer, 0)
	for _, b := range backers {
		if b.Address == callerAddress {
			selected = append(selected, b)
		}
	}
	return selected
}

// Settle 所选记录的贡献总额
func Settle(backers []Backer) cardano.Lovelace {
	var total cardano.Lovelace
	for _, b := range backers {
		total += b.Contributed.Lovelace
	}
	return total
}

// Allocation 某个支持者应得的奖励代币
type Allocation struct {
	Backer   Backer `json:"backer"`
	Quantity int64  `json:"quantity"`
}

// RewardPlan 销毁与铸造数量由同一批记录得出，二者始终相等
type RewardPlan struct {
	Burn        int64        `json:"burn"`
	Mint        int64        `json:"mint"`
	Eligible    []Backer     `json:"eligible"`
	Allocations []Allocation `json:"allocations"`
}

// PlanReward 统计所选记录上持有的支持代币；不持有支持代币的记录不参与销毁
func PlanReward(selected []Backer, supportUnit cardano.Unit) RewardPlan {
	plan := RewardPlan{Eligible: []Backer{}, Allocations: []Allocation{}}
	for _, b := range selected {
		q := b.Output.Value.Quantity(supportUnit)
		if q <= 0 {
			continue
		}
		plan.Burn += q
		plan.Eligible = append(plan.Eligible, b)
		plan.Allocations = append(plan.Allocations, Allocation{Backer: b, Quantity: q})
	}
	plan.Mint = plan.Burn
	return plan
}
