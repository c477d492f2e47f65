package campaign

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/MiroslavRet/CF-RewardToken/internal/cardano"
	"github.com/MiroslavRet/CF-RewardToken/internal/plutus"
)

// Platform 平台身份，由配置提供，所有入口显式传入
type Platform struct {
	Address        string          `json:"address"`
	PaymentKeyHash cardano.KeyHash `json:"paymentKeyHash"`
	StakeAddress   string          `json:"stakeAddress,omitempty"`
	StakeKeyHash   cardano.KeyHash `json:"stakeKeyHash,omitempty"`
}

// Validate 平台未配置时返回前置条件错误
func (p Platform) Validate() error {
	if p.PaymentKeyHash == "" {
		return Precondition(ErrPlatformUnset)
	}
	if b, err := hex.DecodeString(string(p.PaymentKeyHash)); err != nil || len(b) != 28 {
		return Preconditionf(ErrPlatformUnset, "invalid payment key hash %q", p.PaymentKeyHash)
	}
	return nil
}

// Tokens 三种代币的资产名
type Tokens struct {
	State   cardano.AssetName `json:"state"`
	Support cardano.AssetName `json:"support"`
	Reward  cardano.AssetName `json:"reward"`
}

// DefaultTokens 默认资产名
func DefaultTokens() Tokens {
	return Tokens{
		State:   cardano.AssetNameFromText("STATE_TOKEN"),
		Support: cardano.AssetNameFromText("SUPPORT_TOKEN"),
		Reward:  cardano.AssetNameFromText("REWARD_TOKEN"),
	}
}

// Units 某个活动的代币单位
type Units struct {
	State   cardano.Unit `json:"state"`
	Support cardano.Unit `json:"support"`
	Reward  cardano.Unit `json:"reward"`
}

// Identity 活动身份：参数化后的验证器、脚本地址与 policy id
type Identity struct {
	PolicyID  cardano.PolicyID `json:"policyId"`
	Platform  cardano.KeyHash  `json:"platform"`
	Creator   cardano.KeyHash  `json:"creator"`
	Nonce     cardano.OutRef   `json:"nonce"`
	Validator plutus.Script    `json:"validator"`
	Address   cardano.Address  `json:"scriptAddressParts"`
	// ScriptAddress bech32 形式的脚本地址
	ScriptAddress string `json:"address"`
}

// Units 返回本活动的代币单位
func (id Identity) Units(t Tokens) Units {
	return Units{
		State:   cardano.ToUnit(id.PolicyID, t.State),
		Support: cardano.ToUnit(id.PolicyID, t.Support),
		Reward:  cardano.ToUnit(id.PolicyID, t.Reward),
	}
}

// DeriveIdentity 用平台、创建者与 nonce 参数化验证器，结果是确定的
func DeriveIdentity(base plutus.Script, network cardano.Network, platform, creator cardano.KeyHash, nonce cardano.OutRef) (Identity, error) {
	if base.IsZero() {
		return Identity{}, plutus.ErrNoScript
	}
	platformBytes, err := plutus.BytesFromHex(string(platform))
	if err != nil {
		return Identity{}, fmt.Errorf("platform key hash: %w", err)
	}
	creatorBytes, err := plutus.BytesFromHex(string(creator))
	if err != nil {
		return Identity{}, fmt.Errorf("creator key hash: %w", err)
	}
	nonceParam, err := nonceData(nonce)
	if err != nil {
		return Identity{}, err
	}

	validator, err := plutus.ApplyParams(base, platformBytes, creatorBytes, nonceParam)
	if err != nil {
		return Identity{}, err
	}
	hash := validator.Hash()
	addr := cardano.ScriptAddress(network, hash)
	bech, err := addr.Bech32()
	if err != nil {
		return Identity{}, fmt.Errorf("script address: %w", err)
	}
	return Identity{
		PolicyID:      hash.PolicyID(),
		Platform:      cardano.KeyHash(strings.ToLower(string(platform))),
		Creator:       cardano.KeyHash(strings.ToLower(string(creator))),
		Nonce:         nonce,
		Validator:     validator,
		Address:       addr,
		ScriptAddress: bech,
	}, nil
}

// SelectNonce 选出序列化最小的钱包输出，大小相同时取先出现的
func SelectNonce(utxos []cardano.UTxO) (cardano.UTxO, error) {
	return selectNonceBy(utxos, cardano.UTxO.Footprint)
}

func selectNonceBy(utxos []cardano.UTxO, size func(cardano.UTxO) int) (cardano.UTxO, error) {
	if len(utxos) == 0 {
		return cardano.UTxO{}, Precondition(ErrEmptyWallet)
	}
	idx := make([]int, len(utxos))
	sizes := make([]int, len(utxos))
	for i, u := range utxos {
		idx[i] = i
		sizes[i] = size(u)
	}
	sort.SliceStable(idx, func(a, b int) bool { return sizes[idx[a]] < sizes[idx[b]] })
	return utxos[idx[0]], nil
}
