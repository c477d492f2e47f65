// Package lifecycle 为每个活动动作构建交易计划，并在提交成功后推算下一个快照。
// 构建器都是纯函数：输入快照与参数，输出计划与提交回调，不做任何 I/O。
package lifecycle

import (
	"time"

	"github.com/MiroslavRet/CF-RewardToken/internal/campaign"
	"github.com/MiroslavRet/CF-RewardToken/internal/cardano"
	"github.com/MiroslavRet/CF-RewardToken/internal/plutus"
	"github.com/MiroslavRet/CF-RewardToken/internal/tx"
)

// Env 构建交易所需的外部值
type Env struct {
	Network   cardano.Network
	Tokens    campaign.Tokens
	Platform  campaign.Platform
	Now       time.Time
	MinOutput cardano.Lovelace
}

// Caller 发起动作的钱包
type Caller struct {
	Address     string
	Credentials campaign.Credentials
}

// KeyHash 调用方支付密钥哈希
func (c Caller) KeyHash() cardano.KeyHash {
	return c.Credentials.PaymentKeyHash
}

// Outcome 提交成功后的结果：新快照与各类回执
type Outcome struct {
	Action      campaign.Action              `json:"action"`
	TxHash      cardano.TxHash               `json:"transactionId"`
	Snapshot    *campaign.Snapshot           `json:"snapshot"`
	Settlements []campaign.SettlementReceipt `json:"settlements,omitempty"`
	Burned      *campaign.TokenReceipt       `json:"burned,omitempty"`
	Minted      *campaign.TokenReceipt       `json:"minted,omitempty"`
}

// Transition 一个动作的交易计划与提交回调
type Transition struct {
	Action campaign.Action
	Plan   *tx.Plan
	commit func(cardano.TxHash) Outcome
}

// Commit 按提交前的数据推算结果，不重新查询账本
func (t *Transition) Commit(h cardano.TxHash) Outcome {
	out := t.commit(h)
	out.Action = t.Action
	out.TxHash = h
	return out
}

func requireCampaign(snap *campaign.Snapshot) error {
	if snap == nil {
		return campaign.Precondition(campaign.ErrNoCampaign)
	}
	return nil
}

func requireCaller(c Caller) error {
	if c.Credentials.PaymentKeyHash == "" || c.Address == "" {
		return campaign.Precondition(campaign.ErrNoAddress)
	}
	return nil
}

// scriptOutput 脚本地址上的新输出，位于计划中的 index 位置
func scriptOutput(snap *campaign.Snapshot, h cardano.TxHash, index int, v cardano.Value, datum []byte) cardano.UTxO {
	return cardano.UTxO{
		OutRef:  cardano.OutRef{TxHash: h, Index: uint32(index)},
		Address: snap.Info.ScriptAddress,
		Value:   v,
		Datum:   datum,
	}
}

// signerFor 结算范围对应的签名者；platform 范围要求调用方就是平台
func signerFor(snap *campaign.Snapshot, caller Caller, scope campaign.Scope) (cardano.KeyHash, error) {
	if scope == campaign.ScopePlatform {
		if caller.KeyHash() != snap.Info.Platform {
			return "", campaign.Precondition(campaign.ErrNotPlatform)
		}
		return snap.Info.Platform, nil
	}
	return caller.KeyHash(), nil
}

func scriptInput(u cardano.UTxO, redeemer plutus.Data) tx.ScriptInput {
	return tx.ScriptInput{UTxO: u, Redeemer: redeemer}
}
