package campaign

import "github.com/MiroslavRet/CF-RewardToken/internal/cardano"

// Action 生命周期动作名
type Action string

const (
	ActionCreate           Action = "create"
	ActionSupport          Action = "support"
	ActionCancel           Action = "cancel"
	ActionFinish           Action = "finish"
	ActionRefund           Action = "refund"
	ActionCollect          Action = "collect"
	ActionCollectAndReward Action = "collect_reward"
	ActionFinishMintBurn   Action = "finish_mint_burn"
	ActionClaimOrphans     Action = "claim_orphans"
	ActionRerun            Action = "rerun"
	ActionForceCancel      Action = "force_cancel"
	ActionForceFinish      Action = "force_finish"
	ActionForceRefund      Action = "force_refund"
	ActionClaimOutput      Action = "claim_output"
)

// SettlementReceipt 一笔结算给某个接收方的金额
type SettlementReceipt struct {
	TxHash    cardano.TxHash   `json:"transactionId"`
	Recipient string           `json:"recipient"`
	ADA       string           `json:"ada"`
	Lovelace  cardano.Lovelace `json:"lovelace"`
}

// NewSettlementReceipt 创建结算回执
func NewSettlementReceipt(tx cardano.TxHash, recipient string, l cardano.Lovelace) SettlementReceipt {
	return SettlementReceipt{TxHash: tx, Recipient: recipient, ADA: cardano.FormatADA(l), Lovelace: l}
}

// TokenReceipt 铸造或销毁代币的回执
type TokenReceipt struct {
	TxHash     cardano.TxHash `json:"transactionId"`
	Unit       cardano.Unit   `json:"unit"`
	Quantity   int64          `json:"quantity"`
	Recipients []string       `json:"recipients,omitempty"`
}
