package model

import (
	"time"
)

// CampaignModel 已知活动的索引，由动作与同步任务维护
type CampaignModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PolicyId        string    `json:"policy_id" gorm:"uniqueIndex;not null"`
	Name            string    `json:"name" gorm:"not null"`
	ScriptAddress   string    `json:"script_address" gorm:"not null"`
	CreatorPkh      string    `json:"creator_pkh" gorm:"index;not null"`
	PlatformPkh     string    `json:"platform_pkh" gorm:"not null"`
	NonceTxHash     string    `json:"nonce_tx_hash"`
	NonceIndex      int64     `json:"nonce_index"`
	GoalLovelace    int64     `json:"goal_lovelace" gorm:"not null"`
	SupportLovelace int64     `json:"support_lovelace" gorm:"default:0"`
	BackerCount     int64     `json:"backer_count" gorm:"default:0"`
	OrphanCount     int64     `json:"orphan_count" gorm:"default:0"`
	Deadline        time.Time `json:"deadline"`
	State           string    `json:"state" gorm:"index;default:'Running'"` // Running, Cancelled, Finished
	LastTxHash      string    `json:"last_tx_hash"`
	ObservedAt      time.Time `json:"observed_at"`
}

// TableName 自定义表名
func (CampaignModel) TableName() string {
	return "campaign"
}
