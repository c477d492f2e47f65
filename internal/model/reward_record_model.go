package model

import (
	"time"
)

// RewardRecordModel 奖励代币的铸造与支持代币的销毁
type RewardRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PolicyId   string   `json:"policy_id" gorm:"index;not null"`
	Action     string   `json:"action" gorm:"not null"`
	TxHash     string   `json:"tx_hash" gorm:"uniqueIndex;not null"`
	BurnedUnit string   `json:"burned_unit"`
	Burned     int64    `json:"burned" gorm:"default:0"`
	MintedUnit string   `json:"minted_unit"`
	Minted     int64    `json:"minted" gorm:"default:0"`
	Recipients []string `json:"recipients" gorm:"serializer:json"`
}

// TableName 自定义表名
func (RewardRecordModel) TableName() string {
	return "reward_record"
}
