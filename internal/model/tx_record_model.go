package model

import (
	"time"
)

// TxRecordModel 每个动作提交的交易
type TxRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PolicyId string `json:"policy_id" gorm:"index;not null"`
	Action   string `json:"action" gorm:"not null"`
	Caller   string `json:"caller"`
	TxHash   string `json:"tx_hash" gorm:"uniqueIndex;not null"`
	Fee      int64  `json:"fee"`
	Data     string `json:"data" gorm:"type:text"` // 结果的 JSON
	Observed bool   `json:"observed" gorm:"default:false"`
}

// TableName 自定义表名
func (TxRecordModel) TableName() string {
	return "tx_record"
}
