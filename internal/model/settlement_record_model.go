package model

import (
	"time"
)

// SettlementRecordModel 一笔结算付给某个接收方的金额
type SettlementRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PolicyId  string `json:"policy_id" gorm:"index;not null"`
	Action    string `json:"action" gorm:"not null"` // refund, collect, collect_reward ...
	TxHash    string `json:"tx_hash" gorm:"index;not null"`
	Recipient string `json:"recipient" gorm:"index;not null"`
	Lovelace  int64  `json:"lovelace" gorm:"not null"`
	Ada       string `json:"ada"`
}

// TableName 自定义表名
func (SettlementRecordModel) TableName() string {
	return "settlement_record"
}
