package logic

import (
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/MiroslavRet/CF-RewardToken/internal/cardano"
	"github.com/MiroslavRet/CF-RewardToken/internal/lifecycle"
	"github.com/MiroslavRet/CF-RewardToken/internal/model"
)

// RecordLogic 交易、结算与奖励记录
type RecordLogic struct {
	db *gorm.DB
}

// NewRecordLogic 创建记录业务逻辑
func NewRecordLogic(db *gorm.DB) *RecordLogic {
	return &RecordLogic{db: db}
}

// SaveOutcome 在一个事务里保存动作结果的全部记录
func (r *RecordLogic) SaveOutcome(policy cardano.PolicyID, caller string, fee cardano.Lovelace, out lifecycle.Outcome) error {
	if out.TxHash == "" {
		return errors.New("交易哈希不能为空")
	}
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("序列化动作结果失败: %w", err)
	}

	return r.db.Transaction(func(db *gorm.DB) error {
		txRecord := model.TxRecordModel{
			PolicyId: string(policy),
			Action:   string(out.Action),
			Caller:   caller,
			TxHash:   string(out.TxHash),
			Fee:      int64(fee),
			Data:     string(data),
		}
		if err := db.Create(&txRecord).Error; err != nil {
			return fmt.Errorf("创建交易记录失败: %w", err)
		}

		for _, s := range out.Settlements {
			rec := model.SettlementRecordModel{
				PolicyId:  string(policy),
				Action:    string(out.Action),
				TxHash:    string(s.TxHash),
				Recipient: s.Recipient,
				Lovelace:  int64(s.Lovelace),
				Ada:       s.ADA,
			}
			if err := db.Create(&rec).Error; err != nil {
				return fmt.Errorf("创建结算记录失败: %w", err)
			}
		}

		if out.Burned != nil || out.Minted != nil {
			rec := model.RewardRecordModel{
				PolicyId: string(policy),
				Action:   string(out.Action),
				TxHash:   string(out.TxHash),
			}
			if out.Burned != nil {
				rec.BurnedUnit = string(out.Burned.Unit)
				rec.Burned = out.Burned.Quantity
			}
			if out.Minted != nil {
				rec.MintedUnit = string(out.Minted.Unit)
				rec.Minted = out.Minted.Quantity
				rec.Recipients = out.Minted.Recipients
			}
			if err := db.Create(&rec).Error; err != nil {
				return fmt.Errorf("创建奖励记录失败: %w", err)
			}
		}
		return nil
	})
}

// GetSettlements 分页获取活动的结算记录
func (r *RecordLogic) GetSettlements(policy string, page, pageSize int) ([]model.SettlementRecordModel, int64, error) {
	var records []model.SettlementRecordModel
	var total int64

	if err := r.db.Model(&model.SettlementRecordModel{}).Where("policy_id = ?", policy).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取结算记录总数失败: %w", err)
	}

	offset := (page - 1) * pageSize
	if err := r.db.Where("policy_id = ?", policy).
		Order("id DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("获取结算记录失败: %w", err)
	}
	return records, total, nil
}

// GetRewards 分页获取活动的奖励记录
func (r *RecordLogic) GetRewards(policy string, page, pageSize int) ([]model.RewardRecordModel, int64, error) {
	var records []model.RewardRecordModel
	var total int64

	if err := r.db.Model(&model.RewardRecordModel{}).Where("policy_id = ?", policy).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取奖励记录总数失败: %w", err)
	}

	offset := (page - 1) * pageSize
	if err := r.db.Where("policy_id = ?", policy).
		Order("id DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("获取奖励记录失败: %w", err)
	}
	return records, total, nil
}

// GetSettledTotal 活动累计结算金额
func (r *RecordLogic) GetSettledTotal(policy string) (cardano.Lovelace, error) {
	var total int64
	if err := r.db.Model(&model.SettlementRecordModel{}).
		Where("policy_id = ?", policy).
		Select("COALESCE(SUM(lovelace), 0)").
		Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("获取结算总额失败: %w", err)
	}
	return cardano.Lovelace(total), nil
}

// MarkObserved 把在链上看到的交易标记为已确认
func (r *RecordLogic) MarkObserved(policy string, hashes []string) (int64, error) {
	if len(hashes) == 0 {
		return 0, nil
	}
	res := r.db.Model(&model.TxRecordModel{}).
		Where("policy_id = ? AND observed = ? AND tx_hash IN ?", policy, false, hashes).
		Update("observed", true)
	if res.Error != nil {
		return 0, fmt.Errorf("更新交易确认状态失败: %w", res.Error)
	}
	return res.RowsAffected, nil
}
