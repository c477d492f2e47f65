package logic

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/MiroslavRet/CF-RewardToken/internal/campaign"
	"github.com/MiroslavRet/CF-RewardToken/internal/cardano"
	"github.com/MiroslavRet/CF-RewardToken/internal/model"
)

// CampaignIndexLogic 活动索引
type CampaignIndexLogic struct {
	db *gorm.DB
}

// NewCampaignIndexLogic 创建活动索引业务逻辑
func NewCampaignIndexLogic(db *gorm.DB) *CampaignIndexLogic {
	return &CampaignIndexLogic{db: db}
}

// Upsert 按 policy id 写入快照摘要；lastTx 为空时保留原值
func (c *CampaignIndexLogic) Upsert(snap *campaign.Snapshot, lastTx cardano.TxHash) error {
	row := model.CampaignModel{
		PolicyId:        string(snap.PolicyID()),
		Name:            snap.Info.View.Name,
		ScriptAddress:   snap.Info.ScriptAddress,
		CreatorPkh:      string(snap.Info.Creator),
		PlatformPkh:     string(snap.Info.Platform),
		NonceTxHash:     string(snap.Info.Nonce.TxHash),
		NonceIndex:      int64(snap.Info.Nonce.Index),
		GoalLovelace:    int64(snap.Info.View.Goal.Lovelace),
		SupportLovelace: int64(snap.Support()),
		BackerCount:     int64(len(snap.Backers())),
		OrphanCount:     int64(len(snap.Orphans())),
		Deadline:        snap.Info.View.Deadline,
		State:           snap.State().String(),
		LastTxHash:      string(lastTx),
		ObservedAt:      snap.ObservedAt,
	}
	columns := []string{"name", "support_lovelace", "backer_count", "orphan_count", "state", "observed_at", "updated_at"}
	if lastTx != "" {
		columns = append(columns, "last_tx_hash")
	}
	if err := c.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "policy_id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(&row).Error; err != nil {
		return fmt.Errorf("更新活动索引失败: %w", err)
	}
	return nil
}

// GetCampaigns 分页获取活动索引；state 为空时不过滤
func (c *CampaignIndexLogic) GetCampaigns(state string, page, pageSize int) ([]model.CampaignModel, int64, error) {
	var campaigns []model.CampaignModel
	var total int64

	filter := func(db *gorm.DB) *gorm.DB {
		if state != "" {
			return db.Where("state = ?", state)
		}
		return db
	}
	if err := c.db.Model(&model.CampaignModel{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取活动总数失败: %w", err)
	}

	offset := (page - 1) * pageSize
	if err := c.db.Scopes(filter).
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&campaigns).Error; err != nil {
		return nil, 0, fmt.Errorf("获取活动列表失败: %w", err)
	}
	return campaigns, total, nil
}

// GetCampaign 获取单个活动索引
func (c *CampaignIndexLogic) GetCampaign(policy string) (*model.CampaignModel, error) {
	var row model.CampaignModel
	if err := c.db.Where("policy_id = ?", policy).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, campaign.Lookupf(campaign.ErrNoCampaign, "活动 %s 不在索引中", policy)
		}
		return nil, fmt.Errorf("获取活动失败: %w", err)
	}
	return &row, nil
}

// ActivePolicies 需要同步的活动：仍在运行，或地址上还有支持输出、孤立输出
func (c *CampaignIndexLogic) ActivePolicies() ([]cardano.PolicyID, error) {
	var policies []string
	if err := c.db.Model(&model.CampaignModel{}).
		Where("state = ? OR backer_count > 0 OR orphan_count > 0", campaign.Running.String()).
		Pluck("policy_id", &policies).Error; err != nil {
		return nil, fmt.Errorf("获取活动列表失败: %w", err)
	}
	out := make([]cardano.PolicyID, 0, len(policies))
	for _, p := range policies {
		out = append(out, cardano.PolicyID(p))
	}
	return out, nil
}
