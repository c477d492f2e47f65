package handler

import (
	"time"

	"github.com/MiroslavRet/CF-RewardToken/internal/cardano"
	"github.com/MiroslavRet/CF-RewardToken/internal/model"
)

// 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// 分页信息结构
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"totalPage"`
}

func newPagination(page, pageSize int, total int64) Pagination {
	return Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
}

// 请求模型

// CreateCampaignRequest 创建活动，目标金额为 ADA 字符串
type CreateCampaignRequest struct {
	Name     string    `json:"name" binding:"required"`
	Goal     string    `json:"goal" binding:"required"`
	Deadline time.Time `json:"deadline" binding:"required"`
}

// ActionRequest 活动动作的可选参数
type ActionRequest struct {
	Scope     string `json:"scope"`     // self 或 platform
	Authority string `json:"authority"` // creator 或 platform
	Ada       string `json:"ada"`
	OutRef    string `json:"outRef"` // txhash#index
}

// RerunRequest 重启活动
type RerunRequest struct {
	Tag *uint64 `json:"tag"`
}

// 活动相关响应模型

// CampaignResponse 活动索引响应模型
type CampaignResponse struct {
	PolicyID      string    `json:"policyId"`
	Name          string    `json:"name"`
	ScriptAddress string    `json:"scriptAddress"`
	Creator       string    `json:"creator"`
	Platform      string    `json:"platform"`
	Goal          string    `json:"goal"`
	Support       string    `json:"support"`
	Backers       int64     `json:"backers"`
	Orphans       int64     `json:"orphans"`
	Deadline      time.Time `json:"deadline"`
	State         string    `json:"state"`
	LastTxHash    string    `json:"lastTxHash,omitempty"`
	ObservedAt    time.Time `json:"observedAt"`
}

// GetCampaignsResponse 活动列表
type GetCampaignsResponse struct {
	Campaigns  []CampaignResponse `json:"campaigns"`
	Pagination Pagination         `json:"pagination"`
}

// SettlementRecordResponse 结算记录响应模型
type SettlementRecordResponse struct {
	ID        int64     `json:"id"`
	Action    string    `json:"action"`
	TxHash    string    `json:"txHash"`
	Recipient string    `json:"recipient"`
	Lovelace  int64     `json:"lovelace"`
	Ada       string    `json:"ada"`
	CreatedAt time.Time `json:"createdAt"`
}

// GetSettlementsResponse 活动结算记录
type GetSettlementsResponse struct {
	Settlements []SettlementRecordResponse `json:"settlements"`
	Total       string                     `json:"total"`
	Pagination  Pagination                 `json:"pagination"`
}

// RewardRecordResponse 奖励记录响应模型
type RewardRecordResponse struct {
	ID         int64     `json:"id"`
	Action     string    `json:"action"`
	TxHash     string    `json:"txHash"`
	BurnedUnit string    `json:"burnedUnit,omitempty"`
	Burned     int64     `json:"burned"`
	MintedUnit string    `json:"mintedUnit,omitempty"`
	Minted     int64     `json:"minted"`
	Recipients []string  `json:"recipients"`
	CreatedAt  time.Time `json:"createdAt"`
}

// GetRewardsResponse 活动奖励记录
type GetRewardsResponse struct {
	Rewards    []RewardRecordResponse `json:"rewards"`
	Pagination Pagination             `json:"pagination"`
}

// 转换函数

// ToCampaignResponse 将数据库模型转换为响应模型
func ToCampaignResponse(m *model.CampaignModel) CampaignResponse {
	return CampaignResponse{
		PolicyID:      m.PolicyId,
		Name:          m.Name,
		ScriptAddress: m.ScriptAddress,
		Creator:       m.CreatorPkh,
		Platform:      m.PlatformPkh,
		Goal:          cardano.FormatADA(cardano.Lovelace(m.GoalLovelace)),
		Support:       cardano.FormatADA(cardano.Lovelace(m.SupportLovelace)),
		Backers:       m.BackerCount,
		Orphans:       m.OrphanCount,
		Deadline:      m.Deadline,
		State:         m.State,
		LastTxHash:    m.LastTxHash,
		ObservedAt:    m.ObservedAt,
	}
}

// ToCampaignResponseList 将数据库模型列表转换为响应模型列表
func ToCampaignResponseList(rows []model.CampaignModel) []CampaignResponse {
	result := make([]CampaignResponse, len(rows))
	for i := range rows {
		result[i] = ToCampaignResponse(&rows[i])
	}
	return result
}

// ToSettlementRecordResponseList 将结算记录列表转换为响应模型
func ToSettlementRecordResponseList(records []model.SettlementRecordModel) []SettlementRecordResponse {
	result := make([]SettlementRecordResponse, len(records))
	for i, r := range records {
		result[i] = SettlementRecordResponse{
			ID:        r.Id,
			Action:    r.Action,
			TxHash:    r.TxHash,
			Recipient: r.Recipient,
			Lovelace:  r.Lovelace,
			Ada:       r.Ada,
			CreatedAt: r.CreatedAt,
		}
	}
	return result
}

// ToRewardRecordResponseList 将奖励记录列表转换为响应模型
func ToRewardRecordResponseList(records []model.RewardRecordModel) []RewardRecordResponse {
	result := make([]RewardRecordResponse, len(records))
	for i, r := range records {
		result[i] = RewardRecordResponse{
			ID:         r.Id,
			Action:     r.Action,
			TxHash:     r.TxHash,
			BurnedUnit: r.BurnedUnit,
			Burned:     r.Burned,
			MintedUnit: r.MintedUnit,
			Minted:     r.Minted,
			Recipients: r.Recipients,
			CreatedAt:  r.CreatedAt,
		}
	}
	return result
}
