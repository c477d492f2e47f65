package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MiroslavRet/CF-RewardToken/internal/cardano"
	"github.com/MiroslavRet/CF-RewardToken/internal/model"
)

// Records 结算与奖励记录查询，由 logic.RecordLogic 实现
type Records interface {
	GetSettlements(policy string, page, pageSize int) ([]model.SettlementRecordModel, int64, error)
	GetRewards(policy string, page, pageSize int) ([]model.RewardRecordModel, int64, error)
	GetSettledTotal(policy string) (cardano.Lovelace, error)
}

// RecordHandler 记录处理器
type RecordHandler struct {
	records Records
}

// NewRecordHandler 创建记录处理器
func NewRecordHandler(records Records) *RecordHandler {
	return &RecordHandler{records: records}
}

// GetSettlements 获取活动结算记录
func (h *RecordHandler) GetSettlements(c *gin.Context) {
	policy := c.Param("policy")
	page, pageSize := pageParams(c)

	records, total, err := h.records.GetSettlements(policy, page, pageSize)
	if err != nil {
		FailureResponse(c, err)
		return
	}
	settled, err := h.records.GetSettledTotal(policy)
	if err != nil {
		FailureResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取结算记录成功", GetSettlementsResponse{
		Settlements: ToSettlementRecordResponseList(records),
		Total:       cardano.FormatADA(settled),
		Pagination:  newPagination(page, pageSize, total),
	})
}

// GetRewards 获取活动奖励记录
func (h *RecordHandler) GetRewards(c *gin.Context) {
	page, pageSize := pageParams(c)
	records, total, err := h.records.GetRewards(c.Param("policy"), page, pageSize)
	if err != nil {
		FailureResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取奖励记录成功", GetRewardsResponse{
		Rewards:    ToRewardRecordResponseList(records),
		Pagination: newPagination(page, pageSize, total),
	})
}
