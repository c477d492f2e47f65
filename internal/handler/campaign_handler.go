package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/MiroslavRet/CF-RewardToken/internal/campaign"
	"github.com/MiroslavRet/CF-RewardToken/internal/cardano"
	"github.com/MiroslavRet/CF-RewardToken/internal/lifecycle"
	"github.com/MiroslavRet/CF-RewardToken/internal/model"
)

// Campaigns 活动工作流，由 logic.CampaignLogic 实现
type Campaigns interface {
	Get(ctx context.Context, policy cardano.PolicyID) (*campaign.Snapshot, error)
	Create(ctx context.Context, p lifecycle.CreateParams) (*lifecycle.Outcome, error)
	Support(ctx context.Context, policy cardano.PolicyID, amount cardano.Lovelace) (*lifecycle.Outcome, error)
	Cancel(ctx context.Context, policy cardano.PolicyID, by campaign.Authority) (*lifecycle.Outcome, error)
	Finish(ctx context.Context, policy cardano.PolicyID, by campaign.Authority) (*lifecycle.Outcome, error)
	Refund(ctx context.Context, policy cardano.PolicyID, scope campaign.Scope) (*lifecycle.Outcome, error)
	Collect(ctx context.Context, policy cardano.PolicyID, scope campaign.Scope) (*lifecycle.Outcome, error)
	CollectAndReward(ctx context.Context, policy cardano.PolicyID, scope campaign.Scope) (*lifecycle.Outcome, error)
	FinishMintBurn(ctx context.Context, policy cardano.PolicyID, scope campaign.Scope) (*lifecycle.Outcome, error)
	ClaimOrphans(ctx context.Context, policy cardano.PolicyID, target *cardano.OutRef) (*lifecycle.Outcome, error)
}

// CampaignIndex 活动索引查询
type CampaignIndex interface {
	GetCampaigns(state string, page, pageSize int) ([]model.CampaignModel, int64, error)
}

// CampaignHandler 活动处理器
type CampaignHandler struct {
	campaigns Campaigns
	index     CampaignIndex
}

// NewCampaignHandler 创建活动处理器
func NewCampaignHandler(campaigns Campaigns, index CampaignIndex) *CampaignHandler {
	return &CampaignHandler{campaigns: campaigns, index: index}
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	return page, pageSize
}

func policyParam(c *gin.Context) cardano.PolicyID {
	return cardano.PolicyID(c.Param("policy"))
}

// bindAction 请求体可以为空
func bindAction(c *gin.Context) (ActionRequest, bool) {
	var req ActionRequest
	if c.Request.ContentLength == 0 {
		return req, true
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return req, false
	}
	return req, true
}

func (h *CampaignHandler) respond(c *gin.Context, out *lifecycle.Outcome, err error) {
	if err != nil {
		FailureResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "交易已提交", out)
}

// GetCampaigns 获取活动索引列表
func (h *CampaignHandler) GetCampaigns(c *gin.Context) {
	state := c.Query("state")
	if state != "" {
		s, err := campaign.ParseState(state)
		if err != nil {
			ErrorResponse(c, http.StatusBadRequest, "无效的活动状态")
			return
		}
		state = s.String()
	}
	page, pageSize := pageParams(c)

	rows, total, err := h.index.GetCampaigns(state, page, pageSize)
	if err != nil {
		FailureResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取活动列表成功", GetCampaignsResponse{
		Campaigns:  ToCampaignResponseList(rows),
		Pagination: newPagination(page, pageSize, total),
	})
}

// GetCampaign 重新投影活动，账本不可用时返回缓存
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	snap, err := h.campaigns.Get(c.Request.Context(), policyParam(c))
	if err != nil {
		FailureResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取活动成功", snap)
}

// CreateCampaign 创建活动，服务钱包为创建者
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	var req CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	goal, err := cardano.ParseADA(req.Goal)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的目标金额: "+err.Error())
		return
	}

	out, err := h.campaigns.Create(c.Request.Context(), lifecycle.CreateParams{Name: req.Name, Goal: goal, Deadline: req.Deadline})
	if err != nil {
		FailureResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "活动创建成功", out)
}

// Support 支持活动
func (h *CampaignHandler) Support(c *gin.Context) {
	req, ok := bindAction(c)
	if !ok {
		return
	}
	amount, err := cardano.ParseADA(req.Ada)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的支持金额: "+err.Error())
		return
	}
	out, err := h.campaigns.Support(c.Request.Context(), policyParam(c), amount)
	h.respond(c, out, err)
}

// authorityAction 取消与结束共用
func (h *CampaignHandler) authorityAction(run func(ctx context.Context, policy cardano.PolicyID, by campaign.Authority) (*lifecycle.Outcome, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, ok := bindAction(c)
		if !ok {
			return
		}
		by, err := campaign.ParseAuthority(req.Authority)
		if err != nil {
			ErrorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		out, err := run(c.Request.Context(), policyParam(c), by)
		h.respond(c, out, err)
	}
}

// scopeAction 退款、收款与奖励共用
func (h *CampaignHandler) scopeAction(run func(ctx context.Context, policy cardano.PolicyID, scope campaign.Scope) (*lifecycle.Outcome, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, ok := bindAction(c)
		if !ok {
			return
		}
		scope, err := campaign.ParseScope(req.Scope)
		if err != nil {
			ErrorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		out, err := run(c.Request.Context(), policyParam(c), scope)
		h.respond(c, out, err)
	}
}

// Cancel 取消活动
func (h *CampaignHandler) Cancel(c *gin.Context) { h.authorityAction(h.campaigns.Cancel)(c) }

// Finish 结束活动
func (h *CampaignHandler) Finish(c *gin.Context) { h.authorityAction(h.campaigns.Finish)(c) }

// Refund 退款
func (h *CampaignHandler) Refund(c *gin.Context) { h.scopeAction(h.campaigns.Refund)(c) }

// Collect 收款
func (h *CampaignHandler) Collect(c *gin.Context) { h.scopeAction(h.campaigns.Collect)(c) }

// CollectAndReward 收款并发放奖励代币
func (h *CampaignHandler) CollectAndReward(c *gin.Context) {
	h.scopeAction(h.campaigns.CollectAndReward)(c)
}

// FinishMintBurn 销毁支持代币并铸造奖励代币
func (h *CampaignHandler) FinishMintBurn(c *gin.Context) {
	h.scopeAction(h.campaigns.FinishMintBurn)(c)
}

// ClaimOrphans 领取孤立输出，可指定单个 outRef
func (h *CampaignHandler) ClaimOrphans(c *gin.Context) {
	req, ok := bindAction(c)
	if !ok {
		return
	}
	var target *cardano.OutRef
	if req.OutRef != "" {
		ref, err := cardano.ParseOutRef(req.OutRef)
		if err != nil {
			ErrorResponse(c, http.StatusBadRequest, "无效的 outRef: "+err.Error())
			return
		}
		target = &ref
	}
	out, err := h.campaigns.ClaimOrphans(c.Request.Context(), policyParam(c), target)
	h.respond(c, out, err)
}
