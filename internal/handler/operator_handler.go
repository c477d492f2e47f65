package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MiroslavRet/CF-RewardToken/internal/cardano"
	"github.com/MiroslavRet/CF-RewardToken/internal/lifecycle"
)

// Operator 运维特权动作，由 logic.OperatorLogic 实现
type Operator interface {
	Rerun(ctx context.Context, policy cardano.PolicyID, tag *uint64) (*lifecycle.Outcome, error)
	ForceCancel(ctx context.Context, policy cardano.PolicyID) (*lifecycle.Outcome, error)
	ForceFinish(ctx context.Context, policy cardano.PolicyID) (*lifecycle.Outcome, error)
	ForceRefund(ctx context.Context, policy cardano.PolicyID) (*lifecycle.Outcome, error)
	Claim(ctx context.Context, policy cardano.PolicyID, ref cardano.OutRef) (*lifecycle.Outcome, error)
}

// OperatorHandler 运维处理器
type OperatorHandler struct {
	operator Operator
}

// NewOperatorHandler 创建运维处理器
func NewOperatorHandler(operator Operator) *OperatorHandler {
	return &OperatorHandler{operator: operator}
}

func (h *OperatorHandler) respond(c *gin.Context, out *lifecycle.Outcome, err error) {
	if err != nil {
		FailureResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "交易已提交", out)
}

// Rerun 把活动改回运行中
func (h *OperatorHandler) Rerun(c *gin.Context) {
	var req RerunRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			ErrorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
	}
	out, err := h.operator.Rerun(c.Request.Context(), policyParam(c), req.Tag)
	h.respond(c, out, err)
}

func (h *OperatorHandler) forced(run func(ctx context.Context, policy cardano.PolicyID) (*lifecycle.Outcome, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := run(c.Request.Context(), policyParam(c))
		h.respond(c, out, err)
	}
}

// ForceCancel 强制取消
func (h *OperatorHandler) ForceCancel(c *gin.Context) { h.forced(h.operator.ForceCancel)(c) }

// ForceFinish 强制结束
func (h *OperatorHandler) ForceFinish(c *gin.Context) { h.forced(h.operator.ForceFinish)(c) }

// ForceRefund 强制退款
func (h *OperatorHandler) ForceRefund(c *gin.Context) { h.forced(h.operator.ForceRefund)(c) }

// Claim 领取指定输出
func (h *OperatorHandler) Claim(c *gin.Context) {
	req, ok := bindAction(c)
	if !ok {
		return
	}
	ref, err := cardano.ParseOutRef(req.OutRef)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的 outRef: "+err.Error())
		return
	}
	out, err := h.operator.Claim(c.Request.Context(), policyParam(c), ref)
	h.respond(c, out, err)
}
