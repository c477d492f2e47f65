package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MiroslavRet/CF-RewardToken/internal/campaign"
	"github.com/MiroslavRet/CF-RewardToken/internal/ledger"
	"github.com/MiroslavRet/CF-RewardToken/internal/plutus"
)

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}

// FailureResponse 按错误类别选择状态码
func FailureResponse(c *gin.Context, err error) {
	ErrorResponse(c, StatusOf(err), err.Error())
}

// StatusOf 错误类别到 HTTP 状态码的映射
func StatusOf(err error) int {
	var apiErr *ledger.APIError
	switch {
	case errors.Is(err, campaign.ErrNotCreator), errors.Is(err, campaign.ErrNotPlatform):
		return http.StatusForbidden
	case errors.Is(err, campaign.ErrInvalidState), errors.Is(err, campaign.ErrBeforeDeadline):
		return http.StatusConflict
	case errors.Is(err, campaign.ErrPrecondition):
		return http.StatusBadRequest
	case errors.Is(err, campaign.ErrLookup):
		return http.StatusNotFound
	case errors.Is(err, plutus.ErrNoScript), errors.Is(err, ledger.ErrNoCostModels):
		return http.StatusServiceUnavailable
	case errors.As(err, &apiErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
