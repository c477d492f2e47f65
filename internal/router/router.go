package router

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MiroslavRet/CF-RewardToken/internal/config"
	"github.com/MiroslavRet/CF-RewardToken/internal/handler"
)

// RequestIDHeader 请求关联 id
const RequestIDHeader = "X-Request-ID"

// Deps 路由依赖的业务逻辑
type Deps struct {
	Campaigns handler.Campaigns
	Index     handler.CampaignIndex
	Records   handler.Records
	Operator  handler.Operator
}

func Setup(deps Deps, cfg *config.Config) *gin.Engine {
	r := gin.Default()

	// 中间件
	r.Use(requestIDMiddleware())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "cf-reward-token",
			"network": cfg.Ledger.Network,
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API版本组
	v1 := r.Group("/api/v1")
	{
		campaignHandler := handler.NewCampaignHandler(deps.Campaigns, deps.Index)
		recordHandler := handler.NewRecordHandler(deps.Records)
		campaigns := v1.Group("/campaigns")
		{
			campaigns.GET("", campaignHandler.GetCampaigns)
			campaigns.POST("", campaignHandler.CreateCampaign)
			campaigns.GET("/:policy", campaignHandler.GetCampaign)
			campaigns.POST("/:policy/support", campaignHandler.Support)
			campaigns.POST("/:policy/cancel", campaignHandler.Cancel)
			campaigns.POST("/:policy/finish", campaignHandler.Finish)
			campaigns.POST("/:policy/refund", campaignHandler.Refund)
			campaigns.POST("/:policy/collect", campaignHandler.Collect)
			campaigns.POST("/:policy/collect-reward", campaignHandler.CollectAndReward)
			campaigns.POST("/:policy/finish-mint-burn", campaignHandler.FinishMintBurn)
			campaigns.POST("/:policy/claim-orphans", campaignHandler.ClaimOrphans)
			campaigns.GET("/:policy/settlements", recordHandler.GetSettlements)
			campaigns.GET("/:policy/rewards", recordHandler.GetRewards)
		}

		// 运维接口需要单独开启
		if cfg.Server.OperatorRoutes && deps.Operator != nil {
			operatorHandler := handler.NewOperatorHandler(deps.Operator)
			operator := v1.Group("/operator/campaigns")
			{
				operator.POST("/:policy/rerun", operatorHandler.Rerun)
				operator.POST("/:policy/force-cancel", operatorHandler.ForceCancel)
				operator.POST("/:policy/force-finish", operatorHandler.ForceFinish)
				operator.POST("/:policy/force-refund", operatorHandler.ForceRefund)
				operator.POST("/:policy/claim", operatorHandler.Claim)
			}
		}
	}

	return r
}

// requestIDMiddleware 透传或生成请求 id
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
			c.Request.Header.Set(RequestIDHeader, id)
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
