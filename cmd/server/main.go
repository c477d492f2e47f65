package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MiroslavRet/CF-RewardToken/internal/cache"
	"github.com/MiroslavRet/CF-RewardToken/internal/config"
	"github.com/MiroslavRet/CF-RewardToken/internal/ledger"
	"github.com/MiroslavRet/CF-RewardToken/internal/logger"
	"github.com/MiroslavRet/CF-RewardToken/internal/logic"
	"github.com/MiroslavRet/CF-RewardToken/internal/metrics"
	"github.com/MiroslavRet/CF-RewardToken/internal/repository"
	"github.com/MiroslavRet/CF-RewardToken/internal/router"
	"github.com/MiroslavRet/CF-RewardToken/internal/submit"
	"github.com/MiroslavRet/CF-RewardToken/internal/task"
	"github.com/MiroslavRet/CF-RewardToken/internal/wallet"
)

func main() {
	configFile := flag.String("config", "", "配置文件路径")
	flag.Parse()

	// 加载配置
	cfg, err := config.LoadFile(*configFile)
	if err != nil {
		logger.Fatal("Unable to load config: %v", err)
	}
	if err := logger.Init(cfg.Log); err != nil {
		logger.Fatal("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	settings, err := logic.SettingsFromConfig(cfg)
	if err != nil {
		logger.Fatal("Invalid configuration: %v", err)
	}
	script, err := logic.LoadScript(cfg.Script)
	if err != nil {
		logger.Warn("Validator script unavailable, campaign actions disabled: %v", err)
	}

	// 初始化数据库
	db, err := repository.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	var snapshots *cache.SnapshotCache
	if cfg.Cache.Enabled {
		snapshots, err = cache.Open(cfg.Cache.Path)
		if err != nil {
			logger.Fatal("Failed to open snapshot cache: %v", err)
		}
		defer snapshots.Close()
	}

	// 初始化 Koios 客户端
	provider := ledger.NewKoiosClient(ledger.KoiosConfig{
		BaseURL:   cfg.Ledger.URL,
		APIKey:    cfg.Ledger.APIKey,
		RateLimit: cfg.Ledger.RateLimit,
		Burst:     cfg.Ledger.Burst,
		Timeout:   time.Duration(cfg.Ledger.Timeout) * time.Second,
	}, nil)

	var w wallet.Wallet = wallet.Disconnected{}
	if cfg.Wallet.SigningKey != "" {
		kw, err := wallet.NewKeyWallet(settings.Network, cfg.Wallet.SigningKey, cfg.Wallet.StakeKey, provider)
		if err != nil {
			logger.Fatal("Failed to load service wallet: %v", err)
		}
		logger.Info("Service wallet %s on %s", kw.Connection().Address, settings.Network)
		w = kw
	} else {
		logger.Warn("No signing key configured, running read-only")
	}

	records := logic.NewRecordLogic(db)
	index := logic.NewCampaignIndexLogic(db)
	campaigns := logic.NewCampaignLogic(settings, logic.Deps{
		Provider:  provider,
		Wallet:    w,
		Submitter: submit.NewLedgerSubmitter(provider),
		Script:    script,
		Records:   records,
		Index:     index,
		Cache:     snapshots,
		Metrics:   metrics.Campaign(),
	})

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	deps := router.Deps{Campaigns: campaigns, Index: index, Records: records}
	if cfg.Server.OperatorRoutes {
		logger.Warn("Operator routes enabled")
		deps.Operator = logic.NewOperatorLogic(campaigns)
	}
	r := router.Setup(deps, cfg)

	// 启动定时任务
	if cfg.Task.Enabled {
		job := task.NewCampaignSyncJob(campaigns, index, records, metrics.Campaign(), cfg.SyncInterval(), cfg.Task.PoolSize)
		manager, err := task.Start(job)
		if err != nil {
			logger.Fatal("Failed to start task manager: %v", err)
		}
		defer manager.Stop()
	}

	// 启动服务器
	srv := &http.Server{
		Addr:     ":" + cfg.Server.Port,
		Handler:  r,
		ErrorLog: zap.NewStdLog(logger.GetDefaultZapLogger()),
	}
	go func() {
		logger.Info("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown failed: %v", err)
	}
	logger.Info("Server stopped")
}
