package logic

import (
	"time"

	"github.com/MiroslavRet/CF-RewardToken/internal/campaign"
	"github.com/MiroslavRet/CF-RewardToken/internal/cardano"
	"github.com/MiroslavRet/CF-RewardToken/internal/config"
	"github.com/MiroslavRet/CF-RewardToken/internal/logger"
	"github.com/MiroslavRet/CF-RewardToken/internal/plutus"
	"github.com/MiroslavRet/CF-RewardToken/internal/tx"
)

// Settings 每个动作都要用到的显式配置
type Settings struct {
	Network      cardano.Network
	Tokens       campaign.Tokens
	Platform     campaign.Platform
	Tx           tx.Params
	CostModelTTL time.Duration
}

// SettingsFromConfig 从配置构建；平台未配置时保留空值，由 Create 报告
func SettingsFromConfig(cfg *config.Config) (Settings, error) {
	network, err := cfg.Network()
	if err != nil {
		return Settings{}, err
	}
	platform, err := cfg.PlatformIdentity()
	if err != nil {
		logger.Warn("Platform identity not configured: %v", err)
		platform = campaign.Platform{}
	}
	return Settings{
		Network:  network,
		Tokens:   cfg.TokenNames(),
		Platform: platform,
		Tx: tx.Params{
			Network:     network,
			Fee:         cardano.Lovelace(cfg.Tx.Fee),
			MinOutput:   cardano.Lovelace(cfg.Tx.MinOutput),
			Collateral:  cardano.Lovelace(cfg.Tx.Collateral),
			SpendBudget: tx.ExUnits{Memory: cfg.Tx.SpendMemory, Steps: cfg.Tx.SpendSteps},
			MintBudget:  tx.ExUnits{Memory: cfg.Tx.MintMemory, Steps: cfg.Tx.MintSteps},
		},
		CostModelTTL: time.Duration(cfg.Tx.CostModelTTL) * time.Second,
	}, nil
}

// LoadScript 按配置加载未参数化的验证器：优先使用编译代码，否则读取蓝图
func LoadScript(cfg config.ScriptConfig) (plutus.Script, error) {
	if cfg.CompiledCode != "" {
		return plutus.NewScriptFromHex(plutus.PlutusV3, cfg.CompiledCode)
	}
	return plutus.LoadBlueprint(cfg.Blueprint, cfg.Title)
}
