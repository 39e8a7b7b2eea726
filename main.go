package main

import (
	"culprit-hunt/internal/api/autoplay"
	"culprit-hunt/internal/config"
	"culprit-hunt/internal/logger"
	"culprit-hunt/internal/service"
	"culprit-hunt/internal/service/game"
	"culprit-hunt/internal/state"

	"go.uber.org/zap"
)

func main() {
	// 加载配置
	cfg := config.InitConfig()

	// 初始化日志器
	logger.InitLogger(cfg.LogLevel)
	defer zap.L().Sync()

	// 组装应用状态
	appState := state.NewAppState(
		cfg,
		service.NewTableService(service.TableOptions{
			Machine: game.MachineOptions{
				ViewTimeout:       cfg.ViewTimeout,
				AccusationTimeout: cfg.AccusationTimeout,
				ScaffoldRounds:    cfg.ScaffoldRounds,
			},
			RequestTimeout: cfg.RequestTimeout,
		}),
	)
	defer appState.Close()

	// 用脚本化的座位打完一个赛季
	result, err := autoplay.Run(appState, nil)
	if err != nil {
		zap.L().Fatal("自动对局失败", zap.Error(err))
	}

	zap.L().Info(
		"自动对局完成",
		zap.String("season_id", result.SeasonID),
		zap.Int("rounds", result.Rounds),
		zap.Int("badges", len(result.Badges)),
	)
}
