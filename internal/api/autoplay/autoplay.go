package autoplay

import (
	"fmt"
	"math/rand/v2"

	"culprit-hunt/internal/service/dto"
	"culprit-hunt/internal/service/game"
	"culprit-hunt/internal/state"

	"go.uber.org/zap"
)

// 侦探犹豫不决、让指认计时耗尽的概率
const HESITATION_RATE = 0.1

type Result struct {
	SeasonID string           `json:"season_id"`
	Rounds   int              `json:"rounds"`
	Winners  []dto.PlayerView `json:"winners"`
	Badges   []dto.BadgeView  `json:"badges"`
}

// Run 用脚本化的座位代替真人，在同一张桌子上连续打若干轮并记录所有通知。
// 它是一个演示用的驱动层，只通过 TableService 的命令和查询与核心交互。
func Run(appState *state.AppState, rng *rand.Rand) (Result, error) {
	table := appState.TableSvc
	rounds := appState.Cfg.AutoplayRounds

	if rng == nil {
		rng = game.NewRand()
	}

	if err := table.StartSeason(appState.Cfg.Names()); err != nil {
		return Result{}, fmt.Errorf("开始赛季失败: %w", err)
	}

	for r := 1; r <= rounds; r++ {
		if err := playRound(table, rng); err != nil {
			return Result{}, fmt.Errorf("第 %d 轮失败: %w", r, err)
		}

		drainEvents(table.Events())

		if r < rounds {
			if err := table.AdvanceRound(); err != nil {
				return Result{}, fmt.Errorf("进入第 %d 轮失败: %w", r+1, err)
			}
		}
	}

	if rounds > 0 {
		if err := table.EndSeason(); err != nil {
			return Result{}, fmt.Errorf("结束赛季失败: %w", err)
		}
	}

	drainEvents(table.Events())

	snap, err := table.Snapshot()
	if err != nil {
		return Result{}, err
	}

	winners, err := table.Winners()
	if err != nil {
		return Result{}, err
	}

	badges, err := table.Badges()
	if err != nil {
		return Result{}, err
	}

	for _, w := range winners {
		zap.S().Infof("赢家：%s（%d 分）", w.Name, w.Total)
	}

	for _, b := range badges {
		zap.S().Infof("徽章 %s：%s", b.Title, b.PlayerName)
	}

	return Result{
		SeasonID: snap.SeasonID,
		Rounds:   rounds,
		Winners:  winners,
		Badges:   badges,
	}, nil
}

type tableService interface {
	OpenRole(playerID int) (dto.RoleView, error)
	ViewRole(playerID int) error
	Accuse(accusedID int) error
	TimeoutAccusation() error
	Snapshot() (dto.SeasonSnapshot, error)
}

func playRound(table tableService, rng *rand.Rand) error {
	// 四名玩家轮流拿起设备查看身份
	for p := range game.PLAYER_COUNT {
		view, err := table.OpenRole(p)
		if err != nil {
			return err
		}

		zap.L().Debug(
			"玩家查看身份",
			zap.Int("round", view.Round),
			zap.String("name", view.Name),
		)

		if err := table.ViewRole(p); err != nil {
			return err
		}
	}

	snap, err := table.Snapshot()
	if err != nil {
		return err
	}

	if snap.Stage != game.STAGE_ACCUSING {
		return fmt.Errorf("%w：期望进入指认阶段，实际为 %s", game.ErrInvalidPhase, snap.Stage)
	}

	suspects := Suspects(snap)
	if len(suspects) != 2 {
		return fmt.Errorf("%w：嫌疑人数量为 %d", game.ErrInvalidRole, len(suspects))
	}

	if rng.Float64() < HESITATION_RATE {
		return table.TimeoutAccusation()
	}

	return table.Accuse(suspects[rng.IntN(len(suspects))])
}

// Suspects 返回指认阶段身份未公开的两名玩家
func Suspects(snap dto.SeasonSnapshot) []int {
	suspects := make([]int, 0, 2)
	for _, p := range snap.Players {
		if p.Role == "" {
			suspects = append(suspects, p.ID)
		}
	}

	return suspects
}

func drainEvents(events <-chan game.ResponseWrapper) {
	for {
		select {
		case ev := <-events:
			logEvent(ev)
		default:
			return
		}
	}
}

func logEvent(ev game.ResponseWrapper) {
	switch data := ev.Data.(type) {
	case game.Resolution:
		zap.L().Info(
			"本轮结算",
			zap.Int("round", data.Round),
			zap.String("outcome", string(data.Outcome)),
			zap.Int("culprit", data.Culprit),
			zap.Ints("scores", data.Scores[:]),
		)
	case game.StreakBonusEvent:
		zap.L().Info(
			"侦探连续三次指认正确",
			zap.Int("player_id", data.PlayerID),
			zap.Int("bonus", data.Bonus),
		)
	case game.BadgeEvent:
		zap.L().Info(
			"获得徽章",
			zap.String("badge", string(data.Kind)),
			zap.Int("player_id", data.PlayerID),
			zap.String("flavor_key", data.FlavorKey),
		)
	case game.StageChangeResponse:
		zap.L().Debug(
			"阶段变化",
			zap.String("stage", data.Stage),
			zap.Int("round", data.Round),
		)
	default:
		zap.L().Debug("未知通知", zap.String("response_type", ev.RespType))
	}
}
