package game

import (
	"fmt"

	"go.uber.org/zap"
)

// 状态机总体分为 5 个阶段：
// 1. 空闲阶段（Idle）：还没有开始赛季
// 2. 查看阶段（Viewing）：玩家轮流私下查看自己的身份
// 3. 指认阶段（Accusing）：四人都看过身份后，侦探在限定时间内指认嫌犯
// 4. 结算阶段（Resolved）：本轮已计分，等待进入下一轮
// 5. 结束阶段（Ended）：赛季暂停展示最终结果，可以恢复或重置
const (
	STAGE_IDLE     = "Idle"
	STAGE_VIEWING  = "Viewing"
	STAGE_ACCUSING = "Accusing"
	STAGE_RESOLVED = "Resolved"
	STAGE_ENDED    = "Ended"
)

type StageHandler interface {
	Stage() string

	OnEnter(ctx *GameContext)
	OnHandle(ctx *GameContext, req RequestWrapper) error
	OnExit(ctx *GameContext)

	SetOnSwitch(func(nextStage string))
}

// StageOf 根据赛季状态推导状态机所处的阶段
func StageOf(s *SeasonState) string {
	if !s.Started() {
		return STAGE_IDLE
	}

	if s.Ended {
		return STAGE_ENDED
	}

	switch s.CurrentRound().Phase() {
	case PHASE_ACCUSING:
		return STAGE_ACCUSING
	case PHASE_RESOLVED:
		return STAGE_RESOLVED
	default:
		return STAGE_VIEWING
	}
}

func switchIfNeeded(ctx *GameContext, onSwitch func(string)) {
	if next := StageOf(&ctx.Season); next != ctx.GameStage {
		onSwitch(next)
	}
}

// handleCommon 处理所有阶段都接受的请求，返回 true 表示请求已被处理
func handleCommon(ctx *GameContext, req RequestWrapper, onSwitch func(string)) (bool, error) {
	if IsRequest(req, REQ_SNAPSHOT) {
		ctx.SetReply(WrapResponse(RESP_SNAPSHOT, ctx.Snapshot()))
		return true, nil
	}

	if sreq := TryUnwrapStartSeasonRequest(req); sreq != nil {
		ctx.ClearTimeout()
		ctx.Viewing = nil
		ctx.Season = ctx.Tracker.StartSeason(sreq.Names, ctx.ScaffoldRounds)

		zap.L().Info(
			"赛季开始",
			zap.String("season_id", ctx.Season.ID),
			zap.Strings("names", ctx.Season.Names[:]),
		)

		switchIfNeeded(ctx, onSwitch)
		return true, nil
	}

	if IsRequest(req, REQ_RESET_SEASON) {
		ctx.ClearTimeout()
		ctx.Viewing = nil

		zap.L().Info("赛季重置", zap.String("season_id", ctx.Season.ID))

		ctx.Season = SeasonState{}
		switchIfNeeded(ctx, onSwitch)
		return true, nil
	}

	if tmo := TryUnwrapTimeoutRequest(req); tmo != nil && !ctx.IsCurrentTimeout(tmo) {
		zap.L().Debug(
			"丢弃过期的超时事件",
			zap.String("stage", tmo.Stage),
			zap.Int("round", tmo.Round),
		)
		return true, nil
	}

	return false, nil
}

func endSeason(ctx *GameContext, onSwitch func(string)) error {
	season, err := End(ctx.Season)
	if err != nil {
		return err
	}

	ctx.Season = season
	switchIfNeeded(ctx, onSwitch)

	return nil
}

// 空闲阶段，只接受开始赛季
type idleStageHandler struct {
	onSwitch func(string)
}

func NewIdleStageHandler() *idleStageHandler {
	return &idleStageHandler{}
}

func (ish *idleStageHandler) Stage() string {
	return STAGE_IDLE
}

func (ish *idleStageHandler) OnEnter(ctx *GameContext) {
	ctx.Viewing = nil
}

func (ish *idleStageHandler) OnHandle(ctx *GameContext, req RequestWrapper) error {
	if handled, err := handleCommon(ctx, req, ish.onSwitch); handled {
		return err
	}

	return ErrNoSeason
}

func (ish *idleStageHandler) OnExit(ctx *GameContext) {
}

func (ish *idleStageHandler) SetOnSwitch(onSwitch func(string)) {
	ish.onSwitch = onSwitch
}

// 查看阶段处理器
type viewStageHandler struct {
	onSwitch func(string)
}

func NewViewStageHandler() *viewStageHandler {
	return &viewStageHandler{}
}

func (vsh *viewStageHandler) Stage() string {
	return STAGE_VIEWING
}

func (vsh *viewStageHandler) OnEnter(ctx *GameContext) {
	ctx.Viewing = nil
}

func (vsh *viewStageHandler) OnHandle(ctx *GameContext, req RequestWrapper) error {
	if handled, err := handleCommon(ctx, req, vsh.onSwitch); handled {
		return err
	}

	if oreq := TryUnwrapOpenRoleRequest(req); oreq != nil {
		return vsh.openRole(ctx, oreq.PlayerID)
	}

	if vreq := TryUnwrapViewRoleRequest(req); vreq != nil {
		if ctx.Viewing != nil && *ctx.Viewing != vreq.PlayerID {
			return ErrRevealBusy
		}

		return vsh.acknowledge(ctx, vreq.PlayerID)
	}

	// 查看计时到期等同于玩家主动确认
	if tmo := TryUnwrapTimeoutRequest(req); tmo != nil {
		if tmo.PlayerID == nil || ctx.Viewing == nil || *tmo.PlayerID != *ctx.Viewing {
			return nil
		}

		zap.L().Debug(
			"查看身份超时，自动确认",
			zap.String("season_id", ctx.Season.ID),
			zap.Int("player_id", *tmo.PlayerID),
		)

		return vsh.acknowledge(ctx, *tmo.PlayerID)
	}

	if IsRequest(req, REQ_END_SEASON) {
		return endSeason(ctx, vsh.onSwitch)
	}

	return fmt.Errorf("%w：查看阶段不接受 %s 请求", ErrInvalidPhase, req.ReqType)
}

func (vsh *viewStageHandler) openRole(ctx *GameContext, playerID int) error {
	if !validPlayer(playerID) {
		return fmt.Errorf("%w：%d", ErrInvalidPlayer, playerID)
	}

	if ctx.Viewing != nil && *ctx.Viewing != playerID {
		return ErrRevealBusy
	}

	rs := ctx.Season.CurrentRound()
	if rs.Viewers[playerID] {
		return fmt.Errorf("%w：玩家 %d 已经查看过身份", ErrInvalidPhase, playerID)
	}

	// 同一玩家重复打开时沿用原有计时
	if ctx.Viewing == nil {
		ctx.Viewing = intPtr(playerID)
		ctx.SetTimeout(ctx.ViewTimeout, TimeoutRequest{
			Stage:    STAGE_VIEWING,
			Round:    rs.Number,
			PlayerID: intPtr(playerID),
		})
	}

	ctx.SetReply(WrapResponse(RESP_OPEN_ROLE, OpenRoleResponse{
		PlayerID:  playerID,
		Name:      ctx.Season.Names[playerID],
		Role:      rs.Players[playerID].Role,
		Round:     rs.Number,
		RoundType: rs.Type,
		Deadline:  ctx.Deadline,
	}))

	return nil
}

func (vsh *viewStageHandler) acknowledge(ctx *GameContext, playerID int) error {
	season, err := ctx.Tracker.ViewRole(ctx.Season, playerID)
	if err != nil {
		return err
	}

	ctx.Season = season

	if ctx.Viewing != nil && *ctx.Viewing == playerID {
		ctx.ClearTimeout()
		ctx.Viewing = nil
	}

	switchIfNeeded(ctx, vsh.onSwitch)

	return nil
}

func (vsh *viewStageHandler) OnExit(ctx *GameContext) {
	ctx.ClearTimeout()
	ctx.Viewing = nil
}

func (vsh *viewStageHandler) SetOnSwitch(onSwitch func(string)) {
	vsh.onSwitch = onSwitch
}

// 指认阶段处理器
type accuseStageHandler struct {
	onSwitch func(string)
}

func NewAccuseStageHandler() *accuseStageHandler {
	return &accuseStageHandler{}
}

func (ash *accuseStageHandler) Stage() string {
	return STAGE_ACCUSING
}

func (ash *accuseStageHandler) OnEnter(ctx *GameContext) {
	// 第四名玩家确认的同时开始指认计时
	ctx.SetTimeout(ctx.AccusationTimeout, TimeoutRequest{
		Stage: STAGE_ACCUSING,
		Round: ctx.CurrentRoundNumber(),
	})
}

func (ash *accuseStageHandler) OnHandle(ctx *GameContext, req RequestWrapper) error {
	if handled, err := handleCommon(ctx, req, ash.onSwitch); handled {
		return err
	}

	if areq := TryUnwrapAccuseRequest(req); areq != nil {
		return ash.resolve(ctx, func(s SeasonState) (SeasonState, []Event, error) {
			return ctx.Tracker.Accuse(s, areq.AccusedID)
		})
	}

	if IsRequest(req, REQ_TIMEOUT_ACCUSATION) || TryUnwrapTimeoutRequest(req) != nil {
		return ash.resolve(ctx, ctx.Tracker.TimeoutAccusation)
	}

	// 所有人都已看过身份，重复确认不产生变化
	if vreq := TryUnwrapViewRoleRequest(req); vreq != nil {
		season, err := ctx.Tracker.ViewRole(ctx.Season, vreq.PlayerID)
		if err != nil {
			return err
		}
		ctx.Season = season
		return nil
	}

	if IsRequest(req, REQ_END_SEASON) {
		return endSeason(ctx, ash.onSwitch)
	}

	return fmt.Errorf("%w：指认阶段不接受 %s 请求", ErrInvalidPhase, req.ReqType)
}

func (ash *accuseStageHandler) resolve(
	ctx *GameContext,
	apply func(SeasonState) (SeasonState, []Event, error),
) error {
	season, events, err := apply(ctx.Season)
	if err != nil {
		return err
	}

	ctx.Season = season
	ctx.ClearTimeout()
	ctx.BroadcastEvents(events)

	if len(events) > 0 && events[0].Resolution != nil {
		ctx.SetReply(WrapResponse(RESP_ROUND_RESOLVED, *events[0].Resolution))
	}

	switchIfNeeded(ctx, ash.onSwitch)

	return nil
}

func (ash *accuseStageHandler) OnExit(ctx *GameContext) {
	ctx.ClearTimeout()
}

func (ash *accuseStageHandler) SetOnSwitch(onSwitch func(string)) {
	ash.onSwitch = onSwitch
}

// 结算阶段处理器
type resolvedStageHandler struct {
	onSwitch func(string)
}

func NewResolvedStageHandler() *resolvedStageHandler {
	return &resolvedStageHandler{}
}

func (rsh *resolvedStageHandler) Stage() string {
	return STAGE_RESOLVED
}

func (rsh *resolvedStageHandler) OnEnter(ctx *GameContext) {
}

func (rsh *resolvedStageHandler) OnHandle(ctx *GameContext, req RequestWrapper) error {
	if handled, err := handleCommon(ctx, req, rsh.onSwitch); handled {
		return err
	}

	if IsRequest(req, REQ_ADVANCE_ROUND) {
		season, err := ctx.Tracker.Advance(ctx.Season)
		if err != nil {
			return err
		}

		ctx.Season = season

		zap.L().Info(
			"进入下一轮",
			zap.String("season_id", ctx.Season.ID),
			zap.Int("round", ctx.CurrentRoundNumber()),
		)

		switchIfNeeded(ctx, rsh.onSwitch)
		return nil
	}

	if IsRequest(req, REQ_END_SEASON) {
		return endSeason(ctx, rsh.onSwitch)
	}

	return fmt.Errorf("%w：本轮已结算，不接受 %s 请求", ErrInvalidPhase, req.ReqType)
}

func (rsh *resolvedStageHandler) OnExit(ctx *GameContext) {
}

func (rsh *resolvedStageHandler) SetOnSwitch(onSwitch func(string)) {
	rsh.onSwitch = onSwitch
}

// 结束阶段处理器
type endStageHandler struct {
	onSwitch func(string)
}

func NewEndStageHandler() *endStageHandler {
	return &endStageHandler{}
}

func (esh *endStageHandler) Stage() string {
	return STAGE_ENDED
}

func (esh *endStageHandler) OnEnter(ctx *GameContext) {
	winners, ok := Winners(ctx.Season)

	zap.L().Info(
		"赛季结束",
		zap.String("season_id", ctx.Season.ID),
		zap.Ints("winners", winners),
		zap.Bool("has_result", ok),
	)
}

func (esh *endStageHandler) OnHandle(ctx *GameContext, req RequestWrapper) error {
	if handled, err := handleCommon(ctx, req, esh.onSwitch); handled {
		return err
	}

	if IsRequest(req, REQ_RESUME_SEASON) {
		season, err := Resume(ctx.Season)
		if err != nil {
			return err
		}

		ctx.Season = season
		switchIfNeeded(ctx, esh.onSwitch)
		return nil
	}

	return fmt.Errorf("%w：赛季已结束，不接受 %s 请求", ErrInvalidPhase, req.ReqType)
}

func (esh *endStageHandler) OnExit(ctx *GameContext) {
}

func (esh *endStageHandler) SetOnSwitch(onSwitch func(string)) {
	esh.onSwitch = onSwitch
}
