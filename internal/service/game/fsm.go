package game

import (
	"time"

	"go.uber.org/zap"
)

type MachineOptions struct {
	Tracker   *SeasonTracker
	Scheduler Scheduler

	ViewTimeout       time.Duration
	AccusationTimeout time.Duration
	ScaffoldRounds    int
}

// GameMachine 是游戏状态机，负责管理赛季状态和事件循环。
// 所有状态变化都发生在事件循环所在的协程中。
type GameMachine struct {
	ctx     *GameContext
	handler StageHandler
	// 这是所有玩家操作汇总的通道
	reqCh chan RequestWrapper
	// 结束通道，用于通知游戏状态机退出事件循环
	doneCh chan struct{}
}

func NewGameMachine(opts MachineOptions, doneCh chan struct{}) *GameMachine {
	if opts.Tracker == nil {
		opts.Tracker = NewSeasonTracker(nil)
	}
	if opts.Scheduler == nil {
		opts.Scheduler = RealScheduler()
	}
	if opts.ViewTimeout <= 0 {
		opts.ViewTimeout = DEFAULT_VIEW_TIMEOUT
	}
	if opts.AccusationTimeout <= 0 {
		opts.AccusationTimeout = DEFAULT_ACCUSATION_TIMEOUT
	}
	if opts.ScaffoldRounds <= 0 {
		opts.ScaffoldRounds = DEFAULT_SCAFFOLD_ROUNDS
	}

	ctx := &GameContext{
		GameStage:         STAGE_IDLE,
		Tracker:           opts.Tracker,
		ViewTimeout:       opts.ViewTimeout,
		AccusationTimeout: opts.AccusationTimeout,
		ScaffoldRounds:    opts.ScaffoldRounds,
		Scheduler:         opts.Scheduler,
		TmoCh:             make(chan RequestWrapper, 64),
	}

	gm := &GameMachine{
		ctx:     ctx,
		handler: NewIdleStageHandler(),
		reqCh:   make(chan RequestWrapper, 64),
		doneCh:  doneCh,
	}

	gm.handler.SetOnSwitch(gm.onSwitch)

	return gm
}

func (gm *GameMachine) onSwitch(nextStage string) {
	gm.ctx.GameStage = nextStage
}

func (gm *GameMachine) GetReqCh() chan RequestWrapper {
	return gm.reqCh
}

// Subscribe 注册一个监听通道，必须在 Start 之前调用
func (gm *GameMachine) Subscribe(buffer int) <-chan ResponseWrapper {
	ch := make(chan ResponseWrapper, buffer)
	gm.ctx.Listeners = append(gm.ctx.Listeners, ch)

	return ch
}

func (gm *GameMachine) Start() {
	// 执行初始 handler 的 OnEnter
	gm.handler.OnEnter(gm.ctx)

	// 进入事件循环
	for {
		var req RequestWrapper

		select {
		case req = <-gm.reqCh:
			zap.L().Debug(
				"接收到玩家请求",
				zap.String("season_id", gm.ctx.Season.ID),
				zap.String("request_type", req.ReqType),
			)
		case req = <-gm.ctx.TmoCh:
			zap.L().Debug(
				"接收到超时事件",
				zap.String("season_id", gm.ctx.Season.ID),
				zap.String("stage", gm.ctx.GameStage),
			)
		case <-gm.doneCh:
			gm.handler.OnExit(gm.ctx)
			zap.L().Info(
				"收到退出信号，结束游戏状态机",
				zap.String("season_id", gm.ctx.Season.ID),
			)
			return
		}

		gm.Handle(req)
	}
}

// Handle 处理单个请求并回复结果，只能在事件循环协程中调用
func (gm *GameMachine) Handle(req RequestWrapper) {
	err := gm.handler.OnHandle(gm.ctx, req)
	if err != nil {
		zap.L().Debug(
			"处理请求失败",
			zap.Error(err),
			zap.String("stage", gm.handler.Stage()),
			zap.String("request_type", req.ReqType),
		)
	}

	// 检查阶段是否发生变化
	if gm.ctx.GameStage != gm.handler.Stage() && gm.switchStage() {
		gm.handler.OnEnter(gm.ctx)

		gm.ctx.BroadcastResp(WrapResponse(RESP_SEASON_STATE, StageChangeResponse{
			SeasonID: gm.ctx.Season.ID,
			Stage:    gm.ctx.GameStage,
			Round:    gm.ctx.CurrentRoundNumber(),
		}))
	}

	resp := gm.ctx.takeReply()
	if err != nil {
		resp = WrapErrResponse(err)
	}

	if req.RespCh != nil {
		select {
		case req.RespCh <- resp:
		default:
			zap.L().Warn(
				"回复请求失败：响应通道已满",
				zap.String("request_type", req.ReqType),
			)
		}
	}
}

func (gm *GameMachine) switchStage() bool {
	// 执行当前 handler 的 OnExit
	gm.handler.OnExit(gm.ctx)

	// 根据新阶段创建对应的 handler
	var newHandler StageHandler

	switch gm.ctx.GameStage {
	case STAGE_IDLE:
		newHandler = NewIdleStageHandler()
	case STAGE_VIEWING:
		newHandler = NewViewStageHandler()
	case STAGE_ACCUSING:
		newHandler = NewAccuseStageHandler()
	case STAGE_RESOLVED:
		newHandler = NewResolvedStageHandler()
	case STAGE_ENDED:
		newHandler = NewEndStageHandler()
	default:
		zap.L().Error(
			"未知的游戏阶段",
			zap.String("stage", gm.ctx.GameStage),
		)
		gm.ctx.GameStage = gm.handler.Stage()
		return false
	}

	zap.L().Info(
		"切换游戏阶段",
		zap.String("season_id", gm.ctx.Season.ID),
		zap.String("from", gm.handler.Stage()),
		zap.String("to", gm.ctx.GameStage),
	)

	newHandler.SetOnSwitch(gm.onSwitch)

	// 更新当前 handler
	gm.handler = newHandler

	return true
}

func (gm *GameMachine) Stage() string {
	return gm.ctx.GameStage
}
