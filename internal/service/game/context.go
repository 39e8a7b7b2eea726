package game

import (
	"time"

	"go.uber.org/zap"
)

type GameContext struct {
	GameStage string

	Tracker *SeasonTracker
	Season  SeasonState

	// 当前占用查看窗口的玩家，nil 表示没有人在查看
	Viewing *int

	ViewTimeout       time.Duration
	AccusationTimeout time.Duration
	ScaffoldRounds    int

	Scheduler Scheduler
	Timer     Timer
	Deadline  time.Time
	timerSeq  uint64

	TmoCh     chan RequestWrapper
	Listeners []chan ResponseWrapper

	reply *ResponseWrapper
}

// SetTimeout 启动阶段计时器，到期后向状态机投递超时请求。
// 同一时间只有一个计时器生效，新的计时器会取代旧的。
func (gc *GameContext) SetTimeout(d time.Duration, tmo TimeoutRequest) {
	gc.ClearTimeout()

	tmo.Seq = gc.timerSeq
	gc.Deadline = gc.Scheduler.Now().Add(d)

	req := RequestWrapper{
		ReqType: REQ_TIMEOUT,
		Data:    mustMarshal(tmo),
	}
	tmoCh := gc.TmoCh

	gc.Timer = gc.Scheduler.AfterFunc(d, func() {
		select {
		case tmoCh <- req:
		default:
			zap.L().Warn(
				"投递超时事件失败：超时通道已满",
				zap.String("stage", tmo.Stage),
				zap.Int("round", tmo.Round),
			)
		}
	})
}

// ClearTimeout 停止当前计时器，已经进入通道的超时请求会因序号不符被丢弃
func (gc *GameContext) ClearTimeout() {
	if gc.Timer != nil {
		gc.Timer.Stop()
		gc.Timer = nil
	}

	gc.timerSeq++
	gc.Deadline = time.Time{}
}

// IsCurrentTimeout 判断超时请求是否对应仍然有效的计时器
func (gc *GameContext) IsCurrentTimeout(tmo *TimeoutRequest) bool {
	if tmo.Seq != gc.timerSeq || tmo.Stage != gc.GameStage {
		return false
	}

	rs := gc.Season.CurrentRound()
	return rs != nil && rs.Number == tmo.Round
}

func (gc *GameContext) SetReply(resp ResponseWrapper) {
	gc.reply = &resp
}

func (gc *GameContext) takeReply() ResponseWrapper {
	if gc.reply == nil {
		return WrapResponse(RESP_OK, nil)
	}

	resp := *gc.reply
	gc.reply = nil

	return resp
}

func (gc *GameContext) BroadcastResp(resp ResponseWrapper) {
	for _, ch := range gc.Listeners {
		select {
		case ch <- resp:
			zap.L().Debug(
				"成功发送广播响应",
				zap.String("response_type", resp.RespType),
			)
		default:
			zap.L().Warn(
				"发送广播响应失败：监听通道已满",
				zap.String("response_type", resp.RespType),
			)
		}
	}
}

// BroadcastEvents 广播结算产生的通知事件
func (gc *GameContext) BroadcastEvents(events []Event) {
	for _, event := range events {
		zap.L().Info(
			"结算事件",
			zap.String("season_id", gc.Season.ID),
			zap.String("event", event.Type),
		)
		gc.BroadcastResp(WrapEvent(event))
	}
}

func (gc *GameContext) CurrentRoundNumber() int {
	if rs := gc.Season.CurrentRound(); rs != nil {
		return rs.Number
	}

	return 0
}

func (gc *GameContext) Snapshot() SnapshotResponse {
	snap := SnapshotResponse{
		Season:   gc.Season.Clone(),
		Stage:    gc.GameStage,
		Deadline: gc.Deadline,
	}

	if gc.Viewing != nil {
		snap.Viewing = intPtr(*gc.Viewing)
	}

	return snap
}
