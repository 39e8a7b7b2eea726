package service

import (
	"errors"
	"sync"
	"time"

	"culprit-hunt/internal/service/dto"
	"culprit-hunt/internal/service/game"

	"go.uber.org/zap"
)

const DEFAULT_REQUEST_TIMEOUT = 5 * time.Second

type TableOptions struct {
	Machine        game.MachineOptions
	RequestTimeout time.Duration
	EventBuffer    int
}

// TableService 是渲染层调用的入口。
// 所有命令都投递给同一个状态机协程串行处理，调用方等待其回复。
type TableService struct {
	machine *game.GameMachine
	reqCh   chan game.RequestWrapper
	events  <-chan game.ResponseWrapper

	doneCh    chan struct{}
	closeOnce sync.Once

	requestTimeout time.Duration
}

func NewTableService(opts TableOptions) *TableService {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DEFAULT_REQUEST_TIMEOUT
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = 64
	}

	doneCh := make(chan struct{})
	machine := game.NewGameMachine(opts.Machine, doneCh)
	events := machine.Subscribe(opts.EventBuffer)

	ts := &TableService{
		machine:        machine,
		reqCh:          machine.GetReqCh(),
		events:         events,
		doneCh:         doneCh,
		requestTimeout: opts.RequestTimeout,
	}

	// 状态机在独立的协程中运行，是赛季状态唯一的写入者
	go machine.Start()

	return ts
}

// Events 返回结算、连胜、徽章和阶段变化的通知。
// 调用方需要及时读取：缓冲区（EventBuffer，默认 64）写满后，
// 状态机不会等待，新的通知会被丢弃并记录一条 Warn 日志。
func (ts *TableService) Events() <-chan game.ResponseWrapper {
	return ts.events
}

func (ts *TableService) Close() {
	ts.closeOnce.Do(func() {
		close(ts.doneCh)
	})
}

func (ts *TableService) StartSeason(names [game.PLAYER_COUNT]string) error {
	_, err := ts.send(game.WrapRequest(game.REQ_START_SEASON, game.StartSeasonRequest{Names: names}))
	return err
}

// OpenRole 打开玩家的私下查看窗口，返回其身份
func (ts *TableService) OpenRole(playerID int) (dto.RoleView, error) {
	resp, err := ts.send(game.WrapRequest(game.REQ_OPEN_ROLE, game.OpenRoleRequest{PlayerID: playerID}))
	if err != nil {
		return dto.RoleView{}, err
	}

	data, ok := resp.Data.(game.OpenRoleResponse)
	if !ok {
		return dto.RoleView{}, errors.New("查看身份的响应格式错误")
	}

	return toRoleView(data), nil
}

func (ts *TableService) ViewRole(playerID int) error {
	_, err := ts.send(game.WrapRequest(game.REQ_VIEW_ROLE, game.ViewRoleRequest{PlayerID: playerID}))
	return err
}

func (ts *TableService) Accuse(accusedID int) error {
	_, err := ts.send(game.WrapRequest(game.REQ_ACCUSE, game.AccuseRequest{AccusedID: accusedID}))
	return err
}

func (ts *TableService) TimeoutAccusation() error {
	_, err := ts.send(game.WrapRequest(game.REQ_TIMEOUT_ACCUSATION, nil))
	return err
}

func (ts *TableService) AdvanceRound() error {
	_, err := ts.send(game.WrapRequest(game.REQ_ADVANCE_ROUND, nil))
	return err
}

func (ts *TableService) EndSeason() error {
	_, err := ts.send(game.WrapRequest(game.REQ_END_SEASON, nil))
	return err
}

func (ts *TableService) ResumeSeason() error {
	_, err := ts.send(game.WrapRequest(game.REQ_RESUME_SEASON, nil))
	return err
}

func (ts *TableService) ResetSeason() error {
	_, err := ts.send(game.WrapRequest(game.REQ_RESET_SEASON, nil))
	return err
}

func (ts *TableService) Snapshot() (dto.SeasonSnapshot, error) {
	snap, err := ts.rawSnapshot()
	if err != nil {
		return dto.SeasonSnapshot{}, err
	}

	return toSeasonSnapshot(snap), nil
}

// Winners 返回最近一个已结算轮次的领先者，尚无结算轮次时为空
func (ts *TableService) Winners() ([]dto.PlayerView, error) {
	snap, err := ts.rawSnapshot()
	if err != nil {
		return nil, err
	}

	ids, ok := game.Winners(snap.Season)
	if !ok {
		return []dto.PlayerView{}, nil
	}

	players := toSeasonSnapshot(snap).Players
	winners := make([]dto.PlayerView, 0, len(ids))
	for _, id := range ids {
		winners = append(winners, players[id])
	}

	return winners, nil
}

func (ts *TableService) Badges() ([]dto.BadgeView, error) {
	snap, err := ts.rawSnapshot()
	if err != nil {
		return nil, err
	}

	return toBadgeViews(&snap.Season), nil
}

func (ts *TableService) rawSnapshot() (game.SnapshotResponse, error) {
	resp, err := ts.send(game.WrapRequest(game.REQ_SNAPSHOT, nil))
	if err != nil {
		return game.SnapshotResponse{}, err
	}

	snap, ok := resp.Data.(game.SnapshotResponse)
	if !ok {
		return game.SnapshotResponse{}, errors.New("快照响应格式错误")
	}

	return snap, nil
}

// send 把请求投递给状态机并等待回复
func (ts *TableService) send(req game.RequestWrapper) (game.ResponseWrapper, error) {
	select {
	case <-ts.doneCh:
		return game.ResponseWrapper{}, game.ErrMachineClosed
	default:
	}

	reqTimer := time.NewTimer(ts.requestTimeout)
	defer reqTimer.Stop()

	select {
	case ts.reqCh <- req:
	case <-ts.doneCh:
		return game.ResponseWrapper{}, game.ErrMachineClosed
	case <-reqTimer.C:
		zap.L().Warn("状态机无法及时接收请求", zap.String("request_type", req.ReqType))
		return game.ResponseWrapper{}, errors.New("请求投递超时")
	}

	resTimer := time.NewTimer(ts.requestTimeout)
	defer resTimer.Stop()

	select {
	case resp := <-req.RespCh:
		if resp.RespType == game.RESP_ERROR {
			zap.L().Debug(
				"请求被拒绝",
				zap.String("request_type", req.ReqType),
				zap.String("error", resp.ErrMsg),
			)

			if resp.Err != nil {
				return resp, resp.Err
			}
			return resp, errors.New(resp.ErrMsg)
		}

		return resp, nil

	case <-ts.doneCh:
		return game.ResponseWrapper{}, game.ErrMachineClosed

	case <-resTimer.C:
		zap.L().Warn("状态机响应超时", zap.String("request_type", req.ReqType))
		return game.ResponseWrapper{}, errors.New("请求响应超时")
	}
}
