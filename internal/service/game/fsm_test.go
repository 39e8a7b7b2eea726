package game

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

// fakeScheduler 记录所有延时回调，由测试手动触发
type fakeScheduler struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (fs *fakeScheduler) Now() time.Time {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	return fs.now
}

func (fs *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	ft := &fakeTimer{d: d, f: f}
	fs.timers = append(fs.timers, ft)

	return &fakeTimerHandle{fs: fs, ft: ft}
}

type fakeTimerHandle struct {
	fs *fakeScheduler
	ft *fakeTimer
}

func (h *fakeTimerHandle) Stop() bool {
	h.fs.mu.Lock()
	defer h.fs.mu.Unlock()

	active := !h.ft.stopped && !h.ft.fired
	h.ft.stopped = true

	return active
}

func (fs *fakeScheduler) last() *fakeTimer {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if len(fs.timers) == 0 {
		return nil
	}

	return fs.timers[len(fs.timers)-1]
}

func (fs *fakeScheduler) count() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	return len(fs.timers)
}

// fire 触发计时器回调，force 为 true 时忽略停止状态，模拟停止前已经到期的竞争
func (fs *fakeScheduler) fire(ft *fakeTimer, force bool) bool {
	fs.mu.Lock()
	if ft.fired || (ft.stopped && !force) {
		fs.mu.Unlock()
		return false
	}
	ft.fired = true
	fs.mu.Unlock()

	ft.f()
	return true
}

func newTestMachine(fs *fakeScheduler) *GameMachine {
	return NewGameMachine(MachineOptions{
		Tracker:   newTestTracker(),
		Scheduler: fs,
	}, make(chan struct{}))
}

func handle(t *testing.T, gm *GameMachine, reqType string, data any) ResponseWrapper {
	t.Helper()

	req := WrapRequest(reqType, data)
	gm.Handle(req)

	select {
	case resp := <-req.RespCh:
		return resp
	default:
		t.Fatalf("no reply for %s", reqType)
		return ResponseWrapper{}
	}
}

func mustOk(t *testing.T, resp ResponseWrapper) ResponseWrapper {
	t.Helper()

	if resp.RespType == RESP_ERROR {
		t.Fatalf("unexpected error response: %s", resp.ErrMsg)
	}

	return resp
}

// handleTimeout 把计时器投递的超时请求交给状态机处理
func handleTimeout(t *testing.T, gm *GameMachine) {
	t.Helper()

	select {
	case req := <-gm.ctx.TmoCh:
		gm.Handle(req)
	default:
		t.Fatalf("no timeout request queued")
	}
}

func startTestSeason(t *testing.T, gm *GameMachine) {
	t.Helper()

	mustOk(t, handle(t, gm, REQ_START_SEASON, StartSeasonRequest{
		Names: [PLAYER_COUNT]string{"A", "B", "C", "D"},
	}))

	if gm.Stage() != STAGE_VIEWING {
		t.Fatalf("want viewing after start, got %s", gm.Stage())
	}

	forceRoles(&gm.ctx.Season, standardRoles)
}

func revealAll(t *testing.T, gm *GameMachine) {
	t.Helper()

	for p := range PLAYER_COUNT {
		resp := mustOk(t, handle(t, gm, REQ_OPEN_ROLE, OpenRoleRequest{PlayerID: p}))

		data, ok := resp.Data.(OpenRoleResponse)
		if !ok || data.Role != standardRoles[p] || data.PlayerID != p {
			t.Fatalf("unexpected open role response %+v", resp.Data)
		}

		mustOk(t, handle(t, gm, REQ_VIEW_ROLE, ViewRoleRequest{PlayerID: p}))
	}

	if gm.Stage() != STAGE_ACCUSING {
		t.Fatalf("want accusing after all views, got %s", gm.Stage())
	}
}

func TestGameMachine_RejectsCommandsWhenIdle(t *testing.T) {
	gm := newTestMachine(newFakeScheduler())

	resp := handle(t, gm, REQ_ACCUSE, AccuseRequest{AccusedID: 2})
	if !errors.Is(resp.Err, ErrNoSeason) {
		t.Fatalf("want ErrNoSeason, got %v", resp.Err)
	}

	resp = mustOk(t, handle(t, gm, REQ_SNAPSHOT, nil))
	snap := resp.Data.(SnapshotResponse)
	if snap.Stage != STAGE_IDLE || snap.Season.Started() {
		t.Fatalf("unexpected idle snapshot %+v", snap)
	}
}

func TestGameMachine_AccusationTimeoutResolvesRound(t *testing.T) {
	fs := newFakeScheduler()
	gm := newTestMachine(fs)

	startTestSeason(t, gm)
	revealAll(t, gm)

	tmo := fs.last()
	if tmo == nil || tmo.d != DEFAULT_ACCUSATION_TIMEOUT {
		t.Fatalf("want accusation timer of %v, got %+v", DEFAULT_ACCUSATION_TIMEOUT, tmo)
	}

	snap := mustOk(t, handle(t, gm, REQ_SNAPSHOT, nil)).Data.(SnapshotResponse)
	if !snap.Deadline.Equal(fs.Now().Add(DEFAULT_ACCUSATION_TIMEOUT)) {
		t.Fatalf("unexpected deadline %v", snap.Deadline)
	}

	fs.fire(tmo, false)
	handleTimeout(t, gm)

	if gm.Stage() != STAGE_RESOLVED {
		t.Fatalf("want resolved after timeout, got %s", gm.Stage())
	}

	rs := gm.ctx.Season.CurrentRound()
	if rs.Outcome != OUTCOME_TIMEOUT {
		t.Fatalf("want timeout outcome, got %s", rs.Outcome)
	}

	if got := rs.Totals(); got != [PLAYER_COUNT]int{0, 100, 40, 60} {
		t.Fatalf("unexpected totals %v", got)
	}

	if !gm.ctx.Deadline.IsZero() {
		t.Fatalf("deadline should be cleared after resolution")
	}
}

func TestGameMachine_StaleTimeoutIsDropped(t *testing.T) {
	fs := newFakeScheduler()
	gm := newTestMachine(fs)

	startTestSeason(t, gm)
	revealAll(t, gm)

	tmo := fs.last()

	resp := mustOk(t, handle(t, gm, REQ_ACCUSE, AccuseRequest{AccusedID: 2}))
	if resp.RespType != RESP_ROUND_RESOLVED {
		t.Fatalf("want round resolved reply, got %s", resp.RespType)
	}

	res := resp.Data.(Resolution)
	if res.Outcome != OUTCOME_CORRECT || res.Scores != [PLAYER_COUNT]int{80, 100, 0, 60} {
		t.Fatalf("unexpected resolution %+v", res)
	}

	if !tmo.stopped {
		t.Fatalf("accusation timer should be stopped")
	}

	// 计时器在停止前已经到期，超时请求仍然进入了通道
	fs.fire(tmo, true)
	handleTimeout(t, gm)

	rs := gm.ctx.Season.CurrentRound()
	if rs.Outcome != OUTCOME_CORRECT || rs.Totals() != [PLAYER_COUNT]int{80, 100, 0, 60} {
		t.Fatalf("stale timeout changed the round: %s %v", rs.Outcome, rs.Totals())
	}

	if gm.ctx.Season.Stats[0].InvestigatorCorrect != 1 || gm.ctx.Season.Stats[0].InvestigatorWrong != 0 {
		t.Fatalf("stale timeout changed stats: %+v", gm.ctx.Season.Stats[0])
	}
}

func TestGameMachine_ExplicitTimeoutAccusation(t *testing.T) {
	fs := newFakeScheduler()
	gm := newTestMachine(fs)

	startTestSeason(t, gm)
	revealAll(t, gm)

	resp := mustOk(t, handle(t, gm, REQ_TIMEOUT_ACCUSATION, nil))
	if resp.Data.(Resolution).Outcome != OUTCOME_TIMEOUT {
		t.Fatalf("want timeout outcome, got %+v", resp.Data)
	}

	resp = handle(t, gm, REQ_ACCUSE, AccuseRequest{AccusedID: 2})
	if !errors.Is(resp.Err, ErrInvalidPhase) {
		t.Fatalf("accusation after resolution: want ErrInvalidPhase, got %v", resp.Err)
	}
}

func TestGameMachine_ViewTimeoutAcknowledges(t *testing.T) {
	fs := newFakeScheduler()
	gm := newTestMachine(fs)

	startTestSeason(t, gm)

	mustOk(t, handle(t, gm, REQ_OPEN_ROLE, OpenRoleRequest{PlayerID: 0}))

	tmo := fs.last()
	if tmo.d != DEFAULT_VIEW_TIMEOUT {
		t.Fatalf("want view timer of %v, got %v", DEFAULT_VIEW_TIMEOUT, tmo.d)
	}

	fs.fire(tmo, false)
	handleTimeout(t, gm)

	if !gm.ctx.Season.CurrentRound().Viewers[0] {
		t.Fatalf("view timeout should mark the player as viewed")
	}

	if gm.ctx.Viewing != nil {
		t.Fatalf("view timeout should release the reveal window")
	}

	// 窗口释放后其他玩家可以查看
	mustOk(t, handle(t, gm, REQ_OPEN_ROLE, OpenRoleRequest{PlayerID: 1}))
}

func TestGameMachine_StaleViewTimeoutIsDropped(t *testing.T) {
	fs := newFakeScheduler()
	gm := newTestMachine(fs)

	startTestSeason(t, gm)

	mustOk(t, handle(t, gm, REQ_OPEN_ROLE, OpenRoleRequest{PlayerID: 0}))
	tmo := fs.last()
	mustOk(t, handle(t, gm, REQ_VIEW_ROLE, ViewRoleRequest{PlayerID: 0}))
	mustOk(t, handle(t, gm, REQ_OPEN_ROLE, OpenRoleRequest{PlayerID: 1}))

	fs.fire(tmo, true)
	handleTimeout(t, gm)

	if gm.ctx.Viewing == nil || *gm.ctx.Viewing != 1 {
		t.Fatalf("stale timeout should not release P1's window")
	}

	if gm.ctx.Season.CurrentRound().Viewers[1] {
		t.Fatalf("stale timeout should not acknowledge P1")
	}
}

func TestGameMachine_RevealGate(t *testing.T) {
	fs := newFakeScheduler()
	gm := newTestMachine(fs)

	startTestSeason(t, gm)

	mustOk(t, handle(t, gm, REQ_OPEN_ROLE, OpenRoleRequest{PlayerID: 0}))
	timers := fs.count()

	resp := handle(t, gm, REQ_OPEN_ROLE, OpenRoleRequest{PlayerID: 1})
	if !errors.Is(resp.Err, ErrRevealBusy) || !errors.Is(resp.Err, ErrInvalidPhase) {
		t.Fatalf("second reveal: want ErrRevealBusy, got %v", resp.Err)
	}

	resp = handle(t, gm, REQ_VIEW_ROLE, ViewRoleRequest{PlayerID: 1})
	if !errors.Is(resp.Err, ErrRevealBusy) {
		t.Fatalf("view while another reveals: want ErrRevealBusy, got %v", resp.Err)
	}

	// 同一玩家重复打开不会重置计时
	mustOk(t, handle(t, gm, REQ_OPEN_ROLE, OpenRoleRequest{PlayerID: 0}))
	if fs.count() != timers {
		t.Fatalf("reopening should keep the existing timer")
	}

	mustOk(t, handle(t, gm, REQ_VIEW_ROLE, ViewRoleRequest{PlayerID: 0}))

	resp = handle(t, gm, REQ_OPEN_ROLE, OpenRoleRequest{PlayerID: 0})
	if !errors.Is(resp.Err, ErrInvalidPhase) {
		t.Fatalf("reopen after viewing: want ErrInvalidPhase, got %v", resp.Err)
	}

	resp = handle(t, gm, REQ_OPEN_ROLE, OpenRoleRequest{PlayerID: 7})
	if !errors.Is(resp.Err, ErrInvalidPlayer) {
		t.Fatalf("unknown player: want ErrInvalidPlayer, got %v", resp.Err)
	}
}

func TestGameMachine_BroadcastsEvents(t *testing.T) {
	fs := newFakeScheduler()
	gm := newTestMachine(fs)
	events := gm.Subscribe(64)

	startTestSeason(t, gm)
	revealAll(t, gm)
	mustOk(t, handle(t, gm, REQ_ACCUSE, AccuseRequest{AccusedID: 2}))

	var types []string
	for len(events) > 0 {
		types = append(types, (<-events).RespType)
	}

	// 开始赛季、进入指认、结算、进入结算阶段
	want := []string{RESP_SEASON_STATE, RESP_SEASON_STATE, RESP_ROUND_RESOLVED, RESP_SEASON_STATE}
	if len(types) != len(want) {
		t.Fatalf("want broadcasts %v, got %v", want, types)
	}

	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("broadcast %d: want %s got %s", i, want[i], types[i])
		}
	}
}

func TestGameMachine_AdvanceAndEnd(t *testing.T) {
	fs := newFakeScheduler()
	gm := newTestMachine(fs)

	startTestSeason(t, gm)
	revealAll(t, gm)
	mustOk(t, handle(t, gm, REQ_ACCUSE, AccuseRequest{AccusedID: 2}))

	resp := handle(t, gm, REQ_VIEW_ROLE, ViewRoleRequest{PlayerID: 0})
	if !errors.Is(resp.Err, ErrInvalidPhase) {
		t.Fatalf("view in resolved stage: want ErrInvalidPhase, got %v", resp.Err)
	}

	mustOk(t, handle(t, gm, REQ_ADVANCE_ROUND, nil))
	if gm.Stage() != STAGE_VIEWING || gm.ctx.CurrentRoundNumber() != 2 {
		t.Fatalf("want viewing round 2, got %s round %d", gm.Stage(), gm.ctx.CurrentRoundNumber())
	}

	mustOk(t, handle(t, gm, REQ_END_SEASON, nil))
	if gm.Stage() != STAGE_ENDED {
		t.Fatalf("want ended, got %s", gm.Stage())
	}

	resp = handle(t, gm, REQ_OPEN_ROLE, OpenRoleRequest{PlayerID: 0})
	if !errors.Is(resp.Err, ErrInvalidPhase) {
		t.Fatalf("open role after end: want ErrInvalidPhase, got %v", resp.Err)
	}

	mustOk(t, handle(t, gm, REQ_RESUME_SEASON, nil))
	if gm.Stage() != STAGE_VIEWING {
		t.Fatalf("want viewing after resume, got %s", gm.Stage())
	}

	mustOk(t, handle(t, gm, REQ_RESET_SEASON, nil))
	if gm.Stage() != STAGE_IDLE || gm.ctx.Season.Started() {
		t.Fatalf("want idle after reset, got %s", gm.Stage())
	}
}

func TestGameMachine_EndDuringAccusationStopsTimer(t *testing.T) {
	fs := newFakeScheduler()
	gm := newTestMachine(fs)

	startTestSeason(t, gm)
	revealAll(t, gm)
	tmo := fs.last()

	mustOk(t, handle(t, gm, REQ_END_SEASON, nil))
	if !tmo.stopped {
		t.Fatalf("ending the season should stop the accusation timer")
	}

	// 恢复后回到指认阶段并重新计时
	mustOk(t, handle(t, gm, REQ_RESUME_SEASON, nil))
	if gm.Stage() != STAGE_ACCUSING {
		t.Fatalf("want accusing after resume, got %s", gm.Stage())
	}

	if next := fs.last(); next == tmo || next.d != DEFAULT_ACCUSATION_TIMEOUT {
		t.Fatalf("resume should start a fresh accusation timer")
	}
}

func TestGameMachine_StartSeasonReplacesRunningSeason(t *testing.T) {
	fs := newFakeScheduler()
	gm := newTestMachine(fs)

	startTestSeason(t, gm)
	first := gm.ctx.Season.ID
	revealAll(t, gm)
	tmo := fs.last()

	startTestSeason(t, gm)

	if gm.ctx.Season.ID == first {
		t.Fatalf("start should replace the running season")
	}

	if !tmo.stopped {
		t.Fatalf("previous accusation timer should be stopped")
	}

	if gm.ctx.Season.CurrentRound().ViewerCount() != 0 {
		t.Fatalf("new season should start with no viewers")
	}
}

func TestGameMachine_StartAndStop(t *testing.T) {
	doneCh := make(chan struct{})
	gm := NewGameMachine(MachineOptions{
		Tracker:   newTestTracker(),
		Scheduler: newFakeScheduler(),
	}, doneCh)

	finished := make(chan struct{})
	go func() {
		gm.Start()
		close(finished)
	}()

	req := WrapRequest(REQ_START_SEASON, StartSeasonRequest{})
	gm.GetReqCh() <- req

	select {
	case resp := <-req.RespCh:
		mustOk(t, resp)
	case <-time.After(time.Second):
		t.Fatalf("machine did not reply")
	}

	close(doneCh)

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatalf("machine did not stop")
	}
}
