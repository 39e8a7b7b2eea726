package game

import (
	"fmt"
	"maps"
	"strings"
)

// SeasonState 是一整局游戏的跨轮状态。
// 所有命令都在副本上执行，成功后返回新状态，失败时原状态保持不变。
type SeasonState struct {
	ID      string               `json:"id"`
	Names   [PLAYER_COUNT]string `json:"names"`
	Rounds  []RoundState         `json:"rounds"`
	Current int                  `json:"current"`

	// 侦探连续正确指认次数，任何一次失误或超时清零
	Streaks [PLAYER_COUNT]int         `json:"streaks"`
	Stats   [PLAYER_COUNT]PlayerStats `json:"stats"`
	Badges  map[BadgeKind]int         `json:"badges"`

	Ended bool `json:"ended"`
}

func (s SeasonState) Clone() SeasonState {
	rounds := make([]RoundState, len(s.Rounds))
	for i, rs := range s.Rounds {
		rounds[i] = rs.clone()
	}

	s.Rounds = rounds
	s.Badges = maps.Clone(s.Badges)
	if s.Badges == nil {
		s.Badges = make(map[BadgeKind]int)
	}

	return s
}

func (s *SeasonState) Started() bool {
	return len(s.Rounds) > 0
}

// CurrentRound 返回当前进行中的轮次，赛季未开始时为 nil
func (s *SeasonState) CurrentRound() *RoundState {
	if s.Current < 0 || s.Current >= len(s.Rounds) {
		return nil
	}

	return &s.Rounds[s.Current]
}

// LastResolvedRound 返回最近一个已经计入总分的轮次
func (s *SeasonState) LastResolvedRound() *RoundState {
	for i := len(s.Rounds) - 1; i >= 0; i-- {
		if s.Rounds[i].Resolved && s.Rounds[i].Tallied {
			return &s.Rounds[i]
		}
	}

	return nil
}

// SeasonTracker 负责跨轮的统计、连胜、徽章和总分
type SeasonTracker struct {
	engine *RoundEngine
}

func NewSeasonTracker(engine *RoundEngine) *SeasonTracker {
	if engine == nil {
		engine = NewRoundEngine(nil)
	}

	return &SeasonTracker{engine: engine}
}

// NormalizeNames 去除名字首尾空白，空名字回退为 "Player N"
func NormalizeNames(names [PLAYER_COUNT]string) [PLAYER_COUNT]string {
	for i, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("Player %d", i+1)
		}
		names[i] = name
	}

	return names
}

// StartSeason 预先生成若干轮并激活第一轮
func (st *SeasonTracker) StartSeason(names [PLAYER_COUNT]string, scaffold int) SeasonState {
	if scaffold < 1 {
		scaffold = DEFAULT_SCAFFOLD_ROUNDS
	}

	s := SeasonState{
		ID:     GenID(),
		Names:  NormalizeNames(names),
		Rounds: make([]RoundState, 0, scaffold),
		Badges: make(map[BadgeKind]int),
	}

	for n := 1; n <= scaffold; n++ {
		s.Rounds = append(s.Rounds, newRoundState(n, [PLAYER_COUNT]int{}))
	}

	st.activate(&s)

	return s
}

// Advance 进入下一轮，必要时追加新的轮次
func (st *SeasonTracker) Advance(s SeasonState) (SeasonState, error) {
	if err := checkActive(&s); err != nil {
		return s, err
	}

	current := s.CurrentRound()
	if !current.Resolved || !current.Tallied {
		return s, fmt.Errorf("%w：第 %d 轮尚未结算", ErrInvalidPhase, current.Number)
	}

	next := s.Clone()
	totals := next.CurrentRound().Totals()

	if next.Current+1 >= len(next.Rounds) {
		next.Rounds = append(next.Rounds, newRoundState(next.Current+2, totals))
	}

	next.Current++

	// 预生成的轮次创建时总分为零，进入时按上一轮重新继承
	rs := next.CurrentRound()
	for i := range rs.Players {
		rs.Players[i].CumulativeScore = totals[i]
	}

	st.activate(&next)

	return next, nil
}

func (st *SeasonTracker) activate(s *SeasonState) {
	rs := s.CurrentRound()
	st.engine.AssignRoles(rs)

	rs.PriorStreak = 0
	if investigator, err := RoleHolder(rs, ROLE_INVESTIGATOR); err == nil {
		rs.PriorStreak = s.Streaks[investigator]
	}
}

// ViewRole 记录玩家已查看身份
func (st *SeasonTracker) ViewRole(s SeasonState, playerID int) (SeasonState, error) {
	if err := checkActive(&s); err != nil {
		return s, err
	}

	next := s.Clone()
	if err := st.engine.MarkViewed(next.CurrentRound(), playerID); err != nil {
		return s, err
	}

	return next, nil
}

// Accuse 由侦探指认嫌疑人，结算并计入赛季
func (st *SeasonTracker) Accuse(s SeasonState, accusedID int) (SeasonState, []Event, error) {
	if err := checkActive(&s); err != nil {
		return s, nil, err
	}

	next := s.Clone()

	res, err := st.engine.ResolveAccusation(next.CurrentRound(), accusedID)
	if err != nil {
		return s, nil, err
	}

	return st.ApplyResolution(next, res)
}

// TimeoutAccusation 在指认时间耗尽时结算本轮
func (st *SeasonTracker) TimeoutAccusation(s SeasonState) (SeasonState, []Event, error) {
	if err := checkActive(&s); err != nil {
		return s, nil, err
	}

	next := s.Clone()

	res, err := st.engine.ResolveTimeout(next.CurrentRound())
	if err != nil {
		return s, nil, err
	}

	return st.ApplyResolution(next, res)
}

// ApplyResolution 把已结算轮次的结果计入统计、连胜、徽章和总分。
// 这是赛季中唯一会修改统计和总分的地方。
func (st *SeasonTracker) ApplyResolution(s SeasonState, res Resolution) (SeasonState, []Event, error) {
	if !s.Started() {
		return s, nil, ErrNoSeason
	}

	current := s.CurrentRound()
	if current.Number != res.Round || !current.Resolved {
		return s, nil, fmt.Errorf("%w：第 %d 轮的结算结果与当前轮次不符", ErrInvalidPhase, res.Round)
	}

	if current.Tallied {
		return s, nil, fmt.Errorf("%w：第 %d 轮已经计分", ErrInvalidPhase, res.Round)
	}

	if !validPlayer(res.Investigator) || !validPlayer(res.Culprit) || !validPlayer(res.Fixer) {
		return s, nil, fmt.Errorf("%w：第 %d 轮的结算结果缺少身份信息", ErrInvalidRole, res.Round)
	}

	next := s.Clone()
	rs := next.CurrentRound()
	caught := res.Outcome.Caught()

	events := []Event{{
		Type:       EVENT_ROUND_RESOLVED,
		Resolution: &res,
	}}

	// 统计
	if caught {
		next.Stats[res.Investigator].InvestigatorCorrect++
		next.Stats[res.Culprit].CulpritCaught++
		next.Streaks[res.Investigator]++
	} else {
		next.Stats[res.Investigator].InvestigatorWrong++
		next.Stats[res.Culprit].CulpritEscaped++
		next.Streaks[res.Investigator] = 0
	}
	next.Stats[res.Fixer].FixerRoleCount++

	if res.StreakBonus {
		events = append(events, Event{
			Type: EVENT_STREAK_BONUS,
			StreakBonus: &StreakBonusEvent{
				PlayerID: res.Investigator,
				Round:    res.Round,
				Bonus:    STREAK_BONUS,
				Streak:   next.Streaks[res.Investigator],
			},
		})
	}

	// 徽章
	candidates := map[BadgeKind]int{
		BADGE_BEST_INVESTIGATOR:  res.Investigator,
		BADGE_WORST_INVESTIGATOR: res.Investigator,
		BADGE_BEST_ESCAPEE:       res.Culprit,
		BADGE_WORST_ESCAPEE:      res.Culprit,
		BADGE_BEST_FIXER:         res.Fixer,
	}

	for _, kind := range BadgeKinds {
		if badge, ok := evaluateBadge(kind, candidates[kind], next.Stats, next.Badges); ok {
			events = append(events, Event{
				Type:  EVENT_BADGE_AWARDED,
				Badge: badge,
			})
		}
	}

	// 总分
	var previous [PLAYER_COUNT]int
	if next.Current > 0 {
		previous = next.Rounds[next.Current-1].Totals()
	}

	for i := range rs.Players {
		rs.Players[i].CumulativeScore = previous[i] + rs.Players[i].RoundScore
	}

	rs.Tallied = true

	return next, events, nil
}

// End 结束赛季，之后只允许恢复或重置
func End(s SeasonState) (SeasonState, error) {
	if !s.Started() {
		return s, ErrNoSeason
	}

	if s.Ended {
		return s, fmt.Errorf("%w：赛季已经结束", ErrInvalidPhase)
	}

	next := s.Clone()
	next.Ended = true

	return next, nil
}

func Resume(s SeasonState) (SeasonState, error) {
	if !s.Started() {
		return s, ErrNoSeason
	}

	if !s.Ended {
		return s, fmt.Errorf("%w：赛季仍在进行", ErrInvalidPhase)
	}

	next := s.Clone()
	next.Ended = false

	return next, nil
}

// Winners 返回最近一个已结算轮次中累计分最高的所有玩家，平分则并列
func Winners(s SeasonState) ([]int, bool) {
	last := s.LastResolvedRound()
	if last == nil {
		return nil, false
	}

	best := last.Players[0].CumulativeScore
	for _, p := range last.Players[1:] {
		best = max(best, p.CumulativeScore)
	}

	winners := make([]int, 0, PLAYER_COUNT)
	for _, p := range last.Players {
		if p.CumulativeScore == best {
			winners = append(winners, p.PlayerID)
		}
	}

	return winners, true
}

func checkActive(s *SeasonState) error {
	if !s.Started() {
		return ErrNoSeason
	}

	if s.Ended {
		return fmt.Errorf("%w：赛季已经结束", ErrInvalidPhase)
	}

	if s.CurrentRound() == nil {
		return fmt.Errorf("%w：当前轮次不存在", ErrInvalidPhase)
	}

	return nil
}
