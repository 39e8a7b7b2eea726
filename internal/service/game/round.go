package game

import (
	"fmt"
	"math/rand/v2"
)

// RoundEngine 负责单个轮次内的身份分配、查看身份、指认与超时结算。
// 它只操作传入的 RoundState，不持有任何跨轮数据。
type RoundEngine struct {
	rng *rand.Rand
}

// NewRoundEngine 创建轮次引擎，rng 为 nil 时使用随机种子
func NewRoundEngine(rng *rand.Rand) *RoundEngine {
	if rng == nil {
		rng = NewRand()
	}

	return &RoundEngine{rng: rng}
}

// Resolution 是一次结算的摘要，供驱动层展示
type Resolution struct {
	Round        int                `json:"round"`
	Type         RoundType          `json:"type"`
	Outcome      Outcome            `json:"outcome"`
	Accused      *int               `json:"accused,omitempty"`
	Culprit      int                `json:"culprit"`
	Investigator int                `json:"investigator"`
	Fixer        int                `json:"fixer"`
	Scores       [PLAYER_COUNT]int  `json:"scores"`
	Roles        [PLAYER_COUNT]Role `json:"roles"`
	StreakBonus  bool               `json:"streak_bonus"`
}

// AssignRoles 对四个身份做 Fisher-Yates 洗牌后依次分配给玩家
func (re *RoundEngine) AssignRoles(rs *RoundState) {
	roles := Roles
	for i := len(roles) - 1; i > 0; i-- {
		j := re.rng.IntN(i + 1)
		roles[i], roles[j] = roles[j], roles[i]
	}

	for i := range rs.Players {
		rs.Players[i].Role = roles[i]
		rs.Players[i].RoundScore = 0
	}

	rs.Viewers = [PLAYER_COUNT]bool{}
	rs.Accusation = nil
	rs.Outcome = OUTCOME_PENDING
	rs.Resolved = false
	rs.RolesAssigned = true
}

// MarkViewed 记录玩家已私下看过自己的身份，重复调用不产生变化
func (re *RoundEngine) MarkViewed(rs *RoundState, playerID int) error {
	if !validPlayer(playerID) {
		return fmt.Errorf("%w：%d", ErrInvalidPlayer, playerID)
	}

	if rs.Phase() != PHASE_VIEWING && rs.Phase() != PHASE_ACCUSING {
		return fmt.Errorf("%w：第 %d 轮处于 %s 阶段", ErrInvalidPhase, rs.Number, rs.Phase())
	}

	rs.Viewers[playerID] = true

	return nil
}

// ResolveAccusation 按侦探的指认结算本轮
func (re *RoundEngine) ResolveAccusation(rs *RoundState, accusedID int) (Resolution, error) {
	return re.resolve(rs, &accusedID)
}

// ResolveTimeout 在指认阶段超时时结算本轮，视为指认错误
func (re *RoundEngine) ResolveTimeout(rs *RoundState) (Resolution, error) {
	return re.resolve(rs, nil)
}

func (re *RoundEngine) resolve(rs *RoundState, accused *int) (Resolution, error) {
	if rs.Phase() != PHASE_ACCUSING {
		return Resolution{}, fmt.Errorf("%w：第 %d 轮处于 %s 阶段，无法结算", ErrInvalidPhase, rs.Number, rs.Phase())
	}

	// 先检查阶段，再检查玩家编号
	if accused != nil && !validPlayer(*accused) {
		return Resolution{}, fmt.Errorf("%w：%d", ErrInvalidPlayer, *accused)
	}

	investigator, err := RoleHolder(rs, ROLE_INVESTIGATOR)
	if err != nil {
		return Resolution{}, err
	}

	fixer, err := RoleHolder(rs, ROLE_FIXER)
	if err != nil {
		return Resolution{}, err
	}

	culprit, err := RoleHolder(rs, rs.Type.LiveCulprit())
	if err != nil {
		return Resolution{}, err
	}

	outcome := OUTCOME_TIMEOUT
	if accused != nil {
		// 侦探和管家的身份是公开的，只能在剩下的两人中指认
		if *accused == investigator || *accused == fixer {
			return Resolution{}, fmt.Errorf("%w：%d 不是嫌疑人", ErrInvalidPlayer, *accused)
		}

		outcome = OUTCOME_INCORRECT
		if *accused == culprit {
			outcome = OUTCOME_CORRECT
		}
	}

	correct := outcome.Caught()
	bonus := streakBonusDue(rs.PriorStreak, correct)

	res := Resolution{
		Round:        rs.Number,
		Type:         rs.Type,
		Outcome:      outcome,
		Culprit:      culprit,
		Investigator: investigator,
		Fixer:        fixer,
		StreakBonus:  bonus,
	}

	for i, p := range rs.Players {
		score := Score(p.Role, rs.Type, correct)
		if p.Role == ROLE_INVESTIGATOR && bonus {
			score += STREAK_BONUS
		}

		res.Scores[i] = score
		res.Roles[i] = p.Role
	}

	// 校验全部通过之后才写入
	for i := range rs.Players {
		rs.Players[i].RoundScore = res.Scores[i]
	}

	if accused != nil {
		res.Accused = intPtr(*accused)
		rs.Accusation = intPtr(*accused)
	}

	rs.Outcome = outcome
	rs.Resolved = true

	return res, nil
}

// RoleHolder 查找持有某个身份的唯一玩家
func RoleHolder(rs *RoundState, role Role) (int, error) {
	holder := -1

	for _, p := range rs.Players {
		if p.Role != role {
			continue
		}

		if holder != -1 {
			return -1, fmt.Errorf("%w：第 %d 轮有多名玩家持有 %s", ErrInvalidRole, rs.Number, role)
		}

		holder = p.PlayerID
	}

	if holder == -1 {
		return -1, fmt.Errorf("%w：第 %d 轮没有玩家持有 %s", ErrInvalidRole, rs.Number, role)
	}

	return holder, nil
}
