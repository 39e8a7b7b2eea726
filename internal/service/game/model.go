package game

// 固定四名玩家、四种身份
const (
	PLAYER_COUNT = 4

	// 开局预先生成的轮次数量，之后按需追加
	DEFAULT_SCAFFOLD_ROUNDS = 10
)

// 玩家身份
type Role string

const (
	ROLE_UNASSIGNED   Role = ""
	ROLE_INVESTIGATOR Role = "Investigator"
	ROLE_FIXER        Role = "Fixer"
	ROLE_CULPRIT_A    Role = "CulpritTypeA"
	ROLE_CULPRIT_B    Role = "CulpritTypeB"
)

// 每轮参与洗牌的固定身份集合
var Roles = [PLAYER_COUNT]Role{
	ROLE_INVESTIGATOR,
	ROLE_FIXER,
	ROLE_CULPRIT_A,
	ROLE_CULPRIT_B,
}

// 轮次类型，按轮次奇偶交替，决定本轮哪个嫌犯身份可以被指认
type RoundType string

const (
	ROUND_TYPE_A RoundType = "TypeA"
	ROUND_TYPE_B RoundType = "TypeB"
)

func RoundTypeOf(roundNumber int) RoundType {
	if roundNumber%2 == 1 {
		return ROUND_TYPE_A
	}

	return ROUND_TYPE_B
}

// LiveCulprit 返回本轮可以被指认的嫌犯身份
func (rt RoundType) LiveCulprit() Role {
	if rt == ROUND_TYPE_A {
		return ROLE_CULPRIT_A
	}

	return ROLE_CULPRIT_B
}

// 轮次阶段，完全由轮次自身字段推导
type Phase string

const (
	PHASE_UNASSIGNED Phase = "Unassigned"
	PHASE_VIEWING    Phase = "Viewing"
	PHASE_ACCUSING   Phase = "Accusing"
	PHASE_RESOLVED   Phase = "Resolved"
)

// 指认结果
type Outcome string

const (
	OUTCOME_PENDING   Outcome = ""
	OUTCOME_CORRECT   Outcome = "Correct"
	OUTCOME_INCORRECT Outcome = "Incorrect"
	OUTCOME_TIMEOUT   Outcome = "Timeout"
)

// Caught 表示本轮的在逃嫌犯是否被抓
func (o Outcome) Caught() bool {
	return o == OUTCOME_CORRECT
}

type PlayerRoundRecord struct {
	PlayerID   int  `json:"player_id"`
	Role       Role `json:"role"`
	RoundScore int  `json:"round_score"`
	// 轮次创建时继承上一轮的累计分，结算后为 上一轮累计 + 本轮得分
	CumulativeScore int `json:"cumulative_score"`
}

type RoundState struct {
	Number  int                             `json:"number"`
	Type    RoundType                       `json:"type"`
	Players [PLAYER_COUNT]PlayerRoundRecord `json:"players"`

	// 已经私下查看过身份的玩家
	Viewers [PLAYER_COUNT]bool `json:"viewers"`

	Accusation    *int    `json:"accusation,omitempty"`
	Outcome       Outcome `json:"outcome,omitempty"`
	Resolved      bool    `json:"resolved"`
	RolesAssigned bool    `json:"roles_assigned"`
	// 结算结果已经计入赛季统计和总分
	Tallied bool `json:"tallied"`

	// 分配身份时侦探已有的连续正确次数，结算时据此判断连胜奖励
	PriorStreak int `json:"prior_streak"`
}

func newRoundState(number int, totals [PLAYER_COUNT]int) RoundState {
	rs := RoundState{
		Number: number,
		Type:   RoundTypeOf(number),
	}

	for i := range rs.Players {
		rs.Players[i] = PlayerRoundRecord{
			PlayerID:        i,
			CumulativeScore: totals[i],
		}
	}

	return rs
}

func (rs *RoundState) ViewerCount() int {
	count := 0
	for _, seen := range rs.Viewers {
		if seen {
			count++
		}
	}

	return count
}

func (rs *RoundState) Phase() Phase {
	switch {
	case rs.Resolved:
		return PHASE_RESOLVED
	case !rs.RolesAssigned:
		return PHASE_UNASSIGNED
	case rs.ViewerCount() == PLAYER_COUNT:
		return PHASE_ACCUSING
	default:
		return PHASE_VIEWING
	}
}

func (rs *RoundState) Totals() [PLAYER_COUNT]int {
	var totals [PLAYER_COUNT]int
	for i, p := range rs.Players {
		totals[i] = p.CumulativeScore
	}

	return totals
}

func (rs RoundState) clone() RoundState {
	if rs.Accusation != nil {
		accused := *rs.Accusation
		rs.Accusation = &accused
	}

	return rs
}

// 每名玩家跨轮累计的统计数据
type PlayerStats struct {
	InvestigatorCorrect int `json:"investigator_correct"`
	InvestigatorWrong   int `json:"investigator_wrong"`
	CulpritEscaped      int `json:"culprit_escaped"`
	CulpritCaught       int `json:"culprit_caught"`
	FixerRoleCount      int `json:"fixer_role_count"`
}

func validPlayer(playerID int) bool {
	return playerID >= 0 && playerID < PLAYER_COUNT
}
