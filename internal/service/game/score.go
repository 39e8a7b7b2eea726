package game

// 各身份的分值
const (
	SCORE_FIXER        = 100
	SCORE_INVESTIGATOR = 80
	SCORE_CULPRIT_A    = 40
	SCORE_CULPRIT_B    = 60

	// 侦探连续猜对三次的额外奖励
	STREAK_BONUS     = 100
	STREAK_MILESTONE = 3
)

// Score 计算某个身份在本轮的基础得分，不含连胜奖励。
// 非在逃嫌犯总是拿到自己的全额分。
func Score(role Role, roundType RoundType, investigatorCorrect bool) int {
	switch role {
	case ROLE_FIXER:
		return SCORE_FIXER

	case ROLE_INVESTIGATOR:
		if investigatorCorrect {
			return SCORE_INVESTIGATOR
		}
		return 0

	case ROLE_CULPRIT_A:
		if roundType == ROUND_TYPE_A && investigatorCorrect {
			return 0
		}
		return SCORE_CULPRIT_A

	case ROLE_CULPRIT_B:
		if roundType == ROUND_TYPE_B && investigatorCorrect {
			return 0
		}
		return SCORE_CULPRIT_B
	}

	return 0
}

// streakBonusDue 判断本次正确指认是否正好达到连胜里程碑
func streakBonusDue(priorStreak int, correct bool) bool {
	return correct && priorStreak+1 == STREAK_MILESTONE
}
