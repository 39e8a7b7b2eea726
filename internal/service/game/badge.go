package game

// 徽章种类
type BadgeKind string

const (
	BADGE_BEST_INVESTIGATOR  BadgeKind = "best_investigator"
	BADGE_WORST_INVESTIGATOR BadgeKind = "worst_investigator"
	BADGE_BEST_ESCAPEE       BadgeKind = "best_escapee"
	BADGE_WORST_ESCAPEE      BadgeKind = "worst_escapee"
	BADGE_BEST_FIXER         BadgeKind = "best_fixer"

	// 达到该次数才有资格持有徽章
	BADGE_THRESHOLD = 3
)

// 结算时按此顺序评估徽章，保证事件顺序稳定
var BadgeKinds = []BadgeKind{
	BADGE_BEST_INVESTIGATOR,
	BADGE_WORST_INVESTIGATOR,
	BADGE_BEST_ESCAPEE,
	BADGE_WORST_ESCAPEE,
	BADGE_BEST_FIXER,
}

type BadgeDetail struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

var badgeDetails = map[BadgeKind]BadgeDetail{
	BADGE_BEST_INVESTIGATOR: {
		Title:       "Best Investigator in Town",
		Description: "Awarded to the investigator with the most correct accusations (3+).",
	},
	BADGE_WORST_INVESTIGATOR: {
		Title:       "Worst Investigator in Town",
		Description: "Awarded to the investigator with the most wrong or missed accusations (3+).",
	},
	BADGE_BEST_ESCAPEE: {
		Title:       "Best Escape Artist",
		Description: "Awarded to the culprit who escaped the most (3+).",
	},
	BADGE_WORST_ESCAPEE: {
		Title:       "Most Wanted",
		Description: "Awarded to the culprit who was caught the most (3+).",
	},
	BADGE_BEST_FIXER: {
		Title:       "Best Fixer in Town",
		Description: "Awarded to the player who played the fixer 3 or more times.",
	},
}

func BadgeInfo(kind BadgeKind) (BadgeDetail, bool) {
	detail, ok := badgeDetails[kind]
	return detail, ok
}

func (kind BadgeKind) FlavorKey() string {
	return "badge." + string(kind)
}

// count 返回某种徽章对应的统计值
func (kind BadgeKind) count(stats PlayerStats) int {
	switch kind {
	case BADGE_BEST_INVESTIGATOR:
		return stats.InvestigatorCorrect
	case BADGE_WORST_INVESTIGATOR:
		return stats.InvestigatorWrong
	case BADGE_BEST_ESCAPEE:
		return stats.CulpritEscaped
	case BADGE_WORST_ESCAPEE:
		return stats.CulpritCaught
	case BADGE_BEST_FIXER:
		return stats.FixerRoleCount
	}

	return 0
}

// evaluateBadge 判断候选人是否取得徽章。
// 只有严格大于现任持有者的次数才会易主，平局保留现任。
func evaluateBadge(
	kind BadgeKind,
	candidate int,
	stats [PLAYER_COUNT]PlayerStats,
	badges map[BadgeKind]int,
) (*BadgeEvent, bool) {
	count := kind.count(stats[candidate])
	if count < BADGE_THRESHOLD {
		return nil, false
	}

	holder, held := badges[kind]
	if held && count <= kind.count(stats[holder]) {
		return nil, false
	}

	event := &BadgeEvent{
		Kind:      kind,
		PlayerID:  candidate,
		Count:     count,
		FlavorKey: kind.FlavorKey(),
	}

	if held {
		event.Previous = intPtr(holder)
	}

	badges[kind] = candidate

	return event, true
}
