package game

// 结算后交给驱动层展示的通知事件类型
const (
	EVENT_ROUND_RESOLVED = "RoundResolved"
	EVENT_STREAK_BONUS   = "StreakBonus"
	EVENT_BADGE_AWARDED  = "BadgeAwarded"
)

type Event struct {
	Type string `json:"type"`

	Resolution  *Resolution       `json:"resolution,omitempty"`
	StreakBonus *StreakBonusEvent `json:"streak_bonus,omitempty"`
	Badge       *BadgeEvent       `json:"badge,omitempty"`
}

type StreakBonusEvent struct {
	PlayerID int `json:"player_id"`
	Round    int `json:"round"`
	Bonus    int `json:"bonus"`
	Streak   int `json:"streak"`
}

type BadgeEvent struct {
	Kind     BadgeKind `json:"kind"`
	PlayerID int       `json:"player_id"`
	// 被取代的上一任持有者，首次颁发时为空
	Previous  *int   `json:"previous,omitempty"`
	Count     int    `json:"count"`
	FlavorKey string `json:"flavor_key"`
}
