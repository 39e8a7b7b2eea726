package dto

import "time"

// 供渲染层使用的只读赛季快照，本轮未公开的身份留空
type SeasonSnapshot struct {
	SeasonID     string       `json:"season_id"`
	Started      bool         `json:"started"`
	Ended        bool         `json:"ended"`
	Stage        string       `json:"stage"`
	CurrentRound int          `json:"current_round"`
	RoundType    string       `json:"round_type,omitempty"`
	Deadline     *time.Time   `json:"deadline,omitempty"`
	Viewing      *int         `json:"viewing,omitempty"`
	Players      []PlayerView `json:"players"`
	Rounds       []RoundView  `json:"rounds"`
	Badges       []BadgeView  `json:"badges"`
	Winners      []int        `json:"winners,omitempty"`
}

type PlayerView struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Total int    `json:"total"`
	// 本轮公开的身份，可能为空
	Role   string    `json:"role,omitempty"`
	Viewed bool      `json:"viewed"`
	Stats  StatsView `json:"stats"`
}

type StatsView struct {
	InvestigatorCorrect int `json:"investigator_correct"`
	InvestigatorWrong   int `json:"investigator_wrong"`
	CulpritEscaped      int `json:"culprit_escaped"`
	CulpritCaught       int `json:"culprit_caught"`
	FixerRoleCount      int `json:"fixer_role_count"`
	Streak              int `json:"streak"`
}

type RoundView struct {
	Number  int               `json:"number"`
	Type    string            `json:"type"`
	Phase   string            `json:"phase"`
	Accused *int              `json:"accused,omitempty"`
	Outcome string            `json:"outcome,omitempty"`
	Players []RoundPlayerView `json:"players"`
}

type RoundPlayerView struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Role       string `json:"role,omitempty"`
	RoundScore int    `json:"round_score"`
	Total      int    `json:"total"`
}

type BadgeView struct {
	Kind        string `json:"kind"`
	PlayerID    int    `json:"player_id"`
	PlayerName  string `json:"player_name"`
	Title       string `json:"title"`
	Description string `json:"description"`
	FlavorKey   string `json:"flavor_key"`
}

// 只返回给正在查看的玩家本人
type RoleView struct {
	PlayerID  int       `json:"player_id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Round     int       `json:"round"`
	RoundType string    `json:"round_type"`
	Deadline  time.Time `json:"deadline"`
}
