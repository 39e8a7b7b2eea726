package game

import "time"

type StartSeasonRequest struct {
	Names [PLAYER_COUNT]string `json:"names"`
}

// 开始私下查看身份，同一时间只允许一名玩家查看
type OpenRoleRequest struct {
	PlayerID int `json:"player_id"`
}

type OpenRoleResponse struct {
	PlayerID  int       `json:"player_id"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	Round     int       `json:"round"`
	RoundType RoundType `json:"round_type"`
	Deadline  time.Time `json:"deadline"`
}

// 玩家确认已看过身份，查看计时到期时也会由状态机自动生成
type ViewRoleRequest struct {
	PlayerID int `json:"player_id"`
}

type AccuseRequest struct {
	AccusedID int `json:"accused_id"`
}

// 计时器到期时投递给状态机的请求，Seq 用于丢弃已被取消的计时器
type TimeoutRequest struct {
	Stage    string `json:"stage"`
	Round    int    `json:"round"`
	PlayerID *int   `json:"player_id,omitempty"`
	Seq      uint64 `json:"seq"`
}

type SnapshotResponse struct {
	Season   SeasonState `json:"season"`
	Stage    string      `json:"stage"`
	Deadline time.Time   `json:"deadline"`
	Viewing  *int        `json:"viewing,omitempty"`
}

type StageChangeResponse struct {
	SeasonID string `json:"season_id"`
	Stage    string `json:"stage"`
	Round    int    `json:"round"`
}
