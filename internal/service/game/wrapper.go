package game

import (
	"encoding/json"

	"go.uber.org/zap"
)

// 请求类型
const (
	REQ_START_SEASON       = "StartSeason"
	REQ_OPEN_ROLE          = "OpenRole"
	REQ_VIEW_ROLE          = "ViewRole"
	REQ_ACCUSE             = "Accuse"
	REQ_TIMEOUT_ACCUSATION = "TimeoutAccusation"
	REQ_ADVANCE_ROUND      = "AdvanceRound"
	REQ_END_SEASON         = "EndSeason"
	REQ_RESUME_SEASON      = "ResumeSeason"
	REQ_RESET_SEASON       = "ResetSeason"
	REQ_SNAPSHOT           = "Snapshot"
	REQ_TIMEOUT            = "Timeout"
)

type RequestWrapper struct {
	ReqType string          `json:"request_type"`
	Data    json.RawMessage `json:"data,omitempty"`

	// 状态机处理完毕后把结果写回这个通道
	RespCh chan ResponseWrapper `json:"-"`
}

func WrapRequest(reqType string, data any) RequestWrapper {
	req := RequestWrapper{
		ReqType: reqType,
		RespCh:  make(chan ResponseWrapper, 1),
	}

	if data != nil {
		req.Data = mustMarshal(data)
	}

	return req
}

func tryUnwrap[T any](wrapper RequestWrapper, reqType string) *T {
	if wrapper.ReqType != reqType {
		return nil
	}

	var req T

	if len(wrapper.Data) == 0 {
		return &req
	}

	err := json.Unmarshal(wrapper.Data, &req)
	if err != nil {
		zap.L().Error(
			"Failed to unwrap request",
			zap.String("request_type", reqType),
			zap.Error(err),
			zap.Any("wrapper", wrapper),
		)
		return nil
	}

	return &req
}

func TryUnwrapStartSeasonRequest(wrapper RequestWrapper) *StartSeasonRequest {
	return tryUnwrap[StartSeasonRequest](wrapper, REQ_START_SEASON)
}

func TryUnwrapOpenRoleRequest(wrapper RequestWrapper) *OpenRoleRequest {
	return tryUnwrap[OpenRoleRequest](wrapper, REQ_OPEN_ROLE)
}

func TryUnwrapViewRoleRequest(wrapper RequestWrapper) *ViewRoleRequest {
	return tryUnwrap[ViewRoleRequest](wrapper, REQ_VIEW_ROLE)
}

func TryUnwrapAccuseRequest(wrapper RequestWrapper) *AccuseRequest {
	return tryUnwrap[AccuseRequest](wrapper, REQ_ACCUSE)
}

func TryUnwrapTimeoutRequest(wrapper RequestWrapper) *TimeoutRequest {
	return tryUnwrap[TimeoutRequest](wrapper, REQ_TIMEOUT)
}

// 以下请求不携带数据，只需要判断类型
func IsRequest(wrapper RequestWrapper, reqType string) bool {
	return wrapper.ReqType == reqType
}

// 响应类型
const (
	RESP_ERROR = "Error"
	RESP_OK    = "Ok"

	RESP_OPEN_ROLE      = "OpenRole"
	RESP_SNAPSHOT       = "Snapshot"
	RESP_SEASON_STATE   = "SeasonState"
	RESP_ROUND_RESOLVED = "RoundResolved"
	RESP_STREAK_BONUS   = "StreakBonus"
	RESP_BADGE_AWARDED  = "BadgeAwarded"
)

type ResponseWrapper struct {
	RespType string `json:"response_type"`
	Data     any    `json:"data"`
	ErrMsg   string `json:"error_message,omitempty"`

	Err error `json:"-"`
}

func WrapResponse(respType string, data any) ResponseWrapper {
	return ResponseWrapper{
		RespType: respType,
		Data:     data,
	}
}

func WrapErrResponse(err error) ResponseWrapper {
	return ResponseWrapper{
		RespType: RESP_ERROR,
		ErrMsg:   err.Error(),
		Err:      err,
	}
}

// WrapEvent 把结算事件转换为广播响应
func WrapEvent(event Event) ResponseWrapper {
	switch event.Type {
	case EVENT_ROUND_RESOLVED:
		return WrapResponse(RESP_ROUND_RESOLVED, *event.Resolution)
	case EVENT_STREAK_BONUS:
		return WrapResponse(RESP_STREAK_BONUS, *event.StreakBonus)
	case EVENT_BADGE_AWARDED:
		return WrapResponse(RESP_BADGE_AWARDED, *event.Badge)
	}

	return WrapResponse(event.Type, event)
}
