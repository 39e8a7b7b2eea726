package game

import (
	"errors"
	"fmt"
)

var (
	// 玩家编号不在 0..3 之内，或者不是可被指认的嫌疑人
	ErrInvalidPlayer = errors.New("无效的玩家")
	// 当前阶段不允许该操作
	ErrInvalidPhase = errors.New("当前阶段不允许该操作")
	// 某个身份的持有者不是恰好一人，属于程序缺陷
	ErrInvalidRole = errors.New("身份分配不一致")

	ErrNoSeason      = errors.New("当前没有进行中的赛季")
	ErrMachineClosed = errors.New("游戏状态机已关闭")

	// 已经有玩家正在私下查看身份
	ErrRevealBusy = fmt.Errorf("%w：已有玩家正在查看身份", ErrInvalidPhase)
)
