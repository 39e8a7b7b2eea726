package game

import "time"

// 默认计时：私下查看身份 3 秒，侦探指认 25 秒
const (
	DEFAULT_VIEW_TIMEOUT       = 3 * time.Second
	DEFAULT_ACCUSATION_TIMEOUT = 25 * time.Second
)

type Timer interface {
	Stop() bool
}

// Scheduler 抽象了时钟和延时回调，测试中可以替换为手动触发的实现
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func RealScheduler() Scheduler {
	return realScheduler{}
}

func (realScheduler) Now() time.Time {
	return time.Now()
}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
