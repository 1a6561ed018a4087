package clock

import (
	"sync"
	"time"
)

// Clock 当前时间来源，业务层统一通过它取时间以便测试注入
type Clock interface {
	Now() time.Time
}

type realClock struct{}

// New 返回系统时钟，时间统一为 UTC
func New() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// Fake 可手动推进的时钟，仅用于测试
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

// NewFake 以给定时间创建 Fake 时钟
func NewFake(now time.Time) *Fake {
	return &Fake{now: now.UTC()}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Set 将时钟拨到指定时间
func (f *Fake) Set(now time.Time) {
	f.mu.Lock()
	f.now = now.UTC()
	f.mu.Unlock()
}

// Advance 将时钟向前推进 d
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}
