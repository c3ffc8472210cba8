package deferred

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/LENAX/grocery-core/pkg/logger"
)

// ErrSchedulerClosed 调度器已关闭
var ErrSchedulerClosed = errors.New("延迟调度器已关闭")

var log = logger.WithComponent("deferred")

// Entry 已调度但尚未触发的延迟任务
type Entry struct {
	ID     string    `json:"id"`
	FireAt time.Time `json:"fire_at"`
}

type entry struct {
	id     string
	fireAt time.Time
	timer  Timer
}

// Scheduler 延迟任务调度器（对外导出）
// 每个延迟任务有自己的ID，同ID重复调度时后者替换前者
// 回调在定时器的goroutine中执行，可能与其他任何逻辑交错
type Scheduler struct {
	clock   Clock
	mu      sync.Mutex
	entries map[string]*entry
	closed  bool
	running sync.WaitGroup // 正在执行的回调
}

// NewScheduler 创建延迟任务调度器，clock为nil时使用真实时钟
func NewScheduler(clock Clock) *Scheduler {
	if clock == nil {
		clock = RealClock()
	}
	return &Scheduler{
		clock:   clock,
		entries: make(map[string]*entry),
	}
}

// Schedule 在delay之后执行fn（对外导出）
// fn中的panic会被捕获并记录日志
func (s *Scheduler) Schedule(id string, delay time.Duration, fn func()) error {
	if id == "" {
		return fmt.Errorf("延迟任务ID不能为空")
	}
	if fn == nil {
		return fmt.Errorf("延迟任务 %s 的回调不能为空", id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSchedulerClosed
	}
	if prev, exists := s.entries[id]; exists {
		prev.timer.Stop()
		log.Debugf("[延迟调度] 替换已存在的延迟任务: ID=%s", id)
	}

	e := &entry{id: id, fireAt: s.clock.Now().Add(delay)}
	e.timer = s.clock.AfterFunc(delay, func() {
		s.fire(e, fn)
	})
	s.entries[id] = e
	return nil
}

// fire 执行到期任务
func (s *Scheduler) fire(e *entry, fn func()) {
	s.mu.Lock()
	current, exists := s.entries[e.id]
	if !exists || current != e {
		s.mu.Unlock()
		return
	}
	delete(s.entries, e.id)
	s.running.Add(1)
	s.mu.Unlock()
	defer s.running.Done()

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("❌ [延迟调度] 延迟任务panic: ID=%s, Error=%v\n%s", e.id, r, debug.Stack())
		}
	}()
	log.Debugf("[延迟调度] 触发延迟任务: ID=%s", e.id)
	fn()
}

// Cancel 取消尚未触发的延迟任务
func (s *Scheduler) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.entries[id]
	if !exists {
		return false
	}
	delete(s.entries, id)
	e.timer.Stop()
	return true
}

// Pending 返回尚未触发的延迟任务（按触发时间排序）
func (s *Scheduler) Pending() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		list = append(list, Entry{ID: e.id, FireAt: e.fireAt})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].FireAt.Equal(list[j].FireAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].FireAt.Before(list[j].FireAt)
	})
	return list
}

// Close 取消所有未触发的延迟任务并等待正在执行的回调结束
// 之后的Schedule返回ErrSchedulerClosed；不能在回调内部调用
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for id, e := range s.entries {
		e.timer.Stop()
		delete(s.entries, id)
	}
	s.mu.Unlock()

	s.running.Wait()
}
