package shell

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// Region 独立失败的区域
type Region string

const (
	RegionNavigation Region = "navigation"
	RegionModal      Region = "modal"
)

// ErrRegionPanicked 区域内发生panic，调用方应渲染降级内容
var ErrRegionPanicked = errors.New("区域执行失败")

// Guard 在区域边界内执行fn（对外导出）
// fn中的panic被捕获并记录，返回包装了ErrRegionPanicked的错误，不会越过边界
func (s *Shell) Guard(region Region, fn func() error) (err error) {
	return Guard(region, fn)
}

// Guard 不依赖应用壳实例的区域边界
func Guard(region Region, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("❌ [应用壳] 区域 %s 发生panic: %v\n%s", region, r, debug.Stack())
			err = fmt.Errorf("%w: %s: %v", ErrRegionPanicked, region, r)
		}
	}()
	return fn()
}
