package initializer

import (
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v3/process"
)

// MemoryProbe 进程内存采样接口
type MemoryProbe interface {
	// RSS 返回当前常驻内存（字节）
	RSS() (uint64, error)
}

// processMemoryProbe 基于gopsutil的当前进程内存采样
type processMemoryProbe struct {
	proc *process.Process
}

// NewProcessMemoryProbe 创建当前进程的内存采样器
func NewProcessMemoryProbe() (MemoryProbe, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("获取当前进程失败: %w", err)
	}
	return &processMemoryProbe{proc: proc}, nil
}

// RSS 返回当前常驻内存
func (p *processMemoryProbe) RSS() (uint64, error) {
	info, err := p.proc.MemoryInfo()
	if err != nil {
		return 0, err
	}
	return info.RSS, nil
}
