package service

import (
	"context"
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/mlxvideo/api/internal/model"
)

// SystemService probes the host hardware and derives recommended worker
// settings from it.
type SystemService struct{}

func NewSystemService() *SystemService {
	return &SystemService{}
}

// HardwareInfo returns a description of the host.
func (s *SystemService) HardwareInfo(ctx context.Context) model.HardwareInfo {
	info := model.HardwareInfo{
		Platform:     runtime.GOOS,
		Arch:         runtime.GOARCH,
		Cores:        runtime.NumCPU(),
		AppleSilicon: runtime.GOOS == "darwin" && runtime.GOARCH == "arm64",
		GoVersion:    runtime.Version(),
	}

	if cpus, err := cpu.InfoWithContext(ctx); err == nil && len(cpus) > 0 {
		info.CPU = cpus[0].ModelName
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		info.MemoryGB = float64(vm.Total) / (1 << 30)
	}

	return info
}

// RecommendedDefaults picks generation and training settings for the host's
// memory tier. Small machines get the distilled pipeline at modest
// resolutions; only 64GB+ hosts default to the dev pipeline at HD.
func (s *SystemService) RecommendedDefaults(ctx context.Context) model.DefaultSettings {
	memGB := s.HardwareInfo(ctx).MemoryGB

	var gen model.GenerationDefaults
	switch {
	case memGB >= 64:
		gen = model.GenerationDefaults{
			ModelRepo: "AITRADER/ltx2-dev-8bit-mlx",
			Pipeline:  model.PipelineDev,
			Width:     1024,
			Height:    576,
			NumFrames: 65,
			Steps:     30,
			CFGScale:  4.5,
		}
	case memGB >= 32:
		gen = model.GenerationDefaults{
			ModelRepo: "AITRADER/ltx2-distilled-8bit-mlx",
			Pipeline:  model.PipelineDistilled,
			Width:     768,
			Height:    432,
			NumFrames: 49,
			Steps:     8,
			CFGScale:  1,
		}
	default:
		gen = model.GenerationDefaults{
			ModelRepo: "AITRADER/ltx2-distilled-8bit-mlx",
			Pipeline:  model.PipelineDistilled,
			Width:     512,
			Height:    512,
			NumFrames: 33,
			Steps:     8,
			CFGScale:  1,
		}
	}

	train := model.TrainingDefaults{LoraRank: 32, BatchSize: 1, Steps: 2000}
	if memGB < 32 {
		train.LoraRank = 16
	}

	return model.DefaultSettings{Generation: gen, Training: train}
}
