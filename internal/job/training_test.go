package job

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mlxvideo/api/internal/model"
)

func TestWriteTrainerConfig(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "run1")
	req := &model.TrainingRequest{
		Pipeline:          "ltx2",
		Seed:              7,
		OutputDir:         outDir,
		ModelRepo:         "AITRADER/ltx2-dev-8bit-mlx",
		Steps:             2000,
		DataRoot:          "/data/preprocessed",
		DataSources:       []string{"clips_a", "clips_b"},
		LoraTargetModules: []string{"to_q", "to_v"},
		ValidationPrompts: []string{"a cat surfing"},
		SchedulerParams:   map[string]any{"warmup_steps": 100},
	}
	req.ApplyDefaults()

	path, err := writeTrainerConfig(req, "abcd1234-0000-0000-0000-000000000000")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, "training_config_abcd1234.yaml"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var cfg trainerConfig
	require.NoError(t, yaml.Unmarshal(data, &cfg))

	assert.Equal(t, "ltx2", cfg.Pipeline)
	assert.Equal(t, 7, cfg.Seed)
	assert.Equal(t, outDir, cfg.OutputDir)
	assert.Equal(t, "AITRADER/ltx2-dev-8bit-mlx", cfg.Model.ModelPath)
	assert.Equal(t, 2000, cfg.Optimization.Steps)
	assert.Equal(t, 32, cfg.Lora.Rank)
	assert.Equal(t, []string{"to_q", "to_v"}, cfg.Lora.TargetModules)
	assert.Equal(t, "/data/preprocessed", cfg.Data.PreprocessedDataRoot)
	assert.Equal(t, []string{"clips_a", "clips_b"}, cfg.Data.DataSources)
	assert.Equal(t, 250, cfg.Checkpoints.Interval)
	assert.Equal(t, []string{"a cat surfing"}, cfg.Validation.Prompts)
	assert.Equal(t, validationNegativePrompt, cfg.Validation.NegativePrompt)
	assert.Equal(t, 100, cfg.Optimization.SchedulerParams["warmup_steps"])
}

func TestWriteTrainerConfigCreatesOutputDir(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "nested", "run")
	req := &model.TrainingRequest{Pipeline: "ltx2", OutputDir: outDir, ModelRepo: "r", Steps: 1, DataRoot: "/d"}
	req.ApplyDefaults()

	_, err := writeTrainerConfig(req, "ffff0000-x")
	require.NoError(t, err)

	info, err := os.Stat(outDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
