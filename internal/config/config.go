package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	Paths   PathsConfig
	Worker  WorkerConfig
	WS      WSConfig
	Auth    AuthConfig
	Enhance EnhanceConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type PathsConfig struct {
	OutputDir      string
	UploadDir      string
	CheckpointDirs []string
	LoraDir        string
}

type WorkerConfig struct {
	// Python interpreter used to launch the workers.
	Python string
	// Module invoked with -m for generation and training.
	GenerateModule string
	TrainModule    string
	// Working directory for worker processes; empty inherits the server's.
	Dir string
}

type WSConfig struct {
	// IdleTimeout bounds how long a subscriber connection waits for a
	// client message before a keep-alive ping is pushed.
	IdleTimeout time.Duration
}

type AuthConfig struct {
	// Secret enables bearer-token auth on /api when non-empty. The default
	// deployment is an open localhost API.
	Secret string
}

type EnhanceConfig struct {
	Provider string
	BaseURL  string
	Model    string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variables
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("server.port", "8001")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("paths.output_dir", "./outputs")
	viper.SetDefault("paths.upload_dir", "./uploads")
	viper.SetDefault("paths.checkpoint_dirs", []string{"./checkpoints", "./training_output"})
	viper.SetDefault("paths.lora_dir", "./loras")
	viper.SetDefault("worker.python", "python3")
	viper.SetDefault("worker.generate_module", "mlx_video")
	viper.SetDefault("worker.train_module", "mlx_video.mlx_trainer.trainer")
	viper.SetDefault("worker.dir", "")
	viper.SetDefault("ws.idle_timeout", "30s")
	viper.SetDefault("auth.secret", "")
	viper.SetDefault("enhance.provider", "ollama")
	viper.SetDefault("enhance.base_url", "http://localhost:11434")
	viper.SetDefault("enhance.model", "")

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetString("server.port"),
			Env:  viper.GetString("server.env"),
		},
		Paths: PathsConfig{
			OutputDir:      viper.GetString("paths.output_dir"),
			UploadDir:      viper.GetString("paths.upload_dir"),
			CheckpointDirs: viper.GetStringSlice("paths.checkpoint_dirs"),
			LoraDir:        viper.GetString("paths.lora_dir"),
		},
		Worker: WorkerConfig{
			Python:         viper.GetString("worker.python"),
			GenerateModule: viper.GetString("worker.generate_module"),
			TrainModule:    viper.GetString("worker.train_module"),
			Dir:            viper.GetString("worker.dir"),
		},
		WS: WSConfig{
			IdleTimeout: viper.GetDuration("ws.idle_timeout"),
		},
		Auth: AuthConfig{
			Secret: viper.GetString("auth.secret"),
		},
		Enhance: EnhanceConfig{
			Provider: viper.GetString("enhance.provider"),
			BaseURL:  viper.GetString("enhance.base_url"),
			Model:    viper.GetString("enhance.model"),
		},
	}

	return cfg, nil
}
