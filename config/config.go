package config

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	LLM      LLMConfig      `yaml:"llm"`
	Data     DataConfig     `yaml:"data"`
	Workflow WorkflowConfig `yaml:"workflow"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release
}

type DatabaseConfig struct {
	Type string `yaml:"type"` // sqlite, mysql
	DSN  string `yaml:"dsn"`
}

// LLMConfig 多模态模型网关配置
// APIKey 为空时解析与判定均走演示模式
type LLMConfig struct {
	APIURL      string        `yaml:"api_url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

type DataConfig struct {
	Dir string `yaml:"dir"`
}

// WorkflowConfig 作业流程相关的时间参数
type WorkflowConfig struct {
	FeedbackDuration time.Duration `yaml:"feedback_duration"` // 判定结果展示时长
	DemoDelay        time.Duration `yaml:"demo_delay"`        // 演示模式的模拟延迟
	MaxUploadBytes   int64         `yaml:"max_upload_bytes"`
}

var (
	cfg  *Config
	once sync.Once
)

func GetConfig() *Config {
	once.Do(func() {
		cfg = loadConfig()
	})
	return cfg
}

// Default 返回内置默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8080",
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Type: "sqlite",
			DSN:  "./data/yoshilog.db",
		},
		LLM: LLMConfig{
			Model:       "Llama-4-Maverick-17B-128E-Instruct",
			Temperature: 0.1,
			Timeout:     2 * time.Minute,
		},
		Data: DataConfig{
			Dir: "./data",
		},
		Workflow: WorkflowConfig{
			FeedbackDuration: 4 * time.Second,
			DemoDelay:        2 * time.Second,
			MaxUploadBytes:   20 << 20,
		},
	}
}

func loadConfig() *Config {
	config := Default()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err == nil {
		yaml.Unmarshal(data, config)
	}

	applyEnv(config)
	return config
}

// applyEnv 环境变量优先级高于配置文件
func applyEnv(config *Config) {
	if apiKey := os.Getenv("LLAMA_API_KEY"); apiKey != "" {
		config.LLM.APIKey = apiKey
	}
	if baseURL := os.Getenv("LLAMA_API_BASE_URL"); baseURL != "" {
		config.LLM.APIURL = baseURL
	}
	if model := os.Getenv("LLAMA_MODEL_NAME"); model != "" {
		config.LLM.Model = model
	}

	if port := os.Getenv("SERVER_PORT"); port != "" {
		config.Server.Port = port
	}

	// 数据库环境变量
	if dbType := os.Getenv("DB_TYPE"); dbType != "" {
		config.Database.Type = dbType
	}
	if dbDSN := os.Getenv("DB_DSN"); dbDSN != "" {
		config.Database.DSN = dbDSN
	}

	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		config.Data.Dir = dataDir
		if os.Getenv("DB_DSN") == "" && config.Database.Type == "sqlite" {
			config.Database.DSN = filepath.Join(dataDir, "yoshilog.db")
		}
	}

	if config.Workflow.FeedbackDuration <= 0 {
		config.Workflow.FeedbackDuration = 4 * time.Second
	}
	if config.Workflow.DemoDelay < 0 {
		config.Workflow.DemoDelay = 0
	}
}

// DemoMode 未配置 API Key 时返回 true
func (c *Config) DemoMode() bool {
	return c.LLM.APIKey == ""
}
