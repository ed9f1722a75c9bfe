package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	AppConfig     *AppConfig
	RuntimeConfig *RuntimeConfig
	ProcessConfig *ProcessConfig
}

type AppConfig struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

type RuntimeConfig struct {
	Packaged     bool   `envconfig:"SCENABLY_PACKAGED" default:"false"`
	AppRoot      string `envconfig:"SCENABLY_APP_ROOT" default:"."`
	ResourcesDir string `envconfig:"SCENABLY_RESOURCES_DIR" default:"./resources"`
	TempRoot     string `envconfig:"SCENABLY_TEMP_ROOT" default:""`
	NodeCommand  string `envconfig:"SCENABLY_NODE_COMMAND" default:"node"`
}

type ProcessConfig struct {
	Browser             string        `envconfig:"SCENABLY_BROWSER" default:"chromium"`
	Headless            bool          `envconfig:"SCENABLY_HEADLESS" default:"true"`
	StopGracePeriod     time.Duration `envconfig:"SCENABLY_STOP_GRACE_PERIOD" default:"2s"`
	OutputPollInterval  time.Duration `envconfig:"SCENABLY_OUTPUT_POLL_INTERVAL" default:"500ms"`
	OutputPollAttempts  int           `envconfig:"SCENABLY_OUTPUT_POLL_ATTEMPTS" default:"10"`
	MaxConcurrentExecs  int64         `envconfig:"SCENABLY_MAX_CONCURRENT_EXECUTIONS" default:"10"`
	OutputBufferBytes   int           `envconfig:"SCENABLY_OUTPUT_BUFFER_BYTES" default:"262144"`
	DisableBrowserFetch bool          `envconfig:"SCENABLY_DISABLE_BROWSER_FETCH" default:"true"`
}

func GetConfig() (*Config, error) {
	_ = godotenv.Load()

	var conf Config

	if err := envconfig.Process("", &conf); err != nil {
		return nil, fmt.Errorf("read config from env vars: %w", err)
	}

	return &conf, nil
}
