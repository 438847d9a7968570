// Package profile holds the runtime configuration resolved from the
// environment at startup.
package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Version is stamped at build time via -ldflags "-X ...profile.Version=".
var Version = "0.1.0"

// Profile is the resolved runtime configuration.
type Profile struct {
	// Mode is "prod", "dev", or "demo".
	Mode string `mapstructure:"mode"`
	// Addr is the bind address for the HTTP API.
	Addr string `mapstructure:"addr"`
	// Port is the HTTP API port.
	Port int `mapstructure:"port"`
	// Data is the directory for local state (SQLite database, .env).
	Data string `mapstructure:"data"`
	// Driver is "sqlite", "postgres", or "mysql".
	Driver string `mapstructure:"driver"`
	// DSN is the database connection string. Defaults to a file under Data
	// for the sqlite driver.
	DSN string `mapstructure:"dsn"`

	// LLMBaseURL is the OpenAI-compatible chat-completions endpoint.
	LLMBaseURL string `mapstructure:"llm_base_url"`
	// LLMModel is the model identifier sent with every completion request.
	LLMModel string `mapstructure:"llm_model"`
	// LLMAPIKey authenticates against the LLM endpoint. Empty disables chat.
	LLMAPIKey string `mapstructure:"llm_api_key"`
	// AgentTimeout bounds one agent invocation end to end.
	AgentTimeout time.Duration `mapstructure:"agent_timeout"`

	// ChatRatePerMinute and ChatRateBurst configure the per-user limiter on
	// the chat route.
	ChatRatePerMinute int `mapstructure:"chat_rate_per_minute"`
	ChatRateBurst     int `mapstructure:"chat_rate_burst"`

	// MCPAddr is the listen address for the MCP tool server ("" = disabled).
	MCPAddr string `mapstructure:"mcp_addr"`
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// ListenAddr is the host:port the HTTP API binds to.
func (p *Profile) ListenAddr() string {
	return fmt.Sprintf("%s:%d", p.Addr, p.Port)
}

// GetProfile resolves the profile from TASKCHAT_* environment variables.
func GetProfile() (*Profile, error) {
	v := viper.New()
	v.SetEnvPrefix("taskchat")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", "dev")
	v.SetDefault("addr", "")
	v.SetDefault("port", 8080)
	v.SetDefault("data", "")
	v.SetDefault("driver", "sqlite")
	v.SetDefault("dsn", "")
	v.SetDefault("llm_base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("llm_model", "openai/gpt-4o-mini")
	v.SetDefault("llm_api_key", "")
	v.SetDefault("agent_timeout", 45*time.Second)
	v.SetDefault("chat_rate_per_minute", 10)
	v.SetDefault("chat_rate_burst", 10)
	v.SetDefault("mcp_addr", "")

	p := &Profile{}
	if err := v.Unmarshal(p); err != nil {
		return nil, errors.Wrap(err, "unmarshal profile")
	}

	if p.Mode != "prod" && p.Mode != "dev" && p.Mode != "demo" {
		p.Mode = "dev"
	}
	if p.Data == "" {
		if p.Mode == "prod" {
			p.Data = "/var/opt/taskchat"
		} else {
			p.Data = "."
		}
	}
	if p.Driver == "sqlite" && p.DSN == "" {
		if err := os.MkdirAll(p.Data, 0o750); err != nil {
			return nil, errors.Wrapf(err, "create data dir %q", p.Data)
		}
		p.DSN = filepath.Join(p.Data, fmt.Sprintf("taskchat_%s.db", p.Mode))
	}
	if p.Driver != "sqlite" && p.DSN == "" {
		return nil, errors.Errorf("dsn required for driver %q", p.Driver)
	}
	return p, nil
}
