// Package config loads process-start configuration: backend endpoints, the
// admin allowlist, and workspace defaults. Nothing here is compiled in;
// every value can come from the config file or the environment.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// Default endpoint values for local development against the mock backend.
const (
	DefaultBackendURL = "http://localhost:8080"
	DefaultAgentLabel = "success-copilot"
	DefaultPhase      = "onboarding"
)

// WorkspaceDefaults seeds new workspaces.
type WorkspaceDefaults struct {
	Phase          string `json:"phase"`
	AutonomyPreset string `json:"autonomyPreset"` // "review" or "autonomous"
}

// Config is the static configuration injected at process start.
type Config struct {
	BackendURL  string `json:"backendUrl"`
	RecorderURL string `json:"recorderUrl"`
	AgentLabel  string `json:"agentLabel"`

	// AdminEmails is the global admin allowlist consulted by the auth
	// collaborator. Carried here so it ships as data, not code.
	AdminEmails []string          `json:"adminEmails"`
	Workspace   WorkspaceDefaults `json:"workspace"`
}

// defaultConfig returns the configuration used when no file exists.
func defaultConfig() *Config {
	return &Config{
		BackendURL: DefaultBackendURL,
		AgentLabel: DefaultAgentLabel,
		Workspace: WorkspaceDefaults{
			Phase:          DefaultPhase,
			AutonomyPreset: "review",
		},
	}
}

// DefaultPath returns the conventional config file location.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "cscx-assistant", "config.json"), nil
}

// Load reads the config file at path (or the default location when path is
// empty), fills in defaults for anything missing, and applies environment
// overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults plus env only.
	case err != nil:
		return nil, err
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	applyDefaults(cfg)
	applyEnv(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.BackendURL == "" {
		cfg.BackendURL = DefaultBackendURL
	}
	if cfg.AgentLabel == "" {
		cfg.AgentLabel = DefaultAgentLabel
	}
	if cfg.Workspace.Phase == "" {
		cfg.Workspace.Phase = DefaultPhase
	}
	if cfg.Workspace.AutonomyPreset == "" {
		cfg.Workspace.AutonomyPreset = "review"
	}
}

// applyEnv overrides file values from the environment.
func applyEnv(cfg *Config) {
	if v := os.Getenv("CSCX_BACKEND_URL"); v != "" {
		cfg.BackendURL = v
	}
	if v := os.Getenv("CSCX_RECORDER_URL"); v != "" {
		cfg.RecorderURL = v
	}
	if v := os.Getenv("CSCX_AGENT_LABEL"); v != "" {
		cfg.AgentLabel = v
	}
	if v := os.Getenv("CSCX_ADMIN_EMAILS"); v != "" {
		cfg.AdminEmails = splitList(v)
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// EffectiveRecorderURL returns the recorder endpoint, falling back to the
// backend when none is set.
func (c *Config) EffectiveRecorderURL() string {
	if c.RecorderURL != "" {
		return c.RecorderURL
	}
	return c.BackendURL
}

// IsAdmin reports whether an email is on the global allowlist.
func (c *Config) IsAdmin(email string) bool {
	for _, admin := range c.AdminEmails {
		if strings.EqualFold(admin, email) {
			return true
		}
	}
	return false
}
