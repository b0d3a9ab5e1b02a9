package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/encoding/ianaindex"
)

// FileName is the configuration file looked up in the working directory and
// then in the home directory.
const FileName = ".tfs2git.json"

// Environment variables that override file settings.
const (
	EnvToken        = "TFS2GIT_TOKEN"
	EnvTfPath       = "TFS2GIT_TF_PATH"
	EnvRobocopyPath = "TFS2GIT_ROBOCOPY_PATH"
	EnvGitPath      = "TFS2GIT_GIT_PATH"
	EnvTempRoot     = "TFS2GIT_TEMP_ROOT"
)

// Config is the root configuration structure.
type Config struct {
	Tools       ToolsConfig     `json:"tools"`
	Process     ProcessConfig   `json:"process"`
	Retry       RetryConfig     `json:"retry"`
	Identity    IdentityConfig  `json:"identity"`
	Workspace   WorkspaceConfig `json:"workspace"`
	Mirror      MirrorConfig    `json:"mirror"`
	Git         GitConfig       `json:"git"`
	Tag         TagConfig       `json:"tag"`
	JournalPath string          `json:"journalPath"` // Empty disables the journal

	// Token is the personal access token for the REST API. Only ever read
	// from the environment.
	Token string `json:"-"`
}

// ToolsConfig holds the command lines of external tools. A value may carry
// leading arguments, e.g. "mono /opt/tee/tf.exe".
type ToolsConfig struct {
	Tf       string `json:"tf"`
	Robocopy string `json:"robocopy"`
	Git      string `json:"git"`
}

// ProcessConfig bounds subprocess runs.
type ProcessConfig struct {
	TimeoutMinutes int `json:"timeoutMinutes"`
	// OutputEncoding is the IANA charset of tool output, e.g. "ibm850".
	// Empty means UTF-8.
	OutputEncoding string `json:"outputEncoding"`
}

// RetryConfig controls retries of tf get.
type RetryConfig struct {
	MaxAttempts  int `json:"maxAttempts"`
	DelaySeconds int `json:"delaySeconds"`
}

// IdentityConfig controls author lookups.
type IdentityConfig struct {
	CacheTTLHours   int    `json:"cacheTTLHours"`
	LookupAttempts  int    `json:"lookupAttempts"`
	ValidUsersGroup string `json:"validUsersGroup"`
}

// WorkspaceConfig controls tf workspaces.
type WorkspaceConfig struct {
	TempRoot string   `json:"tempRoot"` // Empty means the system temp directory
	Cloak    []string `json:"cloak"`
	Comment  string   `json:"comment"`
}

// MirrorConfig selects how materialized trees are copied into the repository.
type MirrorConfig struct {
	Backend string   `json:"backend"` // "native" or "robocopy"
	Exclude []string `json:"exclude"`
}

// GitConfig selects how commits are created.
type GitConfig struct {
	CommitBackend string `json:"commitBackend"` // "library" or "executable"
}

// TagConfig describes the tag applied when a job completes.
type TagConfig struct {
	Prefix      string `json:"prefix"`
	TaggerName  string `json:"taggerName"`
	TaggerEmail string `json:"taggerEmail"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Tools: ToolsConfig{
			Tf:       "tf",
			Robocopy: "robocopy",
			Git:      "git",
		},
		Process: ProcessConfig{
			TimeoutMinutes: 7,
		},
		Retry: RetryConfig{
			MaxAttempts:  4,
			DelaySeconds: 35,
		},
		Identity: IdentityConfig{
			CacheTTLHours:   7 * 24,
			LookupAttempts:  1,
			ValidUsersGroup: "Project Collection Valid Users",
		},
		Workspace: WorkspaceConfig{
			Cloak:   []string{"packages"},
			Comment: "TFVC to Git migration workspace",
		},
		Mirror: MirrorConfig{
			Backend: "native",
			Exclude: []string{".git", "$tf", "packages"},
		},
		Git: GitConfig{
			CommitBackend: "library",
		},
		Tag: TagConfig{
			Prefix:      "migration/",
			TaggerName:  "Build Management",
			TaggerEmail: "build.management@localhost",
		},
	}
}

// LoadConfig loads configuration from a file, merging with defaults, then
// applies environment overrides. A .env file in the working directory is
// loaded into the environment first.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	// A missing .env is not an error.
	_ = godotenv.Load()

	if path == "" {
		// Try default locations
		candidates := []string{FileName}
		if home, err := os.UserHomeDir(); err == nil && home != "" {
			candidates = append(candidates, filepath.Join(home, FileName))
		} else if envHome := os.Getenv("HOME"); envHome != "" {
			candidates = append(candidates, filepath.Join(envHome, FileName))
		}
		for _, p := range candidates {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		if err == nil {
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overrides file settings with non-empty environment variables.
func (c *Config) applyEnv() {
	c.Token = getEnv(EnvToken, c.Token)
	c.Tools.Tf = getEnv(EnvTfPath, c.Tools.Tf)
	c.Tools.Robocopy = getEnv(EnvRobocopyPath, c.Tools.Robocopy)
	c.Tools.Git = getEnv(EnvGitPath, c.Tools.Git)
	c.Workspace.TempRoot = getEnv(EnvTempRoot, c.Workspace.TempRoot)
}

// getEnv returns the value of an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// SaveConfig saves configuration to a file.
func SaveConfig(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch {
	case c.Tools.Tf == "":
		return &ConfigError{Field: "tools.tf", Message: "tf command is required"}
	case c.Tools.Git == "" && c.Git.CommitBackend == "executable":
		return &ConfigError{Field: "tools.git", Message: "git command is required for the executable commit backend"}
	case c.Tools.Robocopy == "" && c.Mirror.Backend == "robocopy":
		return &ConfigError{Field: "tools.robocopy", Message: "robocopy command is required for the robocopy mirror backend"}
	case c.Process.TimeoutMinutes <= 0:
		return &ConfigError{Field: "process.timeoutMinutes", Message: "must be positive"}
	case !validEncoding(c.Process.OutputEncoding):
		return &ConfigError{Field: "process.outputEncoding", Message: "unknown charset " + c.Process.OutputEncoding}
	case c.Retry.MaxAttempts < 1:
		return &ConfigError{Field: "retry.maxAttempts", Message: "must be at least 1"}
	case c.Retry.DelaySeconds < 0:
		return &ConfigError{Field: "retry.delaySeconds", Message: "must not be negative"}
	case c.Identity.CacheTTLHours <= 0:
		return &ConfigError{Field: "identity.cacheTTLHours", Message: "must be positive"}
	case c.Identity.LookupAttempts < 1:
		return &ConfigError{Field: "identity.lookupAttempts", Message: "must be at least 1"}
	case c.Mirror.Backend != "native" && c.Mirror.Backend != "robocopy":
		return &ConfigError{Field: "mirror.backend", Message: "must be 'native' or 'robocopy'"}
	case c.Git.CommitBackend != "library" && c.Git.CommitBackend != "executable":
		return &ConfigError{Field: "git.commitBackend", Message: "must be 'library' or 'executable'"}
	case c.Tag.Prefix == "":
		return &ConfigError{Field: "tag.prefix", Message: "must not be empty"}
	case c.Tag.TaggerName == "" || c.Tag.TaggerEmail == "":
		return &ConfigError{Field: "tag.tagger", Message: "tagger name and email are required"}
	}
	return nil
}

func validEncoding(name string) bool {
	if name == "" {
		return true
	}
	enc, err := ianaindex.IANA.Encoding(name)
	return err == nil && enc != nil
}

// ProcessTimeout returns the subprocess timeout.
func (c *Config) ProcessTimeout() time.Duration {
	return time.Duration(c.Process.TimeoutMinutes) * time.Minute
}

// RetryDelay returns the wait between tf get attempts.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Retry.DelaySeconds) * time.Second
}

// CacheTTL returns how long resolved identities are remembered.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Identity.CacheTTLHours) * time.Hour
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
