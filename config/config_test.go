package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

// isolateEnv clears the overrides LoadConfig reads so the developer's
// environment cannot leak into a test.
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{EnvToken, EnvTfPath, EnvRobocopyPath, EnvGitPath, EnvTempRoot} {
		t.Setenv(key, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Tools.Tf != "tf" || cfg.Tools.Robocopy != "robocopy" || cfg.Tools.Git != "git" {
		t.Errorf("Tools = %+v, expected tf/robocopy/git", cfg.Tools)
	}
	if cfg.ProcessTimeout() != 7*time.Minute {
		t.Errorf("ProcessTimeout() = %v, expected 7m", cfg.ProcessTimeout())
	}
	if cfg.Retry.MaxAttempts != 4 {
		t.Errorf("Retry.MaxAttempts = %d, expected 4", cfg.Retry.MaxAttempts)
	}
	if cfg.RetryDelay() != 35*time.Second {
		t.Errorf("RetryDelay() = %v, expected 35s", cfg.RetryDelay())
	}
	if cfg.CacheTTL() != 7*24*time.Hour {
		t.Errorf("CacheTTL() = %v, expected 7 days", cfg.CacheTTL())
	}
	if cfg.Identity.LookupAttempts != 1 {
		t.Errorf("Identity.LookupAttempts = %d, expected 1", cfg.Identity.LookupAttempts)
	}
	if cfg.Identity.ValidUsersGroup != "Project Collection Valid Users" {
		t.Errorf("Identity.ValidUsersGroup = %q", cfg.Identity.ValidUsersGroup)
	}
	if !reflect.DeepEqual(cfg.Workspace.Cloak, []string{"packages"}) {
		t.Errorf("Workspace.Cloak = %v, expected [packages]", cfg.Workspace.Cloak)
	}
	if !reflect.DeepEqual(cfg.Mirror.Exclude, []string{".git", "$tf", "packages"}) {
		t.Errorf("Mirror.Exclude = %v", cfg.Mirror.Exclude)
	}
	if cfg.Mirror.Backend != "native" {
		t.Errorf("Mirror.Backend = %q, expected native", cfg.Mirror.Backend)
	}
	if cfg.Git.CommitBackend != "library" {
		t.Errorf("Git.CommitBackend = %q, expected library", cfg.Git.CommitBackend)
	}
	if cfg.Tag.Prefix != "migration/" || cfg.Tag.TaggerName != "Build Management" {
		t.Errorf("Tag = %+v", cfg.Tag)
	}
	if cfg.JournalPath != "" {
		t.Errorf("JournalPath = %q, expected empty", cfg.JournalPath)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, expected nil", err)
	}
}

func TestLoadConfig_MergesWithDefaults(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "custom.json")
	data := `{
  "retry": {"maxAttempts": 2},
  "mirror": {"backend": "robocopy"},
  "journalPath": "/var/lib/tfs2git/journal.db"
}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Retry.MaxAttempts != 2 {
		t.Errorf("Retry.MaxAttempts = %d, expected 2", cfg.Retry.MaxAttempts)
	}
	if cfg.Retry.DelaySeconds != 35 {
		t.Errorf("Retry.DelaySeconds = %d, expected default 35", cfg.Retry.DelaySeconds)
	}
	if cfg.Mirror.Backend != "robocopy" {
		t.Errorf("Mirror.Backend = %q, expected robocopy", cfg.Mirror.Backend)
	}
	if len(cfg.Mirror.Exclude) != 3 {
		t.Errorf("Mirror.Exclude = %v, expected defaults", cfg.Mirror.Exclude)
	}
	if cfg.JournalPath != "/var/lib/tfs2git/journal.db" {
		t.Errorf("JournalPath = %q", cfg.JournalPath)
	}
}

func TestLoadConfig_MissingFileYieldsDefaults(t *testing.T) {
	isolateEnv(t)

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Errorf("LoadConfig() = %+v, expected defaults", cfg)
	}
}

func TestLoadConfig_HomeDirectoryCandidate(t *testing.T) {
	isolateEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)
	if err := os.WriteFile(filepath.Join(home, FileName), []byte(`{"tag": {"prefix": "tfvc/"}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Tag.Prefix != "tfvc/" {
		t.Errorf("Tag.Prefix = %q, expected value from %s", cfg.Tag.Prefix, FileName)
	}
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte(`{"retry": `), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("LoadConfig() error = nil, expected parse error")
	}
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	isolateEnv(t)
	t.Setenv(EnvToken, "secret-pat")
	t.Setenv(EnvTfPath, "mono /opt/tee/tf.exe")
	t.Setenv(EnvGitPath, "/usr/local/bin/git")
	t.Setenv(EnvTempRoot, "/mnt/scratch")

	path := filepath.Join(t.TempDir(), "cfg.json")
	if err := os.WriteFile(path, []byte(`{"tools": {"tf": "tf-from-file", "robocopy": "rc"}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{name: "Token", got: cfg.Token, want: "secret-pat"},
		{name: "Tf", got: cfg.Tools.Tf, want: "mono /opt/tee/tf.exe"},
		{name: "Robocopy from file", got: cfg.Tools.Robocopy, want: "rc"},
		{name: "Git", got: cfg.Tools.Git, want: "/usr/local/bin/git"},
		{name: "TempRoot", got: cfg.Workspace.TempRoot, want: "/mnt/scratch"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %q, expected %q", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	isolateEnv(t)
	cfg := DefaultConfig()
	cfg.Token = "never-written"
	cfg.Git.CommitBackend = "executable"
	path := filepath.Join(t.TempDir(), FileName)

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Git.CommitBackend != "executable" {
		t.Errorf("Git.CommitBackend = %q, expected executable", loaded.Git.CommitBackend)
	}
	if loaded.Token != "" {
		t.Errorf("Token = %q, expected token not to be persisted", loaded.Token)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{name: "Valid", mutate: func(c *Config) {}},
		{name: "Missing tf", mutate: func(c *Config) { c.Tools.Tf = "" }, field: "tools.tf"},
		{name: "Missing git for executable backend", mutate: func(c *Config) {
			c.Tools.Git = ""
			c.Git.CommitBackend = "executable"
		}, field: "tools.git"},
		{name: "Missing git for library backend", mutate: func(c *Config) { c.Tools.Git = "" }},
		{name: "Missing robocopy for robocopy backend", mutate: func(c *Config) {
			c.Tools.Robocopy = ""
			c.Mirror.Backend = "robocopy"
		}, field: "tools.robocopy"},
		{name: "Zero timeout", mutate: func(c *Config) { c.Process.TimeoutMinutes = 0 }, field: "process.timeoutMinutes"},
		{name: "Known encoding", mutate: func(c *Config) { c.Process.OutputEncoding = "ibm850" }},
		{name: "Unknown encoding", mutate: func(c *Config) { c.Process.OutputEncoding = "ebcdic-klingon" }, field: "process.outputEncoding"},
		{name: "Zero attempts", mutate: func(c *Config) { c.Retry.MaxAttempts = 0 }, field: "retry.maxAttempts"},
		{name: "Negative delay", mutate: func(c *Config) { c.Retry.DelaySeconds = -1 }, field: "retry.delaySeconds"},
		{name: "Zero delay", mutate: func(c *Config) { c.Retry.DelaySeconds = 0 }},
		{name: "Zero TTL", mutate: func(c *Config) { c.Identity.CacheTTLHours = 0 }, field: "identity.cacheTTLHours"},
		{name: "Zero lookups", mutate: func(c *Config) { c.Identity.LookupAttempts = 0 }, field: "identity.lookupAttempts"},
		{name: "Unknown mirror", mutate: func(c *Config) { c.Mirror.Backend = "rsync" }, field: "mirror.backend"},
		{name: "Unknown commit backend", mutate: func(c *Config) { c.Git.CommitBackend = "libgit2" }, field: "git.commitBackend"},
		{name: "Empty tag prefix", mutate: func(c *Config) { c.Tag.Prefix = "" }, field: "tag.prefix"},
		{name: "Empty tagger", mutate: func(c *Config) { c.Tag.TaggerEmail = "" }, field: "tag.tagger"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.field == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, expected nil", err)
				}
				return
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Validate() = %v, expected *ConfigError", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("Field = %q, expected %q", cfgErr.Field, tt.field)
			}
		})
	}
}
