package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chzyer/readline"
	"github.com/masmgr/tfs2git/config"
	"github.com/masmgr/tfs2git/internal/migration"
	"github.com/masmgr/tfs2git/internal/output"
	"github.com/urfave/cli/v2"
)

// readPassword reads a secret from the terminal without echoing it.
var readPassword = readline.Password

// CommandContext holds the validated configuration and the job a run
// executes.
type CommandContext struct {
	Config        *config.Config
	CollectionURI string
	Job           migration.Job
	Settings      migration.Settings
	Report        output.OutputOptions
}

// NewCommandContext creates a context from CLI flags.
// It loads the configuration, applies flag overrides and validates the result.
func NewCommandContext(c *cli.Context) (*CommandContext, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	collection := strings.TrimSpace(c.String("teamprojectcollection"))
	serverPath := strings.TrimSpace(c.String("tfsbranchpath"))
	repository := strings.TrimSpace(c.String("repository"))
	switch {
	case collection == "":
		return nil, errors.New("team project collection URI is required")
	case !strings.HasPrefix(serverPath, "$/"):
		return nil, fmt.Errorf("invalid TFVC branch path %q: expected $/Project/Branch", serverPath)
	case repository == "":
		return nil, errors.New("repository directory is required")
	}

	format, err := output.ParseFormat(c.String("format"))
	if err != nil {
		return nil, err
	}

	return &CommandContext{
		Config:        cfg,
		CollectionURI: collection,
		Job: migration.Job{
			ServerHomePath: serverPath,
			RepositoryHome: repository,
		},
		Settings: migration.Settings{
			ContinueOnError: c.Bool("continueonerror"),
		},
		Report: output.OutputOptions{
			Format:     format,
			OutputPath: c.String("output"),
		},
	}, nil
}

// loadConfig loads configuration from file or defaults.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Apply overrides from CLI
	if journal := c.String("journal"); journal != "" {
		cfg.JournalPath = journal
	}
	if token := c.String("token"); token != "" {
		cfg.Token = token
	}
	if c.Bool("prompt-token") {
		secret, err := readPassword("Personal access token: ")
		if err != nil {
			return nil, fmt.Errorf("failed to read token: %w", err)
		}
		cfg.Token = strings.TrimSpace(string(secret))
	}

	return cfg, nil
}
