package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/masmgr/tfs2git/config"
	"github.com/masmgr/tfs2git/internal/git"
	"github.com/masmgr/tfs2git/internal/identity"
	"github.com/masmgr/tfs2git/internal/journal"
	"github.com/masmgr/tfs2git/internal/migration"
	"github.com/masmgr/tfs2git/internal/mirror"
	"github.com/masmgr/tfs2git/internal/process"
	"github.com/masmgr/tfs2git/internal/retry"
	"github.com/masmgr/tfs2git/internal/tfs"
)

// Migrate connects to the collection and runs the job. Interrupting the
// process cancels the run.
func (cc *CommandContext) Migrate(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	cfg := cc.Config
	runner, err := newRunner(cfg)
	if err != nil {
		return err
	}

	client, err := tfs.NewClient(cc.CollectionURI, tfs.NewHTTPClient(ctx, cfg.Token))
	if err != nil {
		return err
	}
	client.WithValidUsersGroup(cfg.Identity.ValidUsersGroup)

	resolver := identity.NewResolver(
		client,
		identity.NewCache(cfg.CacheTTL()),
		retry.Fixed(cfg.Identity.LookupAttempts, cfg.RetryDelay()),
	)

	opts, err := migratorOptions(cfg, runner, resolver)
	if err != nil {
		return err
	}
	if cfg.JournalPath != "" {
		j, err := journal.Open(cfg.JournalPath)
		if err != nil {
			return fmt.Errorf("failed to open journal: %w", err)
		}
		defer j.Close()
		opts.Journal = j
	}

	m, err := migration.New(opts)
	if err != nil {
		return err
	}

	err = m.Migrate(ctx, client, []migration.Job{cc.Job}, cc.Settings)
	if reportErr := writeReport(client.URI(), m.Reports(), cc.Report); reportErr != nil && err == nil {
		err = fmt.Errorf("failed to write report: %w", reportErr)
	}
	return err
}

// newRunner creates the subprocess executor shared by tf, robocopy and git.
func newRunner(cfg *config.Config) (*process.Executor, error) {
	enc, err := process.OutputEncoding(cfg.Process.OutputEncoding)
	if err != nil {
		return nil, err
	}
	e := process.NewExecutor(cfg.ProcessTimeout())
	e.Encoding = enc
	return e, nil
}

// migratorOptions assembles the collaborators selected by cfg.
func migratorOptions(cfg *config.Config, runner process.Runner, identities migration.IdentityResolver) (migration.Options, error) {
	gitOpts, err := gitOptions(cfg, runner)
	if err != nil {
		return migration.Options{}, err
	}

	return migration.Options{
		Workspaces:   migration.TfWorkspaces(runner, process.TfTool(cfg.Tools.Tf), workspaceOptions(cfg)),
		Destinations: migration.GitDestinations(gitOpts),
		Identities:   identities,
		Mirror:       newMirror(cfg, runner),
		Exclude:      cfg.Mirror.Exclude,
		TagPrefix:    cfg.Tag.Prefix,
		TaggerName:   cfg.Tag.TaggerName,
		TaggerEmail:  cfg.Tag.TaggerEmail,
	}, nil
}

func workspaceOptions(cfg *config.Config) tfs.WorkspaceOptions {
	return tfs.WorkspaceOptions{
		TempRoot: cfg.Workspace.TempRoot,
		Comment:  cfg.Workspace.Comment,
		Cloak:    cfg.Workspace.Cloak,
		Retry:    retry.Fixed(cfg.Retry.MaxAttempts, cfg.RetryDelay()),
	}
}

// newMirror returns the configured mirror backend.
func newMirror(cfg *config.Config, runner process.Runner) mirror.Mirrorer {
	if cfg.Mirror.Backend == "robocopy" {
		return mirror.NewRobocopy(runner, process.RobocopyTool(cfg.Tools.Robocopy))
	}
	return mirror.NewNative()
}

// gitOptions returns the repository options for the configured commit backend.
func gitOptions(cfg *config.Config, runner process.Runner) (git.Options, error) {
	backend, err := git.ParseCommitBackend(cfg.Git.CommitBackend)
	if err != nil {
		return git.Options{}, err
	}
	return git.Options{
		Backend: backend,
		Runner:  runner,
		Tool:    process.GitTool(cfg.Tools.Git),
	}, nil
}
