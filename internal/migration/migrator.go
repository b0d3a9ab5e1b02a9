// Package migration replays the changeset history of TFVC branches as Git
// commits.
package migration

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/masmgr/tfs2git/internal/git"
	"github.com/masmgr/tfs2git/internal/journal"
	"github.com/masmgr/tfs2git/internal/mirror"
	"github.com/masmgr/tfs2git/internal/output"
	"github.com/masmgr/tfs2git/internal/tfs"
)

const (
	DefaultTagPrefix   = "migration/"
	DefaultTaggerName  = "Build Management"
	DefaultTaggerEmail = "build.management@localhost"

	tagTimeLayout = "20060102T150405"
	logTimeLayout = "2006-01-02 15:04:05 -07:00"
	rule          = "-------------------------------------"
)

// Job migrates one server folder into one repository.
type Job struct {
	ServerHomePath string
	RepositoryHome string
}

// Settings controls the failure policy of a run.
type Settings struct {
	// ContinueOnError moves on to the next job when one fails instead of
	// aborting the run.
	ContinueOnError bool
}

// Options wires a Migrator to its collaborators.
type Options struct {
	Workspaces   WorkspaceFactory
	Destinations DestinationFactory
	Identities   IdentityResolver
	Mirror       mirror.Mirrorer
	// Exclude is passed to Mirror; nil selects mirror.DefaultExclude.
	Exclude []string
	// Journal is optional.
	Journal Recorder

	TagPrefix   string
	TaggerName  string
	TaggerEmail string
	// Now defaults to time.Now.
	Now func() time.Time
}

// Migrator runs migration jobs one after another.
type Migrator struct {
	opts    Options
	reports []output.JobReport
}

// New creates a Migrator, filling unset options with defaults.
func New(opts Options) (*Migrator, error) {
	switch {
	case opts.Workspaces == nil:
		return nil, errors.New("migration: workspace factory is required")
	case opts.Destinations == nil:
		return nil, errors.New("migration: destination factory is required")
	case opts.Identities == nil:
		return nil, errors.New("migration: identity resolver is required")
	case opts.Mirror == nil:
		return nil, errors.New("migration: mirror is required")
	}

	if opts.Exclude == nil {
		opts.Exclude = mirror.DefaultExclude
	}
	if opts.TagPrefix == "" {
		opts.TagPrefix = DefaultTagPrefix
	}
	if opts.TaggerName == "" {
		opts.TaggerName = DefaultTaggerName
	}
	if opts.TaggerEmail == "" {
		opts.TaggerEmail = DefaultTaggerEmail
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Migrator{opts: opts}, nil
}

// Reports returns the outcome of every job attempted so far.
func (m *Migrator) Reports() []output.JobReport {
	return append([]output.JobReport(nil), m.reports...)
}

// Migrate runs jobs in order. A failed job stops the run and its error is
// returned unless settings.ContinueOnError is set, in which case the failure
// is only reported and Migrate returns nil.
func (m *Migrator) Migrate(ctx context.Context, conn Connection, jobs []Job, settings Settings) error {
	for _, job := range jobs {
		output.Success("%s", conn.URI())
		output.Success("%s => %s", job.ServerHomePath, job.RepositoryHome)
		output.Success(rule)

		report, err := m.migrateJob(ctx, conn, job)
		report.Finished = m.opts.Now()
		report.Err = err
		m.reports = append(m.reports, report)

		if err != nil {
			output.Error("ERROR migrating %s", report.Repository)
			output.Error("%v", err)
			if !settings.ContinueOnError {
				return fmt.Errorf("migrate %s: %w", job.ServerHomePath, err)
			}
			continue
		}
		output.Success("COMPLETED %s", report.Repository)
	}
	return nil
}

func (m *Migrator) migrateJob(ctx context.Context, conn Connection, job Job) (output.JobReport, error) {
	report := output.JobReport{
		ServerPath: job.ServerHomePath,
		Repository: job.RepositoryHome,
		Started:    m.opts.Now(),
	}

	dest, err := m.opts.Destinations(job.RepositoryHome, job.ServerHomePath)
	if err != nil {
		return report, fmt.Errorf("open repository %s: %w", job.RepositoryHome, err)
	}
	report.Repository = dest.RepositoryHome()
	m.recall(ctx, dest.ServerHomePath())

	if err := m.migrateHistory(ctx, conn, dest, &report); err != nil {
		return report, err
	}

	tag, err := m.tag(ctx, conn, dest)
	if err != nil {
		return report, err
	}
	report.Tag = tag
	return report, nil
}

// migrateHistory replays the history of dest's server folder through a
// workspace that is released before it returns.
func (m *Migrator) migrateHistory(ctx context.Context, conn Connection, dest Destination, report *output.JobReport) error {
	if err := conn.EnsureAuthenticated(ctx); err != nil {
		return err
	}

	history, err := loadHistory(ctx, conn, dest.ServerHomePath())
	if err != nil {
		return err
	}

	ws, err := m.opts.Workspaces(ctx, conn.URI(), dest.ServerHomePath())
	if err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}
	defer ws.Close()

	return m.replay(ctx, dest, ws, history, report)
}

// loadHistory fetches every changeset under serverPath, oldest first.
func loadHistory(ctx context.Context, conn Connection, serverPath string) ([]tfs.Changeset, error) {
	ids, err := conn.QueryHistory(ctx, serverPath)
	if err != nil {
		return nil, err
	}

	history := make([]tfs.Changeset, 0, len(ids))
	for _, id := range ids {
		cs, err := conn.GetChangeset(ctx, id)
		if err != nil {
			return nil, err
		}
		history = append(history, cs)
	}

	sort.SliceStable(history, func(i, j int) bool {
		return history[i].ID < history[j].ID
	})
	return history, nil
}

// replay commits each changeset in turn and stops at the first failure.
func (m *Migrator) replay(ctx context.Context, dest Destination, ws Workspace, history []tfs.Changeset, report *output.JobReport) error {
	for _, cs := range history {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.printChangeset(cs)
		if cs.CommentTruncated {
			output.Notice("Changeset %d comment was truncated by the server", cs.ID)
		}

		if err := ws.GetSpecificVersion(ctx, cs.ID); err != nil {
			return fmt.Errorf("get changeset %d: %w", cs.ID, err)
		}
		if err := m.opts.Mirror.Mirror(ctx, ws.LocalFolder(), dest.WorkingDirectory(), m.opts.Exclude); err != nil {
			return fmt.Errorf("changeset %d: %w", cs.ID, err)
		}

		author := m.signature(ctx, cs)
		result, err := dest.Commit(ctx, cs.Comment, author, author)
		if err != nil {
			return fmt.Errorf("commit changeset %d: %w", cs.ID, err)
		}
		if result.Empty {
			report.Empty++
		} else {
			report.Commits++
		}

		m.record(ctx, dest.ServerHomePath(), journal.Entry{
			ChangesetID: cs.ID,
			Commit:      result.Hash,
			Empty:       result.Empty,
			Author:      author.Name,
			Email:       author.Email,
			MigratedAt:  m.opts.Now(),
		})
	}
	return nil
}

func (m *Migrator) printChangeset(cs tfs.Changeset) {
	output.Println("Log Time: %s", m.opts.Now().Format(logTimeLayout))
	output.Println("Changeset Id: %d", cs.ID)
	output.Println("Owner: %s", cs.Owner)
	output.Println("Date: %s", cs.CreationDate.Format(logTimeLayout))
	output.Println("Comment: %s", cs.Comment)
}

// signature builds the author of cs, falling back to the changeset's display
// name and an unknown email when the directory has no match.
func (m *Migrator) signature(ctx context.Context, cs tfs.Changeset) git.Signature {
	resolved := m.opts.Identities.Resolve(ctx, cs.Committer)
	id := resolved.Or(cs.CommitterDisplayName)
	if !resolved.Resolved() {
		output.Notice("No complete directory record for %s, committing as %s <%s>", cs.Committer, id.Name, id.Email)
	}
	return git.Signature{Name: id.Name, Email: id.Email, When: cs.CreationDate}
}

func (m *Migrator) tag(ctx context.Context, conn Connection, dest Destination) (string, error) {
	now := m.opts.Now()
	name := m.opts.TagPrefix + now.UTC().Format(tagTimeLayout) + "z"
	message := fmt.Sprintf("%s\n%s => %s", conn.URI(), dest.ServerHomePath(), dest.RepositoryHome())
	tagger := git.Signature{Name: m.opts.TaggerName, Email: m.opts.TaggerEmail, When: now}

	if err := dest.Tag(name, tagger, message); err != nil {
		return "", err
	}

	if m.opts.Journal != nil {
		err := m.opts.Journal.RecordTag(ctx, dest.ServerHomePath(), journal.Tag{
			Name:       name,
			Repository: dest.RepositoryHome(),
			CreatedAt:  now,
		})
		if err != nil {
			output.Error("Failed to journal tag %s: %v", name, err)
		}
	}
	return name, nil
}

// recall reports what earlier runs journaled for serverPath.
func (m *Migrator) recall(ctx context.Context, serverPath string) {
	if m.opts.Journal == nil {
		return
	}
	entries, err := m.opts.Journal.Entries(ctx, serverPath)
	if err != nil {
		output.Error("Failed to read journal for %s: %v", serverPath, err)
		return
	}
	tags, err := m.opts.Journal.Tags(ctx, serverPath)
	if err != nil {
		output.Error("Failed to read journal for %s: %v", serverPath, err)
		return
	}
	if len(entries) == 0 && len(tags) == 0 {
		return
	}

	last := "none"
	if len(tags) > 0 {
		last = tags[len(tags)-1].Name
	}
	output.Notice("Journal holds %d changeset(s) for %s from earlier runs, last tag: %s", len(entries), serverPath, last)
}

// record writes e to the journal, if any. Journal failures never fail a job.
func (m *Migrator) record(ctx context.Context, serverPath string, e journal.Entry) {
	if m.opts.Journal == nil {
		return
	}
	if err := m.opts.Journal.RecordChangeset(ctx, serverPath, e); err != nil {
		output.Error("Failed to journal changeset %d: %v", e.ChangesetID, err)
	}
}
