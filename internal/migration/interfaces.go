package migration

import (
	"context"

	"github.com/masmgr/tfs2git/internal/git"
	"github.com/masmgr/tfs2git/internal/identity"
	"github.com/masmgr/tfs2git/internal/journal"
	"github.com/masmgr/tfs2git/internal/tfs"
)

// Connection is an authenticated session with a project collection.
type Connection interface {
	URI() string
	EnsureAuthenticated(ctx context.Context) error
	// QueryHistory returns the ids of every changeset under serverPath,
	// in no particular order.
	QueryHistory(ctx context.Context, serverPath string) ([]int, error)
	GetChangeset(ctx context.Context, id int) (tfs.Changeset, error)
}

// Workspace materializes historical revisions of one server folder.
type Workspace interface {
	LocalFolder() string
	GetSpecificVersion(ctx context.Context, id int) error
	Close() error
}

// WorkspaceFactory acquires a workspace mapping serverFolder of collection.
type WorkspaceFactory func(ctx context.Context, collection, serverFolder string) (Workspace, error)

// Destination is the repository a job replays history into.
type Destination interface {
	RepositoryHome() string
	WorkingDirectory() string
	ServerHomePath() string
	Commit(ctx context.Context, message string, author, committer git.Signature) (git.CommitResult, error)
	Tag(name string, tagger git.Signature, message string) error
}

// DestinationFactory opens, or creates, the destination of a job.
type DestinationFactory func(repositoryHome, serverHomePath string) (Destination, error)

// IdentityResolver maps legacy usernames to commit identities.
type IdentityResolver interface {
	Resolve(ctx context.Context, username string) identity.Identity
}

// Recorder keeps an audit trail of migrated changesets across runs.
type Recorder interface {
	RecordChangeset(ctx context.Context, serverPath string, e journal.Entry) error
	RecordTag(ctx context.Context, serverPath string, t journal.Tag) error
	Entries(ctx context.Context, serverPath string) ([]journal.Entry, error)
	Tags(ctx context.Context, serverPath string) ([]journal.Tag, error)
}

// Compile-time interface conformance checks.
var (
	_ Connection       = (*tfs.Client)(nil)
	_ Workspace        = (*tfs.Workspace)(nil)
	_ Destination      = (*git.Repository)(nil)
	_ IdentityResolver = (*identity.Resolver)(nil)
	_ Recorder         = (*journal.Journal)(nil)
)
