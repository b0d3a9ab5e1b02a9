// Package git is the destination side of a migration: a local Git repository
// that only ever gains commits and tags.
package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	apperrors "github.com/masmgr/tfs2git/internal/errors"
	"github.com/masmgr/tfs2git/internal/output"
	"github.com/masmgr/tfs2git/internal/process"
)

// InitialCommitMessage is used for the root commit Tag creates when the
// repository has no history yet.
const InitialCommitMessage = "Initial migration commit"

// Options configures how a Repository records commits.
type Options struct {
	Backend CommitBackend
	// Runner and Tool are required by BackendExecutable.
	Runner process.Runner
	Tool   process.Tool
}

// committer creates one commit from the current state of the working tree.
type committer interface {
	commit(ctx context.Context, message string, author, committer Signature) (CommitResult, error)
}

// Repository is a non-bare Git repository that mirrors one server folder.
type Repository struct {
	repo       *gogit.Repository
	home       string
	workdir    string
	serverHome string
	committer  committer
}

// OpenOrInit opens the repository at home, initializing it (and creating the
// directory) when home is not a repository yet. serverHome is the server path
// that maps to the working tree root.
func OpenOrInit(home, serverHome string, opts Options) (*Repository, error) {
	serverHome = strings.TrimRight(strings.TrimSpace(serverHome), "/")
	if serverHome == "" {
		return nil, fmt.Errorf("server home path must not be empty")
	}

	abs, err := filepath.Abs(home)
	if err != nil {
		return nil, fmt.Errorf("resolve repository home %s: %w", home, err)
	}

	repo, err := gogit.PlainOpen(abs)
	if errors.Is(err, gogit.ErrRepositoryNotExists) {
		if err := os.MkdirAll(abs, 0o755); err != nil {
			return nil, fmt.Errorf("create repository home %s: %w", abs, err)
		}
		output.Info("Initializing repository: %s", abs)
		repo, err = gogit.PlainInit(abs, false)
	}
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", abs, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open working tree of %s: %w", abs, err)
	}

	r := &Repository{
		repo:       repo,
		home:       abs,
		workdir:    wt.Filesystem.Root(),
		serverHome: serverHome,
	}

	backend, err := ParseCommitBackend(string(opts.Backend))
	if err != nil {
		return nil, err
	}
	switch backend {
	case BackendExecutable:
		if opts.Runner == nil {
			return nil, fmt.Errorf("commit backend %q requires a process runner", backend)
		}
		tool := opts.Tool
		if tool.Name == "" {
			tool = process.GitTool("")
		}
		r.committer = &execCommitter{runner: opts.Runner, tool: tool, dir: r.workdir}
	default:
		r.committer = &libraryCommitter{repo: repo}
	}
	return r, nil
}

// RepositoryHome returns the absolute repository directory.
func (r *Repository) RepositoryHome() string { return r.home }

// WorkingDirectory returns the root of the working tree.
func (r *Repository) WorkingDirectory() string { return r.workdir }

// ServerHomePath returns the server path mapped to the working tree root.
func (r *Repository) ServerHomePath() string { return r.serverHome }

// MapPath translates a server path beneath ServerHomePath to an absolute
// local path. The prefix comparison ignores case.
func (r *Repository) MapPath(serverPath string) (string, error) {
	if !hasPrefixFold(serverPath, r.serverHome) {
		return "", apperrors.NewNotFoundError(fmt.Sprintf("server path %q under %q", serverPath, r.serverHome))
	}
	rest := strings.TrimLeft(serverPath[len(r.serverHome):], `/\`)
	return filepath.Abs(filepath.Join(r.workdir, filepath.FromSlash(rest)))
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// Commit stages every change in the working tree, honouring .gitignore, and
// commits it. A working tree without changes yields an empty result, not an
// error.
func (r *Repository) Commit(ctx context.Context, message string, author, committer Signature) (CommitResult, error) {
	if err := ctx.Err(); err != nil {
		return CommitResult{}, err
	}
	result, err := r.committer.commit(ctx, message, author, committer)
	if err != nil {
		return CommitResult{}, err
	}
	if result.Empty {
		output.Notice("   [EMPTY COMMIT] %s", message)
	}
	return result, nil
}

// Tag creates an annotated tag at HEAD. A repository without commits first
// gets an empty root commit signed by the tagger.
func (r *Repository) Tag(name string, tagger Signature, message string) error {
	head, err := r.repo.Head()
	var target plumbing.Hash
	switch {
	case err == nil:
		target = head.Hash()
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		target, err = r.rootCommit(tagger)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("resolve HEAD: %w", err)
	}

	_, err = r.repo.CreateTag(name, target, &gogit.CreateTagOptions{
		Tagger:  tagger.toObject(),
		Message: message,
	})
	if err != nil {
		return fmt.Errorf("create tag %s: %w", name, err)
	}
	return nil
}

func (r *Repository) rootCommit(sig Signature) (plumbing.Hash, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	hash, err := wt.Commit(InitialCommitMessage, &gogit.CommitOptions{
		Author:            sig.toObject(),
		Committer:         sig.toObject(),
		AllowEmptyCommits: true,
	})
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("create initial commit: %w", err)
	}
	return hash, nil
}

// Log returns the first-parent history of HEAD, oldest first.
func (r *Repository) Log() ([]CommitInfo, error) {
	head, err := r.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	c, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return nil, err
	}

	var commits []CommitInfo
	for {
		commits = append(commits, toCommitInfo(c))
		if c.NumParents() == 0 {
			break
		}
		if c, err = c.Parent(0); err != nil {
			return nil, err
		}
	}

	for i, j := 0, len(commits)-1; i < j; i, j = i+1, j-1 {
		commits[i], commits[j] = commits[j], commits[i]
	}
	return commits, nil
}

// Tags returns the names of all tags.
func (r *Repository) Tags() ([]string, error) {
	iter, err := r.repo.Tags()
	if err != nil {
		return nil, err
	}
	var names []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		names = append(names, ref.Name().Short())
		return nil
	})
	return names, err
}

func toCommitInfo(c *object.Commit) CommitInfo {
	return CommitInfo{
		SHA:       c.Hash.String(),
		When:      c.Committer.When,
		Author:    AuthorInfo{Name: c.Author.Name, Email: c.Author.Email},
		Committer: AuthorInfo{Name: c.Committer.Name, Email: c.Committer.Email},
		Message:   c.Message,
	}
}
