package git

import (
	"context"
	"errors"
	"fmt"

	gogit "github.com/go-git/go-git/v5"
)

// libraryCommitter commits with go-git.
type libraryCommitter struct {
	repo *gogit.Repository
}

func (c *libraryCommitter) commit(_ context.Context, message string, author, committer Signature) (CommitResult, error) {
	wt, err := c.repo.Worktree()
	if err != nil {
		return CommitResult{}, err
	}

	// Status leaves out untracked files matched by .gitignore.
	status, err := wt.Status()
	if err != nil {
		return CommitResult{}, fmt.Errorf("read working tree status: %w", err)
	}

	staged := 0
	for path, st := range status {
		switch {
		case st.Worktree == gogit.Unmodified:
			if st.Staging != gogit.Unmodified {
				staged++
			}
			continue
		case st.Worktree == gogit.Deleted:
			_, err = wt.Remove(path)
		default:
			_, err = wt.Add(path)
		}
		if err != nil {
			return CommitResult{}, fmt.Errorf("stage %s: %w", path, err)
		}
		staged++
	}
	if staged == 0 {
		return CommitResult{Empty: true}, nil
	}

	hash, err := wt.Commit(message, &gogit.CommitOptions{
		Author:    author.toObject(),
		Committer: committer.toObject(),
	})
	if errors.Is(err, gogit.ErrEmptyCommit) {
		return CommitResult{Empty: true}, nil
	}
	if err != nil {
		return CommitResult{}, fmt.Errorf("commit: %w", err)
	}
	return CommitResult{Hash: hash.String()}, nil
}
