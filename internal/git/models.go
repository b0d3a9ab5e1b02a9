package git

import (
	"fmt"
	"time"

	"github.com/go-git/go-git/v5/plumbing/object"
)

// Signature identifies the author, committer or tagger of an object.
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

func (s Signature) toObject() *object.Signature {
	return &object.Signature{Name: s.Name, Email: s.Email, When: s.When}
}

// CommitInfo represents minimal information about a Git commit.
type CommitInfo struct {
	SHA       string
	When      time.Time
	Author    AuthorInfo
	Committer AuthorInfo
	Message   string
}

// AuthorInfo represents commit author information.
type AuthorInfo struct {
	Name  string
	Email string
}

// CommitResult reports the outcome of Commit. Hash is empty when Empty is set.
type CommitResult struct {
	Hash  string
	Empty bool
}

// CommitBackend selects how commits are created.
type CommitBackend string

const (
	// BackendLibrary stages and commits in-process with go-git.
	BackendLibrary CommitBackend = "library"
	// BackendExecutable shells out to the git command-line client.
	BackendExecutable CommitBackend = "executable"
)

// ParseCommitBackend converts a config value to a CommitBackend.
// The empty string selects BackendLibrary.
func ParseCommitBackend(s string) (CommitBackend, error) {
	switch CommitBackend(s) {
	case "", BackendLibrary:
		return BackendLibrary, nil
	case BackendExecutable:
		return BackendExecutable, nil
	default:
		return "", fmt.Errorf("unknown commit backend %q (expected %q or %q)", s, BackendLibrary, BackendExecutable)
	}
}
