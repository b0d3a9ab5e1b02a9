// Package identity maps legacy usernames to the name and email recorded on
// Git commits.
package identity

import (
	"context"
	"strings"

	"github.com/masmgr/tfs2git/internal/output"
	"github.com/masmgr/tfs2git/internal/retry"
)

// UnknownEmail is recorded when a user's mail address cannot be resolved.
const UnknownEmail = "unknown"

// Identity is a resolved display name and email address. Either field may be
// blank when the directory has no record of the user.
type Identity struct {
	Name  string
	Email string
}

// Resolved reports whether the directory supplied both fields.
func (i Identity) Resolved() bool {
	return strings.TrimSpace(i.Name) != "" && strings.TrimSpace(i.Email) != ""
}

// Or fills blank fields with displayName and UnknownEmail.
func (i Identity) Or(displayName string) Identity {
	out := i
	if strings.TrimSpace(out.Name) == "" {
		out.Name = displayName
	}
	if strings.TrimSpace(out.Email) == "" {
		out.Email = UnknownEmail
	}
	return out
}

// Member is one user known to the legacy server's directory service.
type Member struct {
	UniqueName  string
	DisplayName string
	Mail        string
}

// Directory lists the users of the legacy server.
type Directory interface {
	// ValidUsers returns the expanded, non-group members of the collection's
	// valid users group.
	ValidUsers(ctx context.Context) ([]Member, error)
}

// Resolver looks usernames up in a Directory, remembering results in a Cache.
type Resolver struct {
	directory Directory
	cache     *Cache
	policy    retry.Policy
}

// NewResolver creates a resolver. A nil cache gets a fresh one with DefaultTTL.
func NewResolver(directory Directory, cache *Cache, policy retry.Policy) *Resolver {
	if cache == nil {
		cache = NewCache(DefaultTTL)
	}
	return &Resolver{directory: directory, cache: cache, policy: policy}
}

// Resolve returns the identity for username. Lookup failures are logged and
// yield an unresolved identity; they never fail the caller.
func (r *Resolver) Resolve(ctx context.Context, username string) Identity {
	if id, ok := r.cache.Get(username); ok {
		return id
	}

	var members []Member
	err := r.policy.Do(ctx, func(ctx context.Context) error {
		var err error
		members, err = r.directory.ValidUsers(ctx)
		return err
	})
	if err != nil {
		output.Error("%v", err)
		return Identity{}
	}

	id := match(members, username)
	r.cache.Set(username, id)
	return id
}

func match(members []Member, username string) Identity {
	for _, m := range members {
		if strings.EqualFold(m.UniqueName, username) {
			return Identity{Name: m.DisplayName, Email: m.Mail}
		}
	}
	return Identity{}
}
