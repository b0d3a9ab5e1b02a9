package identity

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/masmgr/tfs2git/internal/output"
	"github.com/masmgr/tfs2git/internal/retry"
)

type fakeDirectory struct {
	members []Member
	err     error
	calls   int
}

func (d *fakeDirectory) ValidUsers(context.Context) ([]Member, error) {
	d.calls++
	return d.members, d.err
}

func quiet(t *testing.T) {
	t.Helper()
	t.Cleanup(output.SetOutput(io.Discard, io.Discard))
}

func newDirectory() *fakeDirectory {
	return &fakeDirectory{members: []Member{
		{UniqueName: `ACME\alice`, DisplayName: "Alice Smith", Mail: "alice@acme.test"},
		{UniqueName: `ACME\bob`, DisplayName: "Bob Jones", Mail: "bob@acme.test"},
		{UniqueName: `ACME\nomail`, DisplayName: "No Mail"},
	}}
}

func TestResolver_Resolve(t *testing.T) {
	quiet(t)

	tests := []struct {
		name     string
		username string
		want     Identity
		resolved bool
	}{
		{name: "exact", username: `ACME\alice`, want: Identity{Name: "Alice Smith", Email: "alice@acme.test"}, resolved: true},
		{name: "case insensitive", username: `acme\BOB`, want: Identity{Name: "Bob Jones", Email: "bob@acme.test"}, resolved: true},
		{name: "no match", username: `ACME\carol`, want: Identity{}},
		{name: "partial record", username: `ACME\nomail`, want: Identity{Name: "No Mail"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(newDirectory(), NewCache(DefaultTTL), retry.Policy{})
			got := r.Resolve(context.Background(), tt.username)
			if got != tt.want {
				t.Fatalf("Resolve(%q) = %+v, want %+v", tt.username, got, tt.want)
			}
			if got.Resolved() != tt.resolved {
				t.Fatalf("Resolved() = %v, want %v", got.Resolved(), tt.resolved)
			}
		})
	}
}

func TestResolver_CachesHitsAndMisses(t *testing.T) {
	quiet(t)
	dir := newDirectory()
	r := NewResolver(dir, NewCache(DefaultTTL), retry.Policy{})

	r.Resolve(context.Background(), `ACME\alice`)
	r.Resolve(context.Background(), `ACME\alice`)
	if dir.calls != 1 {
		t.Fatalf("directory calls = %d after repeated hit, want 1", dir.calls)
	}

	r.Resolve(context.Background(), `ACME\carol`)
	r.Resolve(context.Background(), `ACME\carol`)
	if dir.calls != 2 {
		t.Fatalf("directory calls = %d after repeated miss, want 2", dir.calls)
	}
}

func TestResolver_CacheIgnoresUsernameCase(t *testing.T) {
	quiet(t)
	dir := newDirectory()
	r := NewResolver(dir, NewCache(DefaultTTL), retry.Policy{})

	first := r.Resolve(context.Background(), `ACME\alice`)
	second := r.Resolve(context.Background(), `acme\ALICE`)
	if first != second {
		t.Fatalf("Resolve differs by case: %+v vs %+v", first, second)
	}
	if dir.calls != 1 {
		t.Fatalf("directory calls = %d, want 1", dir.calls)
	}
}

func TestResolver_DirectoryErrorIsNotCached(t *testing.T) {
	quiet(t)
	dir := &fakeDirectory{err: errors.New("TF30063: You are not authorized")}
	r := NewResolver(dir, NewCache(DefaultTTL), retry.Policy{})

	got := r.Resolve(context.Background(), `ACME\alice`)
	if got != (Identity{}) {
		t.Fatalf("Resolve with failing directory = %+v, want unresolved", got)
	}

	dir.err = nil
	dir.members = newDirectory().members
	got = r.Resolve(context.Background(), `ACME\alice`)
	if got.Email != "alice@acme.test" {
		t.Fatalf("Resolve after recovery = %+v, want alice", got)
	}
	if dir.calls != 2 {
		t.Fatalf("directory calls = %d, want 2", dir.calls)
	}
}

func TestResolver_RetriesLookups(t *testing.T) {
	quiet(t)
	dir := &fakeDirectory{err: errors.New("timeout")}
	policy := retry.Policy{
		MaxAttempts: 3,
		Sleep:       func(context.Context, time.Duration) error { return nil },
	}
	r := NewResolver(dir, nil, policy)

	r.Resolve(context.Background(), `ACME\alice`)
	if dir.calls != 3 {
		t.Fatalf("directory calls = %d, want 3", dir.calls)
	}
}

func TestIdentity_Or(t *testing.T) {
	tests := []struct {
		name string
		id   Identity
		want Identity
	}{
		{name: "unresolved", id: Identity{}, want: Identity{Name: "Alice (display)", Email: UnknownEmail}},
		{name: "blank email", id: Identity{Name: "Alice Smith", Email: "  "}, want: Identity{Name: "Alice Smith", Email: UnknownEmail}},
		{name: "resolved", id: Identity{Name: "Alice Smith", Email: "a@x"}, want: Identity{Name: "Alice Smith", Email: "a@x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.id.Or("Alice (display)"); got != tt.want {
				t.Fatalf("Or() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
