package migration

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/masmgr/tfs2git/internal/git"
	"github.com/masmgr/tfs2git/internal/identity"
	"github.com/masmgr/tfs2git/internal/tfs"
)

const collectionURI = "https://tfs.acme.example/tfs/AcmeCorp"

// fakeConnection serves history from memory.
type fakeConnection struct {
	history    map[string][]int
	changesets map[int]tfs.Changeset
	authErr    error
	historyErr map[string]error
	auths      int
}

func newFakeConnection() *fakeConnection {
	return &fakeConnection{
		history:    map[string][]int{},
		changesets: map[int]tfs.Changeset{},
		historyErr: map[string]error{},
	}
}

func (c *fakeConnection) add(serverPath string, cs ...tfs.Changeset) {
	for _, x := range cs {
		c.history[serverPath] = append(c.history[serverPath], x.ID)
		c.changesets[x.ID] = x
	}
}

func (c *fakeConnection) URI() string { return collectionURI }

func (c *fakeConnection) EnsureAuthenticated(context.Context) error {
	c.auths++
	return c.authErr
}

func (c *fakeConnection) QueryHistory(_ context.Context, serverPath string) ([]int, error) {
	if err := c.historyErr[serverPath]; err != nil {
		return nil, err
	}
	return append([]int(nil), c.history[serverPath]...), nil
}

func (c *fakeConnection) GetChangeset(_ context.Context, id int) (tfs.Changeset, error) {
	cs, ok := c.changesets[id]
	if !ok {
		return tfs.Changeset{}, fmt.Errorf("changeset %d not found", id)
	}
	return cs, nil
}

// fakeWorkspace writes one marker file per requested changeset.
type fakeWorkspace struct {
	dir     string
	gets    []int
	failOn  map[int]error
	closed  bool
	created string
}

func (w *fakeWorkspace) LocalFolder() string { return w.dir }

func (w *fakeWorkspace) GetSpecificVersion(_ context.Context, id int) error {
	w.gets = append(w.gets, id)
	if err := w.failOn[id]; err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(w.dir, "version.txt"), []byte(fmt.Sprint(id)), 0o644)
}

func (w *fakeWorkspace) Close() error {
	w.closed = true
	return nil
}

// fakeDestination records commits and tags without touching disk.
type fakeDestination struct {
	home       string
	serverHome string
	commits    []fakeCommit
	tags       []fakeTag
	emptyFor   map[string]bool
	tagErr     error
}

type fakeCommit struct {
	message string
	author  git.Signature
}

type fakeTag struct {
	name    string
	tagger  git.Signature
	message string
}

func (d *fakeDestination) RepositoryHome() string   { return d.home }
func (d *fakeDestination) WorkingDirectory() string { return d.home }
func (d *fakeDestination) ServerHomePath() string   { return d.serverHome }

func (d *fakeDestination) Commit(_ context.Context, message string, author, _ git.Signature) (git.CommitResult, error) {
	if d.emptyFor[message] {
		return git.CommitResult{Empty: true}, nil
	}
	d.commits = append(d.commits, fakeCommit{message: message, author: author})
	return git.CommitResult{Hash: fmt.Sprintf("%040d", len(d.commits))}, nil
}

func (d *fakeDestination) Tag(name string, tagger git.Signature, message string) error {
	if d.tagErr != nil {
		return d.tagErr
	}
	d.tags = append(d.tags, fakeTag{name: name, tagger: tagger, message: message})
	return nil
}

// nopMirror leaves the destination untouched.
type nopMirror struct{ calls int }

func (m *nopMirror) Mirror(context.Context, string, string, []string) error {
	m.calls++
	return nil
}

// mapResolver resolves from a fixed table; unknown users are unresolved.
type mapResolver map[string]identity.Identity

func (r mapResolver) Resolve(_ context.Context, username string) identity.Identity {
	return r[strings.ToLower(username)]
}

// fakeRig bundles fakes for tests that do not need real repositories.
type fakeRig struct {
	conn         *fakeConnection
	workspaces   []*fakeWorkspace
	destinations map[string]*fakeDestination
	openErr      map[string]error
	failGets     map[int]error
	mirror       *nopMirror
	tempRoot     string
}

func newFakeRig(tempRoot string) *fakeRig {
	return &fakeRig{
		conn:         newFakeConnection(),
		destinations: map[string]*fakeDestination{},
		openErr:      map[string]error{},
		failGets:     map[int]error{},
		mirror:       &nopMirror{},
		tempRoot:     tempRoot,
	}
}

func (r *fakeRig) workspaceFactory() WorkspaceFactory {
	return func(_ context.Context, collection, serverFolder string) (Workspace, error) {
		dir := filepath.Join(r.tempRoot, fmt.Sprintf("ws%d", len(r.workspaces)))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
		ws := &fakeWorkspace{dir: dir, failOn: r.failGets, created: collection + "|" + serverFolder}
		r.workspaces = append(r.workspaces, ws)
		return ws, nil
	}
}

func (r *fakeRig) destinationFactory() DestinationFactory {
	return func(repositoryHome, serverHomePath string) (Destination, error) {
		if err := r.openErr[repositoryHome]; err != nil {
			return nil, err
		}
		d, ok := r.destinations[repositoryHome]
		if !ok {
			d = &fakeDestination{home: repositoryHome, serverHome: serverHomePath, emptyFor: map[string]bool{}}
			r.destinations[repositoryHome] = d
		}
		return d, nil
	}
}

func (r *fakeRig) migrator(resolver IdentityResolver, now func() time.Time) *Migrator {
	m, err := New(Options{
		Workspaces:   r.workspaceFactory(),
		Destinations: r.destinationFactory(),
		Identities:   resolver,
		Mirror:       r.mirror,
		Now:          now,
	})
	if err != nil {
		panic(err)
	}
	return m
}

var errBoom = errors.New("boom")
