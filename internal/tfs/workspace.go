package tfs

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/masmgr/tfs2git/internal/output"
	"github.com/masmgr/tfs2git/internal/process"
	"github.com/masmgr/tfs2git/internal/retry"
)

const (
	// DefaultGetAttempts and DefaultGetDelay bound GetSpecificVersion retries.
	DefaultGetAttempts = 4
	DefaultGetDelay    = 35 * time.Second

	defaultComment = "TFVC to Git migration workspace"
	localDirName   = "t2g"
	idLength       = 10
)

// DefaultCloak lists the paths, relative to the mapped folder, that are never
// downloaded.
var DefaultCloak = []string{"packages"}

// WorkspaceOptions tunes workspace creation. Zero values select defaults.
type WorkspaceOptions struct {
	TempRoot string
	Hostname string
	Comment  string
	Cloak    []string
	Retry    retry.Policy
}

// Workspace is a server-side tf workspace mapping one server folder to a
// private local staging directory.
type Workspace struct {
	runner       process.Runner
	tool         process.Tool
	collection   string
	serverFolder string
	name         string
	localFolder  string
	retry        retry.Policy
}

// WorkspaceID derives the deterministic id shared by the workspace name and
// its local folder.
func WorkspaceID(collection, serverFolder string) string {
	sum := sha1.Sum([]byte(collection + "|" + serverFolder))
	return strings.ToUpper(hex.EncodeToString(sum[:]))[:idLength]
}

// NewWorkspace deletes any stale workspace of the same name, then creates and
// maps a fresh one. On error nothing is left behind on the server.
func NewWorkspace(ctx context.Context, runner process.Runner, tool process.Tool, collection, serverFolder string, opts WorkspaceOptions) (*Workspace, error) {
	serverFolder = strings.TrimRight(serverFolder, "/")
	id := WorkspaceID(collection, serverFolder)

	hostname := opts.Hostname
	if hostname == "" {
		h, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("determine host name: %w", err)
		}
		hostname = h
	}
	tempRoot := opts.TempRoot
	if tempRoot == "" {
		tempRoot = os.TempDir()
	}
	policy := opts.Retry
	if policy.MaxAttempts == 0 {
		policy.MaxAttempts = DefaultGetAttempts
		policy.Delay = DefaultGetDelay
	}

	w := &Workspace{
		runner:       runner,
		tool:         tool,
		collection:   collection,
		serverFolder: serverFolder,
		name:         hostname + "-" + id,
		localFolder:  filepath.Join(tempRoot, localDirName, id),
		retry:        policy,
	}

	if err := os.MkdirAll(w.localFolder, 0o755); err != nil {
		return nil, fmt.Errorf("create local folder: %w", err)
	}

	w.delete(ctx)

	comment := opts.Comment
	if comment == "" {
		comment = defaultComment
	}
	output.Info("Creating workspace '%s' for %s", w.name, w.collection)
	if err := w.tf(ctx, w.localFolder,
		"workspace", "/new", "/noprompt", "/location:server", "/permission:Private",
		"/collection:"+w.collection, "/comment:"+comment, w.name); err != nil {
		w.removeLocalFolder()
		return nil, fmt.Errorf("create workspace %s: %w", w.name, err)
	}

	cloak := opts.Cloak
	if cloak == nil {
		cloak = DefaultCloak
	}
	if err := w.mapFolder(ctx, cloak); err != nil {
		w.Close()
		return nil, err
	}

	return w, nil
}

// LocalFolder returns the staging directory revisions are materialized into.
func (w *Workspace) LocalFolder() string { return w.localFolder }

func (w *Workspace) mapFolder(ctx context.Context, cloak []string) error {
	if err := w.tf(ctx, "", "workfold", "/unmap", "/collection:"+w.collection, "/workspace:"+w.name, "$/"); err != nil {
		return fmt.Errorf("unmap root of workspace %s: %w", w.name, err)
	}

	output.Info("Mapping workspace '%s' %s => %s", w.name, w.serverFolder, w.localFolder)
	if err := w.tf(ctx, "", "workfold", "/collection:"+w.collection, "/workspace:"+w.name, "/map", w.serverFolder, w.localFolder); err != nil {
		return fmt.Errorf("map %s in workspace %s: %w", w.serverFolder, w.name, err)
	}

	for _, sub := range cloak {
		path := w.serverFolder + "/" + strings.Trim(sub, "/")
		output.Info("Cloaking workspace '%s' %s", w.name, path)
		if err := w.tf(ctx, "", "workfold", "/cloak", path, "/collection:"+w.collection, "/workspace:"+w.name); err != nil {
			return fmt.Errorf("cloak %s in workspace %s: %w", path, w.name, err)
		}
	}
	return nil
}

// GetSpecificVersion materializes changeset id into the local folder,
// retrying transient failures. The local folder exists when it returns.
func (w *Workspace) GetSpecificVersion(ctx context.Context, id int) error {
	output.Info("Getting changeset: %d", id)

	policy := w.retry
	policy.After = w.ensureLocalFolder
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		output.Error("%v", err)
		output.Println("Retrying attempt #%d in %.0f seconds...", attempt, delay.Seconds())
	}

	return policy.Do(ctx, func(ctx context.Context) error {
		return w.tf(ctx, "", "get", w.localFolder, "/recursive", "/noprompt", "/version:C"+strconv.Itoa(id))
	})
}

// ensureLocalFolder recreates the staging directory if a failed get removed it.
func (w *Workspace) ensureLocalFolder() {
	if info, err := os.Stat(w.localFolder); err == nil && info.IsDir() {
		return
	}
	if err := os.MkdirAll(w.localFolder, 0o755); err != nil {
		output.Error("Failed to recreate local folder: %s.  %v", w.localFolder, err)
	}
}

// Close deletes the server-side workspace and the local folder. Both are
// attempted regardless of the other's outcome; failures are only logged.
func (w *Workspace) Close() error {
	// Cleanup runs even when the migration was cancelled.
	ctx := context.Background()
	if err := w.deleteWorkspace(ctx); err != nil {
		output.Error("Failed to delete workspace: %s.  %v", w.name, err)
	}
	w.removeLocalFolder()
	return nil
}

func (w *Workspace) removeLocalFolder() {
	if err := os.RemoveAll(w.localFolder); err != nil {
		output.Error("Failed to delete local folder: %s.  %v", w.localFolder, err)
	}
}

// delete removes a leftover workspace; absence is not an error.
func (w *Workspace) delete(ctx context.Context) {
	if err := w.deleteWorkspace(ctx); err != nil {
		output.Notice("No previous workspace removed: %v", err)
	}
}

func (w *Workspace) deleteWorkspace(ctx context.Context) error {
	output.Info("Deleting workspace: %s", w.name)
	return w.tf(ctx, "", "workspace", "/delete", "/noprompt", "/collection:"+w.collection, w.name)
}

func (w *Workspace) tf(ctx context.Context, dir string, args ...string) error {
	_, err := w.runner.Run(ctx, w.tool, args, process.RunOptions{Dir: dir})
	return err
}
