package migration

import (
	"context"

	"github.com/masmgr/tfs2git/internal/git"
	"github.com/masmgr/tfs2git/internal/process"
	"github.com/masmgr/tfs2git/internal/tfs"
)

// TfWorkspaces returns a factory creating tf command-line workspaces.
func TfWorkspaces(runner process.Runner, tool process.Tool, opts tfs.WorkspaceOptions) WorkspaceFactory {
	return func(ctx context.Context, collection, serverFolder string) (Workspace, error) {
		ws, err := tfs.NewWorkspace(ctx, runner, tool, collection, serverFolder, opts)
		if err != nil {
			return nil, err
		}
		return ws, nil
	}
}

// GitDestinations returns a factory opening local Git repositories.
func GitDestinations(opts git.Options) DestinationFactory {
	return func(repositoryHome, serverHomePath string) (Destination, error) {
		repo, err := git.OpenOrInit(repositoryHome, serverHomePath, opts)
		if err != nil {
			return nil, err
		}
		return repo, nil
	}
}
