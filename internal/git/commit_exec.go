package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/masmgr/tfs2git/internal/process"
)

// execCommitter commits by running the git command-line client, so that
// filters and hooks configured for the repository apply.
type execCommitter struct {
	runner process.Runner
	tool   process.Tool
	dir    string
}

func (c *execCommitter) commit(ctx context.Context, message string, author, committer Signature) (CommitResult, error) {
	if _, err := c.git(ctx, nil, "add", "-A"); err != nil {
		return CommitResult{}, err
	}

	status, err := c.git(ctx, nil, "status", "--porcelain")
	if err != nil {
		return CommitResult{}, err
	}
	if strings.TrimSpace(status.Stdout) == "" {
		return CommitResult{Empty: true}, nil
	}

	env := append(signatureEnv("AUTHOR", author), signatureEnv("COMMITTER", committer)...)
	res, err := c.git(ctx, env, "commit", "--quiet", "--allow-empty-message", "-m", message)
	if err != nil {
		if res != nil && strings.Contains(res.Stdout+res.Stderr, "nothing to commit") {
			return CommitResult{Empty: true}, nil
		}
		return CommitResult{}, err
	}

	head, err := c.git(ctx, nil, "rev-parse", "HEAD")
	if err != nil {
		return CommitResult{}, err
	}
	return CommitResult{Hash: strings.TrimSpace(head.Stdout)}, nil
}

func (c *execCommitter) git(ctx context.Context, env []string, args ...string) (*process.Result, error) {
	return c.runner.Run(ctx, c.tool, args, process.RunOptions{Dir: c.dir, Env: env})
}

// signatureEnv renders a signature as GIT_<ROLE>_NAME/EMAIL/DATE, the date in
// git's raw "<unix seconds> <offset>" form.
func signatureEnv(role string, sig Signature) []string {
	return []string{
		"GIT_" + role + "_NAME=" + sig.Name,
		"GIT_" + role + "_EMAIL=" + sig.Email,
		fmt.Sprintf("GIT_%s_DATE=%d %s", role, sig.When.Unix(), sig.When.Format("-0700")),
	}
}
