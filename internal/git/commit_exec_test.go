package git

import (
	"context"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/masmgr/tfs2git/internal/process"
)

func TestExecCommitter_EnvironmentAndArguments(t *testing.T) {
	quietOutput(t)
	runner := process.NewMockRunner(func(c process.Call) (*process.Result, error) {
		switch c.Args[0] {
		case "status":
			return &process.Result{Stdout: " M a.txt\n"}, nil
		case "rev-parse":
			return &process.Result{Stdout: "0123456789abcdef0123456789abcdef01234567\n"}, nil
		}
		return &process.Result{}, nil
	})
	dir := t.TempDir()
	r, err := OpenOrInit(dir, serverHome, Options{Backend: BackendExecutable, Runner: runner, Tool: process.GitTool("git")})
	if err != nil {
		t.Fatal(err)
	}

	when := time.Date(2014, 6, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	res, err := r.Commit(context.Background(), "fix build", sig("Alice", when), sig("Alice", when))
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if res.Hash != "0123456789abcdef0123456789abcdef01234567" || res.Empty {
		t.Errorf("Commit() = %+v", res)
	}

	var lines []string
	for _, c := range runner.Calls {
		lines = append(lines, c.CommandLine())
		if c.Opts.Dir != dir {
			t.Errorf("%s ran in %q, want %q", c.CommandLine(), c.Opts.Dir, dir)
		}
	}
	want := []string{"add -A", "status --porcelain", "commit --quiet --allow-empty-message -m fix build", "rev-parse HEAD"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Errorf("calls = %q, want %q", lines, want)
	}

	env := strings.Join(runner.CallsTo("commit")[0].Opts.Env, "\n")
	for _, kv := range []string{
		"GIT_AUTHOR_NAME=Alice",
		"GIT_AUTHOR_EMAIL=alice@acme.example",
		"GIT_AUTHOR_DATE=1401620400 +0100",
		"GIT_COMMITTER_NAME=Alice",
		"GIT_COMMITTER_DATE=1401620400 +0100",
	} {
		if !strings.Contains(env, kv) {
			t.Errorf("env missing %q:\n%s", kv, env)
		}
	}
}

func TestExecCommitter_CleanTreeIsEmpty(t *testing.T) {
	errOut := quietOutput(t)
	runner := process.NewMockRunner(nil)
	r, err := OpenOrInit(t.TempDir(), serverHome, Options{Backend: BackendExecutable, Runner: runner})
	if err != nil {
		t.Fatal(err)
	}

	res, err := r.Commit(context.Background(), "noop", Signature{}, Signature{})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if !res.Empty {
		t.Errorf("Commit() = %+v, want empty", res)
	}
	if len(runner.CallsTo("commit")) != 0 {
		t.Error("git commit ran for a clean tree")
	}
	if !strings.Contains(errOut.String(), "[EMPTY COMMIT] noop") {
		t.Errorf("stderr = %q", errOut.String())
	}
}

func TestExecCommitter_RealGit(t *testing.T) {
	gitPath, err := exec.LookPath("git")
	if err != nil {
		t.Skip("git not installed")
	}
	quietOutput(t)
	dir := t.TempDir()
	executor := process.NewExecutor(time.Minute)
	executor.Echo = false

	r, err := OpenOrInit(dir, serverHome, Options{Backend: BackendExecutable, Runner: executor, Tool: process.GitTool(gitPath)})
	if err != nil {
		t.Fatal(err)
	}

	when := time.Date(2013, 2, 3, 4, 5, 6, 0, time.UTC)
	writeFile(t, dir, "hello.txt", "hello")
	res, err := r.Commit(context.Background(), "hello", sig("Carol", when), sig("Carol", when))
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	log, err := r.Log()
	if err != nil {
		t.Fatal(err)
	}
	if len(log) != 1 || log[0].SHA != res.Hash {
		t.Fatalf("Log() = %+v, want commit %s", log, res.Hash)
	}
	if log[0].Author.Email != "carol@acme.example" || !log[0].When.Equal(when) {
		t.Errorf("commit = %+v", log[0])
	}

	again, err := r.Commit(context.Background(), "again", sig("Carol", when), sig("Carol", when))
	if err != nil || !again.Empty {
		t.Errorf("second Commit() = %+v, %v; want empty", again, err)
	}
}
