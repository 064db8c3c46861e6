package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/evanschultz/postit/internal/app"
	"github.com/evanschultz/postit/internal/config"
	"github.com/evanschultz/postit/internal/domain"
	"github.com/fatih/color"
)

// TestMain sets deterministic environment defaults for CLI tests.
func TestMain(m *testing.M) {
	_ = os.Setenv("POSTIT_DEV_MODE", "false")
	_ = os.Unsetenv("POSTIT_BOARD")
	_ = os.Unsetenv("POSTIT_CONFIG")
	color.NoColor = true
	os.Exit(m.Run())
}

// fakeProgram stands in for the TUI program.
type fakeProgram struct {
	runErr error
}

// Run returns the configured error.
func (f fakeProgram) Run() (tea.Model, error) {
	return nil, f.runErr
}

// cliEnv is an isolated board, config and data dir for one test.
type cliEnv struct {
	dir    string
	board  string
	config string
}

// newCLIEnv writes a config that keeps the journal inside the test dir.
func newCLIEnv(t *testing.T, extraConfig string) cliEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg-config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "xdg-data"))
	env := cliEnv{
		dir:    dir,
		board:  filepath.Join(dir, "board.yml"),
		config: filepath.Join(dir, "config.toml"),
	}
	content := fmt.Sprintf("[activity]\npath = %q\n%s", filepath.Join(dir, "activity.db"), extraConfig)
	if err := os.WriteFile(env.config, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return env
}

// run executes args with the env's board and config flags appended.
func (e cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	full := append(append([]string{}, args...), "--board", e.board, "--config", e.config)
	err := run(context.Background(), full, &out, io.Discard)
	return out.String(), err
}

// mustRun fails the test when the command errors.
func (e cliEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	if err != nil {
		t.Fatalf("run(%v) error = %v", args, err)
	}
	return out
}

// stubProgram swaps programFactory for the duration of a test.
func stubProgram(t *testing.T, p program) {
	t.Helper()
	orig := programFactory
	t.Cleanup(func() { programFactory = orig })
	programFactory = func(tea.Model) program { return p }
}

func TestRunVersion(t *testing.T) {
	var out strings.Builder
	if err := run(context.Background(), []string{"--version"}, &out, io.Discard); err != nil {
		t.Fatalf("run(version) error = %v", err)
	}
	if !strings.Contains(out.String(), "postit") {
		t.Fatalf("expected version output, got %q", out.String())
	}
}

func TestRunUnknownCommand(t *testing.T) {
	env := newCLIEnv(t, "")
	if _, err := env.run(t, "bogus"); err == nil {
		t.Fatal("expected unknown command error")
	}
}

func TestRunInitCreatesBoardOnce(t *testing.T) {
	env := newCLIEnv(t, "")
	out := env.mustRun(t, "init", "--name", "groceries")
	if strings.TrimSpace(out) != "initialized board at "+env.board {
		t.Fatalf("unexpected init output %q", out)
	}
	if _, err := os.Stat(env.board); err != nil {
		t.Fatalf("Stat(board) error = %v", err)
	}
	before, _ := os.ReadFile(env.board)

	out = env.mustRun(t, "init", "--name", "other")
	if !strings.Contains(out, "already exists") {
		t.Fatalf("expected existing board left alone, got %q", out)
	}
	after, _ := os.ReadFile(env.board)
	if !bytes.Equal(before, after) {
		t.Fatal("expected second init to leave the document untouched")
	}
	if !strings.Contains(env.mustRun(t, "list"), "Board: groceries (file)") {
		t.Fatal("expected board name from --name")
	}
}

func TestRunInitProjectBoardInWorkingDir(t *testing.T) {
	env := newCLIEnv(t, "")
	project := filepath.Join(env.dir, "shopping")
	nested := filepath.Join(project, "sub", "dir")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	t.Chdir(project)

	var out bytes.Buffer
	if err := run(context.Background(), []string{"init", "--config", env.config}, &out, io.Discard); err != nil {
		t.Fatalf("run(init) error = %v", err)
	}
	want := filepath.Join(project, ".postit", "board.yml")
	if !strings.Contains(out.String(), want) {
		t.Fatalf("expected project board path %q, got %q", want, out.String())
	}

	t.Chdir(nested)
	out.Reset()
	if err := run(context.Background(), []string{"list", "--config", env.config}, &out, io.Discard); err != nil {
		t.Fatalf("run(list) error = %v", err)
	}
	if !strings.Contains(out.String(), "Board: shopping (project)") {
		t.Fatalf("expected upward search to find the project board, got %q", out.String())
	}
}

func TestRunNoteLifecycle(t *testing.T) {
	env := newCLIEnv(t, "")

	out := env.mustRun(t, "add", "buy", "milk", "--id", "abc123", "-t", "errand,Home")
	if strings.TrimSpace(out) != "added note abc123 to todo" {
		t.Fatalf("unexpected add output %q", out)
	}
	list := env.mustRun(t, "list")
	for _, want := range []string{"Board: default (file)", "abc123", "buy milk", "errand,home", "(empty)"} {
		if !strings.Contains(list, want) {
			t.Fatalf("expected list to contain %q, got\n%s", want, list)
		}
	}

	if out := env.mustRun(t, "move", "abc123", "--forward"); strings.TrimSpace(out) != "moved note abc123 to doing" {
		t.Fatalf("unexpected move output %q", out)
	}
	if out := env.mustRun(t, "move", "abc123", "done"); strings.TrimSpace(out) != "moved note abc123 to done" {
		t.Fatalf("unexpected move output %q", out)
	}
	if out := env.mustRun(t, "edit", "abc123", "--title", "buy oat milk", "--due", "2024.12.31@09:30"); strings.TrimSpace(out) != "updated note abc123" {
		t.Fatalf("unexpected edit output %q", out)
	}
	list = env.mustRun(t, "list", "--column", "done")
	for _, want := range []string{"buy oat milk", "2024.12.31@09:30"} {
		if !strings.Contains(list, want) {
			t.Fatalf("expected done column to contain %q, got\n%s", want, list)
		}
	}
	if strings.Contains(list, "To Do") {
		t.Fatalf("expected --column to filter columns, got\n%s", list)
	}

	if out := env.mustRun(t, "delete", "abc123"); strings.TrimSpace(out) != "deleted note abc123" {
		t.Fatalf("unexpected delete output %q", out)
	}
	if _, err := env.run(t, "delete", "abc123"); !errors.Is(err, domain.ErrUnknownNote) {
		t.Fatalf("expected ErrUnknownNote on second delete, got %v", err)
	}
}

func TestRunFailedAddDoesNotWriteBoard(t *testing.T) {
	env := newCLIEnv(t, "")
	if _, err := env.run(t, "add", "x", "--due", "12/31/2024"); !errors.Is(err, domain.ErrInvalidDueDate) {
		t.Fatalf("expected ErrInvalidDueDate, got %v", err)
	}
	if _, err := env.run(t, "add", "x", "--column", "nope"); !errors.Is(err, domain.ErrUnknownColumn) {
		t.Fatalf("expected ErrUnknownColumn, got %v", err)
	}
	if _, err := os.Stat(env.board); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected no board document after failed adds, stat err = %v", err)
	}
}

func TestRunMoveWIPLimitFromConfig(t *testing.T) {
	env := newCLIEnv(t, `
[[board.columns]]
id = "todo"
name = "To Do"

[[board.columns]]
id = "doing"
name = "Doing"
wip_limit = 1

[[board.columns]]
id = "done"
name = "Done"
`)
	env.mustRun(t, "add", "first", "--id", "abc123", "--column", "doing")
	env.mustRun(t, "add", "second", "--id", "add001")
	if _, err := env.run(t, "move", "add001", "--forward"); !errors.Is(err, domain.ErrWIPLimitExceeded) {
		t.Fatalf("expected ErrWIPLimitExceeded, got %v", err)
	}
	list := env.mustRun(t, "list", "--column", "doing")
	if !strings.Contains(list, "1/1") || strings.Contains(list, "add001") {
		t.Fatalf("expected doing to hold only abc123, got\n%s", list)
	}
	if _, err := env.run(t, "move", "add001", "--back"); !errors.Is(err, domain.ErrNoSuchColumn) {
		t.Fatalf("expected ErrNoSuchColumn, got %v", err)
	}
}

func TestRunMoveNeedsOneTarget(t *testing.T) {
	env := newCLIEnv(t, "")
	env.mustRun(t, "add", "x", "--id", "abc123")
	cases := [][]string{
		{"move", "abc123"},
		{"move", "abc123", "done", "--forward"},
		{"move", "abc123", "--forward", "--back"},
	}
	for _, args := range cases {
		if _, err := env.run(t, args...); err == nil {
			t.Fatalf("expected error for %v", args)
		}
	}
}

func TestRunEditNeedsAField(t *testing.T) {
	env := newCLIEnv(t, "")
	if _, err := env.run(t, "edit", "abc123"); !errors.Is(err, errNothingToEdit) {
		t.Fatalf("expected errNothingToEdit, got %v", err)
	}
}

func TestRunEditClearsTagsAndDue(t *testing.T) {
	env := newCLIEnv(t, "")
	env.mustRun(t, "add", "x", "--id", "abc123", "-t", "keep", "--due", "2024.12.31@09:30")
	env.mustRun(t, "edit", "abc123", "--clear-tags", "--clear-due", "--column", "waiting")
	list := env.mustRun(t, "list", "--column", "waiting")
	if !strings.Contains(list, "abc123") || strings.Contains(list, "keep") || strings.Contains(list, "2024.12.31") {
		t.Fatalf("expected cleared note in waiting, got\n%s", list)
	}
}

func TestRunEditEmptyTagClearsTags(t *testing.T) {
	env := newCLIEnv(t, "")
	env.mustRun(t, "add", "x", "--id", "abc123", "-t", "keep")
	out := env.mustRun(t, "edit", "abc123", "--tag", "")
	if !strings.Contains(out, "updated note abc123") {
		t.Fatalf("unexpected edit output %q", out)
	}
	list := env.mustRun(t, "list")
	if !strings.Contains(list, "abc123") || strings.Contains(list, "keep") {
		t.Fatalf("expected tags cleared, got\n%s", list)
	}
}

func TestRunListUnknownColumn(t *testing.T) {
	env := newCLIEnv(t, "")
	if _, err := env.run(t, "list", "--column", "nope"); !errors.Is(err, domain.ErrUnknownColumn) {
		t.Fatalf("expected ErrUnknownColumn, got %v", err)
	}
}

func TestRunLogPrintsActivity(t *testing.T) {
	env := newCLIEnv(t, "")
	env.mustRun(t, "add", "buy", "milk", "--id", "abc123")
	env.mustRun(t, "delete", "abc123")

	out := env.mustRun(t, "log")
	created := strings.Index(out, `created abc123 "buy milk" in todo`)
	deleted := strings.Index(out, `deleted abc123 "buy milk"`)
	if created < 0 || deleted < 0 {
		t.Fatalf("expected create and delete entries, got\n%s", out)
	}
	if deleted > created {
		t.Fatalf("expected newest entry first, got\n%s", out)
	}

	out = env.mustRun(t, "log", "--limit", "1")
	if strings.Contains(out, "created abc123") {
		t.Fatalf("expected --limit to cap entries, got\n%s", out)
	}
}

func TestRunLogDisabled(t *testing.T) {
	env := newCLIEnv(t, "enabled = false\n")
	out := env.mustRun(t, "log")
	if strings.TrimSpace(out) != "activity log disabled" {
		t.Fatalf("unexpected log output %q", out)
	}
}

func TestRunLogEmpty(t *testing.T) {
	env := newCLIEnv(t, "")
	if out := env.mustRun(t, "log"); strings.TrimSpace(out) != "(no activity)" {
		t.Fatalf("unexpected log output %q", out)
	}
}

func TestRunCorruptBoardFails(t *testing.T) {
	env := newCLIEnv(t, "")
	if err := os.WriteFile(env.board, []byte("name: [broken\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	_, err := env.run(t, "list")
	if !errors.Is(err, app.ErrCorruptDocument) || !errors.Is(err, app.ErrStorage) {
		t.Fatalf("expected corrupt storage error, got %v", err)
	}
}

func TestRunPathsCommand(t *testing.T) {
	env := newCLIEnv(t, "")
	out := env.mustRun(t, "paths")
	for _, want := range []string{"config:", env.config, "board:", env.board, "scope:", "file", "activity_db:"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected paths output to contain %q, got\n%s", want, out)
		}
	}
}

func TestRunBoardAndConfigEnvOverrides(t *testing.T) {
	env := newCLIEnv(t, "")
	t.Setenv("POSTIT_BOARD", env.board)
	t.Setenv("POSTIT_CONFIG", env.config)
	var out bytes.Buffer
	if err := run(context.Background(), []string{"add", "from", "env", "--id", "env001"}, &out, io.Discard); err != nil {
		t.Fatalf("run(add) error = %v", err)
	}
	data, err := os.ReadFile(env.board)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "env001") {
		t.Fatalf("expected env board to hold the note, got\n%s", data)
	}
}

func TestRunRejectsInvalidLoggingLevel(t *testing.T) {
	env := newCLIEnv(t, "\n[logging]\nlevel = \"loud\"\n")
	_, err := env.run(t, "list")
	if err == nil || !strings.Contains(err.Error(), "load config") {
		t.Fatalf("expected config load error, got %v", err)
	}
}

func TestRunStartsProgram(t *testing.T) {
	stubProgram(t, fakeProgram{})
	env := newCLIEnv(t, "")
	if _, err := env.run(t); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if _, err := env.run(t, "tui"); err != nil {
		t.Fatalf("run(tui) error = %v", err)
	}
	if _, err := os.Stat(env.board); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected opening the tui not to create the board, stat err = %v", err)
	}
}

func TestRunReportsProgramError(t *testing.T) {
	stubProgram(t, fakeProgram{runErr: errors.New("boom")})
	env := newCLIEnv(t, "")
	_, err := env.run(t)
	if err == nil || !strings.Contains(err.Error(), "run tui program") {
		t.Fatalf("expected program error, got %v", err)
	}
}

func TestRunTUIModeWritesLogsToFileOnly(t *testing.T) {
	stubProgram(t, fakeProgram{})
	logDir := filepath.Join(t.TempDir(), "logs")
	env := newCLIEnv(t, fmt.Sprintf("\n[logging]\nlevel = \"debug\"\n\n[logging.dev_file]\nenabled = true\ndir = %q\n", logDir))

	var stderr bytes.Buffer
	args := []string{"--dev", "--board", env.board, "--config", env.config}
	if err := run(context.Background(), args, io.Discard, &stderr); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if stderr.Len() != 0 {
		t.Fatalf("expected console sink muted during tui, got %q", stderr.String())
	}
	path := filepath.Join(logDir, "postit-"+time.Now().UTC().Format("20060102")+".log")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(dev log) error = %v", err)
	}
	if !strings.Contains(string(data), "starting tui program loop") {
		t.Fatalf("expected tui start in dev log, got\n%s", data)
	}
}

func TestRunCLIModeLogsToConsole(t *testing.T) {
	env := newCLIEnv(t, "\n[logging]\nlevel = \"debug\"\n")
	var stderr bytes.Buffer
	args := []string{"list", "--board", env.board, "--config", env.config}
	if err := run(context.Background(), args, io.Discard, &stderr); err != nil {
		t.Fatalf("run(list) error = %v", err)
	}
	if !strings.Contains(stderr.String(), "board resolved") {
		t.Fatalf("expected debug logs on the console, got %q", stderr.String())
	}
}

func TestParseBoolEnv(t *testing.T) {
	t.Setenv("POSTIT_TEST_BOOL", "true")
	if v, ok := parseBoolEnv("POSTIT_TEST_BOOL"); !ok || !v {
		t.Fatalf("expected true, got %t/%t", v, ok)
	}
	t.Setenv("POSTIT_TEST_BOOL", "nope")
	if _, ok := parseBoolEnv("POSTIT_TEST_BOOL"); ok {
		t.Fatal("expected unparsable value to be ignored")
	}
	t.Setenv("POSTIT_TEST_BOOL", "")
	if _, ok := parseBoolEnv("POSTIT_TEST_BOOL"); ok {
		t.Fatal("expected empty value to be ignored")
	}
}

func TestWorkspaceRootFromUsesNearestMarker(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, ".postit"), 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if got := workspaceRootFrom(nested); got != root {
		t.Fatalf("workspaceRootFrom() = %q, want %q", got, root)
	}
}

func TestDevLogFilePathAbsoluteDir(t *testing.T) {
	dir := t.TempDir()
	got, err := devLogFilePath(dir, "post it", time.Date(2026, 2, 21, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("devLogFilePath() error = %v", err)
	}
	if want := filepath.Join(dir, "post-it-20260221.log"); got != want {
		t.Fatalf("devLogFilePath() = %q, want %q", got, want)
	}
}

func TestRuntimeLoggerCanMuteConsoleSink(t *testing.T) {
	var out bytes.Buffer
	logger, err := newRuntimeLogger(&out, "postit", false, config.LoggingConfig{Level: "info"}, nil)
	if err != nil {
		t.Fatalf("newRuntimeLogger() error = %v", err)
	}
	logger.SetConsoleEnabled(false)
	logger.Info("hidden")
	if out.Len() != 0 {
		t.Fatalf("expected muted console, got %q", out.String())
	}
	logger.SetConsoleEnabled(true)
	logger.Warn("shown")
	if !strings.Contains(out.String(), "shown") {
		t.Fatalf("expected console output, got %q", out.String())
	}
}
