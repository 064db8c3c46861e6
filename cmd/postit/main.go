package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/evanschultz/postit/internal/adapters/storage/sqlite"
	"github.com/evanschultz/postit/internal/adapters/storage/yamlfile"
	"github.com/evanschultz/postit/internal/app"
	"github.com/evanschultz/postit/internal/config"
	"github.com/evanschultz/postit/internal/domain"
	"github.com/evanschultz/postit/internal/platform"
	"github.com/evanschultz/postit/internal/tui"
	"github.com/google/uuid"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
)

// version is set at build time.
var version = "dev"

// program is the part of tea.Program the CLI drives.
type program interface {
	Run() (tea.Model, error)
}

// programFactory builds the TUI program; tests swap it out.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

func main() {
	root := newRootCommand(&rootOptions{stdout: os.Stdout, stderr: os.Stderr})
	if err := fang.Execute(context.Background(), root, fang.WithVersion(version)); err != nil {
		os.Exit(1)
	}
}

// run executes one CLI invocation against the given streams.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	root := newRootCommand(&rootOptions{stdout: stdout, stderr: stderr})
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

// rootOptions holds global flags and output streams.
type rootOptions struct {
	configPath string
	boardPath  string
	devMode    bool

	stdout io.Writer
	stderr io.Writer
}

// newRootCommand builds the postit command tree. Running it without a subcommand opens the TUI.
func newRootCommand(opts *rootOptions) *cobra.Command {
	defaultDev := version == "dev"
	if v, ok := parseBoolEnv("POSTIT_DEV_MODE"); ok {
		defaultDev = v
	}

	root := &cobra.Command{
		Use:           "postit",
		Short:         "A personal kanban board for the terminal.",
		Long:          "postit keeps sticky notes in columns. Boards live in .postit/board.yml next to a project, or in a global board.",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config TOML (env POSTIT_CONFIG)")
	root.PersistentFlags().StringVar(&opts.boardPath, "board", "", "use this board file instead of searching (env POSTIT_BOARD)")
	root.PersistentFlags().BoolVar(&opts.devMode, "dev", defaultDev, "use dev paths and the dev log file (env POSTIT_DEV_MODE)")

	addInit(root, opts)
	addList(root, opts)
	addAdd(root, opts)
	addMove(root, opts)
	addEdit(root, opts)
	addDelete(root, opts)
	addLog(root, opts)
	addPaths(root, opts)
	addTUI(root, opts)
	return root
}

// session is one opened board with its service and collaborators.
type session struct {
	paths    platform.Paths
	cfg      config.Config
	location platform.BoardLocation
	logger   *runtimeLogger
	store    *yamlfile.Store
	journal  *sqlite.Journal
	svc      *app.Service
}

// sessionRequest selects how a command opens its board.
type sessionRequest struct {
	command string
	// locate overrides board discovery, as init does.
	locate func(platform.Paths) (platform.BoardLocation, error)
	// boardName names a board that does not exist yet.
	boardName string
	// quietConsole mutes console logs while the TUI owns the terminal.
	quietConsole bool
}

// resolvePaths returns per-user paths for the current mode.
func (o *rootOptions) resolvePaths() (platform.Paths, error) {
	return platform.DefaultPathsWithOptions(platform.Options{
		AppName: platform.DefaultAppName,
		DevMode: o.devMode,
	})
}

// resolveConfigPath picks --config, then POSTIT_CONFIG, then the per-user default.
func (o *rootOptions) resolveConfigPath(paths platform.Paths) (string, error) {
	path := strings.TrimSpace(o.configPath)
	if path == "" {
		path = strings.TrimSpace(os.Getenv("POSTIT_CONFIG"))
	}
	if path == "" {
		return paths.ConfigPath, nil
	}
	return homedir.Expand(path)
}

// explicitBoard returns the board named by --board or POSTIT_BOARD.
func (o *rootOptions) explicitBoard() (platform.BoardLocation, bool, error) {
	path := strings.TrimSpace(o.boardPath)
	if path == "" {
		path = strings.TrimSpace(os.Getenv("POSTIT_BOARD"))
	}
	if path == "" {
		return platform.BoardLocation{}, false, nil
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return platform.BoardLocation{}, false, fmt.Errorf("expand board path %q: %w", path, err)
	}
	return platform.ExplicitBoard(expanded), true, nil
}

// resolveBoard picks the explicit board, else the nearest project board, else the global board.
func (o *rootOptions) resolveBoard(paths platform.Paths) (platform.BoardLocation, error) {
	if loc, ok, err := o.explicitBoard(); err != nil || ok {
		return loc, err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return platform.BoardLocation{}, fmt.Errorf("resolve working dir: %w", err)
	}
	return platform.ResolveBoard(cwd, paths), nil
}

// open resolves paths and config, then wires the store, journal and service for one command.
func (o *rootOptions) open(req sessionRequest) (*session, error) {
	paths, err := o.resolvePaths()
	if err != nil {
		return nil, err
	}
	configPath, err := o.resolveConfigPath(paths)
	if err != nil {
		return nil, fmt.Errorf("expand config path: %w", err)
	}
	cfg, err := config.Load(configPath, config.Default(paths.ActivityDBPath))
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", configPath, err)
	}
	if cfg.Activity.Path, err = homedir.Expand(cfg.Activity.Path); err != nil {
		return nil, fmt.Errorf("expand activity path: %w", err)
	}

	logger, err := newRuntimeLogger(o.stderr, platform.DefaultAppName, o.devMode, cfg.Logging, time.Now)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	if req.quietConsole {
		logger.SetConsoleEnabled(false)
	}
	s := &session{paths: paths, cfg: cfg, logger: logger}

	locate := req.locate
	if locate == nil {
		locate = o.resolveBoard
	}
	if s.location, err = locate(paths); err != nil {
		_ = s.Close()
		return nil, err
	}
	logger.Debug("startup configuration resolved", "command", req.command, "dev_mode", o.devMode, "config_path", configPath)
	logger.Debug("board resolved", "path", s.location.Path, "scope", s.location.Scope)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Debug("dev file logging enabled", "path", devPath)
	}

	// A blank name falls back to board.default_name, then "default".
	name := strings.TrimSpace(req.boardName)
	if name == "" && s.location.Scope == platform.ScopeProject {
		name = s.location.DefaultName()
	}
	s.store, err = yamlfile.Open(s.location.Path, func() domain.Board {
		board, err := cfg.NewBoard(name)
		if err != nil {
			return domain.DefaultBoard(name)
		}
		return board
	})
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("open board store: %w", err)
	}

	var journal app.Journal
	if cfg.Activity.Enabled {
		j, err := sqlite.Open(cfg.Activity.Path)
		if err != nil {
			logger.Warn("activity journal unavailable", "path", cfg.Activity.Path, "err", err)
		} else {
			s.journal = j
			journal = j
		}
	}

	s.svc = app.NewService(s.store, uuid.NewString, nil, app.ServiceConfig{
		BoardRef: s.location.Path,
		Journal:  journal,
		Logger:   logger,
	})
	return s, nil
}

// Close releases the journal and the dev log file.
func (s *session) Close() error {
	var errs []error
	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			s.logger.Warn("activity journal close failed", "err", err)
			errs = append(errs, err)
		}
	}
	if err := s.logger.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close runtime log sink: %w", err))
	}
	return errors.Join(errs...)
}

// scopeLabel names where the session board lives.
func (s *session) scopeLabel() string {
	return string(s.location.Scope)
}

// withSession opens a session, runs fn and closes the session.
func (o *rootOptions) withSession(req sessionRequest, fn func(*session) error) (err error) {
	s, err := o.open(req)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := s.Close(); closeErr != nil && err == nil {
			_, _ = fmt.Fprintf(o.stderr, "warning: %v\n", closeErr)
		}
	}()
	s.logger.Debug("command flow start", "command", req.command)
	if err := fn(s); err != nil {
		s.logger.Debug("command flow failed", "command", req.command, "err", err)
		return err
	}
	s.logger.Debug("command flow complete", "command", req.command)
	return nil
}

// runTUI opens the board in the interactive program.
func runTUI(ctx context.Context, opts *rootOptions) error {
	return opts.withSession(sessionRequest{command: "tui", quietConsole: true}, func(s *session) error {
		m := tui.NewModel(
			s.svc,
			tui.WithContext(ctx),
			tui.WithBoardLabel(s.scopeLabel()),
			tui.WithDetailConfig(tui.DetailConfig{
				ShowBody:       s.cfg.TUI.ShowBody,
				ShowTags:       s.cfg.TUI.ShowTags,
				ShowDue:        s.cfg.TUI.ShowDue,
				RenderMarkdown: s.cfg.TUI.RenderMarkdown,
			}),
			tui.WithKeyConfig(tui.KeyConfig{
				Add:         s.cfg.Keys.Add,
				Edit:        s.cfg.Keys.Edit,
				Delete:      s.cfg.Keys.Delete,
				MoveForward: s.cfg.Keys.MoveForward,
				MoveBack:    s.cfg.Keys.MoveBack,
				ActivityLog: s.cfg.Keys.ActivityLog,
			}),
			tui.WithActivityLimit(s.cfg.Activity.Limit),
		)
		s.logger.Info("starting tui program loop", "board", s.location.Path)
		if _, err := programFactory(m).Run(); err != nil {
			s.logger.Error("tui program terminated with error", "err", err)
			return fmt.Errorf("run tui program: %w", err)
		}
		if s.svc.Dirty() {
			if err := s.svc.Flush(ctx); err != nil {
				return fmt.Errorf("board has unsaved changes: %w", err)
			}
		}
		return nil
	})
}

// parseBoolEnv reads a boolean env var; ok is false when unset or unparsable.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
