package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	charmLog "github.com/charmbracelet/log"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/evanschultz/postit/internal/domain"
)

// Config holds postit settings loaded from config.toml.
type Config struct {
	Board    BoardConfig    `toml:"board"`
	Logging  LoggingConfig  `toml:"logging"`
	TUI      TUIConfig      `toml:"tui"`
	Activity ActivityConfig `toml:"activity"`
	Keys     KeyConfig      `toml:"keys"`
}

// BoardConfig sets the shape of newly created boards.
type BoardConfig struct {
	DefaultName string         `toml:"default_name"`
	Columns     []ColumnConfig `toml:"columns"`
}

// ColumnConfig is one default column.
type ColumnConfig struct {
	ID       string `toml:"id"`
	Name     string `toml:"name"`
	WIPLimit int    `toml:"wip_limit"`
}

// LoggingConfig sets runtime log behavior.
type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

// DevFileConfig controls the dev-mode log file sink.
type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// TUIConfig toggles detail pane fields.
type TUIConfig struct {
	ShowBody       bool `toml:"show_body"`
	ShowTags       bool `toml:"show_tags"`
	ShowDue        bool `toml:"show_due"`
	RenderMarkdown bool `toml:"render_markdown"`
}

// ActivityConfig controls the change journal.
type ActivityConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
	Limit   int    `toml:"limit"`
}

// KeyConfig overrides TUI key bindings. Values are comma separated key names.
type KeyConfig struct {
	Add         string `toml:"add"`
	Edit        string `toml:"edit"`
	Delete      string `toml:"delete"`
	MoveForward string `toml:"move_forward"`
	MoveBack    string `toml:"move_back"`
	ActivityLog string `toml:"activity_log"`
}

const defaultLogDir = ".postit/log"

// Default returns the built-in configuration. activityPath is the journal database location.
func Default(activityPath string) Config {
	columns := make([]ColumnConfig, 0, 4)
	for _, c := range domain.DefaultColumns() {
		columns = append(columns, ColumnConfig{ID: c.ID, Name: c.Name, WIPLimit: c.WIPLimit})
	}
	return Config{
		Board: BoardConfig{
			Columns: columns,
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: true,
				Dir:     defaultLogDir,
			},
		},
		TUI: TUIConfig{
			ShowBody:       true,
			ShowTags:       true,
			ShowDue:        true,
			RenderMarkdown: true,
		},
		Activity: ActivityConfig{
			Enabled: true,
			Path:    activityPath,
			Limit:   50,
		},
		Keys: KeyConfig{
			Add:         "n",
			Edit:        "e,enter",
			Delete:      "d",
			MoveForward: ">,m",
			MoveBack:    "<,b",
			ActivityLog: "g",
		},
	}
}

// Load reads path over defaults. A missing or empty file yields defaults.
func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(strings.TrimSpace(string(content))) == 0 {
		return cfg, nil
	}

	// Array tables merge element-wise into an existing slice, so columns start empty.
	cfg.Board.Columns = nil
	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}
	if cfg.Board.Columns == nil {
		cfg.Board.Columns = append([]ColumnConfig(nil), defaults.Board.Columns...)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.Board.DefaultName = strings.TrimSpace(c.Board.DefaultName)
	for i := range c.Board.Columns {
		c.Board.Columns[i].ID = strings.ToLower(strings.TrimSpace(c.Board.Columns[i].ID))
		c.Board.Columns[i].Name = strings.TrimSpace(c.Board.Columns[i].Name)
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.DevFile.Dir = strings.TrimSpace(c.Logging.DevFile.Dir)
	c.Activity.Path = strings.TrimSpace(c.Activity.Path)
}

// Validate checks the configuration for values the rest of postit cannot use.
func (c Config) Validate() error {
	if len(c.Board.Columns) == 0 {
		return errors.New("board.columns must include at least one column")
	}
	if _, err := c.DefaultColumns(); err != nil {
		return err
	}
	if _, err := charmLog.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid logging.level %q: %w", c.Logging.Level, err)
	}
	if c.Logging.DevFile.Enabled && c.Logging.DevFile.Dir == "" {
		return errors.New("logging.dev_file.dir is required when the dev file sink is enabled")
	}
	if c.Activity.Enabled && c.Activity.Path == "" {
		return errors.New("activity.path is required when activity is enabled")
	}
	if c.Activity.Limit < 1 {
		return fmt.Errorf("activity.limit must be >= 1, got %d", c.Activity.Limit)
	}
	return nil
}

// DefaultColumns builds the configured columns for a new board.
func (c Config) DefaultColumns() ([]domain.Column, error) {
	out := make([]domain.Column, 0, len(c.Board.Columns))
	seen := map[string]struct{}{}
	for idx, cc := range c.Board.Columns {
		col, err := domain.NewColumn(cc.ID, cc.Name, cc.WIPLimit)
		if err != nil {
			return nil, fmt.Errorf("board.columns[%d]: %w", idx, err)
		}
		if _, ok := seen[col.ID]; ok {
			return nil, fmt.Errorf("board.columns[%d].id %q: %w", idx, col.ID, domain.ErrDuplicateID)
		}
		seen[col.ID] = struct{}{}
		out = append(out, col)
	}
	return out, nil
}

// NewBoard builds an empty board with the configured columns. A blank name uses board.default_name.
func (c Config) NewBoard(name string) (domain.Board, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = c.Board.DefaultName
	}
	if name == "" {
		name = "default"
	}
	columns, err := c.DefaultColumns()
	if err != nil {
		return domain.Board{}, err
	}
	return domain.NewBoard(name, columns)
}
