package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/evanschultz/postit/internal/app"
	"github.com/evanschultz/postit/internal/domain"
	"github.com/evanschultz/postit/internal/platform"
	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
)

// errNothingToEdit is returned by edit when no field flag is set.
var errNothingToEdit = errors.New("nothing to edit: pass at least one field flag")

func addInit(topLevel *cobra.Command, opts *rootOptions) {
	var (
		name   string
		global bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a board in this directory, or the global board",
		Example: `
postit init
postit init --name groceries
postit init --global
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			locate := func(paths platform.Paths) (platform.BoardLocation, error) {
				if loc, ok, err := opts.explicitBoard(); err != nil || ok {
					return loc, err
				}
				if global {
					return platform.BoardLocation{Path: paths.GlobalBoardPath, Scope: platform.ScopeGlobal}, nil
				}
				cwd, err := os.Getwd()
				if err != nil {
					return platform.BoardLocation{}, fmt.Errorf("resolve working dir: %w", err)
				}
				return platform.BoardLocation{
					Path:  platform.ProjectBoardPath(cwd),
					Scope: platform.ScopeProject,
					Root:  cwd,
				}, nil
			}
			req := sessionRequest{command: "init", locate: locate, boardName: name}
			return opts.withSession(req, func(s *session) error {
				out := cmd.OutOrStdout()
				if s.store.Exists() {
					_, _ = fmt.Fprintf(out, "board already exists at %s\n", s.store.Path())
					return nil
				}
				board, err := s.svc.Init(cmd.Context())
				if err != nil {
					return err
				}
				s.logger.Info("board initialized", "path", s.store.Path(), "name", board.Name, "scope", s.location.Scope)
				_, err = fmt.Fprintf(out, "initialized board at %s\n", s.store.Path())
				return err
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "board name (defaults to the directory name)")
	cmd.Flags().BoolVar(&global, "global", false, "initialize the global board instead of a project board")
	topLevel.AddCommand(cmd)
}

func addList(topLevel *cobra.Command, opts *rootOptions) {
	var column string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Print the board",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withSession(sessionRequest{command: "list"}, func(s *session) error {
				views, err := s.svc.ListNotes(cmd.Context(), app.ListFilter{ColumnID: column})
				if err != nil {
					return err
				}
				writeBoard(cmd.OutOrStdout(), s.svc.Board().Name, s.scopeLabel(), views)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&column, "column", "c", "", "only print this column")
	topLevel.AddCommand(cmd)
}

func addAdd(topLevel *cobra.Command, opts *rootOptions) {
	var in app.AddNoteInput
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a note",
		Example: `
postit add buy milk
postit add "write report" --column doing --due 2024.12.31@09:30 -t work
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Title = strings.Join(args, " ")
			return opts.withSession(sessionRequest{command: "add"}, func(s *session) error {
				note, err := s.svc.AddNote(cmd.Context(), in)
				if err != nil {
					return err
				}
				board := s.svc.Board()
				column := ""
				if idx, ok := board.ColumnOf(note.ID); ok {
					column = board.Columns[idx].ID
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "added note %s to %s\n", note.ID, column)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&in.Body, "body", "", "note body")
	cmd.Flags().StringSliceVarP(&in.Tags, "tag", "t", nil, "tag (repeatable or comma separated)")
	cmd.Flags().StringVarP(&in.ColumnID, "column", "c", "", "column id (defaults to the first column)")
	cmd.Flags().StringVar(&in.Due, "due", "", "due date as YYYY.MM.DD@hh:mm")
	cmd.Flags().StringVar(&in.ID, "id", "", "note id (generated when empty)")
	topLevel.AddCommand(cmd)
}

func addMove(topLevel *cobra.Command, opts *rootOptions) {
	var forward, back bool
	cmd := &cobra.Command{
		Use:   "move <note-id> [column-id]",
		Short: "Move a note to a column, or one column forward or back",
		Example: `
postit move abc123 done
postit move abc123 --forward
`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			noteID := args[0]
			picked := 0
			for _, set := range []bool{len(args) == 2, forward, back} {
				if set {
					picked++
				}
			}
			if picked != 1 {
				return errors.New("move needs exactly one of a column id, --forward or --back")
			}
			return opts.withSession(sessionRequest{command: "move"}, func(s *session) error {
				var dest string
				switch {
				case forward, back:
					dir := domain.Forward
					if back {
						dir = domain.Backward
					}
					col, err := s.svc.MoveNote(cmd.Context(), noteID, dir)
					if err != nil {
						return err
					}
					dest = col.ID
				default:
					dest = strings.TrimSpace(args[1])
					if err := s.svc.MoveNoteTo(cmd.Context(), noteID, dest); err != nil {
						return err
					}
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "moved note %s to %s\n", noteID, dest)
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&forward, "forward", false, "move to the next column")
	cmd.Flags().BoolVar(&back, "back", false, "move to the previous column")
	topLevel.AddCommand(cmd)
}

func addEdit(topLevel *cobra.Command, opts *rootOptions) {
	var (
		title, body, due, column string
		tags                     []string
		clearTags, clearDue      bool
	)
	cmd := &cobra.Command{
		Use:   "edit <note-id>",
		Short: "Change fields of a note",
		Example: `
postit edit abc123 --title "buy oat milk"
postit edit abc123 --due 2025.01.15@18:00 --clear-tags
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			in := app.EditNoteInput{NoteID: args[0], ClearTags: clearTags, ClearDue: clearDue}
			if flags.Changed("title") {
				in.Title = &title
			}
			if flags.Changed("body") {
				in.Body = &body
			}
			if flags.Changed("tag") {
				// --tag "" replaces the tags with nothing.
				if len(domain.NormalizeTags(tags)) == 0 {
					in.ClearTags = true
				} else {
					in.Tags = tags
				}
			}
			if flags.Changed("due") {
				in.Due = &due
			}
			if flags.Changed("column") {
				in.ColumnID = &column
			}
			if in.Update().Empty() {
				return errNothingToEdit
			}
			return opts.withSession(sessionRequest{command: "edit"}, func(s *session) error {
				note, err := s.svc.EditNote(cmd.Context(), in)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "updated note %s\n", note.ID)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&body, "body", "", "new body")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "replace tags (repeatable or comma separated)")
	cmd.Flags().BoolVar(&clearTags, "clear-tags", false, "remove all tags")
	cmd.Flags().StringVarP(&column, "column", "c", "", "move the note to this column")
	cmd.Flags().StringVar(&due, "due", "", "due date as YYYY.MM.DD@hh:mm")
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "remove the due date")
	cmd.MarkFlagsMutuallyExclusive("tag", "clear-tags")
	cmd.MarkFlagsMutuallyExclusive("due", "clear-due")
	topLevel.AddCommand(cmd)
}

func addDelete(topLevel *cobra.Command, opts *rootOptions) {
	cmd := &cobra.Command{
		Use:     "delete <note-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a note",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(sessionRequest{command: "delete"}, func(s *session) error {
				note, err := s.svc.DeleteNote(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted note %s\n", note.ID)
				return err
			})
		},
	}
	topLevel.AddCommand(cmd)
}

func addLog(topLevel *cobra.Command, opts *rootOptions) {
	var limit int
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Print recent changes to the board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withSession(sessionRequest{command: "log"}, func(s *session) error {
				out := cmd.OutOrStdout()
				if !s.cfg.Activity.Enabled {
					_, err := fmt.Fprintln(out, "activity log disabled")
					return err
				}
				n := limit
				if n <= 0 {
					n = s.cfg.Activity.Limit
				}
				events, err := s.svc.RecentActivity(cmd.Context(), n)
				if err != nil {
					return err
				}
				writeActivity(out, events)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of entries (defaults to activity.limit)")
	topLevel.AddCommand(cmd)
}

func addPaths(topLevel *cobra.Command, opts *rootOptions) {
	cmd := &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config, data and board paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, err := opts.resolvePaths()
			if err != nil {
				return err
			}
			configPath, err := opts.resolveConfigPath(paths)
			if err != nil {
				return err
			}
			loc, err := opts.resolveBoard(paths)
			if err != nil {
				return err
			}
			tbl := uitable.New()
			tbl.AddRow("dev_mode:", strconv.FormatBool(opts.devMode))
			tbl.AddRow("config:", configPath)
			tbl.AddRow("data_dir:", paths.DataDir)
			tbl.AddRow("global_board:", paths.GlobalBoardPath)
			tbl.AddRow("activity_db:", paths.ActivityDBPath)
			tbl.AddRow("board:", loc.Path)
			tbl.AddRow("scope:", string(loc.Scope))
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tbl)
			return err
		},
	}
	topLevel.AddCommand(cmd)
}

func addTUI(topLevel *cobra.Command, opts *rootOptions) {
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive board (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}
	topLevel.AddCommand(cmd)
}

// writeBoard prints one table per column.
func writeBoard(w io.Writer, name, scope string, views []app.ColumnView) {
	bold := color.New(color.Bold)
	faint := color.New(color.Faint)
	_, _ = fmt.Fprintf(w, "Board: %s (%s)\n", bold.Sprint(name), scope)
	for _, view := range views {
		_, _ = fmt.Fprintln(w, "")
		_, _ = fmt.Fprintf(w, "%s %s\n", bold.Sprint(view.Column.Name), faint.Sprint(columnCount(view)))
		if len(view.Notes) == 0 {
			_, _ = fmt.Fprintln(w, "  (empty)")
			continue
		}
		tbl := uitable.New()
		tbl.MaxColWidth = 60
		tbl.Wrap = true
		tbl.AddRow("", bold.Sprint("ID"), bold.Sprint("TITLE"), bold.Sprint("DUE"), bold.Sprint("TAGS"))
		for _, note := range view.Notes {
			tbl.AddRow("", note.ID, note.Title, note.DueText(), strings.Join(note.Tags, ","))
		}
		_, _ = fmt.Fprintln(w, tbl)
	}
}

// columnCount renders "[id] n" or "[id] n/limit".
func columnCount(view app.ColumnView) string {
	if view.Column.HasLimit() {
		return fmt.Sprintf("[%s] %d/%d", view.Column.ID, len(view.Notes), view.Column.WIPLimit)
	}
	return fmt.Sprintf("[%s] %d", view.Column.ID, len(view.Notes))
}

// writeActivity prints journal entries newest first.
func writeActivity(w io.Writer, events []domain.ChangeEvent) {
	if len(events) == 0 {
		_, _ = fmt.Fprintln(w, "(no activity)")
		return
	}
	bold := color.New(color.Bold)
	tbl := uitable.New()
	tbl.MaxColWidth = 80
	tbl.AddRow(bold.Sprint("WHEN"), bold.Sprint("CHANGE"))
	for _, event := range events {
		tbl.AddRow(event.OccurredAt.Local().Format("2006-01-02 15:04"), event.Summary())
	}
	_, _ = fmt.Fprintln(w, tbl)
}
