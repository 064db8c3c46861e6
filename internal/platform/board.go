package platform

import (
	"os"
	"path/filepath"
	"strings"
)

// ProjectDirName and BoardFileName locate project-local boards.
const (
	ProjectDirName = ".postit"
	BoardFileName  = "board.yml"
)

// Scope tells where a board lives.
type Scope string

// Scope values.
const (
	ScopeProject Scope = "project"
	ScopeGlobal  Scope = "global"
	ScopeFile    Scope = "file"
)

// BoardLocation is a resolved board path and its scope.
type BoardLocation struct {
	Path  string
	Scope Scope
	// Root is the project directory holding .postit, set for project scope.
	Root string
}

// DefaultName returns the board name used when the document does not exist yet.
func (l BoardLocation) DefaultName() string {
	if l.Scope == ScopeProject && l.Root != "" {
		if base := filepath.Base(l.Root); base != "." && base != string(filepath.Separator) {
			return base
		}
	}
	return "default"
}

// ProjectBoardPath returns the project board path inside dir.
func ProjectBoardPath(dir string) string {
	return filepath.Join(dir, ProjectDirName, BoardFileName)
}

// FindProjectBoard searches start and its ancestors for a project board file.
func FindProjectBoard(start string) (string, bool) {
	start = strings.TrimSpace(start)
	if start == "" {
		return "", false
	}
	dir := filepath.Clean(start)
	for {
		candidate := ProjectBoardPath(dir)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// ResolveBoard picks the nearest project board from start, else the global board.
func ResolveBoard(start string, paths Paths) BoardLocation {
	if path, ok := FindProjectBoard(start); ok {
		return BoardLocation{
			Path:  path,
			Scope: ScopeProject,
			Root:  filepath.Dir(filepath.Dir(path)),
		}
	}
	return BoardLocation{
		Path:  paths.GlobalBoardPath,
		Scope: ScopeGlobal,
	}
}

// ExplicitBoard wraps a user-supplied board file path.
func ExplicitBoard(path string) BoardLocation {
	return BoardLocation{
		Path:  filepath.Clean(path),
		Scope: ScopeFile,
	}
}
