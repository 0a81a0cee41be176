/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

// Package project collects the set of source files belonging to a
// workspace, and the subset of those files that are entry points, from
// its configured project/entry glob patterns.
package project

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"bennypowers.dev/knipgo/fs"
	"bennypowers.dev/knipgo/workspace"
)

// ProjectSet is the set of project file paths, keyed by absolute path.
type ProjectSet map[string]bool

// EntrySet is the set of entry file paths, keyed by absolute path.
type EntrySet map[string]bool

// defaultProjectGlobs is used when a workspace declares no project globs
// of its own: every source file under the workspace directory.
var defaultProjectGlobs = []string{"**/*.{js,jsx,ts,tsx,mjs,cjs}"}

// Collect expands a workspace's project and entry glob patterns into
// concrete file sets. Negated project patterns (leading "!") remove
// matches from the project set, but never from the entry set: a file
// matching both an entry pattern and a negated project pattern keeps its
// entry status (computed before negation is applied). nestedWorkspaceDirs
// lists the directories of any other workspace found beneath ws.Dir so a
// parent's default "**" project glob does not also claim a child
// workspace's files as its own.
func Collect(fsys fs.FileSystem, ws *workspace.Workspace, projectGlobs, entryGlobs []string, ignorePatterns []string, nestedWorkspaceDirs []string) (ProjectSet, EntrySet, error) {
	if len(projectGlobs) == 0 {
		projectGlobs = defaultProjectGlobs
	}

	gitignore, err := loadGitignore(fsys, ws.Dir)
	if err != nil {
		return nil, nil, err
	}
	ignorePatterns = append(append([]string{}, ignorePatterns...), gitignore...)

	entries, err := expand(fsys, ws.Dir, entryGlobs, nestedWorkspaceDirs)
	if err != nil {
		return nil, nil, err
	}

	include, exclude, err := splitNegated(projectGlobs)
	if err != nil {
		return nil, nil, err
	}

	included, err := expand(fsys, ws.Dir, include, nestedWorkspaceDirs)
	if err != nil {
		return nil, nil, err
	}
	excluded, err := expand(fsys, ws.Dir, exclude, nestedWorkspaceDirs)
	if err != nil {
		return nil, nil, err
	}

	project := make(ProjectSet)
	for path := range included {
		if excluded[path] {
			continue
		}
		if matchesAny(ws.Dir, path, ignorePatterns) {
			continue
		}
		project[path] = true
	}

	// Entry matches outside the project set are unioned in (silent
	// promotion); entry wins over a negated project pattern by never
	// subtracting from the entry set itself.
	for path := range entries {
		project[path] = true
	}

	return project, entries, nil
}

// splitNegated partitions glob patterns into positive and negated
// (leading "!") groups, stripping the "!" prefix from the latter.
func splitNegated(patterns []string) (include, exclude []string, err error) {
	for _, p := range patterns {
		if strings.HasPrefix(p, "!") {
			exclude = append(exclude, strings.TrimPrefix(p, "!"))
		} else {
			include = append(include, p)
		}
	}
	return include, exclude, nil
}

// expand resolves glob patterns relative to dir into a set of absolute
// paths. Matching walks dir's file tree once (skipping node_modules) and
// tests each file's dir-relative path with doublestar.Match, rather than
// doublestar.Glob directly against an fs.FS rooted at dir: dir may be an
// OS-absolute path or an in-memory mapfs root, and doublestar.Glob's
// fs.FS parameter expects relative, non-leading-slash patterns, so
// matching relative paths by hand works identically for both backends.
func expand(fsys fs.FileSystem, dir string, patterns []string, excludeDirs []string) (map[string]bool, error) {
	out := make(map[string]bool)
	if len(patterns) == 0 {
		return out, nil
	}

	files, err := collectFiles(fsys, dir, excludeDirs)
	if err != nil {
		return nil, err
	}

	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)
		for _, rel := range files {
			if ok, _ := doublestar.Match(pattern, rel); ok {
				out[filepath.Join(dir, filepath.FromSlash(rel))] = true
			}
		}
	}
	return out, nil
}

// collectFiles walks dir and returns every regular file as a
// slash-separated path relative to dir. node_modules, dotdirs, and any
// directory in excludeDirs (other workspaces nested beneath dir) are
// skipped, matching the rest of the resolver's convention of never
// descending into installed packages when enumerating a workspace's own
// source.
func collectFiles(fsys fs.FileSystem, dir string, excludeDirs []string) ([]string, error) {
	excluded := make(map[string]bool, len(excludeDirs))
	for _, d := range excludeDirs {
		excluded[filepath.Clean(d)] = true
	}

	var files []string
	var walk func(d, rel string) error
	walk = func(d, rel string) error {
		entries, err := fsys.ReadDir(d)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			name := entry.Name()
			if strings.HasPrefix(name, ".") {
				continue
			}
			childRel := name
			if rel != "" {
				childRel = rel + "/" + name
			}
			if entry.IsDir() {
				childDir := filepath.Join(d, name)
				if name == "node_modules" || excluded[filepath.Clean(childDir)] {
					continue
				}
				if err := walk(childDir, childRel); err != nil {
					return err
				}
				continue
			}
			files = append(files, childRel)
		}
		return nil
	}
	if err := walk(dir, ""); err != nil {
		return nil, err
	}
	return files, nil
}

func matchesAny(dir, path string, patterns []string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// loadGitignore reads .gitignore at the workspace root, if present, and
// compiles its non-comment, non-blank lines into doublestar patterns.
// This is a minimal, single-file matcher: it does not walk nested
// .gitignore files or honor negated gitignore entries, which is enough
// for the common case of one root-level .gitignore excluding build
// output.
func loadGitignore(fsys fs.FileSystem, dir string) ([]string, error) {
	path := filepath.Join(dir, ".gitignore")
	if !fsys.Exists(path) {
		return nil, nil
	}
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var patterns []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		pattern := strings.TrimSuffix(line, "/")
		if !strings.Contains(pattern, "/") {
			pattern = "**/" + pattern
		}
		patterns = append(patterns, pattern, pattern+"/**")
	}
	return patterns, nil
}
