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

// Package workspace enumerates the package.json-rooted workspaces of a
// project, from a single unmanaged package up through npm/yarn/pnpm style
// monorepos with arbitrary workspace glob patterns.
package workspace

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"bennypowers.dev/knipgo/fs"
	"bennypowers.dev/knipgo/packagejson"
)

// WorkspaceError reports that the root or a discovered workspace directory
// could not be read as a package.json-rooted workspace.
type WorkspaceError struct {
	Dir string
	Err error
}

func (e *WorkspaceError) Error() string {
	return fmt.Sprintf("workspace %s: %v", e.Dir, e.Err)
}

func (e *WorkspaceError) Unwrap() error {
	return e.Err
}

// Workspace is a single package.json-rooted directory within the project.
// An "integrated monorepo" (no workspaces field) is represented as exactly
// one Workspace whose Parent is nil.
type Workspace struct {
	// Dir is the absolute or fsys-rooted directory containing package.json.
	Dir string
	// Manifest is the parsed package.json of this workspace.
	Manifest *packagejson.PackageJSON
	// Parent is the workspace that declared this one via its workspaces
	// field, or nil for the root workspace.
	Parent *Workspace
}

// Name returns the workspace's package name, or its directory basename if
// the manifest has no name field.
func (w *Workspace) Name() string {
	if w.Manifest != nil && w.Manifest.Name != "" {
		return w.Manifest.Name
	}
	return filepath.Base(w.Dir)
}

// Ancestors returns the chain of workspaces from w's parent up to the root,
// nearest first. Used by the dependency attributor to walk up looking for
// the nearest manifest that declares a given package.
func (w *Workspace) Ancestors() []*Workspace {
	var chain []*Workspace
	for p := w.Parent; p != nil; p = p.Parent {
		chain = append(chain, p)
	}
	return chain
}

// Enumerate discovers every workspace rooted at rootDir. If the root
// package.json has no workspaces field, the result is a single-element
// slice containing only the root. Results are ordered deepest-first so
// that callers processing workspaces in order see children before the
// ancestors that declared them. cache memoizes parsed manifests by path
// so a later caller touching the same package.json (the Dependency
// Attributor's ancestor walk, the Binary Analyzer's node_modules scan)
// reuses this parse instead of re-reading the file; pass nil to parse
// uncached.
func Enumerate(fsys fs.FileSystem, rootDir string, cache *packagejson.MemoryCache) ([]*Workspace, error) {
	rootPkgPath := filepath.Join(rootDir, "package.json")
	rootPkg, err := parseManifest(fsys, cache, rootPkgPath)
	if err != nil {
		return nil, &WorkspaceError{Dir: rootDir, Err: err}
	}

	root := &Workspace{Dir: rootDir, Manifest: rootPkg}

	patterns := rootPkg.WorkspacePatterns()
	if len(patterns) == 0 {
		return []*Workspace{root}, nil
	}

	dirs, err := expandPatterns(fsys, rootDir, patterns)
	if err != nil {
		return nil, &WorkspaceError{Dir: rootDir, Err: err}
	}

	seen := make(map[string]bool)
	workspaces := []*Workspace{root}
	seen[rootDir] = true

	for _, dir := range dirs {
		if seen[dir] {
			continue
		}
		seen[dir] = true

		pkgPath := filepath.Join(dir, "package.json")
		pkg, err := parseManifest(fsys, cache, pkgPath)
		if err != nil {
			// A glob match without a package.json is not a workspace; skip
			// it rather than fail the whole enumeration.
			continue
		}

		workspaces = append(workspaces, &Workspace{
			Dir:      dir,
			Manifest: pkg,
			Parent:   root,
		})
	}

	sort.Slice(workspaces, func(i, j int) bool {
		return depth(workspaces[i].Dir) > depth(workspaces[j].Dir) ||
			(depth(workspaces[i].Dir) == depth(workspaces[j].Dir) && workspaces[i].Dir < workspaces[j].Dir)
	})

	return workspaces, nil
}

// parseManifest parses path through cache when one is given, so repeated
// lookups of the same package.json across the pipeline share one parse.
func parseManifest(fsys fs.FileSystem, cache *packagejson.MemoryCache, path string) (*packagejson.PackageJSON, error) {
	if cache == nil {
		return packagejson.ParseFile(fsys, path)
	}
	return cache.GetOrLoad(path, func() (*packagejson.PackageJSON, error) {
		return packagejson.ParseFile(fsys, path)
	})
}

// expandPatterns expands a set of workspace glob patterns (npm/yarn style,
// e.g. "packages/*", "apps/**", "!packages/excluded") into a deduplicated
// list of candidate directories. Negated patterns remove previously
// matched directories.
//
// Matching is done against directories collected by walking rootDir
// ourselves rather than via doublestar's fs.FS-based Glob: rootDir may be
// an absolute OS path or an in-memory mapfs root, and doublestar.Glob
// expects fs.FS-relative, non-absolute patterns. Walking once and matching
// relative paths with doublestar.Match sidesteps that mismatch entirely.
func expandPatterns(fsys fs.FileSystem, rootDir string, patterns []string) ([]string, error) {
	candidates, err := collectDirs(fsys, rootDir, maxWorkspaceDepth)
	if err != nil {
		return nil, err
	}

	include := make(map[string]bool)
	exclude := make(map[string]bool)

	for _, raw := range patterns {
		pattern := strings.TrimSuffix(raw, "/")
		negate := strings.HasPrefix(pattern, "!")
		if negate {
			pattern = strings.TrimPrefix(pattern, "!")
		}
		pattern = filepath.ToSlash(pattern)

		for _, rel := range candidates {
			matched, err := doublestar.Match(pattern, rel)
			if err != nil {
				return nil, fmt.Errorf("pattern %q: %w", raw, err)
			}
			if !matched {
				continue
			}
			dir := filepath.Join(rootDir, filepath.FromSlash(rel))
			if negate {
				exclude[dir] = true
			} else {
				include[dir] = true
			}
		}
	}

	var dirs []string
	for dir := range include {
		if !exclude[dir] {
			dirs = append(dirs, dir)
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// maxWorkspaceDepth bounds the directory walk used to enumerate workspace
// candidates; workspace globs in the wild never need to go deeper than
// this, and bounding it keeps a node_modules-free but otherwise unusual
// tree from causing an unbounded walk.
const maxWorkspaceDepth = 6

// collectDirs walks rootDir up to maxDepth levels, skipping node_modules
// and dotfiles, and returns every subdirectory as a slash-separated path
// relative to rootDir.
func collectDirs(fsys fs.FileSystem, rootDir string, maxDepth int) ([]string, error) {
	var dirs []string
	var walk func(dir, rel string, depth int) error
	walk = func(dir, rel string, depth int) error {
		if depth > maxDepth {
			return nil
		}
		entries, err := fsys.ReadDir(dir)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			name := entry.Name()
			if name == "node_modules" || strings.HasPrefix(name, ".") {
				continue
			}
			childRel := name
			if rel != "" {
				childRel = rel + "/" + name
			}
			dirs = append(dirs, childRel)
			if err := walk(filepath.Join(dir, name), childRel, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(rootDir, "", 0); err != nil {
		return nil, err
	}
	return dirs, nil
}

func depth(dir string) int {
	return strings.Count(filepath.ToSlash(dir), "/")
}
