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

package modgraph

import (
	"path/filepath"
	"strings"

	"bennypowers.dev/knipgo/fs"
	"bennypowers.dev/knipgo/workspace"
)

// resolveExtensions is tried, in order, against an extensionless
// specifier before the builder gives up on it as a direct file.
var resolveExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs", ".d.ts"}

// resolutionKind classifies what Resolve found.
type resolutionKind int

const (
	resolvedNone resolutionKind = iota
	resolvedFile
	resolvedExternal
)

type resolution struct {
	Kind        resolutionKind
	Path        string // only set for resolvedFile
	PackageName string // only set for resolvedExternal
}

// resolver implements the five-step, deterministic module resolution
// order: relative path, tsconfig path alias, workspace package export,
// upward node_modules walk, unresolved.
type resolver struct {
	fsys       fs.FileSystem
	workspaces []*workspace.Workspace
	byName     map[string]*workspace.Workspace
	tsconfigs  *tsconfigCache
}

func newResolver(fsys fs.FileSystem, workspaces []*workspace.Workspace) *resolver {
	byName := make(map[string]*workspace.Workspace, len(workspaces))
	for _, ws := range workspaces {
		byName[ws.Name()] = ws
	}
	return &resolver{
		fsys:       fsys,
		workspaces: workspaces,
		byName:     byName,
		tsconfigs:  newTSConfigCache(fsys),
	}
}

// resolve resolves specifier as imported from a file in fromDir.
func (r *resolver) resolve(fromDir, specifier string) resolution {
	if strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../") {
		if path, ok := r.probe(filepath.Join(fromDir, specifier)); ok {
			return resolution{Kind: resolvedFile, Path: path}
		}
	}

	if cfg, cfgDir := r.tsconfigs.nearest(fromDir); cfg != nil {
		for _, candidate := range resolveAlias(cfg, cfgDir, specifier) {
			if path, ok := r.probe(candidate); ok {
				return resolution{Kind: resolvedFile, Path: path}
			}
		}
	}

	if pkgName, subpath, ok := splitPackageSpecifier(specifier); ok {
		if ws, found := r.byName[pkgName]; found {
			target, err := ws.Manifest.ResolveExport(subpath, nil)
			if err == nil {
				if path, ok := r.probe(filepath.Join(ws.Dir, target)); ok {
					return resolution{Kind: resolvedFile, Path: path}
				}
			}
		}

		if dir := r.findNodeModules(fromDir, pkgName); dir != "" {
			return resolution{Kind: resolvedExternal, PackageName: pkgName}
		}
	}

	return resolution{Kind: resolvedNone}
}

// probe tries path as-is, then with each of resolveExtensions appended,
// then (treating path as a directory) "index" with each extension.
func (r *resolver) probe(path string) (string, bool) {
	if hasKnownSourceExt(path) && r.fsys.Exists(path) {
		return path, true
	}
	for _, ext := range resolveExtensions {
		candidate := path + ext
		if r.fsys.Exists(candidate) {
			return candidate, true
		}
	}
	for _, ext := range resolveExtensions {
		candidate := filepath.Join(path, "index"+ext)
		if r.fsys.Exists(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func hasKnownSourceExt(path string) bool {
	for _, ext := range resolveExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return strings.HasSuffix(path, ".html") || strings.HasSuffix(path, ".htm")
}

// findNodeModules walks upward from fromDir looking for
// node_modules/<pkgName>, the node-style resolution walk. It never
// descends into what it finds: the caller attributes the specifier as
// external and does not schedule pkgName's files for analysis.
func (r *resolver) findNodeModules(fromDir, pkgName string) string {
	dir := fromDir
	for {
		candidate := filepath.Join(dir, "node_modules", pkgName)
		if r.fsys.Exists(candidate) {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// splitPackageSpecifier splits a bare specifier into a package name and
// subpath ("." for the package root), recognizing scoped (@scope/name)
// packages. Returns ok=false for relative/absolute specifiers.
func splitPackageSpecifier(specifier string) (pkgName, subpath string, ok bool) {
	if specifier == "" || strings.HasPrefix(specifier, ".") || strings.HasPrefix(specifier, "/") {
		return "", "", false
	}
	if strings.Contains(specifier, "://") {
		return "", "", false
	}

	parts := strings.SplitN(specifier, "/", 2)
	if strings.HasPrefix(specifier, "@") {
		scopedParts := strings.SplitN(specifier, "/", 3)
		if len(scopedParts) < 2 {
			return "", "", false
		}
		pkgName = scopedParts[0] + "/" + scopedParts[1]
		if len(scopedParts) == 3 {
			subpath = "./" + scopedParts[2]
		} else {
			subpath = "."
		}
		return pkgName, subpath, true
	}

	pkgName = parts[0]
	if len(parts) == 2 {
		subpath = "./" + parts[1]
	} else {
		subpath = "."
	}
	return pkgName, subpath, true
}
