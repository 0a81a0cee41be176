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
	"context"
	"path/filepath"

	"bennypowers.dev/knipgo/analyzer"
	"bennypowers.dev/knipgo/fs"
	"bennypowers.dev/knipgo/packagejson"
)

// libDeclarationExtensions mirrors resolveExtensions' ordering preference
// but only the subset a published package's type declarations use; a
// package almost never ships plain .ts alongside its .d.ts.
var libDeclarationExtensions = []string{".d.ts", ".ts"}

// IncludeLibs runs a second, opt-in traversal pass over the graph's
// already-discovered external references: for each node_modules package
// Build attributed an ExternalRef to, it resolves that package's type
// declaration entry point and seeds it into the same graph, so a
// library's exports participate in reachability analysis the way a
// workspace's own files do. Call after Build; safe to call at most once
// per external package, since Build's getOrCreateHandle only schedules a
// seed path it has not already discovered.
func (g *Graph) IncludeLibs(ctx context.Context, analyze Analyzer) error {
	refs := g.ExternalRefs()

	seen := make(map[string]bool, len(refs))
	var seeds []EntrySeed

	for _, ref := range refs {
		fromDir := filepath.Dir(ref.FromPath)
		pkgDir := g.resolver.findNodeModules(fromDir, ref.Package)
		if pkgDir == "" || seen[pkgDir] {
			continue
		}
		seen[pkgDir] = true

		entry := libDeclarationEntry(g.fsys, pkgDir)
		if entry == "" {
			continue
		}
		if _, ok := g.Lookup(entry); ok {
			continue
		}
		seeds = append(seeds, EntrySeed{Path: entry, Kind: analyzer.KindTypeScript})
	}

	if len(seeds) == 0 {
		return nil
	}

	return g.Build(ctx, seeds, analyze)
}

// libDeclarationEntry resolves pkgDir's type declaration entry point:
// package.json's "types" field if present, otherwise the conventional
// index.d.ts at the package root. Legacy "typings" is not consulted; by
// the time a package needs a second inspection pass here it is recent
// enough to use "types".
func libDeclarationEntry(fsys fs.FileSystem, pkgDir string) string {
	manifestPath := filepath.Join(pkgDir, "package.json")
	if pkg, err := packagejson.ParseFile(fsys, manifestPath); err == nil && pkg.Types != "" {
		candidate := filepath.Join(pkgDir, pkg.Types)
		if fsys.Exists(candidate) {
			return candidate
		}
	}

	for _, ext := range libDeclarationExtensions {
		candidate := filepath.Join(pkgDir, "index"+ext)
		if fsys.Exists(candidate) {
			return candidate
		}
	}
	return ""
}
