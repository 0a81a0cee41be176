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

package issues

import (
	"path/filepath"
	"strings"

	"bennypowers.dev/knipgo/analyzer"
	"bennypowers.dev/knipgo/binary"
	"bennypowers.dev/knipgo/config"
	"bennypowers.dev/knipgo/dependency"
	"bennypowers.dev/knipgo/modgraph"
	"bennypowers.dev/knipgo/workspace"
)

// WorkspaceInput bundles one workspace's project/entry file sets with its
// effective (post config.Config.ForWorkspace) configuration.
type WorkspaceInput struct {
	Workspace *workspace.Workspace
	Config    *config.Config
	Project   map[string]bool
	Entries   map[string]bool
}

// Options toggles the member-usage categories, whose default inclusion
// differs per spec: enum members are reported unless explicitly
// excluded, class members are reported only when explicitly included.
type Options struct {
	IncludeClassMembers bool
}

// Input is everything Classify needs: the built module graph, every
// workspace's file sets and config, the attributed dependency references,
// and the binary resolutions keyed by the workspace directory whose
// manifest the scanned script came from.
type Input struct {
	Graph              *modgraph.Graph
	Workspaces         []WorkspaceInput
	DependencyRefs     []dependency.Attributed
	PluginDependencies map[string]map[string]bool // workspace.Dir -> package names plugins contributed
	BinaryResolutions  map[string][]binary.Resolution
}

// Classify computes the six issue categories from in. Every filter
// (entry-export skipping, @public/@internal tags, ignoreExportsUsedInFile,
// ignoreDependencies/ignoreBinaries) is applied as an independent
// predicate rather than nested conditionals.
func Classify(in Input, opts Options) Report {
	var r Report

	byDir := make(map[string]WorkspaceInput, len(in.Workspaces))
	for _, wi := range in.Workspaces {
		byDir[wi.Workspace.Dir] = wi
	}

	r.UnusedFiles = classifyUnusedFiles(in)
	r.UnusedDependencies = classifyUnusedDependencies(in)
	r.UnlistedDependencies = classifyUnlistedDependencies(in, byDir)
	r.UnusedExports, r.UnusedMembers = classifyExportsAndMembers(in, opts)
	r.UnlistedBinaries = classifyUnlistedBinaries(in, byDir)

	sortItems(r.UnusedFiles)
	sortItems(r.UnusedDependencies)
	sortItems(r.UnlistedDependencies)
	sortItems(r.UnusedExports)
	sortItems(r.UnusedMembers)
	sortItems(r.UnlistedBinaries)

	return r
}

func classifyUnusedFiles(in Input) []Item {
	var out []Item
	for _, wi := range in.Workspaces {
		for path := range wi.Project {
			if wi.Entries[path] {
				continue
			}
			if isReachable(in.Graph, path) {
				continue
			}
			rel := relPath(wi.Workspace.Dir, path)
			if matchesAnyIgnore(rel, wi.Config.Ignore) {
				continue
			}
			out = append(out, Item{Workspace: wi.Workspace.Name(), Path: rel})
		}
	}
	return out
}

func isReachable(g *modgraph.Graph, path string) bool {
	h, ok := g.Lookup(path)
	if !ok {
		return false
	}
	mod := g.Module(h)
	return mod != nil && mod.Reachable
}

func matchesAnyIgnore(rel string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, rel); ok {
			return true
		}
		if strings.HasPrefix(rel, strings.TrimSuffix(p, "/")+"/") {
			return true
		}
	}
	return false
}

func classifyUnusedDependencies(in Input) []Item {
	var out []Item
	for _, wi := range in.Workspaces {
		referenced := make(map[string]bool)
		for _, att := range in.DependencyRefs {
			if att.Status != dependency.Listed || att.Owner != wi.Workspace {
				continue
			}
			referenced[att.Package] = true
			if dependency.IsTypesPackage(att.Package) {
				referenced[dependency.UntypedName(att.Package)] = true
			}
		}
		plugins := in.PluginDependencies[wi.Workspace.Dir]

		for _, name := range declaredDependencyNames(wi.Workspace) {
			if referenced[name] || plugins[name] {
				continue
			}
			if wi.Config.IgnoresDependency(name) {
				continue
			}
			out = append(out, Item{Workspace: wi.Workspace.Name(), Symbol: name})
		}
	}
	return out
}

func declaredDependencyNames(ws *workspace.Workspace) []string {
	if ws.Manifest == nil {
		return nil
	}
	seen := make(map[string]bool)
	for _, m := range []map[string]string{
		ws.Manifest.Dependencies,
		ws.Manifest.DevDependencies,
		ws.Manifest.PeerDependencies,
		ws.Manifest.OptionalDependencies,
	} {
		for name := range m {
			seen[name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	return names
}

func classifyUnlistedDependencies(in Input, byDir map[string]WorkspaceInput) []Item {
	var out []Item
	for _, att := range in.DependencyRefs {
		if att.Status != dependency.Unlisted {
			continue
		}
		wi, ok := byDir[att.ImportingWorkspace.Dir]
		if ok && wi.Config.IgnoresDependency(att.Package) {
			continue
		}
		out = append(out, Item{Workspace: att.ImportingWorkspace.Name(), Symbol: att.Package})
	}
	return out
}

func classifyExportsAndMembers(in Input, opts Options) (exports, members []Item) {
	for _, mod := range in.Graph.Modules() {
		wi := findOwningWorkspace(in.Workspaces, mod.Path)
		if wi == nil {
			continue
		}
		handle, _ := in.Graph.Lookup(mod.Path)

		for i := range mod.Exports {
			exp := &mod.Exports[i]
			if usedExternally(exp, handle, wi.Config) {
				continue
			}
			if mod.IsEntry && !wi.Config.IncludeEntryExports {
				continue
			}
			if exp.HasTag("public") || exp.HasTag("internal") {
				continue
			}

			rel := relPath(wi.Workspace.Dir, mod.Path)
			item := Item{Workspace: wi.Workspace.Name(), Path: rel, Symbol: exp.ExternalName, Line: exp.Line}

			switch exp.Kind {
			case analyzer.ExportClassMember:
				if !opts.IncludeClassMembers {
					continue
				}
				item.Owner = exp.Owner
				item.MemberKind = "class"
				members = append(members, item)
			case analyzer.ExportEnumMember:
				item.Owner = exp.Owner
				item.MemberKind = "enum"
				members = append(members, item)
			default:
				exports = append(exports, item)
			}
		}
	}
	return exports, members
}

// usedExternally reports whether exp has a reference from outside its
// own owning module. A same-file-only reference counts as "used" unless
// ignoreExportsUsedInFile is configured for the export's kind, in which
// case it is treated as unused (the self-reference doesn't count).
func usedExternally(exp *modgraph.ExportRecord, owner modgraph.ModuleHandle, cfg *config.Config) bool {
	if exp.RefCount.Load() == 0 {
		return false
	}
	if !selfReferencedOnly(exp.Referrers, owner) {
		return true
	}
	if cfg == nil {
		return true
	}
	kind := exp.Kind.String()
	switch exp.Kind {
	case analyzer.ExportEnumMember:
		kind = "enum"
	case analyzer.ExportClassMember:
		kind = "class"
	}
	return !cfg.IgnoreExportsUsedInFile.For(kind)
}

func selfReferencedOnly(referrers []modgraph.ModuleHandle, self modgraph.ModuleHandle) bool {
	if len(referrers) == 0 {
		return false
	}
	for _, h := range referrers {
		if h != self {
			return false
		}
	}
	return true
}

func findOwningWorkspace(workspaces []WorkspaceInput, path string) *WorkspaceInput {
	var best *WorkspaceInput
	bestLen := -1
	for i := range workspaces {
		dir := workspaces[i].Workspace.Dir
		if dir != path && !strings.HasPrefix(path, dir+string(filepath.Separator)) {
			continue
		}
		if len(dir) > bestLen {
			bestLen = len(dir)
			best = &workspaces[i]
		}
	}
	return best
}

func classifyUnlistedBinaries(in Input, byDir map[string]WorkspaceInput) []Item {
	var out []Item
	for dir, resolutions := range in.BinaryResolutions {
		wi, ok := byDir[dir]
		if !ok {
			continue
		}
		for _, res := range resolutions {
			if res.Status != binary.Unlisted {
				continue
			}
			if wi.Config.IgnoresBinary(res.Invocation.Binary) {
				continue
			}
			out = append(out, Item{Workspace: wi.Workspace.Name(), Symbol: res.Invocation.Binary})
		}
	}
	return out
}

func relPath(dir, path string) string {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
