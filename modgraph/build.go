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
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"bennypowers.dev/knipgo/analyzer"
	"bennypowers.dev/knipgo/diagnostics"
	"bennypowers.dev/knipgo/fs"
	"bennypowers.dev/knipgo/workspace"
)

// Graph is the built module graph: an arena of Modules addressed by
// ModuleHandle, discovered by following import/export/script-ref edges
// outward from a set of entry seeds.
type Graph struct {
	mu     sync.RWMutex
	byPath map[string]ModuleHandle
	arena  []*Module

	fsys         fs.FileSystem
	resolver     *resolver
	diagnostics  *diagnostics.Collector
	compilers    map[string]Compiler
	externalRefs []ExternalRef
}

// ExternalRef is one bare-specifier import the resolver attributed to an
// installed package rather than a ProjectFile. The Dependency Attributor
// consumes these to classify unused/unlisted dependencies; the graph
// itself never follows into node_modules.
type ExternalRef struct {
	FromPath string
	Package  string
}

// ExternalRefs returns every external package reference discovered while
// building the graph, in discovery order.
func (g *Graph) ExternalRefs() []ExternalRef {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]ExternalRef, len(g.externalRefs))
	copy(out, g.externalRefs)
	return out
}

// NewGraph returns an empty Graph ready for Build. workspaces is used by
// the resolver's workspace-package-export resolution step; diag receives
// every non-fatal resolution/parse warning Build encounters.
func NewGraph(fsys fs.FileSystem, workspaces []*workspace.Workspace, diag *diagnostics.Collector) *Graph {
	return &Graph{
		byPath:      make(map[string]ModuleHandle),
		fsys:        fsys,
		resolver:    newResolver(fsys, workspaces),
		diagnostics: diag,
		compilers:   make(map[string]Compiler),
	}
}

// RegisterCompiler wires a Compiler for files with the given extension
// (including the leading dot, e.g. ".astro"). Without one, files of that
// extension are treated as analysis-opaque leaves.
func (g *Graph) RegisterCompiler(ext string, c Compiler) {
	g.compilers[ext] = c
}

// Module returns the Module stored at h, or nil if h is not a handle this
// Graph produced.
func (g *Graph) Module(h ModuleHandle) *Module {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if h <= 0 || int(h) > len(g.arena) {
		return nil
	}
	return g.arena[h-1]
}

// Lookup returns the handle for an already-discovered path.
func (g *Graph) Lookup(path string) (ModuleHandle, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	h, ok := g.byPath[path]
	return h, ok
}

// Modules returns every module discovered by Build, in discovery order.
func (g *Graph) Modules() []*Module {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Module, len(g.arena))
	copy(out, g.arena)
	return out
}

// getOrCreateHandle returns the existing handle for path, or allocates a
// new arena slot. Exactly one caller's isEntry=true marking wins if the
// path is seeded as an entry after having already been discovered as a
// dependency -- the Module simply gets IsEntry set true, never two
// records for one path ("owner-wins insertion" on first discovery).
func (g *Graph) getOrCreateHandle(path string, kind analyzer.Kind, isEntry bool) (ModuleHandle, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if h, ok := g.byPath[path]; ok {
		if isEntry {
			g.arena[h-1].IsEntry = true
		}
		return h, false
	}

	g.arena = append(g.arena, &Module{Path: path, Kind: kind, IsEntry: isEntry})
	h := ModuleHandle(len(g.arena))
	g.byPath[path] = h
	return h, true
}

// Build discovers the full module graph reachable from entries. It
// parallelizes the BFS-style walk with a bounded errgroup: each newly
// discovered module is analyzed by its own goroutine, which in turn
// schedules its own unvisited dependencies. Parse and resolution
// failures are recorded as non-fatal diagnostics; only a canceled
// context aborts Build early.
func (g *Graph) Build(ctx context.Context, entries []EntrySeed, analyze Analyzer) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(max(1, runtime.NumCPU()))

	for _, seed := range entries {
		handle, created := g.getOrCreateHandle(seed.Path, seed.Kind, true)
		if created {
			eg.Go(func() error { return g.process(ctx, eg, handle, analyze) })
		}
	}

	if err := eg.Wait(); err != nil {
		return err
	}

	g.computeRefCounts()
	return nil
}

// process reads, analyzes, and resolves the edges of one module. It
// never returns a non-nil error for ordinary parse/resolution failures;
// those go to g.diagnostics so one bad file does not abort the whole
// build.
func (g *Graph) process(ctx context.Context, eg *errgroup.Group, handle ModuleHandle, analyze Analyzer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	mod := g.Module(handle)
	data, err := g.fsys.ReadFile(mod.Path)
	if err != nil {
		g.diagnostics.Resolution(mod.Path, "", err.Error())
		mod.Reachable = true
		return nil
	}

	kind := mod.Kind
	if kind == analyzer.KindOpaque {
		ext := filepath.Ext(mod.Path)
		compiler, ok := g.compilers[ext]
		if !ok {
			mod.Reachable = true
			return nil
		}
		compiled, err := compiler.Compile(mod.Path, data)
		if err != nil {
			g.diagnostics.Parse(mod.Path, err.Error())
			mod.Reachable = true
			return nil
		}
		data = compiled
		kind = analyzer.KindTypeScript
	}

	result, err := analyze(mod.Path, data, kind)
	if err != nil {
		g.diagnostics.Parse(mod.Path, err.Error())
		mod.Reachable = true
		return nil
	}

	mod.Reachable = true
	mod.Imports = result.Imports
	mod.Exports = make([]ExportRecord, len(result.Exports))
	for i, exp := range result.Exports {
		mod.Exports[i] = ExportRecord{Export: exp}
	}
	mod.ImportEdges = make([]ModuleHandle, len(result.Imports))

	fromDir := filepath.Dir(mod.Path)
	for i, imp := range result.Imports {
		target := g.resolveEdge(ctx, eg, mod.Path, fromDir, imp.Specifier, analyze)
		mod.ImportEdges[i] = target
		if target == invalidHandle {
			g.diagnostics.Resolution(mod.Path, imp.Specifier, "could not resolve specifier")
		}
	}

	for _, ref := range result.ScriptRefs {
		if target := g.resolveEdge(ctx, eg, mod.Path, fromDir, ref, analyze); target == invalidHandle {
			g.diagnostics.Resolution(mod.Path, ref, "could not resolve script reference")
		}
	}

	return nil
}

// resolveEdge resolves specifier from fromDir and, for a newly discovered
// file target, schedules it for processing. External (node_modules)
// targets resolve successfully but are never scheduled into the graph:
// they are recorded as an ExternalRef against fromPath, the module that
// imported them, for the Dependency Attributor to consume instead.
func (g *Graph) resolveEdge(ctx context.Context, eg *errgroup.Group, fromPath, fromDir, specifier string, analyze Analyzer) ModuleHandle {
	res := g.resolver.resolve(fromDir, specifier)
	switch res.Kind {
	case resolvedFile:
		handle, created := g.getOrCreateHandle(res.Path, analyzer.DetectKind(res.Path), false)
		if created {
			eg.Go(func() error { return g.process(ctx, eg, handle, analyze) })
		}
		return handle
	case resolvedExternal:
		g.mu.Lock()
		g.externalRefs = append(g.externalRefs, ExternalRef{FromPath: fromPath, Package: res.PackageName})
		g.mu.Unlock()
		return invalidHandle
	default:
		return invalidHandle
	}
}

// computeRefCounts runs once, after Build's parallel phase has settled,
// crediting every import edge to the exports it names on its target
// module. Running it single-threaded after the fact (rather than as
// each edge is discovered) avoids racing against a target module whose
// own Exports slice may not be populated yet at discovery time.
func (g *Graph) computeRefCounts() {
	g.mu.RLock()
	modules := g.arena
	g.mu.RUnlock()

	// Recomputed from scratch every call (reset first) rather than
	// incremented on top of a prior call's totals: IncludeLibs invokes
	// Build a second time over the same arena, and RefCount/Referrers
	// would otherwise double-count edges credited by the first pass.
	for _, mod := range modules {
		for i := range mod.Exports {
			mod.Exports[i].RefCount.Store(0)
			mod.Exports[i].Referrers = nil
		}
	}

	for idx, mod := range modules {
		referrer := ModuleHandle(idx + 1)
		for i, imp := range mod.Imports {
			if i >= len(mod.ImportEdges) {
				break
			}
			target := g.Module(mod.ImportEdges[i])
			if target == nil {
				continue
			}
			creditImport(target, referrer, imp)
		}
	}
}

func creditImport(target *Module, referrer ModuleHandle, imp analyzer.Import) {
	if imp.SideEffect {
		return
	}
	credit := func(exp *ExportRecord) {
		for _, r := range exp.Referrers {
			if r == referrer {
				return
			}
		}
		exp.RefCount.Add(1)
		exp.Referrers = append(exp.Referrers, referrer)
	}
	if imp.Namespace {
		for i := range target.Exports {
			credit(&target.Exports[i])
		}
		return
	}
	for _, name := range imp.Names {
		for i := range target.Exports {
			if target.Exports[i].ExternalName == name.External {
				credit(&target.Exports[i])
			}
		}
	}
}
