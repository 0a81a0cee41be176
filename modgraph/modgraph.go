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

// Package modgraph builds the project's module graph by following import
// and re-export edges outward from a set of entry files, the way
// resolve.DependencyGraph tracks package-level edges and trace.Tracer
// walks module-level ones -- rearchitected here to an arena of
// integer-handle Module records so the graph can be built and queried
// concurrently without pointer aliasing.
package modgraph

import (
	"sync/atomic"

	"bennypowers.dev/knipgo/analyzer"
)

// ModuleHandle addresses a Module in a Graph's arena. The zero value is
// never a valid handle; handles are assigned in discovery order starting
// at 1.
type ModuleHandle int

// invalidHandle marks an edge whose target could not be resolved.
const invalidHandle ModuleHandle = 0

// Module is one file discovered while building the graph.
type Module struct {
	Path       string
	Kind       analyzer.Kind
	IsEntry    bool
	Reachable  bool
	ParseError error

	Imports []analyzer.Import
	Exports []ExportRecord

	// ImportEdges are the resolved targets of this module's own imports,
	// one per Imports entry in the same order; invalidHandle marks an
	// import this build could not resolve to a file.
	ImportEdges []ModuleHandle
}

// ExportRecord wraps an analyzer.Export with the mutable reference count
// the Issue Classifier reads to decide whether it was ever imported.
type ExportRecord struct {
	analyzer.Export
	// RefCount counts distinct (referrer handle, imported name) edges.
	// Build computes it once its parallel discovery phase has settled;
	// callers must not decrement it. A second Build call
	// (IncludeLibs's library pass) recomputes every count from scratch
	// against the full, now-larger arena rather than adding to the
	// first call's totals.
	RefCount atomic.Int64
	// Referrers lists the handle of every module whose import credited
	// this export, one entry per crediting module (a module importing the
	// same name twice appears once). The Issue Classifier uses this to
	// implement ignoreExportsUsedInFile: an export whose only referrer is
	// its own owning module was never used from outside the file.
	Referrers []ModuleHandle
}

// EntrySeed is one starting point for the graph walk: either a file the
// Project-File Collector or Plugin Host marked as an entry, or a
// library's type declaration entry seeded by IncludeLibs.
type EntrySeed struct {
	Path string
	Kind analyzer.Kind
}

// Analyzer is the black-box syntactic analyzer the builder calls for
// every discovered file. analyzer.Analyze satisfies this signature.
type Analyzer func(path string, src []byte, kind analyzer.Kind) (analyzer.Result, error)

// Compiler pre-transforms source in a non-standard extension (.astro,
// .mdx, .vue, .svelte, ...) into analyzable pseudo-source before the
// Analyzer sees it. Build treats a file with no registered Compiler for
// its extension as an analysis-opaque leaf: reachable, but contributing
// no outgoing edges.
type Compiler interface {
	Compile(path string, src []byte) ([]byte, error)
}
