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

// Package analyzer is the concrete implementation of the external
// syntactic analyzer the module graph builder treats as a black box: given
// a source file, it returns the imports it consumes, the exports (and
// enum/class members) it produces, and any script references it embeds.
//
// TypeScript/TSX source is parsed with tree-sitter; a small "statements"
// query (see queries/typescript/statements.scm) locates the top-level
// import, export, dynamic-import, class, enum, and comment nodes, and the
// rest of the structure -- named vs. default vs. namespace imports,
// re-export targets, class/enum members, JSDoc tags -- is pulled out by
// walking each matched node's own children directly, the way
// other_examples' AleutianLocal ast package favors direct node traversal
// over encoding that shape in the query language itself.
package analyzer

import "strings"

// Kind selects which grammar/extraction path Analyze uses for a file.
type Kind int

const (
	// KindTypeScript covers .ts, .tsx, .js, .jsx, .mjs, .cjs source --
	// tree-sitter-typescript parses a superset of all of these.
	KindTypeScript Kind = iota
	// KindHTML covers files analyzed for embedded <script> references
	// (e.g. a static-site or web-test-runner HTML entry file).
	KindHTML
	// KindOpaque is returned by DetectKind for extensions the analyzer has
	// no grammar for (.astro, .mdx, .vue, .svelte, ...). Such files are
	// leaves unless a modgraph.Compiler is configured to pre-transform
	// them into analyzable source.
	KindOpaque
)

// DetectKind chooses a Kind from a file's extension.
func DetectKind(path string) Kind {
	switch {
	case hasAnySuffix(path, ".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs", ".mts", ".cts", ".d.ts"):
		return KindTypeScript
	case hasAnySuffix(path, ".html", ".htm"):
		return KindHTML
	default:
		return KindOpaque
	}
}

func hasAnySuffix(s string, suffixes ...string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}

// ImportedName is one binding pulled in by a named or default import, or
// an export_specifier forwarded by a re-export.
type ImportedName struct {
	// External is the name as it exists on the imported module: "default"
	// for a default import, the specifier's own name otherwise.
	External string
	// Local is the binding name used in the importing file (the alias, or
	// External itself if unaliased).
	Local string
}

// Import is a single import (or re-export, which the grammar treats as an
// import from the graph builder's point of view) discovered in a file.
type Import struct {
	// Specifier is the module specifier exactly as written.
	Specifier string
	// Names is the set of named/default bindings pulled from Specifier.
	// Empty when Namespace or SideEffect is set.
	Names []ImportedName
	// Namespace is true for `import * as ns from "spec"`; every export of
	// the target is considered referenced.
	Namespace bool
	// SideEffect is true for a bare `import "spec"` with no bindings.
	SideEffect bool
	// IsTypeOnly is true for `import type { ... }`.
	IsTypeOnly bool
	// IsDynamic is true for a string-literal `import("spec")` call.
	IsDynamic bool
	// Line is the 1-indexed source line of the import/re-export statement.
	Line int
}

// ExportKind classifies what kind of binding an Export describes.
type ExportKind int

const (
	ExportValue ExportKind = iota
	ExportType
	ExportDefault
	ExportEnumMember
	ExportClassMember
	ExportNamespaceReexport
)

func (k ExportKind) String() string {
	switch k {
	case ExportValue:
		return "value"
	case ExportType:
		return "type"
	case ExportDefault:
		return "default"
	case ExportEnumMember:
		return "enum-member"
	case ExportClassMember:
		return "class-member"
	case ExportNamespaceReexport:
		return "namespace-reexport"
	default:
		return "unknown"
	}
}

// Export is a single binding a file produces: a top-level export, or an
// enum/class member reachable from one.
type Export struct {
	// LocalName is the name as declared in the file. For an enum or class
	// member this is "Owner.member".
	LocalName string
	// ExternalName is the name consumers import it by ("default" for a
	// default export, "*" for `export * from`, the member name itself for
	// enum/class members).
	ExternalName string
	// Owner is the enclosing enum/class name for member exports; empty for
	// top-level exports.
	Owner string
	Kind  ExportKind
	Line  int
	// Tags holds JSDoc tags (without the leading "@") attached to the
	// export by source-position adjacency: "public", "internal".
	Tags []string
	// ReexportFrom is non-empty when this export is forwarded from
	// another module specifier (`export { x } from "y"` or
	// `export * from "y"`), carrying that specifier.
	ReexportFrom string
}

// HasTag reports whether the export carries the named JSDoc tag.
func (e Export) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Result is everything Analyze extracts from one file.
type Result struct {
	Imports    []Import
	Exports    []Export
	ScriptRefs []string
}

// Analyze parses src according to kind and extracts its imports, exports,
// and script references. path is used only for error messages.
func Analyze(path string, src []byte, kind Kind) (Result, error) {
	switch kind {
	case KindTypeScript:
		return analyzeTypeScript(path, src)
	case KindHTML:
		refs, err := extractScriptRefs(src)
		if err != nil {
			return Result{}, err
		}
		return Result{ScriptRefs: refs}, nil
	default:
		return Result{}, nil
	}
}
