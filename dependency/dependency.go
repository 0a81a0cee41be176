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

// Package dependency attributes package references discovered by the
// module graph builder to the manifest that should have declared them,
// walking the full workspace ancestry chain rather than checking a
// single manifest in isolation.
package dependency

import (
	"strings"

	"bennypowers.dev/knipgo/workspace"
)

// RefKind classifies where a Ref came from.
type RefKind int

const (
	// ImportRef is a reference discovered by the module graph builder
	// resolving a bare specifier to node_modules.
	ImportRef RefKind = iota
	// ScriptRef is a reference discovered by the binary analyzer scanning
	// a package.json script.
	ScriptRef
)

// Ref is a single observed use of a package name, attributed to the
// workspace whose source file (or script) referenced it.
type Ref struct {
	Package            string
	ImportingWorkspace *workspace.Workspace
	Kind               RefKind
}

// Status classifies the outcome of attributing a Ref against the
// importing workspace's ancestry chain.
type Status int

const (
	// Listed means some manifest in the ancestry chain (including the
	// importing workspace itself) declares the package, under any
	// dependency kind.
	Listed Status = iota
	// Unlisted means no manifest in the chain declares it: the
	// referencing workspace imports a package it never added to its own
	// (or an ancestor's) package.json.
	Unlisted
)

// Attributed is the result of attributing one Ref.
type Attributed struct {
	Ref
	Status Status
	// Owner is the workspace whose manifest declares Package, set only
	// when Status is Listed.
	Owner *workspace.Workspace
}

// typesPrefix is the npm convention for a package's ambient type
// declarations.
const typesPrefix = "@types/"

// IsTypesPackage reports whether name is a @types/ scoped package.
func IsTypesPackage(name string) bool {
	return strings.HasPrefix(name, typesPrefix)
}

// UntypedName returns the runtime package name a @types/ package
// provides declarations for ("@types/react" -> "react"), or name
// unchanged if it is not a @types/ package.
func UntypedName(name string) string {
	return strings.TrimPrefix(name, typesPrefix)
}

// declares reports whether ws's own manifest lists pkg under any
// dependency kind.
func declares(ws *workspace.Workspace, pkg string) bool {
	m := ws.Manifest
	if m == nil {
		return false
	}
	if _, ok := m.Dependencies[pkg]; ok {
		return true
	}
	if _, ok := m.DevDependencies[pkg]; ok {
		return true
	}
	if _, ok := m.PeerDependencies[pkg]; ok {
		return true
	}
	if _, ok := m.OptionalDependencies[pkg]; ok {
		return true
	}
	return false
}

// Attribute resolves every Ref to the nearest ancestor workspace (self
// included) that declares Package, or Unlisted if none does. @types/X
// references are satisfied by either @types/X itself or a declaration of
// X: a project that imports X and separately declares @types/X for it
// should not also be required to import "@types/X" by name.
func Attribute(refs []Ref) []Attributed {
	out := make([]Attributed, 0, len(refs))
	for _, ref := range refs {
		out = append(out, attributeOne(ref))
	}
	return out
}

func attributeOne(ref Ref) Attributed {
	candidates := []string{ref.Package}
	if IsTypesPackage(ref.Package) {
		candidates = append(candidates, UntypedName(ref.Package))
	}

	chain := append([]*workspace.Workspace{ref.ImportingWorkspace}, ref.ImportingWorkspace.Ancestors()...)
	for _, ws := range chain {
		for _, name := range candidates {
			if declares(ws, name) {
				return Attributed{Ref: ref, Status: Listed, Owner: ws}
			}
		}
	}

	return Attributed{Ref: ref, Status: Unlisted}
}
