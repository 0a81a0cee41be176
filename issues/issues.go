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

// Package issues turns the module graph, dependency attribution, and
// binary resolution results into the six reportable issue categories:
// unused files, unused dependencies, unlisted dependencies, unused
// exports, unused class/enum members, and unlisted binaries.
package issues

import "sort"

// Item is a single reportable finding. Which fields are meaningful
// depends on which Report slice it lives in: file issues set Path,
// dependency/binary issues set Symbol, export/member issues set Path and
// Symbol (and Owner, MemberKind for class/enum members).
type Item struct {
	Workspace  string
	Path       string
	Symbol     string
	Owner      string // enclosing class/enum name, for UnusedMembers only
	MemberKind string // "class" or "enum", for UnusedMembers only
	Line       int
}

// Report holds the six issue categories, each sorted by
// (Workspace, Path, Symbol) for deterministic output.
type Report struct {
	UnusedFiles           []Item
	UnusedDependencies    []Item
	UnlistedDependencies  []Item
	UnusedExports         []Item
	UnusedMembers         []Item
	UnlistedBinaries      []Item
}

// Kind identifies one of the CLI-filterable issue categories.
// classMembers and enumMembers both project from Report.UnusedMembers.
type Kind string

const (
	KindFiles                Kind = "files"
	KindDependencies         Kind = "dependencies"
	KindUnlistedDependencies Kind = "unlisted-dependencies"
	KindExports              Kind = "exports"
	KindClassMembers         Kind = "classMembers"
	KindEnumMembers          Kind = "enumMembers"
	KindBinaries             Kind = "binaries"
)

func sortItems(items []Item) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Workspace != items[j].Workspace {
			return items[i].Workspace < items[j].Workspace
		}
		if items[i].Path != items[j].Path {
			return items[i].Path < items[j].Path
		}
		return items[i].Symbol < items[j].Symbol
	})
}

func containsKind(kinds []Kind, k Kind) bool {
	for _, candidate := range kinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// Filter implements the CLI's --include/--exclude projection: include,
// when non-empty, selects only the named kinds; otherwise exclude drops
// the named kinds from an otherwise-full report.
func Filter(r Report, include, exclude []Kind) Report {
	want := func(k Kind) bool {
		if len(include) > 0 {
			return containsKind(include, k)
		}
		return !containsKind(exclude, k)
	}

	var out Report
	if want(KindFiles) {
		out.UnusedFiles = r.UnusedFiles
	}
	if want(KindDependencies) {
		out.UnusedDependencies = r.UnusedDependencies
	}
	if want(KindUnlistedDependencies) {
		out.UnlistedDependencies = r.UnlistedDependencies
	}
	if want(KindExports) {
		out.UnusedExports = r.UnusedExports
	}
	if want(KindBinaries) {
		out.UnlistedBinaries = r.UnlistedBinaries
	}

	for _, item := range r.UnusedMembers {
		kind := KindEnumMembers
		if item.MemberKind == "class" {
			kind = KindClassMembers
		}
		if want(kind) {
			out.UnusedMembers = append(out.UnusedMembers, item)
		}
	}

	return out
}

// ExitCode returns 0 when every category in r is empty, 1 otherwise --
// the CLI's process exit code after filtering.
func ExitCode(r Report) int {
	if len(r.UnusedFiles) == 0 &&
		len(r.UnusedDependencies) == 0 &&
		len(r.UnlistedDependencies) == 0 &&
		len(r.UnusedExports) == 0 &&
		len(r.UnusedMembers) == 0 &&
		len(r.UnlistedBinaries) == 0 {
		return 0
	}
	return 1
}
