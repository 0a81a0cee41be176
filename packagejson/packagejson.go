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
// Package packagejson provides parsing, export resolution, and
// dependency/script introspection for package.json manifests.
package packagejson

import (
	"encoding/json"
	"errors"
	"strings"

	"bennypowers.dev/knipgo/fs"
)

// workspacesObjectFormat represents the object format for the workspaces field.
// Used by yarn classic with nohoist: {"packages": [...], "nohoist": [...]}
type workspacesObjectFormat struct {
	Packages []string `json:"packages"`
}

// ErrNotExported is returned when a subpath is not exported by the package.
var ErrNotExported = errors.New("not exported by package.json")

// DefaultConditions is the default export condition priority.
var DefaultConditions = []string{"node", "import", "require", "default"}

// ResolveOptions configures how conditional exports are resolved.
type ResolveOptions struct {
	// Conditions is the ordered list of conditions to try when resolving exports.
	// If nil, defaults to DefaultConditions.
	Conditions []string
}

// PackageJSON represents the subset of package.json relevant to the resolver:
// export maps, declared dependencies by kind, scripts, and bin entries.
type PackageJSON struct {
	Name                 string            `json:"name"`
	Version              string            `json:"version"`
	Private              bool              `json:"private,omitempty"`
	Main                 string            `json:"main,omitempty"`
	Module               string            `json:"module,omitempty"`
	Types                string            `json:"types,omitempty"`
	Exports              any               `json:"exports,omitempty"`
	Imports              any               `json:"imports,omitempty"`
	Dependencies         map[string]string `json:"dependencies,omitempty"`
	DevDependencies      map[string]string `json:"devDependencies,omitempty"`
	PeerDependencies     map[string]string `json:"peerDependencies,omitempty"`
	OptionalDependencies map[string]string `json:"optionalDependencies,omitempty"`
	Scripts              map[string]string `json:"scripts,omitempty"`
	RawBin               json.RawMessage   `json:"bin,omitempty"`
	RawWorkspaces        json.RawMessage   `json:"workspaces,omitempty"`
}

// WorkspacePatterns returns the workspace glob patterns from the workspaces field.
// Handles both array format ["packages/*"] and object format {"packages": ["libs/*"]}.
func (pkg *PackageJSON) WorkspacePatterns() []string {
	if len(pkg.RawWorkspaces) == 0 {
		return nil
	}

	var patterns []string
	if err := json.Unmarshal(pkg.RawWorkspaces, &patterns); err == nil {
		return patterns
	}

	var obj workspacesObjectFormat
	if err := json.Unmarshal(pkg.RawWorkspaces, &obj); err == nil {
		return obj.Packages
	}

	return nil
}

// HasWorkspaces returns true if the package has workspace patterns defined.
func (pkg *PackageJSON) HasWorkspaces() bool {
	return len(pkg.WorkspacePatterns()) > 0
}

// BinNames returns the set of binary names this package declares, regardless
// of whether "bin" was written as a bare string (binary named after the
// package) or a map of multiple binaries.
func (pkg *PackageJSON) BinNames() map[string]string {
	if len(pkg.RawBin) == 0 {
		return nil
	}

	var asString string
	if err := json.Unmarshal(pkg.RawBin, &asString); err == nil {
		if asString == "" || pkg.Name == "" {
			return nil
		}
		name := pkg.Name
		if idx := strings.LastIndex(name, "/"); idx >= 0 {
			name = name[idx+1:]
		}
		return map[string]string{name: asString}
	}

	var asMap map[string]string
	if err := json.Unmarshal(pkg.RawBin, &asMap); err == nil {
		return asMap
	}

	return nil
}

// ExportEntry represents a single export from a package.
type ExportEntry struct {
	Subpath string // The export subpath (e.g., ".", "./button")
	Target  string // The resolved target path (e.g., "index.js")
}

// WildcardExport represents a wildcard export pattern.
type WildcardExport struct {
	Pattern string // The pattern (e.g., "./*")
	Target  string // The target prefix (e.g., "dist/")
}

// Parse parses package.json data.
func Parse(data []byte) (*PackageJSON, error) {
	var pkg PackageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, err
	}
	return &pkg, nil
}

// ParseFile parses a package.json file.
func ParseFile(fsys fs.FileSystem, path string) (*PackageJSON, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// ResolveExport resolves a subpath export to its target file path.
// The subpath should be "." for the main export or "./subpath" for subpath exports.
// Returns the resolved path without leading "./".
// Pass nil for opts to use DefaultConditions.
func (pkg *PackageJSON) ResolveExport(subpath string, opts *ResolveOptions) (string, error) {
	if pkg.Exports == nil {
		if pkg.Main != "" {
			if subpath == "." {
				return trimDotSlash(pkg.Main), nil
			}
			return "", ErrNotExported
		}
		return "", ErrNotExported
	}

	if exportStr, ok := pkg.Exports.(string); ok {
		if subpath == "." {
			return trimDotSlash(exportStr), nil
		}
		return "", ErrNotExported
	}

	exportsMap, ok := pkg.Exports.(map[string]any)
	if !ok {
		return "", ErrNotExported
	}

	if !hasSubpathKeys(exportsMap) {
		if subpath == "." {
			return resolveConditionsWithOpts(exportsMap, opts)
		}
		return "", ErrNotExported
	}

	exportValue, ok := exportsMap[subpath]
	if !ok {
		return "", ErrNotExported
	}

	return resolveExportValueWithOpts(exportValue, opts)
}

// ExportEntries returns all non-wildcard export entries from the package.
// Pass nil for opts to use DefaultConditions.
func (pkg *PackageJSON) ExportEntries(opts *ResolveOptions) []ExportEntry {
	var entries []ExportEntry

	if pkg.Exports == nil {
		if pkg.Main != "" {
			entries = append(entries, ExportEntry{Subpath: ".", Target: trimDotSlash(pkg.Main)})
		}
		return entries
	}

	if exportStr, ok := pkg.Exports.(string); ok {
		entries = append(entries, ExportEntry{Subpath: ".", Target: trimDotSlash(exportStr)})
		return entries
	}

	exportsMap, ok := pkg.Exports.(map[string]any)
	if !ok {
		return entries
	}

	if !hasSubpathKeys(exportsMap) {
		if resolved, err := resolveConditionsWithOpts(exportsMap, opts); err == nil {
			entries = append(entries, ExportEntry{Subpath: ".", Target: resolved})
		}
		return entries
	}

	for subpath, exportValue := range exportsMap {
		if strings.Contains(subpath, "*") {
			continue
		}
		resolved, err := resolveExportValueWithOpts(exportValue, opts)
		if err != nil {
			continue
		}
		entries = append(entries, ExportEntry{Subpath: subpath, Target: resolved})
	}

	return entries
}

// WildcardExports returns all wildcard export patterns from the package.
// Pass nil for opts to use DefaultConditions.
func (pkg *PackageJSON) WildcardExports(opts *ResolveOptions) []WildcardExport {
	var wildcards []WildcardExport

	exportsMap, ok := pkg.Exports.(map[string]any)
	if !ok {
		return wildcards
	}

	for pattern, targetValue := range exportsMap {
		if !strings.Contains(pattern, "*") {
			continue
		}

		targetStr := resolveWildcardTargetWithOpts(targetValue, opts)
		if targetStr == "" || !strings.Contains(targetStr, "*") {
			continue
		}

		target := trimDotSlash(targetStr)
		wildcardIdx := strings.Index(target, "*")
		targetPrefix := target[:wildcardIdx]

		wildcards = append(wildcards, WildcardExport{Pattern: pattern, Target: targetPrefix})
	}

	return wildcards
}

func resolveWildcardTargetWithOpts(value any, opts *ResolveOptions) string {
	switch v := value.(type) {
	case string:
		return v
	case map[string]any:
		if result, err := resolveConditionsWithOpts(v, opts); err == nil {
			return result
		}
	case []any:
		for _, item := range v {
			if result := resolveWildcardTargetWithOpts(item, opts); result != "" {
				return result
			}
		}
	}
	return ""
}

// HasTrailingSlashExport returns true if the package should have a trailing slash import.
// Pass nil for opts to use DefaultConditions.
func (pkg *PackageJSON) HasTrailingSlashExport(opts *ResolveOptions) bool {
	if len(pkg.WildcardExports(opts)) > 0 {
		return true
	}
	return pkg.Exports == nil
}

func resolveExportValueWithOpts(value any, opts *ResolveOptions) (string, error) {
	switch v := value.(type) {
	case string:
		return trimDotSlash(v), nil
	case map[string]any:
		return resolveConditionsWithOpts(v, opts)
	}
	return "", ErrNotExported
}

// resolveConditionsWithOpts resolves a conditional export map to a path.
// Tries each condition in opts.Conditions order, recursing into nested maps.
func resolveConditionsWithOpts(conditions map[string]any, opts *ResolveOptions) (string, error) {
	conditionList := DefaultConditions
	if opts != nil && len(opts.Conditions) > 0 {
		conditionList = opts.Conditions
	}

	for _, cond := range conditionList {
		value, ok := conditions[cond]
		if !ok {
			continue
		}
		if valueMap, ok := value.(map[string]any); ok {
			if result, err := resolveConditionsWithOpts(valueMap, opts); err == nil {
				return result, nil
			}
			continue
		}
		if valueStr, ok := value.(string); ok {
			return trimDotSlash(valueStr), nil
		}
	}

	return "", ErrNotExported
}

func hasSubpathKeys(exportsMap map[string]any) bool {
	for key := range exportsMap {
		if strings.HasPrefix(key, ".") {
			return true
		}
	}
	return false
}

func trimDotSlash(path string) string {
	return strings.TrimPrefix(path, "./")
}
