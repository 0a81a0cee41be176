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

// Package binary scans package.json scripts for binary invocations and
// checks each one against the packages actually installed, the same way
// the Dependency Attributor checks import specifiers against declared
// dependencies, but for the shell commands a project's scripts run
// rather than the modules its source imports.
package binary

import (
	"path/filepath"
	"strings"

	"bennypowers.dev/knipgo/fs"
	"bennypowers.dev/knipgo/packagejson"
	"bennypowers.dev/knipgo/workspace"
)

// Invocation is one binary invocation found inside a package.json script.
type Invocation struct {
	Script  string // script name, e.g. "test"
	Segment string // the raw command segment this invocation came from
	Binary  string // the binary name actually being invoked
	Args    []string

	ViaNpx     bool // invoked as "npx <binary>"; pnpm exec and yarn exec/dlx leave it false
	NpxAutoYes bool // npx was given --yes/-y: installs on demand, never unlisted
}

// Manifest is the subset of packagejson.PackageJSON ScanScripts needs.
type Manifest interface {
	GetScripts() map[string]string
}

// manifestAdapter lets *packagejson.PackageJSON satisfy Manifest without
// that package needing to know about this one.
type manifestAdapter struct{ pkg *packagejson.PackageJSON }

func (m manifestAdapter) GetScripts() map[string]string { return m.pkg.Scripts }

// FromPackageJSON adapts a parsed manifest for ScanScripts.
func FromPackageJSON(pkg *packagejson.PackageJSON) Manifest {
	return manifestAdapter{pkg: pkg}
}

// ScanScripts tokenizes every script command in manifest and returns one
// Invocation per command segment that names a binary.
func ScanScripts(manifest Manifest) []Invocation {
	var out []Invocation
	scripts := manifest.GetScripts()
	names := make([]string, 0, len(scripts))
	for name := range scripts {
		names = append(names, name)
	}
	// Deterministic order: callers building a Report sort later anyway,
	// but a stable scan order keeps diagnostics reproducible.
	sortStrings(names)

	for _, name := range names {
		for _, segment := range splitSegments(scripts[name]) {
			if inv, ok := parseInvocation(name, segment); ok {
				out = append(out, inv)
			}
		}
	}
	return out
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

func parseInvocation(script, segment string) (Invocation, bool) {
	tokens := stripEnvAssignments(tokenize(segment))
	if len(tokens) == 0 {
		return Invocation{}, false
	}

	switch tokens[0] {
	case "npx":
		return parseNpx(script, segment, tokens[1:])
	case "pnpm":
		if len(tokens) >= 3 && tokens[1] == "exec" {
			return Invocation{Script: script, Segment: segment, Binary: tokens[2], Args: tokens[3:]}, true
		}
	case "yarn":
		if len(tokens) >= 3 && (tokens[1] == "exec" || tokens[1] == "dlx") {
			return Invocation{Script: script, Segment: segment, Binary: tokens[2], Args: tokens[3:]}, true
		}
	}

	return Invocation{Script: script, Segment: segment, Binary: tokens[0], Args: tokens[1:]}, true
}

// parseNpx interprets "npx [flags] <name> [args]". --yes/-y (and the
// inverse --no) are npx's own flags, consumed here rather than treated
// as the invoked binary's arguments.
func parseNpx(script, segment string, rest []string) (Invocation, bool) {
	inv := Invocation{Script: script, Segment: segment, ViaNpx: true}
	i := 0
	for i < len(rest) {
		switch rest[i] {
		case "--yes", "-y":
			inv.NpxAutoYes = true
			i++
			continue
		case "--no":
			inv.NpxAutoYes = false
			i++
			continue
		}
		if strings.HasPrefix(rest[i], "-") {
			i++
			continue
		}
		break
	}
	if i >= len(rest) {
		return Invocation{}, false
	}
	inv.Binary = rest[i]
	inv.Args = rest[i+1:]
	return inv, true
}

// IgnoredGlobalBinaries are shell builtins and coreutils that are never
// flagged as unlisted, regardless of whether any node_modules package
// declares them.
var IgnoredGlobalBinaries = map[string]bool{
	"sh": true, "bash": true, "zsh": true, "node": true, "echo": true,
	"true": true, "false": true, "cd": true, "rm": true, "mkdir": true,
	"cp": true, "mv": true, "cat": true, "test": true, "env": true,
	"exit": true, "pwd": true, "touch": true, "ls": true,
}

// Status classifies the outcome of resolving an Invocation.
type Status int

const (
	Resolved Status = iota
	Unlisted
)

// Resolution is the result of checking one Invocation against a
// workspace's installed binaries.
type Resolution struct {
	Invocation Invocation
	Status     Status
}

// Resolve checks inv.Binary against ws's installed node_modules bin
// entries, the fixed IgnoredGlobalBinaries set, and the tsc-requires-
// typescript special case. cache memoizes the package.json parses the
// node_modules walk performs, since a workspace's scripts commonly
// invoke several binaries and would otherwise re-parse the same
// installed packages' manifests once per invocation; pass nil to parse
// uncached.
func Resolve(inv Invocation, ws *workspace.Workspace, fsys fs.FileSystem, cache *packagejson.MemoryCache) Resolution {
	if inv.Binary == "" {
		return Resolution{Invocation: inv, Status: Resolved}
	}
	if inv.ViaNpx && inv.NpxAutoYes {
		return Resolution{Invocation: inv, Status: Resolved}
	}
	if IgnoredGlobalBinaries[inv.Binary] {
		return Resolution{Invocation: inv, Status: Resolved}
	}
	if inv.Binary == "tsc" && declaresTypeScript(ws) {
		return Resolution{Invocation: inv, Status: Resolved}
	}
	if binaryInstalled(fsys, cache, ws.Dir, inv.Binary) {
		return Resolution{Invocation: inv, Status: Resolved}
	}
	return Resolution{Invocation: inv, Status: Unlisted}
}

func declaresTypeScript(ws *workspace.Workspace) bool {
	if ws.Manifest == nil {
		return false
	}
	if _, ok := ws.Manifest.Dependencies["typescript"]; ok {
		return true
	}
	_, ok := ws.Manifest.DevDependencies["typescript"]
	return ok
}

// binaryInstalled walks upward from dir looking for node_modules
// directories and checks each installed package's bin field for name.
func binaryInstalled(fsys fs.FileSystem, cache *packagejson.MemoryCache, dir, name string) bool {
	for {
		nodeModules := filepath.Join(dir, "node_modules")
		if fsys.Exists(nodeModules) && hasBinary(fsys, cache, nodeModules, name) {
			return true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return false
		}
		dir = parent
	}
}

func hasBinary(fsys fs.FileSystem, cache *packagejson.MemoryCache, nodeModulesDir, name string) bool {
	entries, err := fsys.ReadDir(nodeModulesDir)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if strings.HasPrefix(entry.Name(), "@") {
			scopeDir := filepath.Join(nodeModulesDir, entry.Name())
			scoped, err := fsys.ReadDir(scopeDir)
			if err != nil {
				continue
			}
			for _, sub := range scoped {
				if packageDeclaresBinary(fsys, cache, filepath.Join(scopeDir, sub.Name()), name) {
					return true
				}
			}
			continue
		}
		if packageDeclaresBinary(fsys, cache, filepath.Join(nodeModulesDir, entry.Name()), name) {
			return true
		}
	}
	return false
}

func packageDeclaresBinary(fsys fs.FileSystem, cache *packagejson.MemoryCache, pkgDir, name string) bool {
	path := filepath.Join(pkgDir, "package.json")
	var pkg *packagejson.PackageJSON
	var err error
	if cache != nil {
		pkg, err = cache.GetOrLoad(path, func() (*packagejson.PackageJSON, error) {
			return packagejson.ParseFile(fsys, path)
		})
	} else {
		pkg, err = packagejson.ParseFile(fsys, path)
	}
	if err != nil {
		return false
	}
	_, ok := pkg.BinNames()[name]
	return ok
}
