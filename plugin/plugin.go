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

// Package plugin discovers and runs tool-config plugins: small,
// declarative records that contribute extra entry files and dependency
// references from a tool's own configuration (jest.config.js,
// webpack.config.js, and so on) rather than from ordinary source
// imports.
package plugin

import (
	"encoding/json"
	"strings"

	"go.yaml.in/yaml/v3"

	"bennypowers.dev/knipgo/config"
	"bennypowers.dev/knipgo/diagnostics"
	"bennypowers.dev/knipgo/fs"
	"bennypowers.dev/knipgo/packagejson"
	"bennypowers.dev/knipgo/workspace"
)

// DependencyKind classifies how a plugin-contributed reference to a
// package should be treated by the dependency attributor.
type DependencyKind int

const (
	// Runtime means the plugin invokes the named package as a tool, the
	// same as a production dependency.
	Runtime DependencyKind = iota
	// Dev means the plugin's use of the package only matters during
	// development/testing.
	Dev
)

// DependencyRef is a dependency attributed to a workspace by a plugin,
// rather than discovered via source imports.
type DependencyRef struct {
	Package string
	Kind    DependencyKind
}

// IgnorePattern is an additional file-ignore glob contributed by a
// plugin (for example, a test runner's snapshot directory).
type IgnorePattern string

// PluginResult is what a single plugin's Resolve function returns after
// parsing its tool config.
type PluginResult struct {
	Entries []string
	Deps    []DependencyRef
	Ignores []IgnorePattern
}

// Plugin is a compile-time record describing one tool integration: how
// to detect it's in use, where its config and entry files live, and how
// to parse that config into entries/dependencies.
type Plugin struct {
	Name string
	// Enabler reports whether this plugin should run for a given
	// manifest, absent an explicit config override.
	Enabler func(*packagejson.PackageJSON) bool
	// EnablerDeps names the package(s) Enabler checks for, in the same
	// order passed to enablerFor. Used by productionOnly filtering to
	// tell a plugin enabled only via devDependencies from one enabled by
	// a real production dependency.
	EnablerDeps []string
	// ConfigGlobs locate the plugin's own configuration file(s), relative
	// to the workspace directory.
	ConfigGlobs []string
	// EntryGlobs are entry files this plugin contributes unconditionally
	// (e.g. test runner spec files) once enabled.
	EntryGlobs []string
	// Resolve parses a located config file's content into entries/deps.
	// May be nil for plugins that only contribute EntryGlobs.
	Resolve func(data []byte) (PluginResult, error)
}

func hasDep(pkg *packagejson.PackageJSON, name string) bool {
	if pkg == nil {
		return false
	}
	if _, ok := pkg.Dependencies[name]; ok {
		return true
	}
	if _, ok := pkg.DevDependencies[name]; ok {
		return true
	}
	return false
}

func enablerFor(names ...string) func(*packagejson.PackageJSON) bool {
	return func(pkg *packagejson.PackageJSON) bool {
		for _, name := range names {
			if hasDep(pkg, name) {
				return true
			}
		}
		return false
	}
}

// enabledViaDevOnly reports whether every one of deps that pkg declares at
// all is declared only as a devDependency, never a production dependency.
// A plugin whose enabling package is dev-only (jest, eslint, storybook, ...)
// contributes entries that only matter for local development; --production
// skips them.
func enabledViaDevOnly(pkg *packagejson.PackageJSON, deps []string) bool {
	if pkg == nil {
		return false
	}
	sawAny := false
	for _, name := range deps {
		if _, ok := pkg.Dependencies[name]; ok {
			return false
		}
		if _, ok := pkg.DevDependencies[name]; ok {
			sawAny = true
		}
	}
	return sawAny
}

// resolveJSONOrYAMLEntryList is a best-effort config parser shared by plugins
// whose config is a flat JSON/YAML object naming entry files under one
// or more known keys.
func resolveJSONOrYAMLEntryList(keys ...string) func([]byte) (PluginResult, error) {
	return func(data []byte) (PluginResult, error) {
		raw := map[string]any{}
		if err := json.Unmarshal(data, &raw); err != nil {
			if yerr := yaml.Unmarshal(data, &raw); yerr != nil {
				return PluginResult{}, yerr
			}
		}
		var result PluginResult
		for _, key := range keys {
			v, ok := raw[key]
			if !ok {
				continue
			}
			switch t := v.(type) {
			case string:
				result.Entries = append(result.Entries, t)
			case []any:
				for _, item := range t {
					if s, ok := item.(string); ok {
						result.Entries = append(result.Entries, s)
					}
				}
			}
		}
		return result, nil
	}
}

// Catalog is a representative set of tool-config plugins: one per major
// shape a real-world integration takes (test runner, bundler, linter,
// docs tool, type checker, release tool, git hook runner), rather than
// the exhaustive set a production linter ships. See DESIGN.md for this
// scope decision. HTML entry files are handled directly by the module
// graph builder (analyzer.KindHTML), not by a plugin.
var Catalog = []Plugin{
	{
		Name:        "jest",
		Enabler:     enablerFor("jest"),
		EnablerDeps: []string{"jest"},
		ConfigGlobs: []string{"jest.config.js", "jest.config.ts", "jest.config.json"},
		EntryGlobs:  []string{"**/*.test.{js,ts}", "**/*.spec.{js,ts}"},
		Resolve:     resolveJSONOrYAMLEntryList("setupFiles", "setupFilesAfterEach", "globalSetup"),
	},
	{
		Name:        "vitest",
		Enabler:     enablerFor("vitest"),
		EnablerDeps: []string{"vitest"},
		ConfigGlobs: []string{"vitest.config.ts", "vitest.config.js", "vite.config.ts"},
		EntryGlobs:  []string{"**/*.test.{js,ts}", "**/*.spec.{js,ts}"},
		Resolve:     resolveJSONOrYAMLEntryList("setupFiles"),
	},
	{
		Name:        "mocha",
		Enabler:     enablerFor("mocha"),
		EnablerDeps: []string{"mocha"},
		ConfigGlobs: []string{".mocharc.json", ".mocharc.yaml", ".mocharc.yml"},
		EntryGlobs:  []string{"test/**/*.{js,ts}"},
		Resolve:     resolveJSONOrYAMLEntryList("spec", "require"),
	},
	{
		Name:        "webpack",
		Enabler:     enablerFor("webpack"),
		EnablerDeps: []string{"webpack"},
		ConfigGlobs: []string{"webpack.config.js", "webpack.config.ts"},
		Resolve:     resolveJSONOrYAMLEntryList("entry"),
	},
	{
		Name:        "rollup",
		Enabler:     enablerFor("rollup"),
		EnablerDeps: []string{"rollup"},
		ConfigGlobs: []string{"rollup.config.js", "rollup.config.mjs"},
		Resolve:     resolveJSONOrYAMLEntryList("input"),
	},
	{
		Name:        "vite",
		Enabler:     enablerFor("vite"),
		EnablerDeps: []string{"vite"},
		ConfigGlobs: []string{"vite.config.ts", "vite.config.js"},
	},
	{
		Name:        "esbuild",
		Enabler:     enablerFor("esbuild"),
		EnablerDeps: []string{"esbuild"},
		ConfigGlobs: []string{"esbuild.config.js", "esbuild.config.mjs"},
		Resolve:     resolveJSONOrYAMLEntryList("entryPoints"),
	},
	{
		Name:        "eslint",
		Enabler:     enablerFor("eslint"),
		EnablerDeps: []string{"eslint"},
		ConfigGlobs: []string{".eslintrc.json", ".eslintrc.yaml", ".eslintrc.yml", "eslint.config.js"},
	},
	{
		Name:        "prettier",
		Enabler:     enablerFor("prettier"),
		EnablerDeps: []string{"prettier"},
		ConfigGlobs: []string{".prettierrc", ".prettierrc.json", ".prettierrc.yaml"},
	},
	{
		Name:        "stylelint",
		Enabler:     enablerFor("stylelint"),
		EnablerDeps: []string{"stylelint"},
		ConfigGlobs: []string{".stylelintrc.json", ".stylelintrc.yaml"},
	},
	{
		Name:        "storybook",
		Enabler:     enablerFor("@storybook/react", "@storybook/web-components", "storybook"),
		EnablerDeps: []string{"@storybook/react", "@storybook/web-components", "storybook"},
		ConfigGlobs: []string{".storybook/main.js", ".storybook/main.ts"},
		EntryGlobs:  []string{"**/*.stories.{js,ts,jsx,tsx}"},
	},
	{
		Name:        "typescript",
		Enabler:     enablerFor("typescript"),
		EnablerDeps: []string{"typescript"},
		ConfigGlobs: []string{"tsconfig.json"},
		Resolve:     resolveJSONOrYAMLEntryList("files", "include"),
	},
	{
		Name:        "changesets",
		Enabler:     enablerFor("@changesets/cli"),
		EnablerDeps: []string{"@changesets/cli"},
		ConfigGlobs: []string{".changeset/config.json"},
	},
	{
		Name:        "husky",
		Enabler:     enablerFor("husky"),
		EnablerDeps: []string{"husky"},
		ConfigGlobs: []string{".husky/pre-commit", ".husky/commit-msg"},
	},
	{
		Name:        "lint-staged",
		Enabler:     enablerFor("lint-staged"),
		EnablerDeps: []string{"lint-staged"},
		ConfigGlobs: []string{".lintstagedrc.json", ".lintstagedrc.yaml"},
	},
}

// Host runs the catalog of plugins against a workspace and merges their
// contributions.
type Host struct {
	Catalog []Plugin
}

// NewHost returns a Host using the default Catalog.
func NewHost() *Host {
	return &Host{Catalog: Catalog}
}

// Run determines which plugins apply to ws (auto-enabled via their
// Enabler, or forced on/off via cfg.Plugins), locates and parses each
// enabled plugin's config, and merges the resulting entries, dependency
// refs, and ignore patterns. Unparseable config files produce a
// diagnostics.Collector entry rather than aborting the run. The same
// config path claimed by two plugins resolves to the first plugin in
// Catalog order; the second is recorded as a diagnostic. When
// productionOnly is set, a plugin enabled solely via a devDependency (an
// explicit cfg.Plugins override still wins) is skipped entirely, the same
// way analysis of production entries skips devDependency-only tooling.
func (h *Host) Run(fsys fs.FileSystem, ws *workspace.Workspace, cfg *config.Config, diag *diagnostics.Collector, productionOnly bool) (entries []string, deps []DependencyRef, ignores []IgnorePattern) {
	claimedConfigs := make(map[string]string) // config path -> plugin name

	for _, p := range h.Catalog {
		enabled := p.Enabler != nil && p.Enabler(ws.Manifest)
		overridden := false
		if cfg != nil {
			if override, ok := cfg.Plugins[p.Name]; ok {
				enabled = override.Enabled
				overridden = true
			}
		}
		if !enabled {
			continue
		}
		if productionOnly && !overridden && enabledViaDevOnly(ws.Manifest, p.EnablerDeps) {
			continue
		}

		for _, glob := range p.EntryGlobs {
			entries = append(entries, glob)
		}

		configPath := findConfig(fsys, ws.Dir, p.ConfigGlobs)
		if configPath == "" {
			continue
		}
		if owner, claimed := claimedConfigs[configPath]; claimed {
			diag.Plugin(configPath, "config already claimed by plugin "+owner+"; skipping "+p.Name)
			continue
		}
		claimedConfigs[configPath] = p.Name

		if p.Resolve == nil {
			continue
		}
		data, err := fsys.ReadFile(configPath)
		if err != nil {
			diag.Plugin(configPath, "could not read config: "+err.Error())
			continue
		}
		result, err := p.Resolve(data)
		if err != nil {
			diag.Plugin(configPath, "could not parse config: "+err.Error())
			continue
		}
		entries = append(entries, result.Entries...)
		deps = append(deps, result.Deps...)
		ignores = append(ignores, result.Ignores...)
	}

	return dedupe(entries), deps, ignores
}

func findConfig(fsys fs.FileSystem, dir string, globs []string) string {
	for _, name := range globs {
		if strings.Contains(name, "*") {
			continue // no catalog entry uses a wildcard config glob today
		}
		path := dir + "/" + name
		if fsys.Exists(path) {
			return path
		}
	}
	return ""
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	var out []string
	for _, item := range items {
		if seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}
