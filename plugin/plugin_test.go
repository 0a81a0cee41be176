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
package plugin_test

import (
	"testing"

	"bennypowers.dev/knipgo/config"
	"bennypowers.dev/knipgo/diagnostics"
	"bennypowers.dev/knipgo/internal/mapfs"
	"bennypowers.dev/knipgo/plugin"
	"bennypowers.dev/knipgo/workspace"
)

func newWorkspace(t *testing.T, mfs *mapfs.MapFileSystem, dir string) *workspace.Workspace {
	t.Helper()
	workspaces, err := workspace.Enumerate(mfs, dir, nil)
	if err != nil {
		t.Fatalf("Enumerate failed: %v", err)
	}
	return workspaces[len(workspaces)-1]
}

func TestHostRunAutoEnablesByDependency(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/root/package.json", `{"name":"root","devDependencies":{"jest":"^29.0.0"}}`, 0644)
	mfs.AddFile("/root/jest.config.js", "", 0644)

	ws := newWorkspace(t, mfs, "/root")
	host := plugin.NewHost()
	diag := diagnostics.NewCollector()

	entries, _, _ := host.Run(mfs, ws, &config.Config{}, diag, false)

	var foundTestGlob bool
	for _, e := range entries {
		if e == "**/*.test.{js,ts}" {
			foundTestGlob = true
		}
	}
	if !foundTestGlob {
		t.Errorf("expected jest's test-file glob to be contributed, got %v", entries)
	}
}

func TestHostRunNotEnabledWithoutDependency(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/root/package.json", `{"name":"root"}`, 0644)

	ws := newWorkspace(t, mfs, "/root")
	host := plugin.NewHost()
	diag := diagnostics.NewCollector()

	entries, _, _ := host.Run(mfs, ws, &config.Config{}, diag, false)
	if len(entries) != 0 {
		t.Errorf("expected no entries with no matching dependency, got %v", entries)
	}
}

func TestHostRunConfigOverrideDisables(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/root/package.json", `{"name":"root","devDependencies":{"jest":"^29.0.0"}}`, 0644)

	ws := newWorkspace(t, mfs, "/root")
	host := plugin.NewHost()
	diag := diagnostics.NewCollector()

	cfg := &config.Config{Plugins: map[string]*config.PluginConfig{
		"jest": {Enabled: false},
	}}

	entries, _, _ := host.Run(mfs, ws, cfg, diag, false)
	if len(entries) != 0 {
		t.Errorf("expected plugin disabled via config to contribute nothing, got %v", entries)
	}
}

func TestHostRunParsesWebpackEntry(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/root/package.json", `{"name":"root","devDependencies":{"webpack":"^5.0.0"}}`, 0644)
	mfs.AddFile("/root/webpack.config.js", `{"entry": "./src/index.js"}`, 0644)

	ws := newWorkspace(t, mfs, "/root")
	host := plugin.NewHost()
	diag := diagnostics.NewCollector()

	entries, _, _ := host.Run(mfs, ws, &config.Config{}, diag, false)

	var found bool
	for _, e := range entries {
		if e == "./src/index.js" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected webpack config entry to be extracted, got %v", entries)
	}
}

func TestHostRunUnparseableConfigIsWarningNotFatal(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/root/package.json", `{"name":"root","devDependencies":{"webpack":"^5.0.0"}}`, 0644)
	mfs.AddFile("/root/webpack.config.js", `not valid json or yaml: [[[`, 0644)

	ws := newWorkspace(t, mfs, "/root")
	host := plugin.NewHost()
	diag := diagnostics.NewCollector()

	entries, _, _ := host.Run(mfs, ws, &config.Config{}, diag, false)
	if len(entries) != 0 {
		t.Errorf("expected no entries from unparseable config, got %v", entries)
	}
	if diag.Len() == 0 {
		t.Error("expected a PluginWarning for the unparseable config")
	}
}

func TestHostRunProductionOnlySkipsDevOnlyPlugin(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/root/package.json", `{"name":"root","devDependencies":{"jest":"^29.0.0"}}`, 0644)
	mfs.AddFile("/root/jest.config.js", "", 0644)

	ws := newWorkspace(t, mfs, "/root")
	host := plugin.NewHost()
	diag := diagnostics.NewCollector()

	entries, _, _ := host.Run(mfs, ws, &config.Config{}, diag, true)
	if len(entries) != 0 {
		t.Errorf("expected jest (devDependency-only) to contribute nothing under productionOnly, got %v", entries)
	}
}

func TestHostRunProductionOnlyKeepsProductionDependencyPlugin(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/root/package.json", `{"name":"root","dependencies":{"jest":"^29.0.0"}}`, 0644)
	mfs.AddFile("/root/jest.config.js", "", 0644)

	ws := newWorkspace(t, mfs, "/root")
	host := plugin.NewHost()
	diag := diagnostics.NewCollector()

	entries, _, _ := host.Run(mfs, ws, &config.Config{}, diag, true)

	var foundTestGlob bool
	for _, e := range entries {
		if e == "**/*.test.{js,ts}" {
			foundTestGlob = true
		}
	}
	if !foundTestGlob {
		t.Errorf("expected jest's entries to survive productionOnly when declared as a production dependency, got %v", entries)
	}
}

func TestHostRunProductionOnlyHonorsExplicitEnableOverride(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/root/package.json", `{"name":"root"}`, 0644)
	mfs.AddFile("/root/jest.config.js", "", 0644)

	ws := newWorkspace(t, mfs, "/root")
	host := plugin.NewHost()
	diag := diagnostics.NewCollector()

	cfg := &config.Config{Plugins: map[string]*config.PluginConfig{
		"jest": {Enabled: true},
	}}

	entries, _, _ := host.Run(mfs, ws, cfg, diag, true)
	var foundTestGlob bool
	for _, e := range entries {
		if e == "**/*.test.{js,ts}" {
			foundTestGlob = true
		}
	}
	if !foundTestGlob {
		t.Errorf("expected an explicit config override to survive productionOnly regardless of dependency placement, got %v", entries)
	}
}
