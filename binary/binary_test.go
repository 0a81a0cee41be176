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

package binary_test

import (
	"testing"

	"bennypowers.dev/knipgo/binary"
	"bennypowers.dev/knipgo/internal/mapfs"
	"bennypowers.dev/knipgo/packagejson"
	"bennypowers.dev/knipgo/workspace"
)

func TestScanScriptsSplitsChainedCommands(t *testing.T) {
	pkg := &packagejson.PackageJSON{
		Scripts: map[string]string{
			"build": "tsc && rollup -c",
			"test":  "NODE_ENV=test mocha 'test/**/*.spec.js'",
		},
	}

	invocations := binary.ScanScripts(binary.FromPackageJSON(pkg))

	byBinary := make(map[string]binary.Invocation)
	for _, inv := range invocations {
		byBinary[inv.Binary] = inv
	}

	for _, want := range []string{"tsc", "rollup", "mocha"} {
		if _, ok := byBinary[want]; !ok {
			t.Errorf("expected invocation for %q, got %+v", want, invocations)
		}
	}
}

func TestScanScriptsNpxAutoYes(t *testing.T) {
	pkg := &packagejson.PackageJSON{
		Scripts: map[string]string{
			"scaffold": "npx --yes create-thing@latest",
			"lint":     "npx eslint .",
		},
	}

	invocations := binary.ScanScripts(binary.FromPackageJSON(pkg))

	var scaffold, lint binary.Invocation
	for _, inv := range invocations {
		switch inv.Binary {
		case "create-thing@latest":
			scaffold = inv
		case "eslint":
			lint = inv
		}
	}

	if !scaffold.NpxAutoYes {
		t.Errorf("expected npx --yes to set NpxAutoYes")
	}
	if lint.NpxAutoYes {
		t.Errorf("bare npx eslint should not set NpxAutoYes")
	}
}

func TestResolveIgnoresGlobalBinaries(t *testing.T) {
	mfs := mapfs.New()
	ws := &workspace.Workspace{Dir: "/proj", Manifest: &packagejson.PackageJSON{Name: "root"}}

	res := binary.Resolve(binary.Invocation{Binary: "rm"}, ws, mfs, nil)
	if res.Status != binary.Resolved {
		t.Errorf("rm should resolve as a global binary, got %v", res.Status)
	}
}

func TestResolveFindsInstalledBinary(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/proj/node_modules/eslint/package.json", `{"name":"eslint","bin":{"eslint":"bin/eslint.js"}}`, 0o644)
	ws := &workspace.Workspace{Dir: "/proj", Manifest: &packagejson.PackageJSON{Name: "root"}}

	res := binary.Resolve(binary.Invocation{Binary: "eslint"}, ws, mfs, nil)
	if res.Status != binary.Resolved {
		t.Errorf("eslint should resolve via installed bin field, got %v", res.Status)
	}
}

func TestResolveUnlisted(t *testing.T) {
	mfs := mapfs.New()
	ws := &workspace.Workspace{Dir: "/proj", Manifest: &packagejson.PackageJSON{Name: "root"}}

	res := binary.Resolve(binary.Invocation{Binary: "some-missing-tool"}, ws, mfs, nil)
	if res.Status != binary.Unlisted {
		t.Errorf("expected unlisted binary, got %v", res.Status)
	}
}

func TestResolvePopulatesManifestCache(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/proj/node_modules/eslint/package.json", `{"name":"eslint","bin":{"eslint":"bin/eslint.js"}}`, 0o644)
	ws := &workspace.Workspace{Dir: "/proj", Manifest: &packagejson.PackageJSON{Name: "root"}}
	cache := packagejson.NewMemoryCache()

	res := binary.Resolve(binary.Invocation{Binary: "eslint"}, ws, mfs, cache)
	if res.Status != binary.Resolved {
		t.Fatalf("eslint should resolve via installed bin field, got %v", res.Status)
	}

	pkg, ok := cache.Get("/proj/node_modules/eslint/package.json")
	if !ok {
		t.Fatalf("expected Resolve to populate the manifest cache for eslint's package.json")
	}
	if pkg.Name != "eslint" {
		t.Errorf("cached manifest name = %q, want %q", pkg.Name, "eslint")
	}

	// A second lookup reuses the cached parse rather than re-reading the
	// manifest: the directory entry still exists (so the node_modules
	// walk finds it) but its content is now unparseable JSON, so a fresh
	// ParseFile call would fail and the binary would resolve as unlisted
	// unless the cached value is what actually satisfies it.
	mfs2 := mapfs.New()
	mfs2.AddFile("/proj/node_modules/eslint/package.json", `not valid json`, 0o644)
	res2 := binary.Resolve(binary.Invocation{Binary: "eslint"}, ws, mfs2, cache)
	if res2.Status != binary.Resolved {
		t.Errorf("expected cached manifest to satisfy resolution without re-parsing the filesystem, got %v", res2.Status)
	}
}
