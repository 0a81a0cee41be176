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
package packagejson_test

import (
	"testing"

	"bennypowers.dev/knipgo/internal/mapfs"
	"bennypowers.dev/knipgo/packagejson"
)

func TestParseFile(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/test/package.json", `{"name":"pkg","main":"index.js"}`, 0644)

	pkg, err := packagejson.ParseFile(mfs, "/test/package.json")
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if pkg.Name != "pkg" {
		t.Errorf("Name = %q, want %q", pkg.Name, "pkg")
	}
}

func TestResolveExportStringExport(t *testing.T) {
	pkg, err := packagejson.Parse([]byte(`{"name":"pkg","exports":"./dist/index.js"}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	resolved, err := pkg.ResolveExport(".", nil)
	if err != nil {
		t.Fatalf("ResolveExport failed: %v", err)
	}
	if resolved != "dist/index.js" {
		t.Errorf("ResolveExport(.) = %q, want %q", resolved, "dist/index.js")
	}
}

func TestResolveExportSubpaths(t *testing.T) {
	pkg, err := packagejson.Parse([]byte(`{
		"name":"pkg",
		"exports": {
			".": "./index.js",
			"./button": "./button.js"
		}
	}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	cases := map[string]string{
		".":       "index.js",
		"./button": "button.js",
	}
	for subpath, want := range cases {
		got, err := pkg.ResolveExport(subpath, nil)
		if err != nil {
			t.Errorf("ResolveExport(%q) failed: %v", subpath, err)
			continue
		}
		if got != want {
			t.Errorf("ResolveExport(%q) = %q, want %q", subpath, got, want)
		}
	}

	if _, err := pkg.ResolveExport("./missing", nil); err != packagejson.ErrNotExported {
		t.Errorf("expected ErrNotExported for missing subpath, got %v", err)
	}
}

func TestResolveExportConditional(t *testing.T) {
	pkg, err := packagejson.Parse([]byte(`{
		"name":"pkg",
		"exports": {
			"import": "./esm/index.js",
			"require": "./cjs/index.js",
			"default": "./index.js"
		}
	}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	resolved, err := pkg.ResolveExport(".", nil)
	if err != nil {
		t.Fatalf("ResolveExport failed: %v", err)
	}
	if resolved != "esm/index.js" {
		t.Errorf("ResolveExport(.) = %q, want %q", resolved, "esm/index.js")
	}

	resolved, err = pkg.ResolveExport(".", &packagejson.ResolveOptions{Conditions: []string{"require"}})
	if err != nil {
		t.Fatalf("ResolveExport with custom conditions failed: %v", err)
	}
	if resolved != "cjs/index.js" {
		t.Errorf("ResolveExport(.) with require condition = %q, want %q", resolved, "cjs/index.js")
	}
}

func TestResolveExportNestedConditions(t *testing.T) {
	pkg, err := packagejson.Parse([]byte(`{
		"name":"pkg",
		"exports": {
			"browser": {
				"import": "./browser.esm.js",
				"default": "./browser.js"
			},
			"default": "./index.js"
		}
	}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	resolved, err := pkg.ResolveExport(".", &packagejson.ResolveOptions{Conditions: []string{"browser", "import"}})
	if err != nil {
		t.Fatalf("ResolveExport failed: %v", err)
	}
	if resolved != "browser.esm.js" {
		t.Errorf("ResolveExport(.) = %q, want %q", resolved, "browser.esm.js")
	}
}

func TestResolveExportMainFallback(t *testing.T) {
	pkg, err := packagejson.Parse([]byte(`{"name":"pkg","main":"./lib/index.js"}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	resolved, err := pkg.ResolveExport(".", nil)
	if err != nil {
		t.Fatalf("ResolveExport failed: %v", err)
	}
	if resolved != "lib/index.js" {
		t.Errorf("ResolveExport(.) = %q, want %q", resolved, "lib/index.js")
	}
}

func TestExportEntriesEnumeration(t *testing.T) {
	pkg, err := packagejson.Parse([]byte(`{
		"name":"pkg",
		"exports": {
			".": "./index.js",
			"./button": "./button.js",
			"./card": "./card.js"
		}
	}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	entries := pkg.ExportEntries(nil)
	if len(entries) != 3 {
		t.Fatalf("expected 3 export entries, got %d", len(entries))
	}

	found := make(map[string]bool)
	for _, e := range entries {
		found[e.Subpath] = true
	}
	for _, subpath := range []string{".", "./button", "./card"} {
		if !found[subpath] {
			t.Errorf("missing export entry for %q", subpath)
		}
	}
}

func TestWildcardExports(t *testing.T) {
	pkg, err := packagejson.Parse([]byte(`{
		"name":"pkg",
		"exports": {
			".": "./index.js",
			"./*": "./dist/*.js"
		}
	}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	wildcards := pkg.WildcardExports(nil)
	if len(wildcards) != 1 {
		t.Fatalf("expected 1 wildcard export, got %d", len(wildcards))
	}
	if wildcards[0].Pattern != "./*" {
		t.Errorf("Pattern = %q, want %q", wildcards[0].Pattern, "./*")
	}
	if wildcards[0].Target != "dist/" {
		t.Errorf("Target = %q, want %q", wildcards[0].Target, "dist/")
	}
}

func TestHasTrailingSlashExport(t *testing.T) {
	tests := []struct {
		name     string
		json     string
		expected bool
	}{
		{"wildcard exports", `{"exports":{"./*":"./dist/*.js"}}`, true},
		{"main fallback, no exports", `{"main":"./index.js"}`, true},
		{"no exports or main", `{}`, true},
		{"subpath exports, no wildcard", `{"exports":{".":"./index.js","./button":"./button.js"}}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkg, err := packagejson.Parse([]byte(tt.json))
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if got := pkg.HasTrailingSlashExport(nil); got != tt.expected {
				t.Errorf("HasTrailingSlashExport() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestWorkspacePatterns(t *testing.T) {
	t.Run("array format", func(t *testing.T) {
		pkg, err := packagejson.Parse([]byte(`{"workspaces":["packages/*"]}`))
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		patterns := pkg.WorkspacePatterns()
		if len(patterns) != 1 || patterns[0] != "packages/*" {
			t.Errorf("WorkspacePatterns() = %v, want [packages/*]", patterns)
		}
	})

	t.Run("object format with nohoist", func(t *testing.T) {
		pkg, err := packagejson.Parse([]byte(`{"workspaces":{"packages":["libs/*"],"nohoist":["**/react"]}}`))
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		patterns := pkg.WorkspacePatterns()
		if len(patterns) != 1 || patterns[0] != "libs/*" {
			t.Errorf("WorkspacePatterns() = %v, want [libs/*]", patterns)
		}
	})

	t.Run("no workspaces field", func(t *testing.T) {
		pkg, err := packagejson.Parse([]byte(`{}`))
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if pkg.HasWorkspaces() {
			t.Error("HasWorkspaces() = true, want false")
		}
	})
}

func TestBinNames(t *testing.T) {
	t.Run("string form", func(t *testing.T) {
		pkg, err := packagejson.Parse([]byte(`{"name":"@scope/cli-tool","bin":"./bin/cli.js"}`))
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		bins := pkg.BinNames()
		if bins["cli-tool"] != "./bin/cli.js" {
			t.Errorf("BinNames() = %v, want map with cli-tool", bins)
		}
	})

	t.Run("map form", func(t *testing.T) {
		pkg, err := packagejson.Parse([]byte(`{"name":"pkg","bin":{"foo":"./bin/foo.js","bar":"./bin/bar.js"}}`))
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		bins := pkg.BinNames()
		if len(bins) != 2 || bins["foo"] != "./bin/foo.js" || bins["bar"] != "./bin/bar.js" {
			t.Errorf("BinNames() = %v, want 2 entries", bins)
		}
	})

	t.Run("no bin field", func(t *testing.T) {
		pkg, err := packagejson.Parse([]byte(`{"name":"pkg"}`))
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if pkg.BinNames() != nil {
			t.Errorf("BinNames() = %v, want nil", pkg.BinNames())
		}
	})
}
