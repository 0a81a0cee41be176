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
package workspace_test

import (
	"testing"

	"bennypowers.dev/knipgo/internal/mapfs"
	"bennypowers.dev/knipgo/workspace"
)

func TestEnumerateSinglePackage(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/root/package.json", `{"name":"solo"}`, 0644)

	workspaces, err := workspace.Enumerate(mfs, "/root", nil)
	if err != nil {
		t.Fatalf("Enumerate failed: %v", err)
	}
	if len(workspaces) != 1 {
		t.Fatalf("expected 1 workspace, got %d", len(workspaces))
	}
	if workspaces[0].Name() != "solo" {
		t.Errorf("Name() = %q, want %q", workspaces[0].Name(), "solo")
	}
	if workspaces[0].Parent != nil {
		t.Error("root workspace should have nil Parent")
	}
}

func TestEnumerateMonorepoSingleLevelGlob(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/root/package.json", `{"name":"root","workspaces":["packages/*"]}`, 0644)
	mfs.AddFile("/root/packages/a/package.json", `{"name":"pkg-a"}`, 0644)
	mfs.AddFile("/root/packages/b/package.json", `{"name":"pkg-b"}`, 0644)

	workspaces, err := workspace.Enumerate(mfs, "/root", nil)
	if err != nil {
		t.Fatalf("Enumerate failed: %v", err)
	}
	if len(workspaces) != 3 {
		t.Fatalf("expected 3 workspaces (root + 2 packages), got %d", len(workspaces))
	}

	names := map[string]bool{}
	for _, ws := range workspaces {
		names[ws.Name()] = true
	}
	for _, want := range []string{"root", "pkg-a", "pkg-b"} {
		if !names[want] {
			t.Errorf("missing workspace %q in %v", want, names)
		}
	}
}

func TestEnumerateDeepGlob(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/root/package.json", `{"name":"root","workspaces":["apps/**"]}`, 0644)
	mfs.AddFile("/root/apps/web/frontend/package.json", `{"name":"frontend"}`, 0644)

	workspaces, err := workspace.Enumerate(mfs, "/root", nil)
	if err != nil {
		t.Fatalf("Enumerate failed: %v", err)
	}

	var found bool
	for _, ws := range workspaces {
		if ws.Name() == "frontend" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected to find nested workspace 'frontend', got %+v", workspaces)
	}
}

func TestEnumerateNegatedPattern(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/root/package.json", `{"name":"root","workspaces":["packages/*","!packages/excluded"]}`, 0644)
	mfs.AddFile("/root/packages/kept/package.json", `{"name":"kept"}`, 0644)
	mfs.AddFile("/root/packages/excluded/package.json", `{"name":"excluded"}`, 0644)

	workspaces, err := workspace.Enumerate(mfs, "/root", nil)
	if err != nil {
		t.Fatalf("Enumerate failed: %v", err)
	}

	names := map[string]bool{}
	for _, ws := range workspaces {
		names[ws.Name()] = true
	}
	if !names["kept"] {
		t.Error("expected 'kept' workspace to be present")
	}
	if names["excluded"] {
		t.Error("expected 'excluded' workspace to be filtered out by negated pattern")
	}
}

func TestEnumerateDeepestFirstOrdering(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/root/package.json", `{"name":"root","workspaces":["packages/*"]}`, 0644)
	mfs.AddFile("/root/packages/a/package.json", `{"name":"pkg-a"}`, 0644)

	workspaces, err := workspace.Enumerate(mfs, "/root", nil)
	if err != nil {
		t.Fatalf("Enumerate failed: %v", err)
	}

	// The child workspace must sort before the root so that callers
	// processing workspaces top-to-bottom see children first.
	if workspaces[0].Name() != "pkg-a" {
		t.Errorf("expected pkg-a first (deepest-first order), got %q", workspaces[0].Name())
	}
	if workspaces[len(workspaces)-1].Name() != "root" {
		t.Errorf("expected root last, got %q", workspaces[len(workspaces)-1].Name())
	}
}

func TestEnumerateMissingRootManifest(t *testing.T) {
	mfs := mapfs.New()
	if _, err := workspace.Enumerate(mfs, "/root", nil); err == nil {
		t.Fatal("expected error for missing root package.json")
	}
}

func TestAncestors(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/root/package.json", `{"name":"root","workspaces":["packages/*"]}`, 0644)
	mfs.AddFile("/root/packages/a/package.json", `{"name":"pkg-a"}`, 0644)

	workspaces, err := workspace.Enumerate(mfs, "/root", nil)
	if err != nil {
		t.Fatalf("Enumerate failed: %v", err)
	}

	var child *workspace.Workspace
	for _, ws := range workspaces {
		if ws.Name() == "pkg-a" {
			child = ws
		}
	}
	if child == nil {
		t.Fatal("pkg-a workspace not found")
	}

	ancestors := child.Ancestors()
	if len(ancestors) != 1 || ancestors[0].Name() != "root" {
		t.Errorf("Ancestors() = %+v, want [root]", ancestors)
	}
}
