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

package dependency_test

import (
	"testing"

	"bennypowers.dev/knipgo/dependency"
	"bennypowers.dev/knipgo/packagejson"
	"bennypowers.dev/knipgo/workspace"
)

func TestAttributeListedAtSelf(t *testing.T) {
	ws := &workspace.Workspace{
		Dir: "/proj",
		Manifest: &packagejson.PackageJSON{
			Name:         "root",
			Dependencies: map[string]string{"lit": "^3.0.0"},
		},
	}

	got := dependency.Attribute([]dependency.Ref{{Package: "lit", ImportingWorkspace: ws}})
	if len(got) != 1 || got[0].Status != dependency.Listed || got[0].Owner != ws {
		t.Fatalf("expected lit to be listed at root, got %+v", got)
	}
}

func TestAttributeWalksAncestryChain(t *testing.T) {
	root := &workspace.Workspace{
		Dir: "/proj",
		Manifest: &packagejson.PackageJSON{
			Name:         "root",
			Dependencies: map[string]string{"lit": "^3.0.0"},
		},
	}
	child := &workspace.Workspace{
		Dir:      "/proj/packages/a",
		Manifest: &packagejson.PackageJSON{Name: "a"},
		Parent:   root,
	}

	got := dependency.Attribute([]dependency.Ref{{Package: "lit", ImportingWorkspace: child}})
	if len(got) != 1 || got[0].Status != dependency.Listed || got[0].Owner != root {
		t.Fatalf("expected lit to be found on ancestor root, got %+v", got)
	}
}

func TestAttributeUnlisted(t *testing.T) {
	ws := &workspace.Workspace{
		Dir:      "/proj",
		Manifest: &packagejson.PackageJSON{Name: "root"},
	}

	got := dependency.Attribute([]dependency.Ref{{Package: "left-pad", ImportingWorkspace: ws}})
	if len(got) != 1 || got[0].Status != dependency.Unlisted {
		t.Fatalf("expected left-pad to be unlisted, got %+v", got)
	}
}

func TestAttributeTypesPackageAutoLinksToRuntimePackage(t *testing.T) {
	ws := &workspace.Workspace{
		Dir: "/proj",
		Manifest: &packagejson.PackageJSON{
			Name:         "root",
			Dependencies: map[string]string{"react": "^18.0.0"},
		},
	}

	got := dependency.Attribute([]dependency.Ref{{Package: "@types/react", ImportingWorkspace: ws}})
	if len(got) != 1 || got[0].Status != dependency.Listed {
		t.Fatalf("expected @types/react to link to react dependency, got %+v", got)
	}
}
