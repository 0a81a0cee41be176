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

package analyzer_test

import (
	"testing"

	"bennypowers.dev/knipgo/analyzer"
)

func TestAnalyzeImports(t *testing.T) {
	src := []byte(`
import defaultExport from "./default";
import * as ns from "./namespace";
import { a, b as c } from "./named";
import type { OnlyType } from "./types";
import "./side-effect";
const lazy = () => import("./dynamic");
`)

	result, err := analyzer.Analyze("file.ts", src, analyzer.KindTypeScript)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	bySpecifier := make(map[string]analyzer.Import)
	for _, imp := range result.Imports {
		bySpecifier[imp.Specifier] = imp
	}

	if imp, ok := bySpecifier["./default"]; !ok || len(imp.Names) != 1 || imp.Names[0].External != "default" {
		t.Errorf("default import not extracted correctly: %+v", imp)
	}
	if imp, ok := bySpecifier["./namespace"]; !ok || !imp.Namespace {
		t.Errorf("namespace import not extracted correctly: %+v", imp)
	}
	if imp, ok := bySpecifier["./named"]; !ok || len(imp.Names) != 2 {
		t.Errorf("named imports not extracted correctly: %+v", imp)
	} else {
		found := false
		for _, n := range imp.Names {
			if n.External == "b" && n.Local == "c" {
				found = true
			}
		}
		if !found {
			t.Errorf("aliased named import not found: %+v", imp.Names)
		}
	}
	if imp, ok := bySpecifier["./types"]; !ok || !imp.IsTypeOnly {
		t.Errorf("type-only import not flagged: %+v", imp)
	}
	if imp, ok := bySpecifier["./side-effect"]; !ok || !imp.SideEffect {
		t.Errorf("side-effect import not flagged: %+v", imp)
	}
	if imp, ok := bySpecifier["./dynamic"]; !ok || !imp.IsDynamic {
		t.Errorf("dynamic import not flagged: %+v", imp)
	}
}

func TestAnalyzeExports(t *testing.T) {
	src := []byte(`
export const x = 1;
export function helper() {}
export class Thing {}
export default function main() {}
export * from "./reexport";
export { a, b as bAlias } from "./forward";
`)

	result, err := analyzer.Analyze("file.ts", src, analyzer.KindTypeScript)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	byExternal := make(map[string]analyzer.Export)
	for _, exp := range result.Exports {
		byExternal[exp.ExternalName] = exp
	}

	for _, name := range []string{"x", "helper", "Thing"} {
		if _, ok := byExternal[name]; !ok {
			t.Errorf("expected export %q not found in %+v", name, result.Exports)
		}
	}
	if exp, ok := byExternal["default"]; !ok || exp.Kind != analyzer.ExportDefault {
		t.Errorf("default export not extracted: %+v", exp)
	}
	if exp, ok := byExternal["*"]; !ok || exp.ReexportFrom != "./reexport" {
		t.Errorf("export * from not extracted: %+v", exp)
	}
	if exp, ok := byExternal["bAlias"]; !ok || exp.ReexportFrom != "./forward" || exp.LocalName != "b" {
		t.Errorf("aliased forwarded export not extracted: %+v", exp)
	}
}

func TestAnalyzeEnumAndClassMembers(t *testing.T) {
	src := []byte(`
export enum Color {
  Red,
  Green,
}

export class Widget {
  name = "";
  render() {}
}
`)

	result, err := analyzer.Analyze("file.ts", src, analyzer.KindTypeScript)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	var enumMembers, classMembers int
	for _, exp := range result.Exports {
		switch exp.Kind {
		case analyzer.ExportEnumMember:
			enumMembers++
			if exp.Owner != "Color" {
				t.Errorf("enum member owner = %q, want Color", exp.Owner)
			}
		case analyzer.ExportClassMember:
			classMembers++
			if exp.Owner != "Widget" {
				t.Errorf("class member owner = %q, want Widget", exp.Owner)
			}
		}
	}
	if enumMembers != 2 {
		t.Errorf("enumMembers = %d, want 2", enumMembers)
	}
	if classMembers != 2 {
		t.Errorf("classMembers = %d, want 2", classMembers)
	}
}

func TestAnalyzeJSDocTags(t *testing.T) {
	src := []byte(`
/**
 * @public
 */
export const widelyUsed = 1;

export const plain = 2;
`)

	result, err := analyzer.Analyze("file.ts", src, analyzer.KindTypeScript)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	for _, exp := range result.Exports {
		switch exp.ExternalName {
		case "widelyUsed":
			if !exp.HasTag("public") {
				t.Errorf("widelyUsed should carry @public tag, got %+v", exp.Tags)
			}
		case "plain":
			if exp.HasTag("public") {
				t.Errorf("plain should not carry @public tag")
			}
		}
	}
}
