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

package analyzer

import (
	"fmt"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"
)

func analyzeTypeScript(path string, src []byte) (Result, error) {
	query, err := statementsQuery()
	if err != nil {
		return Result{}, err
	}

	parser := getParser()
	defer putParser(parser)

	tree := parser.Parse(src, nil)
	if tree == nil {
		return Result{}, fmt.Errorf("analyzer: failed to parse %s", path)
	}
	defer tree.Close()

	cursor := ts.NewQueryCursor()
	defer cursor.Close()

	var (
		result   Result
		comments []jsdocComment
	)

	matches := cursor.Matches(query, tree.RootNode(), src)
	names := query.CaptureNames()
	for {
		match := matches.Next()
		if match == nil {
			break
		}
		for _, capture := range match.Captures {
			node := capture.Node
			switch names[capture.Index] {
			case "import.statement":
				if imp, ok := extractImportStatement(node, src); ok {
					result.Imports = append(result.Imports, imp)
				}
			case "dynamicImport.arg":
				if spec, ok := stringLiteralText(node, src); ok {
					result.Imports = append(result.Imports, Import{
						Specifier: spec,
						IsDynamic: true,
						Line:      line(node),
					})
				}
			case "export.statement":
				exps := extractExportStatement(node, src)
				result.Exports = append(result.Exports, exps...)
				// A re-export is also an import edge onto its source module.
				if len(exps) > 0 && exps[0].ReexportFrom != "" {
					imp := Import{Specifier: exps[0].ReexportFrom, Line: exps[0].Line}
					for _, e := range exps {
						if e.Kind == ExportNamespaceReexport {
							imp.Namespace = true
							continue
						}
						imp.Names = append(imp.Names, ImportedName{External: e.LocalName, Local: e.ExternalName})
					}
					result.Imports = append(result.Imports, imp)
				}
			case "class.declaration":
				result.Exports = append(result.Exports, extractClassMembers(node, src)...)
			case "enum.declaration":
				result.Exports = append(result.Exports, extractEnumMembers(node, src)...)
			case "comment":
				if c, ok := parseJSDocComment(node, src); ok {
					comments = append(comments, c)
				}
			}
		}
	}

	attachJSDocTags(result.Exports, comments)
	return result, nil
}

func line(n ts.Node) int {
	return int(n.StartPosition().Row) + 1
}

// stringLiteralText returns the unquoted contents of a `string` node
// (walking down to its `string_fragment` child), or the node's own text
// with surrounding quotes trimmed as a fallback.
func stringLiteralText(n ts.Node, src []byte) (string, bool) {
	str := n
	if str.Kind() != "string" {
		for i := uint(0); i < n.NamedChildCount(); i++ {
			c := n.NamedChild(i)
			if c.Kind() == "string" {
				str = c
				break
			}
		}
	}
	for i := uint(0); i < str.NamedChildCount(); i++ {
		c := str.NamedChild(i)
		if c.Kind() == "string_fragment" {
			return c.Utf8Text(src), true
		}
	}
	text := strings.Trim(str.Utf8Text(src), "\"'`")
	if text == "" {
		return "", false
	}
	return text, true
}

func sourceOf(n ts.Node, src []byte) (string, bool) {
	sourceNode := n.ChildByFieldName("source")
	if !sourceNode.IsNull() {
		return stringLiteralText(sourceNode, src)
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		c := n.Child(i)
		if c.Kind() == "string" {
			return stringLiteralText(c, src)
		}
	}
	return "", false
}

// extractImportStatement handles every `import ...` shape: default,
// namespace, named (with aliases), combined default+named, type-only, and
// bare side-effect imports.
func extractImportStatement(n ts.Node, src []byte) (Import, bool) {
	specifier, ok := sourceOf(n, src)
	if !ok {
		return Import{}, false
	}

	imp := Import{Specifier: specifier, Line: line(n)}

	// "import type { X } from ..." puts a bare "type" token right after
	// "import"; walk every child of the statement, flagging that token
	// and handing the import clause to walkImportClause.
	for i := uint(0); i < n.ChildCount(); i++ {
		c := n.Child(i)
		switch c.Kind() {
		case "type":
			imp.IsTypeOnly = true
		case "import_clause":
			walkImportClause(c, src, &imp)
		}
	}

	if len(imp.Names) == 0 && !imp.Namespace {
		imp.SideEffect = true
	}

	return imp, true
}

func walkImportClause(clause ts.Node, src []byte, imp *Import) {
	for i := uint(0); i < clause.NamedChildCount(); i++ {
		c := clause.NamedChild(i)
		switch c.Kind() {
		case "identifier":
			name := c.Utf8Text(src)
			imp.Names = append(imp.Names, ImportedName{External: "default", Local: name})
		case "namespace_import":
			imp.Namespace = true
		case "named_imports":
			for j := uint(0); j < c.NamedChildCount(); j++ {
				spec := c.NamedChild(j)
				if spec.Kind() != "import_specifier" {
					continue
				}
				nameNode := spec.ChildByFieldName("name")
				aliasNode := spec.ChildByFieldName("alias")
				if nameNode.IsNull() {
					continue
				}
				external := nameNode.Utf8Text(src)
				local := external
				if !aliasNode.IsNull() {
					local = aliasNode.Utf8Text(src)
				}
				imp.Names = append(imp.Names, ImportedName{External: external, Local: local})
			}
		}
	}
}

// extractExportStatement handles `export * from`, `export { a, b } from`,
// `export { a, b }`, `export default ...`, and
// `export const/function/class/interface/type/enum ...`.
func extractExportStatement(n ts.Node, src []byte) []Export {
	ln := line(n)

	hasStar := false
	hasDefault := false
	var exportClause ts.Node
	var declaration ts.Node
	for i := uint(0); i < n.ChildCount(); i++ {
		c := n.Child(i)
		switch c.Kind() {
		case "*":
			hasStar = true
		case "default":
			hasDefault = true
		case "export_clause":
			exportClause = c
		}
	}
	if d := n.ChildByFieldName("declaration"); !d.IsNull() {
		declaration = d
	}

	source, hasSource := sourceOf(n, src)

	switch {
	case hasStar:
		return []Export{{
			LocalName:     "*",
			ExternalName:  "*",
			Kind:          ExportNamespaceReexport,
			Line:          ln,
			ReexportFrom:  source,
		}}

	case !exportClause.IsNull():
		var out []Export
		for i := uint(0); i < exportClause.NamedChildCount(); i++ {
			spec := exportClause.NamedChild(i)
			if spec.Kind() != "export_specifier" {
				continue
			}
			nameNode := spec.ChildByFieldName("name")
			aliasNode := spec.ChildByFieldName("alias")
			if nameNode.IsNull() {
				continue
			}
			local := nameNode.Utf8Text(src)
			external := local
			if !aliasNode.IsNull() {
				external = aliasNode.Utf8Text(src)
			}
			exp := Export{LocalName: local, ExternalName: external, Kind: ExportValue, Line: ln}
			if hasSource {
				exp.ReexportFrom = source
			}
			out = append(out, exp)
		}
		return out

	case hasDefault:
		name := "default"
		if !declaration.IsNull() {
			if nameNode := declaration.ChildByFieldName("name"); !nameNode.IsNull() {
				name = nameNode.Utf8Text(src)
			}
		}
		return []Export{{LocalName: name, ExternalName: "default", Kind: ExportDefault, Line: ln}}

	case !declaration.IsNull():
		return exportsFromDeclaration(declaration, src, ln)
	}

	return nil
}

func exportsFromDeclaration(decl ts.Node, src []byte, ln int) []Export {
	switch decl.Kind() {
	case "lexical_declaration", "variable_declaration":
		var out []Export
		for i := uint(0); i < decl.NamedChildCount(); i++ {
			d := decl.NamedChild(i)
			if d.Kind() != "variable_declarator" {
				continue
			}
			nameNode := d.ChildByFieldName("name")
			if nameNode.IsNull() || nameNode.Kind() != "identifier" {
				continue
			}
			name := nameNode.Utf8Text(src)
			out = append(out, Export{LocalName: name, ExternalName: name, Kind: ExportValue, Line: ln})
		}
		return out

	case "ambient_declaration":
		// `export declare function f(): void;` and the like: the exported
		// binding is the ambient declaration's own named child.
		for i := uint(0); i < decl.NamedChildCount(); i++ {
			if out := exportsFromDeclaration(decl.NamedChild(i), src, ln); len(out) > 0 {
				return out
			}
		}
		return nil

	case "function_declaration", "function_signature", "class_declaration", "abstract_class_declaration", "enum_declaration":
		nameNode := decl.ChildByFieldName("name")
		if nameNode.IsNull() {
			return nil
		}
		name := nameNode.Utf8Text(src)
		return []Export{{LocalName: name, ExternalName: name, Kind: ExportValue, Line: ln}}

	case "interface_declaration", "type_alias_declaration":
		nameNode := decl.ChildByFieldName("name")
		if nameNode.IsNull() {
			return nil
		}
		name := nameNode.Utf8Text(src)
		return []Export{{LocalName: name, ExternalName: name, Kind: ExportType, Line: ln}}
	}
	return nil
}

// extractClassMembers returns member-kind Exports for every method and
// field declared directly in a class body. It does not gate on whether
// the class itself is exported: member-usage tracking is a textual,
// project-wide heuristic (see modgraph), not a type-aware one, so a
// class's own export status is resolved separately by
// exportsFromDeclaration when the class_declaration sits under an
// export_statement.
func extractClassMembers(n ts.Node, src []byte) []Export {
	nameNode := n.ChildByFieldName("name")
	if nameNode.IsNull() {
		return nil
	}
	owner := nameNode.Utf8Text(src)

	body := n.ChildByFieldName("body")
	if body.IsNull() {
		return nil
	}

	var out []Export
	for i := uint(0); i < body.NamedChildCount(); i++ {
		member := body.NamedChild(i)
		switch member.Kind() {
		case "method_definition", "public_field_definition":
			nameNode := member.ChildByFieldName("name")
			if nameNode.IsNull() {
				continue
			}
			name := nameNode.Utf8Text(src)
			if name == "constructor" {
				continue
			}
			out = append(out, Export{
				LocalName:    owner + "." + name,
				ExternalName: name,
				Owner:        owner,
				Kind:         ExportClassMember,
				Line:         line(member),
			})
		}
	}
	return out
}

// extractEnumMembers returns member-kind Exports for every member of an
// enum_declaration, regardless of whether the enum itself is exported
// (same rationale as extractClassMembers).
func extractEnumMembers(n ts.Node, src []byte) []Export {
	nameNode := n.ChildByFieldName("name")
	if nameNode.IsNull() {
		return nil
	}
	owner := nameNode.Utf8Text(src)

	body := n.ChildByFieldName("body")
	if body.IsNull() {
		return nil
	}

	var out []Export
	for i := uint(0); i < body.NamedChildCount(); i++ {
		member := body.NamedChild(i)
		var nameNode ts.Node
		switch member.Kind() {
		case "property_identifier":
			nameNode = member
		case "enum_assignment":
			nameNode = member.ChildByFieldName("name")
		default:
			continue
		}
		if nameNode.IsNull() {
			continue
		}
		name := nameNode.Utf8Text(src)
		out = append(out, Export{
			LocalName:    owner + "." + name,
			ExternalName: name,
			Owner:        owner,
			Kind:         ExportEnumMember,
			Line:         line(member),
		})
	}
	return out
}

// jsdocComment is a block comment that might tag the declaration
// immediately following it.
type jsdocComment struct {
	endLine int
	tags    []string
}

var knownTags = []string{"public", "internal"}

func parseJSDocComment(n ts.Node, src []byte) (jsdocComment, bool) {
	text := n.Utf8Text(src)
	if !strings.HasPrefix(text, "/**") {
		return jsdocComment{}, false
	}
	var tags []string
	for _, tag := range knownTags {
		if strings.Contains(text, "@"+tag) {
			tags = append(tags, tag)
		}
	}
	if len(tags) == 0 {
		return jsdocComment{}, false
	}
	return jsdocComment{endLine: int(n.EndPosition().Row) + 1, tags: tags}, true
}

// attachJSDocTags attaches each comment's tags to every export whose
// statement begins on the line directly after the comment ends.
func attachJSDocTags(exports []Export, comments []jsdocComment) {
	if len(comments) == 0 {
		return
	}
	byLine := make(map[int][]string, len(comments))
	for _, c := range comments {
		byLine[c.endLine+1] = append(byLine[c.endLine+1], c.tags...)
	}
	for i := range exports {
		if tags, ok := byLine[exports[i].Line]; ok {
			exports[i].Tags = append(exports[i].Tags, tags...)
		}
	}
}
