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

// Package output renders an issues.Report to stdout or, when viper's
// "output" flag is set, to a file.
package output

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"bennypowers.dev/knipgo/fs"
	"bennypowers.dev/knipgo/issues"
)

// Report formats r using the named reporter ("text", "json", or
// "markdown") and writes it to viper's "output" path if set, stdout
// otherwise.
func Report(osfs fs.FileSystem, r issues.Report, format string) error {
	var rendered string
	switch format {
	case "json":
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling report: %w", err)
		}
		rendered = string(data)
	case "markdown":
		rendered = renderMarkdown(r)
	default:
		rendered = renderText(r)
	}

	if outputPath := viper.GetString("output"); outputPath != "" {
		return osfs.WriteFile(outputPath, []byte(rendered+"\n"), 0644)
	}
	fmt.Println(rendered)
	return nil
}

type section struct {
	title string
	items []issues.Item
}

func sections(r issues.Report) []section {
	return []section{
		{"Unused files", r.UnusedFiles},
		{"Unused dependencies", r.UnusedDependencies},
		{"Unlisted dependencies", r.UnlistedDependencies},
		{"Unused exports", r.UnusedExports},
		{"Unused exported members", r.UnusedMembers},
		{"Unlisted binaries", r.UnlistedBinaries},
	}
}

func renderText(r issues.Report) string {
	var b strings.Builder
	empty := true
	for _, s := range sections(r) {
		if len(s.items) == 0 {
			continue
		}
		empty = false
		fmt.Fprintf(&b, "%s (%d)\n", s.title, len(s.items))
		for _, item := range s.items {
			fmt.Fprintf(&b, "  %s\n", describe(item))
		}
	}
	if empty {
		return "No issues found."
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderMarkdown(r issues.Report) string {
	var b strings.Builder
	empty := true
	for _, s := range sections(r) {
		if len(s.items) == 0 {
			continue
		}
		empty = false
		fmt.Fprintf(&b, "## %s (%d)\n\n", s.title, len(s.items))
		for _, item := range s.items {
			fmt.Fprintf(&b, "- %s\n", describe(item))
		}
		b.WriteString("\n")
	}
	if empty {
		return "No issues found.\n"
	}
	return strings.TrimRight(b.String(), "\n")
}

func describe(item issues.Item) string {
	var parts []string
	if item.Workspace != "" {
		parts = append(parts, item.Workspace)
	}
	if item.Path != "" {
		parts = append(parts, item.Path)
	}
	label := item.Symbol
	if item.Owner != "" {
		label = item.Owner + "." + item.Symbol
	}
	if label != "" {
		if item.Line > 0 {
			label = fmt.Sprintf("%s:%d", label, item.Line)
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, " ")
}
