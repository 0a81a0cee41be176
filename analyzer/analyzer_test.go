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

func TestDetectKind(t *testing.T) {
	cases := map[string]analyzer.Kind{
		"src/index.ts":   analyzer.KindTypeScript,
		"src/index.tsx":  analyzer.KindTypeScript,
		"src/index.js":   analyzer.KindTypeScript,
		"public/app.html": analyzer.KindHTML,
		"src/widget.vue":  analyzer.KindOpaque,
	}
	for path, want := range cases {
		if got := analyzer.DetectKind(path); got != want {
			t.Errorf("DetectKind(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestAnalyzeHTML(t *testing.T) {
	src := []byte(`<html><body>
		<script type="module" src="./main.js"></script>
		<script>console.log("inline")</script>
	</body></html>`)

	result, err := analyzer.Analyze("index.html", src, analyzer.KindHTML)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(result.ScriptRefs) != 1 || result.ScriptRefs[0] != "./main.js" {
		t.Errorf("ScriptRefs = %v, want [\"./main.js\"]", result.ScriptRefs)
	}
}
