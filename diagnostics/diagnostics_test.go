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
package diagnostics_test

import (
	"sync"
	"testing"

	"bennypowers.dev/knipgo/diagnostics"
)

func TestCollectorAccumulatesInOrder(t *testing.T) {
	c := diagnostics.NewCollector()
	c.Resolution("src/b.ts", "./missing", "no such file")
	c.Parse("src/a.ts", "unexpected token")
	c.Plugin("knip.json", "duplicate config owner")

	if got := c.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}

	all := c.All()
	if len(all) != 3 {
		t.Fatalf("All() returned %d warnings, want 3", len(all))
	}
	// Sorted by file: knip.json, src/a.ts, src/b.ts
	if all[0].File != "knip.json" || all[1].File != "src/a.ts" || all[2].File != "src/b.ts" {
		t.Errorf("All() order = %+v, want sorted by file", all)
	}
}

func TestCollectorByKind(t *testing.T) {
	c := diagnostics.NewCollector()
	c.Resolution("src/a.ts", "./x", "unresolved")
	c.Resolution("src/b.ts", "./y", "unresolved")
	c.Parse("src/c.ts", "syntax error")

	resolutions := c.ByKind(diagnostics.ResolutionWarning)
	if len(resolutions) != 2 {
		t.Fatalf("ByKind(ResolutionWarning) = %d, want 2", len(resolutions))
	}

	parses := c.ByKind(diagnostics.ParseWarning)
	if len(parses) != 1 {
		t.Fatalf("ByKind(ParseWarning) = %d, want 1", len(parses))
	}
}

func TestCollectorConcurrentAdd(t *testing.T) {
	c := diagnostics.NewCollector()

	var wg sync.WaitGroup
	for i := range 100 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Resolution("src/file.ts", "./x", "unresolved")
		}(i)
	}
	wg.Wait()

	if got := c.Len(); got != 100 {
		t.Errorf("Len() = %d, want 100", got)
	}
}

func TestWarningString(t *testing.T) {
	w := diagnostics.Warning{
		Kind:      diagnostics.ResolutionWarning,
		File:      "src/a.ts",
		Specifier: "./missing",
		Message:   "no such file",
	}
	want := `resolution: src/a.ts: "./missing": no such file`
	if got := w.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	w2 := diagnostics.Warning{Kind: diagnostics.PluginWarning, File: "knip.json", Message: "bad json"}
	want2 := "plugin: knip.json: bad json"
	if got := w2.String(); got != want2 {
		t.Errorf("String() = %q, want %q", got, want2)
	}
}

func TestWarningKindString(t *testing.T) {
	cases := map[diagnostics.WarningKind]string{
		diagnostics.ResolutionWarning: "resolution",
		diagnostics.ParseWarning:      "parse",
		diagnostics.PluginWarning:     "plugin",
		diagnostics.ConfigWarning:     "config",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("%v.String() = %q, want %q", kind, got, want)
		}
	}
}

func TestNopLoggerDoesNotPanic(t *testing.T) {
	var l diagnostics.Logger = diagnostics.NopLogger{}
	l.Debug("x")
	l.Warning("y")
	l.Error("z")
}
