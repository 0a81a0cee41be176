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

// Package diagnostics provides logging and non-fatal warning accumulation
// for the resolver pipeline. Every stage that can fail partially (plugin
// config parsing, module resolution, source parsing) reports through a
// Collector instead of aborting the run.
package diagnostics

import (
	"fmt"
	"os"
	"sort"
	"sync"
)

// Logger receives free-form operator-facing messages. The default
// implementation writes to stderr; callers needing quiet output (tests,
// --reporter json) swap in a no-op or buffering Logger.
type Logger interface {
	Debug(format string, args ...any)
	Warning(format string, args ...any)
	Error(format string, args ...any)
}

// StderrLogger writes Warning and Error to stderr and discards Debug unless
// Verbose is set.
type StderrLogger struct {
	Verbose bool
}

// NewStderrLogger returns a Logger that writes to stderr.
func NewStderrLogger(verbose bool) *StderrLogger {
	return &StderrLogger{Verbose: verbose}
}

func (l *StderrLogger) Debug(format string, args ...any) {
	if !l.Verbose {
		return
	}
	fmt.Fprintf(os.Stderr, "debug: "+format+"\n", args...)
}

func (l *StderrLogger) Warning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
}

func (l *StderrLogger) Error(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}

// NopLogger discards everything. Used in tests that assert on returned
// warnings rather than printed output.
type NopLogger struct{}

func (NopLogger) Debug(string, ...any)   {}
func (NopLogger) Warning(string, ...any) {}
func (NopLogger) Error(string, ...any)   {}

// WarningKind classifies a diagnostic produced during resolution.
type WarningKind int

const (
	// ResolutionWarning is emitted when a specifier cannot be resolved to a
	// file, package export, or node_modules entry.
	ResolutionWarning WarningKind = iota
	// ParseWarning is emitted when the analyzer fails to parse a source
	// file; the file is still marked reachable but contributes no edges.
	ParseWarning
	// PluginWarning is emitted when a plugin's config file cannot be parsed,
	// or when two plugins claim the same config path.
	PluginWarning
	// ConfigWarning is emitted for non-fatal configuration problems, such as
	// an ignore pattern that matches nothing.
	ConfigWarning
)

// String returns a human-readable name for the warning kind.
func (k WarningKind) String() string {
	switch k {
	case ResolutionWarning:
		return "resolution"
	case ParseWarning:
		return "parse"
	case PluginWarning:
		return "plugin"
	case ConfigWarning:
		return "config"
	default:
		return "unknown"
	}
}

// Warning is a single non-fatal diagnostic tied to a file and, where
// applicable, a specifier.
type Warning struct {
	Kind      WarningKind
	File      string
	Specifier string
	Message   string
}

func (w Warning) String() string {
	if w.Specifier != "" {
		return fmt.Sprintf("%s: %s: %q: %s", w.Kind, w.File, w.Specifier, w.Message)
	}
	return fmt.Sprintf("%s: %s: %s", w.Kind, w.File, w.Message)
}

// Collector accumulates warnings from concurrent workers. It is safe for
// concurrent use by the module graph builder's worker pool.
type Collector struct {
	mu       sync.Mutex
	warnings []Warning
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Add appends a warning. Safe to call from multiple goroutines.
func (c *Collector) Add(w Warning) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warnings = append(c.warnings, w)
}

// Resolution records a ResolutionWarning.
func (c *Collector) Resolution(file, specifier, message string) {
	c.Add(Warning{Kind: ResolutionWarning, File: file, Specifier: specifier, Message: message})
}

// Parse records a ParseWarning.
func (c *Collector) Parse(file, message string) {
	c.Add(Warning{Kind: ParseWarning, File: file, Message: message})
}

// Plugin records a PluginWarning.
func (c *Collector) Plugin(file, message string) {
	c.Add(Warning{Kind: PluginWarning, File: file, Message: message})
}

// Config records a ConfigWarning.
func (c *Collector) Config(file, message string) {
	c.Add(Warning{Kind: ConfigWarning, File: file, Message: message})
}

// All returns a deterministically sorted copy of the accumulated warnings,
// ordered by file then specifier then kind.
func (c *Collector) All() []Warning {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Warning, len(c.warnings))
	copy(out, c.warnings)

	sort.Slice(out, func(i, j int) bool {
		if out[i].File != out[j].File {
			return out[i].File < out[j].File
		}
		if out[i].Specifier != out[j].Specifier {
			return out[i].Specifier < out[j].Specifier
		}
		return out[i].Kind < out[j].Kind
	})

	return out
}

// Len returns the number of accumulated warnings.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.warnings)
}

// ByKind returns only the warnings of the given kind, preserving the sort
// order of All.
func (c *Collector) ByKind(kind WarningKind) []Warning {
	var out []Warning
	for _, w := range c.All() {
		if w.Kind == kind {
			out = append(out, w)
		}
	}
	return out
}
