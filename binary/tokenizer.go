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

package binary

import (
	"regexp"
	"strings"
)

// splitSegments breaks a package.json script command into the individual
// commands it chains together with &&, ||, ;, or |. This is a
// purpose-built splitter, not a shell grammar: it understands single and
// double quoting well enough to not split inside a quoted argument, and
// nothing else (no subshells, no here-docs, no backslash line
// continuations).
func splitSegments(command string) []string {
	var segments []string
	var current strings.Builder

	var quote rune
	runes := []rune(command)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case quote != 0:
			current.WriteRune(r)
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
			current.WriteRune(r)
		case r == '&' && i+1 < len(runes) && runes[i+1] == '&':
			segments = append(segments, current.String())
			current.Reset()
			i++
		case r == '|' && i+1 < len(runes) && runes[i+1] == '|':
			segments = append(segments, current.String())
			current.Reset()
			i++
		case r == ';' || r == '|':
			segments = append(segments, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	segments = append(segments, current.String())

	out := make([]string, 0, len(segments))
	for _, s := range segments {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// envAssignment matches a leading "FOO=bar" environment variable
// assignment at the start of a command segment.
var envAssignment = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*=\S*$`)

// tokenize splits a single command segment into whitespace-separated
// tokens, keeping quoted substrings (with their quotes stripped) intact
// as one token.
func tokenize(segment string) []string {
	var tokens []string
	var current strings.Builder
	var quote rune
	inToken := false

	flush := func() {
		if inToken {
			tokens = append(tokens, current.String())
			current.Reset()
			inToken = false
		}
	}

	for _, r := range segment {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			inToken = true
		case r == ' ' || r == '\t':
			flush()
		default:
			inToken = true
			current.WriteRune(r)
		}
	}
	flush()
	return tokens
}

// stripEnvAssignments drops leading "FOO=bar" tokens, returning the
// tokens starting from the actual command.
func stripEnvAssignments(tokens []string) []string {
	i := 0
	for i < len(tokens) && envAssignment.MatchString(tokens[i]) {
		i++
	}
	return tokens[i:]
}
