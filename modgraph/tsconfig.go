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

package modgraph

import (
	"encoding/json"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"bennypowers.dev/knipgo/fs"
)

// tsconfig is the subset of tsconfig.json/jsconfig.json relevant to path
// alias resolution.
type tsconfig struct {
	CompilerOptions struct {
		BaseURL string              `json:"baseUrl"`
		Paths   map[string][]string `json:"paths"`
	} `json:"compilerOptions"`
}

// jsoncCommentPattern strips // line comments and /* */ block comments
// well enough for the tsconfig files people actually write: it does not
// understand strings containing "//" inside a JSON value, which in
// practice never collide with tsconfig's own path-like string content.
var jsoncCommentPattern = regexp.MustCompile(`(?s)/\*.*?\*/|//[^\n]*`)

func stripJSONC(data []byte) []byte {
	return jsoncCommentPattern.ReplaceAll(data, nil)
}

// tsconfigCache loads and memoizes tsconfig.json files by directory,
// the same GetOrLoad-shaped once-per-key pattern packagejson.MemoryCache
// uses for package.json.
type tsconfigCache struct {
	fsys fs.FileSystem
	mu   sync.Mutex
	byDir map[string]*tsconfig // nil entry means "no tsconfig found here"
}

func newTSConfigCache(fsys fs.FileSystem) *tsconfigCache {
	return &tsconfigCache{fsys: fsys, byDir: make(map[string]*tsconfig)}
}

// nearest walks upward from dir looking for tsconfig.json or
// jsconfig.json, returning the first one found and the directory it
// lives in. Returns nil if none is found before the filesystem root.
func (c *tsconfigCache) nearest(dir string) (*tsconfig, string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for {
		if cfg, ok := c.byDir[dir]; ok {
			if cfg != nil {
				return cfg, dir
			}
		} else if cfg := c.load(dir); cfg != nil {
			c.byDir[dir] = cfg
			return cfg, dir
		} else {
			c.byDir[dir] = nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, ""
		}
		dir = parent
	}
}

func (c *tsconfigCache) load(dir string) *tsconfig {
	for _, name := range []string{"tsconfig.json", "jsconfig.json"} {
		path := filepath.Join(dir, name)
		data, err := c.fsys.ReadFile(path)
		if err != nil {
			continue
		}
		var cfg tsconfig
		if err := json.Unmarshal(stripJSONC(data), &cfg); err != nil {
			continue
		}
		return &cfg
	}
	return nil
}

// resolveAlias substitutes specifier against a tsconfig's paths/baseUrl
// configuration, returning candidate filesystem paths (without
// extensions) in priority order. Paths patterns are tried longest first
// (ties broken lexically). Returns nil if no paths pattern matches.
func resolveAlias(cfg *tsconfig, cfgDir, specifier string) []string {
	baseDir := cfgDir
	if cfg.CompilerOptions.BaseURL != "" {
		baseDir = filepath.Join(cfgDir, cfg.CompilerOptions.BaseURL)
	}

	patterns := make([]string, 0, len(cfg.CompilerOptions.Paths))
	for pattern := range cfg.CompilerOptions.Paths {
		patterns = append(patterns, pattern)
	}
	sort.Slice(patterns, func(i, j int) bool {
		if len(patterns[i]) != len(patterns[j]) {
			return len(patterns[i]) > len(patterns[j])
		}
		return patterns[i] < patterns[j]
	})

	for _, pattern := range patterns {
		targets := cfg.CompilerOptions.Paths[pattern]
		prefix, hasStar := strings.CutSuffix(pattern, "*")
		if hasStar {
			if !strings.HasPrefix(specifier, prefix) {
				continue
			}
			rest := strings.TrimPrefix(specifier, prefix)
			var candidates []string
			for _, target := range targets {
				targetPrefix, _ := strings.CutSuffix(target, "*")
				candidates = append(candidates, filepath.Join(baseDir, targetPrefix+rest))
			}
			return candidates
		}
		if pattern == specifier {
			var candidates []string
			for _, target := range targets {
				candidates = append(candidates, filepath.Join(baseDir, target))
			}
			return candidates
		}
	}

	if cfg.CompilerOptions.BaseURL != "" {
		return []string{filepath.Join(baseDir, specifier)}
	}

	return nil
}
