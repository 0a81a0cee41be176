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
	"embed"
	"fmt"
	"path"
	"sync"

	ts "github.com/tree-sitter/go-tree-sitter"
	tsTypescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

//go:embed queries/*/*.scm
var queryFiles embed.FS

var language = ts.NewLanguage(tsTypescript.LanguageTypescript())

// tsParserPool recycles tree-sitter parsers across concurrent analyzer
// calls. Grammar load failure (SetLanguage returning an error) is a
// programmer error, not a runtime one -- it panics.
var tsParserPool = sync.Pool{
	New: func() any {
		parser := ts.NewParser()
		if err := parser.SetLanguage(language); err != nil {
			panic("analyzer: failed to set TypeScript language: " + err.Error())
		}
		return parser
	},
}

func getParser() *ts.Parser {
	return tsParserPool.Get().(*ts.Parser)
}

func putParser(p *ts.Parser) {
	p.Reset()
	tsParserPool.Put(p)
}

// queryManager loads and caches the .scm query files bundled with the
// package. The analyzer only ever needs one language, so this is a flat
// name->query map guarded by a mutex for lazy population.
type queryManager struct {
	mu      sync.Mutex
	queries map[string]*ts.Query
}

func (qm *queryManager) get(name string) (*ts.Query, error) {
	qm.mu.Lock()
	defer qm.mu.Unlock()

	if q, ok := qm.queries[name]; ok {
		return q, nil
	}

	queryPath := path.Join("queries", "typescript", name+".scm")
	data, err := queryFiles.ReadFile(queryPath)
	if err != nil {
		return nil, fmt.Errorf("analyzer: read query %s: %w", queryPath, err)
	}

	q, err := ts.NewQuery(language, string(data))
	if err != nil {
		return nil, fmt.Errorf("analyzer: parse query %s: %w", queryPath, err)
	}

	if qm.queries == nil {
		qm.queries = make(map[string]*ts.Query)
	}
	qm.queries[name] = q
	return q, nil
}

var (
	globalQM     = &queryManager{}
	globalQMOnce sync.Once
	globalQuery  *ts.Query
	globalQMErr  error
)

// statementsQuery returns the shared "statements" query, loading it on
// first use.
func statementsQuery() (*ts.Query, error) {
	globalQMOnce.Do(func() {
		globalQuery, globalQMErr = globalQM.get("statements")
	})
	return globalQuery, globalQMErr
}
