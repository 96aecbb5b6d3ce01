// Package dbtest provides an in-memory database.Executor for tests.
package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"pglens/internal/database"
	"pglens/internal/models"
)

// Matcher selects the statements a handler answers.
type Matcher func(sql string, params []any) bool

// SQLContains matches statements containing sub.
func SQLContains(sub string) Matcher {
	return func(sql string, _ []any) bool {
		return strings.Contains(sql, sub)
	}
}

// ParamEquals matches statements containing sub whose first parameter is p.
func ParamEquals(sub string, p any) Matcher {
	return func(sql string, params []any) bool {
		return strings.Contains(sql, sub) && len(params) > 0 && params[0] == p
	}
}

// Call is one recorded Execute invocation.
type Call struct {
	Args   database.ConnectionArgs
	SQL    string
	Params []any
}

type handler struct {
	match Matcher
	fn    func(params []any) (*database.QueryResult, error)
}

// Executor answers statements from registered handlers. Handlers registered
// later take precedence, so a test can stub the catalog and then override a
// single probe.
type Executor struct {
	mu       sync.Mutex
	handlers []handler
	calls    []Call
}

func New() *Executor {
	return &Executor{}
}

func (f *Executor) Handle(match Matcher, fn func(params []any) (*database.QueryResult, error)) *Executor {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers = append(f.handlers, handler{match: match, fn: fn})
	return f
}

func (f *Executor) Returns(match Matcher, result *database.QueryResult) *Executor {
	return f.Handle(match, func([]any) (*database.QueryResult, error) { return result, nil })
}

func (f *Executor) Fails(match Matcher, err error) *Executor {
	return f.Handle(match, func([]any) (*database.QueryResult, error) { return nil, err })
}

func (f *Executor) Execute(ctx context.Context, args database.ConnectionArgs, sql string, params ...any) (*database.QueryResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.calls = append(f.calls, Call{Args: args, SQL: sql, Params: params})
	var fn func([]any) (*database.QueryResult, error)
	for i := len(f.handlers) - 1; i >= 0; i-- {
		if f.handlers[i].match(sql, params) {
			fn = f.handlers[i].fn
			break
		}
	}
	f.mu.Unlock()

	if fn == nil {
		return nil, fmt.Errorf("dbtest: no handler for %q", sql)
	}

	result, err := fn(params)
	if err != nil {
		return nil, err
	}
	out := *result
	out.SQL = sql
	out.Params = params
	if out.Params == nil {
		out.Params = []any{}
	}
	return &out, nil
}

// Calls returns the recorded invocations.
func (f *Executor) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsMatching returns the recorded invocations whose SQL contains sub.
func (f *Executor) CallsMatching(sub string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if strings.Contains(c.SQL, sub) {
			out = append(out, c)
		}
	}
	return out
}

// Result builds a result with untyped (text) columns.
func Result(columns []string, rows ...[]any) *database.QueryResult {
	metas := make([]database.ColumnMeta, len(columns))
	for i, c := range columns {
		metas[i] = database.ColumnMeta{Name: c, Type: "text", OrderIdx: i}
	}
	out := &database.QueryResult{Columns: metas, Rows: []database.Row{}}
	for _, r := range rows {
		out.Rows = append(out.Rows, database.NewRow(columns, r))
	}
	return out
}

// Statement fragments that identify each catalog probe.
const (
	TablesProbe      = "information_schema.tables t"
	ColumnsProbe     = "FROM information_schema.columns c"
	KeyColumnsProbe  = "tc.constraint_type = $1"
	ForeignKeysProbe = "'FOREIGN KEY'"
)

// StubCatalog answers the five catalog probes with the contents of snap.
func StubCatalog(f *Executor, snap *models.Snapshot) *Executor {
	var tables, columns, pks, uks, fks [][]any

	for _, t := range snap.Tables {
		tables = append(tables, []any{t.Schema, t.Name})
	}
	for _, c := range snap.Columns {
		nullable := "NO"
		if c.Nullable {
			nullable = "YES"
		}
		columns = append(columns, []any{c.Schema, c.Table, c.Name, c.Type, nullable})
	}
	for _, pk := range snap.PrimaryKeys {
		pks = append(pks, []any{pk.Schema, pk.Table, pk.Column, pk.Type, pk.Name})
	}
	for _, uk := range snap.UniqueKeys {
		for _, col := range uk.Columns {
			uks = append(uks, []any{uk.Schema, uk.Table, col, "text", uk.Name})
		}
	}
	for _, fk := range snap.ForeignKeys {
		fks = append(fks, []any{fk.Schema, fk.Name, fk.Table, fk.Column, fk.ReferencedSchema, fk.ReferencedTable, fk.ReferencedColumn})
	}

	keyCols := []string{"table_schema", "table_name", "column_name", "data_type", "constraint_name"}

	return f.
		Returns(SQLContains(TablesProbe), Result([]string{"table_schema", "table_name"}, tables...)).
		Returns(SQLContains(ColumnsProbe), Result([]string{"table_schema", "table_name", "column_name", "data_type", "is_nullable"}, columns...)).
		Returns(ParamEquals(KeyColumnsProbe, "PRIMARY KEY"), Result(keyCols, pks...)).
		Returns(ParamEquals(KeyColumnsProbe, "UNIQUE"), Result(keyCols, uks...)).
		Returns(SQLContains(ForeignKeysProbe), Result([]string{
			"table_schema", "constraint_name", "table_name", "column_name",
			"foreign_table_schema", "foreign_table_name", "foreign_column_name",
		}, fks...))
}
