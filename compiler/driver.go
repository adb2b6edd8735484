package compiler

import (
	"path/filepath"

	"github.com/tliron/commonlog"

	"github.com/chazu/catlang/vm"
)

// ---------------------------------------------------------------------------
// Compile driver: source text -> chunk, with per-statement recovery
// ---------------------------------------------------------------------------

// Options configures a compilation.
type Options struct {
	// SourceName labels diagnostics and the chunk (defaults to "<input>").
	SourceName string

	// Oracle is consulted on parse errors; nil disables suggestions.
	Oracle SuggestionOracle

	// AutoFix re-parses oracle rewrites in place of failing statements
	// (CB_AUTOFIX).
	AutoFix bool
}

// Result is the outcome of a compilation. A chunk is produced even when
// some statements failed; their diagnostics are collected in Diags and
// the offending statements are dropped.
type Result struct {
	Chunk *vm.Chunk
	Diags []*Error
}

// Failed reports whether any statement was dropped.
func (r *Result) Failed() bool { return len(r.Diags) > 0 }

// CompileFile expands includes relative to the file's directory and
// compiles the result. Diagnostics are mapped back through the origin map
// to the file (and line) each statement came from.
func CompileFile(path string) (*Result, error) {
	return CompileFileWith(path, Options{SourceName: path, Oracle: StaticOracle{}})
}

// CompileFileWith is CompileFile with explicit options.
func CompileFileWith(path string, opts Options) (*Result, error) {
	expanded, origins, err := ExpandFile(path)
	if err != nil {
		return nil, err
	}
	if opts.SourceName == "" {
		opts.SourceName = path
	}
	return compileExpanded(expanded, origins, opts), nil
}

// CompileSource compiles source text that did not come from a file.
// Includes still expand, relative to the current directory.
func CompileSource(src string, opts Options) *Result {
	if opts.SourceName == "" {
		opts.SourceName = "<input>"
	}
	expanded, origins := ExpandSource(src, ".", opts.SourceName)
	return compileExpanded(expanded, origins, opts)
}

func compileExpanded(expanded string, origins *OriginMap, opts Options) *Result {
	log := commonlog.GetLogger("catlang.compiler")
	gen := NewCodegen(opts.SourceName)
	result := &Result{}

	stmts := AccumulateStatements(expanded)
	log.Debugf("compiling %s: %d statements", opts.SourceName, len(stmts))

	for _, stmt := range stmts {
		ast, perr := parseStatementText(stmt.Text, stmt.Line, stmt.Col, opts.SourceName)
		if perr != nil {
			perr = locate(perr, origins, opts.SourceName)
			if opts.Oracle != nil {
				if sug, ok := opts.Oracle.Suggest(stmt.Text, perr); ok {
					perr.Hint = sug.Suggestion
					if opts.AutoFix {
						if fixedAst, ferr := parseStatementText(sug.Fixed, stmt.Line, stmt.Col, opts.SourceName); ferr == nil {
							log.Infof("auto-fixed statement at line %d: %s", stmt.Line, sug.Suggestion)
							ast = fixedAst
							perr = nil
						}
					}
				}
			}
			if perr != nil {
				result.Diags = append(result.Diags, perr)
				continue // drop the statement, keep compiling
			}
		}

		if cerr := gen.CompileStatement(ast, stmt.Line, stmt.Col); cerr != nil {
			result.Diags = append(result.Diags, locate(cerr, origins, opts.SourceName))
		}
	}

	result.Chunk = gen.Finish()
	return result
}

// parseStatementText lexes and parses one statement with positions offset
// to its place in the expanded source.
func parseStatementText(text string, line, col int, sourceName string) (Stmt, *Error) {
	lexer := NewLexerAt(text, line, col)
	tokens, lerr := lexer.ScanAll()
	if lerr != nil {
		lerr.Source = sourceName
		return nil, lerr
	}
	parser := NewParser(tokens, sourceName)
	return parser.ParseStatement()
}

// locate maps a diagnostic's physical line back through the origin map to
// "at <file>:<line>" coordinates.
func locate(e *Error, origins *OriginMap, fallback string) *Error {
	if origins == nil || origins.Len() == 0 {
		if e.Source == "" {
			e.Source = fallback
		}
		return e
	}
	origin := origins.Lookup(e.Line)
	if origin.File != "" {
		e.Source = shortPath(origin.File)
		e.Line = origin.Line
	} else if e.Source == "" {
		e.Source = fallback
	}
	return e
}

func shortPath(path string) string {
	if rel, err := filepath.Rel(".", path); err == nil && len(rel) < len(path) {
		return rel
	}
	return path
}
