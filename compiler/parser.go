package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Parser: dual-surface recursive descent with Pratt-style precedence
// ---------------------------------------------------------------------------

// Parser parses one logical statement. Two surface syntaxes co-exist: a
// natural-language "English" style and a C-like "concise" style; both
// lower to the same AST. Disambiguation points save the cursor and
// backtrack, so the grammar is not LL(1).
type Parser struct {
	tokens []Token
	pos    int
	source string
}

// NewParser creates a parser over a pre-lexed token slice.
func NewParser(tokens []Token, sourceName string) *Parser {
	return &Parser{tokens: tokens, source: sourceName}
}

// ParseStatement parses the statement the token slice holds.
func (p *Parser) ParseStatement() (Stmt, *Error) {
	stmt, err := p.parseCommand()
	if err != nil {
		return nil, err
	}
	p.match(TokenSemicolon)
	if !p.atEnd() {
		return nil, p.errorf("unexpected %q after statement", p.cur().Lexeme)
	}
	return stmt, nil
}

// ---------------------------------------------------------------------------
// Cursor helpers
// ---------------------------------------------------------------------------

func (p *Parser) cur() Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	if len(p.tokens) > 0 {
		return p.tokens[len(p.tokens)-1]
	}
	return Token{Type: TokenEOF}
}

func (p *Parser) peekAt(n int) Token {
	if p.pos+n < len(p.tokens) {
		return p.tokens[p.pos+n]
	}
	return Token{Type: TokenEOF}
}

func (p *Parser) atEnd() bool {
	return p.cur().Type == TokenEOF
}

func (p *Parser) advance() Token {
	tok := p.cur()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) check(t TokenType) bool {
	return p.cur().Type == t
}

func (p *Parser) match(t TokenType) bool {
	if p.check(t) {
		p.advance()
		return true
	}
	return false
}

// checkWord reports whether the current token is an identifier with the
// given lexeme (keywords are recognised on lexeme, not by the lexer).
func (p *Parser) checkWord(word string) bool {
	tok := p.cur()
	return tok.Type == TokenIdentifier && tok.Lexeme == word
}

func (p *Parser) matchWord(word string) bool {
	if p.checkWord(word) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(t TokenType, hint string) (Token, *Error) {
	if p.check(t) {
		return p.advance(), nil
	}
	return Token{}, p.errorHint(fmt.Sprintf("expected %s, got %q", t, p.cur().Lexeme), hint)
}

func (p *Parser) expectWord(word, hint string) *Error {
	if p.matchWord(word) {
		return nil
	}
	return p.errorHint(fmt.Sprintf("expected %q, got %q", word, p.cur().Lexeme), hint)
}

// save returns a cursor mark for backtracking.
func (p *Parser) save() int { return p.pos }

// restore rewinds to a saved cursor mark.
func (p *Parser) restore(mark int) { p.pos = mark }

func (p *Parser) errorf(format string, args ...interface{}) *Error {
	return p.errorHint(fmt.Sprintf(format, args...), "")
}

func (p *Parser) errorHint(msg, hint string) *Error {
	tok := p.cur()
	return &Error{
		Kind:   ParseError,
		Source: p.source,
		Line:   tok.Line,
		Col:    tok.Col,
		Lexeme: tok.Lexeme,
		Msg:    msg,
		Hint:   hint,
	}
}

// ---------------------------------------------------------------------------
// Commands (statements)
// ---------------------------------------------------------------------------

// blockTerminators are the words that end an English statement list.
var blockTerminators = map[string]bool{"end": true, "else": true, "otherwise": true}

// parseCommand dispatches on the statement's leading tokens, checking the
// disambiguation rules in order.
func (p *Parser) parseCommand() (Stmt, *Error) {
	switch {
	case p.checkWord("fn"):
		return p.parseConciseFunction()
	case p.checkWord("define"):
		return p.parseEnglishFunction()
	case p.checkWord("if"):
		return p.parseIf()
	case p.checkWord("while"):
		return p.parseWhile()
	case p.checkWord("for"):
		return p.parseForEach()
	case p.checkWord("let"):
		return p.parseLet()
	case p.checkWord("make"):
		return p.parseMake()
	case p.checkWord("set"):
		return p.parseSet()
	case p.checkWord("return"):
		return p.parseReturn()
	case p.checkWord("call"):
		return p.parseCallStatement()
	case p.checkWord("print"):
		return p.parsePrint()
	case p.checkWord("do"):
		return p.parseDoBlock()
	case p.check(TokenLBrace):
		return p.parseBraceBlock()
	}

	// Bare `IDENT = EXPR` / `IDENT[IDX] = EXPR` concise assignment.
	if stmt, ok, err := p.tryConciseAssignment(); err != nil {
		return nil, err
	} else if ok {
		return stmt, nil
	}

	expr, err := p.expression()
	if err != nil {
		return nil, err
	}
	return &ExpressionStmt{Expr: expr}, nil
}

// parseStatementList parses statements until a terminator word. The
// terminator itself is not consumed.
func (p *Parser) parseStatementList() ([]Stmt, *Error) {
	var stmts []Stmt
	for !p.atEnd() {
		if tok := p.cur(); tok.Type == TokenIdentifier && blockTerminators[tok.Lexeme] {
			break
		}
		if p.match(TokenSemicolon) {
			continue
		}
		stmt, err := p.parseCommand()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
		p.match(TokenSemicolon)
	}
	return stmts, nil
}

// parseDoBlock parses `do ... end` as an explicit block statement.
func (p *Parser) parseDoBlock() (Stmt, *Error) {
	p.advance() // do
	stmts, err := p.parseStatementList()
	if err != nil {
		return nil, err
	}
	if err := p.expectWord("end", "missing 'end'"); err != nil {
		return nil, err
	}
	return &BlockStmt{Stmts: stmts}, nil
}

// parseBraceBlock parses `{ ... }`.
func (p *Parser) parseBraceBlock() (Stmt, *Error) {
	p.advance() // {
	var stmts []Stmt
	for !p.atEnd() && !p.check(TokenRBrace) {
		if p.match(TokenSemicolon) {
			continue
		}
		stmt, err := p.parseCommand()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
		p.match(TokenSemicolon)
	}
	if _, err := p.expect(TokenRBrace, "missing '}'"); err != nil {
		return nil, err
	}
	return &BlockStmt{Stmts: stmts}, nil
}

// normalizeBody collapses a body that is exactly one explicit block so
// `while c do do ... end end` and `while c do ... end` produce identical
// ASTs.
func normalizeBody(stmts []Stmt) *BlockStmt {
	if len(stmts) == 1 {
		if inner, ok := stmts[0].(*BlockStmt); ok {
			return inner
		}
	}
	return &BlockStmt{Stmts: stmts}
}

// parseIf handles both surfaces:
//
//	if (COND) STMT [else STMT]          — concise
//	if COND then ... [else|otherwise ...] end — English
func (p *Parser) parseIf() (Stmt, *Error) {
	p.advance() // if

	if p.check(TokenLParen) {
		p.advance()
		cond, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen, "missing ')'"); err != nil {
			return nil, err
		}
		then, err := p.parseCommand()
		if err != nil {
			return nil, err
		}
		var elseStmt Stmt
		if p.matchWord("else") {
			elseStmt, err = p.parseCommand()
			if err != nil {
				return nil, err
			}
		}
		return &IfStmt{Cond: cond, Then: then, Else: elseStmt}, nil
	}

	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if err := p.expectWord("then", "missing 'then'"); err != nil {
		return nil, err
	}
	thenStmts, err := p.parseStatementList()
	if err != nil {
		return nil, err
	}
	var elseStmt Stmt
	if p.matchWord("else") || p.matchWord("otherwise") {
		elseStmts, err := p.parseStatementList()
		if err != nil {
			return nil, err
		}
		elseStmt = normalizeBody(elseStmts)
	}
	if err := p.expectWord("end", "missing 'end'"); err != nil {
		return nil, err
	}
	return &IfStmt{Cond: cond, Then: normalizeBody(thenStmts), Else: elseStmt}, nil
}

// parseWhile handles `while (COND) STMT` and `while COND do ... end`.
func (p *Parser) parseWhile() (Stmt, *Error) {
	p.advance() // while

	if p.check(TokenLParen) {
		p.advance()
		cond, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen, "missing ')'"); err != nil {
			return nil, err
		}
		body, err := p.parseCommand()
		if err != nil {
			return nil, err
		}
		return &WhileStmt{Cond: cond, Body: body}, nil
	}

	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if err := p.expectWord("do", "missing 'do'"); err != nil {
		return nil, err
	}
	bodyStmts, err := p.parseStatementList()
	if err != nil {
		return nil, err
	}
	if err := p.expectWord("end", "missing 'end'"); err != nil {
		return nil, err
	}
	return &WhileStmt{Cond: cond, Body: normalizeBody(bodyStmts)}, nil
}

// parseForEach parses `for each NAME in EXPR do ... end` (brace body also
// accepted). The iterable is evaluated once at loop entry.
func (p *Parser) parseForEach() (Stmt, *Error) {
	p.advance() // for
	if err := p.expectWord("each", "expected 'each' after 'for'"); err != nil {
		return nil, err
	}
	name, err := p.expect(TokenIdentifier, "expected loop variable")
	if err != nil {
		return nil, err
	}
	if err := p.expectWord("in", "expected 'in'"); err != nil {
		return nil, err
	}
	iterable, err2 := p.expression()
	if err2 != nil {
		return nil, err2
	}

	if p.check(TokenLBrace) {
		body, err := p.parseBraceBlock()
		if err != nil {
			return nil, err
		}
		return &ForEachStmt{Var: name.Lexeme, Iterable: iterable, Body: body}, nil
	}

	if err := p.expectWord("do", "missing 'do'"); err != nil {
		return nil, err
	}
	bodyStmts, err3 := p.parseStatementList()
	if err3 != nil {
		return nil, err3
	}
	if err := p.expectWord("end", "missing 'end'"); err != nil {
		return nil, err
	}
	return &ForEachStmt{Var: name.Lexeme, Iterable: iterable, Body: normalizeBody(bodyStmts)}, nil
}

// parseLet handles `let NAME be EXPR` and `let NAME [: TYPE] = EXPR`.
func (p *Parser) parseLet() (Stmt, *Error) {
	p.advance() // let
	name, err := p.expect(TokenIdentifier, "expected variable name after 'let'")
	if err != nil {
		return nil, err
	}

	if p.matchWord("be") {
		init, err := p.expression()
		if err != nil {
			return nil, err
		}
		return &LetStmt{Name: name.Lexeme, Initializer: init}, nil
	}

	var declared *TypeDesc
	if p.match(TokenColon) {
		declared, err = p.parseType()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(TokenAssign, "expected 'be' or '=' in let"); err != nil {
		return nil, err
	}
	init, err2 := p.expression()
	if err2 != nil {
		return nil, err2
	}
	return &LetStmt{Name: name.Lexeme, Type: declared, Initializer: init}, nil
}

// parseMake handles the `make NAME equal to EXPR` alias for let.
func (p *Parser) parseMake() (Stmt, *Error) {
	p.advance() // make
	name, err := p.expect(TokenIdentifier, "expected variable name after 'make'")
	if err != nil {
		return nil, err
	}
	if err := p.expectWord("equal", "expected 'equal to'"); err != nil {
		return nil, err
	}
	if err := p.expectWord("to", "expected 'equal to'"); err != nil {
		return nil, err
	}
	init, err2 := p.expression()
	if err2 != nil {
		return nil, err2
	}
	return &LetStmt{Name: name.Lexeme, Initializer: init}, nil
}

// parseSet handles the English assignment family:
//
//	set NAME to EXPR
//	set NAME[IDX] to EXPR
//	set key K of M to V
func (p *Parser) parseSet() (Stmt, *Error) {
	p.advance() // set

	if p.matchWord("key") {
		key, err := p.comparison()
		if err != nil {
			return nil, err
		}
		if err := p.expectWord("of", "expected 'of' in set key"); err != nil {
			return nil, err
		}
		target, err2 := p.comparison()
		if err2 != nil {
			return nil, err2
		}
		if err := p.expectWord("to", "ensure 'to' keyword"); err != nil {
			return nil, err
		}
		value, err3 := p.expression()
		if err3 != nil {
			return nil, err3
		}
		call := &Call{Callee: &Variable{Name: "__map_set"}, Args: []Expr{target, key, value}}
		return &ExpressionStmt{Expr: call}, nil
	}

	name, err := p.expect(TokenIdentifier, "expected variable name after 'set'")
	if err != nil {
		return nil, err
	}

	if p.match(TokenLBracket) {
		index, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRBracket, "missing ']'"); err != nil {
			return nil, err
		}
		if err := p.expectWord("to", "ensure 'to' keyword"); err != nil {
			return nil, err
		}
		value, err2 := p.expression()
		if err2 != nil {
			return nil, err2
		}
		return &SetIndexStmt{Array: &Variable{Name: name.Lexeme}, Index: index, Value: value}, nil
	}

	if err := p.expectWord("to", "ensure 'to' keyword"); err != nil {
		return nil, err
	}
	value, err2 := p.expression()
	if err2 != nil {
		return nil, err2
	}
	return &SetStmt{Name: name.Lexeme, Value: value}, nil
}

// tryConciseAssignment recognises `IDENT = EXPR` and `IDENT[IDX] = EXPR`,
// backtracking when the shape does not match.
func (p *Parser) tryConciseAssignment() (Stmt, bool, *Error) {
	if !p.check(TokenIdentifier) {
		return nil, false, nil
	}
	mark := p.save()
	name := p.advance()

	if p.match(TokenAssign) {
		value, err := p.expression()
		if err != nil {
			return nil, false, err
		}
		return &SetStmt{Name: name.Lexeme, Value: value}, true, nil
	}

	if p.match(TokenLBracket) {
		index, err := p.expression()
		if err != nil {
			p.restore(mark)
			return nil, false, nil
		}
		if p.match(TokenRBracket) && p.match(TokenAssign) {
			value, err := p.expression()
			if err != nil {
				return nil, false, err
			}
			return &SetIndexStmt{Array: &Variable{Name: name.Lexeme}, Index: index, Value: value}, true, nil
		}
	}

	p.restore(mark)
	return nil, false, nil
}

// parseReturn parses `return [EXPR]`.
func (p *Parser) parseReturn() (Stmt, *Error) {
	keyword := p.advance()
	if p.atEnd() || p.check(TokenSemicolon) ||
		(p.cur().Type == TokenIdentifier && blockTerminators[p.cur().Lexeme]) {
		return &ReturnStmt{Keyword: keyword}, nil
	}
	value, err := p.expression()
	if err != nil {
		return nil, err
	}
	return &ReturnStmt{Keyword: keyword, Value: value}, nil
}

// parseCallStatement parses `call NAME with a and b and c`; commas are
// also accepted as separators.
func (p *Parser) parseCallStatement() (Stmt, *Error) {
	p.advance() // call
	name, err := p.expect(TokenIdentifier, "expected function name after 'call'")
	if err != nil {
		return nil, err
	}
	var args []Expr
	if p.matchWord("with") {
		for {
			arg, err := p.comparison()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.match(TokenAnd) || p.match(TokenComma) {
				continue
			}
			break
		}
	} else if !p.atEnd() && !p.check(TokenSemicolon) {
		return nil, p.errorHint(fmt.Sprintf("expected 'with' before arguments, got %q", p.cur().Lexeme),
			"insert 'with' between the function name and its arguments")
	}
	call := &Call{Callee: &Variable{Name: name.Lexeme}, Args: args}
	return &ExpressionStmt{Expr: call}, nil
}

// parsePrint parses `print` followed by juxtaposed expressions, so
// `print a[0] a[1]` prints both values space-separated. The arguments end
// at the end of the line, at `;` or `}`, or at end/else/otherwise.
func (p *Parser) parsePrint() (Stmt, *Error) {
	kw := p.advance() // print
	var args []Expr
	for !p.atEnd() && !p.check(TokenSemicolon) && !p.check(TokenRBrace) &&
		p.cur().Line == kw.Line &&
		!(p.cur().Type == TokenIdentifier && blockTerminators[p.cur().Lexeme]) {
		arg, err := p.expression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return &ExpressionStmt{Expr: &Call{Callee: &Variable{Name: "print"}, Args: args}}, nil
}

// ---------------------------------------------------------------------------
// Function definitions
// ---------------------------------------------------------------------------

// parseConciseFunction parses `fn NAME(a [: T], b) [-> T] { ... }`.
func (p *Parser) parseConciseFunction() (Stmt, *Error) {
	p.advance() // fn
	name, err := p.expect(TokenIdentifier, "expected function name after 'fn'")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenLParen, "missing '('"); err != nil {
		return nil, err
	}

	var params []Parameter
	for !p.check(TokenRParen) && !p.atEnd() {
		pname, err := p.expect(TokenIdentifier, "expected parameter name")
		if err != nil {
			return nil, err
		}
		param := Parameter{Name: pname.Lexeme}
		if p.match(TokenColon) {
			param.Type, err = p.parseType()
			if err != nil {
				return nil, err
			}
		}
		params = append(params, param)
		if !p.match(TokenComma) {
			break
		}
	}
	if _, err := p.expect(TokenRParen, "missing ')'"); err != nil {
		return nil, err
	}

	var ret *TypeDesc
	if p.match(TokenArrow) {
		ret, err = p.parseType()
		if err != nil {
			return nil, err
		}
	}

	body, err2 := p.parseBraceBlock()
	if err2 != nil {
		return nil, err2
	}
	return &FunctionStmt{
		Name:       name.Lexeme,
		Params:     params,
		ReturnType: ret,
		Body:       body.(*BlockStmt).Stmts,
	}, nil
}

// parseEnglishFunction parses
//
//	define function NAME [with parameters a, b] [returning T] [:] do ... end
func (p *Parser) parseEnglishFunction() (Stmt, *Error) {
	p.advance() // define
	if err := p.expectWord("function", "expected 'function' after 'define'"); err != nil {
		return nil, err
	}
	name, err := p.expect(TokenIdentifier, "expected function name")
	if err != nil {
		return nil, err
	}

	var params []Parameter
	if p.matchWord("with") {
		if err := p.expectWord("parameters", "expected 'parameters'"); err != nil {
			return nil, err
		}
		for {
			pname, err := p.expect(TokenIdentifier, "expected parameter name")
			if err != nil {
				return nil, err
			}
			params = append(params, Parameter{Name: pname.Lexeme})
			if p.match(TokenComma) || p.match(TokenAnd) {
				continue
			}
			break
		}
	}

	var ret *TypeDesc
	if p.matchWord("returning") {
		ret, err = p.parseType()
		if err != nil {
			return nil, err
		}
	}

	p.match(TokenColon)

	if err := p.expectWord("do", "missing 'do'"); err != nil {
		return nil, err
	}
	bodyStmts, err2 := p.parseStatementList()
	if err2 != nil {
		return nil, err2
	}
	if err := p.expectWord("end", "missing 'end'"); err != nil {
		return nil, err
	}
	return &FunctionStmt{Name: name.Lexeme, Params: params, ReturnType: ret, Body: bodyStmts}, nil
}

// parseType parses a type name or `ptr to T`.
func (p *Parser) parseType() (*TypeDesc, *Error) {
	name, err := p.expect(TokenIdentifier, "expected type name")
	if err != nil {
		return nil, err
	}
	if name.Lexeme == "ptr" && p.matchWord("to") {
		inner, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return &TypeDesc{PointerTo: inner}, nil
	}
	if t, ok := PrimType(name.Lexeme); ok {
		return t, nil
	}
	return nil, p.errorf("unknown type %q", name.Lexeme)
}

// ---------------------------------------------------------------------------
// Expressions: equality -> logic -> comparison -> term -> factor -> unary
// ---------------------------------------------------------------------------

func (p *Parser) expression() (Expr, *Error) {
	// Assignment in expression position: IDENT = EXPR.
	if p.check(TokenIdentifier) && p.peekAt(1).Type == TokenAssign {
		name := p.advance()
		p.advance() // =
		value, err := p.expression()
		if err != nil {
			return nil, err
		}
		return &Assign{Name: name.Lexeme, Value: value}, nil
	}
	return p.equality()
}

func (p *Parser) equality() (Expr, *Error) {
	left, err := p.logic()
	if err != nil {
		return nil, err
	}
	for p.check(TokenEqEq) || p.check(TokenBangEq) {
		op := p.advance().Type
		right, err := p.logic()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) logic() (Expr, *Error) {
	left, err := p.comparison()
	if err != nil {
		return nil, err
	}
	for p.check(TokenAnd) || p.check(TokenOr) {
		op := p.advance().Type
		right, err := p.comparison()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) comparison() (Expr, *Error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for p.check(TokenLt) || p.check(TokenLe) || p.check(TokenGt) || p.check(TokenGe) {
		op := p.advance().Type
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) term() (Expr, *Error) {
	left, err := p.factor()
	if err != nil {
		return nil, err
	}
	for p.check(TokenPlus) || p.check(TokenMinus) {
		op := p.advance().Type
		right, err := p.factor()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) factor() (Expr, *Error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.check(TokenStar) || p.check(TokenSlash) || p.check(TokenPercent) {
		op := p.advance().Type
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) unary() (Expr, *Error) {
	if p.check(TokenMinus) {
		p.advance()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: TokenMinus, Right: right}, nil
	}
	return p.postfix()
}

// postfix parses a primary followed by call and index suffixes.
func (p *Parser) postfix() (Expr, *Error) {
	expr, err := p.primary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.check(TokenLParen):
			// Call suffix only applies to plain identifiers.
			v, ok := expr.(*Variable)
			if !ok {
				return expr, nil
			}
			p.advance()
			args, err := p.parseArgList()
			if err != nil {
				return nil, err
			}
			expr = &Call{Callee: v, Args: args}

		case p.check(TokenLBracket):
			p.advance()
			index, err := p.expression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TokenRBracket, "missing ']'"); err != nil {
				return nil, err
			}
			expr = &Index{Array: expr, Index: index}

		default:
			return expr, nil
		}
	}
}

// parseArgList parses comma-separated call arguments up to ')'.
func (p *Parser) parseArgList() ([]Expr, *Error) {
	var args []Expr
	for !p.check(TokenRParen) && !p.atEnd() {
		arg, err := p.expression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if !p.match(TokenComma) {
			break
		}
	}
	if _, err := p.expect(TokenRParen, "missing ')'"); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) primary() (Expr, *Error) {
	tok := p.cur()

	switch tok.Type {
	case TokenNumber:
		p.advance()
		return &Literal{Kind: LitNumber, Num: tok.Num}, nil

	case TokenString:
		p.advance()
		return &Literal{Kind: LitString, Str: tok.Str}, nil

	case TokenLParen:
		p.advance()
		inner, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen, "missing ')'"); err != nil {
			return nil, err
		}
		return &Grouping{Inner: inner}, nil

	case TokenLBracket:
		p.advance()
		var elems []Expr
		for !p.check(TokenRBracket) && !p.atEnd() {
			e, err := p.expression()
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
			if !p.match(TokenComma) {
				break
			}
		}
		if _, err := p.expect(TokenRBracket, "missing ']'"); err != nil {
			return nil, err
		}
		return &ArrayLiteral{Elements: elems}, nil

	case TokenIdentifier:
		switch tok.Lexeme {
		case "true":
			p.advance()
			return &Literal{Kind: LitBool, Bool: true}, nil
		case "false":
			p.advance()
			return &Literal{Kind: LitBool, Bool: false}, nil
		case "nil":
			p.advance()
			return &Literal{Kind: LitNil}, nil
		}
		if expr, ok, err := p.tryEnglishPhrase(); err != nil {
			return nil, err
		} else if ok {
			return expr, nil
		}
		p.advance()
		return &Variable{Name: tok.Lexeme}, nil
	}

	return nil, p.errorf("unexpected %q in expression", tok.Lexeme)
}
