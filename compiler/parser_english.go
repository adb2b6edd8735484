package compiler

// ---------------------------------------------------------------------------
// English-vocabulary prelude: phrases lowering to "__" builtin calls
// ---------------------------------------------------------------------------

// Each phrase lowers to a Call whose callee is a Variable with a reserved
// "__" name; the argument order is part of the contract with the code
// generator (documented per phrase). A word that does not commit to a
// phrase falls back to a plain identifier via backtracking.

// builtinCall builds the lowered call node.
func builtinCall(name string, args ...Expr) Expr {
	return &Call{Callee: &Variable{Name: name}, Args: args}
}

// startsOperand reports whether a token can begin a phrase operand.
func startsOperand(tok Token) bool {
	switch tok.Type {
	case TokenNumber, TokenString, TokenLParen, TokenLBracket, TokenMinus:
		return true
	case TokenIdentifier:
		return !blockTerminators[tok.Lexeme]
	}
	return false
}

// operand parses one phrase operand. Comparison level keeps 'and'/'or'
// (phrase separators) and '=='/'!=' out of the operand.
func (p *Parser) operand() (Expr, *Error) {
	return p.comparison()
}

// expectAnd consumes the AND separator between phrase arguments.
func (p *Parser) expectAnd(phrase string) *Error {
	if p.match(TokenAnd) {
		return nil
	}
	return p.errorHint("expected 'and' in '"+phrase+"'", "insert 'and' between the arguments")
}

// expectBy consumes the word 'by' before a second operand.
func (p *Parser) expectBy(phrase string) *Error {
	if p.matchWord("by") {
		return nil
	}
	return p.errorHint("expected 'by' in '"+phrase+"'", "insert 'by' before the amount")
}

// tryEnglishPhrase inspects the current identifier and, when it opens a
// known phrase, parses and lowers it. Returns ok=false (cursor restored)
// when the word is not a phrase here.
func (p *Parser) tryEnglishPhrase() (Expr, bool, *Error) {
	word := p.cur().Lexeme
	mark := p.save()

	fail := func() (Expr, bool, *Error) {
		p.restore(mark)
		return nil, false, nil
	}

	switch word {

	case "get": // get K from M -> __map_get(M, K)
		p.advance()
		if !startsOperand(p.cur()) {
			return fail()
		}
		key, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		if !p.matchWord("from") {
			return fail()
		}
		m, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		return builtinCall("__map_get", m, key), true, nil

	case "has": // has K in M -> __map_has(M, K)
		p.advance()
		if !startsOperand(p.cur()) {
			return fail()
		}
		key, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		if !p.matchWord("in") {
			return fail()
		}
		m, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		return builtinCall("__map_has", m, key), true, nil

	case "substring": // substring of S from A to B -> __substr(S, A, B)
		p.advance()
		if !p.matchWord("of") {
			return fail()
		}
		s, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		if err := p.expectWordIn("from", "substring"); err != nil {
			return nil, false, err
		}
		start, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		if err := p.expectWordIn("to", "substring"); err != nil {
			return nil, false, err
		}
		end, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		return builtinCall("__substr", s, start, end), true, nil

	case "ord": // ord of S -> __ord(S)
		p.advance()
		if !p.matchWord("of") {
			return fail()
		}
		s, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		return builtinCall("__ord", s), true, nil

	case "chr": // chr N -> __chr(N)
		return p.unaryPhrase(mark, "__chr")

	case "read": // read file P -> __read_file(P)
		p.advance()
		if !p.matchWord("file") {
			return fail()
		}
		path, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		return builtinCall("__read_file", path), true, nil

	case "write": // write file P with D -> __write_file(P, D)
		p.advance()
		if !p.matchWord("file") {
			return fail()
		}
		path, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		if err := p.expectWordIn("with", "write file"); err != nil {
			return nil, false, err
		}
		data, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		return builtinCall("__write_file", path, data), true, nil

	case "exists": // exists file P -> __file_exists(P)
		p.advance()
		if !p.matchWord("file") {
			return fail()
		}
		path, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		return builtinCall("__file_exists", path), true, nil

	case "find": // find N in H -> __str_find(H, N)
		p.advance()
		if !startsOperand(p.cur()) {
			return fail()
		}
		needle, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		if !p.matchWord("in") {
			return fail()
		}
		hay, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		return builtinCall("__str_find", hay, needle), true, nil

	case "split": // split S by SEP -> __split(S, SEP)
		p.advance()
		if !startsOperand(p.cur()) {
			return fail()
		}
		s, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		if err := p.expectBy("split"); err != nil {
			return nil, false, err
		}
		sep, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		return builtinCall("__split", s, sep), true, nil

	case "join": // join A by SEP -> __join(A, SEP)
		p.advance()
		if !startsOperand(p.cur()) {
			return fail()
		}
		arr, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		if err := p.expectBy("join"); err != nil {
			return nil, false, err
		}
		sep, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		return builtinCall("__join", arr, sep), true, nil

	case "concat": // concat A and B -> __concat(A, B)
		return p.andPhrase(mark, "concat", "__concat")

	case "trim": // trim S -> __trim(S)
		return p.unaryPhrase(mark, "__trim")

	case "replace": // replace O with N in S -> __replace(S, O, N)
		p.advance()
		if !startsOperand(p.cur()) {
			return fail()
		}
		oldStr, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		if !p.matchWord("with") {
			return nil, false, p.errorHint("expected 'with' in 'replace'", "insert 'with' before the replacement")
		}
		newStr, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		if err := p.expectWordIn("in", "replace"); err != nil {
			return nil, false, err
		}
		s, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		return builtinCall("__replace", s, oldStr, newStr), true, nil

	case "uppercase": // uppercase S -> __upper(S)
		return p.unaryPhrase(mark, "__upper")

	case "lowercase": // lowercase S -> __lower(S)
		return p.unaryPhrase(mark, "__lower")

	case "contains": // contains N in H -> __contains(H, N)
		p.advance()
		if !startsOperand(p.cur()) {
			return fail()
		}
		needle, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		if !p.matchWord("in") {
			return fail()
		}
		hay, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		return builtinCall("__contains", hay, needle), true, nil

	case "format": // format F with A and B -> __format(F, A, B, ...)
		p.advance()
		if !startsOperand(p.cur()) {
			return fail()
		}
		format, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		args := []Expr{format}
		if p.matchWord("with") {
			for {
				arg, err := p.operand()
				if err != nil {
					return nil, false, err
				}
				args = append(args, arg)
				if p.match(TokenAnd) || p.match(TokenComma) {
					continue
				}
				break
			}
		}
		return builtinCall("__format", args...), true, nil

	case "starts": // starts with P in S -> __starts_with(S, P)
		p.advance()
		if !p.matchWord("with") {
			return fail()
		}
		prefix, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		if err := p.expectWordIn("in", "starts with"); err != nil {
			return nil, false, err
		}
		s, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		return builtinCall("__starts_with", s, prefix), true, nil

	case "ends": // ends with P in S -> __ends_with(S, P)
		p.advance()
		if !p.matchWord("with") {
			return fail()
		}
		suffix, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		if err := p.expectWordIn("in", "ends with"); err != nil {
			return nil, false, err
		}
		s, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		return builtinCall("__ends_with", s, suffix), true, nil

	case "pack16": // pack16 N -> __pack16(N)
		return p.unaryPhrase(mark, "__pack16")
	case "pack32":
		return p.unaryPhrase(mark, "__pack32")
	case "pack64":
		return p.unaryPhrase(mark, "__pack64")

	case "assert": // assert C -> __assert(C)
		p.advance()
		if !startsOperand(p.cur()) {
			return fail()
		}
		cond, err := p.expression()
		if err != nil {
			return nil, false, err
		}
		return builtinCall("__assert", cond), true, nil

	case "panic": // panic M -> __panic(M)
		return p.unaryPhrase(mark, "__panic")

	case "exit": // exit N -> __exit(N)
		return p.unaryPhrase(mark, "__exit")

	case "length": // length of A -> __len(A)
		p.advance()
		if !p.matchWord("of") {
			return fail()
		}
		a, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		return builtinCall("__len", a), true, nil

	case "size": // size of M -> __map_size(M)
		p.advance()
		if !p.matchWord("of") {
			return fail()
		}
		m, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		return builtinCall("__map_size", m), true, nil

	case "keys": // keys of M -> __keys(M)
		p.advance()
		if !p.matchWord("of") {
			return fail()
		}
		m, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		return builtinCall("__keys", m), true, nil

	case "delete": // delete key K from M -> __map_del(M, K)
		p.advance()
		if !p.matchWord("key") {
			return fail()
		}
		key, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		if err := p.expectWordIn("from", "delete key"); err != nil {
			return nil, false, err
		}
		m, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		return builtinCall("__map_del", m, key), true, nil

	case "new": // new map -> __new_map()
		p.advance()
		if !p.matchWord("map") {
			return fail()
		}
		return builtinCall("__new_map"), true, nil

	case "append": // append V to A -> __append(A, V)
		p.advance()
		if !startsOperand(p.cur()) {
			return fail()
		}
		v, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		if err := p.expectWordIn("to", "append"); err != nil {
			return nil, false, err
		}
		a, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		return builtinCall("__append", a, v), true, nil

	case "pop": // pop from A -> __pop(A)
		p.advance()
		if !p.matchWord("from") {
			return fail()
		}
		a, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		return builtinCall("__pop", a), true, nil

	case "alloc": // alloc N -> __alloc(N)
		return p.unaryPhrase(mark, "__alloc")

	case "free": // free P -> __free(P)
		return p.unaryPhrase(mark, "__free")

	case "realloc": // realloc P N -> __realloc(P, N)
		p.advance()
		if !startsOperand(p.cur()) {
			return fail()
		}
		ptr, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		size, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		return builtinCall("__realloc", ptr, size), true, nil

	case "ptradd": // ptradd P by K -> __ptradd(P, K)
		p.advance()
		if !startsOperand(p.cur()) {
			return fail()
		}
		ptr, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		if err := p.expectBy("ptradd"); err != nil {
			return nil, false, err
		}
		delta, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		return builtinCall("__ptradd", ptr, delta), true, nil

	case "ptrdiff": // ptrdiff A B -> __ptrdiff(A, B)
		p.advance()
		if !startsOperand(p.cur()) {
			return fail()
		}
		a, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		b, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		return builtinCall("__ptrdiff", a, b), true, nil

	case "blocksize":
		return p.unaryPhrase(mark, "__blocksize")
	case "ptroffset":
		return p.unaryPhrase(mark, "__ptroffset")
	case "ptrblock":
		return p.unaryPhrase(mark, "__ptrblock")

	case "read8", "read16", "read32", "read64", "readf32":
		// readN P at K -> __loadN(P, K)
		p.advance()
		if !startsOperand(p.cur()) {
			return fail()
		}
		ptr, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		if err := p.expectWordIn("at", word); err != nil {
			return nil, false, err
		}
		off, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		return builtinCall("__load"+word[4:], ptr, off), true, nil

	case "write8", "write16", "write32", "write64", "writef32":
		// writeN V to P at K -> __storeN(V, P, K)
		p.advance()
		if !startsOperand(p.cur()) {
			return fail()
		}
		v, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		if err := p.expectWordIn("to", word); err != nil {
			return nil, false, err
		}
		ptr, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		if err := p.expectWordIn("at", word); err != nil {
			return nil, false, err
		}
		off, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		return builtinCall("__store"+word[5:], v, ptr, off), true, nil

	case "tostring": // tostring X -> __tostring(X)
		return p.unaryPhrase(mark, "__tostring")

	case "floor":
		return p.unaryPhrase(mark, "__floor")
	case "ceil":
		return p.unaryPhrase(mark, "__ceil")
	case "round":
		return p.unaryPhrase(mark, "__round")
	case "sqrt":
		return p.unaryPhrase(mark, "__sqrt")
	case "abs":
		return p.unaryPhrase(mark, "__abs")

	case "pow": // pow A by B -> __pow(A, B)
		p.advance()
		if !startsOperand(p.cur()) {
			return fail()
		}
		base, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		if err := p.expectBy("pow"); err != nil {
			return nil, false, err
		}
		exp, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		return builtinCall("__pow", base, exp), true, nil

	case "band", "bor", "bxor": // band A and B -> __band(A, B)
		return p.andPhrase(mark, word, "__"+word)

	case "shl", "shr": // shl A by B -> __shl(A, B)
		p.advance()
		if !startsOperand(p.cur()) {
			return fail()
		}
		a, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		if err := p.expectBy(word); err != nil {
			return nil, false, err
		}
		b, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		return builtinCall("__"+word, a, b), true, nil

	case "range": // range from A to B -> __range(A, B)
		p.advance()
		if !p.matchWord("from") {
			return fail()
		}
		from, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		if err := p.expectWordIn("to", "range"); err != nil {
			return nil, false, err
		}
		to, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		return builtinCall("__range", from, to), true, nil

	case "parse": // parse int S / parse float S
		p.advance()
		if p.matchWord("int") {
			s, err := p.operand()
			if err != nil {
				return nil, false, err
			}
			return builtinCall("__parse_int", s), true, nil
		}
		if p.matchWord("float") {
			s, err := p.operand()
			if err != nil {
				return nil, false, err
			}
			return builtinCall("__parse_float", s), true, nil
		}
		return fail()

	case "emit": // emit chunk M to P -> __emit_chunk(M, P)
		p.advance()
		if !p.matchWord("chunk") {
			return fail()
		}
		m, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		if err := p.expectWordIn("to", "emit chunk"); err != nil {
			return nil, false, err
		}
		path, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		return builtinCall("__emit_chunk", m, path), true, nil

	case "opcode": // opcode id S -> __opcode_id(S)
		p.advance()
		if !p.matchWord("id") {
			return fail()
		}
		s, err := p.operand()
		if err != nil {
			return nil, false, err
		}
		return builtinCall("__opcode_id", s), true, nil
	}

	return nil, false, nil
}

// unaryPhrase handles phrases of the shape `KEYWORD X -> __name(X)`.
func (p *Parser) unaryPhrase(mark int, builtin string) (Expr, bool, *Error) {
	p.advance()
	if !startsOperand(p.cur()) {
		p.restore(mark)
		return nil, false, nil
	}
	x, err := p.operand()
	if err != nil {
		return nil, false, err
	}
	return builtinCall(builtin, x), true, nil
}

// andPhrase handles `KEYWORD A and B -> __name(A, B)`.
func (p *Parser) andPhrase(mark int, phrase, builtin string) (Expr, bool, *Error) {
	p.advance()
	if !startsOperand(p.cur()) {
		p.restore(mark)
		return nil, false, nil
	}
	a, err := p.operand()
	if err != nil {
		return nil, false, err
	}
	if err := p.expectAnd(phrase); err != nil {
		return nil, false, err
	}
	b, err := p.operand()
	if err != nil {
		return nil, false, err
	}
	return builtinCall(builtin, a, b), true, nil
}

// expectWordIn consumes a required preposition inside a committed phrase.
func (p *Parser) expectWordIn(word, phrase string) *Error {
	if p.matchWord(word) {
		return nil
	}
	return p.errorHint("expected '"+word+"' in '"+phrase+"'", "ensure the '"+word+"' keyword is present")
}
