package compiler

import "strings"

// ---------------------------------------------------------------------------
// Statement accumulator
// ---------------------------------------------------------------------------

// Statement is one logical statement of the expanded source: its text,
// its starting physical line, and its starting column (1 + leading
// whitespace). Each statement is handed to a fresh lexer+parser so
// diagnostics point at the statement's own location and a bad statement
// cannot poison its neighbours.
type Statement struct {
	Text string
	Line int
	Col  int
}

// AccumulateStatements groups the expanded text's physical lines into
// logical statements by balancing `do`/`end` and `{`/`}` outside quoted
// strings. Blank lines, single-line comments, and whole block comments
// are filtered first.
func AccumulateStatements(expanded string) []Statement {
	lines := splitLines(expanded)
	var stmts []Statement

	inBlockComment := false
	i := 0
	for i < len(lines) {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		if inBlockComment {
			if strings.Contains(trimmed, "*/") {
				inBlockComment = false
			}
			i++
			continue
		}
		if trimmed == "" || isCommentLine(trimmed) {
			i++
			continue
		}
		if strings.HasPrefix(trimmed, "/*") && !strings.Contains(trimmed, "*/") {
			inBlockComment = true
			i++
			continue
		}
		if strings.HasPrefix(trimmed, "/*") && strings.HasSuffix(trimmed, "*/") {
			i++
			continue
		}

		// Statement starts here. The first line is written without its
		// indentation so token columns line up with the recorded start
		// column.
		startLine := i + 1
		startCol := 1 + leadingWhitespace(line)
		var text strings.Builder
		opens := 0
		closes := 0
		first := true

		for {
			if first {
				text.WriteString(lines[i][leadingWhitespace(lines[i]):])
				first = false
			} else {
				text.WriteString(lines[i])
			}
			opens += countOpens(lines[i])
			closes += countCloses(lines[i])
			i++
			if opens <= closes {
				break
			}
			// Append successive lines, skipping interior comments.
			for i < len(lines) {
				next := strings.TrimSpace(lines[i])
				if next == "" || isCommentLine(next) {
					i++
					continue
				}
				break
			}
			if i >= len(lines) {
				break
			}
			text.WriteString("\n")
		}

		stmts = append(stmts, Statement{Text: text.String(), Line: startLine, Col: startCol})
	}
	return stmts
}

// NeedsContinuation reports whether buffered text still has unbalanced
// blocks (used by the REPL to prompt for continuation lines).
func NeedsContinuation(text string) bool {
	opens, closes := 0, 0
	for _, line := range splitLines(text) {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isCommentLine(trimmed) {
			continue
		}
		opens += countOpens(line)
		closes += countCloses(line)
	}
	return opens > closes
}

func isCommentLine(trimmed string) bool {
	return strings.HasPrefix(trimmed, ";") ||
		strings.HasPrefix(trimmed, "#") ||
		strings.HasPrefix(trimmed, "//")
}

func leadingWhitespace(line string) int {
	n := 0
	for n < len(line) && (line[n] == ' ' || line[n] == '\t') {
		n++
	}
	return n
}

// countOpens counts the block-opening words "do" and "then" (outside
// quotes, at balanced paren/bracket/brace depth 0) plus '{' outside
// quotes. Whole-word matching keeps words like "dodge" from shifting the
// balance. "then" opens the English if-block, which closes with the same
// "end" that closes "do".
func countOpens(line string) int {
	return countWord(line, "do", true) + countWord(line, "then", true) +
		countByteOutsideQuotes(line, '{')
}

// countCloses counts the word "end" plus '}' outside quotes; a line that
// is exactly "end" counts once.
func countCloses(line string) int {
	trimmed := strings.TrimSpace(line)
	if trimmed == "end" {
		return 1 + countByteOutsideQuotes(line, '}')
	}
	return countWord(line, "end", false) + countByteOutsideQuotes(line, '}')
}

// countWord counts whole-word occurrences outside quoted strings.
// When depthZeroOnly is set, occurrences inside (), [], {} do not count.
func countWord(line, word string, depthZeroOnly bool) int {
	count := 0
	inQuote := false
	depth := 0
	for i := 0; i < len(line); i++ {
		b := line[i]
		if b == '"' {
			inQuote = !inQuote
			continue
		}
		if inQuote {
			continue
		}
		switch b {
		case '(', '[', '{':
			depth++
			continue
		case ')', ']', '}':
			depth--
			continue
		}
		if depthZeroOnly && depth != 0 {
			continue
		}
		if b != word[0] || i+len(word) > len(line) || line[i:i+len(word)] != word {
			continue
		}
		beforeOK := i == 0 || !isIdentPart(line[i-1])
		afterOK := i+len(word) == len(line) || !isIdentPart(line[i+len(word)])
		if beforeOK && afterOK {
			count++
			i += len(word) - 1
		}
	}
	return count
}

func countByteOutsideQuotes(line string, target byte) int {
	count := 0
	inQuote := false
	for i := 0; i < len(line); i++ {
		b := line[i]
		if b == '"' {
			inQuote = !inQuote
			continue
		}
		if !inQuote && b == target {
			count++
		}
	}
	return count
}
