package compiler

import "strings"

// ---------------------------------------------------------------------------
// Suggestion oracle
// ---------------------------------------------------------------------------

// Suggestion is a proposed rewrite of a statement that failed to parse.
type Suggestion struct {
	Suggestion string // human-readable description
	Fixed      string // the rewritten statement text
}

// SuggestionOracle is consulted on parse errors. Implementations may
// propose a rewrite of the offending statement; when auto-fix is enabled
// the rewrite is re-parsed in place of the original.
type SuggestionOracle interface {
	// Suggest returns a rewrite for the statement text, or ok=false.
	Suggest(stmtText string, parseErr *Error) (Suggestion, bool)
}

// StaticOracle implements the built-in rewrite catalogue for a language
// whose word-level syntax is easy to get slightly wrong:
//
//   - insert 'and' between the arguments of band/bor/bxor
//   - insert 'by' before shift amounts (shl/shr) and pow exponents
//   - insert 'with' between a call name and its arguments, converting
//     comma separators to 'and'
//   - insert 'to' in set statements
//   - insert 'with' in replace phrases
type StaticOracle struct{}

// Suggest implements SuggestionOracle.
func (StaticOracle) Suggest(stmtText string, parseErr *Error) (Suggestion, bool) {
	fields := strings.Fields(stmtText)
	if len(fields) == 0 {
		return Suggestion{}, false
	}

	// band A B -> band A and B, also at the end of `x = band A B`
	for i, f := range fields {
		if (f == "band" || f == "bor" || f == "bxor") && i+3 == len(fields) &&
			fields[i+1] != "and" && fields[i+2] != "and" {
			fixed := strings.Join(fields[:i+2], " ") + " and " + fields[i+2]
			return Suggestion{
				Suggestion: "insert 'and' between the arguments of " + f,
				Fixed:      fixed,
			}, true
		}
	}

	switch fields[0] {
	case "shl", "shr", "pow":
		// shl A B -> shl A by B
		if len(fields) == 3 && fields[1] != "by" && fields[2] != "by" {
			fixed := fields[0] + " " + fields[1] + " by " + fields[2]
			return Suggestion{
				Suggestion: "insert 'by' before the amount in " + fields[0],
				Fixed:      fixed,
			}, true
		}

	case "call":
		// call f a, b -> call f with a and b
		if len(fields) >= 3 && fields[2] != "with" {
			args := strings.Join(fields[2:], " ")
			args = strings.ReplaceAll(args, ",", " and ")
			fixed := "call " + fields[1] + " with " + strings.Join(strings.Fields(args), " ")
			return Suggestion{
				Suggestion: "insert 'with' between the function name and its arguments",
				Fixed:      fixed,
			}, true
		}

	case "set":
		// set x 5 -> set x to 5
		if len(fields) >= 3 && !containsWord(fields[1:], "to") {
			fixed := "set " + fields[1] + " to " + strings.Join(fields[2:], " ")
			return Suggestion{
				Suggestion: "insert 'to' in the set statement",
				Fixed:      fixed,
			}, true
		}

	case "replace":
		// replace a b in s -> replace a with b in s
		if len(fields) >= 5 && fields[2] != "with" && containsWord(fields, "in") {
			fixed := "replace " + fields[1] + " with " + strings.Join(fields[2:], " ")
			return Suggestion{
				Suggestion: "insert 'with' before the replacement in replace",
				Fixed:      fixed,
			}, true
		}
	}

	return Suggestion{}, false
}

func containsWord(fields []string, word string) bool {
	for _, f := range fields {
		if f == word {
			return true
		}
	}
	return false
}
