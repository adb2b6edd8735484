package compiler

// ---------------------------------------------------------------------------
// AST: tagged sum types for CatLang expressions and statements
// ---------------------------------------------------------------------------

// Expr is the interface for expression nodes.
type Expr interface {
	expr() // marker method
}

// Stmt is the interface for statement nodes.
type Stmt interface {
	stmt() // marker method
}

// ---------------------------------------------------------------------------
// Expression nodes
// ---------------------------------------------------------------------------

// LitKind tags a literal payload.
type LitKind int

const (
	LitNil LitKind = iota
	LitNumber
	LitString
	LitBool
)

// Literal is a number, string, bool, or nil literal.
type Literal struct {
	Kind LitKind
	Num  float64
	Str  string
	Bool bool
}

func (n *Literal) expr() {}

// Binary is a binary operation; Op is the operator's token type.
type Binary struct {
	Op    TokenType
	Left  Expr
	Right Expr
}

func (n *Binary) expr() {}

// Unary is a prefix operation (only unary minus in the grammar).
type Unary struct {
	Op    TokenType
	Right Expr
}

func (n *Unary) expr() {}

// Grouping is a parenthesised expression.
type Grouping struct {
	Inner Expr
}

func (n *Grouping) expr() {}

// Variable is an identifier reference.
type Variable struct {
	Name string
}

func (n *Variable) expr() {}

// Assign is an assignment used in expression position.
type Assign struct {
	Name  string
	Value Expr
}

func (n *Assign) expr() {}

// Call applies a callee to arguments. English phrases lower to calls
// whose callee is a Variable with a reserved "__" name.
type Call struct {
	Callee Expr
	Args   []Expr
}

func (n *Call) expr() {}

// ArrayLiteral is [e1, e2, ...].
type ArrayLiteral struct {
	Elements []Expr
}

func (n *ArrayLiteral) expr() {}

// Index is postfix indexing a[i].
type Index struct {
	Array Expr
	Index Expr
}

func (n *Index) expr() {}

// ---------------------------------------------------------------------------
// Statement nodes
// ---------------------------------------------------------------------------

// ExpressionStmt wraps an expression used as a statement.
type ExpressionStmt struct {
	Expr Expr
}

func (n *ExpressionStmt) stmt() {}

// LetStmt declares a variable with an optional type and initializer.
type LetStmt struct {
	Name        string
	Type        *TypeDesc
	Initializer Expr
}

func (n *LetStmt) stmt() {}

// SetStmt assigns to an existing variable (or global).
type SetStmt struct {
	Name  string
	Value Expr
}

func (n *SetStmt) stmt() {}

// SetIndexStmt assigns through an index: a[i] = v / set a[i] to v.
type SetIndexStmt struct {
	Array Expr
	Index Expr
	Value Expr
}

func (n *SetIndexStmt) stmt() {}

// BlockStmt groups statements (do ... end / { ... }).
type BlockStmt struct {
	Stmts []Stmt
}

func (n *BlockStmt) stmt() {}

// IfStmt with optional else branch.
type IfStmt struct {
	Cond Expr
	Then Stmt
	Else Stmt // nil when absent
}

func (n *IfStmt) stmt() {}

// WhileStmt loops while Cond is truthy.
type WhileStmt struct {
	Cond Expr
	Body Stmt
}

func (n *WhileStmt) stmt() {}

// ForEachStmt iterates Var over the snapshot of Iterable.
type ForEachStmt struct {
	Var      string
	Iterable Expr
	Body     Stmt
}

func (n *ForEachStmt) stmt() {}

// Parameter is one function parameter with an optional declared type.
type Parameter struct {
	Name string
	Type *TypeDesc
}

// FunctionStmt defines a named function.
type FunctionStmt struct {
	Name       string
	Params     []Parameter
	ReturnType *TypeDesc
	Body       []Stmt
}

func (n *FunctionStmt) stmt() {}

// ReturnStmt returns an optional value. Keyword keeps the location for
// diagnostics.
type ReturnStmt struct {
	Keyword Token
	Value   Expr // nil for bare return
}

func (n *ReturnStmt) stmt() {}

// ---------------------------------------------------------------------------
// Type descriptors (used by the optional type-check collaborator)
// ---------------------------------------------------------------------------

// PrimKind enumerates primitive types.
type PrimKind int

const (
	PrimI8 PrimKind = iota
	PrimI16
	PrimI32
	PrimI64
	PrimU8
	PrimU16
	PrimU32
	PrimU64
	PrimF32
	PrimF64
	PrimBool
	PrimString
	PrimNil
	PrimPtr
)

var primNames = map[string]PrimKind{
	"i8": PrimI8, "i16": PrimI16, "i32": PrimI32, "i64": PrimI64,
	"u8": PrimU8, "u16": PrimU16, "u32": PrimU32, "u64": PrimU64,
	"f32": PrimF32, "f64": PrimF64,
	"bool": PrimBool, "string": PrimString, "nil": PrimNil, "ptr": PrimPtr,
	"number": PrimF64,
}

// TypeDesc describes a primitive, pointer-to-T, or function type.
// Equality is structural.
type TypeDesc struct {
	Prim      PrimKind
	PointerTo *TypeDesc   // non-nil for pointer types
	Params    []*TypeDesc // non-nil (possibly empty) for function types
	Ret       *TypeDesc
	IsFunc    bool
}

// PrimType returns the descriptor for a primitive type name, if known.
func PrimType(name string) (*TypeDesc, bool) {
	if k, ok := primNames[name]; ok {
		return &TypeDesc{Prim: k}, true
	}
	return nil, false
}

// Equal reports structural equality.
func (t *TypeDesc) Equal(other *TypeDesc) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.IsFunc != other.IsFunc {
		return false
	}
	if t.IsFunc {
		if len(t.Params) != len(other.Params) {
			return false
		}
		for i := range t.Params {
			if !t.Params[i].Equal(other.Params[i]) {
				return false
			}
		}
		return t.Ret.Equal(other.Ret)
	}
	if (t.PointerTo == nil) != (other.PointerTo == nil) {
		return false
	}
	if t.PointerTo != nil {
		return t.PointerTo.Equal(other.PointerTo)
	}
	return t.Prim == other.Prim
}
