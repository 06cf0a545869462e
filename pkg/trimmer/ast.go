package trimmer

// Node is implemented by every expression, statement and body.
type Node interface {
	Span() Span
}

type node struct {
	loc Span
}

func (n node) Span() Span { return n.loc }

func at(s Span) node { return node{loc: s} }

// Expr is an expression inside {{ }} or a statement line.
type Expr interface {
	Node
	exprNode()
}

type (
	StrLit struct {
		node
		Value string
	}
	NumLit struct {
		node
		Value Number
	}
	VarRef struct {
		node
		Name string
	}
	AttrExpr struct {
		node
		Target Expr
		Name   string
	}
	IndexExpr struct {
		node
		Target Expr
		Key    Expr
	}
	NotExpr struct {
		node
		Operand Expr
	}
	AndExpr struct {
		node
		Left, Right Expr
	}
	OrExpr struct {
		node
		Left, Right Expr
	}
	// CompareExpr is a comparison chain: `a < b <= c` holds when every
	// adjacent pair holds.
	CompareExpr struct {
		node
		Left Expr
		Ops  []CompareOp
	}
	ArithExpr struct {
		node
		Op          string
		Left, Right Expr
	}
	ListExpr struct {
		node
		Items []Expr
	}
	DictExpr struct {
		node
		Items []DictItem
	}
	// RangeExpr is `start..end`; Start defaults to 0 and End may be nil.
	RangeExpr struct {
		node
		Start, End Expr
	}
)

type CompareOp struct {
	Op    string
	Right Expr
}

type DictItem struct {
	Key, Value Expr
}

func (*StrLit) exprNode()      {}
func (*NumLit) exprNode()      {}
func (*VarRef) exprNode()      {}
func (*AttrExpr) exprNode()    {}
func (*IndexExpr) exprNode()   {}
func (*NotExpr) exprNode()     {}
func (*AndExpr) exprNode()     {}
func (*OrExpr) exprNode()      {}
func (*CompareExpr) exprNode() {}
func (*ArithExpr) exprNode()   {}
func (*ListExpr) exprNode()    {}
func (*DictExpr) exprNode()    {}
func (*RangeExpr) exprNode()   {}

// Statement is one element of a template body.
type Statement interface {
	Node
	stmtNode()
}

type (
	// RawStmt is literal text copied to the output.
	RawStmt struct {
		node
		Text string
	}
	// OutputStmt is `{{ expr | filter }}` with the whitespace control of
	// both sides.
	OutputStmt struct {
		node
		Expr   Expr
		Left   WhitespaceMode
		Right  WhitespaceMode
		Filter string
	}
	// CondStmt is `## if` with its `## elif` branches and `## else` body.
	CondStmt struct {
		node
		Indent    int
		Branches  []CondBranch
		Otherwise Body
	}
	// LoopStmt is `## for x in expr` or `## for k, v in expr`, optionally
	// with `skip if cond`.
	LoopStmt struct {
		node
		Indent int
		Target []string
		Iter   Expr
		Skip   Expr
		Body   Body
	}
	// AliasStmt is `## let name = expr`.
	AliasStmt struct {
		node
		Name  string
		Value Expr
	}
	// LineJoinStmt is a `##` at the end of a line, which swallows the newline.
	LineJoinStmt struct {
		node
	}
)

type CondBranch struct {
	Cond Expr
	Body Body
}

func (*RawStmt) stmtNode()      {}
func (*OutputStmt) stmtNode()   {}
func (*CondStmt) stmtNode()     {}
func (*LoopStmt) stmtNode()     {}
func (*AliasStmt) stmtNode()    {}
func (*LineJoinStmt) stmtNode() {}

// Body is a sequence of statements: the template itself or a block.
type Body struct {
	node
	Statements []Statement
}

// isLineStatement reports whether s occupies whole source lines.
func isLineStatement(s Statement) bool {
	switch s.(type) {
	case *CondStmt, *LoopStmt, *AliasStmt:
		return true
	}
	return false
}
