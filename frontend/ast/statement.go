package ast

// VariableAssignment binds a name, like `n = 1`
type VariableAssignment struct {
	Range
	ID   *Identifier
	Init Expr
}

func (s *VariableAssignment) stmtNode() {}
func (s *VariableAssignment) Hash() uint64 {
	return newHasher("VariableAssignment", s.Range).node(s.ID).node(s.Init).sum()
}

// ExpressionStatement is an expression evaluated for its result, like `f(a: 1)`
type ExpressionStatement struct {
	Range
	Expression Expr
}

func (s *ExpressionStatement) stmtNode() {}
func (s *ExpressionStatement) Hash() uint64 {
	return newHasher("ExpressionStatement", s.Range).node(s.Expression).sum()
}

// ReturnStatement may only appear in the Block of a function
type ReturnStatement struct {
	Range
	Argument Expr
}

func (s *ReturnStatement) stmtNode() {}
func (s *ReturnStatement) Hash() uint64 {
	return newHasher("ReturnStatement", s.Range).node(s.Argument).sum()
}

// BuiltinStatement declares a name implemented outside the language, with its type:
//
//	builtin add : (a: A, b: A) => A where A: Addable
type BuiltinStatement struct {
	Range
	ID *Identifier
	Ty *TypeExpression
}

func (s *BuiltinStatement) stmtNode() {}
func (s *BuiltinStatement) Hash() uint64 {
	return newHasher("BuiltinStatement", s.Range).node(s.ID).node(s.Ty).sum()
}

// Block is the body of a function written with braces
type Block struct {
	Range
	Body []Stmt
}

func (b *Block) Hash() uint64 {
	h := newHasher("Block", b.Range)
	for _, stmt := range b.Body {
		h.node(stmt)
	}
	return h.sum()
}
