package ast

import (
	"bytes"
	"strconv"

	"pebl/internal/object"
)

// Node is either an *OpNode or a *Leaf. Parsed nodes are immutable and
// shared by pointer for the life of the function table.
type Node interface {
	Pos() Position
	String() string
	node()
}

type Position struct {
	File string
	Line int
	Col  int
}

type OpNode struct {
	Op    Opcode
	Left  Node
	Right Node
	Position
}

func (*OpNode) node()            {}
func (n *OpNode) Pos() Position  { return n.Position }
func (n *OpNode) String() string {
	var out bytes.Buffer
	out.WriteString("(")
	out.WriteString(n.Op.String())
	for _, child := range []Node{n.Left, n.Right} {
		out.WriteString(" ")
		if child == nil {
			out.WriteString("_")
			continue
		}
		out.WriteString(child.String())
	}
	out.WriteString(")")
	return out.String()
}

type Leaf struct {
	Value object.Object
	Position
}

func (*Leaf) node()           {}
func (l *Leaf) Pos() Position { return l.Position }
func (l *Leaf) String() string {
	if s, ok := l.Value.(*object.String); ok {
		return strconv.Quote(s.Value)
	}
	return l.Value.Inspect()
}

func NewOp(op Opcode, left, right Node, pos Position) *OpNode {
	return &OpNode{Op: op, Left: left, Right: right, Position: pos}
}

func NewLeaf(v object.Object, pos Position) *Leaf {
	return &Leaf{Value: v, Position: pos}
}

// FunctionDef is one "define Name(params) { body }". Lambda is the
// LAMBDAFUNCTION node stored in the function table: Left holds the VARLIST
// (nil when there are no parameters), Right the body.
type FunctionDef struct {
	Name   string
	Lambda *OpNode
	Position
}

type Program struct {
	File      string
	Functions []*FunctionDef
}

func (p *Program) String() string {
	var out bytes.Buffer
	for _, fn := range p.Functions {
		out.WriteString("define ")
		out.WriteString(fn.Name)
		out.WriteString(" ")
		out.WriteString(fn.Lambda.String())
		out.WriteString("\n")
	}
	return out.String()
}

// Function returns the definition named name, or nil.
func (p *Program) Function(name string) *FunctionDef {
	for _, fn := range p.Functions {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}

// Walk visits n and its children depth-first, left before right. Visiting
// stops below a node for which fn returns false.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	if op, ok := n.(*OpNode); ok {
		Walk(op.Left, fn)
		Walk(op.Right, fn)
	}
}

// Items flattens a LISTITEM or VARLIST chain into its element nodes.
func Items(chain Node) []Node {
	var out []Node
	for chain != nil {
		op, ok := chain.(*OpNode)
		if !ok || (op.Op != LISTITEM && op.Op != VARLIST) {
			break
		}
		out = append(out, op.Left)
		chain = op.Right
	}
	return out
}
