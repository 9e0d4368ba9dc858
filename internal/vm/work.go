package vm

import (
	"fmt"

	"pebl/internal/ast"
)

// kind is what a node-stack entry does when popped: evaluate a parsed node,
// or resume one of the protocols below after its children ran. Markers are
// never ast opcodes.
type kind int

const (
	kNode kind = iota

	kBinaryTail
	kAndTail
	kOrTail
	kBoolTail
	kNotTail
	kAssignTail

	kStatementsTail

	kIfTail
	kElseTail

	kWhileTail
	kWhileTail2

	kLoopTail1
	kLoopTail2

	kFunctionTail1
	kFunctionTail2
	kLambda
	kLibrary
	kFunctionTailLib

	kListTail

	kDiscard
	kCallbackDone
	kCycle
)

var kindNames = map[kind]string{
	kNode:            "NODE",
	kBinaryTail:      "BINARY_TAIL",
	kAndTail:         "AND_TAIL",
	kOrTail:          "OR_TAIL",
	kBoolTail:        "BOOL_TAIL",
	kNotTail:         "NOT_TAIL",
	kAssignTail:      "ASSIGN_TAIL",
	kStatementsTail:  "STATEMENTS_TAIL1",
	kIfTail:          "IF_TAIL",
	kElseTail:        "ELSE_TAIL",
	kWhileTail:       "WHILE_TAIL",
	kWhileTail2:      "WHILE_TAIL2",
	kLoopTail1:       "LOOP_TAIL1",
	kLoopTail2:       "LOOP_TAIL2",
	kFunctionTail1:   "FUNCTION_TAIL1",
	kFunctionTail2:   "FUNCTION_TAIL2",
	kLambda:          "LAMBDA",
	kLibrary:         "LIBRARY",
	kFunctionTailLib: "FUNCTION_TAIL_LIB",
	kListTail:        "LIST_TAIL",
	kDiscard:         "DISCARD",
	kCallbackDone:    "CALLBACK_DONE",
	kCycle:           "EVENT_CYCLE",
}

func (k kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("KIND(%d)", int(k))
}

// work is one node-stack entry. node is the parsed node the entry was
// created for; errors raised while handling it report its location.
type work struct {
	kind kind
	node ast.Node

	fn   *ast.OpNode // kFunctionTail2, kLambda, kLibrary
	name string      // kFunctionTail2, kLambda, kLibrary, kFunctionTailLib

	id     int          // kCallbackDone
	sink   CallbackSink // kCallbackDone
	cycler Cycler       // kCycle
}

func (w work) String() string {
	if w.kind == kNode {
		if op, ok := w.node.(*ast.OpNode); ok {
			return op.Op.String()
		}
		return "LEAF"
	}
	return w.kind.String()
}

func nodeWork(n ast.Node) work { return work{kind: kNode, node: n} }

func tail(k kind, n ast.Node) work { return work{kind: k, node: n} }
