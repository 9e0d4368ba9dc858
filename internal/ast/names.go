package ast

// Opcode is the closed set of operator-node kinds produced by parsing.
// The iterative evaluator keeps its own continuation markers and never
// mints new opcodes.
type Opcode int

const (
	ILLEGAL Opcode = iota

	ADD
	SUBTRACT
	MULTIPLY
	DIVIDE
	POWER

	AND
	OR
	NOT

	LT
	GT
	LE
	GE
	EQ
	NE

	ASSIGN
	STATEMENTS
	IF
	IFELSE
	ELSE
	WHILE
	LOOP
	VARIABLEDATUM
	BREAK
	RETURN

	FUNCTION // call: Left = Leaf(FunctionRef), Right = ARGLIST
	ARGLIST
	LISTHEAD
	LISTITEM
	VARLIST
	VARPAIR
	LAMBDAFUNCTION
	LIBRARYFUNCTION
)

var opcodeNames = map[Opcode]string{
	ILLEGAL:         "ILLEGAL",
	ADD:             "ADD",
	SUBTRACT:        "SUBTRACT",
	MULTIPLY:        "MULTIPLY",
	DIVIDE:          "DIVIDE",
	POWER:           "POWER",
	AND:             "AND",
	OR:              "OR",
	NOT:             "NOT",
	LT:              "LT",
	GT:              "GT",
	LE:              "LE",
	GE:              "GE",
	EQ:              "EQ",
	NE:              "NE",
	ASSIGN:          "ASSIGN",
	STATEMENTS:      "STATEMENTS",
	IF:              "IF",
	IFELSE:          "IFELSE",
	ELSE:            "ELSE",
	WHILE:           "WHILE",
	LOOP:            "LOOP",
	VARIABLEDATUM:   "VARIABLEDATUM",
	BREAK:           "BREAK",
	RETURN:          "RETURN",
	FUNCTION:        "FUNCTION",
	ARGLIST:         "ARGLIST",
	LISTHEAD:        "LISTHEAD",
	LISTITEM:        "LISTITEM",
	VARLIST:         "VARLIST",
	VARPAIR:         "VARPAIR",
	LAMBDAFUNCTION:  "LAMBDAFUNCTION",
	LIBRARYFUNCTION: "LIBRARYFUNCTION",
}

func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return "OPCODE(?)"
}

var operatorSymbols = map[Opcode]string{
	ADD:      "+",
	SUBTRACT: "-",
	MULTIPLY: "*",
	DIVIDE:   "/",
	POWER:    "^",
	LT:       "<",
	GT:       ">",
	LE:       "<=",
	GE:       ">=",
	EQ:       "==",
	NE:       "<>",
}

// Symbol returns the operator spelling used by semantics.BinaryOp, or ""
// for opcodes that are not plain binary operators.
func (op Opcode) Symbol() string {
	return operatorSymbols[op]
}

func (op Opcode) IsBinary() bool {
	_, ok := operatorSymbols[op]
	return ok
}
