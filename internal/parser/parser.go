package parser

import (
	"fmt"

	"pebl/internal/ast"
	"pebl/internal/diag"
	"pebl/internal/lexer"
	"pebl/internal/numlit"
	"pebl/internal/object"
	"pebl/internal/token"
)

type (
	prefixParseFn func() ast.Node
	infixParseFn  func(ast.Node) ast.Node
)

type Parser struct {
	file   string
	errors []string
	diags  []diag.Diagnostic

	tokens []token.Token
	pos    int

	curToken  token.Token
	peekToken token.Token

	loopDepth  int
	blockDepth int

	prefixParseFns map[token.Type]prefixParseFn
	infixParseFns  map[token.Type]infixParseFn
}

/* -------------------- precedence -------------------- */

const (
	_ int = iota
	LOWEST
	ORPREC      // or
	ANDPREC     // and
	EQUALS      // == <>
	LESSGREATER // < <= > >=
	SUM         // + -
	PRODUCT     // * /
	POWER       // ^
	PREFIX      // not X
)

var precedences = map[token.Type]int{
	token.OR:    ORPREC,
	token.AND:   ANDPREC,
	token.EQ:    EQUALS,
	token.NE:    EQUALS,
	token.LT:    LESSGREATER,
	token.LE:    LESSGREATER,
	token.GT:    LESSGREATER,
	token.GE:    LESSGREATER,
	token.PLUS:  SUM,
	token.MINUS: SUM,
	token.STAR:  PRODUCT,
	token.SLASH: PRODUCT,
	token.CARET: POWER,
}

var infixOpcodes = map[token.Type]ast.Opcode{
	token.PLUS:  ast.ADD,
	token.MINUS: ast.SUBTRACT,
	token.STAR:  ast.MULTIPLY,
	token.SLASH: ast.DIVIDE,
	token.CARET: ast.POWER,
	token.EQ:    ast.EQ,
	token.NE:    ast.NE,
	token.LT:    ast.LT,
	token.LE:    ast.LE,
	token.GT:    ast.GT,
	token.GE:    ast.GE,
	token.AND:   ast.AND,
	token.OR:    ast.OR,
}

/* -------------------- constructor -------------------- */

func New(l *lexer.Lexer) *Parser {
	return NewWithFile(l, "")
}

// NewWithFile records file in every node position.
func NewWithFile(l *lexer.Lexer, file string) *Parser {
	p := &Parser{
		file:           file,
		errors:         []string{},
		diags:          []diag.Diagnostic{},
		prefixParseFns: map[token.Type]prefixParseFn{},
		infixParseFns:  map[token.Type]infixParseFn{},
	}
	for {
		tok := l.NextToken()
		p.tokens = append(p.tokens, tok)
		if tok.Type == token.EOF {
			break
		}
	}

	// read two tokens, so cur and peek are set
	p.pos = -2
	p.nextToken()
	p.nextToken()

	p.registerPrefix(token.INT, p.parseIntegerLiteral)
	p.registerPrefix(token.FLOAT, p.parseFloatLiteral)
	p.registerPrefix(token.STRING, p.parseStringLiteral)
	p.registerPrefix(token.LOCALVAR, p.parseVariable)
	p.registerPrefix(token.GLOBALVAR, p.parseVariable)
	p.registerPrefix(token.FUNCNAME, p.parseCallExpression)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpression)
	p.registerPrefix(token.LBRACKET, p.parseListLiteral)
	p.registerPrefix(token.MINUS, p.parseNegation)
	p.registerPrefix(token.NOT, p.parseNot)

	for tt := range infixOpcodes {
		p.registerInfix(tt, p.parseInfixExpression)
	}

	return p
}

// ParseSource is the one-call form used by the loader, linter and LSP.
func ParseSource(file, src string) (*ast.Program, []diag.Diagnostic) {
	p := NewWithFile(lexer.New(src), file)
	prog := p.ParseProgram()
	return prog, p.Diagnostics()
}

func (p *Parser) Diagnostics() []diag.Diagnostic { return p.diags }
func (p *Parser) Errors() []string               { return p.errors }

/* -------------------- program -------------------- */

func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{File: p.file, Functions: []*ast.FunctionDef{}}

	for p.curToken.Type != token.EOF {
		if p.curToken.Type == token.NEWLINE {
			p.nextToken()
			continue
		}
		if p.curToken.Type != token.DEFINE {
			p.errorAt(p.curToken, fmt.Sprintf("expected function definition, got %s", describe(p.curToken)))
			p.skipToNextDefine()
			continue
		}

		fn := p.parseDefine()
		if fn == nil {
			p.skipToNextDefine()
			continue
		}
		if program.Function(fn.Name) != nil {
			p.errorAtPos(fn.Position, fmt.Sprintf("function %s defined more than once", fn.Name))
		}
		program.Functions = append(program.Functions, fn)
		p.nextToken()
	}

	return program
}

func (p *Parser) skipToNextDefine() {
	for p.curToken.Type != token.EOF && p.curToken.Type != token.DEFINE {
		p.nextToken()
	}
}

/* -------------------- definitions -------------------- */

func (p *Parser) parseDefine() *ast.FunctionDef {
	defTok := p.curToken
	if !p.expectPeekNoSkip(token.FUNCNAME) {
		return nil
	}
	name := p.curToken.Literal
	if !p.expectPeekNoSkip(token.LPAREN) {
		return nil
	}
	params, ok := p.parseParameters()
	if !ok {
		return nil
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	body := p.parseFunctionBody()
	if body == nil {
		return nil
	}
	pos := p.position(defTok)
	return &ast.FunctionDef{
		Name:     name,
		Lambda:   ast.NewOp(ast.LAMBDAFUNCTION, params, body, pos),
		Position: pos,
	}
}

// parseParameters starts on '(' and ends on ')'. The result is a VARLIST
// chain whose items are variable leaves or VARPAIR(variable, default).
func (p *Parser) parseParameters() (ast.Node, bool) {
	if p.peekToken.Type == token.RPAREN {
		p.nextToken()
		return nil, true
	}

	var items []ast.Node
	for {
		p.skipSeparatorsPeek()
		p.nextToken()
		if p.curToken.Type == token.GLOBALVAR {
			p.errorAt(p.curToken, "parameter names must be local variables")
			return nil, false
		}
		if p.curToken.Type != token.LOCALVAR {
			p.errorAt(p.curToken, fmt.Sprintf("expected parameter name, got %s", describe(p.curToken)))
			return nil, false
		}
		v := object.NewVariable(p.curToken.Literal)
		if v.VarProperty() != "" {
			p.errorAt(p.curToken, "parameter names cannot have a property")
			return nil, false
		}
		item := ast.Node(ast.NewLeaf(v, p.position(p.curToken)))
		if p.peekToken.Type == token.COLON {
			colon := p.peekToken
			p.nextToken()
			p.nextToken()
			def := p.parseDefaultValue()
			if def == nil {
				return nil, false
			}
			item = ast.NewOp(ast.VARPAIR, item, def, p.position(colon))
		}
		items = append(items, item)

		p.skipSeparatorsPeek()
		if p.peekToken.Type == token.COMMA {
			p.nextToken()
			continue
		}
		if !p.expectPeekNoSkip(token.RPAREN) {
			return nil, false
		}
		return chain(ast.VARLIST, items), true
	}
}

func (p *Parser) parseDefaultValue() ast.Node {
	tok := p.curToken
	switch tok.Type {
	case token.INT, token.FLOAT, token.STRING:
		return p.parseExpressionPrefixOnly()
	case token.LOCALVAR, token.GLOBALVAR:
		return p.parseVariable()
	case token.MINUS:
		if p.peekToken.Type == token.INT || p.peekToken.Type == token.FLOAT {
			return p.parseNegation()
		}
	}
	p.errorAt(tok, fmt.Sprintf("default value must be a number, string or variable, got %s", describe(tok)))
	return nil
}

func (p *Parser) parseExpressionPrefixOnly() ast.Node {
	prefix := p.prefixParseFns[p.curToken.Type]
	return prefix()
}

// parseFunctionBody starts on '{' and ends on '}'. A body whose last
// statement is not a return gets an implicit "return 1".
func (p *Parser) parseFunctionBody() ast.Node {
	open := p.curToken
	stmts, ok := p.parseStatementList()
	if !ok {
		return nil
	}
	if len(stmts) == 0 {
		stmts = append(stmts, ast.NewLeaf(object.NewInteger(0), p.position(open)))
	}
	last, isReturn := stmts[len(stmts)-1].(*ast.OpNode)
	if !isReturn || last.Op != ast.RETURN {
		pos := p.position(p.curToken)
		stmts = append(stmts, ast.NewOp(ast.RETURN, ast.NewLeaf(object.NewInteger(1), pos), nil, pos))
	}
	return sequence(stmts)
}

// parseBlock starts on '{' and ends on '}'. An empty block evaluates to 0.
func (p *Parser) parseBlock() ast.Node {
	open := p.curToken
	stmts, ok := p.parseStatementList()
	if !ok {
		return nil
	}
	if len(stmts) == 0 {
		return ast.NewLeaf(object.NewInteger(0), p.position(open))
	}
	return sequence(stmts)
}

func (p *Parser) parseStatementList() ([]ast.Node, bool) {
	// curToken is '{'
	p.blockDepth++
	defer func() { p.blockDepth-- }()

	stmts := []ast.Node{}
	p.nextToken()
	for p.curToken.Type != token.RBRACE {
		if p.curToken.Type == token.EOF {
			p.errorAt(p.curToken, "unexpected end of file, expected }")
			return nil, false
		}
		if p.curToken.Type == token.NEWLINE {
			p.nextToken()
			continue
		}

		stmt := p.parseStatement()
		if stmt != nil {
			if n := len(stmts); n > 0 && isReturn(stmts[n-1]) {
				p.errorAtPos(stmts[n-1].Pos(), "return must be the last statement of a function")
			}
			stmts = append(stmts, stmt)
		}

		switch p.peekToken.Type {
		case token.NEWLINE, token.RBRACE, token.EOF:
		default:
			p.errorAt(p.peekToken, fmt.Sprintf("expected end of statement, got %s", describe(p.peekToken)))
			for p.peekToken.Type != token.NEWLINE && p.peekToken.Type != token.RBRACE && p.peekToken.Type != token.EOF {
				p.nextToken()
			}
		}
		p.nextToken()
	}
	return stmts, true
}

/* -------------------- statements -------------------- */

func (p *Parser) parseStatement() ast.Node {
	switch p.curToken.Type {
	case token.IF:
		return p.parseIfStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.LOOP:
		return p.parseLoopStatement()
	case token.BREAK:
		if p.loopDepth == 0 {
			p.errorAt(p.curToken, "break outside of while or loop")
			return nil
		}
		return ast.NewOp(ast.BREAK, nil, nil, p.position(p.curToken))
	case token.RETURN:
		return p.parseReturnStatement()
	case token.LOCALVAR, token.GLOBALVAR:
		if p.peekToken.Type == token.ASSIGN {
			return p.parseAssignStatement()
		}
	}
	return p.parseExpression(LOWEST)
}

func (p *Parser) parseAssignStatement() ast.Node {
	target := p.parseVariable()
	p.nextToken()
	assignTok := p.curToken
	p.nextToken()
	value := p.parseExpression(LOWEST)
	if value == nil {
		return nil
	}
	return ast.NewOp(ast.ASSIGN, target, value, p.position(assignTok))
}

func (p *Parser) parseReturnStatement() ast.Node {
	retTok := p.curToken
	if p.blockDepth != 1 || p.loopDepth != 0 {
		p.errorAt(retTok, "return must be the last statement of a function")
		return nil
	}
	p.nextToken()
	value := p.parseExpression(LOWEST)
	if value == nil {
		return nil
	}
	return ast.NewOp(ast.RETURN, value, nil, p.position(retTok))
}

// parseIfStatement handles if and elseif. With an else branch the shape is
// IFELSE(cond, ELSE(then, otherwise)).
func (p *Parser) parseIfStatement() ast.Node {
	ifTok := p.curToken
	cond := p.parseCondition()
	if cond == nil {
		return nil
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	then := p.parseBlock()
	if then == nil {
		return nil
	}

	switch p.peekPastNewlines() {
	case token.ELSEIF:
		p.skipSeparatorsPeek()
		p.nextToken()
		elseTok := p.curToken
		rest := p.parseIfStatement()
		if rest == nil {
			return nil
		}
		elseNode := ast.NewOp(ast.ELSE, then, rest, p.position(elseTok))
		return ast.NewOp(ast.IFELSE, cond, elseNode, p.position(ifTok))
	case token.ELSE:
		p.skipSeparatorsPeek()
		p.nextToken()
		elseTok := p.curToken
		if !p.expectPeek(token.LBRACE) {
			return nil
		}
		otherwise := p.parseBlock()
		if otherwise == nil {
			return nil
		}
		elseNode := ast.NewOp(ast.ELSE, then, otherwise, p.position(elseTok))
		return ast.NewOp(ast.IFELSE, cond, elseNode, p.position(ifTok))
	}
	return ast.NewOp(ast.IF, cond, then, p.position(ifTok))
}

func (p *Parser) parseWhileStatement() ast.Node {
	whileTok := p.curToken
	cond := p.parseCondition()
	if cond == nil {
		return nil
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	p.loopDepth++
	body := p.parseBlock()
	p.loopDepth--
	if body == nil {
		return nil
	}
	return ast.NewOp(ast.WHILE, cond, body, p.position(whileTok))
}

// loop(var, collection) { body } becomes LOOP(VARIABLEDATUM(var, collection), body).
func (p *Parser) parseLoopStatement() ast.Node {
	loopTok := p.curToken
	if !p.expectPeekNoSkip(token.LPAREN) {
		return nil
	}
	p.nextToken()
	if p.curToken.Type != token.LOCALVAR && p.curToken.Type != token.GLOBALVAR {
		p.errorAt(p.curToken, fmt.Sprintf("expected loop variable, got %s", describe(p.curToken)))
		return nil
	}
	if object.NewVariable(p.curToken.Literal).VarProperty() != "" {
		p.errorAt(p.curToken, "loop variable cannot have a property")
		return nil
	}
	varLeaf := p.parseVariable()
	if !p.expectPeek(token.COMMA) {
		return nil
	}
	p.skipSeparatorsPeek()
	p.nextToken()
	collection := p.parseExpression(LOWEST)
	if collection == nil {
		return nil
	}
	p.skipSeparatorsPeek()
	if !p.expectPeekNoSkip(token.RPAREN) {
		return nil
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	p.loopDepth++
	body := p.parseBlock()
	p.loopDepth--
	if body == nil {
		return nil
	}
	datum := ast.NewOp(ast.VARIABLEDATUM, varLeaf, collection, p.position(loopTok))
	return ast.NewOp(ast.LOOP, datum, body, p.position(loopTok))
}

// parseCondition parses "(expr)" following if/elseif/while and leaves
// curToken on ')'.
func (p *Parser) parseCondition() ast.Node {
	if !p.expectPeekNoSkip(token.LPAREN) {
		return nil
	}
	p.skipSeparatorsPeek()
	p.nextToken()
	cond := p.parseExpression(LOWEST)
	if cond == nil {
		return nil
	}
	p.skipSeparatorsPeek()
	if !p.expectPeekNoSkip(token.RPAREN) {
		return nil
	}
	return cond
}

/* -------------------- expressions (Pratt) -------------------- */

func (p *Parser) parseExpression(precedence int) ast.Node {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken)
		return nil
	}

	leftExp := prefix()
	if leftExp == nil {
		return nil
	}

	for precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}

		p.nextToken()
		leftExp = infix(leftExp)
		if leftExp == nil {
			return nil
		}
	}

	return leftExp
}

func (p *Parser) parseVariable() ast.Node {
	return ast.NewLeaf(object.NewVariable(p.curToken.Literal), p.position(p.curToken))
}

func (p *Parser) parseIntegerLiteral() ast.Node {
	v, err := numlit.ParseIntLiteral(p.curToken.Literal)
	if err != nil {
		p.errorAt(p.curToken, fmt.Sprintf("could not parse int %q: %v", p.curToken.Literal, err))
		return nil
	}
	return ast.NewLeaf(object.NewInteger(v), p.position(p.curToken))
}

func (p *Parser) parseFloatLiteral() ast.Node {
	v, err := numlit.ParseFloatLiteral(p.curToken.Literal)
	if err != nil {
		p.errorAt(p.curToken, fmt.Sprintf("could not parse float %q: %v", p.curToken.Literal, err))
		return nil
	}
	return ast.NewLeaf(object.NewFloat(v), p.position(p.curToken))
}

func (p *Parser) parseStringLiteral() ast.Node {
	return ast.NewLeaf(object.NewString(p.curToken.Literal), p.position(p.curToken))
}

func (p *Parser) parseGroupedExpression() ast.Node {
	// curToken is '('
	p.skipSeparatorsPeek()
	p.nextToken()
	exp := p.parseExpression(LOWEST)
	if exp == nil {
		return nil
	}
	p.skipSeparatorsPeek()
	if !p.expectPeekNoSkip(token.RPAREN) {
		return nil
	}
	return exp
}

// parseNegation folds "-literal" into a negative literal and otherwise
// builds SUBTRACT(0, x).
func (p *Parser) parseNegation() ast.Node {
	minusTok := p.curToken
	p.nextToken()
	operand := p.parseExpression(PRODUCT)
	if operand == nil {
		return nil
	}
	pos := p.position(minusTok)
	if leaf, ok := operand.(*ast.Leaf); ok {
		switch v := leaf.Value.(type) {
		case *object.Integer:
			return ast.NewLeaf(object.NewInteger(-v.Value), pos)
		case *object.Float:
			return ast.NewLeaf(object.NewFloat(-v.Value), pos)
		}
	}
	return ast.NewOp(ast.SUBTRACT, ast.NewLeaf(object.NewInteger(0), pos), operand, pos)
}

func (p *Parser) parseNot() ast.Node {
	notTok := p.curToken
	p.nextToken()
	operand := p.parseExpression(PREFIX)
	if operand == nil {
		return nil
	}
	return ast.NewOp(ast.NOT, operand, nil, p.position(notTok))
}

func (p *Parser) parseInfixExpression(left ast.Node) ast.Node {
	opTok := p.curToken
	prec := p.curPrecedence()
	if opTok.Type == token.CARET {
		// right-associative
		prec--
	}
	p.skipSeparatorsPeek()
	p.nextToken()
	right := p.parseExpression(prec)
	if right == nil {
		return nil
	}
	return ast.NewOp(infixOpcodes[opTok.Type], left, right, p.position(opTok))
}

// parseCallExpression builds FUNCTION(Leaf(FunctionRef), ARGLIST(items)).
func (p *Parser) parseCallExpression() ast.Node {
	nameTok := p.curToken
	if !p.expectPeekNoSkip(token.LPAREN) {
		return nil
	}
	argsTok := p.curToken
	args, ok := p.parseExpressionList(token.RPAREN)
	if !ok {
		return nil
	}
	pos := p.position(nameTok)
	name := ast.NewLeaf(&object.FunctionRef{Name: nameTok.Literal}, pos)
	arglist := ast.NewOp(ast.ARGLIST, chain(ast.LISTITEM, args), nil, p.position(argsTok))
	return ast.NewOp(ast.FUNCTION, name, arglist, pos)
}

func (p *Parser) parseListLiteral() ast.Node {
	openTok := p.curToken
	items, ok := p.parseExpressionList(token.RBRACKET)
	if !ok {
		return nil
	}
	return ast.NewOp(ast.LISTHEAD, chain(ast.LISTITEM, items), nil, p.position(openTok))
}

// parseExpressionList starts on the opening delimiter and ends on end.
// Newlines are allowed around items.
func (p *Parser) parseExpressionList(end token.Type) ([]ast.Node, bool) {
	list := []ast.Node{}

	p.skipSeparatorsPeek()
	if p.peekToken.Type == end {
		p.nextToken()
		return list, true
	}

	for {
		p.skipSeparatorsPeek()
		p.nextToken()
		item := p.parseExpression(LOWEST)
		if item == nil {
			return nil, false
		}
		list = append(list, item)

		p.skipSeparatorsPeek()
		if p.peekToken.Type != token.COMMA {
			break
		}
		p.nextToken()
	}

	if !p.expectPeekNoSkip(end) {
		return nil, false
	}
	return list, true
}

/* -------------------- helpers -------------------- */

// chain links items into a right-nested LISTITEM/VARLIST chain; nil when
// there are no items.
func chain(op ast.Opcode, items []ast.Node) ast.Node {
	var out ast.Node
	for i := len(items) - 1; i >= 0; i-- {
		out = ast.NewOp(op, items[i], out, items[i].Pos())
	}
	return out
}

// sequence nests statements to the left: STATEMENTS(STATEMENTS(a, b), c).
func sequence(stmts []ast.Node) ast.Node {
	out := stmts[0]
	for _, s := range stmts[1:] {
		out = ast.NewOp(ast.STATEMENTS, out, s, s.Pos())
	}
	return out
}

func isReturn(n ast.Node) bool {
	op, ok := n.(*ast.OpNode)
	return ok && op.Op == ast.RETURN
}

func (p *Parser) position(tok token.Token) ast.Position {
	return ast.Position{File: p.file, Line: tok.Line, Col: tok.Col}
}

func (p *Parser) nextToken() {
	p.pos++
	p.curToken = p.tokenAt(p.pos)
	p.peekToken = p.tokenAt(p.pos + 1)
}

func (p *Parser) tokenAt(i int) token.Token {
	if i < 0 {
		return token.Token{}
	}
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[i]
}

// peekPastNewlines returns the first non-NEWLINE token type after
// curToken without consuming anything.
func (p *Parser) peekPastNewlines() token.Type {
	for i := p.pos + 1; i < len(p.tokens); i++ {
		if p.tokens[i].Type != token.NEWLINE {
			return p.tokens[i].Type
		}
	}
	return token.EOF
}

func (p *Parser) registerPrefix(t token.Type, fn prefixParseFn) {
	p.prefixParseFns[t] = fn
}

func (p *Parser) registerInfix(t token.Type, fn infixParseFn) {
	p.infixParseFns[t] = fn
}

func (p *Parser) expectPeek(t token.Type) bool {
	p.skipSeparatorsPeek()
	return p.expectPeekNoSkip(t)
}

func (p *Parser) expectPeekNoSkip(t token.Type) bool {
	if p.peekToken.Type == t {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) errorAt(tok token.Token, msg string) {
	length := 1
	if tok.Literal != "" {
		length = len([]rune(tok.Literal))
	}
	p.addError(tok.Line, tok.Col, length, msg)
}

func (p *Parser) errorAtPos(pos ast.Position, msg string) {
	p.addError(pos.Line, pos.Col, 1, msg)
}

func (p *Parser) addError(line, col, length int, msg string) {
	p.diags = append(p.diags, diag.Diagnostic{
		Code:     diag.CodeParse,
		Message:  msg,
		Severity: diag.SeverityError,
		Range: diag.Range{
			Line:   line,
			Col:    col,
			Length: length,
		},
	})
	p.errors = append(p.errors, fmt.Sprintf("%d:%d: %s", line, col, msg))
}

func (p *Parser) peekError(t token.Type) {
	msg := fmt.Sprintf("expected next token to be %s, got %s instead", t, describe(p.peekToken))
	p.errorAt(p.peekToken, msg)
}

func (p *Parser) noPrefixParseFnError(tok token.Token) {
	p.errorAt(tok, fmt.Sprintf("unexpected %s in expression", describe(tok)))
}

func (p *Parser) peekPrecedence() int {
	if p, ok := precedences[p.peekToken.Type]; ok {
		return p
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if p, ok := precedences[p.curToken.Type]; ok {
		return p
	}
	return LOWEST
}

func (p *Parser) skipSeparatorsPeek() {
	for p.peekToken.Type == token.NEWLINE {
		p.nextToken()
	}
}

func describe(tok token.Token) string {
	switch tok.Type {
	case token.NEWLINE:
		return "end of line"
	case token.EOF:
		return "end of file"
	case token.ILLEGAL:
		return fmt.Sprintf("illegal token %q", tok.Literal)
	}
	if tok.Literal != "" && string(tok.Type) != tok.Literal {
		return fmt.Sprintf("%s %q", tok.Type, tok.Literal)
	}
	return string(tok.Type)
}
