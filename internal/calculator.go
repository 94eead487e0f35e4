package agent

import (
	"errors"
	"strconv"
)

// CalculatorAgent evaluates arithmetic-only expressions without a general
// purpose evaluator: input is tokenized, converted to postfix with the
// shunting-yard algorithm and reduced on a value stack.
type CalculatorAgent struct{}

// Calculate evaluates expression locally. Input rejected by IsArithmetic
// returns ErrUnsafe; every other failure is an *EvalError.
func (a *CalculatorAgent) Calculate(expression string) (Value, error) {
	if !IsArithmetic(expression) {
		return Value{}, ErrUnsafe
	}
	tokens, err := tokenize(expression)
	if err != nil {
		return Value{}, err
	}
	postfix, err := infixToPostfix(tokens)
	if err != nil {
		return Value{}, err
	}
	return evaluatePostfix(postfix)
}

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokOperator
	tokLParen
	tokRParen
)

type token struct {
	kind  tokenKind
	op    string
	value Value
	pos   int
}

// unary operators get their own names so they never collide with binary ones.
const (
	opNeg = "neg"
	opPos = "pos"
)

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\v' || c == '\f' || c == '\r'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func tokenize(expr string) ([]token, error) {
	var tokens []token
	for i := 0; i < len(expr); {
		c := expr[i]
		switch {
		case isSpace(c):
			i++
		case isDigit(c) || c == '.':
			tok, next, err := scanNumber(expr, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			i = next
		case c == '(':
			tokens = append(tokens, token{kind: tokLParen, pos: i})
			i++
		case c == ')':
			tokens = append(tokens, token{kind: tokRParen, pos: i})
			i++
		default:
			op, width, err := scanOperator(expr, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{kind: tokOperator, op: op, pos: i})
			i += width
		}
	}
	return tokens, nil
}

func scanNumber(expr string, start int) (token, int, error) {
	i := start
	for i < len(expr) && isDigit(expr[i]) {
		i++
	}
	isFloat := false
	if i < len(expr) && expr[i] == '.' {
		isFloat = true
		i++
		for i < len(expr) && isDigit(expr[i]) {
			i++
		}
	}
	lit := expr[start:i]
	if lit == "." {
		return token{}, 0, evalErr(ErrSyntax, start, "lone decimal point")
	}
	tok := token{kind: tokNumber, pos: start}
	if isFloat {
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return token{}, 0, literalErr(err, start, lit)
		}
		tok.value = FloatValue(f)
	} else {
		n, err := strconv.ParseInt(lit, 10, 64)
		if err != nil {
			return token{}, 0, literalErr(err, start, lit)
		}
		tok.value = IntValue(n)
	}
	return tok, i, nil
}

func literalErr(err error, pos int, lit string) error {
	if errors.Is(err, strconv.ErrRange) {
		return evalErr(ErrOverflow, pos, "literal %s out of range", lit)
	}
	return evalErr(ErrSyntax, pos, "invalid literal %s", lit)
}

func scanOperator(expr string, i int) (string, int, error) {
	c := expr[i]
	var next byte
	if i+1 < len(expr) {
		next = expr[i+1]
	}
	switch c {
	case '+', '-', '%':
		return string(c), 1, nil
	case '*':
		if next == '*' {
			return "", 0, evalErr(ErrSyntax, i, "power operator is not supported")
		}
		return "*", 1, nil
	case '/':
		if next == '/' {
			return "", 0, evalErr(ErrSyntax, i, "floor division is not supported")
		}
		return "/", 1, nil
	case '<', '>':
		if next == '=' {
			return string(c) + "=", 2, nil
		}
		return string(c), 1, nil
	case '=':
		if next == '=' {
			return "==", 2, nil
		}
		return "", 0, evalErr(ErrSyntax, i, "assignment is not an expression")
	case ',':
		return "", 0, evalErr(ErrSyntax, i, "tuples are not supported")
	}
	return "", 0, evalErr(ErrSyntax, i, "unexpected character %q", c)
}

func precedence(op string) int {
	switch op {
	case "<", ">", "<=", ">=", "==":
		return 1
	case "+", "-":
		return 2
	case "*", "/", "%":
		return 3
	case opNeg, opPos:
		return 4
	}
	return 0
}

func isUnary(op string) bool { return op == opNeg || op == opPos }

// infixToPostfix reorders tokens into reverse polish notation. It tracks
// whether an operand is expected next, which both separates unary from binary
// + and - and rejects malformed sequences such as "3 4", "()" or "1 +".
func infixToPostfix(infix []token) ([]token, error) {
	var postfix []token
	var stack []token
	expectOperand := true

	for _, tok := range infix {
		switch tok.kind {
		case tokNumber:
			if !expectOperand {
				return nil, evalErr(ErrSyntax, tok.pos, "unexpected number")
			}
			postfix = append(postfix, tok)
			expectOperand = false
		case tokLParen:
			if !expectOperand {
				return nil, evalErr(ErrSyntax, tok.pos, "unexpected '('")
			}
			stack = append(stack, tok)
		case tokRParen:
			if expectOperand {
				return nil, evalErr(ErrSyntax, tok.pos, "unexpected ')'")
			}
			for len(stack) > 0 && stack[len(stack)-1].kind != tokLParen {
				postfix = append(postfix, stack[len(stack)-1])
				stack = stack[:len(stack)-1]
			}
			if len(stack) == 0 {
				return nil, evalErr(ErrSyntax, tok.pos, "unbalanced ')'")
			}
			stack = stack[:len(stack)-1]
		case tokOperator:
			if expectOperand {
				switch tok.op {
				case "-":
					tok.op = opNeg
				case "+":
					tok.op = opPos
				default:
					return nil, evalErr(ErrSyntax, tok.pos, "missing operand before %s", tok.op)
				}
				// prefix operators bind to what follows, nothing is popped
				stack = append(stack, tok)
				continue
			}
			for len(stack) > 0 {
				top := stack[len(stack)-1]
				if top.kind != tokOperator || precedence(top.op) < precedence(tok.op) {
					break
				}
				postfix = append(postfix, top)
				stack = stack[:len(stack)-1]
			}
			stack = append(stack, tok)
			expectOperand = true
		}
	}
	if expectOperand {
		return nil, evalErr(ErrSyntax, -1, "unexpected end of expression")
	}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.kind == tokLParen {
			return nil, evalErr(ErrSyntax, top.pos, "unbalanced '('")
		}
		postfix = append(postfix, top)
		stack = stack[:len(stack)-1]
	}
	return postfix, nil
}

func evaluatePostfix(postfix []token) (Value, error) {
	var stack []Value

	for _, tok := range postfix {
		if tok.kind == tokNumber {
			stack = append(stack, tok.value)
			continue
		}
		if isUnary(tok.op) {
			if len(stack) < 1 {
				return Value{}, evalErr(ErrSyntax, tok.pos, "missing operand")
			}
			v, err := applyUnary(tok.op, stack[len(stack)-1])
			if err != nil {
				return Value{}, withPos(err, tok.pos)
			}
			stack[len(stack)-1] = v
			continue
		}
		if len(stack) < 2 {
			return Value{}, evalErr(ErrSyntax, tok.pos, "missing operand")
		}
		b := stack[len(stack)-1]
		a := stack[len(stack)-2]
		stack = stack[:len(stack)-2]
		v, err := applyBinary(tok.op, a, b)
		if err != nil {
			return Value{}, withPos(err, tok.pos)
		}
		stack = append(stack, v)
	}

	if len(stack) != 1 {
		return Value{}, evalErr(ErrSyntax, -1, "malformed expression")
	}
	return stack[0], nil
}

func withPos(err error, pos int) error {
	var ee *EvalError
	if errors.As(err, &ee) && ee.Pos < 0 {
		ee.Pos = pos
	}
	return err
}
