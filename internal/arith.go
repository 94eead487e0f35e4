package agent

import (
	"math"
)

func applyUnary(op string, v Value) (Value, error) {
	switch v.Kind {
	case KindBool:
		return Value{}, evalErr(ErrType, -1, "bad operand for unary %s: bool", unaryName(op))
	case KindInt:
		if op == opNeg {
			if v.Int == math.MinInt64 {
				return Value{}, evalErr(ErrOverflow, -1, "integer negation")
			}
			return IntValue(-v.Int), nil
		}
		return v, nil
	}
	if op == opNeg {
		return FloatValue(-v.Float), nil
	}
	return v, nil
}

func unaryName(op string) string {
	if op == opNeg {
		return "-"
	}
	return "+"
}

func applyBinary(op string, a, b Value) (Value, error) {
	if a.Kind == KindBool || b.Kind == KindBool {
		return Value{}, evalErr(ErrType, -1, "bool operand for %s", op)
	}
	switch op {
	case "<", ">", "<=", ">=", "==":
		return compare(op, a, b), nil
	case "/":
		// true division, even for two ints
		if b.Float64() == 0 {
			return Value{}, evalErr(ErrDivisionByZero, -1, "")
		}
		return finite(a.Float64() / b.Float64())
	}
	if a.Kind == KindInt && b.Kind == KindInt {
		return intOp(op, a.Int, b.Int)
	}
	return floatOp(op, a.Float64(), b.Float64())
}

func intOp(op string, a, b int64) (Value, error) {
	switch op {
	case "+":
		r := a + b
		if (r > a) != (b > 0) {
			return Value{}, evalErr(ErrOverflow, -1, "integer addition")
		}
		return IntValue(r), nil
	case "-":
		r := a - b
		if (r < a) != (b > 0) {
			return Value{}, evalErr(ErrOverflow, -1, "integer subtraction")
		}
		return IntValue(r), nil
	case "*":
		if a == 0 || b == 0 {
			return IntValue(0), nil
		}
		r := a * b
		if r/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
			return Value{}, evalErr(ErrOverflow, -1, "integer multiplication")
		}
		return IntValue(r), nil
	case "%":
		if b == 0 {
			return Value{}, evalErr(ErrDivisionByZero, -1, "integer modulo")
		}
		r := a % b
		if r != 0 && (r < 0) != (b < 0) {
			r += b
		}
		return IntValue(r), nil
	}
	return Value{}, evalErr(ErrSyntax, -1, "unknown operator %s", op)
}

func floatOp(op string, a, b float64) (Value, error) {
	switch op {
	case "+":
		return finite(a + b)
	case "-":
		return finite(a - b)
	case "*":
		return finite(a * b)
	case "%":
		if b == 0 {
			return Value{}, evalErr(ErrDivisionByZero, -1, "float modulo")
		}
		r := math.Mod(a, b)
		if r != 0 && (r < 0) != (b < 0) {
			r += b
		}
		return finite(r)
	}
	return Value{}, evalErr(ErrSyntax, -1, "unknown operator %s", op)
}

func finite(f float64) (Value, error) {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return Value{}, evalErr(ErrOverflow, -1, "float result out of range")
	}
	return FloatValue(f), nil
}

func compare(op string, a, b Value) Value {
	var c int
	if a.Kind == KindInt && b.Kind == KindInt {
		c = cmpOrdered(a.Int, b.Int)
	} else {
		c = cmpOrdered(a.Float64(), b.Float64())
	}
	switch op {
	case "<":
		return BoolValue(c < 0)
	case ">":
		return BoolValue(c > 0)
	case "<=":
		return BoolValue(c <= 0)
	case ">=":
		return BoolValue(c >= 0)
	}
	return BoolValue(c == 0)
}

func cmpOrdered[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
