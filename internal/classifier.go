package agent

// operators allowed in an arithmetic-only expression, besides digits and whitespace.
const operators = "+-/=()%.*><,"

// IsArithmetic reports whether expr contains only ASCII digits, ASCII whitespace
// and the operator set. The empty string is arithmetic.
func IsArithmetic(expr string) bool {
	for i := 0; i < len(expr); i++ {
		if !allowed(expr[i]) {
			return false
		}
	}
	return true
}

// allowed works on bytes: every byte of a multi-byte rune is >= 0x80 and so is rejected.
func allowed(c byte) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case c == ' ', c == '\t', c == '\n', c == '\v', c == '\f', c == '\r':
		return true
	}
	for i := 0; i < len(operators); i++ {
		if c == operators[i] {
			return true
		}
	}
	return false
}
