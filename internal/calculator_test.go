package agent

import (
	"strings"
	"testing"

	"github.com/Knetic/govaluate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		expr string
		want Value
	}{
		{"3 + 7", IntValue(10)},
		{"1 + 2 * 3", IntValue(7)},
		{"2 * (3 + 4)", IntValue(14)},
		{"10 - 2 - 3", IntValue(5)},
		{"2 * 3 % 4", IntValue(2)},
		{"7 % 3", IntValue(1)},
		{"-7 % 3", IntValue(2)},
		{"7 % -3", IntValue(-2)},
		{"-(2 + 3)", IntValue(-5)},
		{"--3", IntValue(3)},
		{"+4", IntValue(4)},
		{"2 * -3", IntValue(-6)},
		{"  42  ", IntValue(42)},
		{"\t1\n+\n2", IntValue(3)},
		{"7 / 2", FloatValue(3.5)},
		{"6 / 3", FloatValue(2)},
		{"100 / 10 / 5", FloatValue(2)},
		{"1.5 + 1", FloatValue(2.5)},
		{"5.5 % 2", FloatValue(1.5)},
		{"1.", FloatValue(1)},
		{".5 * 4", FloatValue(2)},
		{"3 > 2", BoolValue(true)},
		{"2 <= 1", BoolValue(false)},
		{"2 >= 2", BoolValue(true)},
		{"1 < 0.5", BoolValue(false)},
		{"4 == 4.0", BoolValue(true)},
		{"1 + 1 == 2", BoolValue(true)},
	}

	calc := &CalculatorAgent{}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := calc.Calculate(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalculateErrors(t *testing.T) {
	hugeFloat := "1" + strings.Repeat("0", 308) + ".0 * 10"

	tests := []struct {
		expr string
		want error
	}{
		{"", ErrSyntax},
		{"   ", ErrSyntax},
		{"(1 + 2", ErrSyntax},
		{"1 + 2)", ErrSyntax},
		{"()", ErrSyntax},
		{"3 4", ErrSyntax},
		{"1 +", ErrSyntax},
		{"* 2", ErrSyntax},
		{"2 (3)", ErrSyntax},
		{".", ErrSyntax},
		{"1.2.3", ErrSyntax},
		{"5.0**3.0 - 125.0", ErrSyntax},
		{"7 // 2", ErrSyntax},
		{"1 = 1", ErrSyntax},
		{"1, 2", ErrSyntax},
		{"1 < = 2", ErrSyntax},
		{"1 / 0", ErrDivisionByZero},
		{"1.0 / 0.0", ErrDivisionByZero},
		{"1 % 0", ErrDivisionByZero},
		{"1.5 % 0", ErrDivisionByZero},
		{"9223372036854775807 + 1", ErrOverflow},
		{"-9223372036854775807 - 2", ErrOverflow},
		{"3037000500 * 3037000500", ErrOverflow},
		{"99999999999999999999", ErrOverflow},
		{hugeFloat, ErrOverflow},
		{"1 < 2 < 3", ErrType},
		{"-(1 < 2)", ErrType},
		{"(1 == 1) + 1", ErrType},
		{"abc", ErrUnsafe},
		{"2 + x", ErrUnsafe},
	}

	calc := &CalculatorAgent{}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			_, err := calc.Calculate(tt.expr)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCalculateErrorPosition(t *testing.T) {
	calc := &CalculatorAgent{}

	_, err := calc.Calculate("1 + 2 / 0")
	var ee *EvalError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, 6, ee.Pos)
	assert.Contains(t, err.Error(), "division by zero")

	_, err = calc.Calculate("2 ** 3")
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, 2, ee.Pos)
	assert.Contains(t, err.Error(), "power operator")
}

// The local evaluator must agree with govaluate wherever both define the same semantics.
func TestCalculateMatchesGovaluate(t *testing.T) {
	exprs := []string{
		"3 + 7",
		"1 + 2 * 3",
		"2 * (3 + 4)",
		"10 - 2 - 3",
		"100 / 10 / 5",
		"7 / 2",
		"(1.5 + 2.5) * 4",
		"7 % 3",
		"2 * 3 % 4",
		"-(2 + 3) * 2",
		"0.1 + 0.2",
		"3 > 2",
		"2 <= 1",
		"4 == 4.0",
	}

	calc := &CalculatorAgent{}
	for _, expr := range exprs {
		t.Run(expr, func(t *testing.T) {
			ref, err := govaluate.NewEvaluableExpression(expr)
			require.NoError(t, err)
			want, err := ref.Evaluate(nil)
			require.NoError(t, err)

			got, err := calc.Calculate(expr)
			require.NoError(t, err)

			switch w := want.(type) {
			case bool:
				assert.Equal(t, KindBool, got.Kind)
				assert.Equal(t, w, got.Bool)
			case float64:
				assert.InDelta(t, w, got.Float64(), 1e-12)
			default:
				t.Fatalf("unexpected govaluate result %T", want)
			}
		})
	}
}
