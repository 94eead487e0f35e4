package agent

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueString(t *testing.T) {
	assert.Equal(t, "10", IntValue(10).String())
	assert.Equal(t, "-5", IntValue(-5).String())
	assert.Equal(t, "2.0", FloatValue(2).String())
	assert.Equal(t, "3.5", FloatValue(3.5).String())
	assert.Equal(t, "0.30000000000000004", FloatValue(0.1+0.2).String())
	assert.Equal(t, "1000000000000000000000.0", FloatValue(1e21).String())
	assert.Equal(t, "0.00000015", FloatValue(1.5e-7).String())
	assert.Equal(t, "True", BoolValue(true).String())
	assert.Equal(t, "False", BoolValue(false).String())
}

func TestValueJSON(t *testing.T) {
	data, err := json.Marshal([]Value{IntValue(10), FloatValue(2.5), BoolValue(true)})
	require.NoError(t, err)
	assert.JSONEq(t, `[10, 2.5, true]`, string(data))
}
