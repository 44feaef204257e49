package literal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueString(t *testing.T) {
	tests := []struct {
		value Value
		want  string
	}{
		{NewInt32(42), "42"},
		{NewInt64(-7), "-7L"},
		{NewUint32(3), "3u"},
		{NewUint64(9), "9uL"},
		{NewDouble(2), "2.0"},
		{NewDouble(1.5), "1.5"},
		{NewFloat(0.5), "0.5f"},
		{NewString("a\"b"), `"a\"b"`},
		{NewChar('\n'), `'\n'`},
		{NewChar('x'), `'x'`},
		{NewBool(true), "true"},
		{NewNull(), "null"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.value.String())
	}
}

func TestAsInt64(t *testing.T) {
	n, ok := NewUint32(12).AsInt64()
	assert.True(t, ok)
	assert.Equal(t, int64(12), n)

	_, ok = NewUint64(1 << 63).AsInt64()
	assert.False(t, ok, "values above MaxInt64 do not fit")

	_, ok = NewDouble(1).AsInt64()
	assert.False(t, ok)

	assert.True(t, NewInt64(1).IsInteger())
	assert.False(t, NewChar('a').IsInteger())
}
