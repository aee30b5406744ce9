package vecstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatVector(t *testing.T) {
	assert.Equal(t, "[1,0,-0.5]", formatVector([]float32{1, 0, -0.5}))
	assert.Equal(t, "[]", formatVector(nil))
}

func TestParseVector(t *testing.T) {
	assert.Equal(t, []float32{1, 0, -0.5}, parseVector("[1,0,-0.5]"))
	assert.Nil(t, parseVector("[]"))
	assert.Equal(t, []float32{0.25, 2}, parseVector("[0.25, 2]"))
}

func TestVectorTextRoundTrip(t *testing.T) {
	original := []float32{0.123456, -9.75, 0, 1e-5}
	restored := parseVector(formatVector(original))
	assert.Equal(t, original, restored)
}

func TestNullableString(t *testing.T) {
	assert.Nil(t, nullableString(""))
	assert.Equal(t, "API Gateway", nullableString("API Gateway"))
}
