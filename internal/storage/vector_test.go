package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeVector(t *testing.T) {
	vector := []float32{0, 1.5, -2.25, 3.125e-5}

	blob := serializeVector(vector)
	assert.Len(t, blob, 16)
	assert.Equal(t, vector, deserializeVector(blob))

	assert.Empty(t, deserializeVector(nil))
}

func TestFormatVector(t *testing.T) {
	assert.Equal(t, "[]", formatVector(nil))
	assert.Equal(t, "[0.5,-1,0.25]", formatVector([]float32{0.5, -1, 0.25}))
}

func TestParseVector(t *testing.T) {
	got, err := parseVector("[0.5, -1,0.25]")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -1, 0.25}, got)

	got, err = parseVector("[]")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = parseVector("0.5,1")
	assert.Error(t, err)
	_, err = parseVector("[0.5,abc]")
	assert.Error(t, err)
}

func TestMetadataEncoding(t *testing.T) {
	encoded, err := encodeMetadata(nil)
	require.NoError(t, err)
	assert.Nil(t, encoded)

	encoded, err = encodeMetadata(map[string]any{})
	require.NoError(t, err)
	assert.Nil(t, encoded)

	encoded, err = encodeMetadata(map[string]any{"title": "Week 1", "draft": false})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Week 1","draft":false}`, encoded.(string))

	decoded, err := decodeMetadata(encoded.(string))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"title": "Week 1", "draft": false}, decoded)

	decoded, err = decodeMetadata("")
	require.NoError(t, err)
	assert.Nil(t, decoded)

	_, err = decodeMetadata("{broken")
	assert.Error(t, err)
}

func TestEncodeMetadata_Unsupported(t *testing.T) {
	_, err := encodeMetadata(map[string]any{"ch": make(chan int)})
	assert.Error(t, err)
}
