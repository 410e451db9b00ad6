package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVEscape(t *testing.T) {
	assert.Equal(t, "plain", csvEscape("plain"))
	assert.Equal(t, `"a,b"`, csvEscape("a,b"))
	assert.Equal(t, `"say ""hi"""`, csvEscape(`say "hi"`))
	assert.Equal(t, "", csvEscape(""))
}

func TestNilIfEmpty(t *testing.T) {
	assert.Nil(t, nilIfEmpty(""))
	got := nilIfEmpty("x")
	require.NotNil(t, got)
	assert.Equal(t, "x", *got)
}

func TestJSONWritesContentType(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, 201, map[string]string{"key": "value"})

	assert.Equal(t, 201, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "value", body["key"])
}

func TestJSONErrorShape(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONError(rec, 404, "Vehicle not found")

	assert.Equal(t, 404, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Vehicle not found", body["error"])
}
