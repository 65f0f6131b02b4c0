package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeAddRequest(t *testing.T) {
	payload, err := encodeAddRequest(10.5, 0.5)
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"add","params":{"a":10.5,"b":0.5}}`, string(payload))
}

func TestDecodeResponse(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		result, err := decodeResponse([]byte(`{"status":"success","result":15}`))
		require.NoError(t, err)
		assert.Equal(t, float64(15), result)
	})

	t.Run("failure carries the peer message", func(t *testing.T) {
		_, err := decodeResponse([]byte(`{"status":"error","message":"division by zero"}`))
		require.ErrorIs(t, err, ErrServer)
		assert.Contains(t, err.Error(), "division by zero")
	})

	t.Run("failure without message", func(t *testing.T) {
		_, err := decodeResponse([]byte(`{"status":"error"}`))
		require.ErrorIs(t, err, ErrServer)
		assert.Contains(t, err.Error(), "unknown error")
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := decodeResponse([]byte(`{"status":`))
		assert.ErrorIs(t, err, ErrProtocol)
	})

	t.Run("missing status", func(t *testing.T) {
		_, err := decodeResponse([]byte(`{"result":15}`))
		assert.ErrorIs(t, err, ErrProtocol)
	})

	t.Run("non-string status", func(t *testing.T) {
		_, err := decodeResponse([]byte(`{"status":42}`))
		assert.ErrorIs(t, err, ErrProtocol)
	})

	t.Run("success without result", func(t *testing.T) {
		_, err := decodeResponse([]byte(`{"status":"success"}`))
		assert.ErrorIs(t, err, ErrProtocol)
	})

	t.Run("success with non-numeric result", func(t *testing.T) {
		_, err := decodeResponse([]byte(`{"status":"success","result":"15"}`))
		assert.ErrorIs(t, err, ErrProtocol)
	})
}

func TestParseOperand(t *testing.T) {
	t.Run("numeric input", func(t *testing.T) {
		for input, want := range map[string]float64{
			"10":    10,
			"10.5":  10.5,
			"-5":    -5,
			" 0 ":   0,
			"1e10":  1e10,
			"-0.25": -0.25,
		} {
			got, err := ParseOperand(input)
			require.NoError(t, err, "input %q", input)
			assert.Equal(t, want, got, "input %q", input)
		}
	})

	t.Run("non-numeric input", func(t *testing.T) {
		for _, input := range []string{"a", "Hey", "Hallo", "", "10 20", "ten"} {
			_, err := ParseOperand(input)
			assert.ErrorIs(t, err, ErrInvalidArgument, "input %q", input)
		}
	})

	t.Run("parseable but not wire-safe", func(t *testing.T) {
		for _, input := range []string{"NaN", "Inf", "-Inf"} {
			_, err := ParseOperand(input)
			assert.ErrorIs(t, err, ErrInvalidArgument, "input %q", input)
		}
	})
}
