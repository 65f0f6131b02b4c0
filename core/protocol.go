package core

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	actionAdd     = "add"
	statusSuccess = "success"
)

type addParams struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

type addRequest struct {
	Action string    `json:"action"`
	Params addParams `json:"params"`
}

func encodeAddRequest(a, b float64) ([]byte, error) {
	return json.Marshal(addRequest{
		Action: actionAdd,
		Params: addParams{A: a, B: b},
	})
}

// decodeResponse classifies one inbound frame. A frame that is not valid
// JSON, lacks the status discriminator, or claims success without a
// numeric result is a protocol violation; a non-success status is a
// server-side rejection carrying the peer's message.
func decodeResponse(data []byte) (float64, error) {
	var msg map[string]interface{}
	if err := json.Unmarshal(data, &msg); err != nil {
		return 0, fmt.Errorf("%w: invalid JSON: %v", ErrProtocol, err)
	}

	status, ok := msg["status"].(string)
	if !ok {
		return 0, fmt.Errorf("%w: response missing status field", ErrProtocol)
	}

	if status != statusSuccess {
		message, _ := msg["message"].(string)
		if message == "" {
			message = "unknown error"
		}
		return 0, fmt.Errorf("%w: %s", ErrServer, message)
	}

	result, ok := msg["result"].(float64)
	if !ok {
		return 0, fmt.Errorf("%w: success response missing numeric result", ErrProtocol)
	}
	return result, nil
}

// ParseOperand converts free-form caller input into a wire-safe operand.
// Non-numeric input fails with ErrInvalidArgument before any network
// activity.
func ParseOperand(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: operand %q is not numeric", ErrInvalidArgument, s)
	}
	if err := validateOperand(v); err != nil {
		return 0, err
	}
	return v, nil
}

// validateOperand rejects the float64 values a JSON number cannot carry.
func validateOperand(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: operand %v is not representable on the wire", ErrInvalidArgument, v)
	}
	return nil
}
