package client

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type listEnvelope struct {
	Data json.RawMessage `json:"data"`
}

// decodeList accepts a bare JSON array or an object whose data field is an array.
// Anything else is ErrMalformedResponse, or an empty slice when lenient is set.
func decodeList[T any](raw []byte, lenient bool) ([]T, error) {
	items, err := unwrapList[T](raw)
	if err != nil {
		if lenient {
			return []T{}, nil
		}
		return nil, err
	}
	return items, nil
}

func unwrapList[T any](raw []byte) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}

	switch raw[0] {
	case '[':
	case '{':
		var env listEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		data := bytes.TrimSpace(env.Data)
		if len(data) == 0 || data[0] != '[' {
			return nil, fmt.Errorf("%w: object without a data array", ErrMalformedResponse)
		}
		raw = data
	default:
		return nil, fmt.Errorf("%w: expected an array, got %.20s", ErrMalformedResponse, raw)
	}

	items := []T{}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return items, nil
}

// decodeObject accepts a bare JSON object or one wrapped as {"data": {...}}.
func decodeObject[T any](raw []byte) (*T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, fmt.Errorf("%w: expected an object", ErrMalformedResponse)
	}

	var env listEnvelope
	if err := json.Unmarshal(raw, &env); err == nil {
		if data := bytes.TrimSpace(env.Data); len(data) > 0 && data[0] == '{' {
			raw = data
		}
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &out, nil
}
