package embedsvc

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/lookbook/internal/domain"
)

// ExtractVector finds the embedding in a response body. Accepted shapes, tried in order:
//
//	{"vector":[...]}
//	[{"vector":[...]}]
//	{"data":[{"vector":[...]}]}
//	{"data":[{"embedding":[...]}]}
//	{"embedding":[...]}
//	{"embedding":{"values":[...]}}
//	[...]                          bare number array
//	[[...]]                        single-output list
//
// Server-sent event bodies ("data: <json>" lines) are unwrapped and each payload is tried
// with the same rules. No match wraps domain.ErrEmbeddingFailure.
func ExtractVector(body []byte) ([]float32, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, fmt.Errorf("empty response body: %w", domain.ErrEmbeddingFailure)
	}

	if body[0] == '{' || body[0] == '[' {
		var v any
		if err := json.Unmarshal(body, &v); err == nil {
			if vec, ok := findVector(v); ok {
				return vec, nil
			}
			return nil, fmt.Errorf("no vector in response: %w", domain.ErrEmbeddingFailure)
		}
	}

	if payloads := sseData(body); len(payloads) > 0 {
		for _, p := range payloads {
			if vec, err := ExtractVector(p); err == nil {
				return vec, nil
			}
		}
		return nil, fmt.Errorf("no vector in event stream: %w", domain.ErrEmbeddingFailure)
	}

	return nil, fmt.Errorf("unrecognized response body: %w", domain.ErrEmbeddingFailure)
}

func findVector(v any) ([]float32, bool) {
	switch t := v.(type) {
	case map[string]any:
		return fromObject(t)
	case []any:
		if len(t) == 0 {
			return nil, false
		}
		if obj, ok := t[0].(map[string]any); ok {
			return numbers(obj["vector"])
		}
		if vec, ok := numbers(t); ok {
			return vec, true
		}
		return numbers(t[0])
	}
	return nil, false
}

func fromObject(obj map[string]any) ([]float32, bool) {
	if vec, ok := numbers(obj["vector"]); ok {
		return vec, true
	}
	if data, ok := obj["data"].([]any); ok && len(data) > 0 {
		if first, ok := data[0].(map[string]any); ok {
			if vec, ok := numbers(first["vector"]); ok {
				return vec, true
			}
			if vec, ok := numbers(first["embedding"]); ok {
				return vec, true
			}
		}
	}
	switch emb := obj["embedding"].(type) {
	case []any:
		return numbers(emb)
	case map[string]any:
		return numbers(emb["values"])
	}
	return nil, false
}

// numbers converts a non-empty JSON number array.
func numbers(v any) ([]float32, bool) {
	arr, ok := v.([]any)
	if !ok || len(arr) == 0 {
		return nil, false
	}
	out := make([]float32, len(arr))
	for i, x := range arr {
		f, ok := x.(float64)
		if !ok {
			return nil, false
		}
		out[i] = float32(f)
	}
	return out, true
}

// sseData returns the payloads of "data:" lines in order.
func sseData(body []byte) [][]byte {
	var out [][]byte
	sc := bufio.NewScanner(bytes.NewReader(body))
	sc.Buffer(make([]byte, 0, 64*1024), len(body)+1)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if p, ok := bytes.CutPrefix(line, []byte("data:")); ok {
			if p = bytes.TrimSpace(p); len(p) > 0 {
				out = append(out, bytes.Clone(p))
			}
		}
	}
	return out
}
