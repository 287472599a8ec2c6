package humastar

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
)

// Signals is the flat JSON object Datastar posts with every action.
type Signals map[string]any

// ParseSignals decodes a request body. An empty body has no signals.
func ParseSignals(body []byte) (Signals, error) {
	signals := Signals{}
	if len(bytes.TrimSpace(body)) == 0 {
		return signals, nil
	}
	if err := json.Unmarshal(body, &signals); err != nil {
		return nil, err
	}
	return signals, nil
}

// String returns key if it holds a string.
func (s Signals) String(key string) string {
	str, _ := s[key].(string)
	return str
}

// Int returns key as an int. Bound inputs post numbers as strings, so
// numeric strings count.
func (s Signals) Int(key string) int {
	switch n := s[key].(type) {
	case float64:
		return int(n)
	case string:
		i, _ := strconv.Atoi(n)
		return i
	}
	return 0
}

// Float returns key as a float64, accepting numeric strings.
func (s Signals) Float(key string) float64 {
	switch f := s[key].(type) {
	case float64:
		return f
	case string:
		n, _ := strconv.ParseFloat(f, 64)
		return n
	}
	return 0
}

// Bool returns key if it holds a bool.
func (s Signals) Bool(key string) bool {
	b, _ := s[key].(bool)
	return b
}

// Has reports whether key was sent at all.
func (s Signals) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// SignalsInput takes the raw signals body of a Datastar action.
type SignalsInput struct {
	RawBody []byte
}

// MustParse parses the body or fails the request with 400.
func (i *SignalsInput) MustParse() (Signals, error) {
	signals, err := ParseSignals(i.RawBody)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid request data: " + err.Error())
	}
	return signals, nil
}
