package telemetry

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// RawEntry is one element of an upstream poll response. Nothing in it is trusted.
type RawEntry struct {
	Path      string          `json:"Path"`
	NodeValid bool            `json:"NodeValid"`
	Values    json.RawMessage `json:"Values"`
}

// Response is a decoded aggregate poll
type Response struct {
	Entries []RawEntry
	Raw     json.RawMessage
}

// ParseResponse decodes a poll body. A body without an Entries collection
// yields an empty response; a body that is not a JSON object is an error.
func ParseResponse(body []byte) (*Response, error) {
	var envelope struct {
		Entries []json.RawMessage `json:"Entries"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode poll response: %w", err)
	}

	resp := &Response{Raw: json.RawMessage(body)}
	for _, rawEntry := range envelope.Entries {
		// A single malformed entry must not sink the whole snapshot
		var entry RawEntry
		if err := json.Unmarshal(rawEntry, &entry); err != nil {
			continue
		}
		resp.Entries = append(resp.Entries, entry)
	}
	return resp, nil
}

// field looks key up literally; simulator keys contain spaces and parens
// that would otherwise be read as path syntax.
func field(obj gjson.Result, key string) gjson.Result {
	var found gjson.Result
	if !obj.IsObject() {
		return found
	}
	obj.ForEach(func(k, v gjson.Result) bool {
		if k.String() == key {
			found = v
		}
		return true
	})
	return found
}

func (e RawEntry) value(key string) gjson.Result {
	if len(e.Values) == 0 {
		return gjson.Result{}
	}
	return field(gjson.ParseBytes(e.Values), key)
}

// Number returns the numeric value under key, and whether one was present
func (e RawEntry) Number(key string) (float64, bool) {
	r := e.value(key)
	if r.Type != gjson.Number {
		return 0, false
	}
	return r.Float(), true
}

// Bool returns the boolean value under key, and whether one was present
func (e RawEntry) Bool(key string) (bool, bool) {
	r := e.value(key)
	if r.Type != gjson.True && r.Type != gjson.False {
		return false, false
	}
	return r.Bool(), true
}

// NestedNumber returns the numeric value of name inside the object under key
func (e RawEntry) NestedNumber(key, name string) (float64, bool) {
	r := field(e.value(key), name)
	if r.Type != gjson.Number {
		return 0, false
	}
	return r.Float(), true
}
