// Package extract turns raw model output into validated, typed results.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"pelican-stonks/internal/types"
)

// Strategy proposes a JSON candidate from a raw response. ok is false when
// the strategy does not apply to this response.
type Strategy struct {
	Name      string
	Candidate func(raw types.RawResponse) (text string, ok bool)
}

// Strategies are tried in order until one yields parseable JSON.
var Strategies = []Strategy{
	{Name: "tool_call", Candidate: toolCall},
	{Name: "json_fence", Candidate: jsonFence},
	{Name: "first_fence", Candidate: firstFence},
	{Name: "whole_text", Candidate: wholeText},
}

var fenceRe = regexp.MustCompile("(?s)```([A-Za-z0-9_-]*)[ \t]*\r?\n?(.*?)```")

func toolCall(raw types.RawResponse) (string, bool) {
	return raw.ToolArguments, raw.IsToolCall()
}

func jsonFence(raw types.RawResponse) (string, bool) {
	for _, m := range fenceRe.FindAllStringSubmatch(raw.Text, -1) {
		if strings.EqualFold(m[1], "json") {
			return m[2], true
		}
	}
	return "", false
}

func firstFence(raw types.RawResponse) (string, bool) {
	m := fenceRe.FindStringSubmatch(raw.Text)
	if m == nil {
		return "", false
	}
	return m[2], true
}

func wholeText(raw types.RawResponse) (string, bool) {
	return raw.Text, strings.TrimSpace(raw.Text) != ""
}

// Extract returns the first candidate that parses as JSON.
func Extract(raw types.RawResponse) (json.RawMessage, error) {
	lastErr := errors.New("empty response")
	for _, s := range Strategies {
		text, ok := s.Candidate(raw)
		if !ok {
			continue
		}
		text = strings.TrimSpace(text)
		var probe any
		if err := json.Unmarshal([]byte(text), &probe); err != nil {
			lastErr = fmt.Errorf("%s: %w", s.Name, err)
			continue
		}
		return json.RawMessage(text), nil
	}
	return nil, &types.MalformedOutput{Err: lastErr}
}

// object decodes payload as a JSON object and checks keys in order.
func object(payload json.RawMessage, required []string) (map[string]json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(payload, &obj); err != nil {
		return nil, &types.MalformedOutput{Err: fmt.Errorf("expected a JSON object: %w", err)}
	}
	if err := requireKeys(obj, required, ""); err != nil {
		return nil, err
	}
	return obj, nil
}

func requireKeys(obj map[string]json.RawMessage, required []string, where string) error {
	for _, k := range required {
		if _, ok := obj[k]; !ok {
			sv := &types.SchemaViolation{Key: k}
			if where != "" {
				sv.Reason = "missing in " + where
			}
			return sv
		}
	}
	return nil
}

// decode unmarshals into v, mapping type mismatches onto the offending key.
func decode(payload []byte, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		var ute *json.UnmarshalTypeError
		if errors.As(err, &ute) {
			return &types.SchemaViolation{Key: ute.Field, Reason: fmt.Sprintf("has type %s, expected %s", ute.Value, ute.Type)}
		}
		return &types.MalformedOutput{Err: err}
	}
	return nil
}
