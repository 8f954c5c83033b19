package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/twinoai/twino/pkg/twin"
)

var fenceRE = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// Parse reads a profile from model output. It accepts a bare profile object
// or one wrapped as {"twin_profile": {...}}, optionally inside a fenced
// block. Malformed JSON is repaired before giving up.
func Parse(content string) (twin.Profile, error) {
	content = strings.TrimSpace(content)
	if m := fenceRE.FindStringSubmatch(content); m != nil {
		content = m[1]
	}
	if content == "" {
		return twin.Profile{}, ErrNoContent
	}

	var raw map[string]json.RawMessage
	if err := unmarshalJSON([]byte(content), &raw); err != nil {
		return twin.Profile{}, fmt.Errorf("extract: parse profile: %w", err)
	}
	if msg, ok := raw["error"]; ok && len(raw) == 1 {
		return twin.Profile{}, fmt.Errorf("extract: model reported %s", msg)
	}
	data := []byte(content)
	if inner, ok := raw["twin_profile"]; ok {
		data = inner
	}

	var p twin.Profile
	if err := unmarshalJSON(data, &p); err != nil {
		return twin.Profile{}, fmt.Errorf("extract: parse profile: %w", err)
	}
	if p.IsEmpty() {
		return twin.Profile{}, fmt.Errorf("extract: %w", ErrNoContent)
	}
	return p.Normalize(), nil
}

// unmarshalJSON retries with a repaired document on syntax errors.
func unmarshalJSON(data []byte, v any) error {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	if _, ok := err.(*json.SyntaxError); ok {
		fixed, rerr := jsonrepair.JSONRepair(string(data))
		if rerr != nil {
			return err
		}
		return json.Unmarshal([]byte(fixed), v)
	}
	return err
}
