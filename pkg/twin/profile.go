package twin

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Placeholder fills narrative fields the interview did not produce.
const Placeholder = "-"

// Profile is the persona an AI impersonates. The JSON keys are fixed by the
// interview prompt and by stored records.
type Profile struct {
	IdentitySummary  string     `json:"identity_summary" yaml:"identity_summary" msgpack:"identity_summary" jsonschema:"who the person is, background and role, in the first person"`
	ThinkingPatterns string     `json:"thinking_patterns" yaml:"thinking_patterns" msgpack:"thinking_patterns" jsonschema:"how the person reasons and makes decisions"`
	Methodology      string     `json:"methodology" yaml:"methodology" msgpack:"methodology" jsonschema:"how the person works step by step"`
	Constraints      string     `json:"constraints" yaml:"constraints" msgpack:"constraints" jsonschema:"what the person refuses to do or never accepts"`
	ProofMetrics     string     `json:"proof_metrics" yaml:"proof_metrics" msgpack:"proof_metrics" jsonschema:"concrete results and numbers the person can point to"`
	StyleTone        string     `json:"style_tone" yaml:"style_tone" msgpack:"style_tone" jsonschema:"communication style, tone and recurring expressions"`
	DoNotSay         StringList `json:"do_not_say" yaml:"do_not_say" msgpack:"do_not_say" jsonschema:"claims the twin must never make"`
}

// Normalize replaces empty narrative fields with Placeholder and makes
// DoNotSay non-nil.
func (p Profile) Normalize() Profile {
	fill := func(s string) string {
		if strings.TrimSpace(s) == "" {
			return Placeholder
		}
		return strings.TrimSpace(s)
	}
	p.IdentitySummary = fill(p.IdentitySummary)
	p.ThinkingPatterns = fill(p.ThinkingPatterns)
	p.Methodology = fill(p.Methodology)
	p.Constraints = fill(p.Constraints)
	p.ProofMetrics = fill(p.ProofMetrics)
	p.StyleTone = fill(p.StyleTone)
	out := make(StringList, 0, len(p.DoNotSay))
	for _, s := range p.DoNotSay {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	p.DoNotSay = out
	return p
}

// IsEmpty reports whether no field carries content.
func (p Profile) IsEmpty() bool {
	for _, s := range []string{p.IdentitySummary, p.ThinkingPatterns, p.Methodology, p.Constraints, p.ProofMetrics, p.StyleTone} {
		if s = strings.TrimSpace(s); s != "" && s != Placeholder {
			return false
		}
	}
	return len(p.DoNotSay) == 0
}

// UnmarshalJSON decodes a profile leniently: fields that arrive as numbers,
// lists or objects are rendered to text instead of failing, since the
// profile is written by a language model. Only a non-object profile is an
// error.
func (p *Profile) UnmarshalJSON(data []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*p = Profile{
		IdentitySummary:  textOf(m["identity_summary"]),
		ThinkingPatterns: textOf(m["thinking_patterns"]),
		Methodology:      textOf(m["methodology"]),
		Constraints:      textOf(m["constraints"]),
		ProofMetrics:     textOf(m["proof_metrics"]),
		StyleTone:        textOf(m["style_tone"]),
	}
	if raw, ok := m["do_not_say"]; ok {
		if err := json.Unmarshal(raw, &p.DoNotSay); err != nil {
			// Objects, numbers and booleans become a single item.
			p.DoNotSay = nil
			if s := strings.TrimSpace(textOf(raw)); s != "" {
				p.DoNotSay = StringList{s}
			}
		}
	}
	return nil
}

func textOf(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []any
	if err := json.Unmarshal(raw, &list); err == nil {
		parts := make([]string, 0, len(list))
		for _, v := range list {
			parts = append(parts, fmt.Sprint(v))
		}
		return strings.Join(parts, "; ")
	}
	if string(raw) == "null" {
		return ""
	}
	return string(raw)
}

// StringList is a list of strings that also accepts a single string or null
// when decoded from JSON.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *StringList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*l = nil
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		if strings.TrimSpace(one) == "" {
			*l = nil
		} else {
			*l = StringList{one}
		}
		return nil
	}
	var many []any
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	out := make(StringList, 0, len(many))
	for _, v := range many {
		if s, ok := v.(string); ok {
			out = append(out, s)
			continue
		}
		out = append(out, fmt.Sprint(v))
	}
	*l = out
	return nil
}
