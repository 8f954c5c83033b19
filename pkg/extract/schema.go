package extract

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"google.golang.org/genai"

	"github.com/twinoai/twino/pkg/twin"
)

// SchemaName names the profile schema in structured output requests.
const SchemaName = "twin_profile"

var profileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	s, err := jsonschema.For[twin.Profile](&jsonschema.ForOptions{})
	if err != nil {
		return nil, fmt.Errorf("extract: profile schema: %w", err)
	}
	return s, nil
})

// ProfileSchema returns a copy of the JSON schema of twin.Profile.
func ProfileSchema() (*jsonschema.Schema, error) {
	s, err := profileSchema()
	if err != nil {
		return nil, err
	}
	return s.CloneSchemas(), nil
}

// effectiveType returns the non-null type of s.
func effectiveType(s *jsonschema.Schema) string {
	if s.Type != "" {
		return s.Type
	}
	for _, t := range s.Types {
		if t != "null" && t != "" {
			return t
		}
	}
	return ""
}

// strictSchema rewrites s in place for OpenAI structured outputs: objects
// forbid additional properties and list every property as required, and a
// nullable type pair collapses to the non-null type.
func strictSchema(s *jsonschema.Schema) *jsonschema.Schema {
	if s == nil {
		return nil
	}
	if typ := effectiveType(s); len(s.Types) > 0 {
		s.Types = nil
		s.Type = typ
	}
	switch s.Type {
	case "array":
		s.Items = strictSchema(s.Items)
	case "object":
		s.AdditionalProperties = &jsonschema.Schema{Not: &jsonschema.Schema{}}
		for k, v := range s.Properties {
			s.Properties[k] = strictSchema(v)
		}
		s.Required = slices.Sorted(maps.Keys(s.Properties))
	}
	return s
}

func geminiSchema(s *jsonschema.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	gs := genai.Schema{
		Description: s.Description,
		Items:       geminiSchema(s.Items),
		Required:    s.Required,
	}
	if n := len(s.Properties); n > 0 {
		gs.Properties = make(map[string]*genai.Schema, n)
		for k, prop := range s.Properties {
			gs.Properties[k] = geminiSchema(prop)
		}
		gs.PropertyOrdering = slices.Sorted(maps.Keys(s.Properties))
	}
	switch effectiveType(s) {
	case "object":
		gs.Type = genai.TypeObject
	case "array":
		gs.Type = genai.TypeArray
	case "string":
		gs.Type = genai.TypeString
	case "number":
		gs.Type = genai.TypeNumber
	case "integer":
		gs.Type = genai.TypeInteger
	case "boolean":
		gs.Type = genai.TypeBoolean
	}
	return &gs
}
