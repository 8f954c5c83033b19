package twin

import (
	"time"

	"github.com/google/uuid"
)

// Twin is a saved Digital Twin.
type Twin struct {
	ID          string    `json:"id" msgpack:"id"`
	Slug        string    `json:"slug" msgpack:"slug"`
	DisplayName string    `json:"display_name" msgpack:"display_name"`
	Email       string    `json:"email,omitempty" msgpack:"email,omitempty"`
	Profile     Profile   `json:"twin_profile" msgpack:"profile"`
	Transcript  string    `json:"transcript" msgpack:"transcript"`
	Documents   string    `json:"documents_text,omitempty" msgpack:"documents_text,omitempty"`
	Voice       string    `json:"voice,omitempty" msgpack:"voice,omitempty"`
	Public      bool      `json:"is_public" msgpack:"is_public"`
	CreatedAt   time.Time `json:"created_at" msgpack:"created_at"`
}

// New builds a twin record ready to be stored. The slug is normalized, the
// display name defaults to one derived from the slug, the profile is
// normalized and an empty transcript becomes Placeholder.
func New(slug, displayName string, profile Profile, transcript string) (*Twin, error) {
	s, err := NormalizeSlug(slug)
	if err != nil {
		return nil, err
	}
	if displayName == "" {
		displayName = DisplayNameFromSlug(s)
	}
	if transcript == "" {
		transcript = Placeholder
	}
	return &Twin{
		ID:          uuid.NewString(),
		Slug:        s,
		DisplayName: displayName,
		Profile:     profile.Normalize(),
		Transcript:  transcript,
		Public:      true,
		CreatedAt:   time.Now().UTC(),
	}, nil
}
