// Package archive keeps a record of every finished interview session:
// transcript, outcome and the profile when one was produced. Records are
// JSON documents stored under sessions/<slug>/<id>.json on a [Backend],
// either a local directory or an S3 bucket.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/twinoai/twino/pkg/interview"
	"github.com/twinoai/twino/pkg/twin"
)

// ErrNotFound is returned when a record or object does not exist.
var ErrNotFound = errors.New("archive: not found")

// Backend stores opaque objects by slash separated key.
// Implementations must be safe for concurrent use.
type Backend interface {
	Put(ctx context.Context, key string, data []byte) error
	// Get returns ErrNotFound when the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)
	// List returns the keys under prefix in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Anonymous is the slug of sessions that were not tied to a twin.
const Anonymous = "anonymous"

// Record is one archived session.
type Record struct {
	ID         string                      `json:"id"`
	Slug       string                      `json:"slug"`
	Cause      interview.Cause             `json:"cause"`
	Phase      interview.Phase             `json:"phase"`
	StartedAt  time.Time                   `json:"started_at"`
	EndedAt    time.Time                   `json:"ended_at"`
	Transcript []interview.TranscriptEntry `json:"transcript"`
	Profile    *twin.Profile               `json:"twin_profile,omitempty"`
	// Extracted is set when the profile came from transcript extraction
	// rather than from the live session.
	Extracted bool   `json:"extracted,omitempty"`
	Error     string `json:"error,omitempty"`
}

// NewRecord builds a record from a session outcome.
func NewRecord(slug string, out interview.Outcome) Record {
	if slug == "" {
		slug = Anonymous
	}
	r := Record{
		ID:         uuid.NewString(),
		Slug:       slug,
		Cause:      out.Cause,
		Phase:      out.Phase,
		StartedAt:  out.StartedAt,
		EndedAt:    out.EndedAt,
		Transcript: out.Transcript,
		Profile:    out.Profile,
	}
	if out.Err != nil {
		r.Error = out.Err.Error()
	}
	return r
}

// Archive reads and writes session records.
type Archive struct {
	backend Backend
}

// New creates an Archive on top of backend.
func New(backend Backend) *Archive {
	return &Archive{backend: backend}
}

func recordKey(slug, id string) string {
	return path.Join("sessions", slug, id+".json")
}

// Save writes r and returns its key.
func (a *Archive) Save(ctx context.Context, r Record) (string, error) {
	if r.ID == "" || r.Slug == "" {
		return "", errors.New("archive: record needs an id and a slug")
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("archive: encode record: %w", err)
	}
	key := recordKey(r.Slug, r.ID)
	if err := a.backend.Put(ctx, key, data); err != nil {
		return "", fmt.Errorf("archive: save %s: %w", key, err)
	}
	return key, nil
}

// Load reads one record.
func (a *Archive) Load(ctx context.Context, slug, id string) (*Record, error) {
	data, err := a.backend.Get(ctx, recordKey(slug, id))
	if err != nil {
		return nil, err
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("archive: decode %s/%s: %w", slug, id, err)
	}
	return &r, nil
}

// List returns the record IDs archived for slug.
func (a *Archive) List(ctx context.Context, slug string) ([]string, error) {
	keys, err := a.backend.List(ctx, path.Join("sessions", slug)+"/")
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		base := path.Base(k)
		if id, ok := strings.CutSuffix(base, ".json"); ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}
