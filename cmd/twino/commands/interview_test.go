package commands

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/twinoai/twino/pkg/archive"
	"github.com/twinoai/twino/pkg/cli"
	"github.com/twinoai/twino/pkg/interview"
	"github.com/twinoai/twino/pkg/twin"
)

type fakeExtractor struct {
	profile twin.Profile
	err     error
	calls   int
}

func (f *fakeExtractor) Extract(_ context.Context, transcript, documents string) (twin.Profile, error) {
	f.calls++
	return f.profile, f.err
}

func testOutcome(cause interview.Cause, profile *twin.Profile) interview.Outcome {
	start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	return interview.Outcome{
		Cause:   cause,
		Profile: profile,
		Transcript: []interview.TranscriptEntry{
			{Role: interview.RoleAssistant, Text: "Ciao! Come ti chiami?", Timestamp: start},
			{Role: interview.RoleUser, Text: "Anna, faccio la product manager.", Timestamp: start.Add(5 * time.Second)},
		},
		Phase:     interview.PhaseBase,
		StartedAt: start,
		EndedAt:   start.Add(2 * time.Minute),
	}
}

func newTestSaver(t *testing.T, ex *fakeExtractor) (*sessionSaver, *twin.Memory, *archive.Archive) {
	t.Helper()
	backend, err := archive.NewLocal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	store := twin.NewMemory()
	arch := archive.New(backend)
	s := &sessionSaver{
		slug:        "anna-rossi",
		displayName: "Anna",
		email:       "anna@example.com",
		voice:       "shimmer",
		store:       store,
		archive:     arch,
		save:        true,
	}
	if ex != nil {
		s.extractor = ex
	}
	return s, store, arch
}

func TestSessionSaverLiveProfile(t *testing.T) {
	ex := &fakeExtractor{}
	s, store, arch := newTestSaver(t, ex)
	ctx := context.Background()

	res, err := s.finish(ctx, testOutcome(interview.CauseProfile, &twin.Profile{IdentitySummary: "Sono Anna"}))
	if err != nil {
		t.Fatal(err)
	}
	if ex.calls != 0 {
		t.Fatalf("extractor called %d times", ex.calls)
	}
	if res.Twin == nil || res.Extracted || res.Duration != 2*time.Minute || res.Turns != 2 {
		t.Fatalf("result = %+v", res)
	}

	got, err := store.Get(ctx, "anna-rossi")
	if err != nil {
		t.Fatal(err)
	}
	if got.Email != "anna@example.com" || got.Voice != "shimmer" || got.Profile.Methodology != twin.Placeholder {
		t.Fatalf("twin = %+v", got)
	}

	ids, err := arch.List(ctx, "anna-rossi")
	if err != nil || len(ids) != 1 {
		t.Fatalf("archived ids = %v, %v", ids, err)
	}
	rec, err := arch.Load(ctx, "anna-rossi", ids[0])
	if err != nil {
		t.Fatal(err)
	}
	if rec.Cause != interview.CauseProfile || rec.Extracted {
		t.Fatalf("record = %+v", rec)
	}
}

func TestSessionSaverExtracts(t *testing.T) {
	ex := &fakeExtractor{profile: twin.Profile{IdentitySummary: "Estratto"}}
	s, store, _ := newTestSaver(t, ex)

	res, err := s.finish(context.Background(), testOutcome(interview.CauseSilence, nil))
	if err != nil {
		t.Fatal(err)
	}
	if ex.calls != 1 || !res.Extracted || res.Twin == nil {
		t.Fatalf("calls=%d result=%+v", ex.calls, res)
	}
	got, err := store.Get(context.Background(), "anna-rossi")
	if err != nil {
		t.Fatal(err)
	}
	if got.Profile.IdentitySummary != "Estratto" {
		t.Fatalf("profile = %+v", got.Profile)
	}
}

func TestSessionSaverExtractionFailure(t *testing.T) {
	ex := &fakeExtractor{err: errors.New("quota")}
	s, store, arch := newTestSaver(t, ex)
	ctx := context.Background()

	res, err := s.finish(ctx, testOutcome(interview.CauseCompletion, nil))
	if err != nil {
		t.Fatal(err)
	}
	if res.Twin != nil {
		t.Fatal("no twin expected without a profile")
	}
	if ok, _ := store.Exists(ctx, "anna-rossi"); ok {
		t.Fatal("twin should not be saved")
	}
	ids, _ := arch.List(ctx, "anna-rossi")
	rec, err := arch.Load(ctx, "anna-rossi", ids[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(rec.Error, "quota") {
		t.Fatalf("record error = %q", rec.Error)
	}
}

func TestSessionSaverUserDisconnect(t *testing.T) {
	ex := &fakeExtractor{profile: twin.Profile{IdentitySummary: "x"}}
	s, _, arch := newTestSaver(t, ex)

	res, err := s.finish(context.Background(), testOutcome(interview.CauseUser, nil))
	if err != nil {
		t.Fatal(err)
	}
	if ex.calls != 0 || res.Twin != nil || res.Record == "" {
		t.Fatalf("calls=%d result=%+v", ex.calls, res)
	}
	if ids, _ := arch.List(context.Background(), "anna-rossi"); len(ids) != 1 {
		t.Fatalf("archived %d records", len(ids))
	}
}

func TestSessionSaverNoSave(t *testing.T) {
	s, store, _ := newTestSaver(t, nil)
	s.save = false

	res, err := s.finish(context.Background(), testOutcome(interview.CauseProfile, &twin.Profile{IdentitySummary: "x"}))
	if err != nil {
		t.Fatal(err)
	}
	if res.Twin != nil {
		t.Fatal("twin saved with save disabled")
	}
	if ok, _ := store.Exists(context.Background(), "anna-rossi"); ok {
		t.Fatal("twin in store")
	}
}

func TestSessionSaverSlugTaken(t *testing.T) {
	s, store, _ := newTestSaver(t, nil)
	existing, _ := twin.New("anna-rossi", "", twin.Profile{}, "")
	if err := store.Create(context.Background(), existing); err != nil {
		t.Fatal(err)
	}

	_, err := s.finish(context.Background(), testOutcome(interview.CauseProfile, &twin.Profile{IdentitySummary: "x"}))
	if !errors.Is(err, twin.ErrSlugTaken) {
		t.Fatalf("err = %v, want ErrSlugTaken", err)
	}
}

func TestNeedsExtraction(t *testing.T) {
	tests := []struct {
		name  string
		cause interview.Cause
		user  bool
		want  bool
	}{
		{"completion", interview.CauseCompletion, true, true},
		{"silence", interview.CauseSilence, true, true},
		{"silence without answers", interview.CauseSilence, false, false},
		{"user", interview.CauseUser, true, false},
		{"error", interview.CauseError, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := testOutcome(tt.cause, nil)
			if !tt.user {
				out.Transcript = out.Transcript[:1]
			}
			if got := needsExtraction(out); got != tt.want {
				t.Errorf("needsExtraction = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConsoleObserver(t *testing.T) {
	var buf bytes.Buffer
	c := newConsoleObserver(&buf, cli.NewStyles(cli.DefaultTheme))

	out := testOutcome(interview.CauseNone, nil)
	snap := interview.Snapshot{
		Entries:  out.Transcript[:1],
		Question: 1,
		Budget:   interview.Budget{Fixed: 14, FollowUp: 2, Max: 16},
	}
	c.Observe(interview.TranscriptUpdated{Snapshot: snap})
	snap.Entries = out.Transcript
	c.Observe(interview.TranscriptUpdated{Snapshot: snap})
	c.Observe(interview.SilenceWarning{Remaining: 9500 * time.Millisecond})

	got := buf.String()
	if n := strings.Count(got, "Come ti chiami?"); n != 1 {
		t.Fatalf("assistant turn printed %d times:\n%s", n, got)
	}
	if !strings.Contains(got, "product manager") {
		t.Fatalf("user turn missing:\n%s", got)
	}
	if !strings.Contains(got, "domanda 1/16") {
		t.Fatalf("progress missing:\n%s", got)
	}
	if !strings.Contains(got, "Chiusura tra 10s") {
		t.Fatalf("countdown missing:\n%s", got)
	}
}
