package twin

import (
	"context"
	"errors"
	"testing"
)

func newBadgerStore(t *testing.T) Store {
	t.Helper()
	s, err := NewBadger(BadgerOptions{InMemory: true})
	if err != nil {
		t.Fatalf("NewBadger: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func storeImpls(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemory(),
		"badger": newBadgerStore(t),
	}
}

func mustTwin(t *testing.T, slug string) *Twin {
	t.Helper()
	tw, err := New(slug, "", Profile{
		IdentitySummary: "Sono " + slug,
		DoNotSay:        StringList{"Prometto guadagni"},
	}, "UTENTE: ciao")
	if err != nil {
		t.Fatalf("New(%q): %v", slug, err)
	}
	return tw
}

func TestStoreCreateGet(t *testing.T) {
	for name, s := range storeImpls(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if _, err := s.Get(ctx, "anna"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Get missing err = %v, want ErrNotFound", err)
			}

			tw := mustTwin(t, "anna")
			if err := s.Create(ctx, tw); err != nil {
				t.Fatalf("Create: %v", err)
			}
			got, err := s.Get(ctx, "anna")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if got.ID != tw.ID || got.DisplayName != "Anna" || got.Transcript != "UTENTE: ciao" {
				t.Errorf("Get = %#v", got)
			}
			if len(got.Profile.DoNotSay) != 1 || got.Profile.DoNotSay[0] != "Prometto guadagni" {
				t.Errorf("DoNotSay = %#v", got.Profile.DoNotSay)
			}
			if !got.CreatedAt.Equal(tw.CreatedAt) {
				t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, tw.CreatedAt)
			}

			if err := s.Create(ctx, mustTwin(t, "anna")); !errors.Is(err, ErrSlugTaken) {
				t.Fatalf("duplicate Create err = %v, want ErrSlugTaken", err)
			}

			ok, err := s.Exists(ctx, "anna")
			if err != nil || !ok {
				t.Fatalf("Exists = %v, %v", ok, err)
			}
			if err := s.Delete(ctx, "anna"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if err := s.Delete(ctx, "anna"); err != nil {
				t.Fatalf("Delete missing: %v", err)
			}
			ok, err = s.Exists(ctx, "anna")
			if err != nil || ok {
				t.Fatalf("Exists after delete = %v, %v", ok, err)
			}
		})
	}
}

func TestStoreList(t *testing.T) {
	for name, s := range storeImpls(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, slug := range []string{"marco", "anna", "zoe"} {
				if err := s.Create(ctx, mustTwin(t, slug)); err != nil {
					t.Fatalf("Create %s: %v", slug, err)
				}
			}
			var got []string
			for tw, err := range s.List(ctx) {
				if err != nil {
					t.Fatalf("List: %v", err)
				}
				got = append(got, tw.Slug)
			}
			want := []string{"anna", "marco", "zoe"}
			if len(got) != len(want) {
				t.Fatalf("List = %v, want %v", got, want)
			}
			for i := range want {
				if got[i] != want[i] {
					t.Fatalf("List = %v, want %v", got, want)
				}
			}
		})
	}
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	tw := mustTwin(t, "anna")
	if err := s.Create(ctx, tw); err != nil {
		t.Fatal(err)
	}
	tw.Profile.DoNotSay[0] = "changed"
	got, _ := s.Get(ctx, "anna")
	if got.Profile.DoNotSay[0] != "Prometto guadagni" {
		t.Errorf("store shares slice with caller: %v", got.Profile.DoNotSay)
	}
}

func TestNewBadgerRequiresDir(t *testing.T) {
	if _, err := NewBadger(BadgerOptions{}); err == nil {
		t.Fatal("expected error without Dir")
	}
}
