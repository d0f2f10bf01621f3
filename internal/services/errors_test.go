package services_test

import (
	"errors"
	"testing"

	"showsync/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("connection reset")
	err := services.Wrap(services.ErrTransient, "playlist", "push update", "service unreachable", base)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	want := "transient failure: playlist: push update: service unreachable: connection reset"
	if err.Error() != want {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "provider", "search", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient default, got %v", err)
	}
}

func TestWrapWithoutDetail(t *testing.T) {
	err := services.Wrap(services.ErrMalformed, "", "", "", nil)
	if err.Error() != "malformed response: service failure" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestRunFatal(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"state corruption", services.Wrap(services.ErrStateCorrupt, "storage", "load cursors", "negative position", nil), true},
		{"configuration", services.Wrap(services.ErrConfiguration, "config", "validate", "api key missing", nil), true},
		{"transient", services.Wrap(services.ErrTransient, "provider", "search", "timeout", nil), false},
		{"malformed", services.Wrap(services.ErrMalformed, "playlist", "episodes", "bad json", nil), false},
		{"not found", services.ErrNotFound, false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		if got := services.RunFatal(tc.err); got != tc.want {
			t.Fatalf("%s: RunFatal = %v, want %v", tc.name, got, tc.want)
		}
	}
}
