package presence

import (
	"errors"
	"strings"
	"testing"
)

func TestRegisterAssignsNameAndColor(t *testing.T) {
	s := NewStore()

	user := s.Register("s1")
	if user.Name != "User 1" {
		t.Errorf("Expected User 1, got %q", user.Name)
	}
	if !strings.HasPrefix(user.Color, "#") || len(user.Color) != 7 {
		t.Errorf("Expected #rrggbb color, got %q", user.Color)
	}

	if second := s.Register("s2"); second.Name != "User 2" {
		t.Errorf("Expected User 2, got %q", second.Name)
	}
}

func TestNumberingResetsWhenEmpty(t *testing.T) {
	s := NewStore()

	s.Register("s1")
	s.Register("s2")
	s.Unregister("s1")
	s.Unregister("s2")

	if user := s.Register("s3"); user.Name != "User 1" {
		t.Errorf("Expected numbering to restart at User 1, got %q", user.Name)
	}
}

func TestRenameBounds(t *testing.T) {
	s := NewStore()
	s.Register("s1")

	cases := []struct {
		name string
		ok   bool
	}{
		{"ab", false},
		{strings.Repeat("x", 21), false},
		{"abc", true},
		{strings.Repeat("x", 20), true},
	}

	for _, tc := range cases {
		err := s.Rename("s1", tc.name)
		if tc.ok && err != nil {
			t.Errorf("Rename to %q should succeed, got %v", tc.name, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidName) {
			t.Errorf("Rename to %q should fail with ErrInvalidName, got %v", tc.name, err)
		}
	}
}

func TestRejectedRenameDoesNotMutate(t *testing.T) {
	s := NewStore()
	original := s.Register("s1")

	if err := s.Rename("s1", "ab"); err == nil {
		t.Fatal("Expected rename rejection")
	}

	user, ok := s.Get("s1")
	if !ok {
		t.Fatal("User should still exist")
	}
	if user.Name != original.Name {
		t.Errorf("Name should be unchanged, got %q", user.Name)
	}
}

func TestSnapshotReturnsSubset(t *testing.T) {
	s := NewStore()
	s.Register("s1")
	s.Register("s2")
	s.Register("s3")

	users := s.Snapshot([]string{"s1", "s3", "unknown"})
	if len(users) != 2 {
		t.Fatalf("Expected 2 users, got %d", len(users))
	}
	if _, ok := users["s2"]; ok {
		t.Error("s2 should not be in the snapshot")
	}
	if users["s1"].ID != "s1" {
		t.Errorf("Expected id s1, got %q", users["s1"].ID)
	}
}

func TestUnregister(t *testing.T) {
	s := NewStore()
	s.Register("s1")
	s.Unregister("s1")

	if _, ok := s.Get("s1"); ok {
		t.Error("Unregistered session should be gone")
	}
	if s.Count() != 0 {
		t.Errorf("Expected count 0, got %d", s.Count())
	}
}
