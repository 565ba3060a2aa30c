package models

import (
	"encoding/json"
	"testing"
	"time"
)

// TestParseWorkoutTimeSQLite verifies the SQLite CURRENT_TIMESTAMP text format,
// which is what the workouts table stores by default.
func TestParseWorkoutTimeSQLite(t *testing.T) {
	got, err := ParseWorkoutTime("2025-10-14 18:30:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2025, 10, 14, 18, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

// TestParseWorkoutTimeHTTPDate verifies the RFC 1123 form produced when the
// server serializes a datetime object.
func TestParseWorkoutTimeHTTPDate(t *testing.T) {
	got, err := ParseWorkoutTime("Tue, 14 Oct 2025 18:30:00 GMT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Year() != 2025 || got.Month() != 10 || got.Day() != 14 || got.Hour() != 18 {
		t.Errorf("got %v, want 2025-10-14 18:30", got)
	}
}

// TestParseWorkoutTimeRFC3339 verifies ISO timestamps with an offset.
func TestParseWorkoutTimeRFC3339(t *testing.T) {
	got, err := ParseWorkoutTime("2025-10-14T18:30:00+02:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2025, 10, 14, 16, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

// TestParseWorkoutTimeInvalid verifies garbage is rejected rather than zeroed.
func TestParseWorkoutTimeInvalid(t *testing.T) {
	if _, err := ParseWorkoutTime("yesterday-ish"); err == nil {
		t.Fatal("expected error for invalid date")
	}
}

// TestWorkoutRecordDecode verifies a full record from the workouts endpoint,
// including a null date and a missing note.
func TestWorkoutRecordDecode(t *testing.T) {
	data := `[
		{"id": 7, "user_id": 1, "exercise": "Bench press", "sets": 3, "reps": 5, "weight": 82.5, "note": "felt heavy", "date": "2025-10-14 18:30:00"},
		{"exercise": "Dřepy", "sets": 5, "reps": 5, "weight": 100, "date": null}
	]`

	var records []WorkoutRecord
	if err := json.Unmarshal([]byte(data), &records); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].ID != 7 || records[0].Weight != 82.5 || records[0].Note != "felt heavy" {
		t.Errorf("first record = %+v", records[0])
	}
	if records[0].Date.IsZero() {
		t.Error("first record date should be set")
	}
	if !records[1].Date.IsZero() {
		t.Errorf("null date should decode to zero, got %v", records[1].Date)
	}
	if records[1].Note != "" {
		t.Errorf("note = %q, want empty", records[1].Note)
	}
}

// TestSessionValid verifies that a session needs both a username and a token.
func TestSessionValid(t *testing.T) {
	cases := []struct {
		s    Session
		want bool
	}{
		{Session{Username: "alice", Token: "T1"}, true},
		{Session{Username: "alice"}, false},
		{Session{Token: "T1"}, false},
		{Session{}, false},
	}
	for _, tc := range cases {
		if got := tc.s.Valid(); got != tc.want {
			t.Errorf("%+v.Valid() = %v, want %v", tc.s, got, tc.want)
		}
	}
}

// TestCredentialsComplete verifies the form-level requirement of a username
// and password before any request is made.
func TestCredentialsComplete(t *testing.T) {
	if (Credentials{Username: "  ", Password: "pw"}).Complete() {
		t.Error("blank username should be incomplete")
	}
	if (Credentials{Username: "alice"}).Complete() {
		t.Error("missing password should be incomplete")
	}
	c := Credentials{Username: " alice ", Password: " pw ", Email: " a@b.c "}.Normalize()
	if c.Username != "alice" || c.Email != "a@b.c" || c.Password != " pw " {
		t.Errorf("Normalize() = %+v", c)
	}
}
