package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Layouts the workout API has been seen to emit for the date field:
// SQLite CURRENT_TIMESTAMP text, RFC 3339, and the HTTP date format Flask uses
// when it serializes a datetime.
const (
	WorkoutTimeLayout     = "2006-01-02 15:04:05"
	WorkoutDateOnlyLayout = "2006-01-02"
)

var workoutTimeLayouts = []string{
	WorkoutTimeLayout,
	time.RFC3339Nano,
	time.RFC1123,
	WorkoutDateOnlyLayout,
}

// WorkoutTime wraps time.Time with the lenient parsing the workout API needs.
// A null or empty date decodes to the zero time.
type WorkoutTime struct {
	time.Time
}

func (t *WorkoutTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return t.Parse(s)
}

func (t WorkoutTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339))
}

// Parse tries each known layout in turn.
func (t *WorkoutTime) Parse(s string) error {
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	var firstErr error
	for _, layout := range workoutTimeLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			t.Time = parsed
			return nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return fmt.Errorf("cannot parse workout time %q: %w", s, firstErr)
}

// ParseWorkoutTime parses a workout date string into a time.Time.
func ParseWorkoutTime(s string) (time.Time, error) {
	var t WorkoutTime
	if err := t.Parse(s); err != nil {
		return time.Time{}, err
	}
	return t.Time, nil
}

// WorkoutRecord is one workout as returned by GET /get_workouts.
// The client only reads these; it never creates or edits them.
type WorkoutRecord struct {
	ID       int         `json:"id,omitempty"`
	Exercise string      `json:"exercise"`
	Sets     int         `json:"sets"`
	Reps     int         `json:"reps"`
	Weight   float64     `json:"weight"`
	Date     WorkoutTime `json:"date"`
	Note     string      `json:"note,omitempty"`
}
