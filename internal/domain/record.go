package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind discriminates the three record variants stored in the workouts table.
type Kind string

const (
	KindStrengthWorkout Kind = "strength_workout"
	KindCardio          Kind = "cardio"
	KindWeighIn         Kind = "weigh_in"
)

// Duration is an elapsed-time value serialized as "HH:MM:SS" on the wire
// and as whole seconds in the store.
type Duration int64

// Seconds returns the duration as whole seconds.
func (d Duration) Seconds() int64 { return int64(d) }

// String formats the duration as HH:MM:SS.
func (d Duration) String() string {
	s := int64(d)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s/60)%60, s%60)
}

// MarshalJSON encodes the duration in HH:MM:SS form.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts "HH:MM:SS" (hours may exceed two digits).
func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseDuration(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDuration parses an "HH:MM:SS" elapsed-time string. Every component
// must be fully numeric; trailing garbage is rejected.
func ParseDuration(raw string) (Duration, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid duration %q: want HH:MM:SS", raw)
	}

	components := make([]int64, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: want HH:MM:SS", raw)
		}
		components[i] = int64(n)
	}

	h, m, s := components[0], components[1], components[2]
	if h < 0 || m < 0 || m > 59 || s < 0 || s > 59 {
		return 0, fmt.Errorf("invalid duration %q: component out of range", raw)
	}
	return Duration(h*3600 + m*60 + s), nil
}

// Record is a single logged entry. One flat shape models all three variants;
// fields not applicable to the tagged kind are nil both in memory and in the
// backing table.
type Record struct {
	ID       int64     `json:"id"`
	Owner    string    `json:"owner"`
	Date     time.Time `json:"date"`
	Kind     Kind      `json:"kind"`
	Exercise *string   `json:"exercise,omitempty"`
	Sets     *int      `json:"sets,omitempty"`
	Reps     *int      `json:"reps,omitempty"`
	Weight   *float64  `json:"weight,omitempty"`
	Miles    *float64  `json:"miles,omitempty"`
	Duration *Duration `json:"duration,omitempty"`
}

// ValidationError names the field that failed validation and why.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// Normalize validates the record against its kind's field rules and clears
// every field that does not belong to that kind. The same rules apply on
// create and on update.
//
// Weight rules differ per kind on purpose: a strength workout accepts
// weight >= 0 (bodyweight movements log zero), a weigh-in requires a
// strictly positive weight.
func (r *Record) Normalize() error {
	switch r.Kind {
	case KindStrengthWorkout:
		if r.Exercise == nil || strings.TrimSpace(*r.Exercise) == "" {
			return invalid("exercise", "required for strength workouts")
		}
		if r.Sets == nil || *r.Sets <= 0 {
			return invalid("sets", "must be a positive integer")
		}
		if r.Reps == nil || *r.Reps <= 0 {
			return invalid("reps", "must be a positive integer")
		}
		if r.Weight == nil || *r.Weight < 0 {
			return invalid("weight", "must be zero or greater")
		}
		r.Miles = nil
		r.Duration = nil
	case KindCardio:
		if r.Exercise == nil || strings.TrimSpace(*r.Exercise) == "" {
			return invalid("exercise", "required for cardio sessions")
		}
		if r.Miles == nil || *r.Miles <= 0 {
			return invalid("miles", "must be greater than zero")
		}
		if r.Duration == nil || *r.Duration <= 0 {
			return invalid("duration", "must be greater than zero")
		}
		r.Sets = nil
		r.Reps = nil
		r.Weight = nil
	case KindWeighIn:
		if r.Weight == nil || *r.Weight <= 0 {
			return invalid("weight", "must be greater than zero")
		}
		r.Exercise = nil
		r.Sets = nil
		r.Reps = nil
		r.Miles = nil
		r.Duration = nil
	default:
		return invalid("kind", fmt.Sprintf("unknown kind %q", r.Kind))
	}
	return nil
}
