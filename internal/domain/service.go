// Package domain defines the record model and business rules for the workout log.
package domain

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrRecordNotFound is returned when no record exists for the requested id.
	ErrRecordNotFound = errors.New("record not found")
	// ErrNotOwner is returned when the caller does not own the requested record.
	ErrNotOwner = errors.New("record owned by another user")
	// ErrConflict is returned when a concurrent modification could not be resolved.
	ErrConflict = errors.New("record modified concurrently")
)

// RecordRepository captures persistence operations for records.
type RecordRepository interface {
	ListByOwner(ctx context.Context, owner string) ([]Record, error)
	Create(ctx context.Context, record Record) (Record, error)
	Get(ctx context.Context, id int64) (*Record, error)
	// Update overwrites all mutable fields of the row matching record.ID and
	// reports how many rows were affected.
	Update(ctx context.Context, record Record) (int64, error)
	// Delete removes the row and reports whether it existed.
	Delete(ctx context.Context, id int64) (bool, error)
}

// Service orchestrates validation and ownership-scoped persistence.
type Service struct {
	repo RecordRepository
	now  func() time.Time
}

// NewService constructs a Service.
func NewService(repo RecordRepository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// ListRecords returns every record owned by the caller, ordered for display.
func (s *Service) ListRecords(ctx context.Context, owner string) ([]Record, error) {
	return s.repo.ListByOwner(ctx, owner)
}

// CreateRecord validates the candidate, stamps owner and creation time, and persists it.
func (s *Service) CreateRecord(ctx context.Context, owner string, candidate Record) (*Record, error) {
	if err := candidate.Normalize(); err != nil {
		return nil, err
	}

	candidate.ID = 0
	candidate.Owner = owner
	candidate.Date = s.now().UTC()

	stored, err := s.repo.Create(ctx, candidate)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// UpdateRecord replaces all mutable fields of an owned record.
//
// The candidate's date overwrites the stored one only when explicitly set;
// a zero date keeps the original timestamp. If the row disappears between
// the ownership check and the write, the update reports not-found rather
// than a conflict.
func (s *Service) UpdateRecord(ctx context.Context, owner string, id int64, candidate Record) error {
	if err := candidate.Normalize(); err != nil {
		return err
	}

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrRecordNotFound
	}
	if existing.Owner != owner {
		return ErrNotOwner
	}

	candidate.ID = id
	candidate.Owner = existing.Owner
	if candidate.Date.IsZero() {
		candidate.Date = existing.Date
	} else {
		candidate.Date = candidate.Date.UTC()
	}

	affected, err := s.repo.Update(ctx, candidate)
	if err != nil {
		return err
	}
	if affected == 0 {
		recheck, err := s.repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if recheck == nil {
			return ErrRecordNotFound
		}
		return ErrConflict
	}
	return nil
}

// DeleteRecord removes an owned record.
func (s *Service) DeleteRecord(ctx context.Context, owner string, id int64) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrRecordNotFound
	}
	if existing.Owner != owner {
		return ErrNotOwner
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		// Row vanished between the ownership check and the delete.
		return ErrRecordNotFound
	}
	return nil
}
