// Package identity manages user accounts and credential verification.
package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrUsernameTaken is returned when registering a username that already exists.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrInvalidCredentials is returned for any login failure. It deliberately
	// does not distinguish an unknown username from a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// GuestPrefix namespaces usernames provisioned through guest login.
const GuestPrefix = "guest_"

// User is a stored account. Guests are ordinary users whose username carries
// the guest prefix and whose password was generated server-side.
type User struct {
	Username     string
	PasswordHash string
	Guest        bool
	CreatedAt    time.Time
}

// UserRepository captures persistence operations for accounts.
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
	// Create inserts the user, failing with ErrUsernameTaken on a duplicate.
	Create(ctx context.Context, user User) error
	// CreateIfAbsent inserts the user unless the username already exists and
	// returns the stored row either way. Used for idempotent guest provisioning.
	CreateIfAbsent(ctx context.Context, user User) (*User, error)
}

// Service implements registration, login verification and guest provisioning.
type Service struct {
	repo       UserRepository
	bcryptCost int
	now        func() time.Time
}

// NewService constructs a Service. A cost of 0 uses the bcrypt default.
func NewService(repo UserRepository, bcryptCost int) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{repo: repo, bcryptCost: bcryptCost, now: time.Now}
}

// Register creates a new account after checking the password policy.
func (s *Service) Register(ctx context.Context, username, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, &PolicyError{Violations: []string{"username is required"}}
	}
	if strings.HasPrefix(username, GuestPrefix) {
		return nil, &PolicyError{Violations: []string{"username prefix is reserved for guests"}}
	}
	if err := CheckPassword(password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := User{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Authenticate verifies a username/password pair.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := s.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// EnsureGuest maps an opaque client guest id to a reserved account, creating
// it with a random policy-compliant password on first use. Repeated calls
// with the same id always resolve to the same account.
func (s *Service) EnsureGuest(ctx context.Context, guestID string) (*User, error) {
	guestID = strings.TrimSpace(guestID)
	if guestID == "" {
		return nil, &PolicyError{Violations: []string{"guestId is required"}}
	}

	username := GuestPrefix + guestID
	if existing, err := s.repo.FindByUsername(ctx, username); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(randomPassword()), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	return s.repo.CreateIfAbsent(ctx, User{
		Username:     username,
		PasswordHash: string(hash),
		Guest:        true,
		CreatedAt:    s.now().UTC(),
	})
}
