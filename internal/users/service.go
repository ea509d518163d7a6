package users

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/will-chou/capstone-community/internal/models"
)

var (
	ErrNotFound     = errors.New("user not found")
	ErrInvalidPhone = errors.New("invalid phone number")
	ErrNoEmail      = errors.New("identity has no email")
)

var phonePattern = regexp.MustCompile(`^[0-9]{10}$`)

// ValidPhone reports whether p is a ten digit number with no other characters.
func ValidPhone(p string) bool {
	return phonePattern.MatchString(p)
}

// Profile is what registration records for a user.
type Profile struct {
	Email   string
	Phone   string
	Name    string
	Picture string
}

// Service encapsulates user-related business logic
type Service struct {
	repo UserRepository
}

func NewService(r UserRepository) *Service {
	return &Service{repo: r}
}

// Register creates or refreshes the metadata of the user behind p.Email.
func (s *Service) Register(ctx context.Context, p Profile) (*models.UserMetadata, error) {
	if p.Email == "" {
		return nil, ErrNoEmail
	}
	if !ValidPhone(p.Phone) {
		return nil, ErrInvalidPhone
	}
	u, err := s.repo.Upsert(ctx, &models.UserMetadata{
		Email:   p.Email,
		Phone:   p.Phone,
		Name:    p.Name,
		Picture: p.Picture,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert user %s: %w", p.Email, err)
	}
	return u, nil
}

// Get returns the metadata for email or ErrNotFound.
func (s *Service) Get(ctx context.Context, email string) (*models.UserMetadata, error) {
	if email == "" {
		return nil, ErrNotFound
	}
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}

// PhoneFor returns the registered phone number of email.
func (s *Service) PhoneFor(ctx context.Context, email string) (string, error) {
	u, err := s.Get(ctx, email)
	if err != nil {
		return "", err
	}
	return u.Phone, nil
}

// AppendEventEntry links an event id to its author. Unknown authors are ignored.
func (s *Service) AppendEventEntry(ctx context.Context, email, eventID string) error {
	return s.repo.AppendEventEntry(ctx, email, eventID)
}
