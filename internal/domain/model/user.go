package model

import (
	"time"

	"subscription-storefront/internal/domain"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// User is a storefront account. Accounts start inactive and become active
// once the emailed activation link is redeemed.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	IsActive     bool
	IsAdmin      bool
	RegisteredAt time.Time
	LastLoginAt  *time.Time
}

func NewUser(id, username, email, password string) (*User, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if username == "" || email == "" || password == "" {
		return nil, domain.ErrInvalidArgument
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     false,
		RegisteredAt: time.Now(),
	}, nil
}

func (u *User) IsZero() bool { return u == nil || u.ID == "" }

// CheckPassword verifies a plaintext password against the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// SetPassword replaces the stored hash. Used by the reset-confirm flow.
func (u *User) SetPassword(password string) error {
	if password == "" {
		return domain.ErrInvalidArgument
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

func (u *User) TouchLogin() {
	now := time.Now()
	u.LastLoginAt = &now
}
