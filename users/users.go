package users

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// User is the credential-store record. PasswordHash and RefreshTokens are
// server-side only and are never serialized to clients.
type User struct {
	ID             string     `json:"_id,omitempty" bson:"_id,omitempty"`
	Username       string     `json:"username" bson:"username"`
	Email          string     `json:"email" bson:"email"`
	PasswordHash   string     `json:"-" bson:"password"`
	ProfilePicture string     `json:"profilePicture,omitempty" bson:"profilePicture,omitempty"`
	CoverPicture   string     `json:"coverPicture,omitempty" bson:"coverPicture,omitempty"`
	Followers      []string   `json:"followers" bson:"followers"`
	Following      []string   `json:"following" bson:"following"`
	IsAdmin        bool       `json:"isAdmin,omitempty" bson:"isAdmin"`
	Desc           string     `json:"desc,omitempty" bson:"desc,omitempty"`
	City           string     `json:"city,omitempty" bson:"city,omitempty"`
	Country        string     `json:"country,omitempty" bson:"country,omitempty"`
	DOB            *time.Time `json:"dob,omitempty" bson:"dob,omitempty"`
	RefreshTokens  []string   `json:"-" bson:"refreshTokens"`
	CreatedAt      time.Time  `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
	UpdatedAt      time.Time  `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

// ProfileUpdate carries the user-editable profile fields. Nil means
// "leave unchanged".
type ProfileUpdate struct {
	Username *string    `json:"username,omitempty"`
	Desc     *string    `json:"desc,omitempty"`
	City     *string    `json:"city,omitempty"`
	Country  *string    `json:"country,omitempty"`
	DOB      *time.Time `json:"dob,omitempty"`
}

// NormalizeUsername applies the store's case/whitespace normalization so
// lookups and uniqueness behave the same regardless of caller casing.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsFollowing reports whether the user currently follows the given id.
func (u *User) IsFollowing(id string) bool {
	for _, f := range u.Following {
		if f == id {
			return true
		}
	}
	return false
}

// IsFollowedBy reports whether the given id is in the user's followers.
func (u *User) IsFollowedBy(id string) bool {
	for _, f := range u.Followers {
		if f == id {
			return true
		}
	}
	return false
}

// HasRefreshToken reports whether the token is in the user's whitelist.
func (u *User) HasRefreshToken(token string) bool {
	for _, rt := range u.RefreshTokens {
		if rt == token {
			return true
		}
	}
	return false
}

// ValidatePasswordStrength checks if a password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
// - Contains at least one special character
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper   bool
		hasLower   bool
		hasNumber  bool
		hasSpecial bool
	)

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasNumber = true
		default:
			hasSpecial = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}
	if !hasSpecial {
		return fmt.Errorf("password must contain at least one special character")
	}

	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash compares a candidate password against a stored hash.
// bcrypt's comparison is constant-time with respect to the hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
