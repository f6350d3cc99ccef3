package models

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	STATUS_ACTIVE   = "active"
	STATUS_DISABLED = "disabled"
)

type User struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Email       string         `gorm:"uniqueIndex;type:varchar(200) CHARACTER SET utf8 COLLATE utf8_bin" json:"email" validate:"required,email,max=200"`
	DisplayName string         `gorm:"type:varchar(150);default:null" json:"display_name" validate:"max=150"`
	Phone       string         `gorm:"type:varchar(40);default:null" json:"phone" validate:"max=40"`
	Password    string         `gorm:"type:text" json:"-" validate:"required"`
	Status      string         `gorm:"type:varchar(50);default:'active'" json:"status" validate:"oneof=active disabled"`
	LastLoginAt *time.Time     `gorm:"type:timestamp;default:null" json:"last_login_at"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// credentials is validated before hashing so the password rules apply to the
// plain text.
type credentials struct {
	Email    string `validate:"required,email,max=200"`
	Password string `validate:"required,min=6,max=72"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

// CreateUser validates the credentials and returns an active user with a
// hashed password. The display name defaults to the email's local part.
func CreateUser(email string, password string) (*User, error) {
	email = strings.TrimSpace(email)
	if err := validator.New().Struct(credentials{Email: email, Password: password}); err != nil {
		return nil, err
	}

	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Email:       email,
		DisplayName: strings.SplitN(email, "@", 2)[0],
		Password:    pw,
		Status:      STATUS_ACTIVE,
	}

	if err := u.Validate(); err != nil {
		return nil, err
	}

	return u, nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// IsActive reports whether the user status is active
func (u *User) IsActive() bool {
	return u.Status == STATUS_ACTIVE
}

// CheckPassword verifies if the provided password matches the user's stored password
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.Password)
}

// UpdateProfile sets the editable profile fields and validates them.
func (u *User) UpdateProfile(displayName, phone string) error {
	u.DisplayName = strings.TrimSpace(displayName)
	u.Phone = strings.TrimSpace(phone)
	return u.Validate()
}
