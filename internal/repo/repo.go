package repo

import (
	"errors"

	"gorm.io/gorm"
)

// GormRepo is the single data-access point for users and sweets.
type GormRepo struct {
	DB *gorm.DB
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrSweetExists        = errors.New("sweet already exists")
	ErrUnavailable        = errors.New("sweet not available")
)

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
