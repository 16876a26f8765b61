package user

import (
	"errors"
	"fmt"
	"time"

	"marketplace/internal/domain/lifecycle"
)

var (
	ErrUserNotFound  = fmt.Errorf("user %w", lifecycle.ErrNotFound)
	ErrUserNameTaken = errors.New("user name already taken")
)

type User struct {
	ID           int64     `json:"id"`
	UserName     string    `json:"userName"`
	PasswordHash string    `json:"-"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"createdAt"`
}

type CreateUserParams struct {
	UserName     string
	PasswordHash string
	Roles        []string
}
