package user

import "time"

// User is a staff account. Guests never log in.
type User struct {
	ID           int64
	Username     string
	PasswordHash []byte
	CreatedAt    time.Time
}
