// Package models defines server-side data models persisted by the stores.
package models

import "time"

// User is a registered account. Username and email are stored in
// normalised (trimmed, lowercased) form.
type User struct {
	ID           string    `db:"id"`
	UserName     string    `db:"username"`
	Email        string    `db:"email"`
	FullName     string    `db:"full_name"`
	Avatar       string    `db:"avatar"`
	CoverImage   string    `db:"cover_image"`
	PasswordHash string    `db:"password_hash" json:"-"`
	RefreshToken string    `db:"refresh_token" json:"-"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// PublicUser is the externally visible view of a User. It has no field for
// the password hash or the refresh token.
type PublicUser struct {
	ID         string    `json:"id"`
	UserName   string    `json:"username"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Avatar     string    `json:"avatar"`
	CoverImage string    `json:"coverImage"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// NewPublicUser copies the public fields of u.
func NewPublicUser(u *User) PublicUser {
	return PublicUser{
		ID:         u.ID,
		UserName:   u.UserName,
		Email:      u.Email,
		FullName:   u.FullName,
		Avatar:     u.Avatar,
		CoverImage: u.CoverImage,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// UserUpdate is a partial update. Nil fields are left untouched.
type UserUpdate struct {
	Email        *string
	FullName     *string
	Avatar       *string
	CoverImage   *string
	PasswordHash *string
}

// Empty reports whether the update changes nothing.
func (u UserUpdate) Empty() bool {
	return u.Email == nil && u.FullName == nil && u.Avatar == nil && u.CoverImage == nil && u.PasswordHash == nil
}
