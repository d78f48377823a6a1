package users

import (
	"strings"
	"time"
)

// Identity is the persisted account record. PasswordHash and RefreshToken are
// never serialized toward clients; response-facing reads go through Profile.
type Identity struct {
	ID            string    `gorm:"column:id;primaryKey;size:64;not null"`
	Username      string    `gorm:"column:username;size:64;uniqueIndex;not null"`
	Email         string    `gorm:"column:email;size:320;uniqueIndex;not null"`
	FullName      string    `gorm:"column:full_name;size:320;not null;index"`
	PasswordHash  string    `gorm:"column:password_hash;size:128;not null"`
	AvatarURL     string    `gorm:"column:avatar_url;size:512;not null"`
	CoverImageURL string    `gorm:"column:cover_image_url;size:512"`
	RefreshToken  string    `gorm:"column:refresh_token;size:1024"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName exposes the table backing account identities.
func (Identity) TableName() string {
	return "user_identities"
}

// Profile is the projection of an Identity safe to return to callers. It
// excludes the password hash and the stored refresh token.
type Profile struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullName"`
	AvatarURL     string    `json:"avatar"`
	CoverImageURL string    `json:"coverImage"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Profile returns the response-facing projection of the identity.
func (i Identity) Profile() Profile {
	return Profile{
		ID:            i.ID,
		Username:      i.Username,
		Email:         i.Email,
		FullName:      i.FullName,
		AvatarURL:     i.AvatarURL,
		CoverImageURL: i.CoverImageURL,
		CreatedAt:     i.CreatedAt,
		UpdatedAt:     i.UpdatedAt,
	}
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
