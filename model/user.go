package model

import (
	"strconv"
	"time"
)

// User is the record shape shared by every backend and returned by the API.
// The DynamoDB attribute names match the items written by the Next.js app.
type User struct {
	ID                string    `json:"id" dynamodbav:"id"`
	Name              string    `json:"name" dynamodbav:"name"`
	Email             string    `json:"email" dynamodbav:"email"`
	ProfilePictureURL string    `json:"profilePictureUrl" dynamodbav:"profilePictureUrl"`
	ProfilePictureKey string    `json:"-" dynamodbav:"profilePictureKey,omitempty"`
	CreatedAt         time.Time `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt" dynamodbav:"updatedAt"`
}

// UserPatch carries the fields an update may change. Nil means "leave as is".
type UserPatch struct {
	Name              *string
	Email             *string
	ProfilePictureURL *string
	ProfilePictureKey *string
	UpdatedAt         time.Time
}

// Fields returns the patch as attribute name -> value, omitting unset fields.
func (p UserPatch) Fields() map[string]any {
	fields := make(map[string]any, 4)
	if p.Name != nil {
		fields["name"] = *p.Name
	}
	if p.Email != nil {
		fields["email"] = *p.Email
	}
	if p.ProfilePictureURL != nil {
		fields["profilePictureUrl"] = *p.ProfilePictureURL
	}
	if p.ProfilePictureKey != nil {
		fields["profilePictureKey"] = *p.ProfilePictureKey
	}
	return fields
}

// Apply merges the patch into u.
func (p UserPatch) Apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.ProfilePictureURL != nil {
		u.ProfilePictureURL = *p.ProfilePictureURL
	}
	if p.ProfilePictureKey != nil {
		u.ProfilePictureKey = *p.ProfilePictureKey
	}
	u.UpdatedAt = p.UpdatedAt
}

// UserRecord is the relational row for a user.
type UserRecord struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"`

	Name  string `gorm:"column:name;type:varchar(255);not null"`
	Email string `gorm:"column:email;type:varchar(255);not null;uniqueIndex:uk_users_email"`

	ProfilePictureURL string `gorm:"column:profile_picture_url;type:varchar(1024);not null;default:''"`
	ProfilePictureKey string `gorm:"column:profile_picture_key;type:varchar(512);not null;default:''"`

	CreatedAt time.Time `gorm:"column:created_at;index;autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime:false"`
}

// TableName returns the database table name.
func (UserRecord) TableName() string {
	return "users"
}

// ToUser converts the row into the API shape.
func (r UserRecord) ToUser() User {
	return User{
		ID:                strconv.FormatUint(r.ID, 10),
		Name:              r.Name,
		Email:             r.Email,
		ProfilePictureURL: r.ProfilePictureURL,
		ProfilePictureKey: r.ProfilePictureKey,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

// NewUserRecord builds a row from u; the id is assigned by the database.
func NewUserRecord(u User) UserRecord {
	return UserRecord{
		Name:              u.Name,
		Email:             u.Email,
		ProfilePictureURL: u.ProfilePictureURL,
		ProfilePictureKey: u.ProfilePictureKey,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}
