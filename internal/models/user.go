package models

import "time"

// User is the identity record the showcase resolves authenticated subjects to.
// Credentials live with the external identity provider.
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Email       string    `gorm:"size:254;not null;uniqueIndex" json:"email"`
	Kennitala   *string   `gorm:"size:10;uniqueIndex" json:"-"`
	FirstName   string    `gorm:"size:150" json:"first_name"`
	LastName    string    `gorm:"size:150" json:"last_name"`
	Info        string    `gorm:"type:text;not null;default:''" json:"info"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	IsStaff     bool      `gorm:"not null;default:false" json:"is_staff"`
	IsSuperuser bool      `gorm:"not null;default:false" json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserProfile is the public view of a user. Project payloads embed it as the
// owner; contact details and account flags stay on User.
type UserProfile struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Info      string `json:"info"`
}

func (UserProfile) TableName() string {
	return "users"
}

// Profile returns the public view of u.
func (u *User) Profile() *UserProfile {
	return &UserProfile{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Info: u.Info}
}

// IsAdmin reports whether the user may act on any project.
func (u *User) IsAdmin() bool {
	return u != nil && (u.IsSuperuser || u.IsStaff)
}

// FullName joins first and last name.
func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
