// Package models contains data structures for the application's domain models.
package models

import "time"

// User is an account that can authenticate and author content.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"size:254;uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	IsStaff   bool      `gorm:"not null" json:"is_staff"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Profile   *Profile  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// Profile is the one-to-one extension of a User with public details.
type Profile struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"uniqueIndex;not null" json:"user"`
	User           *User     `gorm:"foreignKey:UserID" json:"-"`
	Bio            string    `gorm:"type:text" json:"bio"`
	ProfilePicture string    `gorm:"size:512" json:"profile_picture"`
	Location       string    `gorm:"size:255" json:"location"`
	Website        string    `gorm:"size:200" json:"website"`
	DateOfBirth    *Date     `json:"date_of_birth"`
	CreatedAt      time.Time `json:"-"`
	UpdatedAt      time.Time `json:"-"`

	// Name and Email mirror the owning user and are filled by Decorate.
	Name  string `gorm:"-" json:"name"`
	Email string `gorm:"-" json:"email"`
}

// Decorate copies display fields from the preloaded User.
func (p *Profile) Decorate() {
	if p == nil || p.User == nil {
		return
	}
	p.Name = p.User.Username
	p.Email = p.User.Email
}
