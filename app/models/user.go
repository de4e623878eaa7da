package models

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	Base
	FirstName        string `gorm:"size:50;not null" json:"firstName"`
	LastName         string `gorm:"size:50;not null" json:"lastName"`
	Email            string `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Password         string `gorm:"size:255;not null" json:"-"`
	Role             string `gorm:"size:20;not null;default:user" json:"role"`
	RefreshTokenHash string `gorm:"size:64" json:"-"`
}

func (u *User) FullName() string { return u.FirstName + " " + u.LastName }
