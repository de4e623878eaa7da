package seeders

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/pehnawa/app/models"
	"github.com/shashiranjanraj/pehnawa/config"
	"github.com/shashiranjanraj/pehnawa/pkg/auth"
)

func init() {
	Register("users", SeedUsers)
}

// SeedUsers creates the admin account from SEED_ADMIN_EMAIL and
// SEED_ADMIN_PASSWORD.
func SeedUsers(_ context.Context, db *gorm.DB) error {
	email := strings.ToLower(config.Get("SEED_ADMIN_EMAIL", "admin@pehnawa.local"))

	var existing models.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := auth.HashPassword(config.Get("SEED_ADMIN_PASSWORD", "Admin@123"))
	if err != nil {
		return err
	}
	return db.Create(&models.User{
		FirstName: "Admin",
		LastName:  "User",
		Email:     email,
		Password:  hash,
		Role:      models.RoleAdmin,
	}).Error
}
