// Package repositories wraps every query the services run. Each repository
// holds the injected *gorm.DB and can be rebound to a transaction with WithTx.
package repositories

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/pehnawa/pkg/apperr"
	"github.com/shashiranjanraj/pehnawa/pkg/database"
)

// translate maps store errors onto the apperr taxonomy. what names the
// entity in the message ("Product", "Category").
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound("%s not found", what)
	case database.IsUniqueViolation(err):
		return apperr.Conflict("%s already exists", what)
	}
	return fmt.Errorf("%s: %w", strings.ToLower(what), err)
}

// persistInactive writes is_active = false after an insert. GORM skips zero
// values for columns with a default, so an inactive row would otherwise be
// stored as active.
func persistInactive(tx *gorm.DB, model interface{}, active bool) error {
	if active {
		return nil
	}
	return tx.Model(model).UpdateColumn("is_active", false).Error
}
