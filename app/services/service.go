// Package services holds the storefront's business rules. Services take the
// shared *gorm.DB at construction and never reach for globals.
package services

import (
	"github.com/shashiranjanraj/pehnawa/pkg/apperr"
	"github.com/shashiranjanraj/pehnawa/pkg/validate"
)

// check runs the struct-tag rules on input.
func check(input interface{}) error {
	if errs := validate.Struct(input); validate.HasErrors(errs) {
		return apperr.ValidationFields(errs)
	}
	return nil
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}
