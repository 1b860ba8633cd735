// Package db provides database utilities including transaction management and query scopes.
package db

import (
	"gorm.io/gorm"
)

// ActiveOnly is a GORM scope that keeps rows whose status column is "active".
// Used for activation counting where only live activations count against
// a key's activation limit.
//
// Example usage:
//
//	db.Model(&ActivationModel{}).Scopes(db.ActiveOnly()).Where("key_id = ?", id).Count(&n)
func ActiveOnly() func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("status = ?", "active")
	}
}

// ForProduct scopes a query to a single product.
func ForProduct(productID uint) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("product_id = ?", productID)
	}
}

// WithStatus scopes a query to a single status value.
func WithStatus(status string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("status = ?", status)
	}
}
