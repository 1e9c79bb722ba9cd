package storage

import (
	"database/sql"
	"errors"
	"fmt"
)

// GetStarPackages returns the active star packages in display order
func GetStarPackages() ([]StarPackage, error) {
	packages := []StarPackage{}
	err := db.Select(&packages, `
		SELECT id, name, stars_amount, price_stars, bonus_percent, is_active, sort_order
		FROM star_packages
		WHERE is_active = 1
		ORDER BY sort_order
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list star packages: %w", err)
	}
	return packages, nil
}

// GetStarPackage retrieves a star package by ID, or nil if absent
func GetStarPackage(id string) (*StarPackage, error) {
	var pkg StarPackage
	err := db.Get(&pkg, `
		SELECT id, name, stars_amount, price_stars, bonus_percent, is_active, sort_order
		FROM star_packages
		WHERE id = ?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get star package: %w", err)
	}
	return &pkg, nil
}

// FindStarPackageByIDPrefix resolves a truncated package ID from the
// invoice payload. Returns nil when zero or multiple packages match.
func FindStarPackageByIDPrefix(prefix string) (*StarPackage, error) {
	if prefix == "" {
		return nil, nil
	}
	var packages []StarPackage
	err := db.Select(&packages, `
		SELECT id, name, stars_amount, price_stars, bonus_percent, is_active, sort_order
		FROM star_packages
		WHERE id LIKE ? || '%'
		LIMIT 2
	`, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to find star package by prefix: %w", err)
	}
	if len(packages) != 1 {
		return nil, nil
	}
	return &packages[0], nil
}

// GetGifts returns the active gift catalog in display order
func GetGifts() ([]Gift, error) {
	gifts := []Gift{}
	err := db.Select(&gifts, `
		SELECT id, name, emoji, price, is_active, sort_order
		FROM gifts
		WHERE is_active = 1
		ORDER BY sort_order
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list gifts: %w", err)
	}
	return gifts, nil
}

// GetGift retrieves a gift by ID, or nil if absent
func GetGift(id string) (*Gift, error) {
	var gift Gift
	err := db.Get(&gift, `
		SELECT id, name, emoji, price, is_active, sort_order
		FROM gifts
		WHERE id = ? AND is_active = 1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get gift: %w", err)
	}
	return &gift, nil
}
