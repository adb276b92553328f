// Package entity provides base types shared by catalogs and documents.
package entity

import (
	"context"
	"errors"
	"time"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants (without database access).
type Validatable interface {
	// Validate checks entity invariants.
	// Returns nil if valid, AppError with details otherwise.
	Validate(ctx context.Context) error
}

// Keyed is implemented by entities with a bigserial primary key.
type Keyed interface {
	GetID() int64
	SetID(int64)
}

// Base contains the fields every stored entity carries. Accounting records
// use integer keys: hash canonicalization serializes references as their
// integer ids, and the audit legislation this module serves expects dense,
// orderable identifiers.
type Base struct {
	// ID is the primary key (bigserial)
	ID int64 `db:"id" json:"id"`

	// Version for optimistic locking (incremented on each update)
	Version int `db:"version" json:"version"`
}

// GetID implements Keyed.
func (b *Base) GetID() int64 { return b.ID }

// SetID implements Keyed.
func (b *Base) SetID(id int64) { b.ID = id }

// Touch increments version (for optimistic locking).
func (b *Base) Touch() {
	b.Version++
}

// SetVersion updates the version number (used by repository after sync).
func (b *Base) SetVersion(v int) {
	b.Version = v
}

// Catalog is the base for reference data (companies, currencies, accounts,
// journals): coded, named, soft-deletable.
type Catalog struct {
	Base

	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`

	// Active is the soft-delete flag; inactive records stay referenceable.
	Active bool `db:"active" json:"active"`
}

// NewCatalog creates a catalog record with defaults.
func NewCatalog(code, name string) Catalog {
	return Catalog{
		Base:   Base{Version: 1},
		Code:   code,
		Name:   name,
		Active: true,
	}
}

// Validate checks the invariants common to all catalog records.
func (c *Catalog) Validate(ctx context.Context) error {
	if c.Code == "" {
		return errors.New("code is required")
	}
	if c.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

// Document extends Base with audit timestamps for business documents.
type Document struct {
	Base

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	UpdatedBy string    `db:"updated_by" json:"updatedBy,omitempty"`
}

// NewDocument creates a document base with timestamps.
func NewDocument() Document {
	now := time.Now().UTC()
	return Document{
		Base:      Base{Version: 1},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch updates the UpdatedAt timestamp and increments version.
func (d *Document) Touch() {
	d.UpdatedAt = time.Now().UTC()
	d.Base.Touch()
}
