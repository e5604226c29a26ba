package models

import (
	"time"

	"github.com/google/uuid"
)

// Category категория услуг (двухуровневое дерево).
type Category struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	Slug      string     `db:"slug" json:"slug"`
	ParentID  *uuid.UUID `db:"parent_id" json:"parent_id,omitempty"`
	NameNL    string     `db:"name_nl" json:"name_nl"`
	NameEN    string     `db:"name_en" json:"name_en"`
	IsActive  bool       `db:"is_active" json:"is_active"`
	SortOrder int        `db:"sort_order" json:"sort_order"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	Children  []Category `db:"-" json:"children,omitempty"`
}

// Language язык из справочника.
type Language struct {
	Code       string `db:"code" json:"code"`
	NameEN     string `db:"name_en" json:"name_en"`
	NameNative string `db:"name_native" json:"name_native"`
	IsActive   bool   `db:"is_active" json:"is_active"`
	SortOrder  int    `db:"sort_order" json:"sort_order"`
}
