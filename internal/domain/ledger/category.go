package ledger

import (
	"time"

	"github.com/moneta/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CategoryKind distinguishes income and expense categories
type CategoryKind string

const (
	CategoryKindIncome  CategoryKind = "income"
	CategoryKindExpense CategoryKind = "expense"
)

// Category classifies transactions. Categories form a single-level
// hierarchy: a category may have a parent but never a grandparent.
type Category struct {
	shared.UserAggregateRoot
	Name     string       `gorm:"type:varchar(100);not null"`
	Kind     CategoryKind `gorm:"type:varchar(10);not null;default:'expense'"`
	ParentID *uuid.UUID   `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (Category) TableName() string {
	return "categories"
}

// NewCategory creates a new category
func NewCategory(userID uuid.UUID, name string, kind CategoryKind, parentID *uuid.UUID) (*Category, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Category name cannot be empty")
	}
	if len(name) > 100 {
		return nil, shared.NewDomainError("INVALID_NAME", "Category name cannot exceed 100 characters")
	}
	if kind != CategoryKindIncome && kind != CategoryKindExpense {
		return nil, shared.NewDomainError("INVALID_KIND", "Category kind must be 'income' or 'expense'")
	}

	return &Category{
		UserAggregateRoot: shared.NewUserAggregateRoot(userID),
		Name:              name,
		Kind:              kind,
		ParentID:          parentID,
	}, nil
}

// Rename changes the category name
func (c *Category) Rename(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Category name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Category name cannot exceed 100 characters")
	}
	c.Name = name
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
	return nil
}
