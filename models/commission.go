package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Commission is an append-only ledger entry written exactly once per
// settled payment proof. Rows are never updated or deleted; they are the
// audit trail for every reduction of a user's unpaid balance.
type Commission struct {
	gorm.Model

	ID     uuid.UUID       `gorm:"type:uuid;primaryKey;<-:create"`
	UserID uuid.UUID       `gorm:"type:uuid;not null;index;<-:create"`
	Amount decimal.Decimal `gorm:"type:numeric(14,2);not null;<-:create"`

	User User
}

func (c *Commission) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		c.ID = id
	}
	return nil
}
