package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Role determines what a user may do on the marketplace.
type Role string

const (
	RoleAuctioneer Role = "Auctioneer"
	RoleBidder     Role = "Bidder"
	RoleSuperAdmin Role = "SuperAdmin"
)

// User is a registered marketplace participant. UnpaidCommission is the
// running balance an auctioneer still owes; it is only ever mutated inside
// the same transaction as the auction close or proof settlement that
// caused the change, and never goes negative.
type User struct {
	gorm.Model

	ID                   uuid.UUID       `gorm:"type:uuid;primaryKey;<-:create"`
	Name                 string          `gorm:"type:varchar(255);not null;<-:create"`
	Email                string          `gorm:"type:varchar(255);not null"`
	Address              string          `gorm:"type:varchar(255)"`
	Phone                string          `gorm:"type:varchar(32)"`
	Role                 Role            `gorm:"type:varchar(32);not null;<-:create"`
	ProfileImagePublicID string          `gorm:"type:varchar(255)"`
	ProfileImageURL      string          `gorm:"type:varchar(255)"`
	UnpaidCommission     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	AuctionsWon          int             `gorm:"type:integer;not null;default:0"`
	MoneySpent           int64           `gorm:"type:bigint;not null;default:0"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		u.ID = id
	}
	return nil
}
