package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Bid records a single accepted offer on an auction. BidderName and
// BidderImageURL are denormalized at insertion time, so a bid keeps the
// identity the bidder displayed when it was placed.
type Bid struct {
	gorm.Model

	ID             uuid.UUID `gorm:"type:uuid;primaryKey;<-:create"`
	AuctionID      uuid.UUID `gorm:"type:uuid;not null;index;<-:create"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;<-:create"`
	Amount         int64     `gorm:"type:bigint;not null;<-:create"`
	BidderName     string    `gorm:"type:varchar(255);<-:create"`
	BidderImageURL string    `gorm:"type:varchar(255);<-:create"`

	User    User
	Auction Auction
}

func (b *Bid) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		b.ID = id
	}
	return nil
}
