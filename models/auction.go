package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Condition describes the physical state of a listed item.
type Condition string

const (
	ConditionNew  Condition = "New"
	ConditionUsed Condition = "Used"
)

// Auction is a timed listing. CurrentBid starts at StartingBid and is only
// raised by accepted bids. CommissionCalculated flips false→true exactly
// once, when the close sweep settles the auction; it is the sole
// idempotency gate for closing.
type Auction struct {
	gorm.Model

	ID                   uuid.UUID  `gorm:"type:uuid;primaryKey;<-:create"`
	Title                string     `gorm:"type:varchar(255);not null;<-:create"`
	Description          string     `gorm:"type:text;not null"`
	Category             string     `gorm:"type:varchar(100);not null;<-:create"`
	Condition            Condition  `gorm:"type:varchar(16);not null;<-:create"`
	StartingBid          int64      `gorm:"type:bigint;not null;<-:create"`
	CurrentBid           int64      `gorm:"type:bigint;not null"`
	StartTime            time.Time  `gorm:"type:timestamp with time zone;not null;<-:create"`
	EndTime              time.Time  `gorm:"type:timestamp with time zone;not null;<-:create"`
	ImagePublicID        string     `gorm:"type:varchar(255)"`
	ImageURL             string     `gorm:"type:varchar(255)"`
	CreatedBy            uuid.UUID  `gorm:"type:uuid;not null;index;<-:create"`
	HighestBidderID      *uuid.UUID `gorm:"type:uuid"`
	CommissionCalculated bool       `gorm:"not null;default:false;index"`

	Creator       User `gorm:"foreignKey:CreatedBy"`
	HighestBidder *User
	BidRecords    []Bid
}

func (a *Auction) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		a.ID = id
	}
	return nil
}
