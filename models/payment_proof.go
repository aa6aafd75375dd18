package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProofStatus advances monotonically: Pending → Approved|Rejected, and
// Approved → Settled by the settlement sweep. Amount is immutable once the
// proof leaves Pending.
type ProofStatus string

const (
	ProofPending  ProofStatus = "Pending"
	ProofApproved ProofStatus = "Approved"
	ProofRejected ProofStatus = "Rejected"
	ProofSettled  ProofStatus = "Settled"
)

// PaymentProof is auctioneer-submitted evidence that a commission was
// paid. It carries the uploaded evidence image and the claimed amount,
// which must match the auction's computed commission at submission time.
type PaymentProof struct {
	gorm.Model

	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;<-:create"`
	UserID        uuid.UUID       `gorm:"type:uuid;not null;index;<-:create"`
	AuctionID     uuid.UUID       `gorm:"type:uuid;not null;index;<-:create"`
	ImagePublicID string          `gorm:"type:varchar(255);not null;<-:create"`
	ImageURL      string          `gorm:"type:varchar(255);not null;<-:create"`
	Amount        decimal.Decimal `gorm:"type:numeric(14,2);not null;<-:create"`
	Status        ProofStatus     `gorm:"type:varchar(16);not null;default:'Pending';index"`
	Comment       string          `gorm:"type:varchar(1000)"`

	User    User
	Auction Auction
}

func (p *PaymentProof) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		p.ID = id
	}
	return nil
}
