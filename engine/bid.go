package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"gavel/models"
)

// PlaceBid validates and records a bid against a live auction. All checks
// and both writes happen in one transaction: a bid row is never inserted
// without the auction's current_bid reflecting it. Concurrent bids on the
// same auction are serialized by the conditional current_bid update, which
// re-evaluates the guard under the row lock, so two bids can never both be
// accepted as "higher than all others" when they are not higher than each
// other.
func (e *Engine) PlaceBid(ctx context.Context, userID, auctionID uuid.UUID, amount int64) (models.Bid, error) {
	const op = "PlaceBid"
	var bid models.Bid
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var auction models.Auction
		if result := tx.First(&auction, "id = ?", auctionID); result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return ErrAuctionNotFound
			}
			return fmt.Errorf("[%s] fail to find auction, err=%w", op, result.Error)
		}
		now := e.clock.Now()
		if now.Before(auction.StartTime) {
			return ErrAuctionNotStarted
		}
		if !now.Before(auction.EndTime) {
			return ErrAuctionEnded
		}
		var user models.User
		if result := tx.First(&user, "id = ?", userID); result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("[%s] fail to find user, err=%w", op, result.Error)
		}
		// current_bid starts at the starting bid, so this single guard
		// enforces amount > max(highest accepted bid, starting bid).
		raise := tx.Model(&models.Auction{}).
			Where("id = ? AND current_bid < ?", auction.ID, amount).
			Update("current_bid", amount)
		if raise.Error != nil {
			return fmt.Errorf("[%s] fail to raise current bid, err=%w", op, raise.Error)
		}
		if raise.RowsAffected == 0 {
			return fmt.Errorf("%w: amount must exceed %d", ErrBidTooLow, auction.CurrentBid)
		}
		bid = models.Bid{
			AuctionID:      auction.ID,
			UserID:         user.ID,
			Amount:         amount,
			BidderName:     user.Name,
			BidderImageURL: user.ProfileImageURL,
		}
		if result := tx.Create(&bid); result.Error != nil {
			return fmt.Errorf("[%s] fail to create bid, err=%w", op, result.Error)
		}
		return nil
	})
	if err != nil {
		return models.Bid{}, err
	}
	return bid, nil
}

// BidsForAuction returns the accepted bids on an auction, newest first.
func (e *Engine) BidsForAuction(ctx context.Context, auctionID uuid.UUID) ([]models.Bid, error) {
	const op = "BidsForAuction"
	var bids []models.Bid
	result := e.db.WithContext(ctx).
		Where("auction_id = ?", auctionID).
		Order("created_at DESC").
		Find(&bids)
	if result.Error != nil {
		return nil, fmt.Errorf("[%s] fail to list bids, err=%w", op, result.Error)
	}
	return bids, nil
}
