package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gavel/models"
)

// CreateAuctionParams carries the auctioneer's submission.
type CreateAuctionParams struct {
	Title       string
	Description string
	Category    string
	Condition   models.Condition
	StartingBid int64
	StartTime   time.Time
	EndTime     time.Time
	Image       []byte
}

// CreateAuction lists a new item for a given auctioneer. A user may only
// list while holding zero unpaid commission and while no other auction of
// theirs is still active (end time in the future).
func (e *Engine) CreateAuction(ctx context.Context, userID uuid.UUID, params CreateAuctionParams) (models.Auction, error) {
	const op = "CreateAuction"
	now := e.clock.Now()
	if !params.EndTime.After(params.StartTime) {
		return models.Auction{}, fmt.Errorf("%w: end time must be after start time", ErrInvalidAuctionWindow)
	}
	if !params.StartTime.After(now) {
		return models.Auction{}, fmt.Errorf("%w: start time must be in the future", ErrInvalidAuctionWindow)
	}
	if params.StartingBid < 0 {
		return models.Auction{}, fmt.Errorf("%w: starting bid must not be negative", ErrInvalidAmount)
	}
	params.Description = e.htmlChecker.Sanitize(params.Description)

	var auction models.Auction
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if result := tx.First(&user, "id = ?", userID); result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("[%s] fail to find user, err=%w", op, result.Error)
		}
		if user.Role != models.RoleAuctioneer {
			return fmt.Errorf("%w: only auctioneers can list items", ErrForbidden)
		}
		if user.UnpaidCommission.IsPositive() {
			return fmt.Errorf("%w: %s still owed", ErrUnpaidCommission, user.UnpaidCommission.StringFixed(2))
		}
		var active models.Auction
		result := tx.Where("created_by = ? AND end_time > ?", userID, now).First(&active)
		if result.Error == nil {
			return ErrActiveAuctionExists
		}
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return fmt.Errorf("[%s] fail to check active auctions, err=%w", op, result.Error)
		}

		var stored StoredImage
		if len(params.Image) > 0 {
			uploaded, err := e.images.Upload(ctx, params.Image, FolderAuctionPhotos)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrUploadFailed, err)
			}
			stored = uploaded
		}
		auction = models.Auction{
			Title:         params.Title,
			Description:   params.Description,
			Category:      params.Category,
			Condition:     params.Condition,
			StartingBid:   params.StartingBid,
			CurrentBid:    params.StartingBid,
			StartTime:     params.StartTime,
			EndTime:       params.EndTime,
			ImagePublicID: stored.PublicID,
			ImageURL:      stored.URL,
			CreatedBy:     user.ID,
		}
		if result := tx.Create(&auction); result.Error != nil {
			return fmt.Errorf("[%s] fail to create auction, err=%w", op, result.Error)
		}
		return nil
	})
	if err != nil {
		return models.Auction{}, err
	}
	return auction, nil
}

// GetAuction returns an auction with its bid history, newest bid first.
func (e *Engine) GetAuction(ctx context.Context, auctionID uuid.UUID) (models.Auction, error) {
	const op = "GetAuction"
	var auction models.Auction
	result := e.db.WithContext(ctx).
		Preload("BidRecords", func(db *gorm.DB) *gorm.DB {
			return db.Order(clause.OrderByColumn{Column: clause.Column{Name: "created_at"}, Desc: true})
		}).
		First(&auction, "id = ?", auctionID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return models.Auction{}, ErrAuctionNotFound
		}
		return models.Auction{}, fmt.Errorf("[%s] fail to find auction, err=%w", op, result.Error)
	}
	return auction, nil
}

// ListAuctions returns all auctions, newest listing first.
func (e *Engine) ListAuctions(ctx context.Context) ([]models.Auction, error) {
	const op = "ListAuctions"
	var auctions []models.Auction
	if result := e.db.WithContext(ctx).Order("created_at DESC").Find(&auctions); result.Error != nil {
		return nil, fmt.Errorf("[%s] fail to list auctions, err=%w", op, result.Error)
	}
	return auctions, nil
}

// DeleteAuction removes an auction together with its bids and payment
// proofs in one transaction. Only the creator or a super admin may delete.
// The stored image is removed best-effort after the transaction commits.
func (e *Engine) DeleteAuction(ctx context.Context, requesterID, auctionID uuid.UUID) error {
	const op = "DeleteAuction"
	var imagePublicID string
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var auction models.Auction
		if result := tx.First(&auction, "id = ?", auctionID); result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return ErrAuctionNotFound
			}
			return fmt.Errorf("[%s] fail to find auction, err=%w", op, result.Error)
		}
		var requester models.User
		if result := tx.First(&requester, "id = ?", requesterID); result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("[%s] fail to find requester, err=%w", op, result.Error)
		}
		if requester.Role != models.RoleSuperAdmin && auction.CreatedBy != requester.ID {
			return ErrForbidden
		}
		if result := tx.Where("auction_id = ?", auctionID).Delete(&models.Bid{}); result.Error != nil {
			return fmt.Errorf("[%s] fail to delete bids, err=%w", op, result.Error)
		}
		if result := tx.Where("auction_id = ?", auctionID).Delete(&models.PaymentProof{}); result.Error != nil {
			return fmt.Errorf("[%s] fail to delete payment proofs, err=%w", op, result.Error)
		}
		if result := tx.Delete(&auction); result.Error != nil {
			return fmt.Errorf("[%s] fail to delete auction, err=%w", op, result.Error)
		}
		imagePublicID = auction.ImagePublicID
		return nil
	})
	if err != nil {
		return err
	}
	if imagePublicID != "" {
		if err := e.images.Delete(ctx, imagePublicID); err != nil {
			slog.Warn("Fail to delete auction image", slog.String("publicID", imagePublicID), slog.Any("error", err))
		}
	}
	return nil
}

// Leaderboard returns the top spenders, highest first.
func (e *Engine) Leaderboard(ctx context.Context, limit int) ([]models.User, error) {
	const op = "Leaderboard"
	var top []models.User
	result := e.db.WithContext(ctx).
		Order("money_spent DESC").
		Limit(limit).
		Find(&top)
	if result.Error != nil {
		return nil, fmt.Errorf("[%s] fail to fetch leaderboard, err=%w", op, result.Error)
	}
	return top, nil
}
