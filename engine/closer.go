package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"gavel/models"
)

// closeOutcome is what a single auction close produced, carried out of the
// transaction so notifications can go out after commit.
type closeOutcome struct {
	auction    models.Auction
	winningBid *models.Bid
	commission decimal.Decimal
}

// CloseEndedAuctions is the close sweep body. It selects every ended,
// unprocessed auction and settles each in its own transaction, so one
// auction's failure never aborts the others. Re-running the sweep against
// an already-closed auction is a no-op: the commission_calculated flag is
// the sole gate, re-checked by a conditional update inside the
// transaction.
func (e *Engine) CloseEndedAuctions(ctx context.Context) error {
	const op = "CloseEndedAuctions"
	logger := slog.Default().With(slog.String("caller", "AuctionCloser"))

	var ended []models.Auction
	result := e.db.WithContext(ctx).
		Where("end_time < ? AND commission_calculated = ?", e.clock.Now(), false).
		Find(&ended)
	if result.Error != nil {
		return fmt.Errorf("[%s] fail to select ended auctions, err=%w", op, result.Error)
	}
	if len(ended) > 0 {
		logger.Info("Found ended auctions to close", slog.Int("count", len(ended)))
	}

	for i := range ended {
		outcome, err := e.closeAuction(ctx, ended[i])
		if err != nil {
			logger.Error("Fail to close auction",
				slog.String("auctionID", ended[i].ID.String()),
				slog.Any("error", err))
			continue
		}
		if outcome == nil {
			// Another sweep claimed it between selection and the
			// transaction.
			logger.Info("Auction already closed, skipping", slog.String("auctionID", ended[i].ID.String()))
			continue
		}
		e.notifyClosed(ctx, logger, outcome)
	}
	return nil
}

// closeAuction settles one ended auction atomically. The conditional flag
// update claims the auction first: under a concurrent sweep, exactly one
// transaction sees RowsAffected == 1 and performs the balance updates, in
// the same atomic unit as the flag, so a crash can never leave balances
// credited without the flag set.
func (e *Engine) closeAuction(ctx context.Context, auction models.Auction) (*closeOutcome, error) {
	const op = "closeAuction"
	var outcome *closeOutcome
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claim := tx.Model(&models.Auction{}).
			Where("id = ? AND commission_calculated = ?", auction.ID, false).
			Update("commission_calculated", true)
		if claim.Error != nil {
			return fmt.Errorf("[%s] fail to claim auction, err=%w", op, claim.Error)
		}
		if claim.RowsAffected == 0 {
			return nil
		}

		// Winner: highest amount, earliest bid wins a tie.
		var winning models.Bid
		result := tx.Where("auction_id = ?", auction.ID).
			Order("amount DESC").
			Order("created_at ASC").
			First(&winning)
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			// No bids: the auction closes with no winner and no
			// commission.
			outcome = &closeOutcome{auction: auction}
			return nil
		}
		if result.Error != nil {
			return fmt.Errorf("[%s] fail to find winning bid, err=%w", op, result.Error)
		}

		update := tx.Model(&models.User{}).
			Where("id = ?", winning.UserID).
			Updates(map[string]any{
				"auctions_won": gorm.Expr("auctions_won + ?", 1),
				"money_spent":  gorm.Expr("money_spent + ?", winning.Amount),
			})
		if update.Error != nil {
			return fmt.Errorf("[%s] fail to update winner stats, err=%w", op, update.Error)
		}
		if update.RowsAffected == 0 {
			return fmt.Errorf("[%s] winner missing: %w", op, ErrUserNotFound)
		}

		update = tx.Model(&models.Auction{}).
			Where("id = ?", auction.ID).
			Updates(map[string]any{
				"highest_bidder_id": winning.UserID,
				"current_bid":       winning.Amount,
			})
		if update.Error != nil {
			return fmt.Errorf("[%s] fail to record winner on auction, err=%w", op, update.Error)
		}

		commission := Commission(winning.Amount, e.config.CommissionRate)
		update = tx.Model(&models.User{}).
			Where("id = ?", auction.CreatedBy).
			Update("unpaid_commission", gorm.Expr("unpaid_commission + ?", commission))
		if update.Error != nil {
			return fmt.Errorf("[%s] fail to credit auctioneer commission, err=%w", op, update.Error)
		}
		if update.RowsAffected == 0 {
			return fmt.Errorf("[%s] auctioneer missing: %w", op, ErrUserNotFound)
		}

		outcome = &closeOutcome{auction: auction, winningBid: &winning, commission: commission}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// notifyClosed emails the winner and the auctioneer after the close
// transaction committed. Failures are logged, never retried, and never
// reverse the settlement.
func (e *Engine) notifyClosed(ctx context.Context, logger *slog.Logger, outcome *closeOutcome) {
	if outcome.winningBid == nil {
		return
	}
	var winner, auctioneer models.User
	if result := e.db.WithContext(ctx).First(&winner, "id = ?", outcome.winningBid.UserID); result.Error != nil {
		logger.Warn("Fail to load winner for notification", slog.Any("error", result.Error))
	} else if winner.Email != "" {
		body := fmt.Sprintf(
			"Dear %s,\n\nCongratulations! You won %q with a bid of %d.\n\nBest regards,\nGavel Auction Team",
			winner.Name, outcome.auction.Title, outcome.winningBid.Amount)
		if err := e.notifier.Send(ctx, winner.Email, "You Won The Auction", body); err != nil {
			logger.Warn("Fail to notify winner", slog.String("auctionID", outcome.auction.ID.String()), slog.Any("error", err))
		}
	}
	if result := e.db.WithContext(ctx).First(&auctioneer, "id = ?", outcome.auction.CreatedBy); result.Error != nil {
		logger.Warn("Fail to load auctioneer for notification", slog.Any("error", result.Error))
	} else if auctioneer.Email != "" {
		body := fmt.Sprintf(
			"Dear %s,\n\nYour auction %q closed at %d. A commission of %s is now due.\n\nBest regards,\nGavel Auction Team",
			auctioneer.Name, outcome.auction.Title, outcome.winningBid.Amount, outcome.commission.StringFixed(2))
		if err := e.notifier.Send(ctx, auctioneer.Email, "Your Auction Has Closed", body); err != nil {
			logger.Warn("Fail to notify auctioneer", slog.String("auctionID", outcome.auction.ID.String()), slog.Any("error", err))
		}
	}
}
