package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"gavel/models"
)

// SubmitProof accepts auctioneer-submitted evidence of a commission
// payment. The claimed amount must match the auction's computed commission
// within the fixed tolerance and must not exceed the current unpaid
// balance. On success a Pending proof is inserted; the balance does not
// change until the settlement sweep runs against an approved proof.
func (e *Engine) SubmitProof(ctx context.Context, userID, auctionID uuid.UUID, amount decimal.Decimal, image []byte, comment string) (models.PaymentProof, error) {
	const op = "SubmitProof"
	if !amount.IsPositive() {
		return models.PaymentProof{}, ErrInvalidAmount
	}
	amount = amount.Round(2)
	if len(image) == 0 {
		return models.PaymentProof{}, fmt.Errorf("%w: evidence image is required", ErrInvalidAmount)
	}

	var proof models.PaymentProof
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if result := tx.First(&user, "id = ?", userID); result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("[%s] fail to find user, err=%w", op, result.Error)
		}
		if user.Role != models.RoleAuctioneer {
			return fmt.Errorf("%w: only auctioneers can submit payment proofs", ErrForbidden)
		}
		if !user.UnpaidCommission.IsPositive() {
			return ErrNoUnpaidCommission
		}
		var auction models.Auction
		if result := tx.First(&auction, "id = ?", auctionID); result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return ErrAuctionNotFound
			}
			return fmt.Errorf("[%s] fail to find auction, err=%w", op, result.Error)
		}
		if auction.CreatedBy != user.ID {
			return fmt.Errorf("%w: proof must come from the auction's creator", ErrForbidden)
		}
		if e.clock.Now().Before(auction.EndTime) {
			return ErrAuctionNotEnded
		}
		if !auction.CommissionCalculated || auction.HighestBidderID == nil {
			return ErrAuctionNotClosed
		}
		commission := Commission(auction.CurrentBid, e.config.CommissionRate)
		if amount.Sub(commission).Abs().GreaterThan(amountTolerance) {
			return fmt.Errorf("%w: expected %s", ErrAmountMismatch, commission.StringFixed(2))
		}
		if amount.GreaterThan(user.UnpaidCommission) {
			return fmt.Errorf("%w: balance is %s", ErrAmountExceedsBalance, user.UnpaidCommission.StringFixed(2))
		}

		stored, err := e.images.Upload(ctx, image, FolderPaymentProofs)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUploadFailed, err)
		}
		proof = models.PaymentProof{
			UserID:        user.ID,
			AuctionID:     auction.ID,
			ImagePublicID: stored.PublicID,
			ImageURL:      stored.URL,
			Amount:        amount,
			Status:        models.ProofPending,
			Comment:       comment,
		}
		if result := tx.Create(&proof); result.Error != nil {
			return fmt.Errorf("[%s] fail to create payment proof, err=%w", op, result.Error)
		}
		return nil
	})
	if err != nil {
		return models.PaymentProof{}, err
	}
	return proof, nil
}

// ReviewProof is the administrative Pending → Approved|Rejected
// transition. The amount is immutable here; only status and comment move.
func (e *Engine) ReviewProof(ctx context.Context, reviewerID, proofID uuid.UUID, status models.ProofStatus, comment string) (models.PaymentProof, error) {
	const op = "ReviewProof"
	if status != models.ProofApproved && status != models.ProofRejected {
		return models.PaymentProof{}, ErrInvalidReview
	}
	var proof models.PaymentProof
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reviewer models.User
		if result := tx.First(&reviewer, "id = ?", reviewerID); result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("[%s] fail to find reviewer, err=%w", op, result.Error)
		}
		if reviewer.Role != models.RoleSuperAdmin {
			return fmt.Errorf("%w: only super admins can review payment proofs", ErrForbidden)
		}
		update := tx.Model(&models.PaymentProof{}).
			Where("id = ? AND status = ?", proofID, models.ProofPending).
			Updates(map[string]any{"status": status, "comment": comment})
		if update.Error != nil {
			return fmt.Errorf("[%s] fail to update payment proof, err=%w", op, update.Error)
		}
		if update.RowsAffected == 0 {
			if result := tx.First(&proof, "id = ?", proofID); result.Error != nil {
				if errors.Is(result.Error, gorm.ErrRecordNotFound) {
					return ErrProofNotFound
				}
				return fmt.Errorf("[%s] fail to find payment proof, err=%w", op, result.Error)
			}
			return fmt.Errorf("%w: status is %s", ErrProofNotPending, proof.Status)
		}
		if result := tx.First(&proof, "id = ?", proofID); result.Error != nil {
			return fmt.Errorf("[%s] fail to reload payment proof, err=%w", op, result.Error)
		}
		return nil
	})
	if err != nil {
		return models.PaymentProof{}, err
	}
	return proof, nil
}

// ProofsForUser returns a user's payment proofs, oldest first.
func (e *Engine) ProofsForUser(ctx context.Context, userID uuid.UUID) ([]models.PaymentProof, error) {
	const op = "ProofsForUser"
	var proofs []models.PaymentProof
	result := e.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&proofs)
	if result.Error != nil {
		return nil, fmt.Errorf("[%s] fail to list payment proofs, err=%w", op, result.Error)
	}
	return proofs, nil
}

// settlementResult carries what a settled proof changed, for the
// post-commit notification.
type settlementResult struct {
	user      models.User
	settled   decimal.Decimal
	remaining decimal.Decimal
}

// SettleApprovedProofs is the settlement sweep body. Every approved proof
// is settled in its own transaction; a failure leaves that proof Approved
// for the next sweep and moves on to the next one.
func (e *Engine) SettleApprovedProofs(ctx context.Context) error {
	const op = "SettleApprovedProofs"
	logger := slog.Default().With(slog.String("caller", "ProofSettler"))

	var approved []models.PaymentProof
	result := e.db.WithContext(ctx).
		Where("status = ?", models.ProofApproved).
		Find(&approved)
	if result.Error != nil {
		return fmt.Errorf("[%s] fail to select approved proofs, err=%w", op, result.Error)
	}
	if len(approved) > 0 {
		logger.Info("Found approved payment proofs", slog.Int("count", len(approved)))
	}

	for i := range approved {
		proof := approved[i]
		res, err := e.settleProof(ctx, proof)
		if err != nil {
			logger.Error("Fail to settle payment proof",
				slog.String("proofID", proof.ID.String()),
				slog.String("userID", proof.UserID.String()),
				slog.Any("error", err))
			continue
		}
		if res == nil {
			continue
		}
		logger.Info("Settled payment proof",
			slog.String("proofID", proof.ID.String()),
			slog.String("userID", res.user.ID.String()),
			slog.String("amount", res.settled.StringFixed(2)))
		e.notifySettled(ctx, logger, res)
	}
	return nil
}

// settleProof applies one approved proof atomically: claim the proof
// (Approved → Settled), debit the auctioneer's balance with a floor at
// zero, and append the ledger entry. Any failure rolls the whole proof
// back, leaving it Approved for a retry; both the re-fetch and the debit
// recomputation are idempotent against re-running.
func (e *Engine) settleProof(ctx context.Context, proof models.PaymentProof) (*settlementResult, error) {
	const op = "settleProof"
	var res *settlementResult
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claim := tx.Model(&models.PaymentProof{}).
			Where("id = ? AND status = ?", proof.ID, models.ProofApproved).
			Update("status", models.ProofSettled)
		if claim.Error != nil {
			return fmt.Errorf("[%s] fail to claim proof, err=%w", op, claim.Error)
		}
		if claim.RowsAffected == 0 {
			// Another sweep already settled it.
			return nil
		}

		var user models.User
		if result := tx.First(&user, "id = ?", proof.UserID); result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("[%s] fail to find user, err=%w", op, result.Error)
		}
		if user.Role != models.RoleAuctioneer {
			return fmt.Errorf("%w: user %s is not an auctioneer", ErrForbidden, user.ID)
		}

		// Floor at zero: an intervening credit or a stale amount must
		// never drive the balance negative. The SQL-side recomputation
		// composes with the closer's concurrent credits instead of
		// overwriting them.
		debit := tx.Model(&models.User{}).
			Where("id = ?", user.ID).
			Update("unpaid_commission", gorm.Expr(
				"CASE WHEN unpaid_commission >= ? THEN unpaid_commission - ? ELSE 0 END",
				proof.Amount, proof.Amount))
		if debit.Error != nil {
			return fmt.Errorf("[%s] fail to debit unpaid commission, err=%w", op, debit.Error)
		}

		entry := models.Commission{UserID: user.ID, Amount: proof.Amount}
		if result := tx.Create(&entry); result.Error != nil {
			return fmt.Errorf("[%s] fail to append commission entry, err=%w", op, result.Error)
		}

		remaining := user.UnpaidCommission.Sub(proof.Amount)
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}
		res = &settlementResult{user: user, settled: proof.Amount, remaining: remaining}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// notifySettled emails the auctioneer after a settlement committed.
// Best-effort only.
func (e *Engine) notifySettled(ctx context.Context, logger *slog.Logger, res *settlementResult) {
	if res.user.Email == "" {
		return
	}
	body := fmt.Sprintf(
		"Dear %s,\n\nYour payment has been verified and settled.\n\nAmount Settled: %s\nUnpaid Amount: %s\nDate of Settlement: %s\n\nBest regards,\nGavel Auction Team",
		res.user.Name,
		res.settled.StringFixed(2),
		res.remaining.StringFixed(2),
		e.clock.Now().Format("Jan 02, 2006"))
	if err := e.notifier.Send(ctx, res.user.Email, "Your Payment Has Been Successfully Verified And Settled", body); err != nil {
		logger.Warn("Fail to send settlement notification",
			slog.String("userID", res.user.ID.String()),
			slog.Any("error", err))
	}
}
