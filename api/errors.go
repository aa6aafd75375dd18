package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"gavel/engine"
)

// writeError maps the engine's error taxonomy onto HTTP statuses. The
// message carries the specific reason (e.g. which amount a bid must
// exceed).
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrUserNotFound),
		errors.Is(err, engine.ErrAuctionNotFound),
		errors.Is(err, engine.ErrProofNotFound):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrAuctionEnded):
		status = http.StatusGone
	case errors.Is(err, engine.ErrAuctionNotStarted),
		errors.Is(err, engine.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, engine.ErrUnpaidCommission),
		errors.Is(err, engine.ErrNoUnpaidCommission),
		errors.Is(err, engine.ErrActiveAuctionExists),
		errors.Is(err, engine.ErrProofNotPending),
		errors.Is(err, engine.ErrAmountExceedsBalance):
		status = http.StatusConflict
	case errors.Is(err, engine.ErrBidTooLow),
		errors.Is(err, engine.ErrInvalidAmount),
		errors.Is(err, engine.ErrAmountMismatch),
		errors.Is(err, engine.ErrInvalidAuctionWindow),
		errors.Is(err, engine.ErrInvalidReview),
		errors.Is(err, engine.ErrInvalidRole),
		errors.Is(err, engine.ErrAuctionNotEnded),
		errors.Is(err, engine.ErrAuctionNotClosed):
		status = http.StatusBadRequest
	case errors.Is(err, engine.ErrUploadFailed):
		status = http.StatusBadGateway
	default:
		slog.Error("Unhandled error", slog.Any("error", err))
	}
	c.JSON(status, gin.H{"message": err.Error()})
}
