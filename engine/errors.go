package engine

import "errors"

// Entity lookups
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrAuctionNotFound = errors.New("auction not found")
	ErrProofNotFound   = errors.New("payment proof not found")
)

// Auction window and lifecycle state
var (
	ErrAuctionNotStarted    = errors.New("auction has not started yet")
	ErrAuctionEnded         = errors.New("auction has already ended")
	ErrAuctionNotEnded      = errors.New("auction has not ended yet")
	ErrAuctionNotClosed     = errors.New("auction has not been closed yet")
	ErrInvalidAuctionWindow = errors.New("invalid auction window")
)

// Validation
var (
	ErrBidTooLow      = errors.New("bid amount too low")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrAmountMismatch = errors.New("amount does not match the computed commission")
	ErrInvalidReview  = errors.New("review status must be Approved or Rejected")
	ErrInvalidRole    = errors.New("invalid user registration")
)

// Role and ownership
var ErrForbidden = errors.New("operation not allowed for this user")

// Conflicts
var (
	ErrUnpaidCommission     = errors.New("unpaid commission outstanding")
	ErrNoUnpaidCommission   = errors.New("no unpaid commission to settle")
	ErrActiveAuctionExists  = errors.New("an active auction already exists")
	ErrProofNotPending      = errors.New("payment proof is not pending")
	ErrAmountExceedsBalance = errors.New("amount exceeds unpaid commission balance")
)

// Upstream collaborators
var ErrUploadFailed = errors.New("image upload failed")
