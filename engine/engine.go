package engine

import (
	"context"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

// Upload folders on the image store.
const (
	FolderAuctionPhotos = "auction_item_photos"
	FolderPaymentProofs = "payment_proofs"
	FolderProfilePhotos = "profile_photos"
)

// StoredImage identifies an uploaded image on the external store.
type StoredImage struct {
	PublicID string
	URL      string
}

// ImageStore is the external object storage for auction photos and
// payment-proof evidence. Upload failures surface as ErrUploadFailed to
// callers; they are never swallowed.
type ImageStore interface {
	Upload(ctx context.Context, content []byte, folder string) (StoredImage, error)
	Delete(ctx context.Context, publicID string) error
}

// Notifier delivers one-way, fire-and-forget messages. Send failures are
// logged by the caller and never roll back a settlement.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Clock supplies "now" for every window check so tests can pin time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Config carries the immutable settlement parameters supplied at process
// start.
type Config struct {
	// CommissionRate is the fraction of the winning bid owed by the
	// auctioneer. Values outside (0, 1] fall back to DefaultCommissionRate.
	CommissionRate float64
}

// Engine implements the auction lifecycle and commission settlement over
// the relational store. It holds no authoritative state of its own: every
// read used for a decision happens inside the same transaction as the
// write it justifies.
type Engine struct {
	db          *gorm.DB
	images      ImageStore
	notifier    Notifier
	clock       Clock
	htmlChecker *bluemonday.Policy

	config Config
}

func New(db *gorm.DB, images ImageStore, notifier Notifier, clock Clock, config Config) *Engine {
	if clock == nil {
		clock = SystemClock{}
	}
	if config.CommissionRate <= 0 || config.CommissionRate > 1 {
		config.CommissionRate = DefaultCommissionRate
	}
	return &Engine{
		db:          db,
		images:      images,
		notifier:    notifier,
		clock:       clock,
		htmlChecker: bluemonday.UGCPolicy(),
		config:      config,
	}
}
