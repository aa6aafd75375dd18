package engine_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gavel/engine"
	"gavel/models"
)

// fixedClock pins "now" so window checks are deterministic.
type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (n *fakeNotifier) Send(ctx context.Context, to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (n *fakeNotifier) Sent() []sentMail {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMail(nil), n.sent...)
}

type fakeImageStore struct {
	mu      sync.Mutex
	uploads int
	deleted []string
	err     error
}

func (s *fakeImageStore) Upload(ctx context.Context, content []byte, folder string) (engine.StoredImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return engine.StoredImage{}, s.err
	}
	s.uploads++
	publicID := fmt.Sprintf("%s/test-%d.png", folder, s.uploads)
	return engine.StoredImage{PublicID: publicID, URL: "https://images.test/" + publicID}, nil
}

func (s *fakeImageStore) Delete(ctx context.Context, publicID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.deleted = append(s.deleted, publicID)
	return nil
}

type testEnv struct {
	engine   *engine.Engine
	db       *gorm.DB
	clock    *fixedClock
	notifier *fakeNotifier
	images   *fakeImageStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Auction{},
		&models.Bid{},
		&models.PaymentProof{},
		&models.Commission{},
	))
	clock := &fixedClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	notifier := &fakeNotifier{}
	images := &fakeImageStore{}
	eng := engine.New(db, images, notifier, clock, engine.Config{CommissionRate: 0.05})
	return &testEnv{engine: eng, db: db, clock: clock, notifier: notifier, images: images}
}

func (env *testEnv) createUser(t *testing.T, name string, role models.Role, unpaid decimal.Decimal) models.User {
	t.Helper()
	user := models.User{
		Name:             name,
		Email:            name + "@example.com",
		Role:             role,
		UnpaidCommission: unpaid,
		ProfileImageURL:  "https://images.test/profile_photos/" + name + ".png",
	}
	require.NoError(t, env.db.Create(&user).Error)
	return user
}

// createAuction seeds a listing directly, bypassing the CreateAuction
// guards, with a window relative to the test clock.
func (env *testEnv) createAuction(t *testing.T, createdBy uuid.UUID, startingBid int64, startsIn, endsIn time.Duration) models.Auction {
	t.Helper()
	now := env.clock.Now()
	auction := models.Auction{
		Title:       "Vintage Clock",
		Description: "keeps perfect time",
		Category:    "Antiques",
		Condition:   models.ConditionUsed,
		StartingBid: startingBid,
		CurrentBid:  startingBid,
		StartTime:   now.Add(startsIn),
		EndTime:     now.Add(endsIn),
		CreatedBy:   createdBy,
	}
	require.NoError(t, env.db.Create(&auction).Error)
	return auction
}

// createBid seeds an accepted bid with an explicit timestamp and keeps
// the auction's current_bid consistent with it.
func (env *testEnv) createBid(t *testing.T, auction *models.Auction, user models.User, amount int64, at time.Time) models.Bid {
	t.Helper()
	bid := models.Bid{
		AuctionID:      auction.ID,
		UserID:         user.ID,
		Amount:         amount,
		BidderName:     user.Name,
		BidderImageURL: user.ProfileImageURL,
	}
	bid.CreatedAt = at
	require.NoError(t, env.db.Create(&bid).Error)
	if amount > auction.CurrentBid {
		auction.CurrentBid = amount
		require.NoError(t, env.db.Model(&models.Auction{}).
			Where("id = ?", auction.ID).
			Update("current_bid", amount).Error)
	}
	return bid
}

func (env *testEnv) reloadUser(t *testing.T, id uuid.UUID) models.User {
	t.Helper()
	var user models.User
	require.NoError(t, env.db.First(&user, "id = ?", id).Error)
	return user
}

func (env *testEnv) reloadAuction(t *testing.T, id uuid.UUID) models.Auction {
	t.Helper()
	var auction models.Auction
	require.NoError(t, env.db.First(&auction, "id = ?", id).Error)
	return auction
}

func (env *testEnv) reloadProof(t *testing.T, id uuid.UUID) models.PaymentProof {
	t.Helper()
	var proof models.PaymentProof
	require.NoError(t, env.db.First(&proof, "id = ?", id).Error)
	return proof
}

func (env *testEnv) commissionEntries(t *testing.T, userID uuid.UUID) []models.Commission {
	t.Helper()
	var entries []models.Commission
	require.NoError(t, env.db.Where("user_id = ?", userID).Find(&entries).Error)
	return entries
}
