package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gavel/engine"
	"gavel/models"
)

func TestPlaceBid(t *testing.T) {
	ctx := context.Background()

	t.Run("accepts a bid above the starting bid", func(t *testing.T) {
		env := newTestEnv(t)
		auctioneer := env.createUser(t, "alice", models.RoleAuctioneer, decimal.Zero)
		bidder := env.createUser(t, "bob", models.RoleBidder, decimal.Zero)
		auction := env.createAuction(t, auctioneer.ID, 100, -time.Hour, time.Hour)

		bid, err := env.engine.PlaceBid(ctx, bidder.ID, auction.ID, 150)
		require.NoError(t, err)
		assert.Equal(t, int64(150), bid.Amount)
		assert.Equal(t, "bob", bid.BidderName, "bidder identity is frozen at bid time")
		assert.Equal(t, bidder.ProfileImageURL, bid.BidderImageURL)

		assert.Equal(t, int64(150), env.reloadAuction(t, auction.ID).CurrentBid)
	})

	t.Run("rejects a bid at or below the current maximum", func(t *testing.T) {
		env := newTestEnv(t)
		auctioneer := env.createUser(t, "alice", models.RoleAuctioneer, decimal.Zero)
		bidder := env.createUser(t, "bob", models.RoleBidder, decimal.Zero)
		rival := env.createUser(t, "carol", models.RoleBidder, decimal.Zero)
		auction := env.createAuction(t, auctioneer.ID, 100, -time.Hour, time.Hour)

		_, err := env.engine.PlaceBid(ctx, bidder.ID, auction.ID, 150)
		require.NoError(t, err)

		for _, amount := range []int64{150, 100, 1} {
			_, err = env.engine.PlaceBid(ctx, rival.ID, auction.ID, amount)
			assert.ErrorIs(t, err, engine.ErrBidTooLow)
		}

		// No state change from the rejected bids.
		assert.Equal(t, int64(150), env.reloadAuction(t, auction.ID).CurrentBid)
		var count int64
		require.NoError(t, env.db.Model(&models.Bid{}).Where("auction_id = ?", auction.ID).Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})

	t.Run("rejects a bid equal to the starting bid", func(t *testing.T) {
		env := newTestEnv(t)
		auctioneer := env.createUser(t, "alice", models.RoleAuctioneer, decimal.Zero)
		bidder := env.createUser(t, "bob", models.RoleBidder, decimal.Zero)
		auction := env.createAuction(t, auctioneer.ID, 100, -time.Hour, time.Hour)

		_, err := env.engine.PlaceBid(ctx, bidder.ID, auction.ID, 100)
		assert.ErrorIs(t, err, engine.ErrBidTooLow)
	})

	t.Run("enforces a strictly increasing sequence", func(t *testing.T) {
		env := newTestEnv(t)
		auctioneer := env.createUser(t, "alice", models.RoleAuctioneer, decimal.Zero)
		bidder := env.createUser(t, "bob", models.RoleBidder, decimal.Zero)
		auction := env.createAuction(t, auctioneer.ID, 100, -time.Hour, time.Hour)

		_, err := env.engine.PlaceBid(ctx, bidder.ID, auction.ID, 150)
		require.NoError(t, err)
		_, err = env.engine.PlaceBid(ctx, bidder.ID, auction.ID, 200)
		require.NoError(t, err)
		_, err = env.engine.PlaceBid(ctx, bidder.ID, auction.ID, 175)
		assert.ErrorIs(t, err, engine.ErrBidTooLow)

		assert.Equal(t, int64(200), env.reloadAuction(t, auction.ID).CurrentBid)
	})

	t.Run("rejects bids outside the auction window", func(t *testing.T) {
		env := newTestEnv(t)
		auctioneer := env.createUser(t, "alice", models.RoleAuctioneer, decimal.Zero)
		bidder := env.createUser(t, "bob", models.RoleBidder, decimal.Zero)

		notStarted := env.createAuction(t, auctioneer.ID, 100, time.Hour, 2*time.Hour)
		_, err := env.engine.PlaceBid(ctx, bidder.ID, notStarted.ID, 150)
		assert.ErrorIs(t, err, engine.ErrAuctionNotStarted)

		ended := env.createAuction(t, auctioneer.ID, 100, -2*time.Hour, -time.Hour)
		_, err = env.engine.PlaceBid(ctx, bidder.ID, ended.ID, 150)
		assert.ErrorIs(t, err, engine.ErrAuctionEnded)
	})

	t.Run("reports missing entities", func(t *testing.T) {
		env := newTestEnv(t)
		auctioneer := env.createUser(t, "alice", models.RoleAuctioneer, decimal.Zero)
		auction := env.createAuction(t, auctioneer.ID, 100, -time.Hour, time.Hour)

		_, err := env.engine.PlaceBid(ctx, auctioneer.ID, uuid.Must(uuid.NewV7()), 150)
		assert.ErrorIs(t, err, engine.ErrAuctionNotFound)

		_, err = env.engine.PlaceBid(ctx, uuid.Must(uuid.NewV7()), auction.ID, 150)
		assert.ErrorIs(t, err, engine.ErrUserNotFound)
	})
}

func TestBidsForAuction(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	auctioneer := env.createUser(t, "alice", models.RoleAuctioneer, decimal.Zero)
	bidder := env.createUser(t, "bob", models.RoleBidder, decimal.Zero)
	auction := env.createAuction(t, auctioneer.ID, 100, -time.Hour, time.Hour)
	now := env.clock.Now()
	env.createBid(t, &auction, bidder, 150, now.Add(-30*time.Minute))
	env.createBid(t, &auction, bidder, 200, now.Add(-10*time.Minute))

	bids, err := env.engine.BidsForAuction(ctx, auction.ID)
	require.NoError(t, err)
	require.Len(t, bids, 2)
	assert.Equal(t, int64(200), bids[0].Amount, "newest bid first")
	assert.Equal(t, int64(150), bids[1].Amount)
}
