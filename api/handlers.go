package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	internalS3 "gavel/adapters/s3"
	"gavel/engine"
	"gavel/models"
)

// MaxImageBytes bounds any single uploaded image.
const MaxImageBytes = 10 << 20

// RegisterRoutes mounts the request surface. Identity arrives as an
// already-verified fact in the X-User-ID header; authentication itself
// happens upstream of this process.
func (s *Server) RegisterRoutes(router *gin.Engine) {
	router.POST("/users", s.postUser)
	router.GET("/users/:userID", s.getUser)
	router.GET("/leaderboard", s.getLeaderboard)

	router.POST("/auction/item", s.postAuctionItem)
	router.GET("/auction/item", s.listAuctionItems)
	router.GET("/auction/item/:itemID", s.getAuctionItem)
	router.DELETE("/auction/item/:itemID", s.deleteAuctionItem)
	router.POST("/auction/item/:itemID/bids", s.postBid)

	router.POST("/payment-proof", s.postPaymentProof)
	router.GET("/payment-proof/mine", s.listOwnPaymentProofs)
	router.PUT("/payment-proof/:proofID/review", s.reviewPaymentProof)
}

func currentUser(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetHeader("X-User-ID"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing or invalid X-User-ID header"})
		return uuid.Nil, false
	}
	return id, true
}

// readImageFile reads an optional multipart image, bounded by
// MaxImageBytes. Returns nil when the field is absent.
func readImageFile(c *gin.Context, field string) ([]byte, bool) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, true
		}
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid multipart form"})
		return nil, false
	}
	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "fail to open uploaded file"})
		return nil, false
	}
	defer file.Close()
	content, err := io.ReadAll(internalS3.NewMaxSizeReader(file, MaxImageBytes))
	if err != nil {
		var limitErr *internalS3.ReachLimitError
		if errors.As(err, &limitErr) {
			c.JSON(http.StatusBadRequest, gin.H{"message": limitErr.Error()})
		} else {
			c.JSON(http.StatusBadRequest, gin.H{"message": "fail to read uploaded file"})
		}
		return nil, false
	}
	return content, true
}

func (s *Server) postUser(c *gin.Context) {
	image, ok := readImageFile(c, "profile-image")
	if !ok {
		return
	}
	user, err := s.engine.CreateUser(c.Request.Context(), engine.CreateUserParams{
		Name:         c.PostForm("name"),
		Email:        c.PostForm("email"),
		Address:      c.PostForm("address"),
		Phone:        c.PostForm("phone"),
		Role:         models.Role(c.PostForm("role")),
		ProfileImage: image,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Location", "/users/"+user.ID.String())
	c.JSON(http.StatusCreated, userResponse(user))
}

func (s *Server) getUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid user ID"})
		return
	}
	user, err := s.engine.GetUser(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, userResponse(user))
}

func (s *Server) getLeaderboard(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid limit"})
		return
	}
	top, err := s.engine.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, lo.Map(top, func(user models.User, _ int) gin.H {
		return gin.H{
			"id":              user.ID,
			"name":            user.Name,
			"profileImageUrl": user.ProfileImageURL,
			"moneySpent":      user.MoneySpent,
		}
	}))
}

func (s *Server) postAuctionItem(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	startTime, err := time.Parse(time.RFC3339, c.PostForm("start-time"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid start-time, use RFC 3339"})
		return
	}
	endTime, err := time.Parse(time.RFC3339, c.PostForm("end-time"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid end-time, use RFC 3339"})
		return
	}
	startingBid, err := strconv.ParseInt(c.DefaultPostForm("starting-bid", "0"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid starting-bid"})
		return
	}
	image, ok := readImageFile(c, "image")
	if !ok {
		return
	}
	auction, err := s.engine.CreateAuction(c.Request.Context(), userID, engine.CreateAuctionParams{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Category:    c.PostForm("category"),
		Condition:   models.Condition(c.DefaultPostForm("condition", string(models.ConditionUsed))),
		StartingBid: startingBid,
		StartTime:   startTime,
		EndTime:     endTime,
		Image:       image,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Location", "/auction/item/"+auction.ID.String())
	c.JSON(http.StatusCreated, auctionResponse(auction))
}

func (s *Server) listAuctionItems(c *gin.Context) {
	auctions, err := s.engine.ListAuctions(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, lo.Map(auctions, func(a models.Auction, _ int) gin.H {
		return auctionResponse(a)
	}))
}

func (s *Server) getAuctionItem(c *gin.Context) {
	id, err := uuid.Parse(c.Param("itemID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid auction ID"})
		return
	}
	auction, err := s.engine.GetAuction(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response := auctionResponse(auction)
	response["bidRecords"] = lo.Map(auction.BidRecords, func(bid models.Bid, _ int) gin.H {
		return gin.H{
			"bid":  bid.Amount,
			"user": bid.BidderName,
			"time": bid.CreatedAt,
		}
	})
	c.JSON(http.StatusOK, response)
}

func (s *Server) deleteAuctionItem(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("itemID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid auction ID"})
		return
	}
	if err := s.engine.DeleteAuction(c.Request.Context(), userID, id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) postBid(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	auctionID, err := uuid.Parse(c.Param("itemID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid auction ID"})
		return
	}
	var body struct {
		Bid int64 `json:"bid" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid bid body"})
		return
	}
	bid, err := s.engine.PlaceBid(c.Request.Context(), userID, auctionID, body.Bid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":   bid.ID,
		"bid":  bid.Amount,
		"user": bid.BidderName,
		"time": bid.CreatedAt,
	})
}

func (s *Server) postPaymentProof(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	auctionID, err := uuid.Parse(c.PostForm("auction-id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid auction-id"})
		return
	}
	amount, err := decimal.NewFromString(c.PostForm("amount"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid amount"})
		return
	}
	image, ok := readImageFile(c, "image")
	if !ok {
		return
	}
	proof, err := s.engine.SubmitProof(c.Request.Context(), userID, auctionID, amount, image, c.PostForm("comment"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, proofResponse(proof))
}

func (s *Server) listOwnPaymentProofs(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	proofs, err := s.engine.ProofsForUser(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, lo.Map(proofs, func(p models.PaymentProof, _ int) gin.H {
		return proofResponse(p)
	}))
}

func (s *Server) reviewPaymentProof(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	proofID, err := uuid.Parse(c.Param("proofID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid proof ID"})
		return
	}
	var body struct {
		Status  string `json:"status" binding:"required"`
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid review body"})
		return
	}
	proof, err := s.engine.ReviewProof(c.Request.Context(), userID, proofID, models.ProofStatus(body.Status), body.Comment)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, proofResponse(proof))
}

func userResponse(user models.User) gin.H {
	return gin.H{
		"id":               user.ID,
		"name":             user.Name,
		"email":            user.Email,
		"role":             user.Role,
		"profileImageUrl":  user.ProfileImageURL,
		"unpaidCommission": user.UnpaidCommission,
		"auctionsWon":      user.AuctionsWon,
		"moneySpent":       user.MoneySpent,
	}
}

func auctionResponse(auction models.Auction) gin.H {
	return gin.H{
		"id":                   auction.ID,
		"title":                auction.Title,
		"description":          auction.Description,
		"category":             auction.Category,
		"condition":            auction.Condition,
		"startingBid":          auction.StartingBid,
		"currentBid":           auction.CurrentBid,
		"startTime":            auction.StartTime,
		"endTime":              auction.EndTime,
		"imageUrl":             auction.ImageURL,
		"createdBy":            auction.CreatedBy,
		"highestBidderId":      auction.HighestBidderID,
		"commissionCalculated": auction.CommissionCalculated,
	}
}

func proofResponse(proof models.PaymentProof) gin.H {
	return gin.H{
		"id":        proof.ID,
		"userId":    proof.UserID,
		"auctionId": proof.AuctionID,
		"imageUrl":  proof.ImageURL,
		"amount":    proof.Amount,
		"status":    proof.Status,
		"comment":   proof.Comment,
		"createdAt": proof.CreatedAt,
	}
}
