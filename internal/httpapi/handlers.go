package httpapi

import (
	"net/http"
	"time"

	"transfers-exchange/internal/apperr"
	"transfers-exchange/internal/auth"
	"transfers-exchange/internal/billing"
	"transfers-exchange/internal/campaign"
	"transfers-exchange/internal/identity"
	"transfers-exchange/internal/notify"
	"transfers-exchange/internal/reporting"
	"transfers-exchange/internal/wallet"
	"transfers-exchange/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Auth          *auth.Manager
	Users         *identity.Service
	Wallet        *wallet.Service
	Campaigns     *campaign.Lifecycle
	Billing       *billing.Service
	Notifications *notify.Sink
	Reports       *reporting.Service
}

// writeErr maps the error taxonomy onto HTTP statuses. Unknown errors are
// logged and returned as opaque 500s.
func writeErr(c *gin.Context, err error) {
	switch {
	case apperr.IsValidation(err):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case apperr.IsNotFound(err):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case apperr.IsConflict(err):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.FromGin(c).Error("request failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// --- Users ---

func (h Handlers) CreateUser(c *gin.Context) {
	var req identity.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	u, err := h.Users.Register(c.Request.Context(), req)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": u.ID})
}

func (h Handlers) ListUsers(c *gin.Context) {
	users, err := h.Users.List(c.Request.Context(), identity.Role(c.Query("role")))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// --- Auth ---

type tokenRequest struct {
	UserID string `json:"user_id"`
}

// IssueToken issues a JWT pair for a known user. The role comes from the
// stored user record, never from the request.
//
// NOTE: credential verification is out of scope; callers are trusted to
// present a valid user id (e.g. behind an upstream identity proxy).
func (h Handlers) IssueToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	u, err := h.Users.Get(c.Request.Context(), req.UserID)
	if err != nil {
		writeErr(c, err)
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), u.ID, string(u.Role))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h Handlers) RefreshToken(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	claims, err := h.Auth.Verify(req.RefreshToken, auth.TokenTypeRefresh, time.Now())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	// Re-read the user so role changes and deactivations take effect here.
	u, err := h.Users.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		writeErr(c, err)
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), u.ID, string(u.Role))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// --- Wallet ---

type topUpRequest struct {
	UserID string          `json:"user_id"`
	Amount decimal.Decimal `json:"amount"`
}

func (h Handlers) TopUp(c *gin.Context) {
	var req topUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	entry, balance, err := h.Wallet.TopUp(c.Request.Context(), req.UserID, req.Amount)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": entry.ID, "balance": balance})
}

func (h Handlers) WalletBalance(c *gin.Context) {
	userID := c.Param("user_id")
	balance, err := h.Wallet.Balance(c.Request.Context(), userID)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "balance": balance})
}

func (h Handlers) WalletHistory(c *gin.Context) {
	entries, err := h.Wallet.History(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// --- Campaigns ---

func (h Handlers) CreateCampaign(c *gin.Context) {
	var req campaign.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	created, err := h.Campaigns.Create(c.Request.Context(), req)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": created.ID})
}

func (h Handlers) ListCampaigns(c *gin.Context) {
	out, err := h.Campaigns.List(c.Request.Context(),
		c.Query("role"),
		c.Query("user_id"),
		campaign.Status(c.Query("status")),
	)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) GetCampaign(c *gin.Context) {
	detail, err := h.Campaigns.Get(c.Request.Context(), c.Param("campaign_id"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

type acceptRequest struct {
	SellerID string                    `json:"seller_id"`
	Status   campaign.AcceptanceStatus `json:"status"`
}

func (h Handlers) AcceptCampaign(c *gin.Context) {
	var req acceptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Status == "" {
		req.Status = campaign.AcceptanceAccepted
	}
	if err := h.Campaigns.Accept(c.Request.Context(), c.Param("campaign_id"), req.SellerID, req.Status); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type transferNumberRequest struct {
	TransferNumber string `json:"transfer_number"`
}

func (h Handlers) SetTransferNumber(c *gin.Context) {
	var req transferNumberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if err := h.Campaigns.SetTransferNumber(c.Request.Context(), c.Param("campaign_id"), req.TransferNumber); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type assignRoutingRequest struct {
	SellerIDs []string `json:"seller_ids"`
	DIDNumber string   `json:"did_number"`
}

func (h Handlers) AssignRouting(c *gin.Context) {
	var req assignRoutingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	status, err := h.Campaigns.AssignRouting(c.Request.Context(), c.Param("campaign_id"), req.SellerIDs, req.DIDNumber)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "status": status})
}

func (h Handlers) ArchiveCampaign(c *gin.Context) {
	if err := h.Campaigns.Archive(c.Request.Context(), c.Param("campaign_id")); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// --- Calls ---

func (h Handlers) LogCall(c *gin.Context) {
	var req billing.LogCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	res, err := h.Billing.LogCall(c.Request.Context(), req)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": res.ID, "billable": res.Billable})
}

func (h Handlers) ListCalls(c *gin.Context) {
	recs, err := h.Billing.ListCalls(c.Request.Context(), billing.Filter{
		CampaignID: c.Query("campaign_id"),
		BuyerID:    c.Query("buyer_id"),
		SellerID:   c.Query("seller_id"),
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

// --- Notifications ---

func (h Handlers) ListNotifications(c *gin.Context) {
	out, err := h.Notifications.List(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) MarkNotificationRead(c *gin.Context) {
	if err := h.Notifications.MarkRead(c.Request.Context(), c.Param("id")); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// --- Reports ---

func (h Handlers) CampaignCallsReport(c *gin.Context) {
	out, err := h.Reports.CallsSummary(c.Request.Context(), c.Param("campaign_id"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) UserSpendReport(c *gin.Context) {
	out, err := h.Reports.SpendSummary(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
