package handlers

import (
	"net/http"

	"prediction-venue/internal/auth"
	"prediction-venue/internal/models"
	"prediction-venue/internal/oracle"
	"prediction-venue/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AdminHandler serves operator endpoints and the escrow journal
type AdminHandler struct {
	admin  *services.AdminService
	manual *oracle.Manual
	log    *zap.Logger
}

// NewAdminHandler creates an AdminHandler. manual is nil when an external
// oracle is configured.
func NewAdminHandler(admin *services.AdminService, manual *oracle.Manual, log *zap.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, manual: manual, log: log}
}

// ResolveMarket posts the final outcome to the manual oracle
// POST /api/admin/markets/:id/resolve
func (h *AdminHandler) ResolveMarket(c *gin.Context) {
	if h.manual == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "manual oracle is disabled"})
		return
	}
	var req models.ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	operator, _ := auth.GetWalletAddress(c)
	if err := h.manual.Resolve(c.Request.Context(), c.Param("id"), req.Outcome, operator); err != nil {
		fail(c, err)
		return
	}
	h.log.Info("oracle outcome posted",
		zap.String("market_id", c.Param("id")),
		zap.Stringer("outcome", req.Outcome),
		zap.String("operator", operator))
	ok(c, http.StatusOK, gin.H{
		"market_id": c.Param("id"),
		"outcome":   req.Outcome,
	})
}

// SetPrice posts a price to the manual oracle
// POST /api/admin/markets/:id/price
func (h *AdminHandler) SetPrice(c *gin.Context) {
	if h.manual == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "manual oracle is disabled"})
		return
	}
	var req models.PriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		badRequest(c, "price must be a non-negative number")
		return
	}

	operator, _ := auth.GetWalletAddress(c)
	if err := h.manual.SetPrice(c.Request.Context(), c.Param("id"), price, operator); err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{
		"market_id": c.Param("id"),
		"price":     price,
	})
}

// Reconcile compares escrow held against outstanding obligations
// GET /api/admin/reconcile
func (h *AdminHandler) Reconcile(c *gin.Context) {
	rec, err := h.admin.Reconcile(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{
		"reconciliation": rec,
		"obligations":    rec.Obligations(),
	})
}

// GetEscrowJournal lists any account's escrow entries
// GET /api/admin/escrow?account=
func (h *AdminHandler) GetEscrowJournal(c *gin.Context) {
	limit, _ := paging(c, 100, 500)
	entries, err := h.admin.EscrowJournal(c.Request.Context(), c.Query("account"), limit)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, entries)
}

// GetMyEscrow lists the caller's escrow entries
// GET /api/escrow
func (h *AdminHandler) GetMyEscrow(c *gin.Context) {
	wallet, _ := auth.GetWalletAddress(c)
	limit, _ := paging(c, 100, 500)
	entries, err := h.admin.EscrowJournal(c.Request.Context(), wallet, limit)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, entries)
}
