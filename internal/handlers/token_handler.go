package handlers

import (
	"net/http"

	"prediction-venue/internal/auth"
	"prediction-venue/internal/blockchain"
	"prediction-venue/internal/models"
	"prediction-venue/internal/token"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenHandler exposes the collateral token. Mint and approve only exist for
// the virtual token; on-chain approvals happen in the user's wallet.
type TokenHandler struct {
	collateral token.Token
	virtual    *token.VirtualToken
	spl        *blockchain.SPLToken
	log        *zap.Logger
}

func NewTokenHandler(collateral token.Token, virtual *token.VirtualToken, spl *blockchain.SPLToken, log *zap.Logger) *TokenHandler {
	return &TokenHandler{collateral: collateral, virtual: virtual, spl: spl, log: log}
}

// GetBalance returns the collateral balance of the caller, or of ?account=
// GET /api/token/balance
func (h *TokenHandler) GetBalance(c *gin.Context) {
	account := c.Query("account")
	if account == "" {
		account, _ = auth.GetWalletAddress(c)
	}
	balance, err := h.collateral.BalanceOf(c.Request.Context(), account)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{
		"account": account,
		"balance": balance,
	})
}

// Approve sets how much the venue may pull from the caller
// POST /api/token/approve
func (h *TokenHandler) Approve(c *gin.Context) {
	if h.virtual == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "approve from your wallet for on-chain collateral"})
		return
	}
	wallet, _ := auth.GetWalletAddress(c)

	var req models.ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.virtual.Approve(c.Request.Context(), wallet, h.virtual.Custodian(), req.Amount); err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{
		"owner":     wallet,
		"spender":   h.virtual.Custodian(),
		"allowance": req.Amount,
	})
}

// Mint credits virtual collateral to an account (operator only)
// POST /api/admin/token/mint
func (h *TokenHandler) Mint(c *gin.Context) {
	if h.virtual == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "minting is only available for virtual collateral"})
		return
	}
	var req models.MintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.virtual.Mint(c.Request.Context(), req.Owner, req.Amount); err != nil {
		fail(c, err)
		return
	}
	operator, _ := auth.GetWalletAddress(c)
	h.log.Info("collateral minted",
		zap.String("owner", req.Owner),
		zap.Stringer("amount", req.Amount),
		zap.String("operator", operator))
	ok(c, http.StatusOK, gin.H{"owner": req.Owner, "minted": req.Amount})
}

// GetDiagnostics checks RPC connectivity and the custody balance
// GET /api/admin/token/diagnostics
func (h *TokenHandler) GetDiagnostics(c *gin.Context) {
	if h.spl == nil {
		ok(c, http.StatusOK, gin.H{
			"kind":      "virtual",
			"custodian": h.collateral.Custodian(),
		})
		return
	}
	ok(c, http.StatusOK, h.spl.Diagnose(c.Request.Context()))
}
