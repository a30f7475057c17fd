package handlers

import (
	"net/http"
	"time"

	"prediction-venue/internal/auth"
	"prediction-venue/internal/events"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Router bundles what the HTTP surface needs
type Router struct {
	Auth    *AuthHandler
	Markets *MarketHandler
	Trading *TradingHandler
	AMM     *AMMHandler
	Token   *TokenHandler
	Admin   *AdminHandler
	Hub     *events.Hub

	Operator       string
	AllowedOrigins []string
	Log            *zap.Logger
}

// Engine builds the gin engine with every route registered
func (r *Router) Engine() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(r.Log))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     r.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	if r.Hub != nil {
		router.GET("/ws/events", gin.WrapF(r.Hub.HandleWS))
	}

	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/wallet", r.Auth.WalletLogin)
		authRoutes.POST("/logout", r.Auth.Logout)
		authRoutes.GET("/me", auth.AuthMiddleware(r.Log), r.Auth.GetMe)
	}

	// Public reads
	router.GET("/api/markets", r.Markets.GetMarkets)
	router.GET("/api/markets/:id", r.Markets.GetMarketByID)
	router.GET("/api/markets/:id/orderbook", r.Markets.GetOrderBook)
	router.GET("/api/markets/:id/matches", r.Markets.GetMatches)
	router.GET("/api/markets/:id/price", r.Markets.GetPrice)
	router.GET("/api/markets/:id/pool", r.AMM.GetPool)
	router.GET("/api/markets/:id/quote", r.AMM.GetTradeQuote)
	router.GET("/api/markets/:id/swaps", r.AMM.GetSwaps)
	router.GET("/api/orders/:id", r.Trading.GetOrder)
	router.GET("/api/matches/:id", r.Trading.GetMatch)

	api := router.Group("/api")
	api.Use(auth.AuthMiddleware(r.Log))
	{
		api.POST("/orders", r.Trading.PlaceOrder)
		api.GET("/orders", r.Trading.GetUserOrders)
		api.POST("/matches/:id/claim", r.Trading.ClaimWinnings)
		api.POST("/markets/:id/settle", r.Markets.SettleMarket)

		api.POST("/markets/:id/liquidity", r.AMM.AddLiquidity)
		api.POST("/markets/:id/swap", r.AMM.Swap)
		api.GET("/credits", r.AMM.GetCredits)

		api.GET("/token/balance", r.Token.GetBalance)
		api.POST("/token/approve", r.Token.Approve)
		api.GET("/escrow", r.Admin.GetMyEscrow)

		operator := api.Group("")
		operator.Use(auth.OperatorMiddleware(r.Operator))
		{
			operator.POST("/markets", r.Markets.CreateMarket)
			operator.POST("/admin/markets/:id/resolve", r.Admin.ResolveMarket)
			operator.POST("/admin/markets/:id/price", r.Admin.SetPrice)
			operator.GET("/admin/reconcile", r.Admin.Reconcile)
			operator.GET("/admin/escrow", r.Admin.GetEscrowJournal)
			operator.POST("/admin/token/mint", r.Token.Mint)
			operator.GET("/admin/token/diagnostics", r.Token.GetDiagnostics)
		}
	}

	return router
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			log.Error("request failed", append(fields, zap.String("errors", c.Errors.String()))...)
			return
		}
		log.Debug("request", fields...)
	}
}
