package main

import (
	"net/http"
	"strings"
	"time"

	"budgetd/identity"
	"budgetd/logging"
	"budgetd/pkg/apperr"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const contextIdentity = "identity"

func setupRoutes(r *gin.Engine, s *server) {
	r.Use(logging.RequestID(s.log), logging.AccessLog(), gin.Recovery())
	r.Use(cors.New(corsConfig(s.cfg.AllowedOrigins)))
	r.NoRoute(func(c *gin.Context) {
		fail(c, apperr.E(apperr.NotFound, "route not found"))
	})

	r.GET("/", s.rootHandler)
	r.GET("/health", s.healthHandler)

	api := r.Group(s.cfg.APIPrefix)
	api.POST("/auth/register", s.registerHandler)
	api.POST("/auth/login", s.loginHandler)

	authGroup := api.Group("")
	authGroup.Use(s.sessionMiddleware())
	authGroup.GET("/auth/me", s.meHandler)
	authGroup.DELETE("/auth/me", s.deleteAccountHandler)

	authGroup.POST("/budgets", s.createBudgetHandler)
	authGroup.GET("/budgets/current-month", s.currentBudgetHandler)
	authGroup.GET("/budgets/:id", s.getBudgetHandler)
	authGroup.PUT("/budgets/:id", s.updateBudgetHandler)
	authGroup.DELETE("/budgets/:id", s.deleteBudgetHandler)

	authGroup.POST("/incomes", s.createIncomeHandler)
	authGroup.GET("/incomes/current-month", s.currentIncomesHandler)
	authGroup.GET("/incomes/:id", s.getIncomeHandler)
	authGroup.DELETE("/incomes/:id", s.deleteIncomeHandler)

	authGroup.POST("/expenses", s.createExpenseHandler)
	authGroup.GET("/expenses/current-month", s.currentExpensesHandler)
	authGroup.GET("/expenses/:id", s.getExpenseHandler)
	authGroup.DELETE("/expenses/:id", s.deleteExpenseHandler)

	authGroup.GET("/reports/summary", s.summaryHandler)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Authorization", "Content-Type", logging.HeaderRequestID},
		ExposeHeaders: []string{logging.HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

// sessionMiddleware resolves the bearer token to an identity and stores it
// on the gin context for the handlers behind it.
func (s *server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		scheme, token, found := strings.Cut(authHeader, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			fail(c, apperr.E(apperr.InvalidToken, "not authenticated"))
			return
		}
		id, err := s.identity.ResolveSession(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			fail(c, err)
			return
		}
		c.Set(contextIdentity, id)
		reqLog := logging.FromContext(c.Request.Context()).With(logging.FieldUserID, id.UserID.String())
		c.Request = c.Request.WithContext(logging.NewContext(c.Request.Context(), reqLog))
		c.Next()
	}
}

// currentIdentity returns the identity set by sessionMiddleware.
func currentIdentity(c *gin.Context) identity.Identity {
	v, _ := c.Get(contextIdentity)
	id, _ := v.(identity.Identity)
	return id
}
