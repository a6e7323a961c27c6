package main

import (
	"context"
	"net/http"
	"time"

	"budgetd/config"
	"budgetd/identity"
	"budgetd/ledger"
	"budgetd/logging"
	"budgetd/models"
	"budgetd/pkg/apperr"
	"budgetd/pkg/calendar"
	"budgetd/report"
	"budgetd/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// server holds the services the HTTP handlers call into.
type server struct {
	cfg      *config.Config
	log      *logging.Logger
	store    store.Store
	identity *identity.Service
	budgets  *ledger.Budgets
	incomes  *ledger.Incomes
	expenses *ledger.Expenses
	reports  *report.Aggregator
	now      func() time.Time
}

// newServer wires the services on top of st. now is the clock used for
// "current month" lookups and report timestamps.
func newServer(cfg *config.Config, log *logging.Logger, st store.Store, now func() time.Time) (*server, error) {
	tokens, err := identity.NewTokens(cfg.SecretKey, cfg.TokenAlgorithm, cfg.TokenLifetime)
	if err != nil {
		return nil, err
	}
	idSvc, err := identity.NewService(st, tokens, identity.Options{BcryptCost: cfg.BcryptCost, Logger: log})
	if err != nil {
		return nil, err
	}
	if now == nil {
		now = time.Now
	}
	opts := ledger.Options{Now: now, Logger: log}
	return &server{
		cfg:      cfg,
		log:      log,
		store:    st,
		identity: idSvc,
		budgets:  ledger.NewBudgets(st, opts),
		incomes:  ledger.NewIncomes(st, opts),
		expenses: ledger.NewExpenses(st, opts),
		reports:  report.NewAggregator(st, now, log),
		now:      now,
	}, nil
}

// handler builds the gin engine with every route mounted.
func (s *server) handler() *gin.Engine {
	useJSONFieldNames()
	r := gin.New()
	setupRoutes(r, s)
	return r
}

func (s *server) rootHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to " + s.cfg.AppName,
		"version": s.cfg.AppVersion,
		"docs":    s.cfg.APIPrefix,
	})
}

func (s *server) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	body := gin.H{"status": "healthy", "service": s.cfg.AppName, "version": s.cfg.AppVersion}
	if err := s.store.Ping(ctx); err != nil {
		logging.FromContext(ctx).WarnContext(ctx, "health check failed", logging.FieldError, err.Error())
		body["status"] = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	c.JSON(http.StatusOK, body)
}

func (s *server) registerHandler(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email,max=255"`
		Password string `json:"password" binding:"required,min=8"`
		FullName string `json:"fullName" binding:"required,min=1,max=255"`
	}
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	user, err := s.identity.Register(c.Request.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, newUserResponse(user))
}

func (s *server) loginHandler(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	sess, err := s.identity.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, loginResponse{
		AccessToken: sess.Token,
		TokenType:   sess.TokenType,
		ExpiresAt:   sess.ExpiresAt,
	})
}

func (s *server) meHandler(c *gin.Context) {
	user, err := s.identity.User(c.Request.Context(), currentIdentity(c).UserID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}

func (s *server) deleteAccountHandler(c *gin.Context) {
	if err := s.identity.DeleteAccount(c.Request.Context(), currentIdentity(c).UserID); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// pathID parses the :id route parameter.
func pathID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperr.E(apperr.InvalidInput, "id must be a valid UUID").WithField("id", "must be a valid UUID")
	}
	return id, nil
}

type createBudgetRequest struct {
	Month  string           `json:"month" binding:"required"`
	Amount *decimal.Decimal `json:"amount" binding:"required"`
}

type updateBudgetRequest struct {
	Amount *decimal.Decimal `json:"amount" binding:"required"`
}

func (s *server) createBudgetHandler(c *gin.Context) {
	var req createBudgetRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	b, err := s.budgets.Create(c.Request.Context(), currentIdentity(c).UserID, req.Month, *req.Amount)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, newBudgetResponse(b))
}

// currentBudgetHandler returns the current month's budget, or ?month=YYYY-MM when given.
func (s *server) currentBudgetHandler(c *gin.Context) {
	var (
		b   *models.Budget
		err error
	)
	userID := currentIdentity(c).UserID
	if month := c.Query("month"); month != "" {
		b, err = s.budgets.ForMonth(c.Request.Context(), userID, month)
	} else {
		b, err = s.budgets.CurrentMonth(c.Request.Context(), userID)
	}
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newBudgetResponse(b))
}

func (s *server) getBudgetHandler(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		fail(c, err)
		return
	}
	b, err := s.budgets.Get(c.Request.Context(), currentIdentity(c).UserID, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newBudgetResponse(b))
}

func (s *server) updateBudgetHandler(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		fail(c, err)
		return
	}
	var req updateBudgetRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	b, err := s.budgets.UpdateAmount(c.Request.Context(), currentIdentity(c).UserID, id, *req.Amount)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newBudgetResponse(b))
}

func (s *server) deleteBudgetHandler(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		fail(c, err)
		return
	}
	if err := s.budgets.Delete(c.Request.Context(), currentIdentity(c).UserID, id); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type createIncomeRequest struct {
	Amount *decimal.Decimal `json:"amount" binding:"required"`
	Source string           `json:"source" binding:"required"`
	Date   *calendar.Date   `json:"date" binding:"required"`
}

func (s *server) createIncomeHandler(c *gin.Context) {
	var req createIncomeRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	in, err := s.incomes.Create(c.Request.Context(), currentIdentity(c).UserID, *req.Amount, req.Source, *req.Date)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, newIncomeResponse(in))
}

// currentIncomesHandler lists the current month, or ?month=YYYY-MM when given.
func (s *server) currentIncomesHandler(c *gin.Context) {
	var (
		items []models.Income
		err   error
	)
	userID := currentIdentity(c).UserID
	if month := c.Query("month"); month != "" {
		items, err = s.incomes.ListMonth(c.Request.Context(), userID, month)
	} else {
		items, err = s.incomes.CurrentMonth(c.Request.Context(), userID)
	}
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newIncomeList(items))
}

func (s *server) getIncomeHandler(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		fail(c, err)
		return
	}
	in, err := s.incomes.Get(c.Request.Context(), currentIdentity(c).UserID, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newIncomeResponse(in))
}

func (s *server) deleteIncomeHandler(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		fail(c, err)
		return
	}
	if err := s.incomes.Delete(c.Request.Context(), currentIdentity(c).UserID, id); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type createExpenseRequest struct {
	Amount   *decimal.Decimal `json:"amount" binding:"required"`
	Category string           `json:"category" binding:"required"`
	Date     *calendar.Date   `json:"date" binding:"required"`
	Note     *string          `json:"note"`
}

func (s *server) createExpenseHandler(c *gin.Context) {
	var req createExpenseRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	e, err := s.expenses.Create(c.Request.Context(), currentIdentity(c).UserID, *req.Amount, req.Category, *req.Date, req.Note)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, newExpenseResponse(e))
}

func (s *server) currentExpensesHandler(c *gin.Context) {
	var (
		items []models.Expense
		err   error
	)
	userID := currentIdentity(c).UserID
	if month := c.Query("month"); month != "" {
		items, err = s.expenses.ListMonth(c.Request.Context(), userID, month)
	} else {
		items, err = s.expenses.CurrentMonth(c.Request.Context(), userID)
	}
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newExpenseList(items))
}

func (s *server) getExpenseHandler(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		fail(c, err)
		return
	}
	e, err := s.expenses.Get(c.Request.Context(), currentIdentity(c).UserID, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newExpenseResponse(e))
}

func (s *server) deleteExpenseHandler(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		fail(c, err)
		return
	}
	if err := s.expenses.Delete(c.Request.Context(), currentIdentity(c).UserID, id); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// summaryHandler reports on ?month=YYYY-MM, defaulting to the current month.
func (s *server) summaryHandler(c *gin.Context) {
	month := c.Query("month")
	if month == "" {
		month = calendar.MonthOf(s.now()).String()
	}
	sum, err := s.reports.Summarize(c.Request.Context(), currentIdentity(c).UserID, month)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newSummaryResponse(sum))
}
