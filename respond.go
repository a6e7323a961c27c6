package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"budgetd/logging"
	"budgetd/models"
	"budgetd/pkg/apperr"
	"budgetd/pkg/calendar"
	"budgetd/pkg/money"
	"budgetd/report"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type errorBody struct {
	Timestamp time.Time           `json:"timestamp"`
	Status    int                 `json:"status"`
	Error     string              `json:"error"`
	Code      string              `json:"code"`
	Message   string              `json:"message"`
	Path      string              `json:"path"`
	Details   []apperr.FieldIssue `json:"details,omitempty"`
}

const genericErrorMessage = "an unexpected error occurred"

// fail writes the JSON error envelope for err and aborts the chain.
// Server-side failures are logged in full but answered generically.
func fail(c *gin.Context, err error) {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		ae = apperr.Wrap(apperr.Internal, genericErrorMessage, err)
	}
	status := ae.Kind.Status()
	msg := ae.Message
	details := ae.Fields
	if status >= http.StatusInternalServerError {
		logging.FromContext(c.Request.Context()).ErrorContext(c.Request.Context(), "request failed",
			logging.FieldErrorCode, ae.Kind.Code(),
			logging.FieldError, err.Error(),
		)
		msg = genericErrorMessage
		details = nil
	}
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, errorBody{
		Timestamp: time.Now().UTC(),
		Status:    status,
		Error:     http.StatusText(status),
		Code:      ae.Kind.Code(),
		Message:   msg,
		Path:      c.Request.URL.Path,
		Details:   details,
	})
}

// useJSONFieldNames makes validator report fields by their json tag.
func useJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
}

// bindJSON decodes and validates the request body into dst.
func bindJSON(c *gin.Context, dst any) error {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return nil
	}
	verr := apperr.E(apperr.InvalidInput, "request body is invalid")
	var ve validator.ValidationErrors
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &ve):
		for _, fe := range ve {
			verr.WithField(fe.Field(), fieldMessage(fe))
		}
	case errors.As(err, &typeErr):
		verr.WithField(typeErr.Field, "has the wrong type")
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		verr.Message = "request body must be valid JSON"
	case errors.Is(err, calendar.ErrDateFormat):
		verr.WithField("date", calendar.ErrDateFormat.Error())
	}
	verr.Err = err
	return verr
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email address"
	case "min":
		return fe.Field() + " must be at least " + fe.Param() + " characters"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	default:
		return fe.Field() + " is invalid"
	}
}

type userResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{ID: u.ID.String(), Email: u.Email, FullName: u.FullName}
}

type loginResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type budgetResponse struct {
	BudgetID    string    `json:"budgetId"`
	UserID      string    `json:"userId"`
	Month       string    `json:"month"`
	TotalAmount string    `json:"totalAmount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func newBudgetResponse(b *models.Budget) budgetResponse {
	return budgetResponse{
		BudgetID:    b.ID.String(),
		UserID:      b.UserID.String(),
		Month:       b.Month.String(),
		TotalAmount: money.Format(b.Amount),
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

type incomeResponse struct {
	IncomeID  string        `json:"incomeId"`
	UserID    string        `json:"userId"`
	Amount    string        `json:"amount"`
	Source    string        `json:"source"`
	Date      calendar.Date `json:"date"`
	CreatedAt time.Time     `json:"createdAt"`
}

func newIncomeResponse(in *models.Income) incomeResponse {
	return incomeResponse{
		IncomeID:  in.ID.String(),
		UserID:    in.UserID.String(),
		Amount:    money.Format(in.Amount),
		Source:    in.Source,
		Date:      in.Date,
		CreatedAt: in.CreatedAt,
	}
}

func newIncomeList(items []models.Income) []incomeResponse {
	out := make([]incomeResponse, 0, len(items))
	for i := range items {
		out = append(out, newIncomeResponse(&items[i]))
	}
	return out
}

type expenseResponse struct {
	ExpenseID string        `json:"expenseId"`
	UserID    string        `json:"userId"`
	Amount    string        `json:"amount"`
	Category  string        `json:"category"`
	Date      calendar.Date `json:"date"`
	Note      *string       `json:"note"`
	CreatedAt time.Time     `json:"createdAt"`
}

func newExpenseResponse(e *models.Expense) expenseResponse {
	return expenseResponse{
		ExpenseID: e.ID.String(),
		UserID:    e.UserID.String(),
		Amount:    money.Format(e.Amount),
		Category:  e.Category,
		Date:      e.Date,
		Note:      e.Note,
		CreatedAt: e.CreatedAt,
	}
}

func newExpenseList(items []models.Expense) []expenseResponse {
	out := make([]expenseResponse, 0, len(items))
	for i := range items {
		out = append(out, newExpenseResponse(&items[i]))
	}
	return out
}

type summaryResponse struct {
	Month              string            `json:"month"`
	TotalIncome        string            `json:"totalIncome"`
	TotalExpenses      string            `json:"totalExpenses"`
	NetBalance         string            `json:"netBalance"`
	ExpensesByCategory map[string]string `json:"expensesByCategory"`
	GeneratedAt        time.Time         `json:"generatedAt"`
}

func newSummaryResponse(s *report.Summary) summaryResponse {
	byCat := make(map[string]string, len(s.ExpensesByCategory))
	for k, v := range s.ExpensesByCategory {
		byCat[k] = money.Format(v)
	}
	return summaryResponse{
		Month:              s.Month.String(),
		TotalIncome:        money.Format(s.TotalIncome),
		TotalExpenses:      money.Format(s.TotalExpenses),
		NetBalance:         money.Format(s.NetBalance),
		ExpensesByCategory: byCat,
		GeneratedAt:        s.GeneratedAt,
	}
}
