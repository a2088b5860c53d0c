package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/vkarev/bank-core/internal/middleware"
	"github.com/vkarev/bank-core/internal/models"
	"github.com/vkarev/bank-core/internal/service"
)

type Handler struct {
	svc *service.Service
	log *logrus.Logger
}

func NewHandler(svc *service.Service, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// writeJSON writes a JSON response with the given status.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Errorf("Failed to encode response: %v", err)
	}
}

// writeError maps domain errors onto HTTP statuses. Infrastructure errors
// come out as a plain 500 without leaking internals.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal error"
	switch {
	case errors.Is(err, models.ErrInvalidAmount), errors.Is(err, models.ErrSameAccount):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, models.ErrAccountNotFound), errors.Is(err, models.ErrNotFound):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, models.ErrInsufficientFunds), errors.Is(err, models.ErrInvalidState):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, models.ErrInvalidPIN):
		status, message = http.StatusForbidden, err.Error()
	default:
		h.log.Errorf("Request failed: %v", err)
	}
	h.writeJSON(w, status, map[string]string{"error": message})
}

// authedUser extracts the authenticated user id set by the auth middleware.
func (h *Handler) authedUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	}
	return id, ok
}

func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, models.ErrInvalidAmount
	}
	return amount, nil
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Phone     string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		http.Error(w, "email and password are required", http.StatusBadRequest)
		return
	}

	user, account, pin, err := h.svc.Register(r.Context(), req.Email, req.Password, req.FirstName, req.LastName, req.Phone)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]any{
		"user":    user,
		"account": account,
		"pin":     pin, // shown once at registration
	})
}

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// GetAccount returns the caller's account.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authedUser(w, r)
	if !ok {
		return
	}
	account, err := h.svc.GetAccount(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, account)
}

// Deposit credits the caller's account and returns the receipt.
func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authedUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Amount      string `json:"amount"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if req.Description == "" {
		req.Description = "Deposit"
	}

	receipt, err := h.svc.DepositToOwn(r.Context(), userID, amount, req.Description)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, receipt)
}

// Withdraw debits the caller's account and returns the receipt.
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authedUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Amount      string `json:"amount"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if req.Description == "" {
		req.Description = "Withdrawal"
	}

	receipt, err := h.svc.WithdrawFromOwn(r.Context(), userID, amount, req.Description)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, receipt)
}

// Transfer moves money to another account by account number and returns the
// receipt.
func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authedUser(w, r)
	if !ok {
		return
	}
	var req struct {
		RecipientAccountNumber string `json:"recipient_account_number"`
		Amount                 string `json:"amount"`
		Description            string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if req.Description == "" {
		req.Description = "Transfer"
	}

	receipt, err := h.svc.TransferToNumber(r.Context(), userID, req.RecipientAccountNumber, amount, req.Description)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, receipt)
}

// ListTransactions returns the caller's recent transactions.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authedUser(w, r)
	if !ok {
		return
	}
	transactions, err := h.svc.ListRecentTransactions(r.Context(), userID, 50)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, transactions)
}

// ListReceipts returns the caller's receipts.
func (h *Handler) ListReceipts(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authedUser(w, r)
	if !ok {
		return
	}
	receipts, err := h.svc.ListReceipts(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, receipts)
}

// GetReceipt returns one of the caller's receipts.
func (h *Handler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authedUser(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid receipt id", http.StatusBadRequest)
		return
	}
	receipt, err := h.svc.GetReceipt(r.Context(), id, userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, receipt)
}

// ApplyForCard files a debit card application for the caller.
func (h *Handler) ApplyForCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authedUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Purpose string `json:"purpose"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	app, err := h.svc.ApplyForCard(r.Context(), userID, req.Purpose)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, app)
}

// PayCardFee pays the issuance fee and activates the caller's card.
func (h *Handler) PayCardFee(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authedUser(w, r)
	if !ok {
		return
	}
	card, err := h.svc.PayCardFee(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, card)
}

// GetDebitCard returns the caller's card.
func (h *Handler) GetDebitCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authedUser(w, r)
	if !ok {
		return
	}
	card, err := h.svc.GetDebitCard(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, card)
}

// ApplyForLoan files a loan application for the caller.
func (h *Handler) ApplyForLoan(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authedUser(w, r)
	if !ok {
		return
	}
	var req struct {
		LoanType         string `json:"loan_type"`
		Amount           string `json:"amount"`
		InterestRate     string `json:"interest_rate"`
		TermMonths       int    `json:"term_months"`
		Purpose          string `json:"purpose"`
		EmploymentStatus string `json:"employment_status"`
		AnnualIncome     string `json:"annual_income"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var rate *decimal.Decimal
	if req.InterestRate != "" {
		parsed, err := decimal.NewFromString(req.InterestRate)
		if err != nil {
			h.writeError(w, models.ErrInvalidAmount)
			return
		}
		rate = &parsed
	}
	var income *decimal.Decimal
	if req.AnnualIncome != "" {
		parsed, err := decimal.NewFromString(req.AnnualIncome)
		if err != nil {
			h.writeError(w, models.ErrInvalidAmount)
			return
		}
		income = &parsed
	}

	loan, err := h.svc.ApplyForLoan(r.Context(), userID, req.LoanType, amount, rate, req.TermMonths, req.Purpose, req.EmploymentStatus, income)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, loan)
}

// GetLoan returns one of the caller's loans.
func (h *Handler) GetLoan(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authedUser(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid loan id", http.StatusBadRequest)
		return
	}
	loan, err := h.svc.GetLoan(r.Context(), id, userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, loan)
}

// PayBill pays a bill from the caller's account.
func (h *Handler) PayBill(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authedUser(w, r)
	if !ok {
		return
	}
	var req struct {
		PIN             string `json:"pin"`
		BillType        string `json:"bill_type"`
		ProviderName    string `json:"provider_name"`
		ProviderAccount string `json:"provider_account"`
		Amount          string `json:"amount"`
		DueDate         string `json:"due_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var dueDate time.Time
	if req.DueDate != "" {
		dueDate, err = time.Parse("2006-01-02", req.DueDate)
		if err != nil {
			http.Error(w, "Invalid due date", http.StatusBadRequest)
			return
		}
	}

	payment, err := h.svc.PayBill(r.Context(), userID, req.PIN, req.BillType, req.ProviderName, req.ProviderAccount, amount, dueDate)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, payment)
}

// RequestStatement records a statement request for the caller.
func (h *Handler) RequestStatement(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authedUser(w, r)
	if !ok {
		return
	}
	var req struct {
		StartDate  string `json:"start_date"`
		EndDate    string `json:"end_date"`
		FormatType string `json:"format_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		http.Error(w, "Invalid start date", http.StatusBadRequest)
		return
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		http.Error(w, "Invalid end date", http.StatusBadRequest)
		return
	}
	if req.FormatType == "" {
		req.FormatType = models.StatementFormatPDF
	}

	statement, err := h.svc.RequestStatement(r.Context(), userID, start, end, req.FormatType)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, statement)
}

// ListBillPayments returns the caller's bill payments.
func (h *Handler) ListBillPayments(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authedUser(w, r)
	if !ok {
		return
	}
	payments, err := h.svc.ListBillPayments(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, payments)
}

// ListStatements returns the caller's statement requests.
func (h *Handler) ListStatements(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authedUser(w, r)
	if !ok {
		return
	}
	statements, err := h.svc.ListStatements(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, statements)
}

// RequestProfileUpdate stages a profile change for the caller.
func (h *Handler) RequestProfileUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authedUser(w, r)
	if !ok {
		return
	}
	var req struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Phone     string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	update, err := h.svc.RequestProfileUpdate(r.Context(), userID, req.FirstName, req.LastName, req.Phone)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, update)
}

// ListNotifications returns the caller's notifications.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authedUser(w, r)
	if !ok {
		return
	}
	notifications, err := h.svc.ListNotifications(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, notifications)
}

// MarkNotificationRead marks one of the caller's notifications as read.
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authedUser(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid notification id", http.StatusBadRequest)
		return
	}
	if err := h.svc.MarkNotificationRead(r.Context(), id, userID); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
