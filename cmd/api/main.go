package main

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/vkarev/bank-core/internal/config"
	"github.com/vkarev/bank-core/internal/handler"
	"github.com/vkarev/bank-core/internal/integrations/centralbank"
	"github.com/vkarev/bank-core/internal/middleware"
	"github.com/vkarev/bank-core/internal/repository"
	"github.com/vkarev/bank-core/internal/scheduler"
	"github.com/vkarev/bank-core/internal/service"
	"github.com/vkarev/bank-core/internal/utils/email"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize layers
	repo := repository.NewRepository(db)
	rates := centralbank.NewClient(cfg, logger)
	svc, err := service.NewService(repo, logger, cfg, rates)
	if err != nil {
		logger.Fatalf("Failed to initialize service: %v", err)
	}
	h := handler.NewHandler(svc, logger)

	// Background jobs and outbound email
	sender := email.NewSender(cfg, logger)
	svc.SetTransactionNotifier(sender)
	sched := scheduler.NewScheduler(svc, sender, logger)
	if err := sched.Start(); err != nil {
		logger.Fatalf("Failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Setup router
	r := mux.NewRouter()
	// Public routes
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")

	// Protected routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg))
	authRouter.HandleFunc("/account", h.GetAccount).Methods("GET")
	authRouter.HandleFunc("/account/deposit", h.Deposit).Methods("POST")
	authRouter.HandleFunc("/account/withdraw", h.Withdraw).Methods("POST")
	authRouter.HandleFunc("/account/transfer", h.Transfer).Methods("POST")
	authRouter.HandleFunc("/transactions", h.ListTransactions).Methods("GET")
	authRouter.HandleFunc("/receipts", h.ListReceipts).Methods("GET")
	authRouter.HandleFunc("/receipts/{id}", h.GetReceipt).Methods("GET")
	authRouter.HandleFunc("/cards/apply", h.ApplyForCard).Methods("POST")
	authRouter.HandleFunc("/cards/pay-fee", h.PayCardFee).Methods("POST")
	authRouter.HandleFunc("/cards", h.GetDebitCard).Methods("GET")
	authRouter.HandleFunc("/loans/apply", h.ApplyForLoan).Methods("POST")
	authRouter.HandleFunc("/loans/{id}", h.GetLoan).Methods("GET")
	authRouter.HandleFunc("/bills/pay", h.PayBill).Methods("POST")
	authRouter.HandleFunc("/bills", h.ListBillPayments).Methods("GET")
	authRouter.HandleFunc("/statements", h.RequestStatement).Methods("POST")
	authRouter.HandleFunc("/statements", h.ListStatements).Methods("GET")
	authRouter.HandleFunc("/profile/update", h.RequestProfileUpdate).Methods("POST")
	authRouter.HandleFunc("/notifications", h.ListNotifications).Methods("GET")
	authRouter.HandleFunc("/notifications/{id}/read", h.MarkNotificationRead).Methods("POST")

	// Review routes
	adminRouter := authRouter.PathPrefix("/admin").Subrouter()
	adminRouter.HandleFunc("/users/{id}/approve", h.ApproveUser).Methods("POST")
	adminRouter.HandleFunc("/card-applications/{id}/approve", h.ApproveCardApplication).Methods("POST")
	adminRouter.HandleFunc("/card-applications/{id}/reject", h.RejectCardApplication).Methods("POST")
	adminRouter.HandleFunc("/loans/{id}/approve", h.ApproveLoan).Methods("POST")
	adminRouter.HandleFunc("/loans/{id}/reject", h.RejectLoan).Methods("POST")
	adminRouter.HandleFunc("/loans/{id}/disburse", h.DisburseLoan).Methods("POST")
	adminRouter.HandleFunc("/profile-updates/{id}/approve", h.ApproveProfileUpdate).Methods("POST")
	adminRouter.HandleFunc("/profile-updates/{id}/reject", h.RejectProfileUpdate).Methods("POST")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}
