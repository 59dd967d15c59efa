package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"wecount/internal/handlers"
	appMiddleware "wecount/internal/middleware"
	"wecount/internal/services"
	"wecount/pkg/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	logging.Setup()

	// Initialize Firebase
	credPath := os.Getenv("FIREBASE_CREDENTIALS_PATH")
	if credPath == "" {
		credPath = "./firebase-service-account.json"
	}

	authClient, err := services.InitFirebase(credPath)
	if err != nil {
		slog.Warn("firebase initialization failed, auth endpoints will reject requests", "error", err)
	}

	// Initialize Database
	var db *gorm.DB
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		slog.Error("DATABASE_URL not set")
		os.Exit(1)
	}
	db, err = services.InitDB(databaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := services.AutoMigrate(db); err != nil {
		slog.Error("failed to run database migrations", "error", err)
		os.Exit(1)
	}

	// Redis cache is optional; without it every settlement query recomputes.
	var cache *services.RedisCache
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cache, err = services.NewRedisCache(redisURL)
		if err != nil {
			slog.Warn("redis unavailable, settlement caching disabled", "error", err)
			cache = nil
		}
	}

	settlement := services.NewSettlementService(db, cache, slog.Default())
	midtransService := services.NewMidtransService()
	paymentService := services.NewPaymentService(db, midtransService)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = appMiddleware.CustomErrorHandler

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authClient, db)
	eventHandler := handlers.NewEventHandler(db, cache, settlement)
	expenseHandler := handlers.NewExpenseHandler(db, settlement)
	reimbursementHandler := handlers.NewReimbursementHandler(db, settlement, paymentService, midtransService)
	balanceHandler := handlers.NewBalanceHandler(db, settlement)
	prefHandler := handlers.NewUserPreferenceHandler(db)

	// Public routes
	e.POST("/auth/login", authHandler.HandleLogin)
	e.POST("/auth/logout", authHandler.HandleLogout)
	e.POST("/api/payments/midtrans/callback", reimbursementHandler.MidtransCallback)

	// Protected routes
	api := e.Group("/api")
	api.Use(appMiddleware.RequireAuth(authClient))

	api.GET("/me", authHandler.Me)
	api.GET("/me/notification-preference", prefHandler.GetUserPreference)
	api.PUT("/me/notification-preference", prefHandler.UpdateUserPreference)

	api.POST("/events", eventHandler.CreateEvent)
	api.GET("/events", eventHandler.ListEvents)
	api.GET("/events/:id", eventHandler.GetEvent)
	api.PUT("/events/:id", eventHandler.UpdateEvent)
	api.DELETE("/events/:id", eventHandler.DeleteEvent)
	api.GET("/events/code/:code", eventHandler.GetEventByCode)
	api.POST("/events/join", eventHandler.JoinEvent)
	api.PUT("/participants/:id", eventHandler.RenameParticipant)

	api.POST("/events/:id/expenses", expenseHandler.CreateExpense)
	api.GET("/events/:id/expenses", expenseHandler.ListExpenses)
	api.GET("/events/:id/has-expenses", expenseHandler.HasExpenses)
	api.GET("/expenses/:id", expenseHandler.GetExpense)
	api.PUT("/expenses/:id", expenseHandler.UpdateExpense)
	api.DELETE("/expenses/:id", expenseHandler.DeleteExpense)

	api.POST("/events/:id/reimbursements", reimbursementHandler.CreateReimbursement)
	api.GET("/events/:id/reimbursements", reimbursementHandler.ListReimbursements)
	api.PUT("/reimbursements/:id/status", reimbursementHandler.UpdateStatus)
	api.POST("/reimbursements/:id/pay", reimbursementHandler.InitiatePayment)

	api.GET("/events/:id/balances", balanceHandler.GetEventBalances)
	api.GET("/user-balances", balanceHandler.GetUserBalances)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	slog.Info("server starting", "port", port)
	e.Logger.Fatal(e.Start(":" + port))
}
