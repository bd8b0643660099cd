// Package http exposes the JointBank REST API over gin.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/jointbank/internal/logging"
	"github.com/dmitrijs2005/jointbank/internal/server/config"
	"github.com/dmitrijs2005/jointbank/internal/server/models"
	"github.com/dmitrijs2005/jointbank/internal/server/services"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

type UserService interface {
	Register(ctx context.Context, email, name, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
}

type AccountService interface {
	CreateAccount(ctx context.Context, userID, name, currency string) (*models.JointAccount, error)
	InviteOwner(ctx context.Context, accountID, actingUserID, inviteeID string) (*models.JointOwner, error)
	ListAccounts(ctx context.Context, userID string) ([]*models.JointAccount, error)
	GetAccount(ctx context.Context, accountID, userID string) (*models.JointAccount, error)
	ListTransactions(ctx context.Context, accountID, userID string, limit, offset int) ([]*models.Transaction, error)
	CreateTransaction(ctx context.Context, accountID, userID string, req services.TransactionRequest) (*models.Transaction, error)
}

type StatementService interface {
	Export(ctx context.Context, accountID, userID string) (*services.StatementLink, error)
}

type Server struct {
	address     string
	logger      logging.Logger
	users       UserService
	accounts    AccountService
	statements  StatementService
	jwtSecret   []byte
	limiter     *RateLimiter
	corsOrigins []string
}

func NewServer(cfg *config.Config, l logging.Logger, us UserService, as AccountService, ss StatementService) *Server {
	return &Server{
		address:     cfg.EndpointAddrHTTP,
		logger:      l.With("module", "http_server"),
		users:       us,
		accounts:    as,
		statements:  ss,
		jwtSecret:   []byte(cfg.SecretKey),
		limiter:     NewRateLimiter(cfg.RateLimitRPM),
		corsOrigins: cfg.CORSAllowedOrigins,
	}
}

// Handler builds the gin engine with middleware and routes.
func (s *Server) Handler() *gin.Engine {
	r := gin.New()
	r.Use(gin.CustomRecovery(s.recovery))
	r.Use(RequestLogger(s.logger))
	if mw := newCORS(s.corsOrigins); mw != nil {
		r.Use(mw)
	}
	r.Use(s.limiter.Handler())

	r.GET("/health", s.health)

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", s.register)
		authGroup.POST("/login", s.login)
		authGroup.POST("/refresh", s.refresh)
		authGroup.GET("/me", s.requireAuth, s.me)
	}

	accounts := r.Group("/accounts", s.requireAuth)
	{
		accounts.POST("", s.createAccount)
		accounts.GET("", s.listAccounts)
		accounts.GET("/:id", s.getAccount)
		accounts.POST("/:id/invite", s.inviteOwner)
		accounts.GET("/:id/transactions", s.listTransactions)
		accounts.POST("/:id/transactions", s.createTransaction)
		accounts.GET("/:id/statement", s.exportStatement)
	}

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) health(c *gin.Context) {
	respondOK(c, http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) recovery(c *gin.Context, recovered any) {
	s.logger.Error(c.Request.Context(), "panic in handler", "panic", recovered, "path", c.Request.URL.Path)
	c.AbortWithStatusJSON(http.StatusInternalServerError, envelope{Success: false, Error: msgInternal})
}
