package httpgin

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/kirinyoku/canteen-go/internal/domain"
	"github.com/kirinyoku/canteen-go/internal/service"
	"github.com/kirinyoku/canteen-go/internal/service/catalog"
	"github.com/kirinyoku/canteen-go/internal/service/employees"
	"github.com/kirinyoku/canteen-go/internal/service/tickets"
)

// IdempotencyStore replays the saved response of a repeated request.
type IdempotencyStore interface {
	AcquireLock(ctx context.Context, key string, lockTTL time.Duration) (bool, error)
	SaveResult(ctx context.Context, key string, jsonPayload string) error
	GetResult(ctx context.Context, key string) (string, bool, error)
	Release(ctx context.Context, key string) error
}

// Options are the optional pieces of the router. Nil Idempotency disables
// Idempotency-Key handling; nil LoginLimiter disables login rate limiting.
type Options struct {
	Tokens       TokenParser
	Idempotency  IdempotencyStore
	LoginLimiter Limiter
}

func NewRouter(
	svcs *service.Services,
	opts Options,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public API
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", handleRegister(svcs))
		if opts.LoginLimiter != nil {
			authGroup.POST("/login", RateLimit(opts.LoginLimiter, logger), handleLogin(svcs))
		} else {
			authGroup.POST("/login", handleLogin(svcs))
		}
	}

	r.GET("/venues", handleListVenues(svcs))

	// Employee API
	me := r.Group("/me", JWTAuth(opts.Tokens))
	{
		me.GET("", handleMe(svcs))
		me.GET("/tickets", handleListOwnTickets(svcs))
		me.POST("/tickets", handleCreateOwnTicket(svcs, opts.Idempotency))
		me.PATCH("/tickets/:id", handleUpdateOwnTicket(svcs))
		me.DELETE("/tickets/:id", handleDeleteOwnTicket(svcs))
	}

	// Admin API
	admin := r.Group("/admin", JWTAuth(opts.Tokens), RequireRole(domain.RoleAdmin))
	{
		admin.GET("/venues", handleListVenues(svcs))
		admin.POST("/venues", handleAddVenue(svcs))
		admin.POST("/venues/repair", handleRepair(svcs))
		admin.GET("/venues/:id", handleGetVenue(svcs))
		admin.GET("/venues/:id/usage", handleVenueUsage(svcs))
		admin.PUT("/venues/:id", handleRenameVenue(svcs))
		admin.DELETE("/venues/:id", handleDeleteVenue(svcs))

		admin.GET("/tickets", handleListTickets(svcs))
		admin.POST("/tickets", handleCreateTicket(svcs))
		admin.GET("/tickets/:id", handleGetTicket(svcs))
		admin.PATCH("/tickets/:id", handleUpdateTicket(svcs))
		admin.DELETE("/tickets/:id", handleDeleteTicket(svcs))

		admin.GET("/employees", handleListEmployees(svcs))
		admin.GET("/employees/:id", handleGetEmployee(svcs))
		admin.PUT("/employees/:id", handleUpdateEmployee(svcs))
		admin.DELETE("/employees/:id", handleDeleteEmployee(svcs))
		admin.GET("/employees/:id/tickets", handleListEmployeeTickets(svcs))
	}

	return r
}

// --- Helpers ---

func parseInt64Param(c *gin.Context, name string) (int64, bool) {
	s := c.Param(name)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

func currentEmployee(c *gin.Context) int64 {
	return c.GetInt64(ctxEmployeeID)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, Code: "validation_error"})
}

type errorKind struct {
	target error
	status int
	code   string
}

// errorKinds is checked in order; the first match wins.
var errorKinds = []errorKind{
	// validation
	{catalog.ErrEmptyName, http.StatusBadRequest, "validation_error"},
	{catalog.ErrNameTooLong, http.StatusBadRequest, "validation_error"},
	{catalog.ErrInvalidPolicy, http.StatusBadRequest, "validation_error"},
	{tickets.ErrInvalidTicket, http.StatusBadRequest, "validation_error"},
	{tickets.ErrEmptyPatch, http.StatusBadRequest, "validation_error"},
	{tickets.ErrUnknownVenue, http.StatusBadRequest, "unknown_venue"},
	{employees.ErrInvalidEmployee, http.StatusBadRequest, "validation_error"},
	// not found
	{catalog.ErrVenueNotFound, http.StatusNotFound, "venue_not_found"},
	{tickets.ErrTicketNotFound, http.StatusNotFound, "ticket_not_found"},
	{tickets.ErrEmployeeNotFound, http.StatusNotFound, "employee_not_found"},
	{employees.ErrEmployeeNotFound, http.StatusNotFound, "employee_not_found"},
	// conflicts
	{catalog.ErrDuplicateName, http.StatusConflict, "duplicate_name"},
	{catalog.ErrVenueInUse, http.StatusConflict, "venue_in_use"},
	{employees.ErrEmployeeExists, http.StatusConflict, "employee_exists"},
	{employees.ErrEmailTaken, http.StatusConflict, "email_taken"},
	{employees.ErrLoginTaken, http.StatusConflict, "login_taken"},
	// auth
	{employees.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{tickets.ErrForbidden, http.StatusForbidden, "forbidden"},
	// availability
	{catalog.ErrLockNotAcquired, http.StatusServiceUnavailable, "catalog_busy"},
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	for _, k := range errorKinds {
		if !errors.Is(err, k.target) {
			continue
		}

		resp := ErrorResponse{Error: publicMessage(err, k.target), Code: k.code}

		var inUse *catalog.VenueInUseError
		if errors.As(err, &inUse) {
			resp.ReferencingTickets = &inUse.Count
		}
		if k.status == http.StatusServiceUnavailable {
			c.Header("Retry-After", "1")
		}

		c.JSON(k.status, resp)
		return
	}

	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: "internal"})
}

// publicMessage drops the operation prefixes in front of the sentinel text
// but keeps any detail that follows it.
func publicMessage(err, target error) string {
	if inUse := (*catalog.VenueInUseError)(nil); errors.As(err, &inUse) {
		return inUse.Error()
	}

	msg := err.Error()
	if i := strings.Index(msg, target.Error()); i >= 0 {
		return msg[i:]
	}
	return target.Error()
}
