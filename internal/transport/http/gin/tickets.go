package httpgin

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	redisrepo "github.com/kirinyoku/canteen-go/internal/repository/redis"
	"github.com/kirinyoku/canteen-go/internal/service"
)

// @Summary  List own tickets
// @Tags     me
// @Security BearerAuth
// @Success  200 {array} domain.Ticket
// @Router   /me/tickets [get]
func handleListOwnTickets(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svcs.Tickets.ListByEmployee(c.Request.Context(), currentEmployee(c))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// @Summary  Request a ticket (idempotent)
// @Tags     me
// @Security BearerAuth
// @Param    req body  TicketRequest true "payload"
// @Param    Idempotency-Key header string false "replays the first response"
// @Success  201 {object} domain.Ticket
// @Failure  400 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "idempotency key in progress"
// @Router   /me/tickets [post]
func handleCreateOwnTicket(svcs *service.Services, idem IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req TicketRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		employeeID := currentEmployee(c)

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemTicket(employeeID, idemKey)

			if payload, ok, _ := idem.GetResult(c.Request.Context(), idemStorageKey); ok {
				c.Header("Idempotency-Key", idemKey)
				c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
				return
			}

			locked, err := idem.AcquireLock(c.Request.Context(), idemStorageKey, 60*time.Second)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !locked {
				if payload, ok, _ := idem.GetResult(c.Request.Context(), idemStorageKey); ok {
					c.Header("Idempotency-Key", idemKey)
					c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
					return
				}
				c.Header("Retry-After", "1")
				c.JSON(http.StatusConflict, ErrorResponse{
					Error: "idempotency key in progress",
					Code:  "idempotency_in_progress",
				})
				return
			}
		}

		t, err := svcs.Tickets.CreateOwn(c.Request.Context(), employeeID, req.input(employeeID))
		if err != nil {
			if idemStorageKey != "" {
				_ = idem.Release(c.Request.Context(), idemStorageKey)
			}
			respondErr(c, err)
			return
		}

		if idemStorageKey != "" {
			b, _ := json.Marshal(t)
			_ = idem.SaveResult(c.Request.Context(), idemStorageKey, string(b))
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusCreated, t)
	}
}

// @Summary  Edit own ticket
// @Tags     me
// @Security BearerAuth
// @Param    id  path  int  true  "Ticket ID"
// @Param    req body  TicketPatchRequest true "fields to change"
// @Success  200 {object} domain.Ticket
// @Failure  403 {object} ErrorResponse
// @Failure  404 {object} ErrorResponse
// @Router   /me/tickets/{id} [patch]
func handleUpdateOwnTicket(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req TicketPatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		t, err := svcs.Tickets.UpdateOwn(c.Request.Context(), currentEmployee(c), id, req.patch())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

// @Summary  Delete own ticket
// @Tags     me
// @Security BearerAuth
// @Param    id  path  int  true  "Ticket ID"
// @Success  204
// @Failure  403 {object} ErrorResponse
// @Failure  404 {object} ErrorResponse
// @Router   /me/tickets/{id} [delete]
func handleDeleteOwnTicket(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		if err := svcs.Tickets.DeleteOwn(c.Request.Context(), currentEmployee(c), id); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  List tickets
// @Description With venue set, lists the tickets referencing that venue name.
// @Tags     admin
// @Security BearerAuth
// @Param    venue  query  string  false  "venue name"
// @Success  200 {array} domain.Ticket
// @Router   /admin/tickets [get]
func handleListTickets(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var err error
		var list any
		if venue, ok := c.GetQuery("venue"); ok {
			list, err = svcs.Catalog.ListTicketsByVenue(c.Request.Context(), venue)
		} else {
			list, err = svcs.Tickets.List(c.Request.Context())
		}
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// @Summary  Create a ticket for an employee
// @Tags     admin
// @Security BearerAuth
// @Param    req body  AdminTicketRequest true "payload"
// @Success  201 {object} domain.Ticket
// @Failure  400 {object} ErrorResponse
// @Failure  404 {object} ErrorResponse "employee not found"
// @Router   /admin/tickets [post]
func handleCreateTicket(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AdminTicketRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		t, err := svcs.Tickets.Create(c.Request.Context(), req.input(req.EmployeeID))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, t)
	}
}

// @Summary  Get ticket
// @Tags     admin
// @Security BearerAuth
// @Param    id  path  int  true  "Ticket ID"
// @Success  200 {object} domain.Ticket
// @Failure  404 {object} ErrorResponse
// @Router   /admin/tickets/{id} [get]
func handleGetTicket(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		t, err := svcs.Tickets.Get(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

// @Summary  Edit ticket
// @Tags     admin
// @Security BearerAuth
// @Param    id  path  int  true  "Ticket ID"
// @Param    req body  TicketPatchRequest true "fields to change"
// @Success  200 {object} domain.Ticket
// @Failure  400 {object} ErrorResponse
// @Failure  404 {object} ErrorResponse
// @Router   /admin/tickets/{id} [patch]
func handleUpdateTicket(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req TicketPatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		t, err := svcs.Tickets.Update(c.Request.Context(), id, req.patch())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

// @Summary  Delete ticket
// @Tags     admin
// @Security BearerAuth
// @Param    id  path  int  true  "Ticket ID"
// @Success  204
// @Failure  404 {object} ErrorResponse
// @Router   /admin/tickets/{id} [delete]
func handleDeleteTicket(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		if err := svcs.Tickets.Delete(c.Request.Context(), id); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
