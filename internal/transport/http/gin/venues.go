package httpgin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kirinyoku/canteen-go/internal/domain"
	"github.com/kirinyoku/canteen-go/internal/service"
)

// @Summary  List venues
// @Tags     venues
// @Produce  json
// @Success  200  {array}  domain.Venue
// @Header   200  {string} ETag "content hash"
// @Router   /venues [get]
func handleListVenues(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		venues, err := svcs.Catalog.ListVenues(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, venues, "private, max-age=30", true)
	}
}

// @Summary  Add venue
// @Tags     admin
// @Security BearerAuth
// @Param    req body  VenueRequest true "payload"
// @Success  201 {object} domain.Venue
// @Failure  400 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "duplicate name"
// @Router   /admin/venues [post]
func handleAddVenue(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req VenueRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		v, err := svcs.Catalog.AddVenue(c.Request.Context(), req.Name)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, v)
	}
}

// @Summary  Get venue
// @Tags     admin
// @Security BearerAuth
// @Param    id  path  int  true  "Venue ID"
// @Success  200 {object} domain.Venue
// @Failure  404 {object} ErrorResponse
// @Router   /admin/venues/{id} [get]
func handleGetVenue(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		v, err := svcs.Catalog.GetVenue(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, v)
	}
}

// @Summary  Count tickets referencing a venue
// @Description Shown before a delete so the admin can pick a policy.
// @Tags     admin
// @Security BearerAuth
// @Param    id  path  int  true  "Venue ID"
// @Success  200 {object} domain.VenueUsage
// @Failure  404 {object} ErrorResponse
// @Router   /admin/venues/{id}/usage [get]
func handleVenueUsage(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		u, err := svcs.Catalog.VenueUsage(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, u)
	}
}

// @Summary  Rename venue
// @Description Renames the venue, then rewrites venue_name on every ticket that
// @Description carried the old name. Tickets that could not be updated are listed
// @Description in failures and flagged with X-Cascade-Partial.
// @Tags     admin
// @Security BearerAuth
// @Param    id  path  int  true  "Venue ID"
// @Param    req body  VenueRequest true "payload"
// @Success  200 {object} domain.RenameResult
// @Failure  400 {object} ErrorResponse
// @Failure  404 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "duplicate name"
// @Router   /admin/venues/{id} [put]
func handleRenameVenue(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req VenueRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		res, err := svcs.Catalog.RenameVenue(c.Request.Context(), id, req.Name)
		if err != nil {
			respondErr(c, err)
			return
		}
		if res.Partial() {
			c.Header("X-Cascade-Partial", "true")
		}
		c.JSON(http.StatusOK, res)
	}
}

// @Summary  Delete venue
// @Description policy=block (default) refuses while tickets reference the venue;
// @Description policy=clear deletes it and clears venue_name on those tickets.
// @Tags     admin
// @Security BearerAuth
// @Param    id      path   int     true   "Venue ID"
// @Param    policy  query  string  false  "block | clear"
// @Success  200 {object} domain.DeleteResult
// @Failure  400 {object} ErrorResponse
// @Failure  404 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "venue in use"
// @Router   /admin/venues/{id} [delete]
func handleDeleteVenue(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		policy := domain.DeletePolicy(c.DefaultQuery("policy", string(domain.DeletePolicyBlock)))

		res, err := svcs.Catalog.DeleteVenue(c.Request.Context(), id, policy)
		if err != nil {
			respondErr(c, err)
			return
		}
		if res.Partial() {
			c.Header("X-Cascade-Partial", "true")
		}
		c.JSON(http.StatusOK, res)
	}
}

// @Summary  Repair orphaned ticket references
// @Description Clears venue_name on tickets naming a venue that does not exist.
// @Tags     admin
// @Security BearerAuth
// @Success  200 {object} domain.RepairReport
// @Router   /admin/venues/repair [post]
func handleRepair(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		rep, err := svcs.Catalog.Repair(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, rep)
	}
}
