package httpgin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kirinyoku/canteen-go/internal/service"
	"github.com/kirinyoku/canteen-go/internal/service/employees"
)

// @Summary  Register employee
// @Tags     auth
// @Param    req body  RegisterRequest true "payload"
// @Success  201 {object} domain.Employee
// @Failure  400 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse
// @Router   /auth/register [post]
func handleRegister(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		e, err := svcs.Employees.Register(c.Request.Context(), employees.RegisterInput{
			ID:       req.ID,
			Login:    req.Login,
			FullName: req.FullName,
			Email:    req.Email,
			Address:  req.Address,
			Password: req.Password,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, e)
	}
}

// @Summary  Log in
// @Tags     auth
// @Param    req body  LoginRequest true "login or e-mail and password"
// @Success  200 {object} employees.Session
// @Failure  401 {object} ErrorResponse
// @Failure  429 {object} ErrorResponse "rate limited"
// @Router   /auth/login [post]
func handleLogin(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		sess, err := svcs.Employees.Login(c.Request.Context(), req.Login, req.Password)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, sess)
	}
}

// @Summary  Current employee
// @Tags     me
// @Security BearerAuth
// @Success  200 {object} domain.Employee
// @Router   /me [get]
func handleMe(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		e, err := svcs.Employees.Get(c.Request.Context(), currentEmployee(c))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, e)
	}
}

// @Summary  List employees
// @Tags     admin
// @Security BearerAuth
// @Success  200 {array} domain.Employee
// @Router   /admin/employees [get]
func handleListEmployees(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svcs.Employees.List(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// @Summary  Get employee
// @Tags     admin
// @Security BearerAuth
// @Param    id  path  int  true  "Employee ID"
// @Success  200 {object} domain.Employee
// @Failure  404 {object} ErrorResponse
// @Router   /admin/employees/{id} [get]
func handleGetEmployee(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		e, err := svcs.Employees.Get(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, e)
	}
}

// @Summary  Update employee
// @Tags     admin
// @Security BearerAuth
// @Param    id  path  int  true  "Employee ID"
// @Param    req body  EmployeeUpdateRequest true "fields to change"
// @Success  200 {object} domain.Employee
// @Failure  400 {object} ErrorResponse
// @Failure  404 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse
// @Router   /admin/employees/{id} [put]
func handleUpdateEmployee(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req EmployeeUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		e, err := svcs.Employees.Update(c.Request.Context(), id, req.input())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, e)
	}
}

// @Summary  Delete employee and their tickets
// @Tags     admin
// @Security BearerAuth
// @Param    id  path  int  true  "Employee ID"
// @Success  204
// @Failure  404 {object} ErrorResponse
// @Router   /admin/employees/{id} [delete]
func handleDeleteEmployee(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		if err := svcs.Employees.Delete(c.Request.Context(), id); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  List an employee's tickets
// @Tags     admin
// @Security BearerAuth
// @Param    id  path  int  true  "Employee ID"
// @Success  200 {array} domain.Ticket
// @Router   /admin/employees/{id}/tickets [get]
func handleListEmployeeTickets(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		list, err := svcs.Tickets.ListByEmployee(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}
