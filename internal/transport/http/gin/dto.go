package httpgin

import (
	"github.com/kirinyoku/canteen-go/internal/domain"
	"github.com/kirinyoku/canteen-go/internal/service/employees"
	"github.com/kirinyoku/canteen-go/internal/service/tickets"
)

type RegisterRequest struct {
	ID       int64  `json:"id" binding:"required,gt=0"`
	Login    string `json:"login" binding:"required"`
	FullName string `json:"full_name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Address  string `json:"address"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	// Login or e-mail address.
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type VenueRequest struct {
	Name string `json:"name" binding:"required"`
}

type TicketRequest struct {
	HolderName string `json:"holder_name" binding:"required"`
	PartySize  int    `json:"party_size" binding:"required"`
	TicketType string `json:"ticket_type" binding:"required"`
	OfferKind  string `json:"offer_kind" binding:"required"`
	VenueName  string `json:"venue_name"`
}

func (r TicketRequest) input(employeeID int64) tickets.Input {
	return tickets.Input{
		EmployeeID: employeeID,
		HolderName: r.HolderName,
		PartySize:  r.PartySize,
		TicketType: domain.TicketType(r.TicketType),
		OfferKind:  domain.OfferKind(r.OfferKind),
		VenueName:  r.VenueName,
	}
}

type AdminTicketRequest struct {
	EmployeeID int64 `json:"employee_id" binding:"required,gt=0"`
	TicketRequest
}

// TicketPatchRequest is a partial update. Absent fields are left unchanged;
// "venue_name": "" clears the venue.
type TicketPatchRequest struct {
	HolderName *string `json:"holder_name"`
	PartySize  *int    `json:"party_size"`
	TicketType *string `json:"ticket_type"`
	OfferKind  *string `json:"offer_kind"`
	VenueName  *string `json:"venue_name"`
}

func (r TicketPatchRequest) patch() domain.TicketPatch {
	p := domain.TicketPatch{
		HolderName: r.HolderName,
		PartySize:  r.PartySize,
		VenueName:  r.VenueName,
	}
	if r.TicketType != nil {
		tt := domain.TicketType(*r.TicketType)
		p.TicketType = &tt
	}
	if r.OfferKind != nil {
		ok := domain.OfferKind(*r.OfferKind)
		p.OfferKind = &ok
	}
	return p
}

type EmployeeUpdateRequest struct {
	Login    *string `json:"login"`
	FullName *string `json:"full_name"`
	Email    *string `json:"email"`
	Address  *string `json:"address"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
}

func (r EmployeeUpdateRequest) input() employees.UpdateInput {
	in := employees.UpdateInput{
		Login:    r.Login,
		FullName: r.FullName,
		Email:    r.Email,
		Address:  r.Address,
		Password: r.Password,
	}
	if r.Role != nil {
		role := domain.Role(*r.Role)
		in.Role = &role
	}
	return in
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	// ReferencingTickets is set when a venue delete is blocked.
	ReferencingTickets *int `json:"referencing_tickets,omitempty"`
}
