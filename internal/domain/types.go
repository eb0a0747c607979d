package domain

import (
	"time"
)

type TicketType string

const (
	TicketSubsidized    TicketType = "subsidized"
	TicketNonSubsidized TicketType = "non-subsidized"
)

func (t TicketType) Valid() bool {
	return t == TicketSubsidized || t == TicketNonSubsidized
}

type OfferKind string

const (
	OfferSelfService OfferKind = "self-service"
	OfferSandwich    OfferKind = "sandwich"
)

func (o OfferKind) Valid() bool {
	return o == OfferSelfService || o == OfferSandwich
}

type Role string

const (
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleEmployee || r == RoleAdmin
}

// Venue is a dining location of the catalog. Tickets reference it by Name.
type Venue struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Ticket struct {
	ID         int64      `json:"id"`
	EmployeeID int64      `json:"employee_id"`
	HolderName string     `json:"holder_name"`
	PartySize  int        `json:"party_size"`
	TicketType TicketType `json:"ticket_type"`
	OfferKind  OfferKind  `json:"offer_kind"`
	VenueName  string     `json:"venue_name"` // empty means no venue
	CreatedAt  time.Time  `json:"created_at"`
}

// TicketPatch is a partial ticket update. Nil fields are left unchanged.
type TicketPatch struct {
	HolderName *string
	PartySize  *int
	TicketType *TicketType
	OfferKind  *OfferKind
	VenueName  *string
}

func (p TicketPatch) Empty() bool {
	return p.HolderName == nil &&
		p.PartySize == nil &&
		p.TicketType == nil &&
		p.OfferKind == nil &&
		p.VenueName == nil
}

type Employee struct {
	ID           int64     `json:"id"`
	Login        string    `json:"login"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	Address      string    `json:"address"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// EmployeePatch is a partial employee update. Nil fields are left unchanged.
type EmployeePatch struct {
	Login        *string
	FullName     *string
	Email        *string
	Address      *string
	PasswordHash *string
	Role         *Role
}
