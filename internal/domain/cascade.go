package domain

// DeletePolicy selects what happens to tickets that still reference a venue
// being deleted.
type DeletePolicy string

const (
	// DeletePolicyBlock refuses the delete while any ticket references the venue.
	DeletePolicyBlock DeletePolicy = "block"
	// DeletePolicyClear deletes the venue and clears the reference on every ticket.
	DeletePolicyClear DeletePolicy = "clear"
)

func (p DeletePolicy) Valid() bool {
	return p == DeletePolicyBlock || p == DeletePolicyClear
}

// CascadeFailure records one ticket the cascade could not update.
type CascadeFailure struct {
	TicketID int64  `json:"ticket_id"`
	Error    string `json:"error"`
}

type RenameResult struct {
	Venue          Venue            `json:"venue"`
	OldName        string           `json:"old_name"`
	TicketsUpdated int              `json:"tickets_updated"`
	TicketsFailed  int              `json:"tickets_failed"`
	Failures       []CascadeFailure `json:"failures,omitempty"`
	// CascadeError is set when the affected tickets could not be enumerated
	// after the rename committed.
	CascadeError string `json:"cascade_error,omitempty"`
}

func (r RenameResult) Partial() bool {
	return r.TicketsFailed > 0 || r.CascadeError != ""
}

type DeleteResult struct {
	VenueID            int64            `json:"venue_id"`
	VenueName          string           `json:"venue_name"`
	Policy             DeletePolicy     `json:"policy"`
	ReferencingTickets int              `json:"referencing_tickets"`
	TicketsCleared     int              `json:"tickets_cleared"`
	TicketsFailed      int              `json:"tickets_failed"`
	Failures           []CascadeFailure `json:"failures,omitempty"`
}

func (r DeleteResult) Partial() bool {
	return r.TicketsFailed > 0
}

type VenueUsage struct {
	Venue              Venue `json:"venue"`
	ReferencingTickets int   `json:"referencing_tickets"`
}

type RepairReport struct {
	Orphaned int              `json:"orphaned"`
	Cleared  int              `json:"cleared"`
	Failed   int              `json:"failed"`
	Failures []CascadeFailure `json:"failures,omitempty"`
}
