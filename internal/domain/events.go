package domain

import "time"

type CatalogChangeKind string

const (
	VenueAdded   CatalogChangeKind = "venue_added"
	VenueRenamed CatalogChangeKind = "venue_renamed"
	VenueDeleted CatalogChangeKind = "venue_deleted"
)

// CatalogChange is broadcast after a catalog mutation commits.
type CatalogChange struct {
	Kind    CatalogChangeKind `json:"kind"`
	VenueID int64             `json:"venue_id"`
	Name    string            `json:"name"`
	OldName string            `json:"old_name,omitempty"`
	TsUnix  int64             `json:"ts_unix"`
}

type CascadeOperation string

const (
	CascadeRename CascadeOperation = "rename"
	CascadeDelete CascadeOperation = "delete"
	CascadeRepair CascadeOperation = "repair"
)

// CascadeFailedEvent is raised for operators when a cascade leaves tickets
// behind. Running the repair scan fixes what it reports.
type CascadeFailedEvent struct {
	Operation    CascadeOperation `json:"operation"`
	VenueID      int64            `json:"venue_id,omitempty"`
	VenueName    string           `json:"venue_name,omitempty"`
	OldName      string           `json:"old_name,omitempty"`
	Failures     []CascadeFailure `json:"failures,omitempty"`
	CascadeError string           `json:"cascade_error,omitempty"`
	OccurredAt   time.Time        `json:"occurred_at"`
}
