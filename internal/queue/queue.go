// Package queue carries operator alerts for incomplete venue cascades over
// RabbitMQ.
package queue

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kirinyoku/canteen-go/internal/domain"
)

const DefaultAlertQueue = "canteen.cascade.failed"

func encodeAlert(ev domain.CascadeFailedEvent) ([]byte, error) {
	return json.Marshal(ev)
}

func decodeAlert(body []byte) (domain.CascadeFailedEvent, error) {
	var ev domain.CascadeFailedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return ev, fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Operation == "" {
		return ev, fmt.Errorf("unmarshal: missing operation")
	}
	return ev, nil
}

// FormatAlert renders ev as a single log line for operators.
func FormatAlert(ev domain.CascadeFailedEvent) string {
	ids := make([]string, 0, len(ev.Failures))
	for _, f := range ev.Failures {
		ids = append(ids, fmt.Sprint(f.TicketID))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] cascade %s incomplete", ev.OccurredAt.UTC().Format("2006-01-02T15:04:05Z"), ev.Operation)
	if ev.VenueID != 0 {
		fmt.Fprintf(&b, " | venue_id=%d", ev.VenueID)
	}
	if ev.VenueName != "" {
		fmt.Fprintf(&b, " | venue=%q", ev.VenueName)
	}
	if ev.OldName != "" {
		fmt.Fprintf(&b, " | old_name=%q", ev.OldName)
	}
	fmt.Fprintf(&b, " | failed_tickets=[%s]", strings.Join(ids, ","))
	if ev.CascadeError != "" {
		fmt.Fprintf(&b, " | error=%q", ev.CascadeError)
	}
	b.WriteString(" | run `canteen repair` to reconcile")

	return b.String()
}
