package plate

import (
	"time"

	"github.com/mjoris/plaquier/internal/platform/apperr"
)

// Status is the lifecycle state of a physical printing plate.
type Status string

const (
	StatusInStock       Status = "in-stock"
	StatusUnavailable   Status = "unavailable"
	StatusPrinting      Status = "printing"
	StatusSubcontracted Status = "subcontracted"
	StatusOrdered       Status = "ordered"
	StatusQuarantine    Status = "quarantine"
)

// Statuses lists every valid lifecycle state.
var Statuses = []Status{
	StatusInStock, StatusUnavailable, StatusPrinting,
	StatusSubcontracted, StatusOrdered, StatusQuarantine,
}

// ParseStatus validates a console-submitted status value.
func ParseStatus(raw string) (Status, error) {
	for _, status := range Statuses {
		if string(status) == raw {
			return status, nil
		}
	}
	return "", apperr.ValidationError("Unknown plate status: " + raw)
}

// StatusStrings returns the statuses as plain strings, for validator chains.
func StatusStrings() []string {
	values := make([]string, len(Statuses))
	for i, status := range Statuses {
		values[i] = string(status)
	}
	return values
}

// Plate is one physical printing plate belonging to exactly one conception.
//
// ID is empty only for a plate that has never been persisted; the registry
// discards local state after every successful write and keeps the server's
// canonical record instead.
type Plate struct {
	ID           string     `json:"id,omitempty"`
	ConceptionID string     `json:"conception_id"`
	Number       string     `json:"number"`
	Color        string     `json:"color"`
	MachineID    string     `json:"machine_id"`
	Status       Status     `json:"status"`
	RenewalDate  *time.Time `json:"renewal_date,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Form carries the editable plate fields of the create/edit panel.
type Form struct {
	Number    string `json:"number"`
	Color     string `json:"color"`
	MachineID string `json:"machine_id"`
	Status    Status `json:"status"`
}
