package linestatus

import (
	"strings"
)

type Status struct {
	Name string
}

func (s Status) Code() string {
	return s.Name
}

func (s Status) Label() string {
	if s.Name == "" {
		return ""
	}
	return strings.ToUpper(s.Name[:1]) + s.Name[1:]
}

type Enum struct {
	Pending   Status
	Prepared  Status
	Delivered Status
	Cancelled Status
}

var Statuses = Enum{
	Pending:   Status{Name: "pending"},
	Prepared:  Status{Name: "prepared"},
	Delivered: Status{Name: "delivered"},
	Cancelled: Status{Name: "cancelled"},
}

var All = []Status{
	Statuses.Pending,
	Statuses.Prepared,
	Statuses.Delivered,
	Statuses.Cancelled,
}

// ByName returns the status for a given name, or nil if not found.
// Matching ignores case and surrounding spaces since labels come from a remote API.
func ByName(name string) *Status {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, s := range All {
		if s.Name == name {
			return &s
		}
	}
	return nil
}

// IsDelivered reports whether a raw status label is the delivered label.
func IsDelivered(name string) bool {
	s := ByName(name)
	return s != nil && *s == Statuses.Delivered
}

// IsCancelled reports whether a raw status label is the cancelled label.
func IsCancelled(name string) bool {
	s := ByName(name)
	return s != nil && *s == Statuses.Cancelled
}
