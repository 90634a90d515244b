// Package directory talks to the external business-directory API and holds
// the screen-level controllers built on top of it.
package directory

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Approval is the tri-state approval flag of a listing.
type Approval int8

const (
	// ApprovalUnset means the API has not recorded a decision.
	ApprovalUnset Approval = iota
	// ApprovalRejected means the listing was explicitly rejected.
	ApprovalRejected
	// ApprovalApproved means the listing is publicly visible.
	ApprovalApproved
)

// IsApproved reports whether the listing counts as approved.
func (a Approval) IsApproved() bool {
	return a == ApprovalApproved
}

// Label renders the status badge text.
func (a Approval) Label() string {
	switch a {
	case ApprovalApproved:
		return "Approved"
	case ApprovalRejected:
		return "Rejected"
	default:
		return "Pending"
	}
}

// Wire returns the value sent to the approval endpoint.
func (a Approval) Wire() string {
	if a.IsApproved() {
		return "true"
	}
	return "false"
}

// ParseApproval decodes the approval flag. The API sends either a boolean or
// a string; only true and "true" mean approved, false and "false" mean
// rejected, anything else is unset.
func ParseApproval(raw json.RawMessage) Approval {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ApprovalUnset
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		if b {
			return ApprovalApproved
		}
		return ApprovalRejected
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		switch s {
		case "true":
			return ApprovalApproved
		case "false":
			return ApprovalRejected
		}
	}
	return ApprovalUnset
}

// Field names accepted by the form controller and sent on the wire.
const (
	FieldBusinessName   = "businessName"
	FieldAddress        = "address"
	FieldPhone          = "phone"
	FieldWorkingHours   = "workingHours"
	FieldSpecialization = "specialization"
	FieldWhyVisit       = "whyVisit"
	FieldLocationLink   = "locationLink"
)

// EditableFields lists the text fields an operator can change, in form order.
var EditableFields = []string{
	FieldBusinessName,
	FieldAddress,
	FieldPhone,
	FieldWorkingHours,
	FieldSpecialization,
	FieldWhyVisit,
}

// Record is one business listing as returned by the directory API.
type Record struct {
	ID             string
	BusinessName   string
	Address        string
	Phone          string
	WorkingHours   string
	Specialization string
	WhyVisit       string
	LocationLink   string
	Approved       Approval
}

// Field returns the value of a named text field.
func (r Record) Field(name string) (string, bool) {
	switch name {
	case FieldBusinessName:
		return r.BusinessName, true
	case FieldAddress:
		return r.Address, true
	case FieldPhone:
		return r.Phone, true
	case FieldWorkingHours:
		return r.WorkingHours, true
	case FieldSpecialization:
		return r.Specialization, true
	case FieldWhyVisit:
		return r.WhyVisit, true
	case FieldLocationLink:
		return r.LocationLink, true
	}
	return "", false
}

// UnmarshalJSON normalises the API's inconsistent record shape into Record.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Record{
		ID:             firstNonEmpty(raw, "_id", "id"),
		BusinessName:   firstNonEmpty(raw, "businessName", "name"),
		Address:        firstString(raw, "address"),
		Phone:          firstString(raw, "phone"),
		WorkingHours:   firstString(raw, "workingHours", "workinghours"),
		Specialization: firstString(raw, "specialization"),
		WhyVisit:       firstString(raw, "whyVisit", "whyvisit"),
		LocationLink:   firstString(raw, "locationLink"),
		Approved:       ParseApproval(raw["approved"]),
	}
	return nil
}

type recordJSON struct {
	ID             string `json:"_id,omitempty"`
	BusinessName   string `json:"businessName"`
	Address        string `json:"address"`
	Phone          string `json:"phone"`
	WorkingHours   string `json:"workingHours"`
	Specialization string `json:"specialization"`
	WhyVisit       string `json:"whyVisit"`
	LocationLink   string `json:"locationLink"`
	Approved       bool   `json:"approved"`
	Status         string `json:"status"`
}

// MarshalJSON emits the canonical camel-case shape.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		ID:             r.ID,
		BusinessName:   r.BusinessName,
		Address:        r.Address,
		Phone:          r.Phone,
		WorkingHours:   r.WorkingHours,
		Specialization: r.Specialization,
		WhyVisit:       r.WhyVisit,
		LocationLink:   r.LocationLink,
		Approved:       r.Approved.IsApproved(),
		Status:         strings.ToLower(r.Approved.Label()),
	})
}

// firstString returns the first key present in raw. A present key wins even
// when its value is empty or not a string.
func firstString(raw map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		value, ok := raw[key]
		if !ok {
			continue
		}
		return scalarString(value)
	}
	return ""
}

func firstNonEmpty(raw map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		value, ok := raw[key]
		if !ok {
			continue
		}
		if id := scalarString(value); id != "" {
			return id
		}
	}
	return ""
}

func scalarString(value json.RawMessage) string {
	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(value, &n); err == nil {
		return n.String()
	}
	var b bool
	if err := json.Unmarshal(value, &b); err == nil {
		return strconv.FormatBool(b)
	}
	return ""
}
