package directory

import "maps"

// Draft is an in-memory, not yet persisted copy of a listing.
type Draft struct {
	ID     string
	fields map[string]string
}

// NewDraft returns an empty draft for the create screen.
func NewDraft() Draft {
	return Draft{fields: make(map[string]string)}
}

// DraftFromRecord copies an existing listing into an editable draft.
func DraftFromRecord(r Record) Draft {
	d := NewDraft()
	d.ID = r.ID
	for _, name := range EditableFields {
		value, _ := r.Field(name)
		d.fields[name] = value
	}
	d.fields[FieldLocationLink] = r.LocationLink
	return d
}

// DraftFromValues builds a draft from stored field values, ignoring unknown keys.
func DraftFromValues(id string, values map[string]string) Draft {
	d := NewDraft()
	d.ID = id
	for name, value := range values {
		_ = d.Set(name, value)
	}
	return d
}

// Get returns one field; absent fields read as empty.
func (d Draft) Get(name string) string {
	return d.fields[name]
}

// Set replaces one field.
func (d *Draft) Set(name, value string) error {
	if !knownField(name) {
		return ErrUnknownField
	}
	if d.fields == nil {
		d.fields = make(map[string]string)
	}
	d.fields[name] = value
	return nil
}

// Values returns a copy of the field map.
func (d Draft) Values() map[string]string {
	out := make(map[string]string, len(d.fields))
	maps.Copy(out, d.fields)
	return out
}

// Clone returns a deep copy.
func (d Draft) Clone() Draft {
	return Draft{ID: d.ID, fields: d.Values()}
}

// IsUpdate reports whether submitting the draft targets the update endpoint.
func (d Draft) IsUpdate() bool {
	return d.ID != ""
}

// Record renders the draft as a listing value.
func (d Draft) Record() Record {
	return Record{
		ID:             d.ID,
		BusinessName:   d.Get(FieldBusinessName),
		Address:        d.Get(FieldAddress),
		Phone:          d.Get(FieldPhone),
		WorkingHours:   d.Get(FieldWorkingHours),
		Specialization: d.Get(FieldSpecialization),
		WhyVisit:       d.Get(FieldWhyVisit),
		LocationLink:   d.Get(FieldLocationLink),
	}
}

type draftPayload struct {
	ID             string `json:"_id,omitempty"`
	BusinessName   string `json:"businessName"`
	Address        string `json:"address"`
	Phone          string `json:"phone"`
	WorkingHours   string `json:"workingHours"`
	Specialization string `json:"specialization"`
	WhyVisit       string `json:"whyVisit"`
	LocationLink   string `json:"locationLink"`
}

func (d Draft) createPayload() draftPayload {
	p := d.updatePayload()
	p.ID = ""
	return p
}

func (d Draft) updatePayload() draftPayload {
	return draftPayload{
		ID:             d.ID,
		BusinessName:   d.Get(FieldBusinessName),
		Address:        d.Get(FieldAddress),
		Phone:          d.Get(FieldPhone),
		WorkingHours:   d.Get(FieldWorkingHours),
		Specialization: d.Get(FieldSpecialization),
		WhyVisit:       d.Get(FieldWhyVisit),
		LocationLink:   d.Get(FieldLocationLink),
	}
}

func knownField(name string) bool {
	_, ok := Record{}.Field(name)
	return ok
}
