package business

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/synapse-directory/synapse/internal/directory"
	"github.com/synapse-directory/synapse/internal/location"
	"github.com/synapse-directory/synapse/internal/shared"
)

// Form is the posted add/edit form.
type Form struct {
	BusinessName   string `form:"businessName" validate:"required,max=200"`
	Address        string `form:"address" validate:"required,max=500"`
	Phone          string `form:"phone" validate:"required,max=40"`
	WorkingHours   string `form:"workingHours" validate:"required,max=200"`
	Specialization string `form:"specialization" validate:"required,max=200"`
	WhyVisit       string `form:"whyVisit" validate:"required,max=1000"`
	LocationLink   string `form:"locationLink" validate:"omitempty,maplink"`
}

func newFormValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("form")
	})
	_ = v.RegisterValidation("maplink", func(fl validator.FieldLevel) bool {
		_, err := location.ParseRef(fl.Field().String())
		return err == nil
	})
	return v
}

func formFromRequest(r *http.Request) Form {
	get := func(name string) string { return strings.TrimSpace(r.PostFormValue(name)) }
	return Form{
		BusinessName:   get(directory.FieldBusinessName),
		Address:        get(directory.FieldAddress),
		Phone:          get(directory.FieldPhone),
		WorkingHours:   get(directory.FieldWorkingHours),
		Specialization: get(directory.FieldSpecialization),
		WhyVisit:       get(directory.FieldWhyVisit),
		LocationLink:   get(directory.FieldLocationLink),
	}
}

// Values returns the form keyed by wire field name.
func (f Form) Values() map[string]string {
	return map[string]string{
		directory.FieldBusinessName:   f.BusinessName,
		directory.FieldAddress:        f.Address,
		directory.FieldPhone:          f.Phone,
		directory.FieldWorkingHours:   f.WorkingHours,
		directory.FieldSpecialization: f.Specialization,
		directory.FieldWhyVisit:       f.WhyVisit,
		directory.FieldLocationLink:   f.LocationLink,
	}
}

// validate returns per-field messages keyed by wire field name.
func (h *Handler) validate(f Form) map[string]string {
	errs := make(map[string]string)
	err := h.validator.Struct(f)
	if err == nil {
		return errs
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		errs["general"] = err.Error()
		return errs
	}
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			errs[fe.Field()] = "This field is required."
		case "max":
			errs[fe.Field()] = "This field is too long."
		case "maplink":
			errs[fe.Field()] = "Pick a location on the map."
		default:
			errs[fe.Field()] = fe.Error()
		}
	}
	return errs
}

const draftKeyPrefix = "draft:"

func draftKey(id string) string {
	if id == "" {
		return draftKeyPrefix + "new"
	}
	return draftKeyPrefix + id
}

type storedDraft struct {
	ID     string            `json:"id,omitempty"`
	Values map[string]string `json:"values"`
}

// saveDraft keeps unsent form values in the session so a failed submit or a
// reload does not lose them.
func saveDraft(sess *shared.Session, d directory.Draft) {
	if sess == nil {
		return
	}
	_ = sess.SetJSON(draftKey(d.ID), storedDraft{ID: d.ID, Values: d.Values()})
}

func loadDraft(sess *shared.Session, id string) (directory.Draft, bool) {
	if sess == nil {
		return directory.Draft{}, false
	}
	var stored storedDraft
	if !sess.GetJSON(draftKey(id), &stored) {
		return directory.Draft{}, false
	}
	return directory.DraftFromValues(id, stored.Values), true
}

func clearDraft(sess *shared.Session, id string) {
	if sess != nil {
		sess.Delete(draftKey(id))
	}
}
