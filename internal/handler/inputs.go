package handler

import (
	"fmt"
	"strings"
	"time"

	"github.com/babytracker/internal/entry"
	"github.com/babytracker/internal/service"
	"github.com/babytracker/internal/view"
)

// Keys shared by every entry kind. Anything else in a body is a variant field.
const (
	keyEntryType = "entry_type"
	keyStart     = "start"
	keyEnd       = "end"
	keyNote      = "note"
	keyURL       = "url"
)

func (a *API) babyInput(values map[string]string) (service.BabyInput, error) {
	input := service.BabyInput{
		Name:   values["name"],
		Gender: strings.TrimSpace(values["gender"]),
	}
	raw := strings.TrimSpace(values["dob"])
	if raw == "" {
		return input, fmt.Errorf("%w: dob is required", service.ErrInvalidInput)
	}
	dob, err := view.ParseDate(raw)
	if err != nil {
		return input, err
	}
	input.DOB = dob
	return input, nil
}

func (a *API) babyPatch(values map[string]string) (service.BabyPatch, error) {
	var patch service.BabyPatch
	if name, ok := values["name"]; ok {
		patch.Name = &name
	}
	if raw, ok := values["dob"]; ok {
		dob, err := view.ParseDate(raw)
		if err != nil {
			return patch, err
		}
		patch.DOB = &dob
	}
	if gender, ok := values["gender"]; ok {
		gender = strings.TrimSpace(gender)
		patch.Gender = &gender
	}
	return patch, nil
}

func (a *API) userPatch(values map[string]string) service.UserPatch {
	var patch service.UserPatch
	if name, ok := values["name"]; ok {
		patch.Name = &name
	}
	if password, ok := values["password"]; ok {
		patch.Password = &password
	}
	return patch
}

// entryInput consumes the common keys of values; the remainder become variant fields.
func (a *API) entryInput(values map[string]string) (service.EntryInput, error) {
	fields := cloneValues(values)
	kind, _ := takeString(fields, keyEntryType)
	takeString(fields, keyURL)

	input := service.EntryInput{Kind: strings.TrimSpace(kind)}
	if _, ok := entry.Lookup(input.Kind); !ok {
		return input, fmt.Errorf("%w: %q", entry.ErrUnknownKind, input.Kind)
	}

	rawStart, _ := takeString(fields, keyStart)
	if strings.TrimSpace(rawStart) == "" {
		return input, fmt.Errorf("%w: start is required", service.ErrInvalidInput)
	}
	start, err := view.ParseTimestamp(rawStart, a.loc)
	if err != nil {
		return input, err
	}
	input.Start = start

	if rawEnd, ok := takeString(fields, keyEnd); ok && strings.TrimSpace(rawEnd) != "" {
		end, err := view.ParseTimestamp(rawEnd, a.loc)
		if err != nil {
			return input, err
		}
		input.End = &end
	}

	input.Note, _ = takeString(fields, keyNote)
	input.Fields = fields
	return input, nil
}

// entryPatch builds a partial update for e. The kind of an entry can never change.
func (a *API) entryPatch(e *entry.Entry, values map[string]string) (service.EntryPatch, error) {
	fields := cloneValues(values)
	takeString(fields, keyURL)

	var patch service.EntryPatch
	if kind, ok := takeString(fields, keyEntryType); ok && entry.Kind(strings.TrimSpace(kind)) != e.Kind() {
		return patch, fmt.Errorf("%w: entry_type cannot be changed", service.ErrInvalidInput)
	}

	if rawStart, ok := takeString(fields, keyStart); ok {
		start, err := view.ParseTimestamp(rawStart, a.loc)
		if err != nil {
			return patch, err
		}
		patch.Start = &start
	}

	if rawEnd, ok := takeString(fields, keyEnd); ok {
		if strings.TrimSpace(rawEnd) == "" {
			patch.ClearEnd = true
		} else {
			end, err := view.ParseTimestamp(rawEnd, a.loc)
			if err != nil {
				return patch, err
			}
			patch.End = &end
		}
	}

	if note, ok := takeString(fields, keyNote); ok {
		patch.Note = &note
	}
	patch.Fields = fields
	return patch, nil
}

// entryFilter reads start, end and entry_type from a query string.
func (a *API) entryFilter(query func(string) string) (service.EntryFilter, error) {
	var filter service.EntryFilter

	if raw := strings.TrimSpace(query(keyStart)); raw != "" {
		start, err := a.parseBound(raw, false)
		if err != nil {
			return filter, err
		}
		filter.Start = &start
	}
	if raw := strings.TrimSpace(query(keyEnd)); raw != "" {
		end, err := a.parseBound(raw, true)
		if err != nil {
			return filter, err
		}
		filter.End = &end
	}
	if raw := strings.TrimSpace(query(keyEntryType)); raw != "" {
		schema, ok := entry.Lookup(raw)
		if !ok {
			return filter, fmt.Errorf("%w: %q", entry.ErrUnknownKind, raw)
		}
		filter.Kind = schema.Kind
	}
	return filter, nil
}

// parseBound accepts a timestamp or a bare date. A bare date used as an upper bound covers
// the whole day.
func (a *API) parseBound(raw string, upper bool) (time.Time, error) {
	if t, err := view.ParseTimestamp(raw, a.loc); err == nil {
		return t, nil
	}
	day, err := time.ParseInLocation(view.DateLayout, raw, a.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", view.ErrInvalidTime, raw)
	}
	if upper {
		return day.AddDate(0, 0, 1).Add(-time.Second), nil
	}
	return day, nil
}

func cloneValues(values map[string]string) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out
}
