package handler

import (
	"github.com/babytracker/internal/db"
	"github.com/babytracker/internal/entry"
	"github.com/babytracker/internal/resource"
	"github.com/babytracker/internal/view"
)

// APIPrefix is where the JSON surface of the resource tree is mounted.
const APIPrefix = "/api"

type userJSON struct {
	URL    string     `json:"url"`
	Email  string     `json:"email"`
	Name   string     `json:"name"`
	Babies []babyJSON `json:"babies"`
}

type babyJSON struct {
	URL    string `json:"url"`
	Name   string `json:"name"`
	DOB    string `json:"dob"`
	Gender string `json:"gender"`
}

type rootJSON struct {
	LoginURL  string    `json:"login_url"`
	LogoutURL string    `json:"logout_url"`
	User      *userJSON `json:"user"`
}

func serializeUser(user *db.User) userJSON {
	out := userJSON{
		URL:    resource.UserURL(APIPrefix, user),
		Email:  user.Email,
		Name:   user.Name,
		Babies: make([]babyJSON, 0, len(user.Babies)),
	}
	for i := range user.Babies {
		out.Babies = append(out.Babies, serializeBaby(user, &user.Babies[i]))
	}
	return out
}

func serializeBaby(user *db.User, baby *db.Baby) babyJSON {
	return babyJSON{
		URL:    resource.BabyURL(APIPrefix, user, baby),
		Name:   baby.Name,
		DOB:    view.FormatDate(baby.DOB),
		Gender: baby.Gender,
	}
}

// serializeEntry flattens an entry: the common keys plus the wire values of its variant.
func serializeEntry(user *db.User, baby *db.Baby, e *entry.Entry) map[string]any {
	out := map[string]any{
		keyURL:       resource.EntryURL(APIPrefix, user, baby, e),
		keyEntryType: string(e.Kind()),
		keyStart:     view.FormatTimestamp(e.Start),
		keyEnd:       nil,
		keyNote:      e.Note,
	}
	if e.End != nil {
		out[keyEnd] = view.FormatTimestamp(*e.End)
	}
	if schema := entry.SchemaFor(e.Kind()); schema != nil {
		for name, value := range schema.Values(e.Details) {
			out[name] = value
		}
	}
	return out
}

func serializeEntries(user *db.User, baby *db.Baby, entries []entry.Entry) []map[string]any {
	out := make([]map[string]any, 0, len(entries))
	for i := range entries {
		out = append(out, serializeEntry(user, baby, &entries[i]))
	}
	return out
}
