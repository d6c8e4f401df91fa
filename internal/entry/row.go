package entry

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/babytracker/internal/db"
)

// FromRow converts a stored row into an Entry. Rows with an unknown kind are rejected.
func FromRow(row db.Entry) (*Entry, error) {
	e := &Entry{
		ID:        row.ID,
		BabyID:    row.BabyID,
		Start:     row.Start,
		End:       row.End,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	if row.Note != nil {
		e.Note = *row.Note
	}

	switch Kind(row.Kind) {
	case KindBreastFeed:
		e.Details = &BreastFeed{LeftDuration: durationOf(row.LeftDuration), RightDuration: durationOf(row.RightDuration)}
	case KindBottleFeed:
		e.Details = &BottleFeed{Amount: intOf(row.Amount)}
	case KindMixedFeed:
		e.Details = &MixedFeed{
			LeftDuration:  durationOf(row.LeftDuration),
			RightDuration: durationOf(row.RightDuration),
			Topup:         intOf(row.Topup),
		}
	case KindSleep:
		e.Details = &Sleep{Duration: durationOf(row.Duration)}
	case KindNappyChange:
		contents := ContentsNone
		if row.Contents != nil && *row.Contents != "" {
			contents = Contents(*row.Contents)
		}
		e.Details = &NappyChange{Contents: contents}
	default:
		return nil, fmt.Errorf("%w: stored entry %d has kind %q", ErrUnknownKind, row.ID, row.Kind)
	}
	return e, nil
}

// FromRows converts rows in order.
func FromRows(rows []db.Entry) ([]Entry, error) {
	out := make([]Entry, 0, len(rows))
	for _, row := range rows {
		e, err := FromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, nil
}

// ToRow converts an Entry into its storage row. Only the columns of the entry's kind are set.
func ToRow(e *Entry) db.Entry {
	row := db.Entry{
		ID:        e.ID,
		BabyID:    e.BabyID,
		Kind:      string(e.Kind()),
		Start:     e.Start,
		End:       e.End,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
	if e.Note != "" {
		note := e.Note
		row.Note = &note
	}

	switch d := e.Details.(type) {
	case *BreastFeed:
		row.LeftDuration = durationPtr(d.LeftDuration)
		row.RightDuration = durationPtr(d.RightDuration)
	case *BottleFeed:
		row.Amount = intPtr(d.Amount)
	case *MixedFeed:
		row.LeftDuration = durationPtr(d.LeftDuration)
		row.RightDuration = durationPtr(d.RightDuration)
		row.Topup = intPtr(d.Topup)
	case *Sleep:
		row.Duration = durationPtr(d.Duration)
	case *NappyChange:
		contents := string(d.Contents)
		row.Contents = &contents
	}
	return row
}

// ParseID converts a path segment into an entry id.
func ParseID(segment string) (uint, bool) {
	trimmed := strings.TrimSpace(segment)
	if trimmed == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(trimmed, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func formatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func durationOf(d *time.Duration) time.Duration {
	if d == nil {
		return 0
	}
	return *d
}

func intOf(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}

func durationPtr(d time.Duration) *time.Duration {
	return &d
}

func intPtr(n int) *int {
	return &n
}
