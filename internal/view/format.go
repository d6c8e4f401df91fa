package view

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/babytracker/internal/entry"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// DateLayout is the wire and form format of dates.
const DateLayout = "2006-01-02"

// FormTimeLayout fills datetime-local inputs.
const FormTimeLayout = "2006-01-02T15:04"

// ErrInvalidTime is returned for a timestamp or date in none of the accepted layouts.
var ErrInvalidTime = errors.New("invalid date or time")

// Layouts accepted for timestamps without an offset, tried in order.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	sanitizer = bluemonday.UGCPolicy()
)

// ParseTimestamp accepts RFC 3339 or a naive timestamp, which is read in loc.
func ParseTimestamp(raw string, loc *time.Location) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidTime)
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTime, raw)
}

// ParseDate accepts a YYYY-MM-DD date.
func ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTime, raw)
	}
	return t, nil
}

// FormatTimestamp renders t as RFC 3339 in UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// FormatDate renders the date part of t.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// RenderNote converts a markdown note to sanitized HTML.
func RenderNote(note string) (template.HTML, error) {
	if strings.TrimSpace(note) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(note), &buf); err != nil {
		return "", err
	}
	safe := sanitizer.SanitizeBytes(buf.Bytes())
	return template.HTML(safe), nil
}

// HumanDuration renders a duration as "1h 05m" or "25m".
func HumanDuration(d time.Duration) string {
	minutes := int(d / time.Minute)
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %02dm", minutes/60, minutes%60)
}

// Summary renders the variant fields of an entry for list views, e.g. "left 10m, right 25m".
func Summary(e *entry.Entry) string {
	switch d := e.Details.(type) {
	case *entry.BreastFeed:
		return fmt.Sprintf("left %s, right %s", HumanDuration(d.LeftDuration), HumanDuration(d.RightDuration))
	case *entry.BottleFeed:
		return fmt.Sprintf("%d ml", d.Amount)
	case *entry.MixedFeed:
		return fmt.Sprintf("left %s, right %s, top-up %d ml", HumanDuration(d.LeftDuration), HumanDuration(d.RightDuration), d.Topup)
	case *entry.Sleep:
		return HumanDuration(e.Span())
	case *entry.NappyChange:
		return string(d.Contents)
	}
	return ""
}

// FuncMap returns the template helpers. Times are shown in loc.
func FuncMap(loc *time.Location) template.FuncMap {
	if loc == nil {
		loc = time.UTC
	}
	return template.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
		"localTime": func(t time.Time) string {
			return t.In(loc).Format("Mon 2 Jan 15:04")
		},
		"formTime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.In(loc).Format(FormTimeLayout)
		},
		"formTimePtr": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return t.In(loc).Format(FormTimeLayout)
		},
		"date":     FormatDate,
		"duration": HumanDuration,
		"kindLabel": func(kind entry.Kind) string {
			return KindLabel(kind)
		},
		"kindIcon": func(kind entry.Kind) template.HTML {
			return KindIcon(kind)
		},
		"summary": Summary,
		"note": func(note string) template.HTML {
			out, err := RenderNote(note)
			if err != nil {
				return template.HTML(template.HTMLEscapeString(note))
			}
			return out
		},
	}
}
