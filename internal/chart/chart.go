// Package chart draws a day-by-day timeline of a baby's entries as a PNG.
//
// Each local day is one row running from midnight to midnight. Entries are drawn as bars
// covering their span and coloured by kind; instantaneous entries (nappy changes, bottle
// feeds without an end) are drawn as a thin tick.
package chart

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"time"

	"github.com/babytracker/internal/entry"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	Width        = 960 // pixels
	RowHeight    = 22  // pixels
	MaxDays      = 62
	marginLeft   = 96
	marginRight  = 12
	marginTop    = 36
	marginBottom = 12
	minBarWidth  = 2
)

var (
	background = color.NRGBA{255, 255, 255, 255}
	gridColor  = color.NRGBA{225, 225, 225, 255}
	textColor  = color.NRGBA{40, 40, 40, 255}

	kindColors = map[entry.Kind]color.NRGBA{
		entry.KindBreastFeed:  {214, 96, 77, 255},
		entry.KindBottleFeed:  {244, 165, 130, 255},
		entry.KindMixedFeed:   {178, 24, 43, 255},
		entry.KindSleep:       {67, 147, 195, 255},
		entry.KindNappyChange: {90, 174, 97, 255},
	}
)

// Timeline is the input to Render. Start and End bound the rows drawn; when zero they are
// taken from the entries.
type Timeline struct {
	Title    string
	Start    time.Time
	End      time.Time
	Location *time.Location
	Entries  []entry.Entry
}

// Days returns the local midnights of every row, oldest first, capped at MaxDays (the most
// recent days are kept).
func (tl Timeline) Days() []time.Time {
	loc := tl.location()
	first, last := tl.Start, tl.End
	for _, e := range tl.Entries {
		if tl.Start.IsZero() && (first.IsZero() || e.Start.Before(first)) {
			first = e.Start
		}
		if tl.End.IsZero() && (last.IsZero() || e.Start.After(last)) {
			last = e.Start
		}
	}
	if first.IsZero() && last.IsZero() {
		return nil
	}
	if first.IsZero() {
		first = last
	}
	if last.IsZero() || last.Before(first) {
		last = first
	}

	day := midnight(first, loc)
	end := midnight(last, loc)
	if earliest := end.AddDate(0, 0, -(MaxDays - 1)); day.Before(earliest) {
		day = earliest
	}
	days := make([]time.Time, 0, MaxDays)
	for !day.After(end) {
		days = append(days, day)
		day = day.AddDate(0, 0, 1)
	}
	return days
}

// Height returns the image height for rows days.
func Height(rows int) int {
	if rows < 1 {
		rows = 1
	}
	return marginTop + rows*RowHeight + marginBottom
}

// Render writes the timeline as a PNG.
func Render(w io.Writer, tl Timeline) error {
	days := tl.Days()
	img := image.NewNRGBA(image.Rect(0, 0, Width, Height(len(days))))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	drawText(img, 8, 16, tl.Title)
	plotWidth := Width - marginLeft - marginRight
	for h := 0; h <= 24; h += 3 {
		x := marginLeft + plotWidth*h/24
		fill(img, image.Rect(x, marginTop-4, x+1, img.Bounds().Dy()-marginBottom), gridColor)
		drawText(img, x-6, marginTop-8, fmt.Sprintf("%02d", h%24))
	}

	if len(days) == 0 {
		drawText(img, marginLeft, marginTop+15, "no entries")
		return encode(w, img)
	}

	loc := tl.location()
	for row, day := range days {
		top := marginTop + row*RowHeight
		drawText(img, 8, top+15, day.Format("Mon 02 Jan"))
		fill(img, image.Rect(marginLeft, top+RowHeight-1, Width-marginRight, top+RowHeight), gridColor)

		next := day.AddDate(0, 0, 1)
		for i := range tl.Entries {
			e := &tl.Entries[i]
			start := e.Start.In(loc)
			end := start.Add(e.Span())
			if !start.Before(next) || end.Before(day) || (end.Equal(day) && !start.Equal(day)) {
				continue
			}
			if start.Before(day) {
				start = day
			}
			if end.After(next) {
				end = next
			}

			x0 := marginLeft + int(float64(plotWidth)*start.Sub(day).Hours()/24)
			x1 := marginLeft + int(float64(plotWidth)*end.Sub(day).Hours()/24)
			if x1-x0 < minBarWidth {
				x1 = x0 + minBarWidth
			}
			fill(img, image.Rect(x0, top+3, x1, top+RowHeight-4), colorFor(e.Kind()))
		}
	}
	return encode(w, img)
}

func (tl Timeline) location() *time.Location {
	if tl.Location == nil {
		return time.UTC
	}
	return tl.Location
}

func midnight(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

func colorFor(kind entry.Kind) color.NRGBA {
	if c, ok := kindColors[kind]; ok {
		return c
	}
	return textColor
}

func fill(img draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(img, r.Intersect(img.Bounds()), image.NewUniform(c), image.Point{}, draw.Src)
}

func drawText(img draw.Image, x, y int, s string) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(textColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func encode(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode chart: %w", err)
	}
	return nil
}
