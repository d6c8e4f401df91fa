// Package entry models the childcare events logged against a baby.
//
// An Entry carries the fields common to every event (start, optional end, optional note) and a
// Details value holding the variant-specific data. Details is a closed set: BreastFeed,
// BottleFeed, MixedFeed, Sleep and NappyChange.
package entry

import "time"

// Kind is the discriminator stored with every entry.
type Kind string

const (
	KindBreastFeed  Kind = "breast_feed"
	KindBottleFeed  Kind = "bottle_feed"
	KindMixedFeed   Kind = "mixed_feed"
	KindSleep       Kind = "sleep"
	KindNappyChange Kind = "nappy_change"
)

// Kinds lists every kind in display order.
var Kinds = []Kind{KindBreastFeed, KindBottleFeed, KindMixedFeed, KindSleep, KindNappyChange}

// Contents describes what a nappy held.
type Contents string

const (
	ContentsWet   Contents = "wet"
	ContentsDirty Contents = "dirty"
	ContentsNone  Contents = "none"
)

// Details is the variant-specific part of an entry.
type Details interface {
	Kind() Kind
	details()
}

// BreastFeed records time spent on each side.
type BreastFeed struct {
	LeftDuration  time.Duration
	RightDuration time.Duration
}

// BottleFeed records the amount given, in millilitres.
type BottleFeed struct {
	Amount int
}

// MixedFeed is a breast feed followed by a bottle top-up. It shares BreastFeed's field
// shapes but is a separate kind.
type MixedFeed struct {
	LeftDuration  time.Duration
	RightDuration time.Duration
	Topup         int
}

// Sleep records how long the baby slept.
type Sleep struct {
	Duration time.Duration
}

// NappyChange records the contents of a changed nappy.
type NappyChange struct {
	Contents Contents
}

func (*BreastFeed) Kind() Kind  { return KindBreastFeed }
func (*BottleFeed) Kind() Kind  { return KindBottleFeed }
func (*MixedFeed) Kind() Kind   { return KindMixedFeed }
func (*Sleep) Kind() Kind       { return KindSleep }
func (*NappyChange) Kind() Kind { return KindNappyChange }

func (*BreastFeed) details()  {}
func (*BottleFeed) details()  {}
func (*MixedFeed) details()   {}
func (*Sleep) details()       {}
func (*NappyChange) details() {}

// Entry is one logged event. BabyID is the owning baby; an entry is never shared.
type Entry struct {
	ID        uint
	BabyID    uint
	Start     time.Time
	End       *time.Time
	Note      string
	Details   Details
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Kind reports the entry's discriminator.
func (e *Entry) Kind() Kind {
	if e == nil || e.Details == nil {
		return ""
	}
	return e.Details.Kind()
}

// Segment is the entry's path segment in the resource tree.
func (e *Entry) Segment() string {
	return formatID(e.ID)
}

// Span returns how long the event lasted. An explicit end wins; otherwise the variant's own
// durations are used. Entries with neither report zero.
func (e *Entry) Span() time.Duration {
	if e.End != nil && e.End.After(e.Start) {
		return e.End.Sub(e.Start)
	}
	switch d := e.Details.(type) {
	case *BreastFeed:
		return d.LeftDuration + d.RightDuration
	case *MixedFeed:
		return d.LeftDuration + d.RightDuration
	case *Sleep:
		return d.Duration
	}
	return 0
}
