package view

import (
	"html/template"

	"github.com/babytracker/internal/entry"
)

// KindOption describes a selectable entry kind for forms.
type KindOption struct {
	Kind  entry.Kind
	Label string
	Icon  template.HTML
}

type kindIconAsset struct {
	Kind entry.Kind
	SVG  string
}

var (
	kindIconDefinitions = []kindIconAsset{
		{Kind: entry.KindBreastFeed, SVG: `<svg viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="1.5" stroke-linecap="round" stroke-linejoin="round"><path d="M12 20.25c4.556 0 8.25-3.694 8.25-8.25S16.556 3.75 12 3.75 3.75 7.444 3.75 12s3.694 8.25 8.25 8.25Z"/><path d="M12 13.5a1.5 1.5 0 1 0 0-3 1.5 1.5 0 0 0 0 3Z"/></svg>`},
		{Kind: entry.KindBottleFeed, SVG: `<svg viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="1.5" stroke-linecap="round" stroke-linejoin="round"><path d="M10.5 2.25h3M9.75 5.25h4.5l-.75-3h-3l-.75 3ZM8.25 8.25c0-1.657 1.68-3 3.75-3s3.75 1.343 3.75 3v11.25a2.25 2.25 0 0 1-2.25 2.25h-3a2.25 2.25 0 0 1-2.25-2.25V8.25ZM8.25 12h3M8.25 15h3M8.25 18h3"/></svg>`},
		{Kind: entry.KindMixedFeed, SVG: `<svg viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="1.5" stroke-linecap="round" stroke-linejoin="round"><path d="M8.25 18.75a6 6 0 1 0 0-12 6 6 0 0 0 0 12Z"/><path d="M15.75 9.75h3v10.5a1.5 1.5 0 0 1-1.5 1.5h-.75a1.5 1.5 0 0 1-1.5-1.5v-.75M16.5 6.75h1.5l-.375-2.25h-.75L16.5 6.75Z"/></svg>`},
		{Kind: entry.KindSleep, SVG: `<svg viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="1.5" stroke-linecap="round" stroke-linejoin="round"><path d="M21.752 15.002A9.72 9.72 0 0 1 18 15.75c-5.385 0-9.75-4.365-9.75-9.75 0-1.33.266-2.597.748-3.752A9.753 9.753 0 0 0 3 11.25C3 16.635 7.365 21 12.75 21a9.753 9.753 0 0 0 9.002-5.998Z"/></svg>`},
		{Kind: entry.KindNappyChange, SVG: `<svg viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="1.5" stroke-linecap="round" stroke-linejoin="round"><path d="M3.75 6.75h16.5v3c0 5.385-3.694 9.75-8.25 9.75s-8.25-4.365-8.25-9.75v-3Z"/><path d="M3.75 9.75c2.25 0 3.75 1.5 4.5 3.75M20.25 9.75c-2.25 0-3.75 1.5-4.5 3.75"/></svg>`},
	}
	defaultKindIcon = kindIconAsset{SVG: `<svg viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="1.5" stroke-linecap="round" stroke-linejoin="round"><path d="M12 6v6h4.5m4.5 0a9 9 0 1 1-18 0 9 9 0 0 1 18 0Z"/></svg>`}
	kindIconLookup  = func() map[entry.Kind]kindIconAsset {
		lookup := make(map[entry.Kind]kindIconAsset, len(kindIconDefinitions))
		for _, icon := range kindIconDefinitions {
			lookup[icon.Kind] = icon
		}
		return lookup
	}()
)

// KindOptions lists every entry kind with its label and icon, in display order.
func KindOptions() []KindOption {
	options := make([]KindOption, 0, len(entry.Kinds))
	for _, schema := range entry.Schemas() {
		options = append(options, KindOption{Kind: schema.Kind, Label: schema.Label, Icon: KindIcon(schema.Kind)})
	}
	return options
}

// KindIcon resolves the SVG for a kind, falling back to a clock icon.
func KindIcon(kind entry.Kind) template.HTML {
	if icon, ok := kindIconLookup[kind]; ok {
		return template.HTML(icon.SVG)
	}
	return template.HTML(defaultKindIcon.SVG)
}

// KindLabel returns the display label of a kind, or the raw discriminator when unknown.
func KindLabel(kind entry.Kind) string {
	if schema := entry.SchemaFor(kind); schema != nil {
		return schema.Label
	}
	return string(kind)
}
