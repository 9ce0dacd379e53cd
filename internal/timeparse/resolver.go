// Package timeparse turns free-text or structured date expressions into
// absolute timestamps on the process-local clock.
package timeparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// Resolver resolves a date expression relative to now. The boolean is false
// when nothing in text could be read as a date or time.
type Resolver interface {
	Resolve(text string, now time.Time) (time.Time, bool)
}

// ResolverFunc adapts a plain function to Resolver.
type ResolverFunc func(text string, now time.Time) (time.Time, bool)

func (f ResolverFunc) Resolve(text string, now time.Time) (time.Time, bool) {
	return f(text, now)
}

var (
	pastWords = regexp.MustCompile(`(?i)\b(ago|yesterday|last|earlier|past)\b`)

	// clockOnly matches a bare time of day: "10:30", "3:30 PM", "07:05:09".
	clockOnly = regexp.MustCompile(`(?i)^(\d{1,2}):(\d{2})(?::(\d{2}))?\s*([ap])?\.?m?\.?$`)

	// embeddedDate finds an ISO or slash date, with an optional clock, inside
	// a sentence.
	embeddedDate = regexp.MustCompile(`(?i)\b(?:\d{4}-\d{1,2}-\d{1,2}(?:[ T]\d{1,2}:\d{2}(?::\d{2})?)?|\d{1,2}/\d{1,2}/\d{4}(?:\s+\d{1,2}:\d{2}(?::\d{2})?(?:\s*[ap]m)?)?)`)

	weekdayPrefix = regexp.MustCompile(`(?i)^(?:monday|tuesday|wednesday|thursday|friday|saturday|sunday),?\s+`)
	fourDigitYear = regexp.MustCompile(`\b\d{4}\b`)
)

// absoluteLayouts are tried before dateparse. The first one is what the web
// client sends for structured bookings.
var absoluteLayouts = []string{
	"Monday, January 2, 2006 3:04 PM",
	"Monday, January 2, 2006 15:04",
	"Monday, January 2, 2006",
	"January 2, 2006 3:04 PM",
	"January 2, 2006 15:04",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
}

// NaturalResolver accepts absolute dates ("2026-10-20 15:30",
// "Tuesday, October 20, 2026 3:30 PM"), bare clock times ("10:30") and
// English expressions embedded in a sentence ("dentist tomorrow at 3pm").
// Clock times and expressions that only name a time of day which already
// passed today are moved to the next day.
type NaturalResolver struct {
	parser *when.Parser
}

func New() *NaturalResolver {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &NaturalResolver{parser: w}
}

func (r *NaturalResolver) Resolve(text string, now time.Time) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}

	loc := now.Location()
	if t, ok := parseClock(text, now); ok {
		return t, true
	}
	if t, ok := parseLayout(text, loc); ok {
		return t, true
	}
	if m := embeddedDate.FindString(text); m != "" && m != text {
		if t, ok := parseAbsolute(m, loc); ok {
			return t, true
		}
	}
	if t, ok := parseAbsolute(text, loc); ok {
		return t, true
	}

	res, err := r.parser.Parse(text, now)
	if err != nil || res == nil {
		return time.Time{}, false
	}

	t := res.Time
	if t.Before(now) && sameDay(t, now) && !pastWords.MatchString(res.Text) {
		t = t.AddDate(0, 0, 1)
	}
	return t, true
}

// parseClock resolves a bare time of day to its next occurrence after now.
func parseClock(text string, now time.Time) (time.Time, bool) {
	m := clockOnly.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	second := 0
	if m[3] != "" {
		second, _ = strconv.Atoi(m[3])
	}
	if minute > 59 || second > 59 {
		return time.Time{}, false
	}
	switch strings.ToLower(m[4]) {
	case "":
		if hour > 23 {
			return time.Time{}, false
		}
	case "a", "p":
		if hour < 1 || hour > 12 {
			return time.Time{}, false
		}
		hour %= 12
		if strings.EqualFold(m[4], "p") {
			hour += 12
		}
	}

	y, mo, d := now.Date()
	t := time.Date(y, mo, d, hour, minute, second, 0, now.Location())
	if t.Before(now) {
		t = t.AddDate(0, 0, 1)
	}
	return t, true
}

// parseLayout matches text against the known absolute layouts only.
func parseLayout(text string, loc *time.Location) (time.Time, bool) {
	// Layout AM/PM markers only match upper case; month and weekday names
	// match in any case.
	upper := strings.ToUpper(text)
	for _, layout := range absoluteLayouts {
		if t, err := time.ParseInLocation(layout, upper, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseAbsolute reads text as a complete calendar date, optionally with a
// clock time. Results without a real year are rejected.
func parseAbsolute(text string, loc *time.Location) (time.Time, bool) {
	if t, ok := parseLayout(text, loc); ok {
		return t, true
	}
	if !looksAbsolute(text) {
		return time.Time{}, false
	}
	t, err := dateparse.ParseIn(weekdayPrefix.ReplaceAllString(text, ""), loc)
	if err != nil || t.Year() < 1000 {
		return time.Time{}, false
	}
	return t, true
}

// looksAbsolute keeps dateparse away from sentences and bare numbers, which it
// would otherwise read as unix timestamps.
func looksAbsolute(text string) bool {
	return strings.ContainsAny(text, "-/:") || fourDigitYear.MatchString(text)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
