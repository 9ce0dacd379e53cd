package timeparse_test

import (
	"testing"
	"time"

	"AppointmentReminder/internal/timeparse"
)

var now = time.Date(2026, 10, 15, 9, 0, 0, 0, time.Local)

func TestResolveAbsolute(t *testing.T) {
	r := timeparse.New()
	got, ok := r.Resolve("2026-10-20 15:30", now)
	if !ok {
		t.Fatal("absolute date not resolved")
	}
	want := time.Date(2026, 10, 20, 15, 30, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestResolveRelative(t *testing.T) {
	r := timeparse.New()
	got, ok := r.Resolve("remind me in 2 hours", now)
	if !ok {
		t.Fatal("relative expression not resolved")
	}
	if want := now.Add(2 * time.Hour); !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestResolveEmbeddedInSentence(t *testing.T) {
	r := timeparse.New()
	got, ok := r.Resolve("Call mom tomorrow at 10am", now)
	if !ok {
		t.Fatal("sentence not resolved")
	}
	if got.Day() != 16 || got.Hour() != 10 {
		t.Fatalf("got %v, want tomorrow 10:00", got)
	}
}

func TestResolvePassedTimeOfDayRollsForward(t *testing.T) {
	r := timeparse.New()
	got, ok := r.Resolve("standup at 8am", now)
	if !ok {
		t.Fatal("time of day not resolved")
	}
	if !got.After(now) || got.Day() != 16 || got.Hour() != 8 {
		t.Fatalf("got %v, want tomorrow 08:00", got)
	}
}

func TestResolveNothing(t *testing.T) {
	r := timeparse.New()
	for _, text := range []string{"", "   ", "hello there"} {
		if got, ok := r.Resolve(text, now); ok {
			t.Errorf("Resolve(%q) = %v, want no match", text, got)
		}
	}
}

func TestResolverFunc(t *testing.T) {
	var r timeparse.Resolver = timeparse.ResolverFunc(func(string, time.Time) (time.Time, bool) {
		return now, true
	})
	if got, ok := r.Resolve("anything", now); !ok || !got.Equal(now) {
		t.Fatalf("got %v %v", got, ok)
	}
}

func TestResolveClientDateFormat(t *testing.T) {
	r := timeparse.New()
	cases := []struct {
		text string
		want time.Time
	}{
		{"Tuesday, October 20, 2026 3:30 PM", time.Date(2026, 10, 20, 15, 30, 0, 0, time.Local)},
		{"Friday, October 16, 2026 12:00 AM", time.Date(2026, 10, 16, 0, 0, 0, 0, time.Local)},
		{"Thursday, October 15, 2026 11:45 PM", time.Date(2026, 10, 15, 23, 45, 0, 0, time.Local)},
		{"thursday, october 15, 2026 9:05 am", time.Date(2026, 10, 15, 9, 5, 0, 0, time.Local)},
		{"October 20, 2026 15:30", time.Date(2026, 10, 20, 15, 30, 0, 0, time.Local)},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			got, ok := r.Resolve(tc.text, now)
			if !ok {
				t.Fatal("not resolved")
			}
			if !got.Equal(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestResolveClockOnly(t *testing.T) {
	r := timeparse.New()
	cases := []struct {
		text string
		want time.Time
	}{
		{"10:30", time.Date(2026, 10, 15, 10, 30, 0, 0, time.Local)},
		{"3:30 PM", time.Date(2026, 10, 15, 15, 30, 0, 0, time.Local)},
		{"8:15", time.Date(2026, 10, 16, 8, 15, 0, 0, time.Local)},
		{"12:00 am", time.Date(2026, 10, 16, 0, 0, 0, 0, time.Local)},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			got, ok := r.Resolve(tc.text, now)
			if !ok {
				t.Fatal("not resolved")
			}
			if !got.Equal(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}

	for _, text := range []string{"25:00", "10:75", "13:00 PM"} {
		if got, ok := r.Resolve(text, now); ok && got.Year() < 2026 {
			t.Errorf("Resolve(%q) = %v, want no match or a real date", text, got)
		}
	}
}

func TestResolveDateInsideSentence(t *testing.T) {
	r := timeparse.New()
	cases := []struct {
		text string
		want time.Time
	}{
		{"dentist on 2026-10-20 15:30", time.Date(2026, 10, 20, 15, 30, 0, 0, time.Local)},
		{"pay rent on 10/20/2026", time.Date(2026, 10, 20, 0, 0, 0, 0, time.Local)},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			got, ok := r.Resolve(tc.text, now)
			if !ok {
				t.Fatal("not resolved")
			}
			if !got.Equal(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}
