package calendar

import (
	"context"
	"testing"

	"github.com/mujagent/freshbrain/internal/google"
)

func TestSearchIgnoresCaseAndDiacritics(t *testing.T) {
	api := &fakeAPI{
		calendars: bothCalendars(),
		eventsByCalendar: map[string][]*google.Event{
			"work-cal": {
				{ID: "w1", Summary: "Schůzka s klientem", Start: &google.EventTime{DateTime: "2025-06-12T10:00:00+02:00"}},
				{ID: "w2", Summary: "Porada týmu", Start: &google.EventTime{DateTime: "2025-06-13T09:00:00+02:00"}},
			},
			"personal-cal": {
				{ID: "p1", Summary: "Zubař", Start: &google.EventTime{DateTime: "2025-06-14T08:00:00+02:00"}},
			},
		},
	}
	actions := newTestActions(api)

	tests := []struct {
		query string
		want  []string
	}{
		{"schuzka", []string{"w1"}},
		{"SCHŮZKA", []string{"w1"}},
		{"zubar", []string{"p1"}},
		{"týmu", []string{"w2"}},
		{"nic", nil},
	}

	for _, tt := range tests {
		matches, err := actions.Search(context.Background(), testCreds, "u1", tt.query)
		if err != nil {
			t.Fatalf("Search(%q) failed: %v", tt.query, err)
		}
		if len(matches) != len(tt.want) {
			t.Errorf("Search(%q) returned %d matches, want %d", tt.query, len(matches), len(tt.want))
			continue
		}
		for i, id := range tt.want {
			if matches[i].ID != id {
				t.Errorf("Search(%q)[%d] = %s, want %s", tt.query, i, matches[i].ID, id)
			}
		}
	}
}

func TestSearchAnnotatesCalendar(t *testing.T) {
	api := &fakeAPI{
		calendars: bothCalendars(),
		eventsByCalendar: map[string][]*google.Event{
			"personal-cal": {
				{ID: "p1", Summary: "Zubař", Start: &google.EventTime{DateTime: "2025-06-14T08:00:00+02:00"}},
			},
		},
	}
	actions := newTestActions(api)

	matches, err := actions.Search(context.Background(), testCreds, "u1", "zubař")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("got %d matches", len(matches))
	}
	m := matches[0]
	if m.CalendarID != "personal-cal" || m.CalendarType != CategoryPersonal || m.Emoji != "🏠" {
		t.Errorf("annotation = %+v", m)
	}
}
