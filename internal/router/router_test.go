package router

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/mujagent/freshbrain/internal/calendar"
	"github.com/mujagent/freshbrain/internal/google"
	"github.com/mujagent/freshbrain/internal/intent"
	"github.com/mujagent/freshbrain/internal/notes"
	"github.com/mujagent/freshbrain/internal/tasks"
)

type fakeEvents struct {
	createResult *calendar.CreateResult
	createErr    error
	createCalls  int
	createInput  calendar.CreateEventInput

	updateResult *calendar.UpdateResult
	updateErr    error
	updatedDate  string
	updatedTime  string

	deleteTitle string
	deleteErr   error

	moveResult *calendar.MoveResult
	moveErr    error
	moveTarget calendar.Category
	moveCalls  int

	listResult   []calendar.Event
	listErr      error
	searchResult []calendar.Event
	searchErr    error
}

func (f *fakeEvents) CreateEvent(ctx context.Context, creds *google.Credentials, userID string, in calendar.CreateEventInput) (*calendar.CreateResult, error) {
	f.createCalls++
	f.createInput = in
	return f.createResult, f.createErr
}

func (f *fakeEvents) UpdateEvent(ctx context.Context, creds *google.Credentials, eventID, calendarID, newDate, newTime string) (*calendar.UpdateResult, error) {
	f.updatedDate = newDate
	f.updatedTime = newTime
	return f.updateResult, f.updateErr
}

func (f *fakeEvents) DeleteEvent(ctx context.Context, creds *google.Credentials, eventID, calendarID string) (string, error) {
	return f.deleteTitle, f.deleteErr
}

func (f *fakeEvents) MoveEvent(ctx context.Context, creds *google.Credentials, userID, eventID, sourceCalendarID string, target calendar.Category) (*calendar.MoveResult, error) {
	f.moveCalls++
	f.moveTarget = target
	return f.moveResult, f.moveErr
}

func (f *fakeEvents) ListEvents(ctx context.Context, creds *google.Credentials, userID, queryType, date string) ([]calendar.Event, error) {
	return f.listResult, f.listErr
}

func (f *fakeEvents) Search(ctx context.Context, creds *google.Credentials, userID, query string) ([]calendar.Event, error) {
	return f.searchResult, f.searchErr
}

type fakeTasks struct {
	createResult *tasks.CreateResult
	createErr    error

	pending    *tasks.PendingList
	pendingErr error

	completeResult *tasks.CompleteResult
	completedID    string
}

func (f *fakeTasks) CreateTask(ctx context.Context, creds *google.Credentials, title, notes, dueDate string) (*tasks.CreateResult, error) {
	return f.createResult, f.createErr
}

func (f *fakeTasks) ListPending(ctx context.Context, creds *google.Credentials) (*tasks.PendingList, error) {
	return f.pending, f.pendingErr
}

func (f *fakeTasks) CompleteTask(ctx context.Context, creds *google.Credentials, taskID string) (*tasks.CompleteResult, error) {
	f.completedID = taskID
	return f.completeResult, nil
}

type fakeNotes struct {
	err   error
	saved bool
}

func (f *fakeNotes) SaveNote(ctx context.Context, title, content, userID string) error {
	f.saved = f.err == nil
	return f.err
}

type fakeCreds struct {
	creds *google.Credentials
}

func (f *fakeCreds) GetTokens(ctx context.Context, userID string) (*google.Credentials, error) {
	return f.creds, nil
}

type fakeSender struct {
	messages []string
	voices   int
}

func (f *fakeSender) SendMessage(ctx context.Context, chatID int64, text string) error {
	f.messages = append(f.messages, text)
	return nil
}

func (f *fakeSender) SendVoice(ctx context.Context, chatID int64, audio []byte) error {
	f.voices++
	return nil
}

type fakeSpeaker struct {
	err error
}

func (f *fakeSpeaker) Speak(ctx context.Context, text string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte("audio"), nil
}

type fixture struct {
	events  *fakeEvents
	tasks   *fakeTasks
	notes   *fakeNotes
	sender  *fakeSender
	speaker *fakeSpeaker
	router  *Router
}

func newFixture(voiceReplies bool) *fixture {
	f := &fixture{
		events:  &fakeEvents{},
		tasks:   &fakeTasks{pending: &tasks.PendingList{}},
		notes:   &fakeNotes{},
		sender:  &fakeSender{},
		speaker: &fakeSpeaker{},
	}
	f.router = New(f.events, f.tasks, f.notes,
		&fakeCreds{creds: &google.Credentials{AccessToken: "token"}},
		f.sender, f.speaker, voiceReplies, nil)
	f.router.now = func() time.Time {
		return time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	}
	return f
}

func (f *fixture) dispatch(record *intent.Record) {
	f.router.Dispatch(context.Background(), "u1", 42, record)
}

func (f *fixture) lastMessage(t *testing.T) string {
	t.Helper()
	if len(f.sender.messages) == 0 {
		t.Fatal("no message sent")
	}
	return f.sender.messages[len(f.sender.messages)-1]
}

func TestDispatchUnknownIsSilent(t *testing.T) {
	f := newFixture(false)
	f.dispatch(&intent.Record{Intent: intent.KindUnknown})
	f.dispatch(nil)
	if len(f.sender.messages) != 0 {
		t.Errorf("unknown intent replied: %v", f.sender.messages)
	}
}

func TestDispatchWithoutCredentials(t *testing.T) {
	f := newFixture(false)
	f.router.creds = &fakeCreds{}

	f.dispatch(&intent.Record{Intent: intent.KindEvent, Title: "Porada", Date: "2025-06-12"})
	if got := f.lastMessage(t); !strings.Contains(got, "propoj Google účet") {
		t.Errorf("reply = %q", got)
	}
	if f.events.createCalls != 0 {
		t.Error("no provider call without credentials")
	}

	// Notes do not need Google and must still work.
	f.dispatch(&intent.Record{Intent: intent.KindNote, Title: "Nápad"})
	if got := f.lastMessage(t); !strings.Contains(got, "Poznámka uložena") {
		t.Errorf("note reply = %q", got)
	}
}

func TestDispatchEventWithoutDateSkipped(t *testing.T) {
	f := newFixture(false)
	f.dispatch(&intent.Record{Intent: intent.KindEvent, Title: "Porada"})
	if len(f.sender.messages) != 0 {
		t.Errorf("event without date replied: %v", f.sender.messages)
	}
	if f.events.createCalls != 0 {
		t.Error("event without date must not be created")
	}
}

func TestDispatchEventCreated(t *testing.T) {
	f := newFixture(false)
	f.events.createResult = &calendar.CreateResult{
		Title:    "Porada",
		Category: calendar.CategoryWork,
		Emoji:    "🧠",
		HTMLLink: "https://calendar.example/e1",
	}

	f.dispatch(&intent.Record{
		Intent:   intent.KindEvent,
		Title:    "Porada",
		Date:     "2025-06-12",
		Time:     "10:00",
		Category: "work",
	})

	got := f.lastMessage(t)
	if !strings.Contains(got, "Přidáno do kalendáře **Práce**") || !strings.Contains(got, "Porada") {
		t.Errorf("reply = %q", got)
	}
	if f.events.createInput.Category == nil || *f.events.createInput.Category != calendar.CategoryWork {
		t.Error("explicit category not passed through")
	}
}

func TestDispatchEventAutoCategory(t *testing.T) {
	f := newFixture(false)
	f.events.createResult = &calendar.CreateResult{Title: "x", Category: calendar.CategoryWork, Emoji: "🧠"}
	f.dispatch(&intent.Record{Intent: intent.KindEvent, Title: "x", Date: "2025-06-12"})
	if f.events.createInput.Category != nil {
		t.Error("absent category must stay nil for auto-detection")
	}
}

func TestDispatchTodo(t *testing.T) {
	f := newFixture(false)
	f.tasks.createResult = &tasks.CreateResult{Title: "Koupit dárek"}
	f.dispatch(&intent.Record{Intent: intent.KindTodo, Title: "Koupit dárek", Date: "2025-06-20"})
	if got := f.lastMessage(t); !strings.Contains(got, "Úkol přidán do Google Tasks") {
		t.Errorf("reply = %q", got)
	}
}

func TestDispatchNoteOutcomes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"synced", nil, "📝 Poznámka uložena!"},
		{"rejected", notes.ErrRejected, "Nebyla synchronizována"},
		{"unreachable", errors.New("dial tcp: timeout"), "📝 Poznámka zachycena: **Nápad**"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(false)
			f.notes.err = tt.err
			f.dispatch(&intent.Record{Intent: intent.KindNote, Title: "Nápad"})
			if got := f.lastMessage(t); !strings.Contains(got, tt.want) {
				t.Errorf("reply = %q, want substring %q", got, tt.want)
			}
		})
	}
}

func TestDispatchQueryCalendar(t *testing.T) {
	f := newFixture(false)
	f.dispatch(&intent.Record{Intent: intent.KindQueryCalendar, QueryType: "today"})
	if got := f.lastMessage(t); !strings.Contains(got, "žádné nadcházející události") {
		t.Errorf("empty reply = %q", got)
	}

	f.events.listResult = []calendar.Event{
		{Title: "Porada", Start: "2025-06-10T09:30:00+02:00", Emoji: "🧠"},
		{Title: "Dovolená", Start: "2025-06-10", Emoji: "🏠"},
	}
	f.dispatch(&intent.Record{Intent: intent.KindQueryCalendar, QueryType: "today"})
	got := f.lastMessage(t)
	if !strings.HasPrefix(got, "📅 Dnešek:") {
		t.Errorf("header missing: %q", got)
	}
	if !strings.Contains(got, "🧠 09:30 - Porada") || !strings.Contains(got, "🏠 Celý den - Dovolená") {
		t.Errorf("lines = %q", got)
	}
}

func TestDispatchQueryTasks(t *testing.T) {
	f := newFixture(false)
	f.tasks.pending = &tasks.PendingList{
		Tasks: []tasks.Task{
			{Title: "Prošlý", Due: "1.6.2025", IsOverdue: true},
			{Title: "Běžný"},
		},
		OverdueCount: 1,
	}
	f.dispatch(&intent.Record{Intent: intent.KindQueryTasks})
	got := f.lastMessage(t)
	if !strings.Contains(got, "📋 Úkoly (2, ⚠️ 1 prošlých):") {
		t.Errorf("header = %q", got)
	}
	if !strings.Contains(got, "⚠️ Prošlý (1.6.2025)") || !strings.Contains(got, "☐ Běžný") {
		t.Errorf("lines = %q", got)
	}
}

func TestDispatchUpdateEventMove(t *testing.T) {
	f := newFixture(false)
	f.events.searchResult = []calendar.Event{
		{ID: "e1", Title: "Schůzka", CalendarID: "work-cal", Start: "2025-06-12T10:00:00+02:00"},
	}
	f.events.moveResult = &calendar.MoveResult{Title: "Schůzka", TargetCalendar: "Osobní", Emoji: "🏠"}

	f.dispatch(&intent.Record{
		Intent:         intent.KindUpdateEvent,
		TargetEvent:    "schůzka",
		TargetCalendar: "personal",
	})

	if f.events.moveCalls != 1 || f.events.moveTarget != calendar.CategoryPersonal {
		t.Errorf("move calls = %d, target = %q", f.events.moveCalls, f.events.moveTarget)
	}
	if got := f.lastMessage(t); !strings.Contains(got, "přesunuta do kalendáře **Osobní**") {
		t.Errorf("reply = %q", got)
	}
}

func TestDispatchUpdateEventAlreadyInCalendar(t *testing.T) {
	f := newFixture(false)
	f.events.searchResult = []calendar.Event{{ID: "e1", Title: "Schůzka", CalendarID: "work-cal"}}
	f.events.moveErr = &calendar.AlreadyInCalendarError{Calendar: "Práce"}

	f.dispatch(&intent.Record{Intent: intent.KindUpdateEvent, TargetEvent: "schůzka", TargetCalendar: "work"})
	got := f.lastMessage(t)
	if !strings.HasPrefix(got, "ℹ️") || !strings.Contains(got, "Práce") {
		t.Errorf("reply = %q", got)
	}
}

func TestDispatchUpdateEventReschedule(t *testing.T) {
	f := newFixture(false)
	f.events.searchResult = []calendar.Event{{ID: "e1", Title: "Schůzka", CalendarID: "work-cal"}}
	f.events.updateResult = &calendar.UpdateResult{Title: "Schůzka"}

	f.dispatch(&intent.Record{
		Intent:      intent.KindUpdateEvent,
		TargetEvent: "schůzka",
		NewDate:     "2025-06-15",
		NewTime:     "14:00",
	})

	if f.events.updatedDate != "2025-06-15" || f.events.updatedTime != "14:00" {
		t.Errorf("update args = %q, %q", f.events.updatedDate, f.events.updatedTime)
	}
	got := f.lastMessage(t)
	if !strings.Contains(got, "Nové datum: 2025-06-15") || !strings.Contains(got, "Nový čas: 14:00") {
		t.Errorf("reply = %q", got)
	}
}

func TestDispatchUpdateEventTomorrowHeuristic(t *testing.T) {
	f := newFixture(false)
	f.events.searchResult = []calendar.Event{{ID: "e1", Title: "Schůzka", CalendarID: "work-cal"}}
	f.events.updateResult = &calendar.UpdateResult{Title: "Schůzka"}

	f.dispatch(&intent.Record{
		Intent:      intent.KindUpdateEvent,
		TargetEvent: "schůzka",
		Raw:         `{"intent":"UPDATE_EVENT","target_event":"schůzka","description":"přesuň na zítra"}`,
	})

	if f.events.updatedDate != "2025-06-11" {
		t.Errorf("heuristic date = %q, want tomorrow", f.events.updatedDate)
	}
}

func TestDispatchUpdateEventTomorrowHeuristicWithTime(t *testing.T) {
	f := newFixture(false)
	f.events.searchResult = []calendar.Event{{ID: "e1", Title: "Schůzka", CalendarID: "work-cal"}}
	f.events.updateResult = &calendar.UpdateResult{Title: "Schůzka"}

	f.dispatch(&intent.Record{
		Intent:      intent.KindUpdateEvent,
		TargetEvent: "schůzka",
		NewTime:     "10:00",
		Raw:         `{"intent":"UPDATE_EVENT","target_event":"schůzka","new_time":"10:00","description":"přesuň na zítra v 10"}`,
	})

	if f.events.updatedDate != "2025-06-11" {
		t.Errorf("heuristic date = %q, want tomorrow even with a new time", f.events.updatedDate)
	}
	if f.events.updatedTime != "10:00" {
		t.Errorf("new time = %q", f.events.updatedTime)
	}
}

func TestDispatchUpdateEventMissingDate(t *testing.T) {
	f := newFixture(false)
	f.events.searchResult = []calendar.Event{{ID: "e1", Title: "Schůzka", CalendarID: "work-cal"}}

	f.dispatch(&intent.Record{Intent: intent.KindUpdateEvent, TargetEvent: "schůzka", Raw: "{}"})
	if got := f.lastMessage(t); !strings.Contains(got, "Nevím, na kdy") {
		t.Errorf("reply = %q", got)
	}
	if f.events.updatedDate != "" {
		t.Error("update must not run without a target date or time")
	}
}

func TestDispatchUpdateEventDisambiguation(t *testing.T) {
	f := newFixture(false)
	for i := 0; i < 7; i++ {
		f.events.searchResult = append(f.events.searchResult, calendar.Event{
			ID:    fmt.Sprintf("e%d", i),
			Title: fmt.Sprintf("Schůzka %d", i),
			Start: "2025-06-12T10:00:00+02:00",
			Emoji: "🧠",
		})
	}

	f.dispatch(&intent.Record{Intent: intent.KindUpdateEvent, TargetEvent: "schůzka", NewDate: "2025-06-15"})
	got := f.lastMessage(t)
	if !strings.Contains(got, "Nalezeno 7 událostí") {
		t.Errorf("count missing: %q", got)
	}
	if !strings.Contains(got, "5. ") || strings.Contains(got, "6. ") {
		t.Errorf("list must cap at 5 candidates: %q", got)
	}
	if !strings.Contains(got, "Schůzka 0 (2025-06-12)") {
		t.Errorf("candidates must show title and start date: %q", got)
	}
	if f.events.updatedDate != "" {
		t.Error("ambiguous match must not update anything")
	}
}

func TestDispatchDeleteEvent(t *testing.T) {
	f := newFixture(false)
	f.events.searchResult = []calendar.Event{{ID: "e1", Title: "Zubař", CalendarID: "personal-cal"}}
	f.events.deleteTitle = "Zubař"

	f.dispatch(&intent.Record{Intent: intent.KindDeleteEvent, TargetEvent: "zubař"})
	if got := f.lastMessage(t); !strings.Contains(got, "Událost **Zubař** zrušena") {
		t.Errorf("reply = %q", got)
	}
}

func TestDispatchDeleteEventNotFound(t *testing.T) {
	f := newFixture(false)
	f.dispatch(&intent.Record{Intent: intent.KindDeleteEvent, TargetEvent: "neexistuje"})
	if got := f.lastMessage(t); !strings.Contains(got, "Nenašel jsem událost obsahující 'neexistuje'") {
		t.Errorf("reply = %q", got)
	}
}

func TestDispatchCompleteTask(t *testing.T) {
	f := newFixture(false)
	f.tasks.pending = &tasks.PendingList{Tasks: []tasks.Task{
		{ID: "t1", Title: "Koupit dárek"},
		{ID: "t2", Title: "Zavolat mámě"},
	}}
	f.tasks.completeResult = &tasks.CompleteResult{Title: "Koupit dárek", Status: "completed"}

	f.dispatch(&intent.Record{Intent: intent.KindCompleteTask, TargetEvent: "dárek"})
	if f.tasks.completedID != "t1" {
		t.Errorf("completed %q, want t1", f.tasks.completedID)
	}
	if got := f.lastMessage(t); !strings.Contains(got, "Úkol **Koupit dárek** splněn") {
		t.Errorf("reply = %q", got)
	}
}

func TestDispatchCompleteTaskAmbiguous(t *testing.T) {
	f := newFixture(false)
	f.tasks.pending = &tasks.PendingList{Tasks: []tasks.Task{
		{ID: "t1", Title: "Zavolat mámě"},
		{ID: "t2", Title: "Zavolat doktorovi"},
	}}

	f.dispatch(&intent.Record{Intent: intent.KindCompleteTask, TargetEvent: "zavolat"})
	if got := f.lastMessage(t); !strings.Contains(got, "Nalezeno 2 úkolů") {
		t.Errorf("reply = %q", got)
	}
	if f.tasks.completedID != "" {
		t.Error("ambiguous match must not complete anything")
	}
}

func TestDispatchChat(t *testing.T) {
	f := newFixture(false)
	f.dispatch(&intent.Record{Intent: intent.KindChat, Reply: "Ahoj!"})
	if got := f.lastMessage(t); got != "Ahoj!" {
		t.Errorf("reply = %q", got)
	}

	f.dispatch(&intent.Record{Intent: intent.KindChat})
	if got := f.lastMessage(t); !strings.Contains(got, "Rozumím, ale nevím") {
		t.Errorf("fallback = %q", got)
	}
}

func TestDispatchDeleteFailureReported(t *testing.T) {
	f := newFixture(false)
	f.events.searchResult = []calendar.Event{{ID: "e1", Title: "Zubař", CalendarID: "personal-cal"}}
	f.events.deleteErr = errors.New("calendar API returned status 500")

	f.dispatch(&intent.Record{Intent: intent.KindDeleteEvent, TargetEvent: "zubař"})
	got := f.lastMessage(t)
	if !strings.HasPrefix(got, "❌ ") || !strings.Contains(got, "status 500") {
		t.Errorf("reply = %q", got)
	}
}

func TestDispatchCreateFailureStaysSilent(t *testing.T) {
	f := newFixture(false)
	f.events.createErr = errors.New("calendar API returned status 500")
	f.dispatch(&intent.Record{Intent: intent.KindEvent, Title: "x", Date: "2025-06-12"})
	if len(f.sender.messages) != 0 {
		t.Errorf("create failure replied: %v", f.sender.messages)
	}
}

func TestDispatchWithoutTargetEventSkipped(t *testing.T) {
	f := newFixture(false)
	f.events.searchResult = []calendar.Event{{ID: "e1", Title: "Schůzka", CalendarID: "work-cal"}}

	f.dispatch(&intent.Record{Intent: intent.KindUpdateEvent, NewDate: "2025-06-15"})
	f.dispatch(&intent.Record{Intent: intent.KindDeleteEvent})
	f.dispatch(&intent.Record{Intent: intent.KindCompleteTask, Title: "Koupit dárek"})

	if len(f.sender.messages) != 0 {
		t.Errorf("missing target replied: %v", f.sender.messages)
	}
	if f.events.updatedDate != "" || f.tasks.completedID != "" {
		t.Error("missing target must not touch the provider")
	}
}

func TestDispatchSummaryWithVoice(t *testing.T) {
	f := newFixture(true)
	f.events.listResult = []calendar.Event{{Title: "Porada", Start: "2025-06-10T09:30:00+02:00", Emoji: "🧠"}}

	f.dispatch(&intent.Record{Intent: intent.KindSummary})
	if got := f.lastMessage(t); !strings.Contains(got, "Přehled dne") || !strings.Contains(got, "Porada") {
		t.Errorf("digest = %q", got)
	}
	if f.sender.voices != 1 {
		t.Errorf("voices = %d, want 1", f.sender.voices)
	}
}

func TestDispatchSummarySpeechFailureKeepsText(t *testing.T) {
	f := newFixture(true)
	f.speaker.err = errors.New("tts down")

	f.dispatch(&intent.Record{Intent: intent.KindSummary})
	if len(f.sender.messages) != 1 {
		t.Fatalf("text digest missing: %v", f.sender.messages)
	}
	if f.sender.voices != 0 {
		t.Error("voice must not be sent after synthesis failure")
	}
}

func TestDispatchSummaryVoiceDisabled(t *testing.T) {
	f := newFixture(false)
	f.dispatch(&intent.Record{Intent: intent.KindSummary})
	if f.sender.voices != 0 {
		t.Error("voice reply sent while disabled")
	}
}
