// Package intent defines the structured record the AI layer extracts from a
// message and the OpenAI-backed classifier, transcription and speech
// clients that produce and voice it.
package intent

// Kind tags a Record with the classified purpose of the message.
type Kind string

const (
	KindTodo          Kind = "TODO"
	KindEvent         Kind = "EVENT"
	KindNote          Kind = "NOTE"
	KindQueryCalendar Kind = "QUERY_CALENDAR"
	KindQueryTasks    Kind = "QUERY_TASKS"
	KindUpdateEvent   Kind = "UPDATE_EVENT"
	KindDeleteEvent   Kind = "DELETE_EVENT"
	KindCompleteTask  Kind = "COMPLETE_TASK"
	KindSummary       Kind = "SUMMARY"
	KindChat          Kind = "CHAT"
	KindUnknown       Kind = "UNKNOWN"
)

// Record is the normalized output of the classifier. Only Intent is
// guaranteed present; the router treats every other field as optional and
// degrades gracefully when one is missing.
type Record struct {
	Intent         Kind   `json:"intent"`
	Title          string `json:"title,omitempty"`
	Description    string `json:"description,omitempty"`
	Date           string `json:"date,omitempty"` // YYYY-MM-DD
	Time           string `json:"time,omitempty"` // HH:MM
	Category       string `json:"category,omitempty"`
	QueryType      string `json:"query_type,omitempty"` // today, tomorrow, week, specific, overdue
	TargetEvent    string `json:"target_event,omitempty"`
	NewDate        string `json:"new_date,omitempty"`
	NewTime        string `json:"new_time,omitempty"`
	TargetCalendar string `json:"target_calendar,omitempty"`
	Reply          string `json:"reply,omitempty"` // CHAT free-text answer

	// Raw is the classifier's unparsed JSON output, kept for the
	// "zítra" date fallback heuristic.
	Raw string `json:"-"`
}

// knownKinds guards against the model inventing intent values.
var knownKinds = map[Kind]bool{
	KindTodo: true, KindEvent: true, KindNote: true,
	KindQueryCalendar: true, KindQueryTasks: true,
	KindUpdateEvent: true, KindDeleteEvent: true, KindCompleteTask: true,
	KindSummary: true, KindChat: true, KindUnknown: true,
}

// normalize coerces unrecognized intents to UNKNOWN.
func (r *Record) normalize() {
	if !knownKinds[r.Intent] {
		r.Intent = KindUnknown
	}
}
