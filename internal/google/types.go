package google

// CalendarListEntry is one calendar from the user's calendar list.
type CalendarListEntry struct {
	ID      string `json:"id"`
	Summary string `json:"summary"`
	Primary bool   `json:"primary,omitempty"`
}

type calendarListResponse struct {
	Items []CalendarListEntry `json:"items"`
}

// Calendar is the body used when creating a secondary calendar.
type Calendar struct {
	ID          string `json:"id,omitempty"`
	Summary     string `json:"summary"`
	Description string `json:"description,omitempty"`
	TimeZone    string `json:"timeZone,omitempty"`
}

// EventTime is a Calendar API start/end marker. Exactly one of Date
// (all-day, YYYY-MM-DD) or DateTime (RFC 3339) is set.
type EventTime struct {
	Date     string `json:"date,omitempty"`
	DateTime string `json:"dateTime,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

// Event is a Calendar API event resource. Only the fields the bot touches
// are mapped; the rest round-trips through the provider untouched.
type Event struct {
	ID          string     `json:"id,omitempty"`
	Status      string     `json:"status,omitempty"`
	Summary     string     `json:"summary,omitempty"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	HTMLLink    string     `json:"htmlLink,omitempty"`
	Start       *EventTime `json:"start,omitempty"`
	End         *EventTime `json:"end,omitempty"`
}

type eventsResponse struct {
	Items []*Event `json:"items"`
}

// TaskList is a Tasks API task list.
type TaskList struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type taskListsResponse struct {
	Items []TaskList `json:"items"`
}

// Task is a Tasks API task resource.
type Task struct {
	ID     string `json:"id,omitempty"`
	Title  string `json:"title"`
	Notes  string `json:"notes,omitempty"`
	Status string `json:"status,omitempty"` // needsAction or completed
	Due    string `json:"due,omitempty"`    // RFC 3339, date part is significant
}

type tasksResponse struct {
	Items []*Task `json:"items"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
