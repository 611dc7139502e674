package calendar

import (
	"context"
	"time"

	"github.com/mujagent/freshbrain/internal/google"
	"github.com/mujagent/freshbrain/internal/textutil"
)

// searchWindow is how far ahead the fuzzy event search looks.
const searchWindow = 30 * 24 * time.Hour

// Search finds upcoming events across both managed calendars whose title
// contains the query, ignoring case and diacritics. Matching is substring
// containment, not edit distance; disambiguation is the caller's problem.
func (a *Actions) Search(ctx context.Context, creds *google.Credentials, userID, query string) ([]Event, error) {
	now := a.now().In(a.loc)
	events, err := a.collect(ctx, creds, userID, now, now.Add(searchWindow))
	if err != nil {
		return nil, err
	}

	var matches []Event
	for _, event := range events {
		if textutil.ContainsFold(event.Title, query) {
			matches = append(matches, event)
		}
	}
	return matches, nil
}
