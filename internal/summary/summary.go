// Package summary composes the daily overview shared by the on-demand
// SUMMARY intent and the scheduled morning digest.
package summary

import (
	"fmt"

	"github.com/mujagent/freshbrain/internal/calendar"
	"github.com/mujagent/freshbrain/internal/messages"
	"github.com/mujagent/freshbrain/internal/tasks"
)

// taskDisplayLimit caps how many tasks the summary shows. The input is
// already sorted overdue-first, so the cap keeps the urgent ones.
const taskDisplayLimit = 5

// Build composes today's events and pending tasks into display lines and a
// parallel speech-friendly variant. It is deterministic: identical input
// yields byte-identical output, with no clock or randomness involved.
func Build(events []calendar.Event, pending []tasks.Task) (display, speech []string) {
	display = []string{messages.SummaryHeader}
	speech = []string{messages.SummaryVoiceIntro}

	if len(events) > 0 {
		display = append(display, messages.SummaryEvents)
		speech = append(speech, messages.SummaryVoiceEvents)
		for _, event := range events {
			timeStr := event.StartClock()
			if timeStr == "" {
				timeStr = messages.AllDay
			}
			display = append(display, fmt.Sprintf("  %s %s - %s", event.Emoji, timeStr, event.Title))
			speech = append(speech, fmt.Sprintf("%s %s", timeStr, event.Title))
		}
	} else {
		display = append(display, messages.NoEventsToday)
		speech = append(speech, messages.SummaryVoiceNoEvents)
	}

	if len(pending) > 0 {
		display = append(display, messages.SummaryTasks)
		speech = append(speech, messages.SummaryVoiceTasks)
		for i, task := range pending {
			if i == taskDisplayLimit {
				break
			}
			prefix := "☐"
			if task.IsOverdue {
				prefix = "⚠️"
			}
			display = append(display, fmt.Sprintf("  %s %s", prefix, task.Title))
			speech = append(speech, task.Title)
		}
	} else {
		display = append(display, messages.NoTasksToday)
		speech = append(speech, messages.SummaryVoiceNoTasks)
	}

	return display, speech
}
