// Package messages centralizes the Czech user-facing message catalog.
// Every string a user can see in chat lives here so wording changes in one
// place and tests can assert against the catalog.
package messages

import (
	"fmt"
	"strings"
)

// Fixed strings.
const (
	CalendarToday    = "📅 Dnešek"
	CalendarTomorrow = "📅 Zítřek"
	CalendarWeek     = "📅 Tento týden"
	CalendarEvents   = "📅 Události"
	NoEvents         = "📅 Nemáš žádné nadcházející události."
	NoEventsToday    = "📅 Žádné události na dnešek"

	NoTasks      = "✅ Nemáš žádné nesplněné úkoly!"
	NoTasksToday = "\n✅ Žádné nesplněné úkoly"

	SummaryHeader        = "📊 **Přehled dne:**\n"
	SummaryEvents        = "📅 **Události:**"
	SummaryTasks         = "\n📋 **Úkoly:**"
	SummaryVoiceIntro    = "Přehled tvého dne:"
	SummaryVoiceEvents   = "Události:"
	SummaryVoiceTasks    = "Úkoly:"
	SummaryVoiceNoEvents = "Nemáš žádné události na dnešek."
	SummaryVoiceNoTasks  = "Nemáš žádné nesplněné úkoly."

	CategoryWork     = "Práce"
	CategoryPersonal = "Osobní"
	AllDay           = "Celý den"

	ChatFallback  = "🤖 Rozumím, ale nevím co s tím. Zkus to říct jinak."
	ConnectGoogle = "🔗 Nejdřív si propoj Google účet přes /api/v1/google/auth, ať můžu pracovat s kalendářem a úkoly."

	UpdateMissingDate = "❓ Nevím, na kdy událost přesunout. Přidej nové datum nebo čas."
)

// EventAlreadyInCalendar reports a move whose target equals the source.
func EventAlreadyInCalendar(calendar string) string {
	return fmt.Sprintf("ℹ️ Událost už je v kalendáři **%s**.", calendar)
}

// EventCreated confirms a new calendar event.
func EventCreated(emoji, category, title, link string) string {
	return fmt.Sprintf("%s Přidáno do kalendáře **%s**!\n\n**%s**\n🔗 %s", emoji, category, title, link)
}

// TaskCreated confirms a new task.
func TaskCreated(title string) string {
	return fmt.Sprintf("✅ Úkol přidán do Google Tasks!\n\n**%s**", title)
}

// NoteSaved confirms a note synced to the dashboard.
func NoteSaved(title string) string {
	return fmt.Sprintf("📝 Poznámka uložena!\n\n**%s**", title)
}

// NoteSavedLocal is the degraded confirmation when the dashboard rejected the note.
func NoteSavedLocal(title string) string {
	return fmt.Sprintf("📝 Poznámka zachycena: **%s**\n(Nebyla synchronizována do dashboardu)", title)
}

// NoteFallback is the most degraded confirmation when the dashboard was unreachable.
func NoteFallback(title string) string {
	return fmt.Sprintf("📝 Poznámka zachycena: **%s**", title)
}

// TasksHeader renders the pending-tasks header with an optional overdue count.
func TasksHeader(count, overdue int) string {
	header := fmt.Sprintf("📋 Úkoly (%d", count)
	if overdue > 0 {
		header += fmt.Sprintf(", ⚠️ %d prošlých", overdue)
	}
	return header + "):"
}

// EventMoved confirms an event moved between the two calendars.
func EventMoved(emoji, title, calendar string) string {
	return fmt.Sprintf("%s Událost **%s** přesunuta do kalendáře **%s**!", emoji, title, calendar)
}

// EventUpdated confirms a rescheduled event, appending the changed fields.
func EventUpdated(title, newDate, newTime string) string {
	msg := fmt.Sprintf("✅ Událost **%s** přesunuta!", title)
	if newDate != "" {
		msg += fmt.Sprintf("\n📅 Nové datum: %s", newDate)
	}
	if newTime != "" {
		msg += fmt.Sprintf("\n⏰ Nový čas: %s", newTime)
	}
	return msg
}

// EventDeleted confirms a cancelled event.
func EventDeleted(title string) string {
	return fmt.Sprintf("🗑️ Událost **%s** zrušena!", title)
}

// MultipleEventsFound asks the user to disambiguate between matched events.
func MultipleEventsFound(count int, list []string) string {
	return fmt.Sprintf("🔍 Nalezeno %d událostí:\n%s\n\nUpřesni prosím kterou myslíš.", count, strings.Join(list, "\n"))
}

// MultipleEventsDelete asks the user which of the matched events to cancel.
func MultipleEventsDelete(count int, list []string) string {
	return fmt.Sprintf("🔍 Nalezeno %d událostí:\n%s\n\nUpřesni prosím kterou zrušit.", count, strings.Join(list, "\n"))
}

// EventNotFound reports an empty fuzzy search.
func EventNotFound(query string) string {
	return fmt.Sprintf("❌ Nenašel jsem událost obsahující '%s'", query)
}

// MultipleTasksFound asks the user to disambiguate between matched tasks.
func MultipleTasksFound(count int, list []string) string {
	return fmt.Sprintf("🔍 Nalezeno %d úkolů:\n%s\n\nUpřesni prosím který myslíš.", count, strings.Join(list, "\n"))
}

// TaskNotFound reports no pending task matching the query.
func TaskNotFound(query string) string {
	return fmt.Sprintf("❌ Nenašel jsem úkol obsahující '%s'", query)
}

// TaskCompleted confirms a completed task.
func TaskCompleted(title string) string {
	return fmt.Sprintf("✅ Úkol **%s** splněn!", title)
}

// VoiceTranscribed is the feedback message after voice transcription.
func VoiceTranscribed(text, intent string) string {
	return fmt.Sprintf("🎤 Přepsáno: %s\n\n🤖 Zpracováno jako: %s", text, intent)
}

// TextSaved is the generic capture acknowledgement.
func TextSaved(title string) string {
	return fmt.Sprintf("✅ Zapsáno: %s", title)
}

// Reminder renders the pre-event reminder notification.
func Reminder(emoji, title, timeStr string) string {
	msg := fmt.Sprintf("⏰ **Za 15 minut:** %s %s", emoji, title)
	if timeStr != "" {
		msg += fmt.Sprintf("\n🕐 %s", timeStr)
	}
	return msg
}

// ActionFailed renders a provider failure verbatim, without markdown styling,
// so special characters in the provider message cannot break formatting.
func ActionFailed(reason string) string {
	return "❌ " + reason
}
