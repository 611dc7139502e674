package calendar

import (
	"strings"

	"github.com/mujagent/freshbrain/internal/textutil"
)

// Keyword lists are stored pre-normalized (lowercase, no diacritics) and
// matched as substrings, so "schůzka", "Schuzka" and "schuzky" all score.
var workKeywords = []string{
	"schuzk", "meeting", "porada", "klient", "client", "deadline",
	"termin", "projekt", "project", "prezentace", "pohovor", "kancelar",
	"smlouva", "faktura", "standup", "review",
}

var personalKeywords = []string{
	"rodina", "family", "narozeniny", "birthday", "doktor", "doctor",
	"lekar", "zubar", "dovolena", "vylet", "deti", "manzel", "babicka",
	"nakup", "oslava", "trenink", "domov",
}

// DetectCategory scores free text against the work and personal keyword
// sets and picks a calendar category. Personal wins only on a strict
// majority; every other case, including no matches at all, resolves to
// work.
func DetectCategory(text string) Category {
	normalized := textutil.Normalize(text)

	workScore := 0
	for _, kw := range workKeywords {
		workScore += strings.Count(normalized, kw)
	}
	personalScore := 0
	for _, kw := range personalKeywords {
		personalScore += strings.Count(normalized, kw)
	}

	if personalScore > workScore {
		return CategoryPersonal
	}
	return CategoryWork
}
