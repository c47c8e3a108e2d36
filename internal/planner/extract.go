package planner

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Slot extraction is deliberately regex-based: the upstream NLP layer is out
// of scope here, and unextractable slots route to a clarification question
// instead of a bad guess.

var (
	reTimeframeToday = regexp.MustCompile(`(?i)bugün|today`)
	reTimeframeWeek  = regexp.MustCompile(`(?i)hafta|week`)
	reTimeframeMonth = regexp.MustCompile(`(?i)ay|month`)

	reEventTitle = regexp.MustCompile(`(?i)toplantı(?:sı)?\s*["']?([^"'\n]+)["']?`)
	reClockTime  = regexp.MustCompile(`(?i)(\d{1,2}):(\d{2})|(\d{1,2})\s*saatte?`)
	reDate       = regexp.MustCompile(`(?i)(\d{1,2})\.(\d{1,2})\.(\d{4})|yarın|bugün`)

	reTaskTitle     = regexp.MustCompile(`(?i)görevi?\s*["']?([^"'\n]+)["']?`)
	reTaskTitleTodo = regexp.MustCompile(`(?i)yapılacak(?:lar)?\s*["']?([^"'\n]+)["']?`)

	reNoteTitle   = regexp.MustCompile(`(?i)notu?\s*["']?([^"'\n]+)["']?`)
	reNoteContent = regexp.MustCompile(`(?i)içeri[kğ]i?\s*["']?([^"'\n]+)["']?`)
)

// extractTimeframe maps temporal words to a summary timeframe. Empty when
// the message names none; the caller defaults to "today".
func extractTimeframe(message string) string {
	switch {
	case reTimeframeToday.MatchString(message):
		return "today"
	case reTimeframeWeek.MatchString(message):
		return "week"
	case reTimeframeMonth.MatchString(message):
		return "month"
	default:
		return ""
	}
}

type eventSlots struct {
	Title string
	Start time.Time
	End   time.Time
}

// extractEventSlots pulls a title and a start time out of the message.
// Start requires both a date word and a clock time; a zero Start means the
// slot is missing. End defaults to one hour after Start.
func extractEventSlots(message string, now time.Time) eventSlots {
	var slots eventSlots

	if m := reEventTitle.FindStringSubmatch(message); m != nil {
		slots.Title = strings.TrimSpace(m[1])
	}

	dateMatch := reDate.FindStringSubmatch(message)
	timeMatch := reClockTime.FindStringSubmatch(message)
	if dateMatch == nil || timeMatch == nil {
		return slots
	}

	hour, minute := parseClock(timeMatch)
	if hour < 0 || hour > 23 || minute > 59 {
		return slots
	}

	var day time.Time
	switch strings.ToLower(dateMatch[0]) {
	case "bugün":
		day = now
	case "yarın":
		day = now.AddDate(0, 0, 1)
	default:
		d, _ := strconv.Atoi(dateMatch[1])
		mo, _ := strconv.Atoi(dateMatch[2])
		y, _ := strconv.Atoi(dateMatch[3])
		if mo < 1 || mo > 12 || d < 1 || d > 31 {
			return slots
		}
		day = time.Date(y, time.Month(mo), d, 0, 0, 0, 0, now.Location())
	}

	slots.Start = time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, now.Location())
	slots.End = slots.Start.Add(time.Hour)
	return slots
}

// parseClock reads "14:30" or "14 saatte" style matches. Returns -1 hour
// when neither alternative captured.
func parseClock(m []string) (hour, minute int) {
	switch {
	case m[1] != "":
		hour, _ = strconv.Atoi(m[1])
		minute, _ = strconv.Atoi(m[2])
	case m[3] != "":
		hour, _ = strconv.Atoi(m[3])
	default:
		return -1, 0
	}
	return hour, minute
}

type taskSlots struct {
	Title    string
	Priority string
}

func extractTaskSlots(message string) taskSlots {
	slots := taskSlots{Priority: "medium"}
	if m := reTaskTitle.FindStringSubmatch(message); m != nil {
		slots.Title = strings.TrimSpace(m[1])
	} else if m := reTaskTitleTodo.FindStringSubmatch(message); m != nil {
		slots.Title = strings.TrimSpace(m[1])
	}
	return slots
}

type noteSlots struct {
	Title   string
	Content string
}

func extractNoteSlots(message string) noteSlots {
	var slots noteSlots
	if m := reNoteTitle.FindStringSubmatch(message); m != nil {
		slots.Title = strings.TrimSpace(m[1])
	}
	if m := reNoteContent.FindStringSubmatch(message); m != nil {
		slots.Content = strings.TrimSpace(m[1])
	}
	return slots
}
