// Package reminder parses reminder requests and dispatches due reminders.
package reminder

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/susu3304/finbot/internal/textnorm"
)

// ErrNoTime means no relative or absolute time expression was found.
var ErrNoTime = errors.New("no time expression in reminder")

// PlaceholderDescription is used when nothing is left after stripping triggers and times.
const PlaceholderDescription = "Recordatorio"

// rolloverTolerance keeps "a las 3" said at 2:59:58 from landing in the past.
const rolloverTolerance = 5 * time.Second

var (
	relativeRe = regexp.MustCompile(`(?i)\ben\s+(\d{1,4})\s*(minutos?|mins?|horas?|hrs?)\b`)
	// The meridiem only counts when no letter follows it, so "a mi" is not "am".
	absoluteRe = regexp.MustCompile(`(?i)\ba\s+las?\s+(\d{1,2})(?::(\d{2}))?(?:\s*(a\.?\s?m\.?|p\.?\s?m\.?)(?:[^\p{L}\d]|$))?`)
)

// Parsed is the outcome of a successful reminder parse.
type Parsed struct {
	At          time.Time
	Description string
}

type Parser struct {
	triggers []string
	loc      *time.Location
}

// NewParser builds a parser that strips the folded trigger words from descriptions.
func NewParser(triggers []string, loc *time.Location) *Parser {
	if loc == nil {
		loc = time.UTC
	}
	return &Parser{triggers: triggers, loc: loc}
}

// Parse resolves the reminder instant relative to now.
func (p *Parser) Parse(text string, now time.Time) (Parsed, error) {
	now = now.In(p.loc)

	var (
		at      time.Time
		matched []int
	)
	if m := relativeRe.FindStringSubmatchIndex(text); m != nil {
		n, _ := strconv.Atoi(text[m[2]:m[3]])
		unit := strings.ToLower(text[m[4]:m[5]])
		if strings.HasPrefix(unit, "min") {
			at = now.Add(time.Duration(n) * time.Minute)
		} else {
			at = now.Add(time.Duration(n) * time.Hour)
		}
		matched = m
	} else if m := absoluteRe.FindStringSubmatchIndex(text); m != nil {
		t, ok := p.absolute(text, m, now)
		if !ok {
			return Parsed{}, ErrNoTime
		}
		at = t
		matched = m
	} else {
		return Parsed{}, ErrNoTime
	}

	rest := text[:matched[0]] + " " + text[matched[1]:]
	return Parsed{At: at, Description: p.describe(rest)}, nil
}

func (p *Parser) absolute(text string, m []int, now time.Time) (time.Time, bool) {
	digitsEnd := m[3]
	if m[4] >= 0 {
		digitsEnd = m[5]
	}
	if digitsEnd < len(text) && text[digitsEnd] >= '0' && text[digitsEnd] <= '9' {
		return time.Time{}, false
	}

	hour, _ := strconv.Atoi(text[m[2]:m[3]])
	minute := 0
	if m[4] >= 0 {
		minute, _ = strconv.Atoi(text[m[4]:m[5]])
	}
	if minute > 59 {
		return time.Time{}, false
	}
	if m[6] >= 0 {
		if hour < 1 || hour > 12 {
			return time.Time{}, false
		}
		meridiem := strings.ToLower(text[m[6]:m[7]])
		switch {
		case strings.HasPrefix(meridiem, "p") && hour != 12:
			hour += 12
		case strings.HasPrefix(meridiem, "a") && hour == 12:
			hour = 0
		}
	}
	if hour > 23 {
		return time.Time{}, false
	}

	at := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, p.loc)
	if !at.After(now.Add(rolloverTolerance)) {
		at = at.AddDate(0, 0, 1)
	}
	return at, true
}

func (p *Parser) describe(rest string) string {
	var kept []string
	for _, tok := range strings.Fields(rest) {
		folded := textnorm.Fold(textnorm.TrimToken(tok))
		if p.isTrigger(folded) {
			continue
		}
		kept = append(kept, tok)
	}
	desc := strings.TrimSpace(strings.Join(kept, " "))
	if desc == "" {
		return PlaceholderDescription
	}
	return textnorm.Capitalize(desc)
}

func (p *Parser) isTrigger(folded string) bool {
	for _, t := range p.triggers {
		if folded == t {
			return true
		}
	}
	return false
}
