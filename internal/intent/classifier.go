// Package intent turns free-text chat messages into draft transactions.
package intent

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/susu3304/finbot/internal/ledger"
	"github.com/susu3304/finbot/internal/textnorm"
)

// ErrNoAmount means the text carries no amount and is not a transaction.
var ErrNoAmount = errors.New("no amount in message")

var amountRe = regexp.MustCompile(`['"]?(\d+(?:\.\d{1,2})?)['"]?`)

const (
	markerYesterday          = "ayer"
	markerDayBeforeYesterday = "anteayer"
	markerToday              = "hoy"
)

type Classifier struct {
	kw  ledger.Keywords
	loc *time.Location
}

// New builds a classifier over a folded keyword table.
func New(kw ledger.Keywords, loc *time.Location) *Classifier {
	if loc == nil {
		loc = time.UTC
	}
	return &Classifier{kw: kw, loc: loc}
}

func (c *Classifier) Location() *time.Location { return c.loc }

func (c *Classifier) Keywords() ledger.Keywords { return c.kw }

// IsReminder reports whether the text asks for a reminder.
func (c *Classifier) IsReminder(text string) bool {
	_, ok := textnorm.ContainsAny(textnorm.Fold(text), c.kw.Reminder)
	return ok
}

// Classify extracts a draft from text. It returns ErrNoAmount when no amount is present.
func (c *Classifier) Classify(text string, now time.Time) (ledger.Draft, error) {
	loc := amountRe.FindStringSubmatchIndex(text)
	if loc == nil {
		return ledger.Draft{}, ErrNoAmount
	}
	amount, err := decimal.NewFromString(text[loc[2]:loc[3]])
	if err != nil {
		return ledger.Draft{}, ErrNoAmount
	}

	folded := textnorm.Fold(text)
	kind, triggered := c.detectKind(folded)
	category, found := c.DetectCategory(folded)
	if !found {
		category = ledger.DefaultCategory(kind)
	}

	d := ledger.Draft{
		Kind:      kind,
		Ambiguous: !triggered && !found,
		Amount:    amount.Round(2),
		Category:  category,
		Date:      ResolveDate(folded, now, c.loc),
	}
	d.Description = c.cleanDescription(text[:loc[0]]+" "+text[loc[1]:], category)
	return d, nil
}

func (c *Classifier) detectKind(folded string) (ledger.Kind, bool) {
	if _, ok := textnorm.ContainsAny(folded, c.kw.Income); ok {
		return ledger.KindIncome, true
	}
	if _, ok := textnorm.ContainsAny(folded, c.kw.Debt); ok {
		return ledger.KindDebt, true
	}
	if _, ok := textnorm.ContainsAny(folded, c.kw.Goal); ok {
		return ledger.KindGoal, true
	}
	return ledger.KindExpense, false
}

// DetectCategory returns the first category with a keyword inside folded.
func (c *Classifier) DetectCategory(folded string) (string, bool) {
	for _, cat := range c.kw.Categories {
		if _, ok := textnorm.ContainsAny(folded, cat.Keywords); ok {
			return cat.Name, true
		}
	}
	return "", false
}

func (c *Classifier) cleanDescription(rest, category string) string {
	drop := make(map[string]bool)
	for _, w := range c.kw.Triggers() {
		drop[w] = true
	}
	for _, w := range c.kw.Stop {
		drop[w] = true
	}

	var kept []string
	for _, tok := range strings.Fields(rest) {
		if drop[textnorm.Fold(textnorm.TrimToken(tok))] {
			continue
		}
		kept = append(kept, tok)
	}
	desc := strings.TrimSpace(strings.Join(kept, " "))
	if desc == "" {
		return category
	}
	return textnorm.Capitalize(desc)
}

// ResolveDate maps today / ayer / anteayer in folded text to a calendar date in loc.
func ResolveDate(folded string, now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	switch {
	case strings.Contains(folded, markerDayBeforeYesterday):
		return today.AddDate(0, 0, -2)
	case strings.Contains(folded, markerYesterday):
		return today.AddDate(0, 0, -1)
	}
	return today
}

// ParseDate accepts an ISO date or a relative keyword (hoy, ayer, anteayer).
func ParseDate(input string, now time.Time, loc *time.Location) (time.Time, bool) {
	folded := strings.TrimSpace(textnorm.Fold(input))
	switch folded {
	case markerToday, markerYesterday, markerDayBeforeYesterday:
		return ResolveDate(folded, now, loc), true
	}
	d, err := time.ParseInLocation(ledger.DateLayout, folded, loc)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}
