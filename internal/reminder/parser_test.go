package reminder

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/susu3304/finbot/internal/ledger"
)

var lima = time.FixedZone("America/Lima", -5*60*60)

func newTestParser() *Parser {
	return NewParser(ledger.DefaultKeywords().Folded().Reminder, lima)
}

func TestParseRelative(t *testing.T) {
	p := newTestParser()
	now := time.Date(2026, 10, 18, 10, 0, 0, 0, lima)

	got, err := p.Parse("en 5 min avisame pagar luz", now)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	lo, hi := now.Add(4*time.Minute+59*time.Second), now.Add(5*time.Minute+time.Second)
	if got.At.Before(lo) || got.At.After(hi) {
		t.Errorf("Parse() At = %v, want within [%v, %v]", got.At, lo, hi)
	}
	if got.Description != "Pagar luz" {
		t.Errorf("Parse() Description = %q, want %q", got.Description, "Pagar luz")
	}
	for _, trigger := range p.triggers {
		if strings.Contains(strings.ToLower(got.Description), trigger) {
			t.Errorf("Description %q still contains trigger %q", got.Description, trigger)
		}
	}
}

func TestParse(t *testing.T) {
	p := newTestParser()
	now := time.Date(2026, 10, 18, 15, 0, 0, 0, lima)

	tests := []struct {
		name     string
		text     string
		wantAt   time.Time
		wantDesc string
	}{
		{
			name:     "hours",
			text:     "Recuérdame en 2 horas llamar al banco",
			wantAt:   now.Add(2 * time.Hour),
			wantDesc: "Llamar al banco",
		},
		{
			name:     "hr abbreviation",
			text:     "avisame en 1 hr",
			wantAt:   now.Add(time.Hour),
			wantDesc: PlaceholderDescription,
		},
		{
			name:     "absolute pm rolls over",
			text:     "a las 2 pm",
			wantAt:   time.Date(2026, 10, 19, 14, 0, 0, 0, lima),
			wantDesc: PlaceholderDescription,
		},
		{
			name:     "absolute later today",
			text:     "avísame a las 6:30 pm pagar el cable",
			wantAt:   time.Date(2026, 10, 18, 18, 30, 0, 0, lima),
			wantDesc: "Pagar el cable",
		},
		{
			name:     "twelve am is midnight",
			text:     "recordatorio a las 12 am sacar la basura",
			wantAt:   time.Date(2026, 10, 19, 0, 0, 0, 0, lima),
			wantDesc: "Sacar la basura",
		},
		{
			name:     "twelve pm is noon",
			text:     "a las 12 pm almuerzo con Ana, avísame",
			wantAt:   time.Date(2026, 10, 19, 12, 0, 0, 0, lima),
			wantDesc: "Almuerzo con Ana,",
		},
		{
			name:     "24h clock",
			text:     "recordar a las 21:15 tomar pastillas",
			wantAt:   time.Date(2026, 10, 18, 21, 15, 0, 0, lima),
			wantDesc: "Tomar pastillas",
		},
		{
			name:     "a followed by a word is not am",
			text:     "avisame a las 12 a mi mama",
			wantAt:   time.Date(2026, 10, 19, 12, 0, 0, 0, lima),
			wantDesc: "A mi mama",
		},
		{
			name:     "am written with dots",
			text:     "recuérdame a las 9 a.m. pagar el agua",
			wantAt:   time.Date(2026, 10, 19, 9, 0, 0, 0, lima),
			wantDesc: "Pagar el agua",
		},
		{
			name:     "pm glued to the hour",
			text:     "avisame a las 7pm",
			wantAt:   time.Date(2026, 10, 18, 19, 0, 0, 0, lima),
			wantDesc: PlaceholderDescription,
		},
		{
			name:     "same minute rolls over",
			text:     "a las 15:00 avisame",
			wantAt:   time.Date(2026, 10, 19, 15, 0, 0, 0, lima),
			wantDesc: PlaceholderDescription,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Parse(tt.text, now)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.text, err)
			}
			if !got.At.Equal(tt.wantAt) {
				t.Errorf("Parse(%q) At = %v, want %v", tt.text, got.At, tt.wantAt)
			}
			if got.Description != tt.wantDesc {
				t.Errorf("Parse(%q) Description = %q, want %q", tt.text, got.Description, tt.wantDesc)
			}
		})
	}
}

func TestParseNoTime(t *testing.T) {
	p := newTestParser()
	now := time.Date(2026, 10, 18, 15, 0, 0, 0, lima)
	for _, text := range []string{
		"avisame pagar la luz",
		"recuerdame mañana",
		"a las 25 avisame",
		"a las 13 pm avisame",
		"a las 10:75 avisame",
		"avisame a las 123",
		"avisame a las 10:305",
	} {
		if _, err := p.Parse(text, now); !errors.Is(err, ErrNoTime) {
			t.Errorf("Parse(%q) error = %v, want ErrNoTime", text, err)
		}
	}
}
