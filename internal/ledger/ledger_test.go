package ledger

import (
	"testing"
)

func TestParseRecordRef(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    RecordRef
		wantErr bool
	}{
		{name: "expense", in: "expense-42", want: RecordRef{Kind: KindExpense, ID: 42}},
		{name: "debt", in: "debt-7", want: RecordRef{Kind: KindDebt, ID: 7}},
		{name: "missing id", in: "income-", wantErr: true},
		{name: "unknown kind", in: "loan-3", wantErr: true},
		{name: "no separator", in: "expense42", wantErr: true},
		{name: "negative id", in: "goal--1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRecordRef(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRecordRef(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseRecordRef(%q) = %v, want %v", tt.in, got, tt.want)
			}
			if !tt.wantErr && got.String() != tt.in {
				t.Errorf("String() = %q, want %q", got.String(), tt.in)
			}
		})
	}
}

func TestDraftRetype(t *testing.T) {
	d := Draft{Kind: KindExpense, Ambiguous: true, Category: "Varios", Description: "Varios"}
	d.Retype(KindIncome)
	if d.Kind != KindIncome || d.Ambiguous {
		t.Fatalf("Retype() kind = %v ambiguous = %v", d.Kind, d.Ambiguous)
	}
	if d.Category != "Otros" || d.Description != "Otros" {
		t.Errorf("Retype() category = %q description = %q, want Otros", d.Category, d.Description)
	}

	d = Draft{Kind: KindExpense, Category: "Transporte", Description: "Taxi"}
	d.Retype(KindDebt)
	if d.Category != "Transporte" || d.Description != "Taxi" {
		t.Errorf("Retype() changed a detected category: %+v", d)
	}
}

func TestParseKeywordsKeepsDefaults(t *testing.T) {
	kw, err := ParseKeywords([]byte(`{"income": ["Propina"], "categories": [{"name": "Mascotas", "keywords": ["Veterinaria"]}]}`))
	if err != nil {
		t.Fatalf("ParseKeywords() error = %v", err)
	}
	if len(kw.Income) != 1 || kw.Income[0] != "propina" {
		t.Errorf("Income = %v, want [propina]", kw.Income)
	}
	if len(kw.Debt) == 0 || len(kw.Reminder) == 0 {
		t.Errorf("default sections were not kept: %+v", kw)
	}
	if kw.Categories[0].Name != "Mascotas" || kw.Categories[0].Keywords[0] != "veterinaria" {
		t.Errorf("Categories = %+v", kw.Categories)
	}

	if _, err := ParseKeywords([]byte(`{`)); err == nil {
		t.Errorf("ParseKeywords() expected error for malformed JSON")
	}
}

func TestCategoryName(t *testing.T) {
	kw := DefaultKeywords().Folded()
	if got, ok := kw.CategoryName("alimentacion"); !ok || got != "Alimentación" {
		t.Errorf("CategoryName() = %q, %v", got, ok)
	}
	if _, ok := kw.CategoryName("viajes"); ok {
		t.Errorf("CategoryName() matched an unknown category")
	}
}
