package ledger

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/susu3304/finbot/internal/textnorm"
)

// Category maps a label to the keywords that select it.
type Category struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
}

// Keywords is the static keyword table consulted by the classifiers.
// Categories are matched in slice order, so earlier entries win ties.
type Keywords struct {
	Categories []Category `json:"categories"`
	Income     []string   `json:"income"`
	Debt       []string   `json:"debt"`
	Goal       []string   `json:"goal"`
	Reminder   []string   `json:"reminder"`
	Stop       []string   `json:"stop"`
}

func DefaultKeywords() Keywords {
	return Keywords{
		Categories: []Category{
			{Name: "Alimentación", Keywords: []string{"almuerzo", "desayuno", "cena", "comida", "menu", "restaurante", "pollo", "cafe", "mercado", "bodega", "snack", "bebida"}},
			{Name: "Transporte", Keywords: []string{"taxi", "uber", "bus", "combi", "pasaje", "gasolina", "grifo", "metro", "peaje", "estacionamiento"}},
			{Name: "Servicios", Keywords: []string{"luz", "agua", "internet", "telefono", "celular", "cable", "recibo"}},
			{Name: "Salud", Keywords: []string{"farmacia", "medicina", "doctor", "clinica", "pastillas", "consulta", "dentista"}},
			{Name: "Entretenimiento", Keywords: []string{"cine", "netflix", "spotify", "juego", "fiesta", "concierto", "salida"}},
			{Name: "Educación", Keywords: []string{"curso", "libro", "universidad", "colegio", "matricula", "pension", "utiles"}},
			{Name: "Hogar", Keywords: []string{"alquiler", "renta", "limpieza", "mueble", "ferreteria"}},
			{Name: "Ropa", Keywords: []string{"ropa", "zapatillas", "zapatos", "polo", "pantalon", "casaca"}},
			{Name: "Compras", Keywords: []string{"tienda", "supermercado", "compra"}},
		},
		Income:   []string{"ingreso", "cobre", "recibi", "sueldo", "salario", "gane", "pagaron", "deposito"},
		Debt:     []string{"debo", "deuda", "prestamo", "preste", "prestaron", "fiado"},
		Goal:     []string{"ahorro", "ahorre", "ahorrar", "meta", "alcancia"},
		Reminder: []string{"recuerdame", "recordarme", "recordatorio", "avisame", "recordar"},
		Stop:     []string{"gasto", "gaste", "soles", "sol", "hoy", "ayer", "anteayer"},
	}
}

// LoadKeywords reads a JSON keyword table, falling back to the defaults
// when path is empty or the file cannot be used.
func LoadKeywords(path string) Keywords {
	if path == "" {
		return DefaultKeywords().Folded()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("keywords: %q not readable, using built-in table: %v", path, err)
		return DefaultKeywords().Folded()
	}
	kw, err := ParseKeywords(data)
	if err != nil {
		log.Printf("keywords: %v, using built-in table", err)
		return DefaultKeywords().Folded()
	}
	log.Printf("keywords: loaded %d categories from %s", len(kw.Categories), path)
	return kw
}

// ParseKeywords decodes a JSON table; sections left empty keep their defaults.
func ParseKeywords(data []byte) (Keywords, error) {
	var kw Keywords
	if err := json.Unmarshal(data, &kw); err != nil {
		return Keywords{}, fmt.Errorf("parse keyword table: %w", err)
	}
	def := DefaultKeywords()
	if len(kw.Categories) == 0 {
		kw.Categories = def.Categories
	}
	for _, pair := range []struct {
		dst *[]string
		src []string
	}{
		{&kw.Income, def.Income},
		{&kw.Debt, def.Debt},
		{&kw.Goal, def.Goal},
		{&kw.Reminder, def.Reminder},
		{&kw.Stop, def.Stop},
	} {
		if len(*pair.dst) == 0 {
			*pair.dst = pair.src
		}
	}
	return kw.Folded(), nil
}

// Folded returns a copy with every keyword case and accent folded.
func (k Keywords) Folded() Keywords {
	out := Keywords{
		Income:   foldAll(k.Income),
		Debt:     foldAll(k.Debt),
		Goal:     foldAll(k.Goal),
		Reminder: foldAll(k.Reminder),
		Stop:     foldAll(k.Stop),
	}
	for _, c := range k.Categories {
		out.Categories = append(out.Categories, Category{Name: c.Name, Keywords: foldAll(c.Keywords)})
	}
	return out
}

// Triggers returns every intent trigger word.
func (k Keywords) Triggers() []string {
	all := make([]string, 0, len(k.Income)+len(k.Debt)+len(k.Goal))
	all = append(all, k.Income...)
	all = append(all, k.Debt...)
	return append(all, k.Goal...)
}

// CategoryName returns the canonical label for a user-typed category, if known.
func (k Keywords) CategoryName(input string) (string, bool) {
	folded := textnorm.Fold(input)
	for _, c := range k.Categories {
		if textnorm.Fold(c.Name) == folded {
			return c.Name, true
		}
	}
	return "", false
}

func foldAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if f := textnorm.Fold(s); f != "" {
			out = append(out, f)
		}
	}
	return out
}
