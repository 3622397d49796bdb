package conversation

import (
	"fmt"
	"strconv"

	"github.com/susu3304/finbot/internal/ledger"
)

const (
	msgCancelled       = "Operación cancelada."
	msgNothingPending  = "No hay ninguna operación pendiente."
	msgStale           = "Esta opción ya no está disponible."
	msgNotFound        = "No encontré ese registro; puede que haya sido eliminado."
	msgStoreFailure    = "Lo siento, tuve un problema guardando la información. Inténtalo de nuevo en un momento."
	msgReplaced        = "ℹ️ Descarté la operación pendiente anterior."
	msgAskTime         = "¿Para cuándo? Indícalo por ejemplo así: «en 10 min», «en 2 horas» o «a las 6 pm»."
	msgAskType         = "Elige el tipo con los botones o escribe gasto, ingreso, deuda o ahorro (o «cancelar»)."
	msgAskDays         = "Elige una opción, escribe cuántos días quieres esperar o responde «no»."
	msgNoReceipt       = "No encontré un comprobante en la imagen. Prueba con una foto más nítida."
	msgReceiptFailed   = "No pude leer la imagen ahora mismo; inténtalo más tarde o escribe el monto."
	msgNoReminder      = "Entendido, sin recordatorio."
	msgUndone          = "🗑️ Registro eliminado."
	msgInvalidAmount   = "El monto debe ser un número positivo, por ejemplo 25.50. Inténtalo de nuevo o escribe «cancelar»."
	msgInvalidDate     = "Usa el formato AAAA-MM-DD o escribe hoy, ayer o anteayer. Inténtalo de nuevo o escribe «cancelar»."
	msgInvalidText     = "El valor no puede estar vacío. Inténtalo de nuevo o escribe «cancelar»."
	msgDebtReminderAsk = "¿Quieres que te recuerde pagar esta deuda?"
)

var debtReminderDays = []int{1, 3, 7}

func confirmTypeButtons() []Button {
	buttons := make([]Button, 0, len(ledger.Kinds)+1)
	for _, k := range ledger.Kinds {
		buttons = append(buttons, Button{Label: k.Label(), Token: Token(ActionConfirmType, string(k))})
	}
	return append(buttons, Button{Label: "Cancelar", Token: Token(ActionCancel, "")})
}

func recordButtons(ref ledger.RecordRef) []Button {
	return []Button{
		{Label: "Editar", Token: Token(ActionEditMenu, ref.String())},
		{Label: "Deshacer", Token: Token(ActionUndo, ref.String())},
	}
}

func editMenuButtons(ref ledger.RecordRef) []Button {
	buttons := make([]Button, 0, len(ledger.Fields)+1)
	for _, f := range ledger.Fields {
		buttons = append(buttons, Button{Label: f.Label(), Token: Token(ActionEditField, editFieldParam(f, ref))})
	}
	return append(buttons, Button{Label: "Cancelar", Token: Token(ActionCancel, "")})
}

func debtReminderButtons() []Button {
	buttons := make([]Button, 0, len(debtReminderDays)+1)
	for _, d := range debtReminderDays {
		buttons = append(buttons, Button{Label: daysLabel(d), Token: Token(ActionDebtRemind, strconv.Itoa(d))})
	}
	return append(buttons, Button{Label: "No, gracias", Token: Token(ActionNoRemind, "")})
}

func daysLabel(d int) string {
	switch d {
	case 1:
		return "1 día"
	case 7:
		return "1 semana"
	}
	return fmt.Sprintf("%d días", d)
}

func confirmPrompt(d ledger.Draft) string {
	return fmt.Sprintf("Detecté %s · %s · %s. ¿Qué tipo de movimiento es?",
		ledger.FormatAmount(d.Amount), d.Description, d.DateString())
}

func recordSummary(kind ledger.Kind, amount, category, description, date string) string {
	return fmt.Sprintf("%s: %s · %s · %s · %s", kind.Label(), amount, category, description, date)
}

func committedText(ref ledger.RecordRef, d ledger.Draft) string {
	return "✅ Registrado. " + recordSummary(ref.Kind, ledger.FormatAmount(d.Amount), d.Category, d.Description, d.DateString())
}

func recordText(rec ledger.Record) string {
	return recordSummary(rec.Ref.Kind, ledger.FormatAmount(rec.Amount), rec.Category, rec.Description, rec.Date.Format(ledger.DateLayout))
}

func goalText(g ledger.Goal, amount string) string {
	return fmt.Sprintf("🎯 Ahorro registrado: %s para «%s». Llevas %s.", amount, g.Name, ledger.FormatAmount(g.Saved))
}

func editPrompt(f ledger.Field, rec ledger.Record) string {
	switch f {
	case ledger.FieldAmount:
		return fmt.Sprintf("Escribe el nuevo monto (actual: %s).", ledger.FormatAmount(rec.Amount))
	case ledger.FieldCategory:
		return fmt.Sprintf("Escribe la nueva categoría (actual: %s).", rec.Category)
	case ledger.FieldDescription:
		return fmt.Sprintf("Escribe la nueva descripción (actual: %s).", rec.Description)
	case ledger.FieldDate:
		return fmt.Sprintf("Escribe la nueva fecha AAAA-MM-DD, o hoy/ayer/anteayer (actual: %s).", rec.Date.Format(ledger.DateLayout))
	}
	return "Escribe el nuevo valor."
}

func reminderConfirmation(r ledger.Reminder) string {
	return fmt.Sprintf("🔔 Listo, te recordaré «%s» el %s a las %s.",
		r.Description, r.ScheduledAt.Format(ledger.DateLayout), r.ScheduledAt.Format("15:04"))
}
