package conversation

import (
	"fmt"
	"strings"

	"github.com/susu3304/finbot/internal/ledger"
)

const (
	ActionEditMenu    = "EDIT_MENU"
	ActionEditField   = "EDIT_FIELD"
	ActionCancel      = "CANCEL"
	ActionConfirmType = "CONFIRM_TYPE"
	ActionDebtRemind  = "DEBT_REMIND"
	ActionNoRemind    = "NO_REMIND"
	ActionUndo        = "UNDO"
)

var knownActions = map[string]bool{
	ActionEditMenu:    true,
	ActionEditField:   true,
	ActionCancel:      true,
	ActionConfirmType: true,
	ActionDebtRemind:  true,
	ActionNoRemind:    true,
	ActionUndo:        true,
}

// Token builds an ACTION:PARAM callback token.
func Token(action, param string) string {
	return action + ":" + param
}

// ParseToken splits a callback token, rejecting unknown actions.
func ParseToken(token string) (action, param string, ok bool) {
	action, param, found := strings.Cut(token, ":")
	if !found || !knownActions[action] {
		return "", "", false
	}
	return action, param, true
}

func editFieldParam(f ledger.Field, ref ledger.RecordRef) string {
	return fmt.Sprintf("%s@%s", f, ref)
}

func parseEditFieldParam(param string) (ledger.Field, ledger.RecordRef, error) {
	fieldStr, refStr, ok := strings.Cut(param, "@")
	if !ok {
		return "", ledger.RecordRef{}, fmt.Errorf("invalid edit field parameter %q", param)
	}
	f, err := ledger.ParseField(fieldStr)
	if err != nil {
		return "", ledger.RecordRef{}, err
	}
	ref, err := ledger.ParseRecordRef(refStr)
	if err != nil {
		return "", ledger.RecordRef{}, err
	}
	return f, ref, nil
}
