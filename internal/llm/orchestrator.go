package llm

import (
	"context"
	"fmt"
	"log"
)

const (
	// SourceNone marks the templated apology returned when every provider failed.
	SourceNone = "none"

	failureSummaryLen = 120
)

// DefaultSystemPrompt frames fallback replies.
const DefaultSystemPrompt = "Eres un asistente de finanzas personales en un chat. " +
	"Responde en español, de forma breve y amable. Si el usuario quiere registrar un gasto, " +
	"ingreso, deuda o ahorro, recuérdale que escriba el monto, por ejemplo: \"Almuerzo 15\"."

// Endpoint pairs a provider with its optional throttle gate.
type Endpoint struct {
	Provider Provider
	Gate     *Gate
}

// Answer is the outcome of Respond.
type Answer struct {
	Text   string
	Source string
}

// Orchestrator asks the primary provider and falls back to the secondary one.
type Orchestrator struct {
	primary   Endpoint
	secondary Endpoint
	policy    RetryPolicy
	system    string
}

func NewOrchestrator(primary, secondary Endpoint, policy RetryPolicy, system string) *Orchestrator {
	if system == "" {
		system = DefaultSystemPrompt
	}
	return &Orchestrator{primary: primary, secondary: secondary, policy: policy, system: system}
}

// Respond never fails: when both providers fail it returns an apology.
func (o *Orchestrator) Respond(ctx context.Context, prompt string) Answer {
	var failures []string
	for _, ep := range []Endpoint{o.primary, o.secondary} {
		if ep.Provider == nil {
			continue
		}
		p := ep.Provider
		text, err := o.policy.Do(ctx, ep.Gate, func(ctx context.Context) (string, error) {
			return p.Complete(ctx, o.system, prompt)
		})
		if err == nil {
			log.Printf("llm: answered by %s", p.Name())
			return Answer{Text: text, Source: p.Name()}
		}
		log.Printf("llm: %s failed: %v", p.Name(), err)
		failures = append(failures, fmt.Sprintf("%s: %s", p.Name(), truncate(err.Error(), failureSummaryLen)))
	}
	return Answer{Text: apology(failures), Source: SourceNone}
}

func apology(failures []string) string {
	msg := "Lo siento, ahora mismo no puedo responder. Inténtalo de nuevo en unos minutos."
	if len(failures) == 0 {
		return msg + " (no hay proveedores configurados)"
	}
	msg += " ("
	for i, f := range failures {
		if i > 0 {
			msg += " | "
		}
		msg += f
	}
	return msg + ")"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
