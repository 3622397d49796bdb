package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/susu3304/finbot/internal/ledger"
)

// ErrNoReceipt means the model saw no receipt in the image.
var ErrNoReceipt = errors.New("no receipt detected")

const receiptPrompt = `Analiza la imagen. Si es un comprobante, boleta, factura o voucher de pago, ` +
	`responde SOLO con un objeto JSON estricto con esta forma: ` +
	`{"amount": <número total pagado>, "description": "<comercio o concepto breve>", ` +
	`"date": "<YYYY-MM-DD o vacío>", "type": "<expense|income>"}. ` +
	`Si no hay un comprobante, responde exactamente: null`

// Receipt is the structured content read from an image.
type Receipt struct {
	Amount      decimal.Decimal
	Description string
	Date        time.Time
	Kind        ledger.Kind
}

type rawReceipt struct {
	Amount      json.RawMessage `json:"amount"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
	Type        string          `json:"type"`
}

// ReceiptExtractor reads receipts through the vision-capable endpoints, in order.
type ReceiptExtractor struct {
	endpoints []Endpoint
	policy    RetryPolicy
	loc       *time.Location
}

func NewReceiptExtractor(policy RetryPolicy, loc *time.Location, endpoints ...Endpoint) *ReceiptExtractor {
	if loc == nil {
		loc = time.UTC
	}
	return &ReceiptExtractor{endpoints: endpoints, policy: policy, loc: loc}
}

// Extract returns ErrNoReceipt when the image holds no receipt.
func (x *ReceiptExtractor) Extract(ctx context.Context, image []byte, mime string) (Receipt, error) {
	var lastErr error = errors.New("no vision provider configured")
	for _, ep := range x.endpoints {
		vp, ok := ep.Provider.(VisionProvider)
		if !ok {
			continue
		}
		text, err := x.policy.Do(ctx, ep.Gate, func(ctx context.Context) (string, error) {
			return vp.Describe(ctx, receiptPrompt, image, mime)
		})
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", vp.Name(), err)
			continue
		}
		r, err := ParseReceipt(text, x.loc)
		if err == nil || errors.Is(err, ErrNoReceipt) {
			return r, err
		}
		lastErr = fmt.Errorf("%s: %w", vp.Name(), err)
	}
	return Receipt{}, lastErr
}

// ParseReceipt decodes the model reply, tolerating markdown code fences.
func ParseReceipt(text string, loc *time.Location) (Receipt, error) {
	body := strings.TrimSpace(text)
	body = strings.TrimPrefix(body, "```json")
	body = strings.TrimPrefix(body, "```")
	body = strings.TrimSuffix(body, "```")
	body = strings.TrimSpace(body)
	if body == "" || strings.EqualFold(body, "null") {
		return Receipt{}, ErrNoReceipt
	}

	start, end := strings.Index(body, "{"), strings.LastIndex(body, "}")
	if start == -1 || end < start {
		return Receipt{}, fmt.Errorf("no JSON object in receipt reply: %s", truncate(body, failureSummaryLen))
	}
	var raw rawReceipt
	if err := json.Unmarshal([]byte(body[start:end+1]), &raw); err != nil {
		return Receipt{}, fmt.Errorf("parse receipt JSON: %w", err)
	}

	amount, err := decimal.NewFromString(strings.Trim(strings.TrimSpace(string(raw.Amount)), `"`))
	if err != nil || !amount.IsPositive() {
		return Receipt{}, ErrNoReceipt
	}

	r := Receipt{
		Amount:      amount.Round(2),
		Description: strings.TrimSpace(raw.Description),
		Kind:        ledger.KindExpense,
	}
	if k, err := ledger.ParseKind(raw.Type); err == nil {
		r.Kind = k
	}
	if d, err := time.ParseInLocation(ledger.DateLayout, strings.TrimSpace(raw.Date), loc); err == nil {
		r.Date = d
	}
	return r, nil
}
