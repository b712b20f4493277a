// Package mt103 renders a verified payment as a single-line MT103 single
// customer credit transfer.
package mt103

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvalidMessage = errors.New("mt103: invalid message input")

const (
	defaultPurpose     = "PAYMENT"
	defaultBeneficiary = "BENEFICIARY"
	chargeBearerOurs   = "OUR"
	bankOperationCode  = "CRED"
)

type Party struct {
	Name    string
	Account string
}

type Message struct {
	PaymentID        int64
	AmountMinorUnits int64
	Currency         string
	PurposeText      string
	// ReceiverBIC is the beneficiary institution.
	ReceiverBIC      string
	OrderingCustomer Party
	Beneficiary      Party
}

type Encoder struct {
	senderBIC string
	now       func() time.Time
}

type Option func(*Encoder)

func WithClock(now func() time.Time) Option {
	return func(e *Encoder) { e.now = now }
}

func NewEncoder(senderBIC string, opts ...Option) *Encoder {
	e := &Encoder{senderBIC: senderBIC, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type field struct {
	tag   string
	lines []string
}

type document struct {
	sender    string
	receiver  string
	reference string
	text      []field
}

func (e *Encoder) Encode(m Message) (string, error) {
	doc, err := e.build(m)
	if err != nil {
		return "", fmt.Errorf("Encode: %w", err)
	}
	return doc.serialize(), nil
}

func (e *Encoder) build(m Message) (*document, error) {
	if m.AmountMinorUnits <= 0 {
		return nil, fmt.Errorf("build: amount %d: %w", m.AmountMinorUnits, ErrInvalidMessage)
	}
	ccy := lettersUpper(m.Currency)
	if len(ccy) != 3 {
		return nil, fmt.Errorf("build: currency %q: %w", m.Currency, ErrInvalidMessage)
	}

	if m.PaymentID <= 0 {
		return nil, fmt.Errorf("build: payment id %d: %w", m.PaymentID, ErrInvalidMessage)
	}
	id := strconv.FormatInt(m.PaymentID, 10)
	if len(id) > maxReferenceLen {
		return nil, fmt.Errorf("build: payment id %s exceeds %d digits: %w", id, maxReferenceLen, ErrInvalidMessage)
	}
	valueDate := e.now().UTC().Format("060102")
	amount := decimal.New(m.AmountMinorUnits, -2).StringFixed(2)

	purpose := freeText(m.PurposeText, maxRemittanceLen)
	if purpose == "" {
		purpose = defaultPurpose
	}
	beneficiaryName := freeText(m.Beneficiary.Name, maxNameLen)
	if beneficiaryName == "" {
		beneficiaryName = defaultBeneficiary
	}

	return &document{
		sender:    logicalTerminal(e.senderBIC),
		receiver:  logicalTerminal(m.ReceiverBIC),
		reference: reference("APDS", id),
		text: []field{
			{tag: "20", lines: []string{reference("PAY", id)}},
			{tag: "23B", lines: []string{bankOperationCode}},
			{tag: "32A", lines: []string{valueDate + ccy + amount}},
			{tag: "50K", lines: []string{"/" + last4(m.OrderingCustomer.Account), freeText(m.OrderingCustomer.Name, maxNameLen)}},
			{tag: "59", lines: []string{"/" + account(m.Beneficiary.Account), beneficiaryName}},
			{tag: "70", lines: []string{purpose}},
			{tag: "71A", lines: []string{chargeBearerOurs}},
		},
	}, nil
}

// reference prefixes id when the result fits the 16 character reference
// fields, and uses the bare id otherwise.
func reference(prefix, id string) string {
	if len(prefix)+len(id) > maxReferenceLen {
		return id
	}
	return prefix + id
}

func (d *document) field(tag string) (field, bool) {
	for _, f := range d.text {
		if f.tag == tag {
			return f, true
		}
	}
	return field{}, false
}

// serialize writes the blocks back to back. Lines inside a field are joined
// with a single space so the message never contains a line break.
func (d *document) serialize() string {
	var b strings.Builder
	b.WriteString("{1:F01")
	b.WriteString(d.sender)
	b.WriteString("0000000000}")

	b.WriteString("{2:I103")
	b.WriteString(d.receiver)
	b.WriteString("N}")

	b.WriteString("{3:{108:")
	b.WriteString(d.reference)
	b.WriteString("}}")

	b.WriteString("{4:")
	for _, f := range d.text {
		b.WriteByte(':')
		b.WriteString(f.tag)
		b.WriteByte(':')
		b.WriteString(strings.Join(nonEmpty(f.lines), " "))
	}
	b.WriteString("-}")
	return b.String()
}

func nonEmpty(lines []string) []string {
	out := lines[:0:0]
	for _, l := range lines {
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}
