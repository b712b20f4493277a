package mt103

import (
	"strconv"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedDate = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestEncoder() *Encoder {
	return NewEncoder("BANKBEBBXXX", WithClock(func() time.Time { return fixedDate }))
}

func validMessage() Message {
	return Message{
		PaymentID:        42,
		AmountMinorUnits: 12345,
		Currency:         "ZAR",
		PurposeText:      "Invoice 2026-001",
		ReceiverBIC:      "ABSAZAJJ",
		OrderingCustomer: Party{Name: "Thandi Nkosi", Account: "1234567890"},
		Beneficiary:      Party{Name: "Acme Trading Ltd", Account: "62001234567"},
	}
}

func TestEncode_Layout(t *testing.T) {
	got, err := newTestEncoder().Encode(validMessage())
	require.NoError(t, err)

	want := "{1:F01BANKBEBBXXXX0000000000}" +
		"{2:I103ABSAZAJJXXXXN}" +
		"{3:{108:APDS42}}" +
		"{4::20:PAY42:23B:CRED:32A:260314ZAR123.45" +
		":50K:/7890 Thandi Nkosi" +
		":59:/62001234567 Acme Trading Ltd" +
		":70:Invoice 2026-001" +
		":71A:OUR-}"
	assert.Equal(t, want, got)
}

func TestEncode_DeterministicForFixedClock(t *testing.T) {
	enc := newTestEncoder()
	a, err := enc.Encode(validMessage())
	require.NoError(t, err)
	b, err := enc.Encode(validMessage())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEncode_ValueDateFollowsClock(t *testing.T) {
	later := NewEncoder("BANKBEBBXXX", WithClock(func() time.Time { return fixedDate.AddDate(0, 0, 1) }))
	got, err := later.Encode(validMessage())
	require.NoError(t, err)
	assert.Contains(t, got, ":32A:260315ZAR123.45")
}

func TestEncode_AmountFormatting(t *testing.T) {
	tests := []struct {
		minor int64
		ccy   string
		want  string
	}{
		{minor: 12345, ccy: "ZAR", want: "ZAR123.45"},
		{minor: 10000, ccy: "USD", want: "USD100.00"},
		{minor: 1, ccy: "EUR", want: "EUR0.01"},
		{minor: 100_000_000, ccy: "GBP", want: "GBP1000000.00"},
		{minor: 505, ccy: "usd", want: "USD5.05"},
		{minor: 700, ccy: " u-s$d ", want: "USD7.00"},
	}

	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			m := validMessage()
			m.AmountMinorUnits = tc.minor
			m.Currency = tc.ccy

			doc, err := newTestEncoder().build(m)
			require.NoError(t, err)
			f, ok := doc.field("32A")
			require.True(t, ok)
			assert.Equal(t, "260314"+tc.want, f.lines[0])
		})
	}
}

func TestEncode_PurposeSanitized(t *testing.T) {
	m := validMessage()
	m.PurposeText = "line one\r\nline two\n" + strings.Repeat("x", 200)

	doc, err := newTestEncoder().build(m)
	require.NoError(t, err)
	f, ok := doc.field("70")
	require.True(t, ok)

	assert.LessOrEqual(t, utf8.RuneCountInString(f.lines[0]), 140)
	assert.True(t, strings.HasPrefix(f.lines[0], "line oneline two"))
	assert.NotContains(t, f.lines[0], "\n")
	assert.NotContains(t, f.lines[0], "\r")

	out, err := newTestEncoder().Encode(m)
	require.NoError(t, err)
	assert.NotContains(t, out, "\n")
	assert.NotContains(t, out, "\r")
}

func TestEncode_BlockInjectionStripped(t *testing.T) {
	m := validMessage()
	m.PurposeText = "rent-}{5:{CHK:DEADBEEF}}"
	m.OrderingCustomer.Name = "Mallory\n:71A:BEN"

	out, err := newTestEncoder().Encode(m)
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(out, "-}"), "only the real block 4 terminator may appear")
	assert.NotContains(t, out, "{5:")
	assert.Contains(t, out, ":50K:/7890 Mallory 71A BEN")
}

func TestEncode_FreeTextCannotForgeTags(t *testing.T) {
	m := validMessage()
	m.PurposeText = "rent :71A:SHA :32A:260102USD999999.00"
	m.Beneficiary.Name = "Eve:20:PAY999"

	out, err := newTestEncoder().Encode(m)
	require.NoError(t, err)

	for _, tag := range []string{":20:", ":32A:", ":59:", ":70:", ":71A:"} {
		assert.Equal(t, 1, strings.Count(out, tag), "tag %s", tag)
	}
	assert.Contains(t, out, ":32A:260314ZAR123.45")
	assert.Contains(t, out, ":70:rent 71A SHA 32A 260102USD999999.00:71A:OUR-}")
	assert.Contains(t, out, ":59:/62001234567 Eve 20 PAY999")
}

func TestEncode_NameTruncation(t *testing.T) {
	m := validMessage()
	m.OrderingCustomer.Name = strings.Repeat("N", 50)
	m.Beneficiary.Name = strings.Repeat("Ñ", 50)

	doc, err := newTestEncoder().build(m)
	require.NoError(t, err)

	payer, _ := doc.field("50K")
	assert.Equal(t, strings.Repeat("N", 35), payer.lines[1])

	beneficiary, _ := doc.field("59")
	assert.Equal(t, 35, utf8.RuneCountInString(beneficiary.lines[1]))
	assert.True(t, utf8.ValidString(beneficiary.lines[1]))
}

func TestEncode_Defaults(t *testing.T) {
	m := validMessage()
	m.PurposeText = "  \n "
	m.Beneficiary.Name = ""

	doc, err := newTestEncoder().build(m)
	require.NoError(t, err)

	purpose, _ := doc.field("70")
	assert.Equal(t, []string{"PAYMENT"}, purpose.lines)
	beneficiary, _ := doc.field("59")
	assert.Equal(t, "BENEFICIARY", beneficiary.lines[1])
}

func TestEncode_ContractViolations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Message)
	}{
		{name: "zero amount", mutate: func(m *Message) { m.AmountMinorUnits = 0 }},
		{name: "negative amount", mutate: func(m *Message) { m.AmountMinorUnits = -5 }},
		{name: "missing currency", mutate: func(m *Message) { m.Currency = "" }},
		{name: "currency too long", mutate: func(m *Message) { m.Currency = "USDT" }},
		{name: "currency without letters", mutate: func(m *Message) { m.Currency = "123" }},
		{name: "zero payment id", mutate: func(m *Message) { m.PaymentID = 0 }},
		{name: "payment id over 16 digits", mutate: func(m *Message) { m.PaymentID = 12345678901234567 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := validMessage()
			tc.mutate(&m)
			_, err := newTestEncoder().Encode(m)
			assert.ErrorIs(t, err, ErrInvalidMessage)
		})
	}
}

func TestEncode_ReferencesKeepWholePaymentID(t *testing.T) {
	tests := []struct {
		id             int64
		wantTxn, wantB string
	}{
		{id: 42, wantTxn: ":20:PAY42:", wantB: "{108:APDS42}"},
		{id: 123456789012, wantTxn: ":20:PAY123456789012:", wantB: "{108:APDS123456789012}"},
		{id: 123456789012345, wantTxn: ":20:123456789012345:", wantB: "{108:123456789012345}"},
		{id: 1234567890123456, wantTxn: ":20:1234567890123456:", wantB: "{108:1234567890123456}"},
	}

	for _, tc := range tests {
		t.Run(strconv.FormatInt(tc.id, 10), func(t *testing.T) {
			m := validMessage()
			m.PaymentID = tc.id
			out, err := newTestEncoder().Encode(m)
			require.NoError(t, err)
			assert.Contains(t, out, tc.wantTxn)
			assert.Contains(t, out, tc.wantB)
		})
	}
}

func TestLogicalTerminal(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{in: "ABSAZAJJ", want: "ABSAZAJJXXXX"},
		{in: "absazajjxxx", want: "ABSAZAJJXXXX"},
		{in: "SBZAZAJJ123", want: "SBZAZAJJX123"},
		{in: "BANKBEBBXXXX", want: "BANKBEBBXXXX"},
		{in: "AB-SA ZA", want: "ABSAZAXXXXXX"},
		{in: "", want: "XXXXXXXXXXXX"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, logicalTerminal(tc.in), tc.in)
	}
}

func TestAccountSanitizing(t *testing.T) {
	assert.Equal(t, "62001234567", account("6200-1234 567"))
	assert.Len(t, account(strings.Repeat("9", 40)), 34)
	assert.Equal(t, "4567", last4("62001234567"))
	assert.Equal(t, "12", last4("12"))
}
