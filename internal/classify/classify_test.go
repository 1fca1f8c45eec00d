// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsNonMonetary(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{name: "empty", text: "", want: false},
		{name: "whitespace", text: "   ", want: false},
		{name: "formula", text: "=SUM(B2:B9)", want: true},
		{name: "bare year", text: "2025", want: true},
		{name: "fy four digit", text: "FY2025", want: true},
		{name: "fy short range", text: "FY24-25", want: true},
		{name: "year range short", text: "2024-25", want: true},
		{name: "year range long", text: "2024-2025", want: true},
		{name: "indian grouping", text: "1,50,000", want: false},
		{name: "western grouping", text: "150,000.00", want: false},
		{name: "plain integer", text: "75000000", want: false},
		{name: "accounting negative", text: "(12,34,567.89)", want: false},
		{name: "rupee prefix", text: "₹ 2,50,000", want: false},
		{name: "dotted date", text: "31.03.2025", want: true},
		{name: "slashed date", text: "31/03/25", want: true},
		{name: "iso date", text: "2025-03-31", want: true},
		{name: "month first", text: "March 31, 2025", want: true},
		{name: "day first", text: "31 March 2025", want: true},
		{name: "ordinal day first", text: "31st March 2025", want: true},
		{name: "short month year", text: "Mar-25", want: true},
		{name: "as at phrase", text: "As at 31st March 2025", want: true},
		{name: "year ended phrase", text: "For the year ended 31.03.2024", want: true},
		{name: "closing with year", text: "Closing balance 2025", want: true},
		{name: "keyword with date only", text: "Balance on 31.03.2025", want: true},
		{name: "keyword with small number", text: "Period 4", want: true},
		{name: "date beside amount", text: "Closing balance as at 31.03.2025 is 1,50,000", want: false},
		{name: "cin", text: "U72300DL2015NPL285463", want: true},
		{name: "cin other prefix", text: "A72300DL2015NPL285463", want: true},
		{name: "pan", text: "ABCDE1234F", want: true},
		{name: "din like", text: "DIN ABC12345", want: true},
		{name: "phone international", text: "+91 98765 43210", want: true},
		{name: "phone landline", text: "022-24567890", want: true},
		{name: "phone labelled", text: "Tel: 24567890", want: true},
		{name: "mobile grouped", text: "98765 43210", want: true},
		{name: "mobile hyphenated in text", text: "Call 98765-43210", want: true},
		{name: "local digit groups", text: "1800 180 1234", want: true},
		{name: "two amounts not a phone", text: "Sales 75000 25000", want: false},
		{name: "year-sized amount", text: "Rs. 2000", want: false},
		{name: "year-sized amounts in text", text: "Salary 2050 and bonus 5000", want: false},
		{name: "section code with amount", text: "Section 80C deduction 1,50,000", want: false},
		{name: "ordinal alone", text: "21st", want: true},
		{name: "membership number", text: "Membership No. 123456", want: true},
		{name: "firm registration", text: "Firm Reg 117366W", want: true},
		{name: "weekday", text: "Monday", want: true},
		{name: "month", text: "September", want: true},
		{name: "short month", text: "dec", want: true},
		{name: "month word with day", text: "Paid in March 15", want: true},
		{name: "month word with amount", text: "Sales March 1,50,000", want: false},
		{name: "plain label", text: "Revenue from operations", want: false},
		{name: "label with amount", text: "Trade receivables 2,45,000", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNonMonetary(tt.text), "IsNonMonetary(%q)", tt.text)
		})
	}
}

func TestReasonAgreesWithIsNonMonetary(t *testing.T) {
	for _, text := range []string{
		"2025", "FY2025", "31.03.2025", "U72300DL2015NPL285463", "Monday",
		"1,50,000", "Revenue", "Closing balance as at 31.03.2025 is 1,50,000",
	} {
		nonMonetary := IsNonMonetary(text)
		reason := Reason(text)
		assert.Equal(t, nonMonetary, reason != "", "text %q reason %q", text, reason)
	}
	assert.Empty(t, Reason(""))
	assert.Empty(t, Reason("Rs. 2000"))
	assert.Equal(t, "date", Reason("31.03.2025"))
	assert.Equal(t, "identifier", Reason("U72300DL2015NPL285463"))
}

func TestDateSpans(t *testing.T) {
	text := "Closing balance as at 31.03.2025 is 1,50,000"
	spans := DateSpans(text)
	require.Len(t, spans, 1)
	assert.Equal(t, "31.03.2025", text[spans[0][0]:spans[0][1]])

	text = "FY 2024-25 revenue for March 2025"
	spans = DateSpans(text)
	require.Len(t, spans, 2)
	assert.Equal(t, "FY 2024-25", text[spans[0][0]:spans[0][1]])
	assert.Equal(t, "March 2025", text[spans[1][0]:spans[1][1]])

	assert.Empty(t, DateSpans("Interest 2019.50 and March 15,000"))
	assert.Empty(t, DateSpans("no dates here"))
}

func TestMaskKeepsOffsets(t *testing.T) {
	text := "as at 31.03.2025 is 1,50,000"
	masked := Mask(text)
	require.Len(t, masked, len(text))
	assert.Equal(t, "as at "+strings.Repeat(" ", 10)+" is 1,50,000", masked)
}

func TestScan(t *testing.T) {
	text := "Loss -5,000 against 1,50,000.50 and 10-20"
	nums := Scan(text)
	require.Len(t, nums, 4)

	assert.Equal(t, -5000.0, nums[0].Value)
	assert.Equal(t, "-5,000", nums[0].Literal)
	assert.Equal(t, "-5,000", text[nums[0].Start:nums[0].End])

	assert.Equal(t, 150000.5, nums[1].Value)
	assert.Equal(t, 10.0, nums[2].Value)
	// A hyphen joined to a digit is a range, not a sign.
	assert.Equal(t, 20.0, nums[3].Value)
	assert.Equal(t, "20", nums[3].Literal)
}

func TestScanSkipsCodes(t *testing.T) {
	nums := Scan("Section 80C deduction 1,50,000")
	require.Len(t, nums, 1)
	assert.Equal(t, "1,50,000", nums[0].Literal)

	assert.Empty(t, Scan("A72300DL2015NPL285463"))
	assert.Empty(t, Scan("Form 26AS"))

	nums = Scan("Rs2000 and INR500")
	require.Len(t, nums, 2)
	assert.Equal(t, 2000.0, nums[0].Value)
	assert.Equal(t, 500.0, nums[1].Value)
}

func TestDateSpansYearNeedsDateWord(t *testing.T) {
	assert.Empty(t, DateSpans("Paid 2000"))
	assert.Empty(t, DateSpans("Salary 2050 and bonus 5000"))

	text := "Bonus for the year 2024 was 5000"
	spans := DateSpans(text)
	require.Len(t, spans, 1)
	assert.Equal(t, "2024", text[spans[0][0]:spans[0][1]])

	text = "Profit since 1998"
	spans = DateSpans(text)
	require.Len(t, spans, 1)
	assert.Equal(t, "1998", text[spans[0][0]:spans[0][1]])
}

func TestHasAmount(t *testing.T) {
	assert.True(t, HasAmount("as at 31.03.2025 is 1,50,000"))
	assert.True(t, HasAmount("opening stock 500"))
	assert.False(t, HasAmount("as at 31.03.2025"))
	assert.False(t, HasAmount("period 45"))
	assert.False(t, HasAmount("year 2025"))
	assert.True(t, HasAmount("paid 2025"))
}

func TestIsSimpleNumber(t *testing.T) {
	assert.True(t, IsSimpleNumber(" 1,50,000 "))
	assert.True(t, IsSimpleNumber("-42.5"))
	assert.False(t, IsSimpleNumber("42 apples"))
	assert.False(t, IsSimpleNumber("31.03.2025"))
}
