// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import "regexp"

const (
	monthName = `(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`
	dayName   = `(?:mon(?:day)?|tue(?:s(?:day)?)?|wed(?:nesday)?|thu(?:rs(?:day)?)?|fri(?:day)?|sat(?:urday)?|sun(?:day)?)`
	ordinal   = `(?:st|nd|rd|th)`

	// 31 March 2025, 31st Mar 2025, 31-Mar-25
	dayFirstDate = `\d{1,2}` + ordinal + `?[\s-]+` + monthName + `\.?,?[\s'-]+\d{2,4}`
	// 31.03.2025, 31/3/25, 2025-03-31
	numericDate = `\d{1,2}[-/.]\d{1,2}[-/.](?:\d{4}|\d{2})|\d{4}[-/.]\d{1,2}[-/.]\d{1,2}`
	// March 31, 2025, Mar-25, March 2025
	monthFirstDate = monthName + `\.?(?:\s+\d{1,2}` + ordinal + `?,?\s+\d{4}|[\s'-]+\d{2,4})`

	dateExpr = `(?:` + dayFirstDate + `|` + numericDate + `|` + monthFirstDate + `)`
	fyExpr   = `(?:FY\s?'?\d{2,4}(?:\s?-\s?\d{2,4})?|\d{4}-(?:\d{4}|\d{2}))`
)

var (
	bareYearRe   = regexp.MustCompile(`^\d{4}$`)
	fiscalYearRe = regexp.MustCompile(`(?i)^` + fyExpr + `$`)

	// Western (1,234,567.89) or Indian (12,34,567.89) grouping, with an
	// optional currency mark, sign, or accounting parentheses.
	simpleNumberRe = regexp.MustCompile(`(?i)^(?:₹|\$|Rs\.?|INR)?\s*[(-]?\s*(?:\d{1,3}(?:,\d{3})+|\d{1,2}(?:,\d{2})*,\d{3}|\d+)(?:\.\d+)?\s*\)?$`)

	wholeDateRe   = regexp.MustCompile(`(?i)^` + dateExpr + `$`)
	datePhraseRe  = regexp.MustCompile(`(?i)^(?:as\s+(?:at|on)|for\s+the\s+(?:year|period|quarter)\s+ended|(?:year|period|quarter)\s+ended)\s*:?\s*` + dateExpr + `$`)
	closingYearRe = regexp.MustCompile(`(?i)^(?:closing|opening)\b.*\b(?:19|20)\d{2}$`)

	dateKeywordRe  = regexp.MustCompile(`(?i)\b(?:as\s+at|at|on|date|dated|year|period|closing|opening|beginning|end|ended|ending|financial\s+year|fy)\b`)
	calendarWordRe = regexp.MustCompile(`(?i)\b(?:` + monthName + `|` + dayName + `)\b`)
	calendarNameRe = regexp.MustCompile(`(?i)^(?:` + monthName + `|` + dayName + `)\.?$`)

	identifierRes = []*regexp.Regexp{
		// Corporate identity number.
		regexp.MustCompile(`\b[A-Z]\d{5}[A-Z]{2}\d{4}[A-Z]{3}\d{6}\b`),
		// GSTIN, then PAN.
		regexp.MustCompile(`\b\d{2}[A-Z]{5}\d{4}[A-Z]\d[A-Z0-9]{2}\b`),
		regexp.MustCompile(`\b[A-Z]{5}\d{4}[A-Z]\b`),
		// DIN-like codes.
		regexp.MustCompile(`\b[A-Z]{3}\d{5}\b`),
		// Phone numbers: international prefix, STD landline, local digit
		// groups, or labelled. Space-separated groups only count as a
		// phone when they fill the cell, since amounts are listed that way.
		regexp.MustCompile(`\+\d{1,3}[\s-]?\d{4,5}[\s-]?\d{5,6}\b`),
		regexp.MustCompile(`\b0\d{2,4}[\s-]\d{6,8}\b`),
		regexp.MustCompile(`^(?:91[\s-]?)?[6-9]\d{4}[\s-]\d{5}$`),
		regexp.MustCompile(`^\d{3,5}[\s-]\d{3,4}[\s-]\d{4}$`),
		regexp.MustCompile(`\b[6-9]\d{4}-\d{5}\b`),
		regexp.MustCompile(`\b\d{3,5}-\d{3,4}-\d{4}\b`),
		regexp.MustCompile(`(?i)\b(?:ph|phone|tel|telephone|mobile|mob|fax)\b\.?\s*:?\s*\+?\d`),
		// Ordinal day on its own.
		regexp.MustCompile(`(?i)^\d{1,2}` + ordinal + `$`),
		// Membership, firm, and registration numbers.
		regexp.MustCompile(`(?i)\b(?:mem|membership|firm|frn|reg|regn|registration|id|no)\.?\s*(?:no\.?)?\s*[:#-]?\s*[A-Z]?\d+`),
	}

	dateSpanRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b` + dateExpr + `\b`),
		regexp.MustCompile(`(?i)\b` + fyExpr + `\b`),
	}

	// contextYearRe finds a year (group 1) only where a date word leads
	// into it; a bare 2000 elsewhere in text is an amount.
	contextYearRe = regexp.MustCompile(`(?i)\b(?:` + monthName + `|fy|years?|as\s+(?:at|on)|ended|ending|since|dated|till|until)\.?,?\s*'?((?:19|20)\d{2})\b`)

	currencyWordRe = regexp.MustCompile(`(?i)^(?:rs|inr)$`)

	numberTokenRe = regexp.MustCompile(`\d+(?:,\d+)*(?:\.\d+)?`)
)
