package parsers

import (
	"regexp"
	"strings"

	"github.com/gset/fibertrack/backend/src/processors"
)

// CompositeCodeSeparator joins a main billing code and its supplemental codes for display.
const CompositeCodeSeparator = " + "

var (
	// CodePattern is the shape of a price code: capital letters and an optional numeric suffix.
	CodePattern     = regexp.MustCompile(`\b[A-Z]+\d*\b`)
	codeTokenRe     = regexp.MustCompile(`^[A-Z]+\d*$`)
	codeSeparatorRe = regexp.MustCompile(`[,+;/\s]+`)
)

// ExtractCodes pulls price codes out of free text such as an ARTICLES cell.
// Codes are searched in the text as written first, so lowercase words are ignored;
// text typed entirely in lowercase is retried uppercased.
func ExtractCodes(text string) []string {
	codes := matchCodes(text)
	if len(codes) == 0 {
		codes = matchCodes(strings.ToUpper(text))
	}
	return codes
}

func matchCodes(text string) []string {
	var out []string
	for _, m := range CodePattern.FindAllString(text, -1) {
		if len(m) < 2 {
			continue
		}
		out = append(out, m)
	}
	return out
}

// SplitCodes splits a cell listing several codes ("PBEA, PLV2 + RAC") and keeps the tokens
// shaped like a code.
func SplitCodes(text string) []string {
	var out []string
	for _, tok := range codeSeparatorRe.Split(strings.ToUpper(strings.TrimSpace(text)), -1) {
		if len(tok) >= 2 && codeTokenRe.MatchString(tok) {
			out = append(out, tok)
		}
	}
	return out
}

// JoinCodes renders a composite code, main code first.
func JoinCodes(codes []string) string {
	return strings.Join(codes, CompositeCodeSeparator)
}

// billingCodes returns the price codes of a row: the main cell, then the supplemental cell.
func billingCodes(spec DialectSpec, main, supplemental string) []string {
	var codes []string
	if spec.CodesFromText {
		codes = ExtractCodes(main)
	} else {
		codes = SplitCodes(main)
		if len(codes) == 0 {
			if c := processors.NormalizeCode(main); c != "" {
				codes = []string{c}
			}
		}
	}
	return append(codes, SplitCodes(supplemental)...)
}
