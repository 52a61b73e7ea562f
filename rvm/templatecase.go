package rvm

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	caseUpper   = cases.Upper(language.Und)
	caseLower   = cases.Lower(language.Und)
	caseTitle   = cases.Title(language.Und, cases.NoLower)
)

// TemplateIntrinsic names the four standard template-literal string
// intrinsics a transformer may fold into a templateLiteral opcode's fixed
// segments.
type TemplateIntrinsic string

const (
	IntrinsicUppercase   TemplateIntrinsic = "Uppercase"
	IntrinsicLowercase   TemplateIntrinsic = "Lowercase"
	IntrinsicCapitalize  TemplateIntrinsic = "Capitalize"
	IntrinsicUncapitalize TemplateIntrinsic = "Uncapitalize"
)

// applyIntrinsic transforms a literal string segment per one of the
// standard template-literal intrinsics. Unknown intrinsics are a no-op:
// RVM trusts the transformer to only ever emit the four it knows about, and
// silently passing through an unrecognized one is safer than failing a
// whole program over a cosmetic string transform.
func applyIntrinsic(name TemplateIntrinsic, s string) string {
	switch name {
	case IntrinsicUppercase:
		return caseUpper.String(s)
	case IntrinsicLowercase:
		return caseLower.String(s)
	case IntrinsicCapitalize:
		if s == "" {
			return s
		}
		r := []rune(s)
		return caseTitle.String(string(r[0])) + string(r[1:])
	case IntrinsicUncapitalize:
		if s == "" {
			return s
		}
		r := []rune(s)
		return caseLower.String(string(r[0])) + string(r[1:])
	default:
		return s
	}
}
