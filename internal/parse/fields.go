package parse

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/voter-roll-extractor/constants"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/entity"
)

// fieldRule captures the text after "<label>:" up to the end of that line.
type fieldRule struct {
	label string
	re    *regexp.Regexp
	set   func(r *entity.Record, v string)
}

func labelRule(label string, set func(r *entity.Record, v string)) fieldRule {
	// horizontal whitespace only, so an empty field never swallows the next line
	return fieldRule{
		label: label,
		re:    regexp.MustCompile(regexp.QuoteMeta(label) + `[ \t]*:[ \t]*(.*?)[ \t]*(?:\n|$)`),
		set:   set,
	}
}

var fieldRules = []fieldRule{
	labelRule(constants.LabelVoterNumber, func(r *entity.Record, v string) { r.VoterNumber = v }),
	labelRule(constants.LabelFather, func(r *entity.Record, v string) { r.FatherName = v }),
	labelRule(constants.LabelMother, func(r *entity.Record, v string) { r.MotherName = v }),
	labelRule(constants.LabelAddress, func(r *entity.Record, v string) { r.Address = v }),
}

// Occupation is optionally followed on the same line by ", জন্ম তারিখ: dd/mm/yyyy".
var occupationRe = regexp.MustCompile(
	regexp.QuoteMeta(constants.LabelOccupation) + `[ \t]*:[ \t]*(.*?)` +
		`(?:,?[ \t]*` + regexp.QuoteMeta(constants.LabelDateOfBirth) + `[ \t]*:[ \t]*([0-9/]+))?` +
		`[ \t]*(?:\n|$)`)

// ExtractFields reads every field out of a block. Missing fields stay "".
func ExtractFields(b Block) entity.Record {
	rec := entity.Record{Serial: b.Serial, Name: extractName(b.Text)}

	for _, rule := range fieldRules {
		if m := rule.re.FindStringSubmatch(b.Text); m != nil {
			rule.set(&rec, strings.TrimSpace(m[1]))
		}
	}

	if m := occupationRe.FindStringSubmatch(b.Text); m != nil {
		rec.Occupation = strings.TrimSpace(m[1])
		rec.DateOfBirth = strings.TrimSpace(m[2])
	}
	return rec
}

// extractName returns what follows the name label on the block's first line.
func extractName(text string) string {
	first, _, _ := strings.Cut(text, "\n")
	_, name, ok := strings.Cut(first, constants.LabelName+":")
	if !ok {
		return ""
	}
	return strings.TrimSpace(name)
}
