package importer

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// field is one logical column and the header aliases it may be read from,
// in priority order. The first alias is the canonical header.
type field struct {
	Name    string
	Aliases []string
}

func newField(name string, aliases ...string) field {
	if len(aliases) == 0 {
		aliases = []string{name}
	}
	return field{Name: name, Aliases: aliases}
}

var numberSeparators = strings.NewReplacer(",", "", "_", "", " ", "", "\u00a0", "")

var booleanValues = map[string]bool{
	"true": true, "false": false,
	"1": true, "0": false,
	"yes": true, "no": false,
	"y": true, "n": false,
	"active": true, "inactive": false,
}

// enum maps normalized spellings to a canonical value.
type enum struct {
	values  map[string]string
	choices []string
}

func newEnum(choices []string, synonyms map[string]string) enum {
	values := make(map[string]string, len(choices)+len(synonyms))
	for _, choice := range choices {
		values[enumKey(choice)] = choice
	}
	for from, to := range synonyms {
		values[enumKey(from)] = to
	}
	return enum{values: values, choices: choices}
}

// fieldReader coerces one raw record and accumulates every error it sees.
type fieldReader struct {
	raw  map[string]string
	errs []string
}

func newFieldReader(raw map[string]string) *fieldReader {
	return &fieldReader{raw: raw}
}

func (r *fieldReader) errorf(format string, args ...any) {
	r.errs = append(r.errs, fmt.Sprintf(format, args...))
}

// text returns the first meaningful value among the field's aliases.
func (r *fieldReader) text(f field) string {
	for _, alias := range f.Aliases {
		if value := strings.TrimSpace(r.raw[alias]); value != "" {
			return value
		}
	}
	return ""
}

func (r *fieldReader) required(f field, max int) string {
	value := r.text(f)
	if value == "" {
		r.errorf("%s is required", f.Name)
		return ""
	}
	r.checkLength(f, value, max)
	return value
}

func (r *fieldReader) optional(f field, max int) string {
	value := r.text(f)
	if value != "" {
		r.checkLength(f, value, max)
	}
	return value
}

func (r *fieldReader) checkLength(f field, value string, max int) {
	if max > 0 && len([]rune(value)) > max {
		r.errorf("%s must be at most %d characters", f.Name, max)
	}
}

func (r *fieldReader) decimal(f field, fallback decimal.Decimal, nonNegative bool) decimal.Decimal {
	value := r.text(f)
	if value == "" {
		return fallback
	}
	parsed, err := decimal.NewFromString(numberSeparators.Replace(value))
	if err != nil {
		r.errorf("%s must be a number", f.Name)
		return fallback
	}
	if nonNegative && parsed.IsNegative() {
		r.errorf("%s must not be negative", f.Name)
	}
	return parsed
}

func (r *fieldReader) boolean(f field, fallback bool) bool {
	value := r.text(f)
	if value == "" {
		return fallback
	}
	parsed, ok := booleanValues[strings.ToLower(value)]
	if !ok {
		r.errorf("%s must be a boolean (true/false, yes/no, 1/0, active/inactive)", f.Name)
		return fallback
	}
	return parsed
}

func (r *fieldReader) enum(f field, e enum, fallback string) string {
	value := r.text(f)
	if value == "" {
		return fallback
	}
	canonical, ok := e.values[enumKey(value)]
	if !ok {
		r.errorf("%s must be one of: %s", f.Name, strings.Join(e.choices, ", "))
		return fallback
	}
	return canonical
}

// positiveInt reads an optional positive integer id.
func (r *fieldReader) positiveInt(f field) *int64 {
	value := r.text(f)
	if value == "" {
		return nil
	}
	parsed, err := decimal.NewFromString(numberSeparators.Replace(value))
	if err != nil || !parsed.IsInteger() || !parsed.IsPositive() || parsed.GreaterThan(decimal.NewFromInt(1<<62)) {
		r.errorf("%s must be a positive integer", f.Name)
		return nil
	}
	id := parsed.IntPart()
	return &id
}

// forbidden flags a column that must stay empty.
func (r *fieldReader) forbidden(f field) {
	if r.text(f) != "" {
		r.errorf("%s must not be provided in the file", f.Name)
	}
}

func enumKey(value string) string {
	return strings.Map(func(ch rune) rune {
		if unicode.IsLetter(ch) || unicode.IsDigit(ch) {
			return unicode.ToLower(ch)
		}
		return -1
	}, value)
}

// missingHeaders lists the required fields none of whose aliases appear in
// the header row.
func missingHeaders(headers []string, required []field) []string {
	present := make(map[string]struct{}, len(headers))
	for _, header := range headers {
		present[header] = struct{}{}
	}
	var missing []string
	for _, f := range required {
		found := false
		for _, alias := range f.Aliases {
			if _, ok := present[alias]; ok {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, f.Name)
		}
	}
	return missing
}

// keyNormalizer folds natural keys for duplicate detection: case-folded,
// trimmed, inner whitespace collapsed. A Caser is stateful, so each run
// builds its own.
type keyNormalizer struct {
	caser cases.Caser
}

func newKeyNormalizer() *keyNormalizer {
	return &keyNormalizer{caser: cases.Lower(language.Und)}
}

func (n *keyNormalizer) normalize(value string) string {
	return strings.Join(strings.Fields(n.caser.String(value)), " ")
}
