// Package rules holds the externally editable extraction rules: the OCR
// correction table, section anchor phrases, separator priorities, and the
// thresholds that drive engine selection and fuzzy anchor matching.
//
// A Ruleset is loaded once at startup (compiled defaults, optionally merged
// with a YAML file) and passed by value into the components that consume it.
// Nothing in this package keeps mutable package-level state.
package rules

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Scope limits a correction rule to one kind of field value.
type Scope string

const (
	// ScopeText rules run against whole-document OCR output before any
	// segmentation or field capture.
	ScopeText Scope = "text"

	ScopeLastName    Scope = "last-name"
	ScopeDate        Scope = "date"
	ScopePhone       Scope = "phone"
	ScopeCauseNumber Scope = "cause-number"
	ScopeAddress     Scope = "address"
)

// CorrectionRule rewrites a recurring OCR misread. Pattern is a regular
// expression; Replacement may reference capture groups.
type CorrectionRule struct {
	Name        string `yaml:"name"`
	Pattern     string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
	Scope       Scope  `yaml:"scope"`

	re *regexp.Regexp
}

func (r *CorrectionRule) compile() error {
	re, err := regexp.Compile(r.Pattern)
	if err != nil {
		return fmt.Errorf("rule %q: %w", r.Name, err)
	}
	r.re = re
	return nil
}

// AnchorSet is a primary anchor phrase plus ordered fallbacks for locating
// one section of a form.
type AnchorSet struct {
	Primary string `yaml:"primary"`
	// Fallbacks are tried in order after the primary anchor misses.
	Fallbacks []string `yaml:"fallbacks"`
	// NameShape enables a final heuristic: a plausible person-name line
	// immediately before a "Name(s)" label stands in for the anchor.
	NameShape bool `yaml:"name_shape"`
}

// Ruleset is the full extraction rule table.
type Ruleset struct {
	Corrections []CorrectionRule `yaml:"corrections"`

	WardAnchors     AnchorSet `yaml:"ward_anchors"`
	GuardianAnchors AnchorSet `yaml:"guardian_anchors"`
	// SectionBoundaries end a located section (next numbered heading is
	// always an implicit boundary).
	SectionBoundaries []string `yaml:"section_boundaries"`

	// SufficiencyThreshold is the minimum count of non-whitespace
	// characters an engine must produce before the cascade stops.
	SufficiencyThreshold int `yaml:"sufficiency_threshold"`

	// AnchorMaxDistance is the edit distance tolerated when matching
	// anchor phrases against OCR text.
	AnchorMaxDistance int `yaml:"anchor_max_distance"`

	// SurnameMaxDistance bounds the ward-surname correction applied to
	// guardian last names.
	SurnameMaxDistance int `yaml:"surname_max_distance"`

	// Separators order the dual-subject split candidates, highest
	// priority first.
	Separators []string `yaml:"separators"`
}

// Load reads a YAML rules file and merges it over the compiled defaults.
// Lists in the file replace the default lists wholesale; zero-valued
// scalars keep their defaults.
func Load(path string) (Ruleset, error) {
	rs := Default()
	if path == "" {
		return rs, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Ruleset{}, fmt.Errorf("read rules file: %w", err)
	}

	var file Ruleset
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return Ruleset{}, fmt.Errorf("parse rules file: %w", err)
	}

	if len(file.Corrections) > 0 {
		rs.Corrections = file.Corrections
	}
	if file.WardAnchors.Primary != "" {
		rs.WardAnchors = file.WardAnchors
	}
	if file.GuardianAnchors.Primary != "" {
		rs.GuardianAnchors = file.GuardianAnchors
	}
	if len(file.SectionBoundaries) > 0 {
		rs.SectionBoundaries = file.SectionBoundaries
	}
	if file.SufficiencyThreshold > 0 {
		rs.SufficiencyThreshold = file.SufficiencyThreshold
	}
	if file.AnchorMaxDistance > 0 {
		rs.AnchorMaxDistance = file.AnchorMaxDistance
	}
	if file.SurnameMaxDistance > 0 {
		rs.SurnameMaxDistance = file.SurnameMaxDistance
	}
	if len(file.Separators) > 0 {
		rs.Separators = file.Separators
	}

	if err := rs.Compile(); err != nil {
		return Ruleset{}, err
	}
	return rs, nil
}

// Compile prepares all correction patterns. Load and Default call this;
// callers constructing a Ruleset by hand must call it themselves.
func (rs *Ruleset) Compile() error {
	for i := range rs.Corrections {
		if err := rs.Corrections[i].compile(); err != nil {
			return err
		}
	}
	return nil
}

// Apply runs every rule whose scope matches against value and returns the
// corrected value along with the names of the rules that fired.
func (rs Ruleset) Apply(scope Scope, value string) (string, []string) {
	var fired []string
	for i := range rs.Corrections {
		r := &rs.Corrections[i]
		if r.Scope != scope || r.re == nil {
			continue
		}
		out := r.re.ReplaceAllString(value, r.Replacement)
		if out != value {
			fired = append(fired, r.Name)
			value = out
		}
	}
	return value, fired
}

// ApplyText runs the whole-document rules (ScopeText) over raw OCR output.
func (rs Ruleset) ApplyText(text string) (string, []string) {
	return rs.Apply(ScopeText, text)
}
