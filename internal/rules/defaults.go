package rules

// Default returns the compiled built-in rule table. The corrections encode
// misreads that keep showing up in scanned probate filings: broken "Cause
// No." labels, digit/letter confusions inside numbers, and underscore runs
// that some scanners insert between characters.
func Default() Ruleset {
	rs := Ruleset{
		Corrections: []CorrectionRule{
			// Whole-text normalizations, applied before segmentation.
			{Name: "unicode-dashes", Pattern: `[—–−]`, Replacement: `-`, Scope: ScopeText},
			{Name: "unicode-colon", Pattern: `：`, Replacement: `:`, Scope: ScopeText},
			{Name: "nbsp", Pattern: " ", Replacement: ` `, Scope: ScopeText},
			{Name: "signed-misread", Pattern: `(?i)\bS[1l]gned\b`, Replacement: `Signed`, Scope: ScopeText},
			{Name: "signed-on", Pattern: `(?i)\bSigned\s*[o0]n\b`, Replacement: `Signed on`, Scope: ScopeText},
			{Name: "cause-label", Pattern: `(?i)\bC?ause\s*No\.?`, Replacement: `Cause No.`, Scope: ScopeText},
			{Name: "docket-prefix", Pattern: `(?i)C\s*-?\s*1\s*-?\s*PB`, Replacement: `C-1-PB`, Scope: ScopeText},
			{Name: "underscore-run", Pattern: `_([A-Za-z0-9])_([A-Za-z0-9])_([A-Za-z0-9])_`, Replacement: `$1$2$3`, Scope: ScopeText},
			{Name: "underscore-pair", Pattern: `_([A-Za-z0-9])_`, Replacement: `$1`, Scope: ScopeText},
			{Name: "underscore-edge", Pattern: `_([A-Za-z0-9])|([A-Za-z0-9])_`, Replacement: `$1$2`, Scope: ScopeText},
			{Name: "tab-runs", Pattern: `[ \t]+`, Replacement: ` `, Scope: ScopeText},

			// Numeric field scopes: letters OCR'd in place of digits.
			{Name: "oh-for-zero-date", Pattern: `[Oo]`, Replacement: `0`, Scope: ScopeDate},
			{Name: "el-for-one-date", Pattern: `l`, Replacement: `1`, Scope: ScopeDate},
			{Name: "double-slash-date", Pattern: `//`, Replacement: `/`, Scope: ScopeDate},
			{Name: "oh-for-zero-phone", Pattern: `[Oo]`, Replacement: `0`, Scope: ScopePhone},
			{Name: "oh-for-zero-cause", Pattern: `[Oo]`, Replacement: `0`, Scope: ScopeCauseNumber},
			{Name: "el-for-one-cause", Pattern: `l`, Replacement: `1`, Scope: ScopeCauseNumber},
		},
		WardAnchors: AnchorSet{
			Primary: "1. WARD",
			Fallbacks: []string{
				"Ward Information",
				"Ward Name",
				"WARD",
			},
		},
		GuardianAnchors: AnchorSet{
			Primary: "2. GUARDIAN(s)",
			Fallbacks: []string{
				"GUARDIAN(S)",
				"Guardian Information",
				"Guardian Name(s)",
			},
			NameShape: true,
		},
		SectionBoundaries: []string{
			"Visit Date",
			"Visit Time",
			"Cause No",
		},
		SufficiencyThreshold: 80,
		AnchorMaxDistance:    2,
		SurnameMaxDistance:   1,
		Separators:           []string{"and", "/", ";", ","},
	}
	// Built-in patterns are under test; a compile failure here is a bug.
	if err := rs.Compile(); err != nil {
		panic(err)
	}
	return rs
}
