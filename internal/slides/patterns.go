package slides

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
)

// PatternSet is a versioned collection of filler-text matchers. New filler
// categories ship as data files, not code changes.
type PatternSet struct {
	Version int
	rules   []fillerRule
}

type fillerRule struct {
	category string
	re       *regexp.Regexp
}

type patternCategory struct {
	Name     string   `json:"name"`
	Patterns []string `json:"patterns"`
}

type patternFile struct {
	Version    int               `json:"version"`
	Categories []patternCategory `json:"categories"`
}

// Match reports whether the text hits any filler pattern and names the
// category it matched.
func (ps *PatternSet) Match(text string) (string, bool) {
	for _, rule := range ps.rules {
		if rule.re.MatchString(text) {
			return rule.category, true
		}
	}
	return "", false
}

// Len returns the number of compiled patterns.
func (ps *PatternSet) Len() int {
	return len(ps.rules)
}

// LoadPatternSet reads a pattern file. The version must be at least 1 and
// every pattern must compile.
func LoadPatternSet(path string) (*PatternSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pattern file: %w", err)
	}

	var pf patternFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse pattern file %s: %w", path, err)
	}
	if pf.Version < 1 {
		return nil, fmt.Errorf("pattern file %s: version must be at least 1, got %d", path, pf.Version)
	}

	ps := &PatternSet{Version: pf.Version}
	for _, cat := range pf.Categories {
		for _, pattern := range cat.Patterns {
			re, err := regexp.Compile(pattern)
			if err != nil {
				return nil, fmt.Errorf("pattern %q in category %s: %w", pattern, cat.Name, err)
			}
			ps.rules = append(ps.rules, fillerRule{category: cat.Name, re: re})
		}
	}
	if len(ps.rules) == 0 {
		return nil, fmt.Errorf("pattern file %s has no patterns", path)
	}
	return ps, nil
}

// DefaultPatternSet returns the built-in v1 filler patterns covering
// copyright notices, channel branding, contact prompts, promotional text
// and sign-off phrases.
func DefaultPatternSet() *PatternSet {
	ps := &PatternSet{Version: 1}
	for _, cat := range []patternCategory{
		{Name: "copyright", Patterns: []string{
			`(?i)copyright\s+(\x{00a9}\s*)?\d{4}`,
			`(?i)\x{00a9}\s*\d{4}`,
			`(?i)all rights reserved`,
			`(?i)\btrademarks?\b.*\bproperty of\b`,
		}},
		{Name: "branding", Patterns: []string{
			`(?i)\bsubscribe to (our|the|my) channel\b`,
			`(?i)\bofficial (channel|website) of\b`,
			`(?i)\bbrought to you by\b`,
		}},
		{Name: "contact", Patterns: []string{
			`(?i)\bfollow us on\b`,
			`(?i)\bcontact us at\b`,
			`(?i)\b(twitter|instagram|facebook|linkedin|tiktok)\.com/`,
			`(?i)\bfind us at\b`,
		}},
		{Name: "promo", Patterns: []string{
			`(?i)\blike,?\s*(comment,?\s*)?and subscribe\b`,
			`(?i)\bhit the (bell|like button)\b`,
			`(?i)\bcheck out our\b`,
			`(?i)\bjoin (our|the) (newsletter|community|discord|mailing list)\b`,
			`(?i)\blink in (the )?description\b`,
		}},
		{Name: "signoff", Patterns: []string{
			`(?i)\bthanks? for watching\b`,
			`(?i)\bsee you (in the )?next (time|video|episode)\b`,
			`(?i)\buntil next time\b`,
			`(?i)\bthat'?s all for today\b`,
		}},
	} {
		for _, pattern := range cat.Patterns {
			ps.rules = append(ps.rules, fillerRule{category: cat.Name, re: regexp.MustCompile(pattern)})
		}
	}
	return ps
}
