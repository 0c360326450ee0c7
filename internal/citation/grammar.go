package citation

import (
	"regexp"
	"sort"
	"strings"
)

// partyName matches one side of a case caption: capitalized words joined by
// spaces, optional commas, and a few lowercase connectives.
const partyName = `[A-Z][\w.'&-]*(?:,?\s+(?:of|the|and|for|re|ex\s+rel\.|&|[A-Z][\w.'&-]*))*?`

// Extraction patterns. Each matches a whole citation in running text.
var (
	caseLawPattern = regexp.MustCompile(partyName + `\s+v\.\s+` + partyName +
		`,\s+\d+\s+[A-Z][A-Za-z0-9.]*(?:\s+[A-Za-z0-9.]+)*?\s+\d+\b(?:,\s*\d+\b)?(?:\s+\([^()]*?\d{4}\))?`)
	stateCodePattern    = regexp.MustCompile(`(?:[A-Z][A-Za-z.]*\s+){1,4}Code\s+§{1,2}\s*[\w.:\-()]+`)
	usCodePattern       = regexp.MustCompile(`\b\d+\s+U\.S\.C\.(?:A\.)?\s+§{1,2}\s*[\w.:\-()]+`)
	regulationPattern   = regexp.MustCompile(`\b\d+\s+C\.F\.R\.\s+§{1,2}\s*\d+(?:\.\d+)*`)
	constitutionPattern = regexp.MustCompile(`(?:U\.S\.|[A-Z][A-Za-z]*\.?)\s+Const\.\s+art\.\s+[IVXLCDM]+\b(?:,\s*§\s*\d+)?`)

	extractionPatterns = []*regexp.Regexp{
		caseLawPattern,
		stateCodePattern,
		usCodePattern,
		regulationPattern,
		constitutionPattern,
	}
)

// Field patterns, applied to a single raw citation.
var (
	yearPattern        = regexp.MustCompile(`\((?:[^()]*?\s)?(\d{4})\)`)
	codeNamePattern    = regexp.MustCompile(`(?:[A-Z][A-Za-z.]*\s+)*Code\b`)
	usCodeTitlePattern = regexp.MustCompile(`(\d+)\s+U\.S\.C\.(?:A\.)?`)
	sectionPattern     = regexp.MustCompile(`§{1,2}\s*([\w.:\-()]+)`)
	regulationFields   = regexp.MustCompile(`(\d+)\s+C\.F\.R\.\s+§{1,2}\s*(\d+(?:\.\d+)*)`)
	constitutionFields = regexp.MustCompile(`^(.*?)\s*Const\.\s+art\.\s+([A-Za-z]+)(?:,?\s*§\s*(\d+))?`)
	whitespaceRun      = regexp.MustCompile(`\s+`)
	leadingSignal      = regexp.MustCompile(`^(?:See also|See, e\.g\.,|See generally|See|But see|But cf\.|Cf\.|Accord|Compare|Under|Per|In)\s+`)
	leadingArticle     = regexp.MustCompile(`^(?:The|A|An)\s+`)
)

const (
	uscodeAbbreviation  = "U.S.C."
	trailingPunctuation = ".,;:"
)

// Extract returns the raw citations found in text in order of appearance.
// Overlapping matches keep the one that starts first (longest on ties).
func Extract(text string) []string {
	type span struct{ start, end int }

	var spans []span
	for _, p := range extractionPatterns {
		for _, loc := range p.FindAllStringIndex(text, -1) {
			spans = append(spans, span{loc[0], loc[1]})
		}
	}
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end > spans[j].end
	})

	var out []string
	lastEnd := -1
	for _, sp := range spans {
		if sp.start < lastEnd {
			continue
		}
		lastEnd = sp.end
		if raw := cleanRaw(text[sp.start:sp.end]); raw != "" {
			out = append(out, raw)
		}
	}
	return out
}

// cleanRaw collapses whitespace and strips introductory signals and
// trailing punctuation.
func cleanRaw(raw string) string {
	raw = strings.TrimSpace(whitespaceRun.ReplaceAllString(raw, " "))
	for {
		loc := leadingSignal.FindStringSubmatchIndex(raw)
		if loc == nil {
			break
		}
		// "In re Marriage of ..." is a caption, not a signal.
		if strings.HasPrefix(raw, "In re ") {
			break
		}
		raw = raw[loc[1]:]
	}
	if !strings.Contains(raw, " v. ") {
		raw = leadingArticle.ReplaceAllString(raw, "")
	}
	return strings.TrimRight(raw, trailingPunctuation)
}

func parseCaseLaw(text string) *CaseLaw {
	if !strings.Contains(text, " v. ") {
		return nil
	}
	name, detail, _ := strings.Cut(text, ",")
	cl := &CaseLaw{
		CaseName:       strings.TrimSpace(name),
		CitationDetail: strings.TrimSpace(detail),
	}
	if m := yearPattern.FindStringSubmatch(text); m != nil {
		cl.Year = m[1]
	}
	return cl
}

func parseStatute(text string) *Statute {
	var s Statute
	if m := usCodeTitlePattern.FindStringSubmatch(text); m != nil {
		s.Code = uscodeAbbreviation
		s.Title = m[1]
	} else if code := codeNamePattern.FindString(text); code != "" {
		s.Code = strings.TrimSpace(code)
	} else {
		return nil
	}
	if m := sectionPattern.FindStringSubmatch(text); m != nil {
		s.Section = strings.TrimRight(m[1], trailingPunctuation)
	}
	return &s
}

func parseRegulation(text string) *Regulation {
	m := regulationFields.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	part, _, _ := strings.Cut(m[2], ".")
	return &Regulation{
		Title:   m[1],
		Part:    part,
		Section: m[2],
	}
}

func parseConstitution(text string) *Constitution {
	m := constitutionFields.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	return &Constitution{
		Constitution:  strings.TrimSpace(m[1]),
		Article:       m[2],
		ArticleNumber: RomanToInt(m[2]),
		Section:       m[3],
	}
}
