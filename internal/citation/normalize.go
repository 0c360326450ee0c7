package citation

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// MaxSnippetLength is the longest content snippet, in runes, attached to a
// citation.
const MaxSnippetLength = 500

// Input is one source of citations: a raw citation attached by the producer
// (optional) and the body text to scan.
type Input struct {
	Citation     string
	Content      string
	Jurisdiction string
	Source       string
}

// FromText builds an Input from free text.
func FromText(text, jurisdiction string) Input {
	return Input{Content: text, Jurisdiction: jurisdiction}
}

// FromDocument builds an Input from a document body and its metadata. The
// "citation", "jurisdiction" and "source" keys are honored; source falls
// back to id.
func FromDocument(id, text string, metadata map[string]string) Input {
	source := metadata["source"]
	if source == "" {
		source = id
	}
	return Input{
		Citation:     metadata["citation"],
		Content:      text,
		Jurisdiction: metadata["jurisdiction"],
		Source:       source,
	}
}

// FromResult builds an Input from a search result's id and metadata. The
// chunk body is read from the "text" key.
func FromResult(id string, metadata map[string]string) Input {
	return FromDocument(id, metadata["text"], metadata)
}

// ExtractAndNormalize finds every citation in inputs and returns one
// normalized record per distinct raw citation text, in order of first
// appearance.
func ExtractAndNormalize(inputs []Input) []Citation {
	seen := make(map[string]struct{})
	var out []Citation

	for _, in := range inputs {
		var raws []string
		if c := cleanRaw(in.Citation); c != "" {
			raws = append(raws, c)
		}
		raws = append(raws, Extract(in.Content)...)

		snippet := Snippet(in.Content)
		for _, raw := range raws {
			if _, dup := seen[raw]; dup {
				continue
			}
			seen[raw] = struct{}{}

			c := Normalize(raw, in.Jurisdiction, in.Source)
			c.ContentSnippet = snippet
			out = append(out, c)
		}
	}
	return out
}

// Normalize classifies one raw citation and fills its typed fields and URL.
// Priority: case law, statute, regulation, constitution, unknown.
func Normalize(raw, jurisdiction, source string) Citation {
	c := Citation{
		ID:           ID(raw),
		Type:         TypeUnknown,
		Text:         raw,
		Jurisdiction: jurisdiction,
		Source:       source,
	}

	if cl := parseCaseLaw(raw); cl != nil {
		c.Type = TypeCaseLaw
		c.CaseLaw = cl
		c.URL = caseLawURL(cl)
	} else if st := parseStatute(raw); st != nil {
		c.Type = TypeStatute
		c.Statute = st
		c.URL = statuteURL(st, jurisdiction)
	} else if rg := parseRegulation(raw); rg != nil {
		c.Type = TypeRegulation
		c.Regulation = rg
		c.URL = regulationURL(rg)
	} else if co := parseConstitution(raw); co != nil {
		c.Type = TypeConstitution
		c.Constitution = co
		c.URL = constitutionURL(co)
	}
	return c
}

// Classify returns the citation type of raw.
func Classify(raw string) Type {
	return Normalize(raw, "", "").Type
}

// ID returns the stable identifier of a raw citation text.
func ID(raw string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("lexsearch:citation:"+raw)).String()
}

// Snippet trims content and cuts it to MaxSnippetLength runes, marking a cut
// with "...".
func Snippet(content string) string {
	content = strings.TrimSpace(content)
	runes := []rune(content)
	if len(runes) <= MaxSnippetLength {
		return content
	}
	return string(runes[:MaxSnippetLength-3]) + "..."
}

func caseLawURL(cl *CaseLaw) string {
	if cl.CaseName == "" {
		return ""
	}
	return "https://caselaw.findlaw.com/search?query=" + url.QueryEscape(cl.CaseName)
}

func statuteURL(st *Statute, jurisdiction string) string {
	if st.Section == "" {
		return ""
	}
	if st.Code == uscodeAbbreviation && st.Title != "" {
		return fmt.Sprintf("https://www.law.cornell.edu/uscode/text/%s/%s", st.Title, url.PathEscape(st.Section))
	}
	if jurisdiction == "" {
		return ""
	}
	section := strings.ReplaceAll(st.Section, ".", "-")
	return fmt.Sprintf("https://www.law.cornell.edu/statutes/%s/section/%s", slug(jurisdiction), url.PathEscape(section))
}

func regulationURL(rg *Regulation) string {
	return fmt.Sprintf("https://www.ecfr.gov/current/title-%s/part-%s/section-%s", rg.Title, rg.Part, rg.Section)
}

func constitutionURL(co *Constitution) string {
	u := fmt.Sprintf("https://constitution.congress.gov/browse/article-%d/", co.ArticleNumber)
	if co.Section != "" {
		u += "section-" + co.Section + "/"
	}
	return u
}

func slug(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "-")
}
