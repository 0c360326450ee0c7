package citation

// Type identifies the kind of legal authority a citation refers to.
type Type string

const (
	TypeCaseLaw      Type = "case_law"
	TypeStatute      Type = "statute"
	TypeRegulation   Type = "regulation"
	TypeConstitution Type = "constitution"
	TypeUnknown      Type = "unknown"
)

// Citation is a normalized citation record. Exactly one of the typed field
// blocks is set, matching Type; unknown citations carry none.
type Citation struct {
	ID             string `json:"id"`
	Type           Type   `json:"type"`
	Text           string `json:"text"`
	Jurisdiction   string `json:"jurisdiction,omitempty"`
	Source         string `json:"source,omitempty"`
	ContentSnippet string `json:"content_snippet,omitempty"`
	URL            string `json:"url,omitempty"`

	CaseLaw      *CaseLaw      `json:"case_law,omitempty"`
	Statute      *Statute      `json:"statute,omitempty"`
	Regulation   *Regulation   `json:"regulation,omitempty"`
	Constitution *Constitution `json:"constitution,omitempty"`
}

// CaseLaw holds the fields of a reported decision, e.g.
// "Smith v. Jones, 123 F.3d 456 (9th Cir. 2018)".
type CaseLaw struct {
	CaseName       string `json:"case_name"`
	CitationDetail string `json:"citation_detail,omitempty"`
	Year           string `json:"year,omitempty"`
}

// Statute holds the fields of a codified statute, e.g. "Cal. Civ. Code § 1714"
// or "42 U.S.C. § 1983".
type Statute struct {
	Code    string `json:"code"`
	Title   string `json:"title,omitempty"`
	Section string `json:"section,omitempty"`
}

// Regulation holds the fields of a Code of Federal Regulations citation.
type Regulation struct {
	Title   string `json:"title"`
	Part    string `json:"part,omitempty"`
	Section string `json:"section"`
}

// Constitution holds the fields of a constitutional provision.
type Constitution struct {
	Constitution  string `json:"constitution,omitempty"`
	Article       string `json:"article"`
	ArticleNumber int    `json:"article_number"`
	Section       string `json:"section,omitempty"`
}

// Fields returns the typed field block, or nil for unknown citations.
func (c Citation) Fields() any {
	switch {
	case c.CaseLaw != nil:
		return c.CaseLaw
	case c.Statute != nil:
		return c.Statute
	case c.Regulation != nil:
		return c.Regulation
	case c.Constitution != nil:
		return c.Constitution
	default:
		return nil
	}
}
