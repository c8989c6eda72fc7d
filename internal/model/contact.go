package model

// Confidence grades whether a data point was directly observed or inferred.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Person is a named individual with an associated title.
type Person struct {
	Name        string     `json:"name"`
	Title       string     `json:"title,omitempty"`
	Email       string     `json:"email,omitempty"`
	LinkedInURL string     `json:"linkedin_url,omitempty"`
	Confidence  Confidence `json:"confidence,omitempty"`
	Source      string     `json:"source,omitempty"`
}

// ExtractedSignals holds the structured signals pulled from one page or
// unioned across pages.
type ExtractedSignals struct {
	Emails      []string `json:"emails,omitempty"`
	Phones      []string `json:"phones,omitempty"`
	Addresses   []string `json:"addresses,omitempty"`
	People      []Person `json:"people,omitempty"`
	Description string   `json:"description,omitempty"`
	SocialLinks []string `json:"social_links,omitempty"`
}

// Empty reports whether no contact signal of any kind was found. Description
// and social links do not count: they never satisfy a contact-page probe.
func (s ExtractedSignals) Empty() bool {
	return len(s.Emails) == 0 && len(s.Phones) == 0 &&
		len(s.Addresses) == 0 && len(s.People) == 0
}

// HasDirectContact reports whether at least one email, phone, or address was
// found. Used by the contact-path fallback to decide whether a probed page
// yielded anything.
func (s ExtractedSignals) HasDirectContact() bool {
	return len(s.Emails) > 0 || len(s.Phones) > 0 || len(s.Addresses) > 0
}

// GeneralContact is the single best-known contact point for a company.
type GeneralContact struct {
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// Coordinates is a geocoded point for an office address.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ContactRecord is the canonical aggregate output of the discovery pipeline.
// Every non-null factual field must be traceable to a visited page or a
// knowledge-source excerpt; Narrative and Brief are advisory AI text and are
// never treated as ground truth.
type ContactRecord struct {
	Company        string          `json:"company"`
	Website        string          `json:"website,omitempty"`
	GeneralContact GeneralContact  `json:"general_contact"`
	DecisionMakers []Person        `json:"decision_makers,omitempty"`
	Description    string          `json:"description,omitempty"`
	SocialLinks    []string        `json:"social_links,omitempty"`
	OfficeLocation *Coordinates    `json:"office_location,omitempty"`
	DataSources    []string        `json:"data_sources,omitempty"`
	Notes          string          `json:"notes"`
	SuggestedPages []string        `json:"suggested_pages,omitempty"`
	Narrative      string          `json:"narrative,omitempty"`
	Brief          string          `json:"brief,omitempty"`
}

// HasContacts reports whether the record carries any direct contact data or
// named people.
func (c *ContactRecord) HasContacts() bool {
	if c.GeneralContact.Email != "" || c.GeneralContact.Phone != "" || c.GeneralContact.Address != "" {
		return true
	}
	return len(c.DecisionMakers) > 0
}
