package salesforce

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
)

// Account represents a Salesforce Account record.
type Account struct {
	ID               string  `json:"Id" salesforce:"Id"`
	Name             string  `json:"Name" salesforce:"Name"`
	Website          string  `json:"Website" salesforce:"Website"`
	Phone            string  `json:"Phone" salesforce:"Phone"`
	Industry         string  `json:"Industry" salesforce:"Industry"`
	Description      string  `json:"Description" salesforce:"Description"`
	BillingCity      string  `json:"BillingCity" salesforce:"BillingCity"`
	BillingCountry   string  `json:"BillingCountry" salesforce:"BillingCountry"`
	BillingLatitude  float64 `json:"BillingLatitude" salesforce:"BillingLatitude"`
	BillingLongitude float64 `json:"BillingLongitude" salesforce:"BillingLongitude"`
	Rating           string  `json:"Rating" salesforce:"Rating"`
	Type             string  `json:"Type" salesforce:"Type"`
}

// accountFields are the SOQL fields selected for Account queries.
var accountFields = []string{
	"Id", "Name", "Website", "Phone", "Industry", "Description",
	"BillingCity", "BillingCountry", "BillingLatitude", "BillingLongitude",
	"Rating", "Type",
}

// FindAccountByWebsite queries Salesforce for an Account whose Website
// contains the domain of the given URL. Scheme, port, and a leading www are
// ignored so "https://www.acme.com/contact" matches an account stored as
// "acme.com". Returns nil when no account matches.
func FindAccountByWebsite(ctx context.Context, c Client, website string) (*Account, error) {
	domain := websiteDomain(website)
	if domain == "" {
		return nil, nil
	}

	soql := fmt.Sprintf(
		"SELECT %s FROM Account WHERE Website LIKE '%%%s%%' LIMIT 1",
		strings.Join(accountFields, ", "),
		escapeSoql(domain),
	)

	var accounts []Account
	if err := c.Query(ctx, soql, &accounts); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("sf: find account by website %s", website))
	}
	if len(accounts) == 0 {
		return nil, nil
	}
	return &accounts[0], nil
}

// FindAccountByName queries Salesforce for an Account with the exact given
// name. Returns nil if no account is found.
func FindAccountByName(ctx context.Context, c Client, name string) (*Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	soql := fmt.Sprintf(
		"SELECT %s FROM Account WHERE Name = '%s' LIMIT 1",
		strings.Join(accountFields, ", "),
		escapeSoql(name),
	)

	var accounts []Account
	if err := c.Query(ctx, soql, &accounts); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("sf: find account by name %s", name))
	}
	if len(accounts) == 0 {
		return nil, nil
	}
	return &accounts[0], nil
}

// websiteDomain reduces a URL or bare host to its lowercase host without a
// leading www. Empty when no host can be recognized.
func websiteDomain(website string) string {
	s := strings.TrimSpace(strings.ToLower(website))
	if s == "" {
		return ""
	}
	if u, err := url.Parse(s); err == nil && u.Host != "" {
		s = u.Host
	} else {
		if i := strings.IndexAny(s, "/?#"); i >= 0 {
			s = s[:i]
		}
	}
	s = strings.TrimPrefix(s, "www.")
	if i := strings.IndexByte(s, ':'); i >= 0 {
		s = s[:i]
	}
	return s
}

// escapeSoql escapes single quotes in SOQL string literals to prevent injection.
func escapeSoql(s string) string {
	return strings.ReplaceAll(s, "'", "\\'")
}
