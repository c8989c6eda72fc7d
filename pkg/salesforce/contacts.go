package salesforce

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Contact represents a Salesforce Contact record.
type Contact struct {
	ID        string `json:"Id" salesforce:"Id"`
	AccountID string `json:"AccountId" salesforce:"AccountId"`
	FirstName string `json:"FirstName" salesforce:"FirstName"`
	LastName  string `json:"LastName" salesforce:"LastName"`
	Title     string `json:"Title" salesforce:"Title"`
	Email     string `json:"Email" salesforce:"Email"`
}

// contactFields are the SOQL fields selected for Contact queries.
var contactFields = []string{
	"Id", "AccountId", "FirstName", "LastName", "Title", "Email",
}

// FindContactsByAccountID returns all Contacts linked to the given Account.
func FindContactsByAccountID(ctx context.Context, c Client, accountID string) ([]Contact, error) {
	if accountID == "" {
		return nil, eris.New("sf: account id is required")
	}

	soql := fmt.Sprintf(
		"SELECT %s FROM Contact WHERE AccountId = '%s'",
		strings.Join(contactFields, ", "),
		escapeSoql(accountID),
	)

	var contacts []Contact
	if err := c.Query(ctx, soql, &contacts); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("sf: find contacts for account %s", accountID))
	}
	return contacts, nil
}

// InsertContacts creates Contact records under the given Account in one
// collections call. Every record gets its AccountId set; results come back
// per record in input order.
func InsertContacts(ctx context.Context, c Client, accountID string, records []map[string]any) ([]CollectionResult, error) {
	if accountID == "" {
		return nil, eris.New("sf: account id is required for contacts")
	}
	if len(records) == 0 {
		return nil, nil
	}

	for _, rec := range records {
		rec["AccountId"] = accountID
	}

	results, err := c.InsertCollection(ctx, "Contact", records)
	if err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("sf: insert contacts for account %s", accountID))
	}
	return results, nil
}
