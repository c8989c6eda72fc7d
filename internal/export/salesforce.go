package export

import (
	"context"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bluenorth/prospect-cli/internal/geo"
	"github.com/bluenorth/prospect-cli/internal/model"
	"github.com/bluenorth/prospect-cli/pkg/salesforce"
)

// scoreField is the optional custom field that receives the prospect score.
// Orgs without it still get the standard Rating picklist.
const scoreField = "Prospect_Score__c"

// sfDescriptionLimit is the Account Description field length.
const sfDescriptionLimit = 32000

// SalesforceSync pushes results into Salesforce: one Account upsert per
// company plus Contact inserts for decision makers not already on the
// account.
type SalesforceSync struct {
	client salesforce.Client

	describeOnce  sync.Once
	hasScoreField bool
}

// NewSalesforceSync creates a Salesforce exporter on the given client.
func NewSalesforceSync(client salesforce.Client) *SalesforceSync {
	return &SalesforceSync{client: client}
}

// Name identifies this exporter in phase metadata and logs.
func (e *SalesforceSync) Name() string { return "salesforce" }

// Export upserts the Account and syncs decision-maker Contacts.
func (e *SalesforceSync) Export(ctx context.Context, company model.CompanyIdentity, result *model.RunResult) error {
	accountID, err := e.upsertAccount(ctx, company, result)
	if err != nil {
		return err
	}
	if result.Contact != nil && len(result.Contact.DecisionMakers) > 0 {
		if err := e.syncContacts(ctx, accountID, result.Contact.DecisionMakers); err != nil {
			return err
		}
	}
	return nil
}

// upsertAccount matches an existing Account by website domain, then by exact
// name, and updates it; otherwise a new Account is created.
func (e *SalesforceSync) upsertAccount(ctx context.Context, company model.CompanyIdentity, result *model.RunResult) (string, error) {
	account, err := salesforce.FindAccountByWebsite(ctx, e.client, result.Website)
	if err != nil {
		return "", eris.Wrap(err, "export: find account")
	}
	if account == nil {
		if account, err = salesforce.FindAccountByName(ctx, e.client, company.Name); err != nil {
			return "", eris.Wrap(err, "export: find account")
		}
	}

	fields := e.accountFields(ctx, company, result)

	if account != nil {
		if err := salesforce.UpdateAccount(ctx, e.client, account.ID, fields); err != nil {
			return "", eris.Wrap(err, "export: update account")
		}
		zap.L().Info("export: salesforce account updated",
			zap.String("company", company.Name),
			zap.String("account_id", account.ID))
		return account.ID, nil
	}

	fields["Name"] = company.Name
	id, err := salesforce.CreateAccount(ctx, e.client, fields)
	if err != nil {
		return "", eris.Wrap(err, "export: create account")
	}
	zap.L().Info("export: salesforce account created",
		zap.String("company", company.Name),
		zap.String("account_id", id))
	return id, nil
}

// accountFields maps the result onto Account field values. Only observed
// data is written; a field the run did not fill stays untouched in SF.
func (e *SalesforceSync) accountFields(ctx context.Context, company model.CompanyIdentity, result *model.RunResult) map[string]any {
	fields := map[string]any{}
	if result.Website != "" {
		fields["Website"] = result.Website
	}
	if rec := result.Contact; rec != nil {
		if rec.GeneralContact.Phone != "" {
			fields["Phone"] = rec.GeneralContact.Phone
		}
		if rec.Description != "" {
			fields["Description"] = truncate(rec.Description, sfDescriptionLimit)
		}
		if loc := rec.OfficeLocation; loc != nil {
			fields["BillingLatitude"] = loc.Lat
			fields["BillingLongitude"] = loc.Lng
		}
	}
	if country := geo.CountryName(company.Location); country != "" {
		fields["BillingCountry"] = country
	}
	if sc := result.Score; sc != nil {
		fields["Rating"] = categoryRating(sc.Category)
		if e.scoreFieldAvailable(ctx) {
			fields[scoreField] = sc.Total
		}
	}
	return fields
}

// scoreFieldAvailable probes the Account describe once per process for the
// optional custom score field. A describe failure only disables the field.
func (e *SalesforceSync) scoreFieldAvailable(ctx context.Context) bool {
	e.describeOnce.Do(func() {
		desc, err := e.client.DescribeSObject(ctx, "Account")
		if err != nil {
			zap.L().Warn("export: account describe failed; skipping custom score field", zap.Error(err))
			return
		}
		e.hasScoreField = desc.HasField(scoreField)
	})
	return e.hasScoreField
}

// syncContacts inserts decision makers that are not already on the account.
// Existing contacts match by email first, then by full name.
func (e *SalesforceSync) syncContacts(ctx context.Context, accountID string, people []model.Person) error {
	existing, err := salesforce.FindContactsByAccountID(ctx, e.client, accountID)
	if err != nil {
		return eris.Wrap(err, "export: list contacts")
	}

	seenEmail := make(map[string]bool, len(existing))
	seenName := make(map[string]bool, len(existing))
	for _, c := range existing {
		if c.Email != "" {
			seenEmail[strings.ToLower(c.Email)] = true
		}
		seenName[contactKey(c.FirstName, c.LastName)] = true
	}

	var records []map[string]any
	for _, p := range people {
		first, last := splitName(p.Name)
		if last == "" {
			continue
		}
		if p.Email != "" && seenEmail[strings.ToLower(p.Email)] {
			continue
		}
		if seenName[contactKey(first, last)] {
			continue
		}

		rec := map[string]any{"LastName": last}
		if first != "" {
			rec["FirstName"] = first
		}
		if p.Title != "" {
			rec["Title"] = p.Title
		}
		if p.Email != "" {
			rec["Email"] = p.Email
		}
		records = append(records, rec)
	}

	results, err := salesforce.InsertContacts(ctx, e.client, accountID, records)
	if err != nil {
		return eris.Wrap(err, "export: insert contacts")
	}
	for i, r := range results {
		if !r.Success {
			zap.L().Warn("export: contact insert rejected",
				zap.String("account_id", accountID),
				zap.Int("index", i),
				zap.Strings("errors", r.Errors))
		}
	}
	if len(records) > 0 {
		zap.L().Info("export: salesforce contacts inserted",
			zap.String("account_id", accountID),
			zap.Int("count", len(records)))
	}
	return nil
}

func contactKey(first, last string) string {
	return strings.ToLower(strings.TrimSpace(first + " " + last))
}

// categoryRating folds score categories onto the standard Rating picklist.
func categoryRating(cat model.Category) string {
	switch cat {
	case model.CategoryHotProspect:
		return "Hot"
	case model.CategoryWarmLead:
		return "Warm"
	default:
		return "Cold"
	}
}
