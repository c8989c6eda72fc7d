package export

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bluenorth/prospect-cli/internal/model"
	"github.com/bluenorth/prospect-cli/pkg/notion"
)

// NotionLeads exports results into a Notion lead database, one page per
// company, keyed by the page title.
type NotionLeads struct {
	client notion.Client
	dbID   string
}

// NewNotionLeads creates a Notion lead exporter writing into the given
// database.
func NewNotionLeads(client notion.Client, dbID string) *NotionLeads {
	return &NotionLeads{client: client, dbID: dbID}
}

// Name identifies this exporter in phase metadata and logs.
func (e *NotionLeads) Name() string { return "notion" }

// Export upserts the lead page for the company. An existing page is updated
// in place so repeated discoveries refresh the same row.
func (e *NotionLeads) Export(ctx context.Context, company model.CompanyIdentity, result *model.RunResult) error {
	if e.dbID == "" {
		return eris.New("export: notion lead database id is not configured")
	}

	pageID, created, err := notion.UpsertLead(ctx, e.client, e.dbID, leadFromResult(company, result))
	if err != nil {
		return eris.Wrap(err, "export: notion upsert")
	}

	zap.L().Info("export: notion lead written",
		zap.String("company", company.Name),
		zap.String("page_id", pageID),
		zap.Bool("created", created))
	return nil
}

// leadFromResult flattens a run result into one lead row. Runs that found
// nothing still get a page so the miss is visible in the database.
func leadFromResult(company model.CompanyIdentity, result *model.RunResult) notion.Lead {
	lead := notion.Lead{
		Company:      company.Name,
		Website:      result.Website,
		Status:       "Discovered",
		DiscoveredAt: time.Now(),
		CostUSD:      result.CostUSD,
	}
	if result.Website == "" && (result.Contact == nil || !result.Contact.HasContacts()) {
		lead.Status = "Not Found"
	}

	if rec := result.Contact; rec != nil {
		lead.Email = rec.GeneralContact.Email
		lead.Phone = rec.GeneralContact.Phone
		lead.Address = rec.GeneralContact.Address
		lead.DecisionMakers = formatPeople(rec.DecisionMakers)
		lead.Sources = rec.DataSources
		lead.Narrative = rec.Narrative
		lead.OfficeGeoJSON = officeGeoJSON(rec.OfficeLocation)
	}
	if sc := result.Score; sc != nil {
		lead.Score = sc.Total
		lead.HasScore = true
		lead.Category = string(sc.Category)
	}
	return lead
}
