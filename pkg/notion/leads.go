package notion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// notionTextLimit is Notion's per-element rich text content cap.
const notionTextLimit = 2000

// Lead is one exported row of the lead database. Only populated fields are
// rendered into properties, so re-exporting a run never blanks a column the
// run did not fill.
type Lead struct {
	Company        string
	Website        string
	Email          string
	Phone          string
	Address        string
	Score          int
	HasScore       bool
	Category       string
	Status         string
	DecisionMakers []string
	Sources        []string
	OfficeGeoJSON  string
	Narrative      string
	DiscoveredAt   time.Time
	CostUSD        float64
}

// Properties renders the lead as Notion page properties keyed by the lead
// database column names.
func (l Lead) Properties() notionapi.Properties {
	props := notionapi.Properties{
		"Name": notionapi.TitleProperty{
			Type: notionapi.PropertyTypeTitle,
			Title: []notionapi.RichText{
				{Text: &notionapi.Text{Content: clampText(l.Company)}},
			},
		},
	}
	if l.Website != "" {
		props["Website"] = notionapi.URLProperty{
			Type: notionapi.PropertyTypeURL,
			URL:  l.Website,
		}
	}
	if l.Email != "" {
		props["Email"] = notionapi.EmailProperty{
			Type:  notionapi.PropertyTypeEmail,
			Email: l.Email,
		}
	}
	if l.Phone != "" {
		props["Phone"] = notionapi.PhoneNumberProperty{
			Type:        notionapi.PropertyTypePhoneNumber,
			PhoneNumber: l.Phone,
		}
	}
	if l.Address != "" {
		props["Address"] = richTextProp(l.Address)
	}
	if l.HasScore {
		props["Score"] = notionapi.NumberProperty{
			Number: float64(l.Score),
		}
	}
	if l.Category != "" {
		props["Category"] = notionapi.SelectProperty{
			Type:   notionapi.PropertyTypeSelect,
			Select: notionapi.Option{Name: l.Category},
		}
	}
	if l.Status != "" {
		props["Status"] = notionapi.StatusProperty{
			Status: notionapi.Status{
				Name: l.Status,
			},
		}
	}
	if len(l.DecisionMakers) > 0 {
		props["Decision Makers"] = richTextProp(strings.Join(l.DecisionMakers, "; "))
	}
	if len(l.Sources) > 0 {
		opts := make([]notionapi.Option, len(l.Sources))
		for i, s := range l.Sources {
			opts[i] = notionapi.Option{Name: s}
		}
		props["Sources"] = notionapi.MultiSelectProperty{
			Type:        notionapi.PropertyTypeMultiSelect,
			MultiSelect: opts,
		}
	}
	if l.OfficeGeoJSON != "" {
		props["Office Location"] = richTextProp(l.OfficeGeoJSON)
	}
	if l.Narrative != "" {
		props["Narrative"] = richTextProp(l.Narrative)
	}
	if !l.DiscoveredAt.IsZero() {
		at := notionapi.Date(l.DiscoveredAt)
		props["Last Discovered"] = notionapi.DateProperty{
			Date: &notionapi.DateObject{
				Start: &at,
			},
		}
	}
	if l.CostUSD > 0 {
		props["Run Cost"] = notionapi.NumberProperty{
			Number: l.CostUSD,
		}
	}
	return props
}

// FindLeadPage locates the page titled company in the lead database.
// Returns nil when no such page exists.
func FindLeadPage(ctx context.Context, c Client, dbID, company string) (*notionapi.Page, error) {
	resp, err := c.QueryDatabase(ctx, dbID, &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: "Name",
			RichText: &notionapi.TextFilterCondition{
				Equals: company,
			},
		},
		PageSize: 1,
	})
	if err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("notion: find lead %s", company))
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}
	return &resp.Results[0], nil
}

// UpsertLead writes the lead into the database, updating the existing page
// when one matches the company name. Returns the page ID and whether a new
// page was created.
func UpsertLead(ctx context.Context, c Client, dbID string, lead Lead) (string, bool, error) {
	if strings.TrimSpace(lead.Company) == "" {
		return "", false, eris.New("notion: lead company is required")
	}

	existing, err := FindLeadPage(ctx, c, dbID, lead.Company)
	if err != nil {
		return "", false, err
	}

	if existing == nil {
		page, err := c.CreatePage(ctx, &notionapi.PageCreateRequest{
			Parent: notionapi.Parent{
				Type:       notionapi.ParentTypeDatabaseID,
				DatabaseID: notionapi.DatabaseID(dbID),
			},
			Properties: lead.Properties(),
		})
		if err != nil {
			return "", false, eris.Wrap(err, fmt.Sprintf("notion: create lead %s", lead.Company))
		}
		return string(page.ID), true, nil
	}

	page, err := c.UpdatePage(ctx, string(existing.ID), &notionapi.PageUpdateRequest{
		Properties: lead.Properties(),
	})
	if err != nil {
		return "", false, eris.Wrap(err, fmt.Sprintf("notion: update lead %s", lead.Company))
	}
	return string(page.ID), false, nil
}

func richTextProp(s string) notionapi.RichTextProperty {
	return notionapi.RichTextProperty{
		Type: notionapi.PropertyTypeRichText,
		RichText: []notionapi.RichText{
			{Text: &notionapi.Text{Content: clampText(s)}},
		},
	}
}

// clampText cuts s to Notion's 2000-character rich text element limit.
func clampText(s string) string {
	runes := []rune(s)
	if len(runes) <= notionTextLimit {
		return s
	}
	return string(runes[:notionTextLimit])
}
