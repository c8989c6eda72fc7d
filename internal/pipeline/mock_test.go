package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/bluenorth/prospect-cli/internal/model"
	"github.com/bluenorth/prospect-cli/pkg/anthropic"
	"github.com/bluenorth/prospect-cli/pkg/geocode"
)

// --- Resolver mock ---

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) Resolve(ctx context.Context, company model.CompanyIdentity) (*model.DiscoveredWebsite, error) {
	args := m.Called(ctx, company)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DiscoveredWebsite), args.Error(1)
}

// --- Crawler mock ---

type mockCrawler struct {
	mock.Mock
}

func (m *mockCrawler) Crawl(ctx context.Context, website string) (*model.CrawlResult, error) {
	args := m.Called(ctx, website)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CrawlResult), args.Error(1)
}

// --- Knowledge source mock ---

type mockKnowledge struct {
	mock.Mock
}

func (m *mockKnowledge) Context(ctx context.Context, companyName string) (*model.KnowledgeContext, error) {
	args := m.Called(ctx, companyName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.KnowledgeContext), args.Error(1)
}

// --- Narrator mock ---

type mockNarrator struct {
	mock.Mock
}

func (m *mockNarrator) Summary(ctx context.Context, rec *model.ContactRecord, know *model.KnowledgeContext) (string, anthropic.TokenUsage, error) {
	args := m.Called(ctx, rec, know)
	return args.String(0), args.Get(1).(anthropic.TokenUsage), args.Error(2)
}

func (m *mockNarrator) Brief(ctx context.Context, id model.CompanyIdentity) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *mockNarrator) Model() string {
	args := m.Called()
	return args.String(0)
}

// --- Exporter mock ---

type mockExporter struct {
	mock.Mock
}

func (m *mockExporter) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *mockExporter) Export(ctx context.Context, company model.CompanyIdentity, result *model.RunResult) error {
	args := m.Called(ctx, company, result)
	return args.Error(0)
}

// --- Geocode client mock ---

type mockGeocoder struct {
	mock.Mock
}

func (m *mockGeocoder) Geocode(ctx context.Context, address string) (*geocode.Result, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*geocode.Result), args.Error(1)
}
