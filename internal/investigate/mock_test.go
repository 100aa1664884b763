package investigate

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/spac-sync/internal/model"
	"github.com/sells-group/spac-sync/pkg/anthropic"
	"github.com/sells-group/spac-sync/pkg/edgar"
)

type mockRegistry struct {
	mock.Mock
}

func (m *mockRegistry) CompanyByCIK(ctx context.Context, cik string) (*edgar.CompanyInfo, error) {
	args := m.Called(ctx, cik)
	info, _ := args.Get(0).(*edgar.CompanyInfo)
	return info, args.Error(1)
}

func (m *mockRegistry) SearchCompanyByName(ctx context.Context, name string) ([]edgar.CompanyMatch, error) {
	args := m.Called(ctx, name)
	matches, _ := args.Get(0).([]edgar.CompanyMatch)
	return matches, args.Error(1)
}

func (m *mockRegistry) EarliestFilingDate(ctx context.Context, cik string) (*time.Time, error) {
	args := m.Called(ctx, cik)
	t, _ := args.Get(0).(*time.Time)
	return t, args.Error(1)
}

func (m *mockRegistry) SearchFilings(ctx context.Context, cik, filingType string, count int) ([]model.Filing, error) {
	args := m.Called(ctx, cik, filingType, count)
	filings, _ := args.Get(0).([]model.Filing)
	return filings, args.Error(1)
}

func (m *mockRegistry) FetchDocument(ctx context.Context, url string) (string, error) {
	args := m.Called(ctx, url)
	return args.String(0), args.Error(1)
}

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*anthropic.MessageResponse)
	return resp, args.Error(1)
}

func mustDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func datePtr(s string) *time.Time {
	t := mustDate(s)
	return &t
}

func strPtr(s string) *string { return &s }
