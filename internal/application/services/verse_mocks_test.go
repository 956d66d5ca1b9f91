package services

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/zatekoja/fellowship/backend/internal/domain/entities"
	"github.com/zatekoja/fellowship/backend/internal/domain/providers"
	"github.com/zatekoja/fellowship/backend/pkg/scripture"
)

type MockVerseRepo struct {
	mock.Mock
}

func (m *MockVerseRepo) GetByID(ctx context.Context, id string) (*entities.Verse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Verse), args.Error(1)
}

func (m *MockVerseRepo) SaveResolution(ctx context.Context, id string, text string, testament scripture.Testament) error {
	args := m.Called(ctx, id, text, testament)
	return args.Error(0)
}

func (m *MockVerseRepo) UpdateStatus(ctx context.Context, id string, status entities.VerseStatus, errorMessage *string) error {
	args := m.Called(ctx, id, status, errorMessage)
	return args.Error(0)
}

func (m *MockVerseRepo) SaveEnrichment(ctx context.Context, id string, enrichment *entities.Enrichment, testament scripture.Testament, enrichedBy string, enrichedAt time.Time) error {
	args := m.Called(ctx, id, enrichment, testament, enrichedBy, enrichedAt)
	return args.Error(0)
}

func (m *MockVerseRepo) ListIDsByStatus(ctx context.Context, groupID string, statuses []entities.VerseStatus, afterID string, limit int) ([]string, error) {
	args := m.Called(ctx, groupID, statuses, afterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockMembershipRepo struct {
	mock.Mock
}

func (m *MockMembershipRepo) IsGroupMember(ctx context.Context, userID, groupID string) (bool, error) {
	args := m.Called(ctx, userID, groupID)
	return args.Bool(0), args.Error(1)
}

func (m *MockMembershipRepo) IsOrgAdminForGroup(ctx context.Context, userID, groupID string) (bool, error) {
	args := m.Called(ctx, userID, groupID)
	return args.Bool(0), args.Error(1)
}

type MockTextProvider struct {
	mock.Mock
	name string
}

func (m *MockTextProvider) Name() string {
	return m.name
}

func (m *MockTextProvider) LookupVerse(ctx context.Context, lookup providers.VerseLookup) (string, error) {
	args := m.Called(ctx, lookup)
	return args.String(0), args.Error(1)
}

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) GenerateEnrichment(ctx context.Context, req providers.EnrichmentRequest) (*entities.Enrichment, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Enrichment), args.Error(1)
}

type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) Publish(ctx context.Context, channel string, event *entities.VerseEvent) error {
	args := m.Called(ctx, channel, event)
	return args.Error(0)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	args := m.Called(ctx, key, value, expirationSeconds)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type MockEnricher struct {
	mock.Mock
}

func (m *MockEnricher) Enrich(ctx context.Context, verseID, callerID string) (*EnrichmentResult, error) {
	args := m.Called(ctx, verseID, callerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*EnrichmentResult), args.Error(1)
}

func strPtr(s string) *string {
	return &s
}

func testamentPtr(t scripture.Testament) *scripture.Testament {
	return &t
}
