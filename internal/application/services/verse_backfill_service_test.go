package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/fellowship/backend/internal/domain/entities"
)

var backfillStatuses = []entities.VerseStatus{entities.VerseStatusPending, entities.VerseStatusError}

func TestBackfillGroup_EnrichesEveryListedVerse(t *testing.T) {
	verses := new(MockVerseRepo)
	enricher := new(MockEnricher)

	verses.On("ListIDsByStatus", mock.Anything, "group-1", backfillStatuses, "", BackfillBatchSize).
		Return([]string{"v1", "v2", "v3"}, nil).Once()
	enricher.On("Enrich", mock.Anything, "v1", "admin-1").Return(&EnrichmentResult{VerseID: "v1", Status: entities.VerseStatusEnriched}, nil).Once()
	enricher.On("Enrich", mock.Anything, "v2", "admin-1").Return(nil, assert.AnError).Once()
	enricher.On("Enrich", mock.Anything, "v3", "admin-1").Return(&EnrichmentResult{VerseID: "v3", Status: entities.VerseStatusEnriched}, nil).Once()

	summary, err := NewVerseBackfillService(verses, enricher, 2).BackfillGroup(context.Background(), "group-1", "admin-1")

	require.NoError(t, err)
	assert.Equal(t, &BackfillSummary{TotalProcessed: 3, SuccessCount: 2, FailureCount: 1}, summary)
	verses.AssertExpectations(t)
	enricher.AssertExpectations(t)
}

func TestBackfillGroup_PagesByCursor(t *testing.T) {
	verses := new(MockVerseRepo)
	enricher := new(MockEnricher)

	first := make([]string, BackfillBatchSize)
	for i := range first {
		first[i] = fmt.Sprintf("v%03d", i)
	}
	verses.On("ListIDsByStatus", mock.Anything, "group-1", backfillStatuses, "", BackfillBatchSize).Return(first, nil).Once()
	verses.On("ListIDsByStatus", mock.Anything, "group-1", backfillStatuses, "v099", BackfillBatchSize).Return([]string{"v100"}, nil).Once()
	enricher.On("Enrich", mock.Anything, mock.Anything, "admin-1").Return(&EnrichmentResult{Status: entities.VerseStatusEnriched}, nil)

	summary, err := NewVerseBackfillService(verses, enricher, 4).BackfillGroup(context.Background(), "group-1", "admin-1")

	require.NoError(t, err)
	assert.Equal(t, BackfillBatchSize+1, summary.TotalProcessed)
	assert.Equal(t, BackfillBatchSize+1, summary.SuccessCount)
	verses.AssertExpectations(t)
}

func TestBackfillGroup_ListFailure(t *testing.T) {
	verses := new(MockVerseRepo)
	enricher := new(MockEnricher)
	verses.On("ListIDsByStatus", mock.Anything, "group-1", backfillStatuses, "", BackfillBatchSize).Return(nil, assert.AnError).Once()

	summary, err := NewVerseBackfillService(verses, enricher, 1).BackfillGroup(context.Background(), "group-1", "admin-1")

	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 0, summary.TotalProcessed)
	enricher.AssertNotCalled(t, "Enrich", mock.Anything, mock.Anything, mock.Anything)
}

func TestBackfillSingle(t *testing.T) {
	verses := new(MockVerseRepo)
	enricher := new(MockEnricher)
	enricher.On("Enrich", mock.Anything, "v1", "admin-1").Return(nil, assert.AnError).Once()

	summary, err := NewVerseBackfillService(verses, enricher, 0).BackfillSingle(context.Background(), "v1", "admin-1")

	require.Error(t, err)
	assert.Equal(t, &BackfillSummary{TotalProcessed: 1, FailureCount: 1}, summary)
}
