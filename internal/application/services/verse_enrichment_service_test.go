package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/fellowship/backend/internal/domain/entities"
	"github.com/zatekoja/fellowship/backend/internal/domain/providers"
	"github.com/zatekoja/fellowship/backend/pkg/enrichment"
	apperrors "github.com/zatekoja/fellowship/backend/pkg/errors"
	"github.com/zatekoja/fellowship/backend/pkg/scripture"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type pipelineFixture struct {
	verses      *MockVerseRepo
	memberships *MockMembershipRepo
	primary     *MockTextProvider
	fallback    *MockTextProvider
	generator   *MockGenerator
	events      *MockEventBus
	service     *VerseEnrichmentService
}

func newPipelineFixture() *pipelineFixture {
	f := &pipelineFixture{
		verses:      new(MockVerseRepo),
		memberships: new(MockMembershipRepo),
		primary:     &MockTextProvider{name: "primary"},
		fallback:    &MockTextProvider{name: "bible-api"},
		generator:   new(MockGenerator),
		events:      new(MockEventBus),
	}
	resolver := NewTextResolver([]providers.ScriptureTextProvider{f.primary, f.fallback}, nil, 0)
	f.service = NewVerseEnrichmentService(f.verses, NewAuthorizationGate(f.memberships), resolver, f.generator, f.events)
	f.service.now = func() time.Time { return fixedNow }
	f.events.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	return f
}

func pendingVerse(reference string) *entities.Verse {
	return &entities.Verse{
		ID:        "verse-1",
		GroupID:   "group-1",
		Reference: reference,
		Status:    entities.VerseStatusPending,
	}
}

func generated() *entities.Enrichment {
	return &entities.Enrichment{
		AuthorName:       "Paul",
		Tags:             []string{"Grace", "grace", "GRACE", "love"},
		EmotionalClimate: []string{"hope"},
		CrossReferences:  []string{"John 3:16"},
		GreekKeywords:    []entities.Keyword{{Term: "agape", Gloss: "love"}},
	}
}

func isNilMessage(msg *string) bool { return msg == nil }

// Scenario A: pending verse, member caller, text resolved from a provider.
func TestEnrich_ResolvesClassifiesAndEnriches(t *testing.T) {
	f := newPipelineFixture()
	f.verses.On("GetByID", mock.Anything, "verse-1").Return(pendingVerse("Romans 5:8"), nil).Once()
	f.memberships.On("IsGroupMember", mock.Anything, "user-1", "group-1").Return(true, nil).Once()
	f.primary.On("LookupVerse", mock.Anything, providers.VerseLookup{Book: "Romans", Chapter: 5, Verse: 8}).
		Return("But God commendeth his love toward us", nil).Once()
	f.verses.On("SaveResolution", mock.Anything, "verse-1", "But God commendeth his love toward us", scripture.TestamentNew).
		Return(nil).Once()
	f.verses.On("UpdateStatus", mock.Anything, "verse-1", entities.VerseStatusEnriching, mock.MatchedBy(isNilMessage)).
		Return(nil).Once()
	f.generator.On("GenerateEnrichment", mock.Anything, providers.EnrichmentRequest{
		Reference: "Romans 5:8",
		VerseText: "But God commendeth his love toward us",
		Testament: scripture.TestamentNew,
	}).Return(generated(), nil).Once()
	f.verses.On("SaveEnrichment", mock.Anything, "verse-1", mock.MatchedBy(func(e *entities.Enrichment) bool {
		return assert.ObjectsAreEqual([]string{"Grace", "love"}, e.Tags) &&
			e.GreekKeywords != nil && e.HebrewKeywords == nil
	}), scripture.TestamentNew, "user-1", fixedNow).Return(nil).Once()

	result, err := f.service.Enrich(context.Background(), "verse-1", "user-1")

	require.NoError(t, err)
	assert.Equal(t, &EnrichmentResult{VerseID: "verse-1", Status: entities.VerseStatusEnriched}, result)
	f.verses.AssertExpectations(t)
	f.generator.AssertExpectations(t)
	f.fallback.AssertNotCalled(t, "LookupVerse", mock.Anything, mock.Anything)
	f.memberships.AssertNotCalled(t, "IsOrgAdminForGroup", mock.Anything, mock.Anything, mock.Anything)
	f.events.AssertCalled(t, "Publish", mock.Anything, "verse:verse-1", mock.MatchedBy(func(e *entities.VerseEvent) bool {
		return e.Status == entities.VerseStatusEnriched
	}))
	f.events.AssertCalled(t, "Publish", mock.Anything, "verse:updates", mock.Anything)
}

// Scenario B: both providers fail.
func TestEnrich_UnresolvableTextMarksError(t *testing.T) {
	f := newPipelineFixture()
	f.verses.On("GetByID", mock.Anything, "verse-1").Return(pendingVerse("Romans 5:8"), nil).Once()
	f.memberships.On("IsGroupMember", mock.Anything, "user-1", "group-1").Return(true, nil).Once()
	f.primary.On("LookupVerse", mock.Anything, mock.Anything).Return("", errors.New("503")).Once()
	f.fallback.On("LookupVerse", mock.Anything, mock.Anything).Return("", errors.New("timeout")).Once()
	f.verses.On("UpdateStatus", mock.Anything, "verse-1", entities.VerseStatusError, mock.MatchedBy(func(msg *string) bool {
		return msg != nil && *msg == "Bible API: unable to resolve verse_text"
	})).Return(nil).Once()

	result, err := f.service.Enrich(context.Background(), "verse-1", "user-1")

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeExternal))
	assert.ErrorIs(t, err, ErrVerseTextUnresolved)
	f.verses.AssertExpectations(t)
	f.verses.AssertNotCalled(t, "UpdateStatus", mock.Anything, "verse-1", entities.VerseStatusEnriching, mock.Anything)
	f.verses.AssertNotCalled(t, "SaveResolution", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.generator.AssertNotCalled(t, "GenerateEnrichment", mock.Anything, mock.Anything)
}

// Scenario C: caller is neither member nor admin.
func TestEnrich_ForbiddenLeavesStatusUntouched(t *testing.T) {
	f := newPipelineFixture()
	verse := pendingVerse("Romans 5:8")
	verse.Status = entities.VerseStatusEnriched
	f.verses.On("GetByID", mock.Anything, "verse-1").Return(verse, nil).Once()
	f.memberships.On("IsGroupMember", mock.Anything, "user-2", "group-1").Return(false, nil).Once()
	f.memberships.On("IsOrgAdminForGroup", mock.Anything, "user-2", "group-1").Return(false, nil).Once()

	_, err := f.service.Enrich(context.Background(), "verse-1", "user-2")

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeForbidden))
	f.verses.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.verses.AssertNotCalled(t, "SaveResolution", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestEnrich_NotFound(t *testing.T) {
	f := newPipelineFixture()
	f.verses.On("GetByID", mock.Anything, "missing").Return(nil, apperrors.NewNotFoundError("verse with id missing not found")).Once()

	_, err := f.service.Enrich(context.Background(), "missing", "user-1")

	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeNotFound))
	f.memberships.AssertNotCalled(t, "IsGroupMember", mock.Anything, mock.Anything, mock.Anything)
}

func TestEnrich_BadReferenceLeavesStatusUntouched(t *testing.T) {
	f := newPipelineFixture()
	f.verses.On("GetByID", mock.Anything, "verse-1").Return(pendingVerse("Romans viii:1"), nil).Once()
	f.memberships.On("IsGroupMember", mock.Anything, "user-1", "group-1").Return(true, nil).Once()

	_, err := f.service.Enrich(context.Background(), "verse-1", "user-1")

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeValidation))
	var parseErr *scripture.ParseError
	assert.True(t, errors.As(err, &parseErr))
	f.verses.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEnrich_ExistingTextSkipsResolution(t *testing.T) {
	f := newPipelineFixture()
	verse := pendingVerse("Genesis 1:1")
	verse.Status = entities.VerseStatusError
	verse.VerseText = strPtr("In the beginning God created the heaven and the earth.")
	verse.Testament = testamentPtr(scripture.TestamentOld)

	f.verses.On("GetByID", mock.Anything, "verse-1").Return(verse, nil).Once()
	f.memberships.On("IsGroupMember", mock.Anything, "user-1", "group-1").Return(false, nil).Once()
	f.memberships.On("IsOrgAdminForGroup", mock.Anything, "user-1", "group-1").Return(true, nil).Once()
	f.verses.On("UpdateStatus", mock.Anything, "verse-1", entities.VerseStatusEnriching, mock.MatchedBy(isNilMessage)).Return(nil).Once()
	f.generator.On("GenerateEnrichment", mock.Anything, mock.Anything).Return(&entities.Enrichment{
		HebrewKeywords: []entities.Keyword{{Term: "bara", Gloss: "create"}},
		GreekKeywords:  []entities.Keyword{{Term: "logos", Gloss: "word"}},
	}, nil).Once()
	f.verses.On("SaveEnrichment", mock.Anything, "verse-1", mock.MatchedBy(func(e *entities.Enrichment) bool {
		return len(e.HebrewKeywords) == 1 && e.GreekKeywords == nil
	}), scripture.TestamentOld, "user-1", fixedNow).Return(nil).Once()

	result, err := f.service.Enrich(context.Background(), "verse-1", "user-1")

	require.NoError(t, err)
	assert.Equal(t, entities.VerseStatusEnriched, result.Status)
	f.verses.AssertNotCalled(t, "SaveResolution", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.primary.AssertNotCalled(t, "LookupVerse", mock.Anything, mock.Anything)
	f.verses.AssertExpectations(t)
}

func TestEnrich_MissingTestamentIsClassifiedOnly(t *testing.T) {
	f := newPipelineFixture()
	verse := pendingVerse("Psalms 23:1")
	verse.VerseText = strPtr("The LORD is my shepherd; I shall not want.")

	f.verses.On("GetByID", mock.Anything, "verse-1").Return(verse, nil).Once()
	f.memberships.On("IsGroupMember", mock.Anything, "user-1", "group-1").Return(true, nil).Once()
	f.verses.On("SaveResolution", mock.Anything, "verse-1", "The LORD is my shepherd; I shall not want.", scripture.TestamentOld).Return(nil).Once()
	f.verses.On("UpdateStatus", mock.Anything, "verse-1", entities.VerseStatusEnriching, mock.MatchedBy(isNilMessage)).Return(nil).Once()
	f.generator.On("GenerateEnrichment", mock.Anything, mock.MatchedBy(func(r providers.EnrichmentRequest) bool {
		return r.Testament == scripture.TestamentOld
	})).Return(&entities.Enrichment{}, nil).Once()
	f.verses.On("SaveEnrichment", mock.Anything, "verse-1", mock.Anything, scripture.TestamentOld, "user-1", fixedNow).Return(nil).Once()

	_, err := f.service.Enrich(context.Background(), "verse-1", "user-1")

	require.NoError(t, err)
	f.primary.AssertNotCalled(t, "LookupVerse", mock.Anything, mock.Anything)
	f.verses.AssertExpectations(t)
}

func TestEnrich_GenerationFailureMarksError(t *testing.T) {
	f := newPipelineFixture()
	verse := pendingVerse("John 3:16")
	verse.VerseText = strPtr("For God so loved the world")
	verse.Testament = testamentPtr(scripture.TestamentNew)
	genErr := enrichment.NewStatusError("openai", 500, []byte(strings.Repeat("x", 900)))

	f.verses.On("GetByID", mock.Anything, "verse-1").Return(verse, nil).Once()
	f.memberships.On("IsGroupMember", mock.Anything, "user-1", "group-1").Return(true, nil).Once()
	f.verses.On("UpdateStatus", mock.Anything, "verse-1", entities.VerseStatusEnriching, mock.MatchedBy(isNilMessage)).Return(nil).Once()
	f.generator.On("GenerateEnrichment", mock.Anything, mock.Anything).Return(nil, genErr).Once()
	f.verses.On("UpdateStatus", mock.Anything, "verse-1", entities.VerseStatusError, mock.MatchedBy(func(msg *string) bool {
		return msg != nil && len([]rune(*msg)) == entities.MaxErrorMessageLength
	})).Return(nil).Once()

	_, err := f.service.Enrich(context.Background(), "verse-1", "user-1")

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeExternal))
	var got *enrichment.GenerationError
	require.True(t, errors.As(err, &got))
	assert.Equal(t, 500, got.StatusCode)
	f.verses.AssertExpectations(t)
	f.verses.AssertNotCalled(t, "SaveEnrichment", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEnrich_PersistFailureStillReturnsOriginalError(t *testing.T) {
	f := newPipelineFixture()
	verse := pendingVerse("John 3:16")
	verse.VerseText = strPtr("For God so loved the world")
	verse.Testament = testamentPtr(scripture.TestamentNew)
	saveErr := apperrors.NewInternalError("failed to save verse enrichment", errors.New("deadlock"))

	f.verses.On("GetByID", mock.Anything, "verse-1").Return(verse, nil).Once()
	f.memberships.On("IsGroupMember", mock.Anything, "user-1", "group-1").Return(true, nil).Once()
	f.verses.On("UpdateStatus", mock.Anything, "verse-1", entities.VerseStatusEnriching, mock.MatchedBy(isNilMessage)).Return(nil).Once()
	f.generator.On("GenerateEnrichment", mock.Anything, mock.Anything).Return(generated(), nil).Once()
	f.verses.On("SaveEnrichment", mock.Anything, "verse-1", mock.Anything, scripture.TestamentNew, "user-1", fixedNow).Return(saveErr).Once()
	f.verses.On("UpdateStatus", mock.Anything, "verse-1", entities.VerseStatusError, mock.Anything).Return(errors.New("connection reset")).Once()

	_, err := f.service.Enrich(context.Background(), "verse-1", "user-1")

	assert.Same(t, saveErr, err)
	f.verses.AssertExpectations(t)
}

func TestEnrich_ErrorWriteSurvivesCancellation(t *testing.T) {
	f := newPipelineFixture()
	verse := pendingVerse("John 3:16")
	verse.VerseText = strPtr("For God so loved the world")
	verse.Testament = testamentPtr(scripture.TestamentNew)

	ctx, cancel := context.WithCancel(context.Background())

	f.verses.On("GetByID", mock.Anything, "verse-1").Return(verse, nil).Once()
	f.memberships.On("IsGroupMember", mock.Anything, "user-1", "group-1").Return(true, nil).Once()
	f.verses.On("UpdateStatus", mock.Anything, "verse-1", entities.VerseStatusEnriching, mock.MatchedBy(isNilMessage)).Return(nil).Once()
	f.generator.On("GenerateEnrichment", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(nil, context.Canceled).Once()
	f.verses.On("UpdateStatus", mock.MatchedBy(func(c context.Context) bool {
		return c.Err() == nil
	}), "verse-1", entities.VerseStatusError, mock.Anything).Return(nil).Once()

	_, err := f.service.Enrich(ctx, "verse-1", "user-1")

	require.Error(t, err)
	f.verses.AssertExpectations(t)
}

func TestEnrich_UnknownBookDefaultsToNewTestament(t *testing.T) {
	f := newPipelineFixture()
	verse := pendingVerse("Hezekiah 4:2")
	verse.VerseText = strPtr("apocryphal text")

	f.verses.On("GetByID", mock.Anything, "verse-1").Return(verse, nil).Once()
	f.memberships.On("IsGroupMember", mock.Anything, "user-1", "group-1").Return(true, nil).Once()
	f.verses.On("SaveResolution", mock.Anything, "verse-1", "apocryphal text", scripture.TestamentNew).Return(nil).Once()
	f.verses.On("UpdateStatus", mock.Anything, "verse-1", entities.VerseStatusEnriching, mock.MatchedBy(isNilMessage)).Return(nil).Once()
	f.generator.On("GenerateEnrichment", mock.Anything, mock.Anything).Return(&entities.Enrichment{}, nil).Once()
	f.verses.On("SaveEnrichment", mock.Anything, "verse-1", mock.MatchedBy(func(e *entities.Enrichment) bool {
		return e.GreekKeywords != nil && e.HebrewKeywords == nil
	}), scripture.TestamentNew, "user-1", fixedNow).Return(nil).Once()

	_, err := f.service.Enrich(context.Background(), "verse-1", "user-1")

	require.NoError(t, err)
	f.verses.AssertExpectations(t)
}

func TestEnrich_EventFailuresAreNotFatal(t *testing.T) {
	f := newPipelineFixture()
	f.events = new(MockEventBus)
	f.events.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down"))
	f.service.events = f.events

	verse := pendingVerse("John 3:16")
	verse.VerseText = strPtr("For God so loved the world")
	verse.Testament = testamentPtr(scripture.TestamentNew)

	f.verses.On("GetByID", mock.Anything, "verse-1").Return(verse, nil).Once()
	f.memberships.On("IsGroupMember", mock.Anything, "user-1", "group-1").Return(true, nil).Once()
	f.verses.On("UpdateStatus", mock.Anything, "verse-1", entities.VerseStatusEnriching, mock.MatchedBy(isNilMessage)).Return(nil).Once()
	f.generator.On("GenerateEnrichment", mock.Anything, mock.Anything).Return(generated(), nil).Once()
	f.verses.On("SaveEnrichment", mock.Anything, "verse-1", mock.Anything, scripture.TestamentNew, "user-1", fixedNow).Return(nil).Once()

	result, err := f.service.Enrich(context.Background(), "verse-1", "user-1")

	require.NoError(t, err)
	assert.Equal(t, entities.VerseStatusEnriched, result.Status)
	f.events.AssertNumberOfCalls(t, "Publish", 4)
}
