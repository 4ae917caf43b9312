package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appcarrier "github.com/erp/carrier-sync/internal/application/carrier"
	"github.com/erp/carrier-sync/internal/domain/carrier"
	"github.com/erp/carrier-sync/internal/infrastructure/scheduler"
	"github.com/erp/carrier-sync/internal/interfaces/http/dto"
)

// MockCarrierQueries is a mock implementation of CarrierQueries
type MockCarrierQueries struct {
	mock.Mock
}

func (m *MockCarrierQueries) AllIDs(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockCarrierQueries) ActiveByCountry(ctx context.Context, country string) ([]carrier.Summary, error) {
	args := m.Called(ctx, country)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]carrier.Summary), args.Error(1)
}

func (m *MockCarrierQueries) GetByID(ctx context.Context, id int64) (*carrier.Carrier, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*carrier.Carrier), args.Error(1)
}

// MockSyncTrigger is a mock implementation of SyncTrigger
type MockSyncTrigger struct {
	mock.Mock
}

func (m *MockSyncTrigger) TriggerNow(ctx context.Context) (*scheduler.SyncJob, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scheduler.SyncJob), args.Error(1)
}

func (m *MockSyncTrigger) History(limit int) []*scheduler.SyncJob {
	args := m.Called(limit)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]*scheduler.SyncJob)
}

func setupCarrierHandler() (*gin.Engine, *MockCarrierQueries, *MockSyncTrigger) {
	queries := new(MockCarrierQueries)
	trigger := new(MockSyncTrigger)

	engine := gin.New()
	NewCarrierHandler(queries, trigger).RegisterRoutes(engine.Group("/api/v1"))
	return engine, queries, trigger
}

func doRequest(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func completedJob(result *appcarrier.SyncResult) *scheduler.SyncJob {
	job := scheduler.NewSyncJob(scheduler.SyncJobTriggerManual)
	job.Complete(result)
	return job
}

func TestCarrierHandler_ListIDs(t *testing.T) {
	engine, queries, _ := setupCarrierHandler()
	queries.On("AllIDs", mock.Anything).Return([]int64{1, 2, 7}, nil).Once()

	w := doRequest(engine, http.MethodGet, "/api/v1/carriers/ids")

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w).Data.(map[string]any)
	assert.Equal(t, []any{float64(1), float64(2), float64(7)}, data["ids"])
}

func TestCarrierHandler_ListIDs_StoreError(t *testing.T) {
	engine, queries, _ := setupCarrierHandler()
	queries.On("AllIDs", mock.Anything).Return(nil, errors.New("db down")).Once()

	w := doRequest(engine, http.MethodGet, "/api/v1/carriers/ids")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, dto.ErrCodeInternal, decodeResponse(t, w).Error.Code)
}

func TestCarrierHandler_ListByCountry(t *testing.T) {
	t.Run("valid country is normalized", func(t *testing.T) {
		engine, queries, _ := setupCarrierHandler()
		queries.On("ActiveByCountry", mock.Anything, "cz").
			Return([]carrier.Summary{{ID: 1, Name: "One"}, {ID: 3, Name: "Three"}}, nil).Once()

		w := doRequest(engine, http.MethodGet, "/api/v1/carriers/countries/CZ")

		assert.Equal(t, http.StatusOK, w.Code)
		data := decodeResponse(t, w).Data.(map[string]any)
		assert.Equal(t, "cz", data["country"])
		assert.Len(t, data["carriers"], 2)
		queries.AssertExpectations(t)
	})

	t.Run("no carriers gives an empty list", func(t *testing.T) {
		engine, queries, _ := setupCarrierHandler()
		queries.On("ActiveByCountry", mock.Anything, "hu").Return([]carrier.Summary{}, nil).Once()

		w := doRequest(engine, http.MethodGet, "/api/v1/carriers/countries/hu")

		assert.Equal(t, http.StatusOK, w.Code)
		data := decodeResponse(t, w).Data.(map[string]any)
		assert.Equal(t, []any{}, data["carriers"])
	})

	for _, country := range []string{"czech", "c", "12", "zz", "001"} {
		t.Run("rejects "+country, func(t *testing.T) {
			engine, queries, _ := setupCarrierHandler()

			w := doRequest(engine, http.MethodGet, "/api/v1/carriers/countries/"+country)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, dto.ErrCodeValidationFormat, decodeResponse(t, w).Error.Code)
			queries.AssertNotCalled(t, "ActiveByCountry", mock.Anything, mock.Anything)
		})
	}
}

func TestCarrierHandler_GetByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		engine, queries, _ := setupCarrierHandler()
		queries.On("GetByID", mock.Anything, int64(106)).Return(&carrier.Carrier{
			ID: 106, Name: "CZ Zásilkovna", Country: "cz", Currency: "CZK", MaxWeight: 10, Deleted: true,
		}, nil).Once()

		w := doRequest(engine, http.MethodGet, "/api/v1/carriers/106")

		assert.Equal(t, http.StatusOK, w.Code)
		data := decodeResponse(t, w).Data.(map[string]any)
		assert.Equal(t, "CZ Zásilkovna", data["name"])
		assert.Equal(t, true, data["deleted"])
		assert.Equal(t, float64(10), data["max_weight"])
	})

	t.Run("not found", func(t *testing.T) {
		engine, queries, _ := setupCarrierHandler()
		queries.On("GetByID", mock.Anything, int64(5)).
			Return(nil, fmt.Errorf("find carrier 5: %w", carrier.ErrNotFound)).Once()

		w := doRequest(engine, http.MethodGet, "/api/v1/carriers/5")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, dto.ErrCodeNotFound, decodeResponse(t, w).Error.Code)
	})

	for _, id := range []string{"abc", "0", "-3"} {
		t.Run("bad id "+id, func(t *testing.T) {
			engine, queries, _ := setupCarrierHandler()

			w := doRequest(engine, http.MethodGet, "/api/v1/carriers/"+id)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			queries.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
		})
	}
}

func TestCarrierHandler_Sync(t *testing.T) {
	t.Run("completed", func(t *testing.T) {
		engine, _, trigger := setupCarrierHandler()
		trigger.On("TriggerNow", mock.Anything).Return(completedJob(&appcarrier.SyncResult{
			RunID:         uuid.New(),
			Status:        appcarrier.SyncStatusCompleted,
			FeedCount:     3,
			InsertedCount: 1,
			UpdatedCount:  2,
			DeletedCount:  1,
		}), nil).Once()

		w := doRequest(engine, http.MethodPost, "/api/v1/carriers/sync")

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		assert.True(t, resp.Success)
		data := resp.Data.(map[string]any)
		assert.Equal(t, "SUCCESS", data["status"])
		assert.Equal(t, "Carriers were updated.", data["message"])
		assert.Equal(t, float64(1), data["inserted"])
		assert.Equal(t, float64(1), data["soft_deleted"])
	})

	tests := []struct {
		reason     appcarrier.AbortReason
		wantStatus int
		wantCode   string
	}{
		{appcarrier.ReasonTransport, http.StatusBadGateway, dto.ErrCodeFeedUnavailable},
		{appcarrier.ReasonMalformedDocument, http.StatusUnprocessableEntity, dto.ErrCodeFeedMalformed},
		{appcarrier.ReasonMissingList, http.StatusUnprocessableEntity, dto.ErrCodeFeedInvalid},
		{appcarrier.ReasonValidation, http.StatusUnprocessableEntity, dto.ErrCodeFeedInvalid},
		{appcarrier.ReasonStore, http.StatusInternalServerError, dto.ErrCodeSyncStore},
		{appcarrier.ReasonInternal, http.StatusInternalServerError, dto.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(string(tt.reason), func(t *testing.T) {
			engine, _, trigger := setupCarrierHandler()
			result := &appcarrier.SyncResult{
				RunID:  uuid.New(),
				Status: appcarrier.SyncStatusAborted,
				Reason: tt.reason,
				Err:    errors.New("boom"),
			}
			trigger.On("TriggerNow", mock.Anything).Return(completedJob(result), nil).Once()

			w := doRequest(engine, http.MethodPost, "/api/v1/carriers/sync")

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, result.Message(), resp.Error.Message)
			assert.Contains(t, resp.Error.Message, "Please try again later.")

			data := resp.Data.(map[string]any)
			assert.Equal(t, "FAILED", data["status"])
			assert.Equal(t, string(tt.reason), data["reason"])
		})
	}

	t.Run("trigger stopped", func(t *testing.T) {
		engine, _, trigger := setupCarrierHandler()
		trigger.On("TriggerNow", mock.Anything).Return(nil, scheduler.ErrTriggerStopped).Once()

		w := doRequest(engine, http.MethodPost, "/api/v1/carriers/sync")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, dto.ErrCodeUnavailable, decodeResponse(t, w).Error.Code)
	})
}

func TestCarrierHandler_SyncHistory(t *testing.T) {
	jobs := []*scheduler.SyncJob{
		completedJob(&appcarrier.SyncResult{RunID: uuid.New(), Status: appcarrier.SyncStatusCompleted}),
		completedJob(&appcarrier.SyncResult{RunID: uuid.New(), Status: appcarrier.SyncStatusAborted, Reason: appcarrier.ReasonTransport}),
	}

	t.Run("default limit", func(t *testing.T) {
		engine, _, trigger := setupCarrierHandler()
		trigger.On("History", defaultHistoryLimit).Return(jobs).Once()

		w := doRequest(engine, http.MethodGet, "/api/v1/carriers/sync/history")

		assert.Equal(t, http.StatusOK, w.Code)
		data := decodeResponse(t, w).Data.([]any)
		require.Len(t, data, 2)
		assert.Equal(t, "SUCCESS", data[0].(map[string]any)["status"])
		assert.Equal(t, "FAILED", data[1].(map[string]any)["status"])
		trigger.AssertExpectations(t)
	})

	t.Run("explicit limit", func(t *testing.T) {
		engine, _, trigger := setupCarrierHandler()
		trigger.On("History", 1).Return(jobs[:1]).Once()

		w := doRequest(engine, http.MethodGet, "/api/v1/carriers/sync/history?limit=1")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decodeResponse(t, w).Data, 1)
	})

	t.Run("empty history", func(t *testing.T) {
		engine, _, trigger := setupCarrierHandler()
		trigger.On("History", defaultHistoryLimit).Return(nil).Once()

		w := doRequest(engine, http.MethodGet, "/api/v1/carriers/sync/history")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []any{}, decodeResponse(t, w).Data)
	})

	for _, limit := range []string{"0", "101", "ten"} {
		t.Run("rejects limit "+limit, func(t *testing.T) {
			engine, _, trigger := setupCarrierHandler()

			w := doRequest(engine, http.MethodGet, "/api/v1/carriers/sync/history?limit="+limit)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			trigger.AssertNotCalled(t, "History", mock.Anything)
		})
	}
}

func TestParseCountry(t *testing.T) {
	for raw, want := range map[string]string{"CZ": "cz", " sk ": "sk", "hu": "hu", "DE": "de"} {
		got, ok := parseCountry(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got)
	}
	for _, raw := range []string{"", "c", "cze", "zz", "aa", "qm", "xx", "419"} {
		_, ok := parseCountry(raw)
		assert.False(t, ok, raw)
	}
}
