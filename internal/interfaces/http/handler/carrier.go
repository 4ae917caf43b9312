package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	appcarrier "github.com/erp/carrier-sync/internal/application/carrier"
	"github.com/erp/carrier-sync/internal/domain/carrier"
	"github.com/erp/carrier-sync/internal/infrastructure/logger"
	"github.com/erp/carrier-sync/internal/infrastructure/scheduler"
	"github.com/erp/carrier-sync/internal/interfaces/http/dto"
	"github.com/erp/carrier-sync/internal/interfaces/http/router"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// CarrierQueries is the read side of the carrier catalog
type CarrierQueries interface {
	AllIDs(ctx context.Context) ([]int64, error)
	ActiveByCountry(ctx context.Context, country string) ([]carrier.Summary, error)
	GetByID(ctx context.Context, id int64) (*carrier.Carrier, error)
}

// SyncTrigger starts synchronizer passes and remembers recent ones
type SyncTrigger interface {
	TriggerNow(ctx context.Context) (*scheduler.SyncJob, error)
	History(limit int) []*scheduler.SyncJob
}

// CarrierHandler handles carrier catalog endpoints
type CarrierHandler struct {
	BaseHandler
	queries CarrierQueries
	trigger SyncTrigger
}

// NewCarrierHandler creates a new CarrierHandler
func NewCarrierHandler(queries CarrierQueries, trigger SyncTrigger) *CarrierHandler {
	return &CarrierHandler{
		queries: queries,
		trigger: trigger,
	}
}

// RegisterRoutes mounts the carrier routes under /carriers
func (h *CarrierHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := router.NewDomainGroup("carriers", "/carriers")
	g.GET("/ids", h.ListIDs)
	g.GET("/countries/:country", h.ListByCountry)
	g.POST("/sync", h.Sync)
	g.GET("/sync/history", h.SyncHistory)
	g.GET("/:id", h.GetByID)
	g.RegisterRoutes(rg)
}

// ListIDs godoc
// @ID           listCarrierIDs
// @Summary      List carrier IDs
// @Description  Returns every known carrier ID, deleted ones included
// @Tags         carriers
// @Produce      json
// @Success      200 {object} dto.Response{data=dto.CarrierIDsResponse}
// @Failure      500 {object} dto.Response
// @Router       /carriers/ids [get]
func (h *CarrierHandler) ListIDs(c *gin.Context) {
	ids, err := h.queries.AllIDs(c.Request.Context())
	if err != nil {
		h.InternalError(c, err)
		return
	}
	h.Success(c, dto.CarrierIDsResponse{IDs: ids})
}

// ListByCountry godoc
// @ID           listCarriersByCountry
// @Summary      List carriers of a country
// @Description  Returns the active carriers of a country ordered by ID
// @Tags         carriers
// @Produce      json
// @Param        country path string true "ISO 3166-1 alpha-2 country code"
// @Success      200 {object} dto.Response{data=dto.CountryCarriersResponse}
// @Failure      400 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Router       /carriers/countries/{country} [get]
func (h *CarrierHandler) ListByCountry(c *gin.Context) {
	country, ok := parseCountry(c.Param("country"))
	if !ok {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeValidationFormat,
			"country must be an ISO 3166-1 alpha-2 code")
		return
	}

	summaries, err := h.queries.ActiveByCountry(c.Request.Context(), country)
	if err != nil {
		h.InternalError(c, err)
		return
	}

	resp := dto.CountryCarriersResponse{
		Country:  country,
		Carriers: make([]dto.CarrierSummaryResponse, 0, len(summaries)),
	}
	for _, s := range summaries {
		resp.Carriers = append(resp.Carriers, dto.CarrierSummaryResponse{ID: s.ID, Name: s.Name})
	}
	h.Success(c, resp)
}

// GetByID godoc
// @ID           getCarrier
// @Summary      Get carrier by ID
// @Description  Returns a carrier record, including soft-deleted ones
// @Tags         carriers
// @Produce      json
// @Param        id path int true "Carrier ID"
// @Success      200 {object} dto.Response{data=dto.CarrierResponse}
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Router       /carriers/{id} [get]
func (h *CarrierHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeValidationFormat, "id must be a positive integer")
		return
	}

	found, err := h.queries.GetByID(c.Request.Context(), id)
	if errors.Is(err, carrier.ErrNotFound) {
		h.NotFound(c, "carrier not found")
		return
	}
	if err != nil {
		h.InternalError(c, err)
		return
	}
	h.Success(c, toCarrierResponse(found))
}

// Sync godoc
// @ID           syncCarriers
// @Summary      Synchronize carriers
// @Description  Runs one synchronizer pass and reports its outcome
// @Tags         carriers
// @Produce      json
// @Success      200 {object} dto.Response{data=dto.SyncJobResponse}
// @Failure      422 {object} dto.Response{data=dto.SyncJobResponse}
// @Failure      500 {object} dto.Response{data=dto.SyncJobResponse}
// @Failure      502 {object} dto.Response{data=dto.SyncJobResponse}
// @Failure      503 {object} dto.Response
// @Router       /carriers/sync [post]
func (h *CarrierHandler) Sync(c *gin.Context) {
	job, err := h.trigger.TriggerNow(c.Request.Context())
	if err != nil {
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeUnavailable, err.Error())
		return
	}

	resp := toSyncJobResponse(job)
	if job.Result != nil && job.Result.Completed() {
		h.Success(c, resp)
		return
	}

	code := syncErrorCode(job)
	logger.GetGinLogger(c).Warn("Manual carrier sync failed",
		zap.String("job_id", job.ID.String()),
		zap.String("reason", job.Reason),
	)
	c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithData(code, job.Message, getRequestID(c), resp))
}

// SyncHistory godoc
// @ID           listCarrierSyncHistory
// @Summary      List sync history
// @Description  Returns recent synchronizer passes, newest first
// @Tags         carriers
// @Produce      json
// @Param        limit query int false "Number of jobs (1-100)" default(20)
// @Success      200 {object} dto.Response{data=[]dto.SyncJobResponse}
// @Failure      400 {object} dto.Response
// @Router       /carriers/sync/history [get]
func (h *CarrierHandler) SyncHistory(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxHistoryLimit {
			h.Error(c, http.StatusBadRequest, dto.ErrCodeValidationFormat, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	jobs := h.trigger.History(limit)
	resp := make([]dto.SyncJobResponse, 0, len(jobs))
	for _, job := range jobs {
		resp = append(resp, toSyncJobResponse(job))
	}
	h.Success(c, resp)
}

// parseCountry accepts two-letter ISO 3166-1 country codes in any case
func parseCountry(raw string) (string, bool) {
	country := carrier.NormalizeCountry(raw)
	if len(country) != 2 {
		return "", false
	}
	region, err := language.ParseRegion(country)
	if err != nil || !region.IsCountry() {
		return "", false
	}
	return country, true
}

func syncErrorCode(job *scheduler.SyncJob) string {
	switch appcarrier.AbortReason(job.Reason) {
	case appcarrier.ReasonTransport:
		return dto.ErrCodeFeedUnavailable
	case appcarrier.ReasonMalformedDocument:
		return dto.ErrCodeFeedMalformed
	case appcarrier.ReasonMissingList, appcarrier.ReasonValidation:
		return dto.ErrCodeFeedInvalid
	case appcarrier.ReasonStore:
		return dto.ErrCodeSyncStore
	default:
		return dto.ErrCodeInternal
	}
}

func toCarrierResponse(c *carrier.Carrier) dto.CarrierResponse {
	return dto.CarrierResponse{
		ID:                    c.ID,
		Name:                  c.Name,
		IsPickupPoints:        c.IsPickupPoints,
		HasCarrierDirectLabel: c.HasCarrierDirectLabel,
		SeparateHouseNumber:   c.SeparateHouseNumber,
		CustomsDeclarations:   c.CustomsDeclarations,
		RequiresEmail:         c.RequiresEmail,
		RequiresPhone:         c.RequiresPhone,
		RequiresSize:          c.RequiresSize,
		DisallowsCOD:          c.DisallowsCOD,
		Country:               c.Country,
		Currency:              c.Currency,
		MaxWeight:             c.MaxWeight,
		Deleted:               c.Deleted,
	}
}

func toSyncJobResponse(job *scheduler.SyncJob) dto.SyncJobResponse {
	return dto.SyncJobResponse{
		ID:          job.ID.String(),
		RunID:       job.SyncRunID,
		Trigger:     string(job.Trigger),
		Status:      string(job.Status),
		Reason:      job.Reason,
		Message:     job.Message,
		Error:       job.Error,
		FeedCount:   job.FeedCount,
		Inserted:    job.Inserted,
		Updated:     job.Updated,
		Failed:      job.FailedCount,
		FailedIDs:   job.FailedIDs,
		SoftDeleted: job.SoftDeleted,
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
		DurationMS:  job.Duration().Milliseconds(),
	}
}
