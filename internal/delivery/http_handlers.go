package delivery

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lasvegasedge/adtrack-clean-project-sub002/internal/domain"
	"github.com/lasvegasedge/adtrack-clean-project-sub002/internal/usecase"
	"github.com/lasvegasedge/adtrack-clean-project-sub002/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// handles HTTP requests
type HTTPHandlers struct {
	ingestService  *usecase.IngestService
	rankingService *usecase.RankingService
	catalogService *usecase.CatalogService
	logger         *logger.Logger
}

// creates new HTTP handlers
func NewHTTPHandlers(
	ingestService *usecase.IngestService,
	rankingService *usecase.RankingService,
	catalogService *usecase.CatalogService,
	logger *logger.Logger,
) *HTTPHandlers {
	return &HTTPHandlers{
		ingestService:  ingestService,
		rankingService: rankingService,
		catalogService: catalogService,
		logger:         logger,
	}
}

// PushRequest is the body of POST /api/v1/campaigns.
type PushRequest struct {
	Campaigns  []domain.CampaignPayload `json:"campaigns"`
	Businesses []domain.Business        `json:"businesses"`
}

// ComputeRequest is the body of POST /api/v1/rankings/compute.
type ComputeRequest struct {
	BusinessID       int64                    `json:"business_id"`
	CompareTo        int64                    `json:"compare_to"`
	TimeBasis        string                   `json:"time_basis"`
	Normalize        *bool                    `json:"normalize"`
	AdMethodID       int64                    `json:"ad_method_id"`
	BusinessType     string                   `json:"business_type"`
	RadiusKm         float64                  `json:"radius_km"`
	AsOf             string                   `json:"as_of"`
	IncludeCampaigns bool                     `json:"include_campaigns"`
	Campaigns        []domain.CampaignPayload `json:"campaigns"`
	Businesses       []domain.Business        `json:"businesses"`
}

func requestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return uuid.New().String()
}

// writeError maps service errors onto status codes
func (h *HTTPHandlers) writeError(c *gin.Context, err error, message string) {
	status := http.StatusInternalServerError
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr),
		errors.Is(err, domain.ErrInvalidTimeBasis),
		errors.Is(err, domain.ErrMissingLocation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrBusinessNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrSinkNotConfigured):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		h.logger.WithContext(c.Request.Context()).WithError(err).Error(message)
	}
	_ = c.Error(err)

	c.JSON(status, gin.H{
		"error":      message,
		"message":    err.Error(),
		"request_id": requestID(c),
	})
}

// triggers an upstream ingest run
func (h *HTTPHandlers) IngestRun(c *gin.Context) {
	ctx := c.Request.Context()
	log := h.logger.WithContext(ctx)
	log.Info("Starting campaign ingestion")

	var since *time.Time
	if sinceStr := c.Query("since"); sinceStr != "" {
		parsedSince, err := time.Parse("2006-01-02", sinceStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":      "Invalid date format",
				"message":    "Date must be in YYYY-MM-DD format",
				"request_id": requestID(c),
			})
			return
		}
		since = &parsedSince
	}

	report, err := h.ingestService.RunIngest(ctx, since)
	if err != nil {
		h.writeError(c, err, "Ingestion failed")
		return
	}

	response := gin.H{
		"message":    "Ingestion completed successfully",
		"report":     report,
		"request_id": requestID(c),
	}
	if since != nil {
		response["since"] = since.Format("2006-01-02")
	}

	c.JSON(http.StatusOK, response)
}

// PushCampaigns stores campaigns sent in the request body
func (h *HTTPHandlers) PushCampaigns(c *gin.Context) {
	var req PushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Invalid request body",
			"message":    err.Error(),
			"request_id": requestID(c),
		})
		return
	}

	report, err := h.ingestService.IngestPayloads(c.Request.Context(), req.Campaigns, req.Businesses)
	if err != nil {
		h.writeError(c, err, "Failed to store campaigns")
		return
	}

	status := http.StatusOK
	if report.Accepted == 0 && len(report.Rejected) > 0 {
		status = http.StatusUnprocessableEntity
	}

	c.JSON(status, gin.H{
		"accepted":   report.Accepted,
		"rejected":   report.Rejected,
		"businesses": report.Businesses,
		"request_id": requestID(c),
	})
}

// ListCampaigns returns a page of stored campaigns
func (h *HTTPHandlers) ListCampaigns(c *gin.Context) {
	filter, err := parseCampaignFilter(c)
	if err != nil {
		h.writeError(c, err, "Invalid parameters")
		return
	}

	limit, offset, err := parsePagination(c)
	if err != nil {
		h.writeError(c, err, "Invalid parameters")
		return
	}

	page, err := h.catalogService.ListCampaigns(c.Request.Context(), filter, limit, offset)
	if err != nil {
		h.writeError(c, err, "Failed to retrieve campaigns")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       page.Data,
		"total":      page.Total,
		"limit":      page.Limit,
		"offset":     page.Offset,
		"has_more":   page.HasMore,
		"request_id": requestID(c),
	})
}

// GetCampaignSummary totals spend and revenue over stored campaigns
func (h *HTTPHandlers) GetCampaignSummary(c *gin.Context) {
	filter, err := parseCampaignFilter(c)
	if err != nil {
		h.writeError(c, err, "Invalid parameters")
		return
	}

	summary, err := h.catalogService.Summary(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, err, "Failed to retrieve summary")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       summary,
		"request_id": requestID(c),
	})
}

func parseCampaignFilter(c *gin.Context) (domain.CampaignFilter, error) {
	var filter domain.CampaignFilter
	if v := c.Query("ad_method_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return filter, &domain.ValidationError{Field: "ad_method_id", Reason: "must be an integer"}
		}
		filter.AdMethodID = id
	}
	if v := c.Query("business_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return filter, &domain.ValidationError{Field: "business_id", Reason: "must be an integer"}
		}
		filter.BusinessIDs = []int64{id}
	}
	return filter, nil
}

func parsePagination(c *gin.Context) (int, int, error) {
	limit, offset := 0, 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, 0, &domain.ValidationError{Field: "limit", Reason: "must be a non-negative integer"}
		}
		limit = n
	}
	if v := c.Query("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, 0, &domain.ValidationError{Field: "offset", Reason: "must be a non-negative integer"}
		}
		offset = n
	}
	return limit, offset, nil
}

// GetRankings ranks a business against stored campaigns
func (h *HTTPHandlers) GetRankings(c *gin.Context) {
	q, err := h.parseRankingQuery(c)
	if err != nil {
		h.writeError(c, err, "Invalid parameters")
		return
	}

	result, err := h.rankingService.GetRanking(c.Request.Context(), q)
	if err != nil {
		h.writeError(c, err, "Failed to compute ranking")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       result,
		"request_id": requestID(c),
	})
}

// ComputeRankings ranks exactly the records in the request body
func (h *HTTPHandlers) ComputeRankings(c *gin.Context) {
	var req ComputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Invalid request body",
			"message":    err.Error(),
			"request_id": requestID(c),
		})
		return
	}

	q := h.rankingService.NewQuery(req.BusinessID)
	q.CompareToBusinessID = req.CompareTo
	if req.TimeBasis != "" {
		q.TimeBasis = domain.TimeBasis(req.TimeBasis)
	}
	if req.Normalize != nil {
		q.Normalize = *req.Normalize
	}
	q.AdMethodID = req.AdMethodID
	q.BusinessType = req.BusinessType
	q.RadiusKm = req.RadiusKm
	q.IncludeCampaigns = req.IncludeCampaigns
	if req.AsOf != "" {
		asOf, err := time.Parse("2006-01-02", req.AsOf)
		if err != nil {
			h.writeError(c, &domain.ValidationError{Field: "as_of", Reason: "must be in YYYY-MM-DD format"}, "Invalid parameters")
			return
		}
		q.AsOf = asOf
	}

	result, rejected, err := h.rankingService.Compute(c.Request.Context(), q, req.Campaigns, req.Businesses)
	if err != nil {
		h.writeError(c, err, "Failed to compute ranking")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       result,
		"rejected":   rejected,
		"request_id": requestID(c),
	})
}

// ExportRun computes a ranking and pushes it to the sink
func (h *HTTPHandlers) ExportRun(c *gin.Context) {
	q, err := h.parseRankingQuery(c)
	if err != nil {
		h.writeError(c, err, "Invalid parameters")
		return
	}

	snapshot, err := h.rankingService.ExportRanking(c.Request.Context(), q)
	if err != nil {
		h.writeError(c, err, "Export failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Export completed successfully",
		"business_id":  snapshot.Query.TargetBusinessID,
		"as_of":        snapshot.Query.AsOf.Format("2006-01-02"),
		"entries":      len(snapshot.Result.Entries),
		"generated_at": snapshot.GeneratedAt.Format(time.RFC3339),
		"request_id":   requestID(c),
	})
}

// parseRankingQuery reads the shared ranking parameters from the query string
func (h *HTTPHandlers) parseRankingQuery(c *gin.Context) (domain.RankingQuery, error) {
	businessIDStr := c.Query("business_id")
	if businessIDStr == "" {
		return domain.RankingQuery{}, &domain.ValidationError{Field: "business_id", Reason: "parameter is required"}
	}
	businessID, err := strconv.ParseInt(businessIDStr, 10, 64)
	if err != nil {
		return domain.RankingQuery{}, &domain.ValidationError{Field: "business_id", Reason: "must be an integer"}
	}

	q := h.rankingService.NewQuery(businessID)

	if tb := c.Query("time_basis"); tb != "" {
		q.TimeBasis = domain.TimeBasis(tb)
	}
	if n := c.Query("normalize"); n != "" {
		if q.Normalize, err = strconv.ParseBool(n); err != nil {
			return q, &domain.ValidationError{Field: "normalize", Reason: "must be true or false"}
		}
	}
	if v := c.Query("ad_method_id"); v != "" {
		if q.AdMethodID, err = strconv.ParseInt(v, 10, 64); err != nil {
			return q, &domain.ValidationError{Field: "ad_method_id", Reason: "must be an integer"}
		}
	}
	if v := c.Query("compare_to"); v != "" {
		if q.CompareToBusinessID, err = strconv.ParseInt(v, 10, 64); err != nil {
			return q, &domain.ValidationError{Field: "compare_to", Reason: "must be an integer"}
		}
	}
	if v := c.Query("radius_km"); v != "" {
		if q.RadiusKm, err = strconv.ParseFloat(v, 64); err != nil {
			return q, &domain.ValidationError{Field: "radius_km", Reason: "must be a number"}
		}
	}
	if v := c.Query("as_of"); v != "" {
		if q.AsOf, err = time.Parse("2006-01-02", v); err != nil {
			return q, &domain.ValidationError{Field: "as_of", Reason: "must be in YYYY-MM-DD format"}
		}
	}
	if v := c.Query("include_campaigns"); v != "" {
		if q.IncludeCampaigns, err = strconv.ParseBool(v); err != nil {
			return q, &domain.ValidationError{Field: "include_campaigns", Reason: "must be true or false"}
		}
	}
	q.BusinessType = strings.TrimSpace(c.Query("business_type"))

	return q, nil
}

// GetAPIInfo returns API v1 information and available endpoints
func (h *HTTPHandlers) GetAPIInfo(c *gin.Context) {
	rankingParams := gin.H{
		"business_id":       "Required: business to rank",
		"time_basis":        "Optional: daily, weekly, monthly or all",
		"normalize":         "Optional: true or false",
		"ad_method_id":      "Optional: restrict to one advertising method",
		"business_type":     "Optional: restrict to businesses of this type",
		"radius_km":         "Optional: restrict to businesses within this distance of the target",
		"compare_to":        "Optional: business to compare against instead of the top performer",
		"as_of":             "Optional: as-of date (YYYY-MM-DD), defaults to today",
		"include_campaigns": "Optional: include contributing campaigns per entry",
	}

	c.JSON(http.StatusOK, gin.H{
		"api_version": "v1",
		"service":     "AdTrack Ranking Service",
		"version":     "1.0.0",
		"description": "Ranks businesses by advertising return on investment and compares them with their peers",
		"endpoints": gin.H{
			"ingest": gin.H{
				"path":        "/api/v1/ingest/run",
				"methods":     []string{"POST"},
				"description": "Pull campaigns and businesses from the upstream APIs",
				"parameters":  gin.H{"since": "Optional: skip campaigns that ended before this date (YYYY-MM-DD)"},
				"example":     "/api/v1/ingest/run?since=2025-01-01",
			},
			"campaigns": gin.H{
				"path":        "/api/v1/campaigns",
				"methods":     []string{"GET", "POST"},
				"description": "List stored campaigns, or push campaigns and businesses; invalid records are rejected individually",
				"parameters": gin.H{
					"business_id":  "Optional: restrict to one business",
					"ad_method_id": "Optional: restrict to one advertising method",
					"limit":        "Optional: Number of results (default: 100)",
					"offset":       "Optional: Pagination offset (default: 0)",
				},
				"example": "/api/v1/campaigns?business_id=1&limit=20",
			},
			"summary": gin.H{
				"path":        "/api/v1/campaigns/summary",
				"methods":     []string{"GET"},
				"description": "Total spend, revenue, ROI and ROAS over stored campaigns",
			},
			"rankings": gin.H{
				"path":        "/api/v1/rankings",
				"methods":     []string{"GET"},
				"description": "Rank a business against stored campaigns",
				"parameters":  rankingParams,
				"example":     "/api/v1/rankings?business_id=1&time_basis=monthly&normalize=true",
			},
			"compute": gin.H{
				"path":        "/api/v1/rankings/compute",
				"methods":     []string{"POST"},
				"description": "Rank exactly the campaigns supplied in the request body",
			},
			"export": gin.H{
				"path":        "/api/v1/export/run",
				"methods":     []string{"POST"},
				"description": "Compute a ranking and push the snapshot to the configured sink",
				"parameters":  rankingParams,
			},
		},
		"business_metrics": gin.H{
			"roi":            "Return on investment ((revenue - cost) / cost * 100)",
			"roas":           "Return on ad spend (revenue / cost)",
			"normalized_roi": "ROI divided by advertising-days and scaled to the time basis",
		},
		"request_id": requestID(c),
	})
}

// HealthCheck returns the health status of the service
func (h *HTTPHandlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"service":    "adtrack",
		"version":    "1.0.0",
		"request_id": requestID(c),
	})
}
