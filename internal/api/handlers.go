package api

import (
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"riyadhestate/server/config"
	"riyadhestate/server/internal/database"
	"riyadhestate/server/internal/dataset"
	"riyadhestate/server/internal/geometry"
	"riyadhestate/server/internal/logging"
	"riyadhestate/server/internal/models"
	"riyadhestate/server/internal/platform"
	"riyadhestate/server/internal/predictor"
)

// Handler serves one platform over HTTP. Reads share the platform, writes
// take it exclusively.
type Handler struct {
	mu       sync.RWMutex
	platform *platform.Platform
	db       *database.Database
	cfg      *config.Config
	logger   *logrus.Logger
}

type PredictRequest struct {
	District      string             `json:"district"`
	PropertyType  string             `json:"property_type"`
	AreaSqm       *int               `json:"area_sqm"`
	RoomCount     *int               `json:"room_count"`
	BathroomCount *int               `json:"bathroom_count"`
	AgeYears      *int               `json:"age_years"`
	DistanceKm    *float64           `json:"distance_km"`
	Features      map[string]float64 `json:"features"`
}

type PredictResponse struct {
	PredictedPrice float64             `json:"predicted_price"`
	PricePerSqm    *float64            `json:"price_per_sqm,omitempty"`
	DistanceKm     *float64            `json:"distance_km,omitempty"`
	Model          predictor.Algorithm `json:"model"`
	ModelID        string              `json:"model_id"`
}

type GenerateRequest struct {
	Samples *int   `json:"samples"`
	Seed    *int64 `json:"seed"`
	Train   bool   `json:"train"`
	Name    string `json:"name"`
}

type GenerateResponse struct {
	Rows     int                 `json:"rows"`
	Cleaning dataset.CleanReport `json:"cleaning"`
	Metrics  *predictor.Metrics  `json:"metrics,omitempty"`
	Dataset  *database.Dataset   `json:"dataset,omitempty"`
}

// NewHandler wires a handler. db may be nil, which disables the dataset store endpoints.
func NewHandler(p *platform.Platform, db *database.Database, cfg *config.Config, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		platform: p,
		db:       db,
		cfg:      cfg,
		logger:   logger,
	}
}

func (h *Handler) GetPropertyStats(c *gin.Context) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	analyzer, err := h.platform.Analyzer()
	if err != nil {
		h.fail(c, err, "Failed to get property stats")
		return
	}
	stats, err := analyzer.Statistics()
	if err != nil {
		h.fail(c, err, "Failed to get property stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) GetDistrictStats(c *gin.Context) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats, err := h.districtStats()
	if err != nil {
		h.fail(c, err, "Failed to get district stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) CompareDistricts(c *gin.Context) {
	names := c.QueryArray("district")
	if len(names) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one district parameter is required"})
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	analyzer, err := h.platform.Analyzer()
	if err != nil {
		h.fail(c, err, "Failed to compare districts")
		return
	}
	comparison, err := analyzer.CompareDistricts(names)
	if err != nil {
		h.fail(c, err, "Failed to compare districts")
		return
	}

	c.JSON(http.StatusOK, comparison)
}

func (h *Handler) GetDistrictMap(c *gin.Context) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats, err := h.districtStats()
	if err != nil {
		h.fail(c, err, "Failed to build district map")
		return
	}

	c.JSON(http.StatusOK, geometry.DistrictMap(stats))
}

func (h *Handler) GetPropertyTypeStats(c *gin.Context) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	analyzer, err := h.platform.Analyzer()
	if err != nil {
		h.fail(c, err, "Failed to get property type stats")
		return
	}
	stats, err := analyzer.ByPropertyType()
	if err != nil {
		h.fail(c, err, "Failed to get property type stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) GetMarketTrends(c *gin.Context) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	analyzer, err := h.platform.Analyzer()
	if err != nil {
		h.fail(c, err, "Failed to get market trends")
		return
	}
	trends, err := analyzer.MarketTrends()
	if err != nil {
		h.fail(c, err, "Failed to get market trends")
		return
	}

	c.JSON(http.StatusOK, trends)
}

func (h *Handler) GetBestValue(c *gin.Context) {
	n, err := strconv.Atoi(c.DefaultQuery("n", "10"))
	if err != nil || n < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "n must be a non-negative integer"})
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	analyzer, err := h.platform.Analyzer()
	if err != nil {
		h.fail(c, err, "Failed to get best value properties")
		return
	}
	best, err := analyzer.BestValue(n)
	if err != nil {
		h.fail(c, err, "Failed to get best value properties")
		return
	}

	c.JSON(http.StatusOK, best)
}

func (h *Handler) GetModelInfo(c *gin.Context) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	c.JSON(http.StatusOK, h.platform.Predictor().Info())
}

func (h *Handler) GetFeatureImportance(c *gin.Context) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	importance, err := h.platform.Predictor().FeatureImportance()
	if err != nil {
		h.fail(c, err, "Failed to get feature importance")
		return
	}

	c.JSON(http.StatusOK, importance)
}

func (h *Handler) PredictPrice(c *gin.Context) {
	var req PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Warn("Invalid prediction request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.Features == nil && (req.District == "" || req.PropertyType == "" || req.AreaSqm == nil) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "district, property_type and area_sqm are required"})
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	model := h.platform.Predictor()
	resp := PredictResponse{Model: model.Algorithm(), ModelID: model.Info().ID}

	var err error
	if req.Features != nil {
		resp.PredictedPrice, err = model.PredictSingle(req.Features)
	} else {
		record := req.record()
		resp.DistanceKm = record.DistanceKm
		resp.PredictedPrice, err = model.PredictRecord(record)
		if err == nil && *req.AreaSqm > 0 {
			ratio := resp.PredictedPrice / float64(*req.AreaSqm)
			resp.PricePerSqm = &ratio
		}
	}
	if err != nil {
		h.fail(c, err, "Failed to predict price")
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) GenerateDataset(c *gin.Context) {
	req := GenerateRequest{}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.logger.WithError(err).Warn("Invalid generate request")
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
	}

	samples := h.cfg.Generator.Samples
	if req.Samples != nil {
		samples = *req.Samples
	}
	seed := h.cfg.Generator.Seed
	if req.Seed != nil {
		seed = *req.Seed
	}
	if samples < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "samples must be non-negative"})
		return
	}
	if req.Name != "" && h.db == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dataset storage is not configured"})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	table, err := h.platform.Generate(samples, seed)
	if err != nil {
		h.fail(c, err, "Failed to generate dataset")
		return
	}
	report, err := h.platform.Clean()
	if err != nil {
		h.fail(c, err, "Failed to clean dataset")
		return
	}

	resp := GenerateResponse{Rows: table.Len(), Cleaning: report}
	if req.Train {
		metrics, err := h.platform.Train()
		if err != nil {
			h.fail(c, err, "Failed to train model")
			return
		}
		resp.Metrics = &metrics
	}
	if req.Name != "" {
		cleaned, err := h.platform.Cleaned()
		if err != nil {
			h.fail(c, err, "Failed to store dataset")
			return
		}
		stored, err := h.db.SaveTable(req.Name, cleaned)
		if err != nil {
			h.fail(c, err, "Failed to store dataset")
			return
		}
		resp.Dataset = stored
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) ListDatasets(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Dataset storage is not configured"})
		return
	}

	datasets, err := h.db.ListDatasets()
	if err != nil {
		h.fail(c, err, "Failed to list datasets")
		return
	}

	c.JSON(http.StatusOK, datasets)
}

func (h *Handler) LoadDataset(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Dataset storage is not configured"})
		return
	}

	table, err := h.db.LoadTable(c.Param("name"))
	if err != nil {
		h.fail(c, err, "Failed to load dataset")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.platform.Load(table)
	c.JSON(http.StatusOK, gin.H{
		"rows":    table.Len(),
		"columns": table.Columns,
		"cleaned": table.Cleaned,
	})
}

// districtStats expects the read lock to be held
func (h *Handler) districtStats() ([]models.DistrictStats, error) {
	analyzer, err := h.platform.Analyzer()
	if err != nil {
		return nil, err
	}
	return analyzer.ByDistrict()
}

func (r PredictRequest) record() models.PropertyRecord {
	record := models.PropertyRecord{
		District:      r.District,
		PropertyType:  r.PropertyType,
		AreaSqm:       r.AreaSqm,
		RoomCount:     r.RoomCount,
		BathroomCount: r.BathroomCount,
		AgeYears:      r.AgeYears,
		DistanceKm:    r.DistanceKm,
	}
	if record.DistanceKm == nil {
		if km, ok := geometry.DistanceFromCenter(r.District); ok {
			record.DistanceKm = &km
		}
	}
	return record
}

// fail logs err and answers with the status its kind maps to
func (h *Handler) fail(c *gin.Context, err error, message string) {
	status := statusFor(err)
	entry := h.logger.WithError(err).WithFields(logrus.Fields{
		"path":   c.FullPath(),
		"status": status,
	})
	if status >= http.StatusInternalServerError {
		entry.Error(message)
	} else {
		entry.Warn(message)
	}

	c.JSON(status, gin.H{"error": message, "detail": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrMissingColumn),
		errors.Is(err, predictor.ErrFeatureMismatch),
		errors.Is(err, predictor.ErrNonFinite),
		errors.Is(err, dataset.ErrEmptyInput),
		errors.Is(err, predictor.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, platform.ErrNoData),
		errors.Is(err, platform.ErrNotCleaned),
		errors.Is(err, predictor.ErrNotTrained),
		errors.Is(err, predictor.ErrImportanceUnsupported):
		return http.StatusConflict
	case errors.Is(err, predictor.ErrUnknownAlgorithm):
		return http.StatusBadRequest
	case errors.Is(err, database.ErrDatasetNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
