package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/sprintforge/effort-estimator/internal/cache"
	"github.com/sprintforge/effort-estimator/internal/config"
	"github.com/sprintforge/effort-estimator/internal/database"
	"github.com/sprintforge/effort-estimator/internal/engine"
	"github.com/sprintforge/effort-estimator/internal/errors"
	"github.com/sprintforge/effort-estimator/internal/forecast"
	"github.com/sprintforge/effort-estimator/internal/monitoring"
	"github.com/sprintforge/effort-estimator/internal/security"
	"github.com/sprintforge/effort-estimator/internal/types"
)

// server bundles the wired dependencies behind the HTTP surface.
type server struct {
	cfg      config.Config
	db       *database.DB
	repo     *database.Repository
	svc      *forecast.Service
	appCache *cache.Cache
	metrics  *monitoring.Metrics
	logger   *monitoring.Logger
}

func newRouter(s *server) *gin.Engine {
	r := gin.New()

	// Monitoring first, to capture all requests
	r.Use(monitoring.MonitoringMiddleware(s.metrics, s.logger))

	r.Use(errors.ErrorHandler())
	r.Use(errors.RecoveryHandler())

	securityConfig := security.DefaultSecurityConfig()
	securityConfig.MaxRequestsPerMin = s.cfg.RequestsPerMin
	securityConfig.AllowedOrigins = s.cfg.AllowedOrigins
	securityConfig.RequestTimeout = s.cfg.RequestTimeout
	securityMiddleware := security.NewSecurityMiddleware(securityConfig, s.metrics)

	r.Use(securityMiddleware.SecurityHeaders)
	r.Use(securityMiddleware.RequestTimeout)
	r.Use(securityMiddleware.ValidateContentType)
	r.Use(securityMiddleware.RateLimitByIP)

	r.Use(cors.New(cors.Config{
		AllowOrigins: s.cfg.AllowedOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		MaxAge:       12 * time.Hour,
	}))

	// Identical forecast requests share a response until the inputs
	// change; every mutating handler clears the cache.
	r.Use(s.appCache.Middleware("/forecast", s.metrics, s.logger))

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.metrics.GetStats())
	})
	r.GET("/cache/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.appCache.Stats())
	})
	r.GET("/pools/database", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"pool":  "database",
			"stats": s.db.GetPoolStats(),
		})
	})

	// Swagger documentation routes
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")
	{
		api.POST("/sectors", s.handleCreateSector)
		api.GET("/sectors", s.handleListSectors)
		api.GET("/sectors/:id", s.handleGetSector)
		api.DELETE("/sectors/:id", s.handleDeleteSector)
		api.PUT("/sectors/:id/anchor", s.handleUpdateAnchor)
		api.PUT("/sectors/:id/backlog", s.handleUpdateBacklog)
		api.PUT("/sectors/:id/factors", s.handleReplaceFactors)
		api.GET("/sectors/:id/factors", s.handleListFactors)
		api.POST("/sectors/:id/stories", s.handleAddStory)
		api.GET("/sectors/:id/stories", s.handleListStories)
		api.POST("/sectors/:id/sprints", s.handleAddSprint)
		api.GET("/sectors/:id/sprints", s.handleListSprints)
		api.POST("/complexity", s.handleComplexity)
		api.POST("/sectors/:id/calibrate", s.handleCalibrate)
		api.POST("/sectors/:id/conversions", s.handleConvert)
		api.POST("/sectors/:id/forecast", s.handleForecast)
		api.GET("/sectors/:id/variance", s.handleVariance)
		api.GET("/sectors/:id/snapshots", s.handleListSnapshots)
		api.POST("/seed", s.handleSeed)
	}

	return r
}

// respondError maps any error onto the estimation taxonomy and writes
// the structured response.
func (s *server) respondError(c *gin.Context, err error) {
	var appErr *errors.AppError
	if stderrors.Is(err, database.ErrNotFound) {
		appErr = errors.NewNotFoundError("sector", c.Param("id"))
	} else {
		appErr = errors.ToAppError(err)
	}

	errors.LogError(c, appErr)
	c.JSON(appErr.HTTPStatus, appErr)
}

func (s *server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
		"metrics":   s.metrics.GetStats(),
	})
}

func (s *server) handleCreateSector(c *gin.Context) {
	var req types.SectorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errors.NewValidationError("invalid sector payload", err.Error()))
		return
	}

	sector := database.NewSector(req.Name, req.Mode)
	sector.AnchorName = req.AnchorName
	sector.AnchorIndex = req.AnchorIndex
	sector.AnchorSprints = req.AnchorSprints
	sector.BacklogPoints = req.BacklogPoints

	if err := s.repo.CreateSector(sector); err != nil {
		s.respondError(c, err)
		return
	}

	s.appCache.Clear()
	c.JSON(http.StatusCreated, sector)
}

func (s *server) handleListSectors(c *gin.Context) {
	sectors, err := s.repo.ListSectors()
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sectors": sectors})
}

func (s *server) handleGetSector(c *gin.Context) {
	sector, err := s.repo.GetSector(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sector)
}

func (s *server) handleDeleteSector(c *gin.Context) {
	if err := s.repo.DeleteSector(c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}

	s.appCache.Clear()
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("id")})
}

func (s *server) handleUpdateAnchor(c *gin.Context) {
	var req struct {
		AnchorName    string  `json:"anchor_name" binding:"required"`
		AnchorIndex   float64 `json:"anchor_index" binding:"required,gt=0"`
		AnchorSprints float64 `json:"anchor_sprints" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errors.NewValidationError("invalid anchor payload", err.Error()))
		return
	}

	if err := s.repo.UpdateSectorAnchor(c.Param("id"), req.AnchorName, req.AnchorIndex, req.AnchorSprints); err != nil {
		s.respondError(c, err)
		return
	}

	s.appCache.Clear()
	c.JSON(http.StatusOK, gin.H{"updated": c.Param("id")})
}

func (s *server) handleUpdateBacklog(c *gin.Context) {
	var req struct {
		BacklogPoints float64 `json:"backlog_points" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errors.NewValidationError("invalid backlog payload", err.Error()))
		return
	}

	if err := s.repo.UpdateSectorBacklog(c.Param("id"), req.BacklogPoints); err != nil {
		s.respondError(c, err)
		return
	}

	s.appCache.Clear()
	c.JSON(http.StatusOK, gin.H{"updated": c.Param("id")})
}

func (s *server) handleReplaceFactors(c *gin.Context) {
	sectorID := c.Param("id")

	if _, err := s.repo.GetSector(sectorID); err != nil {
		s.respondError(c, err)
		return
	}

	var req types.FactorsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errors.NewValidationError("invalid factors payload", err.Error()))
		return
	}

	// Oversized sets can never calibrate, so reject them here. Weight
	// sums are checked at calibration time instead: a set under
	// construction may be temporarily unbalanced.
	if len(req.Factors) > engine.MaxFactors {
		s.respondError(c, &engine.WeightConfigError{Count: len(req.Factors)})
		return
	}

	// Per-row bounds are collected into a single response so the client
	// can fix the whole set in one pass.
	issues := make(map[string]string)
	for _, f := range req.Factors {
		if f.Weight <= 0 || f.Weight > 1 {
			issues[f.Name+".weight"] = fmt.Sprintf("weight %g outside (0, 1]", f.Weight)
		}
		if f.BaselineScore < engine.ScoreMin || f.BaselineScore > engine.ScoreMax {
			issues[f.Name+".baseline_score"] = fmt.Sprintf("score %g outside [%g, %g]", f.BaselineScore, engine.ScoreMin, engine.ScoreMax)
		}
		if f.TargetScore < engine.ScoreMin || f.TargetScore > engine.ScoreMax {
			issues[f.Name+".target_score"] = fmt.Sprintf("score %g outside [%g, %g]", f.TargetScore, engine.ScoreMin, engine.ScoreMax)
		}
	}
	if len(issues) > 0 {
		appErr := errors.NewValidationErrorWithMap(issues)
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	factors := make([]*database.Factor, len(req.Factors))
	for i, f := range req.Factors {
		factors[i] = database.NewFactor(sectorID, f.Name, f.Weight, f.BaselineScore, f.TargetScore, i)
	}

	if err := s.repo.ReplaceFactors(sectorID, factors); err != nil {
		s.respondError(c, err)
		return
	}

	s.appCache.Clear()
	c.JSON(http.StatusOK, gin.H{"factors": factors})
}

func (s *server) handleListFactors(c *gin.Context) {
	factors, err := s.repo.ListFactors(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"factors": factors})
}

func (s *server) handleAddStory(c *gin.Context) {
	sectorID := c.Param("id")

	if _, err := s.repo.GetSector(sectorID); err != nil {
		s.respondError(c, err)
		return
	}

	var req types.StoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errors.NewValidationError("invalid story payload", err.Error()))
		return
	}

	// Story points live on the planning ladder; raw estimates snap to it.
	points := float64(engine.RoundToFibonacci(req.Points))

	story := database.NewAnchorStory(sectorID, req.Name, points, req.EffortSprints)
	if err := s.repo.AddAnchorStory(story); err != nil {
		s.respondError(c, err)
		return
	}

	s.appCache.Clear()
	c.JSON(http.StatusCreated, story)
}

func (s *server) handleListStories(c *gin.Context) {
	stories, err := s.repo.ListAnchorStories(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stories": stories})
}

func (s *server) handleAddSprint(c *gin.Context) {
	sectorID := c.Param("id")

	if _, err := s.repo.GetSector(sectorID); err != nil {
		s.respondError(c, err)
		return
	}

	var req types.SprintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errors.NewValidationError("invalid sprint payload", err.Error()))
		return
	}

	metric := database.NewSprintMetric(sectorID, req.Index, req.Velocity, req.PersonDays, req.EndDate)
	if err := s.repo.AddSprintMetric(metric); err != nil {
		s.respondError(c, err)
		return
	}

	s.appCache.Clear()
	c.JSON(http.StatusCreated, metric)
}

func (s *server) handleListSprints(c *gin.Context) {
	metrics, err := s.repo.ListSprintMetrics(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sprints": metrics})
}

func (s *server) handleComplexity(c *gin.Context) {
	var req types.ComplexityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errors.NewValidationError("invalid complexity payload", err.Error()))
		return
	}

	factors := make([]engine.Factor, len(req.Factors))
	scores := make(map[string]float64, len(req.Factors))
	for i, f := range req.Factors {
		factors[i] = engine.Factor{Name: f.Name, Weight: f.Weight}
		scores[f.Name] = f.Score
	}

	index, err := engine.ComputeComplexityIndex(factors, scores)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.ComplexityResponse{Index: index})
}

func (s *server) handleCalibrate(c *gin.Context) {
	resp, err := s.svc.Calibrate(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *server) handleForecast(c *gin.Context) {
	var req types.ForecastRequest
	if err := c.ShouldBindJSON(&req); err != nil && !stderrors.Is(err, io.EOF) {
		s.respondError(c, errors.NewValidationError("invalid forecast payload", err.Error()))
		return
	}

	resp, err := s.svc.Forecast(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *server) handleConvert(c *gin.Context) {
	var req types.ConversionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errors.NewValidationError("invalid conversion payload", err.Error()))
		return
	}

	resp, err := s.svc.Convert(c.Param("id"), req)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *server) handleVariance(c *gin.Context) {
	resp, err := s.svc.Variance(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *server) handleListSnapshots(c *gin.Context) {
	limit := 20
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	snapshots, err := s.repo.ListSnapshots(c.Param("id"), limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": snapshots})
}

func (s *server) handleSeed(c *gin.Context) {
	if err := database.Seed(s.repo); err != nil {
		s.respondError(c, err)
		return
	}

	s.appCache.Clear()
	c.JSON(http.StatusOK, gin.H{"message": "reference dataset loaded"})
}
