package forecast

import (
	"context"
	"math/rand"
	"time"

	"github.com/sprintforge/effort-estimator/internal/database"
	"github.com/sprintforge/effort-estimator/internal/engine"
	"github.com/sprintforge/effort-estimator/internal/monitoring"
	"github.com/sprintforge/effort-estimator/internal/types"
)

// Service orchestrates calibration, simulation and persistence around
// the estimation engine. The engine itself stays pure; everything
// stateful (repository, metrics, seeds) lives here.
type Service struct {
	repo    *database.Repository
	metrics *monitoring.Metrics
	logger  *monitoring.Logger

	calCfg engine.CalibrationConfig
	simCfg engine.SimulationConfig

	defaultSeed int64
	seedSet     bool
}

// NewService creates the forecast service.
func NewService(repo *database.Repository, metrics *monitoring.Metrics, logger *monitoring.Logger,
	calCfg engine.CalibrationConfig, simCfg engine.SimulationConfig, defaultSeed int64, seedSet bool) *Service {
	return &Service{
		repo:        repo,
		metrics:     metrics,
		logger:      logger,
		calCfg:      calCfg,
		simCfg:      simCfg,
		defaultSeed: defaultSeed,
		seedSet:     seedSet,
	}
}

// BuildProject assembles the engine's input snapshot from stored data.
func (s *Service) BuildProject(sectorID string) (engine.Project, *database.Sector, error) {
	sector, err := s.repo.GetSector(sectorID)
	if err != nil {
		return engine.Project{}, nil, err
	}

	factors, err := s.repo.ListFactors(sectorID)
	if err != nil {
		return engine.Project{}, nil, err
	}

	stories, err := s.repo.ListAnchorStories(sectorID)
	if err != nil {
		return engine.Project{}, nil, err
	}

	metrics, err := s.repo.ListSprintMetrics(sectorID)
	if err != nil {
		return engine.Project{}, nil, err
	}

	project := engine.Project{
		Mode:   engine.Mode(sector.Mode),
		Scores: make(map[string]float64, len(factors)),
	}

	for _, f := range factors {
		project.Factors = append(project.Factors, engine.Factor{Name: f.Name, Weight: f.Weight})
		project.Scores[f.Name] = f.TargetScore
	}

	if sector.Mode == string(engine.ModeBaseline) {
		project.Sector = &engine.Sector{
			Name:            sector.AnchorName,
			ComplexityIndex: sector.AnchorIndex,
			EffortSprints:   sector.AnchorSprints,
		}
	}

	for _, story := range stories {
		project.Stories = append(project.Stories, engine.AnchorStory{
			Name:          story.Name,
			Points:        story.Points,
			EffortSprints: story.EffortSprints,
		})
	}

	for _, metric := range metrics {
		project.Sprints = append(project.Sprints, engine.SprintMetric{
			Index:      metric.SprintIndex,
			Velocity:   metric.Velocity,
			PersonDays: metric.PersonDays,
			EndDate:    metric.EndDate,
		})
	}

	return project, sector, nil
}

// Calibrate recalibrates a sector's throughput model from scratch.
func (s *Service) Calibrate(sectorID string) (*types.CalibrateResponse, error) {
	project, sector, err := s.BuildProject(sectorID)
	if err != nil {
		return nil, err
	}

	model, err := engine.Calibrate(project, s.calCfg)
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementCalibration()
	s.logger.CalibrationLogger(sector.Name, sector.Mode, model.Throughput,
		model.Confidence, len(project.Sprints), model.LowSample)

	return &types.CalibrateResponse{
		SectorID:        sector.ID,
		SectorName:      sector.Name,
		ComplexityIndex: s.complexityIndex(project),
		Model:           model,
	}, nil
}

// Forecast calibrates, runs the Monte-Carlo simulation and persists a
// snapshot of the outcome. An explicit seed (request or configuration)
// makes the run byte-for-byte reproducible; otherwise the seed is
// drawn from the clock and reported back so the run can be replayed.
func (s *Service) Forecast(ctx context.Context, sectorID string, req types.ForecastRequest) (*types.ForecastResponse, error) {
	project, sector, err := s.BuildProject(sectorID)
	if err != nil {
		return nil, err
	}

	model, err := engine.Calibrate(project, s.calCfg)
	if err != nil {
		return nil, err
	}
	s.metrics.IncrementCalibration()

	index := s.complexityIndex(project)

	remaining, err := s.remainingWork(req, project, sector, index)
	if err != nil {
		return nil, err
	}

	simCfg := s.simCfg
	if req.Trials > 0 {
		simCfg.Trials = req.Trials
	}

	seed := s.pickSeed(req.Seed)
	rng := rand.New(rand.NewSource(seed))

	start := time.Now()
	result, err := engine.Simulate(ctx, model, remaining, simCfg, rng)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordForecast(simCfg.Trials)
	s.logger.ForecastLogger(sector.Name, simCfg.Trials, seed, result.P50, result.P80,
		time.Since(start), false)

	snapshot := database.NewEstimationSnapshot(sector.ID)
	snapshot.Mode = sector.Mode
	snapshot.ComplexityIndex = index
	snapshot.Throughput = model.Throughput
	snapshot.Confidence = model.Confidence
	snapshot.ExpectedSprints = model.ExpectedSprints
	snapshot.P50Sprints = result.P50
	snapshot.P80Sprints = result.P80
	snapshot.Trials = simCfg.Trials
	snapshot.Seed = seed

	if err := s.repo.SaveSnapshot(snapshot); err != nil {
		return nil, err
	}
	s.metrics.IncrementSnapshot()

	resp := &types.ForecastResponse{
		SectorID:        sector.ID,
		SectorName:      sector.Name,
		Mode:            sector.Mode,
		ComplexityIndex: index,
		Model:           model,
		RemainingWork:   remaining,
		P50Sprints:      result.P50,
		P80Sprints:      result.P80,
		P50Weeks:        engine.SprintsToWeeks(result.P50),
		P80Weeks:        engine.SprintsToWeeks(result.P80),
		Trials:          simCfg.Trials,
		Seed:            seed,
		SnapshotID:      snapshot.ID,
		CreatedAt:       snapshot.CreatedAt,
	}

	// The full sample distribution is opt-in; at 2000 trials it
	// dominates the payload and most consumers only want percentiles.
	if req.IncludeSamples {
		resp.Samples = result.Samples
	}

	return resp, nil
}

// Convert translates an anchor effort in person-months into story
// points for a sector: effort scaled by the target-vs-baseline
// complexity ratio, divided by the historical cost of one point.
func (s *Service) Convert(sectorID string, req types.ConversionRequest) (*types.ConversionResponse, error) {
	project, sector, err := s.BuildProject(sectorID)
	if err != nil {
		return nil, err
	}

	index := 1.0
	if req.ComplexityIndex != nil {
		index = *req.ComplexityIndex
	} else {
		factors, err := s.repo.ListFactors(sectorID)
		if err != nil {
			return nil, err
		}
		scored := make([]engine.ScoredFactor, len(factors))
		for i, f := range factors {
			scored[i] = engine.ScoredFactor{
				Name:          f.Name,
				Weight:        f.Weight,
				BaselineScore: f.BaselineScore,
				TargetScore:   f.TargetScore,
			}
		}
		index = engine.RelativeComplexityIndex(scored)
	}

	daysPerSP := engine.DaysPerStoryPoint(project.Sprints)
	points := engine.EffortToStoryPoints(req.EffortPersonMonths, index, daysPerSP)

	return &types.ConversionResponse{
		SectorID:          sector.ID,
		SectorName:        sector.Name,
		ComplexityIndex:   index,
		DaysPerStoryPoint: daysPerSP,
		StoryPoints:       points,
	}, nil
}

// Variance compares the calibrated plan against recorded sprints.
func (s *Service) Variance(sectorID string) (*types.VarianceResponse, error) {
	project, sector, err := s.BuildProject(sectorID)
	if err != nil {
		return nil, err
	}

	model, err := engine.Calibrate(project, s.calCfg)
	if err != nil {
		return nil, err
	}

	curve := engine.TheoreticalCurve(model, len(project.Sprints))
	report, err := engine.Compare(curve, project.Sprints)
	if err != nil {
		return nil, err
	}

	return &types.VarianceResponse{
		SectorID:   sector.ID,
		SectorName: sector.Name,
		Report:     report,
	}, nil
}

// complexityIndex computes the target-side weighted index when the
// sector has a scored factor set, and 0 otherwise. Greenfield sectors
// often have no factors; their scope lives in the backlog instead.
func (s *Service) complexityIndex(project engine.Project) float64 {
	if len(project.Factors) == 0 {
		return 0
	}
	index, err := engine.ComputeComplexityIndex(project.Factors, project.Scores)
	if err != nil {
		return 0
	}
	return index
}

// remainingWork resolves the scope to simulate. Baseline throughput is
// expressed in complexity units per sprint, so the full scope is the
// current complexity index. Greenfield throughput is story points per
// sprint, so the scope is the backlog minus what sprints delivered.
func (s *Service) remainingWork(req types.ForecastRequest, project engine.Project,
	sector *database.Sector, index float64) (float64, error) {
	if req.RemainingWork != nil {
		return *req.RemainingWork, nil
	}

	if project.Mode == engine.ModeBaseline {
		return index, nil
	}

	if sector.BacklogPoints <= 0 {
		return 0, &engine.InsufficientDataError{
			Mode:   engine.ModeGreenfield,
			Reason: "no backlog points recorded for the sector",
		}
	}

	remaining := sector.BacklogPoints
	for _, sprint := range project.Sprints {
		remaining -= sprint.Velocity
	}
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

func (s *Service) pickSeed(override *int64) int64 {
	if override != nil {
		return *override
	}
	if s.seedSet {
		return s.defaultSeed
	}
	return time.Now().UnixNano()
}
