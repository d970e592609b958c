package forecast

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprintforge/effort-estimator/internal/database"
	"github.com/sprintforge/effort-estimator/internal/engine"
	"github.com/sprintforge/effort-estimator/internal/monitoring"
	"github.com/sprintforge/effort-estimator/internal/types"
)

func newTestService(t *testing.T) (*Service, *database.Repository) {
	t.Helper()

	db, err := database.NewDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := database.NewRepository(db)
	require.NoError(t, database.Seed(repo))

	svc := NewService(repo, monitoring.NewMetrics(), monitoring.NewLogger(),
		engine.DefaultCalibrationConfig(), engine.DefaultSimulationConfig(), 42, true)

	return svc, repo
}

func sectorID(t *testing.T, repo *database.Repository, name string) string {
	t.Helper()
	sector, err := repo.GetSectorByName(name)
	require.NoError(t, err)
	return sector.ID
}

func TestBuildProject(t *testing.T) {
	svc, repo := newTestService(t)

	t.Run("baseline sector carries anchor and scores", func(t *testing.T) {
		project, sector, err := svc.BuildProject(sectorID(t, repo, "faturamento"))
		require.NoError(t, err)

		assert.Equal(t, engine.ModeBaseline, project.Mode)
		assert.Equal(t, "faturamento", sector.Name)
		require.NotNil(t, project.Sector)
		assert.Equal(t, "compras", project.Sector.Name)
		assert.Len(t, project.Factors, 5)
		assert.Equal(t, 0.80, project.Scores["processos"])
		assert.Len(t, project.Sprints, 3)
	})

	t.Run("greenfield sector carries stories and telemetry", func(t *testing.T) {
		project, _, err := svc.BuildProject(sectorID(t, repo, "estoque"))
		require.NoError(t, err)

		assert.Equal(t, engine.ModeGreenfield, project.Mode)
		assert.Nil(t, project.Sector)
		assert.Len(t, project.Stories, 3)
		assert.Len(t, project.Sprints, 4)
	})

	t.Run("missing sector", func(t *testing.T) {
		_, _, err := svc.BuildProject("nope")
		assert.ErrorIs(t, err, database.ErrNotFound)
	})
}

func TestCalibrateBaseline(t *testing.T) {
	svc, repo := newTestService(t)

	resp, err := svc.Calibrate(sectorID(t, repo, "faturamento"))
	require.NoError(t, err)

	// Target index over the seeded factor set.
	assert.InDelta(t, 0.665, resp.ComplexityIndex, 1e-9)

	// Anchor delivered 0.55 complexity units in 12 sprints.
	assert.InDelta(t, 0.55/12.0, resp.Model.Throughput, 1e-9)
	assert.InDelta(t, 12.0*0.665/0.55, resp.Model.ExpectedSprints, 1e-9)
	assert.False(t, resp.Model.LowSample)
}

func TestCalibrateGreenfield(t *testing.T) {
	svc, repo := newTestService(t)

	resp, err := svc.Calibrate(sectorID(t, repo, "estoque"))
	require.NoError(t, err)

	assert.Equal(t, engine.ModeGreenfield, resp.Model.Mode)
	assert.Positive(t, resp.Model.Throughput)
	// Four sprints is below twice the three-sprint minimum.
	assert.True(t, resp.Model.LowSample)
	assert.InDelta(t, 4.0, resp.Model.StoryPointScale, 1e-9)
}

func TestForecastIsReproducible(t *testing.T) {
	svc, repo := newTestService(t)
	id := sectorID(t, repo, "faturamento")

	seed := int64(7)
	req := types.ForecastRequest{Seed: &seed}

	first, err := svc.Forecast(context.Background(), id, req)
	require.NoError(t, err)

	second, err := svc.Forecast(context.Background(), id, req)
	require.NoError(t, err)

	assert.Equal(t, first.P50Sprints, second.P50Sprints)
	assert.Equal(t, first.P80Sprints, second.P80Sprints)
	assert.Equal(t, seed, first.Seed)
	assert.LessOrEqual(t, first.P50Sprints, first.P80Sprints)
	assert.Equal(t, engine.SprintsToWeeks(first.P50Sprints), first.P50Weeks)
}

func TestForecastSamplesAreOptIn(t *testing.T) {
	svc, repo := newTestService(t)
	id := sectorID(t, repo, "faturamento")

	seed := int64(7)

	withSamples, err := svc.Forecast(context.Background(), id,
		types.ForecastRequest{Seed: &seed, Trials: 300, IncludeSamples: true})
	require.NoError(t, err)
	require.Len(t, withSamples.Samples, 300)
	for _, sample := range withSamples.Samples {
		assert.GreaterOrEqual(t, sample, 1.0)
	}

	withoutSamples, err := svc.Forecast(context.Background(), id,
		types.ForecastRequest{Seed: &seed, Trials: 300})
	require.NoError(t, err)
	assert.Nil(t, withoutSamples.Samples)
	assert.Equal(t, withSamples.P50Sprints, withoutSamples.P50Sprints)
}

func TestForecastPersistsSnapshots(t *testing.T) {
	svc, repo := newTestService(t)
	id := sectorID(t, repo, "estoque")

	resp, err := svc.Forecast(context.Background(), id, types.ForecastRequest{})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.SnapshotID)

	// Seeded sprints delivered 39 of the 60-point backlog.
	assert.InDelta(t, 21.0, resp.RemainingWork, 1e-9)

	snapshots, err := repo.ListSnapshots(id, 10)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, resp.SnapshotID, snapshots[0].ID)
	assert.Equal(t, int64(42), snapshots[0].Seed)
	assert.Equal(t, resp.P50Sprints, snapshots[0].P50Sprints)
}

func TestForecastRemainingWorkOverride(t *testing.T) {
	svc, repo := newTestService(t)
	id := sectorID(t, repo, "estoque")

	zero := 0.0
	resp, err := svc.Forecast(context.Background(), id, types.ForecastRequest{RemainingWork: &zero})
	require.NoError(t, err)

	assert.Zero(t, resp.P50Sprints)
	assert.Zero(t, resp.P80Sprints)
}

func TestForecastGreenfieldNeedsBacklog(t *testing.T) {
	svc, repo := newTestService(t)

	sector := database.NewSector("producao", "greenfield")
	require.NoError(t, repo.CreateSector(sector))
	require.NoError(t, repo.AddAnchorStory(database.NewAnchorStory(sector.ID, "ordem de producao", 5, 0.5)))
	for i := 1; i <= 3; i++ {
		require.NoError(t, repo.AddSprintMetric(database.NewSprintMetric(sector.ID, i, 10, 90, sector.CreatedAt)))
	}

	_, err := svc.Forecast(context.Background(), sector.ID, types.ForecastRequest{})
	var insufficient *engine.InsufficientDataError
	assert.ErrorAs(t, err, &insufficient)
}

func TestForecastColdStart(t *testing.T) {
	svc, repo := newTestService(t)

	sector := database.NewSector("fiscal", "greenfield")
	sector.BacklogPoints = 40
	require.NoError(t, repo.CreateSector(sector))
	require.NoError(t, repo.AddAnchorStory(database.NewAnchorStory(sector.ID, "apuracao", 3, 0.3)))

	_, err := svc.Forecast(context.Background(), sector.ID, types.ForecastRequest{})
	var insufficient *engine.InsufficientDataError
	assert.ErrorAs(t, err, &insufficient)
}

func TestConvert(t *testing.T) {
	svc, repo := newTestService(t)

	t.Run("baseline sector uses the target-vs-baseline ratio", func(t *testing.T) {
		resp, err := svc.Convert(sectorID(t, repo, "faturamento"),
			types.ConversionRequest{EffortPersonMonths: 3})
		require.NoError(t, err)

		// Seeded factors: target index 0.665 over baseline index 0.55.
		index := 0.665 / 0.55
		assert.InDelta(t, index, resp.ComplexityIndex, 1e-9)

		// 540 person-days over 59 delivered points.
		daysPerSP := 540.0 / 59.0
		assert.InDelta(t, daysPerSP, resp.DaysPerStoryPoint, 1e-9)
		assert.InDelta(t, 3*engine.WorkingDaysPerMonth*index/daysPerSP, resp.StoryPoints, 1e-9)
	})

	t.Run("explicit index override", func(t *testing.T) {
		index := 1.5
		resp, err := svc.Convert(sectorID(t, repo, "estoque"),
			types.ConversionRequest{EffortPersonMonths: 2, ComplexityIndex: &index})
		require.NoError(t, err)

		assert.InDelta(t, 1.5, resp.ComplexityIndex, 1e-9)
		// 377 person-days over 39 delivered points.
		daysPerSP := 377.0 / 39.0
		assert.InDelta(t, 2*engine.WorkingDaysPerMonth*1.5/daysPerSP, resp.StoryPoints, 1e-9)
	})

	t.Run("missing sector", func(t *testing.T) {
		_, err := svc.Convert("nope", types.ConversionRequest{EffortPersonMonths: 1})
		assert.ErrorIs(t, err, database.ErrNotFound)
	})
}

func TestVariance(t *testing.T) {
	svc, repo := newTestService(t)

	resp, err := svc.Variance(sectorID(t, repo, "estoque"))
	require.NoError(t, err)

	assert.Equal(t, 4, resp.Report.Sprints)
	assert.Len(t, resp.Report.Deltas, 4)
	assert.Contains(t, []engine.TrendDirection{
		engine.TrendImproving, engine.TrendDegrading, engine.TrendStable,
	}, resp.Report.Direction)
}

func TestVarianceWithoutSprints(t *testing.T) {
	svc, repo := newTestService(t)

	sector := database.NewSector("comercial", "baseline")
	sector.AnchorName = "compras"
	sector.AnchorIndex = 0.55
	sector.AnchorSprints = 12
	require.NoError(t, repo.CreateSector(sector))
	require.NoError(t, repo.ReplaceFactors(sector.ID, []*database.Factor{
		database.NewFactor(sector.ID, "processos", 1.0, 0.7, 0.8, 0),
	}))

	_, err := svc.Variance(sector.ID)
	assert.ErrorIs(t, err, engine.ErrNoSprintData)
}
