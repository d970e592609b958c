package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprintforge/effort-estimator/internal/engine"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	db, err := NewDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewRepository(db)
}

func TestSectorLifecycle(t *testing.T) {
	repo := newTestRepository(t)

	sector := NewSector("estoque", "greenfield")
	require.NoError(t, repo.CreateSector(sector))

	got, err := repo.GetSector(sector.ID)
	require.NoError(t, err)
	assert.Equal(t, "estoque", got.Name)
	assert.Equal(t, "greenfield", got.Mode)

	byName, err := repo.GetSectorByName("estoque")
	require.NoError(t, err)
	assert.Equal(t, sector.ID, byName.ID)

	sectors, err := repo.ListSectors()
	require.NoError(t, err)
	assert.Len(t, sectors, 1)

	require.NoError(t, repo.DeleteSector(sector.ID))

	_, err = repo.GetSector(sector.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateSectorRejectsUnknownMode(t *testing.T) {
	repo := newTestRepository(t)

	sector := NewSector("estoque", "retrofit")
	assert.Error(t, repo.CreateSector(sector))
}

func TestUpdateSectorAnchor(t *testing.T) {
	repo := newTestRepository(t)

	sector := NewSector("faturamento", "baseline")
	require.NoError(t, repo.CreateSector(sector))

	require.NoError(t, repo.UpdateSectorAnchor(sector.ID, "compras", 0.55, 12))

	got, err := repo.GetSector(sector.ID)
	require.NoError(t, err)
	assert.Equal(t, "compras", got.AnchorName)
	assert.Equal(t, 0.55, got.AnchorIndex)
	assert.Equal(t, 12.0, got.AnchorSprints)

	assert.ErrorIs(t, repo.UpdateSectorAnchor("missing", "compras", 0.5, 10), ErrNotFound)
}

func TestReplaceFactors(t *testing.T) {
	repo := newTestRepository(t)

	sector := NewSector("faturamento", "baseline")
	require.NoError(t, repo.CreateSector(sector))

	first := []*Factor{
		NewFactor(sector.ID, "processos", 0.6, 0.7, 0.8, 0),
		NewFactor(sector.ID, "integracoes", 0.4, 0.5, 0.6, 1),
	}
	require.NoError(t, repo.ReplaceFactors(sector.ID, first))

	second := []*Factor{
		NewFactor(sector.ID, "volumetria", 1.0, 0.5, 0.9, 0),
	}
	require.NoError(t, repo.ReplaceFactors(sector.ID, second))

	factors, err := repo.ListFactors(sector.ID)
	require.NoError(t, err)
	require.Len(t, factors, 1)
	assert.Equal(t, "volumetria", factors[0].Name)
}

func TestSprintMetricInvariants(t *testing.T) {
	repo := newTestRepository(t)

	sector := NewSector("estoque", "greenfield")
	require.NoError(t, repo.CreateSector(sector))

	end := time.Date(2026, time.March, 6, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.AddSprintMetric(NewSprintMetric(sector.ID, 1, 8, 90, end)))
	require.NoError(t, repo.AddSprintMetric(NewSprintMetric(sector.ID, 2, 10, 95, end.AddDate(0, 0, 14))))

	t.Run("history is append-only", func(t *testing.T) {
		err := repo.AddSprintMetric(NewSprintMetric(sector.ID, 2, 11, 95, end))
		var orderErr *engine.SprintOrderError
		assert.ErrorAs(t, err, &orderErr)
	})

	t.Run("gaps are allowed", func(t *testing.T) {
		assert.NoError(t, repo.AddSprintMetric(NewSprintMetric(sector.ID, 5, 9, 92, end)))
	})

	t.Run("negative velocity is rejected", func(t *testing.T) {
		err := repo.AddSprintMetric(NewSprintMetric(sector.ID, 6, -1, 90, end))
		var orderErr *engine.SprintOrderError
		assert.ErrorAs(t, err, &orderErr)
	})

	t.Run("negative index is rejected", func(t *testing.T) {
		err := repo.AddSprintMetric(NewSprintMetric(sector.ID, -1, 9, 90, end))
		var orderErr *engine.SprintOrderError
		assert.ErrorAs(t, err, &orderErr)
	})

	t.Run("listing preserves sprint order", func(t *testing.T) {
		metrics, err := repo.ListSprintMetrics(sector.ID)
		require.NoError(t, err)
		require.Len(t, metrics, 3)
		assert.Equal(t, []int{1, 2, 5}, []int{
			metrics[0].SprintIndex, metrics[1].SprintIndex, metrics[2].SprintIndex,
		})
	})
}

func TestFirstSprintMayUseIndexZero(t *testing.T) {
	repo := newTestRepository(t)

	sector := NewSector("estoque", "greenfield")
	require.NoError(t, repo.CreateSector(sector))

	end := time.Date(2026, time.March, 6, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.AddSprintMetric(NewSprintMetric(sector.ID, 0, 8, 90, end)))

	// Index 0 is now occupied; replaying it violates append-only.
	err := repo.AddSprintMetric(NewSprintMetric(sector.ID, 0, 9, 92, end))
	var orderErr *engine.SprintOrderError
	assert.ErrorAs(t, err, &orderErr)

	assert.NoError(t, repo.AddSprintMetric(NewSprintMetric(sector.ID, 1, 9, 92, end.AddDate(0, 0, 14))))
}

func TestAnchorStories(t *testing.T) {
	repo := newTestRepository(t)

	sector := NewSector("estoque", "greenfield")
	require.NoError(t, repo.CreateSector(sector))

	require.NoError(t, repo.AddAnchorStory(NewAnchorStory(sector.ID, "inventario rotativo", 8, 0.8)))
	require.NoError(t, repo.AddAnchorStory(NewAnchorStory(sector.ID, "cadastro de item", 1, 0.1)))

	assert.Error(t, repo.AddAnchorStory(NewAnchorStory(sector.ID, "vazia", 0, 0.1)))

	stories, err := repo.ListAnchorStories(sector.ID)
	require.NoError(t, err)
	require.Len(t, stories, 2)
	assert.Equal(t, "cadastro de item", stories[0].Name)
}

func TestSnapshots(t *testing.T) {
	repo := newTestRepository(t)

	sector := NewSector("estoque", "greenfield")
	require.NoError(t, repo.CreateSector(sector))

	for i := 0; i < 3; i++ {
		snapshot := NewEstimationSnapshot(sector.ID)
		snapshot.Mode = "greenfield"
		snapshot.ComplexityIndex = 0.62
		snapshot.Throughput = 9.75
		snapshot.Confidence = 0.66
		snapshot.ExpectedSprints = 10
		snapshot.P50Sprints = 10
		snapshot.P80Sprints = 12
		snapshot.Trials = 2000
		snapshot.Seed = 42
		snapshot.CreatedAt = snapshot.CreatedAt.Add(time.Duration(i) * time.Second)
		require.NoError(t, repo.SaveSnapshot(snapshot))
	}

	snapshots, err := repo.ListSnapshots(sector.ID, 2)
	require.NoError(t, err)
	assert.Len(t, snapshots, 2)

	all, err := repo.ListSnapshots(sector.ID, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSeedIsIdempotent(t *testing.T) {
	repo := newTestRepository(t)

	require.NoError(t, Seed(repo))
	require.NoError(t, Seed(repo))

	sectors, err := repo.ListSectors()
	require.NoError(t, err)
	require.Len(t, sectors, 2)

	faturamento, err := repo.GetSectorByName("faturamento")
	require.NoError(t, err)
	assert.Equal(t, "compras", faturamento.AnchorName)

	factors, err := repo.ListFactors(faturamento.ID)
	require.NoError(t, err)
	assert.Len(t, factors, 5)

	estoque, err := repo.GetSectorByName("estoque")
	require.NoError(t, err)

	stories, err := repo.ListAnchorStories(estoque.ID)
	require.NoError(t, err)
	assert.Len(t, stories, 3)

	metrics, err := repo.ListSprintMetrics(estoque.ID)
	require.NoError(t, err)
	assert.Len(t, metrics, 4)
}
