package database

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Seed loads the reference dataset: one baseline-mode sector anchored
// on a delivered purchasing module, and one greenfield inventory
// sector with anchor stories and a few sprints of telemetry. Seeding
// is idempotent; sectors that already exist are left untouched.
func Seed(repo *Repository) error {
	if err := seedFaturamento(repo); err != nil {
		return fmt.Errorf("seeding faturamento: %w", err)
	}
	if err := seedEstoque(repo); err != nil {
		return fmt.Errorf("seeding estoque: %w", err)
	}
	return nil
}

func seedFaturamento(repo *Repository) error {
	if _, err := repo.GetSectorByName("faturamento"); err == nil {
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	sector := NewSector("faturamento", "baseline")
	sector.AnchorName = "compras"
	// Weighted sum of the anchor's baseline scores below.
	sector.AnchorIndex = 0.55
	sector.AnchorSprints = 12

	if err := repo.CreateSector(sector); err != nil {
		return err
	}

	factors := []*Factor{
		NewFactor(sector.ID, "processos", 0.30, 0.70, 0.80, 0),
		NewFactor(sector.ID, "integracoes", 0.25, 0.60, 0.75, 1),
		NewFactor(sector.ID, "volumetria", 0.20, 0.50, 0.60, 2),
		NewFactor(sector.ID, "migracao", 0.15, 0.40, 0.55, 3),
		NewFactor(sector.ID, "interface", 0.10, 0.30, 0.35, 4),
	}
	if err := repo.ReplaceFactors(sector.ID, factors); err != nil {
		return err
	}

	end := time.Date(2026, time.January, 16, 0, 0, 0, 0, time.UTC)
	metrics := []*SprintMetric{
		NewSprintMetric(sector.ID, 1, 18, 180, end),
		NewSprintMetric(sector.ID, 2, 21, 178, end.AddDate(0, 0, 14)),
		NewSprintMetric(sector.ID, 3, 20, 182, end.AddDate(0, 0, 28)),
	}
	for _, metric := range metrics {
		if err := repo.AddSprintMetric(metric); err != nil {
			return err
		}
	}

	slog.Info("Seeded baseline sector", "name", sector.Name, "anchor", sector.AnchorName)
	return nil
}

func seedEstoque(repo *Repository) error {
	if _, err := repo.GetSectorByName("estoque"); err == nil {
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	sector := NewSector("estoque", "greenfield")
	sector.BacklogPoints = 60
	if err := repo.CreateSector(sector); err != nil {
		return err
	}

	stories := []*AnchorStory{
		NewAnchorStory(sector.ID, "cadastro de item", 1, 0.1),
		NewAnchorStory(sector.ID, "movimentacao de estoque", 3, 0.3),
		NewAnchorStory(sector.ID, "inventario rotativo", 8, 0.8),
	}
	for _, story := range stories {
		if err := repo.AddAnchorStory(story); err != nil {
			return err
		}
	}

	end := time.Date(2026, time.March, 6, 0, 0, 0, 0, time.UTC)
	metrics := []*SprintMetric{
		NewSprintMetric(sector.ID, 1, 8, 90, end),
		NewSprintMetric(sector.ID, 2, 10, 95, end.AddDate(0, 0, 14)),
		NewSprintMetric(sector.ID, 3, 9, 92, end.AddDate(0, 0, 28)),
		NewSprintMetric(sector.ID, 4, 12, 100, end.AddDate(0, 0, 42)),
	}
	for _, metric := range metrics {
		if err := repo.AddSprintMetric(metric); err != nil {
			return err
		}
	}

	slog.Info("Seeded greenfield sector", "name", sector.Name, "stories", len(stories))
	return nil
}
