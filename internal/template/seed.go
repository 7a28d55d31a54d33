package template

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"sigs.k8s.io/yaml"

	"github.com/workflowai/workflowai/internal/workflow"
)

// SeedEntry is one catalog entry in the YAML seed file.
type SeedEntry struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Category     string   `json:"category"`
	Platform     string   `json:"platform"`
	Tags         []string `json:"tags"`
	Popularity   int      `json:"popularity"`
	N8nTemplate  string   `json:"n8nTemplate"`
	MakeTemplate string   `json:"makeTemplate"`
	RequiredAPIs []string `json:"requiredApis"`
	SetupGuide   string   `json:"setupGuide"`
}

// SeedFile is the root of the YAML seed file.
type SeedFile struct {
	Templates []SeedEntry `json:"templates"`
}

// Seed loads the catalog seed file and upserts every entry. Entries with an
// unknown platform are skipped with a warning rather than aborting startup.
func Seed(ctx context.Context, repo Repository, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading template seed file: %w", err)
	}

	var file SeedFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parsing template seed file: %w", err)
	}

	seeded := 0
	for _, entry := range file.Templates {
		platform := workflow.Platform(entry.Platform)
		if entry.Name == "" || !platform.Valid() {
			slog.Warn("skipping invalid template seed entry", "name", entry.Name, "platform", entry.Platform)
			continue
		}

		t := &Template{
			Name:         entry.Name,
			Description:  entry.Description,
			Category:     entry.Category,
			Platform:     platform,
			Tags:         entry.Tags,
			Popularity:   entry.Popularity,
			N8nTemplate:  entry.N8nTemplate,
			MakeTemplate: entry.MakeTemplate,
			RequiredAPIs: entry.RequiredAPIs,
			SetupGuide:   entry.SetupGuide,
		}
		if t.Tags == nil {
			t.Tags = []string{}
		}
		if t.RequiredAPIs == nil {
			t.RequiredAPIs = []string{}
		}

		if err := repo.Upsert(ctx, t); err != nil {
			return fmt.Errorf("seeding template %q: %w", entry.Name, err)
		}
		seeded++
	}

	slog.Info("template catalog seeded", "count", seeded)
	return nil
}
