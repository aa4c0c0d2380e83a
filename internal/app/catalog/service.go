// Package catalog loads the static monster catalog. With a database
// configured the templates come from monster_templates; without one the
// embedded YAML catalog keeps the game playable.
package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"overworld-server/internal/domain/monster"
)

//go:embed monsters.yaml
var embeddedCatalog []byte

type Service struct {
	logger zerolog.Logger
	db     *pgxpool.Pool

	mu        sync.RWMutex
	templates []monster.Template
}

func NewService(logger zerolog.Logger, db *pgxpool.Pool) *Service {
	return &Service{logger: logger, db: db}
}

// Load reads the catalog once at startup. Catalog order is load order; the
// encounter sampler's tie resolution depends on it staying stable.
func (s *Service) Load(ctx context.Context) error {
	var (
		templates []monster.Template
		err       error
	)
	if s.db != nil {
		templates, err = s.loadFromDB(ctx)
		if err != nil {
			return fmt.Errorf("load catalog from db: %w", err)
		}
		s.logger.Info().Int("templates", len(templates)).Msg("monster catalog loaded from database")
	} else {
		templates, err = parseEmbedded()
		if err != nil {
			return fmt.Errorf("load embedded catalog: %w", err)
		}
		s.logger.Info().Int("templates", len(templates)).Msg("monster catalog loaded from embedded file")
	}
	if len(templates) == 0 {
		return fmt.Errorf("monster catalog is empty")
	}

	s.mu.Lock()
	s.templates = templates
	s.mu.Unlock()
	return nil
}

// Templates returns the catalog in stable order. The slice is a copy.
func (s *Service) Templates() []monster.Template {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]monster.Template(nil), s.templates...)
}

func (s *Service) loadFromDB(ctx context.Context) ([]monster.Template, error) {
	rows, err := s.db.Query(ctx, `
SELECT name, rarity, min_level, max_level, base_health, biomes, habits, appearance
FROM monster_templates ORDER BY id ASC
`)
	if err != nil {
		return nil, fmt.Errorf("query monster_templates: %w", err)
	}
	defer rows.Close()

	templates := make([]monster.Template, 0)
	for rows.Next() {
		var t monster.Template
		if err := rows.Scan(&t.Name, &t.Rarity, &t.MinLevel, &t.MaxLevel, &t.BaseHealth, &t.Biomes, &t.Habits, &t.Appearance); err != nil {
			return nil, fmt.Errorf("scan monster template: %w", err)
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate monster templates: %w", err)
	}
	return templates, nil
}

func parseEmbedded() ([]monster.Template, error) {
	var doc struct {
		Monsters []monster.Template `yaml:"monsters"`
	}
	if err := yaml.Unmarshal(embeddedCatalog, &doc); err != nil {
		return nil, fmt.Errorf("parse monsters.yaml: %w", err)
	}
	return doc.Monsters, nil
}
