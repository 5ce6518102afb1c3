// Package etl mirrors the core PokéAPI resources into the local SQLite
// database the agent queries. Page fetches are retried with exponential
// backoff; a resource that still fails is logged and skipped so one bad
// record never aborts a refresh.
package etl

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "modernc.org/sqlite"
)

const DefaultBaseURL = "https://pokeapi.co/api/v2"

// Importer drives one refresh. BaseURL and Client are swappable for tests.
type Importer struct {
	BaseURL string
	DBPath  string
	Client  *http.Client
	Logger  *slog.Logger

	// PageLimit caps the page size requested from list endpoints.
	PageLimit int
}

func New(dbPath string) *Importer {
	return &Importer{
		BaseURL:   DefaultBaseURL,
		DBPath:    dbPath,
		Client:    &http.Client{Timeout: 30 * time.Second},
		Logger:    slog.Default(),
		PageLimit: 500,
	}
}

// Run performs a full import. An existing database is left untouched
// unless force is set.
func (im *Importer) Run(ctx context.Context, force bool) error {
	if _, err := os.Stat(im.DBPath); err == nil && !force {
		im.Logger.Info("database already exists, skipping import", "path", im.DBPath)
		return nil
	}

	im.Logger.Info("starting import", "path", im.DBPath)

	db, err := sql.Open("sqlite", im.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	for _, stmt := range ddl {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	steps := []struct {
		name string
		fn   func(context.Context, *sql.DB) error
	}{
		{"generation", im.importGenerations},
		{"type", im.importTypes},
		{"pokemon_species", im.importSpecies},
		{"pokemon", im.importPokemon},
		{"move", im.importMoves},
		{"ability", im.importAbilities},
		{"nature", im.importNatures},
		{"item", im.importItems},
	}

	for _, step := range steps {
		if err := step.fn(ctx, db); err != nil {
			// retry-by-skip: a failed resource group is logged, the
			// remaining groups still run.
			im.Logger.Error("import step failed, skipping", "step", step.name, "error", err)
		}
	}

	im.Logger.Info("import finished", "path", im.DBPath)
	return nil
}

type namedResource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type listPage struct {
	Count   int             `json:"count"`
	Next    string          `json:"next"`
	Results []namedResource `json:"results"`
}

// list walks a paginated list endpoint and returns every resource entry.
func (im *Importer) list(ctx context.Context, path string) ([]namedResource, error) {
	url := fmt.Sprintf("%s%s?limit=%d&offset=0", im.BaseURL, path, im.PageLimit)

	var all []namedResource
	for url != "" {
		var page listPage
		if err := im.fetchJSON(ctx, url, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Results...)
		url = page.Next
	}
	return all, nil
}

// fetchJSON GETs a URL into v, retrying transient failures with
// exponential backoff.
func (im *Importer) fetchJSON(ctx context.Context, url string, v any) error {
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := im.Client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return backoff.Permanent(fmt.Errorf("GET %s: %s", url, resp.Status))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("GET %s: %s", url, resp.Status)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, v); err != nil {
			return backoff.Permanent(fmt.Errorf("GET %s: %w", url, err))
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	return backoff.Retry(op, policy)
}

// idFromURL extracts the trailing numeric id from a resource URL such as
// "https://pokeapi.co/api/v2/pokemon/25/".
func idFromURL(url string) int {
	parts := strings.Split(strings.TrimRight(url, "/"), "/")
	if len(parts) == 0 {
		return 0
	}
	id, _ := strconv.Atoi(parts[len(parts)-1])
	return id
}

// eachResource fetches the detail document for every entry in a list,
// skipping entries that fail after retries.
func eachResource[T any](im *Importer, ctx context.Context, path string, handle func(T) error) error {
	entries, err := im.list(ctx, path)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		var detail T
		if err := im.fetchJSON(ctx, entry.URL, &detail); err != nil {
			im.Logger.Warn("skipping resource", "url", entry.URL, "error", err)
			continue
		}
		if err := handle(detail); err != nil {
			im.Logger.Warn("skipping resource", "url", entry.URL, "error", err)
		}
	}
	return nil
}

func (im *Importer) importGenerations(ctx context.Context, db *sql.DB) error {
	type generation struct {
		ID         int           `json:"id"`
		Name       string        `json:"name"`
		MainRegion namedResource `json:"main_region"`
	}
	return eachResource(im, ctx, "/generation", func(g generation) error {
		_, err := db.ExecContext(ctx,
			`INSERT OR REPLACE INTO generation (id, name, main_region) VALUES (?, ?, ?)`,
			g.ID, g.Name, g.MainRegion.Name)
		return err
	})
}

func (im *Importer) importTypes(ctx context.Context, db *sql.DB) error {
	type damageRelations struct {
		NoDamageTo     []namedResource `json:"no_damage_to"`
		HalfDamageTo   []namedResource `json:"half_damage_to"`
		DoubleDamageTo []namedResource `json:"double_damage_to"`
	}
	type typeDetail struct {
		ID              int             `json:"id"`
		Name            string          `json:"name"`
		DamageRelations damageRelations `json:"damage_relations"`
	}
	return eachResource(im, ctx, "/type", func(t typeDetail) error {
		if _, err := db.ExecContext(ctx,
			`INSERT OR REPLACE INTO type (id, name) VALUES (?, ?)`, t.ID, t.Name); err != nil {
			return err
		}
		insert := func(targets []namedResource, factor int) error {
			for _, target := range targets {
				if _, err := db.ExecContext(ctx,
					`INSERT INTO type_relations (type_id, target_type, damage_factor) VALUES (?, ?, ?)`,
					t.ID, target.Name, factor); err != nil {
					return err
				}
			}
			return nil
		}
		if err := insert(t.DamageRelations.DoubleDamageTo, 200); err != nil {
			return err
		}
		if err := insert(t.DamageRelations.HalfDamageTo, 50); err != nil {
			return err
		}
		return insert(t.DamageRelations.NoDamageTo, 0)
	})
}

func (im *Importer) importSpecies(ctx context.Context, db *sql.DB) error {
	type species struct {
		ID            int           `json:"id"`
		Name          string        `json:"name"`
		Generation    namedResource `json:"generation"`
		GrowthRate    namedResource `json:"growth_rate"`
		IsLegendary   bool          `json:"is_legendary"`
		IsMythical    bool          `json:"is_mythical"`
		CaptureRate   int           `json:"capture_rate"`
		BaseHappiness int           `json:"base_happiness"`
		Color         namedResource `json:"color"`
		Shape         namedResource `json:"shape"`
	}
	return eachResource(im, ctx, "/pokemon-species", func(s species) error {
		_, err := db.ExecContext(ctx,
			`INSERT OR REPLACE INTO pokemon_species
			 (id, name, generation_id, growth_rate, is_legendary, is_mythical, capture_rate, base_happiness, color, shape)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.ID, s.Name, idFromURL(s.Generation.URL), s.GrowthRate.Name,
			s.IsLegendary, s.IsMythical, s.CaptureRate, s.BaseHappiness,
			s.Color.Name, s.Shape.Name)
		return err
	})
}

func (im *Importer) importPokemon(ctx context.Context, db *sql.DB) error {
	type pokemonType struct {
		Slot int           `json:"slot"`
		Type namedResource `json:"type"`
	}
	type pokemonStat struct {
		BaseStat int           `json:"base_stat"`
		Effort   int           `json:"effort"`
		Stat     namedResource `json:"stat"`
	}
	type pokemonAbility struct {
		IsHidden bool          `json:"is_hidden"`
		Slot     int           `json:"slot"`
		Ability  namedResource `json:"ability"`
	}
	type pokemon struct {
		ID             int              `json:"id"`
		Name           string           `json:"name"`
		Species        namedResource    `json:"species"`
		BaseExperience int              `json:"base_experience"`
		IsDefault      bool             `json:"is_default"`
		Height         int              `json:"height"`
		Weight         int              `json:"weight"`
		Types          []pokemonType    `json:"types"`
		Stats          []pokemonStat    `json:"stats"`
		Abilities      []pokemonAbility `json:"abilities"`
	}
	return eachResource(im, ctx, "/pokemon", func(p pokemon) error {
		if _, err := db.ExecContext(ctx,
			`INSERT OR REPLACE INTO pokemon
			 (id, name, species_id, base_experience, is_default, height, weight)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Name, idFromURL(p.Species.URL), p.BaseExperience,
			p.IsDefault, p.Height, p.Weight); err != nil {
			return err
		}
		for _, t := range p.Types {
			if _, err := db.ExecContext(ctx,
				`INSERT INTO pokemon_types (pokemon_id, type_name, slot) VALUES (?, ?, ?)`,
				p.ID, t.Type.Name, t.Slot); err != nil {
				return err
			}
		}
		for _, s := range p.Stats {
			if _, err := db.ExecContext(ctx,
				`INSERT INTO pokemon_stats (pokemon_id, stat_name, base_stat, effort) VALUES (?, ?, ?, ?)`,
				p.ID, s.Stat.Name, s.BaseStat, s.Effort); err != nil {
				return err
			}
		}
		for _, a := range p.Abilities {
			if _, err := db.ExecContext(ctx,
				`INSERT INTO pokemon_abilities (pokemon_id, ability_name, is_hidden, slot) VALUES (?, ?, ?, ?)`,
				p.ID, a.Ability.Name, a.IsHidden, a.Slot); err != nil {
				return err
			}
		}
		return nil
	})
}

func (im *Importer) importMoves(ctx context.Context, db *sql.DB) error {
	type move struct {
		ID          int           `json:"id"`
		Name        string        `json:"name"`
		Accuracy    int           `json:"accuracy"`
		PP          int           `json:"pp"`
		Priority    int           `json:"priority"`
		Power       int           `json:"power"`
		DamageClass namedResource `json:"damage_class"`
		Generation  namedResource `json:"generation"`
		Type        namedResource `json:"type"`
	}
	return eachResource(im, ctx, "/move", func(m move) error {
		_, err := db.ExecContext(ctx,
			`INSERT OR REPLACE INTO move
			 (id, name, accuracy, pp, priority, power, damage_class, generation_id, type_name)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.ID, m.Name, m.Accuracy, m.PP, m.Priority, m.Power,
			m.DamageClass.Name, idFromURL(m.Generation.URL), m.Type.Name)
		return err
	})
}

func (im *Importer) importAbilities(ctx context.Context, db *sql.DB) error {
	type ability struct {
		ID           int           `json:"id"`
		Name         string        `json:"name"`
		IsMainSeries bool          `json:"is_main_series"`
		Generation   namedResource `json:"generation"`
	}
	return eachResource(im, ctx, "/ability", func(a ability) error {
		_, err := db.ExecContext(ctx,
			`INSERT OR REPLACE INTO ability (id, name, is_main_series, generation_id) VALUES (?, ?, ?, ?)`,
			a.ID, a.Name, a.IsMainSeries, idFromURL(a.Generation.URL))
		return err
	})
}

func (im *Importer) importNatures(ctx context.Context, db *sql.DB) error {
	type nature struct {
		ID            int           `json:"id"`
		Name          string        `json:"name"`
		IncreasedStat namedResource `json:"increased_stat"`
		DecreasedStat namedResource `json:"decreased_stat"`
	}
	return eachResource(im, ctx, "/nature", func(n nature) error {
		_, err := db.ExecContext(ctx,
			`INSERT OR REPLACE INTO nature (id, name, increased_stat, decreased_stat) VALUES (?, ?, ?, ?)`,
			n.ID, n.Name, n.IncreasedStat.Name, n.DecreasedStat.Name)
		return err
	})
}

func (im *Importer) importItems(ctx context.Context, db *sql.DB) error {
	type item struct {
		ID       int           `json:"id"`
		Name     string        `json:"name"`
		Cost     int           `json:"cost"`
		Category namedResource `json:"category"`
	}
	return eachResource(im, ctx, "/item", func(i item) error {
		_, err := db.ExecContext(ctx,
			`INSERT OR REPLACE INTO item (id, name, cost, category) VALUES (?, ?, ?, ?)`,
			i.ID, i.Name, i.Cost, i.Category.Name)
		return err
	})
}
