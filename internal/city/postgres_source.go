package city

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Querier is the subset of pgxpool.Pool used by PostgresSource.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresSource loads the knowledge base from the cities and city_aliases
// tables. Row order is taken from the position column.
type PostgresSource struct {
	db Querier
}

// NewPostgresSource creates a Postgres-backed source.
func NewPostgresSource(db Querier) *PostgresSource {
	return &PostgresSource{db: db}
}

// Name returns the source name for logging.
func (s *PostgresSource) Name() string { return "postgres" }

// Load reads all cities and aliases.
func (s *PostgresSource) Load(ctx context.Context) (*Dataset, error) {
	cities, err := s.loadCities(ctx)
	if err != nil {
		return nil, err
	}
	aliases, err := s.loadAliases(ctx)
	if err != nil {
		return nil, err
	}
	return &Dataset{Cities: cities, Aliases: aliases}, nil
}

func (s *PostgresSource) loadCities(ctx context.Context) ([]Profile, error) {
	query := `
		SELECT key, display_name, country, classification,
		       transit_score, bike_score, walk_score, congestion_score,
		       notes, hubs
		FROM cities
		ORDER BY position, key
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query cities: %w", err)
	}
	defer rows.Close()

	var cities []Profile
	for rows.Next() {
		var p Profile
		err := rows.Scan(
			&p.Key,
			&p.DisplayName,
			&p.Country,
			&p.Classification,
			&p.TransitScore,
			&p.BikeScore,
			&p.WalkScore,
			&p.CongestionScore,
			&p.Notes,
			&p.Hubs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan city: %w", err)
		}
		cities = append(cities, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cities: %w", err)
	}
	return cities, nil
}

func (s *PostgresSource) loadAliases(ctx context.Context) ([]Alias, error) {
	query := `
		SELECT alias, city_key
		FROM city_aliases
		ORDER BY position, alias
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query city aliases: %w", err)
	}
	defer rows.Close()

	var aliases []Alias
	for rows.Next() {
		var a Alias
		if err := rows.Scan(&a.Name, &a.CityKey); err != nil {
			return nil, fmt.Errorf("scan city alias: %w", err)
		}
		aliases = append(aliases, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate city aliases: %w", err)
	}
	return aliases, nil
}

// Ensure PostgresSource implements Source interface.
var _ Source = (*PostgresSource)(nil)
