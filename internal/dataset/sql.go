package dataset

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

const selectPrices = `SELECT scrap_type, sub_category, sub_sub_category, base_price FROM scrap_prices`

// SQLSource reads price rows from a relational scrap_prices table.
type SQLSource struct {
	db *sql.DB
}

// NewSQLSource opens a Postgres connection pool for the given URL. The
// connection is validated lazily on first fetch.
func NewSQLSource(databaseURL string) (*SQLSource, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &SQLSource{db: db}, nil
}

func (s *SQLSource) Name() string { return "postgres" }

func (s *SQLSource) Fetch(ctx context.Context) ([]Raw, error) {
	rows, err := s.db.QueryContext(ctx, selectPrices)
	if err != nil {
		return nil, fmt.Errorf("query scrap_prices: %w", err)
	}
	defer rows.Close()

	var raws []Raw
	for rows.Next() {
		var scrapType, subCategory, subSubCategory, basePrice sql.NullString
		if err := rows.Scan(&scrapType, &subCategory, &subSubCategory, &basePrice); err != nil {
			return nil, fmt.Errorf("scan scrap_prices row: %w", err)
		}
		raws = append(raws, Raw{
			ScrapType:      scrapType.String,
			SubCategory:    subCategory.String,
			SubSubCategory: subSubCategory.String,
			BasePrice:      basePrice.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scrap_prices rows: %w", err)
	}
	return raws, nil
}

func (s *SQLSource) Close() error {
	return s.db.Close()
}
