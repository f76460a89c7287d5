package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/minibus-booking/internal/model"
)

// CityRepo reads the city directory.
type CityRepo struct {
	db *sql.DB
}

// NewCityRepo returns a CityRepo bound to db.
func NewCityRepo(db *sql.DB) *CityRepo { return &CityRepo{db: db} }

// ListAll returns every city ordered by name.
func (r *CityRepo) ListAll(ctx context.Context) ([]model.City, error) {
	const q = `SELECT id, name, region, created_at FROM cities ORDER BY name ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []model.City
	for rows.Next() {
		var c model.City
		var region sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &region, &c.CreatedAt); err != nil {
			return nil, err
		}
		if region.Valid {
			v := region.String
			c.Region = &v
		}
		list = append(list, c)
	}
	return list, rows.Err()
}
