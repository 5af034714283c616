// Package store provides the SQLite-backed restaurant dataset.
// The table is ingested once from CSV at startup and is read-only
// afterwards; lookups are conjunctive exact-match filters over the
// filterable columns.
package store

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	_ "modernc.org/sqlite"
)

// Restaurant is one row of the dataset. The last three columns drive
// additional-requirement inference only and may be empty.
type Restaurant struct {
	Name        string `json:"restaurantname"`
	PriceRange  string `json:"pricerange"`
	Area        string `json:"area"`
	Food        string `json:"food"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	Postcode    string `json:"postcode"`
	FoodQuality string `json:"food_quality"`
	Crowdedness string `json:"crowdedness"`
	StayLength  string `json:"stay_length"`
}

// Attribute returns the named inference/filter attribute of the record.
// Unknown categories return the empty string.
func (r Restaurant) Attribute(category string) string {
	switch category {
	case "restaurantname":
		return r.Name
	case "pricerange":
		return r.PriceRange
	case "area":
		return r.Area
	case "food":
		return r.Food
	case "phone":
		return r.Phone
	case "address":
		return r.Address
	case "postcode":
		return r.Postcode
	case "food_quality":
		return r.FoodQuality
	case "crowdedness":
		return r.Crowdedness
	case "stay_length":
		return r.StayLength
	}
	return ""
}

// FilterColumns are the columns Lookup may constrain. Preference keys
// outside this set (notably additional_requirement) are ignored by the
// SQL filter and handled by the inference layer.
var FilterColumns = map[string]bool{
	"pricerange": true,
	"area":       true,
	"food":       true,
}

// AnySentinel marks a preference that constrains nothing.
const AnySentinel = "Any"

const schema = `
CREATE TABLE IF NOT EXISTS restaurants (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	restaurantname TEXT NOT NULL,
	pricerange   TEXT NOT NULL DEFAULT '',
	area         TEXT NOT NULL DEFAULT '',
	food         TEXT NOT NULL DEFAULT '',
	phone        TEXT NOT NULL DEFAULT '',
	address      TEXT NOT NULL DEFAULT '',
	postcode     TEXT NOT NULL DEFAULT '',
	food_quality TEXT NOT NULL DEFAULT '',
	crowdedness  TEXT NOT NULL DEFAULT '',
	stay_length  TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_restaurants_area ON restaurants(area);
CREATE INDEX IF NOT EXISTS idx_restaurants_price ON restaurants(pricerange);
CREATE INDEX IF NOT EXISTS idx_restaurants_food ON restaurants(food);
`

const selectColumns = `restaurantname, pricerange, area, food, phone, address, postcode, food_quality, crowdedness, stay_length`

// Store wraps the SQLite database holding the restaurant table.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// Open initializes the SQLite database at the given path and ensures the
// schema exists. Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy_timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{db: db, dbPath: path}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// ImportCSV replaces the restaurant table with the rows of the CSV file.
// The header row must name at least restaurantname, pricerange, area,
// food, phone, address and postcode; the inference columns food_quality,
// crowdedness and stay_length are optional.
func (s *Store) ImportCSV(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()
	return s.importReader(f)
}

func (s *Store) importReader(r io.Reader) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read CSV header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, required := range []string{"restaurantname", "pricerange", "area", "food"} {
		if _, ok := col[required]; !ok {
			return 0, fmt.Errorf("dataset is missing required column %q", required)
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin import: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM restaurants"); err != nil {
		return 0, fmt.Errorf("failed to clear table: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO restaurants (` + selectColumns + `) VALUES (?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	count := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read CSV row: %w", err)
		}
		name := field(row, "restaurantname")
		if name == "" {
			continue
		}
		if _, err := stmt.Exec(
			name,
			field(row, "pricerange"),
			field(row, "area"),
			field(row, "food"),
			field(row, "phone"),
			field(row, "address"),
			field(row, "postcode"),
			field(row, "food_quality"),
			field(row, "crowdedness"),
			field(row, "stay_length"),
		); err != nil {
			return 0, fmt.Errorf("failed to insert %q: %w", name, err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}
	return count, nil
}

// Count returns the number of restaurant records.
func (s *Store) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM restaurants").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count restaurants: %w", err)
	}
	return n, nil
}

// All returns every record in insertion order.
func (s *Store) All() ([]Restaurant, error) {
	return s.Lookup(nil)
}

// Lookup filters the table by exact match on every filterable preference
// whose value is not the Any sentinel. Keys outside FilterColumns are
// ignored. Records come back in stable insertion order; an empty result
// is not an error.
func (s *Store) Lookup(preferences map[string]string) ([]Restaurant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT " + selectColumns + " FROM restaurants"
	var clauses []string
	var args []interface{}

	keys := make([]string, 0, len(preferences))
	for k := range preferences {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := preferences[k]
		if !FilterColumns[k] || strings.EqualFold(v, AnySentinel) {
			continue
		}
		clauses = append(clauses, k+" = ?")
		args = append(args, v)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("lookup failed: %w", err)
	}
	defer rows.Close()

	var out []Restaurant
	for rows.Next() {
		var r Restaurant
		if err := rows.Scan(
			&r.Name, &r.PriceRange, &r.Area, &r.Food, &r.Phone,
			&r.Address, &r.Postcode, &r.FoodQuality, &r.Crowdedness, &r.StayLength,
		); err != nil {
			return nil, fmt.Errorf("failed to scan restaurant: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DistinctValues returns the sorted distinct non-empty values of a
// filterable column.
func (s *Store) DistinctValues(column string) ([]string, error) {
	if !FilterColumns[column] {
		return nil, fmt.Errorf("column %q is not filterable", column)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query("SELECT DISTINCT " + column + " FROM restaurants WHERE " + column + " != '' ORDER BY " + column)
	if err != nil {
		return nil, fmt.Errorf("failed to read distinct %s: %w", column, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
