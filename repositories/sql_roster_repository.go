// File: repositories/sql_roster_repository.go
package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Dosada05/mergington-activities/models"
)

// sqlDialect holds the statements that differ between drivers.
type sqlDialect struct {
	selectAll       string
	selectForUpdate string
	deleteAll       string
	insert          string
}

var postgresDialect = sqlDialect{
	selectAll:       `SELECT name, document FROM activities ORDER BY name`,
	selectForUpdate: `SELECT name, document FROM activities ORDER BY name FOR UPDATE`,
	deleteAll:       `DELETE FROM activities`,
	insert:          `INSERT INTO activities (name, document) VALUES ($1, $2)`,
}

// SQLite locks the whole database for a write transaction, so no row locking clause.
var sqliteDialect = sqlDialect{
	selectAll:       `SELECT name, document FROM activities ORDER BY name`,
	selectForUpdate: `SELECT name, document FROM activities ORDER BY name`,
	deleteAll:       `DELETE FROM activities`,
	insert:          `INSERT INTO activities (name, document) VALUES (?, ?)`,
}

type sqlRosterRepository struct {
	db      *sql.DB
	dialect sqlDialect
	mu      sync.Mutex
}

// NewPostgresRosterRepository stores one row per activity in the activities table.
func NewPostgresRosterRepository(db *sql.DB) RosterRepository {
	return &sqlRosterRepository{db: db, dialect: postgresDialect}
}

func NewSQLiteRosterRepository(db *sql.DB) RosterRepository {
	return &sqlRosterRepository{db: db, dialect: sqliteDialect}
}

func (r *sqlRosterRepository) Load(ctx context.Context) (models.Roster, error) {
	return r.queryRoster(ctx, r.db, r.dialect.selectAll)
}

func (r *sqlRosterRepository) Save(ctx context.Context, roster models.Roster) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		return r.replaceRoster(ctx, tx, roster)
	})
}

func (r *sqlRosterRepository) Update(ctx context.Context, fn UpdateFunc) (models.Roster, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var updated models.Roster
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		roster, err := r.queryRoster(ctx, tx, r.dialect.selectForUpdate)
		if err != nil {
			return err
		}
		if err := fn(roster); err != nil {
			return err
		}
		if err := r.replaceRoster(ctx, tx, roster); err != nil {
			return err
		}
		updated = roster
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *sqlRosterRepository) queryRoster(ctx context.Context, exec SQLExecutor, query string) (models.Roster, error) {
	rows, err := exec.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	roster := make(models.Roster)
	for rows.Next() {
		var name string
		var document []byte
		if err := rows.Scan(&name, &document); err != nil {
			return nil, fmt.Errorf("failed to scan activity row: %w", err)
		}
		var activity models.Activity
		if err := json.Unmarshal(document, &activity); err != nil {
			return nil, fmt.Errorf("%w: activity %q: %v", ErrMalformedStore, name, err)
		}
		roster[name] = activity
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activity rows: %w", err)
	}
	return roster, nil
}

func (r *sqlRosterRepository) replaceRoster(ctx context.Context, exec SQLExecutor, roster models.Roster) error {
	if _, err := exec.ExecContext(ctx, r.dialect.deleteAll); err != nil {
		return fmt.Errorf("failed to clear activities: %w", err)
	}
	for _, name := range roster.Names() {
		document, err := json.Marshal(roster[name])
		if err != nil {
			return fmt.Errorf("failed to encode activity %q: %w", name, err)
		}
		if _, err := exec.ExecContext(ctx, r.dialect.insert, name, string(document)); err != nil {
			return fmt.Errorf("failed to insert activity %q: %w", name, err)
		}
	}
	return nil
}
