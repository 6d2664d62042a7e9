// File: repositories/roster_repository.go
package repositories

import (
	"context"
	"errors"

	"github.com/Dosada05/mergington-activities/models"
)

var ErrMalformedStore = errors.New("roster store contains malformed data")

// UpdateFunc mutates the roster in place. Returning an error aborts the update
// and nothing is written.
type UpdateFunc func(roster models.Roster) error

// RosterRepository persists the whole roster as one unit.
type RosterRepository interface {
	// Load returns the current roster. A store with no data yields an empty roster.
	Load(ctx context.Context) (models.Roster, error)
	// Save replaces the persisted roster.
	Save(ctx context.Context, roster models.Roster) error
	// Update runs load, fn and save as one serialised step and returns the saved roster.
	// An error from fn is returned unchanged.
	Update(ctx context.Context, fn UpdateFunc) (models.Roster, error)
}
