package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Dosada05/mergington-activities/db"
	"github.com/Dosada05/mergington-activities/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (RosterRepository, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewPostgresRosterRepository(conn), mock
}

func appendParticipant(activity, email string) UpdateFunc {
	return func(r models.Roster) error {
		a, ok := r[activity]
		if !ok {
			return fmt.Errorf("no activity %q", activity)
		}
		a.Participants = append(a.Participants, email)
		r[activity] = a
		return nil
	}
}

func TestSQLRosterRepository_Load(t *testing.T) {
	tests := []struct {
		name      string
		mockQuery func(mock sqlmock.Sqlmock)
		wantNames []string
		wantErr   error
	}{
		{
			name: "rows decoded",
			mockQuery: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"name", "document"}).
					AddRow("Chess Club", []byte(`{"description":"d","schedule":"s","participants":["a@x.edu"]}`)).
					AddRow("Gym Class", []byte(`{"description":"g","schedule":"s"}`))
				mock.ExpectQuery(regexp.QuoteMeta(postgresDialect.selectAll)).WillReturnRows(rows)
			},
			wantNames: []string{"Chess Club", "Gym Class"},
		},
		{
			name: "no rows",
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(postgresDialect.selectAll)).
					WillReturnRows(sqlmock.NewRows([]string{"name", "document"}))
			},
			wantNames: []string{},
		},
		{
			name: "undecodable document",
			mockQuery: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"name", "document"}).AddRow("Chess Club", []byte(`[1,2]`))
				mock.ExpectQuery(regexp.QuoteMeta(postgresDialect.selectAll)).WillReturnRows(rows)
			},
			wantErr: ErrMalformedStore,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			tt.mockQuery(mock)

			roster, err := repo.Load(context.Background())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantNames, roster.Names())
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSQLRosterRepository_LoadQueryError(t *testing.T) {
	repo, mock := newMockRepo(t)
	dbErr := errors.New("connection refused")
	mock.ExpectQuery(regexp.QuoteMeta(postgresDialect.selectAll)).WillReturnError(dbErr)

	_, err := repo.Load(context.Background())
	assert.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, ErrMalformedStore)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRosterRepository_UpdateCommits(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(postgresDialect.selectForUpdate)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "document"}).
			AddRow("Chess Club", []byte(`{"description":"d","schedule":"s","participants":["a@x.edu"]}`)))
	mock.ExpectExec(regexp.QuoteMeta(postgresDialect.deleteAll)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(postgresDialect.insert)).
		WithArgs("Chess Club", `{"description":"d","participants":["a@x.edu","new@x.edu"],"schedule":"s"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	roster, err := repo.Update(context.Background(), appendParticipant("Chess Club", "new@x.edu"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a@x.edu", "new@x.edu"}, roster["Chess Club"].Participants)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRosterRepository_UpdateKeepsDescriptiveFieldsVerbatim(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(postgresDialect.selectForUpdate)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "document"}).
			AddRow("A", []byte(`{"participants":[]}`)).
			AddRow("B", []byte(`{"description":null,"max_participants":12.0}`)))
	mock.ExpectExec(regexp.QuoteMeta(postgresDialect.deleteAll)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(postgresDialect.insert)).
		WithArgs("A", `{"participants":["new@x.edu"]}`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(postgresDialect.insert)).
		WithArgs("B", `{"description":null,"max_participants":12.0}`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := repo.Update(context.Background(), appendParticipant("A", "new@x.edu"))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRosterRepository_UpdateRollsBackOnCallbackError(t *testing.T) {
	repo, mock := newMockRepo(t)
	errAbort := errors.New("abort")

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(postgresDialect.selectForUpdate)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "document"}))
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), func(models.Roster) error { return errAbort })
	assert.Equal(t, errAbort, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRosterRepository_UpdateRollsBackOnInsertError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(postgresDialect.selectForUpdate)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "document"}).
			AddRow("Chess Club", []byte(`{"participants":[]}`)))
	mock.ExpectExec(regexp.QuoteMeta(postgresDialect.deleteAll)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(postgresDialect.insert)).
		WithArgs("Chess Club", sqlmock.AnyArg()).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), appendParticipant("Chess Club", "new@x.edu"))
	assert.ErrorContains(t, err, "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRosterRepository_UpdateMalformedRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(postgresDialect.selectForUpdate)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "document"}).AddRow("Chess Club", []byte(`"not an object"`)))
	mock.ExpectRollback()

	called := false
	_, err := repo.Update(context.Background(), func(models.Roster) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrMalformedStore)
	assert.False(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRosterRepository_SaveWritesRowsInNameOrder(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(postgresDialect.deleteAll)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(postgresDialect.insert)).
		WithArgs("Art Club", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(postgresDialect.insert)).
		WithArgs("Zoology", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Save(context.Background(), models.Roster{"Zoology": {}, "Art Club": {}})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func newSQLiteRepo(t *testing.T) RosterRepository {
	t.Helper()
	conn, err := db.OpenSQLite(":memory:", 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewSQLiteRosterRepository(conn)
}

func TestSQLiteRosterRepository_RoundTrip(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	empty, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	roster := models.Roster{
		"Chess Club": {
			Participants: []string{"michael@mergington.edu"},
			Fields: map[string]json.RawMessage{
				"description":      json.RawMessage(`"Learn strategies and compete in chess tournaments"`),
				"schedule":         json.RawMessage(`"Fridays, 3:30 PM - 5:00 PM"`),
				"max_participants": json.RawMessage(`12`),
			},
		},
	}
	require.NoError(t, repo.Save(ctx, roster))

	updated, err := repo.Update(ctx, appendParticipant("Chess Club", "daniel@mergington.edu"))
	require.NoError(t, err)

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, updated, loaded)
	assert.Equal(t, []string{"michael@mergington.edu", "daniel@mergington.edu"}, loaded["Chess Club"].Participants)
}

func TestSQLiteRosterRepository_ConcurrentUpdatesLoseNothing(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, models.Roster{"Gym Class": {Participants: []string{}}}))

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Update(ctx, appendParticipant("Gym Class", fmt.Sprintf("student%d@mergington.edu", i)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	roster, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, roster["Gym Class"].Participants, n)
}
