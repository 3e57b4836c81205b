package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &PostgresStore{db: db, logger: zerolog.Nop()}, mock
}

func TestDeleteReportAffectedRows(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("DELETE FROM reportes").
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	deleted, err := store.DeleteReport(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, deleted)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteReportMissingIsNotError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("DELETE FROM reportes").
		WithArgs(999).
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := store.DeleteReport(context.Background(), 999)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestJoinCommunityDuplicateTranslated(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO comunidad_miembros").
		WithArgs(5, 3).
		WillReturnError(&pq.Error{Code: "23505"})

	err := store.JoinCommunity(context.Background(), 5, 3)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestLeaveCommunityNotMember(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("DELETE FROM comunidad_miembros").
		WithArgs(5, 3).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.LeaveCommunity(context.Background(), 5, 3)
	assert.ErrorIs(t, err, ErrNotMember)
}

func TestEnsureMembershipMissingCommunityTolerated(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO comunidad_miembros").
		WithArgs(999999, 3).
		WillReturnError(&pq.Error{Code: "23503"})

	// 社区不存在时自动加入被跳过但不报错
	err := store.EnsureMembership(context.Background(), 999999, 3)
	assert.NoError(t, err)
}

func TestUpdateReportPartialNoFields(t *testing.T) {
	store, _ := newMockStore(t)

	// 白名单外的字段不算有效字段，不应触发任何SQL
	_, err := store.UpdateReportPartial(context.Background(), 1, map[string]string{
		"estado": "Resuelto",
	})
	assert.ErrorIs(t, err, ErrNoFields)

	_, err = store.UpdateReportPartial(context.Background(), 1, map[string]string{})
	assert.ErrorIs(t, err, ErrNoFields)
}

func TestUpdateReportPartialWhitelisted(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("UPDATE reportes SET").
		WithArgs("Nuevo título", 4).
		WillReturnResult(sqlmock.NewResult(0, 1))

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM reportes WHERE id").
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "titulo", "descripcion", "ubicacion", "categoria", "estado",
			"imagen_nombre", "imagen_tipo", "created_at",
		}).AddRow(4, "Nuevo título", "desc", "loc", "cat", "Pendiente", "", "", now))

	report, err := store.UpdateReportPartial(context.Background(), 4, map[string]string{
		"titulo": "Nuevo título",
	})
	require.NoError(t, err)
	assert.Equal(t, "Nuevo título", report.Titulo)
}

func TestCountReports(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count", "recent"}).AddRow(42, 7))

	total, recent, err := store.CountReports(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, total)
	assert.Equal(t, 7, recent)
}

func TestCreateCommunityTransactional(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO comunidades").
		WithArgs(3, "Vecinos", "desc", "general", nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(1, now))
	mock.ExpectExec("INSERT INTO comunidad_miembros").
		WithArgs(1, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	community, err := store.CreateCommunity(context.Background(), 3, "Vecinos", "desc", "general", "")
	require.NoError(t, err)
	assert.Equal(t, 1, community.ID)
	assert.Equal(t, "activa", community.Estado)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCommunityRollsBackOnMembershipFailure(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO comunidades").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(1, now))
	mock.ExpectExec("INSERT INTO comunidad_miembros").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := store.CreateCommunity(context.Background(), 3, "Vecinos", "", "", "")
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}
