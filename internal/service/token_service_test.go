package service

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/token-manager/internal/apperr"
	"github.com/iliyamo/token-manager/internal/model"
)

var (
	tokenCols = []string{"id", "name", "group_id", "created_at", "updated_at"}
	valueCols = []string{"id", "value", "token_id", "theme_id", "name"}
)

func TestTokenService_CreateWithoutThemes(t *testing.T) {
	db, mock := newMock(t)
	svc := NewTokenService(db, NopPublisher{}, nop())

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM themes ORDER BY id")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), CreateTokenInput{Name: "brand-color"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindNoThemesAvailable, apperr.KindOf(err))
	assert.EqualError(t, err, "No themes found. Please create at least one theme.")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenService_CreateFansOutToEveryTheme(t *testing.T) {
	db, mock := newMock(t)
	events := &recorder{}
	svc := NewTokenService(db, events, nop())

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM themes ORDER BY id")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tokens")).
		WithArgs("brand-color", nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO token_values (token_id, theme_id, value) VALUES (?,?,?)")).
		WithArgs(10, 1, "#000000").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM tokens WHERE id = ?")).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows(tokenCols).AddRow(10, "brand-color", nil, stamp, stamp))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE tv.token_id = ?")).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows(valueCols).AddRow(1, "#000000", 10, 1, "light"))
	mock.ExpectCommit()

	tok, err := svc.Create(context.Background(), CreateTokenInput{Name: "brand-color", DefaultValue: ptr("#000000")})
	require.NoError(t, err)
	require.Len(t, tok.TokenValues, 1)
	assert.Equal(t, "#000000", tok.TokenValues[0].Value)
	assert.Equal(t, &model.NodeRef{ID: 1, Name: "light"}, tok.TokenValues[0].Theme)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Len(t, events.events, 1)
}

func TestTokenService_CreateUnknownGroup(t *testing.T) {
	db, mock := newMock(t)
	svc := NewTokenService(db, NopPublisher{}, nop())

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM token_groups WHERE id = ?")).
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), CreateTokenInput{Name: "x", GroupID: ptr(uint64(4))})
	assert.EqualError(t, err, "Group not found")
}

func TestTokenService_UpdateUpsertsValues(t *testing.T) {
	db, mock := newMock(t)
	svc := NewTokenService(db, NopPublisher{}, nop())

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM tokens WHERE id = ?")).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows(tokenCols).AddRow(10, "brand-color", nil, stamp, stamp))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE tv.token_id = ?")).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows(valueCols))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM themes WHERE id = ?")).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta("ON DUPLICATE KEY UPDATE")).
		WithArgs(10, 2, "#ffffff").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM tokens WHERE id = ?")).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows(tokenCols).AddRow(10, "brand-color", nil, stamp, stamp))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE tv.token_id = ?")).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows(valueCols).AddRow(2, "#ffffff", 10, 2, "dark"))
	mock.ExpectCommit()

	tok, err := svc.Update(context.Background(), 10, UpdateTokenInput{Values: []ValueInput{{ThemeID: 2, Value: "#ffffff"}}})
	require.NoError(t, err)
	require.Len(t, tok.TokenValues, 1)
	assert.Equal(t, "#ffffff", tok.TokenValues[0].Value)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenService_DeleteMissing(t *testing.T) {
	db, mock := newMock(t)
	svc := NewTokenService(db, NopPublisher{}, nop())

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM token_values WHERE token_id = ?")).
		WithArgs(3).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM tokens WHERE id = ?")).
		WithArgs(3).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	assert.EqualError(t, svc.Delete(context.Background(), 3), "Token not found")
}
