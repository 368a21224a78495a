package service

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/token-manager/internal/apperr"
	"github.com/iliyamo/token-manager/internal/model"
	"github.com/iliyamo/token-manager/internal/queue"
)

func TestThemeService_CreateFansOutToExistingTokens(t *testing.T) {
	db, mock := newMock(t)
	events := &recorder{}
	svc := NewThemeService(db, events, nop())

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO themes")).
		WithArgs("dark", nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM tokens ORDER BY id")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO token_values (token_id, theme_id, value) VALUES (?,?,?)")).
		WithArgs(10, 2, "").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	theme, err := svc.Create(context.Background(), CreateThemeInput{Name: " dark "})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), theme.ID)
	assert.Equal(t, "dark", theme.Name)
	assert.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, events.events, 1)
	assert.Equal(t, queue.ActionCreated, events.events[0].Action)
}

func TestThemeService_CreateWithoutTokensSkipsInsert(t *testing.T) {
	db, mock := newMock(t)
	svc := NewThemeService(db, NopPublisher{}, nop())

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO themes")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM tokens")).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	_, err := svc.Create(context.Background(), CreateThemeInput{Name: "light"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestThemeService_CreateDuplicateName(t *testing.T) {
	db, mock := newMock(t)
	svc := NewThemeService(db, NopPublisher{}, nop())

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO themes")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'light'"})
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), CreateThemeInput{Name: "light"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestThemeService_CreateRequiresName(t *testing.T) {
	svc := NewThemeService(nil, NopPublisher{}, nop())
	_, err := svc.Create(context.Background(), CreateThemeInput{Name: "  "})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestThemeService_CreateUnknownParent(t *testing.T) {
	db, mock := newMock(t)
	svc := NewThemeService(db, NopPublisher{}, nop())

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM themes WHERE id = ?")).
		WithArgs(77).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), CreateThemeInput{Name: "x", ParentID: ptr(uint64(77))})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.EqualError(t, err, msgParentThemeNotFound)
}

func expectThemeGet(mock sqlmock.Sqlmock, id uint64, parent any) {
	mock.ExpectQuery(regexp.QuoteMeta("FROM themes t LEFT JOIN themes p")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "parent_id", "created_at", "updated_at", "name"}).
			AddRow(id, "light", parent, stamp, stamp, nil))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name FROM themes WHERE parent_id = ?")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))
}

func TestThemeService_UpdateRejectsDescendantAsParent(t *testing.T) {
	db, mock := newMock(t)
	svc := NewThemeService(db, NopPublisher{}, nop())

	mock.ExpectBegin()
	expectThemeGet(mock, 1, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM themes WHERE id = ?")).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
	mock.ExpectQuery("WITH RECURSIVE subtree").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2).AddRow(3))
	mock.ExpectRollback()

	_, err := svc.Update(context.Background(), 1, UpdateThemeInput{ParentID: model.Some(uint64(3))})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestThemeService_UpdateSelfParent(t *testing.T) {
	db, mock := newMock(t)
	svc := NewThemeService(db, NopPublisher{}, nop())

	mock.ExpectBegin()
	expectThemeGet(mock, 4, nil)
	mock.ExpectRollback()

	_, err := svc.Update(context.Background(), 4, UpdateThemeInput{ParentID: model.Some(uint64(4))})
	assert.EqualError(t, err, msgThemeCycle)
}

func TestThemeService_UpdateExplicitNullMovesToRoot(t *testing.T) {
	db, mock := newMock(t)
	svc := NewThemeService(db, NopPublisher{}, nop())

	mock.ExpectBegin()
	expectThemeGet(mock, 3, 1)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE themes SET name = ?, parent_id = ?, updated_at = ? WHERE id = ?")).
		WithArgs("light", nil, sqlmock.AnyArg(), 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectThemeGet(mock, 3, nil)
	mock.ExpectCommit()

	theme, err := svc.Update(context.Background(), 3, UpdateThemeInput{ParentID: model.Null[uint64]()})
	require.NoError(t, err)
	assert.Nil(t, theme.ParentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestThemeService_UpdateReturnsParentAndChildren(t *testing.T) {
	db, mock := newMock(t)
	svc := NewThemeService(db, NopPublisher{}, nop())

	mock.ExpectBegin()
	expectThemeGet(mock, 3, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM themes WHERE id = ?")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
	mock.ExpectQuery("WITH RECURSIVE subtree").
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3).AddRow(5))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE themes SET name = ?, parent_id = ?, updated_at = ? WHERE id = ?")).
		WithArgs("light", 1, sqlmock.AnyArg(), 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM themes t LEFT JOIN themes p")).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "parent_id", "created_at", "updated_at", "name"}).
			AddRow(3, "light", 1, stamp, stamp, "base"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name FROM themes WHERE parent_id = ?")).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(5, "light-hc"))
	mock.ExpectCommit()

	theme, err := svc.Update(context.Background(), 3, UpdateThemeInput{ParentID: model.Some(uint64(1))})
	require.NoError(t, err)
	require.NotNil(t, theme.Parent)
	assert.Equal(t, model.NodeRef{ID: 1, Name: "base"}, *theme.Parent)
	assert.Equal(t, []model.NodeRef{{ID: 5, Name: "light-hc"}}, theme.Children)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestThemeService_UpdateMissing(t *testing.T) {
	db, mock := newMock(t)
	svc := NewThemeService(db, NopPublisher{}, nop())

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM themes t LEFT JOIN themes p")).
		WithArgs(8).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "parent_id", "created_at", "updated_at", "name"}))
	mock.ExpectRollback()

	_, err := svc.Update(context.Background(), 8, UpdateThemeInput{Name: ptr("x")})
	assert.EqualError(t, err, msgThemeNotFound)
}

func TestThemeService_DeleteCascades(t *testing.T) {
	db, mock := newMock(t)
	events := &recorder{}
	svc := NewThemeService(db, events, nop())

	mock.ExpectBegin()
	mock.ExpectQuery("WITH RECURSIVE subtree").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM token_values WHERE theme_id IN (?,?)")).
		WithArgs(1, 3).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM themes WHERE id IN (?,?)")).
		WithArgs(1, 3).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, svc.Delete(context.Background(), 1))
	assert.NoError(t, mock.ExpectationsWereMet())
	require.Len(t, events.events, 1)
	assert.Equal(t, []uint64{1, 3}, events.events[0].Affected)
}

func TestThemeService_DeleteMissing(t *testing.T) {
	db, mock := newMock(t)
	svc := NewThemeService(db, NopPublisher{}, nop())

	mock.ExpectBegin()
	mock.ExpectQuery("WITH RECURSIVE subtree").WithArgs(5).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err := svc.Delete(context.Background(), 5)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.EqualError(t, err, msgThemeNotFound)
}
