package service

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/token-manager/internal/apperr"
	"github.com/iliyamo/token-manager/internal/utils"
)

var userCols = []string{"id", "email", "name", "password_hash", "role", "refresh_token", "created_at", "updated_at"}

func testAuthConfig() AuthConfig {
	return AuthConfig{AccessSecret: "access-secret", RefreshSecret: "refresh-secret", AccessTTLMin: 15, RefreshTTLDays: 7}
}

func hashed(t *testing.T, plain string) string {
	t.Helper()
	h, err := utils.HashPassword(plain, bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func TestAuthService_LoginFailuresAreIndistinguishable(t *testing.T) {
	db, mock := newMock(t)
	svc := NewAuthService(db, testAuthConfig(), nop())

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = ?")).
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows(userCols))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = ?")).
		WithArgs("ana@example.com").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(1, "ana@example.com", "Ana", hashed(t, "correct-horse"), "ADMIN", nil, stamp, stamp))

	_, errUnknown := svc.Login(context.Background(), "ghost@example.com", "whatever")
	_, errWrong := svc.Login(context.Background(), "ana@example.com", "wrong-password")

	require.Error(t, errUnknown)
	require.Error(t, errWrong)
	assert.Equal(t, apperr.KindInvalidCredentials, apperr.KindOf(errUnknown))
	assert.Equal(t, apperr.KindInvalidCredentials, apperr.KindOf(errWrong))
	assert.Equal(t, errUnknown.Error(), errWrong.Error())
}

func TestAuthService_LoginRefreshLogout(t *testing.T) {
	db, mock := newMock(t)
	svc := NewAuthService(db, testAuthConfig(), nop())
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = ?")).
		WithArgs("ana@example.com").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(1, "ana@example.com", "Ana", hashed(t, "correct-horse"), "MAINTAINER", nil, stamp, stamp))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET refresh_token = ? WHERE id = ?")).
		WithArgs(sqlmock.AnyArg(), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	login, err := svc.Login(ctx, "ana@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), login.User.ID)
	require.NotEmpty(t, login.RefreshToken)
	stored := utils.HashRefreshRaw(login.RefreshToken)

	// refresh while the token is stored
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = ?")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(1, "ana@example.com", "Ana", "x", "MAINTAINER", stored, stamp, stamp))
	refreshed, err := svc.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	claims, err := utils.ParseAccessToken("access-secret", refreshed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), claims.UserID)

	// logout clears the stored hash
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET refresh_token = NULL WHERE refresh_token = ?")).
		WithArgs(stored).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, svc.Logout(ctx, login.RefreshToken))

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = ?")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(1, "ana@example.com", "Ana", "x", "MAINTAINER", nil, stamp, stamp))
	_, err = svc.Refresh(ctx, login.RefreshToken)
	assert.Equal(t, apperr.KindInvalidToken, apperr.KindOf(err))
	assert.EqualError(t, err, MsgInvalidRefresh)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthService_RefreshRejectsAccessToken(t *testing.T) {
	svc := NewAuthService(nil, testAuthConfig(), nop())
	at, err := utils.NewAccessToken("access-secret", 1, "a@b.c", "VIEWER", 15)
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), at.Token)
	assert.Equal(t, apperr.KindInvalidToken, apperr.KindOf(err))
}

func TestAuthService_RefreshMismatchAfterNewLogin(t *testing.T) {
	db, mock := newMock(t)
	svc := NewAuthService(db, testAuthConfig(), nop())

	old, err := utils.NewRefreshToken("refresh-secret", 1, 7)
	require.NoError(t, err)
	newer, err := utils.NewRefreshToken("refresh-secret", 1, 7)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = ?")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(1, "a@b.c", "A", "x", "VIEWER", utils.HashRefreshRaw(newer.Raw), stamp, stamp))

	_, err = svc.Refresh(context.Background(), old.Raw)
	assert.Equal(t, apperr.KindInvalidToken, apperr.KindOf(err))
}

func TestAuthService_Authenticate(t *testing.T) {
	db, mock := newMock(t)
	svc := NewAuthService(db, testAuthConfig(), nop())
	ctx := context.Background()

	_, errMissing := svc.Authenticate(ctx, "")
	_, errScheme := svc.Authenticate(ctx, "Basic abc")
	_, errGarbage := svc.Authenticate(ctx, "Bearer not-a-jwt")

	assert.EqualError(t, errMissing, MsgBearerRequired)
	assert.EqualError(t, errScheme, MsgBearerRequired)
	require.Error(t, errGarbage)
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(errGarbage))
	var e *apperr.Error
	require.ErrorAs(t, errGarbage, &e)
	assert.Equal(t, MsgInvalidAccess, e.Message)

	at, err := utils.NewAccessToken("access-secret", 5, "v@x.io", "VIEWER", 15)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = ?")).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(5, "v@x.io", "Vic", "x", "VIEWER", nil, stamp, stamp))
	id, err := svc.Authenticate(ctx, "Bearer "+at.Token)
	require.NoError(t, err)
	assert.Equal(t, "Vic", id.Name)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = ?")).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(userCols))
	_, err = svc.Authenticate(ctx, "Bearer "+at.Token)
	assert.EqualError(t, err, "User not found")
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
}
