package repositories

import (
	"context"
	"regexp"
	"testing"
	"time"

	"glowdesk/internal/models"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var socialAccountCols = []string{"id", "tenant_id", "platform", "page_id", "page_name", "access_token", "token_expires_at", "connected_at", "status"}

func TestGetAccountByPageID_FiltersOnPlatform(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id, tenantID := uuid.New(), uuid.New()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE platform = $1 AND page_id = $2")).
		WithArgs(models.PlatformInstagram, "1784").
		WillReturnRows(pgxmock.NewRows(socialAccountCols).
			AddRow(id, tenantID, models.PlatformInstagram, "1784", "Luna IG", "tok", (*time.Time)(nil), now, "connected"))

	acct, err := NewSocialRepo(mock).GetAccountByPageID(context.Background(), models.PlatformInstagram, "1784")
	require.NoError(t, err)
	assert.Equal(t, tenantID, acct.TenantID)
	assert.Equal(t, models.PlatformInstagram, acct.Platform)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAccountByPageID_OtherPlatformNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM social_accounts WHERE platform = $1")).
		WithArgs(models.PlatformFacebook, "1784").
		WillReturnError(pgx.ErrNoRows)

	_, err = NewSocialRepo(mock).GetAccountByPageID(context.Background(), models.PlatformFacebook, "1784")
	assert.True(t, IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
