package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestAuditService_ListScopesOrganization(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "audit_logs" WHERE organization_id = \$1`).
		WithArgs("org-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`SELECT \* FROM "audit_logs" WHERE organization_id = \$1 ORDER BY created_at desc LIMIT .*`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "user_id", "action", "entity"}).
			AddRow(3, "org-1", "user-1", "report", "analytics_job"))

	logs, total, err := NewAuditService(db).List(context.Background(), "org-1", 2, 2)

	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, logs, 1)
	assert.Equal(t, "report", logs[0].Action)
	assert.NoError(t, mock.ExpectationsWereMet())
}
