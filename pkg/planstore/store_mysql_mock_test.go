package planstore

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// mockedMySQLStore wires a Store to a sqlmock-backed *sql.DB through the
// mysql dialector, mirroring the teacher's mysql_test.go expectation style
// for the query/exec pairs GORM issues under the hood.
func mockedMySQLStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})
	gdb, err := gorm.Open(dialector, &gorm.Config{})
	require.NoError(t, err)

	return NewStore(gdb), mock
}

func TestStore_Get_MySQLMiss(t *testing.T) {
	s, mock := mockedMySQLStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `plan_cache` WHERE key = ? ORDER BY `plan_cache`.`key` LIMIT ?")).
		WithArgs("missing", 1).
		WillReturnRows(sqlmock.NewRows([]string{"key", "data", "created_at"}))

	plan, ok, err := s.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, plan)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Put_MySQLUpsertFailurePropagates(t *testing.T) {
	s, mock := mockedMySQLStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `plan_cache`")).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := s.Put(context.Background(), "k1", samplePlan())
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
