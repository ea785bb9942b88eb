package repository

import (
	"context"
	"testing"
	"time"

	"menswear/internal/domain/model"
	repo "menswear/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// DryRunで組み立てたUPDATE文を拾う
func captureUpdateSQL(t *testing.T, db *gorm.DB) *string {
	t.Helper()
	var sql string
	err := db.Callback().Update().After("gorm:update").Register("test:capture_update", func(tx *gorm.DB) {
		sql = tx.Statement.SQL.String()
	})
	require.NoError(t, err)
	return &sql
}

func captureQuerySQL(t *testing.T, db *gorm.DB) *[]string {
	t.Helper()
	var sqls []string
	err := db.Callback().Query().After("gorm:query").Register("test:capture_query", func(tx *gorm.DB) {
		sqls = append(sqls, tx.Statement.SQL.String())
	})
	require.NoError(t, err)
	return &sqls
}

// 更新されなければ（DryRunは常に0件）競合扱い
func TestOrderGormRepository_UpdateStatusGuardsCurrentStatus(t *testing.T) {
	db := dryRunDB(t)
	sql := captureUpdateSQL(t, db)

	err := NewOrderGormRepository(db).UpdateStatus(context.Background(), 1, model.OrderStatusPaid, model.OrderStatusCanceled)
	assert.ErrorIs(t, err, repo.ErrConflict)
	assert.Contains(t, *sql, `"status"=$`)
	assert.Contains(t, *sql, `status = $`)
	assert.Contains(t, *sql, `"id" = $`)
}

func TestPurchaseOrderGormRepository_SaveGuardsCurrentStatus(t *testing.T) {
	db := dryRunDB(t)
	sql := captureUpdateSQL(t, db)

	now := time.Now()
	po := model.PurchaseOrder{ID: 40, Status: model.POStatusReceived, ReceivedAt: &now}
	err := NewPurchaseOrderGormRepository(db).Save(context.Background(), po, model.POStatusOrdered)
	assert.ErrorIs(t, err, repo.ErrConflict)
	assert.Contains(t, *sql, "id = $")
	assert.Contains(t, *sql, "AND status = $")
}

// toは半開区間の終端
func TestOrderGormRepository_ListAdminRangeIsHalfOpen(t *testing.T) {
	db := dryRunDB(t)
	sqls := captureQuerySQL(t, db)

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	_, _, _ = NewOrderGormRepository(db).ListAdmin(context.Background(), repo.AdminOrderListFilter{
		Page:  1,
		Limit: 20,
		From:  &from,
		To:    &to,
	})
	require.NotEmpty(t, *sqls)
	for _, s := range *sqls {
		assert.Contains(t, s, "created_at >= $")
		assert.Contains(t, s, "created_at < $")
		assert.NotContains(t, s, "created_at <= $")
	}
}
