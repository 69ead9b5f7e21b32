package repository

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// AbandonedCartListFilter 查询弃购记录列表的过滤条件
type AbandonedCartListFilter struct {
	Page          int
	PageSize      int
	Status        string
	Email         string
	MinCartTotal  *decimal.Decimal
	MaxCartTotal  *decimal.Decimal
	AbandonedFrom *time.Time
	AbandonedTo   *time.Time
}

// AbandonedCartStatsRow 区间内弃购记录的原始聚合结果
type AbandonedCartStatsRow struct {
	TotalAbandoned int64
	Recovered      int64
	OrdersCreated  int64
	TotalValue     decimal.Decimal
	RecoveredValue decimal.Decimal
}

// abandonedCartStatsScan 聚合 SQL 的扫描目标，金额按字符串读取后再转 decimal
type abandonedCartStatsScan struct {
	TotalAbandoned int64
	Recovered      int64
	OrdersCreated  int64
	TotalValue     sql.NullString
	RecoveredValue sql.NullString
}
