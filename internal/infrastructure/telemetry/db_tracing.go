package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultSlowQuery = 200 * time.Millisecond

type queryStartKey struct{}

// DBTracing adds otelgorm spans plus slow query and row count attributes.
type DBTracing struct {
	logFullSQL bool
	slowQuery  time.Duration
	logger     *zap.Logger
}

// NewDBTracing creates the plugin. Query variables stay out of spans unless
// logFullSQL is set.
func NewDBTracing(logFullSQL bool, slowQuery time.Duration, logger *zap.Logger) *DBTracing {
	if slowQuery <= 0 {
		slowQuery = defaultSlowQuery
	}
	return &DBTracing{logFullSQL: logFullSQL, slowQuery: slowQuery, logger: logger}
}

// Register installs otelgorm and the timing callbacks on db.
func (t *DBTracing) Register(db *gorm.DB) error {
	opts := []otelgorm.Option{otelgorm.WithDBName("postgresql")}
	if !t.logFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	cb := db.Callback()
	err := errors.Join(
		cb.Create().Before("gorm:create").Register("shop:before_create", markQueryStart),
		cb.Query().Before("gorm:query").Register("shop:before_query", markQueryStart),
		cb.Update().Before("gorm:update").Register("shop:before_update", markQueryStart),
		cb.Delete().Before("gorm:delete").Register("shop:before_delete", markQueryStart),
		cb.Row().Before("gorm:row").Register("shop:before_row", markQueryStart),
		cb.Raw().Before("gorm:raw").Register("shop:before_raw", markQueryStart),
		cb.Create().After("gorm:create").Register("shop:after_create", t.annotate),
		cb.Query().After("gorm:query").Register("shop:after_query", t.annotate),
		cb.Update().After("gorm:update").Register("shop:after_update", t.annotate),
		cb.Delete().After("gorm:delete").Register("shop:after_delete", t.annotate),
		cb.Row().After("gorm:row").Register("shop:after_row", t.annotate),
		cb.Raw().After("gorm:raw").Register("shop:after_raw", t.annotate),
	)
	if err != nil {
		return err
	}

	t.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", t.logFullSQL),
		zap.Duration("slow_query_threshold", t.slowQuery),
	)
	return nil
}

func markQueryStart(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

func (t *DBTracing) annotate(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(start); elapsed > t.slowQuery {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
	}
}
