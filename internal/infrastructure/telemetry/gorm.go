package telemetry

import (
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

// InstrumentGorm traces every statement on db. Query variables are left out
// of span attributes since token values are credentials.
func InstrumentGorm(db *gorm.DB, dbSystem string) error {
	if err := db.Use(otelgorm.NewPlugin(
		otelgorm.WithDBName(dbSystem),
		otelgorm.WithoutQueryVariables(),
	)); err != nil {
		return err
	}
	return db.Callback().Create().After("gorm:create").Register("shopnotify:rows_affected", rowsAffected)
}

// rowsAffected tags the span of batch inserts with the number of rows written
func rowsAffected(db *gorm.DB) {
	if db.Statement.Context == nil {
		return
	}
	span := trace.SpanFromContext(db.Statement.Context)
	if !span.IsRecording() || db.Statement.RowsAffected < 0 {
		return
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
}
