package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"ReviewPipeline/internal/domain"
	"ReviewPipeline/internal/ports"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS review_runs (
		id            TEXT PRIMARY KEY,
		source_name   TEXT NOT NULL,
		source_url    TEXT NOT NULL,
		status        TEXT NOT NULL,
		review_count  INTEGER NOT NULL,
		skipped       INTEGER NOT NULL,
		mean_rating   DOUBLE PRECISION NOT NULL,
		mean_positive DOUBLE PRECISION NOT NULL,
		mean_neutral  DOUBLE PRECISION NOT NULL,
		mean_negative DOUBLE PRECISION NOT NULL,
		mean_compound DOUBLE PRECISION NOT NULL,
		created_at    TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS enriched_reviews (
		run_id               TEXT NOT NULL REFERENCES review_runs(id),
		position             INTEGER NOT NULL,
		author               TEXT NOT NULL,
		review_url           TEXT NOT NULL,
		description          TEXT NOT NULL,
		rating               DOUBLE PRECISION NOT NULL,
		review_date          TEXT NOT NULL,
		sentiment            TEXT NOT NULL,
		bag_of_words_size    INTEGER NOT NULL,
		named_entities_count INTEGER NOT NULL,
		PRIMARY KEY (run_id, position)
	)`,
}

// SQLRepository persists enriched reviews and their aggregate, one run per report.
type SQLRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
	now     func() time.Time
}

var (
	_ ports.ReportSink       = (*SQLRepository)(nil)
	_ ports.AggregateHistory = (*SQLRepository)(nil)
)

// Open connects using a supported driver name.
func Open(driver, dsn string) (*sql.DB, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// NewSQLRepository wires a sql.DB; the driver picks the placeholder style.
func NewSQLRepository(db *sql.DB, driver string) *SQLRepository {
	format := sq.PlaceholderFormat(sq.Dollar)
	if driver == DriverSQLite {
		format = sq.Question
	}
	return &SQLRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(format),
		now:     time.Now,
	}
}

// Migrate creates the tables if they do not exist.
func (r *SQLRepository) Migrate(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	for _, stmt := range schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Save writes the run row and its reviews in one transaction.
func (r *SQLRepository) Save(ctx context.Context, report domain.Report) error {
	if r.db == nil {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	runID := uuid.NewString()
	if err := r.insertRun(ctx, tx, runID, report); err != nil {
		return rollback(tx, err)
	}
	if err := r.insertReviews(ctx, tx, runID, report.Reviews); err != nil {
		return rollback(tx, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *SQLRepository) insertRun(ctx context.Context, tx *sql.Tx, runID string, report domain.Report) error {
	agg := report.Aggregate
	query, args, err := r.builder.Insert("review_runs").
		Columns("id", "source_name", "source_url", "status", "review_count", "skipped",
			"mean_rating", "mean_positive", "mean_neutral", "mean_negative", "mean_compound", "created_at").
		Values(runID, report.SourceName, report.SourceURL, string(report.Status), agg.ReviewCount, report.Skipped,
			agg.MeanRating, agg.MeanPositive, agg.MeanNeutral, agg.MeanNegative, agg.MeanCompound, r.now().UTC()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build run insert: %w", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (r *SQLRepository) insertReviews(ctx context.Context, tx *sql.Tx, runID string, reviews []domain.EnrichedReview) error {
	if len(reviews) == 0 {
		return nil
	}

	insert := r.builder.Insert("enriched_reviews").
		Columns("run_id", "position", "author", "review_url", "description", "rating",
			"review_date", "sentiment", "bag_of_words_size", "named_entities_count")
	for i, review := range reviews {
		insert = insert.Values(runID, i, review.Author, review.SourceURL, review.BodyText, review.RatingValue,
			review.AbsoluteDate, review.Sentiment.Serialize(), review.BagOfWordsSize, review.NamedEntitiesCount)
	}

	query, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("build review insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert reviews: %w", err)
	}
	return nil
}

// LatestAggregate returns the most recent stored aggregate for a source URL.
func (r *SQLRepository) LatestAggregate(ctx context.Context, sourceURL string) (domain.AggregateRecord, bool, error) {
	if r.db == nil {
		return domain.AggregateRecord{}, false, nil
	}

	query, args, err := r.builder.
		Select("source_name", "source_url", "review_count", "mean_rating",
			"mean_positive", "mean_neutral", "mean_negative", "mean_compound").
		From("review_runs").
		Where(sq.Eq{"source_url": sourceURL}).
		OrderBy("created_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return domain.AggregateRecord{}, false, fmt.Errorf("build aggregate query: %w", err)
	}

	var agg domain.AggregateRecord
	err = r.db.QueryRowContext(ctx, query, args...).Scan(
		&agg.SourceName, &agg.SourceURL, &agg.ReviewCount, &agg.MeanRating,
		&agg.MeanPositive, &agg.MeanNeutral, &agg.MeanNegative, &agg.MeanCompound,
	)
	if err == sql.ErrNoRows {
		return domain.AggregateRecord{}, false, nil
	}
	if err != nil {
		return domain.AggregateRecord{}, false, fmt.Errorf("query aggregate: %w", err)
	}
	return agg, true, nil
}

func rollback(tx *sql.Tx, err error) error {
	if rerr := tx.Rollback(); rerr != nil {
		return fmt.Errorf("%w (rollback: %v)", err, rerr)
	}
	return err
}
