package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sleepface.app/engine/internal/model"
)

type analysisStore struct {
	pool *pgxpool.Pool
}

func newAnalysisStore(pool *pgxpool.Pool) AnalysisStore {
	return &analysisStore{pool: pool}
}

const upsertAnalysisSQL = `
INSERT INTO analysis_records (
	id, user_id, date, sleep_score, skin_health_score,
	features, feature_confidence, confidence, low_confidence,
	quality_hints, fun_label, routine, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now(), now())
ON CONFLICT (user_id, date) DO UPDATE SET
	sleep_score = EXCLUDED.sleep_score,
	skin_health_score = EXCLUDED.skin_health_score,
	features = EXCLUDED.features,
	feature_confidence = EXCLUDED.feature_confidence,
	confidence = EXCLUDED.confidence,
	low_confidence = EXCLUDED.low_confidence,
	quality_hints = EXCLUDED.quality_hints,
	fun_label = EXCLUDED.fun_label,
	routine = EXCLUDED.routine,
	updated_at = now()
RETURNING id, created_at, updated_at`

func (s *analysisStore) Upsert(ctx context.Context, record *model.AnalysisRecord) error {
	featuresJSON, err := json.Marshal(record.Features)
	if err != nil {
		return fmt.Errorf("marshaling features: %w", err)
	}
	confidenceJSON, err := json.Marshal(record.FeatureConfidence)
	if err != nil {
		return fmt.Errorf("marshaling feature confidence: %w", err)
	}
	hintsJSON, err := json.Marshal(record.QualityHints)
	if err != nil {
		return fmt.Errorf("marshaling quality hints: %w", err)
	}
	var routineJSON []byte
	if record.Routine != nil {
		routineJSON, err = json.Marshal(record.Routine)
		if err != nil {
			return fmt.Errorf("marshaling routine: %w", err)
		}
	}

	row := s.pool.QueryRow(ctx, upsertAnalysisSQL,
		record.ID,
		record.UserID,
		record.Date,
		record.SleepScore,
		record.SkinHealthScore,
		featuresJSON,
		confidenceJSON,
		record.Confidence,
		record.LowConfidence,
		hintsJSON,
		record.FunLabel,
		routineJSON,
	)
	if err := row.Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt); err != nil {
		return fmt.Errorf("upserting analysis record: %w", err)
	}
	return nil
}

const selectAnalysisColumns = `
	id, user_id, to_char(date, 'YYYY-MM-DD'), sleep_score, skin_health_score,
	features, feature_confidence, confidence, low_confidence,
	quality_hints, fun_label, routine, created_at, updated_at`

func (s *analysisStore) GetByDate(ctx context.Context, userID, date string) (*model.AnalysisRecord, error) {
	sql := `SELECT` + selectAnalysisColumns + `
		FROM analysis_records WHERE user_id = $1 AND date = $2::date`

	record, err := scanAnalysisRecord(s.pool.QueryRow(ctx, sql, userID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return record, nil
}

func (s *analysisStore) ListRecent(ctx context.Context, userID string, days int) ([]model.AnalysisRecord, error) {
	sql := `SELECT` + selectAnalysisColumns + `
		FROM analysis_records
		WHERE user_id = $1 AND date >= current_date - $2::int
		ORDER BY date DESC`

	rows, err := s.pool.Query(ctx, sql, userID, days)
	if err != nil {
		return nil, fmt.Errorf("listing analysis records: %w", err)
	}
	defer rows.Close()

	var records []model.AnalysisRecord
	for rows.Next() {
		record, err := scanAnalysisRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

func (s *analysisStore) DeleteOlderThan(ctx context.Context, userID string, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM analysis_records WHERE user_id = $1 AND date < $2::date`,
		userID, model.DateOf(cutoff))
	if err != nil {
		return 0, fmt.Errorf("deleting old analysis records: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanAnalysisRecord(row pgx.Row) (*model.AnalysisRecord, error) {
	var (
		record         model.AnalysisRecord
		featuresJSON   []byte
		confidenceJSON []byte
		hintsJSON      []byte
		routineJSON    []byte
	)

	err := row.Scan(
		&record.ID,
		&record.UserID,
		&record.Date,
		&record.SleepScore,
		&record.SkinHealthScore,
		&featuresJSON,
		&confidenceJSON,
		&record.Confidence,
		&record.LowConfidence,
		&hintsJSON,
		&record.FunLabel,
		&routineJSON,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(featuresJSON) > 0 {
		if err := json.Unmarshal(featuresJSON, &record.Features); err != nil {
			return nil, fmt.Errorf("unmarshaling features: %w", err)
		}
	}
	if len(confidenceJSON) > 0 {
		if err := json.Unmarshal(confidenceJSON, &record.FeatureConfidence); err != nil {
			return nil, fmt.Errorf("unmarshaling feature confidence: %w", err)
		}
	}
	if len(hintsJSON) > 0 {
		if err := json.Unmarshal(hintsJSON, &record.QualityHints); err != nil {
			return nil, fmt.Errorf("unmarshaling quality hints: %w", err)
		}
	}
	if len(routineJSON) > 0 {
		record.Routine = &model.RoutineInput{}
		if err := json.Unmarshal(routineJSON, record.Routine); err != nil {
			return nil, fmt.Errorf("unmarshaling routine: %w", err)
		}
	}

	return &record, nil
}
