package supabase

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"poster-gen-backend/internal/errs"
	"poster-gen-backend/internal/generation"
	"poster-gen-backend/internal/models"
	"poster-gen-backend/internal/quota"
)

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(connectionString string) (*DatabaseClient, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (d *DatabaseClient) Close() error {
	return d.db.Close()
}

// DosageStore is the Postgres quota.Store. The stale-day reset and the
// decrement are each a single conditional UPDATE, so concurrent consumes for
// one uid cannot both pass a dosage of 1.
type DosageStore struct {
	db        *sql.DB
	allowance int
}

func NewDosageStore(client *DatabaseClient, allowance int) *DosageStore {
	if allowance <= 0 {
		allowance = quota.DefaultDailyDosage
	}
	return &DosageStore{db: client.db, allowance: allowance}
}

func (s *DosageStore) resetIfStale(uid, today string) error {
	_, err := s.db.Exec(`
		UPDATE dosage
		SET dosage = $2, resettime = $3, updated_at = NOW()
		WHERE uid = $1 AND resettime <> $3
	`, uid, s.allowance, today)
	if err != nil {
		return fmt.Errorf("failed to reset stale dosage: %w", err)
	}
	return nil
}

func (s *DosageStore) Check(uid string) (quota.Status, error) {
	if err := s.resetIfStale(uid, quota.Today()); err != nil {
		return quota.Status{}, err
	}

	var dosage int
	err := s.db.QueryRow(`SELECT dosage FROM dosage WHERE uid = $1`, uid).Scan(&dosage)
	if errors.Is(err, sql.ErrNoRows) {
		return quota.Status{}, errs.ErrNotFound
	}
	if err != nil {
		return quota.Status{}, fmt.Errorf("failed to get dosage: %w", err)
	}

	return quota.Status{Dosage: dosage, CanGenerate: dosage > 0}, nil
}

func (s *DosageStore) Consume(uid string) (quota.Status, error) {
	if err := s.resetIfStale(uid, quota.Today()); err != nil {
		return quota.Status{}, err
	}

	var dosage int
	err := s.db.QueryRow(`
		UPDATE dosage
		SET dosage = dosage - 1, updated_at = NOW()
		WHERE uid = $1 AND dosage > 0
		RETURNING dosage
	`, uid).Scan(&dosage)
	if err == nil {
		return quota.Status{Dosage: dosage, CanGenerate: dosage > 0}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return quota.Status{}, fmt.Errorf("failed to consume dosage: %w", err)
	}

	// No row was decremented: either the uid is unknown or the dosage is 0.
	err = s.db.QueryRow(`SELECT dosage FROM dosage WHERE uid = $1`, uid).Scan(&dosage)
	if errors.Is(err, sql.ErrNoRows) {
		return quota.Status{}, errs.ErrNotFound
	}
	if err != nil {
		return quota.Status{}, fmt.Errorf("failed to get dosage: %w", err)
	}

	return quota.Status{Dosage: dosage, CanGenerate: false}, errs.ErrQuotaExhausted
}

func (s *DosageStore) Reset(uid string) (quota.Status, string, error) {
	today := quota.Today()

	var dosage int
	err := s.db.QueryRow(`
		INSERT INTO dosage (uid, dosage, resettime)
		VALUES ($1, $2, $3)
		ON CONFLICT (uid)
		DO UPDATE SET dosage = $2, resettime = $3, updated_at = NOW()
		RETURNING dosage
	`, uid, s.allowance, today).Scan(&dosage)
	if err != nil {
		return quota.Status{}, "", fmt.Errorf("failed to reset dosage: %w", err)
	}

	return quota.Status{Dosage: dosage, CanGenerate: true}, today, nil
}

func (s *DosageStore) Ensure(uid string) error {
	_, err := s.db.Exec(`
		INSERT INTO dosage (uid, dosage, resettime)
		VALUES ($1, $2, $3)
		ON CONFLICT (uid) DO NOTHING
	`, uid, s.allowance, quota.Today())
	if err != nil {
		return fmt.Errorf("failed to ensure dosage record: %w", err)
	}
	return nil
}

// StateStore is the Postgres generation.StateStore, one row per uid.
type StateStore struct {
	db *sql.DB
}

func NewStateStore(client *DatabaseClient) *StateStore {
	return &StateStore{db: client.db}
}

func (s *StateStore) Start(params generation.Params) error {
	// The WHERE on the upsert makes the active-state guard atomic: a row
	// mid-generation is left untouched and the statement affects zero rows.
	res, err := s.db.Exec(`
		INSERT INTO generation_states
			(uid, is_generating, is_completed, start_time, prompt, reference_images,
			 aspect_ratio, image_count, stream_enabled, response_format, updated_at)
		VALUES ($1, TRUE, FALSE, NOW(), $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (uid)
		DO UPDATE SET
			is_generating = TRUE, is_completed = FALSE, start_time = NOW(),
			prompt = $2, reference_images = $3, aspect_ratio = $4,
			image_count = $5, stream_enabled = $6, response_format = $7,
			updated_at = NOW()
		WHERE generation_states.is_generating = FALSE
	`, params.UID, params.Prompt, pq.Array(params.ReferenceImages),
		params.AspectRatio, params.ImageCount, params.StreamEnabled, params.ResponseFormat)
	if err != nil {
		return fmt.Errorf("failed to start generation state: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.ErrGenerationInProgress
	}
	return nil
}

func (s *StateStore) Complete(uid string) error {
	// The is_completed guard makes repeated completes no-ops.
	_, err := s.db.Exec(`
		UPDATE generation_states
		SET is_generating = FALSE, is_completed = TRUE, updated_at = NOW()
		WHERE uid = $1 AND is_completed = FALSE
	`, uid)
	if err != nil {
		return fmt.Errorf("failed to complete generation state: %w", err)
	}
	return nil
}

func (s *StateStore) Get(uid string) (*generation.State, error) {
	var state generation.State
	var refs pq.StringArray
	var startTime time.Time
	err := s.db.QueryRow(`
		SELECT uid, is_generating, is_completed, start_time, prompt,
		       reference_images, aspect_ratio, image_count, stream_enabled, response_format
		FROM generation_states
		WHERE uid = $1
	`, uid).Scan(
		&state.UID, &state.IsGenerating, &state.IsCompleted, &startTime, &state.Prompt,
		&refs, &state.AspectRatio, &state.ImageCount, &state.StreamEnabled, &state.ResponseFormat,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get generation state: %w", err)
	}

	state.StartTime = startTime
	state.ReferenceImages = []string(refs)
	return &state, nil
}

func (s *StateStore) HasActive(uid string) (bool, error) {
	var active bool
	err := s.db.QueryRow(`SELECT is_generating FROM generation_states WHERE uid = $1`, uid).Scan(&active)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query generation state: %w", err)
	}
	return active, nil
}

func (s *StateStore) HasCompleted(uid string) (bool, error) {
	var completed bool
	err := s.db.QueryRow(`SELECT is_completed FROM generation_states WHERE uid = $1`, uid).Scan(&completed)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query generation state: %w", err)
	}
	return completed, nil
}

func (s *StateStore) Clear(uid string) error {
	_, err := s.db.Exec(`DELETE FROM generation_states WHERE uid = $1`, uid)
	if err != nil {
		return fmt.Errorf("failed to clear generation state: %w", err)
	}
	return nil
}

const userGenerationColumns = `id, uid, prompt, ref_img, g_imgurl1, g_imgurl2, g_imgurl3, g_imgurl4, download_img, created_at, updated_at`

func scanUserGeneration(row interface{ Scan(...any) error }) (*models.UserGeneration, error) {
	var g models.UserGeneration
	err := row.Scan(
		&g.ID, &g.UID, &g.Prompt, &g.RefImg,
		&g.GImgURL1, &g.GImgURL2, &g.GImgURL3, &g.GImgURL4,
		&g.DownloadImg, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// CreateGenerationWithResult appends one record for a completed generation.
// urls fills g_imgurl1..4 in order; missing slots stay NULL.
func (d *DatabaseClient) CreateGenerationWithResult(uid, prompt, refImg string, urls []string) (*models.UserGeneration, error) {
	slots := make([]sql.NullString, 4)
	for i := 0; i < len(urls) && i < 4; i++ {
		slots[i] = sql.NullString{String: urls[i], Valid: urls[i] != ""}
	}

	refImgCol := sql.NullString{String: refImg, Valid: refImg != ""}

	record, err := scanUserGeneration(d.db.QueryRow(`
		INSERT INTO user_generations (uid, prompt, ref_img, g_imgurl1, g_imgurl2, g_imgurl3, g_imgurl4)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+userGenerationColumns+`
	`, uid, prompt, refImgCol, slots[0], slots[1], slots[2], slots[3]))
	if err != nil {
		return nil, fmt.Errorf("failed to create generation record: %w", err)
	}

	return record, nil
}

// GetLatestGenerations returns records for a uid, newest first.
func (d *DatabaseClient) GetLatestGenerations(uid string, limit int) ([]models.UserGeneration, error) {
	if limit <= 0 {
		limit = 1
	}

	rows, err := d.db.Query(`
		SELECT `+userGenerationColumns+`
		FROM user_generations
		WHERE uid = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, uid, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list generation records: %w", err)
	}
	defer rows.Close()

	var records []models.UserGeneration
	for rows.Next() {
		record, err := scanUserGeneration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan generation record: %w", err)
		}
		records = append(records, *record)
	}

	return records, rows.Err()
}

// UpdateDownloadImage patches download_img onto the newest record for a uid.
func (d *DatabaseClient) UpdateDownloadImage(uid, downloadImg string) (*models.UserGeneration, error) {
	record, err := scanUserGeneration(d.db.QueryRow(`
		UPDATE user_generations
		SET download_img = $2, updated_at = NOW()
		WHERE id = (
			SELECT id FROM user_generations
			WHERE uid = $1
			ORDER BY created_at DESC
			LIMIT 1
		)
		RETURNING `+userGenerationColumns+`
	`, uid, downloadImg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update download image: %w", err)
	}

	return record, nil
}

func (d *DatabaseClient) DeleteGenerationsByUID(uid string) (int64, error) {
	res, err := d.db.Exec(`DELETE FROM user_generations WHERE uid = $1`, uid)
	if err != nil {
		return 0, fmt.Errorf("failed to delete generation records: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (d *DatabaseClient) ClearAllGenerations() error {
	_, err := d.db.Exec(`DELETE FROM user_generations`)
	if err != nil {
		return fmt.Errorf("failed to clear generation records: %w", err)
	}
	return nil
}
