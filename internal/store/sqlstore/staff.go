package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/aliyuchatgptt/falgates/internal/staff"
	"github.com/aliyuchatgptt/falgates/internal/store"
)

// vectorArg converts a feature vector to the driver-native representation:
// a pgvector value on PostgreSQL, a JSON array string on MySQL. Empty
// vectors are stored as NULL.
func (s *Store) vectorArg(vec []float32) (any, error) {
	if len(vec) == 0 {
		return nil, nil
	}
	if s.driver == driverPostgres {
		return pgvector.NewVector(vec), nil
	}
	data, err := json.Marshal(vec)
	if err != nil {
		return nil, fmt.Errorf("encoding feature vector: %w", err)
	}
	return string(data), nil
}

// vectorScan is a sql.Scanner accepting both representations.
type vectorScan struct {
	vec []float32
}

func (v *vectorScan) Scan(src any) error {
	if src == nil {
		v.vec = nil
		return nil
	}
	var raw string
	switch t := src.(type) {
	case string:
		raw = t
	case []byte:
		raw = string(t)
	default:
		return fmt.Errorf("unsupported feature vector type %T", src)
	}
	if raw == "" {
		v.vec = nil
		return nil
	}
	// pgvector's text format and the MySQL JSON encoding are both
	// "[1,2,3]", so a single decode path covers both drivers.
	if err := json.Unmarshal([]byte(raw), &v.vec); err != nil {
		return fmt.Errorf("decoding feature vector: %w", err)
	}
	return nil
}

const staffColumns = "id, full_name, assigned_unit, registered_at, primary_photo, recognition_token, feature_vector"

func scanStaff(row interface{ Scan(...any) error }) (*staff.StaffRecord, error) {
	var rec staff.StaffRecord
	var vec vectorScan
	err := row.Scan(
		&rec.ID,
		&rec.FullName,
		&rec.AssignedUnit,
		&rec.RegisteredAt,
		&rec.PrimaryPhoto,
		&rec.RecognitionToken,
		&vec,
	)
	if err != nil {
		return nil, err
	}
	rec.FeatureVector = vec.vec
	return &rec, nil
}

// CreateStaff inserts the record and its image set in one transaction.
func (s *Store) CreateStaff(ctx context.Context, rec *staff.StaffRecord, images []staff.StaffImage) error {
	vec, err := s.vectorArg(rec.FeatureVector)
	if err != nil {
		return err
	}

	tx, err := s.beginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.q(`
		INSERT INTO staff (id, full_name, assigned_unit, registered_at, primary_photo, recognition_token, feature_vector)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`), rec.ID, rec.FullName, rec.AssignedUnit, rec.RegisteredAt, rec.PrimaryPhoto, rec.RecognitionToken, vec)
	if err != nil {
		return fmt.Errorf("insert staff %s: %w", rec.ID, err)
	}

	for _, img := range images {
		_, err = tx.ExecContext(ctx, s.q(`
			INSERT INTO staff_images (staff_id, angle, photo, created_at)
			VALUES ($1, $2, $3, $4)
		`), img.StaffID, string(img.Angle), img.Photo, img.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert staff image %s/%s: %w", img.StaffID, img.Angle, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit staff %s: %w", rec.ID, err)
	}
	return nil
}

// GetStaff retrieves one staff record by id.
func (s *Store) GetStaff(ctx context.Context, id string) (*staff.StaffRecord, error) {
	row := s.queryRow(ctx, "SELECT "+staffColumns+" FROM staff WHERE id = $1", id)
	rec, err := scanStaff(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get staff %s: %w", id, err)
	}
	return rec, nil
}

// GetStaffByToken retrieves one staff record by its recognition token.
func (s *Store) GetStaffByToken(ctx context.Context, token string) (*staff.StaffRecord, error) {
	if token == "" {
		return nil, store.ErrNotFound
	}
	row := s.queryRow(ctx, "SELECT "+staffColumns+" FROM staff WHERE recognition_token = $1", token)
	rec, err := scanStaff(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get staff by token: %w", err)
	}
	return rec, nil
}

// ListStaff returns all records, newest registration first.
func (s *Store) ListStaff(ctx context.Context) ([]staff.StaffRecord, error) {
	rows, err := s.query(ctx, "SELECT "+staffColumns+" FROM staff ORDER BY registered_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	defer rows.Close()

	var records []staff.StaffRecord
	for rows.Next() {
		rec, err := scanStaff(rows)
		if err != nil {
			return nil, fmt.Errorf("scan staff: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate staff: %w", err)
	}
	return records, nil
}

// ListStaffIDs returns every staff id.
func (s *Store) ListStaffIDs(ctx context.Context) ([]string, error) {
	rows, err := s.query(ctx, "SELECT id FROM staff ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list staff ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan staff id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate staff ids: %w", err)
	}
	return ids, nil
}

// GetStaffImages returns the angle-tagged reference photos for a record.
func (s *Store) GetStaffImages(ctx context.Context, id string) ([]staff.StaffImage, error) {
	rows, err := s.query(ctx, `
		SELECT staff_id, angle, photo, created_at
		FROM staff_images
		WHERE staff_id = $1
		ORDER BY angle
	`, id)
	if err != nil {
		return nil, fmt.Errorf("get staff images %s: %w", id, err)
	}
	defer rows.Close()

	var images []staff.StaffImage
	for rows.Next() {
		var img staff.StaffImage
		var angle string
		if err := rows.Scan(&img.StaffID, &angle, &img.Photo, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan staff image: %w", err)
		}
		img.Angle = staff.Angle(angle)
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate staff images: %w", err)
	}
	return images, nil
}

// UpdateRecognitionToken sets the oracle-issued token on an existing record.
func (s *Store) UpdateRecognitionToken(ctx context.Context, id, token string) error {
	result, err := s.exec(ctx, "UPDATE staff SET recognition_token = $1 WHERE id = $2", token, id)
	if err != nil {
		return fmt.Errorf("update recognition token %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteStaff removes a record and its image set in one transaction.
func (s *Store) DeleteStaff(ctx context.Context, id string) error {
	tx, err := s.beginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.q("DELETE FROM staff_images WHERE staff_id = $1"), id); err != nil {
		return fmt.Errorf("delete staff images %s: %w", id, err)
	}

	result, err := tx.ExecContext(ctx, s.q("DELETE FROM staff WHERE id = $1"), id)
	if err != nil {
		return fmt.Errorf("delete staff %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete staff %s: %w", id, err)
	}
	return nil
}

var _ store.StaffStore = (*Store)(nil)
