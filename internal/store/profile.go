package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a requested resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateName is returned when a profile name is already taken.
	ErrDuplicateName = errors.New("profile name already exists")
	// ErrInvalidConfig is returned when a profile config is not a JSON object.
	ErrInvalidConfig = errors.New("profile config must be a JSON object")
)

// Profile is a named calibration: a tuning JSON document plus metadata.
type Profile struct {
	ID          string
	Name        string
	Description string
	Config      json.RawMessage
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProfileRepository provides CRUD operations for profiles.
type ProfileRepository struct {
	db *sql.DB
}

// Profiles returns the profile repository for this store.
func (s *Store) Profiles() *ProfileRepository {
	return &ProfileRepository{db: s.db}
}

func checkConfig(p *Profile) error {
	if len(p.Config) == 0 {
		p.Config = json.RawMessage("{}")
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(p.Config, &obj); err != nil || obj == nil {
		return ErrInvalidConfig
	}
	return nil
}

func mapWriteErr(err error) error {
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrDuplicateName
	}
	return err
}

// Create inserts a new profile. An empty ID is filled with a new UUID.
func (r *ProfileRepository) Create(p *Profile) error {
	if err := checkConfig(p); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := r.db.Exec(
		`INSERT INTO profiles (id, name, description, config, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, string(p.Config), p.CreatedAt, p.UpdatedAt,
	)
	return mapWriteErr(err)
}

func scanProfile(row interface{ Scan(...any) error }) (*Profile, error) {
	p := &Profile{}
	var config string
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &config, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Config = json.RawMessage(config)
	return p, nil
}

func (r *ProfileRepository) getOne(where string, arg any) (*Profile, error) {
	p, err := scanProfile(r.db.QueryRow(
		`SELECT id, name, description, config, created_at, updated_at
		 FROM profiles WHERE `+where+` = ?`,
		arg,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// GetByID retrieves a profile by its ID.
func (r *ProfileRepository) GetByID(id string) (*Profile, error) {
	return r.getOne("id", id)
}

// GetByName retrieves a profile by its name.
func (r *ProfileRepository) GetByName(name string) (*Profile, error) {
	return r.getOne("name", name)
}

// List retrieves all profiles, most recently updated first.
func (r *ProfileRepository) List() ([]*Profile, error) {
	rows, err := r.db.Query(
		`SELECT id, name, description, config, created_at, updated_at
		 FROM profiles ORDER BY updated_at DESC, name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return profiles, nil
}

// Update replaces the name, description and config of an existing profile.
func (r *ProfileRepository) Update(p *Profile) error {
	if err := checkConfig(p); err != nil {
		return err
	}
	p.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE profiles SET name = ?, description = ?, config = ?, updated_at = ?
		 WHERE id = ?`,
		p.Name, p.Description, string(p.Config), p.UpdatedAt, p.ID,
	)
	if err != nil {
		return mapWriteErr(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a profile by its ID.
func (r *ProfileRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
