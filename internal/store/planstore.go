package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"github.com/arjun/wayfarer/internal/state"
)

// PlanStore persists finished plans and interruption snapshots in sqlite.
type PlanStore struct {
	DB *sql.DB
}

// PlanRecord is one stored plan with its metadata.
type PlanRecord struct {
	ID          string
	Destination string
	Status      string
	Plan        state.Plan
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PlanFilter narrows ListPlans. Zero values match everything.
type PlanFilter struct {
	Destination string
	Status      string
	Limit       int
}

func NewPlanStore(dbPath string) (*PlanStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// Create tables if not exist
	queries := []string{
		`CREATE TABLE IF NOT EXISTS plans (
			id TEXT PRIMARY KEY,
			destination TEXT,
			status TEXT,
			payload TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			resume_stage TEXT,
			payload TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
	}
	for _, q := range queries {
		if _, err = db.Exec(q); err != nil {
			return nil, err
		}
	}

	return &PlanStore{DB: db}, nil
}

func (s *PlanStore) Close() error {
	return s.DB.Close()
}

// SavePlan stores a plan and returns its opaque identifier.
func (s *PlanStore) SavePlan(destination, status string, plan state.Plan) (string, error) {
	payload, err := json.Marshal(plan)
	if err != nil {
		return "", err
	}
	id := newID()
	query := `INSERT INTO plans (id, destination, status, payload) VALUES (?, ?, ?, ?)`
	if _, err := s.DB.Exec(query, id, destination, status, string(payload)); err != nil {
		return "", err
	}
	return id, nil
}

// GetPlan fetches one stored plan by identifier.
func (s *PlanStore) GetPlan(id string) (PlanRecord, error) {
	query := `SELECT id, destination, status, payload, created_at, updated_at FROM plans WHERE id = ?`
	return s.scanPlan(s.DB.QueryRow(query, id))
}

// UpdatePlan overwrites a stored plan's payload and status.
func (s *PlanStore) UpdatePlan(id, status string, plan state.Plan) error {
	payload, err := json.Marshal(plan)
	if err != nil {
		return err
	}
	query := `UPDATE plans SET status = ?, payload = ?, updated_at = datetime('now') WHERE id = ?`
	res, err := s.DB.Exec(query, status, string(payload), id)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

// DeletePlan removes a stored plan.
func (s *PlanStore) DeletePlan(id string) error {
	res, err := s.DB.Exec(`DELETE FROM plans WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

// ListPlans returns stored plans matching the filter, newest first.
func (s *PlanStore) ListPlans(filter PlanFilter) ([]PlanRecord, error) {
	query := `SELECT id, destination, status, payload, created_at, updated_at FROM plans WHERE 1=1`
	var args []any
	if filter.Destination != "" {
		query += ` AND destination = ?`
		args = append(args, filter.Destination)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []PlanRecord
	for rows.Next() {
		rec, err := s.scanPlan(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// SaveSnapshot persists the state of a suspended run for later resumption.
func (s *PlanStore) SaveSnapshot(st state.PlanningState) (string, error) {
	payload, err := json.Marshal(st)
	if err != nil {
		return "", err
	}
	id := newID()
	query := `INSERT INTO snapshots (id, resume_stage, payload) VALUES (?, ?, ?)`
	if _, err := s.DB.Exec(query, id, string(st.ResumeStage), string(payload)); err != nil {
		return "", err
	}
	return id, nil
}

// GetSnapshot loads a suspended run's state by identifier.
func (s *PlanStore) GetSnapshot(id string) (state.PlanningState, error) {
	var payload string
	err := s.DB.QueryRow(`SELECT payload FROM snapshots WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		return state.PlanningState{}, err
	}
	var st state.PlanningState
	if err := json.Unmarshal([]byte(payload), &st); err != nil {
		return state.PlanningState{}, fmt.Errorf("corrupt snapshot %s: %v", id, err)
	}
	return st, nil
}

// DeleteSnapshot removes a snapshot once its run resumed or was abandoned.
func (s *PlanStore) DeleteSnapshot(id string) error {
	_, err := s.DB.Exec(`DELETE FROM snapshots WHERE id = ?`, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PlanStore) scanPlan(row rowScanner) (PlanRecord, error) {
	var rec PlanRecord
	var payload string
	if err := row.Scan(&rec.ID, &rec.Destination, &rec.Status, &payload, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return PlanRecord{}, err
	}
	if err := json.Unmarshal([]byte(payload), &rec.Plan); err != nil {
		return PlanRecord{}, fmt.Errorf("corrupt plan %s: %v", rec.ID, err)
	}
	return rec, nil
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("plan %s not found", id)
	}
	return nil
}

func newID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
