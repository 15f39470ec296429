package state

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/fieldline/fieldline/pkg/models"
)

// ErrNotFound is returned when no record matches the query.
var ErrNotFound = errors.New("record not found")

// SaveRecord persists a consolidated record and the provenance of the agents
// that produced it. The record is assigned the next version number for its
// document; existing versions are never modified.
func (db *DB) SaveRecord(record *models.ConsolidatedRecord) error {
	fieldsJSON, err := json.Marshal(record.Fields)
	if err != nil {
		return fmt.Errorf("encode record fields: %w", err)
	}
	flags := encodeFlags(record.Flags)

	err = db.Transaction(func(tx *sql.Tx) error {
		var version int
		row := tx.QueryRow(
			"SELECT COALESCE(MAX(version), 0) FROM records WHERE document_id = ?",
			record.DocumentID,
		)
		if err := row.Scan(&version); err != nil {
			return fmt.Errorf("get latest version: %w", err)
		}
		record.Version = version + 1

		_, err := tx.Exec(`
			INSERT INTO records (document_id, version, run_id, fields, flags, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, record.DocumentID, record.Version, record.RunID, string(fieldsJSON), flags, formatTime(record.CreatedAt))
		if err != nil {
			return fmt.Errorf("insert record: %w", err)
		}

		for _, o := range record.Outcomes {
			var errText sql.NullString
			if o.Error != "" {
				errText = sql.NullString{String: o.Error, Valid: true}
			}
			_, err := tx.Exec(`
				INSERT INTO agent_runs (run_id, agent_id, start_page, end_page, status, error)
				VALUES (?, ?, ?, ?, ?, ?)
			`, record.RunID, o.AgentID, o.Range.StartPage, o.Range.EndPage, string(o.Status), errText)
			if err != nil {
				return fmt.Errorf("insert agent run %s: %w", o.AgentID, err)
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("save record for %s: %w", record.DocumentID, err)
	}
	return nil
}

// GetRecord loads one version of a document's record. Version 0 means the
// latest version.
func (db *DB) GetRecord(documentID string, version int) (*models.ConsolidatedRecord, error) {
	query := `
		SELECT document_id, version, run_id, fields, flags, created_at
		FROM records WHERE document_id = ?`
	args := []any{documentID}
	if version > 0 {
		query += " AND version = ?"
		args = append(args, version)
	} else {
		query += " ORDER BY version DESC LIMIT 1"
	}

	row := db.QueryRow(query, args...)
	record, err := scanRecord(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get record %s: %w", documentID, err)
	}

	outcomes, err := db.agentRuns(record.RunID)
	if err != nil {
		return nil, err
	}
	record.Outcomes = outcomes
	return record, nil
}

// RecordSummary is one row of a record listing.
type RecordSummary struct {
	DocumentID string
	Version    int
	RunID      string
	Flags      []string
	FieldCount int
	CreatedAt  string
}

// ListRecords returns summaries of all stored records, newest first.
// If documentID is non-empty, only that document's versions are listed.
func (db *DB) ListRecords(documentID string) ([]RecordSummary, error) {
	query := `
		SELECT document_id, version, run_id, fields, flags, created_at
		FROM records`
	var args []any
	if documentID != "" {
		query += " WHERE document_id = ?"
		args = append(args, documentID)
	}
	query += " ORDER BY created_at DESC, version DESC"

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var summaries []RecordSummary
	for rows.Next() {
		record, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		summaries = append(summaries, RecordSummary{
			DocumentID: record.DocumentID,
			Version:    record.Version,
			RunID:      record.RunID,
			Flags:      record.Flags,
			FieldCount: len(record.Fields),
			CreatedAt:  record.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return summaries, rows.Err()
}

// agentRuns loads the per-agent provenance rows for a run.
func (db *DB) agentRuns(runID string) ([]models.AgentOutcome, error) {
	rows, err := db.Query(`
		SELECT agent_id, start_page, end_page, status, error
		FROM agent_runs WHERE run_id = ? ORDER BY agent_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list agent runs: %w", err)
	}
	defer rows.Close()

	var outcomes []models.AgentOutcome
	for rows.Next() {
		var o models.AgentOutcome
		var status string
		var errText sql.NullString
		if err := rows.Scan(&o.AgentID, &o.Range.StartPage, &o.Range.EndPage, &status, &errText); err != nil {
			return nil, fmt.Errorf("scan agent run: %w", err)
		}
		o.Status = models.AgentStatus(status)
		o.Error = errText.String
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

func scanRecord(scan func(...any) error) (*models.ConsolidatedRecord, error) {
	var record models.ConsolidatedRecord
	var fieldsJSON, flags, createdAt string
	if err := scan(&record.DocumentID, &record.Version, &record.RunID, &fieldsJSON, &flags, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(fieldsJSON), &record.Fields); err != nil {
		return nil, fmt.Errorf("decode record fields: %w", err)
	}
	record.Flags = decodeFlags(flags)
	if t, err := parseTime(createdAt); err == nil {
		record.CreatedAt = t
	}
	return &record, nil
}

func encodeFlags(flags []string) string {
	return strings.Join(flags, ",")
}

func decodeFlags(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
