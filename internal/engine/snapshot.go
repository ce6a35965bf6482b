package engine

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/stemsi/exsim-backend/internal/model"
)

const snapshotSchemaURL = "schema://exam_session_snapshot.json"

//go:embed snapshot_schema.json
var snapshotSchemaJSON []byte

var (
	schemaOnce     sync.Once
	snapshotSchema *jsonschema.Schema
	schemaErr      error
)

func compiledSnapshotSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		var doc any
		if err := json.Unmarshal(snapshotSchemaJSON, &doc); err != nil {
			schemaErr = fmt.Errorf("parse snapshot schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(snapshotSchemaURL, doc); err != nil {
			schemaErr = fmt.Errorf("add resource: %w", err)
			return
		}
		snapshotSchema, schemaErr = c.Compile(snapshotSchemaURL)
	})
	return snapshotSchema, schemaErr
}

// EncodeSnapshot serializes the full session.
func EncodeSnapshot(s *model.ExamSession) ([]byte, error) {
	return json.Marshal(s)
}

// ValidateSnapshot checks raw snapshot bytes against the snapshot schema.
func ValidateSnapshot(data []byte) error {
	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", ErrCorruptSnapshot, err)
	}

	schema, err := compiledSnapshotSchema()
	if err != nil {
		return err
	}

	if err := schema.Validate(parsed); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	return nil
}

// DecodeSnapshot validates and rehydrates a snapshot. Anything that fails
// the schema or breaks a session invariant is reported as ErrCorruptSnapshot.
func DecodeSnapshot(data []byte) (*model.ExamSession, error) {
	if err := ValidateSnapshot(data); err != nil {
		return nil, err
	}

	var s model.ExamSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}

	if err := checkInvariants(&s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}

	if s.Results == nil {
		s.Results = []model.ModuleResult{}
	}
	return &s, nil
}

func checkInvariants(s *model.ExamSession) error {
	if s.CurrentIndex > len(s.Modules) {
		return fmt.Errorf("current_index %d beyond %d modules", s.CurrentIndex, len(s.Modules))
	}
	if len(s.Results) != s.CurrentIndex {
		return fmt.Errorf("%d results for current_index %d", len(s.Results), s.CurrentIndex)
	}

	done := s.CurrentIndex == len(s.Modules)
	switch s.Status {
	case model.SessionStatusActive:
		if done {
			return fmt.Errorf("active session with every module done")
		}
	case model.SessionStatusCompleted:
		if !done {
			return fmt.Errorf("completed session with modules remaining")
		}
		if s.CompletedAt == nil {
			return fmt.Errorf("completed session without completed_at")
		}
	default:
		return fmt.Errorf("unexpected status %q", s.Status)
	}
	return nil
}
