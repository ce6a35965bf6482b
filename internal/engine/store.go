package engine

import (
	"context"

	"github.com/stemsi/exsim-backend/internal/model"
)

// SnapshotStore holds one transient session snapshot per owner.
type SnapshotStore interface {
	// Save overwrites the owner's snapshot.
	Save(ctx context.Context, ownerID string, data []byte) error

	// Load returns the owner's snapshot, or nil if there is none.
	Load(ctx context.Context, ownerID string) ([]byte, error)

	// Delete removes the owner's snapshot. Deleting a missing key is not an error.
	Delete(ctx context.Context, ownerID string) error
}

// ReportStore archives finished session reports.
type ReportStore interface {
	SaveReport(ctx context.Context, report *model.ExamReport) error
}

// Publisher receives session events after each committed transition.
type Publisher interface {
	Publish(ctx context.Context, event model.SessionEvent) error
}
