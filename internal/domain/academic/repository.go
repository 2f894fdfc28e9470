package academic

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// RECORDS PROVIDER
// Read-only contract for the academic-records backend.
// Implementations live in infrastructure/external/records.
// ══════════════════════════════════════════════════════════════════════════════

// RecordsProvider fetches student records. Every method is side-effect free.
// Any failure (timeout, non-2xx, undecodable body) is reported as an error
// matching shared.ErrUnavailable; callers treat it as "no data".
type RecordsProvider interface {
	// FetchContext returns the full snapshot for a student.
	FetchContext(ctx context.Context, userID string) (*Snapshot, error)

	// FetchDeadlines returns the student's deadlines and exam slots.
	FetchDeadlines(ctx context.Context, userID string) ([]Deadline, error)

	// FetchUserName returns the student's display name.
	FetchUserName(ctx context.Context, userID string) (string, error)
}
