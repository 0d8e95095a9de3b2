package analysis

import "context"

// Store port (durable results table)
type Store interface {
	Append(ctx context.Context, r Record) error
	Path() string
}

// Repository port, secondary copy of every recorded row
type Repository interface {
	Save(ctx context.Context, batchID string, r Record) error
}

// ArtifactStore port (object storage for the table and source images)
type ArtifactStore interface {
	Upload(ctx context.Context, localPath, key string) (string, error)
}

// LogSink receives human-readable progress lines. Fire and forget.
type LogSink interface {
	Log(line string)
}
