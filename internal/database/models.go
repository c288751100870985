package database

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Resume struct {
	ID               uuid.UUID
	OriginalFilename string
	Mime             string
	SizeBytes        int64
	StorageProvider  string
	ObjectKey        string
	StorageUrl       string
	UploadStatus     string
	CreatedAt        time.Time
	SessionID        uuid.UUID
}

type PipelineRecord struct {
	ID        uuid.UUID
	Kind      string
	RecordKey string
	RequestID string
	Payload   json.RawMessage
	CreatedAt time.Time
}

type KindSummary struct {
	Kind  string
	Total int64
}
