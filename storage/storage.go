package storage

import "time"

const (
	KindGeneration = "generation"
	KindVariation  = "variation"
)

// ImageRecord describes one image persisted to disk.
type ImageRecord struct {
	Id        string    `bson:"_id"`
	RunId     string    `bson:"run_id"`
	Kind      string    `bson:"kind"`
	Name      string    `bson:"name"`      // name given by the caller
	FileName  string    `bson:"file_name"` // sanitized base name
	Path      string    `bson:"path"`
	Bytes     int       `bson:"bytes"`
	Sha256    string    `bson:"sha256"`
	Prompt    string    `bson:"prompt,omitempty"`
	Source    string    `bson:"source,omitempty"`
	Size      string    `bson:"size,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

type ImageStorage interface {
	SaveImage(rec *ImageRecord) error
	// GetImage returns nil when no record has the id
	GetImage(id string) (*ImageRecord, error)
	// ListImages returns the most recent records first
	ListImages(limit int) ([]*ImageRecord, error)
	Close() error
}
