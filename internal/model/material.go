package model

import "time"

// Material represents a training file in the materials store.
// It is identified by its name; the remaining fields are informational and
// filled in when the file is opened for download.
type Material struct {
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type"`
	LastModified time.Time `json:"last_modified"`
}
