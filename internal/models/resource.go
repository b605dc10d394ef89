package models

import "time"

// ResourceInfo describes a stored resource without its bytes.
type ResourceInfo struct {
	Path      string    `json:"path"`
	MimeType  string    `json:"mimeType"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updatedAt"`
}
