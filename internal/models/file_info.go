package models

import "time"

// AtlasFileInfo represents metadata about a stored atlas archive.
type AtlasFileInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	AtlasName string    `json:"atlasName"`
	Codec     string    `json:"codec"`
	Size      int64     `json:"size"`
	SavedAt   time.Time `json:"savedAt"`
}
