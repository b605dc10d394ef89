package models

import "time"

// EditorSession is the host-facing summary of an editing session.
type EditorSession struct {
	ID            string    `json:"id"`
	AtlasName     string    `json:"atlasName"`
	FileID        string    `json:"fileId,omitempty"`
	Modified      bool      `json:"modified"`
	Modifications int       `json:"modifications"`
	CanUndo       bool      `json:"canUndo"`
	CanRedo       bool      `json:"canRedo"`
	Selection     Selection `json:"selection"`
	CreatedAt     time.Time `json:"createdAt"`
	Current       bool      `json:"current"`
}

// Selection is the ephemeral editor selection. It is never persisted.
type Selection struct {
	RegionID string            `json:"regionId,omitempty"`
	MapID    string            `json:"mapId,omitempty"`
	Tile     map[string]string `json:"tile,omitempty"`
}

// HistoryInfo lists command descriptions, most recent first.
type HistoryInfo struct {
	History []string `json:"history"`
	Undone  []string `json:"undone"`
}

// ChangeEvent is a model notification as delivered to views.
type ChangeEvent struct {
	Kind     string `json:"kind"`
	RegionID string `json:"regionId,omitempty"`
	MapID    string `json:"mapId,omitempty"`
	Name     string `json:"name,omitempty"`
	Detail   string `json:"detail,omitempty"`
}
