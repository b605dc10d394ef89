package models

// PointDoc is an integer grid position.
type PointDoc struct {
	X int `json:"x" msgpack:"x"`
	Y int `json:"y" msgpack:"y"`
}

// CommandRequest describes one editing command sent by a host. Which fields
// are read depends on Type; composites carry their children in Commands.
type CommandRequest struct {
	Type     string `json:"type"`
	RegionID string `json:"regionId,omitempty"`
	MapID    string `json:"mapId,omitempty"`
	Name     string `json:"name,omitempty"`

	Size     *SizeDoc   `json:"size,omitempty"`
	Origin   string     `json:"origin,omitempty"`
	Margin   *float64   `json:"margin,omitempty"`
	Axis     string     `json:"axis,omitempty"`
	Numerals string     `json:"numerals,omitempty"`
	Offset   *PointFDoc `json:"offset,omitempty"`
	Value    string     `json:"value,omitempty"`

	Tile     map[string]string `json:"tile,omitempty"`
	Position *PointDoc         `json:"position,omitempty"`
	Layer    string            `json:"layer,omitempty"`
	ZIndex   int               `json:"zIndex,omitempty"`
	Index    int               `json:"index,omitempty"`

	Commands []CommandRequest `json:"commands,omitempty"`
}

// CommandResult reports the outcome of an executed command.
type CommandResult struct {
	Description string        `json:"description"`
	Session     EditorSession `json:"session"`
	RegionID    string        `json:"regionId,omitempty"`
	MapID       string        `json:"mapId,omitempty"`
}
