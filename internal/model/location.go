package model

import "strings"

// Location category IDs as used by the upstream universe data.
const (
	CategoryUnknownID   = 0
	CategoryStationID   = 3
	CategoryStructureID = 65
)

// NPC station IDs live in a fixed range; everything outside it is a
// player-built structure and needs a credentialed lookup.
const (
	StationIDStart = 60000000
	StationIDEnd   = 69999999
)

// Location is a station or structure a courier contract can start or end at.
// Rows are created lazily the first time a contract references the ID and are
// never deleted automatically.
type Location struct {
	ID            int64  `json:"id" gorm:"primaryKey"`
	Name          string `json:"name" gorm:"size:100;not null"`
	SolarSystemID *int64 `json:"solar_system_id"`
	TypeID        *int64 `json:"type_id"`
	CategoryID    int    `json:"category_id" gorm:"not null;default:0"`
}

func (Location) TableName() string { return "locations" }

func IsStationID(id int64) bool {
	return id >= StationIDStart && id <= StationIDEnd
}

// SolarSystemName extracts the system short name from the location name,
// e.g. "Jita IV - Moon 4 - Caldari Navy Assembly Plant" -> "Jita".
func (l Location) SolarSystemName() string {
	return strings.SplitN(l.Name, " ", 2)[0]
}

func (l Location) CategoryName() string {
	switch l.CategoryID {
	case CategoryStationID:
		return "station"
	case CategoryStructureID:
		return "structure"
	default:
		return "(unknown)"
	}
}
