package model

// Location is a stock-holding site. Exactly one location is expected to carry
// IsHeadquarters; admins without an assigned location default to it.
type Location struct {
	BaseModel
	LocationName        string `gorm:"type:varchar(255);uniqueIndex;not null" json:"location_name" validate:"required"`
	LocationDescription string `gorm:"type:text" json:"location_description"`
	IsHeadquarters      bool   `gorm:"default:false;index" json:"is_headquarters"`
}
