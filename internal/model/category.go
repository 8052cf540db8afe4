package model

type Category struct {
	BaseModel
	CategoryName        string `gorm:"type:varchar(255);uniqueIndex;not null" json:"category_name" validate:"required"`
	CategoryDescription string `gorm:"type:text" json:"category_description"`
}
