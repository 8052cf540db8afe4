package model

// Company is a supplier (purchases) or a customer (sales).
type Company struct {
	BaseModel
	CompanyName          string `gorm:"type:varchar(255);not null" json:"company_name" validate:"required"`
	CompanyAddress       string `gorm:"type:text" json:"company_address"`
	CompanyEmail         string `gorm:"type:varchar(255);not null" json:"company_email" validate:"required,email"`
	CompanyContactName   string `gorm:"type:varchar(255)" json:"company_contact_name"`
	CompanyContactNumber string `gorm:"type:varchar(30)" json:"company_contact_number"`
	CompanyOfficeNumber  string `gorm:"type:varchar(30)" json:"company_office_number"`
	Terms                string `gorm:"type:text" json:"terms"`
}
