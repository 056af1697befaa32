package models

type Supplier struct {
	Id          uint   `json:"id" gorm:"primaryKey"`
	CompanyID   string `json:"-" gorm:"index;not null"`
	Name        string `json:"name" gorm:"not null"`
	ContactName string `json:"contact_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Address     string `json:"address"`
	City        string `json:"city"`
	Notes       string `json:"notes"`
}
