package models

// Client is a workshop customer who owns one or more vehicles.
type Client struct {
	Id          uint      `json:"id" gorm:"primaryKey"`
	CompanyID   string    `json:"-" gorm:"index;not null"`
	FirstName   string    `json:"first_name" gorm:"not null"`
	LastName    string    `json:"last_name" gorm:"not null"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	Notes       string    `json:"notes"`
	Vehicles    []Vehicle `json:"vehicles,omitempty" gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE"`
	Active      bool      `json:"-" gorm:"default:true"`
}
