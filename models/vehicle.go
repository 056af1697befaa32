package models

type Vehicle struct {
	Id           uint   `json:"id" gorm:"primaryKey"`
	CompanyID    string `json:"-" gorm:"index;not null"`
	ClientID     uint   `json:"client_id" gorm:"index;not null"`
	Make         string `json:"make" gorm:"not null"`
	Model        string `json:"model" gorm:"not null"`
	Year         int    `json:"year"`
	Plate        string `json:"plate" gorm:"index"`
	VIN          string `json:"vin"`
	Color        string `json:"color"`
	Mileage      int    `json:"mileage"`
	Notes        string `json:"notes"`
}
