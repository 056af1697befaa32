package models

import "time"

// Employee backs the payroll-lite module: a mechanic or office worker with
// a monthly base salary and ad-hoc salary payments.
type Employee struct {
	Id          uint            `json:"id" gorm:"primaryKey"`
	CompanyID   string          `json:"-" gorm:"index;not null"`
	FirstName   string          `json:"first_name" gorm:"not null"`
	LastName    string          `json:"last_name" gorm:"not null"`
	Role        string          `json:"role"`
	PhoneNumber string          `json:"phone_number"`
	BaseSalary  float64         `json:"base_salary" gorm:"type:numeric(12,2)"`
	HiredAt     *time.Time      `json:"hired_at"`
	Payments    []SalaryPayment `json:"payments,omitempty" gorm:"foreignKey:EmployeeID;constraint:OnDelete:CASCADE"`
	Active      bool            `json:"-" gorm:"default:true"`
}

type SalaryPayment struct {
	Id         uint      `json:"id" gorm:"primaryKey"`
	CompanyID  string    `json:"-" gorm:"index;not null"`
	EmployeeID uint      `json:"employee_id" gorm:"index;not null"`
	Amount     float64   `json:"amount" gorm:"type:numeric(12,2)"`
	Period     string    `json:"period" gorm:"type:VARCHAR(7)"` // "2026-08"
	Note       string    `json:"note"`
	PaidAt     time.Time `json:"paid_at"`
	CreatedAt  time.Time `json:"created_at"`
}
