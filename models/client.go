package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Client struct {
	Id          string `json:"id" gorm:"primaryKey"`
	CompanyName string `json:"company_name" gorm:"not null;unique"`
	ContactName string `json:"contact_name" gorm:"not null"`
	Email       string `json:"email" gorm:"unique;not null"`
	PhoneNumber string `json:"phone_number"`
	Address     string `json:"address" gorm:"not null"`
	City        string `json:"city" gorm:"not null"`
	State       string `json:"state" gorm:"not null"`
	Zip         string `json:"zip" gorm:"not null"`
	GSTIN       string `json:"gstin"`
	Active      bool   `json:"-"`
}

func (client *Client) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	client.Id = uuid.NewString()
	return
}
