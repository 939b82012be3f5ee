package models

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"  json:"id"`
	Username     string `gorm:"uniqueIndex;not null"      json:"username"`
	Email        string `gorm:"uniqueIndex;not null"      json:"email"`
	PasswordHash string `gorm:"not null"                  json:"-"`
	Role         string `gorm:"not null;default:user"     json:"role"`
}

type Sweet struct {
	ID       uint    `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name     string  `gorm:"uniqueIndex;not null"      json:"name"`
	Category string  `gorm:"not null"                  json:"category"`
	Price    float64 `gorm:"not null"                  json:"price"`
	Quantity uint    `gorm:"not null;default:0"        json:"quantity"`
}
