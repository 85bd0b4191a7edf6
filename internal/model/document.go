package model

import "time"

// Document holds the extracted text of one uploaded PDF. Content is set once
// at creation; Summary stays nil until the background summarize job finishes.
type Document struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:256;not null" json:"title"`
	Content   string    `gorm:"type:longtext;not null" json:"content"`
	Summary   *string   `gorm:"type:text" json:"summary"`
	CreatedAt time.Time `json:"created_at"`
}
