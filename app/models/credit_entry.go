package models

import "time"

const (
	CreditReasonPayment    = "payment"
	CreditReasonRequest    = "request"
	CreditReasonAdjustment = "adjustment"
)

// CreditEntry is one row of the gemas ledger. A user's balance is the sum of
// their amounts; grants are positive and spends negative.
type CreditEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Amount    int       `gorm:"not null" json:"amount"`
	Reason    string    `gorm:"type:varchar(20);not null" json:"reason"`
	RequestID *uint     `gorm:"index" json:"request_id,omitempty"`
	PaymentID *uint     `gorm:"uniqueIndex" json:"payment_id,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// PromptHistory keeps the reply prompts a user typed on the video page.
type PromptHistory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	VideoID   uint      `gorm:"index" json:"video_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
