package models

import "time"

// ContactInquiry is the model for 'contact_inquiries'. Status starts at "new".
type ContactInquiry struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Email       string    `json:"email" db:"email"`
	Phone       *string   `json:"phone,omitempty" db:"phone"`
	Company     *string   `json:"company,omitempty" db:"company"`
	Subject     string    `json:"subject" db:"subject"`
	Message     string    `json:"message" db:"message"`
	InquiryType string    `json:"inquiryType" db:"inquiry_type"`
	Status      string    `json:"status" db:"status"`
	IPAddress   string    `json:"-" db:"ip_address"`
	UserAgent   string    `json:"-" db:"user_agent"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// NewsletterSubscriber is the model for 'newsletter_subscribers'.
type NewsletterSubscriber struct {
	ID        int64     `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Name      *string   `json:"name,omitempty" db:"name"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
