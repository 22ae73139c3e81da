package models

import "time"

// Campaign statuses.
const (
	CampaignDraft      = "draft"
	CampaignScheduled  = "scheduled"
	CampaignInProgress = "in_progress"
	CampaignPaused     = "paused"
	CampaignStopped    = "stopped"
	CampaignCompleted  = "completed"
)

// Outreach channels.
const (
	ChannelEmail    = "email"
	ChannelWhatsApp = "whatsapp"
)

// Per-campaign recipient statuses.
const (
	RecipientPending = "pending"
	RecipientSent    = "sent"
	RecipientFailed  = "failed"
)

// Campaign is the model for the 'outreach_campaigns' table.
type Campaign struct {
	ID              int64      `json:"id" db:"id"`
	Name            string     `json:"name" db:"name"`
	Slug            string     `json:"slug" db:"slug"`
	Description     *string    `json:"description,omitempty" db:"description"`
	Channels        StringList `json:"channels" db:"channels"`
	StartDate       *time.Time `json:"startDate,omitempty" db:"start_date"`
	EndDate         *time.Time `json:"endDate,omitempty" db:"end_date"`
	Status          string     `json:"status" db:"status"`
	ScheduleOptions JSONMap    `json:"scheduleOptions,omitempty" db:"schedule_options"`
	CreatedBy       *string    `json:"createdBy,omitempty" db:"created_by"`
	CreatedAt       time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time  `json:"updatedAt" db:"updated_at"`

	// Aggregates, filled by list/detail queries.
	TotalRecipients int `json:"totalRecipients" db:"total_recipients"`
	Reached         int `json:"reached" db:"reached"`
	Failed          int `json:"failed" db:"failed"`
}

// CampaignMessage is the model for 'outreach_messages'; one per campaign and channel.
type CampaignMessage struct {
	ID                int64     `json:"id" db:"id"`
	CampaignID        int64     `json:"campaignId" db:"campaign_id"`
	Channel           string    `json:"channel" db:"channel"`
	Subject           *string   `json:"subject,omitempty" db:"subject"`
	Template          string    `json:"template" db:"template"`
	TemplateVariables JSONMap   `json:"templateVariables,omitempty" db:"template_variables"`
	CreatedAt         time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time `json:"updatedAt" db:"updated_at"`
}

// Recipient is the model for the shared 'recipients' table.
type Recipient struct {
	ID         int64     `json:"id" db:"id"`
	Name       *string   `json:"name,omitempty" db:"name"`
	Email      *string   `json:"email,omitempty" db:"email"`
	Phone      *string   `json:"phone,omitempty" db:"phone"`
	Platform   *string   `json:"platform,omitempty" db:"platform"`
	PlatformID *string   `json:"platformId,omitempty" db:"platform_id"`
	Metadata   JSONMap   `json:"metadata,omitempty" db:"metadata"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
}

// CampaignRecipient is a recipient as seen through 'campaign_recipients'.
type CampaignRecipient struct {
	Recipient
	Status  string    `json:"status" db:"status"`
	AddedAt time.Time `json:"addedAt" db:"added_at"`
}

// RecipientStats counts a campaign's recipients by status.
type RecipientStats struct {
	Total   int `json:"total" db:"total"`
	Sent    int `json:"sent" db:"sent"`
	Failed  int `json:"failed" db:"failed"`
	Pending int `json:"pending" db:"pending"`
}

// Attempt is the model for 'outreach_attempts', one row per send.
type Attempt struct {
	ID             int64     `json:"id" db:"id"`
	CampaignID     int64     `json:"campaignId" db:"campaign_id"`
	RecipientID    int64     `json:"recipientId" db:"recipient_id"`
	MessageID      *int64    `json:"messageId,omitempty" db:"message_id"`
	Channel        string    `json:"channel" db:"channel"`
	Status         string    `json:"status" db:"status"`
	ErrorDetails   *string   `json:"errorDetails,omitempty" db:"error_details"`
	MessageContent *string   `json:"messageContent,omitempty" db:"message_content"`
	SentAt         time.Time `json:"sentAt" db:"sent_at"`
}

// Pagination is returned alongside paged lists.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalCount int `json:"totalCount"`
	TotalPages int `json:"totalPages"`
}

// NewPagination computes the page count for total rows.
func NewPagination(page, limit, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{Page: page, Limit: limit, TotalCount: total, TotalPages: pages}
}
