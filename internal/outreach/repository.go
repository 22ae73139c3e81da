package outreach

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nexustechhub/nexus-api/internal/database"
	"github.com/nexustechhub/nexus-api/internal/models"
)

const campaignColumns = `
	c.id, c.name, c.slug, c.description, c.channels, c.start_date, c.end_date, c.status,
	c.schedule_options, c.created_by, c.created_at, c.updated_at,
	(SELECT COUNT(*) FROM campaign_recipients cr WHERE cr.campaign_id = c.id) AS total_recipients,
	(SELECT COUNT(*) FROM campaign_recipients cr WHERE cr.campaign_id = c.id AND cr.status = 'sent') AS reached,
	(SELECT COUNT(*) FROM campaign_recipients cr WHERE cr.campaign_id = c.id AND cr.status = 'failed') AS failed`

const messageColumns = `id, campaign_id, channel, subject, template, template_variables, created_at, updated_at`

const recipientColumns = `r.id, r.name, r.email, r.phone, r.platform, r.platform_id, r.metadata, r.created_at, r.updated_at`

// Repository is the SQL layer of the outreach tables. A Repository bound to
// a transaction (see InTx) routes every query through that transaction.
type Repository struct {
	pool *sqlx.DB
	db   sqlx.ExtContext
}

// NewRepository returns a Repository over the primary pool.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{pool: db, db: db}
}

// InTx runs fn with a transaction-bound Repository. Nested calls reuse the
// outer transaction.
func (r *Repository) InTx(ctx context.Context, fn func(tx *Repository) error) error {
	if r.pool == nil {
		return fn(r)
	}
	tx, err := r.pool.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() // Safety net

	if err := fn(&Repository{db: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *Repository) rebind(q string) string {
	return r.db.Rebind(q)
}

// --- Campaigns ---

// CreateCampaign inserts c and sets its ID.
func (r *Repository) CreateCampaign(ctx context.Context, c *models.Campaign) error {
	id, err := database.InsertID(ctx, r.db, `
		INSERT INTO outreach_campaigns
			(name, slug, description, channels, start_date, end_date, status, schedule_options, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.Slug, c.Description, c.Channels, c.StartDate, c.EndDate, c.Status,
		c.ScheduleOptions, c.CreatedBy, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert campaign: %w", err)
	}
	c.ID = id
	return nil
}

// GetCampaign returns a campaign with its recipient counters.
func (r *Repository) GetCampaign(ctx context.Context, id int64) (*models.Campaign, error) {
	var c models.Campaign
	q := r.rebind("SELECT" + campaignColumns + " FROM outreach_campaigns c WHERE c.id = ?")
	if err := sqlx.GetContext(ctx, r.db, &c, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("get campaign %d: %w", id, err)
	}
	return &c, nil
}

// LockCampaignStatus reads a campaign's status and, on a transaction-bound
// Repository, holds a row lock on it until commit.
func (r *Repository) LockCampaignStatus(ctx context.Context, id int64) (string, error) {
	var status string
	q := r.rebind("SELECT status FROM outreach_campaigns WHERE id = ?" + database.ForUpdate(r.db.DriverName()))
	if err := sqlx.GetContext(ctx, r.db, &status, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrCampaignNotFound
		}
		return "", fmt.Errorf("lock campaign %d: %w", id, err)
	}
	return status, nil
}

// ListCampaigns returns one page of campaigns (newest first) and the total.
func (r *Repository) ListCampaigns(ctx context.Context, status string, limit, offset int) ([]models.Campaign, int, error) {
	where, args := "", []any{}
	if status != "" {
		where = " WHERE c.status = ?"
		args = append(args, status)
	}

	var total int
	if err := sqlx.GetContext(ctx, r.db, &total, r.rebind("SELECT COUNT(*) FROM outreach_campaigns c"+where), args...); err != nil {
		return nil, 0, fmt.Errorf("count campaigns: %w", err)
	}

	campaigns := []models.Campaign{}
	q := r.rebind("SELECT" + campaignColumns + " FROM outreach_campaigns c" + where + " ORDER BY c.created_at DESC, c.id DESC LIMIT ? OFFSET ?")
	if err := sqlx.SelectContext(ctx, r.db, &campaigns, q, append(args, limit, offset)...); err != nil {
		return nil, 0, fmt.Errorf("list campaigns: %w", err)
	}
	return campaigns, total, nil
}

// CampaignPatch carries the fields of a partial update; nil means unchanged.
type CampaignPatch struct {
	Name            *string
	Slug            *string
	Description     *string
	Channels        *models.StringList
	StartDate       *time.Time
	EndDate         *time.Time
	Status          *string
	ScheduleOptions *models.JSONMap
}

// UpdateCampaign writes the non-nil fields of p. Callers check that the
// campaign exists; an update that changes nothing is not an error.
func (r *Repository) UpdateCampaign(ctx context.Context, id int64, p CampaignPatch, now time.Time) error {
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if p.Name != nil {
		add("name", *p.Name)
	}
	if p.Slug != nil {
		add("slug", *p.Slug)
	}
	if p.Description != nil {
		add("description", *p.Description)
	}
	if p.Channels != nil {
		add("channels", *p.Channels)
	}
	if p.StartDate != nil {
		add("start_date", *p.StartDate)
	}
	if p.EndDate != nil {
		add("end_date", *p.EndDate)
	}
	if p.Status != nil {
		add("status", *p.Status)
	}
	if p.ScheduleOptions != nil {
		add("schedule_options", *p.ScheduleOptions)
	}
	add("updated_at", now)

	q := r.rebind("UPDATE outreach_campaigns SET " + strings.Join(sets, ", ") + " WHERE id = ?")
	if _, err := r.db.ExecContext(ctx, q, append(args, id)...); err != nil {
		return fmt.Errorf("update campaign %d: %w", id, err)
	}
	return nil
}

// TransitionStatus moves a campaign to status only if it is currently in one
// of from. It reports whether a row changed. scheduleOptions is written too
// when non-nil.
func (r *Repository) TransitionStatus(ctx context.Context, id int64, from []string, status string, scheduleOptions models.JSONMap, now time.Time) (bool, error) {
	query := "UPDATE outreach_campaigns SET status = ?, updated_at = ?"
	args := []any{status, now}
	if scheduleOptions != nil {
		query += ", schedule_options = ?"
		args = append(args, scheduleOptions)
	}
	query += " WHERE id = ? AND status IN (?)"
	args = append(args, id, from)

	q, inArgs, err := sqlx.In(query, args...)
	if err != nil {
		return false, err
	}
	res, err := r.db.ExecContext(ctx, r.rebind(q), inArgs...)
	if err != nil {
		return false, fmt.Errorf("transition campaign %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteCampaign removes a campaign with its attempts, recipient links and
// messages. Call it inside InTx.
func (r *Repository) DeleteCampaign(ctx context.Context, id int64) error {
	for _, q := range []string{
		"DELETE FROM outreach_attempts WHERE campaign_id = ?",
		"DELETE FROM campaign_recipients WHERE campaign_id = ?",
		"DELETE FROM outreach_messages WHERE campaign_id = ?",
		"DELETE FROM outreach_campaigns WHERE id = ?",
	} {
		if _, err := r.db.ExecContext(ctx, r.rebind(q), id); err != nil {
			return fmt.Errorf("delete campaign %d: %w", id, err)
		}
	}
	return nil
}

// DueCampaigns returns scheduled campaigns whose start date has passed and
// whose end date (if any) has not.
func (r *Repository) DueCampaigns(ctx context.Context, now time.Time) ([]models.Campaign, error) {
	campaigns := []models.Campaign{}
	q := r.rebind("SELECT" + campaignColumns + ` FROM outreach_campaigns c
		WHERE c.status = ? AND c.start_date IS NOT NULL AND c.start_date <= ?
		  AND (c.end_date IS NULL OR c.end_date >= ?)
		ORDER BY c.start_date ASC`)
	if err := sqlx.SelectContext(ctx, r.db, &campaigns, q, models.CampaignScheduled, now, now); err != nil {
		return nil, fmt.Errorf("due campaigns: %w", err)
	}
	return campaigns, nil
}

// CompleteExpired marks scheduled or paused campaigns past their end date
// as completed.
func (r *Repository) CompleteExpired(ctx context.Context, now time.Time) (int64, error) {
	q := r.rebind(`UPDATE outreach_campaigns SET status = ?, updated_at = ?
		WHERE status IN (?, ?) AND end_date IS NOT NULL AND end_date < ?`)
	res, err := r.db.ExecContext(ctx, q, models.CampaignCompleted, now, models.CampaignScheduled, models.CampaignPaused, now)
	if err != nil {
		return 0, fmt.Errorf("complete expired campaigns: %w", err)
	}
	return res.RowsAffected()
}

// --- Messages ---

// ListMessages returns a campaign's messages ordered by channel.
func (r *Repository) ListMessages(ctx context.Context, campaignID int64) ([]models.CampaignMessage, error) {
	msgs := []models.CampaignMessage{}
	q := r.rebind("SELECT " + messageColumns + " FROM outreach_messages WHERE campaign_id = ? ORDER BY channel ASC")
	if err := sqlx.SelectContext(ctx, r.db, &msgs, q, campaignID); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

// GetMessage returns one message of a campaign.
func (r *Repository) GetMessage(ctx context.Context, campaignID, messageID int64) (*models.CampaignMessage, error) {
	var m models.CampaignMessage
	q := r.rebind("SELECT " + messageColumns + " FROM outreach_messages WHERE id = ? AND campaign_id = ?")
	if err := sqlx.GetContext(ctx, r.db, &m, q, messageID, campaignID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("get message %d: %w", messageID, err)
	}
	return &m, nil
}

// ChannelTaken reports whether another message of the campaign uses channel.
func (r *Repository) ChannelTaken(ctx context.Context, campaignID int64, channel string, exceptID int64) (bool, error) {
	var n int
	q := r.rebind("SELECT COUNT(*) FROM outreach_messages WHERE campaign_id = ? AND channel = ? AND id <> ?")
	if err := sqlx.GetContext(ctx, r.db, &n, q, campaignID, channel, exceptID); err != nil {
		return false, fmt.Errorf("check channel: %w", err)
	}
	return n > 0, nil
}

// CreateMessage inserts m and sets its ID. A unique violation on
// (campaign_id, channel) is reported as ErrDuplicateMessage.
func (r *Repository) CreateMessage(ctx context.Context, m *models.CampaignMessage) error {
	id, err := database.InsertID(ctx, r.db, `
		INSERT INTO outreach_messages (campaign_id, channel, subject, template, template_variables, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.CampaignID, m.Channel, m.Subject, m.Template, m.TemplateVariables, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicateMessage
		}
		return fmt.Errorf("insert message: %w", err)
	}
	m.ID = id
	return nil
}

// MessagePatch carries the fields of a partial message update.
type MessagePatch struct {
	Channel           *string
	Subject           *string
	Template          *string
	TemplateVariables *models.JSONMap
}

// UpdateMessage writes the non-nil fields of p. Like UpdateCampaign it
// leaves the existence check to the caller.
func (r *Repository) UpdateMessage(ctx context.Context, campaignID, messageID int64, p MessagePatch, now time.Time) error {
	var (
		sets []string
		args []any
	)
	if p.Channel != nil {
		sets, args = append(sets, "channel = ?"), append(args, *p.Channel)
	}
	if p.Subject != nil {
		sets, args = append(sets, "subject = ?"), append(args, *p.Subject)
	}
	if p.Template != nil {
		sets, args = append(sets, "template = ?"), append(args, *p.Template)
	}
	if p.TemplateVariables != nil {
		sets, args = append(sets, "template_variables = ?"), append(args, *p.TemplateVariables)
	}
	sets, args = append(sets, "updated_at = ?"), append(args, now)

	q := r.rebind("UPDATE outreach_messages SET " + strings.Join(sets, ", ") + " WHERE id = ? AND campaign_id = ?")
	if _, err := r.db.ExecContext(ctx, q, append(args, messageID, campaignID)...); err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicateMessage
		}
		return fmt.Errorf("update message %d: %w", messageID, err)
	}
	return nil
}

// DeleteMessage removes one message of a campaign.
func (r *Repository) DeleteMessage(ctx context.Context, campaignID, messageID int64) error {
	res, err := r.db.ExecContext(ctx, r.rebind("DELETE FROM outreach_messages WHERE id = ? AND campaign_id = ?"), messageID, campaignID)
	if err != nil {
		return fmt.Errorf("delete message %d: %w", messageID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// --- Recipients ---

// RecipientFilter narrows ListRecipients.
type RecipientFilter struct {
	Status string
	Search string
	Limit  int
	Offset int
}

func (f RecipientFilter) where() (string, []any) {
	clause := " WHERE cr.campaign_id = ?"
	var args []any
	if f.Status != "" {
		clause += " AND cr.status = ?"
		args = append(args, f.Status)
	}
	if s := strings.ToLower(strings.TrimSpace(f.Search)); s != "" {
		like := "%" + s + "%"
		clause += " AND (LOWER(r.name) LIKE ? OR LOWER(r.email) LIKE ? OR r.phone LIKE ?)"
		args = append(args, like, like, like)
	}
	return clause, args
}

// ListRecipients returns one page of a campaign's recipients (latest added first).
func (r *Repository) ListRecipients(ctx context.Context, campaignID int64, f RecipientFilter) ([]models.CampaignRecipient, error) {
	clause, args := f.where()
	q := r.rebind("SELECT " + recipientColumns + `, cr.status, cr.added_at
		FROM campaign_recipients cr
		JOIN recipients r ON r.id = cr.recipient_id` + clause + `
		ORDER BY cr.added_at DESC, r.id DESC
		LIMIT ? OFFSET ?`)
	out := []models.CampaignRecipient{}
	all := append([]any{campaignID}, args...)
	if err := sqlx.SelectContext(ctx, r.db, &out, q, append(all, f.Limit, f.Offset)...); err != nil {
		return nil, fmt.Errorf("list recipients: %w", err)
	}
	return out, nil
}

// CountRecipients counts the rows ListRecipients pages over.
func (r *Repository) CountRecipients(ctx context.Context, campaignID int64, f RecipientFilter) (int, error) {
	clause, args := f.where()
	q := r.rebind("SELECT COUNT(*) FROM campaign_recipients cr JOIN recipients r ON r.id = cr.recipient_id" + clause)
	var n int
	if err := sqlx.GetContext(ctx, r.db, &n, q, append([]any{campaignID}, args...)...); err != nil {
		return 0, fmt.Errorf("count recipients: %w", err)
	}
	return n, nil
}

// RecipientStats counts a campaign's recipients by status.
func (r *Repository) RecipientStats(ctx context.Context, campaignID int64) (models.RecipientStats, error) {
	var s models.RecipientStats
	q := r.rebind(`
		SELECT COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN status = 'sent' THEN 1 ELSE 0 END), 0) AS sent,
			COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0) AS failed,
			COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0) AS pending
		FROM campaign_recipients WHERE campaign_id = ?`)
	if err := sqlx.GetContext(ctx, r.db, &s, q, campaignID); err != nil {
		return s, fmt.Errorf("recipient stats: %w", err)
	}
	return s, nil
}

// FindRecipient looks a recipient up by email, then by phone.
func (r *Repository) FindRecipient(ctx context.Context, email, phone string) (*models.Recipient, error) {
	var rec models.Recipient
	for _, lookup := range []struct{ col, val string }{{"email", email}, {"phone", phone}} {
		if lookup.val == "" {
			continue
		}
		q := r.rebind("SELECT " + recipientColumns + " FROM recipients r WHERE r." + lookup.col + " = ? ORDER BY r.id LIMIT 1")
		err := sqlx.GetContext(ctx, r.db, &rec, q, lookup.val)
		if err == nil {
			return &rec, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("find recipient: %w", err)
		}
	}
	return nil, nil
}

// CreateRecipient inserts rec and sets its ID.
func (r *Repository) CreateRecipient(ctx context.Context, rec *models.Recipient) error {
	id, err := database.InsertID(ctx, r.db, `
		INSERT INTO recipients (name, email, phone, platform, platform_id, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Name, rec.Email, rec.Phone, rec.Platform, rec.PlatformID, rec.Metadata, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert recipient: %w", err)
	}
	rec.ID = id
	return nil
}

// LinkRecipient adds a recipient to a campaign as pending. It reports false
// when the link already existed.
func (r *Repository) LinkRecipient(ctx context.Context, campaignID, recipientID int64, now time.Time) (bool, error) {
	var n int
	q := r.rebind("SELECT COUNT(*) FROM campaign_recipients WHERE campaign_id = ? AND recipient_id = ?")
	if err := sqlx.GetContext(ctx, r.db, &n, q, campaignID, recipientID); err != nil {
		return false, fmt.Errorf("check link: %w", err)
	}
	if n > 0 {
		return false, nil
	}
	_, err := r.db.ExecContext(ctx, r.rebind(`
		INSERT INTO campaign_recipients (campaign_id, recipient_id, status, added_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`), campaignID, recipientID, models.RecipientPending, now, now)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("link recipient: %w", err)
	}
	return true, nil
}

// UnlinkRecipients removes recipients from a campaign and returns how many
// links were deleted. Shared recipient rows are kept.
func (r *Repository) UnlinkRecipients(ctx context.Context, campaignID int64, recipientIDs []int64) (int64, error) {
	q, args, err := sqlx.In("DELETE FROM campaign_recipients WHERE campaign_id = ? AND recipient_id IN (?)", campaignID, recipientIDs)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, r.rebind(q), args...)
	if err != nil {
		return 0, fmt.Errorf("unlink recipients: %w", err)
	}
	return res.RowsAffected()
}

// PendingRecipients returns the recipients still to be contacted.
func (r *Repository) PendingRecipients(ctx context.Context, campaignID int64) ([]models.CampaignRecipient, error) {
	out := []models.CampaignRecipient{}
	q := r.rebind("SELECT " + recipientColumns + `, cr.status, cr.added_at
		FROM campaign_recipients cr
		JOIN recipients r ON r.id = cr.recipient_id
		WHERE cr.campaign_id = ? AND cr.status = ?
		ORDER BY cr.added_at ASC, r.id ASC`)
	if err := sqlx.SelectContext(ctx, r.db, &out, q, campaignID, models.RecipientPending); err != nil {
		return nil, fmt.Errorf("pending recipients: %w", err)
	}
	return out, nil
}

// SetRecipientStatus records the outcome for one recipient of a campaign.
func (r *Repository) SetRecipientStatus(ctx context.Context, campaignID, recipientID int64, status string, now time.Time) error {
	q := r.rebind("UPDATE campaign_recipients SET status = ?, updated_at = ? WHERE campaign_id = ? AND recipient_id = ?")
	if _, err := r.db.ExecContext(ctx, q, status, now, campaignID, recipientID); err != nil {
		return fmt.Errorf("set recipient status: %w", err)
	}
	return nil
}

// LogAttempt stores one send attempt.
func (r *Repository) LogAttempt(ctx context.Context, a *models.Attempt) error {
	id, err := database.InsertID(ctx, r.db, `
		INSERT INTO outreach_attempts (campaign_id, recipient_id, message_id, channel, status, error_details, message_content, sent_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.CampaignID, a.RecipientID, a.MessageID, a.Channel, a.Status, a.ErrorDetails, a.MessageContent, a.SentAt)
	if err != nil {
		return fmt.Errorf("log attempt: %w", err)
	}
	a.ID = id
	return nil
}

// Attempts lists up to limit of a campaign's send attempts, newest first.
func (r *Repository) Attempts(ctx context.Context, campaignID int64, limit int) ([]models.Attempt, error) {
	out := []models.Attempt{}
	q := r.rebind(`SELECT id, campaign_id, recipient_id, message_id, channel, status, error_details, message_content, sent_at
		FROM outreach_attempts WHERE campaign_id = ? ORDER BY sent_at DESC, id DESC LIMIT ?`)
	if err := sqlx.SelectContext(ctx, r.db, &out, q, campaignID, limit); err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return out, nil
}
