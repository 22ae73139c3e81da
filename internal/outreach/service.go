package outreach

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nexustechhub/nexus-api/internal/ai"
	"github.com/nexustechhub/nexus-api/internal/email"
	"github.com/nexustechhub/nexus-api/internal/models"
	"github.com/nexustechhub/nexus-api/internal/webhook"
)

// Paging defaults.
const (
	DefaultCampaignLimit  = 20
	DefaultRecipientLimit = 50
	MaxPageLimit          = 200
)

// Service implements campaign management and execution.
type Service struct {
	repo   *Repository
	mailer email.Mailer
	relay  webhook.Relay
	ai     ai.Personalizer // optional
	log    *zap.Logger
	now    func() time.Time

	// Pace is the pause between two recipients during a send-out.
	Pace time.Duration
}

// NewService wires a Service. personalizer may be nil.
func NewService(repo *Repository, mailer email.Mailer, relay webhook.Relay, personalizer ai.Personalizer, log *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		mailer: mailer,
		relay:  relay,
		ai:     personalizer,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
		Pace:   100 * time.Millisecond,
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func pageOf(page, limit, def int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = def
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit, (page - 1) * limit
}

func validChannels(channels []string) (models.StringList, error) {
	if len(channels) == 0 {
		return models.StringList{models.ChannelEmail}, nil
	}
	out := models.StringList{}
	for _, ch := range channels {
		ch = strings.ToLower(strings.TrimSpace(ch))
		if !contains(Channels, ch) {
			return nil, invalid("unsupported channel %q (use email or whatsapp)", ch)
		}
		if !out.Contains(ch) {
			out = append(out, ch)
		}
	}
	return out, nil
}

// --- Campaigns ---

// CampaignInput is the body of a campaign create request.
type CampaignInput struct {
	Name            string         `json:"name"`
	Description     *string        `json:"description"`
	Channels        []string       `json:"channels"`
	StartDate       *time.Time     `json:"startDate"`
	EndDate         *time.Time     `json:"endDate"`
	Status          string         `json:"status"`
	ScheduleOptions map[string]any `json:"scheduleOptions"`
}

// CreateCampaign stores a new campaign, in draft unless a status is given.
func (s *Service) CreateCampaign(ctx context.Context, in CampaignInput, createdBy string) (*models.Campaign, error) {
	// 1. --- Validate ---
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("name is required")
	}
	channels, err := validChannels(in.Channels)
	if err != nil {
		return nil, err
	}
	status := in.Status
	if status == "" {
		status = models.CampaignDraft
	}
	if !contains(Statuses, status) {
		return nil, invalid("unknown status %q", status)
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		return nil, invalid("endDate must not be before startDate")
	}

	// 2. --- Insert ---
	now := s.now()
	c := &models.Campaign{
		Name:            name,
		Slug:            slug.Make(name),
		Description:     in.Description,
		Channels:        channels,
		StartDate:       utc(in.StartDate),
		EndDate:         utc(in.EndDate),
		Status:          status,
		ScheduleOptions: in.ScheduleOptions,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if createdBy != "" {
		c.CreatedBy = &createdBy
	}
	if err := s.repo.CreateCampaign(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListCampaigns returns a page of campaigns, optionally filtered by status.
func (s *Service) ListCampaigns(ctx context.Context, status string, page, limit int) ([]models.Campaign, models.Pagination, error) {
	if status != "" && !contains(Statuses, status) {
		return nil, models.Pagination{}, invalid("unknown status %q", status)
	}
	page, limit, offset := pageOf(page, limit, DefaultCampaignLimit)
	campaigns, total, err := s.repo.ListCampaigns(ctx, status, limit, offset)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	return campaigns, models.NewPagination(page, limit, total), nil
}

// CampaignDetail is a campaign with its messages and recipient counters.
type CampaignDetail struct {
	models.Campaign
	Messages       []models.CampaignMessage `json:"messages"`
	RecipientStats models.RecipientStats    `json:"recipientStats"`
	RecentAttempts []models.Attempt         `json:"recentAttempts"`
}

// RecentAttemptsLimit caps the attempt log shown on a campaign.
const RecentAttemptsLimit = 20

// GetCampaign loads a campaign, its messages, its recipient stats and its
// latest send attempts in parallel.
func (s *Service) GetCampaign(ctx context.Context, id int64) (*CampaignDetail, error) {
	var (
		campaign *models.Campaign
		messages []models.CampaignMessage
		stats    models.RecipientStats
		attempts []models.Attempt
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		campaign, err = s.repo.GetCampaign(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		messages, err = s.repo.ListMessages(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		stats, err = s.repo.RecipientStats(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		attempts, err = s.repo.Attempts(gctx, id, RecentAttemptsLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &CampaignDetail{Campaign: *campaign, Messages: messages, RecipientStats: stats, RecentAttempts: attempts}, nil
}

// CampaignUpdate is the body of a campaign update. Absent fields are kept.
type CampaignUpdate struct {
	Name            *string        `json:"name"`
	Description     *string        `json:"description"`
	Channels        []string       `json:"channels"`
	StartDate       *time.Time     `json:"startDate"`
	EndDate         *time.Time     `json:"endDate"`
	Status          *string        `json:"status"`
	ScheduleOptions map[string]any `json:"scheduleOptions"`
}

// UpdateCampaign applies a partial update. A status change must follow the
// transition table.
func (s *Service) UpdateCampaign(ctx context.Context, id int64, in CampaignUpdate) (*models.Campaign, error) {
	patch := CampaignPatch{Description: in.Description, StartDate: utc(in.StartDate), EndDate: utc(in.EndDate)}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, invalid("name must not be empty")
		}
		sl := slug.Make(name)
		patch.Name, patch.Slug = &name, &sl
	}
	if in.Channels != nil {
		channels, err := validChannels(in.Channels)
		if err != nil {
			return nil, err
		}
		patch.Channels = &channels
	}
	if in.ScheduleOptions != nil {
		opts := models.JSONMap(in.ScheduleOptions)
		patch.ScheduleOptions = &opts
	}
	if in.Status != nil {
		if !contains(Statuses, *in.Status) {
			return nil, invalid("unknown status %q", *in.Status)
		}
		patch.Status = in.Status
	}

	var updated *models.Campaign
	err := s.repo.InTx(ctx, func(tx *Repository) error {
		current, err := tx.GetCampaign(ctx, id)
		if err != nil {
			return err
		}
		if in.Status != nil && !CanTransition(current.Status, *in.Status) {
			return fmt.Errorf("%w from %s to %s", ErrInvalidTransition, current.Status, *in.Status)
		}
		start, end := current.StartDate, current.EndDate
		if patch.StartDate != nil {
			start = patch.StartDate
		}
		if patch.EndDate != nil {
			end = patch.EndDate
		}
		if start != nil && end != nil && end.Before(*start) {
			return invalid("endDate must not be before startDate")
		}
		if err := tx.UpdateCampaign(ctx, id, patch, s.now()); err != nil {
			return err
		}
		updated, err = tx.GetCampaign(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteCampaign removes a campaign and everything attached to it. Scheduled
// and running campaigns cannot be deleted.
func (s *Service) DeleteCampaign(ctx context.Context, id int64) error {
	return s.repo.InTx(ctx, func(tx *Repository) error {
		c, err := tx.GetCampaign(ctx, id)
		if err != nil {
			return err
		}
		if c.Status == models.CampaignScheduled || c.Status == models.CampaignInProgress {
			return ErrCampaignActive
		}
		return tx.DeleteCampaign(ctx, id)
	})
}

// ActionResult is returned by Act.
type ActionResult struct {
	Campaign  *models.Campaign `json:"campaign"`
	Execution *ExecutionReport `json:"execution,omitempty"`
}

// Act runs a lifecycle action (schedule, execute, pause, resume, stop).
func (s *Service) Act(ctx context.Context, id int64, action string, scheduleOptions map[string]any) (*ActionResult, error) {
	rule, ok := actions[action]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownAction, action)
	}

	if action == ActionExecute {
		report, err := s.Execute(ctx, id)
		if err != nil {
			return nil, err
		}
		c, err := s.repo.GetCampaign(ctx, id)
		if err != nil {
			return nil, err
		}
		return &ActionResult{Campaign: c, Execution: report}, nil
	}

	var opts models.JSONMap
	if action == ActionSchedule {
		if len(scheduleOptions) == 0 {
			return nil, ErrScheduleOptions
		}
		opts = scheduleOptions
	}

	if err := s.transition(ctx, id, action, rule, opts); err != nil {
		return nil, err
	}
	c, err := s.repo.GetCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ActionResult{Campaign: c}, nil
}

// transition applies rule with a conditional update and explains a miss.
func (s *Service) transition(ctx context.Context, id int64, action string, rule actionRule, opts models.JSONMap) error {
	changed, err := s.repo.TransitionStatus(ctx, id, rule.from, rule.to, opts, s.now())
	if err != nil {
		return err
	}
	if changed {
		return nil
	}
	c, err := s.repo.GetCampaign(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: cannot %s a campaign that is %s", ErrActionNotAllowed, action, c.Status)
}

// --- Messages ---

// MessageInput is the body of a message create request.
type MessageInput struct {
	Channel           string         `json:"channel"`
	Subject           *string        `json:"subject"`
	Template          string         `json:"template"`
	TemplateVariables map[string]any `json:"templateVariables"`
}

// MessageUpdate is the body of a message update. Absent fields are kept.
type MessageUpdate struct {
	Channel           *string        `json:"channel"`
	Subject           *string        `json:"subject"`
	Template          *string        `json:"template"`
	TemplateVariables map[string]any `json:"templateVariables"`
}

// ListMessages returns the campaign's messages ordered by channel.
func (s *Service) ListMessages(ctx context.Context, campaignID int64) ([]models.CampaignMessage, error) {
	if _, err := s.repo.GetCampaign(ctx, campaignID); err != nil {
		return nil, err
	}
	return s.repo.ListMessages(ctx, campaignID)
}

// CreateMessage adds the campaign's message for a channel. The existence
// check and the insert share one transaction; the unique index on
// (campaign_id, channel) catches anything that still slips through.
func (s *Service) CreateMessage(ctx context.Context, campaignID int64, in MessageInput) (*models.CampaignMessage, error) {
	channel := strings.ToLower(strings.TrimSpace(in.Channel))
	if channel == "" || strings.TrimSpace(in.Template) == "" {
		return nil, invalid("channel and template are required")
	}
	if !contains(Channels, channel) {
		return nil, invalid("unsupported channel %q (use email or whatsapp)", channel)
	}

	now := s.now()
	msg := &models.CampaignMessage{
		CampaignID:        campaignID,
		Channel:           channel,
		Subject:           in.Subject,
		Template:          in.Template,
		TemplateVariables: in.TemplateVariables,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	err := s.repo.InTx(ctx, func(tx *Repository) error {
		if _, err := tx.GetCampaign(ctx, campaignID); err != nil {
			return err
		}
		taken, err := tx.ChannelTaken(ctx, campaignID, channel, 0)
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicateMessage
		}
		return tx.CreateMessage(ctx, msg)
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// UpdateMessage applies a partial update to one message.
func (s *Service) UpdateMessage(ctx context.Context, campaignID, messageID int64, in MessageUpdate) (*models.CampaignMessage, error) {
	patch := MessagePatch{Subject: in.Subject, Template: in.Template}
	if in.Channel != nil {
		ch := strings.ToLower(strings.TrimSpace(*in.Channel))
		if !contains(Channels, ch) {
			return nil, invalid("unsupported channel %q (use email or whatsapp)", ch)
		}
		patch.Channel = &ch
	}
	if in.Template != nil && strings.TrimSpace(*in.Template) == "" {
		return nil, invalid("template must not be empty")
	}
	if in.TemplateVariables != nil {
		vars := models.JSONMap(in.TemplateVariables)
		patch.TemplateVariables = &vars
	}

	var updated *models.CampaignMessage
	err := s.repo.InTx(ctx, func(tx *Repository) error {
		if _, err := tx.GetCampaign(ctx, campaignID); err != nil {
			return err
		}
		if _, err := tx.GetMessage(ctx, campaignID, messageID); err != nil {
			return err
		}
		if patch.Channel != nil {
			taken, err := tx.ChannelTaken(ctx, campaignID, *patch.Channel, messageID)
			if err != nil {
				return err
			}
			if taken {
				return ErrDuplicateMessage
			}
		}
		if err := tx.UpdateMessage(ctx, campaignID, messageID, patch, s.now()); err != nil {
			return err
		}
		var err error
		updated, err = tx.GetMessage(ctx, campaignID, messageID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteMessage removes one message.
func (s *Service) DeleteMessage(ctx context.Context, campaignID, messageID int64) error {
	if _, err := s.repo.GetCampaign(ctx, campaignID); err != nil {
		return err
	}
	return s.repo.DeleteMessage(ctx, campaignID, messageID)
}

// --- Recipients ---

// RecipientInput is one entry of an add-recipients request.
type RecipientInput struct {
	Name       string         `json:"name"`
	Email      string         `json:"email"`
	Phone      string         `json:"phone"`
	Platform   string         `json:"platform"`
	PlatformID string         `json:"platformId"`
	Metadata   map[string]any `json:"metadata"`
}

// AddResult summarizes an add-recipients request.
type AddResult struct {
	Added         int `json:"added"`
	AlreadyLinked int `json:"alreadyLinked"`
	Skipped       int `json:"skipped"` // entries without email or phone
}

// ListRecipients returns one page of a campaign's recipients.
func (s *Service) ListRecipients(ctx context.Context, campaignID int64, status, search string, page, limit int) ([]models.CampaignRecipient, models.Pagination, error) {
	if status != "" && !contains([]string{models.RecipientPending, models.RecipientSent, models.RecipientFailed}, status) {
		return nil, models.Pagination{}, invalid("unknown recipient status %q", status)
	}
	page, limit, offset := pageOf(page, limit, DefaultRecipientLimit)
	filter := RecipientFilter{Status: status, Search: search, Limit: limit, Offset: offset}

	var (
		recipients []models.CampaignRecipient
		total      int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.repo.GetCampaign(gctx, campaignID)
		return err
	})
	g.Go(func() (err error) {
		recipients, err = s.repo.ListRecipients(gctx, campaignID, filter)
		return err
	})
	g.Go(func() (err error) {
		total, err = s.repo.CountRecipients(gctx, campaignID, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, models.Pagination{}, err
	}
	return recipients, models.NewPagination(page, limit, total), nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// AddRecipients links recipients to a campaign as pending, reusing existing
// recipient rows matched by email or phone.
func (s *Service) AddRecipients(ctx context.Context, campaignID int64, in []RecipientInput) (*AddResult, error) {
	if len(in) == 0 {
		return nil, invalid("recipients must be a non-empty array")
	}

	res := &AddResult{}
	err := s.repo.InTx(ctx, func(tx *Repository) error {
		c, err := tx.GetCampaign(ctx, campaignID)
		if err != nil {
			return err
		}
		if c.Status == models.CampaignCompleted {
			return ErrCampaignCompleted
		}

		now := s.now()
		for _, r := range in {
			mail, phone := strings.ToLower(strings.TrimSpace(r.Email)), strings.TrimSpace(r.Phone)
			if mail == "" && phone == "" {
				res.Skipped++
				continue
			}
			rec, err := tx.FindRecipient(ctx, mail, phone)
			if err != nil {
				return err
			}
			if rec == nil {
				rec = &models.Recipient{
					Name:       optional(r.Name),
					Email:      optional(mail),
					Phone:      optional(phone),
					Platform:   optional(r.Platform),
					PlatformID: optional(r.PlatformID),
					Metadata:   r.Metadata,
					CreatedAt:  now,
					UpdatedAt:  now,
				}
				if err := tx.CreateRecipient(ctx, rec); err != nil {
					return err
				}
			}
			added, err := tx.LinkRecipient(ctx, campaignID, rec.ID, now)
			if err != nil {
				return err
			}
			if added {
				res.Added++
			} else {
				res.AlreadyLinked++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// RemoveRecipients unlinks recipients from a campaign. The status read locks
// the campaign row on Postgres and MySQL, so a concurrent execute cannot
// start between the check and the delete.
func (s *Service) RemoveRecipients(ctx context.Context, campaignID int64, recipientIDs []int64) (int64, error) {
	if len(recipientIDs) == 0 {
		return 0, ErrRecipientIDsRequired
	}
	var removed int64
	err := s.repo.InTx(ctx, func(tx *Repository) error {
		status, err := tx.LockCampaignStatus(ctx, campaignID)
		if err != nil {
			return err
		}
		if status == models.CampaignInProgress {
			return ErrCampaignInProgress
		}
		removed, err = tx.UnlinkRecipients(ctx, campaignID, recipientIDs)
		return err
	})
	return removed, err
}
