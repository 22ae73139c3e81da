package outreach

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nexustechhub/nexus-api/internal/ai"
	"github.com/nexustechhub/nexus-api/internal/email"
	"github.com/nexustechhub/nexus-api/internal/models"
)

// ExecutionReport summarizes one send-out.
type ExecutionReport struct {
	CampaignID  int64             `json:"campaignId"`
	Total       int               `json:"total"`
	Successful  int               `json:"successful"`
	Failed      int               `json:"failed"`
	Interrupted bool              `json:"interrupted,omitempty"`
	Details     []RecipientResult `json:"details"`
}

// RecipientResult is the outcome for one recipient.
type RecipientResult struct {
	RecipientID int64           `json:"recipientId"`
	Status      string          `json:"status"`
	Channels    []ChannelResult `json:"channels"`
}

// ChannelResult is the outcome of one send on one channel.
type ChannelResult struct {
	Channel string `json:"channel"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Execute sends the campaign to every pending recipient now.
//
// The campaign is claimed with a conditional update to in_progress, so two
// concurrent calls cannot both run it. Each recipient is contacted on every
// campaign channel it has an address for, one attempt row per send, and is
// marked sent when at least one send succeeded. The campaign is completed
// at the end unless it was paused or stopped meanwhile, or ctx was
// cancelled (the campaign is then paused and the rest stay pending).
func (s *Service) Execute(ctx context.Context, id int64) (*ExecutionReport, error) {
	// 1. --- Claim ---
	rule := actions[ActionExecute]
	if err := s.transition(ctx, id, ActionExecute, rule, nil); err != nil {
		return nil, err
	}
	campaign, err := s.repo.GetCampaign(ctx, id)
	if err != nil {
		return nil, err
	}

	// 2. --- Load messages and recipients ---
	msgs, err := s.repo.ListMessages(ctx, id)
	if err != nil {
		return nil, s.abort(id, err)
	}
	byChannel := make(map[string]models.CampaignMessage, len(msgs))
	for _, m := range msgs {
		byChannel[m.Channel] = m
	}
	recipients, err := s.repo.PendingRecipients(ctx, id)
	if err != nil {
		return nil, s.abort(id, err)
	}

	report := &ExecutionReport{CampaignID: id, Total: len(recipients), Details: []RecipientResult{}}
	s.log.Info("campaign execution started", zap.Int64("campaign", id), zap.Int("recipients", len(recipients)))

	// 3. --- Send ---
	for i, r := range recipients {
		if i > 0 {
			if stop := s.wait(ctx, id); stop {
				report.Interrupted = true
				return report, nil
			}
		}
		result := s.contact(ctx, campaign, byChannel, r)
		if result.Status == models.RecipientSent {
			report.Successful++
		} else {
			report.Failed++
		}
		report.Details = append(report.Details, result)
	}

	// 4. --- Complete ---
	if _, err := s.repo.TransitionStatus(ctx, id, []string{models.CampaignInProgress}, models.CampaignCompleted, nil, s.now()); err != nil {
		return report, err
	}
	s.log.Info("campaign execution finished", zap.Int64("campaign", id),
		zap.Int("successful", report.Successful), zap.Int("failed", report.Failed))
	return report, nil
}

// wait sleeps Pace between recipients and reports whether the run must stop:
// ctx is done, or someone paused or stopped the campaign.
func (s *Service) wait(ctx context.Context, id int64) bool {
	if s.Pace > 0 {
		t := time.NewTimer(s.Pace)
		select {
		case <-ctx.Done():
			t.Stop()
		case <-t.C:
		}
	}
	if ctx.Err() != nil {
		s.pauseAfterCancel(id)
		return true
	}
	c, err := s.repo.GetCampaign(ctx, id)
	if err != nil {
		s.log.Error("reload campaign during execution", zap.Int64("campaign", id), zap.Error(err))
		return false
	}
	if c.Status != models.CampaignInProgress {
		s.log.Info("campaign execution interrupted", zap.Int64("campaign", id), zap.String("status", c.Status))
		return true
	}
	return false
}

func (s *Service) pauseAfterCancel(id int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := s.repo.TransitionStatus(ctx, id, []string{models.CampaignInProgress}, models.CampaignPaused, nil, s.now()); err != nil {
		s.log.Error("pause cancelled campaign", zap.Int64("campaign", id), zap.Error(err))
	}
}

// abort puts a claimed campaign back to paused after a load failure.
func (s *Service) abort(id int64, cause error) error {
	s.pauseAfterCancel(id)
	return cause
}

// channelsFor picks the campaign channels a recipient can be reached on.
func channelsFor(r models.CampaignRecipient, campaignChannels models.StringList, msgs map[string]models.CampaignMessage) []string {
	var out []string
	if r.Email != nil && *r.Email != "" && campaignChannels.Contains(models.ChannelEmail) {
		if _, ok := msgs[models.ChannelEmail]; ok {
			out = append(out, models.ChannelEmail)
		}
	}
	if r.Phone != nil && *r.Phone != "" && campaignChannels.Contains(models.ChannelWhatsApp) {
		if _, ok := msgs[models.ChannelWhatsApp]; ok {
			out = append(out, models.ChannelWhatsApp)
		}
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (s *Service) contact(ctx context.Context, c *models.Campaign, msgs map[string]models.CampaignMessage, r models.CampaignRecipient) RecipientResult {
	result := RecipientResult{RecipientID: r.ID, Status: models.RecipientFailed, Channels: []ChannelResult{}}
	now := s.now()

	channels := channelsFor(r, c.Channels, msgs)
	if len(channels) == 0 {
		result.Channels = append(result.Channels, ChannelResult{Error: "no message for any channel this recipient can be reached on"})
	}

	for _, ch := range channels {
		msg := msgs[ch]
		vars := ai.TemplateVars(deref(r.Name), deref(r.Email), deref(r.Phone), r.Metadata, c.Name, msg.TemplateVariables, now)
		content := s.render(ctx, c, r, ch, ai.Fill(msg.Template, vars))

		sendErr := s.send(ctx, ch, c, r, msg, vars, content)
		attempt := &models.Attempt{
			CampaignID:     c.ID,
			RecipientID:    r.ID,
			MessageID:      &msg.ID,
			Channel:        ch,
			Status:         models.RecipientSent,
			MessageContent: &content,
			SentAt:         s.now(),
		}
		cr := ChannelResult{Channel: ch, Success: sendErr == nil}
		if sendErr != nil {
			detail := sendErr.Error()
			attempt.Status, attempt.ErrorDetails = models.RecipientFailed, &detail
			cr.Error = detail
			s.log.Warn("outreach send failed", zap.Int64("campaign", c.ID), zap.Int64("recipient", r.ID),
				zap.String("channel", ch), zap.Error(sendErr))
		} else {
			result.Status = models.RecipientSent
		}
		if err := s.repo.LogAttempt(ctx, attempt); err != nil {
			s.log.Error("log outreach attempt", zap.Int64("campaign", c.ID), zap.Error(err))
		}
		result.Channels = append(result.Channels, cr)
	}

	if err := s.repo.SetRecipientStatus(ctx, c.ID, r.ID, result.Status, s.now()); err != nil {
		s.log.Error("set recipient status", zap.Int64("campaign", c.ID), zap.Int64("recipient", r.ID), zap.Error(err))
	}
	return result
}

// render lets the AI personalizer polish the filled-in template. Without a
// personalizer, or when it fails, the draft is used as is.
func (s *Service) render(ctx context.Context, c *models.Campaign, r models.CampaignRecipient, channel, draft string) string {
	if s.ai == nil {
		return draft
	}
	out, err := s.ai.Personalize(ctx, ai.MessageInput{
		Channel:       channel,
		Draft:         draft,
		RecipientName: deref(r.Name),
		CampaignName:  c.Name,
		Metadata:      r.Metadata,
	})
	if err != nil {
		s.log.Warn("ai personalization failed, using template", zap.Int64("campaign", c.ID), zap.Error(err))
		return draft
	}
	return out
}

var errNoRelay = errors.New("whatsapp relay is not configured")

func (s *Service) send(ctx context.Context, channel string, c *models.Campaign, r models.CampaignRecipient, msg models.CampaignMessage, vars map[string]string, content string) error {
	switch channel {
	case models.ChannelEmail:
		subject := c.Name
		if msg.Subject != nil && *msg.Subject != "" {
			subject = ai.Fill(*msg.Subject, vars)
		}
		return s.mailer.Send(ctx, email.Message{
			To:      deref(r.Email),
			ToName:  deref(r.Name),
			Subject: subject,
			Text:    content,
		})
	case models.ChannelWhatsApp:
		if s.relay == nil {
			return errNoRelay
		}
		return s.relay.Send(ctx, "outreach.whatsapp", map[string]any{
			"campaignId":  c.ID,
			"recipientId": r.ID,
			"to":          deref(r.Phone),
			"message":     content,
		})
	default:
		return fmt.Errorf("unsupported channel %q", channel)
	}
}

// MessagePreview is what one recipient would receive for a message.
type MessagePreview struct {
	Channel string `json:"channel"`
	Subject string `json:"subject,omitempty"`
	Draft   string `json:"draft"`
	Content string `json:"content"`
}

// Preview renders a message for a sample recipient without sending it.
func (s *Service) Preview(ctx context.Context, campaignID, messageID int64, in RecipientInput) (*MessagePreview, error) {
	c, err := s.repo.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	msg, err := s.repo.GetMessage(ctx, campaignID, messageID)
	if err != nil {
		return nil, err
	}
	r := models.CampaignRecipient{Recipient: models.Recipient{
		Name:     optional(in.Name),
		Email:    optional(in.Email),
		Phone:    optional(in.Phone),
		Metadata: in.Metadata,
	}}

	vars := ai.TemplateVars(in.Name, in.Email, in.Phone, in.Metadata, c.Name, msg.TemplateVariables, s.now())
	draft := ai.Fill(msg.Template, vars)
	out := &MessagePreview{Channel: msg.Channel, Draft: draft, Content: s.render(ctx, c, r, msg.Channel, draft)}
	if msg.Channel == models.ChannelEmail {
		out.Subject = c.Name
		if msg.Subject != nil && *msg.Subject != "" {
			out.Subject = ai.Fill(*msg.Subject, vars)
		}
	}
	return out, nil
}
