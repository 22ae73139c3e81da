package outreach

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nexustechhub/nexus-api/internal/ai"
	"github.com/nexustechhub/nexus-api/internal/database/dbtest"
	"github.com/nexustechhub/nexus-api/internal/email"
	"github.com/nexustechhub/nexus-api/internal/models"
)

var testNow = time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

type fakeMailer struct {
	mu   sync.Mutex
	sent []email.Message
}

func (f *fakeMailer) Send(ctx context.Context, msg email.Message) error {
	if strings.HasPrefix(msg.To, "bounce") {
		return errors.New("mailbox unavailable")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return nil
}

type fakeRelay struct {
	events []map[string]any
}

func (f *fakeRelay) Send(ctx context.Context, event string, data any) error {
	f.events = append(f.events, data.(map[string]any))
	return nil
}

type fixture struct {
	db     *sqlx.DB
	svc    *Service
	repo   *Repository
	mailer *fakeMailer
	relay  *fakeRelay
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	repo := NewRepository(db)
	f := &fixture{db: db, repo: repo, mailer: &fakeMailer{}, relay: &fakeRelay{}}
	f.svc = NewService(repo, f.mailer, f.relay, nil, zap.NewNop())
	f.svc.Pace = 0
	f.svc.now = func() time.Time { return testNow }
	return f
}

func (f *fixture) campaign(t *testing.T, status string, channels ...string) *models.Campaign {
	t.Helper()
	c, err := f.svc.CreateCampaign(context.Background(), CampaignInput{Name: "Spring Sale " + status, Channels: channels, Status: status}, "admin-1")
	require.NoError(t, err)
	return c
}

func (f *fixture) count(t *testing.T, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.Get(&n, query, args...))
	return n
}

func TestCanTransition(t *testing.T) {
	allowed := map[string][]string{
		"draft":       {"scheduled", "in_progress", "stopped"},
		"scheduled":   {"in_progress", "paused", "stopped", "completed"},
		"in_progress": {"paused", "stopped", "completed"},
		"paused":      {"scheduled", "stopped", "completed"},
		"stopped":     {"draft", "scheduled"},
		"completed":   {"draft"},
	}
	for _, from := range Statuses {
		for _, to := range Statuses {
			want := from == to || contains(allowed[from], to)
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestCreateCampaignValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateCampaign(ctx, CampaignInput{Name: "  "}, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.CreateCampaign(ctx, CampaignInput{Name: "X", Channels: []string{"sms"}}, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.CreateCampaign(ctx, CampaignInput{Name: "X", Status: "archived"}, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	c, err := f.svc.CreateCampaign(ctx, CampaignInput{Name: "Eid Offers 2025"}, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, "eid-offers-2025", c.Slug)
	assert.Equal(t, models.CampaignDraft, c.Status)
	assert.Equal(t, models.StringList{"email"}, c.Channels)
}

func TestGetCampaignDetail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.campaign(t, "draft", "email", "whatsapp")

	_, err := f.svc.CreateMessage(ctx, c.ID, MessageInput{Channel: "whatsapp", Template: "Hi {{recipient.firstName}}"})
	require.NoError(t, err)
	_, err = f.svc.CreateMessage(ctx, c.ID, MessageInput{Channel: "email", Template: "Hello"})
	require.NoError(t, err)
	_, err = f.svc.AddRecipients(ctx, c.ID, []RecipientInput{{Email: "a@example.com"}, {Phone: "+971501234567"}})
	require.NoError(t, err)

	d, err := f.svc.GetCampaign(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Name, d.Name)
	require.Len(t, d.Messages, 2)
	assert.Equal(t, "email", d.Messages[0].Channel)
	assert.Equal(t, models.RecipientStats{Total: 2, Pending: 2}, d.RecipientStats)
	assert.Equal(t, 2, d.TotalRecipients)
	assert.Empty(t, d.RecentAttempts)

	_, err = f.svc.GetCampaign(ctx, 999)
	assert.ErrorIs(t, err, ErrCampaignNotFound)
}

func TestListCampaigns(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		f.campaign(t, "draft")
	}
	f.campaign(t, "scheduled")

	list, page, err := f.svc.ListCampaigns(context.Background(), "draft", 1, 2)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, models.Pagination{Page: 1, Limit: 2, TotalCount: 3, TotalPages: 2}, page)

	_, _, err = f.svc.ListCampaigns(context.Background(), "bogus", 1, 2)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateCampaignTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.campaign(t, "draft")

	completed := "completed"
	_, err := f.svc.UpdateCampaign(ctx, c.ID, CampaignUpdate{Status: &completed})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	name, scheduled := "Renamed", "scheduled"
	updated, err := f.svc.UpdateCampaign(ctx, c.ID, CampaignUpdate{Name: &name, Status: &scheduled})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, "renamed", updated.Slug)
	assert.Equal(t, "scheduled", updated.Status)
	assert.Equal(t, c.Channels, updated.Channels, "absent fields are kept")

	_, err = f.svc.UpdateCampaign(ctx, 404, CampaignUpdate{Name: &name})
	assert.ErrorIs(t, err, ErrCampaignNotFound)
}

func TestDeleteCampaign(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, status := range []string{"scheduled", "in_progress"} {
		c := f.campaign(t, status)
		assert.ErrorIs(t, f.svc.DeleteCampaign(ctx, c.ID), ErrCampaignActive)
	}

	c := f.campaign(t, "paused")
	_, err := f.svc.CreateMessage(ctx, c.ID, MessageInput{Channel: "email", Template: "Hello"})
	require.NoError(t, err)
	_, err = f.svc.AddRecipients(ctx, c.ID, []RecipientInput{{Email: "a@example.com"}})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteCampaign(ctx, c.ID))
	assert.Zero(t, f.count(t, "SELECT COUNT(*) FROM outreach_messages WHERE campaign_id = ?", c.ID))
	assert.Zero(t, f.count(t, "SELECT COUNT(*) FROM campaign_recipients WHERE campaign_id = ?", c.ID))
	assert.Equal(t, 1, f.count(t, "SELECT COUNT(*) FROM recipients"), "shared recipients are kept")

	assert.ErrorIs(t, f.svc.DeleteCampaign(ctx, c.ID), ErrCampaignNotFound)
}

func TestMessageUniquePerChannel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.campaign(t, "draft", "email", "whatsapp")

	_, err := f.svc.CreateMessage(ctx, c.ID, MessageInput{Channel: "email", Template: "first"})
	require.NoError(t, err)

	_, err = f.svc.CreateMessage(ctx, c.ID, MessageInput{Channel: "EMAIL", Template: "second"})
	assert.ErrorIs(t, err, ErrDuplicateMessage)
	assert.True(t, IsBadRequest(err))
	assert.Equal(t, 1, f.count(t, "SELECT COUNT(*) FROM outreach_messages WHERE campaign_id = ?", c.ID))

	// the unique index backs the check up
	err = f.repo.CreateMessage(ctx, &models.CampaignMessage{CampaignID: c.ID, Channel: "email", Template: "x", CreatedAt: testNow, UpdatedAt: testNow})
	assert.ErrorIs(t, err, ErrDuplicateMessage)
}

func TestMessageValidationAndNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.campaign(t, "draft")

	_, err := f.svc.CreateMessage(ctx, c.ID, MessageInput{Channel: "email"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.CreateMessage(ctx, c.ID, MessageInput{Channel: "fax", Template: "x"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.CreateMessage(ctx, 404, MessageInput{Channel: "email", Template: "x"})
	assert.ErrorIs(t, err, ErrCampaignNotFound)

	_, err = f.svc.ListMessages(ctx, 404)
	assert.True(t, IsNotFound(err))

	assert.ErrorIs(t, f.svc.DeleteMessage(ctx, c.ID, 12345), ErrMessageNotFound)
}

func TestUpdateMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.campaign(t, "draft", "email", "whatsapp")

	emailMsg, err := f.svc.CreateMessage(ctx, c.ID, MessageInput{Channel: "email", Template: "a"})
	require.NoError(t, err)
	waMsg, err := f.svc.CreateMessage(ctx, c.ID, MessageInput{Channel: "whatsapp", Template: "b"})
	require.NoError(t, err)

	tpl := "updated"
	got, err := f.svc.UpdateMessage(ctx, c.ID, emailMsg.ID, MessageUpdate{Template: &tpl})
	require.NoError(t, err)
	assert.Equal(t, "updated", got.Template)
	assert.Equal(t, "email", got.Channel)

	ch := "email"
	_, err = f.svc.UpdateMessage(ctx, c.ID, waMsg.ID, MessageUpdate{Channel: &ch})
	assert.ErrorIs(t, err, ErrDuplicateMessage)

	require.NoError(t, f.svc.DeleteMessage(ctx, c.ID, waMsg.ID))
	msgs, err := f.svc.ListMessages(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestAddRecipientsReusesExisting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.campaign(t, "draft"), f.campaign(t, "draft")

	res, err := f.svc.AddRecipients(ctx, a.ID, []RecipientInput{
		{Name: "Layla", Email: "Layla@Example.com"},
		{Name: "Omar", Phone: "+971501112222"},
		{Name: "Nobody"},
	})
	require.NoError(t, err)
	assert.Equal(t, AddResult{Added: 2, Skipped: 1}, *res)

	res, err = f.svc.AddRecipients(ctx, a.ID, []RecipientInput{{Email: "layla@example.com"}})
	require.NoError(t, err)
	assert.Equal(t, AddResult{AlreadyLinked: 1}, *res)

	res, err = f.svc.AddRecipients(ctx, b.ID, []RecipientInput{{Phone: "+971501112222"}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)
	assert.Equal(t, 2, f.count(t, "SELECT COUNT(*) FROM recipients"))

	_, err = f.svc.AddRecipients(ctx, a.ID, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAddRecipientsRejectsCompleted(t *testing.T) {
	f := newFixture(t)
	c := f.campaign(t, "completed")

	_, err := f.svc.AddRecipients(context.Background(), c.ID, []RecipientInput{{Email: "a@example.com"}})
	assert.ErrorIs(t, err, ErrCampaignCompleted)
	assert.Zero(t, f.count(t, "SELECT COUNT(*) FROM recipients"))
}

func TestListRecipientsPagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.campaign(t, "draft")

	var in []RecipientInput
	for _, n := range []string{"amal", "basel", "carla", "dina", "amir"} {
		in = append(in, RecipientInput{Name: n, Email: n + "@nexus.test"})
	}
	_, err := f.svc.AddRecipients(ctx, c.ID, in)
	require.NoError(t, err)

	list, page, err := f.svc.ListRecipients(ctx, c.ID, "", "", 2, 2)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, models.Pagination{Page: 2, Limit: 2, TotalCount: 5, TotalPages: 3}, page)

	list, page, err = f.svc.ListRecipients(ctx, c.ID, "pending", "AM", 0, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, DefaultRecipientLimit, page.Limit)
	assert.Equal(t, 1, page.Page)

	_, _, err = f.svc.ListRecipients(ctx, 404, "", "", 1, 10)
	assert.ErrorIs(t, err, ErrCampaignNotFound)
}

func TestRemoveRecipientsBlockedWhileInProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.campaign(t, "draft")
	_, err := f.svc.AddRecipients(ctx, c.ID, []RecipientInput{{Email: "a@example.com"}, {Email: "b@example.com"}})
	require.NoError(t, err)

	inProgress := "in_progress"
	_, err = f.svc.UpdateCampaign(ctx, c.ID, CampaignUpdate{Status: &inProgress})
	require.NoError(t, err)

	removed, err := f.svc.RemoveRecipients(ctx, c.ID, []int64{1, 2})
	assert.ErrorIs(t, err, ErrCampaignInProgress)
	assert.Zero(t, removed)
	assert.Equal(t, 2, f.count(t, "SELECT COUNT(*) FROM campaign_recipients WHERE campaign_id = ?", c.ID))

	paused := "paused"
	_, err = f.svc.UpdateCampaign(ctx, c.ID, CampaignUpdate{Status: &paused})
	require.NoError(t, err)
	removed, err = f.svc.RemoveRecipients(ctx, c.ID, []int64{1, 2, 99})
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	_, err = f.svc.RemoveRecipients(ctx, c.ID, nil)
	assert.ErrorIs(t, err, ErrRecipientIDsRequired)
}

func TestActions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.campaign(t, "draft")

	_, err := f.svc.Act(ctx, c.ID, ActionSchedule, nil)
	assert.ErrorIs(t, err, ErrScheduleOptions)

	_, err = f.svc.Act(ctx, c.ID, ActionPause, nil)
	assert.ErrorIs(t, err, ErrActionNotAllowed)
	assert.Contains(t, err.Error(), "cannot pause a campaign that is draft")

	res, err := f.svc.Act(ctx, c.ID, ActionSchedule, map[string]any{"sendTime": "09:00"})
	require.NoError(t, err)
	assert.Equal(t, "scheduled", res.Campaign.Status)
	assert.Equal(t, "09:00", res.Campaign.ScheduleOptions["sendTime"])

	res, err = f.svc.Act(ctx, c.ID, ActionPause, nil)
	require.NoError(t, err)
	assert.Equal(t, "paused", res.Campaign.Status)

	res, err = f.svc.Act(ctx, c.ID, ActionResume, nil)
	require.NoError(t, err)
	assert.Equal(t, "scheduled", res.Campaign.Status)

	res, err = f.svc.Act(ctx, c.ID, ActionStop, nil)
	require.NoError(t, err)
	assert.Equal(t, "stopped", res.Campaign.Status)

	_, err = f.svc.Act(ctx, c.ID, "explode", nil)
	assert.ErrorIs(t, err, ErrUnknownAction)

	_, err = f.svc.Act(ctx, 404, ActionStop, nil)
	assert.ErrorIs(t, err, ErrCampaignNotFound)
}

type fakePersonalizer struct{ fail bool }

func (p fakePersonalizer) Personalize(ctx context.Context, in ai.MessageInput) (string, error) {
	if p.fail {
		return "", errors.New("quota exceeded")
	}
	return "[ai] " + in.Draft, nil
}

func TestExecute(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.campaign(t, "draft", "email", "whatsapp")

	subject := "Offer for {{recipient.firstName}}"
	_, err := f.svc.CreateMessage(ctx, c.ID, MessageInput{Channel: "email", Subject: &subject, Template: "Hi {{recipient.firstName}}, {{offer}} off", TemplateVariables: map[string]any{"offer": "10%"}})
	require.NoError(t, err)
	_, err = f.svc.CreateMessage(ctx, c.ID, MessageInput{Channel: "whatsapp", Template: "Hey {{recipient.name}}"})
	require.NoError(t, err)
	_, err = f.svc.AddRecipients(ctx, c.ID, []RecipientInput{
		{Name: "Layla Hassan", Email: "layla@example.com", Phone: "+971501234567"},
		{Name: "Bounce", Email: "bounce@example.com"},
		{Name: "Omar", Phone: "+971509999999"},
	})
	require.NoError(t, err)

	report, err := f.svc.Execute(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 2, report.Successful)
	assert.Equal(t, 1, report.Failed)
	assert.False(t, report.Interrupted)

	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "Offer for Layla", f.mailer.sent[0].Subject)
	assert.Equal(t, "Hi Layla, 10% off", f.mailer.sent[0].Text)
	require.Len(t, f.relay.events, 2)
	assert.Equal(t, "Hey Layla Hassan", f.relay.events[0]["message"])

	d, err := f.svc.GetCampaign(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "completed", d.Status)
	assert.Equal(t, models.RecipientStats{Total: 3, Sent: 2, Failed: 1}, d.RecipientStats)
	assert.Equal(t, 4, f.count(t, "SELECT COUNT(*) FROM outreach_attempts WHERE campaign_id = ?", c.ID))
	assert.Equal(t, 1, f.count(t, "SELECT COUNT(*) FROM outreach_attempts WHERE status = 'failed'"))
	require.Len(t, d.RecentAttempts, 4)
	assert.GreaterOrEqual(t, d.RecentAttempts[0].ID, d.RecentAttempts[3].ID)
	for _, a := range d.RecentAttempts {
		assert.Equal(t, c.ID, a.CampaignID)
	}

	// a completed campaign cannot run again
	_, err = f.svc.Execute(ctx, c.ID)
	assert.ErrorIs(t, err, ErrActionNotAllowed)
}

func TestExecuteUsesPersonalizerWithFallback(t *testing.T) {
	for _, fail := range []bool{false, true} {
		f := newFixture(t)
		f.svc.ai = fakePersonalizer{fail: fail}
		ctx := context.Background()
		c := f.campaign(t, "scheduled", "email")
		_, err := f.svc.CreateMessage(ctx, c.ID, MessageInput{Channel: "email", Template: "Hi {{recipient.name}}"})
		require.NoError(t, err)
		_, err = f.svc.AddRecipients(ctx, c.ID, []RecipientInput{{Name: "Sara", Email: "sara@example.com"}})
		require.NoError(t, err)

		res, err := f.svc.Act(ctx, c.ID, ActionExecute, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Execution.Successful)
		require.Len(t, f.mailer.sent, 1)
		if fail {
			assert.Equal(t, "Hi Sara", f.mailer.sent[0].Text)
		} else {
			assert.Equal(t, "[ai] Hi Sara", f.mailer.sent[0].Text)
		}
	}
}

func TestExecuteStopsWhenCampaignIsPaused(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.campaign(t, "draft", "email")
	_, err := f.svc.CreateMessage(ctx, c.ID, MessageInput{Channel: "email", Template: "Hi"})
	require.NoError(t, err)
	_, err = f.svc.AddRecipients(ctx, c.ID, []RecipientInput{{Email: "a@example.com"}, {Email: "b@example.com"}})
	require.NoError(t, err)

	f.svc.ai = pauseOnFirstSend{f: f, id: c.ID}
	report, err := f.svc.Execute(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, report.Interrupted)
	assert.Equal(t, 1, report.Successful)

	d, err := f.svc.GetCampaign(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "paused", d.Status)
	assert.Equal(t, 1, d.RecipientStats.Pending)
}

// pauseOnFirstSend pauses the campaign from "outside" while the first
// recipient is being rendered.
type pauseOnFirstSend struct {
	f  *fixture
	id int64
}

func (p pauseOnFirstSend) Personalize(ctx context.Context, in ai.MessageInput) (string, error) {
	_, err := p.f.db.Exec("UPDATE outreach_campaigns SET status = 'paused' WHERE id = ?", p.id)
	return in.Draft, err
}

func TestSchedulerTick(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	past, future := testNow.Add(-time.Hour), testNow.Add(time.Hour)
	expired := testNow.Add(-time.Minute)

	due, err := f.svc.CreateCampaign(ctx, CampaignInput{Name: "Due", Status: "scheduled", StartDate: &past}, "")
	require.NoError(t, err)
	later, err := f.svc.CreateCampaign(ctx, CampaignInput{Name: "Later", Status: "scheduled", StartDate: &future}, "")
	require.NoError(t, err)
	old, err := f.svc.CreateCampaign(ctx, CampaignInput{Name: "Old", Status: "paused", StartDate: &past, EndDate: &expired}, "")
	require.NoError(t, err)

	ran := NewScheduler(f.svc, time.Minute, zap.NewNop()).Tick(ctx)
	assert.Equal(t, 1, ran)

	for id, want := range map[int64]string{due.ID: "completed", later.ID: "scheduled", old.ID: "completed"} {
		c, err := f.repo.GetCampaign(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, c.Status, "campaign %d", id)
	}
}

func TestSchedulerRunDisabled(t *testing.T) {
	f := newFixture(t)
	done := make(chan struct{})
	go func() {
		NewScheduler(f.svc, 0, zap.NewNop()).Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled scheduler did not return")
	}
}

func TestPreview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.campaign(t, "draft", "email")
	subject := "{{recipient.firstName}}, your {{campaign.name}} code"
	msg, err := f.svc.CreateMessage(ctx, c.ID, MessageInput{Channel: "email", Subject: &subject, Template: "Hi {{recipient.name}} from {{recipient.company}} on {{date}}"})
	require.NoError(t, err)

	p, err := f.svc.Preview(ctx, c.ID, msg.ID, RecipientInput{Name: "Sara Ali", Metadata: map[string]any{"company": "FixIt LLC"}})
	require.NoError(t, err)
	assert.Equal(t, "Sara, your Spring Sale draft code", p.Subject)
	assert.Equal(t, "Hi Sara Ali from FixIt LLC on 01/05/2025", p.Draft)
	assert.Equal(t, p.Draft, p.Content)
	assert.Empty(t, f.mailer.sent, "preview never sends")

	f.svc.ai = fakePersonalizer{}
	p, err = f.svc.Preview(ctx, c.ID, msg.ID, RecipientInput{Name: "Sara Ali"})
	require.NoError(t, err)
	assert.Equal(t, "[ai] Hi Sara Ali from  on 01/05/2025", p.Content)

	_, err = f.svc.Preview(ctx, c.ID, 999, RecipientInput{})
	assert.ErrorIs(t, err, ErrMessageNotFound)
}

func TestAttemptsNewestFirstAndLimited(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.campaign(t, "draft", "email")
	_, err := f.svc.AddRecipients(ctx, c.ID, []RecipientInput{{Email: "a@example.com"}})
	require.NoError(t, err)

	var recipientID int64
	require.NoError(t, f.db.Get(&recipientID, "SELECT recipient_id FROM campaign_recipients WHERE campaign_id = ?", c.ID))
	ids := make([]int64, 3)
	for i := range ids {
		a := &models.Attempt{
			CampaignID: c.ID, RecipientID: recipientID, Channel: "email",
			Status: "sent", SentAt: testNow.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, f.repo.LogAttempt(ctx, a))
		ids[i] = a.ID
	}

	got, err := f.repo.Attempts(ctx, c.ID, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, ids[2], got[0].ID)
	assert.Equal(t, ids[1], got[1].ID)
}

func TestUpdateThatChangesNothingIsNotAnError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.campaign(t, "draft", "email")
	m, err := f.svc.CreateMessage(ctx, c.ID, MessageInput{Channel: "email", Template: "Hi"})
	require.NoError(t, err)

	// same values at the same instant: MySQL reports zero affected rows
	name := c.Name
	require.NoError(t, f.repo.UpdateCampaign(ctx, c.ID, CampaignPatch{Name: &name}, testNow))
	require.NoError(t, f.repo.UpdateCampaign(ctx, c.ID, CampaignPatch{Name: &name}, testNow))
	tmpl := "Hi"
	require.NoError(t, f.repo.UpdateMessage(ctx, c.ID, m.ID, MessagePatch{Template: &tmpl}, testNow))
	require.NoError(t, f.repo.UpdateMessage(ctx, c.ID, m.ID, MessagePatch{Template: &tmpl}, testNow))

	got, err := f.svc.UpdateCampaign(ctx, c.ID, CampaignUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, got.Name)

	// existence is still checked by the service
	_, err = f.svc.UpdateCampaign(ctx, 999, CampaignUpdate{Name: &name})
	assert.ErrorIs(t, err, ErrCampaignNotFound)
	_, err = f.svc.UpdateMessage(ctx, c.ID, 999, MessageUpdate{Template: &tmpl})
	assert.ErrorIs(t, err, ErrMessageNotFound)
}

func TestLockCampaignStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.campaign(t, "scheduled", "email")

	err := f.repo.InTx(ctx, func(tx *Repository) error {
		status, err := tx.LockCampaignStatus(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "scheduled", status)
		return nil
	})
	require.NoError(t, err)

	_, err = f.repo.LockCampaignStatus(ctx, 999)
	assert.ErrorIs(t, err, ErrCampaignNotFound)

	_, err = f.svc.RemoveRecipients(ctx, 999, []int64{1})
	assert.ErrorIs(t, err, ErrCampaignNotFound)
}
