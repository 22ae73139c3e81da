package outreach

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nexustechhub/nexus-api/internal/ai"
)

func TestSchedulerStopsWithContext(t *testing.T) {
	f := newFixture(t)
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewScheduler(f.svc, 5*time.Millisecond, zap.NewNop()).Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}

// blockingPersonalizer holds the first send until release is closed.
type blockingPersonalizer struct {
	entered chan struct{}
	release chan struct{}
	once    *sync.Once
}

func (p blockingPersonalizer) Personalize(ctx context.Context, in ai.MessageInput) (string, error) {
	p.once.Do(func() { close(p.entered) })
	<-p.release
	return in.Draft, nil
}

func TestSchedulerStopWaitsForInFlightTick(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	past := testNow.Add(-time.Hour)
	c, err := f.svc.CreateCampaign(ctx, CampaignInput{Name: "Due", Channels: []string{"email"}, Status: "scheduled", StartDate: &past}, "")
	require.NoError(t, err)
	_, err = f.svc.CreateMessage(ctx, c.ID, MessageInput{Channel: "email", Template: "Hi"})
	require.NoError(t, err)
	_, err = f.svc.AddRecipients(ctx, c.ID, []RecipientInput{{Email: "a@example.com"}})
	require.NoError(t, err)

	p := blockingPersonalizer{entered: make(chan struct{}), release: make(chan struct{}), once: &sync.Once{}}
	f.svc.ai = p

	stop := NewScheduler(f.svc, 5*time.Millisecond, zap.NewNop()).Start(ctx)
	select {
	case <-p.entered:
	case <-time.After(time.Second):
		t.Fatal("scheduler never executed the due campaign")
	}

	stopped := make(chan struct{})
	go func() {
		stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("stop returned while a send was in flight")
	case <-time.After(30 * time.Millisecond):
	}

	close(p.release)
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("stop did not return after the send finished")
	}

	// the database is still usable and no scheduler goroutine is left
	assert.Equal(t, 1, f.count(t, "SELECT COUNT(*) FROM outreach_campaigns WHERE id = ?", c.ID))
	goleak.VerifyNone(t, goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"))
}
