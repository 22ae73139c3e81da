// Package outreach manages marketing campaigns: their messages (one per
// channel), their recipients, the status lifecycle and the send-out itself.
package outreach

import (
	"errors"

	"github.com/nexustechhub/nexus-api/internal/models"
)

var (
	ErrCampaignNotFound = errors.New("campaign not found")
	ErrMessageNotFound  = errors.New("message not found")

	ErrInvalidInput         = errors.New("invalid input")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrActionNotAllowed     = errors.New("action not allowed")
	ErrUnknownAction        = errors.New("unknown action")
	ErrScheduleOptions      = errors.New("scheduleOptions is required to schedule a campaign")
	ErrCampaignActive       = errors.New("cannot delete a campaign that is scheduled or in progress")
	ErrDuplicateMessage     = errors.New("a message for this channel already exists in this campaign")
	ErrCampaignCompleted    = errors.New("cannot add recipients to a completed campaign")
	ErrCampaignInProgress   = errors.New("cannot remove recipients from a campaign in progress. Pause or stop the campaign first")
	ErrRecipientIDsRequired = errors.New("recipientIds must be a non-empty array")
)

// IsNotFound reports whether err should surface as 404.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCampaignNotFound) || errors.Is(err, ErrMessageNotFound)
}

// IsBadRequest reports whether err is the caller's fault (400).
func IsBadRequest(err error) bool {
	for _, target := range []error{
		ErrInvalidInput, ErrInvalidTransition, ErrActionNotAllowed, ErrUnknownAction,
		ErrScheduleOptions, ErrCampaignActive, ErrDuplicateMessage, ErrCampaignCompleted,
		ErrCampaignInProgress, ErrRecipientIDsRequired,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Statuses lists every campaign status.
var Statuses = []string{
	models.CampaignDraft, models.CampaignScheduled, models.CampaignInProgress,
	models.CampaignPaused, models.CampaignStopped, models.CampaignCompleted,
}

// Channels lists the supported outreach channels.
var Channels = []string{models.ChannelEmail, models.ChannelWhatsApp}

// transitions is the set of status changes an update may make.
var transitions = map[string][]string{
	models.CampaignDraft:      {models.CampaignScheduled, models.CampaignInProgress, models.CampaignStopped},
	models.CampaignScheduled:  {models.CampaignInProgress, models.CampaignPaused, models.CampaignStopped, models.CampaignCompleted},
	models.CampaignInProgress: {models.CampaignPaused, models.CampaignStopped, models.CampaignCompleted},
	models.CampaignPaused:     {models.CampaignScheduled, models.CampaignStopped, models.CampaignCompleted},
	models.CampaignStopped:    {models.CampaignDraft, models.CampaignScheduled},
	models.CampaignCompleted:  {models.CampaignDraft},
}

// CanTransition reports whether a campaign may move from one status to
// another. Staying in the same status is always allowed.
func CanTransition(from, to string) bool {
	if from == to {
		return true
	}
	return contains(transitions[from], to)
}

// Campaign actions.
const (
	ActionSchedule = "schedule"
	ActionExecute  = "execute"
	ActionPause    = "pause"
	ActionResume   = "resume"
	ActionStop     = "stop"
)

type actionRule struct {
	from []string
	to   string
}

var actions = map[string]actionRule{
	ActionSchedule: {from: []string{models.CampaignDraft, models.CampaignPaused, models.CampaignStopped}, to: models.CampaignScheduled},
	ActionExecute:  {from: []string{models.CampaignDraft, models.CampaignPaused, models.CampaignScheduled}, to: models.CampaignInProgress},
	ActionPause:    {from: []string{models.CampaignScheduled, models.CampaignInProgress}, to: models.CampaignPaused},
	ActionResume:   {from: []string{models.CampaignPaused}, to: models.CampaignScheduled},
	ActionStop:     {from: []string{models.CampaignScheduled, models.CampaignInProgress, models.CampaignPaused}, to: models.CampaignStopped},
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
