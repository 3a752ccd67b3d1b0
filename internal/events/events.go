// Package events publishes and consumes domain events over the message bus.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jobportal/apiserver/internal/logging"
	"github.com/jobportal/apiserver/internal/mq"
	"github.com/jobportal/apiserver/types"
)

// ApplicationChannel carries ApplicationSubmitted events.
const ApplicationChannel = "application-events"

const (
	attrEventType             = "event-type"
	eventApplicationSubmitted = "application.submitted"
)

// ApplicationSubmitted is emitted after a job seeker applies to a posting.
type ApplicationSubmitted struct {
	ApplicationID string    `json:"application_id"`
	JobPostingID  string    `json:"job_posting_id"`
	JobTitle      string    `json:"job_title"`
	EmployerID    string    `json:"employer_id"`
	JobSeekerID   string    `json:"job_seeker_id"`
	HasResume     bool      `json:"has_resume"`
	AppliedAt     time.Time `json:"applied_at"`
}

// Publisher serializes events onto a bus.
type Publisher struct {
	bus *mq.MQ
}

func NewPublisher(bus *mq.MQ) *Publisher {
	return &Publisher{bus: bus}
}

// ApplicationSubmitted publishes evt and returns the broker message id.
func (p *Publisher) ApplicationSubmitted(ctx context.Context, evt ApplicationSubmitted) (string, error) {
	data, err := json.Marshal(evt)
	if err != nil {
		return "", fmt.Errorf("encode application event: %w", err)
	}
	return p.bus.Publish(ctx, ApplicationChannel, data, map[string]string{
		mq.AttrContentType: "application/json",
		attrEventType:      eventApplicationSubmitted,
	})
}

// NewApplicationSubmitted builds the event for an application on jp.
func NewApplicationSubmitted(app types.Application, jp types.JobPosting) ApplicationSubmitted {
	return ApplicationSubmitted{
		ApplicationID: app.ID,
		JobPostingID:  jp.ID,
		JobTitle:      jp.Title,
		EmployerID:    jp.EmployerID,
		JobSeekerID:   app.JobSeekerID,
		HasResume:     app.ResumeKey != nil,
		AppliedAt:     app.AppliedAt,
	}
}

// ApplicationHandler handles a decoded ApplicationSubmitted event.
type ApplicationHandler func(ctx context.Context, evt ApplicationSubmitted) error

// SubscribeApplications decodes events from the application channel and
// passes them to handle until ctx is done. Malformed payloads are logged and
// acknowledged so they are not redelivered.
func SubscribeApplications(ctx context.Context, bus *mq.MQ, log logging.Logger, handle ApplicationHandler) error {
	return bus.Subscribe(ctx, ApplicationChannel, func(ctx context.Context, msg mq.Message) error {
		if t := msg.Attributes[attrEventType]; t != "" && t != eventApplicationSubmitted {
			log.Warn(ctx, "skipping unknown event", "id", msg.ID, "type", t)
			return nil
		}
		var evt ApplicationSubmitted
		if err := json.Unmarshal(msg.Data, &evt); err != nil {
			log.Warn(ctx, "dropping malformed event", "id", msg.ID, "error", err)
			return nil
		}
		return handle(ctx, evt)
	})
}

// Notifier logs a notification line for every submitted application.
type Notifier struct {
	log logging.Logger
}

func NewNotifier(log logging.Logger) *Notifier {
	return &Notifier{log: log}
}

func (n *Notifier) Handle(ctx context.Context, evt ApplicationSubmitted) error {
	n.log.Info(ctx, "new application",
		"application_id", evt.ApplicationID,
		"job_posting_id", evt.JobPostingID,
		"job_title", evt.JobTitle,
		"employer_id", evt.EmployerID,
		"has_resume", evt.HasResume,
	)
	return nil
}
