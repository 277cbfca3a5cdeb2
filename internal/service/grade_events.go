package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-gradebook/internal/dto"
	"github.com/noah-isme/gema-gradebook/internal/observability"
)

// GradeEventType names the event emitted after a submission is graded.
const GradeEventType = "submission.graded"

// GradeEventPublisher fans grade events out to downstream consumers.
type GradeEventPublisher interface {
	PublishGraded(ctx context.Context, event dto.GradeEvent) error
}

type gradeEventPublisher struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	nodeID       string
	logger       zerolog.Logger
}

// NewGradeEventPublisher builds a publisher over Redis pub/sub and NATS.
// Either transport may be nil; an empty channelBase disables both.
func NewGradeEventPublisher(redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) GradeEventPublisher {
	redisChannel := ""
	natsSubject := ""
	if channelBase != "" {
		redisChannel = channelBase + ":grades"
		natsSubject = strings.ReplaceAll(channelBase, ":", ".") + ".grades"
	}

	return &gradeEventPublisher{
		redis:        redisClient,
		redisChannel: redisChannel,
		nats:         natsConn,
		natsSubject:  natsSubject,
		nodeID:       uuid.NewString(),
		logger:       logger.With().Str("component", "grade_event_publisher").Logger(),
	}
}

func (p *gradeEventPublisher) PublishGraded(ctx context.Context, event dto.GradeEvent) error {
	event.Type = GradeEventType
	event.Source = p.nodeID

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	var errs []error
	if p.redis != nil && p.redisChannel != "" {
		if err := p.redis.Publish(ctx, p.redisChannel, payload).Err(); err != nil {
			observability.GradeEventsPublished().WithLabelValues("redis", "error").Inc()
			errs = append(errs, err)
		} else {
			observability.GradeEventsPublished().WithLabelValues("redis", "ok").Inc()
		}
	}

	if p.nats != nil && p.natsSubject != "" {
		if err := p.nats.Publish(p.natsSubject, payload); err != nil {
			observability.GradeEventsPublished().WithLabelValues("nats", "error").Inc()
			errs = append(errs, err)
		} else {
			observability.GradeEventsPublished().WithLabelValues("nats", "ok").Inc()
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	p.logger.Debug().Uint("submission_id", event.SubmissionID).Msg("grade event published")
	return nil
}
