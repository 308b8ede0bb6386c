package service

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// DomainNotifier broadcasts domain events for downstream consumers
// (mailers, dashboards). Publication is fire-and-forget.
type DomainNotifier interface {
	PointsAwarded(userID, activityID uint, points int, reference string)
	RedemptionCreated(userID, rewardID, redemptionID uint)
}

type natsNotifier struct {
	conn        *nats.Conn
	subjectBase string
	logger      zerolog.Logger
}

// NewNATSNotifier constructs a notifier publishing on <base>.points.awarded
// and <base>.redemption.created subjects.
func NewNATSNotifier(conn *nats.Conn, channelBase string, logger zerolog.Logger) DomainNotifier {
	base := strings.ReplaceAll(strings.TrimSpace(channelBase), ":", ".")
	if base == "" {
		base = "engage"
	}

	return &natsNotifier{
		conn:        conn,
		subjectBase: base,
		logger:      logger.With().Str("component", "nats_notifier").Logger(),
	}
}

type pointsAwardedEvent struct {
	UserID     uint      `json:"user_id"`
	ActivityID uint      `json:"activity_id"`
	Points     int       `json:"points"`
	Reference  string    `json:"reference"`
	SentAt     time.Time `json:"sent_at"`
}

type redemptionCreatedEvent struct {
	UserID       uint      `json:"user_id"`
	RewardID     uint      `json:"reward_id"`
	RedemptionID uint      `json:"redemption_id"`
	SentAt       time.Time `json:"sent_at"`
}

func (n *natsNotifier) PointsAwarded(userID, activityID uint, points int, reference string) {
	n.publish(n.subjectBase+".points.awarded", pointsAwardedEvent{
		UserID:     userID,
		ActivityID: activityID,
		Points:     points,
		Reference:  reference,
		SentAt:     time.Now().UTC(),
	})
}

func (n *natsNotifier) RedemptionCreated(userID, rewardID, redemptionID uint) {
	n.publish(n.subjectBase+".redemption.created", redemptionCreatedEvent{
		UserID:       userID,
		RewardID:     rewardID,
		RedemptionID: redemptionID,
		SentAt:       time.Now().UTC(),
	})
}

func (n *natsNotifier) publish(subject string, payload interface{}) {
	if n.conn == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		n.logger.Error().Err(err).Str("subject", subject).Msg("failed to encode domain event")
		return
	}

	if err := n.conn.Publish(subject, data); err != nil {
		n.logger.Warn().Err(err).Str("subject", subject).Msg("failed to publish domain event")
	}
}
