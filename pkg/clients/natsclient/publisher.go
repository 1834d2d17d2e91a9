// Package natsclient publishes emitted matches as NATS events so downstream
// consumers (notifications, analytics) can react to new recommendations.
package natsclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-match/pkg/db"
)

// DefaultSubjectPrefix is used when Config.SubjectPrefix is empty.
// Matches are published to <prefix>.<volunteer_id>.
const DefaultSubjectPrefix = "match.emitted"

// Config holds NATS connection settings
type Config struct {
	URL           string        // nats://localhost:4222
	Name          string        // client name for identification
	SubjectPrefix string        // subject matches are published under
	ReconnectWait time.Duration // time between reconnect attempts
	MaxReconnects int           // max reconnect attempts (-1 for infinite)
}

// DefaultConfig returns connection defaults for a local server
func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		Name:          "volunteer-match",
		SubjectPrefix: DefaultSubjectPrefix,
		ReconnectWait: 2 * time.Second,
		MaxReconnects: -1,
	}
}

// conn is the subset of *nats.Conn the publisher needs
type conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Drain() error
}

// Publisher is a MatchStore that emits each match as a JSON event
type Publisher struct {
	conn   conn
	prefix string
	logger *zap.Logger
}

var _ db.MatchStore = (*Publisher)(nil)

// NewPublisher connects to NATS and returns a ready publisher.
// It returns an error if the initial connection fails.
func NewPublisher(cfg Config, logger *zap.Logger) (*Publisher, error) {
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	logger.Debug("Connected to NATS", zap.String("url", nc.ConnectedUrl()))
	return newPublisher(nc, cfg.SubjectPrefix, logger), nil
}

func newPublisher(c conn, prefix string, logger *zap.Logger) *Publisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &Publisher{
		conn:   c,
		prefix: strings.TrimSuffix(prefix, "."),
		logger: logger,
	}
}

// Subject returns the subject a volunteer's matches are published to
func (p *Publisher) Subject(volunteerID string) string {
	return p.prefix + "." + subjectToken(volunteerID)
}

// SaveMatches publishes every match and flushes the connection so delivery
// failures surface before returning
func (p *Publisher) SaveMatches(ctx context.Context, matches []db.Match) error {
	if len(matches) == 0 {
		return nil
	}

	for _, m := range matches {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("failed to marshal match %s: %w", m.ID, err)
		}
		if err := p.conn.Publish(p.Subject(m.VolunteerID), data); err != nil {
			return fmt.Errorf("failed to publish match %s: %w", m.ID, err)
		}
	}

	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush nats connection: %w", err)
	}

	p.logger.Debug("Published matches", zap.Int("count", len(matches)), zap.String("prefix", p.prefix))
	return nil
}

// Close drains pending messages and closes the connection
func (p *Publisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn("Failed to drain NATS connection", zap.Error(err))
	}
}

// subjectToken replaces characters that carry meaning in NATS subjects
func subjectToken(s string) string {
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\r', '\n':
			return '_'
		}
		return r
	}, s)
}
