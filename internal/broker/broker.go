// Package broker inspects RabbitMQ queue depth and consumer counts by
// passively declaring the queues over AMQP. The orchestrator only
// observes; it never publishes, consumes, or mutates queue state.
package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"match-scraper-ops/internal/errdefs"
	"match-scraper-ops/internal/model"
)

// Admin is the broker surface the checks and the drain monitor consume.
type Admin interface {
	// Ping verifies the broker accepts AMQP connections.
	Ping(ctx context.Context) error
	// Snapshot returns pending and consumer counts for the named
	// queues at one point in time. A queue that does not exist is an
	// error naming it.
	Snapshot(ctx context.Context, queues []string) (model.QueueSnapshot, error)
}

// AMQP inspects a RabbitMQ broker over a short-lived connection per
// call. Stateless so a broker restart between polls needs no recovery
// logic here.
type AMQP struct {
	URL string
	// DialTimeout bounds connection setup; zero means 5s.
	DialTimeout time.Duration
}

func (a *AMQP) timeout() time.Duration {
	if a.DialTimeout > 0 {
		return a.DialTimeout
	}
	return 5 * time.Second
}

func (a *AMQP) dial() (*amqp.Connection, error) {
	return amqp.DialConfig(a.URL, amqp.Config{Dial: amqp.DefaultDial(a.timeout())})
}

func (a *AMQP) Ping(ctx context.Context) error {
	conn, err := a.dial()
	if err != nil {
		return errdefs.External("dial broker", err)
	}
	return conn.Close()
}

func (a *AMQP) Snapshot(ctx context.Context, queues []string) (model.QueueSnapshot, error) {
	snap := model.QueueSnapshot{Pending: make(map[string]int, len(queues)), TakenAt: time.Now()}

	conn, err := a.dial()
	if err != nil {
		return snap, errdefs.External("dial broker", err)
	}
	defer conn.Close()

	for _, name := range queues {
		// A failed passive declare poisons its channel, so each queue
		// gets a fresh one.
		ch, err := conn.Channel()
		if err != nil {
			return snap, errdefs.External("open channel", err)
		}
		q, err := ch.QueueDeclarePassive(name, false, false, false, false, nil)
		if err != nil {
			var ae *amqp.Error
			if errors.As(err, &ae) && ae.Code == amqp.NotFound {
				return snap, errdefs.Probe("inspect queue", fmt.Errorf("queue %q not declared", name))
			}
			return snap, errdefs.External(fmt.Sprintf("inspect queue %s", name), err)
		}
		snap.Pending[name] = q.Messages
		snap.Consumers += q.Consumers
		ch.Close()
	}
	return snap, nil
}
