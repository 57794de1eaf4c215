package rabbit

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// Logger reports connection and consumer events. Services replace it at
// startup.
var Logger = zap.NewNop()

// ConnectWithRetry will repeatedly try to connect to a rabbit instance at the
// specified intervals
func ConnectWithRetry(uri string, retryInterval time.Duration) (conn *amqp.Connection) {
	var err error
	for {
		conn, err = amqp.Dial(uri)
		if err == nil {
			Logger.Info("Established connection to rabbit")
			return conn
		}
		Logger.Warn("Failed to connect to rabbit - retrying", zap.Error(err))
		time.Sleep(retryInterval)
	}
}

// ConnectionWatcher returns a func reporting whether conn is still open. The
// func is safe to call from concurrent health checks.
func ConnectionWatcher(conn *amqp.Connection) func() bool {
	return watchClose(conn.NotifyClose(make(chan *amqp.Error, 1)))
}

func watchClose(closed <-chan *amqp.Error) func() bool {
	var lost atomic.Bool
	return func() bool {
		if lost.Load() {
			return false
		}
		select {
		case err := <-closed:
			// A clean shutdown closes the channel without an error.
			if lost.CompareAndSwap(false, true) && err != nil {
				Logger.Warn("Lost connection to rabbit", zap.Error(err))
			}
			return false
		default:
			return true
		}
	}
}

// Channel is the part of an amqp channel used to declare exchanges and
// publish to them.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// DeclareExchangeWithDefaults attempts to declare a given named exchange with
// a set of default values.
func DeclareExchangeWithDefaults(exchange string, ch Channel) error {
	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("failed to declare exchange [%s]: %v", exchange, err)
	}
	return nil
}

// PublishJSON declares exchange and publishes body to it under topic as a
// persistent JSON message.
func PublishJSON(exchange, topic string, body []byte, ch Channel) error {
	if err := DeclareExchangeWithDefaults(exchange, ch); err != nil {
		return err
	}
	if err := ch.Publish(
		exchange,
		topic,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		}); err != nil {
		return fmt.Errorf("failed to publish to [%s] with topic [%s]: %v", exchange, topic, err)
	}
	return nil
}

// StartSimpleTopicConsumer attempts to start consuming from the given topic
// and exchange with a supplied processing function. If successful it returns
// the context cancel function for the go routine it spawns.
func StartSimpleTopicConsumer(exchange, topic, queueName string, conn *amqp.Connection, work func([]byte)) (func(), error) {
	if conn == nil {
		return nil, errors.New("No rabbit connection supplied")
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}

	if err = DeclareExchangeWithDefaults(exchange, ch); err != nil {
		return nil, err
	}

	q, err := ch.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		return nil, err
	}

	if err = ch.QueueBind(q.Name, topic, exchange, false, nil); err != nil {
		return nil, err
	}

	msgs, err := ch.Consume(q.Name, "", true, false, false, false, nil)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		for {
			select {
			case <-ctx.Done():
				Logger.Info("Canceling consumer", zap.String("queue", q.Name))
				ch.Close()
				return
			case d, ok := <-msgs:
				if !ok {
					Logger.Warn("Consumer channel closed", zap.String("queue", q.Name))
					return
				}
				work(d.Body)
			}
		}
	}()
	Logger.Info("Started consumer", zap.String("queue", q.Name), zap.String("topic", topic))

	return cancel, nil
}
