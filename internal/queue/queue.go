package queue

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
	"github.com/streadway/amqp"
)

// DispatchQueue is the RabbitMQ queue carrying due entry ids from the
// sweep to the delivery consumer.
const DispatchQueue = "email_dispatch"

type Job struct {
	QueueEntryID string `json:"queue_entry_id"`
}

// Publisher hands a due queue entry id to the delivery pipeline.
type Publisher interface {
	Publish(entryID string) error
}

type AMQPQueue struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	q    amqp.Queue
}

func Dial(url string) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	q, err := ch.QueueDeclare(
		DispatchQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &AMQPQueue{conn: conn, ch: ch, q: q}, nil
}

func (a *AMQPQueue) Publish(entryID string) error {
	body, err := json.Marshal(Job{QueueEntryID: entryID})
	if err != nil {
		return err
	}
	return a.ch.Publish(
		"",
		a.q.Name,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

// Consume blocks, feeding each job to the handler. Malformed jobs are
// acked and dropped; handler errors are logged and the job is acked
// anyway, since the entry has already transitioned and must not be
// delivered twice.
func (a *AMQPQueue) Consume(handler func(entryID string) error) error {
	msgs, err := a.ch.Consume(
		a.q.Name,
		"",
		false, // autoAck off for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	for d := range msgs {
		var job Job
		if err := json.Unmarshal(d.Body, &job); err != nil {
			log.Warn().Err(err).Msg("invalid dispatch job, dropping")
			d.Ack(false)
			continue
		}

		if err := handler(job.QueueEntryID); err != nil {
			log.Error().Err(err).Str("entry_id", job.QueueEntryID).Msg("dispatch job failed")
		}
		d.Ack(false)
	}
	return nil
}

func (a *AMQPQueue) Close() {
	a.ch.Close()
	a.conn.Close()
}

var _ Publisher = (*AMQPQueue)(nil)
