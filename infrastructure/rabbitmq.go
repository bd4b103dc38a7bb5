package infrastructure

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ReportJob asks the worker to generate the final report for a session.
// Generation is idempotent, so redelivery is harmless.
type ReportJob struct {
	SessionID uint `json:"session_id"`
}

type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
}

func NewRabbitMQ(url string) *RabbitMQ {
	conn, err := amqp.Dial(url)
	if err != nil {
		log.Fatalf("failed to connect to RabbitMQ: %v", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("failed to open channel: %v", err)
	}

	q, err := ch.QueueDeclare(
		"report_queue", // queue name
		true,           // durable
		false,          // delete when unused
		false,          // exclusive
		false,          // no-wait
		nil,            // args
	)
	if err != nil {
		log.Fatalf("failed to declare queue: %v", err)
	}

	log.Println("✅ Connected to RabbitMQ and declared queue")

	return &RabbitMQ{conn: conn, channel: ch, queue: q}
}

func (r *RabbitMQ) PublishReportJob(job ReportJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return r.channel.PublishWithContext(
		ctx,
		"",           // exchange
		r.queue.Name, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

// ConsumeReportJobs registers a background consumer for report jobs.
func (r *RabbitMQ) ConsumeReportJobs(handler func(ReportJob)) {
	msgs, err := r.channel.Consume(
		r.queue.Name,
		"",
		true,  // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		log.Fatalf("failed to register consumer: %v", err)
	}

	go func() {
		for d := range msgs {
			var job ReportJob
			if err := json.Unmarshal(d.Body, &job); err != nil {
				log.Printf("invalid report job format: %v", err)
				continue
			}
			handler(job)
		}
	}()
}
