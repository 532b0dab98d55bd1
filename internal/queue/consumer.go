package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StartAuditConsumer connects to RabbitMQ, declares the pass.issued and
// entry.redeemed queues (durable), and appends every event to
// logs/gate.log in a single-line, human-friendly format for door-staff
// shift reviews. It runs a reconnect loop with backoff and keeps the server
// operating through broker outages; a message that cannot be processed is
// rejected without requeue to avoid tight redelivery loops.
func StartAuditConsumer() error {
	url := brokerURL()

	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("audit-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn); err != nil {
			log.Printf("audit-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
			continue
		}
	}
}

func consumeLoop(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("audit-consumer: set QoS failed: %v", err)
	}

	for _, name := range []string{passIssuedQueue, entryRedeemedQueue} {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", name, err)
		}
	}

	issued, err := ch.Consume(passIssuedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", passIssuedQueue, err)
	}
	redeemed, err := ch.Consume(entryRedeemedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", entryRedeemedQueue, err)
	}

	for {
		select {
		case d, ok := <-issued:
			if !ok {
				return errors.New("pass.issued deliveries channel closed")
			}
			handle(d, formatIssued)
		case d, ok := <-redeemed:
			if !ok {
				return errors.New("entry.redeemed deliveries channel closed")
			}
			handle(d, formatRedeemed)
		}
	}
}

func handle(d amqp.Delivery, format func([]byte) (string, error)) {
	line, err := format(d.Body)
	if err != nil {
		log.Printf("audit-consumer: handle message failed: %v", err)
		_ = d.Nack(false, false)
		return
	}
	if err := appendAuditLine(line); err != nil {
		log.Printf("audit-consumer: write audit line failed: %v", err)
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}

func formatIssued(body []byte) (string, error) {
	var ev PassIssuedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return "", fmt.Errorf("unmarshal pass.issued: %w", err)
	}
	return fmt.Sprintf("[%s] Pass issued | pass_id=%d | uuid=%s | user_id=%d | event_id=%d | event=%q | entries=%d\n",
		ev.IssuedAt, ev.PassID, ev.PassUUID, ev.UserID, ev.EventID, ev.EventName, ev.EntryCount), nil
}

func formatRedeemed(body []byte) (string, error) {
	var ev EntryRedeemedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return "", fmt.Errorf("unmarshal entry.redeemed: %w", err)
	}
	return fmt.Sprintf("[%s] Entry redeemed | uuid=%s | entry_id=%d | label=%q | event_id=%d | scanned_by=%d\n",
		ev.RedeemedAt, ev.PassUUID, ev.EntryID, ev.EntryLabel, ev.EventID, ev.ScannedBy), nil
}

func appendAuditLine(line string) error {
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	fpath := filepath.Join("logs", "gate.log")
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
