package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"ms-boxoffice/internal/models"
)

type Producer struct {
	Writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}
	return &Producer{Writer: writer}
}

func (p *Producer) Publish(topic string, key string, value []byte) error {
	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Topic: topic,
			Key:   []byte(key),
			Value: value,
		},
	)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}

// SalesFulfilledEvent is the payload streamed after a checkout session has
// been materialized into sales.
type SalesFulfilledEvent struct {
	SessionID  string        `json:"sessionId"`
	EventID    string        `json:"eventId"`
	BuyerEmail string        `json:"buyerEmail"`
	Sales      []models.Sale `json:"sales"`
	Timestamp  time.Time     `json:"timestamp"`
}

// PublishSalesFulfilled streams a fulfillment event keyed by session id.
func (p *Producer) PublishSalesFulfilled(topic string, evt SalesFulfilledEvent) error {
	value, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return p.Publish(topic, evt.SessionID, value)
}
