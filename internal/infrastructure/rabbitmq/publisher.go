package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"comanda/internal/domain"
)

// ReceiptPublisher pushes receipt messages to a direct exchange. Delivery
// is best-effort: callers treat a publish error as a warning, never as a
// failure of the operation that produced the receipt.
type ReceiptPublisher struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	logger   *zap.Logger
}

type receiptMessage struct {
	OrderID     uint64             `json:"orderId"`
	OrderNumber string             `json:"orderNumber"`
	Destination string             `json:"destination"`
	TotalAmount float64            `json:"totalAmount"`
	Lines       []receiptLine      `json:"lines"`
	CompletedAt time.Time          `json:"completedAt"`
}

type receiptLine struct {
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	Subtotal  float64 `json:"subtotal"`
}

func NewReceiptPublisher(url, exchange string, logger *zap.Logger) (*ReceiptPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dialing rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening channel: %w", err)
	}

	err = channel.ExchangeDeclare(exchange, "direct", true, false, false, false, nil)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declaring exchange %s: %w", exchange, err)
	}

	return &ReceiptPublisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		logger:   logger,
	}, nil
}

// Send publishes the receipt for a completed order. The caller bounds ctx;
// the publish never outlives it.
func (p *ReceiptPublisher) Send(ctx context.Context, order *domain.Order, destination string) error {
	msg := receiptMessage{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Destination: destination,
		TotalAmount: order.TotalAmount,
		Lines:       make([]receiptLine, 0, len(order.Lines)),
	}
	if order.CompletedAt != nil {
		msg.CompletedAt = *order.CompletedAt
	}
	for _, line := range order.Lines {
		msg.Lines = append(msg.Lines, receiptLine{
			Name:      line.NameSnapshot,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPriceSnapshot,
			Subtotal:  line.Subtotal,
		})
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling receipt: %w", err)
	}

	err = p.channel.PublishWithContext(ctx, p.exchange, "receipt.send", false, false, amqp091.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
	})
	if err != nil {
		p.logger.Warn("receipt publish failed",
			zap.String("orderNumber", order.OrderNumber),
			zap.Error(err))
		return fmt.Errorf("publishing receipt: %w", err)
	}

	p.logger.Debug("receipt published",
		zap.String("orderNumber", order.OrderNumber),
		zap.String("destination", destination))
	return nil
}

func (p *ReceiptPublisher) Close() error {
	if err := p.channel.Close(); err != nil {
		return err
	}
	return p.conn.Close()
}
