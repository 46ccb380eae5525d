// Package mailer sends order receipts over SMTP.
package mailer

import (
	"bytes"
	"context"
	"html/template"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"coffeeshop/internal/audit"
	"coffeeshop/internal/config"
	"coffeeshop/internal/models"
)

var receiptTmpl = template.Must(template.New("receipt").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>Order {{.ID}}</title></head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Thanks for your order, {{.CustomerName}}!</h2>
		<p>Order <strong>{{.ID}}</strong> is {{.Status}}.</p>
		<table style="width: 100%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background-color: #f0f0f0;">
					<th style="padding: 10px; text-align: left;">Product</th>
					<th style="padding: 10px; text-align: left;">Quantity</th>
					<th style="padding: 10px; text-align: left;">Price</th>
					<th style="padding: 10px; text-align: left;">Subtotal</th>
				</tr>
			</thead>
			<tbody>
			{{- range .Items}}
				<tr>
					<td>{{.Name}}</td>
					<td>{{.Quantity}}</td>
					<td>${{.Price.StringFixed 2}}</td>
					<td>${{.Subtotal.StringFixed 2}}</td>
				</tr>
			{{- end}}
			</tbody>
			<tfoot>
				<tr>
					<td colspan="3" style="padding: 10px; text-align: right; font-weight: bold;">Total:</td>
					<td style="padding: 10px; font-weight: bold;">${{.Total.StringFixed 2}}</td>
				</tr>
			</tfoot>
		</table>
		<p>Shipping to {{.Address}}, {{.City}} {{.Zip}}.</p>
	</div>
</body>
</html>`))

// SendFunc delivers a message. The default dials the configured SMTP server.
type SendFunc func(ctx context.Context, msg *mail.Msg) error

type Mailer struct {
	from string
	send SendFunc
	log  *zap.Logger
}

// New builds a mailer for cfg. send may be nil to use a real SMTP client.
func New(cfg config.SMTPConfig, send SendFunc, log *zap.Logger) (*Mailer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if send == nil {
		opts := []mail.Option{
			mail.WithPort(cfg.Port),
			mail.WithTLSPolicy(mail.TLSOpportunistic),
			mail.WithTimeout(10 * time.Second),
		}
		if cfg.User != "" {
			opts = append(opts,
				mail.WithSMTPAuth(mail.SMTPAuthPlain),
				mail.WithUsername(cfg.User),
				mail.WithPassword(cfg.Password))
		}
		client, err := mail.NewClient(cfg.Host, opts...)
		if err != nil {
			return nil, err
		}
		send = func(ctx context.Context, msg *mail.Msg) error {
			return client.DialAndSendWithContext(ctx, msg)
		}
	}
	return &Mailer{from: cfg.From, send: send, log: log}, nil
}

// Receipt renders the confirmation message for order.
func (m *Mailer) Receipt(order models.Order) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, err
	}
	if err := msg.To(order.Email); err != nil {
		return nil, err
	}
	msg.Subject("Your coffee order " + order.ID)

	var body bytes.Buffer
	if err := receiptTmpl.Execute(&body, order); err != nil {
		return nil, err
	}
	msg.SetBodyString(mail.TypeTextHTML, body.String())
	return msg, nil
}

func (m *Mailer) SendReceipt(ctx context.Context, order models.Order) error {
	msg, err := m.Receipt(order)
	if err != nil {
		return err
	}
	m.log.Info("sending receipt", zap.String("order_id", order.ID), zap.String("to", order.Email))
	return m.send(ctx, msg)
}

// Subscribe mails a receipt for every placed order recorded on trail.
func (m *Mailer) Subscribe(trail *audit.Trail) error {
	return trail.Subscribe(audit.OrderPlaced, func(e audit.Event) {
		if e.Order == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := m.SendReceipt(ctx, *e.Order); err != nil {
			m.log.Error("receipt not sent", zap.String("order_id", e.Order.ID), zap.Error(err))
		}
	})
}
