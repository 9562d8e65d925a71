// Package notify emails clients and the manager when a service order is sent.
package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/monstter/backoffice/internal/money"
	"github.com/monstter/backoffice/internal/platform/mail"
	"github.com/monstter/backoffice/internal/serviceorders"
	"github.com/monstter/backoffice/internal/shared"
	"github.com/monstter/backoffice/web"
)

type clientView struct {
	Order      serviceorders.Order
	ClientName string
	Start      string
	End        string
	Hours      string
}

type managerView struct {
	Order  serviceorders.Order
	SentOn string
}

// OrderNotifier renders order emails and hands them to a sender, usually the job queue.
type OrderNotifier struct {
	sender       mail.Sender
	managerEmail string
	client       *template.Template
	manager      *template.Template
	logger       *slog.Logger
	loc          *time.Location
	now          func() time.Time
}

// NewOrderNotifier parses the email templates. managerEmail may be empty.
func NewOrderNotifier(sender mail.Sender, managerEmail string, logger *slog.Logger, loc *time.Location) (*OrderNotifier, error) {
	if sender == nil {
		return nil, errors.New("notify: sender required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	clientTpl, err := template.ParseFS(web.Templates, "templates/email/order_sent_client.html")
	if err != nil {
		return nil, fmt.Errorf("notify: parse client template: %w", err)
	}
	managerTpl, err := template.ParseFS(web.Templates, "templates/email/order_sent_manager.html")
	if err != nil {
		return nil, fmt.Errorf("notify: parse manager template: %w", err)
	}
	return &OrderNotifier{
		sender:       sender,
		managerEmail: managerEmail,
		client:       clientTpl,
		manager:      managerTpl,
		logger:       logger.With(slog.String("module", "notify")),
		loc:          loc,
		now:          time.Now,
	}, nil
}

// OrderSent emails the order to the client and announces it to the manager. Both
// deliveries are attempted; their errors are joined.
func (n *OrderNotifier) OrderSent(ctx context.Context, order serviceorders.Order) error {
	var errs []error
	if order.ClientEmail != "" {
		if err := n.sendClient(ctx, order); err != nil {
			errs = append(errs, fmt.Errorf("client email: %w", err))
		}
	}
	if n.managerEmail != "" {
		if err := n.sendManager(ctx, order); err != nil {
			errs = append(errs, fmt.Errorf("manager email: %w", err))
		}
	}
	if len(errs) == 0 {
		n.logger.InfoContext(ctx, "order sent notifications queued", slog.String("os_number", order.OSNumber))
	}
	return errors.Join(errs...)
}

func (n *OrderNotifier) sendClient(ctx context.Context, order serviceorders.Order) error {
	view := clientView{
		Order:      order,
		ClientName: order.ClientName,
		Start:      shared.LongDateTime(order.StartDateTime.In(n.loc)),
		End:        "Não informado",
		Hours:      money.FormatNumber(order.TotalHours),
	}
	if order.EndDateTime != nil {
		view.End = shared.LongDateTime(order.EndDateTime.In(n.loc))
	}
	body, err := render(n.client, view)
	if err != nil {
		return err
	}
	return n.sender.Send(ctx, mail.Message{
		To:      order.ClientEmail,
		Subject: fmt.Sprintf("Ordem de Serviço #%s", order.OSNumber),
		HTML:    body,
	})
}

func (n *OrderNotifier) sendManager(ctx context.Context, order serviceorders.Order) error {
	body, err := render(n.manager, managerView{Order: order, SentOn: n.now().In(n.loc).Format("02/01/2006")})
	if err != nil {
		return err
	}
	return n.sender.Send(ctx, mail.Message{
		To:      n.managerEmail,
		Subject: fmt.Sprintf("Nova OS Enviada - #%s", order.OSNumber),
		HTML:    body,
	})
}

func render(tpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
