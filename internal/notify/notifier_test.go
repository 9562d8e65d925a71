package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monstter/backoffice/internal/platform/mail"
	"github.com/monstter/backoffice/internal/serviceorders"
)

type captureSender struct {
	msgs   []mail.Message
	failTo string
}

func (c *captureSender) Send(_ context.Context, msg mail.Message) error {
	if msg.To == c.failTo {
		return errors.New("queue unavailable")
	}
	c.msgs = append(c.msgs, msg)
	return nil
}

func sampleOrder() serviceorders.Order {
	end := time.Date(2025, 10, 15, 14, 0, 0, 0, time.UTC)
	return serviceorders.Order{
		OSNumber:      "OS-2025-0007",
		Status:        serviceorders.StatusSent,
		ClientName:    "ACME <Ltda>",
		ClientEmail:   "contato@acme.com",
		ServiceType:   "Consultoria Protheus",
		StartDateTime: time.Date(2025, 10, 15, 9, 30, 0, 0, time.UTC),
		EndDateTime:   &end,
		TotalHours:    decimal.RequireFromString("4.5"),
	}
}

func newNotifier(t *testing.T, sender mail.Sender, manager string) *OrderNotifier {
	t.Helper()
	n, err := NewOrderNotifier(sender, manager, slog.New(slog.NewTextHandler(io.Discard, nil)), time.UTC)
	require.NoError(t, err)
	n.now = func() time.Time { return time.Date(2025, 10, 16, 8, 0, 0, 0, time.UTC) }
	return n
}

func TestOrderSentEmailsClientAndManager(t *testing.T) {
	sender := &captureSender{}
	n := newNotifier(t, sender, "gestor@monstter.com.br")

	require.NoError(t, n.OrderSent(context.Background(), sampleOrder()))
	require.Len(t, sender.msgs, 2)

	client := sender.msgs[0]
	assert.Equal(t, "contato@acme.com", client.To)
	assert.Equal(t, "Ordem de Serviço #OS-2025-0007", client.Subject)
	assert.Contains(t, client.HTML, "15 de outubro de 2025 às 09:30")
	assert.Contains(t, client.HTML, "15 de outubro de 2025 às 14:00")
	assert.Contains(t, client.HTML, "4,50")
	assert.Contains(t, client.HTML, "Enviada")
	assert.Contains(t, client.HTML, "ACME &lt;Ltda&gt;")
	assert.Contains(t, client.HTML, "Não informada")

	manager := sender.msgs[1]
	assert.Equal(t, "gestor@monstter.com.br", manager.To)
	assert.Equal(t, "Nova OS Enviada - #OS-2025-0007", manager.Subject)
	assert.Contains(t, manager.HTML, "16/10/2025")
}

func TestOrderSentWithoutManagerOrEnd(t *testing.T) {
	sender := &captureSender{}
	n := newNotifier(t, sender, "")
	order := sampleOrder()
	order.EndDateTime = nil

	require.NoError(t, n.OrderSent(context.Background(), order))
	require.Len(t, sender.msgs, 1)
	assert.Contains(t, sender.msgs[0].HTML, "Não informado")
}

func TestOrderSentJoinsFailures(t *testing.T) {
	sender := &captureSender{failTo: "contato@acme.com"}
	n := newNotifier(t, sender, "gestor@monstter.com.br")

	err := n.OrderSent(context.Background(), sampleOrder())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client email")
	require.Len(t, sender.msgs, 1)
	assert.Equal(t, "gestor@monstter.com.br", sender.msgs[0].To)
}

func TestNewOrderNotifierRequiresSender(t *testing.T) {
	_, err := NewOrderNotifier(nil, "", nil, nil)
	assert.Error(t, err)
}
