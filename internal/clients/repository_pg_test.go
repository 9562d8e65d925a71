package clients

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monstter/backoffice/internal/money"
	"github.com/monstter/backoffice/internal/partners"
	"github.com/monstter/backoffice/internal/platform/db"
	"github.com/monstter/backoffice/internal/shared"
)

// openTestPool connects to PG_TEST_DSN and applies migrations, skipping without it.
func openTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("PG_TEST_DSN")
	if dsn == "" {
		t.Skip("PG_TEST_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	pool, err := db.New(ctx, dsn, db.PoolOptions{MaxConns: 2})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, db.Migrate(ctx, pool))
	return pool
}

func TestDeleteReferencedRows(t *testing.T) {
	pool := openTestPool(t)
	ctx := t.Context()

	clientRepo := NewRepository(pool)
	partnerRepo := partners.NewRepository(pool)

	client, err := clientRepo.Create(ctx, Input{
		Name:        "Cliente Removido",
		Email:       "ti@removido.com.br",
		BillingMode: money.ModeHourly,
		Status:      StatusActive,
	})
	require.NoError(t, err)
	partner, err := partnerRepo.Create(ctx, partners.Input{
		UserID:      time.Now().UnixNano(),
		CompanyName: "Parceiro Referenciado",
		Email:       "contato@parceiro.com.br",
		PayMode:     money.ModeFixed,
		Status:      partners.StatusActive,
	})
	require.NoError(t, err)

	var orderID int64
	err = pool.QueryRow(ctx, `INSERT INTO service_orders
		(os_number, status, partner_id, client_id, client_name, client_email, service_type, start_date_time, total_hours)
		VALUES ($1, 'closed', $2, $3, 'Cliente Removido', 'ti@removido.com.br', 'Suporte', NOW(), '2.00')
		RETURNING id`, "OS-TEST-"+time.Now().Format("150405.000000000"), partner.ID, client.ID).Scan(&orderID)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), "DELETE FROM service_orders WHERE id = $1", orderID)
		_, _ = pool.Exec(context.Background(), "DELETE FROM partners WHERE id = $1", partner.ID)
	})

	require.NoError(t, clientRepo.Delete(ctx, client.ID))

	var clientID *int64
	var clientName string
	require.NoError(t, pool.QueryRow(ctx, "SELECT client_id, client_name FROM service_orders WHERE id = $1", orderID).Scan(&clientID, &clientName))
	assert.Nil(t, clientID)
	assert.Equal(t, "Cliente Removido", clientName)

	err = partnerRepo.Delete(ctx, partner.ID)
	assert.ErrorIs(t, err, shared.ErrConflict)
}
