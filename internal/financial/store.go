package financial

import (
	"context"

	"github.com/monstter/backoffice/internal/clients"
	"github.com/monstter/backoffice/internal/partners"
	"github.com/monstter/backoffice/internal/serviceorders"
)

// Store provides the rows the aggregations read.
type Store interface {
	ClosedOrders(ctx context.Context, filter Filter) ([]serviceorders.Order, error)
	Clients(ctx context.Context, ids []int64) (map[int64]clients.Client, error)
	Partners(ctx context.Context, ids []int64) (map[int64]partners.Partner, error)
}

type orderLister interface {
	List(ctx context.Context, filter serviceorders.ListFilter) ([]serviceorders.Order, error)
}

type clientLoader interface {
	GetMany(ctx context.Context, ids []int64) (map[int64]clients.Client, error)
}

type partnerLoader interface {
	GetMany(ctx context.Context, ids []int64) (map[int64]partners.Partner, error)
}

type repoStore struct {
	orders   orderLister
	clients  clientLoader
	partners partnerLoader
}

// NewStore composes the order, client and partner repositories.
func NewStore(orders orderLister, clientRepo clientLoader, partnerRepo partnerLoader) Store {
	return &repoStore{orders: orders, clients: clientRepo, partners: partnerRepo}
}

func (s *repoStore) ClosedOrders(ctx context.Context, filter Filter) ([]serviceorders.Order, error) {
	start, end := filter.Start, filter.End
	return s.orders.List(ctx, serviceorders.ListFilter{
		Statuses:  []serviceorders.Status{serviceorders.StatusClosed},
		PartnerID: filter.PartnerID,
		ClientID:  filter.ClientID,
		StartFrom: &start,
		StartTo:   &end,
	})
}

func (s *repoStore) Clients(ctx context.Context, ids []int64) (map[int64]clients.Client, error) {
	return s.clients.GetMany(ctx, ids)
}

func (s *repoStore) Partners(ctx context.Context, ids []int64) (map[int64]partners.Partner, error) {
	return s.partners.GetMany(ctx, ids)
}

func clientIDs(orders []serviceorders.Order) []int64 {
	seen := make(map[int64]struct{})
	var ids []int64
	for _, o := range orders {
		if o.ClientID == nil {
			continue
		}
		if _, ok := seen[*o.ClientID]; ok {
			continue
		}
		seen[*o.ClientID] = struct{}{}
		ids = append(ids, *o.ClientID)
	}
	return ids
}

func partnerIDs(orders []serviceorders.Order) []int64 {
	seen := make(map[int64]struct{})
	var ids []int64
	for _, o := range orders {
		if _, ok := seen[o.PartnerID]; ok {
			continue
		}
		seen[o.PartnerID] = struct{}{}
		ids = append(ids, o.PartnerID)
	}
	return ids
}
