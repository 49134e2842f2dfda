package memstore

import (
	"context"

	"github.com/dmitrijs2005/channelauth/internal/common"
	"github.com/dmitrijs2005/channelauth/internal/dbx"
)

type SubscriptionRepository struct {
	h *Handle
}

// Subscriptions returns a subscriptions.Repository bound to db.
func (s *Store) Subscriptions(db dbx.DBTX) *SubscriptionRepository {
	return &SubscriptionRepository{h: s.handleFor(db)}
}

func (r *SubscriptionRepository) CountByChannel(ctx context.Context, channelID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	defer r.h.rlock()()

	var n int64
	for e := range r.h.store.edges {
		if e.channel == channelID {
			n++
		}
	}
	return n, nil
}

func (r *SubscriptionRepository) CountBySubscriber(ctx context.Context, subscriberID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	defer r.h.rlock()()

	var n int64
	for e := range r.h.store.edges {
		if e.subscriber == subscriberID {
			n++
		}
	}
	return n, nil
}

func (r *SubscriptionRepository) Exists(ctx context.Context, subscriberID, channelID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	defer r.h.rlock()()

	_, ok := r.h.store.edges[edge{subscriber: subscriberID, channel: channelID}]
	return ok, nil
}

func (r *SubscriptionRepository) Create(ctx context.Context, subscriberID, channelID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.h.readOnly {
		return errReadOnly
	}
	defer r.h.lock()()
	s := r.h.store

	if _, ok := s.users[subscriberID]; !ok {
		return common.ErrorNotFound
	}
	if _, ok := s.users[channelID]; !ok {
		return common.ErrorNotFound
	}
	e := edge{subscriber: subscriberID, channel: channelID}
	if _, ok := s.edges[e]; !ok {
		s.edges[e] = s.now().UTC()
	}
	return nil
}

func (r *SubscriptionRepository) Delete(ctx context.Context, subscriberID, channelID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.h.readOnly {
		return errReadOnly
	}
	defer r.h.lock()()

	delete(r.h.store.edges, edge{subscriber: subscriberID, channel: channelID})
	return nil
}
