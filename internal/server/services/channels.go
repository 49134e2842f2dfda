package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/channelauth/internal/common"
	"github.com/dmitrijs2005/channelauth/internal/dbx"
	"github.com/dmitrijs2005/channelauth/internal/logging"
	"github.com/dmitrijs2005/channelauth/internal/server/auth"
	"github.com/dmitrijs2005/channelauth/internal/server/models"
	"github.com/dmitrijs2005/channelauth/internal/server/repositories/repomanager"
)

var errChannelNotFound = common.NewError(common.KindNotFound, "channel does not exist")

// ChannelService aggregates channel profiles from the subscription graph
// and records subscriptions.
type ChannelService struct {
	repomanager  repomanager.RepositoryManager
	storeTimeout time.Duration
	log          logging.Logger
}

// NewChannelService constructs a ChannelService.
func NewChannelService(m repomanager.RepositoryManager, storeTimeout time.Duration, log logging.Logger) *ChannelService {
	return &ChannelService{
		repomanager:  m,
		storeTimeout: storeTimeout,
		log:          log.With("module", "channels"),
	}
}

// GetChannelProfile returns the public profile of the channel named
// userName with its subscriber counts. IsSubscribed reports whether viewer
// follows the channel and is false for anonymous viewers. All values come
// from one read snapshot.
func (s *ChannelService) GetChannelProfile(ctx context.Context, userName string, viewer *auth.Identity) (*models.ChannelProfile, error) {
	if blank(userName) {
		return nil, common.NewError(common.KindInvalidInput, "username is missing")
	}
	name := common.NormalizeIdentifier(userName)

	sctx, cancel := storeContext(ctx, s.storeTimeout)
	defer cancel()

	var profile *models.ChannelProfile
	err := s.repomanager.WithTx(sctx, dbx.ReadSnapshot, func(ctx context.Context, tx dbx.DBTX) error {
		channel, err := s.repomanager.Users(tx).GetByUserName(ctx, name)
		if err != nil {
			return err
		}

		subs := s.repomanager.Subscriptions(tx)
		subscribers, err := subs.CountByChannel(ctx, channel.ID)
		if err != nil {
			return err
		}
		subscribedTo, err := subs.CountBySubscriber(ctx, channel.ID)
		if err != nil {
			return err
		}

		isSubscribed := false
		if viewer != nil && viewer.UserID != "" {
			isSubscribed, err = subs.Exists(ctx, viewer.UserID, channel.ID)
			if err != nil {
				return err
			}
		}

		profile = &models.ChannelProfile{
			FullName:                  channel.FullName,
			UserName:                  channel.UserName,
			Avatar:                    channel.Avatar,
			CoverImage:                channel.CoverImage,
			Email:                     channel.Email,
			SubscribersCount:          subscribers,
			ChannelsSubscribedToCount: subscribedTo,
			IsSubscribed:              isSubscribed,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, errChannelNotFound
		}
		return nil, internalError(ctx, s.log, "load channel profile", err)
	}
	return profile, nil
}

// Subscribe makes who a subscriber of the named channel. Subscribing twice
// is not an error.
func (s *ChannelService) Subscribe(ctx context.Context, who auth.Identity, channelUserName string) error {
	return s.changeSubscription(ctx, who, channelUserName, true)
}

// Unsubscribe removes the subscription if present.
func (s *ChannelService) Unsubscribe(ctx context.Context, who auth.Identity, channelUserName string) error {
	return s.changeSubscription(ctx, who, channelUserName, false)
}

var errSelfSubscription = common.NewError(common.KindInvalidInput, "cannot subscribe to your own channel")

func (s *ChannelService) changeSubscription(ctx context.Context, who auth.Identity, channelUserName string, subscribe bool) error {
	if blank(channelUserName) {
		return common.NewError(common.KindInvalidInput, "username is missing")
	}
	name := common.NormalizeIdentifier(channelUserName)

	sctx, cancel := storeContext(ctx, s.storeTimeout)
	defer cancel()

	err := s.repomanager.WithTx(sctx, nil, func(ctx context.Context, tx dbx.DBTX) error {
		channel, err := s.repomanager.Users(tx).GetByUserName(ctx, name)
		if err != nil {
			return err
		}
		if channel.ID == who.UserID {
			return errSelfSubscription
		}
		if subscribe {
			return s.repomanager.Subscriptions(tx).Create(ctx, who.UserID, channel.ID)
		}
		return s.repomanager.Subscriptions(tx).Delete(ctx, who.UserID, channel.ID)
	})
	switch {
	case err == nil:
		s.log.Info(ctx, "subscription changed", "user_id", who.UserID, "channel", name, "subscribed", subscribe)
		return nil
	case errors.Is(err, errSelfSubscription):
		return errSelfSubscription
	case errors.Is(err, common.ErrorNotFound):
		return errChannelNotFound
	}
	return internalError(ctx, s.log, "change subscription", err)
}
