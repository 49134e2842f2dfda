package models

import "time"

// Subscription is a directed edge: SubscriberID follows ChannelID.
type Subscription struct {
	SubscriberID string    `db:"subscriber_id"`
	ChannelID    string    `db:"channel_id"`
	CreatedAt    time.Time `db:"created_at"`
}

// ChannelProfile is the public channel view with relationship counts, all
// read from one consistent snapshot.
type ChannelProfile struct {
	FullName                  string `json:"fullName"`
	UserName                  string `json:"username"`
	Avatar                    string `json:"avatar"`
	CoverImage                string `json:"coverImage"`
	Email                     string `json:"email"`
	SubscribersCount          int64  `json:"subscribersCount"`
	ChannelsSubscribedToCount int64  `json:"channelsSubscribedToCount"`
	IsSubscribed              bool   `json:"isSubscribed"`
}
