package models

import (
	"fmt"
	"time"

	id "joingate/pkg/domain"
)

// Key identifies a verification by group and user.
type Key struct {
	GroupID id.GroupID
	UserID  id.UserID
}

func KeyOf(groupID id.GroupID, userID id.UserID) Key {
	return Key{GroupID: groupID, UserID: userID}
}

func (k Key) String() string {
	return fmt.Sprintf("%d:%d", k.GroupID, k.UserID)
}

// JoinRequest is a normalised platform join-request event.
// Flag is the opaque approval token the platform expects back.
type JoinRequest struct {
	GroupID  id.GroupID
	UserID   id.UserID
	Flag     string
	Platform string
}

func (r JoinRequest) Key() Key { return KeyOf(r.GroupID, r.UserID) }

// GroupMessage is a normalised text message posted in a group.
type GroupMessage struct {
	GroupID id.GroupID
	UserID  id.UserID
	Text    string
}

func (m GroupMessage) Key() Key { return KeyOf(m.GroupID, m.UserID) }

// Image is a rendered captcha ready to attach to a message.
type Image struct {
	Data []byte
	MIME string
}

// Message is an outbound group message, optionally carrying an image.
type Message struct {
	Text  string
	Image *Image
}

// PendingVerification is an open challenge awaiting the user's answer.
// Policy is the snapshot taken when the challenge was issued; later policy
// edits do not affect an open challenge.
type PendingVerification struct {
	Request  JoinRequest
	Policy   GroupPolicy
	Code     string
	IssuedAt time.Time
}

func (p *PendingVerification) Key() Key { return p.Request.Key() }

// RetryCounter tracks submissions for a (group, user) key.
type RetryCounter struct {
	Count       int
	LastAttempt time.Time
}
