// Package bot connects joingate to a chat platform gateway: it normalises raw
// gateway events, executes join-request actions in the gateway's dialect and
// maintains the websocket session.
package bot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"joingate/internal/verification/models"
	id "joingate/pkg/domain"
	dErrors "joingate/pkg/domain-errors"
)

// Dialect names a gateway protocol flavour.
type Dialect string

const (
	DialectOneBot Dialect = "onebot"
	DialectRed    Dialect = "red"
	DialectMilky  Dialect = "milky"
)

// guildMemberRequest is the generic join event some gateways emit. It does
// not identify a dialect, so requests parsed from it use the adapter default.
const guildMemberRequest = "guild-member-request"

// ParseDialect validates a configured platform name.
func ParseDialect(s string) (Dialect, error) {
	switch d := Dialect(strings.ToLower(strings.TrimSpace(s))); d {
	case DialectOneBot, DialectRed, DialectMilky:
		return d, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedPlatform, s)
	}
}

// flexID accepts an identifier encoded as a JSON number or string.
type flexID int64

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	v, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", b, err)
	}
	*f = flexID(v)
	return nil
}

// rawEvent is the union of every field the parsers look at.
type rawEvent struct {
	// OneBot v11
	PostType    string `json:"post_type"`
	NoticeType  string `json:"notice_type"`
	RequestType string `json:"request_type"`
	SubType     string `json:"sub_type"`
	MessageType string `json:"message_type"`
	RawMessage  string `json:"raw_message"`

	// red, milky and generic events
	Type string `json:"type"`

	Message  json.RawMessage `json:"message"`
	Segments json.RawMessage `json:"segments"`
	Elements []redElement    `json:"elements"`
	Content  string          `json:"content"`
	Flag     flexFlag        `json:"flag"`

	GroupID      flexID `json:"group_id"`
	UserID       flexID `json:"user_id"`
	GroupIDCamel flexID `json:"groupId"`
	UserIDCamel  flexID `json:"userId"`
}

// flexFlag accepts the request flag as a string or a bare number.
type flexFlag string

func (f *flexFlag) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexFlag(s)
		return nil
	}
	*f = flexFlag(bytes.TrimSpace(b))
	return nil
}

func (e *rawEvent) snakeIDs() (int64, int64) { return int64(e.GroupID), int64(e.UserID) }
func (e *rawEvent) camelIDs() (int64, int64) { return int64(e.GroupIDCamel), int64(e.UserIDCamel) }

// eitherIDs prefers camelCase fields and falls back to snake_case.
func (e *rawEvent) eitherIDs() (int64, int64) {
	g, u := e.camelIDs()
	if g == 0 {
		g = int64(e.GroupID)
	}
	if u == 0 {
		u = int64(e.UserID)
	}
	return g, u
}

// requestParser recognises one dialect's join request event.
type requestParser struct {
	dialect Dialect
	match   func(*rawEvent) bool
	ids     func(*rawEvent) (int64, int64)
}

var requestParsers = []requestParser{
	{
		dialect: DialectOneBot,
		match: func(e *rawEvent) bool {
			return (e.PostType == "notice" && e.NoticeType == "group_request") ||
				(e.PostType == "request" && e.RequestType == "group" && e.SubType == "add")
		},
		ids: (*rawEvent).snakeIDs,
	},
	{
		dialect: DialectRed,
		match:   func(e *rawEvent) bool { return e.Type == "notice.group.request.add" },
		ids:     (*rawEvent).camelIDs,
	},
	{
		dialect: DialectMilky,
		match:   func(e *rawEvent) bool { return e.Type == "milky.group.request.add" },
		ids:     (*rawEvent).snakeIDs,
	},
	{
		dialect: "",
		match:   func(e *rawEvent) bool { return e.Type == guildMemberRequest },
		ids:     (*rawEvent).eitherIDs,
	},
}

// ParseJoinRequest normalises a gateway event into a JoinRequest. ok is false
// for events that are not join requests. A recognised event with unusable
// identifiers is an error.
func ParseJoinRequest(raw []byte) (req models.JoinRequest, ok bool, err error) {
	var e rawEvent
	if err := json.Unmarshal(raw, &e); err != nil {
		return req, false, dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed gateway event")
	}
	for _, p := range requestParsers {
		if !p.match(&e) {
			continue
		}
		g, u := p.ids(&e)
		if g <= 0 || u <= 0 {
			return req, false, dErrors.Newf(dErrors.CodeInvalidInput, "join request without group or user id (group=%d user=%d)", g, u)
		}
		return models.JoinRequest{
			GroupID:  id.GroupID(g),
			UserID:   id.UserID(u),
			Flag:     string(e.Flag),
			Platform: string(p.dialect),
		}, true, nil
	}
	return req, false, nil
}

// segment is one element of a OneBot or milky array-format message.
type segment struct {
	Type string `json:"type"`
	Data struct {
		Text string `json:"text"`
	} `json:"data"`
}

// redElement is one element of a red message; elementType 1 carries text.
type redElement struct {
	ElementType int `json:"elementType"`
	TextElement struct {
		Content string `json:"content"`
	} `json:"textElement"`
}

const redTextElement = 1

// messageParser recognises one dialect's group message event.
type messageParser struct {
	dialect Dialect
	match   func(*rawEvent) bool
	ids     func(*rawEvent) (int64, int64)
	text    func(*rawEvent) string
}

var messageParsers = []messageParser{
	{
		dialect: DialectOneBot,
		match:   func(e *rawEvent) bool { return e.PostType == "message" && e.MessageType == "group" },
		ids:     (*rawEvent).snakeIDs,
		text: func(e *rawEvent) string {
			if t, ok := messageText(e.Message); ok {
				return t
			}
			return e.RawMessage
		},
	},
	{
		dialect: DialectRed,
		match:   func(e *rawEvent) bool { return e.Type == "message.group" },
		ids:     (*rawEvent).camelIDs,
		text: func(e *rawEvent) string {
			if len(e.Elements) == 0 {
				return e.Content
			}
			var b strings.Builder
			for _, el := range e.Elements {
				if el.ElementType == redTextElement {
					b.WriteString(el.TextElement.Content)
				}
			}
			return b.String()
		},
	},
	{
		dialect: DialectMilky,
		match:   func(e *rawEvent) bool { return e.Type == "milky.group.message" },
		ids:     (*rawEvent).snakeIDs,
		text: func(e *rawEvent) string {
			if t, ok := messageText(e.Segments); ok {
				return t
			}
			t, _ := messageText(e.Message)
			return t
		},
	},
}

// ParseGroupMessage normalises a group message event from any supported
// dialect. ok is false for anything else.
func ParseGroupMessage(raw []byte) (msg models.GroupMessage, ok bool, err error) {
	var e rawEvent
	if err := json.Unmarshal(raw, &e); err != nil {
		return msg, false, dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed gateway event")
	}
	for _, p := range messageParsers {
		if !p.match(&e) {
			continue
		}
		g, u := p.ids(&e)
		if g <= 0 || u <= 0 {
			return msg, false, dErrors.Newf(dErrors.CodeInvalidInput, "%s group message without group or user id", p.dialect)
		}
		return models.GroupMessage{
			GroupID: id.GroupID(g),
			UserID:  id.UserID(u),
			Text:    strings.TrimSpace(p.text(&e)),
		}, true, nil
	}
	return msg, false, nil
}

// messageText extracts the plain text of a message in either string or
// segment-array form. ok is false when raw is absent or neither form.
func messageText(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s, true
	}
	var segs []segment
	if json.Unmarshal(raw, &segs) != nil {
		return "", false
	}
	var b strings.Builder
	for _, seg := range segs {
		if seg.Type == "text" {
			b.WriteString(seg.Data.Text)
		}
	}
	return b.String(), true
}
