package bot

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"joingate/internal/verification/models"
	"joingate/pkg/testutil"
)

type recordedCall struct {
	action string
	params map[string]any
}

// recordingCaller captures actions and answers with a canned result.
type recordingCaller struct {
	calls []recordedCall
	data  json.RawMessage
	err   error
}

func (c *recordingCaller) Call(_ context.Context, action string, params any) (json.RawMessage, error) {
	raw, _ := json.Marshal(params)
	var decoded map[string]any
	_ = json.Unmarshal(raw, &decoded)
	c.calls = append(c.calls, recordedCall{action: action, params: decoded})
	return c.data, c.err
}

func newAdapter(t *testing.T, caller Caller, d Dialect) *Adapter {
	t.Helper()
	a, err := NewAdapter(caller, d, WithAdapterLogger(testutil.DiscardLogger()))
	require.NoError(t, err)
	return a
}

func TestAdapterDecisions(t *testing.T) {
	ctx := context.Background()
	req := models.JoinRequest{GroupID: 10, UserID: 20, Flag: "flag-x"}

	cases := []struct {
		name     string
		platform string
		approve  bool
		action   string
		params   map[string]any
	}{
		{"onebot approve", "onebot", true, "set_group_add_request",
			map[string]any{"flag": "flag-x", "sub_type": "add", "approve": true}},
		{"onebot reject", "onebot", false, "set_group_add_request",
			map[string]any{"flag": "flag-x", "sub_type": "add", "approve": false, "reason": "nope"}},
		{"red approve", "red", true, "approveGroupRequest",
			map[string]any{"groupId": float64(10), "userId": float64(20), "flag": "flag-x"}},
		{"red reject", "red", false, "rejectGroupRequest",
			map[string]any{"groupId": float64(10), "userId": float64(20), "flag": "flag-x", "reason": "nope"}},
		{"milky approve", "milky", true, "approveGroupRequest",
			map[string]any{"flag": "flag-x", "approve": true}},
		{"milky reject", "milky", false, "approveGroupRequest",
			map[string]any{"flag": "flag-x", "approve": false, "reason": "nope"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			caller := &recordingCaller{}
			a := newAdapter(t, caller, DialectOneBot)
			r := req
			r.Platform = tc.platform

			var err error
			if tc.approve {
				err = a.Approve(ctx, r)
			} else {
				err = a.Reject(ctx, r, "nope")
			}

			require.NoError(t, err)
			require.Len(t, caller.calls, 1)
			assert.Equal(t, tc.action, caller.calls[0].action)
			assert.Equal(t, tc.params, caller.calls[0].params)
		})
	}

	t.Run("request without dialect uses the default", func(t *testing.T) {
		caller := &recordingCaller{}
		a := newAdapter(t, caller, DialectMilky)

		require.NoError(t, a.Approve(ctx, req))
		assert.Equal(t, "approveGroupRequest", caller.calls[0].action)
	})

	t.Run("unknown dialect on the request", func(t *testing.T) {
		a := newAdapter(t, &recordingCaller{}, DialectOneBot)
		r := req
		r.Platform = "discord"

		assert.ErrorIs(t, a.Approve(ctx, r), ErrUnsupportedPlatform)
	})

	t.Run("gateway failure is returned", func(t *testing.T) {
		a := newAdapter(t, &recordingCaller{err: errors.New("socket closed")}, DialectOneBot)
		assert.ErrorContains(t, a.Reject(ctx, req, "x"), "set_group_add_request")
	})
}

func TestAdapterIsMember(t *testing.T) {
	ctx := context.Background()

	t.Run("member info present", func(t *testing.T) {
		caller := &recordingCaller{data: json.RawMessage(`{"user_id":20}`)}
		ok, err := newAdapter(t, caller, DialectOneBot).IsMember(ctx, 10, 20)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "get_group_member_info", caller.calls[0].action)
	})

	t.Run("gateway refusal means not a member", func(t *testing.T) {
		caller := &recordingCaller{err: &ActionError{Action: "getGroupMember", Retcode: 100}}
		ok, err := newAdapter(t, caller, DialectRed).IsMember(ctx, 10, 20)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("null data", func(t *testing.T) {
		caller := &recordingCaller{data: json.RawMessage(`null`)}
		ok, err := newAdapter(t, caller, DialectMilky).IsMember(ctx, 10, 20)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, "getGroupMemberInfo", caller.calls[0].action)
	})

	t.Run("transport failure surfaces", func(t *testing.T) {
		caller := &recordingCaller{err: ErrNotConnected}
		_, err := newAdapter(t, caller, DialectOneBot).IsMember(ctx, 10, 20)
		assert.ErrorIs(t, err, ErrNotConnected)
	})
}

func TestAdapterSendMessage(t *testing.T) {
	ctx := context.Background()
	msg := models.Message{Text: "hello", Image: &models.Image{Data: []byte("PNG"), MIME: "image/png"}}

	t.Run("onebot inlines the image as base64", func(t *testing.T) {
		caller := &recordingCaller{}
		require.NoError(t, newAdapter(t, caller, DialectOneBot).SendMessage(ctx, 10, msg))

		call := caller.calls[0]
		assert.Equal(t, "send_group_msg", call.action)
		segs := call.params["message"].([]any)
		require.Len(t, segs, 2)
		img := segs[1].(map[string]any)["data"].(map[string]any)
		assert.Equal(t, "base64://UE5H", img["file"])
	})

	t.Run("milky", func(t *testing.T) {
		caller := &recordingCaller{}
		require.NoError(t, newAdapter(t, caller, DialectMilky).SendMessage(ctx, 10, models.Message{Text: "hi"}))
		assert.Equal(t, "send_group_message", caller.calls[0].action)
	})

	t.Run("red refuses images", func(t *testing.T) {
		caller := &recordingCaller{}
		a := newAdapter(t, caller, DialectRed)

		assert.ErrorIs(t, a.SendMessage(ctx, 10, msg), ErrUnsupportedPlatform)
		require.NoError(t, a.SendMessage(ctx, 10, models.Message{Text: "hi"}))
		assert.Equal(t, "message/send", caller.calls[0].action)
	})
}

func TestNewAdapter(t *testing.T) {
	_, err := NewAdapter(nil, DialectOneBot)
	assert.ErrorContains(t, err, "caller is required")

	_, err = NewAdapter(&recordingCaller{}, "line")
	assert.ErrorIs(t, err, ErrUnsupportedPlatform)
}
