package notify

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flor3z/paddock-bot/internal/checkin"
	"github.com/flor3z/paddock-bot/internal/storage"
	"github.com/flor3z/paddock-bot/internal/team"
)

type sent struct {
	channelID string
	content   string
}

type fakeSender struct {
	messages []sent
	err      error
}

func (f *fakeSender) SendMessage(_ context.Context, channelID, content string) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, sent{channelID, content})
	return nil
}

func setup(t *testing.T) (*Dispatcher, *fakeSender) {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	sender := &fakeSender{}
	return New(repo, sender), sender
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		n    Notification
		want string
	}{
		{
			name: "check in with event time",
			n: Notification{
				DisplayName: "Lando", Team: team.McLaren, Action: checkin.ActionCheckedIn,
				Season: 2, Round: 5, Track: "Monaco 🇲🇨",
				EventTime: time.Unix(1730595600, 0),
			},
			want: "✅ **Lando** checked-in to <:mclaren:1299419975831916667> for Season 2, Round 5 at Monaco 🇲🇨 <t:1730595600:R>",
		},
		{
			name: "decline reads as checking out",
			n: Notification{
				DisplayName: "Oscar", Team: team.Decline, Action: checkin.ActionCheckedOut,
				Season: 1, Round: 1, Track: "Bahrain",
			},
			want: "❌ **Oscar** checked-out to ❌ for Season 1, Round 1 at Bahrain",
		},
		{
			name: "leaving decline is a status update",
			n: Notification{
				DisplayName: "Oscar", Team: team.Decline, Action: checkin.ActionUpdatedStatus,
				Season: 1, Round: 1, Track: "Bahrain",
			},
			want: "🔄 **Oscar** updated-status to ❌ for Season 1, Round 1 at Bahrain",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.n))
		})
	}
}

func TestNotify(t *testing.T) {
	d, sender := setup(t)
	ctx := context.Background()
	n := Notification{GuildID: "g1", MemberID: "u1", DisplayName: "Lando", Team: team.McLaren, Action: checkin.ActionCheckedIn}

	t.Run("no channel configured is a no-op", func(t *testing.T) {
		d.Notify(ctx, n)
		assert.Empty(t, sender.messages)

		channel, err := d.Channel("g1")
		require.NoError(t, err)
		assert.Empty(t, channel)
	})

	t.Run("sends to configured channel", func(t *testing.T) {
		require.NoError(t, d.SetChannel("g1", "audit"))
		d.Notify(ctx, n)
		require.Len(t, sender.messages, 1)
		assert.Equal(t, "audit", sender.messages[0].channelID)
		assert.Contains(t, sender.messages[0].content, "**Lando** checked-in")
	})

	t.Run("other guilds stay quiet", func(t *testing.T) {
		other := n
		other.GuildID = "g2"
		d.Notify(ctx, other)
		assert.Len(t, sender.messages, 1)
	})

	t.Run("send failure is swallowed", func(t *testing.T) {
		sender.err = errors.New("missing permissions")
		assert.NotPanics(t, func() { d.Notify(ctx, n) })
	})
}
