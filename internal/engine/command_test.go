package engine_test

import (
	"context"
	"fmt"
	"testing"

	"strangerchat/backend/internal/engine"

	"github.com/stretchr/testify/assert"
)

func TestParseText(t *testing.T) {
	tests := []struct {
		name string
		text string
		want engine.Command
	}{
		{
			name: "plain text becomes a message",
			text: "hello there",
			want: engine.Command{Kind: engine.CommandMessage, UserID: "u1", Text: "hello there"},
		},
		{
			name: "start",
			text: "/start",
			want: engine.Command{Kind: engine.CommandStart, UserID: "u1"},
		},
		{
			name: "help",
			text: "/help",
			want: engine.Command{Kind: engine.CommandHelp, UserID: "u1"},
		},
		{
			name: "next",
			text: "/next",
			want: engine.Command{Kind: engine.CommandNext, UserID: "u1"},
		},
		{
			name: "stop",
			text: "/stop",
			want: engine.Command{Kind: engine.CommandStop, UserID: "u1"},
		},
		{
			name: "report with reason",
			text: "/report sent spam links",
			want: engine.Command{Kind: engine.CommandReport, UserID: "u1", Text: "sent spam links"},
		},
		{
			name: "report without reason",
			text: "/report",
			want: engine.Command{Kind: engine.CommandReport, UserID: "u1"},
		},
		{
			name: "report with surrounding whitespace",
			text: "/report   too rude  ",
			want: engine.Command{Kind: engine.CommandReport, UserID: "u1", Text: "too rude"},
		},
		{
			name: "command with bot mention",
			text: "/next@StrangerPairBot",
			want: engine.Command{Kind: engine.CommandNext, UserID: "u1"},
		},
		{
			name: "report with bot mention keeps the reason",
			text: "/report@StrangerPairBot spam links",
			want: engine.Command{Kind: engine.CommandReport, UserID: "u1", Text: "spam links"},
		},
		{
			name: "unknown slash command",
			text: "/dance",
			want: engine.Command{Kind: engine.CommandUnknown, UserID: "u1"},
		},
		{
			name: "text with leading slash word only",
			text: "/",
			want: engine.Command{Kind: engine.CommandUnknown, UserID: "u1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.ParseText("u1", tt.text)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNicknamesLookHuman(t *testing.T) {
	eng, _, notifier := newTestEngine(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		a := fmt.Sprintf("user%d-a", i)
		b := fmt.Sprintf("user%d-b", i)
		assert.NoError(t, eng.Next(ctx, a))
		assert.NoError(t, eng.Next(ctx, b))
		n, ok := notifier.last(a)
		assert.True(t, ok)
		assert.Regexp(t, `^Stranger\d{4}$`, n.Data)

		assert.NoError(t, eng.Stop(ctx, a))
		assert.NoError(t, eng.Stop(ctx, b))
	}
}
