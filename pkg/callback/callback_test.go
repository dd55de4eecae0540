package callback_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/aretw0/flowbot/pkg/callback"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		data    string
		kind    callback.Kind
		payload string
	}{
		{"welcome", callback.KindNode, "welcome"},
		{"cmd_help", callback.KindCommand, "help"},
		{"ms_colors_red", callback.KindToggle, "colors_red"},
		{"multi_select_done_colors", callback.KindDone, "colors"},
		{"done_colors", callback.KindDone, "colors"},
		{"conditional_city_Paris", callback.KindQuickSet, "city_Paris"},
		{"noop_ghost", callback.KindInert, "ghost"},
		{"cmd_", callback.KindNode, "cmd_"},
	}
	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			tok := callback.Classify(tt.data)
			assert.Equal(t, tt.kind, tok.Kind)
			assert.Equal(t, tt.payload, tok.Payload)
			assert.Equal(t, tt.data, tok.Raw)
		})
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, "short", callback.Clamp("short"))

	long := strings.Repeat("a", 100)
	assert.Len(t, callback.Clamp(long), callback.MaxBytes)

	// 63 ASCII bytes followed by a two-byte rune must not be split.
	mixed := strings.Repeat("a", 63) + "é" + "tail"
	got := callback.Clamp(mixed)
	assert.Equal(t, 63, len(got))
	assert.True(t, utf8.ValidString(got))
}

func TestBuilders(t *testing.T) {
	assert.Equal(t, "cmd_help", callback.Command("/help"))
	assert.Equal(t, "cmd_help", callback.Command("help"))
	assert.Equal(t, "ms_colors_red", callback.Toggle("colors", "red"))
	assert.Equal(t, "conditional_city_Paris", callback.QuickSet("city", "Paris"))
	assert.Equal(t, "noop_x", callback.Inert("x"))

	assert.Equal(t, "multi_select_done_colors", callback.Done("colors", "colors"))
	longID := strings.Repeat("node-", 12)
	assert.Equal(t, "done_short", callback.Done(longID, "short"))
}

func TestBuilders_NeverExceedLimit(t *testing.T) {
	huge := strings.Repeat("x", 200)
	for _, tok := range []string{
		callback.Command(huge),
		callback.Toggle(huge, huge),
		callback.Done(huge, huge),
		callback.QuickSet(huge, huge),
		callback.Inert(huge),
	} {
		assert.LessOrEqual(t, len(tok), callback.MaxBytes)
	}
}
