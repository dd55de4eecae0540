package botkit_test

import (
	"context"
	"testing"

	"github.com/aretw0/flowbot/pkg/adapters/memory"
	"github.com/aretw0/flowbot/pkg/botkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// colorFlow mirrors the code emitted for a multi-select node with a
// continuation node.
func colorFlow(rt *botkit.Runtime) {
	const node, variable = "colors", "favorite_colors"
	options := []string{"Red", "Green", "Blue"}
	keyboard := func(s *botkit.Session) *botkit.Keyboard {
		sel := s.Selection(node)
		kb := botkit.NewInlineKeyboard(2)
		for _, o := range options {
			kb.Toggle(sel, o, "ms_colors_"+o)
		}
		return kb.Callback("Done", "multi_select_done_colors")
	}
	handleNext := func(s *botkit.Session) error {
		return s.Reply("You picked "+s.Get(variable), nil)
	}
	rt.Command("/colors", func(s *botkit.Session) error {
		s.RestoreSelection(node, variable)
		return s.Reply("Pick colors", keyboard(s))
	})
	for _, o := range options {
		rt.Callback("ms_colors_"+o, func(s *botkit.Session) error {
			s.Toggle(node, o)
			return s.EditKeyboard(keyboard(s))
		})
	}
	rt.Callback("multi_select_done_colors", func(s *botkit.Session) error {
		s.CommitSelection(node, variable)
		return handleNext(s)
	})
}

func TestSelection_RedBlueDone(t *testing.T) {
	sender := &fakeSender{}
	store := memory.NewStore()
	rt := botkit.New(sender, botkit.WithStore(store))
	colorFlow(rt)
	ctx := context.Background()

	require.NoError(t, rt.Handle(ctx, text("/colors")))
	require.NoError(t, rt.Handle(ctx, press("ms_colors_Red")))
	require.NoError(t, rt.Handle(ctx, press("ms_colors_Blue")))

	require.Len(t, sender.edits, 2)
	var labels []string
	for _, b := range sender.edits[1].Buttons {
		labels = append(labels, b.Text)
	}
	assert.Equal(t, []string{"✅ Red", "Green", "✅ Blue", "Done"}, labels)

	require.NoError(t, rt.Handle(ctx, press("multi_select_done_colors")))
	assert.Equal(t, "You picked Red, Blue", sender.last().Text)

	vars, err := store.Load(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "Red, Blue", vars["favorite_colors"])
}

func TestSelection_ToggleTwiceRestoresSet(t *testing.T) {
	sender := &fakeSender{}
	rt := botkit.New(sender)
	colorFlow(rt)
	ctx := context.Background()

	require.NoError(t, rt.Handle(ctx, text("/colors")))
	require.NoError(t, rt.Handle(ctx, press("ms_colors_Green")))
	require.NoError(t, rt.Handle(ctx, press("ms_colors_Red")))
	require.NoError(t, rt.Handle(ctx, press("ms_colors_Red")))
	require.NoError(t, rt.Handle(ctx, press("multi_select_done_colors")))

	assert.Equal(t, "You picked Green", sender.last().Text)
}

func TestSelection_DeselectKeepsStoredAnswer(t *testing.T) {
	sender := &fakeSender{}
	store := memory.NewStore()
	require.NoError(t, store.Save(context.Background(), user, map[string]string{"favorite_colors": "Blue"}))
	rt := botkit.New(sender, botkit.WithStore(store))
	colorFlow(rt)
	ctx := context.Background()

	require.NoError(t, rt.Handle(ctx, text("/colors")))
	kb := sender.last().Keyboard
	require.NotNil(t, kb)
	assert.Equal(t, "✅ Blue", kb.Buttons[2].Text)

	require.NoError(t, rt.Handle(ctx, press("ms_colors_Blue")))
	require.NoError(t, rt.Handle(ctx, press("ms_colors_Red")))
	require.NoError(t, rt.Handle(ctx, press("multi_select_done_colors")))
	assert.Equal(t, "You picked Blue, Red", sender.last().Text)

	vars, err := store.Load(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "Blue, Red", vars["favorite_colors"])
}

func TestSelection_DoneMergesConcurrentWrite(t *testing.T) {
	sender := &fakeSender{}
	rt := botkit.New(sender)
	colorFlow(rt)
	rt.Command("/fav", func(s *botkit.Session) error {
		s.Set("favorite_colors", "Blue")
		return s.Reply("saved", nil)
	})
	ctx := context.Background()

	require.NoError(t, rt.Handle(ctx, text("/colors")))
	require.NoError(t, rt.Handle(ctx, press("ms_colors_Red")))
	require.NoError(t, rt.Handle(ctx, text("/fav")))
	require.NoError(t, rt.Handle(ctx, press("ms_colors_Red")))
	require.NoError(t, rt.Handle(ctx, press("ms_colors_Green")))
	require.NoError(t, rt.Handle(ctx, press("ms_colors_Red")))
	require.NoError(t, rt.Handle(ctx, press("multi_select_done_colors")))
	assert.Equal(t, "You picked Blue, Green, Red", sender.last().Text)
}

func TestSelection_DoneDropsDuplicates(t *testing.T) {
	sender := &fakeSender{}
	store := memory.NewStore()
	require.NoError(t, store.Save(context.Background(), user, map[string]string{"favorite_colors": "Red, Green"}))
	rt := botkit.New(sender, botkit.WithStore(store))
	colorFlow(rt)
	ctx := context.Background()

	require.NoError(t, rt.Handle(ctx, text("/colors")))
	require.NoError(t, rt.Handle(ctx, press("ms_colors_Blue")))
	require.NoError(t, rt.Handle(ctx, press("multi_select_done_colors")))
	assert.Equal(t, "You picked Red, Green, Blue", sender.last().Text)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"Red", "Blue"}, botkit.SplitList("Red, Blue, "))
	assert.Equal(t, []string{"Salt,Pepper", "Oil"}, botkit.SplitList("Salt,Pepper, Oil"))
	assert.Nil(t, botkit.SplitList(" "))
	assert.Nil(t, botkit.SplitList(""))
}
