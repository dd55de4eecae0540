package emitter_test

import (
	"context"
	"go/parser"
	"go/token"
	"regexp"
	"strings"
	"testing"

	"github.com/aretw0/flowbot/internal/emitter"
	"github.com/aretw0/flowbot/internal/tokens"
	"github.com/aretw0/flowbot/pkg/callback"
	"github.com/aretw0/flowbot/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func message(id string, c domain.Content) domain.Node {
	return domain.Node{ID: id, Type: domain.NodeMessage, Data: &domain.MessageData{Content: c}}
}

func project(nodes []domain.Node, conns ...domain.Connection) *domain.Project {
	return &domain.Project{Name: "Demo", Sheets: []domain.Sheet{{ID: "main", Nodes: nodes, Connections: conns}}}
}

func compile(t *testing.T, p *domain.Project, opts emitter.Options) *emitter.Result {
	t.Helper()
	res, err := emitter.Compile(context.Background(), p, opts)
	require.NoError(t, err)
	_, err = parser.ParseFile(token.NewFileSet(), "bot.go", res.Source, parser.ParseComments)
	require.NoError(t, err, "emitted source must parse:\n%s", res.Source)
	return res
}

func gotoButton(text, target string) domain.Button {
	return domain.Button{ID: "b_" + target, Text: text, Action: domain.ActionGoto, Target: target}
}

func TestCompile_BasicFlow(t *testing.T) {
	p := project([]domain.Node{
		{ID: "start", Type: domain.NodeStart, Data: &domain.MessageData{Content: domain.Content{
			Text:    "Welcome!",
			Command: "/start",
			Buttons: []domain.Button{gotoButton("Menu", "menu"), {ID: "u", Text: "Site", Action: domain.ActionURL, URL: "https://example.com"}},
		}}},
		message("menu", domain.Content{Text: "Menu", Command: "menu", ShowInMenu: true, Description: "Open the menu", Synonyms: []string{"menu please", "options"}}),
	})

	res := compile(t, p, emitter.Options{})
	src := string(res.Source)

	assert.True(t, strings.HasPrefix(src, `// Code generated by flowbot from "Demo". DO NOT EDIT.`))
	assert.Contains(t, src, "package main")
	assert.Contains(t, src, `// handleStart handles node "start" (start).`)
	assert.Contains(t, src, `kb.Callback("Menu", "menu")`)
	assert.Contains(t, src, `kb.URL("Site", "https://example.com")`)
	assert.Contains(t, src, `rt.Command("/start", handleStart)`)
	assert.Contains(t, src, `rt.Command("/menu", handleMenu)`)
	assert.Contains(t, src, `rt.Describe("/menu", "Open the menu")`)
	assert.Contains(t, src, `rt.Callback("menu", handleMenu)`)
	assert.Contains(t, src, `rt.Text("menu please", aliasMenu)`)
	assert.Contains(t, src, `rt.Text("options", aliasMenu_2)`)
	assert.Contains(t, src, "func main() {")
	assert.NotContains(t, src, "openStore")
	assert.Empty(t, res.Warnings)

	// One span per node plus one per synonym.
	ids := make([]string, 0, len(res.Spans))
	for _, sp := range res.Spans {
		ids = append(ids, sp.NodeID)
		chunk := src[sp.Start:sp.End]
		assert.True(t, strings.HasPrefix(chunk, "// NODE_START:"+sp.NodeID+"\n"))
		assert.True(t, strings.HasSuffix(chunk, "// NODE_END:"+sp.NodeID+"\n"))
	}
	assert.Equal(t, []string{"start", "menu", "menu", "menu"}, ids)
}

func TestCompile_ConditionPriority(t *testing.T) {
	p := project([]domain.Node{
		message("greet", domain.Content{
			Text:                      "Hello stranger",
			EnableConditionalMessages: true,
			ConditionalMessages: []domain.ConditionalMessage{
				{ID: "low", Priority: 5, Condition: domain.ConditionExists, VariableNames: []string{"name"}, MessageText: "Hello again"},
				{ID: "high", Priority: 10, Condition: domain.ConditionEquals, VariableNames: []string{"tier", "plan"}, LogicOperator: domain.LogicOr, ExpectedValue: "gold", MessageText: "Hello VIP"},
			},
		}),
	})

	src := string(compile(t, p, emitter.Options{}).Source)

	high := strings.Index(src, `if s.Equals("tier", "gold") || s.Equals("plan", "gold") {`)
	low := strings.Index(src, `} else if s.Has("name") {`)
	require.NotEqual(t, -1, high, src)
	require.NotEqual(t, -1, low, src)
	assert.Less(t, high, low, "priority 10 is evaluated before priority 5")
	assert.Contains(t, src, `text = "Hello VIP"`)
	assert.Contains(t, src, `text := "Hello stranger"`)
}

func TestCompile_WaitPrecedesAutoTransition(t *testing.T) {
	p := project([]domain.Node{
		message("ask", domain.Content{
			Text:                      "Tell me your email",
			EnableConditionalMessages: true,
			ConditionalMessages: []domain.ConditionalMessage{{
				ID:          "c1", Priority: 1, Condition: domain.ConditionExists, VariableNames: []string{"email"},
				MessageText: "Update your email?", WaitForTextInput: true, TextInputVariable: "email", NextNodeAfterInput: "thanks",
			}},
			AutoTransition: domain.AutoTransition{EnableAutoTransition: true, AutoTransitionTo: "thanks"},
		}),
		message("thanks", domain.Content{Text: "Thanks"}),
	})

	src := string(compile(t, p, emitter.Options{}).Source)

	wait := strings.Index(src, `s.Wait(botkit.WaitText, "email", collectAsk)`)
	chain := strings.Index(src, "if !s.Armed() {\n\t\treturn s.Chain(handleThanks)\n\t}")
	require.NotEqual(t, -1, wait, src)
	require.NotEqual(t, -1, chain, src)
	assert.Less(t, wait, chain)
	assert.Contains(t, src, "func collectAsk(s *botkit.Session, in botkit.Input) error {")
	assert.Contains(t, src, "return handleThanks(s)")
}

func TestCompile_InputNode(t *testing.T) {
	p := project([]domain.Node{
		{ID: "name_input", Type: domain.NodeUserInput, Data: &domain.InputData{Content: domain.Content{
			Text:    "Your name?",
			Buttons: []domain.Button{gotoButton("Anonymous", "done")},
			InputConfig: domain.InputConfig{
				CollectUserInput: true, InputVariable: "name", MinLength: 3,
				RetryMessage:     "Too short", SuccessMessage: "Saved",
			},
		}}},
		message("done", domain.Content{Text: "Done"}),
	}, domain.Connection{Source: "name_input", Target: "done"})

	res := compile(t, p, emitter.Options{})
	src := string(res.Source)

	assert.Contains(t, src, `s.Wait(botkit.WaitText, "name", collectNameInput)`)
	assert.Contains(t, src, `if err := botkit.CheckText(in.Text, botkit.TextRules{MinLength: 3}); err != nil {`)
	assert.Contains(t, src, `return s.Retry("Too short")`)
	assert.Contains(t, src, `s.Set("name", in.Text)`)
	assert.Contains(t, src, `kb.Callback("Anonymous", "conditional_name_Anonymous")`)
	assert.Contains(t, src, `rt.Callback("conditional_name_Anonymous", answerNameInput)`)
	assert.Contains(t, src, `s.ClearWaitFor("name")`)
}

func TestCompile_MediaInputPrecedence(t *testing.T) {
	p := project([]domain.Node{
		{ID: "upload", Type: domain.NodeUserInput, Data: &domain.InputData{Content: domain.Content{
			Text: "Send something",
			InputConfig: domain.InputConfig{
				InputVariable: "file", EnableDocInput: true, EnableVideoInput: true, VideoInputVariable: "clip",
			},
		}}},
	})

	src := string(compile(t, p, emitter.Options{}).Source)
	assert.Contains(t, src, `s.Wait(botkit.WaitVideo, "clip", collectUpload)`)
	assert.Contains(t, src, `s.Set("clip", in.FileID)`)
}

func TestCompile_MultiSelect(t *testing.T) {
	sel := func(text string) domain.Button {
		return domain.Button{ID: "opt_" + strings.ToLower(text), Text: text, Action: domain.ActionSelection}
	}
	p := project([]domain.Node{
		message("colors", domain.Content{
			Text:              "Pick colors",
			Buttons:           []domain.Button{sel("Red"), sel("Green"), sel("Blue")},
			MultiSelectConfig: domain.MultiSelectConfig{AllowMultipleSelection: true, MultiSelectVariable: "favorite", ContinueButtonTarget: "next"},
			AutoTransition:    domain.AutoTransition{EnableAutoTransition: true},
		}),
		message("next", domain.Content{Text: "Thanks"}),
	})

	res := compile(t, p, emitter.Options{})
	src := string(res.Source)

	assert.Contains(t, src, `s.RestoreSelection("colors", "favorite")`)
	assert.Contains(t, src, "kb := keyboardColors(s)")
	assert.Contains(t, src, "botkit.NewInlineKeyboard(2)")
	assert.Contains(t, src, `kb.Toggle(sel, "Red", "ms_colors_optred")`)
	assert.Contains(t, src, `rt.Callback("ms_colors_optred", toggleColors("Red"))`)
	assert.Contains(t, src, `kb.Callback("Done", "multi_select_done_colors")`)
	assert.Contains(t, src, `s.CommitSelection("colors", "favorite")`)
	assert.Contains(t, src, "return handleNext(s)")
	assert.NotContains(t, src, "s.Chain(", "multi-select nodes never auto-transition")
	assert.Contains(t, strings.Join(res.Warnings, "\n"), "auto-transition ignored")
}

func TestCompile_MultiSelectIgnoresColumnOverride(t *testing.T) {
	p := project([]domain.Node{
		message("sizes", domain.Content{
			Text: "Pick sizes",
			Buttons: []domain.Button{
				{ID: "s", Text: "S", Action: domain.ActionSelection},
				{ID: "m", Text: "M", Action: domain.ActionSelection},
			},
			Columns:           3,
			MultiSelectConfig: domain.MultiSelectConfig{AllowMultipleSelection: true},
		}),
	})

	res := compile(t, p, emitter.Options{})
	src := string(res.Source)
	assert.Contains(t, src, "botkit.NewInlineKeyboard(2)")
	assert.NotContains(t, src, "botkit.NewInlineKeyboard(3)")
	assert.Contains(t, strings.Join(res.Warnings, "\n"), "column override ignored")
}

func TestCompile_DanglingTargets(t *testing.T) {
	p := project([]domain.Node{message("a", domain.Content{Text: "A", Buttons: []domain.Button{gotoButton("Lost", "ghost")}})})

	res := compile(t, p, emitter.Options{})
	assert.Contains(t, string(res.Source), `kb.Callback("Lost", "noop_ghost")`)
	assert.Len(t, res.Warnings, 1)

	_, err := emitter.Compile(context.Background(), p, emitter.Options{DanglingPolicy: emitter.DanglingError})
	assert.ErrorIs(t, err, domain.ErrDanglingTarget)
}

func TestCompile_CollisionPolicies(t *testing.T) {
	p := project([]domain.Node{
		message("flow_a/b.step_welcome", domain.Content{Text: "A"}),
		message("flow_c/d.step_welcome", domain.Content{Text: "B"}),
	})

	_, err := emitter.Compile(context.Background(), p, emitter.Options{CollisionPolicy: tokens.PolicyError})
	assert.ErrorIs(t, err, domain.ErrTokenCollision)

	res := compile(t, p, emitter.Options{CollisionPolicy: tokens.PolicyFirstWins})
	assert.Len(t, res.Spans, 1)
	assert.NotEmpty(t, res.Warnings)

	res = compile(t, p, emitter.Options{})
	assert.Len(t, res.Spans, 2)
}

func TestCompile_TokensFitCallbackData(t *testing.T) {
	long := strings.Repeat("very_long_identifier_", 6)
	sel := domain.Button{ID: long + "option", Text: strings.Repeat("Option ", 12), Action: domain.ActionSelection}
	p := project([]domain.Node{
		message(long+"1", domain.Content{
			Text:              "Pick",
			Buttons:           []domain.Button{sel},
			MultiSelectConfig: domain.MultiSelectConfig{AllowMultipleSelection: true},
		}),
		{ID: long + "2", Type: domain.NodeUserInput, Data: &domain.InputData{Content: domain.Content{
			Text:        "Answer",
			Buttons:     []domain.Button{{Text: strings.Repeat("Answer ", 12), Action: domain.ActionGoto, Target: long + "1"}},
			InputConfig: domain.InputConfig{InputVariable: strings.Repeat("variable", 6)},
		}}},
	})

	res := compile(t, p, emitter.Options{})
	for tok := range res.Tokens {
		assert.LessOrEqual(t, len(tok), callback.MaxBytes, tok)
	}
	callbacks := regexp.MustCompile(`rt\.Callback\(("(?:[^"\\]|\\.)*")`).FindAllStringSubmatch(string(res.Source), -1)
	require.NotEmpty(t, callbacks)
	for _, m := range callbacks {
		assert.LessOrEqual(t, len(m[1])-2, callback.MaxBytes, m[1])
	}
}

func TestCompile_KindsAndPersistence(t *testing.T) {
	id := int64(42)
	p := &domain.Project{
		Name:              "Kinds",
		ProjectID:         &id,
		PersistentStorage: true,
		Groups:            []domain.Group{{Name: "team", ExternalID: "-100", Admin: true, Permissions: map[string]bool{"ban": true}}},
		Sheets: []domain.Sheet{{Nodes: []domain.Node{
			{ID: "pic", Type: domain.NodePhoto, Data: &domain.MediaData{Content: domain.Content{Text: "Look", ParseMode: "html"}, MediaURL: "https://x/p.png"}},
			{ID: "where", Type: domain.NodeLocation, Data: &domain.LocationData{Latitude: 55.75, Longitude: 37.6, Title: "Office"}},
			{ID: "card", Type: domain.NodeContact, Data: &domain.ContactData{PhoneNumber: "+100", FirstName: "Ann"}},
			{ID: "ban", Type: domain.NodeBanUser, Data: &domain.ModerationData{
				Command: "/ban", Text: "Banned", Duration: 3600, RevokeMessages: true,
			}},
			{ID: "promote", Type: domain.NodePromoteUser, Data: &domain.ModerationData{
				Command: "/promote", CustomTitle: "Mod", AdminRights: domain.AdminRights{CanPinMessages: true},
			}},
		}}},
	}

	src := string(compile(t, p, emitter.Options{}).Source)

	assert.Contains(t, src, `ParseMode: botkit.ParseHTML`)
	assert.Contains(t, src, `Media: &botkit.Media{Kind: botkit.MediaPhoto, URL: "https://x/p.png"}`)
	assert.Contains(t, src, `s.SendLocation(botkit.Location{Latitude: 55.75, Longitude: 37.6, Title: "Office"}, nil)`)
	assert.Contains(t, src, `s.SendContact(botkit.Contact{PhoneNumber: "+100", FirstName: "Ann"}, nil)`)
	assert.Contains(t, src, `s.Moderate(botkit.Moderation{Action: botkit.ModBan, Duration: 3600, RevokeMessages: true})`)
	assert.Contains(t, src, `Rights: botkit.Rights{PinMessages: true}`)
	assert.Contains(t, src, `return s.Reply("Banned", nil)`)
	assert.Contains(t, src, `redis.WithPrefix("flowbot:42:vars:")`)
	assert.Contains(t, src, "store, locker := openStore(logger)")
	assert.Contains(t, src, "botkit.WithStore(store), botkit.WithLocker(locker)")
	assert.Contains(t, src, "return store, rs.Locker()")
	assert.Contains(t, src, "botkit.WithGroups(groups...)")
	assert.Contains(t, src, `Permissions: map[string]bool{"ban": true}`)
}

func TestCompile_NonMainPackage(t *testing.T) {
	p := project([]domain.Node{message("a", domain.Content{Text: "A"})})
	p.PersistentStorage = true

	src := string(compile(t, p, emitter.Options{Package: "flows"}).Source)
	assert.Contains(t, src, "package flows")
	assert.Contains(t, src, "func Register(rt *botkit.Runtime) {")
	assert.NotContains(t, src, "func main()")
	assert.NotContains(t, src, "openStore")
}

func TestCompile_Hooks(t *testing.T) {
	var emitted, warned int
	hooks := domain.CompileHooks{
		OnNodeEmitted: func(context.Context, *domain.NodeEvent) { emitted++ },
		OnWarning:     func(context.Context, *domain.WarningEvent) { warned++ },
	}
	p := project([]domain.Node{
		message("a", domain.Content{Text: "A", Buttons: []domain.Button{gotoButton("x", "missing")}}),
		message("b", domain.Content{Text: "B"}),
	})

	compile(t, p, emitter.Options{Hooks: hooks})
	assert.Equal(t, 2, emitted)
	assert.Equal(t, 1, warned)
}

func TestParseDanglingPolicy(t *testing.T) {
	p, err := emitter.ParseDanglingPolicy("")
	require.NoError(t, err)
	assert.Equal(t, emitter.DanglingInert, p)

	_, err = emitter.ParseDanglingPolicy("explode")
	assert.Error(t, err)
}
