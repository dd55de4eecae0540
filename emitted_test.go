package flowbot_test

import (
	"context"
	"fmt"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"text/template"

	"github.com/aretw0/flowbot"
	"github.com/aretw0/flowbot/pkg/domain"
	"github.com/aretw0/flowbot/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// goTool returns the go command, skipping tests that build emitted code
// when it is unavailable.
func goTool(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("builds emitted source")
	}
	bin, err := exec.LookPath("go")
	if err != nil {
		t.Skip("go command not found")
	}
	return bin
}

// everyKind builds a flow with a node of each type and every state machine.
func everyKind(t *testing.T) *domain.Project {
	t.Helper()
	b := dsl.New("Everything").ProjectID(3)
	b.Add("start").Start("Welcome").
		Button("Colors", "colors").
		Link("Site", "https://example.com").
		CommandButton("Help", "/help").
		Connect("colors")
	b.Add("help").Command("/help", "support").Menu("Get help").
		Text("How can we help?").
		Reply().Button("Back", "start")
	b.Add("colors").Text("Pick colors").
		Option("Red").Option("Blue").
		MultiSelect("favorite_colors", "Next", "ask_name")
	b.Add("ask_name").Text("What is your name?").
		Input("name").Validate(2, 20, domain.FormatEmail).Retry("Try again").Then("greet")
	b.Add("greet").Text("Thanks!").
		When(domain.ConditionalMessage{Priority: 10, Condition: domain.ConditionExists, VariableName: "name", MessageText: "Welcome back"}).
		Go("note")
	b.Add("note").Text("A note")
	b.Add("where").Location(1.5, 2.5, "HQ").Command("/where")
	b.Add("call").Contact("+100", "Ada").Command("/call")
	for _, typ := range domain.NodeTypes() {
		id := string(typ)
		switch {
		case typ.IsMedia():
			b.Add(id).Media(typ, "https://example.com/"+id).Text("Look").Command("/" + id)
		case typ.IsModeration():
			b.Add(id).Moderate(typ, func(m *domain.ModerationData) { m.Duration = 60 }).Text("Done").Command("/" + id)
		}
	}
	p, err := b.Build()
	require.NoError(t, err)

	kinds := make(map[domain.NodeType]bool)
	for _, n := range p.Graph().Nodes {
		kinds[n.Type] = true
	}
	require.Len(t, kinds, len(domain.NodeTypes()))
	return p
}

// exportData builds paths and their dependencies and returns the export
// data file of each package by import path.
func exportData(t *testing.T, bin string, paths []string) map[string]string {
	t.Helper()
	args := append([]string{"list", "-export", "-deps", "-f", "{{if .Export}}{{.ImportPath}}={{.Export}}{{end}}"}, paths...)
	cmd := exec.Command(bin, args...)
	cmd.Stderr = new(strings.Builder)
	out, err := cmd.Output()
	require.NoError(t, err, "go list: %s", cmd.Stderr)

	exports := make(map[string]string)
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if path, file, ok := strings.Cut(line, "="); ok {
			exports[path] = file
		}
	}
	return exports
}

// typeCheck checks src against the packages of this module.
func typeCheck(t *testing.T, bin string, src []byte) *types.Package {
	t.Helper()
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "bot.go", src, 0)
	require.NoError(t, err)

	var paths []string
	for _, imp := range f.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		require.NoError(t, err)
		paths = append(paths, path)
	}
	exports := exportData(t, bin, paths)

	conf := types.Config{Importer: importer.ForCompiler(fset, "gc", func(path string) (io.ReadCloser, error) {
		file, ok := exports[path]
		if !ok {
			return nil, fmt.Errorf("no export data for %q", path)
		}
		return os.Open(file)
	})}
	pkg, err := conf.Check(f.Name.Name, fset, []*ast.File{f}, nil)
	require.NoError(t, err, "emitted source does not type-check:\n%s", src)
	return pkg
}

func TestEmittedSource_TypeChecks(t *testing.T) {
	bin := goTool(t)
	c := flowbot.New()

	for name, p := range map[string]*domain.Project{
		"shop":  loadShop(t, c),
		"kinds": everyKind(t),
	} {
		for _, pkgName := range []string{"main", "flows"} {
			t.Run(name+"/"+pkgName, func(t *testing.T) {
				res, err := c.Compile(context.Background(), p, flowbot.CompileOptions{Package: pkgName})
				require.NoError(t, err)

				pkg := typeCheck(t, bin, res.Source)
				register := "register"
				if pkgName != "main" {
					register = "Register"
				}
				fn, ok := pkg.Scope().Lookup(register).(*types.Func)
				require.True(t, ok, "%s is not declared", register)
				assert.Equal(t, "func(rt *github.com/aretw0/flowbot/pkg/botkit.Runtime)", fn.Type().String())
			})
		}
	}
}

func TestEmittedSource_PersistentStoreTypeChecks(t *testing.T) {
	bin := goTool(t)
	c := flowbot.New()
	p := everyKind(t)
	p.PersistentStorage = true

	res, err := c.Compile(context.Background(), p, flowbot.CompileOptions{})
	require.NoError(t, err)
	pkg := typeCheck(t, bin, res.Source)
	assert.NotNil(t, pkg.Scope().Lookup("openStore"))
}

// shopDriver feeds updates to the Register function emitted for
// testdata/shop.yaml through an in-memory transport.
const shopDriver = `package flows

import (
	"context"
	"reflect"
	"testing"

	"github.com/aretw0/flowbot/pkg/adapters/memory"
	"github.com/aretw0/flowbot/pkg/botkit"
)

type transport struct {
	texts []string
	edits int
}

func (tr *transport) Send(ctx context.Context, chatID int64, msg botkit.Message) (int, error) {
	tr.texts = append(tr.texts, msg.Text)
	return len(tr.texts), nil
}

func (tr *transport) EditKeyboard(ctx context.Context, chatID int64, messageID int, kb *botkit.Keyboard) error {
	tr.edits++
	return nil
}

func (tr *transport) Answer(ctx context.Context, callbackID, text string) error { return nil }

func (tr *transport) Moderate(ctx context.Context, chatID int64, m botkit.Moderation) error {
	return nil
}

func (tr *transport) SetCommands(ctx context.Context, commands []botkit.Command) error {
	return nil
}

const user = int64(42)

func text(s string) botkit.Update {
	return botkit.Update{UserID: user, ChatID: user, Text: s}
}

func press(data string) botkit.Update {
	return botkit.Update{UserID: user, ChatID: user, Callback: &botkit.CallbackQuery{ID: "cb", Data: data, MessageID: 1}}
}

func TestRegister(t *testing.T) {
	out := &transport{}
	store := memory.NewStore()
	rt := botkit.New(out, botkit.WithStore(store))
	Register(rt)

	ctx := context.Background()
	for _, u := range []botkit.Update{
		text("/start"),
		press({{printf "%q" .Colors}}),
		press({{printf "%q" .Red}}),
		press({{printf "%q" .Blue}}),
		press({{printf "%q" .Done}}),
		text("Al"),
		text(" Ada "),
	} {
		if err := rt.Handle(ctx, u); err != nil {
			t.Fatalf("update %+v: %v", u, err)
		}
	}

	want := []string{
		"Welcome to the shop!",
		"Which colours do you like?",
		"What is your name?",
		"Too short, try again.",
		"Thanks, we saved your name!",
		"Today's offer",
	}
	if !reflect.DeepEqual(out.texts, want) {
		t.Fatalf("sent %q, want %q", out.texts, want)
	}
	if out.edits != 2 {
		t.Fatalf("%d keyboard edits, want 2", out.edits)
	}

	vars, err := store.Load(ctx, user)
	if err != nil {
		t.Fatal(err)
	}
	if vars["colors_picked"] != "Red, Blue" || vars["name"] != "Ada" {
		t.Fatalf("stored %v", vars)
	}
}
`

func tokenOwnedBy(t *testing.T, ledger map[string]string, owner string) string {
	t.Helper()
	for tok, o := range ledger {
		if o == owner {
			return tok
		}
	}
	require.Failf(t, "no token", "owner %q in %v", owner, ledger)
	return ""
}

func TestEmittedRegister_DrivesRuntime(t *testing.T) {
	bin := goTool(t)
	c := flowbot.New()
	res, err := c.Compile(context.Background(), loadShop(t, c), flowbot.CompileOptions{Package: "flows"})
	require.NoError(t, err)

	root, err := filepath.Abs(".")
	require.NoError(t, err)
	mod, err := os.ReadFile("go.mod")
	require.NoError(t, err)
	m := regexp.MustCompile(`(?m)^go (\S+)$`).FindSubmatch(mod)
	require.NotNil(t, m)
	goVersion := string(m[1])

	var driver strings.Builder
	require.NoError(t, template.Must(template.New("driver").Parse(shopDriver)).Execute(&driver, map[string]string{
		"Colors": tokenOwnedBy(t, res.Tokens, "colors"),
		"Red":    tokenOwnedBy(t, res.Tokens, "option:colors/red"),
		"Blue":   tokenOwnedBy(t, res.Tokens, "option:colors/blue"),
		"Done":   tokenOwnedBy(t, res.Tokens, "done:colors"),
	}))

	dir := t.TempDir()
	files := map[string]string{
		"go.mod":         "module example.com/flows\n\ngo " + goVersion + "\n",
		"go.work":        "go " + goVersion + "\n\nuse (\n\t.\n\t" + strconv.Quote(root) + "\n)\n",
		"flows.go":       string(res.Source),
		"driver_test.go": driver.String(),
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	cmd := exec.Command(bin, "test", "-count=1", ".")
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GOWORK="+filepath.Join(dir, "go.work"), "GOFLAGS=")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "emitted Register failed:\n%s", out)
}
