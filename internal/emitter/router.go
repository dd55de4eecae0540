package emitter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/flowbot/internal/codegen"
)

// registry is the ledger of triggers wired in the register function.
// Every table is first-wins.
type registry struct {
	commands  []codegen.Stmt
	callbacks []codegen.Stmt
	buttons   []codegen.Stmt
	texts     []codegen.Stmt
	menu      []codegen.Stmt

	seen map[string]string // kind + key → handler expression
}

func newRegistry() registry {
	return registry{seen: make(map[string]string)}
}

// add records one registration and reports whether it was new. A key
// already bound to a different handler is reported through conflict.
func (r *registry) add(kind, key, handler string, into *[]codegen.Stmt, conflict func(prev string)) bool {
	id := kind + "\x00" + key
	if prev, ok := r.seen[id]; ok {
		if prev != handler && conflict != nil {
			conflict(prev)
		}
		return false
	}
	r.seen[id] = handler
	*into = append(*into, codegen.ExprStmt{X: codegen.CallOf("rt."+kind, codegen.String(key), codegen.Ident(handler))})
	return true
}

func (e *emitter) addCommand(nodeID, cmd, handler string) {
	e.reg.add("Command", cmd, handler, &e.reg.commands, func(prev string) {
		e.warn(nodeID, "command %s is already handled by %s", cmd, prev)
	})
}

func (e *emitter) describe(cmd, description string) {
	e.reg.menu = append(e.reg.menu, codegen.ExprStmt{X: codegen.CallOf("rt.Describe", codegen.String(cmd), codegen.String(description))})
}

func (e *emitter) addCallback(nodeID, token, handler string) {
	e.reg.add("Callback", token, handler, &e.reg.callbacks, func(prev string) {
		e.warn(nodeID, "callback token %q is already bound to %s", token, prev)
	})
}

func (e *emitter) addButton(nodeID, label, handler string) {
	e.reg.add("Button", label, handler, &e.reg.buttons, func(prev string) {
		e.warn(nodeID, "keyboard label %q is already bound to %s, keeping the first", label, prev)
	})
}

func (e *emitter) addText(nodeID, label, handler string) bool {
	key := strings.ToLower(strings.TrimSpace(label))
	return e.reg.add("Text", key, handler, &e.reg.texts, func(prev string) {
		e.warn(nodeID, "text trigger %q is already bound to %s, keeping the first", label, prev)
	})
}

// emitRouter appends the register function and, for package main, the
// program entry point.
func (e *emitter) emitRouter() {
	if len(e.proj.Groups) > 0 {
		e.decls = append(e.decls, e.groupsVar())
	}

	var body []codegen.Stmt
	for _, group := range [][]codegen.Stmt{e.reg.commands, e.reg.menu, e.reg.callbacks, e.reg.buttons, e.reg.texts} {
		if len(group) == 0 {
			continue
		}
		if len(body) > 0 {
			body = append(body, codegen.Blank{})
		}
		body = append(body, group...)
	}

	name, doc := "register", "register wires the triggers of every node into rt."
	if e.opts.Package != "main" {
		name, doc = "Register", "Register wires the triggers of every node into rt."
	}
	e.decls = append(e.decls, codegen.Func{
		Doc:    doc,
		Name:   name,
		Params: "rt *botkit.Runtime",
		Body:   body,
	})

	if e.opts.Package != "main" {
		return
	}
	e.decls = append(e.decls, e.mainFunc())
	if e.persistent() {
		e.decls = append(e.decls, e.openStoreFunc())
	}
}

func (e *emitter) groupsVar() codegen.Decl {
	elems := make([]codegen.Expr, 0, len(e.proj.Groups))
	for _, g := range e.proj.Groups {
		fields := []codegen.Field{
			{Name: "Name", Value: codegen.String(g.Name)},
			{Name: "ID", Value: codegen.String(g.ExternalID)},
		}
		if g.Admin {
			fields = append(fields, codegen.Field{Name: "Admin", Value: codegen.Ident("true")})
		}
		if len(g.Permissions) > 0 {
			keys := make([]string, 0, len(g.Permissions))
			for k := range g.Permissions {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			perms := codegen.Composite{Type: "map[string]bool"}
			for _, k := range keys {
				perms.Fields = append(perms.Fields, codegen.Field{
					Name:  fmt.Sprintf("%q", k),
					Value: codegen.Lit{Value: g.Permissions[k]},
				})
			}
			fields = append(fields, codegen.Field{Name: "Permissions", Value: perms})
		}
		elems = append(elems, codegen.Composite{Fields: fields})
	}
	return codegen.Var{
		Doc:   "groups are the chats the bot is configured for.",
		Name:  "groups",
		Value: codegen.MultiComposite{Type: "[]botkit.Group", Elems: elems},
	}
}

func (e *emitter) mainFunc() codegen.Decl {
	for _, p := range []string{"context", "log/slog", "os", "os/signal", "syscall"} {
		e.use(p)
	}
	opts := []codegen.Expr{
		codegen.CallOf("botkit.WithName", codegen.String(e.flowName())),
		codegen.CallOf("botkit.WithLogger", codegen.Ident("logger")),
	}
	if e.persistent() {
		opts = append(opts,
			codegen.CallOf("botkit.WithStore", codegen.Ident("store")),
			codegen.CallOf("botkit.WithLocker", codegen.Ident("locker")))
	}
	if len(e.proj.Groups) > 0 {
		opts = append(opts, codegen.CallOf("botkit.WithGroups", codegen.Ident("groups...")))
	}
	fail := func(msg string) []codegen.Stmt {
		return []codegen.Stmt{
			codegen.ExprStmt{X: codegen.CallOf("logger.Error", codegen.String(msg), codegen.String("err"), codegen.Ident("err"))},
			codegen.ExprStmt{X: codegen.CallOf("os.Exit", codegen.Int(1))},
		}
	}
	newRuntime := codegen.CallOf("botkit.New", append([]codegen.Expr{codegen.Ident("bot")}, opts...)...)
	fn := codegen.Func{
		Name: "main",
		Body: []codegen.Stmt{
			codegen.Assign{LHS: "ctx, stop", Define: true, RHS: codegen.CallOf("signal.NotifyContext",
				codegen.CallOf("context.Background"), codegen.Ident("os.Interrupt"), codegen.Ident("syscall.SIGTERM"))},
			codegen.ExprStmt{X: codegen.Ident("defer stop()")},
			codegen.Blank{},
			codegen.Assign{LHS: "logger", Define: true, RHS: codegen.CallOf("slog.New",
				codegen.CallOf("slog.NewTextHandler", codegen.Ident("os.Stderr"), codegen.Nil))},
			codegen.Assign{LHS: "bot, err", Define: true, RHS: codegen.CallOf("botkit.NewTelegram",
				codegen.CallOf("os.Getenv", codegen.String("BOT_TOKEN")), codegen.CallOf("botkit.WithTelegramLogger", codegen.Ident("logger")))},
			codegen.If{Cond: codegen.Ident("err != nil"), Body: fail("Failed to create bot")},
			codegen.Blank{},
		},
	}
	if e.persistent() {
		fn.Body = append(fn.Body, codegen.Assign{LHS: "store, locker", Define: true,
			RHS: codegen.CallOf("openStore", codegen.Ident("logger"))})
	}
	fn.Body = append(fn.Body,
		codegen.Assign{LHS: "rt", Define: true, RHS: newRuntime},
		codegen.ExprStmt{X: codegen.CallOf("register", codegen.Ident("rt"))},
		codegen.If{
			Init: codegen.Assign{LHS: "err", Define: true, RHS: codegen.CallOf("rt.Run", codegen.Ident("ctx"), codegen.Ident("bot"))},
			Cond: codegen.Ident("err != nil"),
			Body: fail("Bot stopped"),
		},
	)
	return fn
}

func (e *emitter) openStoreFunc() codegen.Decl {
	for _, p := range []string{"encoding/base64", e.pkg("ports"), e.pkg("adapters/redis"), e.pkg("persistence/middleware")} {
		e.use(p)
	}
	prefix := "flowbot:vars:"
	if id := e.proj.ProjectID; id != nil {
		prefix = fmt.Sprintf("flowbot:%d:vars:", *id)
	}
	return codegen.Func{
		Doc: "openStore returns the Redis variable store at REDIS_ADDR and a locker\n" +
			"on the same server. Variables are encrypted when FLOWBOT_STORE_KEY holds\n" +
			"a base64 encoded 32-byte key.",
		Name:    "openStore",
		Params:  "logger *slog.Logger",
		Results: "(ports.VariableStore, ports.DistributedLocker)",
		Body: []codegen.Stmt{
			codegen.Assign{LHS: "addr", Define: true, RHS: codegen.CallOf("os.Getenv", codegen.String("REDIS_ADDR"))},
			codegen.If{Cond: codegen.Ident(`addr == ""`), Body: []codegen.Stmt{
				codegen.Assign{LHS: "addr", RHS: codegen.String("localhost:6379")},
			}},
			codegen.Assign{LHS: "rs", Define: true, RHS: codegen.CallOf("redis.New", codegen.Ident("addr"),
				codegen.CallOf("redis.WithPrefix", codegen.String(prefix)))},
			codegen.Raw("var store ports.VariableStore = rs"),
			codegen.Blank{},
			codegen.Assign{LHS: "raw", Define: true, RHS: codegen.CallOf("os.Getenv", codegen.String("FLOWBOT_STORE_KEY"))},
			codegen.If{Cond: codegen.Ident(`raw == ""`), Body: []codegen.Stmt{storeAndLocker(codegen.Ident("store"))}},
			codegen.Assign{LHS: "key, err", Define: true, RHS: codegen.CallOf("base64.StdEncoding.DecodeString", codegen.Ident("raw"))},
			codegen.If{Cond: codegen.Ident("err != nil || len(key) != 32"), Body: []codegen.Stmt{
				codegen.ExprStmt{X: codegen.CallOf("logger.Warn", codegen.String("FLOWBOT_STORE_KEY is not a base64 encoded 32-byte key, variables are stored unencrypted"))},
				storeAndLocker(codegen.Ident("store")),
			}},
			storeAndLocker(codegen.CallOf("middleware.Chain", codegen.Ident("store"),
				codegen.CallOf("middleware.NewEncryptionMiddleware", codegen.Composite{
					Type:   "middleware.EncryptionConfig",
					Fields: []codegen.Field{{Name: "ActiveKey", Value: codegen.Ident("key")}},
				}))),
		},
	}
}

func storeAndLocker(store codegen.Expr) codegen.Stmt {
	return codegen.Return{Values: []codegen.Expr{store, codegen.CallOf("rs.Locker")}}
}
