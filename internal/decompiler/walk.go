package decompiler

import (
	"go/ast"
	"go/token"
	"strconv"
	"strings"

	"github.com/aretw0/flowbot/internal/codegen"
	"github.com/aretw0/flowbot/pkg/domain"
)

type span struct {
	id         string
	start, end token.Pos
}

// walk recovers the flow from a parsed file.
func (r *recovery) walk(file *ast.File) {
	spans := r.spans(file)

	var handlers, helpers []*ast.FuncDecl
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			sp := spanAt(spans, d.Pos())
			if sp == nil {
				r.topLevel(d)
				continue
			}
			n := r.claim(sp.id, d.Name.Name)
			if n.handler != d.Name.Name {
				helpers = append(helpers, d)
				continue
			}
			if typ, ok := docType(d.Doc, sp.id); ok {
				n.typ = typ
			}
			handlers = append(handlers, d)
		case *ast.GenDecl:
			r.groupsDecl(d)
		}
	}

	for _, fn := range helpers {
		r.summarize(fn)
	}
	for _, fn := range handlers {
		r.handler(r.byID[r.owner[fn.Name.Name]], fn)
	}
}

// docType reads the node type from the doc comment of a handler. The start
// marker usually shares the comment group and is skipped.
func docType(doc *ast.CommentGroup, id string) (domain.NodeType, bool) {
	if doc == nil {
		return "", false
	}
	for i := len(doc.List) - 1; i >= 0; i-- {
		c := doc.List[i]
		if _, _, ok := codegen.ParseMarker(c.Text); ok {
			continue
		}
		if typ, ok := handlerType(strings.TrimPrefix(c.Text, "//"), id); ok {
			return typ, true
		}
	}
	return "", false
}

// spans pairs the marker comments of the file.
func (r *recovery) spans(file *ast.File) []span {
	open := make(map[string]token.Pos)
	var out []span
	for _, group := range file.Comments {
		for _, c := range group.List {
			kind, id, ok := codegen.ParseMarker(c.Text)
			if !ok {
				continue
			}
			if kind == codegen.MarkerStart {
				if _, dup := open[id]; dup {
					r.warn("nested start marker for node %q", id)
				}
				open[id] = c.Pos()
				continue
			}
			start, ok := open[id]
			if !ok {
				r.warn("end marker for node %q without a start", id)
				continue
			}
			delete(open, id)
			out = append(out, span{id: id, start: start, end: c.End()})
		}
	}
	for id := range open {
		r.warn("start marker for node %q is never closed", id)
	}
	return out
}

func spanAt(spans []span, pos token.Pos) *span {
	for i := range spans {
		if spans[i].start <= pos && pos < spans[i].end {
			return &spans[i]
		}
	}
	return nil
}

// topLevel reads the functions outside node spans.
func (r *recovery) topLevel(fn *ast.FuncDecl) {
	switch fn.Name.Name {
	case "register", "Register":
		r.register(fn)
	case "openStore":
		r.persistent = true
		ast.Inspect(fn.Body, func(x ast.Node) bool {
			c, ok := x.(*ast.CallExpr)
			if !ok || callName(c) != "redis.WithPrefix" || len(c.Args) != 1 {
				return true
			}
			if prefix, ok := str(c.Args[0]); ok {
				if m := prefixRe.FindStringSubmatch(prefix); m != nil {
					if id, err := strconv.ParseInt(m[1], 10, 64); err == nil {
						r.projectID = &id
					}
				}
			}
			return false
		})
	}
}

// register reads the trigger tables.
func (r *recovery) register(fn *ast.FuncDecl) {
	for _, st := range fn.Body.List {
		es, ok := st.(*ast.ExprStmt)
		if !ok {
			continue
		}
		c, ok := es.X.(*ast.CallExpr)
		if !ok || len(c.Args) != 2 {
			continue
		}
		method, ok := strings.CutPrefix(callName(c), "rt.")
		if !ok {
			continue
		}
		key, ok := str(c.Args[0])
		if !ok {
			continue
		}
		if method == "Describe" {
			if desc, ok := str(c.Args[1]); ok {
				r.menu[key] = desc
			}
			continue
		}
		to, ok := handlerRef(c.Args[1])
		if !ok {
			continue
		}
		switch method {
		case "Command":
			r.commands = append(r.commands, binding{key: key, to: to})
		case "Text":
			r.texts = append(r.texts, binding{key: key, to: to})
		case "Callback":
			if _, dup := r.callbacks[key]; !dup {
				r.callbacks[key] = to
			}
		case "Button":
			if _, dup := r.buttons[key]; !dup {
				r.buttons[key] = to
			}
		}
	}
}

func handlerRef(e ast.Expr) (ref, bool) {
	switch x := e.(type) {
	case *ast.Ident:
		return ref{fn: x.Name}, true
	case *ast.CallExpr:
		id, ok := x.Fun.(*ast.Ident)
		if !ok || len(x.Args) != 1 {
			return ref{}, false
		}
		arg, _ := str(x.Args[0])
		return ref{fn: id.Name, arg: arg}, true
	}
	return ref{}, false
}

// groupsDecl reads the groups variable.
func (r *recovery) groupsDecl(d *ast.GenDecl) {
	if d.Tok != token.VAR {
		return
	}
	for _, s := range d.Specs {
		vs, ok := s.(*ast.ValueSpec)
		if !ok || len(vs.Names) != 1 || vs.Names[0].Name != "groups" || len(vs.Values) != 1 {
			continue
		}
		lit, ok := vs.Values[0].(*ast.CompositeLit)
		if !ok {
			continue
		}
		for _, elt := range lit.Elts {
			fields := keyed(elt)
			if fields == nil {
				continue
			}
			g := domain.Group{}
			g.Name, _ = str(fields["Name"])
			g.ExternalID, _ = str(fields["ID"])
			g.Admin = isTrue(fields["Admin"])
			if perms, ok := fields["Permissions"].(*ast.CompositeLit); ok {
				g.Permissions = make(map[string]bool)
				for _, pe := range perms.Elts {
					kv, ok := pe.(*ast.KeyValueExpr)
					if !ok {
						continue
					}
					if k, ok := str(kv.Key); ok {
						g.Permissions[k] = isTrue(kv.Value)
					}
				}
			}
			r.groups = append(r.groups, g)
		}
	}
}

// summarize records what a helper function does.
func (r *recovery) summarize(fn *ast.FuncDecl) {
	h := r.helper(fn.Name.Name)
	ast.Inspect(fn.Body, func(x ast.Node) bool {
		switch x := x.(type) {
		case *ast.ReturnStmt:
			if len(x.Results) == 1 {
				if next := continuation(x.Results[0]); next != "" {
					h.next = next
				}
			}
		case *ast.CallExpr:
			name := callName(x)
			switch {
			case name == "s.Set" && len(x.Args) == 2:
				h.setVar, _ = str(x.Args[0])
				h.setValue, _ = str(x.Args[1])
			case name == "s.CommitSelection" && len(x.Args) == 2:
				h.commit, _ = str(x.Args[1])
			case name == "botkit.CheckText" && len(x.Args) == 2:
				fields := keyed(x.Args[1])
				h.rules.MinLength = intVal(fields["MinLength"])
				h.rules.MaxLength = intVal(fields["MaxLength"])
				h.rules.InputFormat = formats[constName(fields["Format"])]
			case name == "s.Retry" && len(x.Args) == 1:
				h.retry, _ = str(x.Args[0])
			case name == "s.Reply" && len(x.Args) == 2:
				h.success, _ = str(x.Args[0])
			default:
				if b, ok := keyboardCall(x); ok {
					h.buttons = append(h.buttons, b)
				}
			}
		}
		return true
	})
}

// continuation returns the handler called by "return handleX(s)".
func continuation(e ast.Expr) string {
	c, ok := e.(*ast.CallExpr)
	if !ok || len(c.Args) != 1 {
		return ""
	}
	id, ok := c.Fun.(*ast.Ident)
	if !ok {
		return ""
	}
	if arg, ok := c.Args[0].(*ast.Ident); !ok || arg.Name != "s" {
		return ""
	}
	return id.Name
}

// handler reads the body of a node handler.
func (r *recovery) handler(n *nodeRec, fn *ast.FuncDecl) {
	ast.Inspect(fn.Body, func(x ast.Node) bool {
		switch x := x.(type) {
		case *ast.IfStmt:
			if _, ok := guard(x.Cond); ok {
				r.conditionChain(n, x)
				return false
			}
		case *ast.AssignStmt:
			n.assign(x)
		case *ast.CallExpr:
			n.call(x)
		}
		return true
	})
}

func (n *nodeRec) assign(a *ast.AssignStmt) {
	if len(a.Lhs) != 1 || len(a.Rhs) != 1 {
		return
	}
	lhs, ok := a.Lhs[0].(*ast.Ident)
	if !ok {
		return
	}
	switch lhs.Name {
	case "text":
		if a.Tok == token.DEFINE {
			n.text, _ = str(a.Rhs[0])
		}
	case "kb":
		c, ok := a.Rhs[0].(*ast.CallExpr)
		if !ok {
			return
		}
		if kind, cols, ok := keyboardCtor(c); ok {
			n.kbType, n.columns = kind, cols
			return
		}
		if id, ok := c.Fun.(*ast.Ident); ok {
			n.kbHelper = id.Name
		}
	}
}

func (n *nodeRec) call(c *ast.CallExpr) {
	if b, ok := keyboardCall(c); ok {
		n.buttons = append(n.buttons, b)
		return
	}
	args := c.Args
	switch callName(c) {
	case "s.RestoreSelection":
		if len(args) == 2 {
			n.multi = true
			n.selectVar, _ = str(args[1])
		}
	case "s.Wait":
		if len(args) == 3 {
			n.waitKind = constName(args[0])
			n.waitVar, _ = str(args[1])
			if id, ok := args[2].(*ast.Ident); ok {
				n.collector = id.Name
			}
		}
	case "s.Chain":
		if len(args) == 1 {
			if id, ok := args[0].(*ast.Ident); ok {
				n.chain = id.Name
			}
		}
	case "s.SendMedia":
		if len(args) >= 2 {
			n.mediaKind = constName(args[0])
			n.mediaURL, _ = str(args[1])
		}
	case "s.Send":
		if len(args) != 1 {
			return
		}
		fields := keyed(args[0])
		if t, ok := str(fields["Text"]); ok && n.text == "" {
			n.text = t
		}
		n.parseMode = parseModes[constName(fields["ParseMode"])]
		if media := keyed(fields["Media"]); media != nil {
			n.mediaKind = constName(media["Kind"])
			n.mediaURL, _ = str(media["URL"])
		}
	case "s.SendLocation":
		if len(args) >= 1 {
			f := keyed(args[0])
			loc := &domain.LocationData{Latitude: floatVal(f["Latitude"]), Longitude: floatVal(f["Longitude"])}
			loc.Title, _ = str(f["Title"])
			loc.Address, _ = str(f["Address"])
			n.location = loc
		}
	case "s.SendContact":
		if len(args) >= 1 {
			f := keyed(args[0])
			ct := &domain.ContactData{}
			ct.PhoneNumber, _ = str(f["PhoneNumber"])
			ct.FirstName, _ = str(f["FirstName"])
			ct.LastName, _ = str(f["LastName"])
			n.contact = ct
		}
	case "s.Moderate":
		if len(args) == 1 {
			n.moderate(keyed(args[0]))
		}
	case "s.Reply":
		if len(args) >= 1 && n.text == "" {
			n.text, _ = str(args[0])
		}
	}
}

func (n *nodeRec) moderate(f map[string]ast.Expr) {
	n.modAction = constName(f["Action"])
	d := &domain.ModerationData{
		TargetUserID:        int64(intVal(f["TargetUserID"])),
		Duration:            intVal(f["Duration"]),
		RevokeMessages:      isTrue(f["RevokeMessages"]),
		DisableNotification: isTrue(f["DisableNotification"]),
		UnpinAll:            isTrue(f["UnpinAll"]),
		OnlyIfBanned:        isTrue(f["OnlyIfBanned"]),
	}
	d.CustomTitle, _ = str(f["CustomTitle"])
	if rights := keyed(f["Rights"]); rights != nil {
		d.AdminRights = domain.AdminRights{
			CanChangeInfo:       isTrue(rights["ChangeInfo"]),
			CanDeleteMessages:   isTrue(rights["DeleteMessages"]),
			CanRestrictMembers:  isTrue(rights["RestrictMembers"]),
			CanInviteUsers:      isTrue(rights["InviteUsers"]),
			CanPinMessages:      isTrue(rights["PinMessages"]),
			CanManageVideoChats: isTrue(rights["ManageVideoChats"]),
			CanPromoteMembers:   isTrue(rights["PromoteMembers"]),
			IsAnonymous:         isTrue(rights["Anonymous"]),
		}
	}
	n.moderation = d
}

// conditionChain reads an if/else-if chain of guards. Branches appear in
// evaluation order, so priorities are assigned in descending order.
func (r *recovery) conditionChain(n *nodeRec, first *ast.IfStmt) {
	var conds []rawCondition
	for cur := first; cur != nil; {
		cm, ok := guard(cur.Cond)
		if !ok {
			break
		}
		rc := rawCondition{msg: cm}
		ast.Inspect(cur.Body, func(x ast.Node) bool {
			switch x := x.(type) {
			case *ast.AssignStmt:
				if len(x.Lhs) != 1 || len(x.Rhs) != 1 {
					return true
				}
				lhs, ok := x.Lhs[0].(*ast.Ident)
				if !ok {
					return true
				}
				switch lhs.Name {
				case "text":
					rc.msg.MessageText, _ = str(x.Rhs[0])
				case "kb":
					if c, ok := x.Rhs[0].(*ast.CallExpr); ok {
						if kind, _, ok := keyboardCtor(c); ok {
							rc.kbType = kind
						}
					}
				}
			case *ast.CallExpr:
				if b, ok := keyboardCall(x); ok {
					rc.buttons = append(rc.buttons, b)
					return true
				}
				if callName(x) == "s.Wait" && len(x.Args) == 3 {
					rc.msg.WaitForTextInput = true
					rc.msg.TextInputVariable, _ = str(x.Args[1])
					if id, ok := x.Args[2].(*ast.Ident); ok {
						rc.collector = id.Name
					}
				}
			}
			return true
		})
		conds = append(conds, rc)
		cur, _ = cur.Else.(*ast.IfStmt)
	}
	for i := range conds {
		conds[i].msg.ID = n.id + "_cond_" + strconv.Itoa(i+1)
		conds[i].msg.Priority = len(conds) - i
	}
	n.conds = append(n.conds, conds...)
}

// guard parses a condition predicate: one botkit session test per
// variable, joined by a single logic operator.
func guard(e ast.Expr) (domain.ConditionalMessage, bool) {
	var cm domain.ConditionalMessage
	terms, op, ok := flatten(e, token.ILLEGAL)
	if !ok {
		return cm, false
	}
	var vars []string
	for _, t := range terms {
		kind, variable, expected, ok := guardTerm(t)
		if !ok || (cm.Condition != "" && kind != cm.Condition) {
			return cm, false
		}
		cm.Condition, cm.ExpectedValue = kind, expected
		vars = append(vars, variable)
	}
	if len(vars) == 1 {
		cm.VariableName = vars[0]
	} else {
		cm.VariableNames = vars
		cm.LogicOperator = domain.LogicAnd
		if op == token.LOR {
			cm.LogicOperator = domain.LogicOr
		}
	}
	return cm, true
}

func flatten(e ast.Expr, op token.Token) ([]ast.Expr, token.Token, bool) {
	if p, ok := e.(*ast.ParenExpr); ok {
		e = p.X
	}
	b, ok := e.(*ast.BinaryExpr)
	if !ok || (b.Op != token.LAND && b.Op != token.LOR) {
		return []ast.Expr{e}, op, true
	}
	if op != token.ILLEGAL && b.Op != op {
		return nil, op, false
	}
	left, _, ok := flatten(b.X, b.Op)
	if !ok {
		return nil, op, false
	}
	right, _, ok := flatten(b.Y, b.Op)
	if !ok {
		return nil, op, false
	}
	return append(left, right...), b.Op, true
}

func guardTerm(e ast.Expr) (domain.ConditionKind, string, string, bool) {
	negated := false
	if u, ok := e.(*ast.UnaryExpr); ok && u.Op == token.NOT {
		negated, e = true, u.X
	}
	c, ok := e.(*ast.CallExpr)
	if !ok || len(c.Args) == 0 {
		return "", "", "", false
	}
	variable, ok := str(c.Args[0])
	if !ok {
		return "", "", "", false
	}
	switch name := callName(c); {
	case name == "s.Has" && negated:
		return domain.ConditionNotExists, variable, "", true
	case name == "s.Has":
		return domain.ConditionExists, variable, "", true
	case negated || len(c.Args) != 2:
		return "", "", "", false
	case name == "s.Equals":
		expected, _ := str(c.Args[1])
		return domain.ConditionEquals, variable, expected, true
	case name == "s.Contains":
		expected, _ := str(c.Args[1])
		return domain.ConditionContains, variable, expected, true
	}
	return "", "", "", false
}

// keyboardCall parses a "kb.Method(...)" button call.
func keyboardCall(c *ast.CallExpr) (rawButton, bool) {
	method, ok := strings.CutPrefix(callName(c), "kb.")
	if !ok || !keyboardMethods[method] {
		return rawButton{}, false
	}
	b := rawButton{method: method}
	args := c.Args
	switch {
	case method == "Toggle" && len(args) == 3:
		b.label, _ = str(args[1])
		b.arg, _ = str(args[2])
	case (method == "Callback" || method == "URL") && len(args) == 2:
		b.label, _ = str(args[0])
		b.arg, _ = str(args[1])
	case len(args) == 1:
		b.label, _ = str(args[0])
	default:
		return rawButton{}, false
	}
	return b, true
}

// keyboardCtor parses botkit.NewInlineKeyboard(n) and NewReplyKeyboard(n).
func keyboardCtor(c *ast.CallExpr) (string, int, bool) {
	var kind string
	switch callName(c) {
	case "botkit.NewInlineKeyboard":
		kind = domain.KeyboardInline
	case "botkit.NewReplyKeyboard":
		kind = domain.KeyboardReply
	default:
		return "", 0, false
	}
	cols := 0
	if len(c.Args) == 1 {
		cols = intVal(c.Args[0])
	}
	return kind, cols, true
}

// callName renders the function of a call as "x.Sel" or "name".
func callName(c *ast.CallExpr) string {
	return exprName(c.Fun)
}

func exprName(e ast.Expr) string {
	switch x := e.(type) {
	case *ast.Ident:
		return x.Name
	case *ast.SelectorExpr:
		if base := exprName(x.X); base != "" {
			return base + "." + x.Sel.Name
		}
	}
	return ""
}

// constName returns Name for a botkit.Name selector.
func constName(e ast.Expr) string {
	name, _ := strings.CutPrefix(exprName(e), "botkit.")
	return name
}

func str(e ast.Expr) (string, bool) {
	lit, ok := e.(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return "", false
	}
	s, err := strconv.Unquote(lit.Value)
	return s, err == nil
}

func number(e ast.Expr) (string, bool) {
	neg := false
	if u, ok := e.(*ast.UnaryExpr); ok && u.Op == token.SUB {
		neg, e = true, u.X
	}
	lit, ok := e.(*ast.BasicLit)
	if !ok || (lit.Kind != token.INT && lit.Kind != token.FLOAT) {
		return "", false
	}
	if neg {
		return "-" + lit.Value, true
	}
	return lit.Value, true
}

func intVal(e ast.Expr) int {
	s, ok := number(e)
	if !ok {
		return 0
	}
	v, _ := strconv.Atoi(s)
	return v
}

func floatVal(e ast.Expr) float64 {
	s, ok := number(e)
	if !ok {
		return 0
	}
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func isTrue(e ast.Expr) bool {
	id, ok := e.(*ast.Ident)
	return ok && id.Name == "true"
}

// keyed returns the fields of a keyed composite literal, looking through &.
func keyed(e ast.Expr) map[string]ast.Expr {
	if u, ok := e.(*ast.UnaryExpr); ok && u.Op == token.AND {
		e = u.X
	}
	lit, ok := e.(*ast.CompositeLit)
	if !ok {
		return nil
	}
	out := make(map[string]ast.Expr, len(lit.Elts))
	for _, elt := range lit.Elts {
		kv, ok := elt.(*ast.KeyValueExpr)
		if !ok {
			continue
		}
		if k, ok := kv.Key.(*ast.Ident); ok {
			out[k.Name] = kv.Value
		}
	}
	return out
}
