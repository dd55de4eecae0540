package decompiler

import (
	"bufio"
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/aretw0/flowbot/internal/codegen"
	"github.com/aretw0/flowbot/pkg/domain"
)

var (
	funcRe       = regexp.MustCompile(`^func (\w+)\(`)
	textRe       = regexp.MustCompile(`^\s*text := ` + quoted + `\s*$`)
	kbPairRe     = regexp.MustCompile(`\bkb\.(Callback|URL)\(` + quoted + `,\s*` + quoted + `\)`)
	kbSingleRe   = regexp.MustCompile(`\bkb\.(Text|Contact|Location)\(` + quoted + `\)`)
	kbToggleRe   = regexp.MustCompile(`\bkb\.Toggle\(\w+,\s*` + quoted + `,\s*` + quoted + `\)`)
	kbHelperRe   = regexp.MustCompile(`^\s*kb := (\w+)\(s\)\s*$`)
	waitRe       = regexp.MustCompile(`\bs\.Wait\(botkit\.(\w+),\s*` + quoted + `,\s*(\w+)\)`)
	chainRe      = regexp.MustCompile(`\bs\.Chain\((\w+)\)`)
	restoreRe    = regexp.MustCompile(`\bs\.RestoreSelection\(` + quoted + `,\s*` + quoted + `\)`)
	nextRe       = regexp.MustCompile(`^\s*return (\w+)\(s\)\s*$`)
	setRe        = regexp.MustCompile(`\bs\.Set\(` + quoted + `,\s*` + quoted + `\)`)
	commitRe     = regexp.MustCompile(`\bs\.CommitSelection\(` + quoted + `,\s*` + quoted + `\)`)
	actionRe     = regexp.MustCompile(`Action: botkit\.(Mod\w+)`)
	sendMediaRe  = regexp.MustCompile(`\bs\.SendMedia\(botkit\.(Media\w+),\s*` + quoted)
	mediaFieldRe = regexp.MustCompile(`Kind: botkit\.(Media\w+), URL: ` + quoted)
	replyRe      = regexp.MustCompile(`\bs\.Reply\(` + quoted)
	registerRe   = regexp.MustCompile(`\brt\.(Command|Callback|Button|Text)\(` + quoted + `,\s*(\w+)(?:\(` + quoted + `\))?\)`)
	describeRe   = regexp.MustCompile(`\brt\.Describe\(` + quoted + `,\s*` + quoted + `\)`)
	storePrefRe  = regexp.MustCompile(`\bredis\.WithPrefix\(` + quoted + `\)`)
)

// scan recovers what it can from source that does not parse, one line at a
// time. Only the markers, handler docs, keyboard calls and the register
// calls are trusted.
func (r *recovery) scan(src []byte) {
	var cur *nodeRec // node of the open span
	var fn string    // function being read

	sc := bufio.NewScanner(bytes.NewReader(src))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()

		if kind, id, ok := codegen.ParseMarker(line); ok {
			if kind == codegen.MarkerStart {
				cur = r.node(id)
			} else {
				cur = nil
			}
			fn = ""
			continue
		}

		if m := funcRe.FindStringSubmatch(line); m != nil {
			fn = m[1]
			if cur != nil {
				r.claim(cur.id, fn)
			} else if fn == "openStore" {
				r.persistent = true
			}
			continue
		}

		if cur == nil {
			r.scanTopLevel(line)
			continue
		}

		if doc, ok := strings.CutPrefix(strings.TrimSpace(line), "//"); ok {
			if typ, ok := handlerType(doc, cur.id); ok {
				cur.typ = typ
			}
			continue
		}

		if fn == "" {
			continue
		}
		if fn == cur.handler {
			scanHandlerLine(cur, line)
		} else {
			scanHelperLine(r.helper(fn), line)
		}
	}
	if err := sc.Err(); err != nil {
		r.warn("line scan stopped: %v", err)
	}
}

func (r *recovery) scanTopLevel(line string) {
	if m := registerRe.FindStringSubmatch(line); m != nil {
		key, err := strconv.Unquote(m[2])
		if err != nil {
			return
		}
		to := ref{fn: m[3]}
		if m[4] != "" {
			to.arg, _ = strconv.Unquote(m[4])
		}
		switch m[1] {
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
		return
	}
	if m := describeRe.FindStringSubmatch(line); m != nil {
		cmd, err1 := strconv.Unquote(m[1])
		desc, err2 := strconv.Unquote(m[2])
		if err1 == nil && err2 == nil {
			r.menu[cmd] = desc
		}
		return
	}
	if m := storePrefRe.FindStringSubmatch(line); m != nil {
		prefix, _ := strconv.Unquote(m[1])
		if pm := prefixRe.FindStringSubmatch(prefix); pm != nil {
			if id, err := strconv.ParseInt(pm[1], 10, 64); err == nil {
				r.projectID = &id
			}
		}
	}
}

func scanHandlerLine(n *nodeRec, line string) {
	if b, ok := scanButton(line); ok {
		n.buttons = append(n.buttons, b)
		return
	}
	if m := textRe.FindStringSubmatch(line); m != nil && n.text == "" {
		n.text, _ = strconv.Unquote(m[1])
		return
	}
	if m := kbHelperRe.FindStringSubmatch(line); m != nil {
		n.kbHelper = m[1]
		return
	}
	if m := restoreRe.FindStringSubmatch(line); m != nil {
		n.multi = true
		n.selectVar, _ = strconv.Unquote(m[2])
		return
	}
	if m := waitRe.FindStringSubmatch(line); m != nil && n.waitKind == "" {
		n.waitKind = m[1]
		n.waitVar, _ = strconv.Unquote(m[2])
		n.collector = m[3]
		return
	}
	if m := chainRe.FindStringSubmatch(line); m != nil {
		n.chain = m[1]
		return
	}
	if m := actionRe.FindStringSubmatch(line); m != nil {
		n.modAction = m[1]
	}
	if m := sendMediaRe.FindStringSubmatch(line); m != nil {
		n.mediaKind = m[1]
		n.mediaURL, _ = strconv.Unquote(m[2])
	} else if m := mediaFieldRe.FindStringSubmatch(line); m != nil {
		n.mediaKind = m[1]
		n.mediaURL, _ = strconv.Unquote(m[2])
	}
	switch {
	case strings.Contains(line, "s.SendLocation("):
		n.location = &domain.LocationData{}
	case strings.Contains(line, "s.SendContact("):
		n.contact = &domain.ContactData{}
	}
	if m := replyRe.FindStringSubmatch(line); m != nil && n.text == "" {
		n.text, _ = strconv.Unquote(m[1])
	}
}

func scanHelperLine(h *helperRec, line string) {
	if b, ok := scanButton(line); ok {
		h.buttons = append(h.buttons, b)
		return
	}
	if m := nextRe.FindStringSubmatch(line); m != nil {
		h.next = m[1]
		return
	}
	if m := setRe.FindStringSubmatch(line); m != nil {
		h.setVar, _ = strconv.Unquote(m[1])
		h.setValue, _ = strconv.Unquote(m[2])
		return
	}
	if m := commitRe.FindStringSubmatch(line); m != nil {
		h.commit, _ = strconv.Unquote(m[2])
	}
}

func scanButton(line string) (rawButton, bool) {
	if m := kbPairRe.FindStringSubmatch(line); m != nil {
		label, _ := strconv.Unquote(m[2])
		arg, _ := strconv.Unquote(m[3])
		return rawButton{method: m[1], label: label, arg: arg}, true
	}
	if m := kbToggleRe.FindStringSubmatch(line); m != nil {
		label, _ := strconv.Unquote(m[1])
		arg, _ := strconv.Unquote(m[2])
		return rawButton{method: "Toggle", label: label, arg: arg}, true
	}
	if m := kbSingleRe.FindStringSubmatch(line); m != nil {
		label, _ := strconv.Unquote(m[2])
		return rawButton{method: m[1], label: label}, true
	}
	return rawButton{}, false
}
