package botkit

// KeyboardKind distinguishes inline keyboards from reply keyboards.
type KeyboardKind int

const (
	KeyboardInline KeyboardKind = iota
	KeyboardReply
)

// SelectedPrefix marks selected options of a multi-select keyboard.
const SelectedPrefix = "✅ "

// Button is one rendered keyboard button.
type Button struct {
	Text            string
	Data            string
	URL             string
	RequestContact  bool
	RequestLocation bool
}

// Keyboard is built by emitted handlers and rendered by the transport.
type Keyboard struct {
	Kind    KeyboardKind
	Columns int
	Buttons []Button
}

// NewInlineKeyboard returns an empty inline keyboard laid out in columns.
func NewInlineKeyboard(columns int) *Keyboard {
	return &Keyboard{Kind: KeyboardInline, Columns: columns}
}

// NewReplyKeyboard returns an empty reply keyboard laid out in columns.
func NewReplyKeyboard(columns int) *Keyboard {
	return &Keyboard{Kind: KeyboardReply, Columns: columns}
}

// Callback adds an inline button carrying a callback token.
func (k *Keyboard) Callback(text, data string) *Keyboard {
	k.Buttons = append(k.Buttons, Button{Text: text, Data: data})
	return k
}

// URL adds a link button.
func (k *Keyboard) URL(text, url string) *Keyboard {
	k.Buttons = append(k.Buttons, Button{Text: text, URL: url})
	return k
}

// Text adds a reply button that sends its label.
func (k *Keyboard) Text(text string) *Keyboard {
	k.Buttons = append(k.Buttons, Button{Text: text})
	return k
}

// Contact adds a reply button that shares the user's phone number.
func (k *Keyboard) Contact(text string) *Keyboard {
	k.Buttons = append(k.Buttons, Button{Text: text, RequestContact: true})
	return k
}

// Location adds a reply button that shares the user's location.
func (k *Keyboard) Location(text string) *Keyboard {
	k.Buttons = append(k.Buttons, Button{Text: text, RequestLocation: true})
	return k
}

// Toggle adds a multi-select option, prefixed with SelectedPrefix when
// label is in selected.
func (k *Keyboard) Toggle(selected []string, label, data string) *Keyboard {
	text := label
	for _, s := range selected {
		if s == label {
			text = SelectedPrefix + label
			break
		}
	}
	return k.Callback(text, data)
}

// Rows lays the buttons out row by row.
func (k *Keyboard) Rows() [][]Button {
	if k == nil || len(k.Buttons) == 0 {
		return nil
	}
	cols := k.Columns
	if cols < 1 {
		cols = 1
	}
	rows := make([][]Button, 0, (len(k.Buttons)+cols-1)/cols)
	for start := 0; start < len(k.Buttons); start += cols {
		end := min(start+cols, len(k.Buttons))
		rows = append(rows, k.Buttons[start:end])
	}
	return rows
}
