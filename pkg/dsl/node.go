package dsl

import (
	"fmt"

	"github.com/aretw0/flowbot/pkg/domain"
)

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	id      string
	typ     domain.NodeType
	content domain.Content
	builder *Builder

	mediaURL   string
	location   domain.LocationData
	contact    domain.ContactData
	moderation domain.ModerationData
}

// Start marks the node as the flow entry point answering /start.
func (n *NodeBuilder) Start(text string) *NodeBuilder {
	n.typ = domain.NodeStart
	n.content.Text = text
	if n.content.Command == "" {
		n.content.Command = domain.DefaultStartCommand
	}
	return n
}

// Text sets the message text of the node.
func (n *NodeBuilder) Text(text string) *NodeBuilder {
	n.content.Text = text
	n.moderation.Text = text
	return n
}

// Format sets the parse mode ("html" or "markdown") of the message text.
func (n *NodeBuilder) Format(mode string) *NodeBuilder {
	n.content.ParseMode = mode
	return n
}

// Command binds a slash command that activates the node directly.
func (n *NodeBuilder) Command(cmd string, synonyms ...string) *NodeBuilder {
	if n.typ == domain.NodeMessage {
		n.typ = domain.NodeCommand
	}
	n.content.Command = cmd
	n.content.Synonyms = append(n.content.Synonyms, synonyms...)
	n.moderation.Command = cmd
	n.moderation.Synonyms = append(n.moderation.Synonyms, synonyms...)
	return n
}

// Menu lists the node's command in the bot menu.
func (n *NodeBuilder) Menu(description string) *NodeBuilder {
	n.content.ShowInMenu = true
	n.content.Description = description
	return n
}

// Media turns the node into a media send of kind t.
func (n *NodeBuilder) Media(t domain.NodeType, url string) *NodeBuilder {
	if !t.IsMedia() {
		panic(fmt.Sprintf("dsl: %q is not a media node type", t))
	}
	n.typ = t
	n.mediaURL = url
	return n
}

// Location turns the node into a location (or venue, with a title) send.
func (n *NodeBuilder) Location(lat, lon float64, title string) *NodeBuilder {
	n.typ = domain.NodeLocation
	n.location.Latitude, n.location.Longitude, n.location.Title = lat, lon, title
	return n
}

// Contact turns the node into a contact card send.
func (n *NodeBuilder) Contact(phone, firstName string) *NodeBuilder {
	n.typ = domain.NodeContact
	n.contact.PhoneNumber, n.contact.FirstName = phone, firstName
	return n
}

// Moderate turns the node into a moderation action of kind t.
// configure may adjust the action record (duration, rights, target user).
func (n *NodeBuilder) Moderate(t domain.NodeType, configure func(*domain.ModerationData)) *NodeBuilder {
	if !t.IsModeration() {
		panic(fmt.Sprintf("dsl: %q is not a moderation node type", t))
	}
	n.typ = t
	if configure != nil {
		configure(&n.moderation)
	}
	return n
}

// Button adds a goto button.
func (n *NodeBuilder) Button(text, target string) *NodeBuilder {
	return n.button(domain.Button{Text: text, Action: domain.ActionGoto, Target: target})
}

// Link adds a URL button.
func (n *NodeBuilder) Link(text, url string) *NodeBuilder {
	return n.button(domain.Button{Text: text, Action: domain.ActionURL, URL: url})
}

// CommandButton adds a button that runs a command.
func (n *NodeBuilder) CommandButton(text, cmd string) *NodeBuilder {
	return n.button(domain.Button{Text: text, Action: domain.ActionCommand, Target: cmd})
}

// Option adds a selection button for multi-select or quick-set nodes.
func (n *NodeBuilder) Option(text string) *NodeBuilder {
	return n.button(domain.Button{Text: text, Action: domain.ActionSelection})
}

// Reply switches the node keyboard to a reply keyboard.
func (n *NodeBuilder) Reply() *NodeBuilder {
	n.content.KeyboardType = domain.KeyboardReply
	return n
}

// Columns sets the keyboard width.
func (n *NodeBuilder) Columns(cols int) *NodeBuilder {
	n.content.Columns = cols
	return n
}

func (n *NodeBuilder) button(b domain.Button) *NodeBuilder {
	b.ID = fmt.Sprintf("%s_b%d", n.id, len(n.content.Buttons)+1)
	if n.content.KeyboardType == "" {
		n.content.KeyboardType = domain.KeyboardInline
	}
	n.content.Buttons = append(n.content.Buttons, b)
	return n
}

// MultiSelect accumulates the node's options into variable until the
// continue button, which leads to target.
func (n *NodeBuilder) MultiSelect(variable, continueText, target string) *NodeBuilder {
	n.content.MultiSelectConfig = domain.MultiSelectConfig{
		AllowMultipleSelection: true,
		MultiSelectVariable:    variable,
		ContinueButtonText:     continueText,
		ContinueButtonTarget:   target,
	}
	return n
}

// Input makes the node collect a text answer into variable.
// A node without another type becomes a user_input node.
func (n *NodeBuilder) Input(variable string) *NodeBuilder {
	if n.typ == domain.NodeMessage {
		n.typ = domain.NodeUserInput
	}
	n.content.CollectUserInput = true
	n.content.InputType = domain.InputText
	n.content.InputVariable = variable
	return n
}

// Validate sets the text input rules. Zero values disable a rule.
func (n *NodeBuilder) Validate(minLength, maxLength int, format string) *NodeBuilder {
	n.content.MinLength = minLength
	n.content.MaxLength = maxLength
	n.content.InputFormat = format
	return n
}

// Retry sets the message sent when an answer fails validation.
func (n *NodeBuilder) Retry(message string) *NodeBuilder {
	n.content.RetryMessage = message
	return n
}

// Then sets the node activated after a valid answer.
func (n *NodeBuilder) Then(target string) *NodeBuilder {
	n.content.InputTargetNodeID = target
	return n
}

// When adds a conditional message. Conditions are evaluated by priority.
func (n *NodeBuilder) When(c domain.ConditionalMessage) *NodeBuilder {
	if c.ID == "" {
		c.ID = fmt.Sprintf("%s_cond_%d", n.id, len(n.content.ConditionalMessages)+1)
	}
	n.content.EnableConditionalMessages = true
	n.content.ConditionalMessages = append(n.content.ConditionalMessages, c)
	return n
}

// Go hands control to target right after the node's message.
func (n *NodeBuilder) Go(target string) *NodeBuilder {
	n.content.AutoTransition = domain.AutoTransition{EnableAutoTransition: true, AutoTransitionTo: target}
	return n
}

// Connect draws an editor connection to target.
func (n *NodeBuilder) Connect(target string) *NodeBuilder {
	n.builder.edges = append(n.builder.edges, domain.Connection{
		ID:     n.id + "->" + target,
		Source: n.id,
		Target: target,
	})
	return n
}

// Build returns the underlying domain.Node.
// This is primarily used by the Builder, but exposed for advanced usage.
func (n *NodeBuilder) Build() domain.Node {
	node := domain.Node{ID: n.id, Type: n.typ}
	switch {
	case n.typ.IsMedia():
		node.Data = &domain.MediaData{Content: n.content, MediaURL: n.mediaURL}
	case n.typ == domain.NodeLocation:
		d := n.location
		d.Content = n.content
		node.Data = &d
	case n.typ == domain.NodeContact:
		d := n.contact
		d.Content = n.content
		node.Data = &d
	case n.typ.IsModeration():
		d := n.moderation
		node.Data = &d
	case n.typ == domain.NodeUserInput:
		node.Data = &domain.InputData{Content: n.content}
	default:
		node.Data = &domain.MessageData{Content: n.content}
	}
	return node
}
