package compiler

import (
	"testing"

	"github.com/aretw0/flowbot/pkg/domain"
	"github.com/aretw0/flowbot/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleJSON = `{
  "name": "Survey",
  "persistentStorage": true,
  "groups": [{"name": "Staff", "groupId": "-100123", "isAdmin": true}],
  "sheets": [
    {
      "id": "s1",
      "name": "Main",
      "nodes": [
        {"id": "start", "type": "start", "data": {"messageText": "Hi", "buttons": [
          {"id": "b1", "text": "Go", "targetNodeId": "ask"}
        ]}},
        {"id": "ask", "type": "message", "data": {
          "messageText": "Your name?",
          "collectUserInput": true,
          "inputVariable": "name",
          "minLength": "3",
          "inputTargetNodeId": "pic"
        }},
        {"id": "pic", "type": "photo", "data": {"imageUrl": "https://example.com/a.png"}},
        {"id": "where", "type": "location", "data": {"latitude": "48.85", "longitude": 2.35}},
        {"id": "weird", "type": "carousel", "data": {"messageText": "?"}}
      ],
      "connections": [{"source": "start", "target": "ask"}]
    }
  ]
}`

func TestLoader_JSON(t *testing.T) {
	res, err := NewLoader().Load([]byte(sampleJSON), FormatAuto)
	require.NoError(t, err)

	p := res.Project
	assert.Equal(t, "Survey", p.Name)
	assert.True(t, p.PersistentStorage)
	require.Len(t, p.Groups, 1)
	assert.True(t, p.Groups[0].Admin)

	g := p.Graph()
	require.Len(t, g.Nodes, 5)

	start, ok := g.Node("start")
	require.True(t, ok)
	cmd, _ := start.Trigger()
	assert.Equal(t, domain.DefaultStartCommand, cmd)
	require.Len(t, start.Buttons(), 1)
	assert.Equal(t, domain.ActionGoto, start.Buttons()[0].Action)
	assert.Equal(t, "ask", start.Buttons()[0].Target)
	assert.Equal(t, domain.KeyboardInline, start.Content().KeyboardType)

	ask, _ := g.Node("ask")
	assert.True(t, ask.CollectsInput())
	assert.Equal(t, 3, ask.Content().MinLength)
	assert.Equal(t, "pic", ask.Content().InputTargetNodeID)

	pic, _ := g.Node("pic")
	require.IsType(t, &domain.MediaData{}, pic.Data)
	assert.Equal(t, "https://example.com/a.png", pic.Data.(*domain.MediaData).MediaURL)

	where, _ := g.Node("where")
	loc := where.Data.(*domain.LocationData)
	assert.InDelta(t, 48.85, loc.Latitude, 1e-9)

	weird, _ := g.Node("weird")
	assert.Equal(t, domain.NodeMessage, weird.Type)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "carousel")
}

func TestLoader_YAMLLegacyTopLevel(t *testing.T) {
	doc := `
name: Legacy
nodes:
  - id: start
    type: start
    data:
      messageText: Hello
      command: /begin
  - id: pick
    type: message
    data:
      messageText: Pick colours
      allowMultipleSelection: true
      multiSelectVariable: colours
      buttons:
        - {id: r, text: Red, action: selection}
        - {id: g, text: Green, action: selection}
connections:
  - {source: start, target: pick}
`
	res, err := NewLoader().Load([]byte(doc), FormatYAML)
	require.NoError(t, err)
	require.Len(t, res.Project.Sheets, 1)

	g := res.Project.Graph()
	start, _ := g.Node("start")
	cmd, _ := start.Trigger()
	assert.Equal(t, "/begin", cmd)

	pick, _ := g.Node("pick")
	assert.True(t, pick.IsMultiSelect())
	assert.Equal(t, "colours", pick.Content().MultiSelectVariable)
	require.Len(t, pick.Buttons(), 2)
	assert.Equal(t, domain.ActionSelection, pick.Buttons()[1].Action)
	assert.Equal(t, []string{"pick"}, g.Successors("start"))
}

func TestLoader_SchemaViolations(t *testing.T) {
	doc := `{"nodes": [{"id": "c", "type": "contact", "data": {"firstName": "Ann"}}]}`

	t.Run("Lenient", func(t *testing.T) {
		res, err := NewLoader().Load([]byte(doc), FormatJSON)
		require.NoError(t, err)
		require.Len(t, res.Warnings, 1)
		assert.Contains(t, res.Warnings[0], "phoneNumber")
	})

	t.Run("Strict", func(t *testing.T) {
		_, err := NewLoader(WithStrict(true)).Load([]byte(doc), FormatJSON)
		require.Error(t, err)
		errs := schema.ValidationErrors(err)
		require.Len(t, errs, 1)
		var nodeErr *schema.NodeError
		require.ErrorAs(t, errs[0], &nodeErr)
		assert.Equal(t, "c", nodeErr.NodeID)
	})
}

func TestLoader_Errors(t *testing.T) {
	_, err := NewLoader().Load([]byte(`{"nodes": [`), FormatJSON)
	assert.Error(t, err)

	_, err = NewLoader().Load([]byte(`{"nodes": [{"type": "message"}]}`), FormatJSON)
	assert.ErrorContains(t, err, "missing ID")

	_, err = NewLoader().Load([]byte(`{}`), Format("toml"))
	assert.Error(t, err)
}

func TestEncode_RoundTrip(t *testing.T) {
	res, err := NewLoader().Load([]byte(sampleJSON), FormatJSON)
	require.NoError(t, err)

	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			out, err := Encode(res.Project, format)
			require.NoError(t, err)

			again, err := NewLoader().Load(out, format)
			require.NoError(t, err)
			assert.True(t, domain.Diff(res.Project.Graph(), again.Project.Graph()).Empty())

			ask, _ := again.Project.Graph().Node("ask")
			assert.Equal(t, "name", ask.Content().InputVariable)
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFromPath("flow.YML"))
	assert.Equal(t, FormatJSON, FormatFromPath("/tmp/flow.json"))
	assert.Equal(t, FormatAuto, FormatFromPath("flow"))
}
