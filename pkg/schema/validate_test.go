package schema

import (
	"errors"
	"testing"

	"github.com/aretw0/flowbot/pkg/domain"
)

func TestValidate_Success(t *testing.T) {
	schema := Schema{
		"name":    String(),
		"retries": Int(),
		"lat":     Number(),
		"enabled": Bool(),
		"tags":    Slice(String()),
		"note":    Optional(String()),
	}

	data := map[string]any{
		"name":    "flow",
		"retries": 3,
		"lat":     "48.85",
		"enabled": "true",
		"tags":    []any{"a", "b"},
	}

	if err := Validate(schema, data); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestValidate_MissingField(t *testing.T) {
	schema := Schema{
		"name":    String(),
		"retries": Int(),
	}

	err := Validate(schema, map[string]any{"name": "flow"})
	if err == nil {
		t.Fatal("Validate() should return error for missing field")
	}

	errs := ValidationErrors(err)
	if len(errs) != 1 {
		t.Fatalf("Validate() = %d errors, want 1", len(errs))
	}

	var validErr *ValidationError
	if !errors.As(errs[0], &validErr) {
		t.Fatalf("error should be *ValidationError, got %T", errs[0])
	}
	if validErr.Key != "retries" || validErr.Reason != "required" {
		t.Errorf("got %q/%q, want retries/required", validErr.Key, validErr.Reason)
	}
}

func TestValidate_ErrorsAreOrdered(t *testing.T) {
	schema := Schema{"b": Int(), "a": Int(), "c": Int()}
	errs := ValidationErrors(Validate(schema, map[string]any{}))
	if len(errs) != 3 {
		t.Fatalf("got %d errors, want 3", len(errs))
	}
	for i, want := range []string{"a", "b", "c"} {
		if errs[i].(*ValidationError).Key != want {
			t.Errorf("errs[%d] key = %q, want %q", i, errs[i].(*ValidationError).Key, want)
		}
	}
}

func TestTypes(t *testing.T) {
	tests := []struct {
		name  string
		typ   Type
		value any
		ok    bool
	}{
		{"int from float", Int(), 3.0, true},
		{"int from fraction", Int(), 3.5, false},
		{"int from string", Int(), "42", true},
		{"int from word", Int(), "many", false},
		{"number from string", Number(), " -1.5 ", true},
		{"number from bool", Number(), true, false},
		{"bool from string", Bool(), "false", true},
		{"bool from word", Bool(), "yes please", false},
		{"enum hit", Enum("a", "b"), "b", true},
		{"enum miss", Enum("a", "b"), "c", false},
		{"optional nil", Optional(Int()), nil, true},
		{"object", Object(Schema{"x": Int()}), map[string]any{"x": 1}, true},
		{"object yaml map", Object(Schema{"x": Int()}), map[any]any{"x": 1}, true},
		{"object missing", Object(Schema{"x": Int()}), map[string]any{}, false},
		{"slice of objects", Slice(Object(Schema{"x": Int()})), []any{map[string]any{"x": "y"}}, false},
		{"custom", Custom("even", func(v any) error {
			if v.(int)%2 != 0 {
				return errors.New("odd")
			}
			return nil
		}), 4, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.typ.Validate(tt.value)
			if (err == nil) != tt.ok {
				t.Errorf("%s.Validate(%v) error = %v, want ok=%v", tt.typ.Name(), tt.value, err, tt.ok)
			}
		})
	}
}

func TestForNode(t *testing.T) {
	tests := []struct {
		name     string
		nodeType domain.NodeType
		data     map[string]any
		wantErr  bool
	}{
		{"message minimal", domain.NodeMessage, map[string]any{"messageText": "hi"}, false},
		{"location missing coords", domain.NodeLocation, map[string]any{}, true},
		{"location string coords", domain.NodeLocation, map[string]any{"latitude": "1.5", "longitude": 2}, false},
		{"contact missing phone", domain.NodeContact, map[string]any{"firstName": "Ann"}, true},
		{"user_input needs variable", domain.NodeUserInput, map[string]any{}, true},
		{"ban needs nothing", domain.NodeBanUser, map[string]any{}, false},
		{"bad button action", domain.NodeMessage, map[string]any{
			"buttons": []any{map[string]any{"id": "b", "action": "teleport"}},
		}, true},
		{"bad condition kind", domain.NodeMessage, map[string]any{
			"conditionalMessages": []any{map[string]any{"id": "c", "condition": "maybe"}},
		}, true},
		{"photo url", domain.NodePhoto, map[string]any{"mediaUrl": "https://x/y.png"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(ForNode(tt.nodeType), tt.data)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNodeError_Unwrap(t *testing.T) {
	inner := &AggregateError{Errors: []error{&ValidationError{Key: "x", Reason: "required"}}}
	err := &NodeError{NodeID: "n1", Err: inner}

	if got := ValidationErrors(err); len(got) != 1 {
		t.Fatalf("ValidationErrors through NodeError = %d, want 1", len(got))
	}
	if err.Error() != `node "n1": field "x": required` {
		t.Errorf("Error() = %q", err.Error())
	}
}
