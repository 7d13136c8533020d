package generation

import (
	"errors"
	"math"
	"testing"

	"loa/internal/ast"
	"loa/internal/source"
)

func TestCallMethodCallsite(t *testing.T) {
	uri := source.TestURI("main.loa")
	tests := []struct {
		name      string
		line      int
		character int
		wantErr   bool
	}{
		{"ordinary position", 3, 7, false},
		{"largest line", math.MaxUint32, 0, false},
		{"line out of range", math.MaxUint32 + 1, 0, true},
		{"negative column", 1, -1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := &ast.Node{ID: 1, Span: source.Span{Start: source.Location{URI: uri, Line: tt.line, Character: tt.character}}}
			var g Generator
			call, err := g.callMethod("run", node)
			if tt.wantErr {
				var gerr *Error
				if !errors.As(err, &gerr) || gerr.Kind != InvalidNode {
					t.Fatalf("err = %v, want an invalid node error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("callMethod: %v", err)
			}
			if call.Op != OpCallMethod || call.Hash != SelectorHash("run") || call.Name != string(uri) {
				t.Fatalf("call = %+v", call)
			}
			if int(call.Line) != tt.line || int(call.Character) != tt.character {
				t.Fatalf("callsite = %d:%d, want %d:%d", call.Line, call.Character, tt.line, tt.character)
			}
		})
	}
}
