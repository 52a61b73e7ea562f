package server

import (
	"context"
	"testing"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/typeir/rvm/rvm"
)

func mustStruct(t *testing.T, fields map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(fields)
	if err != nil {
		t.Fatalf("structpb.NewStruct failed: %v", err)
	}
	return s
}

func TestResolveTypeDecodesAndResolvesProgram(t *testing.T) {
	svc := NewResolveService(nil)
	req := connect.NewRequest(mustStruct(t, map[string]any{
		"program": []any{"!"}, // OpString
	}))

	resp, err := svc.ResolveType(context.Background(), req)
	if err != nil {
		t.Fatalf("ResolveType failed: %v", err)
	}
	kind := resp.Msg.Fields["kind"].GetStringValue()
	if kind != "string" {
		t.Errorf("kind = %q, want %q", kind, "string")
	}
}

func TestResolveTypeMissingProgramFieldErrors(t *testing.T) {
	svc := NewResolveService(nil)
	req := connect.NewRequest(mustStruct(t, map[string]any{}))

	_, err := svc.ResolveType(context.Background(), req)
	if err == nil {
		t.Fatal("expected an error for a request with no \"program\" field")
	}
	if connect.CodeOf(err) != connect.CodeInvalidArgument {
		t.Errorf("code = %v, want CodeInvalidArgument", connect.CodeOf(err))
	}
}

func TestResolveTypeUsesResultCache(t *testing.T) {
	cache := rvm.NewResultCache("")
	svc := NewResolveService(cache)
	req := connect.NewRequest(mustStruct(t, map[string]any{
		"program":  []any{"!"},
		"cacheKey": "widget-v1",
	}))

	if _, err := svc.ResolveType(context.Background(), req); err != nil {
		t.Fatalf("ResolveType failed: %v", err)
	}
	if _, hit := cache.Get("widget-v1"); !hit {
		t.Fatal("expected the result cache to hold an entry under \"widget-v1\" after resolving")
	}

	// A second call with the same cacheKey should serve the cached node
	// rather than decoding the program again; feed it a malformed program
	// to prove the cache path is actually taken.
	req2 := connect.NewRequest(mustStruct(t, map[string]any{
		"program":  []any{"this is not a valid program"},
		"cacheKey": "widget-v1",
	}))
	resp, err := svc.ResolveType(context.Background(), req2)
	if err != nil {
		t.Fatalf("ResolveType (cache hit) failed: %v", err)
	}
	if kind := resp.Msg.Fields["kind"].GetStringValue(); kind != "string" {
		t.Errorf("kind = %q, want the cached %q", kind, "string")
	}
}

func TestResolveTypeOfResolvesBareProgramArray(t *testing.T) {
	svc := NewResolveService(nil)
	req := connect.NewRequest(mustStruct(t, map[string]any{
		"handle": []any{"!"}, // OpString, as a bare program array
	}))

	resp, err := svc.ResolveTypeOf(context.Background(), req)
	if err != nil {
		t.Fatalf("ResolveTypeOf failed: %v", err)
	}
	if kind := resp.Msg.Fields["kind"].GetStringValue(); kind != "string" {
		t.Errorf("kind = %q, want %q", kind, "string")
	}
}

func TestResolveTypeOfResolvesHandleWithEmbeddedTypeProperty(t *testing.T) {
	svc := NewResolveService(nil)
	req := connect.NewRequest(mustStruct(t, map[string]any{
		"handle": map[string]any{
			"name":   "Widget",
			"__type": []any{"!"}, // OpString
		},
	}))

	resp, err := svc.ResolveTypeOf(context.Background(), req)
	if err != nil {
		t.Fatalf("ResolveTypeOf failed: %v", err)
	}
	if kind := resp.Msg.Fields["kind"].GetStringValue(); kind != "string" {
		t.Errorf("kind = %q, want %q", kind, "string")
	}
}

func TestResolveTypeOfMissingHandleFieldErrors(t *testing.T) {
	svc := NewResolveService(nil)
	req := connect.NewRequest(mustStruct(t, map[string]any{}))

	_, err := svc.ResolveTypeOf(context.Background(), req)
	if err == nil {
		t.Fatal("expected an error for a request with no \"handle\" field")
	}
	if connect.CodeOf(err) != connect.CodeInvalidArgument {
		t.Errorf("code = %v, want CodeInvalidArgument", connect.CodeOf(err))
	}
}
