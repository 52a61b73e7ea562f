package server

import (
	"context"
	"fmt"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/typeir/rvm/rvm"
)

// resolveProcedure is the Connect procedure path clients call. It is a
// hand-picked path rather than one generated from a .proto file: RVM's
// payload is a bare structpb.Struct, so there's no protoc step and no
// generated *connect package the way the teacher's maggiev1connect is.
const resolveProcedure = "/rvm.v1.TypeService/ResolveType"

// resolveOfProcedure is spec.md §6's second entry point, resolve_type_of:
// resolve a handle's own embedded program rather than one the caller already
// extracted.
const resolveOfProcedure = "/rvm.v1.TypeService/ResolveTypeOf"

// ResolveService answers ResolveType calls by decoding a Packed Program out
// of the request payload, running it through a fresh Processor Registry,
// and encoding the resolved Type IR back out. Each call gets its own
// Registry, matching the "never shared across goroutines" rule the
// Registry doc comment calls out.
type ResolveService struct {
	cache *rvm.ResultCache
}

// NewResolveService creates a ResolveService backed by cache (may be nil,
// in which case every call re-evaluates its program).
func NewResolveService(cache *rvm.ResultCache) *ResolveService {
	return &ResolveService{cache: cache}
}

// ResolveType implements the first of the two external entry points,
// resolve_type: decode a Packed Program, resolve it, return its Type IR.
func (s *ResolveService) ResolveType(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	fields := req.Msg.GetFields()

	programField, ok := fields["program"]
	if !ok {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("server: missing \"program\" field"))
	}
	raw, err := rawProgramFromValue(programField)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	inputs := inputsFromValue(fields["inputs"])

	handleKey := ""
	if k, ok := fields["cacheKey"]; ok {
		handleKey = k.GetStringValue()
	}
	if s.cache != nil && handleKey != "" {
		if cached, hit := s.cache.Get(handleKey); hit {
			return connect.NewResponse(nodeToStruct(cached)), nil
		}
	}

	program := rvm.DecodeProgram(raw)
	registry := rvm.NewRegistry()
	result, err := rvm.ResolveRuntimeType(registry, program, inputs)
	if err != nil {
		if rvmErr, ok := err.(*rvm.Error); ok {
			return nil, connect.NewError(codeForKind(rvmErr.Kind), rvmErr)
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	if s.cache != nil && handleKey != "" {
		s.cache.Put(handleKey, result)
		if perr := s.cache.PersistEntry(handleKey, result); perr != nil {
			// Persistence failing never fails the call — the in-memory tier
			// already has the answer for the rest of this process's life.
			_ = perr
		}
	}

	return connect.NewResponse(nodeToStruct(result)), nil
}

// ResolveTypeOf implements spec.md §6's resolve_type_of: the request carries
// a "handle" field — either an object with a "__type" property or a bare
// program array — instead of an already-extracted "program" field.
func (s *ResolveService) ResolveTypeOf(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	fields := req.Msg.GetFields()

	handleField, ok := fields["handle"]
	if !ok {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("server: missing \"handle\" field"))
	}
	handle := anyFromStructValue(handleField)
	inputs := inputsFromValue(fields["inputs"])

	handleKey := ""
	if k, ok := fields["cacheKey"]; ok {
		handleKey = k.GetStringValue()
	}
	if s.cache != nil && handleKey != "" {
		if cached, hit := s.cache.Get(handleKey); hit {
			return connect.NewResponse(nodeToStruct(cached)), nil
		}
	}

	registry := rvm.NewRegistry()
	result, err := rvm.ResolveTypeOf(registry, handle, inputs)
	if err != nil {
		if rvmErr, ok := err.(*rvm.Error); ok {
			return nil, connect.NewError(codeForKind(rvmErr.Kind), rvmErr)
		}
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	if s.cache != nil && handleKey != "" {
		s.cache.Put(handleKey, result)
		if perr := s.cache.PersistEntry(handleKey, result); perr != nil {
			_ = perr
		}
	}

	return connect.NewResponse(nodeToStruct(result)), nil
}

func codeForKind(k rvm.ErrorKind) connect.Code {
	switch k {
	case rvm.ErrInvalidProgram:
		return connect.CodeInvalidArgument
	case rvm.ErrUnresolvedIndex:
		return connect.CodeFailedPrecondition
	case rvm.ErrClassResolutionFailure:
		return connect.CodeInternal
	default:
		return connect.CodeUnknown
	}
}
