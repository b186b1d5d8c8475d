package gameserver

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/rqgcombat/internal/game/combat"
)

// ErrorDomain is the ErrorInfo domain attached to every combat status.
const ErrorDomain = "combat.rqg"

// GRPCCode maps a combat error code to a gRPC status code.
func GRPCCode(c combat.Code) codes.Code {
	switch c {
	case combat.CodeValidation:
		return codes.InvalidArgument
	case combat.CodeNotFound:
		return codes.NotFound
	case combat.CodeInvalidState, combat.CodeAmbiguousTarget:
		return codes.FailedPrecondition
	default:
		return codes.Internal
	}
}

// toStatus converts an engine error to a gRPC status error with ErrorInfo
// details carrying the combat code and metadata.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	var ce *combat.Error
	if !errors.As(err, &ce) {
		return status.Error(codes.Internal, err.Error())
	}
	st := status.New(GRPCCode(ce.Code), ce.Error())
	detailed, derr := st.WithDetails(&errdetails.ErrorInfo{
		Reason:   string(ce.Code),
		Domain:   ErrorDomain,
		Metadata: ce.Metadata,
	})
	if derr != nil {
		return st.Err()
	}
	return detailed.Err()
}

// CodeFromStatus recovers the combat code from a status error produced by
// toStatus. Errors without ErrorInfo map to CodeInternal.
func CodeFromStatus(err error) combat.Code {
	st, ok := status.FromError(err)
	if !ok {
		return combat.CodeInternal
	}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok && info.GetDomain() == ErrorDomain {
			return combat.Code(info.GetReason())
		}
	}
	if st.Code() == codes.InvalidArgument {
		return combat.CodeValidation
	}
	return combat.CodeInternal
}

func invalid(format string, args ...any) error {
	return status.Errorf(codes.InvalidArgument, format, args...)
}

// fields reads typed values from a request struct.
type fields struct {
	m map[string]*structpb.Value
}

func newFields(in *structpb.Struct) fields {
	return fields{m: in.GetFields()}
}

func (f fields) str(key string, required bool) (string, error) {
	v, ok := f.m[key]
	if !ok || v.GetKind() == nil {
		if required {
			return "", invalid("%s is required", key)
		}
		return "", nil
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", invalid("%s must be a string", key)
	}
	if required && s.StringValue == "" {
		return "", invalid("%s must not be empty", key)
	}
	return s.StringValue, nil
}

func (f fields) integer(key string, required bool) (int, error) {
	v, ok := f.m[key]
	if !ok || v.GetKind() == nil {
		if required {
			return 0, invalid("%s is required", key)
		}
		return 0, nil
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, invalid("%s must be a number", key)
	}
	if n.NumberValue != math.Trunc(n.NumberValue) || math.Abs(n.NumberValue) > math.MaxInt32 {
		return 0, invalid("%s must be an integer, got %v", key, n.NumberValue)
	}
	return int(n.NumberValue), nil
}

// object builds a response struct. Values must be structpb-compatible.
func object(m map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encoding response: %v", err))
	}
	return out, nil
}
