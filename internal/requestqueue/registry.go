package requestqueue

import (
	"encoding/json"
	"log/slog"

	"github.com/ruslanhut/ocpp-core/internal/ocpp"
)

// HandlerResult is what a Handler produces: either a success payload or a
// protocol error per spec.md §7.1, never both.
type HandlerResult struct {
	Payload interface{}
	Err     *HandlerError
}

// HandlerError is a CallError in waiting; ErrorCode is restricted to the
// four codes spec.md §7.1 names.
type HandlerError struct {
	Code ocpp.ErrorCode
	Desc string
}

// Handler processes one decoded inbound Call payload and returns the
// response or error to send back.
type Handler func(payload json.RawMessage) HandlerResult

// Constructor builds a fresh Handler for a dispatch. The registry stores
// constructors rather than handlers so each inbound Call gets a handler
// closed over the Core state current at dispatch time, mirroring spec.md
// §4.6's "stores a constructor producing a fresh handler" design note.
type Constructor func() Handler

// Registry is the inbound operation dispatch table: a mapping from OCPP
// action name to a Constructor, grounded on the teacher's
// internal/ocpp/v16/handler.go action-switch idiom generalized into a map.
type Registry struct {
	ctors  map[string]Constructor
	logger *slog.Logger
}

// NewRegistry returns an empty Registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{ctors: make(map[string]Constructor), logger: logger}
}

// Register installs the constructor for action, overwriting any prior
// registration (used to let a protocol-version package override a shared
// default).
func (r *Registry) Register(action string, ctor Constructor) {
	r.ctors[action] = ctor
}

// Dispatch builds a response or error frame for an inbound Call. An action
// with no registered constructor produces NotSupported per spec.md §7.1.
func (r *Registry) Dispatch(call *ocpp.Call) ([]byte, error) {
	ctor, ok := r.ctors[call.Action]
	if !ok {
		r.logger.Warn("requestqueue: no handler for action", "action", call.Action)
		ce, err := ocpp.NewCallError(call.UniqueID, ocpp.ErrorCodeNotSupported, "action not supported", nil)
		if err != nil {
			return nil, err
		}
		return ce.ToBytes()
	}
	handler := ctor()
	result := handler(call.Payload)
	if result.Err != nil {
		ce, err := ocpp.NewCallError(call.UniqueID, result.Err.Code, result.Err.Desc, nil)
		if err != nil {
			return nil, err
		}
		return ce.ToBytes()
	}
	cr, err := ocpp.NewCallResult(call.UniqueID, result.Payload)
	if err != nil {
		return nil, err
	}
	return cr.ToBytes()
}
