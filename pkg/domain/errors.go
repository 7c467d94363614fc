package domain

import "errors"

// ErrConversationNotFound is returned when a conversation handle cannot be found in the store.
var ErrConversationNotFound = errors.New("conversation not found")

// ErrConversationBusy is returned when a turn is requested while another turn
// is still in flight for the same conversation handle.
var ErrConversationBusy = errors.New("conversation busy")

// ErrUnknownScope is returned when a requested scope has no configured retrieval index.
var ErrUnknownScope = errors.New("unknown retrieval scope")

// ErrRetrievalUnavailable is returned when the search backend cannot be reached
// or rejects the request.
var ErrRetrievalUnavailable = errors.New("retrieval backend unavailable")

// ErrUnsupportedTool is returned when the runtime requests a capability the
// dispatcher does not recognize. The run cannot be resumed safely without an
// output contract, so this is fatal for the turn.
var ErrUnsupportedTool = errors.New("unsupported tool")

// ErrRunTimedOut is returned when polling exceeded the configured bound
// without observing a terminal or actionable run state.
var ErrRunTimedOut = errors.New("run timed out")

// ErrRunFailed is returned when the runtime reports a terminal failure state.
var ErrRunFailed = errors.New("run failed")

// ErrRecordStore is returned when conversation metadata persistence fails.
var ErrRecordStore = errors.New("record store failure")
