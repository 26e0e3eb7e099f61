package chat

// Registry errors surfaced to the router layer.
var (
	ErrDuplicateHandle  = errorString("duplicate_handle")
	ErrDuplicateAddress = errorString("duplicate_address")
	ErrRegistryFull     = errorString("registry_full")
	ErrNotFound         = errorString("not_found")
)

type errorString string

func (e errorString) Error() string { return string(e) }

// MaxHandleLen is the longest handle accepted at registration.
const MaxHandleLen = 49
