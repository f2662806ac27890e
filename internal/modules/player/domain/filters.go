package domain

import "github.com/disgoorg/json"

// Filters is an opaque filter configuration (equalizer bands and the like)
// passed through to the audio node unchanged. The core never interprets it.
type Filters = json.RawMessage
