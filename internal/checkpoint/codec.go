package checkpoint

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/TThanhhDatt/agent-bot/internal/graph"
)

// CurrentVersion is the schema version written by Encode.
const CurrentVersion = 1

var (
	ErrEmptyBlob          = errors.New("checkpoint: empty state blob")
	ErrMalformedBlob      = errors.New("checkpoint: malformed state blob")
	ErrUnsupportedVersion = errors.New("checkpoint: unsupported state version")
)

type envelope struct {
	Version int             `json:"version"`
	State   json.RawMessage `json:"state"`
}

// migration upgrades a raw state document from one version to the next.
type migration func(raw json.RawMessage) (json.RawMessage, error)

// migrations maps a version to the step upgrading it to version+1.
var migrations = map[int]migration{}

// Encode serializes state into a versioned envelope.
func Encode(state graph.ConversationState) ([]byte, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	out, err := json.Marshal(envelope{Version: CurrentVersion, State: raw})
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return out, nil
}

// Decode restores a state written by Encode, upgrading older schema versions.
func Decode(blob []byte) (graph.ConversationState, error) {
	var state graph.ConversationState
	if len(bytes.TrimSpace(blob)) == 0 {
		return state, ErrEmptyBlob
	}
	var env envelope
	if err := json.Unmarshal(blob, &env); err != nil {
		return state, fmt.Errorf("%w: %v", ErrMalformedBlob, err)
	}
	if env.Version <= 0 || len(env.State) == 0 {
		return state, fmt.Errorf("%w: missing version or state", ErrMalformedBlob)
	}
	if env.Version > CurrentVersion {
		return state, fmt.Errorf("%w: %d", ErrUnsupportedVersion, env.Version)
	}

	raw := env.State
	for v := env.Version; v < CurrentVersion; v++ {
		step, ok := migrations[v]
		if !ok {
			return state, fmt.Errorf("%w: no migration from %d", ErrUnsupportedVersion, v)
		}
		upgraded, err := step(raw)
		if err != nil {
			return state, fmt.Errorf("migrate state from v%d: %w", v, err)
		}
		raw = upgraded
	}

	if err := json.Unmarshal(raw, &state); err != nil {
		return state, fmt.Errorf("%w: %v", ErrMalformedBlob, err)
	}
	normalize(&state)
	return state, nil
}

func normalize(state *graph.ConversationState) {
	if state.SeenProducts == nil {
		state.SeenProducts = map[uuid.UUID]graph.SeenProduct{}
	}
	if state.Cart == nil {
		state.Cart = map[graph.CartKey]graph.CartLine{}
	}
	if state.Orders == nil {
		state.Orders = map[uuid.UUID]graph.Order{}
	}
}
