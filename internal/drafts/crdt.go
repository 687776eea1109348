package drafts

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrInvalidStream indicates that a serialized CRDT log could not be decoded.
	ErrInvalidStream = errors.New("drafts: invalid content stream")
	// ErrInvalidOp indicates that a CRDT operation is malformed.
	ErrInvalidOp = errors.New("drafts: invalid content op")
)

// OpKind enumerates supported CRDT operations.
type OpKind string

const (
	// OpKindSet inserts or replaces a top-level block.
	OpKindSet OpKind = "set"
	// OpKindRemove tombstones a top-level block.
	OpKindRemove OpKind = "remove"
)

// Op is one entry of the append-only replicated log. Ordering between
// concurrent writers follows the Lamport timestamp, with the writer id and
// then the op id breaking ties deterministically.
type Op struct {
	OpID      string     `json:"op_id"`
	Kind      OpKind     `json:"kind"`
	BlockID   string     `json:"block_id"`
	Position  float64    `json:"pos"`
	Block     *BlockNode `json:"block,omitempty"`
	Timestamp int64      `json:"ts"`
	WriterID  string     `json:"writer_id"`
}

// Validate checks the structural requirements of an op.
func (op Op) Validate() error {
	if strings.TrimSpace(op.OpID) == "" {
		return fmt.Errorf("%w: empty op id", ErrInvalidOp)
	}
	if strings.TrimSpace(op.BlockID) == "" {
		return fmt.Errorf("%w: empty block id", ErrInvalidOp)
	}
	if op.Timestamp <= 0 {
		return fmt.Errorf("%w: non-positive timestamp", ErrInvalidOp)
	}
	switch op.Kind {
	case OpKindSet:
		if op.Block == nil {
			return fmt.Errorf("%w: set without block payload", ErrInvalidOp)
		}
	case OpKindRemove:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidOp, op.Kind)
	}
	return nil
}

// Log is an append-only, mergeable operation history. The log is the single
// source of truth for a draft body; the content tree is derived from it by
// Replay and is never edited directly.
type Log struct {
	Ops []Op `json:"ops"`
}

// SeedLog replays a content tree into a fresh log, one set op per top-level
// block. Blocks without an id are assigned one.
func SeedLog(tree ContentTree, writerID string) Log {
	seeded := Log{Ops: make([]Op, 0, len(tree))}
	for i, block := range tree {
		payload := block.clone()
		if payload.ID == "" {
			payload.ID = uuid.NewString()
		}
		seeded.Ops = append(seeded.Ops, Op{
			OpID:      uuid.NewString(),
			Kind:      OpKindSet,
			BlockID:   payload.ID,
			Position:  float64(i + 1),
			Block:     &payload,
			Timestamp: int64(i + 1),
			WriterID:  writerID,
		})
	}
	return seeded
}

// NextTimestamp returns the Lamport timestamp for the next local op.
func (log Log) NextTimestamp() int64 {
	highest := int64(0)
	for _, op := range log.Ops {
		if op.Timestamp > highest {
			highest = op.Timestamp
		}
	}
	return highest + 1
}

// Append adds ops to the log after validation. Already-known ops are skipped,
// making re-delivery of the same op harmless.
func (log Log) Append(ops ...Op) (Log, error) {
	for _, op := range ops {
		if err := op.Validate(); err != nil {
			return Log{}, err
		}
	}
	return mergeOps(log.Ops, ops), nil
}

// Merge combines two divergent logs for the same document. The union is
// deduplicated by op id, so Merge is commutative, associative, and idempotent.
func Merge(left, right Log) Log {
	return mergeOps(left.Ops, right.Ops)
}

func mergeOps(left, right []Op) Log {
	seen := make(map[string]struct{}, len(left)+len(right))
	combined := make([]Op, 0, len(left)+len(right))
	for _, op := range left {
		if _, ok := seen[op.OpID]; ok {
			continue
		}
		seen[op.OpID] = struct{}{}
		combined = append(combined, op)
	}
	for _, op := range right {
		if _, ok := seen[op.OpID]; ok {
			continue
		}
		seen[op.OpID] = struct{}{}
		combined = append(combined, op)
	}
	sort.SliceStable(combined, func(i, j int) bool {
		return opLess(combined[i], combined[j])
	})
	return Log{Ops: combined}
}

func opLess(a, b Op) bool {
	if a.Timestamp != b.Timestamp {
		return a.Timestamp < b.Timestamp
	}
	if a.WriterID != b.WriterID {
		return a.WriterID < b.WriterID
	}
	return a.OpID < b.OpID
}

// Replay materializes the content tree described by the log. The last write
// per block wins; removed blocks stay out unless a later set resurrects them.
func (log Log) Replay() ContentTree {
	type blockState struct {
		op Op
	}
	states := make(map[string]blockState)
	order := make([]string, 0)
	for _, op := range log.Ops {
		existing, known := states[op.BlockID]
		if known && !opLess(existing.op, op) {
			continue
		}
		if !known {
			order = append(order, op.BlockID)
		}
		states[op.BlockID] = blockState{op: op}
	}

	surviving := make([]Op, 0, len(order))
	for _, blockID := range order {
		state := states[blockID]
		if state.op.Kind == OpKindRemove {
			continue
		}
		surviving = append(surviving, state.op)
	}
	sort.SliceStable(surviving, func(i, j int) bool {
		if surviving[i].Position != surviving[j].Position {
			return surviving[i].Position < surviving[j].Position
		}
		return opLess(surviving[i], surviving[j])
	})

	tree := make(ContentTree, 0, len(surviving))
	for _, op := range surviving {
		tree = append(tree, op.Block.clone())
	}
	return tree
}

// EncodeLog serializes a log to its stored base64 form.
func EncodeLog(log Log) (string, error) {
	if log.Ops == nil {
		log.Ops = []Op{}
	}
	raw, err := json.Marshal(log)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidStream, err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeLog parses a stored base64 log payload.
func DecodeLog(encoded string) (Log, error) {
	trimmed := strings.TrimSpace(encoded)
	if trimmed == "" {
		return Log{}, fmt.Errorf("%w: empty", ErrInvalidStream)
	}
	raw, err := base64.StdEncoding.DecodeString(trimmed)
	if err != nil {
		return Log{}, fmt.Errorf("%w: invalid base64", ErrInvalidStream)
	}
	var log Log
	if err := json.Unmarshal(raw, &log); err != nil {
		return Log{}, fmt.Errorf("%w: %v", ErrInvalidStream, err)
	}
	return log, nil
}
