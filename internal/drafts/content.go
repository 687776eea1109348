package drafts

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidContent indicates that a content tree payload could not be parsed.
var ErrInvalidContent = errors.New("drafts: invalid content tree")

// BlockNode is one node of the rich-text document tree. Top-level blocks are
// the unit of replication; nested children travel inside their parent block.
type BlockNode struct {
	ID       string            `json:"id,omitempty"`
	Type     string            `json:"type"`
	Text     string            `json:"text,omitempty"`
	Marks    []string          `json:"marks,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Children []BlockNode       `json:"children,omitempty"`
}

// ContentTree is the ordered block sequence forming a document body.
type ContentTree []BlockNode

const (
	// BlockTypeTitle renders as the document heading.
	BlockTypeTitle = "title"
	// BlockTypeParagraph is the default text block.
	BlockTypeParagraph = "paragraph"
)

// ParseContentTree decodes a JSON-encoded content tree.
func ParseContentTree(raw []byte) (ContentTree, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var tree ContentTree
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	return tree, nil
}

// EncodeContentTree produces the canonical JSON encoding of a content tree.
func EncodeContentTree(tree ContentTree) ([]byte, error) {
	if tree == nil {
		tree = ContentTree{}
	}
	encoded, err := json.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	return encoded, nil
}

// Equal reports structural equality of two trees via their canonical encoding.
func (tree ContentTree) Equal(other ContentTree) bool {
	left, leftErr := EncodeContentTree(tree)
	right, rightErr := EncodeContentTree(other)
	if leftErr != nil || rightErr != nil {
		return false
	}
	return string(left) == string(right)
}

// Clone returns a deep copy of the tree.
func (tree ContentTree) Clone() ContentTree {
	if tree == nil {
		return nil
	}
	copied := make(ContentTree, len(tree))
	for i, block := range tree {
		copied[i] = block.clone()
	}
	return copied
}

func (block BlockNode) clone() BlockNode {
	copied := block
	if block.Marks != nil {
		copied.Marks = append([]string(nil), block.Marks...)
	}
	if block.Attrs != nil {
		copied.Attrs = make(map[string]string, len(block.Attrs))
		for key, value := range block.Attrs {
			copied.Attrs[key] = value
		}
	}
	if block.Children != nil {
		copied.Children = make([]BlockNode, len(block.Children))
		for i, child := range block.Children {
			copied.Children[i] = child.clone()
		}
	}
	return copied
}
