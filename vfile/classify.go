package vfile

import (
	"fmt"

	"github.com/Reposoft/repos-deltav-sub000/xdiff"
)

// Op is an operation applied to a node of the index.
type Op int

const (
	OpDelete Op = iota + 1
	OpAttributeSet
	OpAttributeValue
	OpTextValue
	OpCommentValue
	OpPIData
	OpChildCount
	OpChildOrder
)

var opNames = map[Op]string{
	OpDelete:         "delete",
	OpAttributeSet:   "attribute-set",
	OpAttributeValue: "attribute-value",
	OpTextValue:      "text-value",
	OpCommentValue:   "comment-value",
	OpPIData:         "pi-data",
	OpChildCount:     "child-count",
	OpChildOrder:     "child-order",
}

func (op Op) String() string {
	if s, ok := opNames[op]; ok {
		return s
	}
	return fmt.Sprintf("Op(%d)", int(op))
}

var classification = map[xdiff.ID]Op{
	xdiff.NodeNotFound:                     OpDelete,
	xdiff.AttributeSetChanged:              OpAttributeSet,
	xdiff.AttributeValueChanged:            OpAttributeValue,
	xdiff.TextValueChanged:                 OpTextValue,
	xdiff.CommentValueChanged:              OpCommentValue,
	xdiff.ProcessingInstructionDataChanged: OpPIData,
	xdiff.ChildCountChanged:                OpChildCount,
	xdiff.ChildOrderChanged:                OpChildOrder,
}

// Classify maps a difference id to the operation it schedules.
func Classify(id xdiff.ID) (Op, error) {
	op, ok := classification[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedDiff, id)
	}
	return op, nil
}
