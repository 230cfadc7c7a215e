package command

import (
	"errors"
	"fmt"
)

// Kind enumerates the supported commands.
type Kind int

const (
	KindJumpToLine Kind = iota
	KindSelectLineRangeIncludingLineBreak
	KindSelectLineRangeForEditing
	KindCopyLinesToCursor
	KindSetSelection
	KindGetTextFlowContext
	KindGetFilename
	KindGetSelectedText
	KindSelectWord
	KindInsertNewLineAbove
	KindInsertNewLineBelow

	kindCount
)

var kindIDs = [kindCount]string{
	KindJumpToLine:                        "jumpToLine",
	KindSelectLineRangeIncludingLineBreak: "selectLineRangeIncludingLineBreak",
	KindSelectLineRangeForEditing:         "selectLineRangeForEditing",
	KindCopyLinesToCursor:                 "copyLinesToCursor",
	KindSetSelection:                      "setSelection",
	KindGetTextFlowContext:                "getTextFlowContext",
	KindGetFilename:                       "getFilename",
	KindGetSelectedText:                   "getSelectedText",
	KindSelectWord:                        "selectWord",
	KindInsertNewLineAbove:                "insertNewLineAbove",
	KindInsertNewLineBelow:                "insertNewLineBelow",
}

// aliases maps older command ids still sent by existing clients.
var aliases = map[string]Kind{
	"selectLineRange": KindSelectLineRangeIncludingLineBreak,
}

// ErrUnknownCommand matches every *UnknownCommandError.
var ErrUnknownCommand = errors.New("unknown command")

// UnknownCommandError is returned for a command id with no Kind.
type UnknownCommandError struct {
	ID string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("Unknown command ID: %s", e.ID)
}

func (e *UnknownCommandError) Is(target error) bool {
	return target == ErrUnknownCommand
}

// String returns the wire id of k.
func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindIDs[k]
}

// Kinds returns every supported kind in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, kindCount)
	for i := range kinds {
		kinds[i] = Kind(i)
	}
	return kinds
}

// ParseKind maps a wire command id to its Kind.
func ParseKind(id string) (Kind, error) {
	for k, name := range kindIDs {
		if name == id {
			return Kind(k), nil
		}
	}
	if k, ok := aliases[id]; ok {
		return k, nil
	}
	return 0, &UnknownCommandError{ID: id}
}
