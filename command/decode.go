package command

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrInvalidArgument matches every *ArgumentError.
var ErrInvalidArgument = errors.New("invalid argument")

// ArgumentError reports a positional argument that could not be decoded.
type ArgumentError struct {
	Kind   Kind
	Index  int
	Name   string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: argument %d (%s) %s", e.Kind, e.Index, e.Name, e.Reason)
}

func (e *ArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// Decode turns a wire command id and its positional arguments into a typed
// Command. Unknown ids fail with *UnknownCommandError; missing or mistyped
// arguments fail with *ArgumentError. Range checks are left to Run.
func Decode(id string, args []json.RawMessage) (Command, error) {
	kind, err := ParseKind(id)
	if err != nil {
		return nil, err
	}
	a := argList{kind: kind, args: args}

	switch kind {
	case KindJumpToLine:
		line, err := a.integer(0, "line")
		if err != nil {
			return nil, err
		}
		return JumpToLine{Line: line}, nil

	case KindSelectLineRangeIncludingLineBreak:
		r, err := a.lineRange()
		if err != nil {
			return nil, err
		}
		return SelectLineRangeIncludingLineBreak{r}, nil

	case KindSelectLineRangeForEditing:
		r, err := a.lineRange()
		if err != nil {
			return nil, err
		}
		return SelectLineRangeForEditing{r}, nil

	case KindCopyLinesToCursor:
		r, err := a.lineRange()
		if err != nil {
			return nil, err
		}
		return CopyLinesToCursor{r}, nil

	case KindSetSelection:
		from, err := a.integer(0, "offsetFrom")
		if err != nil {
			return nil, err
		}
		to, err := a.integer(1, "offsetTo")
		if err != nil {
			return nil, err
		}
		return SetSelection{From: from, To: to}, nil

	case KindGetTextFlowContext:
		return GetTextFlowContext{}, nil

	case KindGetFilename:
		return GetFilename{}, nil

	case KindGetSelectedText:
		return GetSelectedText{}, nil

	case KindSelectWord:
		return SelectWord{}, nil

	case KindInsertNewLineAbove:
		line, err := a.integer(0, "line")
		if err != nil {
			return nil, err
		}
		return InsertNewLineAbove{Line: line}, nil

	case KindInsertNewLineBelow:
		line, err := a.integer(0, "line")
		if err != nil {
			return nil, err
		}
		return InsertNewLineBelow{Line: line}, nil
	}

	return nil, fmt.Errorf("no decoder for command %s", kind)
}

type argList struct {
	kind Kind
	args []json.RawMessage
}

func (a argList) present(i int) bool {
	if i >= len(a.args) {
		return false
	}
	raw := bytes.TrimSpace(a.args[i])
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

// integer decodes a required integer. JSON numbers with a zero fractional part
// (5.0) are accepted since some clients only have floats.
func (a argList) integer(i int, name string) (int, error) {
	if !a.present(i) {
		return 0, &ArgumentError{Kind: a.kind, Index: i, Name: name, Reason: "is required"}
	}
	var f float64
	if err := json.Unmarshal(a.args[i], &f); err != nil {
		return 0, &ArgumentError{Kind: a.kind, Index: i, Name: name,
			Reason: fmt.Sprintf("must be a number, got %s", a.args[i])}
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, &ArgumentError{Kind: a.kind, Index: i, Name: name,
			Reason: fmt.Sprintf("must be an integer, got %s", a.args[i])}
	}
	return int(f), nil
}

// lineRange decodes [lineFrom, lineTo?]. An absent, null or zero lineTo
// means a single line.
func (a argList) lineRange() (LineRange, error) {
	from, err := a.integer(0, "lineFrom")
	if err != nil {
		return LineRange{}, err
	}
	to := from
	if a.present(1) {
		v, err := a.integer(1, "lineTo")
		if err != nil {
			return LineRange{}, err
		}
		if v != 0 {
			to = v
		}
	}
	return LineRange{From: from, To: to}, nil
}
