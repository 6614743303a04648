// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package match

import (
	"bytes"
	"context"
	"fmt"
	"io"
)

// CommentSize is the size of the comment payload, terminating NUL included.
const CommentSize = 256

const (
	codeComment  = '0'
	flagComment  = 1 << 0
	commentUsage = `comment match options:
--comment COMMENT             Attach a comment to a rule
`
)

// Comment attaches free text to a rule. It never affects matching.
type Comment struct{}

func (Comment) Name() string    { return "comment" }
func (Comment) Revision() uint8 { return 0 }
func (Comment) Size() int       { return CommentSize }

func (Comment) Options() []OptionSpec {
	return []OptionSpec{{Name: "comment", HasArg: true, Code: codeComment}}
}

func (Comment) Help(w io.Writer) {
	io.WriteString(w, commentUsage)
}

func (Comment) Init(m *Match) {
	m.Data = make([]byte, CommentSize)
}

func (Comment) Parse(_ context.Context, call *ParseCall) (bool, error) {
	if call.Code != codeComment {
		return false, nil
	}
	if call.Flags != nil {
		if *call.Flags&flagComment != 0 {
			return true, usageError(ErrDuplicateOption, "Multiple use of same option not allowed")
		}
		*call.Flags |= flagComment
	}
	if call.Inverted {
		return true, usageError(ErrUnexpectedInversion, "Unexpected `!' after --comment")
	}
	if len(call.Arg) > CommentSize-1 {
		return true, usageError(ErrCommentTooLong, "\"%s\" is truncated", call.Arg[:CommentSize-1])
	}

	clear(call.Match.Data)
	copy(call.Match.Data, call.Arg)
	return true, nil
}

func (Comment) FinalCheck(*Entry, *Match, string, uint32, uint32) error {
	return nil
}

func (Comment) Print(_ context.Context, w io.Writer, _ *Entry, m *Match) error {
	_, err := fmt.Fprintf(w, "--comment %s ", commentText(m.Data))
	return err
}

func (Comment) Compare(a, b *Match) bool {
	return commentText(a.Data) == commentText(b.Data)
}

func commentText(data []byte) string {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		return string(data[:i])
	}
	return string(data)
}
