package nlu

import (
	"strconv"
	"unicode/utf16"
	"unicode/utf8"
)

type replyState int

const (
	scanning replyState = iota
	awaitingValue
	inReply
	finished
)

// replyStream watches raw JSON deltas and forwards the decoded text of the
// top-level "reply" string as it arrives. Everything else is ignored.
type replyStream struct {
	emit func(string)

	state replyState
	depth int

	inString  bool
	escaped   bool
	capturing bool
	key       []byte
	afterKey  bool
	lastKey   string

	pending   []byte
	unicode   []byte
	inUnicode bool
	highSurr  rune
}

func newReplyStream(emit func(string)) *replyStream {
	return &replyStream{emit: emit}
}

func (r *replyStream) Write(chunk string) {
	if r.emit == nil || r.state == finished {
		return
	}
	for i := 0; i < len(chunk); i++ {
		r.step(chunk[i])
		if r.state == finished {
			break
		}
	}
	r.flush(false)
}

func (r *replyStream) step(c byte) {
	switch r.state {
	case scanning:
		r.scan(c)
	case awaitingValue:
		switch c {
		case ' ', '\t', '\n', '\r':
		case '"':
			r.state = inReply
		default:
			r.state = finished
		}
	case inReply:
		r.value(c)
	}
}

func (r *replyStream) scan(c byte) {
	if r.inString {
		switch {
		case r.escaped:
			r.escaped = false
			if r.capturing {
				r.key = append(r.key, c)
			}
		case c == '\\':
			r.escaped = true
		case c == '"':
			r.inString = false
			if r.capturing {
				r.capturing = false
				r.lastKey = string(r.key)
				r.afterKey = true
			}
		case r.capturing:
			r.key = append(r.key, c)
		}
		return
	}
	switch c {
	case '"':
		r.inString = true
		r.afterKey = false
		if r.depth == 1 {
			r.capturing = true
			r.key = r.key[:0]
		}
	case '{', '[':
		r.depth++
		r.afterKey = false
	case '}', ']':
		r.depth--
		r.afterKey = false
	case ':':
		if r.depth == 1 && r.afterKey && r.lastKey == "reply" {
			r.state = awaitingValue
		}
		r.afterKey = false
	case ',':
		r.afterKey = false
	}
}

func (r *replyStream) value(c byte) {
	if r.inUnicode {
		r.unicode = append(r.unicode, c)
		if len(r.unicode) < 4 {
			return
		}
		r.inUnicode = false
		n, err := strconv.ParseUint(string(r.unicode), 16, 32)
		r.unicode = r.unicode[:0]
		if err != nil {
			return
		}
		cp := rune(n)
		switch {
		case utf16.IsSurrogate(cp) && r.highSurr == 0:
			r.highSurr = cp
			return
		case r.highSurr != 0:
			cp = utf16.DecodeRune(r.highSurr, cp)
			r.highSurr = 0
		}
		r.pending = utf8.AppendRune(r.pending, cp)
		return
	}
	if r.escaped {
		r.escaped = false
		switch c {
		case 'n':
			r.pending = append(r.pending, '\n')
		case 't':
			r.pending = append(r.pending, '\t')
		case 'r':
			r.pending = append(r.pending, '\r')
		case 'b':
			r.pending = append(r.pending, '\b')
		case 'f':
			r.pending = append(r.pending, '\f')
		case 'u':
			r.inUnicode = true
		default:
			r.pending = append(r.pending, c)
		}
		return
	}
	switch c {
	case '\\':
		r.escaped = true
	case '"':
		r.state = finished
		r.flush(true)
	default:
		r.pending = append(r.pending, c)
	}
}

// flush emits the complete UTF-8 prefix of pending; all of it when final.
func (r *replyStream) flush(final bool) {
	if len(r.pending) == 0 {
		return
	}
	n := len(r.pending)
	if !final {
		for n > 0 && !utf8.Valid(r.pending[:n]) {
			n--
			if len(r.pending)-n > utf8.UTFMax {
				n = len(r.pending)
				break
			}
		}
	}
	if n == 0 {
		return
	}
	r.emit(string(r.pending[:n]))
	r.pending = append(r.pending[:0], r.pending[n:]...)
}
