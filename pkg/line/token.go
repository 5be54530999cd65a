package line

import (
	"errors"
	"sync/atomic"
)

var (
	ErrReplyTokenUsed = errors.New("line: reply token already used")
	ErrNoReplyToken   = errors.New("line: event carries no reply token")
)

// ReplyToken wraps the single-use token LINE attaches to an event. The first
// Take hands out the value; later calls report it as spent.
type ReplyToken struct {
	value string
	used  atomic.Bool
}

func NewReplyToken(value string) *ReplyToken {
	return &ReplyToken{value: value}
}

// Take consumes the token.
func (t *ReplyToken) Take() (string, error) {
	if t == nil || t.value == "" {
		return "", ErrNoReplyToken
	}
	if !t.used.CompareAndSwap(false, true) {
		return "", ErrReplyTokenUsed
	}
	return t.value, nil
}

func (t *ReplyToken) Used() bool {
	if t == nil {
		return true
	}
	return t.used.Load()
}
