package editor

import (
	"unicode/utf8"

	"github.com/typewright/typewright/internal/engine/history"
)

// AddTypingListener registers fn to run after text ending in ch has
// been typed into the editor. Listeners run on the typing goroutine,
// after the insertion has been applied and its change notifications
// delivered.
func (ed *Editor) AddTypingListener(ch rune, fn func(ch rune)) Subscription {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	ed.nextSubID++
	id := ed.nextSubID
	ed.typing[id] = &typingListener{ch: ch, fn: fn}
	return &editorSub{cancel: func() {
		ed.mu.Lock()
		defer ed.mu.Unlock()
		delete(ed.typing, id)
	}}
}

// Type inserts text at every selection as a single undoable command,
// then fires typing listeners whose character matches the final rune of
// the typed text.
func (ed *Editor) Type(text string) error {
	if text == "" {
		return nil
	}
	if err := ed.ExecuteCommand("type", history.NewInsertCommand(text)); err != nil {
		return err
	}

	last, _ := utf8.DecodeLastRuneInString(text)

	ed.mu.Lock()
	listeners := make([]*typingListener, 0, len(ed.typing))
	for _, l := range ed.typing {
		if l.ch == last {
			listeners = append(listeners, l)
		}
	}
	ed.mu.Unlock()

	for _, l := range listeners {
		l.fn(last)
	}
	return nil
}
