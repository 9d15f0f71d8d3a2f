package fakemailer

import (
	"context"
	"sync"

	"github.com/telecare/auth-server/mail"
)

// FakeMailer records every message it is asked to send.
type FakeMailer struct {
	lock sync.Mutex
	sent []mail.Message
	err  error
}

var _ mail.Mailer = (*FakeMailer)(nil)

func NewFakeMailer() *FakeMailer {
	return &FakeMailer{}
}

// FailWith makes subsequent sends return err.
func (f *FakeMailer) FailWith(err error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.err = err
}

func (f *FakeMailer) Send(_ context.Context, msg mail.Message) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *FakeMailer) Sent() []mail.Message {
	f.lock.Lock()
	defer f.lock.Unlock()
	out := make([]mail.Message, len(f.sent))
	copy(out, f.sent)
	return out
}

// Last returns the most recent message, false when nothing was sent.
func (f *FakeMailer) Last() (mail.Message, bool) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if len(f.sent) == 0 {
		return mail.Message{}, false
	}
	return f.sent[len(f.sent)-1], true
}
