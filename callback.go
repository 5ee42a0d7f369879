// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package unbundle

import (
	"errors"
	"sync"
)

//go:generate mockgen -destination=internal/mocks/mock_callback.go -package=mocks github.com/hashicorp/go-unbundle Callback

// Callback receives the outcome of an extraction. Exactly one of its methods
// is called per extraction, after all archive and output resources were
// released.
type Callback interface {
	// OnSuccess is called if every entry was processed without a fatal error.
	OnSuccess()

	// OnError is called with a diagnostic message of the first fatal error.
	OnError(message string)
}

// CallbackFuncs adapts a pair of functions to the [Callback] interface. A nil
// function is ignored.
type CallbackFuncs struct {
	Success func()
	Error   func(message string)
}

// OnSuccess calls the Success function.
func (c CallbackFuncs) OnSuccess() {
	if c.Success != nil {
		c.Success()
	}
}

// OnError calls the Error function.
func (c CallbackFuncs) OnError(message string) {
	if c.Error != nil {
		c.Error(message)
	}
}

// Outcome is the terminal result of an extraction.
type Outcome struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Err returns nil for a successful outcome and an error with the diagnostic
// message otherwise.
func (o Outcome) Err() error {
	if o.Success {
		return nil
	}
	return errors.New(o.Message)
}

// OutcomeChan is a [Callback] that delivers the outcome on a channel. Only the
// first outcome is delivered.
type OutcomeChan struct {
	ch   chan Outcome
	once sync.Once
}

// NewOutcomeChan creates an [OutcomeChan] with room for the single outcome,
// so the extraction never blocks on the receiver.
func NewOutcomeChan() *OutcomeChan {
	return &OutcomeChan{ch: make(chan Outcome, 1)}
}

// C returns the channel that receives the outcome.
func (o *OutcomeChan) C() <-chan Outcome {
	return o.ch
}

// OnSuccess delivers a successful outcome.
func (o *OutcomeChan) OnSuccess() {
	o.deliver(Outcome{Success: true})
}

// OnError delivers a failed outcome.
func (o *OutcomeChan) OnError(message string) {
	o.deliver(Outcome{Message: message})
}

func (o *OutcomeChan) deliver(out Outcome) {
	o.once.Do(func() {
		o.ch <- out
		close(o.ch)
	})
}

// multiCallback forwards the outcome to several callbacks
type multiCallback []Callback

// MultiCallback returns a [Callback] that forwards the outcome to every non-nil
// callback in order.
func MultiCallback(callbacks ...Callback) Callback {
	var m multiCallback
	for _, cb := range callbacks {
		if cb != nil {
			m = append(m, cb)
		}
	}
	return m
}

// OnSuccess forwards the success to all callbacks.
func (m multiCallback) OnSuccess() {
	for _, cb := range m {
		cb.OnSuccess()
	}
}

// OnError forwards the error to all callbacks.
func (m multiCallback) OnError(message string) {
	for _, cb := range m {
		cb.OnError(message)
	}
}
