package cli

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Interrupt is a context cancelled by SIGINT or SIGTERM.
// Unlike signal.NotifyContext it remembers which signal arrived.
type Interrupt struct {
	context.Context
	cancel context.CancelFunc

	once sync.Once
	ch   chan os.Signal

	mu  sync.Mutex
	sig os.Signal
}

// NotifyInterrupt starts listening for termination signals.
// Stop must be called to release the signal handler.
func NotifyInterrupt(parent context.Context) *Interrupt {
	ctx, cancel := context.WithCancel(parent)
	i := &Interrupt{Context: ctx, cancel: cancel, ch: make(chan os.Signal, 1)}

	signal.Notify(i.ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-i.ch:
			i.mu.Lock()
			i.sig = sig
			i.mu.Unlock()
			cancel()
		case <-ctx.Done():
		}
		i.release()
	}()
	return i
}

// Stop cancels the context and stops signal delivery.
func (i *Interrupt) Stop() {
	i.cancel()
	i.release()
}

// Signal returns the signal that cancelled the context, or nil.
func (i *Interrupt) Signal() os.Signal {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.sig
}

func (i *Interrupt) release() {
	i.once.Do(func() { signal.Stop(i.ch) })
}
