package server

import (
	"log"
	"sync/atomic"
)

var verboseSvc = false
var svcCount int64 = 0

// ChanSvc is a single-goroutine executor. Every series operation runs on it
// because the series core is not safe for concurrent use.
type ChanSvc chan func()

// SvcSync runs code on s and waits for its result.
func SvcSync[T any](s ChanSvc, code func() (T, error)) (T, error) {
	result := make(chan struct{})
	var value T
	var err error
	Svc(s, func() {
		defer close(result)
		value, err = code()
	})
	<-result
	return value, err
}

// Svc queues code on s without waiting.
func Svc(s ChanSvc, code func()) {
	go func() { // using a goroutine so the channel won't block
		if verboseSvc {
			count := atomic.AddInt64(&svcCount, 1)
			log.Printf("@@ QUEUE SVC %d", count)
			s <- func() {
				log.Printf("@@ START SVC %d", count)
				code()
				log.Printf("@@ END SVC %d", count)
			}
		} else {
			s <- code
		}
	}()
}

// RunSvc runs a service. Close the channel to stop it.
func RunSvc(s ChanSvc) {
	go func() {
		for cmd := range s {
			cmd()
		}
	}()
}
