package errors

import "fmt"

var (
	ErrWorkerPanic   = fmt.Errorf("worker panic")
	ErrNotInRoom     = fmt.Errorf("connection is not in a room")
	ErrAlreadyInRoom = fmt.Errorf("connection already joined a room")
	ErrQueueFull     = fmt.Errorf("outbound queue is full")
	ErrQueueClosed   = fmt.Errorf("outbound queue is closed")
)
