package pipeline

import (
	"fmt"
	"math/rand/v2"
	"time"
)

type run struct {
	ID        string
	StartedAt time.Time
}

func newRun() run {
	return run{
		ID:        fmt.Sprintf("%d-%d", time.Now().UnixNano(), rand.IntN(10000)),
		StartedAt: time.Now(),
	}
}

func (r run) GetDuration() time.Duration {
	return time.Since(r.StartedAt)
}
