package monitoring

import (
	"sync"
	"time"
)

// A ProgressBar follows the points of one sweep. One point is in progress
// at a time until every point is finished.
type ProgressBar struct {
	mu sync.Mutex

	ID        string
	Name      string
	StartTime time.Time
	Total     uint64

	finished   uint64
	inProgress uint64
	failed     uint64
}

// StartPoint marks a point as in progress.
func (b *ProgressBar) StartPoint() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.inProgress++
}

// FinishPoint moves the point in progress to the finished ones and starts
// the next point if any is left.
func (b *ProgressBar) FinishPoint(passed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.inProgress > 0 {
		b.inProgress--
	}

	b.finished++

	if !passed {
		b.failed++
	}

	if b.finished+b.inProgress < b.Total {
		b.inProgress++
	}
}

type progressRsp struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StartTime  time.Time `json:"start_time"`
	Total      uint64    `json:"total"`
	Finished   uint64    `json:"finished"`
	InProgress uint64    `json:"in_progress"`
	Failed     uint64    `json:"failed"`
}

func (b *ProgressBar) snapshot() progressRsp {
	b.mu.Lock()
	defer b.mu.Unlock()

	return progressRsp{
		ID:         b.ID,
		Name:       b.Name,
		StartTime:  b.StartTime,
		Total:      b.Total,
		Finished:   b.finished,
		InProgress: b.inProgress,
		Failed:     b.failed,
	}
}
