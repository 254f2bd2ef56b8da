package conversion

// Observer receives progress events from a run. TaskDone is called from a
// single goroutine, once per task, in completion order.
type Observer interface {
	Started(tasks int)
	TaskDone(member string, err error)
	Merging(pages int)
}

// NopObserver discards all events.
type NopObserver struct{}

func (NopObserver) Started(int) {}

func (NopObserver) TaskDone(string, error) {}

func (NopObserver) Merging(int) {}
