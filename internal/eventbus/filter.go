package eventbus

// Filtered narrows a bus subscription to events of type T; events of other
// types are discarded. The returned cancel function releases the underlying
// subscription, after which the typed channel is closed.
func Filtered[T any](bus EventBus) (<-chan T, func()) {
	src := bus.Subscribe()
	out := make(chan T, subscriberBuffer)
	go func() {
		defer close(out)
		for e := range src {
			v, ok := e.(T)
			if !ok {
				continue
			}
			select {
			case out <- v:
			default:
			}
		}
	}()
	return out, func() { bus.Unsubscribe(src) }
}
