package signals

type Observer[E any] func(E)

// Detach removes the observer registered by the Attach call that returned it.
type Detach func()

type Signal[E any] interface {
	Attach(observer Observer[E], observerID ...any) Detach
	Detach(observer Observer[E], observerID ...any)
	Notify(event E)
}
