package fetcher

import (
	"fmt"
)

// Options tune the store. Only Bus is required; others have sensible
// defaults.
type Options struct {
	// Required. The store subscribes itself to Bus for its inbound messages
	// and publishes its outbound ones there.
	Bus Bus

	Logger Logger // if nil, NopLogger is used
	Hooks  Hooks  // if nil, NopHooks is used
}

// New builds a Store and subscribes it to the bus. Callers that want the
// default in-process setup pair it with NewLocalBus:
//
//	bus := fetcher.NewLocalBus()
//	store, err := fetcher.New(fetcher.Options{Bus: bus})
func New(opts Options) (*Store, error) {
	if opts.Bus == nil {
		return nil, fmt.Errorf("fetcher: bus is required")
	}

	s := &Store{
		cache: make(map[Resource]*entry),
		bus:   opts.Bus,
	}

	// defaults
	s.log = coalesce[Logger](opts.Logger, NopLogger{})
	s.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})

	s.cancel = opts.Bus.Subscribe(s.consume)
	return s, nil
}
