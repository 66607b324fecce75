package swap

import "base-swap/pkg/types"

// Transition is one step of a request through the state machine. Outcome is
// the request's outcome so far; its Status is empty until a transaction has
// been broadcast or the request ended.
type Transition struct {
	RequestID string
	Pair      string
	From      types.State
	To        types.State
	Outcome   types.Outcome
}

// Observer is notified of every transition and of the final outcome. Calls
// come from the goroutine running Execute and must not block for long.
type Observer interface {
	OnTransition(t Transition)
	OnOutcome(req types.SwapRequest, out types.Outcome)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	Transition func(t Transition)
	Outcome    func(req types.SwapRequest, out types.Outcome)
}

func (o ObserverFuncs) OnTransition(t Transition) {
	if o.Transition != nil {
		o.Transition(t)
	}
}

func (o ObserverFuncs) OnOutcome(req types.SwapRequest, out types.Outcome) {
	if o.Outcome != nil {
		o.Outcome(req, out)
	}
}

type multiObserver []Observer

func (m multiObserver) OnTransition(t Transition) {
	for _, o := range m {
		o.OnTransition(t)
	}
}

func (m multiObserver) OnOutcome(req types.SwapRequest, out types.Outcome) {
	for _, o := range m {
		o.OnOutcome(req, out)
	}
}

// MultiObserver fans notifications out to several observers in order
func MultiObserver(observers ...Observer) Observer {
	var list multiObserver
	for _, o := range observers {
		if o != nil {
			list = append(list, o)
		}
	}
	return list
}
