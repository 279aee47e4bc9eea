package console

// Observer receives console state changes. Callbacks run synchronously on the
// goroutine that caused the change, never while console locks are held.
type Observer interface {
	Toggled(open bool)
	ContentChanged()
	HintsChanged()
	HistoryRecalled(line string)
	HintAccepted(text string)
}

// ObserverFuncs adapts optional callbacks to Observer.
type ObserverFuncs struct {
	OnToggled         func(open bool)
	OnContentChanged  func()
	OnHintsChanged    func()
	OnHistoryRecalled func(line string)
	OnHintAccepted    func(text string)
}

func (f ObserverFuncs) Toggled(open bool) {
	if f.OnToggled != nil {
		f.OnToggled(open)
	}
}

func (f ObserverFuncs) ContentChanged() {
	if f.OnContentChanged != nil {
		f.OnContentChanged()
	}
}

func (f ObserverFuncs) HintsChanged() {
	if f.OnHintsChanged != nil {
		f.OnHintsChanged()
	}
}

func (f ObserverFuncs) HistoryRecalled(line string) {
	if f.OnHistoryRecalled != nil {
		f.OnHistoryRecalled(line)
	}
}

func (f ObserverFuncs) HintAccepted(text string) {
	if f.OnHintAccepted != nil {
		f.OnHintAccepted(text)
	}
}
