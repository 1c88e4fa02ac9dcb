package indicator

// Surface is the set of state updates the voice controller publishes.
type Surface interface {
	SetStatus(text string)
	SetLiveTranscript(text string)
	MarkActiveField(id string, active bool)
	SetListening(on bool)
	SetCaseMode(label string)
}

// Multi fans every update out to each surface in order.
type Multi []Surface

func (m Multi) SetStatus(text string) {
	for _, s := range m {
		s.SetStatus(text)
	}
}

func (m Multi) SetLiveTranscript(text string) {
	for _, s := range m {
		s.SetLiveTranscript(text)
	}
}

func (m Multi) MarkActiveField(id string, active bool) {
	for _, s := range m {
		s.MarkActiveField(id, active)
	}
}

func (m Multi) SetListening(on bool) {
	for _, s := range m {
		s.SetListening(on)
	}
}

func (m Multi) SetCaseMode(label string) {
	for _, s := range m {
		s.SetCaseMode(label)
	}
}
