package bridge

import (
	"errors"

	"github.com/rbright/dictaform/internal/narrator"
)

// Speak implements narrator.Synthesizer by asking the page to speak u.
func (s *Server) Speak(u narrator.Utterance, done func(error)) error {
	s.mu.Lock()
	s.speakSeq++
	id := s.speakSeq
	s.speaking[id] = done
	s.mu.Unlock()

	if err := s.send(Message{Type: TypeSpeak, ID: id, Speech: &u}); err != nil {
		s.mu.Lock()
		delete(s.speaking, id)
		s.mu.Unlock()
		return err
	}
	return nil
}

// Cancel implements narrator.Synthesizer. Outstanding utterances are
// forgotten; the narrator completes them itself.
func (s *Server) Cancel() {
	s.mu.Lock()
	s.speaking = make(map[uint64]func(error))
	s.mu.Unlock()
	_ = s.send(Message{Type: TypeSpeakCancel})
}

func (s *Server) speakDone(id uint64, errText string) {
	s.mu.Lock()
	done, ok := s.speaking[id]
	delete(s.speaking, id)
	s.mu.Unlock()
	if !ok {
		return
	}

	var err error
	if errText != "" {
		err = errors.New(errText)
	}
	done(err)
}
