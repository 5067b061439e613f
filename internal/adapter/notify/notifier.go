package notify

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/rl1809/rocket-cart/internal/port"
)

// LogNotifier writes notifications to the structured log.
type LogNotifier struct {
	log logrus.FieldLogger
}

func NewLogNotifier(log logrus.FieldLogger) *LogNotifier {
	return &LogNotifier{log: log.WithField("component", "notifier")}
}

func (n *LogNotifier) Error(message string) {
	n.log.WithField("kind", "error").Warn(message)
}

func (n *LogNotifier) Info(message string) {
	n.log.WithField("kind", "info").Info(message)
}

type Level string

const (
	LevelError Level = "error"
	LevelInfo  Level = "info"
)

type Message struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

// Recorder keeps the most recent notifications and forwards them.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
	limit    int
	next     port.Notifier
}

// NewRecorder keeps up to limit messages. next may be nil.
func NewRecorder(limit int, next port.Notifier) *Recorder {
	if limit <= 0 {
		limit = 100
	}
	return &Recorder{limit: limit, next: next}
}

func (r *Recorder) Error(message string) {
	r.record(Message{Level: LevelError, Text: message})
	if r.next != nil {
		r.next.Error(message)
	}
}

func (r *Recorder) Info(message string) {
	r.record(Message{Level: LevelInfo, Text: message})
	if r.next != nil {
		r.next.Info(message)
	}
}

func (r *Recorder) record(m Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, m)
	if len(r.messages) > r.limit {
		r.messages = r.messages[len(r.messages)-r.limit:]
	}
}

// Messages returns a copy, oldest first.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}
