package notify

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogNotifier(t *testing.T) {
	logger, hook := test.NewNullLogger()
	n := NewLogNotifier(logger)

	n.Error("Requested quantity is out of stock")
	n.Info("Product added to cart")

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, logrus.WarnLevel, entries[0].Level)
	assert.Equal(t, "Requested quantity is out of stock", entries[0].Message)
	assert.Equal(t, "error", entries[0].Data["kind"])
	assert.Equal(t, logrus.InfoLevel, entries[1].Level)
}

func TestRecorder_KeepsLatestAndForwards(t *testing.T) {
	inner := NewRecorder(10, nil)
	r := NewRecorder(2, inner)

	r.Info("a")
	r.Error("b")
	r.Info("c")

	assert.Equal(t, []Message{{LevelError, "b"}, {LevelInfo, "c"}}, r.Messages())
	assert.Len(t, inner.Messages(), 3)
}
