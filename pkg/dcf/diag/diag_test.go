package diag

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogConcurrentAppend(t *testing.T) {
	l := NewLog()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Record(Entry{Identifier: "AAPL", Method: MethodStatement})
		}()
	}
	wg.Wait()
	assert.Len(t, l.Entries(), 50)
	assert.Len(t, l.For("AAPL"), 50)
	assert.Empty(t, l.For("MSFT"))
}

func TestLogEntriesIsCopy(t *testing.T) {
	l := NewLog()
	l.Record(Entry{Identifier: "A"})
	got := l.Entries()
	got[0].Identifier = "B"
	assert.Equal(t, "A", l.Entries()[0].Identifier)
}

func TestZapSinkLevels(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	sink := ZapSink{Log: zap.New(core).Sugar()}

	fcf := 10.0
	sink.Record(Entry{Identifier: "AAPL", Method: MethodStatement, FCF: &fcf})
	sink.Record(Entry{Identifier: "XXX", Method: MethodRetrieval, Message: "timeout"})

	require.Equal(t, 2, logs.Len())
	entries := logs.All()
	assert.Equal(t, zap.DebugLevel, entries[0].Level)
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
	assert.Equal(t, "XXX", entries[1].ContextMap()["symbol"])
}

func TestTee(t *testing.T) {
	a, b := NewLog(), NewLog()
	Tee{a, b, Discard}.Record(Entry{Identifier: "X"})
	assert.Len(t, a.Entries(), 1)
	assert.Len(t, b.Entries(), 1)
}
