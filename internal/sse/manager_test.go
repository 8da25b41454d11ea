package sse

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/allusionapp/allusion-server/internal/domain"
	"github.com/allusionapp/allusion-server/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(logger.Discard().Logger)
	ctx, cancel := context.WithCancel(context.Background())
	go m.Start(ctx)
	t.Cleanup(cancel)
	return m
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case e := <-c.EventChan:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestManager_BroadcastsToAllClients(t *testing.T) {
	m := startManager(t)

	a, err := m.Connect()
	require.NoError(t, err)
	b, err := m.Connect()
	require.NoError(t, err)
	assert.Equal(t, 2, m.ClientCount())

	m.Emit(NewSelectionChangedEvent([]string{"tag-1"}))

	for _, c := range []*Client{a, b} {
		e := receive(t, c)
		assert.Equal(t, EventSelectionChanged, e.Type)
		assert.Equal(t, []string{"tag-1"}, e.Data.(SelectionChangedEventData).TagIDs)
	}
}

func TestManager_TopicFilter(t *testing.T) {
	m := startManager(t)

	files, err := m.Connect("file")
	require.NoError(t, err)

	m.Emit(NewTagDeletedEvent("tag-1", "hierarchy"))
	m.Emit(NewFileUpdatedEvent(&domain.File{ID: "file-1"}))

	e := receive(t, files)
	assert.Equal(t, EventFileUpdated, e.Type)
}

func TestManager_Disconnect(t *testing.T) {
	m := startManager(t)

	c, err := m.Connect()
	require.NoError(t, err)

	m.Disconnect(c.ID)
	m.Disconnect(c.ID)

	assert.Zero(t, m.ClientCount())
	_, open := <-c.Done
	assert.False(t, open)
}

func TestManager_ShutdownDropsLateEvents(t *testing.T) {
	m := NewManager(logger.Discard().Logger)
	c, err := m.Connect()
	require.NoError(t, err)

	m.Emit(NewSelectionChangedEvent(nil))
	require.NoError(t, m.Shutdown(context.Background()))
	require.NoError(t, m.Shutdown(context.Background()))

	// Queued before shutdown: drained to the client before it was closed.
	e, ok := <-c.EventChan
	require.True(t, ok)
	assert.Equal(t, []string{}, e.Data.(SelectionChangedEventData).TagIDs)

	m.Emit(NewSelectionChangedEvent(nil))
	assert.Zero(t, m.ClientCount())
}

func TestParseTopics(t *testing.T) {
	assert.Nil(t, parseTopics(""))
	assert.Equal(t, []string{"tag", "file"}, parseTopics(" tag, ,file "))
}

func TestHandler_StreamsEvents(t *testing.T) {
	m := startManager(t)
	srv := httptest.NewServer(NewHandler(m, logger.Discard().Logger))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"?topics=selection", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: connected\n", line)
	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "retry: 3000\n", line)

	require.Eventually(t, func() bool { return m.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	m.Emit(NewSelectionChangedEvent([]string{"tag-9"}))

	for {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "event: "+string(EventSelectionChanged)) {
			break
		}
	}
	data, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, data, `"tag_ids":["tag-9"]`)
}

func TestHandler_RejectsNonGet(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHandler(NewManager(logger.Discard().Logger), logger.Discard().Logger).
		ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
