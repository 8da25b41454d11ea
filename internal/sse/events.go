// Package sse implements Server-Sent Events so every open renderer sees
// tag tree, selection and file changes made by any other.
package sse

import (
	"time"

	"github.com/allusionapp/allusion-server/internal/domain"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"

	// Tag directory events.
	EventTagCreated EventType = "tag.created"
	EventTagUpdated EventType = "tag.updated"
	EventTagDeleted EventType = "tag.deleted"

	// Collection events.
	EventCollectionCreated EventType = "collection.created"
	EventCollectionUpdated EventType = "collection.updated"
	EventCollectionDeleted EventType = "collection.deleted"

	// EventTreeMoved is sent after a tag or collection changes parent or position.
	EventTreeMoved EventType = "tree.moved"

	// EventExpandChanged is sent when nodes are expanded or collapsed.
	EventExpandChanged EventType = "tree.expand_changed"

	// EventSelectionChanged is sent whenever the selected tag set changes.
	EventSelectionChanged EventType = "selection.changed"

	// EventFileUpdated is sent after a file's comment or tags change.
	EventFileUpdated EventType = "file.updated"

	// Saved search events.
	EventSavedSearchCreated EventType = "saved_search.created"
	EventSavedSearchUpdated EventType = "saved_search.updated"
	EventSavedSearchDeleted EventType = "saved_search.deleted"
)

// Event represents an SSE event to be sent to clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`
}

// TagEventData is the payload of tag events. CollectionID is the owner.
type TagEventData struct {
	Tag          *domain.Tag `json:"tag,omitempty"`
	TagID        string      `json:"tag_id"`
	CollectionID string      `json:"collection_id,omitempty"`
}

// CollectionEventData is the payload of collection events.
// RemovedTagIDs and RemovedCollectionIDs are set on delete.
type CollectionEventData struct {
	Collection           *domain.TagCollection `json:"collection,omitempty"`
	CollectionID         string                `json:"collection_id"`
	ParentID             string                `json:"parent_id,omitempty"`
	RemovedTagIDs        []string              `json:"removed_tag_ids,omitempty"`
	RemovedCollectionIDs []string              `json:"removed_collection_ids,omitempty"`
}

// TreeMovedEventData describes a completed move.
type TreeMovedEventData struct {
	NodeID string `json:"node_id"`
	Kind   string `json:"kind"` // "tag" or "collection"
	FromID string `json:"from_id"`
	ToID   string `json:"to_id"`
	Index  int    `json:"index"`
}

// ExpandChangedEventData lists the nodes whose state changed.
type ExpandChangedEventData struct {
	NodeIDs  []string `json:"node_ids"`
	Expanded bool     `json:"expanded"`
}

// SelectionChangedEventData carries the whole selection in order.
type SelectionChangedEventData struct {
	TagIDs []string `json:"tag_ids"`
}

// FileEventData is the payload of file events.
type FileEventData struct {
	File *domain.File `json:"file"`
}

// SavedSearchEventData is the payload of saved search events.
type SavedSearchEventData struct {
	SavedSearch *domain.SavedSearch `json:"saved_search,omitempty"`
	ID          string              `json:"id"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

func newEvent(t EventType, data any) Event {
	return Event{Type: t, Data: data, Timestamp: time.Now()}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	return newEvent(EventHeartbeat, HeartbeatEventData{ServerTime: time.Now()})
}

// NewTagEvent creates a tag.created or tag.updated event.
func NewTagEvent(t EventType, tag *domain.Tag, collectionID string) Event {
	return newEvent(t, TagEventData{Tag: tag, TagID: tag.ID, CollectionID: collectionID})
}

// NewTagDeletedEvent creates a tag.deleted event.
func NewTagDeletedEvent(tagID, collectionID string) Event {
	return newEvent(EventTagDeleted, TagEventData{TagID: tagID, CollectionID: collectionID})
}

// NewCollectionEvent creates a collection.created or collection.updated event.
func NewCollectionEvent(t EventType, col *domain.TagCollection, parentID string) Event {
	return newEvent(t, CollectionEventData{Collection: col, CollectionID: col.ID, ParentID: parentID})
}

// NewCollectionDeletedEvent creates a collection.deleted event for a removed subtree.
func NewCollectionDeletedEvent(colID, parentID string, tagIDs, colIDs []string) Event {
	return newEvent(EventCollectionDeleted, CollectionEventData{
		CollectionID:         colID,
		ParentID:             parentID,
		RemovedTagIDs:        tagIDs,
		RemovedCollectionIDs: colIDs,
	})
}

// NewTreeMovedEvent creates a tree.moved event.
func NewTreeMovedEvent(kind, nodeID, fromID, toID string, index int) Event {
	return newEvent(EventTreeMoved, TreeMovedEventData{NodeID: nodeID, Kind: kind, FromID: fromID, ToID: toID, Index: index})
}

// NewExpandChangedEvent creates a tree.expand_changed event.
func NewExpandChangedEvent(nodeIDs []string, expanded bool) Event {
	return newEvent(EventExpandChanged, ExpandChangedEventData{NodeIDs: nodeIDs, Expanded: expanded})
}

// NewSelectionChangedEvent creates a selection.changed event.
func NewSelectionChangedEvent(tagIDs []string) Event {
	if tagIDs == nil {
		tagIDs = []string{}
	}
	return newEvent(EventSelectionChanged, SelectionChangedEventData{TagIDs: tagIDs})
}

// NewFileUpdatedEvent creates a file.updated event.
func NewFileUpdatedEvent(f *domain.File) Event {
	return newEvent(EventFileUpdated, FileEventData{File: f})
}

// NewSavedSearchEvent creates a saved search event. ss is nil on delete.
func NewSavedSearchEvent(t EventType, id string, ss *domain.SavedSearch) Event {
	return newEvent(t, SavedSearchEventData{SavedSearch: ss, ID: id})
}
