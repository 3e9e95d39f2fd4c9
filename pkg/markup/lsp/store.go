package lsp

import "sync"

// document is one open markup file.
type document struct {
	text   string
	fileID int
}

// DocumentStore is a thread-safe store of open documents keyed by URI. Each
// URI gets a stable file id for the lifetime of the store, so debug sources
// can be mapped back to the document that produced them.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]*document
	fileIDs   map[string]int
}

// NewDocumentStore creates an empty DocumentStore.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]*document),
		fileIDs:   make(map[string]int),
	}
}

// Set stores content for uri and returns the uri's file id.
func (ds *DocumentStore) Set(uri, content string) int {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	id, ok := ds.fileIDs[uri]
	if !ok {
		id = len(ds.fileIDs)
		ds.fileIDs[uri] = id
	}

	ds.documents[uri] = &document{text: content, fileID: id}

	return id
}

// Get returns the content and file id of uri.
func (ds *DocumentStore) Get(uri string) (content string, fileID int, ok bool) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	doc, ok := ds.documents[uri]
	if !ok {
		return "", 0, false
	}

	return doc.text, doc.fileID, true
}

// Delete forgets the content of uri. Its file id stays reserved.
func (ds *DocumentStore) Delete(uri string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	delete(ds.documents, uri)
}
