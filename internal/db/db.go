// Package db is the storage contract behind docset collections: JSON
// documents addressed by key, plus one search index per collection.
package db

import "context"

// Backend is what a collection repository and the health check need from a store.
type Backend interface {
	Documents
	Indexes
	Searcher
	Ping(ctx context.Context) error
	Close()
}

// Documents reads and writes JSON documents by key.
type Documents interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Indexes manages the per-collection search index.
type Indexes interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	// IndexInfo returns ErrIndexNotFound when the index is absent.
	IndexInfo(ctx context.Context, name string) (*IndexInfo, error)
}

// Searcher runs paged queries and counts against an index.
type Searcher interface {
	Search(ctx context.Context, q *SearchQuery) (*SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}
