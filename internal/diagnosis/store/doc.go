// Package store provides the vector storage layer of the diagnosis service.
//
// It defines the VectorStore abstraction over disease knowledge chunks and
// two implementations: a Milvus-backed store for production and an in-memory
// store for tests and single-node setups.
package store
