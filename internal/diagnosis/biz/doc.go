// Package biz implements the diagnosis pipeline business logic.
//
// The ingestion path parses an Orphanet-style nomenclature XML into disease
// records (Normalizer), splits each record into overlapping text chunks
// (Chunker), embeds the chunks and writes them to the vector index
// (Ingester). The query path embeds a free-text symptom description,
// searches the index (Retriever) and composes the retrieved evidence with
// an LLM generation into a diagnosis response (Composer). Service ties the
// two paths together and adds result caching and metrics.
package biz
