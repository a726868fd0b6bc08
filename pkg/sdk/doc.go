// Package docdex provides an embedded Go client for the docdex hybrid
// retrieval engine backed by Valkey or Redis.
//
// The client wires the full search pipeline in-process: query
// normalization, the vector leg (native KNN with an in-process cosine
// fallback), the six-field keyword leg, score fusion and the result
// cache. Documents and embeddings are expected to be written by a
// separate ingestion pipeline; this client only reads.
//
//	client, _ := docdex.New(ctx,
//	    docdex.WithValkey("localhost:6379", ""),
//	    docdex.WithEmbedder(myEmbedder),
//	)
//	defer client.Close()
//
//	results, _ := client.Search(ctx, docdex.SearchRequest{
//	    Query: "redis streams tutorial",
//	    Limit: 10,
//	})
//
// Without an embedder the client still serves keyword search; vector
// and hybrid requests degrade to the keyword leg or fail per request
// type.
package docdex
