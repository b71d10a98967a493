// Package server exposes the indexer over HTTP with gin.
//
// Routes:
//
//	GET  /health                  store reachability
//	POST /api/v1/inventory        JSON array of shop records, uploader in X-Uploader-ID
//	POST /api/v1/logs             raw or gzipped client log, parsed then ingested
//	POST /api/v1/convert          raw log to json, csv or xlsx (?format=)
//	GET  /api/v1/index            the full price index
//	GET  /api/v1/index/lookup     one entry by ?item= and repeated ?enchant=
//	GET  /api/v1/feed             websocket stream of index changes
package server
