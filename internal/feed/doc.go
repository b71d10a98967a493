// Package feed pushes price index changes to websocket subscribers.
//
// Each accepted upload that moves at least one entry produces one Message
// listing the changed keys with their before and after values. Clients
// that fall behind by more than the send buffer are disconnected rather
// than slowing down the ingest path.
package feed
