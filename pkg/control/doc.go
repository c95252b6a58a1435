// Package control carries unfollow commands between processes
//
// Commands are JSON objects such as {"type": "UNFOLLOW_ALL"} sent over a
// websocket. CHECK_IN_PROGRESS is the only command with a reply,
// {"payload": true|false}. Unknown types are dropped without a reply
package control
