// Package protocol defines the chat wire protocol: the message envelope,
// its tagged payload union, and the length-prefixed frame codec.
//
// A frame on the wire is:
//
//	[4 bytes big-endian unsigned length][N bytes JSON-serialized Envelope]
//
// The serialized form is an internal contract between the relay server and
// its clients; no frame size limit is enforced at this layer.
package protocol
