// Package server implements the MCP (Model Context Protocol) server for food
// recognition.
//
// This package provides a JSON-RPC 2.0 server that exposes the recognition
// pipeline and a few image inspection helpers through the MCP protocol.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Recognition:
//   - food_recognize: Detect, classify and merge food items
//   - food_detect: Detector output only
//   - food_annotate: Recognition plus an annotated PNG
//   - food_groups: Category groups and classifier availability
//
// Image Inspection:
//   - image_load: Load image and get metadata
//   - image_crop: Extract rectangular region
//
// Recognition tools take either a path or base64 image bytes.
//
// # Image Caching
//
// Images loaded by path are cached for the lifetime of the server process and
// reused across tool calls.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with code
// -32000 and the Go error string as data. An undecodable image fails the
// call; a classifier failure only affects the item it occurred on and is
// reported in that item's error field.
package server
