// Package server implements the MCP (Model Context Protocol) server for leaf
// area measurement.
//
// This package provides a JSON-RPC 2.0 server that exposes the calibration,
// segmentation and measurement pipeline through the MCP protocol, so an
// assistant can measure leaves in photographs without running the batch CLI.
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
//   - image_load: Load image and get metadata
//   - image_unload: Drop one cached image, or all of them
//   - leaf_calibrate: Two points 1 cm apart to a pixels-per-cm ratio
//   - leaf_segment: Foreground statistics and mask for one image
//   - leaf_measure: Per-leaf areas for one image, optional annotated copy
//   - leaf_batch: Measure a directory and optionally write CSV reports
//
// Segmentation and filtering settings default to the configuration the
// server was started with; each leaf_* call may override kernel size,
// iteration counts, minimum leaf area and numbering order, and leaf_measure
// and leaf_batch may override the annotation colors.
//
// # Image Caching
//
// The server maintains an in-memory cache of loaded images. Images are cached
// by path and reused across multiple tool calls, avoiding redundant disk I/O.
// The cache keeps the most recently used images only; image_unload drops
// entries whose files changed on disk. leaf_batch reads its directory
// directly and does not populate the cache.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// Unreadable images inside a leaf_batch directory are not tool errors; they
// are listed in the result's failures.
//
// # Usage
//
//	srv := server.New(cfg, logger)
//	if err := srv.Run(ctx, os.Stdin, os.Stdout); err != nil {
//	    logger.Fatal().Err(err).Msg("server error")
//	}
package server
