// Package server implements the MCP (Model Context Protocol) server for the
// shape finder.
//
// This package provides a JSON-RPC 2.0 server that exposes shape detection
// through the MCP protocol, so that MCP clients can locate and label simple
// geometric shapes in images.
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
//   - image_load: Load an image and report its dimensions and format
//   - shapes_find: Detect triangles, rectangles, pentagons, circles and ellipses
//   - shapes_classify: Classify caller-supplied contours
//   - shapes_annotate: Detect shapes and return the image with outlines and labels
//   - shapes_masks: Inspect the binary masks the detector scans
//
// The image tools accept per-call overrides for the region of interest,
// channels, mask levels, smoothing and the minimum polygon area. Everything
// else comes from the server Options, which the CLI fills from the
// configuration file.
//
// # Image Caching
//
// Decoded images are cached by absolute path for the lifetime of the
// process, so repeated calls on the same file skip decoding.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// A contour that matches no shape is not an error; it is simply absent from
// the results.
//
// # Usage
//
//	srv, err := server.New(server.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	return srv.Run(ctx, os.Stdin, os.Stdout)
package server
