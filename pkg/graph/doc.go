// Package graph provides the serialization format for compiled node graphs.
//
// A [Document] captures everything a compile produced: the host graphs with
// their nodes, ports and links, the per-line layout grids, and warnings. It
// is the wire format for JSON and YAML files, API responses and the result
// cache.
//
// # Document Layout
//
//	{
//	  "session_id": "4c1d...",
//	  "graphs": [
//	    {"id": 1, "name": "root", "nodes": [{"id": 1, "type": "value", "x": -70, "y": 0, ...}]}
//	  ],
//	  "links": [{"graph": 1, "from_node": 1, "from_port": 0, "to_node": 2, "to_port": 0}],
//	  "lines": [{"number": 3, "frame": 7, "graphs": [{"graph": 1, "columns": [[2], [1]]}]}],
//	  "warnings": {"3": ["output on LHS is deprecated, ..."]}
//	}
//
// Node and graph IDs are the host handles of the compile that produced the
// document. They are stable within a document and only meaningful there.
//
// # Building and Writing
//
//	doc := graph.FromResult(h, res, arranged)
//	graph.WriteJSON(doc, os.Stdout)
//	graph.WriteFile(doc, "out.yaml")   // format picked by extension
//
// Use [ReadJSON] or [ReadYAML] to load a document back.
package graph
