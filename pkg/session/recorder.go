package session

import (
	"github.com/matzehuels/nodify/pkg/host"
)

// recorder remembers every node and graph created through it so a failed
// session can remove them again.
type recorder struct {
	host.Host
	nodes  []host.NodeID
	graphs []host.GraphID
}

func (r *recorder) NewGraph(name string) (host.GraphID, error) {
	id, err := r.Host.NewGraph(name)
	if err == nil {
		r.graphs = append(r.graphs, id)
	}
	return id, err
}

func (r *recorder) AddNode(g host.GraphID, spec host.NodeSpec) (host.NodeID, error) {
	id, err := r.Host.AddNode(g, spec)
	if err == nil {
		r.nodes = append(r.nodes, id)
	}
	return id, err
}

func (r *recorder) AddFrame(g host.GraphID, label string) (host.NodeID, error) {
	id, err := r.Host.AddFrame(g, label)
	if err == nil {
		r.nodes = append(r.nodes, id)
	}
	return id, err
}

// rollback removes recorded nodes and graphs, newest first. Handles that a
// cascading removal already deleted are skipped.
func (r *recorder) rollback() error {
	for i := len(r.nodes) - 1; i >= 0; i-- {
		if err := r.Host.RemoveNode(r.nodes[i]); err != nil && err != host.ErrUnknownNode {
			return err
		}
	}
	for i := len(r.graphs) - 1; i >= 0; i-- {
		if err := r.Host.RemoveGraph(r.graphs[i]); err != nil && err != host.ErrUnknownGraph {
			return err
		}
	}
	r.nodes, r.graphs = nil, nil
	return nil
}
