package cardops

import (
	"context"

	"github.com/cardengine/cardengine/internal/cardkey"
	"github.com/cardengine/cardengine/internal/models"
	"github.com/cardengine/cardengine/internal/store"
)

// GetRelationGraph performs a breadth-first traversal of the relation
// graph starting from key, emitting every other visited key at most
// once with the depth and relation type of the edge that first reached
// it. The root itself is never emitted. opts.MaxDepth == 0 returns an
// empty result (an explicit zero-hop request); callers wanting no limit
// must pass MaxDepthUnbounded. A missing root, or a root with no edges,
// also returns an empty (non-nil) result rather than an error.
func (e *Engine) GetRelationGraph(ctx context.Context, key string, opts GraphOptions) ([]GraphNode, error) {
	normalized, err := cardkey.Normalize(key)
	if err != nil {
		return nil, err
	}
	if opts.MaxDepth == 0 {
		return []GraphNode{}, nil
	}
	unbounded := opts.MaxDepth < 0
	direction := opts.Direction
	if direction == "" {
		direction = models.DirectionBoth
	}

	root, err := store.FindCardByKey(e.store.Conn(), normalized)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return []GraphNode{}, nil
	}

	type frontierItem struct {
		key   string
		depth int
	}

	visited := map[string]bool{normalized: true}
	nodes := []GraphNode{}
	queue := []frontierItem{{normalized, 0}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if !unbounded && cur.depth >= opts.MaxDepth {
			continue
		}

		rels, err := store.FindRelationsByCardKey(e.store.Conn(), cur.key)
		if err != nil {
			return nil, err
		}
		for _, r := range rels {
			var dir models.Direction
			if !r.IsReverse {
				if direction == models.DirectionBackward {
					continue
				}
				dir = models.DirectionForward
			} else {
				if direction == models.DirectionForward {
					continue
				}
				dir = models.DirectionBackward
			}

			target := r.DstKey
			if visited[target] {
				continue
			}
			exists, err := store.ExistsCardByKey(e.store.Conn(), target)
			if err != nil {
				return nil, err
			}
			if !exists {
				continue // orphan edge: target row absent
			}

			visited[target] = true
			depth := cur.depth + 1
			nodes = append(nodes, GraphNode{Key: target, Depth: depth, RelationType: r.Type, Direction: dir})
			queue = append(queue, frontierItem{target, depth})
		}
	}

	return nodes, nil
}
