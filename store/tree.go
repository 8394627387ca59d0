package store

import "github.com/CrestNiraj12/whispernet/domain"

// The functions below are pure: they never modify their input and return a
// new tree when something changed. Untouched subtrees are shared.

// InsertUnder appends node to the replies of the comment parentID at any
// depth. When parentID is not in the tree, the tree is returned unchanged
// with false; the node is never attached at the root.
func InsertUnder(tree []domain.Comment, parentID string, node domain.Comment) ([]domain.Comment, bool) {
	return rewrite(tree, parentID, func(c domain.Comment) (domain.Comment, bool) {
		replies := make([]domain.Comment, len(c.Replies), len(c.Replies)+1)
		copy(replies, c.Replies)
		c.Replies = append(replies, node)
		return c, true
	})
}

// RemoveChild drops nodeID from the direct replies of parentID.
func RemoveChild(tree []domain.Comment, parentID, nodeID string) ([]domain.Comment, bool) {
	return rewrite(tree, parentID, func(c domain.Comment) (domain.Comment, bool) {
		for i, r := range c.Replies {
			if r.ID == nodeID {
				replies := make([]domain.Comment, 0, len(c.Replies)-1)
				replies = append(replies, c.Replies[:i]...)
				c.Replies = append(replies, c.Replies[i+1:]...)
				return c, true
			}
		}
		return c, false
	})
}

// ReplaceByID swaps the node id for node, keeping its position. The replies
// of the old node are kept when node has none.
func ReplaceByID(tree []domain.Comment, id string, node domain.Comment) ([]domain.Comment, bool) {
	return rewrite(tree, id, func(c domain.Comment) (domain.Comment, bool) {
		if len(node.Replies) == 0 {
			node.Replies = c.Replies
		}
		return node, true
	})
}

// UpdateByID applies patch to a copy of the node id.
func UpdateByID(tree []domain.Comment, id string, patch func(*domain.Comment)) ([]domain.Comment, bool) {
	return rewrite(tree, id, func(c domain.Comment) (domain.Comment, bool) {
		patch(&c)
		return c, true
	})
}

// RemoveByID drops the node id and its subtree wherever it is.
func RemoveByID(tree []domain.Comment, id string) ([]domain.Comment, bool) {
	for i, c := range tree {
		if c.ID == id {
			out := make([]domain.Comment, 0, len(tree)-1)
			out = append(out, tree[:i]...)
			return append(out, tree[i+1:]...), true
		}
	}
	for i, c := range tree {
		replies, ok := RemoveByID(c.Replies, id)
		if ok {
			c.Replies = replies
			return with(tree, i, c), true
		}
	}
	return tree, false
}

// Find returns a copy of the node id.
func Find(tree []domain.Comment, id string) (domain.Comment, bool) {
	var found domain.Comment
	ok := false
	Walk(tree, func(c domain.Comment, _ int) bool {
		if c.ID == id {
			found, ok = c, true
			return false
		}
		return true
	})
	return found, ok
}

// Contains reports whether id is anywhere in the tree.
func Contains(tree []domain.Comment, id string) bool {
	_, ok := Find(tree, id)
	return ok
}

// Walk visits nodes depth-first in display order with their depth (0 for
// top-level comments). Returning false from fn stops the walk.
func Walk(tree []domain.Comment, fn func(c domain.Comment, depth int) bool) {
	walk(tree, 0, fn)
}

func walk(tree []domain.Comment, depth int, fn func(domain.Comment, int) bool) bool {
	for _, c := range tree {
		if !fn(c, depth) {
			return false
		}
		if !walk(c.Replies, depth+1, fn) {
			return false
		}
	}
	return true
}

// rewrite applies fn to the first node with id and rebuilds the path to it.
func rewrite(tree []domain.Comment, id string, fn func(domain.Comment) (domain.Comment, bool)) ([]domain.Comment, bool) {
	for i, c := range tree {
		if c.ID == id {
			updated, ok := fn(c)
			if !ok {
				return tree, false
			}
			return with(tree, i, updated), true
		}
		if replies, ok := rewrite(c.Replies, id, fn); ok {
			c.Replies = replies
			return with(tree, i, c), true
		}
	}
	return tree, false
}

func with(tree []domain.Comment, i int, c domain.Comment) []domain.Comment {
	out := make([]domain.Comment, len(tree))
	copy(out, tree)
	out[i] = c
	return out
}
