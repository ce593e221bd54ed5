package feed

// FormatComments arranges a post's flat comment list into reply trees.
// Roots and children keep their order from comments. A comment whose parent
// is not in the list is treated as a root.
func FormatComments(comments []Comment) []CommentWithChildren {
	present := make(map[string]bool, len(comments))
	for _, c := range comments {
		present[c.ID] = true
	}

	children := make(map[string][]int)
	var roots []int
	for i, c := range comments {
		if c.ParentID == "" || c.ParentID == c.ID || !present[c.ParentID] {
			roots = append(roots, i)
			continue
		}
		children[c.ParentID] = append(children[c.ParentID], i)
	}

	visited := make([]bool, len(comments))
	var build func(i int) CommentWithChildren
	build = func(i int) CommentWithChildren {
		visited[i] = true
		node := CommentWithChildren{Comment: comments[i], Children: []CommentWithChildren{}}
		for _, child := range children[comments[i].ID] {
			if !visited[child] {
				node.Children = append(node.Children, build(child))
			}
		}
		return node
	}

	tree := make([]CommentWithChildren, 0, len(roots))
	for _, i := range roots {
		tree = append(tree, build(i))
	}

	// Parent cycles have no root; surface them instead of dropping them
	for i := range comments {
		if !visited[i] {
			tree = append(tree, build(i))
		}
	}
	return tree
}

// CountComments returns the number of comments in trees, replies included.
func CountComments(trees []CommentWithChildren) int {
	n := 0
	for _, t := range trees {
		n += 1 + CountComments(t.Children)
	}
	return n
}
