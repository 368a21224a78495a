package service

import "github.com/iliyamo/token-manager/internal/model"

// BuildGroupTree nests a flat list of groups under their parents. Roots are
// the groups without a parent; siblings keep the order of the input. The
// adjacency index keyed by parent id keeps the build linear in len(groups).
func BuildGroupTree(groups []model.TokenGroup) []*model.GroupNode {
	nodes := make([]*model.GroupNode, len(groups))
	byParent := make(map[uint64][]*model.GroupNode, len(groups))
	roots := []*model.GroupNode{}

	for i := range groups {
		n := &model.GroupNode{TokenGroup: groups[i], Children: []*model.GroupNode{}}
		nodes[i] = n
		if n.ParentID == nil {
			roots = append(roots, n)
			continue
		}
		byParent[*n.ParentID] = append(byParent[*n.ParentID], n)
	}
	for _, n := range nodes {
		if kids, ok := byParent[n.ID]; ok {
			n.Children = kids
		}
	}
	return roots
}
