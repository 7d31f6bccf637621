package crosstab

import (
	"sort"
	"strconv"
)

// Dimension is a grouping axis of parsed items
type Dimension int

const (
	DimNationality Dimension = iota
	DimCategory
	DimCity
	DimYear
)

func (d Dimension) String() string {
	switch d {
	case DimNationality:
		return "nationality"
	case DimCategory:
		return "category"
	case DimCity:
		return "city"
	case DimYear:
		return "year"
	default:
		return "dimension(" + strconv.Itoa(int(d)) + ")"
	}
}

func (d Dimension) key(it Item) string {
	switch d {
	case DimNationality:
		return it.Nationality.String()
	case DimCategory:
		return it.CategoryName
	case DimCity:
		return it.CityName
	case DimYear:
		return strconv.Itoa(it.Year)
	default:
		return ""
	}
}

// Node is one level of a grouped hierarchy
type Node struct {
	Name     string
	Value    int
	Children []*Node
}

// Group nests the non-total items by dims in order and sums their counts.
// Sibling nodes keep the order in which their key first appears.
func Group(items []Item, dims ...Dimension) []*Node {
	facts := make([]Item, 0, len(items))
	for _, it := range items {
		if !it.IsTotalRow {
			facts = append(facts, it)
		}
	}
	return group(facts, dims)
}

func group(items []Item, dims []Dimension) []*Node {
	if len(dims) == 0 {
		return nil
	}

	var (
		order   []string
		buckets = make(map[string][]Item)
	)
	for _, it := range items {
		k := dims[0].key(it)
		if _, ok := buckets[k]; !ok {
			order = append(order, k)
		}
		buckets[k] = append(buckets[k], it)
	}

	nodes := make([]*Node, 0, len(order))
	for _, k := range order {
		node := &Node{Name: k}
		for _, it := range buckets[k] {
			node.Value += it.Count
		}
		node.Children = group(buckets[k], dims[1:])
		nodes = append(nodes, node)
	}
	return nodes
}

// Top keeps the n largest nodes by value. Ties keep their original order.
func Top(nodes []*Node, n int) []*Node {
	if n <= 0 || n >= len(nodes) {
		return nodes
	}
	sorted := make([]*Node, len(nodes))
	copy(sorted, nodes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Value > sorted[j].Value
	})
	return sorted[:n]
}
