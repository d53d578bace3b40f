package csavtree

import (
	"encoding/binary"
	"fmt"
)

// flattener builds the flat node-data buffer and descriptor table from an
// in-memory tree by a pre-order walk: each node's region is its own
// 4-byte self-index prefix, then its own payload bytes, then every
// child's region back to back. That layout makes the containment
// invariant (§8 property 10: every child's range nests inside its
// parent's) fall out automatically, since a node's data_size is defined
// as the size of everything written for it and its descendants.
type flattener struct {
	buf   []byte
	descs []nodeDesc
}

// flattenTree serializes root into a node-data buffer and its descriptor
// table, descriptor index 0 always being the root.
func flattenTree(root *Node) ([]byte, []nodeDesc) {
	f := &flattener{}
	f.visit(root)
	return f.buf, f.descs
}

func (f *flattener) visit(n *Node) int32 {
	idx := int32(len(f.descs))
	f.descs = append(f.descs, nodeDesc{}) // reserve the slot

	dataOffset := len(f.buf)
	var selfIdx [4]byte
	binary.LittleEndian.PutUint32(selfIdx[:], uint32(idx))
	f.buf = append(f.buf, selfIdx[:]...)
	f.buf = append(f.buf, n.Data...)

	var childIndices []int32
	for _, c := range n.Children {
		childIndices = append(childIndices, f.visit(c))
	}
	for i := 0; i < len(childIndices); i++ {
		next := noIndex
		if i+1 < len(childIndices) {
			next = childIndices[i+1]
		}
		f.descs[childIndices[i]].NextSiblingIdx = next
	}
	firstChild := noIndex
	if len(childIndices) > 0 {
		firstChild = childIndices[0]
	}

	f.descs[idx] = nodeDesc{
		Name:           n.Name,
		NextSiblingIdx: noIndex, // overwritten by the parent's loop above, if any
		FirstChildIdx:  firstChild,
		DataOffset:     uint32(dataOffset),
		DataSize:       uint32(len(f.buf) - dataOffset),
	}
	return idx
}

// unflattenTree rebuilds the in-memory tree from the descriptor table and
// node-data buffer. verifyAcyclic must have already been run by the
// caller; this still defends against a descriptor referencing itself as
// its own child/sibling, which a pure topological check on the declared
// edges would also catch, but is checked again here close to the point of
// use.
func unflattenTree(descs []nodeDesc, nodeData []byte) (*Node, error) {
	if len(descs) == 0 {
		return nil, fmt.Errorf("csavtree: empty node descriptor table")
	}
	seen := make([]bool, len(descs))
	return buildNode(descs, nodeData, 0, seen)
}

func buildNode(descs []nodeDesc, nodeData []byte, idx int32, seen []bool) (*Node, error) {
	if idx < 0 || int(idx) >= len(descs) {
		return nil, fmt.Errorf("csavtree: node index %d out of range", idx)
	}
	if seen[idx] {
		return nil, fmt.Errorf("csavtree: node %d visited twice (cyclic table)", idx)
	}
	seen[idx] = true

	d := descs[idx]
	if int(d.DataOffset)+4 > len(nodeData) {
		return nil, fmt.Errorf("csavtree: node %d data_offset %d out of range", idx, d.DataOffset)
	}
	selfIdx := binary.LittleEndian.Uint32(nodeData[d.DataOffset : d.DataOffset+4])
	if selfIdx != uint32(idx) {
		return nil, fmt.Errorf("csavtree: node %d self-index prefix mismatch: got %d", idx, selfIdx)
	}

	ownEnd := d.DataOffset + d.DataSize
	if d.FirstChildIdx != noIndex {
		if int(d.FirstChildIdx) >= len(descs) {
			return nil, fmt.Errorf("csavtree: node %d first_child_idx %d out of range", idx, d.FirstChildIdx)
		}
		ownEnd = descs[d.FirstChildIdx].DataOffset
	}
	if ownEnd > uint32(len(nodeData)) || ownEnd < d.DataOffset+4 {
		return nil, fmt.Errorf("csavtree: node %d payload range [%d,%d) invalid", idx, d.DataOffset+4, ownEnd)
	}

	n := &Node{
		Name: d.Name,
		Data: append([]byte(nil), nodeData[d.DataOffset+4:ownEnd]...),
	}

	for childIdx := d.FirstChildIdx; childIdx != noIndex; {
		child, err := buildNode(descs, nodeData, childIdx, seen)
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, child)
		childIdx = descs[childIdx].NextSiblingIdx
	}
	return n, nil
}

// validateNodeDataInvariants checks spec §8 property 10: every
// descriptor's self-index prefix matches its table index, and every
// child's byte range nests strictly inside its parent's.
func validateNodeDataInvariants(descs []nodeDesc, nodeData []byte) error {
	for i, d := range descs {
		if int(d.DataOffset)+4 > len(nodeData) {
			return fmt.Errorf("csavtree: node %d data_offset %d out of range", i, d.DataOffset)
		}
		got := binary.LittleEndian.Uint32(nodeData[d.DataOffset : d.DataOffset+4])
		if got != uint32(i) {
			return fmt.Errorf("csavtree: node %d self-index prefix mismatch: got %d", i, got)
		}
		for childIdx := d.FirstChildIdx; childIdx != noIndex; childIdx = descs[childIdx].NextSiblingIdx {
			c := descs[childIdx]
			if d.DataOffset > c.DataOffset || c.DataOffset+c.DataSize > d.DataOffset+d.DataSize {
				return fmt.Errorf("csavtree: child node %d range [%d,%d) escapes parent %d range [%d,%d)",
					childIdx, c.DataOffset, c.DataOffset+c.DataSize, i, d.DataOffset, d.DataOffset+d.DataSize)
			}
		}
	}
	return nil
}
