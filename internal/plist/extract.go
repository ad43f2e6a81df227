package plist

import (
	"fmt"

	"github.com/franz/tunes/internal/util"
)

// Track is one track dictionary's children: alternating <key> and value
// elements in document order. Pairing is left to the consumer.
type Track []*Node

// ExtractTracks locates the track collection and returns its entries.
//
// The library export is <plist><dict>...</dict></plist>. The outer dict
// holds the library's own metadata first, and the track collection is its
// last nested dict. Inside the collection each track id <key> is followed
// by that track's <dict>; the keys are discarded.
func ExtractTracks(doc *Node) ([]Track, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: empty document", util.ErrStructure)
	}

	root := firstChild(doc, ElemPlist)
	if root == nil {
		return nil, fmt.Errorf("%w: no <plist> root element", util.ErrStructure)
	}

	library := firstChild(root, ElemDict)
	if library == nil {
		return nil, fmt.Errorf("%w: <plist> has no top-level <dict>", util.ErrStructure)
	}

	collection := lastChild(library, ElemDict)
	if collection == nil {
		return nil, fmt.Errorf("%w: top-level <dict> has no nested track <dict>", util.ErrStructure)
	}

	tracks := make([]Track, 0, len(collection.Children)/2)
	for _, child := range collection.Children {
		if !child.IsDict() {
			continue
		}
		tracks = append(tracks, Track(child.Children))
	}

	return tracks, nil
}

func firstChild(n *Node, name string) *Node {
	for _, child := range n.Children {
		if child.Name == name {
			return child
		}
	}
	return nil
}

func lastChild(n *Node, name string) *Node {
	for i := len(n.Children) - 1; i >= 0; i-- {
		if n.Children[i].Name == name {
			return n.Children[i]
		}
	}
	return nil
}
