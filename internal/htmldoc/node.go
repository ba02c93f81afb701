package htmldoc

// Kind discriminates the two node shapes a parsed document is made of.
type Kind int

const (
	KindElement Kind = iota
	KindText
)

// Node is a closed sum of Element and Text. Element nodes carry Tag, Attrs
// and Children; Text nodes carry Content and Preserve. Rendering code
// switches on Kind and Tag exhaustively.
type Node struct {
	Kind Kind

	// Element fields
	Tag      string
	Attrs    map[string]string
	Children []*Node

	// Text fields
	Content  string
	Preserve bool
}

// Attr returns the value of the named attribute, or "" when absent.
func (n *Node) Attr(name string) string {
	if n.Attrs == nil {
		return ""
	}
	return n.Attrs[name]
}

func (n *Node) appendChild(c *Node) {
	n.Children = append(n.Children, c)
}
