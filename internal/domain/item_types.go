package domain

type ItemType string

func (t ItemType) String() string {
	return string(t)
}

const (
	ItemTypeSet     ItemType = "S" // Sets
	ItemTypePart    ItemType = "P" // Parts
	ItemTypeMinifig ItemType = "M" // Minifigures
)

func (t ItemType) GetItemName() string {
	switch t {
	case ItemTypeSet:
		return "Sets"
	case ItemTypePart:
		return "Parts"
	case ItemTypeMinifig:
		return "Minifigures"
	default:
		return "Unknown"
	}
}

// Section is the inventory table grouping an item row belongs to.
type Section string

func (s Section) String() string {
	return string(s)
}

const (
	SectionRegular     Section = "regular"
	SectionCounterpart Section = "counterpart"
	SectionExtra       Section = "extra"
	SectionAlternate   Section = "alternate"
)
