package tables

// Core layout constants of the furnace total table.
// For configurable defaults, see defaults.go

const (
	// Header fixed fields
	ConfigHex       = "00F0"
	DefaultMotorHex = "00C0"

	// DefaultLoadAddress is the controller flash base the category offsets are relative to.
	DefaultLoadAddress = 0x82000000

	// Length fields are one little-endian uint32 written three times
	LengthFieldBytes   = 4
	LengthFieldCopies  = 3
	EncodedLengthChars = LengthFieldBytes * 2 * LengthFieldCopies // 24

	// Header: config (2) + motor (2) + 4 category fields + total field
	HeaderFieldCount = 5
	HeaderSize       = 2 + 2 + HeaderFieldCount*LengthFieldBytes*LengthFieldCopies // 64 bytes

	// Final artifact carries the total table this many times after the header
	TotalTableCopies = 3

	MaxLength = 0xFFFFFFFF
)

// Category identifies one of the four sub-tables. The numeric order is the
// concatenation order of the total table.
type Category int

const (
	CategoryStatic Category = iota
	CategoryAction
	CategoryDynamic
	CategoryMonitoring
)

// Categories lists every category in total-table order.
var Categories = [...]Category{CategoryStatic, CategoryAction, CategoryDynamic, CategoryMonitoring}

func (c Category) String() string {
	switch c {
	case CategoryStatic:
		return "static"
	case CategoryAction:
		return "action"
	case CategoryDynamic:
		return "dynamic"
	case CategoryMonitoring:
		return "monitoring"
	default:
		return "unknown"
	}
}

// ParseCategory maps a category name back to its value.
func ParseCategory(name string) (Category, bool) {
	for _, c := range Categories {
		if c.String() == name {
			return c, true
		}
	}
	return 0, false
}
