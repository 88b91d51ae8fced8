package signal

// The single address map supported by the device.
const (
	BankBits   = 3
	RowBits    = 16
	ColumnBits = 10

	NumBank   = 1 << BankBits
	NumRow    = 1 << RowBits
	NumColumn = 1 << ColumnBits
)

// Location is the bank/row/column address of a burst.
type Location struct {
	Bank   uint32
	Row    uint32
	Column uint32
}

// Valid reports whether every part of the address fits the address map.
func (l Location) Valid() bool {
	return l.Bank < NumBank && l.Row < NumRow && l.Column < NumColumn
}

// Pack returns the flat address bank|row|column.
func (l Location) Pack() uint32 {
	return l.Bank<<(RowBits+ColumnBits) | l.Row<<ColumnBits | l.Column
}

// Unpack splits a flat address produced by Pack.
func Unpack(addr uint32) Location {
	return Location{
		Bank:   (addr >> (RowBits + ColumnBits)) & (NumBank - 1),
		Row:    (addr >> ColumnBits) & (NumRow - 1),
		Column: addr & (NumColumn - 1),
	}
}
