package sweep

// counter counts from 0 to limit-1.
type counter struct {
	index int
	limit int
}

// step moves to the next value and reports whether it wrapped to 0.
func (c *counter) step() bool {
	c.index++
	if c.index < c.limit {
		return false
	}

	c.index = 0

	return true
}

// cursor is the position in the sweep. The repeat counter varies fastest and
// the duration counter slowest.
type cursor struct {
	duration counter
	address  counter
	repeat   counter
}

func newCursor(durations, addresses, repeats int) cursor {
	return cursor{
		duration: counter{limit: durations},
		address:  counter{limit: addresses},
		repeat:   counter{limit: repeats},
	}
}

// advance moves to the next point. It returns true when the duration counter
// wraps, which ends the sweep.
func (c *cursor) advance() bool {
	if !c.repeat.step() {
		return false
	}

	if !c.address.step() {
		return false
	}

	return c.duration.step()
}

func (c *cursor) rewind() {
	c.duration.index = 0
	c.address.index = 0
	c.repeat.index = 0
}
