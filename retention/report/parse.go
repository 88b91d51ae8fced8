package report

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sarchlab/retention/mem/dram/signal"
)

// ErrMalformedRecord is wrapped by every error returned from Parse.
var ErrMalformedRecord = errors.New("malformed record")

// Record is the content of one parsed record.
type Record struct {
	Layout      Layout
	DecayCycles uint64
	Address     uint32
	RepeatIndex int
	BitErrors   int
	Read        signal.Burst

	// Only set by the verbose layout.
	Written signal.Burst
	Passed  bool
}

// Location returns the bank/row/column the record was taken at.
func (r Record) Location() signal.Location {
	return signal.Unpack(r.Address)
}

type fieldSpec struct {
	tag    byte
	digits int
	hex    bool
}

var compactFields = []fieldSpec{
	{'T', decayDigits, true},
	{'A', addressDigits, true},
	{'M', repeatDigits, false},
	{'E', errorDigits, true},
	{'D', dataDigits, true},
}

// Parse decodes one record. The trailing line break is optional.
func Parse(line string) (Record, error) {
	line = strings.TrimRight(line, "\r\n")

	var rec Record

	parts := strings.Split(line, ",")
	switch len(parts) {
	case len(compactFields):
		rec.Layout = LayoutCompact
	case len(compactFields) + 2:
		rec.Layout = LayoutVerbose
	default:
		return Record{}, fmt.Errorf("%w: %d fields in %q",
			ErrMalformedRecord, len(parts), line)
	}

	values := make([]uint64, len(compactFields))
	for i, spec := range compactFields {
		if spec.tag == 'D' {
			if err := parseBurst(parts[i], 'D', &rec.Read); err != nil {
				return Record{}, err
			}

			continue
		}

		v, err := parseField(parts[i], spec)
		if err != nil {
			return Record{}, err
		}

		values[i] = v
	}

	rec.DecayCycles = values[0]
	rec.Address = uint32(values[1])
	rec.RepeatIndex = int(values[2])
	rec.BitErrors = int(values[3])

	if rec.BitErrors > signal.BurstBits {
		return Record{}, fmt.Errorf("%w: %d bit errors in a %d bit burst",
			ErrMalformedRecord, rec.BitErrors, signal.BurstBits)
	}

	if rec.Layout == LayoutVerbose {
		if err := parseVerbose(parts[len(compactFields):], &rec); err != nil {
			return Record{}, err
		}
	}

	return rec, nil
}

func parseVerbose(parts []string, rec *Record) error {
	if err := parseBurst(parts[0], 'W', &rec.Written); err != nil {
		return err
	}

	switch parts[1] {
	case "PP":
		rec.Passed = true
	case "PF":
		rec.Passed = false
	default:
		return fmt.Errorf("%w: bad pass flag %q", ErrMalformedRecord, parts[1])
	}

	return nil
}

func parseField(s string, spec fieldSpec) (uint64, error) {
	if len(s) != 1+spec.digits || s[0] != spec.tag {
		return 0, fmt.Errorf("%w: field %q is not %c with %d digits",
			ErrMalformedRecord, s, spec.tag, spec.digits)
	}

	var v uint64

	for i := 1; i < len(s); i++ {
		d, ok := digitValue(s[i], spec.hex)
		if !ok {
			return 0, fmt.Errorf("%w: bad digit %q in %q",
				ErrMalformedRecord, s[i], s)
		}

		if spec.hex {
			v = v<<4 | d
		} else {
			v = v*10 + d
		}
	}

	return v, nil
}

func parseBurst(s string, tag byte, dst *signal.Burst) error {
	if len(s) != 1+dataDigits || s[0] != tag {
		return fmt.Errorf("%w: field %q is not %c with %d digits",
			ErrMalformedRecord, s, tag, dataDigits)
	}

	for i := range dst {
		hi, ok1 := digitValue(s[1+2*i], true)
		lo, ok2 := digitValue(s[2+2*i], true)

		if !ok1 || !ok2 {
			return fmt.Errorf("%w: bad hex in %q", ErrMalformedRecord, s)
		}

		dst[i] = byte(hi<<4 | lo)
	}

	return nil
}

// digitValue accepts uppercase hex only, as that is all Encode writes.
func digitValue(c byte, hex bool) (uint64, bool) {
	switch {
	case c >= '0' && c <= '9':
		return uint64(c - '0'), true
	case hex && c >= 'A' && c <= 'F':
		return uint64(c-'A') + 10, true
	default:
		return 0, false
	}
}
