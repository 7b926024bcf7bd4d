package rsc

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Entry is one field of a device:
//
//	[name, "default", "bitLength", "offset", exported, "sortPos", comment, "bitPosition"]
//
// BitPosition is nil when the file carries an empty string.
type Entry struct {
	Name        string
	Default     uint64
	BitLength   uint8
	Offset      uint64
	Exported    bool
	SortPos     uint16
	Comment     string
	BitPosition *uint8
}

const entryLen = 8

func (e Entry) MarshalJSON() ([]byte, error) {
	bp := ""
	if e.BitPosition != nil {
		bp = strconv.FormatUint(uint64(*e.BitPosition), 10)
	}
	return json.Marshal([entryLen]any{
		e.Name,
		strconv.FormatUint(e.Default, 10),
		strconv.FormatUint(uint64(e.BitLength), 10),
		strconv.FormatUint(e.Offset, 10),
		e.Exported,
		fmt.Sprintf("%04d", e.SortPos),
		e.Comment,
		bp,
	})
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != entryLen {
		return fmt.Errorf("entry has %d elements, want %d", len(raw), entryLen)
	}

	var out Entry
	if err := json.Unmarshal(raw[0], &out.Name); err != nil {
		return fmt.Errorf("entry name: %w", err)
	}

	var err error
	if out.Default, err = quotedUint(raw[1], 64); err != nil {
		return fmt.Errorf("entry %q default: %w", out.Name, err)
	}
	bl, err := quotedUint(raw[2], 8)
	if err != nil {
		return fmt.Errorf("entry %q bit length: %w", out.Name, err)
	}
	out.BitLength = uint8(bl)
	if out.Offset, err = quotedUint(raw[3], 64); err != nil {
		return fmt.Errorf("entry %q offset: %w", out.Name, err)
	}
	if err := json.Unmarshal(raw[4], &out.Exported); err != nil {
		return fmt.Errorf("entry %q exported: %w", out.Name, err)
	}
	sp, err := quotedUint(raw[5], 16)
	if err != nil {
		return fmt.Errorf("entry %q sort position: %w", out.Name, err)
	}
	out.SortPos = uint16(sp)
	if err := json.Unmarshal(raw[6], &out.Comment); err != nil {
		return fmt.Errorf("entry %q comment: %w", out.Name, err)
	}

	var s string
	if err := json.Unmarshal(raw[7], &s); err != nil {
		return fmt.Errorf("entry %q bit position: %w", out.Name, err)
	}
	if s != "" {
		bp, err := strconv.ParseUint(s, 10, 8)
		if err != nil {
			return fmt.Errorf("entry %q bit position: %w", out.Name, err)
		}
		b := uint8(bp)
		out.BitPosition = &b
	}

	*e = out
	return nil
}

func quotedUint(raw json.RawMessage, bits int) (uint64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, err
	}
	return strconv.ParseUint(s, 10, bits)
}
