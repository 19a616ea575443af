package protocol

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
)

// ByteSeq is the media payload of an audioChunk envelope. The agent-side
// producer emits it as a JSON array of numbers ([1,2,3] for the bytes
// 01 02 03); decoding also accepts a base64 string for producers that
// serialize byte slices the default Go way.
type ByteSeq []byte

// MarshalJSON emits the payload as an array of numbers.
func (b ByteSeq) MarshalJSON() ([]byte, error) {
	if b == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, v := range b {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Itoa(int(v)))
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts an array of numbers in the 0-255 range, a base64
// string, or null.
func (b *ByteSeq) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*b = nil
		return nil
	}
	switch data[0] {
	case '[':
		var nums []int64
		if err := json.Unmarshal(data, &nums); err != nil {
			return fmt.Errorf("payload array: %w", err)
		}
		out := make([]byte, len(nums))
		for i, n := range nums {
			if n < 0 || n > 255 {
				return fmt.Errorf("payload element %d out of byte range: %d", i, n)
			}
			out[i] = byte(n)
		}
		*b = out
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("payload string: %w", err)
		}
		raw, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return fmt.Errorf("payload string is not base64: %w", err)
		}
		*b = raw
		return nil
	default:
		return fmt.Errorf("payload must be a byte array or base64 string")
	}
}
