package sources

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// hexUint64 marshals/unmarshals as a JSON-RPC quantity ("0x..."), the
// standard Ethereum JSON-RPC encoding for block and batch numbers.
type hexUint64 uint64

func (n hexUint64) String() string {
	return fmt.Sprintf("0x%x", uint64(n))
}

func (n hexUint64) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.String())
}

func (n *hexUint64) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := strconv.ParseUint(trimHexPrefix(s), 16, 64)
	if err != nil {
		return fmt.Errorf("invalid quantity %q: %w", s, err)
	}
	*n = hexUint64(v)
	return nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
