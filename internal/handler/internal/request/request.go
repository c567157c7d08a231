package request

import (
	"encoding/json"
	"io"
)

const maxBodySize = 1 << 20

func DecodeJSON(r io.Reader, v interface{}) error {
	return json.NewDecoder(io.LimitReader(r, maxBodySize)).Decode(v)
}
