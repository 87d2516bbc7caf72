package mockapi

import "github.com/apibind/apibind/internal/jsonc"

func unmarshalJSONC(data []byte, v any) error {
	return jsonc.Unmarshal(data, v)
}
