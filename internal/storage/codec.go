package storage

import (
	"encoding/json"
	"fmt"

	"github.com/rickgao/shoplog/internal/model"
)

func encodeEntries(idx model.Index) (string, error) {
	if idx == nil {
		idx = model.Index{}
	}
	data, err := json.Marshal(idx)
	if err != nil {
		return "", fmt.Errorf("encode index: %w", err)
	}
	return string(data), nil
}

func decodeEntries(raw []byte) (model.Index, error) {
	idx := model.Index{}
	if len(raw) == 0 {
		return idx, nil
	}
	if err := json.Unmarshal(raw, &idx); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}
	return idx, nil
}

func encodeRecords(records []model.ShopRecord) (string, error) {
	if records == nil {
		records = []model.ShopRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("encode records: %w", err)
	}
	return string(data), nil
}
