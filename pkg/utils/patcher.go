// Файл: utils/patcher.go
package utils

import (
	"encoding/json"
)

// SentFields возвращает множество ключей верхнего уровня, реально присланных в JSON-теле.
// Нужен для PATCH, чтобы отличить "поле не прислали" от "прислали null".
func SentFields(rawRequestBody []byte) (map[string]bool, error) {
	var sent map[string]json.RawMessage
	if err := json.Unmarshal(rawRequestBody, &sent); err != nil {
		return nil, err
	}
	fields := make(map[string]bool, len(sent))
	for k := range sent {
		fields[k] = true
	}
	return fields, nil
}
