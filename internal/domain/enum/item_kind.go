package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// ItemKind says whether a line references a catalog product or a service
type ItemKind int

const (
	ItemKindProduct ItemKind = 0
	ItemKindService ItemKind = 1
)

var itemKindNames = [...]string{"Product", "Service"}

func (k ItemKind) String() string {
	if !k.IsValid() {
		return fmt.Sprintf("ItemKind(%d)", int(k))
	}
	return itemKindNames[k]
}

func (k ItemKind) IsValid() bool {
	return k == ItemKindProduct || k == ItemKindService
}

func (k ItemKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *ItemKind) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		if !ItemKind(i).IsValid() {
			return fmt.Errorf("unknown item kind %d", i)
		}
		*k = ItemKind(i)
		return nil
	}
	for i, name := range itemKindNames {
		if strings.EqualFold(name, str) {
			*k = ItemKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown item kind %q", str)
}

func (k ItemKind) Value() (driver.Value, error) {
	return int64(k), nil
}

func (k *ItemKind) Scan(value interface{}) error {
	if value == nil {
		*k = ItemKindProduct
		return nil
	}
	switch v := value.(type) {
	case int64:
		*k = ItemKind(v)
	case int:
		*k = ItemKind(v)
	}
	return nil
}
