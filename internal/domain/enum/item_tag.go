package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// ItemTag marks a line as given away or otherwise special
type ItemTag int

const (
	ItemTagNone   ItemTag = 0
	ItemTagFree   ItemTag = 1
	ItemTagSample ItemTag = 2
	ItemTagOther  ItemTag = 3
)

var itemTagNames = [...]string{"None", "Free", "Sample", "Other"}

func (t ItemTag) String() string {
	if !t.IsValid() {
		return fmt.Sprintf("ItemTag(%d)", int(t))
	}
	return itemTagNames[t]
}

func (t ItemTag) IsValid() bool {
	return t >= ItemTagNone && t <= ItemTagOther
}

// ForcesZeroPrice is true for tags that override the price to zero.
func (t ItemTag) ForcesZeroPrice() bool {
	return t == ItemTagFree || t == ItemTagSample
}

// ParseItemTag accepts the display name in any case. Empty means None.
func ParseItemTag(str string) (ItemTag, error) {
	str = strings.TrimSpace(str)
	if str == "" {
		return ItemTagNone, nil
	}
	for i, name := range itemTagNames {
		if strings.EqualFold(name, str) {
			return ItemTag(i), nil
		}
	}
	return ItemTagNone, fmt.Errorf("unknown item tag %q", str)
}

func (t ItemTag) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *ItemTag) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = ItemTagNone
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		if !ItemTag(i).IsValid() {
			return fmt.Errorf("unknown item tag %d", i)
		}
		*t = ItemTag(i)
		return nil
	}
	parsed, err := ParseItemTag(str)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t ItemTag) Value() (driver.Value, error) {
	return int64(t), nil
}

func (t *ItemTag) Scan(value interface{}) error {
	if value == nil {
		*t = ItemTagNone
		return nil
	}
	switch v := value.(type) {
	case int64:
		*t = ItemTag(v)
	case int:
		*t = ItemTag(v)
	}
	return nil
}
