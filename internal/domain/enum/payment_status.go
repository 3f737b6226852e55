package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// PaymentStatus is the settlement state of a bill
type PaymentStatus int

const (
	PaymentStatusPaid    PaymentStatus = 0
	PaymentStatusUnpaid  PaymentStatus = 1
	PaymentStatusPartial PaymentStatus = 2
)

var paymentStatusNames = [...]string{"Paid", "Unpaid", "Partial"}

func (s PaymentStatus) String() string {
	if !s.IsValid() {
		return fmt.Sprintf("PaymentStatus(%d)", int(s))
	}
	return paymentStatusNames[s]
}

func (s PaymentStatus) IsValid() bool {
	return s >= PaymentStatusPaid && s <= PaymentStatusPartial
}

// ParsePaymentStatus accepts the display name in any case or the numeric code.
func ParsePaymentStatus(str string) (PaymentStatus, error) {
	str = strings.TrimSpace(str)
	for i, name := range paymentStatusNames {
		if strings.EqualFold(name, str) {
			return PaymentStatus(i), nil
		}
	}
	var i int
	if _, err := fmt.Sscanf(str, "%d", &i); err == nil && PaymentStatus(i).IsValid() {
		return PaymentStatus(i), nil
	}
	return 0, fmt.Errorf("unknown payment status %q", str)
}

func (s PaymentStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *PaymentStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		if !PaymentStatus(i).IsValid() {
			return fmt.Errorf("unknown payment status %d", i)
		}
		*s = PaymentStatus(i)
		return nil
	}
	parsed, err := ParsePaymentStatus(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s PaymentStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *PaymentStatus) Scan(value interface{}) error {
	if value == nil {
		*s = PaymentStatusUnpaid
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = PaymentStatus(v)
	case int:
		*s = PaymentStatus(v)
	}
	return nil
}
