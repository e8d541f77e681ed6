package data

import (
	"encoding/json"
	"fmt"
)

type Employee struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Surname     string `json:"surname"`
	Role        string `json:"role"`
	PhoneCode   string `json:"phoneCode"` //numeric, but kept as text (leading zeroes, etc.)
	PhoneNumber string `json:"phoneNumber"`
}

func (e *Employee) MarshalBinary() ([]byte, error) {
	return json.Marshal(e)
}

func (e *Employee) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, e)
}

func (e *Employee) String() string {
	return fmt.Sprintf("Employee{id=%d, name='%s', surname='%s', role='%s', phoneCode='%s', phoneNumber='%s'}",
		e.ID, e.Name, e.Surname, e.Role, e.PhoneCode, e.PhoneNumber)
}
