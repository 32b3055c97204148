package model

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

const (
	USD = "USD"
	EUR = "EUR"
)

type CurrencyInfo struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// CurrencyMap maps currency codes to CurrencyInfo and remembers insertion
// order. "First currency" always means the first code inserted.
type CurrencyMap struct {
	codes []string
	items map[string]CurrencyInfo
}

func NewCurrencyMap() CurrencyMap {
	return CurrencyMap{items: make(map[string]CurrencyInfo)}
}

// Set inserts or replaces code. A replaced code keeps its original position.
func (m *CurrencyMap) Set(code string, info CurrencyInfo) {
	if m.items == nil {
		m.items = make(map[string]CurrencyInfo)
	}
	if _, exists := m.items[code]; !exists {
		m.codes = append(m.codes, code)
	}
	m.items[code] = info
}

func (m CurrencyMap) Get(code string) (CurrencyInfo, bool) {
	info, ok := m.items[code]
	return info, ok
}

func (m CurrencyMap) Has(code string) bool {
	_, ok := m.items[code]
	return ok
}

func (m CurrencyMap) Len() int {
	return len(m.codes)
}

// Codes returns the codes in insertion order.
func (m CurrencyMap) Codes() []string {
	out := make([]string, len(m.codes))
	copy(out, m.codes)
	return out
}

func (m CurrencyMap) First() (string, CurrencyInfo, bool) {
	if len(m.codes) == 0 {
		return "", CurrencyInfo{}, false
	}
	code := m.codes[0]
	return code, m.items[code], true
}

func (m CurrencyMap) Clone() CurrencyMap {
	out := CurrencyMap{
		codes: make([]string, len(m.codes)),
		items: make(map[string]CurrencyInfo, len(m.items)),
	}
	copy(out.codes, m.codes)
	for code, info := range m.items {
		out.items[code] = info
	}
	return out
}

func (m CurrencyMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, code := range m.codes {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(code)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(m.items[code])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON keeps the document's key order.
func (m *CurrencyMap) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid currency map json")
	}
	result := gjson.ParseBytes(data)
	if result.Type == gjson.Null {
		*m = CurrencyMap{}
		return nil
	}
	if !result.IsObject() {
		return fmt.Errorf("currency map must be a json object")
	}
	parsed := ParseCurrencies(result)
	*m = parsed
	return nil
}

// ParseCurrencies reads a {"CODE": {"name": ..., "symbol": ...}} object in
// document order.
func ParseCurrencies(result gjson.Result) CurrencyMap {
	currencies := NewCurrencyMap()
	result.ForEach(func(key, value gjson.Result) bool {
		currencies.Set(key.String(), CurrencyInfo{
			Name:   value.Get("name").String(),
			Symbol: value.Get("symbol").String(),
		})
		return true
	})
	return currencies
}
