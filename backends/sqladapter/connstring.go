package sqladapter

import "strings"

// KeyValuePair is one entry of a semicolon-separated connect string.
type KeyValuePair struct {
	Key   string
	Value string
}

// ParseKeyValuePairs splits a "key=value;key=value" connect string the way
// the ODBC-family drivers expect it: semicolons separate pairs, the first
// equals sign splits key from value, values may be brace-quoted to contain
// either.
func ParseKeyValuePairs(connectString string) []KeyValuePair {
	var pairs []KeyValuePair
	var chunks []string
	depth := 0
	start := 0
	for i := 0; i < len(connectString); i++ {
		switch connectString[i] {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case ';':
			if depth == 0 {
				chunks = append(chunks, connectString[start:i])
				start = i + 1
			}
		}
	}
	chunks = append(chunks, connectString[start:])

	for _, chunk := range chunks {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		key, value, found := strings.Cut(chunk, "=")
		if !found {
			pairs = append(pairs, KeyValuePair{Key: strings.TrimSpace(chunk)})
			continue
		}
		value = strings.TrimSpace(value)
		if strings.HasPrefix(value, "{") && strings.HasSuffix(value, "}") {
			value = value[1 : len(value)-1]
		}
		pairs = append(pairs, KeyValuePair{Key: strings.TrimSpace(key), Value: value})
	}
	return pairs
}

// JoinKeyValuePairs renders pairs back into a semicolon-separated connect
// string.
func JoinKeyValuePairs(pairs []KeyValuePair) string {
	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(p.Key)
		if p.Value != "" {
			b.WriteByte('=')
			if strings.ContainsAny(p.Value, ";=") {
				b.WriteByte('{')
				b.WriteString(p.Value)
				b.WriteByte('}')
			} else {
				b.WriteString(p.Value)
			}
		}
	}
	return b.String()
}
