package catalogs

import "strings"

// Item names in the database are human-readable ("Copper Ore"); payloads use
// camelCase keys ("copperOre"). The translation is mechanical except where
// the words do not split cleanly, which the override tables pin down so a
// renamed item cannot silently stop round-tripping.
var nameToKeyOverride = map[string]string{
	"Coins": "coins",
}

var keyToNameOverride = map[string]string{
	"coins": "Coins",
}

// KeyForName converts a catalog item name to its camelCase payload key.
func KeyForName(name string) string {
	if k, ok := nameToKeyOverride[name]; ok {
		return k
	}
	words := strings.Fields(name)
	if len(words) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(strings.ToLower(words[0][:1]) + words[0][1:])
	for _, w := range words[1:] {
		b.WriteString(strings.ToUpper(w[:1]) + w[1:])
	}
	return b.String()
}

// NameForKey converts a camelCase payload key back to the catalog item name.
func NameForKey(key string) string {
	if n, ok := keyToNameOverride[key]; ok {
		return n
	}
	if key == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString(strings.ToUpper(key[:1]))
	for _, r := range key[1:] {
		if r >= 'A' && r <= 'Z' {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}
