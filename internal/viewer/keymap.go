package viewer

import (
	"slices"
)

// KeyMap binds key names such as "C-q" or "S-Right" to actions.
type KeyMap map[string]func()

func CreateKeyMap() KeyMap {
	return KeyMap{}
}

func (km KeyMap) Bind(key string, f func()) {
	km[key] = f
}

func (km KeyMap) HandleKey(key string) bool {
	if f, ok := km[key]; ok {
		f()
		return true
	}
	return false
}

func (km KeyMap) Keys() []string {
	keys := make([]string, 0, len(km))
	for k := range km {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// KeyName prefixes name with the active modifiers, in the order
// C-M-S-.
func KeyName(name string, shift, alt, control bool) string {
	if shift {
		name = "S-" + name
	}
	if alt {
		name = "M-" + name
	}
	if control {
		name = "C-" + name
	}
	return name
}
