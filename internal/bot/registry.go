package bot

import "sync"

// Modules self-register from their init functions before the bot starts,
// so the registry is a package-level table guarded for concurrent access.
var (
	registryMu sync.RWMutex
	registered []Module
)

// Register adds a module to the registry. Called from module init()
// functions.
func Register(m Module) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registered = append(registered, m)
}

// Modules returns the registered modules in registration order. The
// returned slice is a copy; later registrations do not leak into it.
func Modules() []Module {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Module, len(registered))
	copy(result, registered)
	return result
}

// ResetGlobalRegistry clears the registry. Test use only.
func ResetGlobalRegistry() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registered = nil
}
