package daedalus

// VmOption configures a Vm at construction time functional-
// option configuration surface for the VM. Prefer adding a new option here
// over widening NewVm's parameter list, matching the rest of the module's
// constructors.
type VmOption func(*Vm)

// WithExecFlags sets the VM's leniency flags (ALLOW_NULL_INSTANCE_ACCESS,
// IGNORE_CONST_SPECIFIER).
func WithExecFlags(flags ExecFlag) VmOption {
	return func(vm *Vm) { vm.flags = flags }
}

// WithExceptionHandler installs the strategy callback invoked whenever an
// opcode raises a script error.
// Equivalent to calling vm.RegisterExceptionHandler after construction.
func WithExceptionHandler(h ExceptionHandler) VmOption {
	return func(vm *Vm) { vm.exceptionHandler = h }
}

// WithAccessTrap installs the interceptor invoked instead of pushing a
// reference when a TRAP_ACCESS-flagged symbol is read
// "register_access_trap".
func WithAccessTrap(cb func(*Symbol)) VmOption {
	return func(vm *Vm) { vm.accessTrap = cb }
}

// WithDefaultExternal installs the fallback external handler
// "register_default_external".
func WithDefaultExternal(cb func(name string)) VmOption {
	return func(vm *Vm) { vm.RegisterDefaultExternal(cb) }
}
